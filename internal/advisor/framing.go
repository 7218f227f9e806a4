package advisor

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"mime"
	"strings"
)

// Mode selects how fragments are framed on the wire.
type Mode int

const (
	// Raw writes fragments verbatim as chunked text/plain.
	Raw Mode = iota
	// Events wraps each fragment in a server-sent event and ends the
	// stream with an explicit done event.
	Events
)

const (
	ContentTypeRaw    = "text/plain; charset=utf-8"
	ContentTypeEvents = "text/event-stream"

	eventText = "text"
	eventDone = "done"
)

// ModeForAccept picks Events when the client asks for an event stream.
func ModeForAccept(accept string) Mode {
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == ContentTypeEvents {
			return Events
		}
	}
	return Raw
}

// ModeForContentType picks the decoding mode for a response.
func ModeForContentType(contentType string) Mode {
	mt, _, err := mime.ParseMediaType(contentType)
	if err == nil && mt == ContentTypeEvents {
		return Events
	}
	return Raw
}

func (m Mode) ContentType() string {
	if m == Events {
		return ContentTypeEvents
	}
	return ContentTypeRaw
}

// StreamInterruptedError reports a stream that ended before the producer
// signalled completion.
type StreamInterruptedError struct {
	Err error
}

func (e *StreamInterruptedError) Error() string {
	if e.Err == nil {
		return "advice stream interrupted"
	}
	return fmt.Sprintf("advice stream interrupted: %v", e.Err)
}

func (e *StreamInterruptedError) Unwrap() error {
	return e.Err
}

// Writer frames fragments onto w and flushes after each one.
type Writer struct {
	w     io.Writer
	mode  Mode
	flush func() error
}

func NewWriter(w io.Writer, mode Mode, flush func() error) *Writer {
	if flush == nil {
		flush = func() error { return nil }
	}
	return &Writer{w: w, mode: mode, flush: flush}
}

func (fw *Writer) WriteFragment(text string) error {
	var err error
	if fw.mode == Events {
		data, _ := json.Marshal(text)
		_, err = fmt.Fprintf(fw.w, "event: %s\ndata: %s\n\n", eventText, data)
	} else {
		_, err = io.WriteString(fw.w, text)
	}
	if err != nil {
		return err
	}
	return fw.flush()
}

// Close marks natural completion. Raw streams have no terminator; the
// end of the HTTP body is the signal.
func (fw *Writer) Close() error {
	if fw.mode != Events {
		return fw.flush()
	}
	if _, err := fmt.Fprintf(fw.w, "event: %s\ndata: {}\n\n", eventDone); err != nil {
		return err
	}
	return fw.flush()
}

// Decode reads a framed stream back into fragments. In event mode a data
// line that is not a JSON string is taken literally, and reaching EOF
// without a done event is a StreamInterruptedError. In raw mode only a
// transport-level unexpected EOF counts as interruption.
func Decode(r io.Reader, mode Mode) iter.Seq2[string, error] {
	if mode == Events {
		return decodeEvents(r)
	}
	return decodeRaw(r)
}

func decodeRaw(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		buf := make([]byte, 4096)
		var pending []byte
		for {
			n, err := r.Read(buf)
			if n > 0 {
				pending = append(pending, buf[:n]...)
				// Hold back an incomplete trailing UTF-8 sequence.
				cut := completeUTF8(pending)
				if cut > 0 {
					if !yield(string(pending[:cut]), nil) {
						return
					}
					pending = append(pending[:0], pending[cut:]...)
				}
			}
			if errors.Is(err, io.EOF) {
				if len(pending) > 0 {
					yield(string(pending), nil)
				}
				return
			}
			if err != nil {
				if len(pending) > 0 && !yield(string(pending), nil) {
					return
				}
				yield("", &StreamInterruptedError{Err: err})
				return
			}
		}
	}
}

func decodeEvents(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), 1<<20)

		event := ""
		var data []string
		loose := false
		dispatch := func() (done, keepGoing bool) {
			defer func() { event, data = "", nil }()
			if event == eventDone {
				return true, false
			}
			if len(data) == 0 {
				return false, true
			}
			return false, yield(decodeData(strings.Join(data, "\n")), nil)
		}

		for sc.Scan() {
			line := sc.Text()
			switch {
			case line == "" && loose && event == "" && len(data) == 0:
				// Blank line between unframed lines.
				if !yield("\n", nil) {
					return
				}
				continue
			case line == "":
				done, keepGoing := dispatch()
				if done || !keepGoing {
					return
				}
			case strings.HasPrefix(line, ":"):
				// comment / keep-alive
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			default:
				// Unframed text inside an event stream is passed through
				// with its line break.
				loose = true
				if !yield(line+"\n", nil) {
					return
				}
				continue
			}
			loose = false
		}

		err := sc.Err()
		if err == nil {
			// A final event without its blank line still counts.
			if done, keepGoing := dispatch(); done || !keepGoing {
				return
			}
		}
		yield("", &StreamInterruptedError{Err: err})
	}
}

func decodeData(data string) string {
	var s string
	if err := json.Unmarshal([]byte(data), &s); err == nil {
		return s
	}
	return data
}

// completeUTF8 returns the length of the longest prefix of b that does not
// end inside a multi-byte UTF-8 sequence.
func completeUTF8(b []byte) int {
	n := len(b)
	for i := n - 1; i >= 0 && i >= n-4; i-- {
		c := b[i]
		if c&0xC0 == 0x80 {
			continue
		}
		var size int
		switch {
		case c&0x80 == 0:
			size = 1
		case c&0xE0 == 0xC0:
			size = 2
		case c&0xF0 == 0xE0:
			size = 3
		case c&0xF8 == 0xF0:
			size = 4
		default:
			return n
		}
		if i+size > n {
			return i
		}
		return n
	}
	return n
}

// Accumulate concatenates fragments in order. On error it returns what was
// received so far together with the error.
func Accumulate(fragments iter.Seq2[string, error]) (string, error) {
	var b strings.Builder
	for frag, err := range fragments {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}
