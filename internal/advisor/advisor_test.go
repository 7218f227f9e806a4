package advisor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetx/internal/llm"
	applog "budgetx/internal/log"
)

type fakeStreamer struct {
	fragments []string
	failAt    int // index at which to fail; -1 for never
	err       error
	calls     int
	last      llm.TextRequest
	ctxErr    error
}

func (f *fakeStreamer) GenerateObject(context.Context, llm.ObjectRequest) ([]byte, error) {
	return nil, errors.New("not used")
}

func (f *fakeStreamer) StreamText(ctx context.Context, req llm.TextRequest) iter.Seq2[string, error] {
	f.calls++
	f.last = req
	return func(yield func(string, error) bool) {
		defer func() { f.ctxErr = ctx.Err() }()
		for i, frag := range f.fragments {
			if i == f.failAt {
				yield("", f.err)
				return
			}
			if !yield(frag, nil) {
				return
			}
		}
		if f.failAt == len(f.fragments) {
			yield("", f.err)
		}
	}
}

func TestStream_RelaysFragmentsInOrder(t *testing.T) {
	model := &fakeStreamer{fragments: []string{"", "Impact", "", " Analysis:", " $50/mo"}, failAt: -1}
	g := NewGateway(model, applog.Discard())

	frags, err := g.Stream(context.Background(), "Can I afford a gym?", "## ctx")
	require.NoError(t, err)

	var got []string
	for f, err := range frags {
		require.NoError(t, err)
		got = append(got, f)
	}

	assert.Equal(t, []string{"Impact", " Analysis:", " $50/mo"}, got)
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, systemPrompt, model.last.System)
	assert.Equal(t, "Here is my current budget data:\n\n## ctx\n\nMy question: Can I afford a gym?", model.last.Prompt)
}

func TestStream_BlankQuestionRejectedWithoutUpstreamCall(t *testing.T) {
	model := &fakeStreamer{failAt: -1}

	for _, q := range []string{"", "   \n"} {
		_, err := NewGateway(model, applog.Discard()).Stream(context.Background(), q, "ctx")
		var verr *llm.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Question is required", verr.Message)
	}
	assert.Zero(t, model.calls)
}

func TestStream_FailureBeforeFirstFragment(t *testing.T) {
	cause := errors.New("quota")
	model := &fakeStreamer{fragments: []string{"never"}, failAt: 0, err: cause}

	_, err := NewGateway(model, applog.Discard()).Stream(context.Background(), "q", "ctx")

	var uerr *llm.UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.ErrorIs(t, err, cause)
}

func TestStream_FailureMidStream(t *testing.T) {
	cause := errors.New("connection reset")
	model := &fakeStreamer{fragments: []string{"one", "two", "three"}, failAt: 2, err: cause}

	frags, err := NewGateway(model, applog.Discard()).Stream(context.Background(), "q", "ctx")
	require.NoError(t, err)

	text, err := Accumulate(frags)
	assert.Equal(t, "onetwo", text)
	assert.ErrorIs(t, err, cause)
}

func TestStream_StoppingEarlyCancelsUpstream(t *testing.T) {
	model := &fakeStreamer{fragments: []string{"a", "b", "c"}, failAt: -1}

	frags, err := NewGateway(model, applog.Discard()).Stream(context.Background(), "q", "ctx")
	require.NoError(t, err)

	for range frags {
		break
	}
	assert.ErrorIs(t, model.ctxErr, context.Canceled)
}

func TestFraming_RoundTrip(t *testing.T) {
	chunks := []string{"Impact", " Analysis:", " $50/mo"}

	for _, mode := range []Mode{Raw, Events} {
		var buf bytes.Buffer
		flushes := 0
		w := NewWriter(&buf, mode, func() error { flushes++; return nil })
		for _, c := range chunks {
			require.NoError(t, w.WriteFragment(c))
		}
		require.NoError(t, w.Close())

		text, err := Accumulate(Decode(&buf, mode))
		require.NoError(t, err, "mode %d", mode)
		assert.Equal(t, "Impact Analysis: $50/mo", text)
		assert.Equal(t, 4, flushes)
	}
}

func TestFraming_EventEncoding(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Events, nil)
	require.NoError(t, w.WriteFragment("line one\nline \"two\""))
	require.NoError(t, w.Close())

	assert.Equal(t, "event: text\ndata: \"line one\\nline \\\"two\\\"\"\n\nevent: done\ndata: {}\n\n", buf.String())

	text, err := Accumulate(Decode(strings.NewReader(buf.String()), Events))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline \"two\"", text)
}

func TestDecodeEvents_ToleratesLooseFrames(t *testing.T) {
	stream := ": keep-alive\n\ndata: plain text\n\ndata: \"json\"\n\nevent: done\ndata: {}\n\n"
	text, err := Accumulate(Decode(strings.NewReader(stream), Events))
	require.NoError(t, err)
	assert.Equal(t, "plain textjson", text)
}

func TestDecodeEvents_KeepsLineBreaksInLooseText(t *testing.T) {
	text, err := Accumulate(Decode(strings.NewReader("line one\nline two\n"), Events))
	assert.Equal(t, "line one\nline two\n", text)
	var ierr *StreamInterruptedError
	assert.ErrorAs(t, err, &ierr, "no done event arrived")

	stream := "para one\n\npara two\nevent: text\ndata: \"framed\"\n\nevent: done\ndata: {}\n\n"
	text, err = Accumulate(Decode(strings.NewReader(stream), Events))
	require.NoError(t, err)
	assert.Equal(t, "para one\n\npara two\nframed", text)
}

func TestDecodeEvents_MissingDoneIsInterrupted(t *testing.T) {
	stream := "event: text\ndata: \"partial\"\n\n"
	text, err := Accumulate(Decode(strings.NewReader(stream), Events))

	assert.Equal(t, "partial", text)
	var ierr *StreamInterruptedError
	assert.ErrorAs(t, err, &ierr)
}

func TestDecodeRaw_UnexpectedEOFIsInterrupted(t *testing.T) {
	r := io.MultiReader(strings.NewReader("partial answer"), iotest.ErrReader(io.ErrUnexpectedEOF))
	text, err := Accumulate(Decode(r, Raw))

	assert.Equal(t, "partial answer", text)
	var ierr *StreamInterruptedError
	require.ErrorAs(t, err, &ierr)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeRaw_KeepsMultibyteRunesWhole(t *testing.T) {
	text := "📊 Budget ✨"
	r := iotest.OneByteReader(strings.NewReader(text))

	var frags []string
	for f, err := range Decode(r, Raw) {
		require.NoError(t, err)
		frags = append(frags, f)
	}
	for _, f := range frags {
		assert.True(t, strings.ToValidUTF8(f, "?") == f, "fragment %q split a rune", f)
	}
	assert.Equal(t, text, strings.Join(frags, ""))
}

func TestModeSelection(t *testing.T) {
	assert.Equal(t, Events, ModeForAccept("text/html, text/event-stream;q=0.9"))
	assert.Equal(t, Raw, ModeForAccept("*/*"))
	assert.Equal(t, Raw, ModeForAccept(""))
	assert.Equal(t, Events, ModeForContentType("text/event-stream; charset=utf-8"))
	assert.Equal(t, Raw, ModeForContentType("text/plain; charset=utf-8"))
	assert.Equal(t, ContentTypeEvents, Events.ContentType())
}
