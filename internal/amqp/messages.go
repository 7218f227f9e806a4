package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kinds of state change carried by StateChangedMessage.
const (
	KindEntries = "entries"
	KindHistory = "history"
	KindReset   = "reset"
)

// StateChangedMessage tells the worker that a collection changed. It carries
// no data; the worker reads the current state from the database.
type StateChangedMessage struct {
	Kind      string    `json:"kind"`
	Revision  int64     `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

func NewStateChangedMessage(kind string, revision int64) *StateChangedMessage {
	return &StateChangedMessage{
		Kind:      kind,
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

func (m *StateChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StateChangedMessageFromJSON decodes a message and rejects unknown kinds.
func StateChangedMessageFromJSON(data []byte) (*StateChangedMessage, error) {
	var msg StateChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case KindEntries, KindHistory, KindReset:
	default:
		return nil, fmt.Errorf("unknown state change kind %q", msg.Kind)
	}
	return &msg, nil
}
