package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// TranscriptEvent mirrors the speech recognizer lifecycle.
type TranscriptEvent string

const (
	EventStart  TranscriptEvent = "start"
	EventResult TranscriptEvent = "result"
	EventEnd    TranscriptEvent = "end"
	EventError  TranscriptEvent = "error"
)

func (e TranscriptEvent) Valid() bool {
	switch e {
	case EventStart, EventResult, EventEnd, EventError:
		return true
	}
	return false
}

// TranscriptMessage carries one speech-to-text event. Only result events
// have Text; error events have Error.
type TranscriptMessage struct {
	Event     TranscriptEvent `json:"event"`
	Text      string          `json:"text,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewTranscriptMessage creates a result message for text
func NewTranscriptMessage(text string) *TranscriptMessage {
	return &TranscriptMessage{
		Event:     EventResult,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TranscriptMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TranscriptMessageFromJSON decodes and validates a message.
func TranscriptMessageFromJSON(data []byte) (*TranscriptMessage, error) {
	var msg TranscriptMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Event.Valid() {
		return nil, fmt.Errorf("unknown transcript event %q", msg.Event)
	}
	return &msg, nil
}
