package amqp

import (
	"encoding/json"
	"time"
)

// RequestSubmittedMessage notifies the export worker that an event request
// was saved locally. It carries only the ID and version; the worker fetches
// the full request from the database.
type RequestSubmittedMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRequestSubmittedMessage creates a submission message for a request ID.
func NewRequestSubmittedMessage(id, version int64) *RequestSubmittedMessage {
	return &RequestSubmittedMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *RequestSubmittedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RequestSubmittedMessageFromJSON decodes a message from JSON bytes.
func RequestSubmittedMessageFromJSON(data []byte) (*RequestSubmittedMessage, error) {
	var msg RequestSubmittedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
