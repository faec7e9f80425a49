package amqp

import (
	"encoding/json"
	"time"
)

// TableUpdatedType is the message type and routing key of reload notifications.
const TableUpdatedType = "table.updated"

// TableUpdatedMessage tells dashboard instances that the source table changed.
// It carries only a reference; consumers reload from their own backend.
type TableUpdatedMessage struct {
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Ref       string    `json:"ref,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTableUpdatedMessage creates a notification stamped with the current time.
func NewTableUpdatedMessage(source, ref string) *TableUpdatedMessage {
	return &TableUpdatedMessage{
		Type:      TableUpdatedType,
		Source:    source,
		Ref:       ref,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TableUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TableUpdatedMessageFromJSON decodes a message and defaults the type for
// older publishers that omit it.
func TableUpdatedMessageFromJSON(data []byte) (*TableUpdatedMessage, error) {
	var msg TableUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		msg.Type = TableUpdatedType
	}
	return &msg, nil
}
