package domain

import (
	"encoding/json"
	"fmt"
)

// MessageType is the discriminant of a Message.
type MessageType string

const (
	MessageEmail MessageType = "email"
	MessageSMS   MessageType = "sms"
)

func (t MessageType) IsValid() bool {
	switch t {
	case MessageEmail, MessageSMS:
		return true
	}
	return false
}

// Message is the payload carried by a Topic. Type selects the variant:
// Address holds an email address for MessageEmail and a phone number for
// MessageSMS. The coordination layer never looks inside.
type Message struct {
	ID      string
	Type    MessageType
	Address string
	Content string
}

func NewEmail(id, address, content string) Message {
	return Message{ID: id, Type: MessageEmail, Address: address, Content: content}
}

func NewSMS(id, phone, content string) Message {
	return Message{ID: id, Type: MessageSMS, Address: phone, Content: content}
}

type emailJSON struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Content string `json:"content"`
}

type smsJSON struct {
	ID      string `json:"id"`
	Phone   string `json:"phone"`
	Content string `json:"content"`
}

// MarshalJSON renders the variant's own field name for the address.
func (m Message) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case MessageEmail:
		return json.Marshal(emailJSON{ID: m.ID, Email: m.Address, Content: m.Content})
	case MessageSMS:
		return json.Marshal(smsJSON{ID: m.ID, Phone: m.Address, Content: m.Content})
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMessageType, m.Type)
	}
}

// Topic is one unit of work moved through the queue. It is never mutated
// after construction.
type Topic struct {
	ID      string      `json:"id"`
	Type    MessageType `json:"type"`
	Message Message     `json:"message"`
}

func NewTopic(id string, msg Message) Topic {
	return Topic{ID: id, Type: msg.Type, Message: msg}
}

// DisplayForm returns the JSON form of t used in log lines.
// A topic that cannot be rendered falls back to its id and type.
func DisplayForm(t Topic) string {
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Sprintf(`{"id":%q,"type":%q}`, t.ID, t.Type)
	}
	return string(b)
}
