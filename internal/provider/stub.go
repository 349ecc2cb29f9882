package provider

import (
	"context"
	"time"

	"github.com/notifyhub/topic-channel/internal/domain"
)

// StubSender accepts sms messages without doing anything and rejects email
// messages with ErrSendNotImplemented.
type StubSender struct{}

func NewStubSender() *StubSender { return &StubSender{} }

func (StubSender) Send(_ context.Context, t domain.Topic) (*SendResponse, error) {
	if t.Type == domain.MessageEmail {
		return nil, domain.ErrSendNotImplemented
	}
	return &SendResponse{
		MessageID: t.Message.ID,
		Status:    "accepted",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

var _ Sender = StubSender{}
