package provider

import (
	"context"

	"github.com/notifyhub/topic-channel/internal/domain"
)

// SendRequest is the JSON body posted to the external provider.
type SendRequest struct {
	TopicID string `json:"topicId"`
	To      string `json:"to"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// SendResponse maps the provider's 202 Accepted response body.
type SendResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Sender delivers a consumed topic to the outside world.
// Consumers only call it when delivery is enabled; the queue handshake never
// depends on its result.
type Sender interface {
	Send(ctx context.Context, t domain.Topic) (*SendResponse, error)
}
