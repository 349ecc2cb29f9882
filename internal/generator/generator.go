// Package generator builds synthetic topics with random email or sms payloads.
package generator

import (
	"strings"

	"github.com/google/uuid"

	"github.com/notifyhub/topic-channel/internal/domain"
	"github.com/notifyhub/topic-channel/internal/random"
)

const (
	letters      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	digits       = "0123456789"
	contentChars = "ABCDEFGHIJKLMNO PQRSTUVWXYZabcdefghi jklmnopqrstuvwxyz #$@"

	emailLength   = 16
	phoneLength   = 9
	contentLength = 64

	// TopicBound is the number of message variants a topic can carry.
	TopicBound = 2
)

// Factory creates topics. All randomness comes from the injected source.
type Factory struct {
	rnd   *random.Bounded
	newID func() string
}

func NewFactory(rnd *random.Bounded) *Factory {
	return &Factory{rnd: rnd, newID: func() string { return uuid.New().String() }}
}

// Topic returns a new topic whose message type is drawn uniformly.
func (f *Factory) Topic() domain.Topic {
	t := domain.MessageEmail
	if f.rnd.Next(TopicBound) == 2 {
		t = domain.MessageSMS
	}
	return domain.NewTopic(f.newID(), f.Message(t))
}

// Batch returns n freshly generated topics.
func (f *Factory) Batch(n int) []domain.Topic {
	topics := make([]domain.Topic, n)
	for i := range topics {
		topics[i] = f.Topic()
	}
	return topics
}

// Message builds a payload of the given variant. An unknown type yields an
// sms message, mirroring the catch-all of the type draw.
func (f *Factory) Message(t domain.MessageType) domain.Message {
	if t == domain.MessageEmail {
		return domain.NewEmail(f.newID(), f.EmailAddress(), f.Content())
	}
	return domain.NewSMS(f.newID(), f.PhoneNumber(), f.Content())
}

func (f *Factory) EmailAddress() string {
	return f.text(emailLength, letters) + "@gmail.com"
}

// PhoneNumber returns a ten digit number starting with 9.
func (f *Factory) PhoneNumber() string {
	return "9" + f.text(phoneLength, digits)
}

func (f *Factory) Content() string {
	return f.text(contentLength, contentChars)
}

func (f *Factory) text(size int, alphabet string) string {
	var sb strings.Builder
	sb.Grow(size)
	for range size {
		sb.WriteByte(alphabet[f.rnd.Next(len(alphabet))-1])
	}
	return sb.String()
}
