package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/notifyhub/topic-channel/internal/domain"
)

// TypeLimiters holds one token bucket limiter per message type.
// Burst is set equal to the rate so no extra burst capacity is allowed
// beyond the configured per-second maximum.
type TypeLimiters struct {
	limiters map[domain.MessageType]*rate.Limiter
}

// New creates a TypeLimiters with ratePerSec tokens per second per type.
func New(ratePerSec int) *TypeLimiters {
	r := rate.Limit(ratePerSec)
	burst := ratePerSec

	return &TypeLimiters{
		limiters: map[domain.MessageType]*rate.Limiter{
			domain.MessageEmail: rate.NewLimiter(r, burst),
			domain.MessageSMS:   rate.NewLimiter(r, burst),
		},
	}
}

// Wait blocks until the type's limiter grants a token.
// Returns a non-nil error if ctx is cancelled while waiting or the type is unknown.
func (tl *TypeLimiters) Wait(ctx context.Context, t domain.MessageType) error {
	l, ok := tl.limiters[t]
	if !ok {
		return domain.ErrInvalidMessageType
	}
	return l.Wait(ctx)
}
