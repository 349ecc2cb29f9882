package worker

import "github.com/notifyhub/topic-channel/internal/domain"

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the constructor signatures clean. Nil fields are no-ops.
type MetricHooks struct {
	OnProduced       func(t domain.MessageType, depth int)
	OnConsumed       func(t domain.MessageType, depth int)
	OnDeliveryFailed func(t domain.MessageType)
}

func (h MetricHooks) withDefaults() MetricHooks {
	if h.OnProduced == nil {
		h.OnProduced = func(domain.MessageType, int) {}
	}
	if h.OnConsumed == nil {
		h.OnConsumed = func(domain.MessageType, int) {}
	}
	if h.OnDeliveryFailed == nil {
		h.OnDeliveryFailed = func(domain.MessageType) {}
	}
	return h
}
