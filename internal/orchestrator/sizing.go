package orchestrator

import (
	"github.com/notifyhub/topic-channel/internal/domain"
	"github.com/notifyhub/topic-channel/internal/random"
)

// Limits are the upper bounds the per-run sizes are drawn from.
type Limits struct {
	MaxProducers  int
	MaxConsumers  int
	MaxBufferSize int
}

// Size draws producer and consumer counts independently, then derives the
// queue capacity from a third draw.
func Size(rnd *random.Bounded, l Limits) domain.Sizing {
	producers := rnd.Next(l.MaxProducers)
	consumers := rnd.Next(l.MaxConsumers)
	prefix := rnd.Next(l.MaxBufferSize)
	return domain.Sizing{
		Producers: producers,
		Consumers: consumers,
		Capacity:  Capacity(prefix, producers, consumers),
	}
}

// Capacity returns prefix when it already exceeds the smaller pool, and
// prefix plus the smaller pool size otherwise. The result is never below
// prefix.
func Capacity(prefix, producers, consumers int) int {
	floor := min(producers, consumers)
	if prefix > floor {
		return prefix
	}
	return prefix + floor
}
