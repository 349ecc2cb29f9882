package worker

import "github.com/notifyhub/topic-channel/internal/domain"

// Assign returns, for each of the batchSize topics, the index of the
// producer that must produce it. Every topic gets exactly one producer.
//
// DispatchLiteral keeps the legacy rule, which does not depend on the
// topic index and therefore routes the whole batch to a single producer:
//
//	factor = batchSize%producers + 1
//	index  = batchSize % factor
func Assign(mode domain.DispatchMode, batchSize, producers int) ([]int, error) {
	if producers < 1 {
		return nil, domain.ErrInvalidSizing
	}
	if batchSize < 0 {
		return nil, domain.ErrInvalidBatch
	}

	out := make([]int, batchSize)
	switch mode {
	case domain.DispatchRoundRobin:
		for i := range out {
			out[i] = i % producers
		}
	case domain.DispatchLiteral:
		factor := batchSize%producers + 1
		idx := batchSize % factor
		for i := range out {
			out[i] = idx
		}
	default:
		return nil, domain.ErrInvalidDispatch
	}
	return out, nil
}

// Distribute groups topics by the producer Assign picks for them,
// preserving batch order within each group.
func Distribute(mode domain.DispatchMode, topics []domain.Topic, producers int) ([][]domain.Topic, error) {
	idx, err := Assign(mode, len(topics), producers)
	if err != nil {
		return nil, err
	}
	groups := make([][]domain.Topic, producers)
	for i, p := range idx {
		groups[p] = append(groups[p], topics[i])
	}
	return groups, nil
}
