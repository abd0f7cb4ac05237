package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"
)

// missedOffset is where a missed question is re-inserted, counted from the
// front after it has been removed.
const missedOffset = 4

var (
	errNoQueue      = errors.New("no saved queue")
	errInvalidQueue = errors.New("saved queue is not a permutation of question ids")
)

// ReviewQueue is the presentation order of questions. The head is shown next.
type ReviewQueue struct {
	storage Storage
	ids     []int
	order   []int
	rng     *rand.Rand
	log     *zap.Logger
}

// NewReviewQueue restores the saved order if it is a permutation of ids.
// Otherwise it shuffles ids and saves the result right away.
func NewReviewQueue(storage Storage, ids []int, rng *rand.Rand, log *zap.Logger) *ReviewQueue {
	if log == nil {
		log = zap.NewNop()
	}
	if rng == nil {
		rng = newRand()
	}
	q := &ReviewQueue{
		storage: storage,
		ids:     append([]int(nil), ids...),
		rng:     rng,
		log:     log,
	}

	order, err := q.restore()
	if err == nil {
		q.order = order
		return q
	}

	if errors.Is(err, errNoQueue) {
		q.log.Debug("no saved review queue, shuffling")
	} else {
		q.log.Warn("discarding saved review queue", zap.Error(err))
	}
	q.Rebuild()
	if err := q.Persist(); err != nil {
		q.log.Warn("failed to save rebuilt review queue", zap.Error(err))
	}
	return q
}

func (q *ReviewQueue) restore() ([]int, error) {
	raw, ok, err := q.storage.Get(QueueKey)
	if err != nil {
		return nil, fmt.Errorf("read saved queue: %w", err)
	}
	if !ok {
		return nil, errNoQueue
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode saved queue: %w", err)
	}
	return validPermutation(items, q.ids)
}

// validPermutation accepts items only if they are a bijection onto ids.
func validPermutation(items []any, ids []int) ([]int, error) {
	if len(items) != len(ids) {
		return nil, fmt.Errorf("%w: length %d, want %d", errInvalidQueue, len(items), len(ids))
	}

	known := make(map[int]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	seen := make(map[int]bool, len(items))
	order := make([]int, 0, len(items))
	for i, item := range items {
		f, ok := item.(float64)
		if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: element %d is not an integer", errInvalidQueue, i)
		}
		id := int(f)
		if !known[id] {
			return nil, fmt.Errorf("%w: id %d out of range", errInvalidQueue, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate id %d", errInvalidQueue, id)
		}
		seen[id] = true
		order = append(order, id)
	}
	return order, nil
}

// Rebuild replaces the order with a fresh shuffle of all ids.
func (q *ReviewQueue) Rebuild() {
	q.order = shuffledIDs(q.ids, q.rng)
}

// Front returns the head of the queue. An empty queue is rebuilt first.
func (q *ReviewQueue) Front() int {
	if len(q.order) == 0 {
		q.log.Warn("review queue exhausted, reshuffling")
		q.Rebuild()
		if err := q.Persist(); err != nil {
			q.log.Warn("failed to save rebuilt review queue", zap.Error(err))
		}
	}
	return q.order[0]
}

// RecordOutcome removes the head. A correct answer sends it to the tail;
// a wrong one puts it back at position min(4, remaining).
func (q *ReviewQueue) RecordOutcome(wasCorrect bool) {
	if len(q.order) == 0 {
		return
	}
	head := q.order[0]
	rest := q.order[1:]

	next := make([]int, 0, len(q.order))
	if wasCorrect {
		next = append(next, rest...)
		next = append(next, head)
	} else {
		pos := min(missedOffset, len(rest))
		next = append(next, rest[:pos]...)
		next = append(next, head)
		next = append(next, rest[pos:]...)
	}
	q.order = next
}

// IDs returns a copy of the current order.
func (q *ReviewQueue) IDs() []int {
	return append([]int(nil), q.order...)
}

// Len returns the queue length.
func (q *ReviewQueue) Len() int {
	return len(q.order)
}

// Persist writes the order as a JSON array.
func (q *ReviewQueue) Persist() error {
	data, err := json.Marshal(q.order)
	if err != nil {
		return fmt.Errorf("marshal queue: %w", err)
	}
	if err := q.storage.Set(QueueKey, string(data)); err != nil {
		return fmt.Errorf("save queue: %w", err)
	}
	return nil
}
