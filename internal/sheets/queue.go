package sheets

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// writeQueue serializes remote mutations per spreadsheet so read-modify-write
// sequences cannot interleave.
type writeQueue struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

func newWriteQueue() *writeQueue {
	return &writeQueue{sems: make(map[string]*semaphore.Weighted)}
}

func (q *writeQueue) Do(ctx context.Context, spreadsheetID string, fn func(context.Context) error) error {
	q.mu.Lock()
	sem, ok := q.sems[spreadsheetID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		q.sems[spreadsheetID] = sem
	}
	q.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer sem.Release(1)
	return fn(ctx)
}
