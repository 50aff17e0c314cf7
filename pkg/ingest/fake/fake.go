package fake

import (
	"context"
	"sync"

	"github.com/jenkins-x/changehook/pkg/changes"
	"github.com/jenkins-x/changehook/pkg/ingest"
)

// Queue records every batch it is given
type Queue struct {
	lock    sync.Mutex
	batches []ingest.Batch

	// Err is returned from Enqueue when set.
	Err error
}

// NewQueue creates a fake queue
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue records the batch
func (q *Queue) Enqueue(_ context.Context, sourceType string, items []changes.Change) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.Err != nil {
		return q.Err
	}
	q.batches = append(q.batches, ingest.Batch{SourceType: sourceType, Changes: items})
	return nil
}

// Batches returns the batches enqueued so far
func (q *Queue) Batches() []ingest.Batch {
	q.lock.Lock()
	defer q.lock.Unlock()
	return append([]ingest.Batch(nil), q.batches...)
}
