package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingClassifier struct {
	mu  sync.Mutex
	ids []string
}

func (c *countingClassifier) Classify(ctx context.Context, articleID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, articleID)
	return nil
}

func (c *countingClassifier) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ids...)
}

func TestClassifyWorkerPool_ProcessesQueuedArticles(t *testing.T) {
	classifier := &countingClassifier{}
	pool := NewClassifyWorkerPool(classifier, 2, 8, nil)
	pool.Start(context.Background())

	assert.True(t, pool.Enqueue("a"))
	assert.True(t, pool.Enqueue("b"))
	assert.True(t, pool.Enqueue("c"))

	// Stop drains the queue before returning.
	pool.Stop()

	assert.ElementsMatch(t, []string{"a", "b", "c"}, classifier.IDs())
}

func TestClassifyWorkerPool_EnqueueAfterStop(t *testing.T) {
	pool := NewClassifyWorkerPool(&countingClassifier{}, 1, 4, nil)
	pool.Start(context.Background())
	pool.Stop()

	assert.False(t, pool.Enqueue("late"))
}

func TestClassifyWorkerPool_FullQueueRejects(t *testing.T) {
	blocker := make(chan struct{})
	slow := &slowClassifier{release: blocker}

	pool := NewClassifyWorkerPool(slow, 1, 1, nil)
	pool.Start(context.Background())

	// First id occupies the worker, second fills the buffer.
	assert.True(t, pool.Enqueue("a"))

	deadline := time.After(time.Second)
	filled := false
	for !filled {
		select {
		case <-deadline:
			t.Fatal("queue never filled")
		default:
			if pool.Enqueue("b") {
				filled = true
			}
		}
	}

	// With the worker blocked and the buffer full, the next offer is refused.
	assert.Eventually(t, func() bool {
		return !pool.Enqueue("c")
	}, time.Second, time.Millisecond)

	close(blocker)
	pool.Stop()
}

func TestClassifyWorkerPool_StopIsIdempotent(t *testing.T) {
	pool := NewClassifyWorkerPool(&countingClassifier{}, 1, 4, nil)
	pool.Start(context.Background())
	pool.Stop()
	pool.Stop()
}

type slowClassifier struct {
	release chan struct{}
}

func (c *slowClassifier) Classify(ctx context.Context, articleID string) error {
	<-c.release
	return nil
}
