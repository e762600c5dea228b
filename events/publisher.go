// Package events provides the process-local broadcast point for live
// article events. Delivery is best-effort: there is no persistence and no
// backpressure, and subscribers that cannot keep up simply miss events.
package events

import (
	"log/slog"
	"sync"

	"newswatch/domain"
)

// Publisher fans article events out to all current subscribers.
type Publisher struct {
	mu          sync.RWMutex
	subscribers map[int]chan domain.ArticleEvent
	nextID      int
	bufferSize  int
	logger      *slog.Logger
}

// NewPublisher creates a publisher whose subscriber channels buffer up to
// bufferSize events before drops begin.
func NewPublisher(bufferSize int, logger *slog.Logger) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		subscribers: make(map[int]chan domain.ArticleEvent),
		bufferSize:  bufferSize,
		logger:      logger,
	}
}

// Subscribe registers a listener and returns its channel plus a cancel
// function. Cancel is idempotent and closes the channel.
func (p *Publisher) Subscribe() (<-chan domain.ArticleEvent, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++

	ch := make(chan domain.ArticleEvent, p.bufferSize)
	p.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subscribers[id]; ok {
				delete(p.subscribers, id)
				close(sub)
			}
		})
	}

	return ch, cancel
}

// Publish delivers the event to every subscriber whose buffer has room.
// Full buffers are skipped; the event is simply lost for that subscriber.
func (p *Publisher) Publish(event domain.ArticleEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for id, ch := range p.subscribers {
		select {
		case ch <- event:
		default:
			p.logger.Debug("dropping event for slow subscriber",
				"subscriber", id,
				"event_type", event.Type,
				"article_id", event.ArticleID)
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (p *Publisher) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers)
}
