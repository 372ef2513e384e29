package notify

import (
	"sync"

	"creditflow/internal/credit/models"
)

// Source delivers persisted status changes. A value on Resyncs means
// notifications may have been missed and the consumer should rescan.
type Source interface {
	Events() <-chan models.StatusChangeEvent
	Resyncs() <-chan struct{}
}

// ChangeFeed is implemented by stores that report their own writes.
type ChangeFeed interface {
	OnStatusChange(fn func(models.StatusChangeEvent))
}

const defaultBuffer = 256

// MemorySource relays the in-memory request store's change callbacks. A
// full buffer applies backpressure to the writer until Close.
type MemorySource struct {
	events chan models.StatusChangeEvent
	done   chan struct{}
	once   sync.Once
}

func NewMemorySource(feed ChangeFeed, buffer int) *MemorySource {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	s := &MemorySource{
		events: make(chan models.StatusChangeEvent, buffer),
		done:   make(chan struct{}),
	}
	feed.OnStatusChange(s.push)
	return s
}

func (s *MemorySource) push(event models.StatusChangeEvent) {
	select {
	case s.events <- event:
	case <-s.done:
	}
}

func (s *MemorySource) Events() <-chan models.StatusChangeEvent {
	return s.events
}

// Resyncs never fires: the in-memory feed cannot drop notifications.
func (s *MemorySource) Resyncs() <-chan struct{} {
	return nil
}

// Close releases writers blocked on a full buffer. Later changes are dropped.
func (s *MemorySource) Close() {
	s.once.Do(func() { close(s.done) })
}
