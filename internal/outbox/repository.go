package outbox

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository is a process-local Repository backed by a map. It pings
// a wakeup channel after every enqueue so a dispatcher can poll on demand
// instead of busy-looping.
type InMemoryRepository struct {
	mu     sync.Mutex
	items  map[uuid.UUID]Item
	wakeup chan struct{}
}

// NewInMemoryRepository builds an empty repository. wakeup is signalled
// (non-blocking) every time new items are enqueued.
func NewInMemoryRepository(wakeup chan struct{}) *InMemoryRepository {
	return &InMemoryRepository{
		items:  make(map[uuid.UUID]Item),
		wakeup: wakeup,
	}
}

func (r *InMemoryRepository) Enqueue(envelopes []Envelope) ([]Item, error) {
	now := time.Now()

	r.mu.Lock()
	items := make([]Item, 0, len(envelopes))
	for _, envelope := range envelopes {
		item := Item{
			ID:          uuid.New(),
			Envelope:    envelope,
			CreatedAt:   now,
			ScheduledAt: now,
			Attempts:    0,
		}
		r.items[item.ID] = item
		items = append(items, item)
	}
	r.mu.Unlock()

	select {
	case r.wakeup <- struct{}{}:
	default:
	}

	return items, nil
}

func (r *InMemoryRepository) Dequeue(ids []uuid.UUID) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			items = append(items, item)
			delete(r.items, id)
		}
	}
	return items, nil
}

func (r *InMemoryRepository) Reschedule(ids []uuid.UUID, delay time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, id := range ids {
		item, ok := r.items[id]
		if !ok {
			return fmt.Errorf("outbox item %s not found", id)
		}
		item.Attempts++
		item.ScheduledAt = now.Add(delay)
		r.items[id] = item
	}
	return nil
}

func (r *InMemoryRepository) ReadyToSend(limit int) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	ready := make([]Item, 0, limit)
	for _, item := range r.items {
		if !item.ScheduledAt.After(now) {
			ready = append(ready, item)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		return ready[i].ScheduledAt.Before(ready[j].ScheduledAt)
	})
	if len(ready) > limit {
		ready = ready[:limit]
	}
	return ready, nil
}
