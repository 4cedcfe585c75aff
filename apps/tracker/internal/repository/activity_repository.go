package repository

import (
	"sync"

	"wallettracker/apps/tracker/internal/model"
)

// ActivityRepository is a bounded ring of the most recent activity events.
// Once full, each append evicts the oldest event.
type ActivityRepository struct {
	mu     sync.RWMutex
	events []model.ActivityEvent
	start  int // index of the oldest event
	size   int
}

func NewActivityRepository(capacity int) *ActivityRepository {
	if capacity < 1 {
		capacity = 1
	}
	return &ActivityRepository{events: make([]model.ActivityEvent, capacity)}
}

func (r *ActivityRepository) Capacity() int {
	return len(r.events)
}

func (r *ActivityRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

func (r *ActivityRepository) StoreEvent(event model.ActivityEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	capacity := len(r.events)
	if r.size < capacity {
		r.events[(r.start+r.size)%capacity] = event
		r.size++
		return
	}

	r.events[r.start] = event
	r.start = (r.start + 1) % capacity
}

// GetRecentEvents returns up to limit events, newest first. A limit <= 0
// returns everything held.
func (r *ActivityRepository) GetRecentEvents(limit int) []model.ActivityEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > r.size {
		limit = r.size
	}

	capacity := len(r.events)
	events := make([]model.ActivityEvent, 0, limit)
	for i := 0; i < limit; i++ {
		events = append(events, r.events[(r.start+r.size-1-i)%capacity])
	}
	return events
}
