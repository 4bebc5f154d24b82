// ABOUTME: Thread-safe TTL tracker for suppressing duplicate inbound messages.
// ABOUTME: Channels can redeliver on reconnect; the tracker drops repeats by message id.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	seenAt  time.Time
	element *list.Element
}

// Tracker remembers recently seen message ids so redelivered messages are
// processed once. Entries expire after the TTL and the oldest entry is
// evicted when the tracker is full. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	seen    map[string]*entry
	order   *list.List // ids in arrival order, oldest at front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a tracker with the given TTL and maximum entry count.
// A background goroutine sweeps expired entries until Close is called.
func New(ttl time.Duration, maxSize int) *Tracker {
	t := &Tracker{
		seen:    make(map[string]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go t.sweepLoop()
	return t
}

// Seen atomically checks whether id was already recorded and records it when
// not. Returns true for a duplicate. The check and the record happen under
// one lock so two concurrent deliveries of the same id cannot both pass.
func (t *Tracker) Seen(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.seen[id]
	if ok && time.Since(e.seenAt) < t.ttl {
		return true
	}

	t.recordLocked(id)
	return false
}

// recordLocked records id, refreshing it when already present. Must be
// called with mu held.
func (t *Tracker) recordLocked(id string) {
	now := time.Now()

	if e, exists := t.seen[id]; exists {
		e.seenAt = now
		t.order.MoveToBack(e.element)
		return
	}

	if len(t.seen) >= t.maxSize {
		t.evictOldestLocked()
	}

	elem := t.order.PushBack(id)
	t.seen[id] = &entry{seenAt: now, element: elem}
}

func (t *Tracker) evictOldestLocked() {
	front := t.order.Front()
	if front == nil {
		return
	}
	id, _ := front.Value.(string)
	t.order.Remove(front)
	delete(t.seen, id)
}

func (t *Tracker) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.sweep()
		case <-t.done:
			return
		}
	}
}

func (t *Tracker) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for id, e := range t.seen {
		if now.Sub(e.seenAt) > t.ttl {
			t.order.Remove(e.element)
			delete(t.seen, id)
		}
	}
}

// Len returns the current number of tracked ids.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

// Close stops the background sweeper. Safe to call multiple times.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.closed {
		close(t.done)
		t.closed = true
	}
}
