package resource

import "sync"

// Tags is the cache-invalidation registry. Successful writes invalidate an
// entity's tag; every subscribed list re-fetches in response.
type Tags struct {
	mu   sync.Mutex
	subs map[string]map[int]func()
	next int
}

// NewTags creates an empty registry.
func NewTags() *Tags {
	return &Tags{subs: make(map[string]map[int]func())}
}

// Subscribe registers fn for the tag and returns an unsubscribe func.
func (t *Tags) Subscribe(tag string, fn func()) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subs[tag] == nil {
		t.subs[tag] = make(map[int]func())
	}
	id := t.next
	t.next++
	t.subs[tag][id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs[tag], id)
	}
}

// Invalidate marks the tag stale, notifying all subscribers synchronously.
func (t *Tags) Invalidate(tag string) {
	t.mu.Lock()
	fns := make([]func(), 0, len(t.subs[tag]))
	for _, fn := range t.subs[tag] {
		fns = append(fns, fn)
	}
	t.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
