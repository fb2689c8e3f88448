// Package liststate holds the per-entity list UI state: current query
// filters plus the visible-column set. It is the single source of truth a
// list screen reads from and writes to. The old convention of "remember to
// reset page to 1 at every call site" is hoisted into the merge operation
// itself: merging any key other than page resets pagination.
package liststate

import (
	"encoding/json"
	"maps"
	"sync"

	"github.com/aethra/steward/client"
	"github.com/aethra/steward/schema"
)

// Filters is the current list query state.
type Filters map[string]any

// Well-known filter keys.
const (
	KeyPage      = "page"
	KeyPerPage   = "per_page"
	KeySearch    = "search"
	KeySortBy    = "sort_by"
	KeySortOrder = "sort_order"
	KeyStatus    = "status"
)

// DefaultPerPage matches the backend's default page size.
const DefaultPerPage = 10

// Store is one entity's filter/column state. Reads and writes are safe for
// concurrent use; all mutation goes through SetFilters and
// SetVisibleColumns.
type Store struct {
	mu        sync.RWMutex
	entity    *schema.Entity
	filters   Filters
	visible   []string
	storage   client.Storage
	listeners map[int]func()
	nextID    int
}

// NewStore initializes state with defaults, restoring any persisted
// visible-column choice from storage. storage may be nil.
func NewStore(entity *schema.Entity, storage client.Storage) *Store {
	s := &Store{
		entity: entity,
		filters: Filters{
			KeyPage:    1,
			KeyPerPage: DefaultPerPage,
			KeySearch:  "",
		},
		storage:   storage,
		listeners: make(map[int]func()),
	}
	s.visible = entity.VisibleDefaults()
	if storage != nil {
		if raw, ok := storage.Get(entity.StorageKey()); ok {
			var cols []string
			if err := json.Unmarshal([]byte(raw), &cols); err == nil && len(cols) > 0 {
				s.visible = cols
			}
		}
	}
	return s
}

// Entity returns the schema descriptor this store belongs to.
func (s *Store) Entity() *schema.Entity {
	return s.entity
}

// Filters returns a copy of the current filters.
func (s *Store) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(Filters, len(s.filters))
	maps.Copy(out, s.filters)
	return out
}

// Get returns one filter value.
func (s *Store) Get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters[key]
}

// Page returns the current 1-based page.
func (s *Store) Page() int {
	if p, ok := s.Get(KeyPage).(int); ok && p >= 1 {
		return p
	}
	return 1
}

// PerPage returns the current page size.
func (s *Store) PerPage() int {
	if pp, ok := s.Get(KeyPerPage).(int); ok && pp >= 1 {
		return pp
	}
	return DefaultPerPage
}

// SetFilters shallow-merges partial into the filters. Merging any key other
// than page resets page to 1; an explicit page in the same merge wins.
// Listeners are notified once per merge.
func (s *Store) SetFilters(partial Filters) {
	s.mu.Lock()
	resetPage := false
	explicitPage := false
	for k, v := range partial {
		if k == KeyPage {
			explicitPage = true
		} else {
			resetPage = true
		}
		s.filters[k] = v
	}
	if resetPage && !explicitPage {
		s.filters[KeyPage] = 1
	}
	fns := s.snapshotListeners()
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// VisibleColumns returns the current visible-column subset.
func (s *Store) VisibleColumns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.visible...)
}

// SetVisibleColumns replaces the visible set and persists it under the
// entity's storage key so the choice survives a reload.
func (s *Store) SetVisibleColumns(cols []string) error {
	s.mu.Lock()
	s.visible = append([]string(nil), cols...)
	s.mu.Unlock()

	if s.storage == nil {
		return nil
	}
	raw, err := json.Marshal(cols)
	if err != nil {
		return err
	}
	return s.storage.Set(s.entity.StorageKey(), string(raw))
}

// OnChange registers fn to run after every filter merge, returning an
// unsubscribe func. This is how a mounted list re-enters loading when its
// filters change.
func (s *Store) OnChange(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) snapshotListeners() []func() {
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	return fns
}
