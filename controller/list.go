// Package controller binds the generic screens to the resource modules and
// the list state store: the one reusable interaction model behind every
// entity's list and form.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aethra/steward/client"
	"github.com/aethra/steward/liststate"
	"github.com/aethra/steward/resource"
)

// searchLimit coalesces search-as-you-type re-fetches. Keystrokes always
// update the store immediately; only the network fetch is paced.
var searchLimit = rate.Limit(8)

// ListController drives one entity's list screen: filters, sorting, row
// actions, import/export and column settings.
type ListController struct {
	mu      sync.Mutex
	res     *resource.Resource
	store   *liststate.Store
	session *client.Session
	nav     Navigator
	confirm Confirmer
	log     *slog.Logger
	limiter *rate.Limiter

	ctx     context.Context
	state   State
	env     *resource.ListEnvelope
	lastErr error
	gen     uint64

	unsubStore func()
	unsubTag   func()

	importOpen bool
	failures   []resource.RowFailure
}

// ListDeps are the collaborators a list screen needs from the embedding
// application.
type ListDeps struct {
	Session  *client.Session
	Nav      Navigator
	Confirm  Confirmer
	Logger   *slog.Logger
}

// NewList creates an unmounted list controller.
func NewList(res *resource.Resource, store *liststate.Store, deps ListDeps) *ListController {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &ListController{
		res:     res,
		store:   store,
		session: deps.Session,
		nav:     deps.Nav,
		confirm: deps.Confirm,
		log:     log,
		limiter: rate.NewLimiter(searchLimit, 1),
		state:   StateIdle,
	}
}

// Mount subscribes to filter changes and cache invalidation and performs
// the initial fetch. ctx bounds every fetch the subscriptions trigger.
func (c *ListController) Mount(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.unsubStore = c.store.OnChange(func() { c.refresh() })
	c.unsubTag = c.res.Tags().Subscribe(c.res.Entity().Code, func() { c.refresh() })
	c.mu.Unlock()
	c.refresh()
}

// Unmount detaches the subscriptions.
func (c *ListController) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubStore != nil {
		c.unsubStore()
		c.unsubStore = nil
	}
	if c.unsubTag != nil {
		c.unsubTag()
		c.unsubTag = nil
	}
}

// refresh re-enters loading and fetches with the current filters. Each
// fetch carries a generation token; a resolution older than the newest
// issued token is dropped, so the last request wins when fetches overlap.
func (c *ListController) refresh() {
	c.mu.Lock()
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	c.gen++
	myGen := c.gen
	c.state = StateLoading
	params := c.params()
	c.mu.Unlock()

	if d := c.limiter.Reserve().Delay(); d > 0 {
		time.AfterFunc(d, func() { c.fetch(ctx, myGen, params) })
		return
	}
	c.fetch(ctx, myGen, params)
}

func (c *ListController) fetch(ctx context.Context, myGen uint64, params resource.ListParams) {
	env, err := c.res.List(ctx, params)

	c.mu.Lock()
	if myGen != c.gen {
		c.mu.Unlock()
		return // stale response
	}
	if err != nil {
		c.state = StateError
		c.lastErr = err
		c.mu.Unlock()
		c.fail(err)
		return
	}
	c.env = env
	c.lastErr = nil
	c.state = StateSuccess
	c.mu.Unlock()
}

func (c *ListController) params() resource.ListParams {
	f := c.store.Filters()
	params := resource.ListParams{
		Page:    c.store.Page(),
		PerPage: c.store.PerPage(),
	}
	if s, ok := f[liststate.KeySearch].(string); ok {
		params.Search = s
	}
	if sb, ok := f[liststate.KeySortBy].(string); ok {
		params.SortBy = sb
	}
	if so, ok := f[liststate.KeySortOrder].(string); ok {
		params.SortOrder = so
	}
	if st, ok := f[liststate.KeyStatus].(bool); ok {
		params.Status = &st
	}
	return params
}

// Search updates the search text. The merge resets page to 1 in the store
// and triggers a (rate-paced) re-fetch.
func (c *ListController) Search(text string) {
	c.store.SetFilters(liststate.Filters{liststate.KeySearch: text})
}

// ToggleSort applies the sort-header behavior: a new column sorts
// ascending, the current column flips direction.
func (c *ListController) ToggleSort(column string) {
	current, _ := c.store.Get(liststate.KeySortBy).(string)
	order, _ := c.store.Get(liststate.KeySortOrder).(string)
	next := "asc"
	if current == column && order == "asc" {
		next = "desc"
	}
	c.store.SetFilters(liststate.Filters{
		liststate.KeySortBy:    column,
		liststate.KeySortOrder: next,
	})
}

// SetPage navigates pagination without touching other filters.
func (c *ListController) SetPage(page int) {
	c.store.SetFilters(liststate.Filters{liststate.KeyPage: page})
}

// SetStatus applies the status filter; nil clears it.
func (c *ListController) SetStatus(status *bool) {
	if status == nil {
		c.store.SetFilters(liststate.Filters{liststate.KeyStatus: nil})
		return
	}
	c.store.SetFilters(liststate.Filters{liststate.KeyStatus: *status})
}

// Delete asks for confirmation and, only on a yes, issues exactly one
// delete. The write invalidates the list tag, so the list re-fetches on
// success.
func (c *ListController) Delete(ctx context.Context, row resource.Record) error {
	msg := fmt.Sprintf("Are you sure you want to delete this %s?", c.res.Entity().Name)
	if c.confirm == nil || !c.confirm.Confirm(msg) {
		return nil
	}
	if err := c.res.Delete(ctx, row.DisplayID()); err != nil {
		c.fail(err)
		return err
	}
	return nil
}

// Export downloads the full set of currently loaded rows (not a user
// selection). A failure surfaces as the single synthetic "row -, attribute
// export" entry.
func (c *ListController) Export(ctx context.Context) ([]byte, string, error) {
	c.mu.Lock()
	var uuids []string
	if c.env != nil {
		for _, row := range c.env.Data.Data {
			uuids = append(uuids, row.UUID())
		}
	}
	c.mu.Unlock()

	data, filename, err := c.res.Export(ctx, uuids)
	if err != nil {
		c.mu.Lock()
		c.failures = []resource.RowFailure{{
			Row: "-",
			Field: []resource.FieldFailure{
				{Attribute: "export", Errors: []string{err.Error()}},
			},
		}}
		c.mu.Unlock()
		c.fail(err)
		return nil, "", err
	}
	return data, filename, nil
}

// OpenImport opens the import modal.
func (c *ListController) OpenImport() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.importOpen = true
	c.failures = nil
}

// CloseImport closes the import modal and drops any displayed failures.
func (c *ListController) CloseImport() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.importOpen = false
	c.failures = nil
}

// Import submits the picked file. Row-level failures keep the modal open
// with every reported row/field error displayed; a clean result closes the
// modal and cache invalidation refreshes the list.
func (c *ListController) Import(ctx context.Context, filename string, file *FilePicker) error {
	upload, ok := file.Take()
	if !ok {
		return errors.New("no file selected")
	}
	if filename == "" {
		filename = upload.Filename
	}
	res, err := c.res.Import(ctx, filename, upload.Content)
	if err != nil {
		c.fail(err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !res.Success && len(res.Errors) > 0 {
		c.failures = res.Errors
		c.importOpen = true
		return nil
	}
	c.importOpen = false
	c.failures = nil
	return nil
}

// SaveColumnSettings replaces the visible-column set and persists it under
// the entity's storage key.
func (c *ListController) SaveColumnSettings(cols []string) error {
	return c.store.SetVisibleColumns(cols)
}

// Rows returns the currently loaded page of records.
func (c *ListController) Rows() []resource.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.env == nil {
		return nil
	}
	return c.env.Data.Data
}

// Envelope returns the last successful list response.
func (c *ListController) Envelope() *resource.ListEnvelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.env
}

// HasNextPage reports whether a pagination-next control should be enabled.
func (c *ListController) HasNextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.env != nil && c.env.Data.HasNext()
}

// Columns returns the full column superset from the last response.
func (c *ListController) Columns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.env == nil {
		return nil
	}
	return c.env.Columns
}

// VisibleColumns returns the user's persisted choice.
func (c *ListController) VisibleColumns() []string {
	return c.store.VisibleColumns()
}

// State returns the screen's fetch state.
func (c *ListController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the last fetch error, if the screen is in StateError.
func (c *ListController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ImportOpen reports whether the import modal is showing.
func (c *ListController) ImportOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.importOpen
}

// Failures returns the displayed row/field error entries (import failures
// or the synthetic export entry).
func (c *ListController) Failures() []resource.RowFailure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

// fail is the shared non-422 error path: auth failures escalate to
// logout+login navigation, everything else is logged and otherwise
// invisible.
func (c *ListController) fail(err error) {
	if errors.Is(err, client.ErrUnauthorized) {
		if c.session != nil {
			c.session.Clear()
		}
		if c.nav != nil {
			c.nav.ToLogin()
		}
		return
	}
	c.log.Error("list request failed", "entity", c.res.Entity().Code, "error", err)
}
