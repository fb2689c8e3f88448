package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aethra/steward/client"
	"github.com/aethra/steward/resource"
	"github.com/aethra/steward/schema"
)

// FormController drives one entity's create/edit screen: a draft hydrated
// at most once per identifier, per-field coercing merges, and a submit that
// either navigates back to the list or maps a 422 onto inline errors.
type FormController struct {
	mu      sync.Mutex
	res     *resource.Resource
	entity  *schema.Entity
	session *client.Session
	nav     Navigator
	log     *slog.Logger

	id         string
	draft      resource.Record
	fieldErrs  map[string][]string
	hydrated   bool
	submitting bool
	state      State
}

// FormDeps are the collaborators a form screen needs.
type FormDeps struct {
	Session *client.Session
	Nav     Navigator
	Logger  *slog.Logger
}

// NewForm creates a form controller. id is the route identifier: empty or
// the "0" sentinel means create mode, anything else edit mode.
func NewForm(res *resource.Resource, id string, deps FormDeps) *FormController {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	entity := res.Entity()
	return &FormController{
		res:       res,
		entity:    entity,
		session:   deps.Session,
		nav:       deps.Nav,
		log:       log,
		id:        id,
		draft:     entity.Defaults(),
		fieldErrs: map[string][]string{},
		state:     StateIdle,
	}
}

// EditMode reports whether the controller targets an existing record.
func (c *FormController) EditMode() bool {
	return c.id != "" && c.id != resource.GetSkipSentinel
}

// Load hydrates the draft from the fetched record in edit mode. Hydration
// happens once per identifier: later server changes never overwrite local
// edits. In create mode (or with the "0" sentinel) no request is made.
func (c *FormController) Load(ctx context.Context) error {
	if !c.EditMode() {
		return nil
	}
	c.mu.Lock()
	if c.hydrated {
		c.mu.Unlock()
		return nil
	}
	c.state = StateLoading
	c.mu.Unlock()

	rec, err := c.res.Get(ctx, c.id)
	if err != nil {
		c.mu.Lock()
		c.state = StateError
		c.mu.Unlock()
		c.fail(err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entity.Fields {
		f := &c.entity.Fields[i]
		if raw, ok := rec[f.Name]; ok && raw != nil {
			c.draft[f.Name] = f.Coerce(raw)
		} else {
			c.draft[f.Name] = emptyValue(f)
		}
	}
	c.hydrated = true
	c.state = StateSuccess
	return nil
}

// SetField merges one input change into the draft, coercing per the
// declared schema: number fields to float64, bool fields to bool, the rest
// kept as raw strings.
func (c *FormController) SetField(name string, raw any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.entity.Field(name); ok {
		c.draft[name] = f.Coerce(raw)
		return
	}
	c.draft[name] = raw
}

// Toggle flips a bool field, the toggle-widget behavior.
func (c *FormController) Toggle(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, _ := c.draft[name].(bool)
	c.draft[name] = !cur
}

// Get returns the draft's current value for name.
func (c *FormController) Get(name string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft[name]
}

// Draft returns a copy of the current draft.
func (c *FormController) Draft() resource.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(resource.Record, len(c.draft))
	for k, v := range c.draft {
		out[k] = v
	}
	return out
}

// Submit clears previous validation errors and issues create or update
// depending on mode. Success resets the draft to entity defaults and
// navigates (exactly once) to the entity's list route. A 422 stores the
// per-field messages and stays on the form. Other failures are logged
// only, auth failures escalate to login.
func (c *FormController) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil
	}
	c.submitting = true
	c.fieldErrs = map[string][]string{}
	draft := make(resource.Record, len(c.draft))
	for k, v := range c.draft {
		draft[k] = v
	}
	c.mu.Unlock()

	var err error
	if c.EditMode() {
		_, err = c.res.Update(ctx, c.id, draft)
	} else {
		_, err = c.res.Create(ctx, draft)
	}

	c.mu.Lock()
	c.submitting = false
	if err == nil {
		c.draft = c.entity.Defaults()
		c.hydrated = false
		c.mu.Unlock()
		if c.nav != nil {
			c.nav.ToList(c.entity.Code)
		}
		return nil
	}

	var ve *client.ValidationError
	if errors.As(err, &ve) {
		c.fieldErrs = ve.Fields
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()
	c.fail(err)
	return err
}

// FieldError returns the single message shown for field: the first one, or
// "".
func (c *FormController) FieldError(field string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msgs := c.fieldErrs[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Errors returns the full per-field error map.
func (c *FormController) Errors() map[string][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]string, len(c.fieldErrs))
	for k, v := range c.fieldErrs {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Reset discards the draft, the navigation-away behavior.
func (c *FormController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = c.entity.Defaults()
	c.fieldErrs = map[string][]string{}
	c.hydrated = false
}

// State returns the hydration state.
func (c *FormController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *FormController) fail(err error) {
	if errors.Is(err, client.ErrUnauthorized) {
		if c.session != nil {
			c.session.Clear()
		}
		if c.nav != nil {
			c.nav.ToLogin()
		}
		return
	}
	c.log.Error("form request failed", "entity", c.entity.Code, "error", err)
}

// emptyValue is the hydration fallback for fields absent on the fetched
// record: the type's empty value, not the declared default.
func emptyValue(f *schema.Field) any {
	switch f.Type {
	case schema.TypeNumber:
		return float64(0)
	case schema.TypeBool:
		return false
	default:
		return ""
	}
}
