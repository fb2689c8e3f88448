// Package schema declares admin entities as data: field lists, defaults,
// coercion rules and endpoint paths. Every generic piece of the toolkit
// (client resources, list/form controllers, the reference backend) is
// parameterized by these descriptors instead of per-entity code.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldType determines storage type, input coercion and validation.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeText   FieldType = "text"
	TypeNumber FieldType = "number"
	TypeBool   FieldType = "bool"
	TypeSelect FieldType = "select" // foreign key, paired with a Dropdown
	TypeFile   FieldType = "file"   // stored as a path/URL string
)

// Dropdown points a select field at another entity's dropdown-search
// endpoint. LabelField is the record attribute shown as the option label.
type Dropdown struct {
	Entity     string
	LabelField string
}

// Field describes one editable attribute of an entity.
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Default  any
	Required bool

	MinLength int
	MaxLength int
	Min       *float64
	Max       *float64

	InList     bool
	Searchable bool
	Sortable   bool

	Dropdown *Dropdown
}

// Entity describes one admin resource. Code doubles as the cache tag and
// the default table name suffix.
type Entity struct {
	Code       string
	Name       string
	PathPrefix string // e.g. "/api/pages"
	Table      string // defaults to "data_<code>"

	Fields []Field

	// DefaultVisible is the out-of-the-box visible-column subset. The
	// user's own choice is persisted client-side under StorageKey.
	DefaultVisible []string

	// HasStatus enables the list screen's status filter.
	HasStatus bool
}

// TableName returns the backing table, falling back to data_<code>.
func (e *Entity) TableName() string {
	if e.Table != "" {
		return e.Table
	}
	return "data_" + e.Code
}

// StorageKey is the durable-storage key for the entity's visible columns.
func (e *Entity) StorageKey() string {
	return e.Code + "_visible_columns"
}

// DropdownLabel is the column dropdown options are labelled with: "name"
// when the entity has one, then "title", then the first declared field.
// Server and client both derive the label from this, so options normalize
// consistently for entities whose label is neither name nor title.
func (e *Entity) DropdownLabel() string {
	if _, ok := e.Field("name"); ok {
		return "name"
	}
	if _, ok := e.Field("title"); ok {
		return "title"
	}
	if len(e.Fields) > 0 {
		return e.Fields[0].Name
	}
	return "id"
}

// Field looks up a field by name.
func (e *Entity) Field(name string) (*Field, bool) {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i], true
		}
	}
	return nil, false
}

// Columns returns the displayable column superset, in declaration order.
func (e *Entity) Columns() []string {
	cols := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

// VisibleDefaults returns DefaultVisible, or every list column when unset.
func (e *Entity) VisibleDefaults() []string {
	if len(e.DefaultVisible) > 0 {
		return append([]string(nil), e.DefaultVisible...)
	}
	var cols []string
	for _, f := range e.Fields {
		if f.InList {
			cols = append(cols, f.Name)
		}
	}
	if len(cols) == 0 {
		cols = e.Columns()
	}
	return cols
}

// Defaults builds a fresh form draft with every field at its declared
// default.
func (e *Entity) Defaults() map[string]any {
	draft := make(map[string]any, len(e.Fields))
	for _, f := range e.Fields {
		draft[f.Name] = f.ZeroValue()
	}
	return draft
}

// ZeroValue is the field's default, or the type's natural empty value.
func (f *Field) ZeroValue() any {
	if f.Default != nil {
		return f.Default
	}
	switch f.Type {
	case TypeNumber:
		return float64(0)
	case TypeBool:
		return false
	default:
		return ""
	}
}

// Coerce converts a raw input value into the field's declared type. Number
// fields become float64, bool fields become bool, everything else keeps the
// raw string. Unparseable input falls back to the zero value, matching a
// form input emptied mid-edit.
func (f *Field) Coerce(raw any) any {
	switch f.Type {
	case TypeNumber:
		switch v := raw.(type) {
		case float64:
			return v
		case float32:
			return float64(v)
		case int:
			return float64(v)
		case int64:
			return float64(v)
		case string:
			if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return n
			}
			return float64(0)
		default:
			return float64(0)
		}
	case TypeBool:
		switch v := raw.(type) {
		case bool:
			return v
		case string:
			b, _ := strconv.ParseBool(strings.TrimSpace(v))
			return b
		case float64:
			return v != 0
		case int:
			return v != 0
		default:
			return false
		}
	default:
		if s, ok := raw.(string); ok {
			return s
		}
		if raw == nil {
			return ""
		}
		return fmt.Sprintf("%v", raw)
	}
}

// Searchable returns the names of text-like searchable fields.
func (e *Entity) Searchable() []string {
	var cols []string
	for _, f := range e.Fields {
		if !f.Searchable {
			continue
		}
		switch f.Type {
		case TypeString, TypeText:
			cols = append(cols, f.Name)
		}
	}
	return cols
}

// SortAllowed reports whether col may be used as sort_by.
func (e *Entity) SortAllowed(col string) bool {
	if col == "id" || col == "created_at" || col == "updated_at" {
		return true
	}
	f, ok := e.Field(col)
	return ok && f.Sortable
}

// Registry holds the declared entities, keyed by code.
type Registry struct {
	entities map[string]*Entity
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]*Entity)}
}

// Register adds an entity. Re-registering a code replaces the descriptor.
func (r *Registry) Register(e *Entity) {
	if _, exists := r.entities[e.Code]; !exists {
		r.order = append(r.order, e.Code)
	}
	r.entities[e.Code] = e
}

// Get returns the entity for code.
func (r *Registry) Get(code string) (*Entity, bool) {
	e, ok := r.entities[code]
	return e, ok
}

// All returns every entity in registration order.
func (r *Registry) All() []*Entity {
	out := make([]*Entity, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.entities[code])
	}
	return out
}
