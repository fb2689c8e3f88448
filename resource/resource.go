// Package resource implements the generic resource API module: the fixed
// set of operations (list, get, create, update, delete, dropdown-search,
// import, export) every admin entity exposes, bound to a path prefix from
// its schema. One Resource instance replaces what would otherwise be a
// hand-duplicated module per entity.
package resource

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aethra/steward/client"
	"github.com/aethra/steward/schema"
)

// GetSkipSentinel is the identifier meaning "do not fetch yet". Callers in
// create mode pass it instead of a real uuid; the request is skipped.
const GetSkipSentinel = "0"

// ListParams are the query parameters of a list request.
type ListParams struct {
	PerPage   int
	Page      int
	Search    string
	SortBy    string
	SortOrder string
	Status    *bool
	Extra     map[string]string
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.SortBy != "" {
		q.Set("sort_by", p.SortBy)
		order := p.SortOrder
		if order == "" {
			order = "asc"
		}
		q.Set("sort_order", order)
	}
	if p.Status != nil {
		q.Set("status", strconv.FormatBool(*p.Status))
	}
	for k, v := range p.Extra {
		q.Set(k, v)
	}
	return q
}

// Resource is the API module for one entity.
type Resource struct {
	c      *client.Client
	entity *schema.Entity
	tags   *Tags
}

// New binds a resource module to an entity's path prefix. tags may be
// shared across resources so cross-entity screens stay coherent.
func New(c *client.Client, entity *schema.Entity, tags *Tags) *Resource {
	if tags == nil {
		tags = NewTags()
	}
	return &Resource{c: c, entity: entity, tags: tags}
}

// Entity returns the backing schema descriptor.
func (r *Resource) Entity() *schema.Entity {
	return r.entity
}

// Tags returns the shared invalidation registry.
func (r *Resource) Tags() *Tags {
	return r.tags
}

// List fetches one page of records.
func (r *Resource) List(ctx context.Context, params ListParams) (*ListEnvelope, error) {
	var env ListEnvelope
	err := r.c.Do(ctx, client.Request{
		Method: http.MethodGet,
		Path:   r.entity.PathPrefix,
		Query:  params.values(),
	}, &env)
	if err != nil {
		return nil, err
	}
	return &env, nil
}

// Get fetches one record by uuid. The sentinel "0" skips the call entirely
// and returns a nil record.
func (r *Resource) Get(ctx context.Context, uuid string) (Record, error) {
	if uuid == "" || uuid == GetSkipSentinel {
		return nil, nil
	}
	var env RecordEnvelope
	err := r.c.Do(ctx, client.Request{
		Method: http.MethodGet,
		Path:   r.entity.PathPrefix + "/" + url.PathEscape(uuid),
	}, &env)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Create posts a full draft and invalidates the entity's list tag.
func (r *Resource) Create(ctx context.Context, draft Record) (Record, error) {
	var env RecordEnvelope
	err := r.c.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   r.entity.PathPrefix,
		Body:   draft,
	}, &env)
	if err != nil {
		return nil, err
	}
	r.tags.Invalidate(r.entity.Code)
	return env.Data, nil
}

// Update puts a full draft against the record's uuid and invalidates the
// entity's list tag.
func (r *Resource) Update(ctx context.Context, uuid string, draft Record) (Record, error) {
	var env RecordEnvelope
	err := r.c.Do(ctx, client.Request{
		Method: http.MethodPut,
		Path:   r.entity.PathPrefix + "/" + url.PathEscape(uuid),
		Body:   draft,
	}, &env)
	if err != nil {
		return nil, err
	}
	r.tags.Invalidate(r.entity.Code)
	return env.Data, nil
}

// Delete removes the record with the given display id and invalidates the
// entity's list tag.
func (r *Resource) Delete(ctx context.Context, id any) error {
	err := r.c.Do(ctx, client.Request{
		Method: http.MethodDelete,
		Path:   r.entity.PathPrefix + "/" + idSegment(id),
	}, nil)
	if err != nil {
		return err
	}
	r.tags.Invalidate(r.entity.Code)
	return nil
}

// DropdownSearch runs the entity's free-text option lookup. The backend may
// answer with a bare array or a {data: [...]} wrapper; both normalize to
// id/label options.
func (r *Resource) DropdownSearch(ctx context.Context, query string) ([]Option, error) {
	q := url.Values{}
	if query != "" {
		q.Set("search", query)
	}
	var raw json.RawMessage
	err := r.c.Do(ctx, client.Request{
		Method: http.MethodGet,
		Path:   r.entity.PathPrefix + "-dropdown",
		Query:  q,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return normalizeOptions(raw, r.entity.DropdownLabel()), nil
}

// Import uploads a file as multipart form data. A result with row failures
// means the whole batch was rejected. On success the list tag is
// invalidated so mounted lists re-fetch.
func (r *Resource) Import(ctx context.Context, filename string, content io.Reader) (*ImportResult, error) {
	var res ImportResult
	err := r.c.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   r.entity.PathPrefix + "-import",
		File: &client.FileUpload{
			Field:    "file",
			Filename: filename,
			Content:  content,
		},
	}, &res)
	if err != nil {
		return nil, err
	}
	if res.Success {
		r.tags.Invalidate(r.entity.Code)
	}
	return &res, nil
}

// Export downloads the given records as a binary blob. A pure read: nothing
// is invalidated.
func (r *Resource) Export(ctx context.Context, uuids []string) ([]byte, string, error) {
	return r.c.Blob(ctx, client.Request{
		Method: http.MethodPost,
		Path:   r.entity.PathPrefix + "-export",
		Body:   map[string]any{"uuids": uuids},
	})
}

func idSegment(id any) string {
	switch v := id.(type) {
	case string:
		return url.PathEscape(v)
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return url.PathEscape(strconvItoaAny(v))
	}
}

func strconvItoaAny(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
