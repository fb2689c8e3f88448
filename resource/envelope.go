package resource

import "encoding/json"

// Record is one entity row as the backend shapes it. Field sets vary per
// entity; records are opaque to the generic machinery.
type Record map[string]any

// UUID returns the record's routing identifier.
func (r Record) UUID() string {
	if v, ok := r["uuid"].(string); ok {
		return v
	}
	return ""
}

// DisplayID returns the numeric display id used for delete routing.
func (r Record) DisplayID() any {
	return r["id"]
}

// String returns field as a string, or "".
func (r Record) String(field string) string {
	if v, ok := r[field].(string); ok {
		return v
	}
	return ""
}

// Page is the Laravel-style pagination block inside a list envelope.
type Page struct {
	CurrentPage int      `json:"current_page"`
	Data        []Record `json:"data"`
	LastPage    int      `json:"last_page"`
	PerPage     int      `json:"per_page"`
	Total       int64    `json:"total"`
}

// HasNext reports whether a further page exists.
func (p *Page) HasNext() bool {
	return p.CurrentPage < p.LastPage
}

// ListEnvelope wraps a paginated list response.
type ListEnvelope struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	Columns        []string `json:"columns"`
	VisibleColumns []string `json:"visible_columns"`
	Data           Page     `json:"data"`
}

// RecordEnvelope wraps a single-record response.
type RecordEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    Record `json:"data"`
}

// Option is one dropdown-search result, normalized to id/label.
type Option struct {
	ID    any
	Label string
}

// rawOption tolerates any label column alongside id.
type rawOption map[string]any

// toOption labels the option from the entity's dropdown label column,
// falling back to name then title for servers that normalize themselves.
func (o rawOption) toOption(labelField string) Option {
	label, _ := o[labelField].(string)
	if label == "" {
		if s, ok := o["name"].(string); ok {
			label = s
		}
	}
	if label == "" {
		if s, ok := o["title"].(string); ok {
			label = s
		}
	}
	return Option{ID: o["id"], Label: label}
}

// normalizeOptions applies the "array if array, else .data, else empty"
// rule to a dropdown-search payload.
func normalizeOptions(body []byte, labelField string) []Option {
	var raws []rawOption
	if err := json.Unmarshal(body, &raws); err == nil {
		return mapOptions(raws, labelField)
	}
	var wrapped struct {
		Data []rawOption `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil {
		return mapOptions(wrapped.Data, labelField)
	}
	return []Option{}
}

func mapOptions(raws []rawOption, labelField string) []Option {
	opts := make([]Option, 0, len(raws))
	for _, r := range raws {
		opts = append(opts, r.toOption(labelField))
	}
	return opts
}

// FieldFailure is one attribute's errors inside an import row failure.
type FieldFailure struct {
	Attribute string   `json:"attribute"`
	Errors    []string `json:"errors"`
}

// RowFailure attributes import validation errors to one uploaded row.
type RowFailure struct {
	Row   any            `json:"row"`
	Field []FieldFailure `json:"field"`
}

// ImportResult is the outcome of an import request. A failed batch carries
// every failing row; there is no partial success.
type ImportResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []RowFailure `json:"errors"`
}
