package controller

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/aethra/steward/client"
	"github.com/aethra/steward/resource"
)

// FilePicker holds a picked-but-not-yet-uploaded file, the transient
// UI-only part of a form draft.
type FilePicker struct {
	mu     sync.Mutex
	upload *client.FileUpload
}

// NewFilePicker creates an empty picker.
func NewFilePicker() *FilePicker {
	return &FilePicker{}
}

// Pick buffers the file content so the handle outlives the drop event.
func (p *FilePicker) Pick(field, filename string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.upload = &client.FileUpload{Field: field, Filename: filename, Content: bytes.NewReader(data)}
	return nil
}

// Selected reports whether a file is held, and its name.
func (p *FilePicker) Selected() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.upload == nil {
		return "", false
	}
	return p.upload.Filename, true
}

// Take hands the upload over for submission and clears the picker.
func (p *FilePicker) Take() (*client.FileUpload, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.upload == nil {
		return nil, false
	}
	u := p.upload
	p.upload = nil
	return u, true
}

// Clear drops the held file.
func (p *FilePicker) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.upload = nil
}

// AsyncSelect backs a searchable foreign-key picker. Options load lazily,
// only when Search is called (focus/typing), never on mount. Overlapping
// lookups resolve last-request-wins via generation tokens.
type AsyncSelect struct {
	mu      sync.Mutex
	target  *resource.Resource
	options []resource.Option
	gen     uint64
	loaded  bool
}

// NewAsyncSelect binds the widget to the target entity's dropdown-search
// operation.
func NewAsyncSelect(target *resource.Resource) *AsyncSelect {
	return &AsyncSelect{target: target}
}

// Search runs the dropdown lookup for the typed text and replaces the
// option set, unless a newer search already resolved.
func (s *AsyncSelect) Search(ctx context.Context, text string) error {
	s.mu.Lock()
	s.gen++
	myGen := s.gen
	s.mu.Unlock()

	opts, err := s.target.DropdownSearch(ctx, text)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if myGen != s.gen {
		return nil // stale lookup
	}
	s.options = opts
	s.loaded = true
	return nil
}

// Options returns the current option set. Empty until the first Search.
func (s *AsyncSelect) Options() []resource.Option {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]resource.Option(nil), s.options...)
}

// Loaded reports whether any lookup has resolved yet.
func (s *AsyncSelect) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}
