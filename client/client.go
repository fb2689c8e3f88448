// Package client is the HTTP adapter the resource modules sit on. It
// injects the bearer token from the shared session, decodes the standard
// response envelopes, and maps 401 and 422 responses onto their dedicated
// error variants. No retries, no backoff: every other failure propagates
// untouched to the caller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// FileUpload wraps a picked file for a multipart request.
type FileUpload struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Request is a transport-agnostic request descriptor.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any         // JSON-encoded when non-nil and File is nil
	File   *FileUpload // multipart form when non-nil
}

// Client performs requests against the admin backend.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client rooted at baseURL, reading bearer tokens from
// session.
func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		session: session,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the shared session state.
func (c *Client) Session() *Session {
	return c.session
}

// Do performs the request and JSON-decodes the response into out when out
// is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	body, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response for %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

// Blob performs the request and returns the raw response body plus the
// suggested filename from Content-Disposition, for download-style
// endpoints.
func (c *Client) Blob(ctx context.Context, req Request) ([]byte, string, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if err := c.checkStatus(resp.StatusCode, data); err != nil {
		return nil, "", err
	}

	filename := ""
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			filename = params["filename"]
		}
	}
	return data, filename, nil
}

func (c *Client) do(ctx context.Context, req Request) ([]byte, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(resp.StatusCode, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.File != nil:
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		part, err := mw.CreateFormFile(req.File.Field, req.File.Filename)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, req.File.Content); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
		body = buf
		contentType = mw.FormDataContentType()
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.session != nil {
		if tok := c.session.Token(); tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return httpReq, nil
}

func (c *Client) checkStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusUnprocessableEntity:
		ve := &ValidationError{Fields: map[string][]string{}}
		if err := json.Unmarshal(body, ve); err != nil || len(ve.Fields) == 0 {
			c.log.Debug("unparseable 422 body", "body", string(body))
		}
		return ve
	default:
		return &StatusError{StatusCode: status, Body: body}
	}
}
