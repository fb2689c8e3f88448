package controller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aethra/steward/client"
	"github.com/aethra/steward/resource"
	"github.com/aethra/steward/schema"
)

func TestFilePicker(t *testing.T) {
	picker := NewFilePicker()

	_, ok := picker.Selected()
	require.False(t, ok)

	require.NoError(t, picker.Pick("file", "data.csv", strings.NewReader("a,b\n")))
	name, ok := picker.Selected()
	require.True(t, ok)
	require.Equal(t, "data.csv", name)

	upload, ok := picker.Take()
	require.True(t, ok)
	require.Equal(t, "data.csv", upload.Filename)

	_, ok = picker.Take()
	require.False(t, ok, "take clears the picker")

	require.NoError(t, picker.Pick("file", "again.csv", strings.NewReader("x")))
	picker.Clear()
	_, ok = picker.Selected()
	require.False(t, ok)
}

func TestAsyncSelect(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/api/categories-dropdown", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":1,"name":"Tech"}]}`))
	}))
	t.Cleanup(ts.Close)

	session := client.NewSession(nil)
	session.SetToken("tok")
	categories := &schema.Entity{
		Code:       "categories",
		PathPrefix: "/api/categories",
		Fields:     []schema.Field{{Name: "name", Type: schema.TypeString}},
	}
	sel := NewAsyncSelect(resource.New(client.New(ts.URL, session), categories, nil))

	// Nothing loads before the first search.
	require.False(t, sel.Loaded())
	require.Empty(t, sel.Options())
	require.Zero(t, calls)

	require.NoError(t, sel.Search(context.Background(), "te"))
	require.True(t, sel.Loaded())
	opts := sel.Options()
	require.Len(t, opts, 1)
	require.Equal(t, "Tech", opts[0].Label)
	require.Equal(t, 1, calls)
}

func TestAsyncSelectDropsStaleLookup(t *testing.T) {
	started := make(chan struct{})
	gate := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") == "te" {
			// Hold the older lookup until the newer one has resolved.
			close(started)
			<-gate
			w.Write([]byte(`{"data":[{"id":1,"name":"Tech"}]}`))
			return
		}
		w.Write([]byte(`{"data":[{"id":2,"name":"Team"}]}`))
	}))
	t.Cleanup(ts.Close)

	session := client.NewSession(nil)
	session.SetToken("tok")
	categories := &schema.Entity{
		Code:       "categories",
		PathPrefix: "/api/categories",
		Fields:     []schema.Field{{Name: "name", Type: schema.TypeString}},
	}
	sel := NewAsyncSelect(resource.New(client.New(ts.URL, session), categories, nil))

	done := make(chan error, 1)
	go func() { done <- sel.Search(context.Background(), "te") }()
	<-started

	require.NoError(t, sel.Search(context.Background(), "team"))
	close(gate)
	require.NoError(t, <-done)

	opts := sel.Options()
	require.Len(t, opts, 1)
	require.Equal(t, "Team", opts[0].Label, "older lookup must not overwrite the newer one")
}
