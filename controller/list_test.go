package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aethra/steward/client"
	"github.com/aethra/steward/liststate"
	"github.com/aethra/steward/resource"
	"github.com/aethra/steward/schema"
)

func pagesEntity() *schema.Entity {
	return &schema.Entity{
		Code:       "pages",
		Name:       "Page",
		PathPrefix: "/api/pages",
		Fields: []schema.Field{
			{Name: "title", Type: schema.TypeString, InList: true, Searchable: true, Sortable: true},
			{Name: "slug", Type: schema.TypeString, InList: true, Sortable: true},
			{Name: "status", Type: schema.TypeBool, Default: true, InList: true},
		},
		DefaultVisible: []string{"title", "status"},
		HasStatus:      true,
	}
}

type fakeNav struct {
	mu      sync.Mutex
	toLogin int
	toList  []string
}

func (n *fakeNav) ToLogin() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toLogin++
}

func (n *fakeNav) ToList(code string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toList = append(n.toList, code)
}

func (n *fakeNav) logins() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.toLogin
}

func (n *fakeNav) lists() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.toList...)
}

// listServer answers the list route family and records every request.
type listServer struct {
	mu       sync.Mutex
	requests []*http.Request
	total    int
	onExport http.HandlerFunc
}

func (s *listServer) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r.Clone(context.Background()))
}

func (s *listServer) listQueries() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []url.Values
	for _, r := range s.requests {
		if r.Method == http.MethodGet && r.URL.Path == "/api/pages" {
			out = append(out, r.URL.Query())
		}
	}
	return out
}

func (s *listServer) deletes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, r := range s.requests {
		if r.Method == http.MethodDelete {
			out = append(out, r.URL.Path)
		}
	}
	return out
}

func (s *listServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/pages":
			rows := []map[string]any{}
			for i := 1; i <= s.total; i++ {
				rows = append(rows, map[string]any{
					"id": i, "uuid": "u-" + string(rune('0'+i)), "title": "Page", "slug": "page", "status": true,
				})
			}
			json.NewEncoder(w).Encode(map[string]any{
				"success":         true,
				"message":         "",
				"columns":         []string{"title", "slug", "status"},
				"visible_columns": []string{"title", "status"},
				"data": map[string]any{
					"current_page": 1,
					"data":         rows,
					"last_page":    1,
					"per_page":     10,
					"total":        s.total,
				},
			})
		case r.Method == http.MethodDelete:
			json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "Deleted successfully."})
		case r.URL.Path == "/api/pages-export":
			if s.onExport != nil {
				s.onExport(w, r)
				return
			}
			w.Header().Set("Content-Disposition", `attachment; filename="pages.csv"`)
			w.Write([]byte("id,uuid,title\n"))
		default:
			http.NotFound(w, r)
		}
	}
}

func newListController(t *testing.T, srv *listServer, nav Navigator, confirm Confirmer) (*ListController, *liststate.Store, *client.Session) {
	t.Helper()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	session := client.NewSession(nil)
	session.SetToken("tok")
	c := client.New(ts.URL, session)
	entity := pagesEntity()
	res := resource.New(c, entity, nil)
	store := liststate.NewStore(entity, client.NewMemoryStorage())

	ctrl := NewList(res, store, ListDeps{Session: session, Nav: nav, Confirm: confirm})
	return ctrl, store, session
}

func waitForQuery(t *testing.T, srv *listServer, match func(url.Values) bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, q := range srv.listQueries() {
			if match(q) {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListMount(t *testing.T) {
	srv := &listServer{total: 3}
	ctrl, _, _ := newListController(t, srv, &fakeNav{}, nil)

	ctrl.Mount(context.Background())
	defer ctrl.Unmount()

	require.Eventually(t, func() bool { return ctrl.State() == StateSuccess }, 2*time.Second, 10*time.Millisecond)
	require.Len(t, ctrl.Rows(), 3)
	require.Equal(t, []string{"title", "slug", "status"}, ctrl.Columns())
	require.Equal(t, []string{"title", "status"}, ctrl.VisibleColumns())

	// Initial fetch carries page and per_page defaults.
	waitForQuery(t, srv, func(q url.Values) bool {
		return q.Get("page") == "1" && q.Get("per_page") == "10"
	})
}

func TestListSearchResetsPage(t *testing.T) {
	srv := &listServer{total: 3}
	ctrl, store, _ := newListController(t, srv, &fakeNav{}, nil)
	ctrl.Mount(context.Background())
	defer ctrl.Unmount()

	ctrl.SetPage(3)
	waitForQuery(t, srv, func(q url.Values) bool { return q.Get("page") == "3" })

	ctrl.Search("hello")
	require.Equal(t, 1, store.Page(), "search must reset pagination")
	waitForQuery(t, srv, func(q url.Values) bool {
		return q.Get("search") == "hello" && q.Get("page") == "1"
	})
}

func TestListToggleSortCycle(t *testing.T) {
	srv := &listServer{total: 1}
	ctrl, store, _ := newListController(t, srv, &fakeNav{}, nil)
	ctrl.Mount(context.Background())
	defer ctrl.Unmount()

	ctrl.ToggleSort("title")
	require.Equal(t, "title", store.Get(liststate.KeySortBy))
	require.Equal(t, "asc", store.Get(liststate.KeySortOrder))

	ctrl.ToggleSort("title")
	require.Equal(t, "desc", store.Get(liststate.KeySortOrder))

	// Switching to another column restarts at ascending.
	ctrl.ToggleSort("slug")
	require.Equal(t, "slug", store.Get(liststate.KeySortBy))
	require.Equal(t, "asc", store.Get(liststate.KeySortOrder))

	ctrl.ToggleSort("slug")
	require.Equal(t, "desc", store.Get(liststate.KeySortOrder))
}

func TestListStatusFilter(t *testing.T) {
	srv := &listServer{total: 1}
	ctrl, _, _ := newListController(t, srv, &fakeNav{}, nil)
	ctrl.Mount(context.Background())
	defer ctrl.Unmount()

	active := true
	ctrl.SetStatus(&active)
	waitForQuery(t, srv, func(q url.Values) bool { return q.Get("status") == "true" })
}

func TestListDeleteConfirmGated(t *testing.T) {
	t.Run("declined confirm issues no request", func(t *testing.T) {
		srv := &listServer{total: 1}
		ctrl, _, _ := newListController(t, srv, &fakeNav{}, ConfirmerFunc(func(string) bool { return false }))
		ctrl.Mount(context.Background())
		defer ctrl.Unmount()

		row := resource.Record{"id": float64(11), "uuid": "u-11"}
		require.NoError(t, ctrl.Delete(context.Background(), row))
		require.Empty(t, srv.deletes())
	})

	t.Run("accepted confirm deletes by display id", func(t *testing.T) {
		srv := &listServer{total: 1}
		var gotMsg string
		confirm := ConfirmerFunc(func(msg string) bool {
			gotMsg = msg
			return true
		})
		ctrl, _, _ := newListController(t, srv, &fakeNav{}, confirm)
		ctrl.Mount(context.Background())
		defer ctrl.Unmount()

		row := resource.Record{"id": float64(11), "uuid": "u-11"}
		require.NoError(t, ctrl.Delete(context.Background(), row))
		require.Equal(t, []string{"/api/pages/11"}, srv.deletes())
		require.Contains(t, gotMsg, "Page")

		// The write invalidated the list tag, so the list re-fetches.
		require.Eventually(t, func() bool { return len(srv.listQueries()) >= 2 }, 2*time.Second, 10*time.Millisecond)
	})
}

func TestListNoNextPageUnderPerPage(t *testing.T) {
	// Nine rows with per_page ten is a single page.
	srv := &listServer{total: 9}
	ctrl, _, _ := newListController(t, srv, &fakeNav{}, nil)
	ctrl.Mount(context.Background())
	defer ctrl.Unmount()

	require.Eventually(t, func() bool { return ctrl.State() == StateSuccess }, 2*time.Second, 10*time.Millisecond)
	require.Len(t, ctrl.Rows(), 9)
	require.False(t, ctrl.HasNextPage())
}

func TestListUnauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"Unauthenticated."}`))
	}))
	t.Cleanup(ts.Close)

	session := client.NewSession(nil)
	session.SetToken("expired")
	entity := pagesEntity()
	res := resource.New(client.New(ts.URL, session), entity, nil)
	store := liststate.NewStore(entity, nil)
	nav := &fakeNav{}

	ctrl := NewList(res, store, ListDeps{Session: session, Nav: nav})
	ctrl.Mount(context.Background())
	defer ctrl.Unmount()

	require.Eventually(t, func() bool { return nav.logins() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Empty(t, session.Token(), "401 logs the session out")
	require.Equal(t, StateError, ctrl.State())
}

func TestListExport(t *testing.T) {
	t.Run("exports the loaded rows", func(t *testing.T) {
		srv := &listServer{total: 2}
		ctrl, _, _ := newListController(t, srv, &fakeNav{}, nil)
		ctrl.Mount(context.Background())
		defer ctrl.Unmount()
		require.Eventually(t, func() bool { return ctrl.State() == StateSuccess }, 2*time.Second, 10*time.Millisecond)

		data, filename, err := ctrl.Export(context.Background())
		require.NoError(t, err)
		require.Equal(t, "pages.csv", filename)
		require.NotEmpty(t, data)
		require.Empty(t, ctrl.Failures())
	})

	t.Run("failure surfaces as the synthetic entry", func(t *testing.T) {
		srv := &listServer{total: 2}
		srv.onExport = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"success":false,"message":"Server error."}`))
		}
		ctrl, _, _ := newListController(t, srv, &fakeNav{}, nil)
		ctrl.Mount(context.Background())
		defer ctrl.Unmount()
		require.Eventually(t, func() bool { return ctrl.State() == StateSuccess }, 2*time.Second, 10*time.Millisecond)

		_, _, err := ctrl.Export(context.Background())
		require.Error(t, err)

		failures := ctrl.Failures()
		require.Len(t, failures, 1)
		require.Equal(t, "-", failures[0].Row)
		require.Equal(t, "export", failures[0].Field[0].Attribute)
		require.NotEmpty(t, failures[0].Field[0].Errors)
	})
}

func TestListImportModal(t *testing.T) {
	srv := &listServer{total: 1}
	ctrl, _, _ := newListController(t, srv, &fakeNav{}, nil)
	ctrl.Mount(context.Background())
	defer ctrl.Unmount()

	require.False(t, ctrl.ImportOpen())
	ctrl.OpenImport()
	require.True(t, ctrl.ImportOpen())
	ctrl.CloseImport()
	require.False(t, ctrl.ImportOpen())
	require.Empty(t, ctrl.Failures())
}

func TestListImportFlow(t *testing.T) {
	importBody := `{"success":true,"message":"Imported successfully.","errors":[]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/pages":
			json.NewEncoder(w).Encode(map[string]any{
				"success": true, "columns": []string{"title"}, "visible_columns": []string{"title"},
				"data": map[string]any{"current_page": 1, "data": []any{}, "last_page": 1, "per_page": 10, "total": 0},
			})
		case "/api/pages-import":
			w.Write([]byte(importBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)

	session := client.NewSession(nil)
	session.SetToken("tok")
	entity := pagesEntity()
	res := resource.New(client.New(ts.URL, session), entity, nil)
	store := liststate.NewStore(entity, nil)
	ctrl := NewList(res, store, ListDeps{Session: session, Nav: &fakeNav{}})
	ctrl.Mount(context.Background())
	defer ctrl.Unmount()

	t.Run("no picked file", func(t *testing.T) {
		ctrl.OpenImport()
		err := ctrl.Import(context.Background(), "", NewFilePicker())
		require.Error(t, err)
	})

	t.Run("row failures keep the modal open", func(t *testing.T) {
		importBody = `{"success":false,"message":"Some rows could not be imported.","errors":[{"row":3,"field":[{"attribute":"title","errors":["The title field is required."]}]}]}`
		picker := NewFilePicker()
		require.NoError(t, picker.Pick("file", "pages.csv", bytes.NewReader([]byte("title\n\n"))))

		ctrl.OpenImport()
		require.NoError(t, ctrl.Import(context.Background(), "pages.csv", picker))
		require.True(t, ctrl.ImportOpen())
		failures := ctrl.Failures()
		require.Len(t, failures, 1)
		require.Equal(t, "title", failures[0].Field[0].Attribute)

		// The picker handed its file over.
		_, selected := picker.Selected()
		require.False(t, selected)
	})

	t.Run("clean import closes the modal", func(t *testing.T) {
		importBody = `{"success":true,"message":"Imported successfully.","errors":[]}`
		picker := NewFilePicker()
		require.NoError(t, picker.Pick("file", "pages.csv", bytes.NewReader([]byte("title\nHome\n"))))

		ctrl.OpenImport()
		require.NoError(t, ctrl.Import(context.Background(), "pages.csv", picker))
		require.False(t, ctrl.ImportOpen())
		require.Empty(t, ctrl.Failures())
	})
}

func TestListSaveColumnSettings(t *testing.T) {
	srv := &listServer{total: 1}
	ctrl, store, _ := newListController(t, srv, &fakeNav{}, nil)

	require.NoError(t, ctrl.SaveColumnSettings([]string{"slug"}))
	require.Equal(t, []string{"slug"}, store.VisibleColumns())
	require.Equal(t, []string{"slug"}, ctrl.VisibleColumns())
}

func TestListDropsStaleResponse(t *testing.T) {
	started := make(chan struct{})
	gate := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		search := r.URL.Query().Get("search")
		if search == "slow" {
			// Hold this fetch until a newer one has already landed.
			close(started)
			<-gate
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":         true,
			"message":         "",
			"columns":         []string{"title", "slug", "status"},
			"visible_columns": []string{"title", "status"},
			"data": map[string]any{
				"current_page": 1,
				"data":         []map[string]any{{"id": 1, "uuid": "u-1", "title": search, "slug": "s", "status": true}},
				"last_page":    1,
				"per_page":     10,
				"total":        1,
			},
		})
	}))
	t.Cleanup(ts.Close)

	session := client.NewSession(nil)
	session.SetToken("tok")
	entity := pagesEntity()
	res := resource.New(client.New(ts.URL, session), entity, nil)
	store := liststate.NewStore(entity, nil)
	ctrl := NewList(res, store, ListDeps{Session: session, Nav: &fakeNav{}})

	ctrl.Mount(context.Background())
	require.Eventually(t, func() bool { return ctrl.State() == StateSuccess }, 2*time.Second, 10*time.Millisecond)

	ctrl.Search("slow")
	<-started

	ctrl.Search("fresh")
	require.Eventually(t, func() bool {
		rows := ctrl.Rows()
		return ctrl.State() == StateSuccess && len(rows) == 1 && rows[0]["title"] == "fresh"
	}, 2*time.Second, 10*time.Millisecond)

	close(gate)
	time.Sleep(100 * time.Millisecond)

	rows := ctrl.Rows()
	require.Len(t, rows, 1)
	require.Equal(t, "fresh", rows[0]["title"], "older fetch must not overwrite the newer one")
	require.Equal(t, StateSuccess, ctrl.State())
}
