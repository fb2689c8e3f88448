package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aethra/steward/internal/models"
	"github.com/aethra/steward/schema"
)

func testEntity() *schema.Entity {
	return &schema.Entity{
		Code:       "pages",
		Name:       "Page",
		PathPrefix: "/api/pages",
		Fields: []schema.Field{
			{Name: "title", Label: "Title", Type: schema.TypeString, Required: true, MinLength: 2, MaxLength: 255, InList: true, Searchable: true, Sortable: true},
			{Name: "slug", Label: "Slug", Type: schema.TypeString, Required: true, MaxLength: 255, InList: true, Searchable: true, Sortable: true},
			{Name: "body", Label: "Body", Type: schema.TypeText, Searchable: true},
			{Name: "display_order", Label: "Order", Type: schema.TypeNumber, InList: true, Sortable: true},
			{Name: "status", Label: "Status", Type: schema.TypeBool, Default: true, InList: true},
		},
		DefaultVisible: []string{"title", "slug", "status"},
		HasStatus:      true,
	}
}

func newTestEngine(t *testing.T) (*Engine, *schema.Entity) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.AuditLog{}))

	entity := testEntity()
	require.NoError(t, CreateEntityTable(db, entity))

	reg := schema.NewRegistry()
	reg.Register(entity)
	return NewEngine(db, reg, nil), entity
}

func seed(t *testing.T, e *Engine, entity *schema.Entity, n int) []Record {
	t.Helper()
	records := make([]Record, 0, n)
	for i := 1; i <= n; i++ {
		rec, err := e.Create(context.Background(), entity, Record{
			"title":         fmt.Sprintf("Page %02d", i),
			"slug":          fmt.Sprintf("page-%02d", i),
			"display_order": i,
			"status":        i%2 == 0,
		}, nil)
		require.NoError(t, err)
		records = append(records, rec)
	}
	return records
}

func TestEngineCreate(t *testing.T) {
	e, entity := newTestEngine(t)

	t.Run("valid record gets system columns", func(t *testing.T) {
		rec, err := e.Create(context.Background(), entity, Record{
			"title": "Home",
			"slug":  "home",
		}, nil)
		require.NoError(t, err)
		require.NotEmpty(t, rec["uuid"])
		require.NotNil(t, rec["id"])
		require.NotNil(t, rec["created_at"])
	})

	t.Run("missing required fields", func(t *testing.T) {
		_, err := e.Create(context.Background(), entity, Record{"body": "no title"}, nil)
		var verr *ValidationFailure
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "The title field is required.", verr.Fields["title"][0])
		require.NotEmpty(t, verr.Fields["slug"])
	})

	t.Run("length bounds", func(t *testing.T) {
		_, err := e.Create(context.Background(), entity, Record{"title": "x", "slug": "x"}, nil)
		var verr *ValidationFailure
		require.ErrorAs(t, err, &verr)
		require.Contains(t, verr.Fields["title"][0], "between 2 and 255")
	})
}

func TestEngineList(t *testing.T) {
	e, entity := newTestEngine(t)
	seed(t, e, entity, 25)

	t.Run("default pagination", func(t *testing.T) {
		res, err := e.List(context.Background(), entity, ListParams{})
		require.NoError(t, err)
		require.Equal(t, 1, res.CurrentPage)
		require.Equal(t, 10, res.PerPage)
		require.Equal(t, 3, res.LastPage)
		require.Equal(t, int64(25), res.Total)
		require.Len(t, res.Data, 10)
	})

	t.Run("last partial page", func(t *testing.T) {
		res, err := e.List(context.Background(), entity, ListParams{Page: 3})
		require.NoError(t, err)
		require.Len(t, res.Data, 5)
	})

	t.Run("per_page clamp", func(t *testing.T) {
		res, err := e.List(context.Background(), entity, ListParams{PerPage: 1000})
		require.NoError(t, err)
		require.Equal(t, maxPerPage, res.PerPage)

		res, err = e.List(context.Background(), entity, ListParams{PerPage: -4, Page: -1})
		require.NoError(t, err)
		require.Equal(t, defaultPerPage, res.PerPage)
		require.Equal(t, 1, res.CurrentPage)
	})

	t.Run("empty table still reports page one", func(t *testing.T) {
		fresh, freshEntity := newTestEngine(t)
		res, err := fresh.List(context.Background(), freshEntity, ListParams{})
		require.NoError(t, err)
		require.Equal(t, 1, res.CurrentPage)
		require.Equal(t, 1, res.LastPage)
		require.Equal(t, int64(0), res.Total)
		require.Empty(t, res.Data)
	})

	t.Run("search is case-insensitive over searchable columns", func(t *testing.T) {
		res, err := e.List(context.Background(), entity, ListParams{Search: "PAGE 01"})
		require.NoError(t, err)
		require.Equal(t, int64(1), res.Total)
	})

	t.Run("search escapes LIKE metacharacters", func(t *testing.T) {
		res, err := e.List(context.Background(), entity, ListParams{Search: "100%"})
		require.NoError(t, err)
		require.Equal(t, int64(0), res.Total)
	})

	t.Run("sort by allowed column", func(t *testing.T) {
		res, err := e.List(context.Background(), entity, ListParams{SortBy: "title", SortOrder: "desc", PerPage: 1})
		require.NoError(t, err)
		require.Equal(t, "Page 25", res.Data[0]["title"])
	})

	t.Run("disallowed sort falls back to newest-first", func(t *testing.T) {
		res, err := e.List(context.Background(), entity, ListParams{SortBy: "body; DROP TABLE data_pages", PerPage: 1})
		require.NoError(t, err)
		require.Equal(t, "Page 25", res.Data[0]["title"])
	})

	t.Run("status filter", func(t *testing.T) {
		active := true
		res, err := e.List(context.Background(), entity, ListParams{Status: &active, PerPage: 100})
		require.NoError(t, err)
		require.Equal(t, int64(12), res.Total)
	})
}

func TestEngineGetUpdateDelete(t *testing.T) {
	e, entity := newTestEngine(t)
	records := seed(t, e, entity, 3)
	first := records[0]
	uuid, _ := first["uuid"].(string)

	t.Run("get by uuid", func(t *testing.T) {
		rec, err := e.GetByUUID(context.Background(), entity, uuid)
		require.NoError(t, err)
		require.Equal(t, "Page 01", rec["title"])
	})

	t.Run("get unknown uuid", func(t *testing.T) {
		_, err := e.GetByUUID(context.Background(), entity, "nope")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update full draft", func(t *testing.T) {
		rec, err := e.Update(context.Background(), entity, uuid, Record{
			"title":         "Renamed",
			"slug":          "renamed",
			"display_order": 9,
		}, nil)
		require.NoError(t, err)
		require.Equal(t, "Renamed", rec["title"])
	})

	t.Run("update validates", func(t *testing.T) {
		_, err := e.Update(context.Background(), entity, uuid, Record{"slug": "only"}, nil)
		var verr *ValidationFailure
		require.ErrorAs(t, err, &verr)
		require.NotEmpty(t, verr.Fields["title"])
	})

	t.Run("update unknown uuid", func(t *testing.T) {
		_, err := e.Update(context.Background(), entity, "nope", Record{"title": "x", "slug": "x"}, nil)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete by display id", func(t *testing.T) {
		displayID := fmt.Sprintf("%v", first["id"])
		require.NoError(t, e.Delete(context.Background(), entity, displayID, nil))

		_, err := e.GetByUUID(context.Background(), entity, uuid)
		require.ErrorIs(t, err, ErrNotFound)

		require.ErrorIs(t, e.Delete(context.Background(), entity, displayID, nil), ErrNotFound)
	})
}

func TestEngineDropdown(t *testing.T) {
	e, entity := newTestEngine(t)
	seed(t, e, entity, 25)

	t.Run("search narrows options", func(t *testing.T) {
		rows, err := e.Dropdown(context.Background(), entity, "title", "page 0")
		require.NoError(t, err)
		require.Len(t, rows, 9)
		for _, row := range rows {
			require.Contains(t, strings.ToLower(row["title"].(string)), "page 0")
		}
	})

	t.Run("option list is capped", func(t *testing.T) {
		rows, err := e.Dropdown(context.Background(), entity, "title", "")
		require.NoError(t, err)
		require.Len(t, rows, 20)
	})
}

func TestEngineAudit(t *testing.T) {
	e, entity := newTestEngine(t)
	rec, err := e.Create(context.Background(), entity, Record{"title": "Audited", "slug": "audited"}, nil)
	require.NoError(t, err)

	_, err = e.Update(context.Background(), entity, rec["uuid"].(string), Record{"title": "Audited v2", "slug": "audited"}, nil)
	require.NoError(t, err)

	var logs []models.AuditLog
	require.NoError(t, e.db.Order("created_at").Find(&logs).Error)
	require.Len(t, logs, 2)
	require.Equal(t, "create", logs[0].Action)
	require.Equal(t, "update", logs[1].Action)
	require.Equal(t, "pages", logs[1].EntityCode)
	require.Contains(t, []string(logs[1].ChangedFields), "title")
}

func TestTableNameIsBare(t *testing.T) {
	e, entity := newTestEngine(t)

	// gorm's Table() quotes the name itself; handing it a pre-quoted
	// identifier would target a table that does not exist.
	table, err := e.tableName(entity)
	require.NoError(t, err)
	require.Equal(t, "data_pages", table)

	_, err = e.tableName(&schema.Entity{Code: "pages", Table: "data; DROP TABLE users"})
	require.Error(t, err)
}
