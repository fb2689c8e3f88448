package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldCoerce(t *testing.T) {
	number := &Field{Name: "display_order", Type: TypeNumber}
	boolean := &Field{Name: "status", Type: TypeBool}
	text := &Field{Name: "title", Type: TypeString}

	t.Run("number from string", func(t *testing.T) {
		require.Equal(t, 42.5, number.Coerce("42.5"))
		require.Equal(t, float64(7), number.Coerce(" 7 "))
	})

	t.Run("number from numeric types", func(t *testing.T) {
		require.Equal(t, float64(3), number.Coerce(3))
		require.Equal(t, float64(9), number.Coerce(int64(9)))
		require.Equal(t, 1.5, number.Coerce(1.5))
	})

	t.Run("unparseable number falls back to zero", func(t *testing.T) {
		require.Equal(t, float64(0), number.Coerce("not a number"))
		require.Equal(t, float64(0), number.Coerce(nil))
	})

	t.Run("bool from string", func(t *testing.T) {
		require.Equal(t, true, boolean.Coerce("true"))
		require.Equal(t, true, boolean.Coerce("1"))
		require.Equal(t, false, boolean.Coerce("nope"))
	})

	t.Run("bool from numeric", func(t *testing.T) {
		require.Equal(t, true, boolean.Coerce(float64(1)))
		require.Equal(t, false, boolean.Coerce(0))
	})

	t.Run("text keeps strings and stringifies the rest", func(t *testing.T) {
		require.Equal(t, "hello", text.Coerce("hello"))
		require.Equal(t, "", text.Coerce(nil))
		require.Equal(t, "12", text.Coerce(12))
	})
}

func TestFieldZeroValue(t *testing.T) {
	t.Run("declared default wins", func(t *testing.T) {
		f := &Field{Name: "per_row", Type: TypeNumber, Default: float64(3)}
		require.Equal(t, float64(3), f.ZeroValue())
	})

	t.Run("type-natural empties", func(t *testing.T) {
		require.Equal(t, float64(0), (&Field{Type: TypeNumber}).ZeroValue())
		require.Equal(t, false, (&Field{Type: TypeBool}).ZeroValue())
		require.Equal(t, "", (&Field{Type: TypeString}).ZeroValue())
		require.Equal(t, "", (&Field{Type: TypeText}).ZeroValue())
	})
}

func TestEntityDefaults(t *testing.T) {
	entity := &Entity{
		Code: "posts",
		Fields: []Field{
			{Name: "title", Type: TypeString},
			{Name: "display_order", Type: TypeNumber},
			{Name: "status", Type: TypeBool, Default: true},
		},
	}
	draft := entity.Defaults()
	require.Equal(t, "", draft["title"])
	require.Equal(t, float64(0), draft["display_order"])
	require.Equal(t, true, draft["status"])
}

func TestEntityVisibleDefaults(t *testing.T) {
	t.Run("explicit default set", func(t *testing.T) {
		entity := &Entity{
			Code:           "posts",
			Fields:         []Field{{Name: "title", InList: true}, {Name: "body"}},
			DefaultVisible: []string{"title"},
		}
		require.Equal(t, []string{"title"}, entity.VisibleDefaults())
	})

	t.Run("falls back to list columns", func(t *testing.T) {
		entity := &Entity{
			Code:   "posts",
			Fields: []Field{{Name: "title", InList: true}, {Name: "body"}},
		}
		require.Equal(t, []string{"title"}, entity.VisibleDefaults())
	})
}

func TestEntitySortAllowed(t *testing.T) {
	entity := &Entity{
		Code: "posts",
		Fields: []Field{
			{Name: "title", Sortable: true},
			{Name: "body"},
		},
	}
	require.True(t, entity.SortAllowed("title"))
	require.False(t, entity.SortAllowed("body"))
	require.False(t, entity.SortAllowed("nope"))

	// System columns are always sortable
	require.True(t, entity.SortAllowed("id"))
	require.True(t, entity.SortAllowed("created_at"))
	require.True(t, entity.SortAllowed("updated_at"))
}

func TestEntityNames(t *testing.T) {
	entity := &Entity{Code: "pages"}
	require.Equal(t, "data_pages", entity.TableName())
	require.Equal(t, "pages_visible_columns", entity.StorageKey())

	entity.Table = "cms_pages"
	require.Equal(t, "cms_pages", entity.TableName())
}

func TestRegistryOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Entity{Code: "b"})
	reg.Register(&Entity{Code: "a"})
	reg.Register(&Entity{Code: "b"}) // replace, keeps position

	all := reg.All()
	require.Len(t, all, 2)
	require.Equal(t, "b", all[0].Code)
	require.Equal(t, "a", all[1].Code)

	_, ok := reg.Get("a")
	require.True(t, ok)
	_, ok = reg.Get("missing")
	require.False(t, ok)
}

func TestEntityDropdownLabel(t *testing.T) {
	named := &Entity{Code: "categories", Fields: []Field{
		{Name: "name", Type: TypeString},
	}}
	require.Equal(t, "name", named.DropdownLabel())

	titled := &Entity{Code: "pages", Fields: []Field{
		{Name: "title", Type: TypeString},
	}}
	require.Equal(t, "title", titled.DropdownLabel())

	// Neither name nor title: the first declared field labels the option.
	faq := &Entity{Code: "faqs", Fields: []Field{
		{Name: "question", Type: TypeString},
		{Name: "answer", Type: TypeText},
	}}
	require.Equal(t, "question", faq.DropdownLabel())

	require.Equal(t, "id", (&Entity{Code: "empty"}).DropdownLabel())
}

func TestCatalog(t *testing.T) {
	reg := Catalog()
	require.NotEmpty(t, reg.All())

	blogs, ok := reg.Get("blogs")
	require.True(t, ok)

	category, ok := blogs.Field("category_id")
	require.True(t, ok)
	require.NotNil(t, category.Dropdown)
	require.Equal(t, "categories", category.Dropdown.Entity)

	for _, entity := range reg.All() {
		require.NotEmpty(t, entity.PathPrefix, entity.Code)
		for _, col := range entity.VisibleDefaults() {
			_, ok := entity.Field(col)
			require.True(t, ok, "%s visible column %s not declared", entity.Code, col)
		}
	}
}
