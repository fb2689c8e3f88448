package schema

// Catalog returns a registry seeded with the stock admin entities. Each
// entry is pure data; adding a screen to the dashboard is adding an Entity
// here.
func Catalog() *Registry {
	r := NewRegistry()

	order := float64(0)
	maxOrder := float64(9999)

	r.Register(&Entity{
		Code:       "pages",
		Name:       "Pages",
		PathPrefix: "/api/pages",
		HasStatus:  true,
		Fields: []Field{
			{Name: "title", Label: "Title", Type: TypeString, Required: true, MinLength: 2, MaxLength: 255, InList: true, Searchable: true, Sortable: true},
			{Name: "slug", Label: "Slug", Type: TypeString, Required: true, MaxLength: 255, InList: true, Searchable: true, Sortable: true},
			{Name: "content", Label: "Content", Type: TypeText, Searchable: true},
			{Name: "meta_title", Label: "Meta Title", Type: TypeString, MaxLength: 255},
			{Name: "meta_description", Label: "Meta Description", Type: TypeText},
			{Name: "status", Label: "Status", Type: TypeBool, Default: true, InList: true, Sortable: true},
			{Name: "display_order", Label: "Order", Type: TypeNumber, Min: &order, Max: &maxOrder, InList: true, Sortable: true},
		},
		DefaultVisible: []string{"title", "slug", "status", "display_order"},
	})

	r.Register(&Entity{
		Code:       "banners",
		Name:       "Banners",
		PathPrefix: "/api/banners",
		HasStatus:  true,
		Fields: []Field{
			{Name: "title", Label: "Title", Type: TypeString, Required: true, MaxLength: 255, InList: true, Searchable: true, Sortable: true},
			{Name: "subtitle", Label: "Subtitle", Type: TypeString, MaxLength: 255, InList: true, Searchable: true},
			{Name: "image", Label: "Image", Type: TypeFile},
			{Name: "link", Label: "Link", Type: TypeString, MaxLength: 500},
			{Name: "status", Label: "Status", Type: TypeBool, Default: true, InList: true, Sortable: true},
			{Name: "display_order", Label: "Order", Type: TypeNumber, Min: &order, InList: true, Sortable: true},
		},
		DefaultVisible: []string{"title", "subtitle", "status", "display_order"},
	})

	r.Register(&Entity{
		Code:       "categories",
		Name:       "Categories",
		PathPrefix: "/api/categories",
		HasStatus:  true,
		Fields: []Field{
			{Name: "name", Label: "Name", Type: TypeString, Required: true, MinLength: 2, MaxLength: 100, InList: true, Searchable: true, Sortable: true},
			{Name: "slug", Label: "Slug", Type: TypeString, Required: true, MaxLength: 100, InList: true, Searchable: true, Sortable: true},
			{Name: "status", Label: "Status", Type: TypeBool, Default: true, InList: true, Sortable: true},
		},
		DefaultVisible: []string{"name", "slug", "status"},
	})

	r.Register(&Entity{
		Code:       "blogs",
		Name:       "Blogs",
		PathPrefix: "/api/blogs",
		HasStatus:  true,
		Fields: []Field{
			{Name: "title", Label: "Title", Type: TypeString, Required: true, MinLength: 3, MaxLength: 255, InList: true, Searchable: true, Sortable: true},
			{Name: "slug", Label: "Slug", Type: TypeString, Required: true, MaxLength: 255, InList: true, Searchable: true, Sortable: true},
			{Name: "category_id", Label: "Category", Type: TypeSelect, InList: true, Dropdown: &Dropdown{Entity: "categories", LabelField: "name"}},
			{Name: "body", Label: "Body", Type: TypeText, Required: true, Searchable: true},
			{Name: "image", Label: "Image", Type: TypeFile},
			{Name: "status", Label: "Status", Type: TypeBool, Default: true, InList: true, Sortable: true},
		},
		DefaultVisible: []string{"title", "slug", "category_id", "status"},
	})

	r.Register(&Entity{
		Code:       "faqs",
		Name:       "FAQs",
		PathPrefix: "/api/faqs",
		HasStatus:  true,
		Fields: []Field{
			{Name: "question", Label: "Question", Type: TypeString, Required: true, MinLength: 5, MaxLength: 500, InList: true, Searchable: true, Sortable: true},
			{Name: "answer", Label: "Answer", Type: TypeText, Required: true, Searchable: true},
			{Name: "status", Label: "Status", Type: TypeBool, Default: true, InList: true, Sortable: true},
			{Name: "display_order", Label: "Order", Type: TypeNumber, Min: &order, InList: true, Sortable: true},
		},
		DefaultVisible: []string{"question", "status", "display_order"},
	})

	r.Register(&Entity{
		Code:       "jobs",
		Name:       "Jobs",
		PathPrefix: "/api/jobs",
		HasStatus:  true,
		Fields: []Field{
			{Name: "title", Label: "Title", Type: TypeString, Required: true, MaxLength: 255, InList: true, Searchable: true, Sortable: true},
			{Name: "department", Label: "Department", Type: TypeString, MaxLength: 100, InList: true, Searchable: true, Sortable: true},
			{Name: "location", Label: "Location", Type: TypeString, MaxLength: 255, InList: true, Searchable: true},
			{Name: "description", Label: "Description", Type: TypeText, Required: true, Searchable: true},
			{Name: "vacancies", Label: "Vacancies", Type: TypeNumber, Default: float64(1), Min: &order, InList: true, Sortable: true},
			{Name: "status", Label: "Status", Type: TypeBool, Default: true, InList: true, Sortable: true},
		},
		DefaultVisible: []string{"title", "department", "location", "status"},
	})

	r.Register(&Entity{
		Code:       "testimonials",
		Name:       "Testimonials",
		PathPrefix: "/api/testimonials",
		HasStatus:  true,
		Fields: []Field{
			{Name: "name", Label: "Name", Type: TypeString, Required: true, MaxLength: 100, InList: true, Searchable: true, Sortable: true},
			{Name: "designation", Label: "Designation", Type: TypeString, MaxLength: 100, InList: true, Searchable: true},
			{Name: "quote", Label: "Quote", Type: TypeText, Required: true, MinLength: 10, Searchable: true},
			{Name: "avatar", Label: "Avatar", Type: TypeFile},
			{Name: "status", Label: "Status", Type: TypeBool, Default: true, InList: true, Sortable: true},
		},
		DefaultVisible: []string{"name", "designation", "status"},
	})

	return r
}
