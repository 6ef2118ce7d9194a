package dashboard

import (
	"github.com/ekaya-inc/menu-etl/pkg/frame"
	"github.com/ekaya-inc/menu-etl/pkg/jsonutil"
)

// AllCategories is the category option that disables the category filter.
const AllCategories = "All"

// Filters are the user's selections. They combine with AND; each is a no-op
// when its backing column is absent.
type Filters struct {
	Category       string `json:"category"`
	VegetarianOnly bool   `json:"vegetarian_only"`
	GlutenFreeOnly bool   `json:"gluten_free_only"`
}

// CategorySelected reports whether a specific category is chosen.
func (fl Filters) CategorySelected() bool {
	return fl.Category != "" && fl.Category != AllCategories
}

// Apply returns the rows of f that pass every active filter.
func (fl Filters) Apply(f *frame.Frame) *frame.Frame {
	byCategory := fl.CategorySelected() && f.HasColumn("category")
	vegetarian := fl.VegetarianOnly && f.HasColumn("is_vegetarian")
	glutenFree := fl.GlutenFreeOnly && f.HasColumn("is_gluten_free")

	return f.Filter(func(row frame.Row) bool {
		if byCategory && (row["category"] == nil || frame.Key(row["category"]) != fl.Category) {
			return false
		}
		if vegetarian && !jsonutil.Truthy(row["is_vegetarian"]) {
			return false
		}
		if glutenFree && !jsonutil.Truthy(row["is_gluten_free"]) {
			return false
		}
		return true
	})
}
