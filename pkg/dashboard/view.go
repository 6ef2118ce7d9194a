package dashboard

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ekaya-inc/menu-etl/pkg/frame"
	"github.com/ekaya-inc/menu-etl/pkg/jsonutil"
)

// Page text.
const (
	PageTitle = "Chick-fil-A Menu Analysis"
	Title     = "Chick-fil-A Side Menu Dashboard"

	emptyWarning     = "No menu data available. Please run the data pipeline first or check Supabase policies."
	noCategoryData   = "No category data available for chart."
	noCategoryColumn = "Column 'category' not found; cannot plot category pie."
	noCalories       = "No numeric calories available to plot."
	noAllergenData   = "No allergen data to display."
	noAllergenColumn = "Column 'allergens' not found; skipping allergen chart."
	noItems          = "No 'name' column or no items to display."

	notAvailable  = "N/A"
	noDescription = "No description available"
)

// DefaultHistogramBinWidth is the calorie range covered by one histogram bar.
const DefaultHistogramBinWidth = 50

// caloriesColumn is derived from the calories display string.
const caloriesColumn = "calories_numeric"

// displayColumns are shown in the items table when present.
var displayColumns = []string{"name", "category", "price", "calories", "is_vegetarian", "is_gluten_free"}

// Metric is one summary counter.
type Metric struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Table is the items table, already formatted for display.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// PieChart is the category distribution.
type PieChart struct {
	Title  string             `json:"title"`
	Slices []frame.ValueCount `json:"slices"`
}

// Bin is one histogram bar covering [Start, End).
type Bin struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Count int `json:"count"`
}

// Contains reports whether v falls in the bin.
func (b Bin) Contains(v int) bool {
	return v >= b.Start && v < b.End
}

// Histogram is the calories distribution.
type Histogram struct {
	Title  string `json:"title"`
	XLabel string `json:"x_label"`
	Bins   []Bin  `json:"bins"`
}

// BarChart is the allergen frequency chart.
type BarChart struct {
	Title  string             `json:"title"`
	XLabel string             `json:"x_label"`
	YLabel string             `json:"y_label"`
	Bars   []frame.ValueCount `json:"bars"`
}

// Detail is the single-item panel.
type Detail struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Price       string   `json:"price"`
	Calories    string   `json:"calories"`
	Allergens   []string `json:"allergens"`
	Description string   `json:"description"`
	Dietary     []string `json:"dietary"`
}

// View is everything the dashboard shows for one render. Sections that could
// not be drawn carry an informational message in the matching *Info field.
type View struct {
	Title   string `json:"title"`
	Error   string `json:"error,omitempty"`
	Caption string `json:"caption"`
	Warning string `json:"warning,omitempty"`

	Metrics    []Metric `json:"metrics,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Filters    Filters  `json:"filters"`

	Table *Table `json:"table,omitempty"`

	Pie           *PieChart  `json:"pie,omitempty"`
	PieInfo       string     `json:"pie_info,omitempty"`
	Histogram     *Histogram `json:"histogram,omitempty"`
	HistogramInfo string     `json:"histogram_info,omitempty"`
	Allergens     *BarChart  `json:"allergens,omitempty"`
	AllergenInfo  string     `json:"allergen_info,omitempty"`

	ItemOptions  []string `json:"item_options,omitempty"`
	SelectedItem string   `json:"selected_item,omitempty"`
	Detail       *Detail  `json:"detail,omitempty"`
	DetailInfo   string   `json:"detail_info,omitempty"`
}

// Empty reports whether the view only carries the no-data warning.
func (v View) Empty() bool {
	return v.Warning != ""
}

// BuildView computes the dashboard for the fetched rows. Counters describe
// every fetched row; the table, charts and detail panel describe the rows
// passing filters. selectedItem picks the detail panel's item by name and
// falls back to the first visible item.
func BuildView(f *frame.Frame, filters Filters, selectedItem string, binWidth int) View {
	if binWidth <= 0 {
		binWidth = DefaultHistogramBinWidth
	}
	if filters.Category == "" {
		filters.Category = AllCategories
	}

	v := View{
		Title:   Title,
		Caption: caption(f),
		Filters: filters,
	}
	if f.Len() == 0 {
		v.Warning = emptyWarning
		return v
	}

	f = withCalories(f)

	v.Metrics = metrics(f)
	v.Categories = categoryOptions(f)

	filtered := filters.Apply(f)

	v.Table = itemsTable(filtered)
	v.Pie, v.PieInfo = categoryPie(filtered)
	v.Histogram, v.HistogramInfo = caloriesHistogram(filtered, binWidth)
	v.Allergens, v.AllergenInfo = allergenBars(filtered)
	v.ItemOptions, v.SelectedItem, v.Detail, v.DetailInfo = itemDetail(filtered, selectedItem)

	return v
}

// caption mirrors a Python list repr so the breadcrumb reads the same as before.
func caption(f *frame.Frame) string {
	quoted := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		quoted[i] = "'" + c + "'"
	}
	return fmt.Sprintf("Rows fetched: %d | Columns: [%s]", f.Len(), strings.Join(quoted, ", "))
}

func withCalories(f *frame.Frame) *frame.Frame {
	hasCalories := f.HasColumn("calories")
	return f.WithColumn(caloriesColumn, func(row frame.Row) any {
		if !hasCalories {
			return nil
		}
		if n := ExtractCalories(row["calories"]); n != nil {
			return *n
		}
		return nil
	})
}

func metrics(f *frame.Frame) []Metric {
	categories := 0
	if f.HasColumn("category") {
		categories = len(f.Unique("category"))
	}
	return []Metric{
		{Label: "Total Menu Items", Value: f.Len()},
		{Label: "Categories", Value: categories},
		{Label: "Vegetarian Options", Value: countTrue(f, "is_vegetarian")},
		{Label: "Gluten-Free Options", Value: countTrue(f, "is_gluten_free")},
	}
}

func countTrue(f *frame.Frame, col string) int {
	if !f.HasColumn(col) {
		return 0
	}
	n := 0
	for _, row := range f.Rows {
		if jsonutil.Truthy(row[col]) {
			n++
		}
	}
	return n
}

func categoryOptions(f *frame.Frame) []string {
	options := []string{AllCategories}
	if !f.HasColumn("category") {
		return options
	}
	var names []string
	for _, c := range f.Unique("category") {
		if name := frame.Key(c); strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append(options, names...)
}

func itemsTable(f *frame.Frame) *Table {
	selected := f.Select(displayColumns...)
	if selected.HasColumn("category") {
		selected = selected.SortStableBy("category")
	}

	table := &Table{Columns: selected.Columns, Rows: make([][]string, 0, selected.Len())}
	if len(selected.Columns) == 0 {
		return table
	}
	for _, row := range selected.Rows {
		cells := make([]string, len(selected.Columns))
		for i, col := range selected.Columns {
			if row[col] != nil {
				cells[i] = frame.Key(row[col])
			}
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

func categoryPie(f *frame.Frame) (*PieChart, string) {
	if !f.HasColumn("category") {
		return nil, noCategoryColumn
	}
	counts := f.ValueCounts("category")
	if len(counts) == 0 {
		return nil, noCategoryData
	}
	return &PieChart{Title: "Menu Items by Category", Slices: counts}, ""
}

func caloriesHistogram(f *frame.Frame, width int) (*Histogram, string) {
	var values []int
	for _, row := range f.Rows {
		if n, ok := row[caloriesColumn].(int); ok {
			values = append(values, n)
		}
	}
	if len(values) == 0 {
		return nil, noCalories
	}
	return &Histogram{
		Title:  "Calories Distribution",
		XLabel: "Calories",
		Bins:   HistogramBins(values, width),
	}, ""
}

// HistogramBins groups values into contiguous bins of the given width, from
// the bin holding the smallest value to the bin holding the largest.
func HistogramBins(values []int, width int) []Bin {
	if len(values) == 0 {
		return nil
	}
	if width <= 0 {
		width = DefaultHistogramBinWidth
	}

	binStart := func(v int) int {
		return int(math.Floor(float64(v)/float64(width))) * width
	}

	counts := make(map[int]int)
	lo, hi := binStart(values[0]), binStart(values[0])
	for _, v := range values {
		start := binStart(v)
		counts[start]++
		lo = min(lo, start)
		hi = max(hi, start)
	}

	bins := make([]Bin, 0, (hi-lo)/width+1)
	for start := lo; start <= hi; start += width {
		bins = append(bins, Bin{Start: start, End: start + width, Count: counts[start]})
	}
	return bins
}

func allergenBars(f *frame.Frame) (*BarChart, string) {
	if !f.HasColumn("allergens") {
		return nil, noAllergenColumn
	}
	var tags []any
	for _, row := range f.Rows {
		if row["allergens"] == nil {
			continue
		}
		for _, tag := range NormalizeAllergens(row["allergens"]) {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil, noAllergenData
	}
	return &BarChart{
		Title:  "Common Allergens in Menu",
		XLabel: "Allergen",
		YLabel: "Number of Items",
		Bars:   frame.CountValues(tags),
	}, ""
}

func itemDetail(f *frame.Frame, selected string) ([]string, string, *Detail, string) {
	if !f.HasColumn("name") {
		return nil, "", nil, noItems
	}
	var names []string
	for _, n := range f.Unique("name") {
		names = append(names, frame.Key(n))
	}
	if len(names) == 0 {
		return nil, "", nil, noItems
	}

	found := false
	for _, n := range names {
		if n == selected {
			found = true
			break
		}
	}
	if !found {
		selected = names[0]
	}

	for _, row := range f.Rows {
		if row["name"] != nil && frame.Key(row["name"]) == selected {
			return names, selected, detailFor(row), ""
		}
	}
	return names, selected, nil, ""
}

func detailFor(row frame.Row) *Detail {
	d := &Detail{
		Name:        frame.Key(row["name"]),
		Category:    textOr(row["category"], notAvailable),
		Price:       textOr(row["price"], notAvailable),
		Calories:    textOr(row["calories"], notAvailable),
		Allergens:   NormalizeAllergens(row["allergens"]),
		Description: textOr(row["description"], noDescription),
		Dietary:     []string{},
	}
	if jsonutil.Truthy(row["is_vegetarian"]) {
		d.Dietary = append(d.Dietary, "Vegetarian")
	}
	if jsonutil.Truthy(row["is_gluten_free"]) {
		d.Dietary = append(d.Dietary, "Gluten-Free")
	}
	return d
}

func textOr(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	if s := frame.Key(v); strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}
