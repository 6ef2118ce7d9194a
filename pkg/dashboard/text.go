package dashboard

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderText writes the view as plain-text tables, for terminals and scripts.
func RenderText(w io.Writer, v View) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", v.Title)
	if v.Error != "" {
		fmt.Fprintf(&b, "ERROR: %s\n", v.Error)
	}
	fmt.Fprintf(&b, "%s\n", v.Caption)
	if v.Empty() {
		fmt.Fprintf(&b, "WARNING: %s\n", v.Warning)
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "Filters: category=%s vegetarian_only=%t gluten_free_only=%t\n\n",
		v.Filters.Category, v.Filters.VegetarianOnly, v.Filters.GlutenFreeOnly)

	metrics := newTable("Summary")
	for _, m := range v.Metrics {
		metrics.AppendRow(table.Row{m.Label, m.Value})
	}
	b.WriteString(metrics.Render())
	b.WriteString("\n\n")

	if v.Table != nil && len(v.Table.Columns) > 0 {
		items := newTable("Menu Items")
		header := make(table.Row, len(v.Table.Columns))
		for i, c := range v.Table.Columns {
			header[i] = c
		}
		items.AppendHeader(header)
		for _, r := range v.Table.Rows {
			row := make(table.Row, len(r))
			for i, cell := range r {
				row[i] = cell
			}
			items.AppendRow(row)
		}
		b.WriteString(items.Render())
		b.WriteString("\n\n")
	}

	if v.Pie != nil {
		pie := newTable(v.Pie.Title)
		pie.AppendHeader(table.Row{"Category", "Items"})
		for _, s := range v.Pie.Slices {
			pie.AppendRow(table.Row{s.Value, s.Count})
		}
		b.WriteString(pie.Render())
		b.WriteString("\n\n")
	} else {
		fmt.Fprintf(&b, "%s\n\n", v.PieInfo)
	}

	if v.Histogram != nil {
		hist := newTable(v.Histogram.Title)
		hist.AppendHeader(table.Row{v.Histogram.XLabel, "Items"})
		for _, bin := range v.Histogram.Bins {
			hist.AppendRow(table.Row{fmt.Sprintf("%d-%d", bin.Start, bin.End-1), bin.Count})
		}
		b.WriteString(hist.Render())
		b.WriteString("\n\n")
	} else {
		fmt.Fprintf(&b, "%s\n\n", v.HistogramInfo)
	}

	if v.Allergens != nil {
		bars := newTable(v.Allergens.Title)
		bars.AppendHeader(table.Row{v.Allergens.XLabel, v.Allergens.YLabel})
		for _, bar := range v.Allergens.Bars {
			bars.AppendRow(table.Row{bar.Value, bar.Count})
		}
		b.WriteString(bars.Render())
		b.WriteString("\n\n")
	} else {
		fmt.Fprintf(&b, "%s\n\n", v.AllergenInfo)
	}

	if v.Detail != nil {
		d := v.Detail
		detail := newTable("Item Details: " + d.Name)
		detail.AppendRow(table.Row{"Category", d.Category})
		detail.AppendRow(table.Row{"Price", d.Price})
		detail.AppendRow(table.Row{"Calories", d.Calories})
		if len(d.Allergens) > 0 {
			detail.AppendRow(table.Row{"Allergens", "• " + strings.Join(d.Allergens, "\n• ")})
		}
		detail.AppendRow(table.Row{"Description", d.Description})
		if len(d.Dietary) > 0 {
			detail.AppendRow(table.Row{"Dietary", strings.Join(d.Dietary, "\n")})
		}
		b.WriteString(detail.Render())
		b.WriteString("\n")
	} else if v.DetailInfo != "" {
		fmt.Fprintf(&b, "%s\n", v.DetailInfo)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}
