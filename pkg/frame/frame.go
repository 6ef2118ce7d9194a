// Package frame holds query results as rows with a dynamic column set.
//
// The menu table is read with an unconditional select, so the columns a
// reader sees are whatever the store returns. Callers check HasColumn before
// relying on a column; a missing value in a row reads as nil.
package frame

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Row maps column name to value. Values are the decoded JSON/driver types:
// string, bool, float64, int64, []any, map[string]any or nil.
type Row map[string]any

// Frame is an ordered set of columns and the rows read for them.
type Frame struct {
	Columns []string
	Rows    []Row
}

// ValueCount is one entry of ValueCounts.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// New creates a frame. rows may contain keys missing from columns; they are
// ignored by every operation that walks Columns.
func New(columns []string, rows []Row) *Frame {
	if rows == nil {
		rows = []Row{}
	}
	return &Frame{Columns: columns, Rows: rows}
}

// Empty returns a frame with no columns and no rows.
func Empty() *Frame {
	return New([]string{}, nil)
}

// FromJSON decodes a JSON array of objects, keeping object keys in the order
// they appear. Columns are the union of all keys, in first-seen order.
func FromJSON(data []byte) (*Frame, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	f := Empty()
	seen := make(map[string]bool)
	for i, raw := range raws {
		keys, row, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("decode row %d: %w", i, err)
		}
		for _, key := range keys {
			if !seen[key] {
				seen[key] = true
				f.Columns = append(f.Columns, key)
			}
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}

func decodeObject(raw json.RawMessage) ([]string, Row, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	row := make(Row)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		if _, dup := row[key]; !dup {
			keys = append(keys, key)
		}
		row[key] = value
	}
	return keys, row, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// HasColumn reports whether name is one of the frame's columns.
func (f *Frame) HasColumn(name string) bool {
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Column returns the values of one column, nil where a row lacks it.
func (f *Frame) Column(name string) []any {
	values := make([]any, len(f.Rows))
	for i, row := range f.Rows {
		values[i] = row[name]
	}
	return values
}

// Filter returns a frame with the same columns and the rows keep accepts.
func (f *Frame) Filter(keep func(Row) bool) *Frame {
	rows := make([]Row, 0, len(f.Rows))
	for _, row := range f.Rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return New(f.Columns, rows)
}

// Unique returns the distinct non-nil values of col in first-seen order.
func (f *Frame) Unique(col string) []any {
	var values []any
	seen := make(map[string]bool)
	for _, row := range f.Rows {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		key := Key(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, v)
	}
	return values
}

// ValueCounts counts the non-nil values of col. The result is ordered by
// descending count; equal counts keep first-seen order.
func (f *Frame) ValueCounts(col string) []ValueCount {
	return CountValues(f.Column(col))
}

// CountValues counts non-nil values, ordered as ValueCounts.
func CountValues(values []any) []ValueCount {
	var counts []ValueCount
	index := make(map[string]int)
	for _, v := range values {
		if v == nil {
			continue
		}
		key := Key(v)
		if i, ok := index[key]; ok {
			counts[i].Count++
			continue
		}
		index[key] = len(counts)
		counts = append(counts, ValueCount{Value: key, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// SortStableBy returns a frame with rows ordered by col. Rows with equal
// values keep their relative order; nil values sort last.
func (f *Frame) SortStableBy(col string) *Frame {
	rows := make([]Row, len(f.Rows))
	copy(rows, f.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][col], rows[j][col]
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return less(a, b)
	})
	return New(f.Columns, rows)
}

// Select returns a frame restricted to the listed columns that exist, in the
// order given.
func (f *Frame) Select(cols ...string) *Frame {
	var present []string
	for _, c := range cols {
		if f.HasColumn(c) {
			present = append(present, c)
		}
	}
	rows := make([]Row, len(f.Rows))
	for i, row := range f.Rows {
		projected := make(Row, len(present))
		for _, c := range present {
			projected[c] = row[c]
		}
		rows[i] = projected
	}
	if present == nil {
		present = []string{}
	}
	return New(present, rows)
}

// WithColumn returns a frame with an added (or replaced) column computed per row.
// Rows are copied; the receiver is not modified.
func (f *Frame) WithColumn(name string, compute func(Row) any) *Frame {
	columns := f.Columns
	if !f.HasColumn(name) {
		columns = append(append([]string{}, f.Columns...), name)
	}
	rows := make([]Row, len(f.Rows))
	for i, row := range f.Rows {
		next := make(Row, len(row)+1)
		for k, v := range row {
			next[k] = v
		}
		next[name] = compute(row)
		rows[i] = next
	}
	return New(columns, rows)
}

// Key renders a value as the string used for grouping and display.
func Key(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case []any, map[string]any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}

func less(a, b any) bool {
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return x < y
		}
	}
	return Key(a) < Key(b)
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	}
	return 0, false
}

// snapshot is the serialized form of a Frame. Columns travel separately
// because JSON objects do not keep key order once decoded into a map.
type snapshot struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Snapshot serializes the frame for an external cache.
func (f *Frame) Snapshot() ([]byte, error) {
	return json.Marshal(snapshot{Columns: f.Columns, Rows: f.Rows})
}

// FromSnapshot restores a frame written by Snapshot. Numbers come back as
// float64, as they do from any JSON store.
func FromSnapshot(data []byte) (*Frame, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Columns == nil {
		s.Columns = []string{}
	}
	return New(s.Columns, s.Rows), nil
}
