// Package models contains domain types for menu-etl.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ekaya-inc/menu-etl/pkg/jsonutil"
)

// MenuTable is the remote table holding one row per menu item id.
const MenuTable = "chickfila_menu"

// MenuItem is the single record type flowing through collector output,
// structurer output, the remote table and the dashboard.
//
// Price and Calories are display strings, not numbers. Allergens is kept as
// raw JSON because no canonical encoding is enforced: it may be a list, a
// JSON-encoded string or a comma-separated string.
type MenuItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Price        string          `json:"price"`
	Calories     string          `json:"calories"`
	Allergens    json.RawMessage `json:"allergens,omitempty"`
	IsVegetarian bool            `json:"is_vegetarian"`
	IsGlutenFree bool            `json:"is_gluten_free"`
	SourceURL    string          `json:"source_url,omitempty"`
	ExtractedAt  *Timestamp      `json:"extracted_at,omitempty"`
	UpdatedAt    *Timestamp      `json:"updated_at,omitempty"`
}

// DisplayName returns the item name, or "unknown" when the model left it blank.
func (m MenuItem) DisplayName() string {
	if strings.TrimSpace(m.Name) == "" {
		return "unknown"
	}
	return m.Name
}

// AllergensValue returns the allergens as a value suitable for a JSON column.
// Returns nil when the field is absent or JSON null.
func (m MenuItem) AllergensValue() json.RawMessage {
	if len(m.Allergens) == 0 || string(m.Allergens) == "null" {
		return nil
	}
	return m.Allergens
}

// ItemFromFields coerces a loosely-typed record. Models routinely return
// numbers for calories and strings for booleans. Timestamps are left unset.
func ItemFromFields(fields map[string]json.RawMessage) MenuItem {
	item := MenuItem{
		ID:           jsonutil.FlexibleStringValue(fields["id"]),
		Name:         jsonutil.FlexibleStringValue(fields["name"]),
		Category:     jsonutil.FlexibleStringValue(fields["category"]),
		Description:  jsonutil.FlexibleStringValue(fields["description"]),
		Price:        jsonutil.FlexibleStringValue(fields["price"]),
		Calories:     jsonutil.FlexibleStringValue(fields["calories"]),
		IsVegetarian: jsonutil.FlexibleBoolValue(fields["is_vegetarian"]),
		IsGlutenFree: jsonutil.FlexibleBoolValue(fields["is_gluten_free"]),
		SourceURL:    jsonutil.FlexibleStringValue(fields["source_url"]),
	}
	if allergens, ok := fields["allergens"]; ok && string(allergens) != "null" {
		item.Allergens = allergens
	}
	return item
}

// DecodeRecord decodes one element of a structured menu file. Fields are
// coerced as in ItemFromFields and extracted_at is parsed when present. On
// error the returned item still carries whatever id and name could be read.
func DecodeRecord(raw json.RawMessage) (MenuItem, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return MenuItem{}, errors.New("record is not a JSON object")
	}

	item := ItemFromFields(fields)
	if value, ok := fields["extracted_at"]; ok && string(value) != "null" {
		var ts Timestamp
		if err := ts.UnmarshalJSON(value); err != nil {
			return item, fmt.Errorf("extracted_at: %w", err)
		}
		item.ExtractedAt = &ts
	}
	return item, nil
}

// timestampLayouts are accepted on input. The zone-less forms match what
// Python's datetime.isoformat() writes for naive datetimes.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp is a point in time that always travels as an RFC 3339 string.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, normalized to UTC.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t.UTC()}
}

// ParseTimestamp parses any of the accepted layouts. Zone-less values are
// read as local time, the zone naive datetimes were written in.
func ParseTimestamp(s string) (*Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", s)
}

// String returns the transport form of the timestamp.
func (t Timestamp) String() string {
	return t.Time.UTC().Format(time.RFC3339Nano)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}
