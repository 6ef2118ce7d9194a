// Package dashboard builds the menu dashboard from the rows of the menu table.
package dashboard

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/ekaya-inc/menu-etl/pkg/frame"
)

var digitRun = regexp.MustCompile(`\d+`)

// ExtractCalories returns the first maximal run of digits in the display value
// as an integer. "5 pieces, 230 Cal" yields 5: the first run wins even when a
// later one is the calorie count. Returns nil when there are no digits or the
// run does not fit an int.
func ExtractCalories(v any) *int {
	if v == nil {
		return nil
	}
	match := digitRun.FindString(frame.Key(v))
	if match == "" {
		return nil
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &n
}

// NormalizeAllergens interprets an allergens value in any of its stored shapes:
// a list is used as-is, a string that looks like a JSON array is decoded
// (ignored if it does not decode), any other string is split on commas with
// blanks dropped. Always returns a non-nil slice.
func NormalizeAllergens(v any) []string {
	tags := []string{}
	switch val := v.(type) {
	case nil:
		return tags
	case []string:
		return append(tags, val...)
	case []any:
		return appendElements(tags, val)
	}

	s := strings.TrimSpace(frame.Key(v))
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var decoded []any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return tags
		}
		return appendElements(tags, decoded)
	}

	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

func appendElements(tags []string, values []any) []string {
	for _, e := range values {
		if e == nil {
			continue
		}
		tags = append(tags, frame.Key(e))
	}
	return tags
}
