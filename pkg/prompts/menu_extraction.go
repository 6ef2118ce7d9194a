package prompts

import (
	"strings"
)

// DefaultMaxInputChars bounds how much page text is sent to the model.
// Longer pages are truncated silently.
const DefaultMaxInputChars = 4000

// menuExtractionExample shows the model the exact record shape to return.
const menuExtractionExample = `[
    {
        "id": "waffle-fries",
        "name": "Waffle Potato Fries",
        "category": "sides",
        "description": "Freshly cooked waffle-cut fries",
        "price": "$2.50",
        "calories": "360",
        "allergens": ["wheat", "dairy"],
        "is_vegetarian": false,
        "is_gluten_free": false
    }
]`

// BuildMenuExtractionPrompt creates the prompt asking the model to turn page
// text into a JSON array of menu items. Only the first maxChars characters of
// text are included; maxChars <= 0 uses DefaultMaxInputChars.
func BuildMenuExtractionPrompt(text string, maxChars int) string {
	var prompt strings.Builder

	prompt.WriteString("Extract Chick-fil-A menu items from this text and return as JSON array.\n\n")
	prompt.WriteString("Text: ")
	prompt.WriteString(TruncateRunes(text, maxChars))
	prompt.WriteString("\n\n")

	prompt.WriteString("Return JSON format like this:\n")
	prompt.WriteString(menuExtractionExample)
	prompt.WriteString("\n\n")

	prompt.WriteString("Extract all menu items you find. If information is missing, make reasonable estimates.\n")
	prompt.WriteString("Return ONLY valid JSON, no other text.\n")

	return prompt.String()
}

// TruncateRunes returns at most maxChars characters of s, counted in runes so
// multi-byte text is never split mid-character.
func TruncateRunes(s string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}
	if len(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
