package collector

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// contentSelectors are tried in order; the first match is the content region.
var contentSelectors = []string{"main", "div.main-content", "body"}

// ExtractText parses an HTML document and returns the visible text of its
// main content region, one trimmed text block per line.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	region := contentRegion(doc)
	if region == nil {
		return "", nil
	}
	region.Find("script, style").Remove()

	var lines []string
	for _, n := range region.Nodes {
		collectText(n, &lines)
	}
	return strings.Join(lines, "\n"), nil
}

func contentRegion(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, lines *[]string) {
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			*lines = append(*lines, text)
		}
		return
	case html.CommentNode:
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, lines)
	}
}
