package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const ellipsis = "…"

// PlainText extracts readable text from an HTML fragment. Scripts, styles and
// images are dropped; whitespace runs collapse to single spaces.
func PlainText(html string) (string, error) {
	if !strings.Contains(html, "<") {
		return collapseSpaces(html), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse content: %w", err)
	}
	doc.Find("script, style, noscript, iframe, img, svg").Remove()

	// Block boundaries would otherwise glue adjacent words together.
	doc.Find("p, div, br, li, h1, h2, h3, h4, h5, h6, tr, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	return collapseSpaces(doc.Text()), nil
}

// Truncate shortens s to at most limit runes, marking the cut with an
// ellipsis. A non-positive limit disables truncation.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit <= 1 {
		return string(runes[:limit])
	}
	return strings.TrimSpace(string(runes[:limit-1])) + ellipsis
}

// PromptText prepares entry content for a prompt. Content that fails to
// parse is passed through with whitespace collapsed.
func PromptText(html string, limit int) string {
	text, err := PlainText(html)
	if err != nil {
		text = collapseSpaces(html)
	}
	return Truncate(text, limit)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
