package collect

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

// HTMLText reduces an HTML fragment or page to its visible text.
func HTMLText(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, head").Remove()

	var parts []string
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		// Block-level breaks would otherwise glue words from adjacent elements.
		s.Find("p, br, li, div, h1, h2, h3, h4, h5, h6, tr").Each(func(_ int, el *goquery.Selection) {
			el.AppendHtml(" ")
		})
		parts = append(parts, s.Text())
	})
	if len(parts) == 0 {
		parts = append(parts, doc.Text())
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " "), nil
}

// IsHTML reports whether a document carries HTML markup.
func IsHTML(doc feedback.Document) bool {
	if strings.Contains(strings.ToLower(doc.ContentType), "html") {
		return true
	}
	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// textFromHTML replaces HTML content with its text in place. Documents whose
// markup cannot be parsed keep their raw content.
func textFromHTML(docs []feedback.Document) {
	for i := range docs {
		if !IsHTML(docs[i]) || docs[i].Content == "" {
			continue
		}
		text, err := HTMLText(docs[i].Content)
		if err != nil {
			continue
		}
		docs[i].Content = text
	}
}
