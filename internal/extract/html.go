// Package extract converts raw HTML into clean, bounded plain text.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"webskim/internal/domain"
)

// Text strips all markup from rawHTML, joining text nodes with single spaces.
// Script, style, noscript and template contents are dropped.
func Text(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", domain.NewDomainError("extract.Text", domain.ErrNormalize, err.Error())
	}
	doc.Find("script, style, noscript, template").Remove()

	var sb strings.Builder
	for _, root := range doc.Selection.Nodes {
		collectText(root, &sb)
	}
	return strings.TrimSpace(sb.String()), nil
}

// TitleOf returns the trimmed contents of the document's <title> element,
// or the empty string when there is none.
func TitleOf(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
