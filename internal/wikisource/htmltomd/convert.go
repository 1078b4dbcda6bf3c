// Package htmltomd converts page storage HTML into Markdown. The Chunker
// consumes the raw HTML directly (§4.1); page ingestion calls this
// conversion but does not store its output, only logging a conversion
// error.
package htmltomd

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Convert renders storage-format HTML as Markdown: headings, lists,
// tables and fenced code, mirroring the structural elements the Chunker
// recognizes.
func Convert(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var b strings.Builder
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	body.Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			renderNode(&b, n)
		}
	})
	return strings.TrimSpace(b.String()), nil
}

func renderNode(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			b.WriteString(t)
			b.WriteString(" ")
		}
		return
	}
	if n.Type != html.ElementNode {
		renderChildren(b, n)
		return
	}

	sel := goquery.NewDocumentFromNode(n).Selection
	switch strings.ToLower(n.Data) {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		b.WriteString("\n" + strings.Repeat("#", level) + " " + strings.TrimSpace(sel.Text()) + "\n\n")
	case "p":
		b.WriteString(strings.TrimSpace(sel.Text()) + "\n\n")
	case "pre":
		b.WriteString("```\n" + strings.TrimRight(sel.Text(), "\n") + "\n```\n\n")
	case "ul":
		sel.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			b.WriteString("- " + strings.TrimSpace(li.Text()) + "\n")
		})
		b.WriteString("\n")
	case "ol":
		i := 1
		sel.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			b.WriteString(fmt.Sprintf("%d. %s\n", i, strings.TrimSpace(li.Text())))
			i++
		})
		b.WriteString("\n")
	case "table":
		renderTable(b, sel)
	case "strong", "b":
		b.WriteString("**" + strings.TrimSpace(sel.Text()) + "** ")
	case "em", "i":
		b.WriteString("_" + strings.TrimSpace(sel.Text()) + "_ ")
	case "br":
		b.WriteString("\n")
	default:
		renderChildren(b, n)
	}
}

func renderChildren(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(b, c)
	}
}

func renderTable(b *strings.Builder, sel *goquery.Selection) {
	rows := sel.Find("tr")
	first := true
	rows.Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		if first {
			b.WriteString("|" + strings.Repeat(" --- |", len(cells)) + "\n")
			first = false
		}
	})
	b.WriteString("\n")
}
