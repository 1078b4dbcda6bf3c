// Package chunker converts a wiki page's HTML-like markup into an ordered
// sequence of typed chunks, grounded on the DOM-walking shape of
// original_source/knowledge_base/chunking/html_chunker.py.
package chunker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/types"
)

// Chunker splits page markup into ChunkData records per spec §4.1.
type Chunker struct {
	maxSize int
	minSize int
	overlap int
}

// New builds a Chunker from the configured size bounds.
func New(cfg *config.ChunkerConfig) *Chunker {
	return &Chunker{
		maxSize: cfg.MaxChunkSize,
		minSize: cfg.MinChunkSize,
		overlap: cfg.Overlap,
	}
}

// Chunk converts rawMarkup into an ordered sequence of chunks. Empty or
// whitespace-only input returns an empty, non-error sequence.
func (c *Chunker) Chunk(rawMarkup, pageID, pageTitle string) ([]*types.ChunkData, error) {
	if strings.TrimSpace(rawMarkup) == "" {
		return nil, nil
	}

	cleaned := preCleanMacros(rawMarkup)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cleaned))
	if err != nil {
		// Unparseable fragments are best-effort serialized as text (§4.1 Failures).
		doc, err = goquery.NewDocumentFromReader(strings.NewReader("<div>" + cleaned + "</div>"))
		if err != nil {
			return nil, fmt.Errorf("parse markup: %w", err)
		}
	}

	w := &walker{pageID: pageID, pageTitle: pageTitle, c: c}
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	body.Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			w.walk(n)
		}
	})
	w.flushText()
	return w.chunks, nil
}

type walker struct {
	pageID    string
	pageTitle string
	c         *Chunker

	headingStack []string
	textBuf      strings.Builder
	chunks       []*types.ChunkData
	ordinal      int
}

func (w *walker) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			if w.textBuf.Len() > 0 {
				w.textBuf.WriteByte(' ')
			}
			w.textBuf.WriteString(t)
		}
	case html.ElementNode:
		w.walkElement(n)
	default:
		w.walkChildren(n)
	}
}

func (w *walker) walkChildren(n *html.Node) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		w.walk(child)
	}
}

func (w *walker) walkElement(n *html.Node) {
	sel := goquery.NewDocumentFromNode(n).Selection
	switch strings.ToLower(n.Data) {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		w.flushText()
		level, _ := strconv.Atoi(strings.TrimPrefix(n.Data, "h")[:1])
		w.pushHeading(level, strings.TrimSpace(sel.Text()))
	case "p", "blockquote":
		if text := strings.TrimSpace(sel.Text()); text != "" {
			if w.textBuf.Len() > 0 {
				w.textBuf.WriteString("\n\n")
			}
			w.textBuf.WriteString(text)
		}
	case "br":
		w.textBuf.WriteString("\n")
	case "pre":
		w.flushText()
		w.emitCode(sel)
	case "table":
		w.flushText()
		w.emitTable(sel)
	case "ul", "ol":
		w.flushText()
		w.emitList(sel, n.Data == "ol")
	default:
		w.walkChildren(n)
	}
}

func (w *walker) pushHeading(level int, text string) {
	if level < 1 {
		level = 1
	}
	if level-1 < len(w.headingStack) {
		w.headingStack = w.headingStack[:level-1]
	}
	for len(w.headingStack) < level-1 {
		w.headingStack = append(w.headingStack, "")
	}
	w.headingStack = append(w.headingStack, text)
}

func (w *walker) headers() []string {
	out := make([]string, 0, len(w.headingStack))
	for _, h := range w.headingStack {
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// flushText splits and emits any accumulated paragraph text as text chunks.
func (w *walker) flushText() {
	text := strings.TrimSpace(w.textBuf.String())
	w.textBuf.Reset()
	if text == "" {
		return
	}
	for _, piece := range splitLongText(text, w.c.maxSize, w.c.overlap) {
		piece = strings.TrimSpace(piece)
		if len([]rune(piece)) < w.c.minSize {
			continue // below MIN_CHUNK_SIZE, text chunks are dropped (§4.1)
		}
		w.emit(types.ChunkTypeText, piece)
	}
}

func (w *walker) emitCode(sel *goquery.Selection) {
	lang := ""
	if class, ok := sel.Find("code").First().Attr("class"); ok {
		lang = strings.TrimPrefix(class, "language-")
	}
	content := strings.TrimRight(sel.Text(), "\n")
	fenced := "```" + lang + "\n" + content + "\n```"
	w.emit(types.ChunkTypeCode, fenced)
}

func (w *walker) emitTable(sel *goquery.Selection) {
	header := rowText(sel.Find("thead tr").First())
	bodies := sel.Find("tbody")
	if bodies.Length() == 0 {
		w.emit(types.ChunkTypeTable, tableSection(header, sel.Find("tr")))
		return
	}
	bodies.Each(func(_ int, tbody *goquery.Selection) {
		w.emit(types.ChunkTypeTable, tableSection(header, tbody.Find("tr")))
	})
}

func tableSection(header []string, rows *goquery.Selection) string {
	var b strings.Builder
	if len(header) > 0 {
		b.WriteString(strings.Join(header, " | "))
		b.WriteString("\n")
	}
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := rowText(row)
		if len(cells) == 0 {
			return
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString("\n")
	})
	return strings.TrimSpace(b.String())
}

func rowText(row *goquery.Selection) []string {
	var cells []string
	row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(cell.Text()))
	})
	return cells
}

func (w *walker) emitList(sel *goquery.Selection, ordered bool) {
	var b strings.Builder
	i := 1
	sel.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())
		if text == "" {
			return
		}
		if ordered {
			b.WriteString(fmt.Sprintf("%d. %s\n", i, text))
			i++
		} else {
			b.WriteString("- " + text + "\n")
		}
	})
	if content := strings.TrimSpace(b.String()); content != "" {
		w.emit(types.ChunkTypeList, content)
	}
}

func (w *walker) emit(chunkType types.ChunkType, content string) {
	chunk := &types.ChunkData{
		ChunkID:       fmt.Sprintf("%s_%d", w.pageID, w.ordinal),
		PageID:        w.pageID,
		ChunkIndex:    w.ordinal,
		PageTitle:     w.pageTitle,
		Content:       content,
		ChunkType:     chunkType,
		ParentHeaders: w.headers(),
	}
	chunk.Normalize()
	w.chunks = append(w.chunks, chunk)
	w.ordinal++
}
