package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	xhtml "golang.org/x/net/html"
)

var defaultMarkdown = newMarkdown()

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
	)
}

// RenderMarkdown converts Markdown text to HTML. Empty input renders as "".
func RenderMarkdown(text string) string {
	return renderMarkdownWith(defaultMarkdown, text)
}

func renderMarkdownWith(md goldmark.Markdown, text string) string {
	if text == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return xhtml.EscapeString(text)
	}
	return buf.String()
}

// blockElements end a line when converting markup to plain text.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "table": true, "ul": true, "ol": true, "hr": true,
}

// PlainText strips markup down to its text, one block element per line.
// List items are prefixed with "• ".
func PlainText(markup string) string {
	if markup == "" {
		return ""
	}
	doc, err := xhtml.Parse(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	var b strings.Builder
	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		switch n.Type {
		case xhtml.TextNode:
			if strings.TrimSpace(n.Data) == "" && strings.Contains(n.Data, "\n") && !insidePre(n) {
				return
			}
			b.WriteString(n.Data)
			return
		case xhtml.ElementNode:
			if n.Data == "li" {
				b.WriteString("• ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == xhtml.ElementNode && blockElements[n.Data] {
			if s := b.String(); s != "" && !strings.HasSuffix(s, "\n") {
				b.WriteString("\n")
			}
		}
	}
	walk(doc)
	return strings.TrimSpace(collapseBlankLines(b.String()))
}

func insidePre(n *xhtml.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == xhtml.ElementNode && p.Data == "pre" {
			return true
		}
	}
	return false
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	blank := false
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
