// Package markdown renders the aggregated content of a resource with Goldmark,
// GFM extensions and Chroma syntax highlighting.
package markdown

import (
	"bytes"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// DefaultStyle is the Chroma style used when none or an unknown one is given.
const DefaultStyle = "monokai"

// Heading is one entry of a document outline
type Heading struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// Document is a rendered resource
type Document struct {
	HTML     string    `json:"html"`
	Title    string    `json:"title"`
	Headings []Heading `json:"headings"`
}

// Renderer converts markdown to HTML
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a renderer highlighting fenced code with the named Chroma style
func NewRenderer(style string) *Renderer {
	if styles.Registry[style] == nil {
		style = DefaultStyle
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)

	return &Renderer{md: md}
}

// Render parses source once, collects its outline and renders it
func (r *Renderer) Render(source []byte) (*Document, error) {
	doc := r.md.Parser().Parse(text.NewReader(source))

	headings := outline(doc, source)

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, err
	}

	result := &Document{
		HTML:     buf.String(),
		Headings: headings,
	}
	if len(headings) > 0 {
		result.Title = headings[0].Title
	}
	return result, nil
}

// outline collects headings with the ids the parser assigned them
func outline(doc ast.Node, source []byte) []Heading {
	var headings []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		heading, ok := n.(*ast.Heading)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		h := Heading{Level: heading.Level, Title: plainText(heading, source)}
		if id, ok := heading.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				h.Anchor = string(b)
			}
		}
		headings = append(headings, h)
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// plainText concatenates the text below n, dropping inline markup
func plainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(source))
		case *ast.String:
			buf.Write(c.Value)
		default:
			buf.WriteString(plainText(child, source))
		}
	}
	return buf.String()
}
