// Package markdown configures the goldmark engine used to parse and render
// posts. Besides GFM it understands math, footnotes and a leading metadata
// block, each parsed into its own node kind so callers can rewrite them.
package markdown

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Engine parses markdown into a goldmark tree and renders trees back to HTML
// with one shared configuration.
type Engine struct {
	md goldmark.Markdown
}

type options struct {
	siteURL string
}

type Option func(*options)

// WithSiteURL rewrites relative link and image destinations against siteURL.
func WithSiteURL(siteURL string) Option {
	return func(o *options) {
		o.siteURL = strings.TrimSuffix(siteURL, "/")
	}
}

func New(opts ...Option) *Engine {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	parserOptions := []parser.Option{
		parser.WithAutoHeadingID(),
	}
	if o.siteURL != "" {
		parserOptions = append(parserOptions, parser.WithASTTransformers(
			util.Prioritized(&relativeLinkTransformer{domain: o.siteURL}, 100),
		))
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			MathExtension,
			FootnoteExtension,
			FrontmatterExtension,
		),
		goldmark.WithParserOptions(parserOptions...),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			html.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(&rawMarkupRenderer{}, 500),
			),
		),
	)

	return &Engine{md: md}
}

// Parse builds the document tree for source. goldmark parsing never fails;
// malformed constructs degrade to text.
func (e *Engine) Parse(source []byte) ast.Node {
	return e.md.Parser().Parse(text.NewReader(source))
}

// Render writes the HTML for node, which may be any subtree of a document
// parsed from source.
func (e *Engine) Render(w io.Writer, source []byte, node ast.Node) error {
	return e.md.Renderer().Render(w, source, node)
}

// RenderString renders node and returns the HTML as a string.
func (e *Engine) RenderString(source []byte, node ast.Node) (string, error) {
	var buf bytes.Buffer
	if err := e.Render(&buf, source, node); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

type rawMarkupRenderer struct{}

func (r *rawMarkupRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindRawMarkup, r.renderRawMarkup)
	reg.Register(KindRawMarkupBlock, r.renderRawMarkupBlock)
}

func (r *rawMarkupRenderer) renderRawMarkup(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.Write(node.(*RawMarkup).Markup)
	}
	return ast.WalkSkipChildren, nil
}

func (r *rawMarkupRenderer) renderRawMarkupBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		markup := node.(*RawMarkupBlock).Markup
		_, _ = w.Write(markup)
		if len(markup) > 0 && markup[len(markup)-1] != '\n' {
			_ = w.WriteByte('\n')
		}
	}
	return ast.WalkSkipChildren, nil
}

type relativeLinkTransformer struct {
	domain string
}

func (t *relativeLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Image:
			if isRelativeLink(string(v.Destination)) {
				v.Destination = []byte(t.domain + "/images/" + path.Base(string(v.Destination)))
			}
		case *ast.Link:
			dest := string(v.Destination)
			if isRelativeLink(dest) && strings.HasSuffix(dest, ".md") {
				v.Destination = []byte(t.domain + "/posts/" + strings.TrimSuffix(path.Base(dest), ".md"))
			}
		}

		return ast.WalkContinue, nil
	})
}

func isRelativeLink(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return false
	}

	if strings.HasPrefix(dest, "/") {
		return !strings.HasPrefix(dest, "//")
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	return !strings.Contains(dest, ":")
}
