package application

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark/ast"

	"github.com/dfryer1193/goblog/blog/domain"
	"github.com/dfryer1193/goblog/blog/markdown"
)

// Rewriter replaces code, math, footnote and metadata nodes of a parsed post
// with resolved markup and renders the result.
type Rewriter struct {
	engine      *markdown.Engine
	highlighter Highlighter
	math        MathRenderer
}

func NewRewriter(engine *markdown.Engine, highlighter Highlighter, math MathRenderer) *Rewriter {
	return &Rewriter{
		engine:      engine,
		highlighter: highlighter,
		math:        math,
	}
}

type footnoteEntry struct {
	number   int
	resolved bool
}

// rewriteState lives for exactly one Rewrite call.
type rewriteState struct {
	source    []byte
	metadata  *domain.PostMetadata
	footnotes map[string]*footnoteEntry

	// linkDepth counts enclosing links; anchors must not nest.
	linkDepth int
}

// Rewrite walks doc in document order, children before parents, and renders
// the rewritten tree. doc is modified in place and must not be reused.
func (r *Rewriter) Rewrite(source []byte, doc ast.Node) (*domain.Post, error) {
	st := &rewriteState{
		source:    source,
		footnotes: make(map[string]*footnoteEntry),
	}

	root, err := r.rewrite(st, doc)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, domain.MarkdownParseError("rewrite returned no root element")
	}
	if st.metadata == nil {
		return nil, domain.ErrNoMetadata
	}

	out, err := r.engine.RenderString(source, root)
	if err != nil {
		log.Error().Err(err).Msg("Failed to render rewritten post")
		return nil, domain.MarkdownParseError(err.Error())
	}

	return &domain.Post{
		HTML:     out,
		Metadata: *st.metadata,
	}, nil
}

// rewrite returns the node that replaces node, or nil if node is removed.
func (r *Rewriter) rewrite(st *rewriteState, node ast.Node) (ast.Node, error) {
	if _, ok := node.(*ast.Link); ok {
		st.linkDepth++
		defer func() { st.linkDepth-- }()
	}

	if node.HasChildren() {
		children := make([]ast.Node, 0, node.ChildCount())
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			children = append(children, c)
		}
		node.RemoveChildren(node)

		for _, child := range children {
			replacement, err := r.rewrite(st, child)
			if err != nil {
				return nil, err
			}
			if replacement != nil {
				node.AppendChild(node, replacement)
			}
		}
	}

	switch n := node.(type) {
	case *ast.FencedCodeBlock:
		return r.rewriteCode(st, n)
	case *markdown.MathBlock:
		markup, err := r.renderMath(n.Expression(st.source), false)
		if err != nil {
			return nil, err
		}
		return markdown.NewRawMarkupBlock(`<div class="math math-display">` + markup + "</div>"), nil
	case *markdown.MathInline:
		markup, err := r.renderMath(n.Expression(st.source), true)
		if err != nil {
			return nil, err
		}
		return markdown.NewRawMarkup(markup), nil
	case *markdown.Frontmatter:
		return nil, r.rewriteFrontmatter(st, n)
	case *markdown.FootnoteReference:
		return r.rewriteFootnoteReference(st, n), nil
	case *markdown.FootnoteDefinition:
		return r.rewriteFootnoteDefinition(st, n)
	default:
		return node, nil
	}
}

func (r *Rewriter) rewriteCode(st *rewriteState, n *ast.FencedCodeBlock) (ast.Node, error) {
	language := string(n.Language(st.source))
	if language == "" {
		return n, nil
	}

	var code strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		code.Write(line.Value(st.source))
	}

	markup, err := r.highlighter.Highlight(code.String(), language)
	if err != nil {
		log.Error().Err(err).Str("language", language).Msg("Failed to highlight code block")
		return nil, domain.SyntaxHighlightError(err.Error())
	}

	return markdown.NewRawMarkupBlock(fmt.Sprintf(
		`<div class="highlight" data-lang="%s">%s</div>`,
		html.EscapeString(language),
		markup,
	)), nil
}

func (r *Rewriter) renderMath(expression string, inline bool) (string, error) {
	markup, err := r.math.RenderMath(expression, inline)
	if err != nil {
		log.Error().Err(err).Str("expression", expression).Bool("inline", inline).Msg("Failed to render math")
		return "", domain.RenderMathError(err.Error())
	}
	return markup, nil
}

func (r *Rewriter) rewriteFrontmatter(st *rewriteState, n *markdown.Frontmatter) error {
	meta, err := DecodeMetadata(n.Raw(st.source))
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse post metadata")
		return domain.MetadataParseError(err.Error())
	}
	// Only the leading block of a document is parsed as metadata, so a
	// second one cannot occur; keep the first if it ever does.
	if st.metadata == nil {
		st.metadata = &meta
	}
	return nil
}

func (r *Rewriter) rewriteFootnoteReference(st *rewriteState, n *markdown.FootnoteReference) ast.Node {
	entry, ok := st.footnotes[n.Identifier]
	if !ok {
		entry = &footnoteEntry{number: len(st.footnotes) + 1}
		st.footnotes[n.Identifier] = entry
	}
	if st.linkDepth > 0 {
		return markdown.NewRawMarkup(fmt.Sprintf(`<sup class="footnote-ref">%d</sup>`, entry.number))
	}
	return markdown.NewRawMarkup(fmt.Sprintf(
		`<sup class="footnote-ref"><a href="#footnote-%d">%d</a></sup>`,
		entry.number, entry.number,
	))
}

// rewriteFootnoteDefinition requires the identifier to have been referenced
// earlier in document order. A definition placed before its first reference
// is therefore reported as unreferenced.
func (r *Rewriter) rewriteFootnoteDefinition(st *rewriteState, n *markdown.FootnoteDefinition) (ast.Node, error) {
	entry, ok := st.footnotes[n.Identifier]
	if !ok {
		return nil, domain.FootnoteDefNotReferencedError(n.Identifier)
	}
	if entry.resolved {
		return nil, domain.MultipleFootnoteDefinitionsError(n.Identifier)
	}
	entry.resolved = true

	var body bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if err := r.engine.Render(&body, st.source, c); err != nil {
			log.Error().Err(err).Str("footnote", n.Identifier).Msg("Failed to render footnote body")
			return nil, domain.MarkdownParseError(err.Error())
		}
	}

	return markdown.NewRawMarkupBlock(fmt.Sprintf(
		`<div class="footnote" id="footnote-%d"><span class="footnote-marker">%d</span><div class="footnote-body">%s</div></div>`,
		entry.number, entry.number, strings.TrimSpace(body.String()),
	)), nil
}
