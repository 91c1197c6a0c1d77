package markdown

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// scanFootnoteLabel matches "[^label]" at the start of b and returns the
// normalized label and the offset just past the closing bracket.
func scanFootnoteLabel(b []byte) (string, int, bool) {
	if len(b) < 4 || b[0] != '[' || b[1] != '^' {
		return "", 0, false
	}
	end := bytes.IndexByte(b[2:], ']')
	if end < 0 {
		return "", 0, false
	}
	raw := b[2 : 2+end]
	if util.IsBlank(raw) || bytes.IndexByte(raw, '[') >= 0 {
		return "", 0, false
	}
	return util.ToLinkReference(raw), 2 + end + 1, true
}

type footnoteDefinitionParser struct{}

// NewFootnoteDefinitionParser parses "[^id]: body" blocks. Continuation lines
// indented by four spaces belong to the body.
func NewFootnoteDefinitionParser() parser.BlockParser {
	return &footnoteDefinitionParser{}
}

func (b *footnoteDefinitionParser) Trigger() []byte {
	return []byte{'['}
}

func (b *footnoteDefinitionParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 {
		return nil, parser.NoChildren
	}
	label, next, ok := scanFootnoteLabel(line[pos:])
	if !ok {
		return nil, parser.NoChildren
	}
	next += pos
	if next >= len(line) || line[next] != ':' {
		return nil, parser.NoChildren
	}

	node := NewFootnoteDefinition(label)
	padding := segment.Padding
	pos = next + 1 - padding
	if pos >= len(line) {
		reader.Advance(pos)
		return node, parser.NoChildren
	}
	reader.AdvanceAndSetPadding(pos, padding)
	return node, parser.HasChildren
}

func (b *footnoteDefinitionParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, _ := reader.PeekLine()
	if util.IsBlank(line) {
		return parser.Continue | parser.HasChildren
	}
	childpos, padding := util.IndentPosition(line, reader.LineOffset(), 4)
	if childpos < 0 {
		return parser.Close
	}
	reader.AdvanceAndSetPadding(childpos, padding)
	return parser.Continue | parser.HasChildren
}

func (b *footnoteDefinitionParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *footnoteDefinitionParser) CanInterruptParagraph() bool {
	return false
}

func (b *footnoteDefinitionParser) CanAcceptIndentedLine() bool {
	return false
}

type footnoteReferenceParser struct{}

// NewFootnoteReferenceParser parses "[^id]" markers. It must run before the
// link parser, which also triggers on '['.
func NewFootnoteReferenceParser() parser.InlineParser {
	return &footnoteReferenceParser{}
}

func (s *footnoteReferenceParser) Trigger() []byte {
	return []byte{'['}
}

func (s *footnoteReferenceParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	label, next, ok := scanFootnoteLabel(line)
	if !ok {
		return nil
	}
	block.Advance(next)
	return NewFootnoteReference(label)
}

// footnoteHTMLRenderer renders unresolved footnote nodes as plain text.
type footnoteHTMLRenderer struct{}

func (r *footnoteHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindFootnoteReference, r.renderReference)
	reg.Register(KindFootnoteDefinition, r.renderDefinition)
}

func (r *footnoteHTMLRenderer) renderReference(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*FootnoteReference)
		_, _ = w.WriteString(html.EscapeString("[^" + n.Identifier + "]"))
	}
	return ast.WalkContinue, nil
}

func (r *footnoteHTMLRenderer) renderDefinition(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*FootnoteDefinition)
	if entering {
		_, _ = w.WriteString(`<div class="footnote" data-footnote="` + html.EscapeString(n.Identifier) + "\">\n")
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}

type footnoteExtension struct{}

// FootnoteExtension enables "[^id]" references and "[^id]: ..." definitions. Unlike
// goldmark's own footnote extension, nodes stay where they appear in the
// document and no numbering is applied at parse time.
var FootnoteExtension goldmark.Extender = &footnoteExtension{}

func (e *footnoteExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(NewFootnoteDefinitionParser(), 999)),
		parser.WithInlineParsers(util.Prioritized(NewFootnoteReferenceParser(), 101)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(&footnoteHTMLRenderer{}, 500)),
	)
}
