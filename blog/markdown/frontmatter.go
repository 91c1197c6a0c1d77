package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var frontmatterDelimiters = []string{"---", "+++"}

func frontmatterDelimiter(line []byte) (string, bool) {
	trimmed := util.TrimRightSpace(line)
	for _, d := range frontmatterDelimiters {
		if bytes.Equal(trimmed, []byte(d)) {
			return d, true
		}
	}
	return "", false
}

type frontmatterParser struct{}

// NewFrontmatterParser parses a metadata block that starts on the first line
// of the document. It has to run before the thematic break and setext heading
// parsers, which would otherwise claim the "---" lines.
func NewFrontmatterParser() parser.BlockParser {
	return &frontmatterParser{}
}

func (b *frontmatterParser) Trigger() []byte {
	return []byte{'-', '+'}
}

func (b *frontmatterParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	if parent.Kind() != ast.KindDocument || parent.ChildCount() != 0 {
		return nil, parser.NoChildren
	}
	line, segment := reader.PeekLine()
	if segment.Start != 0 {
		return nil, parser.NoChildren
	}
	delim, ok := frontmatterDelimiter(line)
	if !ok {
		return nil, parser.NoChildren
	}
	return NewFrontmatter(delim), parser.NoChildren
}

func (b *frontmatterParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	n := node.(*Frontmatter)

	newline := 1
	if len(line) == 0 || line[len(line)-1] != '\n' {
		newline = 0
	}
	if delim, ok := frontmatterDelimiter(line); ok && delim == n.Delimiter {
		reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
		return parser.Close
	}

	n.Lines().Append(segment)
	reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
	return parser.Continue | parser.NoChildren
}

func (b *frontmatterParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *frontmatterParser) CanInterruptParagraph() bool {
	return false
}

func (b *frontmatterParser) CanAcceptIndentedLine() bool {
	return true
}

// frontmatterHTMLRenderer keeps metadata out of the rendered output.
type frontmatterHTMLRenderer struct{}

func (r *frontmatterHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindFrontmatter, func(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
		return ast.WalkSkipChildren, nil
	})
}

type frontmatterExtension struct{}

// FrontmatterExtension enables a leading "---" YAML or "+++" TOML metadata block.
var FrontmatterExtension goldmark.Extender = &frontmatterExtension{}

func (e *frontmatterExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(NewFrontmatterParser(), 10)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(&frontmatterHTMLRenderer{}, 500)),
	)
}
