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

var mathFence = []byte("$$")

type mathBlockParser struct{}

// NewMathBlockParser parses display math fenced by "$$" on lines of their own.
func NewMathBlockParser() parser.BlockParser {
	return &mathBlockParser{}
}

func (b *mathBlockParser) Trigger() []byte {
	return []byte{'$'}
}

func (b *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !isMathFence(line[pos:]) {
		return nil, parser.NoChildren
	}
	return NewMathBlock(pos), parser.NoChildren
}

func (b *mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	n := node.(*MathBlock)

	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w < 4 && isMathFence(line[pos:]) {
		newline := 1
		if len(line) == 0 || line[len(line)-1] != '\n' {
			newline = 0
		}
		reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
		return parser.Close
	}

	pos, padding := util.IndentPosition(line, reader.LineOffset(), n.indent)
	if pos < 0 {
		pos = util.FirstNonSpacePosition(line)
		if pos < 0 {
			pos = 0
		}
		padding = 0
	}
	seg := text.NewSegmentPadding(segment.Start+pos, segment.Stop, padding)
	n.Lines().Append(seg)
	reader.AdvanceAndSetPadding(segment.Stop-segment.Start-pos-1, padding)
	return parser.Continue | parser.NoChildren
}

func (b *mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *mathBlockParser) CanInterruptParagraph() bool {
	return true
}

func (b *mathBlockParser) CanAcceptIndentedLine() bool {
	return false
}

func isMathFence(line []byte) bool {
	return bytes.HasPrefix(line, mathFence) && util.IsBlank(line[len(mathFence):])
}

type mathInlineParser struct{}

// NewMathInlineParser parses "$...$" and "$$...$$" spans within a line.
func NewMathInlineParser() parser.InlineParser {
	return &mathInlineParser{}
}

func (s *mathInlineParser) Trigger() []byte {
	return []byte{'$'}
}

func (s *mathInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, segment := block.PeekLine()
	opener := 0
	for ; opener < len(line) && line[opener] == '$'; opener++ {
	}
	if opener > 2 {
		return nil
	}

	for i := opener; i < len(line); {
		if line[i] != '$' {
			i++
			continue
		}
		j := i
		for ; j < len(line) && line[j] == '$'; j++ {
		}
		if j-i == opener {
			if util.IsBlank(line[opener:i]) {
				return nil
			}
			node := NewMathInline(text.NewSegment(segment.Start+opener, segment.Start+i))
			block.Advance(j)
			return node
		}
		i = j
	}
	return nil
}

// mathHTMLRenderer is used only when a math node reaches the renderer without
// being resolved, e.g. when converting a document that skipped rewriting.
type mathHTMLRenderer struct{}

func (r *mathHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMathBlock, r.renderMathBlock)
	reg.Register(KindMathInline, r.renderMathInline)
}

func (r *mathHTMLRenderer) renderMathBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*MathBlock)
		_, _ = w.WriteString(`<pre><code class="language-math math-display">`)
		_, _ = w.WriteString(html.EscapeString(n.Expression(source)))
		_, _ = w.WriteString("</code></pre>\n")
	}
	return ast.WalkSkipChildren, nil
}

func (r *mathHTMLRenderer) renderMathInline(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*MathInline)
		_, _ = w.WriteString(`<code class="language-math math-inline">`)
		_, _ = w.WriteString(html.EscapeString(n.Expression(source)))
		_, _ = w.WriteString("</code>")
	}
	return ast.WalkSkipChildren, nil
}

type mathExtension struct{}

// MathExtension enables "$" inline and "$$" block math syntax.
var MathExtension goldmark.Extender = &mathExtension{}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(NewMathBlockParser(), 701)),
		parser.WithInlineParsers(util.Prioritized(NewMathInlineParser(), 150)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(&mathHTMLRenderer{}, 500)),
	)
}
