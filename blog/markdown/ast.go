package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	KindMathBlock          = ast.NewNodeKind("MathBlock")
	KindMathInline         = ast.NewNodeKind("MathInline")
	KindFootnoteReference  = ast.NewNodeKind("FootnoteReference")
	KindFootnoteDefinition = ast.NewNodeKind("FootnoteDefinition")
	KindFrontmatter        = ast.NewNodeKind("Frontmatter")
	KindRawMarkup          = ast.NewNodeKind("RawMarkup")
	KindRawMarkupBlock     = ast.NewNodeKind("RawMarkupBlock")
)

// MathBlock is a display expression fenced by "$$" lines.
type MathBlock struct {
	ast.BaseBlock
	indent int
}

func NewMathBlock(indent int) *MathBlock {
	return &MathBlock{indent: indent}
}

func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

func (n *MathBlock) IsRaw() bool { return true }

func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// Expression returns the text between the fences without the final newline.
func (n *MathBlock) Expression(source []byte) string {
	return strings.TrimRight(linesValue(n.Lines(), source), "\n")
}

// MathInline is an expression delimited by "$" or "$$" inside a paragraph.
type MathInline struct {
	ast.BaseInline
	Segment text.Segment
}

func NewMathInline(segment text.Segment) *MathInline {
	return &MathInline{Segment: segment}
}

func (n *MathInline) Kind() ast.NodeKind { return KindMathInline }

func (n *MathInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Expression": n.Expression(source),
	}, nil)
}

func (n *MathInline) Expression(source []byte) string {
	return string(n.Segment.Value(source))
}

// FootnoteReference is a "[^id]" marker in running text.
type FootnoteReference struct {
	ast.BaseInline
	Identifier string
}

func NewFootnoteReference(identifier string) *FootnoteReference {
	return &FootnoteReference{Identifier: identifier}
}

func (n *FootnoteReference) Kind() ast.NodeKind { return KindFootnoteReference }

func (n *FootnoteReference) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Identifier": n.Identifier}, nil)
}

// FootnoteDefinition is a "[^id]: ..." block. Its body is held as children.
type FootnoteDefinition struct {
	ast.BaseBlock
	Identifier string
}

func NewFootnoteDefinition(identifier string) *FootnoteDefinition {
	return &FootnoteDefinition{Identifier: identifier}
}

func (n *FootnoteDefinition) Kind() ast.NodeKind { return KindFootnoteDefinition }

func (n *FootnoteDefinition) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Identifier": n.Identifier}, nil)
}

// Frontmatter is the metadata block at the very top of a document, fenced by
// "---" (YAML) or "+++" (TOML).
type Frontmatter struct {
	ast.BaseBlock
	Delimiter string
}

func NewFrontmatter(delimiter string) *Frontmatter {
	return &Frontmatter{Delimiter: delimiter}
}

func (n *Frontmatter) Kind() ast.NodeKind { return KindFrontmatter }

func (n *Frontmatter) IsRaw() bool { return true }

func (n *Frontmatter) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Delimiter": n.Delimiter}, nil)
}

// Raw returns the block including both delimiters.
func (n *Frontmatter) Raw(source []byte) []byte {
	var b strings.Builder
	b.WriteString(n.Delimiter + "\n")
	body := linesValue(n.Lines(), source)
	b.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(n.Delimiter + "\n")
	return []byte(b.String())
}

// RawMarkup is inline markup written to the output verbatim.
type RawMarkup struct {
	ast.BaseInline
	Markup []byte
}

func NewRawMarkup(markup string) *RawMarkup {
	return &RawMarkup{Markup: []byte(markup)}
}

func (n *RawMarkup) Kind() ast.NodeKind { return KindRawMarkup }

func (n *RawMarkup) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Markup": string(n.Markup)}, nil)
}

// RawMarkupBlock is block-level markup written to the output verbatim.
type RawMarkupBlock struct {
	ast.BaseBlock
	Markup []byte
}

func NewRawMarkupBlock(markup string) *RawMarkupBlock {
	return &RawMarkupBlock{Markup: []byte(markup)}
}

func (n *RawMarkupBlock) Kind() ast.NodeKind { return KindRawMarkupBlock }

func (n *RawMarkupBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Markup": string(n.Markup)}, nil)
}

func linesValue(lines *text.Segments, source []byte) string {
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(source))
	}
	return b.String()
}
