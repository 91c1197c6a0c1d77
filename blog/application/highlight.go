package application

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const defaultHighlightStyle = "github"

var ErrUnsupportedLanguage = errors.New("language highlight not implemented")

// Highlighter turns source code into highlighted HTML. Unsupported languages
// must return an error rather than unhighlighted output.
type Highlighter interface {
	Highlight(source string, language string) (string, error)
}

// ChromaHighlighter highlights code with chroma using CSS classes, so the
// matching stylesheet from WriteCSS has to be served alongside posts.
type ChromaHighlighter struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

func NewChromaHighlighter(styleName string) *ChromaHighlighter {
	if styleName == "" {
		styleName = defaultHighlightStyle
	}
	return &ChromaHighlighter{
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.TabWidth(4),
		),
		style: styles.Get(styleName),
	}
}

func (h *ChromaHighlighter) Highlight(source string, language string) (string, error) {
	lexer := lexers.Get(strings.ToLower(language))
	if lexer == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return "", fmt.Errorf("failed to tokenise %s source: %w", language, err)
	}

	var sb strings.Builder
	if err := h.formatter.Format(&sb, h.style, iterator); err != nil {
		return "", fmt.Errorf("failed to format %s source: %w", language, err)
	}
	return sb.String(), nil
}

// WriteCSS writes the stylesheet for the configured style.
func (h *ChromaHighlighter) WriteCSS(w io.Writer) error {
	return h.formatter.WriteCSS(w, h.style)
}
