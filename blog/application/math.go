package application

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
)

var (
	ErrEmptyExpression = errors.New("empty math expression")

	envRegex = regexp.MustCompile(`\\(begin|end)\{([^}]*)\}`)
)

// MathRenderer typesets a TeX expression into HTML.
type MathRenderer interface {
	RenderMath(expression string, inline bool) (string, error)
}

// KaTeXMarkupRenderer emits markup for KaTeX auto-render in the browser.
// Expressions are checked for balanced braces and environments first so that
// broken math fails the render instead of reaching readers.
type KaTeXMarkupRenderer struct{}

func NewKaTeXMarkupRenderer() *KaTeXMarkupRenderer {
	return &KaTeXMarkupRenderer{}
}

func (r *KaTeXMarkupRenderer) RenderMath(expression string, inline bool) (string, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return "", ErrEmptyExpression
	}
	if err := checkBraces(expression); err != nil {
		return "", err
	}
	if err := checkEnvironments(expression); err != nil {
		return "", err
	}

	escaped := html.EscapeString(expression)
	if inline {
		return `<span class="math math-inline">\(` + escaped + `\)</span>`, nil
	}
	return `<span class="math math-display">\[` + escaped + `\]</span>`, nil
}

func checkBraces(expression string) error {
	depth := 0
	for i := 0; i < len(expression); i++ {
		switch expression[i] {
		case '\\':
			// skip the escaped character, e.g. \{ or \\
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return fmt.Errorf("unexpected '}' at offset %d", i)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%d unclosed '{'", depth)
	}
	return nil
}

func checkEnvironments(expression string) error {
	var open []string
	for _, m := range envRegex.FindAllStringSubmatch(expression, -1) {
		name := m[2]
		if m[1] == "begin" {
			open = append(open, name)
			continue
		}
		if len(open) == 0 || open[len(open)-1] != name {
			return fmt.Errorf(`\end{%s} without matching \begin`, name)
		}
		open = open[:len(open)-1]
	}
	if len(open) > 0 {
		return fmt.Errorf(`\begin{%s} is never closed`, open[len(open)-1])
	}
	return nil
}
