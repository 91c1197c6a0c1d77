package domain

import (
	"errors"
	"fmt"
)

// LoadErrorKind enumerates the ways loading a post can fail.
type LoadErrorKind int

const (
	KindUnknown LoadErrorKind = iota
	KindInvalidID
	KindNotFound
	KindMarkdownParseFailed
	KindSyntaxHighlightFailed
	KindRenderMathFailed
	KindNoMetadata
	KindMetadataParseFailed
	KindFootnoteDefNotReferenced
	KindMultipleFootnoteDefinitions
)

var kindNames = map[LoadErrorKind]string{
	KindUnknown:                     "unknown",
	KindInvalidID:                   "invalid_id",
	KindNotFound:                    "not_found",
	KindMarkdownParseFailed:         "markdown_parse_failed",
	KindSyntaxHighlightFailed:       "syntax_highlight_failed",
	KindRenderMathFailed:            "render_math_failed",
	KindNoMetadata:                  "no_metadata",
	KindMetadataParseFailed:         "metadata_parse_failed",
	KindFootnoteDefNotReferenced:    "footnote_def_not_referenced",
	KindMultipleFootnoteDefinitions: "multiple_footnote_definitions",
}

func (k LoadErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// PostLoadError is the error returned by every stage of the post pipeline.
// Detail carries the kind-specific payload: the underlying failure text, or
// the footnote identifier for the footnote kinds.
type PostLoadError struct {
	Kind   LoadErrorKind
	IDErr  PostIDError
	Detail string
}

// Sentinels for errors.Is. Matching is by kind only.
var (
	ErrInvalidID                   = &PostLoadError{Kind: KindInvalidID}
	ErrNotFound                    = &PostLoadError{Kind: KindNotFound}
	ErrMarkdownParseFailed         = &PostLoadError{Kind: KindMarkdownParseFailed}
	ErrSyntaxHighlightFailed       = &PostLoadError{Kind: KindSyntaxHighlightFailed}
	ErrRenderMathFailed            = &PostLoadError{Kind: KindRenderMathFailed}
	ErrNoMetadata                  = &PostLoadError{Kind: KindNoMetadata}
	ErrMetadataParseFailed         = &PostLoadError{Kind: KindMetadataParseFailed}
	ErrFootnoteDefNotReferenced    = &PostLoadError{Kind: KindFootnoteDefNotReferenced}
	ErrMultipleFootnoteDefinitions = &PostLoadError{Kind: KindMultipleFootnoteDefinitions}
	ErrUnknown                     = &PostLoadError{Kind: KindUnknown}
)

func (e *PostLoadError) Error() string {
	switch e.Kind {
	case KindInvalidID:
		return fmt.Sprintf("invalid post ID: %s", e.IDErr.Error())
	case KindNotFound:
		return "post doesn't exist (yet!)"
	case KindMarkdownParseFailed:
		return "parsing markdown failed: " + e.Detail
	case KindSyntaxHighlightFailed:
		return "code syntax highlighting failed: " + e.Detail
	case KindRenderMathFailed:
		return "rendering math failed: " + e.Detail
	case KindNoMetadata:
		return "post has no metadata block"
	case KindMetadataParseFailed:
		return "parsing post metadata failed: " + e.Detail
	case KindFootnoteDefNotReferenced:
		return fmt.Sprintf("footnote %q is defined but never referenced", e.Detail)
	case KindMultipleFootnoteDefinitions:
		return fmt.Sprintf("footnote %q is defined more than once", e.Detail)
	default:
		return "unknown error"
	}
}

// Is reports whether target is a PostLoadError of the same kind.
func (e *PostLoadError) Is(target error) bool {
	t, ok := target.(*PostLoadError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Unwrap exposes the id error for InvalidID so errors.Is(err, PostIDMissing) works.
func (e *PostLoadError) Unwrap() error {
	if e.Kind == KindInvalidID {
		return e.IDErr
	}
	return nil
}

func InvalidIDError(idErr error) *PostLoadError {
	var pe PostIDError
	if !errors.As(idErr, &pe) {
		pe = PostIDUnknown
	}
	return &PostLoadError{Kind: KindInvalidID, IDErr: pe}
}

func MarkdownParseError(detail string) *PostLoadError {
	return &PostLoadError{Kind: KindMarkdownParseFailed, Detail: detail}
}

func SyntaxHighlightError(detail string) *PostLoadError {
	return &PostLoadError{Kind: KindSyntaxHighlightFailed, Detail: detail}
}

func RenderMathError(detail string) *PostLoadError {
	return &PostLoadError{Kind: KindRenderMathFailed, Detail: detail}
}

func MetadataParseError(detail string) *PostLoadError {
	return &PostLoadError{Kind: KindMetadataParseFailed, Detail: detail}
}

func FootnoteDefNotReferencedError(identifier string) *PostLoadError {
	return &PostLoadError{Kind: KindFootnoteDefNotReferenced, Detail: identifier}
}

func MultipleFootnoteDefinitionsError(identifier string) *PostLoadError {
	return &PostLoadError{Kind: KindMultipleFootnoteDefinitions, Detail: identifier}
}

// AsLoadError converts any error into a PostLoadError. Errors that are not
// already part of the taxonomy become KindUnknown.
func AsLoadError(err error) *PostLoadError {
	if err == nil {
		return nil
	}
	var le *PostLoadError
	if errors.As(err, &le) {
		return le
	}
	var idErr PostIDError
	if errors.As(err, &idErr) {
		return InvalidIDError(idErr)
	}
	return &PostLoadError{Kind: KindUnknown, Detail: err.Error()}
}
