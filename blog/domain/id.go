package domain

import (
	"regexp"
	"strconv"
)

var postIDRegex = regexp.MustCompile(`^([0-9]+)(?:-([a-z0-9_-]*))?$`)

// PostID identifies a post by its number and an optional slug.
// The canonical text form is "<number>" or "<number>-<slug>".
type PostID struct {
	Number uint64
	Slug   string
}

// PostIDError describes why a post identifier could not be parsed.
type PostIDError int

const (
	PostIDUnknown PostIDError = iota
	PostIDParseNumberFailed
	PostIDInvalidFormat
	PostIDMissing
)

func (e PostIDError) Error() string {
	switch e {
	case PostIDParseNumberFailed:
		return "parsing number failed"
	case PostIDInvalidFormat:
		return "invalid format (should be <number>[-<slug>])"
	case PostIDMissing:
		return "missing parameter"
	default:
		return "unknown post id error"
	}
}

// ParsePostID parses the canonical text form of a post identifier.
func ParsePostID(s string) (PostID, error) {
	matches := postIDRegex.FindStringSubmatch(s)
	if matches == nil {
		return PostID{}, PostIDInvalidFormat
	}

	number, err := strconv.ParseUint(matches[1], 10, 64)
	if err != nil {
		return PostID{}, PostIDParseNumberFailed
	}

	return PostID{Number: number, Slug: matches[2]}, nil
}

// PostIDFromParam parses a route or query parameter. A parameter that was not
// supplied at all is reported as PostIDMissing rather than a format error.
func PostIDFromParam(value string, present bool) (PostID, error) {
	if !present {
		return PostID{}, PostIDMissing
	}
	return ParsePostID(value)
}

// String returns the canonical text form of the identifier.
func (id PostID) String() string {
	number := strconv.FormatUint(id.Number, 10)
	if id.Slug == "" {
		return number
	}
	return number + "-" + id.Slug
}

// CacheKey is the key used for cache and index lookups. Two identifiers with
// the same number but different slugs share a key.
func (id PostID) CacheKey() uint64 {
	return id.Number
}
