package application

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/adrg/frontmatter"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/yuin/goldmark/ast"

	"github.com/dfryer1193/goblog/blog/domain"
	"github.com/dfryer1193/goblog/blog/markdown"
)

const dateLayout = "2006-01-02"

var errNotString = errors.New("must be a string")

// DecodeMetadata decodes a complete metadata block, delimiters included.
// The block must hold exactly title, author, description and date.
func DecodeMetadata(raw []byte) (domain.PostMetadata, error) {
	fields := map[string]any{}
	if _, err := frontmatter.MustParse(bytes.NewReader(raw), &fields); err != nil {
		return domain.PostMetadata{}, fmt.Errorf("failed to decode metadata block: %w", err)
	}

	err := validation.Validate(fields, validation.Map(
		validation.Key("title", validation.By(isString)),
		validation.Key("author", validation.By(isString)),
		validation.Key("description", validation.By(isString)),
		validation.Key("date", validation.By(isDate)),
	))
	if err != nil {
		return domain.PostMetadata{}, err
	}

	date, _ := toDate(fields["date"])
	return domain.PostMetadata{
		Title:       fields["title"].(string),
		Author:      fields["author"].(string),
		Description: fields["description"].(string),
		Date:        date,
	}, nil
}

// ExtractMetadata decodes the metadata block of an unrewritten document.
func ExtractMetadata(source []byte, doc ast.Node) (domain.PostMetadata, error) {
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		fm, ok := c.(*markdown.Frontmatter)
		if !ok {
			continue
		}
		meta, err := DecodeMetadata(fm.Raw(source))
		if err != nil {
			return domain.PostMetadata{}, domain.MetadataParseError(err.Error())
		}
		return meta, nil
	}
	return domain.PostMetadata{}, domain.ErrNoMetadata
}

func isString(value any) error {
	if _, ok := value.(string); !ok {
		return errNotString
	}
	return nil
}

func isDate(value any) error {
	_, err := toDate(value)
	return err
}

// toDate accepts a YYYY-MM-DD string, or a native date as produced by TOML.
func toDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case string:
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, errors.New("must be a date in YYYY-MM-DD form")
		}
		return t, nil
	case time.Time:
		return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, errors.New("must be a date in YYYY-MM-DD form")
	}
}
