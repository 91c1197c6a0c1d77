package domain

import (
	"errors"
	"testing"
)

func TestValidateImageName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "plain", input: "cat.png", valid: true},
		{name: "dashes", input: "my-photo_2.jpeg", valid: true},
		{name: "empty", input: ""},
		{name: "dot", input: "."},
		{name: "traversal", input: "../secret"},
		{name: "nested", input: "a/b.png"},
		{name: "backslash", input: `a\b.png`},
		{name: "double dot inside", input: "a..png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageName(tt.input)
			if tt.valid && err != nil {
				t.Errorf("ValidateImageName(%q) error = %v", tt.input, err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidImageName) {
				t.Errorf("ValidateImageName(%q) error = %v, want ErrInvalidImageName", tt.input, err)
			}
		})
	}
}
