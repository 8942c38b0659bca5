// Package validate checks generated posts and comments before they can be
// queued: length bounds, leftover template placeholders, and repeated
// paragraphs.
package validate

import (
	"fmt"
	"strings"

	"openlinkedin/internal/taxonomy"
)

// Default length bounds in characters.
const (
	DefaultMinPostLength    = 100
	DefaultMaxPostLength    = 3000
	DefaultMinCommentLength = 20
	DefaultMaxCommentLength = 500
)

// Result reports whether content passed and why it failed if not.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validator applies the configured bounds.
type Validator struct {
	MinPostLength    int
	MaxPostLength    int
	MinCommentLength int
	MaxCommentLength int
}

// NewValidator returns a validator with the default bounds.
func NewValidator() *Validator {
	return &Validator{
		MinPostLength:    DefaultMinPostLength,
		MaxPostLength:    DefaultMaxPostLength,
		MinCommentLength: DefaultMinCommentLength,
		MaxCommentLength: DefaultMaxCommentLength,
	}
}

// ValidatePost checks a post draft: length, placeholders, and duplicated
// paragraphs.
func (v *Validator) ValidatePost(content string) Result {
	var errs []string
	if n := len(content); n < v.MinPostLength {
		errs = append(errs, fmt.Sprintf("post too short (%d < %d chars)", n, v.MinPostLength))
	}
	if n := len(content); n > v.MaxPostLength {
		errs = append(errs, fmt.Sprintf("post too long (%d > %d chars)", n, v.MaxPostLength))
	}
	errs = append(errs, checkPlaceholders(content)...)
	errs = append(errs, checkDuplicateParagraphs(content)...)
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ValidateComment checks a comment draft: length and placeholders. Comments
// are short enough that the duplicate-paragraph check adds nothing.
func (v *Validator) ValidateComment(content string) Result {
	var errs []string
	if n := len(content); n < v.MinCommentLength {
		errs = append(errs, fmt.Sprintf("comment too short (%d < %d chars)", n, v.MinCommentLength))
	}
	if n := len(content); n > v.MaxCommentLength {
		errs = append(errs, fmt.Sprintf("comment too long (%d > %d chars)", n, v.MaxCommentLength))
	}
	errs = append(errs, checkPlaceholders(content)...)
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func checkPlaceholders(content string) []string {
	var errs []string
	for _, pattern := range taxonomy.PlaceholderPatterns {
		if pattern.MatchString(content) {
			errs = append(errs, fmt.Sprintf("contains placeholder text matching: %s", pattern.String()))
		}
	}
	return errs
}

func checkDuplicateParagraphs(content string) []string {
	seen := map[string]bool{}
	for _, paragraph := range strings.Split(content, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		if seen[paragraph] {
			return []string{"contains duplicate paragraph"}
		}
		seen[paragraph] = true
	}
	return nil
}
