// Package errs holds the error categories shared by the resolution, selection
// and download stages.
package errs

import (
	"errors"
	"fmt"
)

// Category classifies a failure so callers can decide whether it is contained
// at the item level or fatal for the whole run.
type Category string

const (
	CategoryResolution  Category = "resolution"
	CategorySyntax      Category = "syntax"
	CategoryRange       Category = "range"
	CategoryDownload    Category = "download"
	CategoryPostProcess Category = "postprocess"
	CategoryConfig      Category = "config"
	CategoryFilesystem  Category = "filesystem"
	CategoryUnknown     Category = "unknown"
)

// CategorizedError attaches a Category to an underlying error.
type CategorizedError struct {
	Category Category
	Err      error
}

func (e CategorizedError) Error() string {
	if e.Err == nil {
		return string(e.Category)
	}
	return e.Err.Error()
}

func (e CategorizedError) Unwrap() error {
	return e.Err
}

// Wrap tags err with category. A nil err stays nil.
func Wrap(category Category, err error) error {
	if err == nil {
		return nil
	}
	return CategorizedError{Category: category, Err: err}
}

// Wrapf is Wrap over fmt.Errorf.
func Wrapf(category Category, format string, args ...any) error {
	return CategorizedError{Category: category, Err: fmt.Errorf(format, args...)}
}

// Of returns the outermost category found in the chain of err.
func Of(err error) Category {
	if err == nil {
		return ""
	}
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryUnknown
}

// Is reports whether err carries category anywhere in its chain.
func Is(err error, category Category) bool {
	for err != nil {
		var ce CategorizedError
		if !errors.As(err, &ce) {
			return false
		}
		if ce.Category == category {
			return true
		}
		err = ce.Err
	}
	return false
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch Of(err) {
	case CategoryConfig:
		return 2
	default:
		return 1
	}
}
