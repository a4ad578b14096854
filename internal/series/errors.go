package series

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by NotFoundError.
	ErrNotFound = errors.New("series label not found")
	// ErrFormat is matched by FormatError.
	ErrFormat = errors.New("unrecognized date format")
	// ErrShape is matched by ShapeError.
	ErrShape = errors.New("mismatched series lengths")
	// ErrAmbiguous is matched by AmbiguousError.
	ErrAmbiguous = errors.New("series label is ambiguous")
)

// NotFoundError reports that no grid cell contains the requested label.
type NotFoundError struct {
	Label string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no cell matches label %q", e.Label)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// AmbiguousError reports a label that matches more than one cell.
// Cells holds the matching cell references in scan order.
type AmbiguousError struct {
	Label string
	Cells []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("label %q matches %d cells %v", e.Label, len(e.Cells), e.Cells)
}

func (e *AmbiguousError) Unwrap() error {
	return ErrAmbiguous
}

// FormatError reports a date string in neither the period form nor ISO form.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid date %q: %s", e.Input, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// ShapeError reports parallel sequences whose lengths differ.
type ShapeError struct {
	Fields  []string
	Lengths []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("parallel sequences %v have unequal lengths %v", e.Fields, e.Lengths)
}

func (e *ShapeError) Unwrap() error {
	return ErrShape
}
