package core

import (
	"errors"
	"fmt"
	"strings"
)

// maxLabelSample bounds the number of available labels reported by SchemaError.
const maxLabelSample = 10

// ErrEmptyInput is matched by every EmptyInputError through errors.Is.
var ErrEmptyInput = errors.New("no data rows")

// SchemaError reports required columns missing from the header.
type SchemaError struct {
	Missing   []string
	Available []string // at most the first 10 labels
	Truncated bool     // true when the header had more than 10 labels
}

func newSchemaError(missing, labels []string) *SchemaError {
	sample := labels
	truncated := false
	if len(sample) > maxLabelSample {
		sample = sample[:maxLabelSample]
		truncated = true
	}
	return &SchemaError{
		Missing:   append([]string(nil), missing...),
		Available: append([]string(nil), sample...),
		Truncated: truncated,
	}
}

func (e *SchemaError) Error() string {
	avail := strings.Join(e.Available, ", ")
	if e.Truncated {
		avail += "..."
	}
	return fmt.Sprintf("missing required columns: %s (available columns: %s)", strings.Join(e.Missing, ", "), avail)
}

// EmptyInputError reports a table with no data rows after the title skip.
type EmptyInputError struct {
	TitleRows int
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("input has no data rows (after skipping %d title row(s))", e.TitleRows)
}

func (e *EmptyInputError) Unwrap() error { return ErrEmptyInput }
