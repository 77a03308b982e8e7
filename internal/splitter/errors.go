package splitter

import (
	"errors"
	"fmt"
)

// ErrEmptySheet indicates the first sheet has no rows.
var ErrEmptySheet = errors.New("sheet has no data")

// ParseError indicates the input bytes are not a readable workbook.
type ParseError struct {
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid workbook: %v", e.Err)
	}
	return fmt.Sprintf("invalid workbook %q: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
