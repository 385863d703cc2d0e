package feedback

import (
	"errors"
	"fmt"
)

var (
	ErrMissingColumn     = errors.New("missing required column")
	ErrUnsupportedFormat = errors.New("unsupported feedback file format")
	ErrBadDate           = errors.New("date is not a calendar date")
	ErrEmptySource       = errors.New("feedback source has no header row")
)

// LoadError reports a failure to build the feedback table from its source.
// Row is the 1-based source row when the failure is row specific.
type LoadError struct {
	Source string
	Row    int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("load feedback from %s: row %d: %v", e.Source, e.Row, e.Err)
	}
	return fmt.Sprintf("load feedback from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
