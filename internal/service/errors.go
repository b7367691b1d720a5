package service

import (
	"errors"
	"fmt"
)

var (
	ErrIDRequired        = errors.New("id is required")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrReaderNil         = errors.New("reader is nil")
	ErrContentRequired   = errors.New("content is required")
	ErrEventNotPermitted = errors.New("event not permitted")
)

// UnknownAttributeError reports an accessor name that is neither a field nor
// a scope of the subscription's enrollment. It is a lookup failure, distinct
// from "field exists but unanswered", and is never swallowed into a silent
// zero value.
type UnknownAttributeError struct {
	Name string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("unknown attribute %q", e.Name)
}
