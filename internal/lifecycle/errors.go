package lifecycle

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"asset-lifecycle-api/internal/models"
)

// ErrNotFound is returned when a referenced item, assignment or repair
// does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports client-correctable input problems, keyed per
// field so callers can re-prompt.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// newValidationError builds a single-field validation error.
func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// StateConflictError reports an attempted transition that is illegal
// given the item's current state. It reflects a real-world fact (the
// asset is no longer free), not a transient fault, so callers must
// re-decide rather than retry.
type StateConflictError struct {
	ItemID    int64
	Current   models.ItemState
	Requested models.ItemState
	Msg       string
}

func (e *StateConflictError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("item %d: illegal transition %s -> %s", e.ItemID, e.Current, e.Requested)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsStateConflict reports whether err is a StateConflictError.
func IsStateConflict(err error) bool {
	var cerr *StateConflictError
	return errors.As(err, &cerr)
}
