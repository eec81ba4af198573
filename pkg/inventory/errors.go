package inventory

import (
	"errors"
	"fmt"

	"github.com/ogulcanaydogan/stockwatch/pkg/model"
)

// FetchErrorKind classifies snapshot fetch failures.
type FetchErrorKind string

const (
	KindTransport FetchErrorKind = "transport" // Connection, timeout or read failure
	KindStatus    FetchErrorKind = "status"    // Non-success HTTP status
	KindPayload   FetchErrorKind = "payload"   // Undecodable or incomplete payload
)

// FetchError is returned when a snapshot could not be obtained.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetch snapshot: inventory returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("fetch snapshot (%s): %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrMissingID means a product entry has no usable identifier and cannot be tracked.
var ErrMissingID = errors.New("product entry has no identifier")

// MalformedRecord reports a product field that was coerced during normalization.
// The record it accompanies is still usable.
type MalformedRecord struct {
	ID     model.ProductID
	Field  string
	Value  any
	Reason string
}

func (e *MalformedRecord) Error() string {
	return fmt.Sprintf("product %s: malformed %s %v: %s", e.ID, e.Field, e.Value, e.Reason)
}
