// Package result defines the canonical business-outcome record returned by
// every BosVes endpoint.
//
// A Result carries the business status independently of the HTTP status:
// a patch or delete that matches nothing is a normal failure Result delivered
// with HTTP 200, not a transport error.
package result

import (
	"errors"
	"fmt"
)

// genericFailure is used when a failure is recorded without any message.
const genericFailure = "operation failed"

// Result is the business outcome of a single operation.
//
// JSON field names and order are part of the wire contract.
type Result struct {
	Success      bool    `json:"success"`
	HasError     bool    `json:"hasError"`
	ErrorMessage *string `json:"errorMessage"`
	UserMessage  *string `json:"userMessage"`
	ID           *int64  `json:"id"`
	IsUpdated    bool    `json:"isUpdated"`
	IsDeleted    bool    `json:"isDeleted"`
	Data         any     `json:"data,omitempty"`
}

// Option sets an operation-specific field on a successful Result.
type Option func(*Result)

// WithID marks the Result of a create with the newly assigned identifier.
func WithID(id int64) Option {
	return func(r *Result) {
		r.ID = &id
	}
}

// Updated marks the Result of a patch that matched and modified a record.
func Updated() Option {
	return func(r *Result) {
		r.IsUpdated = true
	}
}

// Deleted marks the Result of a delete that matched and removed a record.
func Deleted() Option {
	return func(r *Result) {
		r.IsDeleted = true
	}
}

// WithData attaches a read payload.
func WithData(v any) Option {
	return func(r *Result) {
		r.Data = v
	}
}

// OK returns a successful Result with no error recorded.
func OK(opts ...Option) Result {
	r := Result{Success: true}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Fail returns a business failure.
//
// errorMessage is the diagnostic text; userMessage is safe to show to end users.
// When errorMessage is empty the user message (or a generic text) takes its
// place so that HasError always comes with a non-empty ErrorMessage.
func Fail(errorMessage, userMessage string) Result {
	if errorMessage == "" {
		errorMessage = userMessage
	}
	if errorMessage == "" {
		errorMessage = genericFailure
	}

	r := Result{
		Success:      false,
		HasError:     true,
		ErrorMessage: &errorMessage,
	}
	if userMessage != "" {
		r.UserMessage = &userMessage
	}
	return r
}

// NotFound returns the business failure for an identifier that matches no record.
func NotFound(entity string, id int64) Result {
	return Fail(
		fmt.Sprintf("%s with id %d not found", entity, id),
		fmt.Sprintf("%s not found", entity),
	)
}

// Invariant violations reported by Check.
var (
	ErrSuccessWithError  = errors.New("result: successful result carries an error")
	ErrMissingMessage    = errors.New("result: error recorded without a message")
	ErrConflictingMarker = errors.New("result: more than one operation marker set")
)

// Check verifies the Result invariants.
//
// Returns:
//   - error: nil if the Result is well-formed
func (r Result) Check() error {
	if r.Success && (r.HasError || r.ErrorMessage != nil) {
		return ErrSuccessWithError
	}
	if r.HasError && (r.ErrorMessage == nil || *r.ErrorMessage == "") {
		return ErrMissingMessage
	}

	markers := 0
	if r.ID != nil {
		markers++
	}
	if r.IsUpdated {
		markers++
	}
	if r.IsDeleted {
		markers++
	}
	if markers > 1 {
		return ErrConflictingMarker
	}
	return nil
}

// Message returns the error message or an empty string.
func (r Result) Message() string {
	if r.ErrorMessage == nil {
		return ""
	}
	return *r.ErrorMessage
}
