// Package validation turns untrusted query and body parameters into typed
// values or structured failures.
//
// Every validator returns an Outcome: either Valid[T] carrying the parsed value,
// or Invalid carrying a developer diagnostic, a user-facing message and the raw
// input. Handlers switch on the concrete type:
//
//	switch o := validation.ValidateDate(q.Get("date"), "date").(type) {
//	case validation.Valid[time.Time]:
//	    day = o.Value
//	case validation.Invalid:
//	    // log o.DeveloperMessage, return o.UserMessage
//	}
package validation

import "fmt"

// Outcome is the result of validating one parameter.
// It is implemented only by Valid[T] and Invalid.
type Outcome[T any] interface {
	isOutcome()
}

// Valid is a successful validation.
type Valid[T any] struct {
	// Value is the parsed, normalised value.
	Value T
	// Parameter is the name the value was validated under.
	Parameter string
}

func (Valid[T]) isOutcome() {}

// Invalid is a failed validation.
//
// DeveloperMessage is meant for logs and may contain the raw input.
// UserMessage is safe to return to clients.
type Invalid struct {
	Parameter        string
	DeveloperMessage string
	UserMessage      string
	RawInput         string
}

func (Invalid) isOutcome() {}

// Error implements error using the developer message.
func (i Invalid) Error() string {
	return fmt.Sprintf("validation: %s", i.DeveloperMessage)
}

// Success builds a Valid outcome.
func Success[T any](value T, parameter string) Outcome[T] {
	return Valid[T]{Value: value, Parameter: parameter}
}

// Failure builds an Invalid outcome usable as any Outcome[T].
func Failure(parameter, developerMessage, userMessage, rawInput string) Invalid {
	return Invalid{
		Parameter:        parameter,
		DeveloperMessage: developerMessage,
		UserMessage:      userMessage,
		RawInput:         rawInput,
	}
}

// AsInvalid reports whether o failed, returning the failure.
func AsInvalid[T any](o Outcome[T]) (Invalid, bool) {
	inv, ok := o.(Invalid)
	return inv, ok
}
