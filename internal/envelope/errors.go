package envelope

import (
	"errors"
	"fmt"
)

// ErrDecode is the root of every envelope decoding failure.
// Use errors.Is(err, ErrDecode) to detect a malformed envelope regardless of stage.
var ErrDecode = errors.New("envelope: decode failed")

// Stage-specific decode errors. Each one wraps ErrDecode.
var (
	// ErrEmpty is returned when there is nothing to decode.
	ErrEmpty = fmt.Errorf("%w: empty payload", ErrDecode)

	// ErrInvalidBase64 is returned when the payload is not standard padded base64.
	ErrInvalidBase64 = fmt.Errorf("%w: invalid base64", ErrDecode)

	// ErrInvalidUTF8 is returned when the decoded bytes are not valid UTF-8.
	ErrInvalidUTF8 = fmt.Errorf("%w: invalid UTF-8", ErrDecode)

	// ErrInvalidJSON is returned for JSON syntax errors, shape mismatches and trailing data.
	ErrInvalidJSON = fmt.Errorf("%w: invalid JSON", ErrDecode)
)
