package envelope

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// maxRequestSize caps how much of a request wrapper DecodeRequest will read.
const maxRequestSize = 1 << 20

// Request is the request-side wrapper: {"data": "<base64(utf8(json))>"}.
type Request struct {
	Data string `json:"data"`
}

// Encode serialises v to JSON and returns the base64 form of its UTF-8 bytes.
//
// Output is deterministic: struct fields keep declaration order and map keys
// are sorted by encoding/json.
func Encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("envelope: encoding JSON: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// EncodeRequest builds a complete request wrapper for v.
// Clients and tests use it to produce POST/PATCH bodies.
func EncodeRequest(v any) ([]byte, error) {
	data, err := Encode(v)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(Request{Data: data})
	if err != nil {
		return nil, fmt.Errorf("envelope: encoding request wrapper: %w", err)
	}
	return body, nil
}

// Decode reverses Encode into v.
//
// Surrounding whitespace and one layer of surrounding double quotes are
// removed first. The remaining text must be padded standard base64 whose
// bytes are valid UTF-8 holding exactly one JSON value assignable to v.
//
// Returns:
//   - error: wraps ErrDecode on any malformed stage
func Decode(s string, v any) error {
	s = StripQuotes(strings.TrimSpace(s))
	if s == "" {
		return ErrEmpty
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBase64, err)
	}

	if !utf8.Valid(raw) {
		return ErrInvalidUTF8
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON value", ErrInvalidJSON)
	}

	return nil
}

// DecodeRequest reads a request wrapper from body and decodes its data field into v.
func DecodeRequest(body io.Reader, v any) error {
	if body == nil {
		return ErrEmpty
	}

	var req Request
	dec := json.NewDecoder(io.LimitReader(body, maxRequestSize))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmpty
		}
		return fmt.Errorf("%w: request wrapper: %w", ErrInvalidJSON, err)
	}

	return Decode(req.Data, v)
}

// StripQuotes removes exactly one pair of surrounding double quotes.
// Strings that are not quoted on both ends are returned unchanged, so
// applying it to an unquoted string is a no-op.
func StripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
