// Package envelope implements the opaque wire encoding used by the BosVes API.
//
// Every request payload and every business Result travels as
//
//	base64( utf8( json(value) ) )
//
// Requests wrap that string in a JSON object ({"data": "..."}); responses are
// written as a bare JSON string, so a client reading the body sees the encoded
// value surrounded by one layer of double quotes. Decode strips that layer.
//
// The triple encoding is kept for wire compatibility with existing clients.
//
// # Usage
//
//	s, err := envelope.Encode(result.OK(result.WithID(42)))
//	...
//	var res result.Result
//	if err := envelope.Decode(body, &res); err != nil {
//	    // errors.Is(err, envelope.ErrDecode) == true
//	}
package envelope
