package jwt

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrDecoding indicates that a segment is not valid unpadded base64url.
var ErrDecoding = errors.New("jwt: invalid base64url encoding")

var (
	sep = []byte(".")
	pad = []byte("=")

	strictURLEncoding = base64.URLEncoding.Strict()
)

// Base64Encode encodes "src" to jwt base64 url format.
func Base64Encode(src []byte) []byte {
	buf := make([]byte, base64.URLEncoding.EncodedLen(len(src)))
	base64.URLEncoding.Encode(buf, src)

	return bytes.TrimRight(buf, string(pad)) // JWT: no trailing '='.
}

// Base64Decode decodes "src" from the jwt base64 url format.
//
// Padding is not expected on the input. Input of length 1 (mod 4),
// characters outside the URL-safe alphabet and non-canonical trailing
// bits are rejected with an error that wraps ErrDecoding.
func Base64Decode(src []byte) ([]byte, error) {
	// The stdlib decoder skips '\r' and '\n' even in strict mode.
	for i, c := range src {
		if !isURLAlphabet(c) {
			if c == '=' {
				return nil, fmt.Errorf("%w: unexpected padding", ErrDecoding)
			}
			return nil, fmt.Errorf("%w: illegal byte %#x at offset %d", ErrDecoding, c, i)
		}
	}

	n := len(src) % 4
	if n == 1 {
		return nil, fmt.Errorf("%w: illegal length %d", ErrDecoding, len(src))
	}

	if n > 0 {
		// JWT: Because of no trailing '=' let's suffix it
		// with the correct number of those '=' before decoding.
		padded := make([]byte, len(src), len(src)+4-n)
		copy(padded, src)
		src = append(padded, bytes.Repeat(pad, 4-n)...)
	}

	buf := make([]byte, strictURLEncoding.DecodedLen(len(src)))
	written, err := strictURLEncoding.Decode(buf, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoding, err)
	}

	return buf[:written], nil
}

func isURLAlphabet(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') || c == '-' || c == '_'
}
