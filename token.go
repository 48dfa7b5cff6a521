package jwt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// ErrMalformedToken indicates that the given bytes are not a compact JWT:
// the segment count is not three, a segment is not base64url
// or the header is not a JSON object carrying "alg".
var ErrMalformedToken = errors.New("jwt: malformed token")

// Token is a parsed, not yet trusted, compact JWT.
//
// A Token is immutable once constructed. The signing input is always
// recomputed from the encoded segments the token was parsed from (or
// built with), so it cannot drift from what was actually signed.
type Token struct {
	parsed Header // set by Parse or by Signer.SignToken.

	rawHeader  []byte // base64url segments, as found on the wire.
	rawPayload []byte

	header    []byte // decoded JSON.
	payload   []byte
	signature []byte // decoded signature bytes.
}

// Parse splits the compact "wire" form into its three segments and
// decodes them. The header is decoded into a Header; the payload is
// only base64url-decoded, it is up to the caller to decode it
// after the signature was verified.
//
// The returned error wraps ErrMalformedToken and, when the cause
// is a decoding failure, ErrDecoding as well.
func Parse(wire []byte) (*Token, error) {
	parts := bytes.Split(wire, sep)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments but got %d", ErrMalformedToken, len(parts))
	}

	header, err := Base64Decode(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformedToken, err)
	}

	payload, err := Base64Decode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %w", ErrMalformedToken, err)
	}

	signature, err := Base64Decode(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %w", ErrMalformedToken, err)
	}

	var h Header
	if err = json.Unmarshal(header, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformedToken, err)
	}

	if h.Alg == "" {
		return nil, fmt.Errorf("%w: header: missing \"alg\"", ErrMalformedToken)
	}

	t := &Token{
		parsed:     h,
		rawHeader:  parts[0],
		rawPayload: parts[1],
		header:     header,
		payload:    payload,
		signature:  signature,
	}
	return t, nil
}

// Header returns a copy of the decoded header.
func (t *Token) Header() Header {
	h := t.parsed
	h.Extra = maps.Clone(t.parsed.Extra)
	return h
}

// SigningInput returns the "header.payload" bytes the signature is computed over.
func (t *Token) SigningInput() []byte {
	return joinParts(t.rawHeader, t.rawPayload)
}

// HeaderJSON returns the decoded header segment.
func (t *Token) HeaderJSON() []byte { return t.header }

// UnverifiedPayload returns the decoded payload segment.
// Nothing in it can be trusted before the signature was verified.
func (t *Token) UnverifiedPayload() []byte { return t.payload }

// Signature returns the decoded signature segment.
func (t *Token) Signature() []byte { return t.signature }

// UnverifiedClaims decodes the payload into "dest" without any
// signature or claims check. Use it only to route a token, e.g. to
// read "iss" before picking the key set that verifies it.
func (t *Token) UnverifiedClaims(dest any) error {
	return json.Unmarshal(t.payload, dest)
}

// Bytes returns the compact serialization of the token.
func (t *Token) Bytes() []byte {
	return joinParts(t.rawHeader, t.rawPayload, Base64Encode(t.signature))
}

// String implements the fmt.Stringer interface, it returns the compact serialization.
func (t *Token) String() string {
	return string(t.Bytes())
}

// Serialize base64url-encodes the three raw components and joins them with ".".
// Parsing the result gives back the same header, payload and signature bytes.
func Serialize(header, payload, signature []byte) []byte {
	return joinParts(Base64Encode(header), Base64Encode(payload), Base64Encode(signature))
}

func joinParts(parts ...[]byte) []byte {
	return bytes.Join(parts, sep)
}

// newToken assembles a token from its decoded header and payload JSON,
// base64url-encoding them once so the signing input is stable.
func newToken(h Header, header, payload []byte) *Token {
	return &Token{
		parsed:     h,
		rawHeader:  Base64Encode(header),
		rawPayload: Base64Encode(payload),
		header:     header,
		payload:    payload,
	}
}

func (t *Token) withSignature(signature []byte) *Token {
	t.signature = signature
	return t
}
