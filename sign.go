package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrPayloadNotObject is returned when standard claims have to be merged
// into a payload that does not encode to a JSON object.
var ErrPayloadNotObject = errors.New("jwt: payload is not a JSON object")

// Marshal encodes a header or a payload. A []byte or json.RawMessage
// value is taken as an already encoded JSON document and is only validated.
// It can be modified to use a different encoder.
var Marshal = func(v any) ([]byte, error) {
	switch b := v.(type) {
	case json.RawMessage:
		if !json.Valid(b) {
			return nil, fmt.Errorf("jwt: raw payload is not valid JSON")
		}
		return b, nil
	case []byte:
		if !json.Valid(b) {
			return nil, fmt.Errorf("jwt: raw payload is not valid JSON")
		}
		return b, nil
	}

	return json.Marshal(v)
}

// Unmarshal decodes a verified payload into "dest".
// It can be modified to use a different decoder.
var Unmarshal = json.Unmarshal

// SignOption is just a helper which sets the standard claims at the Sign methods.
type SignOption func(c *Claims)

// WithClaims is a SignOption to set multiple standard claims (e.g. id, issuer, subject)
// at once, simply by passing the Claims struct. Zero fields are left untouched.
//
// See MaxAge too.
func WithClaims(standardClaims Claims) SignOption {
	return func(c *Claims) {
		if v := standardClaims.NotBefore; v > 0 {
			c.NotBefore = v
		}

		if v := standardClaims.IssuedAt; v > 0 {
			c.IssuedAt = v
		}

		if v := standardClaims.Expiry; v > 0 {
			c.Expiry = v
		}

		if v := standardClaims.ID; v != "" {
			c.ID = v
		}

		if v := standardClaims.Issuer; v != "" {
			c.Issuer = v
		}

		if v := standardClaims.Subject; v != "" {
			c.Subject = v
		}

		if v := standardClaims.Audience; len(v) > 0 {
			c.Audience = v
		}
	}
}

// MaxAge is a SignOption to set the expiration "exp", "iat" JWT standard claims.
//
// If maxAge > second then sets expiration to the token.
// See the Clock package-level variable to modify
// the current time function.
func MaxAge(maxAge time.Duration) SignOption {
	return func(c *Claims) {
		if maxAge <= time.Second {
			return
		}
		now := Clock()
		c.Expiry = NewNumericDate(now.Add(maxAge))
		c.IssuedAt = NewNumericDate(now)
	}
}

// WithID is a SignOption which sets a random (version 4 UUID) "jti" claim.
func WithID() SignOption {
	return func(c *Claims) {
		c.ID = uuid.NewString()
	}
}

// Sign encodes "payload", merges the standard claims set by "opts" into it
// and returns the compact token. See SignToken for the header rules.
//
// Example Code:
//
//	signer, _ := jwt.NewSigner(jwt.HS256, []byte("secret"))
//	token, err := signer.Sign(jwt.Map{"foo": "bar"}, jwt.MaxAge(15*time.Minute))
func (s *Signer) Sign(payload any, opts ...SignOption) ([]byte, error) {
	return s.SignWithHeader(Header{}, payload, opts...)
}

// SignWithHeader is like Sign but it starts from "header",
// useful to add custom header members through Header.Extra.
func (s *Signer) SignWithHeader(header Header, payload any, opts ...SignOption) ([]byte, error) {
	if len(opts) > 0 {
		var standardClaims Claims
		for _, opt := range opts {
			opt(&standardClaims)
		}

		merged, err := Merge(payload, standardClaims)
		if err != nil {
			return nil, err
		}
		payload = json.RawMessage(merged)
	}

	t, err := s.SignToken(header, payload)
	if err != nil {
		return nil, err
	}

	return t.Bytes(), nil
}

// Merge encodes "payload" and "other" and returns one JSON object holding
// the members of both. Members of "other" win on conflict.
// Both must encode to JSON objects.
func Merge(payload any, other any) ([]byte, error) {
	base, err := objectMembers(payload)
	if err != nil {
		return nil, err
	}

	extra, err := objectMembers(other)
	if err != nil {
		return nil, err
	}

	for k, v := range extra {
		base[k] = v
	}

	return json.Marshal(base)
}

func objectMembers(v any) (map[string]json.RawMessage, error) {
	b, err := Marshal(v)
	if err != nil {
		return nil, err
	}

	members := make(map[string]json.RawMessage)
	if string(b) == "null" {
		return members, nil
	}

	if err = json.Unmarshal(b, &members); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadNotObject, err)
	}

	return members, nil
}
