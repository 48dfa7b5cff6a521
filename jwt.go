package jwt

import (
	"time"
)

// Clock is used to validate the time-based claims ("exp", "nbf", "iat") of a token.
// It can be overridden to use any other time value, useful for testing.
//
// Usage: now := Clock()
var Clock = time.Now

type (
	// PrivateKey is a generic type, this key is responsible for signing the token.
	// It is a []byte for the HMAC family, *rsa.PrivateKey for RSA and
	// *ecdsa.PrivateKey for ECDSA.
	PrivateKey = any
	// PublicKey is a generic type, this key is responsible to verify the token.
	// Private keys are accepted as well, their public half is used.
	PublicKey = any

	// Map is just a type alias, a shortcut of map[string]any.
	Map = map[string]any
)
