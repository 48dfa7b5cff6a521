package jwt

import (
	"crypto"
	"crypto/elliptic"
	_ "crypto/sha256" // ignore:lint
	_ "crypto/sha512"
	"errors"
)

var (
	// ErrTokenSignature indicates that JWT signature verification has failed.
	//
	// It is returned when the computed signature does not match the
	// signature carried by the token: the token was tampered with, a
	// different key signed it, or the signature bytes are malformed.
	// Treat it as a security event.
	ErrTokenSignature = errors.New("jwt: invalid token signature")

	// ErrInvalidKey indicates that the provided key is not valid for the algorithm.
	//
	// Each algorithm family has specific key type requirements:
	//   - HMAC (HS256/384/512): []byte (shared secret, non-empty)
	//   - RSA (RS256/384/512): *rsa.PrivateKey (sign), *rsa.PublicKey (verify)
	//   - ECDSA (ES256/384/512): *ecdsa.PrivateKey (sign), *ecdsa.PublicKey (verify),
	//     on the curve of the algorithm.
	ErrInvalidKey = errors.New("jwt: invalid key")

	// ErrPrivateKeyRequired is returned when signing is attempted with
	// a public-only asymmetric key.
	ErrPrivateKeyRequired = errors.New("jwt: private key required to sign")
)

// Family identifies a closed group of algorithms sharing a key type
// and a signature construction.
type Family uint8

const (
	// FamilyNone is the unsecured family, "none".
	FamilyNone Family = iota
	// FamilyHMAC is HS256, HS384 and HS512.
	FamilyHMAC
	// FamilyRSA is RS256, RS384 and RS512 (RSASSA-PKCS1-v1_5).
	FamilyRSA
	// FamilyECDSA is ES256, ES384 and ES512.
	FamilyECDSA
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyNone:
		return "none"
	case FamilyHMAC:
		return "HMAC"
	case FamilyRSA:
		return "RSA"
	case FamilyECDSA:
		return "ECDSA"
	default:
		return "unknown"
	}
}

// Alg represents a signing and verifying algorithm.
//
// The set of algorithms is closed: only the variables declared
// by this package implement it (see HS256, RS256, ES256, NONE and friends).
// Adding a new algorithm is a change to this package, never a
// plug-in from the outside.
type Alg interface {
	// Name should return the "alg" JWT field.
	Name() string
	// Sign should accept the private key given on jwt.Sign and
	// the base64-encoded "header.payload" and return the raw signature.
	Sign(key PrivateKey, headerAndPayload []byte) ([]byte, error)
	// Verify should accept the public key given on jwt.Verify and
	// the "header.payload" and the decoded signature. It returns
	// nil on success, ErrTokenSignature on mismatch and ErrInvalidKey
	// when the key cannot be used by the algorithm.
	Verify(key PublicKey, headerAndPayload []byte, signature []byte) error

	// Family reports the algorithm group.
	Family() Family

	sealed()
}

var (
	// NONE is the unsecured algorithm, "none". Its signature is always empty
	// and it always verifies. A registry refuses tokens signed with it
	// unless explicitly allowed, see Signers.AllowUnsecured.
	NONE Alg = &algNONE{}
	// HS256 uses the HMAC SHA-256 algorithm.
	HS256 Alg = &algHMAC{"HS256", crypto.SHA256}
	// HS384 uses the HMAC SHA-384 algorithm.
	HS384 Alg = &algHMAC{"HS384", crypto.SHA384}
	// HS512 uses the HMAC SHA-512 algorithm.
	HS512 Alg = &algHMAC{"HS512", crypto.SHA512}
	// RS256 uses RSASSA-PKCS1-v1_5 with SHA-256.
	RS256 Alg = &algRSA{"RS256", crypto.SHA256}
	// RS384 uses RSASSA-PKCS1-v1_5 with SHA-384.
	RS384 Alg = &algRSA{"RS384", crypto.SHA384}
	// RS512 uses RSASSA-PKCS1-v1_5 with SHA-512.
	RS512 Alg = &algRSA{"RS512", crypto.SHA512}
	// ES256 uses ECDSA on the P-256 curve with SHA-256.
	ES256 Alg = &algECDSA{"ES256", crypto.SHA256, 32, elliptic.P256}
	// ES384 uses ECDSA on the P-384 curve with SHA-384.
	ES384 Alg = &algECDSA{"ES384", crypto.SHA384, 48, elliptic.P384}
	// ES512 uses ECDSA on the P-521 curve with SHA-512.
	ES512 Alg = &algECDSA{"ES512", crypto.SHA512, 66, elliptic.P521}

	// securedAlgs holds every algorithm reachable by name.
	// NONE is deliberately absent.
	securedAlgs = []Alg{
		HS256,
		HS384,
		HS512,
		RS256,
		RS384,
		RS512,
		ES256,
		ES384,
		ES512,
	}
)

// ParseAlg returns the secured algorithm registered under "name",
// e.g. "RS256". The unsecured "none" algorithm is never returned,
// callers that need it have to reference NONE explicitly.
func ParseAlg(name string) (Alg, bool) {
	for _, alg := range securedAlgs {
		if alg.Name() == name {
			return alg, true
		}
	}

	return nil, false
}

// Algorithms returns the names of all the secured algorithms, in declaration order.
func Algorithms() []string {
	names := make([]string, 0, len(securedAlgs))
	for _, alg := range securedAlgs {
		names = append(names, alg.Name())
	}

	return names
}
