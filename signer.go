package jwt

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"
)

var (
	// ErrWrongAlgorithm indicates that the token header's "alg"
	// does not name the algorithm of the Signer checking it.
	// It is returned before any cryptographic work takes place.
	ErrWrongAlgorithm = errors.New("jwt: unexpected token algorithm")
	// ErrCannotSign is returned by Sign on a verify-only Signer.
	ErrCannotSign = errors.New("jwt: signer holds no private key")
)

// Signer binds one algorithm to one key.
//
// A Signer built from a private (or shared HMAC) key signs and verifies;
// a Signer built from a public key only verifies. It is immutable after
// construction and safe for concurrent use.
type Signer struct {
	alg     Alg
	kid     string
	private PrivateKey
	public  PublicKey
}

// SignerOption configures a Signer at construction time.
type SignerOption func(*Signer)

// WithKeyID sets the "kid" written to the headers of the tokens
// the Signer produces.
func WithKeyID(kid string) SignerOption {
	return func(s *Signer) {
		s.kid = kid
	}
}

// NewSigner returns a Signer for "alg" and "key".
//
// Accepted keys per family:
//   - HMAC: []byte or string, non-empty
//   - RSA: *rsa.PrivateKey or *rsa.PublicKey
//   - ECDSA: *ecdsa.PrivateKey or *ecdsa.PublicKey on the algorithm's curve
//
// NONE is refused, use NewUnsecuredSigner.
func NewSigner(alg Alg, key any, opts ...SignerOption) (*Signer, error) {
	if alg == nil {
		return nil, fmt.Errorf("%w: nil algorithm", ErrInvalidKey)
	}

	s := &Signer{alg: alg}

	switch alg.Family() {
	case FamilyNone:
		return nil, ErrUnsecuredSigner
	case FamilyHMAC:
		secret, err := hmacSecret(key)
		if err != nil {
			return nil, err
		}
		s.private, s.public = secret, secret
	case FamilyRSA:
		switch k := key.(type) {
		case *rsa.PrivateKey:
			s.private, s.public = k, &k.PublicKey
		case *rsa.PublicKey:
			s.public = k
		default:
			return nil, fmt.Errorf("%w: %s expects an RSA key but got %T", ErrInvalidKey, alg.Name(), key)
		}
	case FamilyECDSA:
		ec := alg.(*algECDSA)
		switch k := key.(type) {
		case *ecdsa.PrivateKey:
			if !ec.onCurve(&k.PublicKey) {
				return nil, fmt.Errorf("%w: %s expects curve %s", ErrInvalidKey, alg.Name(), ec.curve().Params().Name)
			}
			s.private, s.public = k, &k.PublicKey
		case *ecdsa.PublicKey:
			if !ec.onCurve(k) {
				return nil, fmt.Errorf("%w: %s expects curve %s", ErrInvalidKey, alg.Name(), ec.curve().Params().Name)
			}
			s.public = k
		default:
			return nil, fmt.Errorf("%w: %s expects an ECDSA key but got %T", ErrInvalidKey, alg.Name(), key)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm family %s", ErrInvalidKey, alg.Family())
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// MustSigner is like NewSigner but it panics on error.
// Intended for package-level variables and tests.
func MustSigner(alg Alg, key any, opts ...SignerOption) *Signer {
	s, err := NewSigner(alg, key, opts...)
	if err != nil {
		panic(err)
	}

	return s
}

// NewUnsecuredSigner returns the "none" Signer. Its tokens carry an empty
// signature. A Signers registry refuses it, and refuses "none" tokens,
// unless Signers.AllowUnsecured(true) was called.
func NewUnsecuredSigner() *Signer {
	return &Signer{alg: NONE}
}

// Name returns the algorithm identifier, e.g. "RS256".
func (s *Signer) Name() string { return s.alg.Name() }

// Alg returns the bound algorithm.
func (s *Signer) Alg() Alg { return s.alg }

// KeyID returns the key identifier, if any.
func (s *Signer) KeyID() string { return s.kid }

// CanSign reports whether the Signer holds signing material.
func (s *Signer) CanSign() bool {
	return s.alg.Family() == FamilyNone || s.private != nil
}

// PublicKey returns the verification key. For HMAC it is the shared secret.
func (s *Signer) PublicKey() PublicKey { return s.public }

// SignToken serializes "header" and "payload", signs the signing input and
// returns the resulting Token. The header's "alg" is always overridden
// with the Signer's name, "typ" defaults to "JWT" and "kid" to KeyID.
//
// The payload is encoded with encoding/json unless it is already
// a []byte or json.RawMessage holding a JSON document.
func (s *Signer) SignToken(header Header, payload any) (*Token, error) {
	if !s.CanSign() {
		if s.alg.Family() == FamilyRSA || s.alg.Family() == FamilyECDSA {
			return nil, ErrPrivateKeyRequired
		}

		return nil, ErrCannotSign
	}

	header.Alg = s.alg.Name()
	if header.Typ == "" {
		header.Typ = "JWT"
	}
	if header.Kid == "" {
		header.Kid = s.kid
	}

	headerJSON, err := Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	payloadJSON, err := Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}

	t := newToken(header, headerJSON, payloadJSON)
	signature, err := s.alg.Sign(s.private, t.SigningInput())
	if err != nil {
		return nil, err
	}

	return t.withSignature(signature), nil
}

// VerifyToken checks that the token header names this Signer's algorithm
// and that its signature is valid for the token's signing input.
//
// A header algorithm mismatch fails with ErrWrongAlgorithm before any
// cryptographic work; a bad signature fails with an error wrapping ErrTokenSignature.
func (s *Signer) VerifyToken(t *Token) error {
	if t.parsed.Alg != s.alg.Name() {
		return fmt.Errorf("%w: %q, expected %q", ErrWrongAlgorithm, t.parsed.Alg, s.alg.Name())
	}

	return s.alg.Verify(s.public, t.SigningInput(), t.Signature())
}

// String returns a short description, never the key material.
func (s *Signer) String() string {
	if s.kid == "" {
		return s.alg.Name()
	}

	return s.alg.Name() + "(" + s.kid + ")"
}
