package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingKeyIdentifier is returned while importing a key set with
// RequireKeyIDs when one of its keys has no "kid".
var ErrMissingKeyIdentifier = errors.New("jwt: missing JWK key identifier")

// JWKS is a JSON Web Key Set.
type JWKS struct {
	Keys []*JWK `json:"keys"`
}

// ParseJWKS decodes a key set document. The "keys" member is required;
// the individual keys are checked when they are imported, see JWKS.Signers.
func ParseJWKS(data []byte) (*JWKS, error) {
	var doc struct {
		Keys *[]*JWK `json:"keys"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: key set: %v", ErrInvalidJWK, err)
	}

	if doc.Keys == nil {
		return nil, fmt.Errorf("%w: key set: missing \"keys\"", ErrInvalidJWK)
	}

	keys := make([]*JWK, 0, len(*doc.Keys))
	for _, k := range *doc.Keys {
		if k != nil {
			keys = append(keys, k)
		}
	}

	return &JWKS{Keys: keys}, nil
}

// Get returns the key with the given "kid".
func (set *JWKS) Get(kid string) (*JWK, bool) {
	for _, k := range set.Keys {
		if k.Kid == kid {
			return k, true
		}
	}

	return nil, false
}

type importOptions struct {
	requireKeyIDs bool
	skipInvalid   bool
	onInvalid     func(jwk *JWK, err error)
	defaultAlg    Alg
}

// DefaultAlgorithm fills in "alg" for keys published without one.
// Some issuers (e.g. Microsoft's common endpoint) omit it from RSA keys.
// Keys whose type does not fit "alg" are still refused.
func DefaultAlgorithm(alg Alg) ImportOption {
	return func(o *importOptions) {
		o.defaultAlg = alg
	}
}

// ImportOption configures JWKS.Signers.
type ImportOption func(*importOptions)

// RequireKeyIDs makes a key without "kid" an import error
// (ErrMissingKeyIdentifier) instead of silently skipping it.
func RequireKeyIDs() ImportOption {
	return func(o *importOptions) {
		o.requireKeyIDs = true
	}
}

// SkipInvalidKeys skips keys that cannot be imported instead of failing
// the whole import. "report", if not nil, is called for each skipped key.
func SkipInvalidKeys(report func(jwk *JWK, err error)) ImportOption {
	return func(o *importOptions) {
		o.skipInvalid = true
		o.onInvalid = report
	}
}

// Signers imports every key of the set into a new registry, keyed by "kid".
//
// Keys without "kid" are skipped unless RequireKeyIDs is given.
// The first key that fails to import aborts the whole import unless
// SkipInvalidKeys is given. Two keys sharing a "kid" are an import error.
func (set *JWKS) Signers(opts ...ImportOption) (*Signers, error) {
	var o importOptions
	for _, opt := range opts {
		opt(&o)
	}

	signers := NewSigners()
	for i, k := range set.Keys {
		signer, err := importKey(k, &o, signers)
		if err != nil {
			if o.skipInvalid {
				if o.onInvalid != nil {
					o.onInvalid(k, err)
				}
				continue
			}

			return nil, fmt.Errorf("key #%d (kid %q): %w", i, k.Kid, err)
		}

		if signer == nil {
			continue // anonymous.
		}

		if err = signers.Add(k.Kid, signer); err != nil {
			return nil, err
		}
	}

	return signers, nil
}

func importKey(k *JWK, o *importOptions, signers *Signers) (*Signer, error) {
	if k.Kid == "" {
		if o.requireKeyIDs {
			return nil, ErrMissingKeyIdentifier
		}

		return nil, nil
	}

	if _, exists := signers.Get(k.Kid); exists {
		return nil, fmt.Errorf("%w: duplicate kid", ErrInvalidJWK)
	}

	if k.Alg == "" && o.defaultAlg != nil && k.Kty != "EC" {
		withAlg := *k
		withAlg.Alg = o.defaultAlg.Name()
		return BuildSigner(&withAlg)
	}

	return BuildSigner(k)
}

// NewJWKS exports the public keys of "signers" as a key set.
// Every Signer must be asymmetric.
func NewJWKS(signers ...*Signer) (*JWKS, error) {
	set := &JWKS{Keys: make([]*JWK, 0, len(signers))}
	for _, s := range signers {
		jwk, err := s.JWK()
		if err != nil {
			return nil, err
		}

		set.Keys = append(set.Keys, jwk)
	}

	return set, nil
}

// JWKS exports the registered asymmetric Signers as a key set,
// in key identifier order. HMAC Signers are left out.
func (s *Signers) JWKS() *JWKS {
	set := &JWKS{Keys: []*JWK{}}
	for _, kid := range s.KeyIDs() {
		signer, ok := s.Get(kid)
		if !ok {
			continue
		}

		jwk, err := signer.JWK()
		if err != nil {
			continue
		}

		jwk.Kid = kid
		set.Keys = append(set.Keys, jwk)
	}

	return set
}
