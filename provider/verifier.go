// Package provider verifies ID tokens issued by well-known identity
// providers against their published key sets.
//
// A Verifier fetches the issuer's key set through a keyset.Cache, checks
// the token signature with the registry built from it, and only then
// checks the issuer, the audience and the token lifetime.
//
//	cache := keyset.New(nil, keyset.WithTimeout(5*time.Second))
//	google := provider.Google(cache, "my-client-id.apps.googleusercontent.com", "")
//	token, err := google.Verify(ctx, rawIDToken)
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jwtkit/jwt"
	"github.com/jwtkit/jwt/keyset"
	"github.com/jwtkit/jwt/logx"

	"golang.org/x/oauth2"
)

// DefaultLeeway is the clock skew accepted on "exp", "nbf" and "iat"
// when Verifier.Leeway is zero.
const DefaultLeeway = time.Minute

// ErrMissingIDToken is returned by VerifyOAuth2Token for a token response
// without an "id_token".
var ErrMissingIDToken = errors.New("provider: oauth2 token has no id_token")

// Verifier verifies the ID tokens of one issuer.
type Verifier struct {
	// Name is used in logs and errors, e.g. "google".
	Name string
	// JWKSURL is where the issuer publishes its key set.
	JWKSURL string
	// Issuers lists the accepted "iss" values. Empty accepts any issuer,
	// then Validate must check it.
	Issuers []string
	// Audience lists the accepted "aud" values, usually the client ID.
	// Empty skips the audience check.
	Audience []string
	// Leeway is the accepted clock skew, DefaultLeeway when zero.
	Leeway time.Duration
	// Claims are extra checks run after the standard ones.
	Claims []jwt.Claim
	// Validate, if not nil, runs last on the decoded token.
	Validate func(*IdentityToken) error
	// ImportOptions control how the key set becomes a registry, the
	// Cache's defaults when empty.
	ImportOptions []jwt.ImportOption

	Cache  *keyset.Cache
	Logger logx.Logger

	mu         sync.Mutex
	signers    *jwt.Signers
	signersFor *jwt.JWKS
}

func (v *Verifier) log() logx.Logger {
	return logx.Or(v.Logger)
}

func (v *Verifier) registry(ctx context.Context) (*jwt.Signers, error) {
	if len(v.ImportOptions) == 0 {
		return v.Cache.Signers(ctx, v.JWKSURL)
	}

	set, err := v.Cache.Get(ctx, v.JWKSURL)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.signers != nil && v.signersFor == set {
		return v.signers, nil
	}

	signers, err := set.Signers(v.ImportOptions...)
	if err != nil {
		return nil, err
	}

	v.signers, v.signersFor = signers, set
	return signers, nil
}

func (v *Verifier) claims() []jwt.Claim {
	leeway := v.Leeway
	if leeway == 0 {
		leeway = DefaultLeeway
	}

	claims := []jwt.Claim{
		jwt.ExpiryClaim(leeway),
		jwt.Optional(jwt.NotBeforeClaim(leeway)),
		jwt.Optional(jwt.IssuedAtClaim(leeway)),
	}

	if len(v.Issuers) > 0 {
		claims = append(claims, issuerIn(v.Issuers))
	}

	if len(v.Audience) > 0 {
		claims = append(claims, jwt.AudienceClaim(v.Audience...))
	}

	return append(claims, v.Claims...)
}

// issuerIn accepts any of the given "iss" values.
func issuerIn(issuers []string) jwt.Claim {
	return jwt.CustomClaim("iss", func(raw json.RawMessage) error {
		var iss string
		if err := json.Unmarshal(raw, &iss); err != nil {
			return err
		}

		for _, accepted := range issuers {
			if iss == accepted {
				return nil
			}
		}

		return errors.New("value mismatch")
	})
}

// Verify verifies "token" and returns its decoded payload.
func (v *Verifier) Verify(ctx context.Context, token string) (*IdentityToken, error) {
	var idToken IdentityToken
	if _, err := v.VerifyInto(ctx, token, &idToken); err != nil {
		return nil, err
	}

	return &idToken, nil
}

// VerifyInto is like Verify but decodes the payload into "dest",
// which is expected to embed IdentityToken when Validate is set.
func (v *Verifier) VerifyInto(ctx context.Context, token string, dest any) (*jwt.VerifiedToken, error) {
	signers, err := v.registry(ctx)
	if err != nil {
		v.log().Warn("key set unavailable", "provider", v.Name, "uri", v.JWKSURL, "error", err)
		return nil, fmt.Errorf("provider %s: %w", v.Name, err)
	}

	verified, err := jwt.Verify(signers, []byte(token), dest, v.claims()...)
	if err != nil {
		v.log().Debug("id token rejected", "provider", v.Name, "error", err)
		return nil, fmt.Errorf("provider %s: %w", v.Name, err)
	}

	if v.Validate != nil {
		var idToken IdentityToken
		if err = verified.Claims(&idToken); err != nil {
			return nil, fmt.Errorf("provider %s: %w", v.Name, err)
		}

		if err = v.Validate(&idToken); err != nil {
			v.log().Debug("id token rejected", "provider", v.Name, "error", err)
			return nil, fmt.Errorf("provider %s: %w", v.Name, err)
		}
	}

	return verified, nil
}

// VerifyOAuth2Token verifies the "id_token" of an OAuth2 token response.
func (v *Verifier) VerifyOAuth2Token(ctx context.Context, token *oauth2.Token) (*IdentityToken, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, ErrMissingIDToken
	}

	return v.Verify(ctx, rawIDToken)
}
