package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jwtkit/jwt"
	"github.com/jwtkit/jwt/keyset"
)

// |=========================================================================|
// | Amazon's AWS Cognito integration for token validation and verification. |
// |=========================================================================|

// CognitoError represents an error response from AWS Cognito.
// It implements the error interface.
type CognitoError struct {
	StatusCode int
	Message    string `json:"message"`
}

// Error returns the error message.
func (e CognitoError) Error() string {
	return fmt.Sprintf("cognito: %d: %s", e.StatusCode, e.Message)
}

// CognitoConfiguration identifies a Cognito user pool.
type CognitoConfiguration struct {
	Region     string `json:"region"`       // e.g. "us-west-2"
	UserPoolID string `json:"user_pool_id"` // e.g. "us-west-2_XXX"
	// ClientID is the app client the ID tokens are issued to.
	ClientID string `json:"client_id"`
}

// Issuer returns the "iss" of the user pool's tokens.
func (c CognitoConfiguration) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}

// JWKSURL returns the user pool's key set endpoint.
func (c CognitoConfiguration) JWKSURL() string {
	return c.Issuer() + "/.well-known/jwks.json"
}

// Cognito verifies the ID tokens of an AWS Cognito user pool.
// Access tokens carry no "aud", verify those with CognitoAccessTokens.
func Cognito(cache *keyset.Cache, config CognitoConfiguration) *Verifier {
	return &Verifier{
		Name:     "cognito",
		JWKSURL:  config.JWKSURL(),
		Issuers:  []string{config.Issuer()},
		Audience: audience(config.ClientID),
		Claims:   []jwt.Claim{tokenUse("id")},
		Cache:    cache,
	}
}

// CognitoAccessTokens verifies the access tokens of an AWS Cognito user pool.
// Their "client_id" claim must equal the configured ClientID, when set.
func CognitoAccessTokens(cache *keyset.Cache, config CognitoConfiguration) *Verifier {
	claims := []jwt.Claim{tokenUse("access")}
	if config.ClientID != "" {
		claims = append(claims, jwt.CustomClaim("client_id", func(raw json.RawMessage) error {
			var clientID string
			if err := json.Unmarshal(raw, &clientID); err != nil {
				return err
			}
			if clientID != config.ClientID {
				return errors.New("value mismatch")
			}
			return nil
		}))
	}

	return &Verifier{
		Name:    "cognito",
		JWKSURL: config.JWKSURL(),
		Issuers: []string{config.Issuer()},
		Claims:  claims,
		Cache:   cache,
	}
}

func tokenUse(use string) jwt.Claim {
	return jwt.CustomClaim("token_use", func(raw json.RawMessage) error {
		var got string
		if err := json.Unmarshal(raw, &got); err != nil {
			return err
		}
		if got != use {
			return fmt.Errorf("expected %q token", use)
		}
		return nil
	})
}

// FetchCognitoKeys fetches the user pool's key set through "cache".
// An error response of Cognito is returned as CognitoError.
func FetchCognitoKeys(ctx context.Context, cache *keyset.Cache, config CognitoConfiguration) (*jwt.Signers, error) {
	signers, err := cache.Signers(ctx, config.JWKSURL())
	if err != nil {
		var statusErr *keyset.StatusError
		if errors.As(err, &statusErr) {
			cognitoErr := CognitoError{StatusCode: statusErr.StatusCode}
			if jsonErr := json.Unmarshal(statusErr.Body, &cognitoErr); jsonErr == nil && cognitoErr.Message != "" {
				return nil, cognitoErr
			}
		}

		return nil, err
	}

	return signers, nil
}
