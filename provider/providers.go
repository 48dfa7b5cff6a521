package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jwtkit/jwt"
	"github.com/jwtkit/jwt/keyset"
)

// Key set endpoints of the built-in providers.
const (
	GoogleJWKSURL    = "https://www.googleapis.com/oauth2/v3/certs"
	AppleJWKSURL     = "https://appleid.apple.com/auth/keys"
	MicrosoftJWKSURL = "https://login.microsoftonline.com/common/discovery/v2.0/keys"
	FirebaseJWKSURL  = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

var (
	// ErrHostedDomain is returned when a Google ID token does not belong
	// to the expected Google Workspace domain.
	ErrHostedDomain = errors.New("provider: hosted domain mismatch")
	// ErrIssuer is returned when an issuer that depends on other claims
	// (Microsoft's tenant) does not match them.
	ErrIssuer = errors.New("provider: issuer mismatch")
	// ErrMissingSubject is returned for a Firebase token without a user.
	ErrMissingSubject = errors.New("provider: missing subject")
)

func audience(clientID string) []string {
	if clientID == "" {
		return nil
	}

	return []string{clientID}
}

// Google verifies Google Sign-In ID tokens issued to "clientID".
// A non-empty "hostedDomain" additionally requires the "hd" claim
// (Google Workspace domain) to equal it.
func Google(cache *keyset.Cache, clientID, hostedDomain string) *Verifier {
	v := &Verifier{
		Name:     "google",
		JWKSURL:  GoogleJWKSURL,
		Issuers:  []string{"accounts.google.com", "https://accounts.google.com"},
		Audience: audience(clientID),
		Cache:    cache,
	}

	if hostedDomain != "" {
		v.Validate = func(t *IdentityToken) error {
			if t.HostedDomain != hostedDomain {
				return fmt.Errorf("%w: %q", ErrHostedDomain, t.HostedDomain)
			}
			return nil
		}
	}

	return v
}

// Apple verifies Sign in with Apple ID tokens issued to "clientID"
// (the app's bundle identifier or the services ID).
func Apple(cache *keyset.Cache, clientID string) *Verifier {
	return &Verifier{
		Name:     "apple",
		JWKSURL:  AppleJWKSURL,
		Issuers:  []string{"https://appleid.apple.com"},
		Audience: audience(clientID),
		Cache:    cache,
	}
}

// Microsoft verifies Microsoft identity platform (v2.0) ID tokens issued
// to "clientID". With an empty "tenantID" tokens of any tenant are
// accepted, the issuer must then match the token's own "tid".
//
// The v2.0 key set publishes RSA keys without "alg", they are read as RS256.
func Microsoft(cache *keyset.Cache, clientID, tenantID string) *Verifier {
	v := &Verifier{
		Name:     "microsoft",
		JWKSURL:  MicrosoftJWKSURL,
		Audience: audience(clientID),
		Cache:    cache,
		ImportOptions: []jwt.ImportOption{
			jwt.DefaultAlgorithm(jwt.RS256),
			jwt.SkipInvalidKeys(nil),
		},
	}

	switch tenantID {
	case "", "common", "organizations", "consumers":
		v.Validate = func(t *IdentityToken) error {
			if t.TenantID == "" || t.Issuer != microsoftIssuer(t.TenantID) {
				return fmt.Errorf("%w: %q for tenant %q", ErrIssuer, t.Issuer, t.TenantID)
			}
			return nil
		}
	default:
		v.Issuers = []string{microsoftIssuer(tenantID)}
	}

	return v
}

func microsoftIssuer(tenantID string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/v2.0"
}

// Firebase verifies Firebase Authentication ID tokens of "projectID".
func Firebase(cache *keyset.Cache, projectID string) *Verifier {
	return &Verifier{
		Name:     "firebase",
		JWKSURL:  FirebaseJWKSURL,
		Issuers:  []string{"https://securetoken.google.com/" + projectID},
		Audience: audience(projectID),
		Claims: []jwt.Claim{
			jwt.CustomClaim("sub", func(raw json.RawMessage) error {
				var sub string
				if err := json.Unmarshal(raw, &sub); err != nil {
					return err
				}
				if strings.TrimSpace(sub) == "" {
					return ErrMissingSubject
				}
				return nil
			}),
		},
		Cache: cache,
	}
}

// OIDC verifies the ID tokens of any OpenID Connect "issuer" publishing
// its key set at "jwksURL".
func OIDC(cache *keyset.Cache, issuer, jwksURL, clientID string) *Verifier {
	return &Verifier{
		Name:     issuer,
		JWKSURL:  jwksURL,
		Issuers:  []string{issuer},
		Audience: audience(clientID),
		Cache:    cache,
	}
}
