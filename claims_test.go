package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestVerifyClaims(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name    string
		payload string
		claims  []Claim
		is      error
	}{
		{"empty", `{}`, nil, nil},
		{"implicit exp", `{"exp":1699999999}`, nil, ErrExpired},
		{"implicit exp at now", `{"exp":1700000000}`, nil, nil},
		{"implicit nbf", `{"nbf":1700000001}`, nil, ErrNotValidYet},
		{"listed exp replaces implicit", `{"exp":1699999990}`, []Claim{ExpiryClaim(10 * time.Second)}, nil},
		{"missing", `{}`, []Claim{ExpiryClaim(0)}, ErrMissingClaim},
		{"null is missing", `{"iss":null}`, []Claim{IssuerClaim("a")}, ErrMissingClaim},
		{"optional absent", `{}`, []Claim{Optional(IssuedAtClaim(0))}, nil},
		{"optional present", `{"iat":1700000060}`, []Claim{Optional(IssuedAtClaim(0))}, ErrIssuedInTheFuture},
		{"exp not a number", `{"exp":"soon"}`, nil, ErrClaimVerification},
		{"payload not object", `[1,2]`, nil, ErrMalformedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyClaims([]byte(tt.payload), now, tt.claims...)
			if tt.is == nil {
				if err != nil {
					t.Fatalf("expected nil error but got: %v", err)
				}
				return
			}

			if !errors.Is(err, tt.is) {
				t.Fatalf("expected error: %v but got: %v", tt.is, err)
			}
		})
	}
}

func TestVerifyClaimsErrorTypes(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	err := VerifyClaims([]byte(`{"sub":"alice"}`), now, IssuerClaim("https://issuer.example"))
	var missing *MissingClaimError
	if !errors.As(err, &missing) || missing.Name != "iss" {
		t.Fatalf("expected a missing claim error for iss but got: %v", err)
	}

	err = VerifyClaims([]byte(`{"exp":1699999995}`), now, ExpiryClaim(0))
	var claimErr *ClaimError
	if !errors.As(err, &claimErr) {
		t.Fatalf("expected a claim error but got: %v", err)
	}

	expected := &ClaimError{Name: "exp", Reason: "expired at 1699999995", Err: ErrExpired}
	if diff := cmp.Diff(expected, claimErr, cmp.Comparer(func(a, b error) bool { return errors.Is(a, b) })); diff != "" {
		t.Fatalf("claim error mismatch (-want +got):\n%s", diff)
	}

	if !errors.Is(err, ErrClaimVerification) || !errors.Is(err, ErrExpired) {
		t.Fatalf("expected the claim error to unwrap to both ErrClaimVerification and ErrExpired")
	}
}

func TestCustomClaim(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	admin := CustomClaim("role", func(raw json.RawMessage) error {
		var role string
		if err := json.Unmarshal(raw, &role); err != nil {
			return err
		}
		if role != "admin" {
			return fmt.Errorf("role %q is not allowed", role)
		}
		return nil
	})

	if err := VerifyClaims([]byte(`{"role":"admin"}`), now, admin); err != nil {
		t.Fatal(err)
	}

	err := VerifyClaims([]byte(`{"role":"guest"}`), now, admin)
	var claimErr *ClaimError
	if !errors.As(err, &claimErr) {
		t.Fatalf("expected a claim error but got: %v", err)
	}
	if expected, got := `role "guest" is not allowed`, claimErr.Reason; expected != got {
		t.Fatalf("expected reason: %q but got: %q", expected, got)
	}
}

func TestNumericDate(t *testing.T) {
	tests := []struct {
		input    string
		expected NumericDate
		fail     bool
	}{
		{`1700000000`, 1700000000, false},
		{`1700000000.75`, 1700000000, false},
		{`1.7e9`, 1700000000, false},
		{`"1700000000"`, 0, true},
		{`true`, 0, true},
		{`10000000000000000000`, 0, true},
		{`9.223372036854775807e18`, 0, true},
		{`1e300`, 0, true},
		{`-1e300`, 0, true},
		{`9223372036854775807`, math.MaxInt64, false},
	}

	for _, tt := range tests {
		var got NumericDate
		err := json.Unmarshal([]byte(tt.input), &got)
		if tt.fail {
			if err == nil {
				t.Fatalf("[%s] expected an error", tt.input)
			}
			continue
		}

		if err != nil {
			t.Fatalf("[%s] %v", tt.input, err)
		}
		if got != tt.expected {
			t.Fatalf("[%s] expected: %d but got: %d", tt.input, tt.expected, got)
		}
	}

	if !NumericDate(0).Time().IsZero() {
		t.Fatalf("expected the zero numeric date to be the zero time")
	}

	b, err := json.Marshal(Claims{Expiry: 1700000000})
	if err != nil {
		t.Fatal(err)
	}
	if expected, got := `{"exp":1700000000}`, string(b); expected != got {
		t.Fatalf("expected: %s but got: %s", expected, got)
	}
}

func TestAudience(t *testing.T) {
	var claims Claims
	if err := json.Unmarshal([]byte(`{"aud":"api"}`), &claims); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Audience{"api"}, claims.Audience); diff != "" {
		t.Fatalf("audience mismatch (-want +got):\n%s", diff)
	}

	if err := json.Unmarshal([]byte(`{"aud":["api","web"]}`), &claims); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Audience{"api", "web"}, claims.Audience); diff != "" {
		t.Fatalf("audience mismatch (-want +got):\n%s", diff)
	}

	if !claims.Audience.Contains("web") || claims.Audience.Contains("admin") {
		t.Fatalf("unexpected Contains results for %v", claims.Audience)
	}

	if err := json.Unmarshal([]byte(`{"aud":42}`), &claims); err == nil {
		t.Fatalf("expected an error for a numeric audience")
	}
}
