package jwt

import (
	"encoding/json"
	"fmt"
	"time"
)

// The time claims compare seconds since epoch. Leeway widens acceptance
// in both directions: an expired token is still accepted for "leeway"
// after its "exp", a token is already accepted "leeway" before its "nbf".

type timeClaim struct {
	name   string
	leeway int64 // seconds.
	check  func(value, leeway, now int64) error
}

func (c *timeClaim) Name() string { return c.name }

func (c *timeClaim) Verify(raw json.RawMessage, now time.Time) error {
	var value NumericDate
	if err := json.Unmarshal(raw, &value); err != nil {
		return &ClaimError{Name: c.name, Reason: "invalid value: " + err.Error()}
	}

	return c.check(int64(value), c.leeway, now.Unix())
}

func leewaySeconds(leeway time.Duration) int64 {
	if leeway < 0 {
		return 0
	}

	return int64(leeway / time.Second)
}

// ExpiryClaim returns the "exp" claim check.
//
// The token is valid while exp + leeway >= now.
//
// Example:
//
//	// Accept tokens expired up to 30 seconds ago.
//	verifiedToken, err := jwt.Verify(signers, token, &dest, jwt.ExpiryClaim(30*time.Second))
func ExpiryClaim(leeway time.Duration) Claim {
	return &timeClaim{
		name:   "exp",
		leeway: leewaySeconds(leeway),
		check: func(exp, leeway, now int64) error {
			// exp + leeway < now, written so it cannot overflow.
			if exp < now-leeway {
				return &ClaimError{Name: "exp", Reason: fmt.Sprintf("expired at %d", exp+leeway), Err: ErrExpired}
			}

			return nil
		},
	}
}

// NotBeforeClaim returns the "nbf" claim check.
//
// The token is valid once nbf - leeway <= now.
func NotBeforeClaim(leeway time.Duration) Claim {
	return &timeClaim{
		name:   "nbf",
		leeway: leewaySeconds(leeway),
		check: func(nbf, leeway, now int64) error {
			if nbf > now+leeway {
				return &ClaimError{Name: "nbf", Reason: fmt.Sprintf("too soon, valid from %d", nbf-leeway), Err: ErrNotValidYet}
			}

			return nil
		},
	}
}

// IssuedAtClaim returns the "iat" claim check.
// It rejects tokens issued in the future, beyond the accepted clock skew:
// the token is valid once iat - leeway <= now.
func IssuedAtClaim(leeway time.Duration) Claim {
	return &timeClaim{
		name:   "iat",
		leeway: leewaySeconds(leeway),
		check: func(iat, leeway, now int64) error {
			if iat > now+leeway {
				return &ClaimError{Name: "iat", Reason: fmt.Sprintf("too soon, issued at %d", iat), Err: ErrIssuedInTheFuture}
			}

			return nil
		},
	}
}

// Leeway returns the "exp" and "nbf" checks sharing the same leeway.
// Spread the result into Verify:
//
//	jwt.Verify(signers, token, &dest, jwt.Leeway(time.Minute)...)
func Leeway(leeway time.Duration) []Claim {
	return []Claim{ExpiryClaim(leeway), NotBeforeClaim(leeway)}
}
