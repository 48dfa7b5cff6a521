package jwt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

var (
	// ErrMissingClaim indicates that a required claim is absent from the payload.
	// Use errors.As with *MissingClaimError to get its name.
	ErrMissingClaim = errors.New("jwt: missing claim")
	// ErrClaimVerification indicates that a claim is present but failed its check.
	// Use errors.As with *ClaimError to get its name and the reason.
	ErrClaimVerification = errors.New("jwt: claim verification failed")

	// ErrExpired indicates that token is used after expiry time indicated in "exp" claim.
	ErrExpired = errors.New("jwt: token expired")
	// ErrNotValidYet indicates that token is used before time indicated in "nbf" claim.
	ErrNotValidYet = errors.New("jwt: token not valid yet")
	// ErrIssuedInTheFuture indicates that the "iat" claim is in the future.
	ErrIssuedInTheFuture = errors.New("jwt: token issued in the future")
)

// MissingClaimError is returned when a claim the caller asked for
// does not exist in the payload, or exists with a null value.
type MissingClaimError struct {
	Name string
}

func (e *MissingClaimError) Error() string {
	return fmt.Sprintf("jwt: missing claim %q", e.Name)
}

// Unwrap returns ErrMissingClaim.
func (e *MissingClaimError) Unwrap() error { return ErrMissingClaim }

// ClaimError is returned when a claim is present but its value fails verification.
type ClaimError struct {
	// Name is the claim name, e.g. "exp".
	Name string
	// Reason is a human-readable description, e.g. "value mismatch"
	// or "expired at 1700000005".
	Reason string
	// Err is the underlying cause, if any (e.g. ErrExpired).
	Err error
}

func (e *ClaimError) Error() string {
	return fmt.Sprintf("jwt: claim %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrClaimVerification and, when set, the underlying cause.
func (e *ClaimError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrClaimVerification, e.Err}
	}

	return []error{ErrClaimVerification}
}

// NumericDate is a JSON numeric value representing
// the number of seconds from 1970-01-01T00:00:00Z UTC.
// Fractional values are accepted on decode and truncated.
type NumericDate int64

// NewNumericDate returns the seconds of "t".
func NewNumericDate(t time.Time) NumericDate {
	return NumericDate(t.Unix())
}

// Time returns the time.Time representation, the zero value for zero.
func (n NumericDate) Time() time.Time {
	if n == 0 {
		return time.Time{}
	}

	return time.Unix(int64(n), 0)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (n *NumericDate) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return fmt.Errorf("numeric date: expected a number but got %s", data)
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("numeric date: %w", err)
	}

	if v, err := num.Int64(); err == nil {
		*n = NumericDate(v)
		return nil
	}

	f, err := num.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("numeric date: invalid number %s", num)
	}

	// int64(f) is implementation-defined outside [-2^63, 2^63).
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return fmt.Errorf("numeric date: %s out of range", num)
	}

	*n = NumericDate(int64(f))
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (n NumericDate) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(n), 10), nil
}

// Audience represents the "aud" standard JWT claim.
// On the wire it is either a single string or an array of strings.
type Audience []string

// UnmarshalJSON implements the json.Unmarshaler interface.
func (aud *Audience) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*aud = Audience{s}
		return nil
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}

	*aud = values
	return nil
}

// Contains reports whether "value" is one of the audience members.
func (aud Audience) Contains(value string) bool {
	for _, v := range aud {
		if v == value {
			return true
		}
	}

	return false
}

// Claims holds the standard JWT claims (payload fields).
// Embed it into custom payload structs or pass it through WithClaims.
type Claims struct {
	// The opposite of the exp claim. The current time must be
	// equal to or later than this instant, minus the accepted leeway.
	NotBefore NumericDate `json:"nbf,omitempty"`
	// The instant at which this JWT was issued.
	IssuedAt NumericDate `json:"iat,omitempty"`
	// The instant after which this JWT is invalid, plus the accepted leeway.
	Expiry NumericDate `json:"exp,omitempty"`
	// A unique identifier for this JWT.
	ID string `json:"jti,omitempty"`
	// A string or URI that uniquely identifies the party that issued the JWT.
	Issuer string `json:"iss,omitempty"`
	// A string or URI that uniquely identifies the party
	// that this JWT carries information about.
	Subject string `json:"sub,omitempty"`
	// The intended recipients of this JWT.
	Audience Audience `json:"aud,omitempty"`
}

// Claim is a single payload member check.
//
// Name is the member name looked up in the payload (e.g. "iss").
// Verify receives the raw JSON value of that member and the reference
// time; a nil error means the claim holds.
type Claim interface {
	Name() string
	Verify(raw json.RawMessage, now time.Time) error
}

// VerifyClaims checks every claim against the JSON object "payload".
//
// A claim whose name is absent (or null) fails with *MissingClaimError,
// a claim whose check fails with *ClaimError. When "exp" or "nbf"
// are present in the payload but not listed, they are checked anyway
// with zero leeway.
//
// VerifyClaims must only be called after the token signature was verified,
// Verify does that in the right order.
func VerifyClaims(payload []byte, now time.Time, claims ...Claim) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(payload, &members); err != nil {
		return fmt.Errorf("%w: payload: %v", ErrMalformedToken, err)
	}

	listed := make(map[string]struct{}, len(claims))
	for _, c := range claims {
		listed[c.Name()] = struct{}{}
	}

	implicit := make([]Claim, 0, 2)
	for _, c := range []Claim{ExpiryClaim(0), NotBeforeClaim(0)} {
		if _, ok := listed[c.Name()]; ok {
			continue
		}
		if _, ok := members[c.Name()]; ok {
			implicit = append(implicit, c)
		}
	}

	for _, c := range append(implicit, claims...) {
		raw, ok := members[c.Name()]
		if !ok || bytes.Equal(raw, []byte("null")) {
			if _, isOptional := c.(*optionalClaim); isOptional {
				continue
			}

			return &MissingClaimError{Name: c.Name()}
		}

		if err := c.Verify(raw, now); err != nil {
			var claimErr *ClaimError
			if errors.As(err, &claimErr) {
				return claimErr
			}

			return &ClaimError{Name: c.Name(), Reason: err.Error(), Err: err}
		}
	}

	return nil
}

type customClaim struct {
	name  string
	check func(raw json.RawMessage) error
}

// CustomClaim returns a Claim that runs "check" against the raw JSON
// value of the "name" payload member. A nil error means the claim holds,
// otherwise the error text becomes the ClaimError reason.
func CustomClaim(name string, check func(raw json.RawMessage) error) Claim {
	return &customClaim{name: name, check: check}
}

func (c *customClaim) Name() string { return c.name }

func (c *customClaim) Verify(raw json.RawMessage, _ time.Time) error {
	return c.check(raw)
}

type optionalClaim struct {
	Claim
}

// Optional wraps "c" so that its absence from the payload is accepted.
// When present, the value is still checked.
//
//	jwt.Verify(signers, token, &dest, jwt.Optional(jwt.IssuedAtClaim(time.Minute)))
func Optional(c Claim) Claim {
	return &optionalClaim{Claim: c}
}
