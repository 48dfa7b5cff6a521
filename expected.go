package jwt

import (
	"encoding/json"
	"time"
)

const reasonMismatch = "value mismatch"

type equalityClaim struct {
	name  string
	value string
}

func (c *equalityClaim) Name() string { return c.name }

func (c *equalityClaim) Verify(raw json.RawMessage, _ time.Time) error {
	var observed string
	if err := json.Unmarshal(raw, &observed); err != nil {
		return &ClaimError{Name: c.name, Reason: "invalid value: " + err.Error()}
	}

	if observed != c.value {
		return &ClaimError{Name: c.name, Reason: reasonMismatch}
	}

	return nil
}

// IssuerClaim returns a Claim requiring "iss" to equal "issuer".
func IssuerClaim(issuer string) Claim {
	return &equalityClaim{name: "iss", value: issuer}
}

// SubjectClaim returns a Claim requiring "sub" to equal "subject".
func SubjectClaim(subject string) Claim {
	return &equalityClaim{name: "sub", value: subject}
}

// IDClaim returns a Claim requiring "jti" to equal "id".
func IDClaim(id string) Claim {
	return &equalityClaim{name: "jti", value: id}
}

type audienceClaim struct {
	accepted Audience
}

// AudienceClaim returns a Claim that holds when the token's "aud"
// (a string or an array) shares at least one member with "accepted".
func AudienceClaim(accepted ...string) Claim {
	return &audienceClaim{accepted: accepted}
}

func (c *audienceClaim) Name() string { return "aud" }

func (c *audienceClaim) Verify(raw json.RawMessage, _ time.Time) error {
	var observed Audience
	if err := json.Unmarshal(raw, &observed); err != nil {
		return &ClaimError{Name: "aud", Reason: "invalid value: " + err.Error()}
	}

	for _, v := range observed {
		if c.accepted.Contains(v) {
			return nil
		}
	}

	return &ClaimError{Name: "aud", Reason: reasonMismatch}
}

// Expected groups the equality checks of the standard claims.
// Only non-zero fields are turned into claims.
//
// Example:
//
//	expected := jwt.Expected{
//	    Issuer:   "my-auth-service",
//	    Audience: jwt.Audience{"api", "web"},
//	}
//
//	verifiedToken, err := jwt.Verify(signers, token, &dest, expected.Claims()...)
type Expected struct {
	ID       string
	Issuer   string
	Subject  string
	Audience Audience
}

// Claims returns the claim checks for the non-zero fields of "e".
func (e Expected) Claims() []Claim {
	var claims []Claim
	if e.ID != "" {
		claims = append(claims, IDClaim(e.ID))
	}
	if e.Issuer != "" {
		claims = append(claims, IssuerClaim(e.Issuer))
	}
	if e.Subject != "" {
		claims = append(claims, SubjectClaim(e.Subject))
	}
	if len(e.Audience) > 0 {
		claims = append(claims, AudienceClaim(e.Audience...))
	}

	return claims
}
