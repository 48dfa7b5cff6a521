package jwt

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrMissing indicates that a given token to Verify is empty.
var ErrMissing = errors.New("jwt: token is empty")

// TokenVerifier checks the signature of a parsed token.
// *Signer and *Signers implement it.
type TokenVerifier interface {
	VerifyToken(t *Token) error
}

// VerifiedToken holds the information about a verified token.
// Look Verify for more.
type VerifiedToken struct {
	Token          *Token
	Header         Header
	Payload        []byte // decoded payload, trusted.
	StandardClaims Claims
}

// Claims decodes the verified payload into "dest".
// It can be called more than once, e.g. for multiple destination types.
func (t *VerifiedToken) Claims(dest any) error {
	if err := Unmarshal(t.Payload, dest); err != nil {
		return err
	}

	return meetRequirements(reflect.ValueOf(dest))
}

// Verify parses "token", verifies its signature with "v" and only then
// checks its claims at Clock() time. When "dest" is not nil the payload
// is decoded into it; struct fields tagged `json:",required"` must be
// non-zero afterwards.
//
// Signature errors wrap ErrTokenSignature (or ErrWrongAlgorithm,
// ErrUnknownKID, ErrUnsecuredToken), parse errors wrap ErrMalformedToken,
// claim errors are *MissingClaimError or *ClaimError.
//
// Example Code:
//
//	var claims struct {
//	    Name  string `json:"name"`
//	    Admin bool   `json:"admin"`
//	}
//	verifiedToken, err := jwt.Verify(signer, token, &claims,
//	    jwt.IssuerClaim("https://issuer.example"), jwt.ExpiryClaim(30*time.Second))
func Verify(v TokenVerifier, token []byte, dest any, claims ...Claim) (*VerifiedToken, error) {
	if len(token) == 0 {
		return nil, ErrMissing
	}

	t, err := Parse(token)
	if err != nil {
		return nil, err
	}

	if err = v.VerifyToken(t); err != nil {
		return nil, err
	}

	// claims are trusted from here on.
	payload := t.UnverifiedPayload()
	if err = VerifyClaims(payload, Clock(), claims...); err != nil {
		return nil, err
	}

	verifiedToken := &VerifiedToken{
		Token:   t,
		Header:  t.Header(),
		Payload: payload,
	}

	if err = Unmarshal(payload, &verifiedToken.StandardClaims); err != nil {
		return nil, fmt.Errorf("%w: standard claims: %v", ErrMalformedToken, err)
	}

	if dest != nil {
		if err = verifiedToken.Claims(dest); err != nil {
			return nil, err
		}
	}

	return verifiedToken, nil
}
