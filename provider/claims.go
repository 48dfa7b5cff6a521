package provider

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jwtkit/jwt"
)

// IdentityToken is the payload of an OpenID Connect ID token, with the
// members Google, Apple, Microsoft, Firebase and Cognito add to it.
type IdentityToken struct {
	jwt.Claims

	AuthorizedParty string          `json:"azp,omitempty"`
	Nonce           string          `json:"nonce,omitempty"`
	AuthTime        jwt.NumericDate `json:"auth_time,omitempty"`
	AtHash          string          `json:"at_hash,omitempty"`

	Email             string `json:"email,omitempty"`
	EmailVerified     Bool   `json:"email_verified,omitempty"`
	Name              string `json:"name,omitempty"`
	GivenName         string `json:"given_name,omitempty"`
	FamilyName        string `json:"family_name,omitempty"`
	Picture           string `json:"picture,omitempty"`
	Locale            string `json:"locale,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`

	// Google Workspace hosted domain.
	HostedDomain string `json:"hd,omitempty"`
	// Apple.
	IsPrivateEmail Bool `json:"is_private_email,omitempty"`
	// Microsoft tenant and object identifiers.
	TenantID string `json:"tid,omitempty"`
	ObjectID string `json:"oid,omitempty"`
	// Firebase.
	UserID   string        `json:"user_id,omitempty"`
	Firebase *FirebaseInfo `json:"firebase,omitempty"`
	// Cognito.
	CognitoUsername string   `json:"cognito:username,omitempty"`
	CognitoGroups   []string `json:"cognito:groups,omitempty"`
	TokenUse        string   `json:"token_use,omitempty"`
}

// FirebaseInfo is the "firebase" member of a Firebase Authentication ID token.
type FirebaseInfo struct {
	Identities     map[string][]string `json:"identities,omitempty"`
	SignInProvider string              `json:"sign_in_provider,omitempty"`
	Tenant         string              `json:"tenant,omitempty"`
}

// Bool decodes a JSON boolean, or the "true"/"false" strings some issuers
// (Apple among them) send instead.
type Bool bool

// UnmarshalJSON implements the json.Unmarshaler interface.
func (b *Bool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch x := v.(type) {
	case bool:
		*b = Bool(x)
	case string:
		parsed, err := strconv.ParseBool(x)
		if err != nil {
			return fmt.Errorf("provider: invalid boolean %q", x)
		}
		*b = Bool(parsed)
	case nil:
		*b = false
	default:
		return fmt.Errorf("provider: invalid boolean %s", data)
	}

	return nil
}
