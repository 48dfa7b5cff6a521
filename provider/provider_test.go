package provider

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jwtkit/jwt"
	"github.com/jwtkit/jwt/keyset"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/oauth2"
)

type testIssuer struct {
	signers *jwt.Signers
	body    []byte
}

func newTestIssuer(t *testing.T, kid string) *testIssuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	signers := jwt.NewSigners()
	if err = signers.Add(kid, jwt.MustSigner(jwt.RS256, key, jwt.WithKeyID(kid))); err != nil {
		t.Fatal(err)
	}

	body, err := json.Marshal(signers.JWKS())
	if err != nil {
		t.Fatal(err)
	}

	return &testIssuer{signers: signers, body: body}
}

// cache serves the issuer's key set for every URI.
func (i *testIssuer) cache() *keyset.Cache {
	return keyset.New(keyset.FetcherFunc(func(context.Context, string, http.Header) (*keyset.Response, error) {
		header := http.Header{}
		header.Set("Cache-Control", "max-age=300")
		return &keyset.Response{StatusCode: http.StatusOK, Header: header, Body: i.body}, nil
	}))
}

func (i *testIssuer) sign(t *testing.T, kid string, claims any) string {
	t.Helper()

	token, err := i.signers.Sign(kid, claims)
	if err != nil {
		t.Fatal(err)
	}

	return string(token)
}

func googleClaims(now time.Time) jwt.Map {
	return jwt.Map{
		"iss":            "https://accounts.google.com",
		"aud":            "client-1",
		"sub":            "110169484474386276334",
		"email":          "gopher@example.com",
		"email_verified": true,
		"hd":             "example.com",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	}
}

func TestGoogle(t *testing.T) {
	issuer := newTestIssuer(t, "g1")
	now := time.Now()

	token, err := Google(issuer.cache(), "client-1", "example.com").Verify(context.Background(), issuer.sign(t, "g1", googleClaims(now)))
	if err != nil {
		t.Fatal(err)
	}

	if token.Subject != "110169484474386276334" {
		t.Fatalf("expected subject to be decoded but got: %q", token.Subject)
	}
	if !token.EmailVerified {
		t.Fatalf("expected verified email")
	}
	if diff := cmp.Diff(jwt.Audience{"client-1"}, token.Audience); diff != "" {
		t.Fatalf("audience mismatch (-want +got):\n%s", diff)
	}
}

func TestGoogleRejects(t *testing.T) {
	issuer := newTestIssuer(t, "g1")
	other := newTestIssuer(t, "g1")
	now := time.Now()

	with := func(key string, value any) jwt.Map {
		claims := googleClaims(now)
		if value == nil {
			delete(claims, key)
		} else {
			claims[key] = value
		}
		return claims
	}

	tests := []struct {
		name     string
		token    string
		verifier *Verifier
		is       error
	}{
		{
			name:     "wrong audience",
			token:    issuer.sign(t, "g1", with("aud", "client-2")),
			verifier: Google(issuer.cache(), "client-1", ""),
			is:       jwt.ErrClaimVerification,
		},
		{
			name:     "wrong issuer",
			token:    issuer.sign(t, "g1", with("iss", "https://evil.example")),
			verifier: Google(issuer.cache(), "client-1", ""),
			is:       jwt.ErrClaimVerification,
		},
		{
			name:     "hosted domain",
			token:    issuer.sign(t, "g1", with("hd", "other.com")),
			verifier: Google(issuer.cache(), "client-1", "example.com"),
			is:       ErrHostedDomain,
		},
		{
			name:     "expired beyond leeway",
			token:    issuer.sign(t, "g1", with("exp", now.Add(-2*time.Minute).Unix())),
			verifier: Google(issuer.cache(), "client-1", ""),
			is:       jwt.ErrExpired,
		},
		{
			name:     "missing exp",
			token:    issuer.sign(t, "g1", with("exp", nil)),
			verifier: Google(issuer.cache(), "client-1", ""),
			is:       jwt.ErrMissingClaim,
		},
		{
			name:     "foreign key",
			token:    other.sign(t, "g1", googleClaims(now)),
			verifier: Google(issuer.cache(), "client-1", ""),
			is:       jwt.ErrTokenSignature,
		},
		{
			name:     "unknown kid",
			token:    issuer.sign(t, "g1", googleClaims(now)),
			verifier: Google(newTestIssuer(t, "g2").cache(), "client-1", ""),
			is:       jwt.ErrUnknownKID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verifier.Verify(context.Background(), tt.token)
			if !errors.Is(err, tt.is) {
				t.Fatalf("expected error: %v but got: %v", tt.is, err)
			}
		})
	}
}

func TestVerifierLeeway(t *testing.T) {
	issuer := newTestIssuer(t, "g1")
	now := time.Now()

	claims := googleClaims(now)
	claims["exp"] = now.Add(-30 * time.Second).Unix()
	claims["nbf"] = now.Add(30 * time.Second).Unix()

	if _, err := Google(issuer.cache(), "client-1", "").Verify(context.Background(), issuer.sign(t, "g1", claims)); err != nil {
		t.Fatalf("expected token within the default leeway to pass but got: %v", err)
	}

	strict := Google(issuer.cache(), "client-1", "")
	strict.Leeway = time.Second
	if _, err := strict.Verify(context.Background(), issuer.sign(t, "g1", claims)); !errors.Is(err, jwt.ErrExpired) {
		t.Fatalf("expected error: %v but got: %v", jwt.ErrExpired, err)
	}
}

func TestMicrosoftCommonTenant(t *testing.T) {
	issuer := newTestIssuer(t, "m1")
	now := time.Now()

	claims := jwt.Map{
		"aud": "app-1",
		"tid": "9188040d-6c67-4c5b-b112-36a304b66dad",
		"iss": "https://login.microsoftonline.com/9188040d-6c67-4c5b-b112-36a304b66dad/v2.0",
		"exp": now.Add(time.Hour).Unix(),
	}

	v := Microsoft(issuer.cache(), "app-1", "")
	if _, err := v.Verify(context.Background(), issuer.sign(t, "m1", claims)); err != nil {
		t.Fatal(err)
	}

	claims["tid"] = "72f988bf-86f1-41af-91ab-2d7cd011db47"
	if _, err := v.Verify(context.Background(), issuer.sign(t, "m1", claims)); !errors.Is(err, ErrIssuer) {
		t.Fatalf("expected error: %v but got: %v", ErrIssuer, err)
	}
}

func TestMicrosoftKeysWithoutAlgorithm(t *testing.T) {
	issuer := newTestIssuer(t, "m1")

	var set struct {
		Keys []map[string]any `json:"keys"`
	}
	if err := json.Unmarshal(issuer.body, &set); err != nil {
		t.Fatal(err)
	}
	for _, k := range set.Keys {
		delete(k, "alg")
		k["issuer"] = "https://login.microsoftonline.com/{tenantid}/v2.0"
	}
	body, err := json.Marshal(set)
	if err != nil {
		t.Fatal(err)
	}
	issuer.body = body

	tenant := "9188040d-6c67-4c5b-b112-36a304b66dad"
	token := issuer.sign(t, "m1", jwt.Map{
		"aud": "app-1",
		"tid": tenant,
		"iss": microsoftIssuer(tenant),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err = Microsoft(issuer.cache(), "app-1", tenant).Verify(context.Background(), token); err != nil {
		t.Fatal(err)
	}

	// without a default the RSA keys cannot be imported.
	generic := OIDC(issuer.cache(), microsoftIssuer(tenant), MicrosoftJWKSURL, "app-1")
	if _, err = generic.Verify(context.Background(), token); !errors.Is(err, jwt.ErrUnknownKID) {
		t.Fatalf("expected error: %v but got: %v", jwt.ErrUnknownKID, err)
	}
}

func TestFirebase(t *testing.T) {
	issuer := newTestIssuer(t, "f1")
	now := time.Now()

	claims := jwt.Map{
		"iss":       "https://securetoken.google.com/my-project",
		"aud":       "my-project",
		"sub":       "uid-1",
		"user_id":   "uid-1",
		"auth_time": now.Add(-time.Minute).Unix(),
		"iat":       now.Unix(),
		"exp":       now.Add(time.Hour).Unix(),
		"firebase": jwt.Map{
			"identities":       jwt.Map{"email": []string{"gopher@example.com"}},
			"sign_in_provider": "password",
		},
	}

	v := Firebase(issuer.cache(), "my-project")
	token, err := v.Verify(context.Background(), issuer.sign(t, "f1", claims))
	if err != nil {
		t.Fatal(err)
	}

	expected := &FirebaseInfo{
		Identities:     map[string][]string{"email": {"gopher@example.com"}},
		SignInProvider: "password",
	}
	if diff := cmp.Diff(expected, token.Firebase); diff != "" {
		t.Fatalf("firebase mismatch (-want +got):\n%s", diff)
	}

	claims["sub"] = ""
	if _, err = v.Verify(context.Background(), issuer.sign(t, "f1", claims)); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected error: %v but got: %v", ErrMissingSubject, err)
	}
}

func TestAppleStringBooleans(t *testing.T) {
	issuer := newTestIssuer(t, "a1")

	token, err := Apple(issuer.cache(), "com.example.app").Verify(context.Background(), issuer.sign(t, "a1", jwt.Map{
		"iss":              "https://appleid.apple.com",
		"aud":              "com.example.app",
		"sub":              "001234.abc",
		"email_verified":   "true",
		"is_private_email": "false",
		"exp":              time.Now().Add(time.Hour).Unix(),
	}))
	if err != nil {
		t.Fatal(err)
	}

	if !token.EmailVerified || token.IsPrivateEmail {
		t.Fatalf("expected email_verified=true, is_private_email=false but got: %v, %v", token.EmailVerified, token.IsPrivateEmail)
	}
}

func TestCognito(t *testing.T) {
	issuer := newTestIssuer(t, "c1")
	config := CognitoConfiguration{Region: "us-west-2", UserPoolID: "us-west-2_abc", ClientID: "app-client"}

	if expected, got := "https://cognito-idp.us-west-2.amazonaws.com/us-west-2_abc/.well-known/jwks.json", config.JWKSURL(); expected != got {
		t.Fatalf("expected jwks url: %q but got: %q", expected, got)
	}

	exp := time.Now().Add(time.Hour).Unix()
	idToken := issuer.sign(t, "c1", jwt.Map{
		"iss":              config.Issuer(),
		"aud":              "app-client",
		"token_use":        "id",
		"cognito:username": "gopher",
		"cognito:groups":   []string{"admins"},
		"exp":              exp,
	})
	accessToken := issuer.sign(t, "c1", jwt.Map{
		"iss":       config.Issuer(),
		"client_id": "app-client",
		"token_use": "access",
		"exp":       exp,
	})

	token, err := Cognito(issuer.cache(), config).Verify(context.Background(), idToken)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"admins"}, token.CognitoGroups); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}

	if _, err = CognitoAccessTokens(issuer.cache(), config).Verify(context.Background(), accessToken); err != nil {
		t.Fatal(err)
	}

	if _, err = CognitoAccessTokens(issuer.cache(), config).Verify(context.Background(), idToken); !errors.Is(err, jwt.ErrClaimVerification) {
		t.Fatalf("expected an id token to be rejected as access token but got: %v", err)
	}
}

func TestFetchCognitoKeysError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"User pool us-west-2_abc does not exist."}`))
	}))
	defer srv.Close()

	config := CognitoConfiguration{Region: "us-west-2", UserPoolID: "us-west-2_abc"}
	cache := keyset.New(keyset.FetcherFunc(func(ctx context.Context, _ string, header http.Header) (*keyset.Response, error) {
		return (&keyset.HTTPFetcher{}).Fetch(ctx, srv.URL, header)
	}))

	_, err := FetchCognitoKeys(context.Background(), cache, config)
	var cognitoErr CognitoError
	if !errors.As(err, &cognitoErr) {
		t.Fatalf("expected a CognitoError but got: %v", err)
	}

	expected := CognitoError{StatusCode: http.StatusNotFound, Message: "User pool us-west-2_abc does not exist."}
	if diff := cmp.Diff(expected, cognitoErr); diff != "" {
		t.Fatalf("error mismatch (-want +got):\n%s", diff)
	}
}

func TestVerifyOAuth2Token(t *testing.T) {
	issuer := newTestIssuer(t, "g1")
	v := Google(issuer.cache(), "client-1", "")

	token := (&oauth2.Token{AccessToken: "access"}).WithExtra(map[string]any{
		"id_token": issuer.sign(t, "g1", googleClaims(time.Now())),
	})

	idToken, err := v.VerifyOAuth2Token(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	if idToken.Email != "gopher@example.com" {
		t.Fatalf("expected email to be decoded but got: %q", idToken.Email)
	}

	if _, err = v.VerifyOAuth2Token(context.Background(), &oauth2.Token{AccessToken: "access"}); !errors.Is(err, ErrMissingIDToken) {
		t.Fatalf("expected error: %v but got: %v", ErrMissingIDToken, err)
	}
}

func TestVerifierKeySetUnavailable(t *testing.T) {
	cache := keyset.New(keyset.FetcherFunc(func(context.Context, string, http.Header) (*keyset.Response, error) {
		return &keyset.Response{StatusCode: http.StatusServiceUnavailable}, nil
	}))

	_, err := OIDC(cache, "https://issuer.example", "https://issuer.example/jwks", "").Verify(context.Background(), "a.b.c")
	var statusErr *keyset.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected a 503 status error but got: %v", err)
	}
}
