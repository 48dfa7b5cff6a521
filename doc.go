/*
Package jwt signs and verifies compact JSON Web Tokens (RFC 7519) with the
JSON Web Algorithms of RFC 7518 and imports JSON Web Keys (RFC 7517).

# Algorithms

The algorithm set is closed:
  - HMAC: HS256, HS384, HS512 (shared secret)
  - RSA: RS256, RS384, RS512 (RSASSA-PKCS1-v1_5)
  - ECDSA: ES256, ES384, ES512 (P-256, P-384, P-521, r||s signatures)
  - NONE: unsecured, refused unless explicitly allowed

ParseAlg maps a header "alg" to one of them and never returns NONE.

# Signing

A Signer binds one algorithm to one key:

	signer, err := jwt.NewSigner(jwt.HS256, []byte("secret"), jwt.WithKeyID("api"))
	token, err := signer.Sign(jwt.Map{"sub": "1234567890"}, jwt.MaxAge(15*time.Minute))

A Signer built from a public key only verifies; Sign fails with
ErrPrivateKeyRequired.

# Verifying

Verify parses the token, checks its signature and only then its claims:

	var claims struct {
	    jwt.Claims
	    Admin bool `json:"admin"`
	}
	verifiedToken, err := jwt.Verify(signer, token, &claims,
	    jwt.IssuerClaim("https://issuer.example"),
	    jwt.AudienceClaim("api"),
	    jwt.ExpiryClaim(30*time.Second))

"exp" and "nbf" are always checked when present, with zero leeway unless
ExpiryClaim or NotBeforeClaim are passed. Leeway widens acceptance: an
expired token is accepted for the leeway duration after its "exp".

The header "alg" must name the Signer's algorithm (ErrWrongAlgorithm),
so a token can never pick how it is verified.

# Key rotation

Signers is a registry keyed by "kid":

	signers := jwt.NewSigners()
	signers.Add("2024-01", oldSigner)
	signers.Add("2024-06", newSigner)
	verifiedToken, err := jwt.Verify(signers, token, &claims)

A token naming an unregistered "kid" fails with ErrUnknownKID. Tokens
without "kid" go to the default Signer or, without one, to every Signer in turn.

# JSON Web Keys

	set, err := jwt.ParseJWKS(body)
	signers, err := set.Signers(jwt.SkipInvalidKeys(nil))

See the keyset package for a cache of remote key sets and the provider
package for ready-made ID token verifiers.
*/
package jwt
