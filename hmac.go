package jwt

import (
	"crypto"
	"crypto/hmac"
	_ "crypto/sha256" // ignore:lint
	_ "crypto/sha512"
	"os"
)

type algHMAC struct {
	name   string
	hasher crypto.Hash
}

func (a *algHMAC) Name() string {
	return a.name
}

func (a *algHMAC) Family() Family { return FamilyHMAC }

func (a *algHMAC) sealed() {}

func (a *algHMAC) Sign(key PrivateKey, headerAndPayload []byte) ([]byte, error) {
	secret, err := hmacSecret(key)
	if err != nil {
		return nil, err
	}

	h := hmac.New(a.hasher.New, secret)
	// header.payload
	_, err = h.Write(headerAndPayload)
	if err != nil {
		return nil, err // this should never happen according to the internal docs.
	}

	return h.Sum(nil), nil
}

func (a *algHMAC) Verify(key PublicKey, headerAndPayload []byte, signature []byte) error {
	expectedSignature, err := a.Sign(key, headerAndPayload)
	if err != nil {
		return err
	}

	if !hmac.Equal(expectedSignature, signature) {
		return ErrTokenSignature
	}

	return nil
}

func hmacSecret(key any) ([]byte, error) {
	var secret []byte
	switch k := key.(type) {
	case []byte:
		secret = k
	case string:
		secret = []byte(k)
	default:
		return nil, ErrInvalidKey
	}

	if len(secret) == 0 {
		return nil, ErrInvalidKey
	}

	return secret, nil
}

// Key Helper.

// LoadHMAC accepts a filename or the raw shared secret.
// When a regular file exists at "filenameOrRaw" its contents are the key,
// otherwise the argument itself is.
// Pass the returned value to NewSigner with one of HS256, HS384 or HS512.
func LoadHMAC(filenameOrRaw string) ([]byte, error) {
	if fileExists(filenameOrRaw) {
		// load contents from file.
		return os.ReadFile(filenameOrRaw)
	}

	// otherwise just cast the argument to []byte
	return []byte(filenameOrRaw), nil
}

// fileExists tries to report whether the local physical "path" exists and it's not a directory.
func fileExists(path string) bool {
	f, err := os.Stat(path)
	if err != nil {
		return false
	}

	return !f.IsDir()
}
