package jwt

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

type algRSA struct {
	name   string
	hasher crypto.Hash
}

func (a *algRSA) Name() string {
	return a.name
}

func (a *algRSA) Family() Family { return FamilyRSA }

func (a *algRSA) sealed() {}

func (a *algRSA) Sign(key PrivateKey, headerAndPayload []byte) ([]byte, error) {
	privateKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		if _, isPublic := key.(*rsa.PublicKey); isPublic {
			return nil, ErrPrivateKeyRequired
		}

		return nil, ErrInvalidKey
	}

	h := a.hasher.New()
	// header.payload
	_, err := h.Write(headerAndPayload)
	if err != nil {
		return nil, err
	}

	hashed := h.Sum(nil)
	return rsa.SignPKCS1v15(rand.Reader, privateKey, a.hasher, hashed)
}

func (a *algRSA) Verify(key PublicKey, headerAndPayload []byte, signature []byte) error {
	publicKey, ok := key.(*rsa.PublicKey)
	if !ok {
		if privateKey, ok := key.(*rsa.PrivateKey); ok {
			publicKey = &privateKey.PublicKey
		} else {
			return ErrInvalidKey
		}
	}

	h := a.hasher.New()
	// header.payload
	_, err := h.Write(headerAndPayload)
	if err != nil {
		return err
	}

	hashed := h.Sum(nil)
	if err = rsa.VerifyPKCS1v15(publicKey, a.hasher, hashed, signature); err != nil {
		return fmt.Errorf("%w: %v", ErrTokenSignature, err)
	}

	return nil
}

// Key Helpers.

// LoadPrivateKeyRSA accepts a file path of a PEM-encoded RSA private key
// and returns the RSA private key Go value.
func LoadPrivateKeyRSA(filename string) (*rsa.PrivateKey, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return ParsePrivateKeyRSA(b)
}

// LoadPublicKeyRSA accepts a file path of a PEM-encoded RSA public key
// (or certificate) and returns the RSA public key Go value.
func LoadPublicKeyRSA(filename string) (*rsa.PublicKey, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return ParsePublicKeyRSA(b)
}

// ParsePrivateKeyRSA decodes and parses the
// PEM-encoded RSA private key's raw contents.
// PKCS #1 and PKCS #8 blocks are accepted.
func ParsePrivateKeyRSA(key []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(key)
	if block == nil {
		return nil, fmt.Errorf("private key: malformed or missing PEM format (RSA)")
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		parsed, pkcs8Err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if pkcs8Err != nil {
			return nil, fmt.Errorf("private key: %w", err)
		}

		pKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key: expected a type of *rsa.PrivateKey but got %T", parsed)
		}

		privateKey = pKey
	}

	return privateKey, nil
}

// ParsePublicKeyRSA decodes and parses the
// PEM-encoded RSA public key's raw contents.
// A PKIX public key block or an X.509 certificate is accepted,
// the latter is how several identity providers publish their keys.
func ParsePublicKeyRSA(key []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(key)
	if block == nil {
		return nil, fmt.Errorf("public key: malformed or missing PEM format (RSA)")
	}

	parsedKey, err := parsePublicKeyBlock(block.Bytes)
	if err != nil {
		return nil, err
	}

	publicKey, ok := parsedKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key: expected a type of *rsa.PublicKey but got %T", parsedKey)
	}

	return publicKey, nil
}

func parsePublicKeyBlock(der []byte) (any, error) {
	parsedKey, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		cert, certErr := x509.ParseCertificate(der)
		if certErr != nil {
			return nil, fmt.Errorf("public key: %w", err)
		}

		parsedKey = cert.PublicKey
	}

	return parsedKey, nil
}
