package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
)

type algECDSA struct {
	name    string
	hasher  crypto.Hash
	keySize int // length of r and s, in bytes.
	curve   func() elliptic.Curve
}

func (a *algECDSA) Name() string {
	return a.name
}

func (a *algECDSA) Family() Family { return FamilyECDSA }

func (a *algECDSA) sealed() {}

func (a *algECDSA) onCurve(pub *ecdsa.PublicKey) bool {
	return pub.Curve != nil && pub.Curve.Params().Name == a.curve().Params().Name
}

func (a *algECDSA) Sign(key PrivateKey, headerAndPayload []byte) ([]byte, error) {
	privateKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		if _, isPublic := key.(*ecdsa.PublicKey); isPublic {
			return nil, ErrPrivateKeyRequired
		}

		return nil, ErrInvalidKey
	}

	if !a.onCurve(&privateKey.PublicKey) {
		return nil, ErrInvalidKey
	}

	h := a.hasher.New()
	// header.payload
	_, err := h.Write(headerAndPayload)
	if err != nil {
		return nil, err
	}

	hashed := h.Sum(nil)
	r, s, err := ecdsa.Sign(rand.Reader, privateKey, hashed)
	if err != nil {
		return nil, err
	}

	// r||s, each left-padded to the curve's byte length.
	signature := make([]byte, 2*a.keySize)
	r.FillBytes(signature[:a.keySize])
	s.FillBytes(signature[a.keySize:])
	return signature, nil
}

func (a *algECDSA) Verify(key PublicKey, headerAndPayload []byte, signature []byte) error {
	publicKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		if privateKey, ok := key.(*ecdsa.PrivateKey); ok {
			publicKey = &privateKey.PublicKey
		} else {
			return ErrInvalidKey
		}
	}

	if !a.onCurve(publicKey) {
		return ErrTokenSignature
	}

	if len(signature) != 2*a.keySize {
		return ErrTokenSignature
	}

	r := new(big.Int).SetBytes(signature[:a.keySize])
	s := new(big.Int).SetBytes(signature[a.keySize:])

	h := a.hasher.New()
	// header.payload
	_, err := h.Write(headerAndPayload)
	if err != nil {
		return err
	}

	hashed := h.Sum(nil)
	if !ecdsa.Verify(publicKey, hashed, r, s) {
		return ErrTokenSignature
	}

	return nil
}

// Key Helpers.

// LoadPrivateKeyECDSA accepts a file path of a PEM-encoded ECDSA private key
// and returns the ECDSA private key Go value.
func LoadPrivateKeyECDSA(filename string) (*ecdsa.PrivateKey, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return ParsePrivateKeyECDSA(b)
}

// LoadPublicKeyECDSA accepts a file path of a PEM-encoded ECDSA public key
// and returns the ECDSA public key Go value.
func LoadPublicKeyECDSA(filename string) (*ecdsa.PublicKey, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return ParsePublicKeyECDSA(b)
}

// ParsePrivateKeyECDSA decodes and parses the
// PEM-encoded ECDSA private key's raw contents.
// SEC 1 ("EC PRIVATE KEY") and PKCS #8 blocks are accepted.
func ParsePrivateKeyECDSA(key []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(key)
	if block == nil {
		return nil, fmt.Errorf("private key: malformed or missing PEM format (ECDSA)")
	}

	privateKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		parsed, pkcs8Err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if pkcs8Err != nil {
			return nil, fmt.Errorf("private key: %w", err)
		}

		pKey, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key: expected a type of *ecdsa.PrivateKey but got %T", parsed)
		}

		privateKey = pKey
	}

	return privateKey, nil
}

// ParsePublicKeyECDSA decodes and parses the
// PEM-encoded ECDSA public key's raw contents.
func ParsePublicKeyECDSA(key []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(key)
	if block == nil {
		return nil, fmt.Errorf("public key: malformed or missing PEM format (ECDSA)")
	}

	parsedKey, err := parsePublicKeyBlock(block.Bytes)
	if err != nil {
		return nil, err
	}

	publicKey, ok := parsedKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key: expected a type of *ecdsa.PublicKey but got %T", parsedKey)
	}

	return publicKey, nil
}
