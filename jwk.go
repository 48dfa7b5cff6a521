package jwt

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrInvalidKeyType is returned for a JWK whose "kty" is missing or unsupported.
	// Supported key types are "RSA", "EC" and "oct".
	ErrInvalidKeyType = errors.New("jwt: invalid JWK key type")
	// ErrInvalidJWK is returned for a JWK carrying members that do not belong
	// to its key type, or members that cannot be decoded.
	ErrInvalidJWK = errors.New("jwt: invalid JWK")
	// ErrMissingKeyMaterial is returned for a JWK lacking a member its
	// key type requires, e.g. "n" or "e" for RSA.
	ErrMissingKeyMaterial = errors.New("jwt: missing JWK key material")
	// ErrMissingAlgorithm is returned for a JWK without an "alg" hint
	// where its key type needs one to pick the hash width.
	ErrMissingAlgorithm = errors.New("jwt: missing JWK algorithm")
	// ErrInvalidAlgorithm is returned for a JWK whose "alg" is unknown
	// or does not fit its key type or curve.
	ErrInvalidAlgorithm = errors.New("jwt: invalid JWK algorithm")
	// ErrInvalidKeyUse is returned for a JWK meant for encryption.
	ErrInvalidKeyUse = errors.New("jwt: invalid JWK use")
)

// JWK is a JSON Web Key (RFC 7517) of type "RSA", "EC" or "oct".
// Binary members hold unpadded base64url strings.
type JWK struct {
	Kty    string   `json:"kty"`               // Key type: "RSA", "EC" or "oct".
	Use    string   `json:"use,omitempty"`     // Public key use, "sig" when set.
	KeyOps []string `json:"key_ops,omitempty"` // Key operations.
	Alg    string   `json:"alg,omitempty"`     // Algorithm, e.g. "RS256".
	Kid    string   `json:"kid,omitempty"`     // Key ID.

	X5C     []string `json:"x5c,omitempty"`      // X.509 certificate chain.
	X5T     string   `json:"x5t,omitempty"`      // X.509 SHA-1 thumbprint.
	X5TS256 string   `json:"x5t#S256,omitempty"` // X.509 SHA-256 thumbprint.

	// RSA.
	N  string `json:"n,omitempty"`
	E  string `json:"e,omitempty"`
	D  string `json:"d,omitempty"` // private exponent (RSA) or private scalar (EC).
	P  string `json:"p,omitempty"`
	Q  string `json:"q,omitempty"`
	DP string `json:"dp,omitempty"`
	DQ string `json:"dq,omitempty"`
	QI string `json:"qi,omitempty"`

	// EC.
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`

	// oct.
	K string `json:"k,omitempty"`
}

// ParseJWK decodes a single JWK and checks its members against its key type.
func ParseJWK(data []byte) (*JWK, error) {
	var jwk JWK
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWK, err)
	}

	if err := jwk.validate(); err != nil {
		return nil, err
	}

	return &jwk, nil
}

// validate reports members that do not belong to the declared key type.
func (jwk *JWK) validate() error {
	var foreign map[string]string
	switch jwk.Kty {
	case "RSA":
		foreign = map[string]string{"crv": jwk.Crv, "x": jwk.X, "y": jwk.Y, "k": jwk.K}
	case "EC":
		foreign = map[string]string{
			"n": jwk.N, "e": jwk.E, "p": jwk.P, "q": jwk.Q,
			"dp": jwk.DP, "dq": jwk.DQ, "qi": jwk.QI, "k": jwk.K,
		}
	case "oct":
		foreign = map[string]string{
			"n": jwk.N, "e": jwk.E, "d": jwk.D, "p": jwk.P, "q": jwk.Q,
			"dp": jwk.DP, "dq": jwk.DQ, "qi": jwk.QI,
			"crv": jwk.Crv, "x": jwk.X, "y": jwk.Y,
		}
	case "":
		return fmt.Errorf("%w: missing \"kty\"", ErrInvalidKeyType)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKeyType, jwk.Kty)
	}

	for name, value := range foreign {
		if value != "" {
			return fmt.Errorf("%w: member %q does not belong to key type %q", ErrInvalidJWK, name, jwk.Kty)
		}
	}

	return nil
}

// Signer builds the Signer described by the key, see BuildSigner.
func (jwk *JWK) Signer() (*Signer, error) {
	return BuildSigner(jwk)
}

// BuildSigner converts "jwk" into a working Signer.
//
//   - RSA: "n" and "e" are required, "alg" is required and must be
//     RS256, RS384 or RS512. With "d" the Signer can sign too, the
//     primes are taken from "p" and "q" or recovered from n, e and d.
//   - EC: "crv", "x" and "y" are required and the point must be on the
//     curve. "alg" may be omitted, it is implied by the curve.
//     With "d" the Signer can sign too.
//   - oct: "k" is required, "alg" is required and must be HS256, HS384 or HS512.
//
// The key's "kid", if any, becomes the Signer's KeyID.
func BuildSigner(jwk *JWK) (*Signer, error) {
	if err := jwk.validate(); err != nil {
		return nil, err
	}

	if jwk.Use != "" && jwk.Use != "sig" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKeyUse, jwk.Use)
	}

	var (
		alg Alg
		key any
		err error
	)
	switch jwk.Kty {
	case "RSA":
		alg, key, err = jwk.rsaKey()
	case "EC":
		alg, key, err = jwk.ecKey()
	case "oct":
		alg, key, err = jwk.octKey()
	}
	if err != nil {
		return nil, err
	}

	var opts []SignerOption
	if jwk.Kid != "" {
		opts = append(opts, WithKeyID(jwk.Kid))
	}

	return NewSigner(alg, key, opts...)
}

func (jwk *JWK) algOf(family Family) (Alg, error) {
	if jwk.Alg == "" {
		return nil, ErrMissingAlgorithm
	}

	alg, ok := ParseAlg(jwk.Alg)
	if !ok || alg.Family() != family {
		return nil, fmt.Errorf("%w: %q for key type %q", ErrInvalidAlgorithm, jwk.Alg, jwk.Kty)
	}

	return alg, nil
}

func decodeMember(name, value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: %q", ErrMissingKeyMaterial, name)
	}

	b, err := Base64Decode([]byte(value))
	if err != nil {
		return nil, fmt.Errorf("%w: member %q: %w", ErrInvalidJWK, name, err)
	}

	return b, nil
}

func decodeBigInt(name, value string) (*big.Int, error) {
	b, err := decodeMember(name, value)
	if err != nil {
		return nil, err
	}

	return new(big.Int).SetBytes(b), nil
}

func (jwk *JWK) rsaKey() (Alg, any, error) {
	n, err := decodeBigInt("n", jwk.N)
	if err != nil {
		return nil, nil, err
	}

	eBytes, err := decodeMember("e", jwk.E)
	if err != nil {
		return nil, nil, err
	}

	if len(eBytes) > 4 {
		return nil, nil, fmt.Errorf("%w: RSA exponent too large", ErrInvalidJWK)
	}

	var e int
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}

	if e < 2 || n.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: RSA modulus or exponent out of range", ErrInvalidKey)
	}

	alg, err := jwk.algOf(FamilyRSA)
	if err != nil {
		return nil, nil, err
	}

	publicKey := rsa.PublicKey{N: n, E: e}
	if jwk.D == "" {
		return alg, &publicKey, nil
	}

	d, err := decodeBigInt("d", jwk.D)
	if err != nil {
		return nil, nil, err
	}

	var primes []*big.Int
	if jwk.P != "" || jwk.Q != "" {
		p, err := decodeBigInt("p", jwk.P)
		if err != nil {
			return nil, nil, err
		}

		q, err := decodeBigInt("q", jwk.Q)
		if err != nil {
			return nil, nil, err
		}

		primes = []*big.Int{p, q}
	} else {
		p, q, err := recoverPrimes(n, e, d)
		if err != nil {
			return nil, nil, err
		}

		primes = []*big.Int{p, q}
	}

	privateKey := &rsa.PrivateKey{PublicKey: publicKey, D: d, Primes: primes}
	privateKey.Precompute()
	if err = privateKey.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return alg, privateKey, nil
}

// recoverPrimes factors n from the public and private exponents
// (NIST SP 800-56B rev. 2, appendix C.2).
func recoverPrimes(n *big.Int, e int, d *big.Int) (*big.Int, *big.Int, error) {
	one := big.NewInt(1)
	nMinusOne := new(big.Int).Sub(n, one)

	// k = d*e - 1 = 2^s * t with t odd.
	k := new(big.Int).Mul(d, big.NewInt(int64(e)))
	k.Sub(k, one)
	if k.Sign() <= 0 || k.Bit(0) != 0 {
		return nil, nil, fmt.Errorf("%w: inconsistent RSA private exponent", ErrInvalidKey)
	}

	t := new(big.Int).Set(k)
	for t.Bit(0) == 0 {
		t.Rsh(t, 1)
	}

	for g := int64(2); g < 100; g++ {
		x := new(big.Int).Exp(big.NewInt(g), t, n)
		if x.Cmp(one) == 0 || x.Cmp(nMinusOne) == 0 {
			continue
		}

		for i := new(big.Int).Set(t); i.Cmp(k) < 0; i.Lsh(i, 1) {
			y := new(big.Int).Exp(x, big.NewInt(2), n)
			if y.Cmp(one) == 0 {
				p := new(big.Int).GCD(nil, nil, new(big.Int).Sub(x, one), n)
				if p.Cmp(one) == 0 || p.Cmp(n) == 0 {
					break
				}

				q := new(big.Int).Div(n, p)
				if p.Cmp(q) < 0 {
					p, q = q, p
				}

				return p, q, nil
			}

			if y.Cmp(nMinusOne) == 0 {
				break
			}
			x = y
		}
	}

	return nil, nil, fmt.Errorf("%w: cannot recover RSA primes", ErrInvalidKey)
}

var curveAlgs = map[string]struct {
	alg   Alg
	curve func() elliptic.Curve
}{
	"P-256": {ES256, elliptic.P256},
	"P-384": {ES384, elliptic.P384},
	"P-521": {ES512, elliptic.P521},
}

func (jwk *JWK) ecKey() (Alg, any, error) {
	if jwk.Crv == "" {
		return nil, nil, fmt.Errorf("%w: %q", ErrMissingKeyMaterial, "crv")
	}

	entry, ok := curveAlgs[jwk.Crv]
	if !ok {
		return nil, nil, fmt.Errorf("%w: unsupported curve %q", ErrInvalidJWK, jwk.Crv)
	}

	if jwk.Alg != "" && jwk.Alg != entry.alg.Name() {
		return nil, nil, fmt.Errorf("%w: %q for curve %q", ErrInvalidAlgorithm, jwk.Alg, jwk.Crv)
	}

	x, err := decodeBigInt("x", jwk.X)
	if err != nil {
		return nil, nil, err
	}

	y, err := decodeBigInt("y", jwk.Y)
	if err != nil {
		return nil, nil, err
	}

	curve := entry.curve()
	if !curve.IsOnCurve(x, y) {
		return nil, nil, fmt.Errorf("%w: point is not on curve %s", ErrInvalidKey, jwk.Crv)
	}

	publicKey := ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	if jwk.D == "" {
		return entry.alg, &publicKey, nil
	}

	d, err := decodeBigInt("d", jwk.D)
	if err != nil {
		return nil, nil, err
	}

	if d.Sign() <= 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, nil, fmt.Errorf("%w: EC private scalar out of range", ErrInvalidKey)
	}

	if err = checkECKeyPair(&publicKey, d); err != nil {
		return nil, nil, err
	}

	return entry.alg, &ecdsa.PrivateKey{PublicKey: publicKey, D: d}, nil
}

// checkECKeyPair reports whether d·G is the public point (x, y).
func checkECKeyPair(publicKey *ecdsa.PublicKey, d *big.Int) error {
	var curve ecdh.Curve
	switch publicKey.Curve {
	case elliptic.P256():
		curve = ecdh.P256()
	case elliptic.P384():
		curve = ecdh.P384()
	case elliptic.P521():
		curve = ecdh.P521()
	default:
		return fmt.Errorf("%w: unsupported curve %s", ErrInvalidKey, publicKey.Curve.Params().Name)
	}

	size := (publicKey.Curve.Params().BitSize + 7) / 8
	privateKey, err := curve.NewPrivateKey(d.FillBytes(make([]byte, size)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	// uncompressed point: 0x04 || x || y.
	derived := privateKey.PublicKey().Bytes()
	x := new(big.Int).SetBytes(derived[1 : 1+size])
	y := new(big.Int).SetBytes(derived[1+size:])
	if x.Cmp(publicKey.X) != 0 || y.Cmp(publicKey.Y) != 0 {
		return fmt.Errorf("%w: EC private key does not match the public point", ErrInvalidKey)
	}

	return nil
}

func (jwk *JWK) octKey() (Alg, any, error) {
	secret, err := decodeMember("k", jwk.K)
	if err != nil {
		return nil, nil, err
	}

	alg, err := jwk.algOf(FamilyHMAC)
	if err != nil {
		return nil, nil, err
	}

	return alg, secret, nil
}

// JWK exports the Signer's public key as a JWK, ready to be served from
// a key set endpoint. HMAC and "none" Signers have no public key to export.
func (s *Signer) JWK() (*JWK, error) {
	jwk := &JWK{
		Use: "sig",
		Alg: s.alg.Name(),
		Kid: s.kid,
	}

	switch s.alg.Family() {
	case FamilyRSA:
		publicKey := s.public.(*rsa.PublicKey)
		jwk.Kty = "RSA"
		jwk.N = string(Base64Encode(publicKey.N.Bytes()))
		jwk.E = string(Base64Encode(big.NewInt(int64(publicKey.E)).Bytes()))
	case FamilyECDSA:
		publicKey := s.public.(*ecdsa.PublicKey)
		size := s.alg.(*algECDSA).keySize
		x := make([]byte, size)
		y := make([]byte, size)
		publicKey.X.FillBytes(x)
		publicKey.Y.FillBytes(y)

		jwk.Kty = "EC"
		jwk.Crv = publicKey.Curve.Params().Name
		jwk.X = string(Base64Encode(x))
		jwk.Y = string(Base64Encode(y))
	case FamilyHMAC, FamilyNone:
		return nil, fmt.Errorf("%w: %s has no public key", ErrInvalidKey, s.alg.Name())
	}

	return jwk, nil
}

// NewJWK is the function form of (*Signer).JWK.
func NewJWK(signer *Signer) (*JWK, error) {
	if signer == nil {
		return nil, ErrInvalidKey
	}

	return signer.JWK()
}
