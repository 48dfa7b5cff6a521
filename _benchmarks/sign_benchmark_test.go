package benchmarks

import (
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	josejwt "github.com/go-jose/go-jose/v4/jwt"
	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/jwtkit/jwt"
)

var testSecret = []byte("sercrethatmaycontainch@r$32chars")

type testStruct struct {
	Foo string `json:"foo"`
}

func BenchmarkSign_Map(b *testing.B) {
	signer := jwt.MustSigner(jwt.HS256, testSecret)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		now := time.Now()
		claims := jwt.Map{
			"foo": "bar",
			"exp": now.Add(15 * time.Minute).Unix(),
			"iat": now.Unix(),
		}
		if _, err := signer.Sign(claims); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSign_Struct(b *testing.B) {
	signer := jwt.MustSigner(jwt.HS256, testSecret)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		// the standard claims are merged into the custom type.
		if _, err := signer.Sign(testStruct{Foo: "bar"}, jwt.MaxAge(15*time.Minute)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSign_golang_jwt_Map(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		now := time.Now()
		claims := gjwt.MapClaims{
			"foo": "bar",
			"exp": now.Add(15 * time.Minute).Unix(),
			"iat": now.Unix(),
		}
		if _, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret); err != nil {
			b.Fatal(err)
		}
	}
}

type golangJWTClaims struct {
	Foo string `json:"foo"`
	gjwt.RegisteredClaims
}

func BenchmarkSign_golang_jwt_Struct(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		now := time.Now()
		claims := golangJWTClaims{
			Foo: "bar",
			RegisteredClaims: gjwt.RegisteredClaims{
				ExpiresAt: gjwt.NewNumericDate(now.Add(15 * time.Minute)),
				IssuedAt:  gjwt.NewNumericDate(now),
			},
		}
		if _, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSign_go_jose_Map(b *testing.B) {
	// the signer is built once, outside of the measured loop.
	signer, err := jose.NewSigner(jose.SigningKey{
		Algorithm: jose.HS256,
		Key:       testSecret,
	}, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		now := time.Now()
		claims := map[string]any{
			"foo": "bar",
			"exp": now.Add(15 * time.Minute).Unix(),
			"iat": now.Unix(),
		}
		if _, err = josejwt.Signed(signer).Claims(claims).Serialize(); err != nil {
			b.Fatal(err)
		}
	}
}
