package benchmarks

import (
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	josejwt "github.com/go-jose/go-jose/v4/jwt"
	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/jwtkit/jwt"
)

func testToken(b *testing.B) string {
	b.Helper()

	token, err := jwt.MustSigner(jwt.HS256, testSecret).Sign(testStruct{Foo: "bar"}, jwt.MaxAge(time.Hour))
	if err != nil {
		b.Fatal(err)
	}

	return string(token)
}

func BenchmarkVerify(b *testing.B) {
	token := []byte(testToken(b))
	signer := jwt.MustSigner(jwt.HS256, testSecret)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var claims testStruct
		if _, err := jwt.Verify(signer, token, &claims); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkVerify_golang_jwt(b *testing.B) {
	token := testToken(b)
	keyFunc := func(*gjwt.Token) (any, error) { return testSecret, nil }

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var claims golangJWTClaims
		if _, err := gjwt.ParseWithClaims(token, &claims, keyFunc, gjwt.WithValidMethods([]string{"HS256"})); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkVerify_go_jose(b *testing.B) {
	token := testToken(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		parsed, err := josejwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
		if err != nil {
			b.Fatal(err)
		}

		var claims struct {
			testStruct
			josejwt.Claims
		}
		if err = parsed.Claims(testSecret, &claims); err != nil {
			b.Fatal(err)
		}
		if err = claims.Claims.Validate(josejwt.Expected{Time: time.Now()}); err != nil {
			b.Fatal(err)
		}
	}
}
