package jwt

import (
	"bytes"
	"errors"
	"testing"
)

func TestBase64(t *testing.T) {
	tests := []struct {
		decoded []byte
		encoded string
	}{
		{[]byte(""), ""},
		{[]byte("f"), "Zg"},
		{[]byte("fo"), "Zm8"},
		{[]byte("foo"), "Zm9v"},
		{[]byte{0xfb, 0xff}, "-_8"},
		{[]byte(`{"alg":"HS256","typ":"JWT"}`), "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9"},
	}

	for _, tt := range tests {
		if got := Base64Encode(tt.decoded); string(got) != tt.encoded {
			t.Fatalf("encode %q: expected: %q but got: %q", tt.decoded, tt.encoded, got)
		}

		got, err := Base64Decode([]byte(tt.encoded))
		if err != nil {
			t.Fatalf("decode %q: %v", tt.encoded, err)
		}
		if !bytes.Equal(got, tt.decoded) {
			t.Fatalf("decode %q: expected: %q but got: %q", tt.encoded, tt.decoded, got)
		}
	}
}

func TestBase64DecodeInvalid(t *testing.T) {
	for _, input := range []string{
		"Zg==", // padding.
		"Z",    // length 1 mod 4.
		"Zm9vY",
		"Zm+v", // standard alphabet.
		"Zm/v",
		"Zh",   // non-canonical trailing bits.
		"Zm9 ", // whitespace.
		"YWJjZGVm\n\n\n\n",
		"YWJj\r\nZGVm",
		"Zm9v\x00",
	} {
		if _, err := Base64Decode([]byte(input)); !errors.Is(err, ErrDecoding) {
			t.Fatalf("decode %q: expected error: ErrDecoding but got: %v", input, err)
		}
	}
}
