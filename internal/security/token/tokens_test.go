package tokens

import (
	"strings"
	"testing"
)

func TestGenerateOpaque(t *testing.T) {
	a, err := GenerateOpaque(32)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateOpaque(32)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two opaque tokens must differ")
	}
	// base64url without padding: 32 bytes -> 43 chars
	if len(a) != 43 {
		t.Fatalf("unexpected token length %d", len(a))
	}
	if strings.ContainsAny(a, "+/=") {
		t.Fatalf("token %q is not URL-safe", a)
	}
}

func TestSHA256Hex(t *testing.T) {
	h := SHA256Hex("abc")
	if h != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("unexpected digest %s", h)
	}
	if SHA256Hex("abc") != h {
		t.Fatal("digest must be deterministic")
	}
}
