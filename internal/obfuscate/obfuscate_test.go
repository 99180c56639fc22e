package obfuscate

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func TestTransformSelfInverse(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	inputs := [][]byte{
		[]byte(`"abc123"`),
		[]byte(`{"x":1,"nested":{"list":[1,2,3]}}`),
		[]byte(`"héllo wörld ✓"`),
		{},
	}
	for _, in := range inputs {
		once := Transform(in, key)
		twice := Transform(once, key)
		if !bytes.Equal(twice, in) {
			t.Errorf("Transform not self-inverse for %q: got %q", in, twice)
		}
		if len(in) > 0 && bytes.Equal(once, in) {
			t.Errorf("Transform left %q unchanged", in)
		}
	}
}

func TestTransformDoesNotModifyInput(t *testing.T) {
	in := []byte("plain")
	orig := append([]byte(nil), in...)
	_ = Transform(in, "00ff")
	if !bytes.Equal(in, orig) {
		t.Errorf("input modified: got %q, want %q", in, orig)
	}
}

func TestTransformKeyRepeats(t *testing.T) {
	// key "ab" applied to 4 bytes uses a, b, a, b
	got := Transform([]byte{0, 0, 0, 0}, "ab")
	want := []byte{'a', 'b', 'a', 'b'}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTransformWrongKey(t *testing.T) {
	in := []byte(`{"x":1}`)
	enc := Transform(in, "1111")
	dec := Transform(enc, "2222")
	if bytes.Equal(dec, in) {
		t.Error("decoding with a different key should not restore the input")
	}
}

func TestGenerateKey(t *testing.T) {
	k1, err := GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	k2, err := GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	if len(k1) != KeySize*2 {
		t.Errorf("key length = %d, want %d", len(k1), KeySize*2)
	}
	if _, err := hex.DecodeString(k1); err != nil {
		t.Errorf("key is not hex: %v", err)
	}
	if k1 == k2 {
		t.Error("two generated keys should differ")
	}
}

func TestDeriveKey(t *testing.T) {
	a := DeriveKey([]byte("secret"), "User")
	b := DeriveKey([]byte("secret"), "User")
	c := DeriveKey([]byte("secret"), "Global")

	if a != b {
		t.Error("derivation should be deterministic")
	}
	if a == c {
		t.Error("different instances should derive different keys")
	}
	if err := ValidateKey(a); err != nil {
		t.Errorf("derived key invalid: %v", err)
	}
}

func TestValidateKey(t *testing.T) {
	if err := ValidateKey(""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := ValidateKey("not-hex"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
	if err := ValidateKey("deadbeef"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
