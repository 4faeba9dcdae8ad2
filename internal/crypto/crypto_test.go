package crypto

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildNonceLayout(t *testing.T) {
	n := BuildNonce(0x0102030405060708, 0xa1b2c3d4)
	want := []byte{
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		0xd4, 0xc3, 0xb2, 0xa1,
		0, 0, 0, 0,
	}
	if !bytes.Equal(n[:], want) {
		t.Fatalf("nonce %x, want %x", n[:], want)
	}
}

func TestBuildNonceDeterministicAndInjective(t *testing.T) {
	seen := make(map[[12]byte]struct{ id uint64; from uint32 })
	ids := []uint64{0, 1, 42, 0xffffffff, 0x100000000, ^uint64(0)}
	senders := []uint32{0, 1, 100, 0xdeadbeef, ^uint32(0)}
	for _, id := range ids {
		for _, from := range senders {
			a := BuildNonce(id, from)
			if a != BuildNonce(id, from) {
				t.Fatalf("nonce for (%d, %d) not deterministic", id, from)
			}
			if !bytes.Equal(a[12:], []byte{0, 0, 0, 0}) {
				t.Fatalf("block counter not zero: %x", a[12:])
			}
			var prefix [12]byte
			copy(prefix[:], a[:12])
			if prev, dup := seen[prefix]; dup {
				t.Fatalf("(%d, %d) collides with (%d, %d)", id, from, prev.id, prev.from)
			}
			seen[prefix] = struct{ id uint64; from uint32 }{id, from}
		}
	}
}

// NIST SP 800-38A, F.5.1 CTR-AES128.Encrypt, first block.
func TestDecryptKnownAnswer(t *testing.T) {
	key, _ := hex.DecodeString("2b7e151628aed2a6abf7158809cf4f3c")
	ctr, _ := hex.DecodeString("f0f1f2f3f4f5f6f7f8f9fafbfcfdfeff")
	pt, _ := hex.DecodeString("6bc1bee22e409f96e93d7e117393172a")
	ct, _ := hex.DecodeString("874d6191b620e3261bef6864990db6ce")

	var nonce Nonce
	copy(nonce[:], ctr)
	got, err := Decrypt(key, nonce, ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, pt) {
		t.Fatalf("got %x want %x", got, pt)
	}
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	for _, size := range []int{KeySize128, KeySize256} {
		key := make([]byte, size)
		io.ReadFull(rand.Reader, key)
		nonce := BuildNonce(42, 100)

		for _, plaintext := range [][]byte{
			{},
			[]byte("x"),
			[]byte("hello from the mesh"),
			bytes.Repeat([]byte{0xaa}, 237),
		} {
			ct, err := Encrypt(key, nonce, plaintext)
			if err != nil {
				t.Fatalf("Encrypt (%d-byte key): %v", size, err)
			}
			if len(ct) != len(plaintext) {
				t.Fatalf("ciphertext length %d != %d", len(ct), len(plaintext))
			}
			got, err := Decrypt(key, nonce, ct)
			if err != nil {
				t.Fatalf("Decrypt (%d-byte key): %v", size, err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Fatalf("round trip mismatch for %d-byte key", size)
			}
		}
	}
}

func TestKeySizeSelectsCipher(t *testing.T) {
	nonce := BuildNonce(1, 1)
	plaintext := []byte("same plaintext")
	k128 := bytes.Repeat([]byte{7}, KeySize128)
	k256 := bytes.Repeat([]byte{7}, KeySize256)

	a, _ := Encrypt(k128, nonce, plaintext)
	b, _ := Encrypt(k256, nonce, plaintext)
	if bytes.Equal(a, b) {
		t.Fatal("AES-128 and AES-256 produced the same keystream")
	}
}

func TestDecryptInvalidKeyLength(t *testing.T) {
	for _, size := range []int{0, 15, 17, 24} {
		out, err := Decrypt(make([]byte, size), BuildNonce(1, 2), []byte("data"))
		if !errors.Is(err, ErrInvalidKeyLength) {
			t.Fatalf("%d-byte key: expected ErrInvalidKeyLength, got %v", size, err)
		}
		if out != nil {
			t.Fatalf("%d-byte key: expected no output, got %x", size, out)
		}
	}
}

func TestDefaultKey(t *testing.T) {
	k := DefaultKey()
	if len(k) != KeySize128 {
		t.Fatalf("default key is %d bytes", len(k))
	}
	if !k.IsDefault() {
		t.Fatal("DefaultKey not recognised as default")
	}
	k[0] ^= 0xff
	if !DefaultKey().IsDefault() || k.IsDefault() {
		t.Fatal("DefaultKey must return an independent copy")
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantLen int
		wantErr error
	}{
		{"empty", "", 0, nil},
		{"default", DefaultKeyBase64, 16, nil},
		{"unpadded", "1PG7OiApB1nwvP+rz05pAQ", 16, nil},
		{"aes256", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=", 32, nil},
		{"one byte shorthand", "AQ==", 0, ErrInvalidKeyLength},
		{"24 bytes", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", 0, ErrInvalidKeyLength},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			k, err := ParseKey(tc.in)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(k) != tc.wantLen {
				t.Fatalf("key length %d, want %d", len(k), tc.wantLen)
			}
		})
	}

	if _, err := ParseKey("not base64!"); err == nil {
		t.Fatal("expected error for non-base64 key")
	}
}

func TestLoadKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channel.key")
	if err := os.WriteFile(path, []byte(DefaultKeyBase64+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	k, err := LoadKeyFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !k.IsDefault() {
		t.Fatal("loaded key mismatch")
	}

	empty := filepath.Join(t.TempDir(), "empty.key")
	os.WriteFile(empty, nil, 0600)
	if _, err := LoadKeyFile(empty); err == nil {
		t.Fatal("expected error for empty key file")
	}
}

func TestFingerprintHidesKey(t *testing.T) {
	k := DefaultKey()
	fp := k.Fingerprint()
	if len(fp) != 8 {
		t.Fatalf("fingerprint %q", fp)
	}
	if fp != DefaultKey().Fingerprint() {
		t.Fatal("fingerprint not stable")
	}
	if bytes.Contains([]byte(k.String()), []byte(DefaultKeyBase64)) {
		t.Fatal("String leaks key material")
	}
	if Key(nil).Fingerprint() != "none" {
		t.Fatal("nil key fingerprint")
	}
}

func TestGenerateKey(t *testing.T) {
	for _, size := range []int{KeySize128, KeySize256} {
		k1, err := GenerateKey(size)
		if err != nil {
			t.Fatal(err)
		}
		k2, _ := GenerateKey(size)
		if len(k1) != size || bytes.Equal(k1, k2) {
			t.Fatalf("size %d: keys %x %x", size, k1, k2)
		}
		back, err := ParseKey(k1.Base64())
		if err != nil || !bytes.Equal(back, k1) {
			t.Fatalf("Base64 round trip: %v", err)
		}
	}
	if _, err := GenerateKey(24); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
}
