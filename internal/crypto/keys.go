package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	KeySize128 = 16
	KeySize256 = 32
)

// DefaultKeyBase64 is the publicly known PSK every stock Meshtastic radio
// uses on its primary channel. Traffic encrypted with it is readable by
// anyone; it is a fallback, not a secret.
const DefaultKeyBase64 = "1PG7OiApB1nwvP+rz05pAQ=="

// Key is a channel PSK. Only 16 and 32 byte keys are usable.
type Key []byte

// DefaultKey returns a fresh copy of the public default channel key.
func DefaultKey() Key {
	k, _ := base64.StdEncoding.DecodeString(DefaultKeyBase64)
	return k
}

// GenerateKey returns a random channel key of size bytes (16 or 32).
func GenerateKey(size int) (Key, error) {
	k := make(Key, size)
	if err := k.Validate(); err != nil {
		return nil, err
	}
	if _, err := rand.Read(k); err != nil {
		return nil, fmt.Errorf("crypto: generate key: %w", err)
	}
	return k, nil
}

// Base64 is the form ParseKey and the Meshtastic apps accept.
func (k Key) Base64() string {
	return base64.StdEncoding.EncodeToString(k)
}

// ParseKey decodes a base64 PSK. The empty string yields a nil key, which
// callers treat as "not configured". Any decoded length other than 16 or 32
// bytes is rejected.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		b, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return nil, fmt.Errorf("crypto: key is not base64: %w", err)
		}
	}
	k := Key(b)
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}

// LoadKeyFile reads a base64 PSK from path.
func LoadKeyFile(path string) (Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	k, err := ParseKey(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if k == nil {
		return nil, errors.New("crypto: key file is empty: " + path)
	}
	return k, nil
}

// Validate reports ErrInvalidKeyLength for unusable key sizes.
func (k Key) Validate() error {
	if len(k) != KeySize128 && len(k) != KeySize256 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidKeyLength, len(k))
	}
	return nil
}

// IsDefault reports whether k is the public default key.
func (k Key) IsDefault() bool {
	return string(k) == string(DefaultKey())
}

// Fingerprint identifies a key in logs without revealing it: the first four
// bytes of its BLAKE2b-256 digest, hex encoded.
func (k Key) Fingerprint() string {
	if len(k) == 0 {
		return "none"
	}
	sum := blake2b.Sum256(k)
	return hex.EncodeToString(sum[:4])
}

// String never prints key material.
func (k Key) String() string {
	return fmt.Sprintf("key(%d bytes, %s)", len(k), k.Fingerprint())
}
