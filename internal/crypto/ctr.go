// Package crypto implements the Meshtastic channel cipher: AES in counter
// mode keyed by the channel PSK, with a nonce derived from the packet id and
// sender.
//
// CTR mode carries no authentication tag. Decrypt cannot tell a wrong key
// from valid ciphertext; that surfaces later as a protobuf parse failure.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

var (
	// ErrInvalidKeyLength is returned for keys that are neither 16 nor 32 bytes.
	ErrInvalidKeyLength = errors.New("crypto: invalid key length")

	// ErrCipher is returned when the block cipher cannot be constructed.
	ErrCipher = errors.New("crypto: cipher failure")
)

// Decrypt applies the AES-CTR keystream selected by key length: AES-128 for
// 16-byte keys, AES-256 for 32-byte keys. On error no output is returned.
func Decrypt(key []byte, nonce Nonce, ciphertext []byte) ([]byte, error) {
	return xorKeyStream(key, nonce, ciphertext)
}

// Encrypt is the inverse of Decrypt. Counter mode is symmetric, so this
// is the same keystream application.
func Encrypt(key []byte, nonce Nonce, plaintext []byte) ([]byte, error) {
	return xorKeyStream(key, nonce, plaintext)
}

func xorKeyStream(key []byte, nonce Nonce, in []byte) ([]byte, error) {
	switch len(key) {
	case KeySize128, KeySize256:
	default:
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKeyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}
	out := make([]byte, len(in))
	cipher.NewCTR(block, nonce[:]).XORKeyStream(out, in)
	return out, nil
}
