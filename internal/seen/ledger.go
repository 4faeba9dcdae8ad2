// Package seen tracks which (key, nonce) pairs have already carried
// ciphertext.
//
// Meshtastic derives the CTR nonce from the packet id and sender, so a
// packet heard through several gateways arrives with the same nonce and the
// same ciphertext: a duplicate, harmless. The same nonce under the same key
// with different ciphertext means the keystream was reused, and XORing the
// two ciphertexts leaks the XOR of the plaintexts.
package seen

import (
	"errors"

	"golang.org/x/crypto/blake2b"

	"github.com/WJ4IoT/meshcodec/internal/crypto"
)

// ErrNonceReuse describes a Reused verdict in reports.
var ErrNonceReuse = errors.New("seen: nonce reused with different ciphertext")

// Verdict classifies one observation.
type Verdict uint8

const (
	Fresh     Verdict = iota // first time this (key, nonce) is seen
	Duplicate                // same ciphertext as before
	Reused                   // different ciphertext under the same keystream
)

func (v Verdict) String() string {
	switch v {
	case Fresh:
		return "fresh"
	case Duplicate:
		return "duplicate"
	case Reused:
		return "reused"
	default:
		return "invalid"
	}
}

// Ledger records ciphertext digests per (key, nonce).
type Ledger interface {
	Observe(key crypto.Key, nonce crypto.Nonce, ciphertext []byte) (Verdict, error)
}

type digest [blake2b.Size256]byte

// slot identifies a (key, nonce) pair without holding key material.
func slot(key crypto.Key, nonce crypto.Nonce) digest {
	h, _ := blake2b.New256(nil)
	h.Write(key)
	h.Write(nonce[:])
	var d digest
	copy(d[:], h.Sum(nil))
	return d
}

func verdict(prev, cur digest) Verdict {
	if prev == cur {
		return Duplicate
	}
	return Reused
}
