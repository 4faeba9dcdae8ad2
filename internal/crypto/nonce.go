package crypto

import "encoding/binary"

// NonceSize is the length of the initial counter block.
const NonceSize = 16

// Nonce is the AES-CTR initial counter block for one packet.
type Nonce [NonceSize]byte

// BuildNonce derives the per-packet nonce:
//
//	bytes 0-7   packet id (little endian)
//	bytes 8-11  sender node number (little endian)
//	bytes 12-15 block counter, always zero
//
// The layout must match the radios bit for bit. A mismatch decrypts to
// garbage without any error.
func BuildNonce(packetID uint64, sender uint32) Nonce {
	var n Nonce
	binary.LittleEndian.PutUint64(n[0:8], packetID)
	binary.LittleEndian.PutUint32(n[8:12], sender)
	return n
}
