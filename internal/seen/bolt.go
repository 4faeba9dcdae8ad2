package seen

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/crypto/blake2b"

	"github.com/WJ4IoT/meshcodec/internal/crypto"
)

// Store is a persistent Ledger backed by bbolt. Each key fingerprint gets
// its own bucket; records are keyed by the (key, nonce) slot and hold the
// ciphertext digest and the time it was first recorded.
type Store struct {
	db     *bolt.DB
	window time.Duration
	now    func() time.Time
}

const recordSize = blake2b.Size256 + 8

// Open opens (or creates) the ledger database at path. Records older than
// window are treated as absent; a zero window keeps them forever.
func Open(path string, window time.Duration) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("seen: open %s: %w", path, err)
	}
	return &Store{db: db, window: window, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Observe(key crypto.Key, nonce crypto.Nonce, ciphertext []byte) (Verdict, error) {
	id := slot(key, nonce)
	sum := digest(blake2b.Sum256(ciphertext))
	now := s.now()

	v := Fresh
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(key.Fingerprint()))
		if err != nil {
			return err
		}
		if rec := bkt.Get(id[:]); len(rec) == recordSize {
			var prev digest
			copy(prev[:], rec)
			at := time.Unix(0, int64(binary.BigEndian.Uint64(rec[blake2b.Size256:])))
			if s.window == 0 || now.Sub(at) < s.window {
				v = verdict(prev, sum)
				return nil
			}
		}
		rec := make([]byte, recordSize)
		copy(rec, sum[:])
		binary.BigEndian.PutUint64(rec[blake2b.Size256:], uint64(now.UnixNano()))
		return bkt.Put(id[:], rec)
	})
	if err != nil {
		return Fresh, fmt.Errorf("seen: record: %w", err)
	}
	return v, nil
}

// Count returns the number of records held for each key fingerprint.
func (s *Store) Count() (map[string]int, error) {
	out := make(map[string]int)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			out[string(name)] = b.Stats().KeyN
			return nil
		})
	})
	return out, err
}
