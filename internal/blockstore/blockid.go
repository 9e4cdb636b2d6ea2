// Package blockstore defines the untyped (BlockId -> bytes) persistence
// contract the block cache is built on, plus two concrete stores: an
// in-memory one for tests/local use, and an encrypting decorator that
// runs every block through a cryptocore.Cipher.
package blockstore

import (
	"crypto/rand"
	"encoding/hex"
)

// idSize is the width, in bytes, of a BlockId.
const idSize = 16

// BlockId is an opaque fixed-width identifier for a block. It is
// comparable and usable as a map key.
type BlockId [idSize]byte

// NewRandomBlockId returns a BlockId filled from crypto/rand. spec.md
// leaves BlockId minting unspecified ("created externally"); this is
// the concrete mechanism callers outside the core (e.g. an FS layer
// allocating a new block) use.
func NewRandomBlockId() (BlockId, error) {
	var id BlockId
	if _, err := rand.Read(id[:]); err != nil {
		return BlockId{}, err
	}
	return id, nil
}

// String returns the hex encoding of the id, for logging.
func (id BlockId) String() string {
	return hex.EncodeToString(id[:])
}
