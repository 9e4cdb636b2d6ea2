package blockstore

import (
	"context"

	"github.com/source-c/cryfs/internal/data"
)

// LowLevelStore is the untyped (BlockId -> bytes) persistence contract
// the cache is built on. It knows nothing about encryption, directory
// structure, or path names: just opaque blocks keyed by BlockId.
//
// Implementations must be safe for concurrent use by multiple
// goroutines; the cache serializes writes to a single BlockId itself
// but may have different BlockIds in flight concurrently.
type LowLevelStore interface {
	// Load reads the block with the given id. The second return value
	// is false if the block does not exist; that is not reported via
	// ErrNotFound here, since "doesn't exist" is an ordinary, expected
	// outcome of Load (unlike Remove, where it is a caller error).
	Load(ctx context.Context, id BlockId) (*data.Data, bool, error)

	// Store writes the block, creating it if it doesn't already exist
	// or overwriting it if it does.
	Store(ctx context.Context, id BlockId, d *data.Data) error

	// Remove deletes the block. It returns ErrNotFound if no such
	// block exists.
	Remove(ctx context.Context, id BlockId) error

	// NumBlocks reports how many blocks the store currently holds.
	NumBlocks(ctx context.Context) (uint64, error)

	// EstimateNumFreeBytes reports an estimate of remaining storage
	// capacity. Stores with no inherent capacity limit (e.g. InMemory)
	// may return a fixed large value.
	EstimateNumFreeBytes() (uint64, error)

	// BlockSizeFromPhysicalBlockSize translates a size budget expressed
	// in terms of the underlying physical medium into the usable block
	// payload size this store can offer, after subtracting whatever
	// per-block overhead this store (or anything it wraps) imposes.
	BlockSizeFromPhysicalBlockSize(physicalBlockSize uint64) uint64

	// AllBlocks returns an iterator over every BlockId currently
	// present. Iteration order is unspecified.
	AllBlocks(ctx context.Context) (BlockIDIterator, error)
}

// BlockIDIterator walks a BlockId set one id at a time, in the style of
// bufio.Scanner / sql.Rows: call Next() until it returns false, then
// check Err() to tell "exhausted" from "failed mid-iteration".
type BlockIDIterator interface {
	Next() bool
	ID() BlockId
	Err() error
}

// sliceIterator adapts a pre-materialized []BlockId to BlockIDIterator.
// Stores backed by an in-memory index (InMemory, and any decorator that
// just forwards to one) can satisfy AllBlocks with this rather than
// hand-rolling iteration state.
type sliceIterator struct {
	ids []BlockId
	pos int
}

func newSliceIterator(ids []BlockId) *sliceIterator {
	return &sliceIterator{ids: ids, pos: -1}
}

func (it *sliceIterator) Next() bool {
	it.pos++
	return it.pos < len(it.ids)
}

func (it *sliceIterator) ID() BlockId {
	return it.ids[it.pos]
}

func (it *sliceIterator) Err() error {
	return nil
}
