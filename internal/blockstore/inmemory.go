package blockstore

import (
	"context"
	"sync"

	"github.com/source-c/cryfs/internal/data"
)

// InMemory is a LowLevelStore backed by a sync.Map, with no durability
// and no capacity limit. It exists for tests and for running the cache
// and cipher layers without a real disk behind them; the FUSE/mount
// adapter and any real disk-backed store are out of scope here.
type InMemory struct {
	blocks sync.Map // BlockId -> []byte (owned copy)
}

var _ LowLevelStore = (*InMemory)(nil)

// NewInMemory returns an empty in-memory block store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Load(ctx context.Context, id BlockId) (*data.Data, bool, error) {
	v, ok := s.blocks.Load(id)
	if !ok {
		return nil, false, nil
	}
	stored := v.([]byte)
	cp := make([]byte, len(stored))
	copy(cp, stored)
	return data.FromBytes(cp), true, nil
}

func (s *InMemory) Store(ctx context.Context, id BlockId, d *data.Data) error {
	cp := make([]byte, d.Len())
	copy(cp, d.As())
	s.blocks.Store(id, cp)
	return nil
}

func (s *InMemory) Remove(ctx context.Context, id BlockId) error {
	if _, ok := s.blocks.LoadAndDelete(id); !ok {
		return ErrNotFound
	}
	return nil
}

func (s *InMemory) NumBlocks(ctx context.Context) (uint64, error) {
	var n uint64
	s.blocks.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n, nil
}

// EstimateNumFreeBytes has no real capacity to report against, so it
// returns a large fixed value, matching how example in-memory stores in
// this codebase's broader family represent "effectively unbounded".
func (s *InMemory) EstimateNumFreeBytes() (uint64, error) {
	return 1 << 40, nil
}

// BlockSizeFromPhysicalBlockSize imposes no overhead of its own: the
// physical size passed in is exactly what's available to the caller.
func (s *InMemory) BlockSizeFromPhysicalBlockSize(physicalBlockSize uint64) uint64 {
	return physicalBlockSize
}

func (s *InMemory) AllBlocks(ctx context.Context) (BlockIDIterator, error) {
	var ids []BlockId
	s.blocks.Range(func(k, _ interface{}) bool {
		ids = append(ids, k.(BlockId))
		return true
	})
	return newSliceIterator(ids), nil
}
