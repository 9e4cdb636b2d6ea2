package cache

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/source-c/cryfs/internal/blockstore"
	"github.com/source-c/cryfs/internal/data"
	"github.com/source-c/cryfs/internal/parallelcrypto"
)

// slot is the cache's bookkeeping for one BlockId. mu serializes every
// operation against this id — load, create, mutate, flush, discard —
// so concurrent callers for the same BlockId are totally ordered while
// different BlockIds proceed independently (spec.md §5).
type slot struct {
	mu    sync.Mutex
	entry *CacheEntry   // nil until populated by a load or create
	elem  *list.Element // this id's node in BlockCache.lru; guarded by BlockCache.mu
}

// BlockCache is a write-back, per-block cache in front of a
// blockstore.LowLevelStore. It holds exactly one shared store handle
// (rather than giving each entry its own reference, which
// original_source/'s cache entry type left as an open question) and
// passes it down to entries explicitly on flush.
type BlockCache struct {
	store    blockstore.LowLevelStore
	parallel *parallelcrypto.ParallelCrypto
	capacity int // <=0 means unbounded

	mu    sync.Mutex // protects slots, lru, inUse — never held across store I/O
	slots map[blockstore.BlockId]*slot
	lru   *list.List // front = most recently used
	inUse map[blockstore.BlockId]int
}

// New returns a BlockCache over store with the given approximate
// capacity (in number of entries). capacity <= 0 means no eviction.
func New(store blockstore.LowLevelStore, capacity int) *BlockCache {
	return &BlockCache{
		store:    store,
		parallel: parallelcrypto.New(),
		capacity: capacity,
		slots:    make(map[blockstore.BlockId]*slot),
		lru:      list.New(),
		inUse:    make(map[blockstore.BlockId]int),
	}
}

// EntryGuard is the exclusive guard LoadOrCreate/Load/Create return: a
// live handle on one cache entry. While held it excludes every other
// accessor of the same BlockId. Callers must call Release when done.
type EntryGuard struct {
	cache *BlockCache
	id    blockstore.BlockId
	slot  *slot
}

// ID returns the BlockId this guard is for.
func (g *EntryGuard) ID() blockstore.BlockId {
	return g.id
}

// Data returns read-only payload access.
func (g *EntryGuard) Data() *data.Data {
	return g.slot.entry.Data()
}

// DataMut returns mutable payload access, transitioning the entry to
// Dirty.
func (g *EntryGuard) DataMut() *data.Data {
	return g.slot.entry.DataMut()
}

// Resize resizes the payload, transitioning the entry to Dirty.
func (g *EntryGuard) Resize(n int) {
	g.slot.entry.Resize(n)
}

// State reports the entry's current Dirty/Clean state.
func (g *EntryGuard) State() CacheEntryState {
	return g.slot.entry.State()
}

// Release gives up the guard, making the entry available to the next
// accessor of this BlockId. If the cache is now over capacity it evicts
// other, unheld entries until it is back within capacity or nothing
// more can be evicted; a failure to flush a victim is returned here,
// since this call is what grew the cache past capacity.
func (g *EntryGuard) Release(ctx context.Context) error {
	return g.cache.release(ctx, g.id, g.slot)
}

// acquire finds or creates the slot for id, marks it in-use, and
// returns it with its per-key lock held. Callers must eventually call
// release (directly, or via EntryGuard.Release).
//
// This call counts itself in c.inUse before it waits on s.mu, and
// evictIfNeeded and releaseEmpty only delete a slot from c.slots once
// no caller is counted there, so the slot found here normally stays
// current while this call waits. Handing back a slot that is no longer
// reachable from c.slots/c.lru would orphan it (its future mutations
// never flushed), so once s.mu is held membership is still re-verified
// under c.mu; if the slot is no longer current, this call backs off
// and retries against whatever slot is.
func (c *BlockCache) acquire(id blockstore.BlockId) *slot {
	for {
		c.mu.Lock()
		s, ok := c.slots[id]
		if !ok {
			s = &slot{}
			c.slots[id] = s
		}
		c.inUse[id]++
		c.mu.Unlock()

		s.mu.Lock()

		c.mu.Lock()
		if c.slots[id] != s {
			c.inUse[id]--
			if c.inUse[id] <= 0 {
				delete(c.inUse, id)
			}
			c.mu.Unlock()
			s.mu.Unlock()
			continue
		}
		c.mu.Unlock()
		return s
	}
}

// releaseEmpty undoes acquire for a slot that never got an entry (a
// failed load, a duplicate create, a lookup of a nonexistent block).
func (c *BlockCache) releaseEmpty(id blockstore.BlockId, s *slot) {
	s.mu.Unlock()
	c.mu.Lock()
	c.inUse[id]--
	if c.inUse[id] <= 0 {
		delete(c.inUse, id)
		if s.entry == nil {
			delete(c.slots, id)
		}
	}
	c.mu.Unlock()
}

// release is the normal path: the slot has a live entry, so it's moved
// to the front of the LRU list instead of being dropped, then a
// capacity check may trigger evictions (see evictIfNeeded).
func (c *BlockCache) release(ctx context.Context, id blockstore.BlockId, s *slot) error {
	s.mu.Unlock()

	c.mu.Lock()
	c.inUse[id]--
	if c.inUse[id] <= 0 {
		delete(c.inUse, id)
	}
	if s.entry != nil {
		if s.elem == nil {
			s.elem = c.lru.PushFront(id)
		} else {
			c.lru.MoveToFront(s.elem)
		}
	}
	c.mu.Unlock()

	return c.evictIfNeeded(ctx, id)
}

func (c *BlockCache) loadedCount() int {
	n := 0
	for _, s := range c.slots {
		if s.entry != nil {
			n++
		}
	}
	return n
}

// evictIfNeeded evicts least-recently-used entries, skipping excludeID
// and any entry currently held by a caller, until the cache is at or
// under capacity or nothing more can be evicted right now.
func (c *BlockCache) evictIfNeeded(ctx context.Context, excludeID blockstore.BlockId) error {
	if c.capacity <= 0 {
		return nil
	}
	for {
		c.mu.Lock()
		if c.loadedCount() <= c.capacity {
			c.mu.Unlock()
			return nil
		}
		var candidate *list.Element
		for e := c.lru.Back(); e != nil; e = e.Prev() {
			id := e.Value.(blockstore.BlockId)
			if id == excludeID || c.inUse[id] > 0 {
				continue
			}
			candidate = e
			break
		}
		if candidate == nil {
			c.mu.Unlock()
			return nil
		}
		id := candidate.Value.(blockstore.BlockId)
		s := c.slots[id]
		c.inUse[id]++
		c.mu.Unlock()

		s.mu.Lock()
		err := s.entry.flush(ctx, c.store, id)
		if err != nil {
			s.mu.Unlock()
			c.mu.Lock()
			c.inUse[id]--
			c.mu.Unlock()
			return fmt.Errorf("cache: evicting block %s: %w", id, err)
		}
		s.entry.assertDroppable(id)
		s.mu.Unlock()

		c.mu.Lock()
		c.inUse[id]--
		if c.inUse[id] > 0 {
			// acquire(id) claimed this slot while it was being flushed
			// and is now waiting on (or has been granted) s.mu. The
			// slot is still in active use, so it must stay reachable
			// from c.slots/c.lru for that caller's eventual release to
			// find; it is no longer this evictor's to remove. The flush
			// above already made it Clean, so nothing is lost — just
			// try the next least-recently-used candidate instead.
			c.mu.Unlock()
			continue
		}
		delete(c.inUse, id)
		delete(c.slots, id)
		c.lru.Remove(candidate)
		c.mu.Unlock()
	}
}

// LoadOrCreate returns a guard on the entry for id. If the block isn't
// already cached, it is loaded from the base store; if the base store
// doesn't have it either, a fresh zero-length Clean entry is created —
// this variant never reports "not present" as an error.
func (c *BlockCache) LoadOrCreate(ctx context.Context, id blockstore.BlockId) (*EntryGuard, error) {
	s := c.acquire(id)
	if s.entry == nil {
		d, found, err := c.store.Load(ctx, id)
		if err != nil {
			c.releaseEmpty(id, s)
			return nil, asCacheError(id, err)
		}
		if found {
			s.entry = newCacheEntry(d, Clean, ExistsInBaseStore)
		} else {
			s.entry = newCacheEntry(data.New(0), Clean, DoesntExistInBaseStore)
		}
	}
	return &EntryGuard{cache: c, id: id, slot: s}, nil
}

// Load returns a guard on the entry for id, and false if the block is
// present neither in cache nor in the base store — unlike LoadOrCreate,
// this variant distinguishes "not present" instead of manufacturing an
// empty entry for it.
func (c *BlockCache) Load(ctx context.Context, id blockstore.BlockId) (*EntryGuard, bool, error) {
	s := c.acquire(id)
	if s.entry != nil {
		return &EntryGuard{cache: c, id: id, slot: s}, true, nil
	}
	d, found, err := c.store.Load(ctx, id)
	if err != nil {
		c.releaseEmpty(id, s)
		return nil, false, asCacheError(id, err)
	}
	if !found {
		c.releaseEmpty(id, s)
		return nil, false, nil
	}
	s.entry = newCacheEntry(d, Clean, ExistsInBaseStore)
	return &EntryGuard{cache: c, id: id, slot: s}, true, nil
}

// Create inserts d as a new Dirty, DoesntExistInBaseStore entry. It
// fails with ErrAlreadyExists if the block is already present in cache
// or in the base store.
func (c *BlockCache) Create(ctx context.Context, id blockstore.BlockId, d *data.Data) (*EntryGuard, error) {
	s := c.acquire(id)
	if s.entry != nil {
		c.releaseEmpty(id, s)
		return nil, ErrAlreadyExists
	}
	_, found, err := c.store.Load(ctx, id)
	if err != nil {
		c.releaseEmpty(id, s)
		return nil, asCacheError(id, err)
	}
	if found {
		c.releaseEmpty(id, s)
		return nil, ErrAlreadyExists
	}
	s.entry = newCacheEntry(d, Dirty, DoesntExistInBaseStore)
	return &EntryGuard{cache: c, id: id, slot: s}, nil
}

// Remove drops id from the cache (discarding any unflushed content
// without writing it back) and removes it from the base store.
func (c *BlockCache) Remove(ctx context.Context, id blockstore.BlockId) error {
	s := c.acquire(id)
	wasCached := s.entry != nil
	if wasCached {
		s.entry.discard()
	}

	err := c.store.Remove(ctx, id)
	if err != nil && errors.Is(err, blockstore.ErrNotFound) && wasCached {
		// The entry only ever lived in cache (DoesntExistInBaseStore);
		// the base store never had it, which is fine.
		err = nil
	}

	c.mu.Lock()
	if s.elem != nil {
		c.lru.Remove(s.elem)
		s.elem = nil
	}
	s.entry = nil
	c.mu.Unlock()
	c.releaseEmpty(id, s)

	if err != nil {
		if errors.Is(err, blockstore.ErrNotFound) {
			return fmt.Errorf("%w: block %s: %w", ErrNotFound, id, err)
		}
		return asCacheError(id, err)
	}
	return nil
}

// FlushBlock flushes id if it's cached and Dirty. It returns
// ErrNotFound if the block isn't cached at all — there's nothing to
// flush, as opposed to a no-op flush of a Clean entry.
func (c *BlockCache) FlushBlock(ctx context.Context, id blockstore.BlockId) error {
	s := c.acquire(id)
	defer func() { _ = c.release(ctx, id, s) }()

	if s.entry == nil {
		return ErrNotFound
	}
	return s.entry.flush(ctx, c.store, id)
}

// FlushAll flushes every Dirty entry, fanned out across a worker pool
// sized to the machine (internal/parallelcrypto) since flushes of
// distinct blocks have no ordering requirement between them (spec.md
// §5). It is not atomic: a failure on one block leaves others in
// whatever state their own flush reached.
func (c *BlockCache) FlushAll(ctx context.Context) error {
	c.mu.Lock()
	ids := make([]blockstore.BlockId, 0, len(c.slots))
	for id, s := range c.slots {
		if s.entry != nil && s.entry.State() == Dirty {
			ids = append(ids, id)
		}
	}
	c.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}

	var mu sync.Mutex
	failures := make(map[string]error)

	c.parallel.ProcessBlocksParallel(len(ids), func(start, end int) {
		for i := start; i < end; i++ {
			id := ids[i]
			if err := c.FlushBlock(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
				mu.Lock()
				failures[id.String()] = err
				mu.Unlock()
			}
		}
	})

	if len(failures) > 0 {
		return &FlushAllError{Failures: failures}
	}
	return nil
}

// NumBlocks reports the total number of distinct blocks across cache
// and base store, de-duplicated: every block the base store already
// knows about, plus cached entries the base store doesn't know about
// yet (fresh, unflushed creates).
func (c *BlockCache) NumBlocks(ctx context.Context) (uint64, error) {
	base, err := c.store.NumBlocks(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	var extra uint64
	for _, s := range c.slots {
		if s.entry != nil && s.entry.BaseState() == DoesntExistInBaseStore {
			extra++
		}
	}
	c.mu.Unlock()

	return base + extra, nil
}

// TearDown flushes everything, asserts no Dirty entries remain (a
// Dirty survivor here is a logic bug, not a caller error, so it aborts
// the process the same way assertDroppable does), and drops the
// cache's in-memory state. Calling it while another caller still holds
// a guard is also fatal — tear_down is meant to be the last operation
// against this cache.
func (c *BlockCache) TearDown(ctx context.Context) error {
	if err := c.FlushAll(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, s := range c.slots {
		if c.inUse[id] > 0 {
			log.Panicf("cache: tear_down called while block %s is still held by a caller", id)
		}
		if s.entry != nil {
			s.entry.assertDroppable(id)
		}
	}
	c.slots = make(map[blockstore.BlockId]*slot)
	c.lru.Init()
	c.inUse = make(map[blockstore.BlockId]int)
	return nil
}

// asCacheError turns a blockstore-level integrity failure into
// *ErrCorrupted so callers can tell corruption from a plain I/O error;
// everything else passes through wrapped with the failing id.
func asCacheError(id blockstore.BlockId, err error) error {
	if errors.Is(err, blockstore.ErrIntegrityViolation) {
		return &ErrCorrupted{Err: err}
	}
	return fmt.Errorf("cache: block %s: %w", id, err)
}
