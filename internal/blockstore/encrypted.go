package blockstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/source-c/cryfs/internal/cryptocore"
	"github.com/source-c/cryfs/internal/data"
)

// EncryptedBlockStore decorates a LowLevelStore, running every block
// through a cryptocore.Cipher on the way in and out. The base store
// never sees plaintext; it only ever stores and returns ciphertext.
type EncryptedBlockStore struct {
	base   LowLevelStore
	cipher cryptocore.Cipher
}

var _ LowLevelStore = (*EncryptedBlockStore)(nil)

// NewEncryptedBlockStore wraps base so that every Load/Store transcrypts
// through cipher.
func NewEncryptedBlockStore(base LowLevelStore, cipher cryptocore.Cipher) *EncryptedBlockStore {
	return &EncryptedBlockStore{base: base, cipher: cipher}
}

func (s *EncryptedBlockStore) Load(ctx context.Context, id BlockId) (*data.Data, bool, error) {
	ciphertext, found, err := s.base.Load(ctx, id)
	if err != nil {
		return nil, false, wrapBaseStoreErr("load", err)
	}
	if !found {
		return nil, false, nil
	}

	plaintext, err := s.cipher.Decrypt(ciphertext)
	if err != nil {
		if errors.Is(err, cryptocore.ErrIntegrityViolation) {
			return nil, false, fmt.Errorf("%w: block %s: %v", ErrIntegrityViolation, id, err)
		}
		return nil, false, fmt.Errorf("blockstore: decrypting block %s: %w", id, err)
	}
	return plaintext, true, nil
}

func (s *EncryptedBlockStore) Store(ctx context.Context, id BlockId, d *data.Data) error {
	// Encrypt mutates its argument in place (it grows the payload into
	// ciphertext via the prefix/suffix reservations rather than
	// allocating). d is caller-owned — callers like the cache pass
	// their own entry's live payload — so it must be cloned first, or
	// the caller's plaintext turns into ciphertext out from under them.
	// data.Data's own Clone() drops the reservation budget, which
	// Encrypt needs, so the clone is built by hand here with exactly the
	// cipher's overhead reserved, whatever reservation d itself carries.
	clone := data.NewWithReservation(d.Len(), s.cipher.CiphertextOverheadPrefix(), s.cipher.CiphertextOverheadSuffix())
	copy(clone.AsMut(), d.As())

	ciphertext, err := s.cipher.Encrypt(clone)
	if err != nil {
		return fmt.Errorf("blockstore: encrypting block %s: %w", id, err)
	}
	if err := s.base.Store(ctx, id, ciphertext); err != nil {
		return wrapBaseStoreErr("store", err)
	}
	return nil
}

func (s *EncryptedBlockStore) Remove(ctx context.Context, id BlockId) error {
	if err := s.base.Remove(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return wrapBaseStoreErr("remove", err)
	}
	return nil
}

func (s *EncryptedBlockStore) NumBlocks(ctx context.Context) (uint64, error) {
	n, err := s.base.NumBlocks(ctx)
	if err != nil {
		return 0, wrapBaseStoreErr("numblocks", err)
	}
	return n, nil
}

func (s *EncryptedBlockStore) EstimateNumFreeBytes() (uint64, error) {
	return s.base.EstimateNumFreeBytes()
}

// BlockSizeFromPhysicalBlockSize subtracts the cipher's fixed per-block
// overhead (nonce prefix + authentication tag suffix) from whatever
// usable size the base store offers, so callers size plaintext payloads
// correctly regardless of which cipher is in play.
func (s *EncryptedBlockStore) BlockSizeFromPhysicalBlockSize(physicalBlockSize uint64) uint64 {
	usable := s.base.BlockSizeFromPhysicalBlockSize(physicalBlockSize)
	overhead := uint64(s.cipher.CiphertextOverheadPrefix() + s.cipher.CiphertextOverheadSuffix())
	if usable <= overhead {
		return 0
	}
	return usable - overhead
}

func (s *EncryptedBlockStore) AllBlocks(ctx context.Context) (BlockIDIterator, error) {
	it, err := s.base.AllBlocks(ctx)
	if err != nil {
		return nil, wrapBaseStoreErr("allblocks", err)
	}
	return it, nil
}
