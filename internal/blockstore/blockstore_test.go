package blockstore

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/source-c/cryfs/internal/cryptocore"
	"github.com/source-c/cryfs/internal/data"
)

func TestNewRandomBlockIdUnique(t *testing.T) {
	a, err := NewRandomBlockId()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewRandomBlockId()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two random block ids collided")
	}
}

func TestInMemoryStoreLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	id, _ := NewRandomBlockId()

	d := data.New(4)
	copy(d.AsMut(), []byte("abcd"))
	if err := s.Store(ctx, id, d); err != nil {
		t.Fatal(err)
	}

	got, found, err := s.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected block to be found")
	}
	if !bytes.Equal(got.As(), []byte("abcd")) {
		t.Fatalf("got %q", got.As())
	}
}

func TestInMemoryLoadMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	id, _ := NewRandomBlockId()

	_, found, err := s.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected block not to be found")
	}
}

func TestInMemoryRemoveMissingReturnsErrNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	id, _ := NewRandomBlockId()

	if err := s.Remove(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestInMemoryNumBlocksAndAllBlocks(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	ids := make([]BlockId, 5)
	for i := range ids {
		id, _ := NewRandomBlockId()
		ids[i] = id
		d := data.New(1)
		if err := s.Store(ctx, id, d); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.NumBlocks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != uint64(len(ids)) {
		t.Fatalf("NumBlocks() = %d, want %d", n, len(ids))
	}

	it, err := s.AllBlocks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[BlockId]bool{}
	for it.Next() {
		seen[it.ID()] = true
	}
	if err := it.Err(); err != nil {
		t.Fatal(err)
	}
	for _, id := range ids {
		if !seen[id] {
			t.Fatalf("AllBlocks() missed %s", id)
		}
	}
}

func TestEncryptedBlockStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	key := bytes.Repeat([]byte{0x09}, 32)
	cipher, err := cryptocore.NewXChaCha20Poly1305(key)
	if err != nil {
		t.Fatal(err)
	}
	base := NewInMemory()
	enc := NewEncryptedBlockStore(base, cipher)

	id, _ := NewRandomBlockId()
	plain := []byte("top secret block contents")
	d := data.NewWithReservation(len(plain), cipher.CiphertextOverheadPrefix(), cipher.CiphertextOverheadSuffix())
	copy(d.AsMut(), plain)

	if err := enc.Store(ctx, id, d); err != nil {
		t.Fatal(err)
	}

	// The base store must never see plaintext.
	raw, found, err := base.Load(ctx, id)
	if err != nil || !found {
		t.Fatalf("base.Load: found=%v err=%v", found, err)
	}
	if bytes.Contains(raw.As(), plain) {
		t.Fatal("base store holds recognizable plaintext")
	}

	got, found, err := enc.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected block to be found")
	}
	if !bytes.Equal(got.As(), plain) {
		t.Fatalf("got %q, want %q", got.As(), plain)
	}
}

func TestEncryptedBlockStoreDetectsTampering(t *testing.T) {
	ctx := context.Background()
	key := bytes.Repeat([]byte{0x0a}, 32)
	cipher, err := cryptocore.NewXChaCha20Poly1305(key)
	if err != nil {
		t.Fatal(err)
	}
	base := NewInMemory()
	enc := NewEncryptedBlockStore(base, cipher)

	id, _ := NewRandomBlockId()
	plain := []byte("tamper me")
	d := data.NewWithReservation(len(plain), cipher.CiphertextOverheadPrefix(), cipher.CiphertextOverheadSuffix())
	copy(d.AsMut(), plain)
	if err := enc.Store(ctx, id, d); err != nil {
		t.Fatal(err)
	}

	raw, _, err := base.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	tampered := raw.AsMut()
	tampered[0] ^= 0xFF
	if err := base.Store(ctx, id, raw); err != nil {
		t.Fatal(err)
	}

	if _, _, err := enc.Load(ctx, id); !errors.Is(err, ErrIntegrityViolation) {
		t.Fatalf("err = %v, want ErrIntegrityViolation", err)
	}
}

func TestEncryptedBlockStoreBlockSizeSubtractsOverhead(t *testing.T) {
	key := bytes.Repeat([]byte{0x0b}, 32)
	cipher, err := cryptocore.NewXChaCha20Poly1305(key)
	if err != nil {
		t.Fatal(err)
	}
	enc := NewEncryptedBlockStore(NewInMemory(), cipher)

	physical := uint64(4096)
	usable := enc.BlockSizeFromPhysicalBlockSize(physical)
	overhead := uint64(cipher.CiphertextOverheadPrefix() + cipher.CiphertextOverheadSuffix())
	if usable != physical-overhead {
		t.Fatalf("usable = %d, want %d", usable, physical-overhead)
	}
}
