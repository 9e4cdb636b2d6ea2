package cryptocore

import (
	"crypto/rand"
	"fmt"

	"github.com/source-c/cryfs/internal/kdf"
	"github.com/source-c/cryfs/internal/memprotect"
)

// EncryptionKey is a fixed-size secret, constructed via a fill callback
// so the raw bytes never pass through caller code in an uncontrolled
// form, and explicitly zeroised once the caller is done with it.
type EncryptionKey struct {
	bytes []byte
	mp    *memprotect.MemoryProtection
	wiped bool
}

// NewEncryptionKey allocates a key of size n and fills it by calling
// fill once with the backing slice. fill must write exactly n bytes;
// it is typically crypto/rand, a KDF's DeriveKey, or a test fixture.
func NewEncryptionKey(n int, fill func(buf []byte) error) (*EncryptionKey, error) {
	mp := memprotect.New()
	buf := mp.AllocatePageAligned(n)
	if err := fill(buf); err != nil {
		mp.SecureWipeEnhanced(buf)
		return nil, fmt.Errorf("cryptocore: filling key: %w", err)
	}
	return &EncryptionKey{bytes: buf, mp: mp}, nil
}

// NewRandomEncryptionKey returns a key of size n filled from crypto/rand.
func NewRandomEncryptionKey(n int) (*EncryptionKey, error) {
	return NewEncryptionKey(n, func(buf []byte) error {
		_, err := rand.Read(buf)
		return err
	})
}

// NewEncryptionKeyFromPassword derives a key from a password using
// Argon2id, and wraps the derived bytes as an EncryptionKey. The KDF
// output is the fill callback's source of bytes; this is additive to
// the raw fill-callback constructor, not a replacement for it.
func NewEncryptionKeyFromPassword(password []byte, a kdf.Argon2idKDF) (*EncryptionKey, error) {
	return NewEncryptionKey(int(a.KeyLen), func(buf []byte) error {
		key, err := a.DeriveKey(password)
		if err != nil {
			return err
		}
		if len(key) != len(buf) {
			return fmt.Errorf("cryptocore: argon2id produced %d bytes, want %d", len(key), len(buf))
		}
		copy(buf, key)
		return nil
	})
}

// NewEncryptionKeyFromPasswordScrypt derives a key from a password using
// scrypt.
func NewEncryptionKeyFromPasswordScrypt(password []byte, s kdf.ScryptKDF) (*EncryptionKey, error) {
	return NewEncryptionKey(s.KeyLen, func(buf []byte) error {
		key, err := s.DeriveKey(password)
		if err != nil {
			return err
		}
		if len(key) != len(buf) {
			return fmt.Errorf("cryptocore: scrypt produced %d bytes, want %d", len(key), len(buf))
		}
		copy(buf, key)
		return nil
	})
}

// Bytes returns the raw key material. The returned slice aliases the
// key's backing storage and must not be retained past Wipe.
func (k *EncryptionKey) Bytes() []byte {
	return k.bytes
}

// Len returns the key length in bytes.
func (k *EncryptionKey) Len() int {
	return len(k.bytes)
}

// Wipe zeroes the key's backing memory and releases its memory lock.
// Calling any other method after Wipe is a programmer error.
func (k *EncryptionKey) Wipe() {
	if k.wiped {
		return
	}
	k.mp.SecureZero(k.bytes)
	k.mp.UnlockMemory(k.bytes)
	k.wiped = true
}
