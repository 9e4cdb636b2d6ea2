package cryptocore

import (
	"crypto/cipher"
	"fmt"

	"github.com/source-c/cryfs/internal/cryptocore/softwareaes"
	"github.com/source-c/cryfs/internal/data"
)

// AES256GCMSoftwareCipher implements Cipher using AES-256 in GCM mode
// over softwareaes.Block, a pure-Go AES-256 implementation that never
// dispatches to AES-NI or the ARMv8 Crypto Extension. GCM's polynomial
// MAC (GHASH) works over any 128-bit block cipher, so composing it
// with softwareaes.Block via the standard library's cipher.NewGCM
// yields a byte-for-byte standard GCM AEAD with a genuinely
// independent, non-accelerated block cipher underneath.
type AES256GCMSoftwareCipher struct {
	aead cipher.AEAD
}

// NewAES256GCMSoftware constructs an AES256GCMSoftwareCipher from a
// 32-byte key.
func NewAES256GCMSoftware(key []byte) (*AES256GCMSoftwareCipher, error) {
	if len(key) != aes256KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrKeySizeMismatch, len(key), aes256KeySize)
	}
	block, err := softwareaes.New(key)
	if err != nil {
		return nil, fmt.Errorf("cryptocore: softwareaes.New: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptocore: cipher.NewGCM: %w", err)
	}
	return &AES256GCMSoftwareCipher{aead: aead}, nil
}

func (c *AES256GCMSoftwareCipher) KeySize() int { return aes256KeySize }

func (c *AES256GCMSoftwareCipher) CiphertextOverheadPrefix() int { return c.aead.NonceSize() }

func (c *AES256GCMSoftwareCipher) CiphertextOverheadSuffix() int { return c.aead.Overhead() }

func (c *AES256GCMSoftwareCipher) Encrypt(d *data.Data) (*data.Data, error) {
	return aeadEncrypt(c.aead, d)
}

func (c *AES256GCMSoftwareCipher) Decrypt(d *data.Data) (*data.Data, error) {
	return aeadDecrypt(c.aead, d)
}
