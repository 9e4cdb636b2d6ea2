package cryptocore

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/source-c/cryfs/internal/data"
)

const aes128KeySize = 16

// AES128GCMCipher implements Cipher using AES-128 in GCM mode via the
// standard library, which dispatches to the asm AES-NI/ARMv8-Crypto
// fast path automatically when the running CPU supports it.
type AES128GCMCipher struct {
	aead cipher.AEAD
}

// NewAES128GCM constructs an AES128GCMCipher from a 16-byte key.
func NewAES128GCM(key []byte) (*AES128GCMCipher, error) {
	if len(key) != aes128KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrKeySizeMismatch, len(key), aes128KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptocore: aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptocore: cipher.NewGCM: %w", err)
	}
	return &AES128GCMCipher{aead: aead}, nil
}

func (c *AES128GCMCipher) KeySize() int { return aes128KeySize }

func (c *AES128GCMCipher) CiphertextOverheadPrefix() int { return c.aead.NonceSize() }

func (c *AES128GCMCipher) CiphertextOverheadSuffix() int { return c.aead.Overhead() }

func (c *AES128GCMCipher) Encrypt(d *data.Data) (*data.Data, error) {
	return aeadEncrypt(c.aead, d)
}

func (c *AES128GCMCipher) Decrypt(d *data.Data) (*data.Data, error) {
	return aeadDecrypt(c.aead, d)
}
