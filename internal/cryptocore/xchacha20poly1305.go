package cryptocore

import (
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/source-c/cryfs/internal/data"
)

// XChaCha20Poly1305Cipher implements Cipher using XChaCha20-Poly1305: a
// 32-byte key, 24-byte extended nonce (long enough to draw at random
// with negligible collision probability over the lifetime of a
// filesystem), and a 16-byte Poly1305 tag.
type XChaCha20Poly1305Cipher struct {
	aead cipher.AEAD
}

// NewXChaCha20Poly1305 constructs an XChaCha20Poly1305Cipher from a
// 32-byte key.
func NewXChaCha20Poly1305(key []byte) (*XChaCha20Poly1305Cipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrKeySizeMismatch, len(key), chacha20poly1305.KeySize)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("cryptocore: chacha20poly1305.NewX: %w", err)
	}
	return &XChaCha20Poly1305Cipher{aead: aead}, nil
}

func (c *XChaCha20Poly1305Cipher) KeySize() int { return chacha20poly1305.KeySize }

func (c *XChaCha20Poly1305Cipher) CiphertextOverheadPrefix() int { return c.aead.NonceSize() }

func (c *XChaCha20Poly1305Cipher) CiphertextOverheadSuffix() int { return c.aead.Overhead() }

func (c *XChaCha20Poly1305Cipher) Encrypt(d *data.Data) (*data.Data, error) {
	return aeadEncrypt(c.aead, d)
}

func (c *XChaCha20Poly1305Cipher) Decrypt(d *data.Data) (*data.Data, error) {
	return aeadDecrypt(c.aead, d)
}
