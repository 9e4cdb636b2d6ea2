package cryptocore

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/source-c/cryfs/internal/cpudetection"
	"github.com/source-c/cryfs/internal/data"
)

const aes256KeySize = 32

// AES256GCMHardwareCipher implements Cipher using AES-256 in GCM mode
// via the standard library's asm-accelerated AES-NI/ARMv8-Crypto
// backend. Construction fails closed (ErrHardwareUnavailable) if the
// running CPU doesn't actually have the acceleration, so an instance of
// this type is always a guarantee that the accelerated path ran.
type AES256GCMHardwareCipher struct {
	aead cipher.AEAD
}

// NewAES256GCMHardware constructs an AES256GCMHardwareCipher from a
// 32-byte key. It returns ErrHardwareUnavailable if the CPU lacks
// AES-NI+PCLMULQDQ (amd64) or the Crypto Extension (arm64); callers
// that don't care which backend runs should use
// NewAES256GCMDispatching instead.
func NewAES256GCMHardware(key []byte) (*AES256GCMHardwareCipher, error) {
	if len(key) != aes256KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrKeySizeMismatch, len(key), aes256KeySize)
	}
	if !cpudetection.Detect().HasAESHardware {
		return nil, ErrHardwareUnavailable
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptocore: aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptocore: cipher.NewGCM: %w", err)
	}
	return &AES256GCMHardwareCipher{aead: aead}, nil
}

func (c *AES256GCMHardwareCipher) KeySize() int { return aes256KeySize }

func (c *AES256GCMHardwareCipher) CiphertextOverheadPrefix() int { return c.aead.NonceSize() }

func (c *AES256GCMHardwareCipher) CiphertextOverheadSuffix() int { return c.aead.Overhead() }

func (c *AES256GCMHardwareCipher) Encrypt(d *data.Data) (*data.Data, error) {
	return aeadEncrypt(c.aead, d)
}

func (c *AES256GCMHardwareCipher) Decrypt(d *data.Data) (*data.Data, error) {
	return aeadDecrypt(c.aead, d)
}
