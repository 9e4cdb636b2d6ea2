package cryptocore

import (
	"fmt"

	"github.com/source-c/cryfs/internal/cpudetection"
	"github.com/source-c/cryfs/internal/data"
)

// AES256GCMDispatchingCipher selects the hardware or software AES-256-GCM
// backend once, at construction time, based on the running CPU's
// capabilities — never per call, so there's no branch per block (see
// DESIGN.md "Hardware dispatch"). Both backends share the same
// nonce-prefix/tag-suffix wire layout and are fully interoperable: a
// block encrypted on a CPU with AES-NI decrypts on one without it, and
// vice versa.
type AES256GCMDispatchingCipher struct {
	inner   Cipher
	backend Backend
}

// NewAES256GCMDispatching constructs an AES256GCMDispatchingCipher from
// a 32-byte key, choosing AES256GCMHardwareCipher when the CPU supports
// AES-NI+PCLMULQDQ (amd64) or the Crypto Extension (arm64), and
// AES256GCMSoftwareCipher otherwise.
func NewAES256GCMDispatching(key []byte) (*AES256GCMDispatchingCipher, error) {
	if len(key) != aes256KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrKeySizeMismatch, len(key), aes256KeySize)
	}

	if cpudetection.Detect().HasAESHardware {
		hw, err := NewAES256GCMHardware(key)
		if err == nil {
			return &AES256GCMDispatchingCipher{inner: hw, backend: BackendHardware}, nil
		}
		// Detection said yes but construction failed for some other
		// reason; fall through to software rather than fail the whole
		// cipher.
	}

	sw, err := NewAES256GCMSoftware(key)
	if err != nil {
		return nil, err
	}
	return &AES256GCMDispatchingCipher{inner: sw, backend: BackendSoftware}, nil
}

// Backend reports which concrete implementation this instance selected.
func (c *AES256GCMDispatchingCipher) Backend() Backend { return c.backend }

func (c *AES256GCMDispatchingCipher) KeySize() int { return aes256KeySize }

func (c *AES256GCMDispatchingCipher) CiphertextOverheadPrefix() int {
	return c.inner.CiphertextOverheadPrefix()
}

func (c *AES256GCMDispatchingCipher) CiphertextOverheadSuffix() int {
	return c.inner.CiphertextOverheadSuffix()
}

func (c *AES256GCMDispatchingCipher) Encrypt(d *data.Data) (*data.Data, error) {
	return c.inner.Encrypt(d)
}

func (c *AES256GCMDispatchingCipher) Decrypt(d *data.Data) (*data.Data, error) {
	return c.inner.Decrypt(d)
}
