// Package cryptocore implements the symmetric authenticated-encryption
// layer: a single Cipher contract backed by four concrete algorithms
// (XChaCha20-Poly1305, AES-128-GCM, and AES-256-GCM in software,
// hardware and CPU-dispatching variants), all sharing one on-the-wire
// layout (nonce prefix, ciphertext payload, tag suffix) so that blocks
// written under one variant of a cipher family are readable by any
// other.
package cryptocore

import (
	"github.com/source-c/cryfs/internal/data"
	"github.com/source-c/cryfs/internal/processhardening"
)

// hardening is applied once, at package init, so that any process
// linking this package — which means any process that will hold key
// material — runs with core dumps disabled before the first
// EncryptionKey is ever constructed.
func init() {
	processhardening.New().HardenProcess()
}

// Backend identifies which concrete AES-256-GCM implementation a
// dispatching cipher selected at construction time.
type Backend int

const (
	// BackendSoftware is the pure-Go AES round-function implementation,
	// never touching the CPU's AES-NI/Crypto-Extension instructions.
	BackendSoftware Backend = iota
	// BackendHardware is the stdlib crypto/aes implementation, which the
	// Go runtime accelerates via AES-NI (amd64) or the ARMv8 Cryptography
	// Extension (arm64) when present.
	BackendHardware
)

// String implements fmt.Stringer.
func (b Backend) String() string {
	switch b {
	case BackendSoftware:
		return "software"
	case BackendHardware:
		return "hardware"
	default:
		return "unknown"
	}
}

// Cipher is the authenticated-encryption contract every concrete
// algorithm in this package implements.
//
// Encrypt consumes a *data.Data whose payload is the plaintext and
// whose prefix/suffix reservations are each at least as large as the
// corresponding CiphertextOverhead*, and returns a *data.Data whose
// payload is nonce||ciphertext||tag. It never allocates when the
// caller supplied enough reservation: it grows the payload into the
// reservations in place.
//
// Decrypt consumes ciphertext in the same layout and returns the
// plaintext, or an error satisfying errors.Is against ErrIntegrityViolation.
type Cipher interface {
	// KeySize is the required key length in bytes.
	KeySize() int
	// CiphertextOverheadPrefix is the number of bytes Encrypt prepends
	// (the nonce).
	CiphertextOverheadPrefix() int
	// CiphertextOverheadSuffix is the number of bytes Encrypt appends
	// (the authentication tag).
	CiphertextOverheadSuffix() int
	// Encrypt seals d's payload in place, drawing a fresh random nonce.
	Encrypt(d *data.Data) (*data.Data, error)
	// Decrypt opens d's payload in place.
	Decrypt(d *data.Data) (*data.Data, error)
}
