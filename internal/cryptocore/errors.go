package cryptocore

import "errors"

// ErrIntegrityViolation is returned when ciphertext fails authentication
// or is too short to contain the cipher's fixed overhead.
var ErrIntegrityViolation = errors.New("cryptocore: integrity violation")

// ErrKeySizeMismatch is returned when a key passed to a cipher
// constructor does not match that cipher's required KeySize.
var ErrKeySizeMismatch = errors.New("cryptocore: key size mismatch")

// ErrReservationTooSmall is returned when Encrypt is given a Data whose
// prefix/suffix reservation cannot hold the cipher's overhead.
var ErrReservationTooSmall = errors.New("cryptocore: reservation too small for cipher overhead")

// ErrHardwareUnavailable is returned by NewAES256GCMHardware when the
// running CPU lacks the AES-NI/PCLMULQDQ (amd64) or Crypto Extension
// (arm64) instructions that backend claims to accelerate.
var ErrHardwareUnavailable = errors.New("cryptocore: CPU does not support hardware AES acceleration")
