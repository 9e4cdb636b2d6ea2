// Package kdf derives symmetric keys from user passwords using Argon2id
// or scrypt, for callers that build an EncryptionKey from a password
// rather than from raw key bytes.
package kdf

import (
	"crypto/rand"
	"fmt"
	"math"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"
)

// KeyLen is the output length, in bytes, that both KDFs in this package
// produce by default: enough for the widest cipher this module supports
// (AES-256-GCM / XChaCha20-Poly1305 both take 32-byte keys).
const KeyLen = 32

const (
	// Argon2idDefaultMemory is the default memory usage in KB (64MB).
	Argon2idDefaultMemory = 64 * 1024
	// Argon2idDefaultIterations is the default number of iterations.
	Argon2idDefaultIterations = 3
	// Argon2idDefaultParallelism is the default parallelism factor.
	Argon2idDefaultParallelism = 4
	// Argon2idMinMemory is the minimum memory usage in KB (16MB) accepted
	// from a caller-supplied parameter set.
	Argon2idMinMemory = 16 * 1024
	// Argon2idMinIterations is the minimum number of iterations accepted.
	Argon2idMinIterations = 1
	// Argon2idMinParallelism is the minimum parallelism factor accepted.
	Argon2idMinParallelism = 1
	// Argon2idMinSaltLen is the minimum salt length accepted.
	Argon2idMinSaltLen = 16
)

// Argon2idKDF derives a key from a password using Argon2id.
type Argon2idKDF struct {
	Salt        []byte
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	KeyLen      uint32
}

// NewArgon2idKDF returns an Argon2idKDF with secure defaults and a fresh
// random salt.
func NewArgon2idKDF() (Argon2idKDF, error) {
	return NewArgon2idKDFWithParams(Argon2idDefaultMemory, Argon2idDefaultIterations, Argon2idDefaultParallelism)
}

// NewArgon2idKDFWithParams returns an Argon2idKDF with custom cost
// parameters and a fresh random salt.
func NewArgon2idKDFWithParams(memory uint32, iterations uint32, parallelism uint8) (Argon2idKDF, error) {
	salt := make([]byte, KeyLen)
	if _, err := rand.Read(salt); err != nil {
		return Argon2idKDF{}, fmt.Errorf("kdf: generating argon2id salt: %w", err)
	}
	return Argon2idKDF{
		Salt:        salt,
		Memory:      memory,
		Iterations:  iterations,
		Parallelism: parallelism,
		KeyLen:      KeyLen,
	}, nil
}

// DeriveKey derives a key from pw. It returns an error instead of
// terminating the process when the receiver's parameters fall below the
// hardcoded minimums, so that a tampered or malformed parameter set
// (e.g. loaded from an on-disk config) can be rejected by the caller.
func (a *Argon2idKDF) DeriveKey(pw []byte) ([]byte, error) {
	if err := a.validateParams(); err != nil {
		return nil, err
	}
	return argon2.IDKey(pw, a.Salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLen), nil
}

func (a *Argon2idKDF) validateParams() error {
	if a.Memory < Argon2idMinMemory {
		return fmt.Errorf("kdf: argon2id memory below minimum: value=%d KB, min=%d KB", a.Memory, Argon2idMinMemory)
	}
	if a.Iterations < Argon2idMinIterations {
		return fmt.Errorf("kdf: argon2id iterations below minimum: value=%d, min=%d", a.Iterations, Argon2idMinIterations)
	}
	if a.Parallelism < Argon2idMinParallelism {
		return fmt.Errorf("kdf: argon2id parallelism below minimum: value=%d, min=%d", a.Parallelism, Argon2idMinParallelism)
	}
	if len(a.Salt) < Argon2idMinSaltLen {
		return fmt.Errorf("kdf: argon2id salt length below minimum: value=%d, min=%d", len(a.Salt), Argon2idMinSaltLen)
	}
	if a.KeyLen < KeyLen {
		return fmt.Errorf("kdf: argon2id key length below minimum: value=%d, min=%d", a.KeyLen, KeyLen)
	}
	return nil
}

// GetRecommendedArgon2idParams returns the parameter set NewArgon2idKDF
// uses, exposed so callers that want to persist parameters alongside a
// salt don't need to duplicate the constants.
func GetRecommendedArgon2idParams() (memory uint32, iterations uint32, parallelism uint8) {
	return Argon2idDefaultMemory, Argon2idDefaultIterations, Argon2idDefaultParallelism
}

const (
	// ScryptDefaultLogN: N=2^17 (128MB) balances brute-force resistance
	// against interactive unlock latency on modern hardware.
	ScryptDefaultLogN = 17
	// From RFC7914 section 2: r=8, p=1 are the recommended interactive
	// parameters; we reject anything weaker.
	scryptMinR      = 8
	scryptMinP      = 1
	scryptMinLogN   = 10
	scryptMinSaltLen = 32
)

// ScryptKDF derives a key from a password using scrypt.
type ScryptKDF struct {
	Salt   []byte
	N      int
	R      int
	P      int
	KeyLen int
}

// NewScryptKDF returns a ScryptKDF with cost parameter N=2^logN (or the
// default logN when logN <= 0) and a fresh random salt.
func NewScryptKDF(logN int) (ScryptKDF, error) {
	salt := make([]byte, scryptMinSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return ScryptKDF{}, fmt.Errorf("kdf: generating scrypt salt: %w", err)
	}
	n := ScryptDefaultLogN
	if logN > 0 {
		n = logN
	}
	return ScryptKDF{
		Salt:   salt,
		N:      1 << uint32(n),
		R:      8,
		P:      1,
		KeyLen: KeyLen,
	}, nil
}

// DeriveKey derives a key from pw, rejecting parameter sets below the
// hardcoded minimums instead of exiting the process.
func (s *ScryptKDF) DeriveKey(pw []byte) ([]byte, error) {
	if err := s.validateParams(); err != nil {
		return nil, err
	}
	k, err := scrypt.Key(pw, s.Salt, s.N, s.R, s.P, s.KeyLen)
	if err != nil {
		return nil, fmt.Errorf("kdf: scrypt.Key: %w", err)
	}
	return k, nil
}

// LogN returns Log2(N); N is stored directly but LogN is easier to
// display and persist.
func (s *ScryptKDF) LogN() int {
	return int(math.Log2(float64(s.N)) + 0.5)
}

func (s *ScryptKDF) validateParams() error {
	minN := 1 << scryptMinLogN
	if s.N < minN {
		return fmt.Errorf("kdf: scrypt N below minimum: value=%d, min=%d", s.N, minN)
	}
	if s.R < scryptMinR {
		return fmt.Errorf("kdf: scrypt R below minimum: value=%d, min=%d", s.R, scryptMinR)
	}
	if s.P < scryptMinP {
		return fmt.Errorf("kdf: scrypt P below minimum: value=%d, min=%d", s.P, scryptMinP)
	}
	if len(s.Salt) < scryptMinSaltLen {
		return fmt.Errorf("kdf: scrypt salt length below minimum: value=%d, min=%d", len(s.Salt), scryptMinSaltLen)
	}
	if s.KeyLen < KeyLen {
		return fmt.Errorf("kdf: scrypt KeyLen below minimum: value=%d, min=%d", s.KeyLen, KeyLen)
	}
	return nil
}

// GetRecommendedScryptLogN returns the logN NewScryptKDF uses by
// default.
func GetRecommendedScryptLogN() int {
	return ScryptDefaultLogN
}
