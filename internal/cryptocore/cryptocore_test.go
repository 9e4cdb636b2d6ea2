package cryptocore

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/source-c/cryfs/internal/data"
)

func newCiphers(t *testing.T) map[string]Cipher {
	t.Helper()

	key32 := make([]byte, 32)
	if _, err := rand.Read(key32); err != nil {
		t.Fatal(err)
	}
	key16 := make([]byte, 16)
	if _, err := rand.Read(key16); err != nil {
		t.Fatal(err)
	}

	xchacha, err := NewXChaCha20Poly1305(key32)
	if err != nil {
		t.Fatal(err)
	}
	aes128, err := NewAES128GCM(key16)
	if err != nil {
		t.Fatal(err)
	}
	aes256sw, err := NewAES256GCMSoftware(key32)
	if err != nil {
		t.Fatal(err)
	}
	aes256disp, err := NewAES256GCMDispatching(key32)
	if err != nil {
		t.Fatal(err)
	}

	ciphers := map[string]Cipher{
		"xchacha20poly1305":   xchacha,
		"aes128gcm":           aes128,
		"aes256gcm-software":  aes256sw,
		"aes256gcm-dispatch":  aes256disp,
	}

	// The hardware backend only constructs on CPUs that actually have
	// AES-NI/Crypto Extension; skip it rather than fail on CI runners
	// without the instruction.
	if hw, err := NewAES256GCMHardware(key32); err == nil {
		ciphers["aes256gcm-hardware"] = hw
	}

	return ciphers
}

func plaintextData(c Cipher, payload []byte) *data.Data {
	return data.NewWithReservation(len(payload), c.CiphertextOverheadPrefix(), c.CiphertextOverheadSuffix())
}

func TestRoundTrip(t *testing.T) {
	for name, c := range newCiphers(t) {
		c := c
		t.Run(name, func(t *testing.T) {
			for _, plain := range [][]byte{
				[]byte(""),
				[]byte("Hello World"),
				bytes.Repeat([]byte{0x42}, 4096),
			} {
				d := plaintextData(c, plain)
				copy(d.AsMut(), plain)

				enc, err := c.Encrypt(d)
				if err != nil {
					t.Fatalf("Encrypt: %v", err)
				}
				dec, err := c.Decrypt(enc)
				if err != nil {
					t.Fatalf("Decrypt: %v", err)
				}
				if !bytes.Equal(dec.As(), plain) {
					t.Fatalf("round trip mismatch: got %x, want %x", dec.As(), plain)
				}
			}
		})
	}
}

func TestSizeAlgebra(t *testing.T) {
	for name, c := range newCiphers(t) {
		c := c
		t.Run(name, func(t *testing.T) {
			plain := []byte("size algebra check")
			d := plaintextData(c, plain)
			copy(d.AsMut(), plain)

			enc, err := c.Encrypt(d)
			if err != nil {
				t.Fatal(err)
			}
			want := len(plain) + c.CiphertextOverheadPrefix() + c.CiphertextOverheadSuffix()
			if enc.Len() != want {
				t.Fatalf("ciphertext len = %d, want %d", enc.Len(), want)
			}
		})
	}
}

func TestIntegrityBitFlip(t *testing.T) {
	for name, c := range newCiphers(t) {
		c := c
		t.Run(name, func(t *testing.T) {
			plain := []byte("Hello World")
			d := plaintextData(c, plain)
			copy(d.AsMut(), plain)

			enc, err := c.Encrypt(d)
			if err != nil {
				t.Fatal(err)
			}
			tampered := enc.AsMut()
			tampered[len(tampered)/2] ^= 0x01

			if _, err := c.Decrypt(enc); err == nil {
				t.Fatal("expected decrypt to fail after bit flip")
			} else if !errors.Is(err, ErrIntegrityViolation) {
				t.Fatalf("error = %v, want ErrIntegrityViolation", err)
			}
		})
	}
}

func TestTruncationRejection(t *testing.T) {
	for name, c := range newCiphers(t) {
		c := c
		t.Run(name, func(t *testing.T) {
			plain := []byte("Hello World")
			d := plaintextData(c, plain)
			copy(d.AsMut(), plain)

			enc, err := c.Encrypt(d)
			if err != nil {
				t.Fatal(err)
			}
			truncated := data.FromBytes(enc.IntoBytes()[:enc.Len()-1])

			if _, err := c.Decrypt(truncated); err == nil {
				t.Fatal("expected decrypt to fail on truncated ciphertext")
			}
		})
	}
}

func TestKeyIsolation(t *testing.T) {
	key1 := bytes.Repeat([]byte{0x01}, 32)
	key2 := bytes.Repeat([]byte{0x02}, 32)

	c1, err := NewAES256GCMSoftware(key1)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := NewAES256GCMSoftware(key2)
	if err != nil {
		t.Fatal(err)
	}

	plain := []byte("Hello World")
	d := plaintextData(c1, plain)
	copy(d.AsMut(), plain)

	enc, err := c1.Encrypt(d)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c2.Decrypt(enc); !errors.Is(err, ErrIntegrityViolation) {
		t.Fatalf("decrypting under wrong key: err = %v, want ErrIntegrityViolation", err)
	}
}

func TestNonDeterminism(t *testing.T) {
	for name, c := range newCiphers(t) {
		c := c
		t.Run(name, func(t *testing.T) {
			plain := []byte("Hello World")

			d1 := plaintextData(c, plain)
			copy(d1.AsMut(), plain)
			enc1, err := c.Encrypt(d1)
			if err != nil {
				t.Fatal(err)
			}

			d2 := plaintextData(c, plain)
			copy(d2.AsMut(), plain)
			enc2, err := c.Encrypt(d2)
			if err != nil {
				t.Fatal(err)
			}

			if bytes.Equal(enc1.As(), enc2.As()) {
				t.Fatal("two encryptions of the same plaintext under the same key produced identical ciphertext")
			}
		})
	}
}

func TestAES256GCMInteroperability(t *testing.T) {
	key := bytes.Repeat([]byte{0x07}, 32)
	sw, err := NewAES256GCMSoftware(key)
	if err != nil {
		t.Fatal(err)
	}
	hw, err := NewAES256GCMHardware(key)
	if err != nil {
		t.Skipf("hardware AES unavailable on this CPU: %v", err)
	}

	plain := []byte("Hello World")

	dsw := plaintextData(sw, plain)
	copy(dsw.AsMut(), plain)
	encSW, err := sw.Encrypt(dsw)
	if err != nil {
		t.Fatal(err)
	}
	decByHW, err := hw.Decrypt(encSW)
	if err != nil {
		t.Fatalf("hardware failed to decrypt software ciphertext: %v", err)
	}
	if !bytes.Equal(decByHW.As(), plain) {
		t.Fatalf("cross-decrypt mismatch: got %q", decByHW.As())
	}

	dhw := plaintextData(hw, plain)
	copy(dhw.AsMut(), plain)
	encHW, err := hw.Encrypt(dhw)
	if err != nil {
		t.Fatal(err)
	}
	decBySW, err := sw.Decrypt(encHW)
	if err != nil {
		t.Fatalf("software failed to decrypt hardware ciphertext: %v", err)
	}
	if !bytes.Equal(decBySW.As(), plain) {
		t.Fatalf("cross-decrypt mismatch: got %q", decBySW.As())
	}
}

func TestKeySizeMismatch(t *testing.T) {
	if _, err := NewXChaCha20Poly1305(make([]byte, 10)); !errors.Is(err, ErrKeySizeMismatch) {
		t.Fatalf("err = %v, want ErrKeySizeMismatch", err)
	}
	if _, err := NewAES128GCM(make([]byte, 32)); !errors.Is(err, ErrKeySizeMismatch) {
		t.Fatalf("err = %v, want ErrKeySizeMismatch", err)
	}
	if _, err := NewAES256GCMSoftware(make([]byte, 16)); !errors.Is(err, ErrKeySizeMismatch) {
		t.Fatalf("err = %v, want ErrKeySizeMismatch", err)
	}
}

func TestEncryptRejectsInsufficientReservation(t *testing.T) {
	c, err := NewAES256GCMSoftware(bytes.Repeat([]byte{0x03}, 32))
	if err != nil {
		t.Fatal(err)
	}
	d := data.New(16) // no reservation at all
	if _, err := c.Encrypt(d); !errors.Is(err, ErrReservationTooSmall) {
		t.Fatalf("err = %v, want ErrReservationTooSmall", err)
	}
}
