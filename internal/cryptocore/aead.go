package cryptocore

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/source-c/cryfs/internal/data"
)

// aeadEncrypt implements Cipher.Encrypt for any cipher.AEAD, sharing the
// nonce-prefix/tag-suffix wire layout across every concrete cipher in
// this package. It never allocates beyond a nonceSize-length temporary
// when d's reservations are large enough: Seal writes its output
// directly into d's backing array (dst and plaintext overlap exactly,
// which crypto/cipher's AEAD contract explicitly allows), and the
// nonce is copied into the prefix only after GrowPrefix has claimed it.
func aeadEncrypt(aead cipher.AEAD, d *data.Data) (*data.Data, error) {
	nonceSize := aead.NonceSize()
	tagSize := aead.Overhead()
	if d.PrefixReservation() < nonceSize || d.SuffixReservation() < tagSize {
		return nil, fmt.Errorf("%w: need prefix>=%d suffix>=%d, have prefix=%d suffix=%d",
			ErrReservationTooSmall, nonceSize, tagSize, d.PrefixReservation(), d.SuffixReservation())
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("cryptocore: generating nonce: %w", err)
	}

	plaintext := d.AsMut()
	aead.Seal(plaintext[:0], nonce, plaintext, nil)

	d.GrowSuffix(tagSize)
	d.GrowPrefix(nonceSize)
	copy(d.AsMut()[:nonceSize], nonce)

	return d, nil
}

// aeadDecrypt implements Cipher.Decrypt for any cipher.AEAD.
func aeadDecrypt(aead cipher.AEAD, d *data.Data) (*data.Data, error) {
	nonceSize := aead.NonceSize()
	tagSize := aead.Overhead()
	if d.Len() < nonceSize+tagSize {
		return nil, fmt.Errorf("%w: ciphertext shorter than nonce+tag overhead", ErrIntegrityViolation)
	}

	nonce := make([]byte, nonceSize)
	copy(nonce, d.As()[:nonceSize])

	d.ShrinkToSubregion(nonceSize, d.Len())
	sealed := d.AsMut()
	plaintext, err := aead.Open(sealed[:0], nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntegrityViolation, err)
	}

	d.ShrinkToSubregion(0, len(plaintext))
	return d, nil
}
