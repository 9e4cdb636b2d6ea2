// Package data implements an owned byte buffer with prefix/suffix
// reservation budgets, so that the cipher layer can prepend a nonce and
// append an authentication tag without reallocating.
package data

// Data is a contiguous owned byte allocation split into three logical
// regions: a prefix reservation, a payload, and a suffix reservation.
// The payload is what callers see through As() / Len(); the reservations
// are budget that Resize and the cipher layer can grow into without a
// copy.
//
// The zero value is not usable; construct with New, NewWithReservation,
// or FromBytes.
type Data struct {
	buf      []byte
	prefix   int // bytes of buf[:prefix] reserved before the payload
	payload  int // length of the payload, starting at buf[prefix:]
	reserved int // total capacity of buf; buf[prefix+payload:reserved] is the suffix reservation
}

// New allocates a Data with a zeroed payload of size n and no reservation
// budget.
func New(n int) *Data {
	return &Data{
		buf:      make([]byte, n),
		prefix:   0,
		payload:  n,
		reserved: n,
	}
}

// NewWithReservation allocates a Data whose payload is n bytes, with
// prefixReservation bytes of budget before it and suffixReservation bytes
// of budget after it. The reservations are zeroed along with the payload.
func NewWithReservation(n, prefixReservation, suffixReservation int) *Data {
	total := prefixReservation + n + suffixReservation
	return &Data{
		buf:      make([]byte, total),
		prefix:   prefixReservation,
		payload:  n,
		reserved: total,
	}
}

// FromBytes takes ownership of b and returns a Data whose payload is b
// in its entirety, with no reservation budget. The caller must not use
// b after this call.
func FromBytes(b []byte) *Data {
	return &Data{
		buf:      b,
		prefix:   0,
		payload:  len(b),
		reserved: len(b),
	}
}

// Len returns the payload length.
func (d *Data) Len() int {
	return d.payload
}

// As returns the payload as a read-only slice. The slice aliases d's
// backing storage and is only valid until the next call that changes
// d's framing (Resize, ShrinkToSubregion, GrowPrefix, GrowSuffix).
func (d *Data) As() []byte {
	return d.buf[d.prefix : d.prefix+d.payload]
}

// AsMut returns the payload as a mutable slice, with the same aliasing
// rules as As.
func (d *Data) AsMut() []byte {
	return d.buf[d.prefix : d.prefix+d.payload]
}

// PrefixReservation returns how many unused bytes sit before the payload.
func (d *Data) PrefixReservation() int {
	return d.prefix
}

// SuffixReservation returns how many unused bytes sit after the payload.
func (d *Data) SuffixReservation() int {
	return d.reserved - d.prefix - d.payload
}

// Resize changes the payload length to n. It first consumes any
// available suffix reservation (and, for payloads entirely within the
// tail of a bigger allocation, prefix reservation cannot help since the
// payload start does not move) before falling back to reallocating a
// fresh, larger backing array. Resize never shrinks the backing
// allocation; shrinking the payload just narrows the framing, turning
// the freed bytes back into suffix reservation.
func (d *Data) Resize(n int) {
	if n <= d.payload {
		d.payload = n
		return
	}
	growBy := n - d.payload
	if growBy <= d.SuffixReservation() {
		d.payload = n
		return
	}
	// Not enough suffix budget: reallocate, keeping the same prefix and
	// suffix reservation sizes so the new Data still supports a
	// subsequent encrypt() without another reallocation.
	suffix := d.SuffixReservation()
	newBuf := make([]byte, d.prefix+n+suffix)
	copy(newBuf[d.prefix:], d.As())
	d.buf = newBuf
	d.payload = n
	d.reserved = d.prefix + n + suffix
}

// ShrinkToSubregion reframes the payload to buf[start:end] in current
// payload coordinates, 0 <= start <= end <= Len(). It never copies: the
// bytes that fall outside [start, end) become prefix/suffix reservation
// budget.
func (d *Data) ShrinkToSubregion(start, end int) {
	if start < 0 || end < start || end > d.payload {
		panic("data: ShrinkToSubregion bounds out of range")
	}
	d.prefix += start
	d.payload = end - start
}

// GrowPrefix widens the payload by n bytes by consuming prefix
// reservation; the new bytes appear before the old payload. It panics
// if n exceeds the available prefix reservation — callers (the cipher
// layer) are expected to have reserved enough budget up front.
func (d *Data) GrowPrefix(n int) {
	if n > d.prefix {
		panic("data: GrowPrefix exceeds prefix reservation")
	}
	d.prefix -= n
	d.payload += n
}

// GrowSuffix widens the payload by n bytes by consuming suffix
// reservation; the new bytes appear after the old payload. It panics if
// n exceeds the available suffix reservation.
func (d *Data) GrowSuffix(n int) {
	if n > d.SuffixReservation() {
		panic("data: GrowSuffix exceeds suffix reservation")
	}
	d.payload += n
}

// IntoBytes consumes d and returns the payload as an owned, tightly
// sized byte slice, copying only if the payload doesn't already start
// at the beginning of a reservation-free allocation.
func (d *Data) IntoBytes() []byte {
	if d.prefix == 0 && d.reserved == d.payload {
		return d.buf
	}
	out := make([]byte, d.payload)
	copy(out, d.As())
	return out
}

// Clone returns a deep copy of d with no reservation budget.
func (d *Data) Clone() *Data {
	out := New(d.payload)
	copy(out.buf, d.As())
	return out
}
