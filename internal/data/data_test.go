package data

import (
	"bytes"
	"testing"
)

func TestNewZeroed(t *testing.T) {
	d := New(16)
	if d.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", d.Len())
	}
	if !bytes.Equal(d.As(), make([]byte, 16)) {
		t.Fatal("New() payload not zeroed")
	}
}

func TestFromBytes(t *testing.T) {
	b := []byte("hello world")
	d := FromBytes(b)
	if !bytes.Equal(d.As(), b) {
		t.Fatal("FromBytes did not preserve contents")
	}
}

func TestResizeShrinkThenGrowWithinReservation(t *testing.T) {
	d := NewWithReservation(8, 4, 4)
	copy(d.AsMut(), []byte("abcdefgh"))

	d.Resize(4)
	if d.Len() != 4 {
		t.Fatalf("Len() after shrink = %d, want 4", d.Len())
	}
	if !bytes.Equal(d.As(), []byte("abcd")) {
		t.Fatalf("payload after shrink = %q", d.As())
	}

	d.Resize(8)
	if d.Len() != 8 {
		t.Fatalf("Len() after regrow = %d, want 8", d.Len())
	}
	if !bytes.Equal(d.As(), []byte("abcdefgh")) {
		t.Fatalf("payload after regrow = %q, want original bytes back since growth only extends framing", d.As())
	}
}

func TestResizeGrowBeyondReservationReallocates(t *testing.T) {
	d := NewWithReservation(4, 0, 2)
	copy(d.AsMut(), []byte("abcd"))

	d.Resize(100)
	if d.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", d.Len())
	}
	if !bytes.Equal(d.As()[:4], []byte("abcd")) {
		t.Fatalf("payload prefix after realloc = %q", d.As()[:4])
	}
}

func TestShrinkToSubregionNoCopy(t *testing.T) {
	d := New(10)
	copy(d.AsMut(), []byte("0123456789"))

	d.ShrinkToSubregion(2, 6)
	if d.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", d.Len())
	}
	if !bytes.Equal(d.As(), []byte("2345")) {
		t.Fatalf("payload = %q, want \"2345\"", d.As())
	}
	// The original backing array should be unchanged, proving no copy.
	if !bytes.Equal(d.buf, []byte("0123456789")) {
		t.Fatalf("backing array mutated: %q", d.buf)
	}
}

func TestGrowPrefixAndSuffix(t *testing.T) {
	d := NewWithReservation(4, 3, 2)
	copy(d.AsMut(), []byte("data"))

	d.GrowPrefix(3)
	copy(d.AsMut()[:3], []byte("pre"))
	d.GrowSuffix(2)
	copy(d.AsMut()[7:], []byte("su"))

	if d.Len() != 9 {
		t.Fatalf("Len() = %d, want 9", d.Len())
	}
	if !bytes.Equal(d.As(), []byte("predatasu")) {
		t.Fatalf("payload = %q", d.As())
	}
}

func TestGrowPrefixPastReservationPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic growing past prefix reservation")
		}
	}()
	d := NewWithReservation(4, 1, 0)
	d.GrowPrefix(2)
}

func TestIntoBytes(t *testing.T) {
	d := NewWithReservation(4, 2, 2)
	copy(d.AsMut(), []byte("abcd"))
	out := d.IntoBytes()
	if !bytes.Equal(out, []byte("abcd")) {
		t.Fatalf("IntoBytes() = %q", out)
	}
}

func TestClone(t *testing.T) {
	d := New(4)
	copy(d.AsMut(), []byte("abcd"))
	c := d.Clone()
	c.AsMut()[0] = 'z'
	if d.As()[0] != 'a' {
		t.Fatal("Clone aliased the original buffer")
	}
}
