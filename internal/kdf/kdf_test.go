package kdf

import "testing"

func TestArgon2idDeriveKeyIsDeterministicForSameSaltAndParams(t *testing.T) {
	a, err := NewArgon2idKDF()
	if err != nil {
		t.Fatal(err)
	}
	k1, err := a.DeriveKey([]byte("hunter2"))
	if err != nil {
		t.Fatal(err)
	}
	k2, err := a.DeriveKey([]byte("hunter2"))
	if err != nil {
		t.Fatal(err)
	}
	if string(k1) != string(k2) {
		t.Fatal("DeriveKey not deterministic for identical salt/params/password")
	}
	if len(k1) != KeyLen {
		t.Fatalf("len(key) = %d, want %d", len(k1), KeyLen)
	}
}

func TestArgon2idDeriveKeyDiffersForDifferentPasswords(t *testing.T) {
	a, err := NewArgon2idKDF()
	if err != nil {
		t.Fatal(err)
	}
	k1, _ := a.DeriveKey([]byte("password one"))
	k2, _ := a.DeriveKey([]byte("password two"))
	if string(k1) == string(k2) {
		t.Fatal("different passwords produced the same key")
	}
}

func TestArgon2idRejectsWeakParams(t *testing.T) {
	a, err := NewArgon2idKDFWithParams(1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.DeriveKey([]byte("pw")); err == nil {
		t.Fatal("expected error for below-minimum memory parameter")
	}
}

func TestScryptDeriveKeyRoundTrips(t *testing.T) {
	s, err := NewScryptKDF(scryptMinLogN)
	if err != nil {
		t.Fatal(err)
	}
	k, err := s.DeriveKey([]byte("hunter2"))
	if err != nil {
		t.Fatal(err)
	}
	if len(k) != KeyLen {
		t.Fatalf("len(key) = %d, want %d", len(k), KeyLen)
	}
	if s.LogN() != scryptMinLogN {
		t.Fatalf("LogN() = %d, want %d", s.LogN(), scryptMinLogN)
	}
}

func TestScryptRejectsWeakN(t *testing.T) {
	s, err := NewScryptKDF(scryptMinLogN)
	if err != nil {
		t.Fatal(err)
	}
	s.N = 1 << 4
	if _, err := s.DeriveKey([]byte("pw")); err == nil {
		t.Fatal("expected error for below-minimum N parameter")
	}
}
