package uuid

import "testing"

func TestNew(t *testing.T) {
	a, b := New(), New()
	if !IsValid(a) || !IsValid(b) {
		t.Fatalf("expected valid ids, got %q and %q", a, b)
	}
	if a == b {
		t.Error("expected distinct ids")
	}
	if a[14] != '7' {
		t.Errorf("expected version 7, got %q", a)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("0192F6A4-7B3C-7D1E-8F00-0123456789AB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0192f6a4-7b3c-7d1e-8f00-0123456789ab" {
		t.Errorf("expected canonical lower-case form, got %q", got)
	}
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Error("expected error for invalid input")
	}
}
