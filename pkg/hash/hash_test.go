package hash

import "testing"

func TestSHA256Hex(t *testing.T) {
	// Known vector for the empty string.
	if got := SHA256Hex(""); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("SHA256Hex(\"\") = %s", got)
	}
	if SHA256Hex("a") == SHA256Hex("b") {
		t.Error("distinct inputs produced the same hash")
	}
	if len(SHA256Hex("anything")) != 64 {
		t.Error("hash is not 64 hex characters")
	}
}

func TestIteratedSHA256(t *testing.T) {
	if IteratedSHA256("input", 1) != SHA256Hex("input") {
		t.Error("one iteration should equal a single SHA256")
	}
	if IteratedSHA256("input", 2) == IteratedSHA256("input", 3) {
		t.Error("different iteration counts produced the same hash")
	}
	// Deterministic across calls.
	if IteratedSHA256("input", 100) != IteratedSHA256("input", 100) {
		t.Error("iterated hash is not deterministic")
	}
}

func TestHashIP(t *testing.T) {
	a := HashIP("203.0.113.7", "salt1")
	b := HashIP("203.0.113.7", "salt2")
	if a == b {
		t.Error("different salts produced the same hash")
	}
	if a != HashIP("203.0.113.7", "salt1") {
		t.Error("hash is not deterministic")
	}
	if len(a) != 64 {
		t.Error("hash is not 64 hex characters")
	}
}
