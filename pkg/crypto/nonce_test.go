package crypto

import (
	"bytes"
	"testing"
)

func TestNonceReaderDistinct(t *testing.T) {
	r, err := NewNonceReader([6]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05}, nil)
	if err != nil {
		t.Fatalf("NewNonceReader() error: %v", err)
	}

	seen := make(map[[32]byte]bool)
	for i := 0; i < 64; i++ {
		n := r.Next()
		if seen[n] {
			t.Fatalf("nonce %x repeated after %d reads", n, i)
		}
		seen[n] = true
	}
}

func TestNonceReaderSeedsDiffer(t *testing.T) {
	addr := [6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
	a, err := NewNonceReader(addr, nil)
	if err != nil {
		t.Fatalf("NewNonceReader() error: %v", err)
	}
	b, err := NewNonceReader(addr, nil)
	if err != nil {
		t.Fatalf("NewNonceReader() error: %v", err)
	}
	na, nb := a.Next(), b.Next()
	if bytes.Equal(na[:], nb[:]) {
		t.Error("independently seeded readers produced the same nonce")
	}
}

func TestNonceReaderDeterministicSeed(t *testing.T) {
	addr := [6]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	zero := bytes.NewReader(make([]byte, 64))
	r, err := NewNonceReader(addr, zero)
	if err != nil {
		t.Fatalf("NewNonceReader() error: %v", err)
	}
	n := r.Next()
	var empty [32]byte
	if n == empty {
		t.Error("nonce counter did not advance")
	}
}
