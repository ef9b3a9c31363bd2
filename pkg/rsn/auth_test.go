package rsn

import (
	"bytes"
	"testing"
)

func TestPskConfig(t *testing.T) {
	psk := bytes.Repeat([]byte{0x5c}, 32)
	method, err := PskConfig{Psk: psk}.NewAuthMethod()
	if err != nil {
		t.Fatalf("NewAuthMethod() error: %v", err)
	}
	pmk, ok := method.Pmk()
	if !ok {
		t.Fatal("Pmk() not available for PSK")
	}
	if !bytes.Equal(pmk, psk) {
		t.Errorf("Pmk() = %x, want %x", pmk, psk)
	}
}

func TestPskConfigRejectsBadLength(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		if _, err := (PskConfig{Psk: make([]byte, n)}).NewAuthMethod(); err == nil {
			t.Errorf("NewAuthMethod() with %d byte PSK should fail", n)
		}
	}
}
