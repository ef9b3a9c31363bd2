package rsne

import (
	"bytes"
	"testing"
)

func TestWpa2PersonalBytes(t *testing.T) {
	want := []byte{
		48, 20,
		0x01, 0x00, // version
		0x00, 0x0f, 0xac, 0x04, // group: CCMP-128
		0x01, 0x00, 0x00, 0x0f, 0xac, 0x04, // pairwise: CCMP-128
		0x01, 0x00, 0x00, 0x0f, 0xac, 0x02, // AKM: PSK
		0x00, 0x00, // capabilities
	}
	if got := NewWpa2Personal().Bytes(); !bytes.Equal(got, want) {
		t.Errorf("Bytes() = %x, want %x", got, want)
	}
}

func TestParseRoundTrip(t *testing.T) {
	e := NewWpa2Personal()
	e.Capabilities = 0x000c

	parsed, err := Parse(e.Bytes())
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !parsed.Equal(e) {
		t.Errorf("Parse(Bytes()) = %+v, want %+v", parsed, e)
	}
	if parsed.Capabilities != 0x000c {
		t.Errorf("Capabilities = %#x, want 0x000c", parsed.Capabilities)
	}
}

func TestParseMinimal(t *testing.T) {
	// Only the version field present. All cipher fields default.
	e, err := Parse([]byte{48, 2, 0x01, 0x00})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if e.GroupData != CipherCcmp128 {
		t.Errorf("GroupData = %s, want %s", e.GroupData, CipherCcmp128)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty", nil},
		{"wrong element id", []byte{0, 2, 0x01, 0x00}},
		{"truncated body", []byte{48, 20, 0x01, 0x00}},
		{"bad version", []byte{48, 2, 0x02, 0x00}},
		{"truncated pairwise list", []byte{48, 8, 0x01, 0x00, 0x00, 0x0f, 0xac, 0x04, 0x02, 0x00}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.raw); err == nil {
				t.Error("Parse() should fail")
			}
		})
	}
}

func TestNegotiate(t *testing.T) {
	n, err := Negotiate(NewWpa2Personal())
	if err != nil {
		t.Fatalf("Negotiate() error: %v", err)
	}
	if n.Pairwise != CipherCcmp128 || n.Akm != AkmPsk || n.GroupData != CipherCcmp128 {
		t.Errorf("Negotiate() = %+v", n)
	}
	if n.MicSize() != 16 {
		t.Errorf("MicSize() = %d, want 16", n.MicSize())
	}
	if tkLen, err := n.TkLen(); err != nil || tkLen != 16 {
		t.Errorf("TkLen() = %d, %v, want 16, nil", tkLen, err)
	}
}

func TestNegotiateRejects(t *testing.T) {
	tkip := NewWpa2Personal()
	tkip.Pairwise = []Suite{CipherTkip}

	eap := NewWpa2Personal()
	eap.Akms = []Suite{AkmEap}

	multi := NewWpa2Personal()
	multi.Pairwise = []Suite{CipherCcmp128, CipherTkip}

	for name, e := range map[string]*Element{
		"tkip pairwise": tkip, "eap akm": eap, "ambiguous pairwise": multi,
	} {
		if _, err := Negotiate(e); err == nil {
			t.Errorf("Negotiate(%s) should fail", name)
		}
	}
}
