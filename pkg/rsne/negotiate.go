package rsne

import (
	"errors"
	"fmt"
)

// Negotiated is the protection suite a Supplicant and Authenticator
// agreed on for an association.
type Negotiated struct {
	GroupData Suite
	Pairwise  Suite
	Akm       Suite
}

// Negotiate derives the protection suite from the Supplicant's
// association request RSN element, which must already be narrowed down
// to a single pairwise cipher and AKM.
func Negotiate(e *Element) (*Negotiated, error) {
	if len(e.Pairwise) != 1 {
		return nil, fmt.Errorf("rsne: want exactly one pairwise cipher, got %d", len(e.Pairwise))
	}
	if len(e.Akms) != 1 {
		return nil, fmt.Errorf("rsne: want exactly one AKM, got %d", len(e.Akms))
	}
	n := &Negotiated{
		GroupData: e.GroupData,
		Pairwise:  e.Pairwise[0],
		Akm:       e.Akms[0],
	}
	if n.Pairwise != CipherCcmp128 {
		return nil, fmt.Errorf("rsne: unsupported pairwise cipher %s", n.Pairwise)
	}
	if n.Akm != AkmPsk {
		return nil, fmt.Errorf("rsne: unsupported AKM %s", n.Akm)
	}
	return n, nil
}

// MicSize returns the EAPOL-Key MIC length in bytes for the
// negotiated AKM.
func (n *Negotiated) MicSize() int { return 16 }

// TkLen returns the temporal key length in bytes for the negotiated
// pairwise cipher.
func (n *Negotiated) TkLen() (int, error) {
	switch n.Pairwise {
	case CipherCcmp128:
		return 16, nil
	case CipherTkip:
		return 32, nil
	}
	return 0, errors.New("rsne: unknown temporal key length")
}
