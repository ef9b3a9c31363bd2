package rsn

import (
	"fmt"

	"github.com/backkem/rsn/pkg/eapol"
)

// AuthMethod produces the pairwise master key of an association.
type AuthMethod interface {
	// Pmk returns the master key if the method can produce it without
	// a frame exchange.
	Pmk() (Pmk, bool)
	// OnEapolKeyFrame processes key frames addressed to the
	// authentication method before a PMK exists.
	OnEapolKeyFrame(sink *UpdateSink, frame *eapol.KeyFrame) error
}

// AuthConfig builds authentication methods.
type AuthConfig interface {
	NewAuthMethod() (AuthMethod, error)
}

// PskConfig authenticates with a pre-shared 256 bit master key, the
// AKM suite 00-0F-AC:2. Use crypto.Psk to derive the key from a
// passphrase and SSID.
type PskConfig struct {
	Psk []byte
}

// NewAuthMethod implements AuthConfig.
func (c PskConfig) NewAuthMethod() (AuthMethod, error) {
	if len(c.Psk) != 32 {
		return nil, fmt.Errorf("rsn: PSK must be 32 bytes, got %d", len(c.Psk))
	}
	return &pskMethod{pmk: append(Pmk(nil), c.Psk...)}, nil
}

// pskMethod is trivial: the PSK is the PMK, no exchange needed.
type pskMethod struct {
	pmk Pmk
}

func (m *pskMethod) Pmk() (Pmk, bool) { return m.pmk, true }

func (m *pskMethod) OnEapolKeyFrame(sink *UpdateSink, frame *eapol.KeyFrame) error {
	// PSK performs no frame exchange. Traffic arriving here is noise.
	return nil
}
