// Package handshake implements the key exchanges of
// IEEE Std 802.11-2016, 12.7: the 4-Way Handshake deriving the
// pairwise transient key and the Group Key Handshake renewing the
// group temporal key.
package handshake

import (
	"errors"
	"fmt"

	"github.com/pion/logging"

	"github.com/backkem/rsn/pkg/crypto"
	"github.com/backkem/rsn/pkg/eapol"
	"github.com/backkem/rsn/pkg/rsn"
	"github.com/backkem/rsn/pkg/rsne"
)

// micSize is the EAPOL-Key MIC length for the PSK AKM.
const micSize = 16

// A GtkProvider hands out the group temporal key the Authenticator
// distributes during the 4-Way Handshake.
type GtkProvider struct {
	gtk rsn.Gtk
}

// NewGtkProvider returns a provider serving the given GTK.
func NewGtkProvider(gtk rsn.Gtk) (*GtkProvider, error) {
	if len(gtk.TK) == 0 {
		return nil, errors.New("handshake: GTK must not be empty")
	}
	return &GtkProvider{gtk: gtk}, nil
}

// Get returns the current GTK.
func (p *GtkProvider) Get() rsn.Gtk { return p.gtk }

// FourwayConfig describes one side of a 4-Way Handshake.
type FourwayConfig struct {
	Role rsn.Role

	// SAddr and AAddr are the Supplicant and Authenticator station
	// addresses.
	SAddr [6]byte
	AAddr [6]byte

	// SRsne is the RSN element of the Supplicant's association
	// request, carried in message 2. ARsne is the element the
	// Authenticator announced in its beacons, carried in message 3.
	SRsne *rsne.Element
	ARsne *rsne.Element

	// Nonces supplies the key nonces for this station.
	Nonces *crypto.NonceReader

	// Gtk supplies the group key distributed in message 3.
	// Authenticator only.
	Gtk *GtkProvider

	LoggerFactory logging.LoggerFactory
}

func (c FourwayConfig) validate() error {
	if c.SRsne == nil || c.ARsne == nil {
		return errors.New("handshake: both RSN elements are required")
	}
	if c.Nonces == nil {
		return errors.New("handshake: a nonce reader is required")
	}
	if c.Role == rsn.RoleAuthenticator && c.Gtk == nil {
		return errors.New("handshake: the Authenticator requires a GTK provider")
	}
	return nil
}

// NewPtkMethod implements rsn.PtkExchangeConfig.
func (c FourwayConfig) NewPtkMethod(pmk rsn.Pmk) (rsn.PtkMethod, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	loggerFactory := c.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	log := loggerFactory.NewLogger("fourway")

	switch c.Role {
	case rsn.RoleSupplicant:
		return &supplicant{cfg: c, pmk: pmk, log: log}, nil
	case rsn.RoleAuthenticator:
		return &authenticator{cfg: c, pmk: pmk, log: log}, nil
	default:
		return nil, fmt.Errorf("handshake: unknown role %d", c.Role)
	}
}

// messageNumber classifies a pairwise key frame by its Key
// Information bits.
func messageNumber(f *eapol.KeyFrame) int {
	if f.Info.IsSet(eapol.KeyInfoACK) {
		if f.Info.IsSet(eapol.KeyInfoMIC) {
			return 3
		}
		return 1
	}
	if f.Info.IsSet(eapol.KeyInfoSecure) {
		return 4
	}
	return 2
}

func (c FourwayConfig) derivePtk(aNonce, sNonce [32]byte, pmk rsn.Pmk) (*rsn.Ptk, error) {
	ptk, err := crypto.DerivePtk(pmk, c.AAddr, c.SAddr, aNonce, sNonce)
	if err != nil {
		return nil, err
	}
	return &rsn.Ptk{KCK: ptk.KCK, KEK: ptk.KEK, TK: ptk.TK}, nil
}
