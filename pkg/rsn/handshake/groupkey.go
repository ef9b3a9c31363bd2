package handshake

import (
	"errors"
	"fmt"

	"github.com/pion/logging"

	"github.com/backkem/rsn/pkg/crypto"
	"github.com/backkem/rsn/pkg/eapol"
	"github.com/backkem/rsn/pkg/rsn"
)

// GroupKeyConfig describes the Group Key Handshake, the exchange the
// Authenticator uses to hand out a new GTK after the 4-Way Handshake
// completed. Only the Supplicant side responds to it here.
type GroupKeyConfig struct {
	Role          rsn.Role
	LoggerFactory logging.LoggerFactory
}

// NewGtkMethod implements rsn.GtkExchangeConfig.
func (c GroupKeyConfig) NewGtkMethod(kck, kek []byte) (rsn.GtkMethod, error) {
	if c.Role != rsn.RoleSupplicant {
		return nil, errors.New("handshake: the group key handshake is only implemented for the Supplicant")
	}
	loggerFactory := c.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &groupKeySupplicant{
		cfg: c,
		kck: kck,
		kek: kek,
		log: loggerFactory.NewLogger("groupkey"),
	}, nil
}

// groupKeySupplicant unwraps rekeyed GTKs and acknowledges them.
type groupKeySupplicant struct {
	cfg GroupKeyConfig
	kck []byte
	kek []byte
	log logging.LeveledLogger
}

// Destroy implements rsn.GtkMethod.
func (g *groupKeySupplicant) Destroy() rsn.GtkExchangeConfig {
	return g.cfg
}

// OnEapolKeyFrame implements rsn.GtkMethod.
func (g *groupKeySupplicant) OnEapolKeyFrame(sink *rsn.UpdateSink, replayCounter uint64, verified *rsn.VerifiedKeyFrame) error {
	frame := verified.KeyFrame()
	if !frame.Info.IsSet(eapol.KeyInfoMIC | eapol.KeyInfoSecure | eapol.KeyInfoEncryptedKeyData) {
		return fmt.Errorf("handshake: group key message with unexpected key info %#x", uint16(frame.Info))
	}
	if !frame.HasValidMIC(g.kck) {
		return fmt.Errorf("handshake: group key message MIC mismatch")
	}

	plaintext, err := crypto.KeyUnwrap(g.kek, frame.Data)
	if err != nil {
		return fmt.Errorf("handshake: group key data unwrap: %w", err)
	}
	keyData, err := eapol.ParseKeyData(plaintext)
	if err != nil {
		return err
	}
	if keyData.Gtk == nil {
		return fmt.Errorf("handshake: group key message carries no GTK")
	}
	gtk := &rsn.Gtk{TK: keyData.Gtk.Gtk, KeyID: keyData.Gtk.KeyID}
	g.log.Debugf("group key %d renewed", gtk.KeyID)

	ack := eapol.NewKeyFrame(micSize)
	ack.Version = frame.Version
	ack.Info = eapol.KeyInfo(eapol.KeyDescriptorVersion2).
		With(eapol.KeyInfoMIC | eapol.KeyInfoSecure)
	ack.ReplayCounter = frame.ReplayCounter
	if err := ack.SignMIC(g.kck); err != nil {
		return err
	}

	sink.Push(rsn.TxEapolKeyFrame{Frame: ack})
	sink.Push(rsn.KeyUpdate{Key: gtk})
	return nil
}
