package handshake

import (
	"bytes"
	"fmt"

	"github.com/pion/logging"

	"github.com/backkem/rsn/pkg/crypto"
	"github.com/backkem/rsn/pkg/eapol"
	"github.com/backkem/rsn/pkg/rsn"
)

type authenticatorState int

const (
	authenticatorIdle authenticatorState = iota
	authenticatorAwaitingMsg2
	authenticatorAwaitingMsg4
	authenticatorEstablished
)

func (s authenticatorState) String() string {
	switch s {
	case authenticatorIdle:
		return "Idle"
	case authenticatorAwaitingMsg2:
		return "AwaitingMsg2"
	case authenticatorAwaitingMsg4:
		return "AwaitingMsg4"
	case authenticatorEstablished:
		return "Established"
	default:
		return "Unknown State"
	}
}

// authenticator is the initiator side of the 4-Way Handshake.
type authenticator struct {
	cfg FourwayConfig
	pmk rsn.Pmk
	log logging.LeveledLogger

	state  authenticatorState
	aNonce [32]byte
	ptk    *rsn.Ptk
	// gtk is the group key snapshotted from the provider when
	// message 3 is built, so message 3 and the final key report agree
	// even if the provider rotates in between.
	gtk *rsn.Gtk
}

// Initiate implements rsn.PtkMethod: draw a fresh ANonce and transmit
// message 1.
func (a *authenticator) Initiate(sink *rsn.UpdateSink, replayCounter uint64) error {
	a.aNonce = a.cfg.Nonces.Next()
	a.ptk = nil
	a.gtk = nil

	msg1 := eapol.NewKeyFrame(micSize)
	msg1.Info = eapol.KeyInfo(eapol.KeyDescriptorVersion2).
		With(eapol.KeyInfoTypePairwise | eapol.KeyInfoACK)
	msg1.KeyLength = 16
	msg1.ReplayCounter = replayCounter + 1
	msg1.Nonce = a.aNonce

	a.state = authenticatorAwaitingMsg2
	sink.Push(rsn.TxEapolKeyFrame{Frame: msg1})
	return nil
}

// Destroy implements rsn.PtkMethod.
func (a *authenticator) Destroy() rsn.PtkExchangeConfig {
	return a.cfg
}

// OnEapolKeyFrame implements rsn.PtkMethod.
func (a *authenticator) OnEapolKeyFrame(sink *rsn.UpdateSink, replayCounter uint64, verified *rsn.VerifiedKeyFrame) error {
	frame := verified.KeyFrame()
	switch n := messageNumber(frame); n {
	case 2:
		return a.onMessage2(sink, replayCounter, frame)
	case 4:
		return a.onMessage4(sink, frame)
	default:
		return fmt.Errorf("handshake: Authenticator received unexpected message %d", n)
	}
}

// onMessage2 derives the PTK from the Supplicant's SNonce, checks the
// proof of possession and sends message 3 with the wrapped group key.
func (a *authenticator) onMessage2(sink *rsn.UpdateSink, replayCounter uint64, frame *eapol.KeyFrame) error {
	if a.state != authenticatorAwaitingMsg2 {
		return fmt.Errorf("handshake: message 2 in state %s", a.state)
	}
	ptk, err := a.cfg.derivePtk(a.aNonce, frame.Nonce, a.pmk)
	if err != nil {
		return err
	}
	if !frame.HasValidMIC(ptk.KCK) {
		return fmt.Errorf("handshake: message 2 MIC mismatch: %w", rsn.ErrLikelyWrongCredential)
	}
	if !bytes.Equal(frame.Data, a.cfg.SRsne.Bytes()) {
		return fmt.Errorf("handshake: message 2 RSN element differs from the association request")
	}
	a.ptk = ptk

	gtk := a.cfg.Gtk.Get()
	a.gtk = &gtk
	kde := eapol.GtkKde{KeyID: gtk.KeyID, Gtk: gtk.TK}
	plaintext := eapol.PadKeyData(append(a.cfg.ARsne.Bytes(), kde.Bytes()...))
	wrapped, err := crypto.KeyWrap(ptk.KEK, plaintext)
	if err != nil {
		return err
	}

	msg3 := eapol.NewKeyFrame(micSize)
	msg3.Version = frame.Version
	msg3.Info = eapol.KeyInfo(eapol.KeyDescriptorVersion2).
		With(eapol.KeyInfoTypePairwise | eapol.KeyInfoACK | eapol.KeyInfoMIC |
			eapol.KeyInfoInstall | eapol.KeyInfoSecure | eapol.KeyInfoEncryptedKeyData)
	msg3.KeyLength = 16
	msg3.ReplayCounter = replayCounter + 1
	msg3.Nonce = a.aNonce
	msg3.Data = wrapped
	if err := msg3.SignMIC(ptk.KCK); err != nil {
		return err
	}

	a.state = authenticatorAwaitingMsg4
	sink.Push(rsn.TxEapolKeyFrame{Frame: msg3})
	return nil
}

// onMessage4 closes the handshake and reports the confirmed keys.
func (a *authenticator) onMessage4(sink *rsn.UpdateSink, frame *eapol.KeyFrame) error {
	if a.state != authenticatorAwaitingMsg4 {
		return fmt.Errorf("handshake: message 4 in state %s", a.state)
	}
	if !frame.HasValidMIC(a.ptk.KCK) {
		return fmt.Errorf("handshake: message 4 MIC mismatch: %w", rsn.ErrLikelyWrongCredential)
	}

	a.state = authenticatorEstablished
	sink.Push(rsn.KeyUpdate{Key: a.ptk})
	sink.Push(rsn.KeyUpdate{Key: a.gtk})
	return nil
}
