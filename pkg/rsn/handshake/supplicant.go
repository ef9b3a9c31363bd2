package handshake

import (
	"bytes"
	"fmt"

	"github.com/pion/logging"

	"github.com/backkem/rsn/pkg/crypto"
	"github.com/backkem/rsn/pkg/eapol"
	"github.com/backkem/rsn/pkg/rsn"
)

type supplicantState int

const (
	supplicantAwaitingMsg1 supplicantState = iota
	supplicantAwaitingMsg3
	supplicantEstablished
)

func (s supplicantState) String() string {
	switch s {
	case supplicantAwaitingMsg1:
		return "AwaitingMsg1"
	case supplicantAwaitingMsg3:
		return "AwaitingMsg3"
	case supplicantEstablished:
		return "Established"
	default:
		return "Unknown State"
	}
}

// supplicant is the responder side of the 4-Way Handshake.
type supplicant struct {
	cfg FourwayConfig
	pmk rsn.Pmk
	log logging.LeveledLogger

	state  supplicantState
	aNonce [32]byte
	sNonce [32]byte
	// ptk is derived when message 1 arrives but stays a candidate
	// until message 3 confirms the peer holds the same PMK.
	ptk *rsn.Ptk
}

// Initiate implements rsn.PtkMethod. The Supplicant waits for the
// Authenticator to open the handshake.
func (s *supplicant) Initiate(sink *rsn.UpdateSink, replayCounter uint64) error {
	s.log.Debugf("waiting for the Authenticator to initiate")
	return nil
}

// Destroy implements rsn.PtkMethod.
func (s *supplicant) Destroy() rsn.PtkExchangeConfig {
	return s.cfg
}

// OnEapolKeyFrame implements rsn.PtkMethod.
func (s *supplicant) OnEapolKeyFrame(sink *rsn.UpdateSink, replayCounter uint64, verified *rsn.VerifiedKeyFrame) error {
	frame := verified.KeyFrame()
	switch n := messageNumber(frame); n {
	case 1:
		return s.onMessage1(sink, frame)
	case 3:
		return s.onMessage3(sink, frame)
	default:
		return fmt.Errorf("handshake: Supplicant received unexpected message %d", n)
	}
}

// onMessage1 derives a fresh candidate PTK and answers with message 2.
// A repeated message 1 supersedes any handshake in flight: the
// Supplicant draws a new SNonce and abandons the previous derivation.
func (s *supplicant) onMessage1(sink *rsn.UpdateSink, frame *eapol.KeyFrame) error {
	var zero [32]byte
	if frame.Nonce == zero {
		return fmt.Errorf("handshake: message 1 carries a zeroed ANonce")
	}
	if frame.Info.IsSet(eapol.KeyInfoInstall) || frame.Info.IsSet(eapol.KeyInfoEncryptedKeyData) {
		return fmt.Errorf("handshake: message 1 with unexpected key info %#x", uint16(frame.Info))
	}
	if s.state != supplicantAwaitingMsg1 {
		s.log.Debugf("message 1 supersedes handshake in state %s", s.state)
	}

	s.aNonce = frame.Nonce
	s.sNonce = s.cfg.Nonces.Next()
	ptk, err := s.cfg.derivePtk(s.aNonce, s.sNonce, s.pmk)
	if err != nil {
		return err
	}
	s.ptk = ptk

	resp := eapol.NewKeyFrame(micSize)
	resp.Version = frame.Version
	resp.Info = eapol.KeyInfo(eapol.KeyDescriptorVersion2).
		With(eapol.KeyInfoTypePairwise | eapol.KeyInfoMIC)
	resp.ReplayCounter = frame.ReplayCounter
	resp.Nonce = s.sNonce
	resp.Data = s.cfg.SRsne.Bytes()
	if err := resp.SignMIC(s.ptk.KCK); err != nil {
		return err
	}

	s.state = supplicantAwaitingMsg3
	sink.Push(rsn.TxEapolKeyFrame{Frame: resp})
	return nil
}

// onMessage3 confirms the candidate PTK, extracts the GTK and answers
// with message 4.
func (s *supplicant) onMessage3(sink *rsn.UpdateSink, frame *eapol.KeyFrame) error {
	if s.ptk == nil {
		return fmt.Errorf("handshake: message 3 without a preceding message 1")
	}
	if frame.Nonce != s.aNonce {
		return fmt.Errorf("handshake: ANonce changed between messages 1 and 3")
	}
	if !frame.HasValidMIC(s.ptk.KCK) {
		return fmt.Errorf("handshake: message 3 MIC mismatch: %w", rsn.ErrLikelyWrongCredential)
	}
	if !frame.Info.IsSet(eapol.KeyInfoEncryptedKeyData) {
		return fmt.Errorf("handshake: message 3 key data is not protected")
	}

	plaintext, err := crypto.KeyUnwrap(s.ptk.KEK, frame.Data)
	if err != nil {
		return fmt.Errorf("handshake: message 3 key data unwrap: %w", rsn.ErrLikelyWrongCredential)
	}
	keyData, err := eapol.ParseKeyData(plaintext)
	if err != nil {
		return err
	}
	if keyData.Rsne == nil || !bytes.Equal(keyData.Rsne, s.cfg.ARsne.Bytes()) {
		return fmt.Errorf("handshake: message 3 RSN element differs from the announced one")
	}
	if keyData.Gtk == nil {
		return fmt.Errorf("handshake: message 3 carries no GTK")
	}
	gtk := &rsn.Gtk{TK: keyData.Gtk.Gtk, KeyID: keyData.Gtk.KeyID}

	resp := eapol.NewKeyFrame(micSize)
	resp.Version = frame.Version
	resp.Info = eapol.KeyInfo(eapol.KeyDescriptorVersion2).
		With(eapol.KeyInfoTypePairwise | eapol.KeyInfoMIC | eapol.KeyInfoSecure)
	resp.ReplayCounter = frame.ReplayCounter
	if err := resp.SignMIC(s.ptk.KCK); err != nil {
		return err
	}

	s.state = supplicantEstablished
	sink.Push(rsn.TxEapolKeyFrame{Frame: resp})
	sink.Push(rsn.KeyUpdate{Key: s.ptk})
	sink.Push(rsn.KeyUpdate{Key: gtk})
	return nil
}
