package handshake_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/backkem/rsn/pkg/crypto"
	"github.com/backkem/rsn/pkg/eapol"
	"github.com/backkem/rsn/pkg/rsn"
	"github.com/backkem/rsn/pkg/rsn/handshake"
	"github.com/backkem/rsn/pkg/rsne"
)

var (
	testAAddr = [6]byte{0xa0, 0xa1, 0xa1, 0xa3, 0xa4, 0xa5}
	testSAddr = [6]byte{0xb0, 0xb1, 0xb2, 0xb3, 0xb4, 0xb5}
)

func testConfig(t *testing.T, role rsn.Role) handshake.FourwayConfig {
	t.Helper()
	nonces, err := crypto.NewNonceReader(testAAddr, nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg := handshake.FourwayConfig{
		Role:   role,
		SAddr:  testSAddr,
		AAddr:  testAAddr,
		SRsne:  rsne.NewWpa2Personal(),
		ARsne:  rsne.NewWpa2Personal(),
		Nonces: nonces,
	}
	if role == rsn.RoleAuthenticator {
		provider, err := handshake.NewGtkProvider(rsn.Gtk{TK: bytes.Repeat([]byte{0x1b}, 16), KeyID: 1})
		if err != nil {
			t.Fatal(err)
		}
		cfg.Gtk = provider
	}
	return cfg
}

func testPmk(t *testing.T) rsn.Pmk {
	t.Helper()
	psk, err := crypto.Psk("ThisIsAPassword", "ThisIsASSID")
	if err != nil {
		t.Fatal(err)
	}
	return psk
}

func verified(t *testing.T, f *eapol.KeyFrame, role rsn.Role, counter uint64) *rsn.VerifiedKeyFrame {
	t.Helper()
	negotiated, err := rsne.Negotiate(rsne.NewWpa2Personal())
	if err != nil {
		t.Fatal(err)
	}
	v, err := rsn.VerifyKeyFrame(f, role, negotiated, counter)
	if err != nil {
		t.Fatalf("VerifyKeyFrame() error: %v", err)
	}
	return v
}

func TestFourwayConfigValidation(t *testing.T) {
	pmk := testPmk(t)

	noRsne := testConfig(t, rsn.RoleSupplicant)
	noRsne.ARsne = nil

	noNonces := testConfig(t, rsn.RoleSupplicant)
	noNonces.Nonces = nil

	noGtk := testConfig(t, rsn.RoleAuthenticator)
	noGtk.Gtk = nil

	for name, cfg := range map[string]handshake.FourwayConfig{
		"missing rsne": noRsne, "missing nonces": noNonces, "authenticator without gtk": noGtk,
	} {
		if _, err := cfg.NewPtkMethod(pmk); err == nil {
			t.Errorf("NewPtkMethod(%s) should fail", name)
		}
	}

	if _, err := testConfig(t, rsn.RoleSupplicant).NewPtkMethod(pmk); err != nil {
		t.Errorf("NewPtkMethod(supplicant) error: %v", err)
	}
}

// buildMsg2 produces the Supplicant's response the Authenticator
// expects after its first message.
func buildMsg2(t *testing.T, counter uint64, sNonce [32]byte, kck []byte, rsnElement *rsne.Element) *eapol.KeyFrame {
	t.Helper()
	f := eapol.NewKeyFrame(16)
	f.Info = eapol.KeyInfo(2) | eapol.KeyInfoTypePairwise | eapol.KeyInfoMIC
	f.ReplayCounter = counter
	f.Nonce = sNonce
	f.Data = rsnElement.Bytes()
	if err := f.SignMIC(kck); err != nil {
		t.Fatal(err)
	}
	return f
}

func buildMsg4(t *testing.T, counter uint64, kck []byte) *eapol.KeyFrame {
	t.Helper()
	f := eapol.NewKeyFrame(16)
	f.Info = eapol.KeyInfo(2) | eapol.KeyInfoTypePairwise | eapol.KeyInfoMIC | eapol.KeyInfoSecure
	f.ReplayCounter = counter
	if err := f.SignMIC(kck); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestAuthenticatorExchange(t *testing.T) {
	cfg := testConfig(t, rsn.RoleAuthenticator)
	pmk := testPmk(t)
	method, err := cfg.NewPtkMethod(pmk)
	if err != nil {
		t.Fatalf("NewPtkMethod() error: %v", err)
	}

	var sink rsn.UpdateSink
	if err := method.Initiate(&sink, 0); err != nil {
		t.Fatalf("Initiate() error: %v", err)
	}
	if len(sink) != 1 {
		t.Fatalf("Initiate() produced %d updates, want 1", len(sink))
	}
	msg1 := sink[0].(rsn.TxEapolKeyFrame).Frame
	if msg1.Info != eapol.KeyInfo(0x008a) {
		t.Errorf("msg1 key info = %#04x, want 0x008a", uint16(msg1.Info))
	}
	if msg1.ReplayCounter != 1 {
		t.Errorf("msg1 replay counter = %d, want 1", msg1.ReplayCounter)
	}
	var zero [32]byte
	if msg1.Nonce == zero {
		t.Error("msg1 ANonce is zero")
	}
	if msg1.KeyLength != 16 {
		t.Errorf("msg1 key length = %d, want 16", msg1.KeyLength)
	}

	var sNonce [32]byte
	sNonce[0] = 0xc0
	ptkKeys, err := crypto.DerivePtk(pmk, testAAddr, testSAddr, msg1.Nonce, sNonce)
	if err != nil {
		t.Fatal(err)
	}

	sink = nil
	msg2 := buildMsg2(t, 1, sNonce, ptkKeys.KCK, cfg.SRsne)
	if err := method.OnEapolKeyFrame(&sink, 1, verified(t, msg2, rsn.RoleAuthenticator, 1)); err != nil {
		t.Fatalf("OnEapolKeyFrame(msg2) error: %v", err)
	}
	if len(sink) != 1 {
		t.Fatalf("msg2 produced %d updates, want 1", len(sink))
	}
	msg3 := sink[0].(rsn.TxEapolKeyFrame).Frame
	if msg3.Info != eapol.KeyInfo(0x13ca) {
		t.Errorf("msg3 key info = %#04x, want 0x13ca", uint16(msg3.Info))
	}
	if msg3.ReplayCounter != 2 {
		t.Errorf("msg3 replay counter = %d, want 2", msg3.ReplayCounter)
	}
	if msg3.Nonce != msg1.Nonce {
		t.Error("msg3 ANonce differs from msg1")
	}
	if !msg3.HasValidMIC(ptkKeys.KCK) {
		t.Error("msg3 MIC invalid under the derived KCK")
	}
	plaintext, err := crypto.KeyUnwrap(ptkKeys.KEK, msg3.Data)
	if err != nil {
		t.Fatalf("msg3 key data unwrap: %v", err)
	}
	keyData, err := eapol.ParseKeyData(plaintext)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(keyData.Rsne, cfg.ARsne.Bytes()) {
		t.Errorf("msg3 RSN element = %x, want %x", keyData.Rsne, cfg.ARsne.Bytes())
	}
	if keyData.Gtk == nil || !bytes.Equal(keyData.Gtk.Gtk, cfg.Gtk.Get().TK) {
		t.Errorf("msg3 GTK KDE = %+v, want the provider's GTK", keyData.Gtk)
	}

	sink = nil
	msg4 := buildMsg4(t, 2, ptkKeys.KCK)
	if err := method.OnEapolKeyFrame(&sink, 2, verified(t, msg4, rsn.RoleAuthenticator, 2)); err != nil {
		t.Fatalf("OnEapolKeyFrame(msg4) error: %v", err)
	}
	if len(sink) != 2 {
		t.Fatalf("msg4 produced %d updates, want 2", len(sink))
	}
	ptk, ok := sink[0].(rsn.KeyUpdate).Key.(*rsn.Ptk)
	if !ok || !bytes.Equal(ptk.TK, ptkKeys.TK) {
		t.Errorf("update 0 = %#v, want the derived PTK", sink[0])
	}
	gtk, ok := sink[1].(rsn.KeyUpdate).Key.(*rsn.Gtk)
	if !ok || !bytes.Equal(gtk.TK, cfg.Gtk.Get().TK) {
		t.Errorf("update 1 = %#v, want the provider's GTK", sink[1])
	}
}

func TestAuthenticatorWrongMic(t *testing.T) {
	cfg := testConfig(t, rsn.RoleAuthenticator)
	method, err := cfg.NewPtkMethod(testPmk(t))
	if err != nil {
		t.Fatal(err)
	}
	var sink rsn.UpdateSink
	if err := method.Initiate(&sink, 0); err != nil {
		t.Fatal(err)
	}

	var sNonce [32]byte
	sNonce[0] = 0xc0
	wrongKck := bytes.Repeat([]byte{0xee}, 16)

	sink = nil
	msg2 := buildMsg2(t, 1, sNonce, wrongKck, cfg.SRsne)
	err = method.OnEapolKeyFrame(&sink, 1, verified(t, msg2, rsn.RoleAuthenticator, 1))
	if !errors.Is(err, rsn.ErrLikelyWrongCredential) {
		t.Errorf("OnEapolKeyFrame(bad msg2) error = %v, want %v", err, rsn.ErrLikelyWrongCredential)
	}
	if len(sink) != 0 {
		t.Errorf("bad msg2 produced %d updates, want none", len(sink))
	}
}

func TestAuthenticatorRejectsForeignRsne(t *testing.T) {
	cfg := testConfig(t, rsn.RoleAuthenticator)
	pmk := testPmk(t)
	method, err := cfg.NewPtkMethod(pmk)
	if err != nil {
		t.Fatal(err)
	}
	var sink rsn.UpdateSink
	if err := method.Initiate(&sink, 0); err != nil {
		t.Fatal(err)
	}
	msg1 := sink[0].(rsn.TxEapolKeyFrame).Frame

	var sNonce [32]byte
	sNonce[0] = 0xc0
	ptkKeys, err := crypto.DerivePtk(pmk, testAAddr, testSAddr, msg1.Nonce, sNonce)
	if err != nil {
		t.Fatal(err)
	}
	tkip := rsne.NewWpa2Personal()
	tkip.Pairwise = []rsne.Suite{rsne.CipherTkip}

	sink = nil
	msg2 := buildMsg2(t, 1, sNonce, ptkKeys.KCK, tkip)
	err = method.OnEapolKeyFrame(&sink, 1, verified(t, msg2, rsn.RoleAuthenticator, 1))
	if err == nil || errors.Is(err, rsn.ErrLikelyWrongCredential) {
		t.Errorf("OnEapolKeyFrame(foreign RSNE) error = %v, want a protocol error", err)
	}
}

func TestDestroyRecoversConfig(t *testing.T) {
	cfg := testConfig(t, rsn.RoleSupplicant)
	method, err := cfg.NewPtkMethod(testPmk(t))
	if err != nil {
		t.Fatal(err)
	}
	recovered, ok := method.Destroy().(handshake.FourwayConfig)
	if !ok {
		t.Fatalf("Destroy() = %T, want FourwayConfig", method.Destroy())
	}
	if recovered != cfg {
		t.Error("Destroy() did not return the original configuration")
	}
}

func TestGtkProviderRejectsEmptyKey(t *testing.T) {
	if _, err := handshake.NewGtkProvider(rsn.Gtk{}); err == nil {
		t.Error("NewGtkProvider(empty) should fail")
	}
}

func TestGroupKeyConfigRequiresSupplicant(t *testing.T) {
	kck := bytes.Repeat([]byte{0x01}, 16)
	kek := bytes.Repeat([]byte{0x02}, 16)
	cfg := handshake.GroupKeyConfig{Role: rsn.RoleAuthenticator}
	if _, err := cfg.NewGtkMethod(kck, kek); err == nil {
		t.Error("NewGtkMethod(authenticator) should fail")
	}
	if _, err := (handshake.GroupKeyConfig{Role: rsn.RoleSupplicant}).NewGtkMethod(kck, kek); err != nil {
		t.Errorf("NewGtkMethod(supplicant) error: %v", err)
	}
}
