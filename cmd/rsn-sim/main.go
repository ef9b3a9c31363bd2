// Command rsn-sim runs a WPA2-Personal key establishment between a
// simulated Authenticator and Supplicant connected by an in-memory
// EAPOL link, and prints the keys both sides install.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pion/logging"

	"github.com/backkem/rsn/pkg/crypto"
	"github.com/backkem/rsn/pkg/rsn"
	"github.com/backkem/rsn/pkg/rsn/handshake"
	"github.com/backkem/rsn/pkg/rsne"
	"github.com/backkem/rsn/pkg/transport"
)

const readTimeout = 2 * time.Second

var (
	aAddr = [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x0a}
	sAddr = [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x0b}
)

func main() {
	passphrase := flag.String("passphrase", "ThisIsAPassword", "Network passphrase (8-63 printable ASCII characters)")
	ssid := flag.String("ssid", "ThisIsASSID", "Network SSID")
	wrong := flag.String("supplicant-passphrase", "", "Passphrase the Supplicant uses instead, to demonstrate detection of a wrong password")
	flag.Parse()

	if err := run(*passphrase, *ssid, *wrong); err != nil {
		fmt.Fprintf(os.Stderr, "rsn-sim: %v\n", err)
		os.Exit(1)
	}
}

func run(passphrase, ssid, supplicantPassphrase string) error {
	loggerFactory := logging.NewDefaultLoggerFactory()

	if supplicantPassphrase == "" {
		supplicantPassphrase = passphrase
	}
	authPsk, err := crypto.Psk(passphrase, ssid)
	if err != nil {
		return err
	}
	suppPsk, err := crypto.Psk(supplicantPassphrase, ssid)
	if err != nil {
		return err
	}

	gtk := rsn.Gtk{TK: make([]byte, 16), KeyID: 1}
	if _, err := rand.Read(gtk.TK); err != nil {
		return err
	}
	provider, err := handshake.NewGtkProvider(gtk)
	if err != nil {
		return err
	}

	auth, err := newStation(rsn.RoleAuthenticator, authPsk, provider, loggerFactory)
	if err != nil {
		return err
	}
	supp, err := newStation(rsn.RoleSupplicant, suppPsk, nil, loggerFactory)
	if err != nil {
		return err
	}

	pipe := transport.NewPipe()
	defer pipe.Close() //nolint:errcheck
	authPort := pipe.Port0(16)
	suppPort := pipe.Port1(16)

	var sink rsn.UpdateSink
	if err := supp.Initiate(&sink); err != nil {
		return err
	}
	sink = nil
	if err := auth.Initiate(&sink); err != nil {
		return err
	}
	if err := transmit(authPort, sink, "Authenticator"); err != nil {
		return err
	}

	// Alternate until the handshake settles: msg1/msg2, msg3/msg4.
	for round := 0; round < 4 && !(auth.IsEstablished() && supp.IsEstablished()); round++ {
		if err := step(supp, suppPort, "Supplicant"); err != nil {
			return err
		}
		if err := step(auth, authPort, "Authenticator"); err != nil {
			return err
		}
	}

	if !auth.IsEstablished() || !supp.IsEstablished() {
		return fmt.Errorf("key establishment did not complete")
	}
	fmt.Println("ESS security association established on both stations")
	return nil
}

func newStation(role rsn.Role, psk []byte, provider *handshake.GtkProvider, loggerFactory logging.LoggerFactory) (*rsn.EssSa, error) {
	negotiated, err := rsne.Negotiate(rsne.NewWpa2Personal())
	if err != nil {
		return nil, err
	}
	addr := sAddr
	if role == rsn.RoleAuthenticator {
		addr = aAddr
	}
	nonces, err := crypto.NewNonceReader(addr, nil)
	if err != nil {
		return nil, err
	}
	config := &rsn.Config{
		Role:       role,
		Negotiated: negotiated,
		Auth:       rsn.PskConfig{Psk: psk},
		PtkExchange: handshake.FourwayConfig{
			Role:          role,
			SAddr:         sAddr,
			AAddr:         aAddr,
			SRsne:         rsne.NewWpa2Personal(),
			ARsne:         rsne.NewWpa2Personal(),
			Nonces:        nonces,
			Gtk:           provider,
			LoggerFactory: loggerFactory,
		},
		LoggerFactory: loggerFactory,
	}
	if role == rsn.RoleSupplicant {
		config.GtkExchange = handshake.GroupKeyConfig{
			Role:          role,
			LoggerFactory: loggerFactory,
		}
	}
	return rsn.NewEssSa(config)
}

// step reads one frame for the station, processes it and acts on the
// produced updates.
func step(sa *rsn.EssSa, port *transport.Port, who string) error {
	frame, err := port.ReadFrame(readTimeout)
	if err != nil {
		return fmt.Errorf("%s: %w", who, err)
	}
	var sink rsn.UpdateSink
	if err := sa.OnEapolFrame(&sink, frame); err != nil {
		return fmt.Errorf("%s: %w", who, err)
	}
	return transmit(port, sink, who)
}

// transmit writes outbound frames and prints the other updates.
func transmit(port *transport.Port, sink rsn.UpdateSink, who string) error {
	for _, update := range sink {
		switch update := update.(type) {
		case rsn.TxEapolKeyFrame:
			if err := port.WriteFrame(update.Frame); err != nil {
				return fmt.Errorf("%s: %w", who, err)
			}
		case rsn.KeyUpdate:
			switch key := update.Key.(type) {
			case *rsn.Ptk:
				fmt.Printf("%s installs pairwise key: %x\n", who, key.TK)
			case *rsn.Gtk:
				fmt.Printf("%s installs group key %d: %x\n", who, key.KeyID, key.TK)
			}
		case rsn.StatusUpdate:
			fmt.Printf("%s reports status: %s\n", who, update.Status)
			if update.Status == rsn.StatusWrongPassword {
				return fmt.Errorf("%s: wrong password detected", who)
			}
		}
	}
	return nil
}
