// Package crypto implements the key derivation and key protection
// primitives used by IEEE Std 802.11 robust security networks.
package crypto

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pskIterations = 4096
	pskLen        = 32

	// PTK layout for AKM suite type 2 (PSK with SHA-1 based PRF).
	kckLen = 16
	kekLen = 16
	tkLen  = 16
)

var (
	// ErrInvalidPassphraseLen is returned for passphrases outside the
	// 8 to 63 character range required by IEEE Std 802.11 Annex J.4.1.
	ErrInvalidPassphraseLen = errors.New("crypto: passphrase must be 8 to 63 characters")
	// ErrInvalidPassphraseChar is returned for passphrases containing
	// characters outside the printable ASCII range.
	ErrInvalidPassphraseChar = errors.New("crypto: passphrase must be printable ASCII")
)

// Psk converts a passphrase and SSID into a 256 bit pre-shared key
// using PBKDF2-SHA1 as specified in IEEE Std 802.11 Annex J.4.1.
func Psk(passphrase, ssid string) ([]byte, error) {
	if len(passphrase) < 8 || len(passphrase) > 63 {
		return nil, ErrInvalidPassphraseLen
	}
	for _, c := range []byte(passphrase) {
		if c < 32 || c > 126 {
			return nil, ErrInvalidPassphraseChar
		}
	}
	return pbkdf2.Key([]byte(passphrase), []byte(ssid), pskIterations, pskLen, sha1.New), nil
}

// Prf implements the pseudo-random function from
// IEEE Std 802.11-2016, 12.7.1.2. bits must be a multiple of 8.
func Prf(key []byte, label string, data []byte, bits int) ([]byte, error) {
	if bits%8 != 0 {
		return nil, fmt.Errorf("crypto: prf bit length %d is not a multiple of 8", bits)
	}
	mac := hmac.New(sha1.New, key)
	out := make([]byte, 0, ((bits+159)/160)*sha1.Size)
	for i := 0; i <= (bits+159)/160; i++ {
		mac.Reset()
		mac.Write([]byte(label))
		mac.Write([]byte{0})
		mac.Write(data)
		mac.Write([]byte{byte(i)})
		out = mac.Sum(out)
	}
	return out[:bits/8], nil
}

// Ptk holds the constituent keys of a pairwise transient key.
type Ptk struct {
	KCK []byte
	KEK []byte
	TK  []byte
}

// DerivePtk derives a PTK from the PMK and the addresses and nonces
// exchanged during the 4-Way Handshake, per IEEE Std 802.11-2016,
// 12.7.1.3. The ordering of addresses and nonces is normalized so both
// peers derive the same key.
func DerivePtk(pmk []byte, aAddr, sAddr [6]byte, aNonce, sNonce [32]byte) (*Ptk, error) {
	data := make([]byte, 0, 2*6+2*32)
	data = append(data, minBytes(aAddr[:], sAddr[:])...)
	data = append(data, maxBytes(aAddr[:], sAddr[:])...)
	data = append(data, minBytes(aNonce[:], sNonce[:])...)
	data = append(data, maxBytes(aNonce[:], sNonce[:])...)

	ptk, err := Prf(pmk, "Pairwise key expansion", data, (kckLen+kekLen+tkLen)*8)
	if err != nil {
		return nil, err
	}
	return &Ptk{
		KCK: ptk[:kckLen],
		KEK: ptk[kckLen : kckLen+kekLen],
		TK:  ptk[kckLen+kekLen:],
	}, nil
}

// cmpBytes compares two big-endian unsigned integers of arbitrary
// width. Leading zeros are ignored.
func cmpBytes(a, b []byte) int {
	for len(a) > 0 && a[0] == 0 {
		a = a[1:]
	}
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return bytes.Compare(a, b)
}

func minBytes(a, b []byte) []byte {
	if cmpBytes(a, b) <= 0 {
		return a
	}
	return b
}

func maxBytes(a, b []byte) []byte {
	if cmpBytes(a, b) <= 0 {
		return b
	}
	return a
}
