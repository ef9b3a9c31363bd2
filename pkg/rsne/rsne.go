// Package rsne implements the Robust Security Network element of
// IEEE Std 802.11-2016, 9.4.2.25, and the cipher and AKM negotiation
// derived from it.
package rsne

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ElementID is the element identifier of the RSN element.
const ElementID = 48

const version = 1

// Suite is a cipher or AKM suite selector: an OUI and a suite type.
type Suite struct {
	OUI  [3]byte
	Type uint8
}

var ouiIeee = [3]byte{0x00, 0x0f, 0xac}

// Cipher suite selectors defined by IEEE Std 802.11.
var (
	CipherTkip    = Suite{ouiIeee, 2}
	CipherCcmp128 = Suite{ouiIeee, 4}
)

// AKM suite selectors defined by IEEE Std 802.11.
var (
	AkmEap = Suite{ouiIeee, 1}
	AkmPsk = Suite{ouiIeee, 2}
)

func (s Suite) String() string {
	return fmt.Sprintf("%02x-%02x-%02x:%d", s.OUI[0], s.OUI[1], s.OUI[2], s.Type)
}

func (s Suite) bytes() []byte {
	return []byte{s.OUI[0], s.OUI[1], s.OUI[2], s.Type}
}

func parseSuite(b []byte) Suite {
	return Suite{OUI: [3]byte(b[:3]), Type: b[3]}
}

// Element is a parsed RSN element.
type Element struct {
	GroupData    Suite
	Pairwise     []Suite
	Akms         []Suite
	Capabilities uint16
}

// NewWpa2Personal returns the RSN element for a WPA2-Personal network:
// CCMP-128 for both pairwise and group traffic with PSK
// authentication.
func NewWpa2Personal() *Element {
	return &Element{
		GroupData: CipherCcmp128,
		Pairwise:  []Suite{CipherCcmp128},
		Akms:      []Suite{AkmPsk},
	}
}

// Bytes serializes the element including its ID and length header.
// Multi-octet fields are little-endian per IEEE Std 802.11.
func (e *Element) Bytes() []byte {
	body := make([]byte, 0, 2+4+2+4*len(e.Pairwise)+2+4*len(e.Akms)+2)
	body = binary.LittleEndian.AppendUint16(body, version)
	body = append(body, e.GroupData.bytes()...)
	body = binary.LittleEndian.AppendUint16(body, uint16(len(e.Pairwise)))
	for _, s := range e.Pairwise {
		body = append(body, s.bytes()...)
	}
	body = binary.LittleEndian.AppendUint16(body, uint16(len(e.Akms)))
	for _, s := range e.Akms {
		body = append(body, s.bytes()...)
	}
	body = binary.LittleEndian.AppendUint16(body, e.Capabilities)

	return append([]byte{ElementID, byte(len(body))}, body...)
}

// Equal reports whether two elements serialize identically.
func (e *Element) Equal(other *Element) bool {
	return bytes.Equal(e.Bytes(), other.Bytes())
}

// Parse decodes an RSN element from its raw form including the ID and
// length header. Trailing optional fields (PMKID list, group
// management cipher) are ignored.
func Parse(raw []byte) (*Element, error) {
	if len(raw) < 2 || raw[0] != ElementID {
		return nil, errors.New("rsne: not an RSN element")
	}
	body := raw[2:]
	if len(body) < int(raw[1]) {
		return nil, errors.New("rsne: truncated element")
	}
	body = body[:raw[1]]

	if len(body) < 2 {
		return nil, errors.New("rsne: missing version")
	}
	if v := binary.LittleEndian.Uint16(body); v != version {
		return nil, fmt.Errorf("rsne: unsupported version %d", v)
	}
	body = body[2:]

	e := &Element{GroupData: CipherCcmp128}
	if len(body) < 4 {
		return e, nil
	}
	e.GroupData = parseSuite(body)
	body = body[4:]

	var err error
	if e.Pairwise, body, err = parseSuiteList(body, "pairwise cipher"); err != nil {
		return nil, err
	}
	if e.Akms, body, err = parseSuiteList(body, "AKM"); err != nil {
		return nil, err
	}
	if len(body) >= 2 {
		e.Capabilities = binary.LittleEndian.Uint16(body)
	}
	return e, nil
}

func parseSuiteList(body []byte, what string) ([]Suite, []byte, error) {
	if len(body) < 2 {
		return nil, body, nil
	}
	count := int(binary.LittleEndian.Uint16(body))
	body = body[2:]
	if len(body) < 4*count {
		return nil, nil, fmt.Errorf("rsne: truncated %s list", what)
	}
	suites := make([]Suite, count)
	for i := range suites {
		suites[i] = parseSuite(body[4*i:])
	}
	return suites, body[4*count:], nil
}
