package eapol

import (
	"fmt"
)

const (
	elementIDRsn    = 48
	elementIDVendor = 0xdd

	kdeTypeGtk = 1
)

// kdeOUI is the IEEE 802.11 organizationally unique identifier used by
// key data encapsulations.
var kdeOUI = [3]byte{0x00, 0x0f, 0xac}

// GtkKde is the GTK key data encapsulation from
// IEEE Std 802.11-2016, 12.7.2, Figure 12-35.
type GtkKde struct {
	KeyID uint8
	Tx    bool
	Gtk   []byte
}

// Bytes serializes the KDE including its element header.
func (k *GtkKde) Bytes() []byte {
	out := make([]byte, 0, 8+len(k.Gtk))
	out = append(out, elementIDVendor, byte(6+len(k.Gtk)))
	out = append(out, kdeOUI[:]...)
	out = append(out, kdeTypeGtk)
	flags := k.KeyID & 0x03
	if k.Tx {
		flags |= 1 << 2
	}
	out = append(out, flags, 0)
	return append(out, k.Gtk...)
}

// KeyData holds the elements recognized in an EAPOL-Key key data
// field. Rsne keeps the raw RSN element including its header so it can
// be compared byte for byte against a previously announced element.
type KeyData struct {
	Rsne []byte
	Gtk  *GtkKde
}

// ParseKeyData decodes the element sequence of a key data field.
// Unknown elements are skipped; AES key wrap padding terminates the
// sequence.
func ParseKeyData(raw []byte) (*KeyData, error) {
	kd := &KeyData{}
	for len(raw) >= 2 {
		id, bodyLen := raw[0], int(raw[1])
		if id == elementIDVendor && bodyLen == 0 {
			break
		}
		if len(raw) < 2+bodyLen {
			return nil, fmt.Errorf("eapol: truncated element %#x in key data", id)
		}
		body := raw[2 : 2+bodyLen]

		switch {
		case id == elementIDRsn:
			kd.Rsne = raw[:2+bodyLen]
		case id == elementIDVendor && bodyLen >= 6 && [3]byte(body[:3]) == kdeOUI:
			if body[3] == kdeTypeGtk {
				kd.Gtk = &GtkKde{
					KeyID: body[4] & 0x03,
					Tx:    body[4]&(1<<2) != 0,
					Gtk:   append([]byte(nil), body[6:]...),
				}
			}
		}
		raw = raw[2+bodyLen:]
	}
	return kd, nil
}

// PadKeyData pads a key data plaintext to the length required by AES
// key wrap: a multiple of 8 bytes and at least 16 bytes. The padding
// starts with a single 0xdd octet per IEEE Std 802.11-2016, 12.7.2.
func PadKeyData(data []byte) []byte {
	if len(data) >= 16 && len(data)%8 == 0 {
		return data
	}
	padded := len(data) + 1
	for padded < 16 || padded%8 != 0 {
		padded++
	}
	out := make([]byte, padded)
	copy(out, data)
	out[len(data)] = elementIDVendor
	return out
}
