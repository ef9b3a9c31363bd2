// Package eapol models EAPOL packets as defined in IEEE Std 802.1X,
// with the EAPOL-Key descriptor of IEEE Std 802.11.
package eapol

// EAPOL protocol versions.
const (
	ProtocolVersion1 uint8 = 1
	ProtocolVersion2 uint8 = 2
)

// EAPOL packet types.
const (
	PacketTypeEAP    uint8 = 0
	PacketTypeStart  uint8 = 1
	PacketTypeLogoff uint8 = 2
	PacketTypeKey    uint8 = 3
)

// DescriptorTypeIeee80211 identifies the IEEE Std 802.11 key
// descriptor inside an EAPOL-Key packet.
const DescriptorTypeIeee80211 uint8 = 2

// KeyDescriptorVersion2 selects HMAC-SHA1-128 for the MIC and AES key
// wrap for the key data field.
const KeyDescriptorVersion2 uint16 = 2

// KeyInfo is the Key Information field of an EAPOL-Key frame.
type KeyInfo uint16

// Key Information bits, IEEE Std 802.11-2016, 12.7.2.
const (
	KeyInfoVersionMask      KeyInfo = 0x0007
	KeyInfoTypePairwise     KeyInfo = 1 << 3
	KeyInfoInstall          KeyInfo = 1 << 6
	KeyInfoACK              KeyInfo = 1 << 7
	KeyInfoMIC              KeyInfo = 1 << 8
	KeyInfoSecure           KeyInfo = 1 << 9
	KeyInfoError            KeyInfo = 1 << 10
	KeyInfoRequest          KeyInfo = 1 << 11
	KeyInfoEncryptedKeyData KeyInfo = 1 << 12
	KeyInfoSMKMessage       KeyInfo = 1 << 13
)

// IsSet reports whether all bits in mask are set.
func (i KeyInfo) IsSet(mask KeyInfo) bool {
	return i&mask == mask
}

// With returns a copy of i with the bits in mask set.
func (i KeyInfo) With(mask KeyInfo) KeyInfo {
	return i | mask
}

// DescriptorVersion extracts the key descriptor version sub-field.
func (i KeyInfo) DescriptorVersion() uint16 {
	return uint16(i & KeyInfoVersionMask)
}

// Frame is an EAPOL packet. Concrete types are KeyFrame for EAPOL-Key
// packets and UnsupportedFrame for everything else.
type Frame interface {
	// PacketType returns the EAPOL packet type of the frame.
	PacketType() uint8
}

// KeyFrame is a parsed EAPOL-Key packet.
type KeyFrame struct {
	Version        uint8
	DescriptorType uint8
	Info           KeyInfo
	KeyLength      uint16
	ReplayCounter  uint64
	Nonce          [32]byte
	IV             [16]byte
	RSC            [8]byte
	// MIC holds the message integrity code. Its length follows from
	// the negotiated AKM and is fixed at frame construction.
	MIC  []byte
	Data []byte
}

// PacketType implements Frame.
func (f *KeyFrame) PacketType() uint8 { return PacketTypeKey }

// NewKeyFrame returns an EAPOL-Key frame with the IEEE Std 802.11 key
// descriptor and room for a MIC of micSize bytes.
func NewKeyFrame(micSize int) *KeyFrame {
	return &KeyFrame{
		Version:        ProtocolVersion1,
		DescriptorType: DescriptorTypeIeee80211,
		MIC:            make([]byte, micSize),
	}
}

// UnsupportedFrame is an EAPOL packet of a type this package does not
// interpret. The body is kept verbatim.
type UnsupportedFrame struct {
	Version uint8
	Type    uint8
	Body    []byte
}

// PacketType implements Frame.
func (f *UnsupportedFrame) PacketType() uint8 { return f.Type }
