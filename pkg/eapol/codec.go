package eapol

import (
	"encoding/binary"
	"fmt"
)

const (
	headerLen = 4
	// Key frame body length excluding the variable size MIC and key
	// data fields.
	keyFrameBodyFixedLen = 1 + 2 + 2 + 8 + 32 + 16 + 8 + 8 + 2
)

// Bytes serializes the frame, including the EAPOL header.
func (f *KeyFrame) Bytes() []byte {
	body := keyFrameBodyFixedLen + len(f.MIC) + len(f.Data)
	out := make([]byte, headerLen+body)

	out[0] = f.Version
	out[1] = PacketTypeKey
	binary.BigEndian.PutUint16(out[2:4], uint16(body))

	b := out[headerLen:]
	b[0] = f.DescriptorType
	binary.BigEndian.PutUint16(b[1:3], uint16(f.Info))
	binary.BigEndian.PutUint16(b[3:5], f.KeyLength)
	binary.BigEndian.PutUint64(b[5:13], f.ReplayCounter)
	copy(b[13:45], f.Nonce[:])
	copy(b[45:61], f.IV[:])
	copy(b[61:69], f.RSC[:])
	// 8 reserved bytes at b[69:77].
	copy(b[77:], f.MIC)
	n := 77 + len(f.MIC)
	binary.BigEndian.PutUint16(b[n:n+2], uint16(len(f.Data)))
	copy(b[n+2:], f.Data)
	return out
}

// Parse decodes an EAPOL packet. micSize is the MIC length implied by
// the negotiated AKM and is needed to split the variable size tail of
// a key frame. Packets other than EAPOL-Key are returned as
// UnsupportedFrame.
func Parse(raw []byte, micSize int) (Frame, error) {
	if len(raw) < headerLen {
		return nil, fmt.Errorf("eapol: packet too short: %d bytes", len(raw))
	}
	version := raw[0]
	packetType := raw[1]
	bodyLen := int(binary.BigEndian.Uint16(raw[2:4]))
	if len(raw) < headerLen+bodyLen {
		return nil, fmt.Errorf("eapol: truncated packet: body %d bytes, got %d", bodyLen, len(raw)-headerLen)
	}
	body := raw[headerLen : headerLen+bodyLen]

	if packetType != PacketTypeKey {
		return &UnsupportedFrame{Version: version, Type: packetType, Body: body}, nil
	}

	if len(body) < keyFrameBodyFixedLen+micSize {
		return nil, fmt.Errorf("eapol: key frame body too short: %d bytes", len(body))
	}
	f := &KeyFrame{
		Version:        version,
		DescriptorType: body[0],
		Info:           KeyInfo(binary.BigEndian.Uint16(body[1:3])),
		KeyLength:      binary.BigEndian.Uint16(body[3:5]),
		ReplayCounter:  binary.BigEndian.Uint64(body[5:13]),
	}
	copy(f.Nonce[:], body[13:45])
	copy(f.IV[:], body[45:61])
	copy(f.RSC[:], body[61:69])
	f.MIC = append([]byte(nil), body[77:77+micSize]...)

	n := 77 + micSize
	dataLen := int(binary.BigEndian.Uint16(body[n : n+2]))
	if len(body) < n+2+dataLen {
		return nil, fmt.Errorf("eapol: truncated key data: %d bytes declared, %d present", dataLen, len(body)-n-2)
	}
	f.Data = append([]byte(nil), body[n+2:n+2+dataLen]...)
	return f, nil
}
