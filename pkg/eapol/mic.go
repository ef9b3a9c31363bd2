package eapol

import (
	"crypto/hmac"
	"crypto/sha1"
	"errors"
)

// ErrNoMIC is returned when a MIC operation is attempted on a frame
// without room for a MIC.
var ErrNoMIC = errors.New("eapol: frame carries no MIC field")

// ComputeMIC calculates the message integrity code over the serialized
// frame with a zeroed MIC field, using HMAC-SHA1 truncated to the
// frame's MIC size (key descriptor version 2).
func (f *KeyFrame) ComputeMIC(kck []byte) ([]byte, error) {
	if len(f.MIC) == 0 {
		return nil, ErrNoMIC
	}
	shadow := *f
	shadow.MIC = make([]byte, len(f.MIC))

	mac := hmac.New(sha1.New, kck)
	mac.Write(shadow.Bytes())
	return mac.Sum(nil)[:len(f.MIC)], nil
}

// SignMIC computes the MIC with kck and stores it in the frame.
func (f *KeyFrame) SignMIC(kck []byte) error {
	mic, err := f.ComputeMIC(kck)
	if err != nil {
		return err
	}
	copy(f.MIC, mic)
	return nil
}

// HasValidMIC reports whether the frame's MIC matches the one computed
// with kck.
func (f *KeyFrame) HasValidMIC(kck []byte) bool {
	mic, err := f.ComputeMIC(kck)
	if err != nil {
		return false
	}
	return hmac.Equal(mic, f.MIC)
}
