package rsn

import (
	"fmt"

	"github.com/backkem/rsn/pkg/eapol"
	"github.com/backkem/rsn/pkg/rsne"
)

// VerifiedKeyFrame wraps a key frame that passed the structural, role
// and replay checks of VerifyKeyFrame. Exchange methods only accept
// verified frames; the wrapper cannot be built elsewhere.
type VerifiedKeyFrame struct {
	frame *eapol.KeyFrame
}

// KeyFrame returns the verified frame.
func (v *VerifiedKeyFrame) KeyFrame() *eapol.KeyFrame { return v.frame }

// VerifyKeyFrame checks a received key frame against the negotiated
// protection suite, the receiver's role and the key replay counter.
// It performs no cryptographic verification; MIC and key wrap checks
// require key material owned by the exchange methods.
func VerifyKeyFrame(frame *eapol.KeyFrame, role Role, negotiated *rsne.Negotiated, replayCounter uint64) (*VerifiedKeyFrame, error) {
	if frame.DescriptorType != eapol.DescriptorTypeIeee80211 {
		return nil, fmt.Errorf("%w: descriptor type %d", ErrUnsupportedDescriptor, frame.DescriptorType)
	}
	if v := frame.Info.DescriptorVersion(); v != eapol.KeyDescriptorVersion2 {
		return nil, fmt.Errorf("%w: key descriptor version %d", ErrUnsupportedDescriptor, v)
	}
	if frame.Info.IsSet(eapol.KeyInfoSMKMessage) {
		return nil, fmt.Errorf("%w: SMK message", ErrUnsupportedDescriptor)
	}

	switch role {
	case RoleSupplicant:
		// Frames sent by the Authenticator.
		if !frame.Info.IsSet(eapol.KeyInfoACK) {
			return nil, fmt.Errorf("rsn: Authenticator frame must have ACK set")
		}
		if frame.Info.IsSet(eapol.KeyInfoRequest) || frame.Info.IsSet(eapol.KeyInfoError) {
			return nil, fmt.Errorf("rsn: Authenticator frame must not set Request or Error")
		}
		// The replay counter of MIC protected frames must advance.
		// Frames without a MIC, such as the first message of the
		// 4-Way Handshake, carry a counter the Supplicant has no
		// basis to judge yet.
		if frame.Info.IsSet(eapol.KeyInfoMIC) && frame.ReplayCounter <= replayCounter {
			return nil, fmt.Errorf("%w: counter %d, last seen %d", ErrFrameReplayed, frame.ReplayCounter, replayCounter)
		}
	case RoleAuthenticator:
		// Frames sent by the Supplicant.
		if frame.Info.IsSet(eapol.KeyInfoACK) {
			return nil, fmt.Errorf("rsn: Supplicant frame must not set ACK")
		}
		if !frame.Info.IsSet(eapol.KeyInfoMIC) {
			return nil, fmt.Errorf("rsn: Supplicant frame must carry a MIC")
		}
		// Responses echo the counter of the frame they answer.
		if frame.ReplayCounter != replayCounter {
			return nil, fmt.Errorf("%w: counter %d, expected %d", ErrFrameReplayed, frame.ReplayCounter, replayCounter)
		}
	default:
		return nil, fmt.Errorf("rsn: unknown role %d", role)
	}

	if frame.Info.IsSet(eapol.KeyInfoMIC) && len(frame.MIC) != negotiated.MicSize() {
		return nil, fmt.Errorf("rsn: MIC length %d does not match negotiated AKM", len(frame.MIC))
	}

	return &VerifiedKeyFrame{frame: frame}, nil
}
