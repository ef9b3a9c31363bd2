package rsn

import "github.com/backkem/rsn/pkg/eapol"

// SecAssocStatus is a milestone of the security association reported
// to the caller.
type SecAssocStatus int

const (
	// StatusEssSaEstablished signals that both the pairwise and the
	// group SA are established and their keys were reported.
	StatusEssSaEstablished SecAssocStatus = iota
	// StatusWrongPassword signals that a handshake frame failed
	// cryptographic verification, which in a PSK network almost
	// always means the password is wrong.
	StatusWrongPassword
)

func (s SecAssocStatus) String() string {
	switch s {
	case StatusEssSaEstablished:
		return "EssSaEstablished"
	case StatusWrongPassword:
		return "WrongPassword"
	default:
		return "Unknown Status"
	}
}

// SecAssocUpdate is an effect produced while processing a frame:
// a frame to transmit, a key to install or a status change.
type SecAssocUpdate interface {
	isSecAssocUpdate()
}

// TxEapolKeyFrame requests transmission of an EAPOL-Key frame to the
// peer.
type TxEapolKeyFrame struct {
	Frame *eapol.KeyFrame
}

// KeyUpdate reports a confirmed key for installation.
type KeyUpdate struct {
	Key Key
}

// StatusUpdate reports a status milestone.
type StatusUpdate struct {
	Status SecAssocStatus
}

func (TxEapolKeyFrame) isSecAssocUpdate() {}
func (KeyUpdate) isSecAssocUpdate()       {}
func (StatusUpdate) isSecAssocUpdate()    {}

// UpdateSink collects the updates produced by a single call into the
// association. The caller owns the slice and decides how to act on
// the collected effects.
type UpdateSink []SecAssocUpdate

// Push appends an update.
func (s *UpdateSink) Push(u SecAssocUpdate) {
	*s = append(*s, u)
}
