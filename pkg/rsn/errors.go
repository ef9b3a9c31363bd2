package rsn

import (
	"errors"
	"fmt"
)

var (
	// ErrLikelyWrongCredential marks a frame that failed MIC or key
	// wrap verification against the derived key material. In a PSK
	// network this nearly always indicates a wrong password.
	ErrLikelyWrongCredential = errors.New("rsn: frame failed cryptographic verification, likely wrong credential")

	// ErrUnsupportedDescriptor is returned for key frames using a key
	// descriptor this implementation does not speak.
	ErrUnsupportedDescriptor = errors.New("rsn: unsupported key descriptor")

	// ErrFrameReplayed is returned when a frame fails the key replay
	// counter check.
	ErrFrameReplayed = errors.New("rsn: key replay counter check failed")

	errPmkUnavailable      = errors.New("rsn: authentication method has no PMK")
	errPtksaNotInitialized = errors.New("rsn: PTKSA is not initialized")
)

func errAlreadyInitialized(what string) error {
	return fmt.Errorf("rsn: %s is already initialized", what)
}
