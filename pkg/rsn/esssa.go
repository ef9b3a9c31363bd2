package rsn

import (
	"errors"
	"fmt"

	"github.com/pion/logging"

	"github.com/backkem/rsn/pkg/eapol"
	"github.com/backkem/rsn/pkg/rsne"
)

// Config collects everything needed to run an ESS security
// association.
type Config struct {
	Role       Role
	Negotiated *rsne.Negotiated

	// Auth produces the PMK, for example PskConfig.
	Auth AuthConfig
	// PtkExchange derives the pairwise key, typically the 4-Way
	// Handshake.
	PtkExchange PtkExchangeConfig
	// GtkExchange renews the group key, typically the Group Key
	// Handshake. Optional; without it the station still receives its
	// first GTK through the PTK exchange but cannot follow rekeys.
	GtkExchange GtkExchangeConfig

	LoggerFactory logging.LoggerFactory
}

func (c *Config) validate() error {
	if c.Negotiated == nil {
		return errors.New("rsn: Config.Negotiated is required")
	}
	if c.Auth == nil {
		return errors.New("rsn: Config.Auth is required")
	}
	if c.PtkExchange == nil {
		return errors.New("rsn: Config.PtkExchange is required")
	}
	return nil
}

// EssSa drives the security association of one peer link. It owns
// three sub-associations: the PMKSA produced by authentication, the
// PTKSA produced by the pairwise key exchange and the GTKSA tracking the
// group key.
//
// EssSa is not safe for concurrent use. Callers serialize access and
// decide how to act on the updates collected in the sink.
type EssSa struct {
	role       Role
	negotiated *rsne.Negotiated

	// keyReplayCounter is the last counter value this station
	// considers live. The Supplicant adopts it from MIC protected
	// frames it receives, the Authenticator from frames it transmits.
	keyReplayCounter uint64

	pmksa StateMachine[PmksaState]
	ptksa StateMachine[PtksaState]
	gtksa StateMachine[GtksaState]

	log logging.LeveledLogger
}

// NewEssSa builds an association from its configuration. It fails only
// if the configuration is invalid or the authentication method cannot
// be constructed.
func NewEssSa(config *Config) (*EssSa, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}

	authMethod, err := config.Auth.NewAuthMethod()
	if err != nil {
		return nil, err
	}

	return &EssSa{
		role:       config.Role,
		negotiated: config.Negotiated,
		pmksa:      NewStateMachine[PmksaState](PmksaInitialized{Method: authMethod}),
		ptksa:      NewStateMachine[PtksaState](PtksaUninitialized{Cfg: config.PtkExchange}),
		gtksa:      NewStateMachine[GtksaState](GtksaUninitialized{Cfg: config.GtkExchange}),
		log:        loggerFactory.NewLogger("rsn"),
	}, nil
}

// Reset returns all three sub-associations to their initial states.
// Derived keys are dropped; authentication and exchange
// configurations survive so the association can be re-established.
func (s *EssSa) Reset() {
	s.log.Debugf("resetting ESS-SA")
	s.pmksa.ReplaceState(resetPmksa)
	s.ptksa.ReplaceState(resetPtksa)
	s.gtksa.ReplaceState(resetGtksa)
}

// IsEstablished reports whether both the pairwise and the group SA
// hold keys.
func (s *EssSa) IsEstablished() bool {
	ptk, gtk := s.currentKeys()
	return ptk != nil && gtk != nil
}

// Initiate starts establishing the association from scratch. Any
// progress made so far is reset. For a PSK network the PMK is
// available immediately, so this arms the PTK exchange and, on the
// Authenticator, transmits the first handshake message.
func (s *EssSa) Initiate(sink *UpdateSink) error {
	s.Reset()
	s.log.Debugf("initiating ESS-SA as %s", s.role)

	init, ok := s.pmksa.State().(PmksaInitialized)
	if !ok {
		return fmt.Errorf("rsn: PMKSA in unexpected state after reset")
	}
	pmk, ok := init.Method.Pmk()
	if !ok {
		return errPmkUnavailable
	}
	return s.pushUpdates(sink, UpdateSink{KeyUpdate{Key: pmk}})
}

// OnEapolFrame feeds a received EAPOL packet into the association.
// Effects are appended to sink. Frames that fail cryptographic
// verification surface as a StatusWrongPassword update rather than an
// error; structural and protocol violations are returned as errors
// and leave the association state untouched.
func (s *EssSa) OnEapolFrame(sink *UpdateSink, frame eapol.Frame) error {
	keyFrame, ok := frame.(*eapol.KeyFrame)
	if !ok {
		s.log.Debugf("dropping EAPOL packet of type %d", frame.PacketType())
		return nil
	}
	return s.onEapolKeyFrame(sink, keyFrame)
}

func (s *EssSa) onEapolKeyFrame(sink *UpdateSink, frame *eapol.KeyFrame) error {
	prevPtk, prevGtk := s.currentKeys()
	wasEstablished := prevPtk != nil && prevGtk != nil

	verified, err := VerifyKeyFrame(frame, s.role, s.negotiated, s.keyReplayCounter)
	if err != nil {
		return err
	}

	// The Supplicant has no authority over the counter; it follows
	// the value of every integrity protected frame it accepts.
	if s.role == RoleSupplicant && frame.Info.IsSet(eapol.KeyInfoMIC) {
		s.keyReplayCounter = frame.ReplayCounter
	}

	var updates UpdateSink
	if err := s.routeKeyFrame(&updates, verified); err != nil {
		if errors.Is(err, ErrLikelyWrongCredential) {
			s.log.Infof("key frame failed cryptographic verification: %v", err)
			sink.Push(StatusUpdate{Status: StatusWrongPassword})
			return nil
		}
		return err
	}
	if err := s.pushUpdates(sink, updates); err != nil {
		return err
	}

	curPtk, curGtk := s.currentKeys()
	if curPtk == nil || curGtk == nil {
		return nil
	}
	if !wasEstablished {
		sink.Push(KeyUpdate{Key: curPtk})
		sink.Push(KeyUpdate{Key: curGtk})
		sink.Push(StatusUpdate{Status: StatusEssSaEstablished})
		s.log.Infof("ESS-SA established")
		return nil
	}
	// Rekey: only report what actually changed.
	if curPtk != prevPtk {
		sink.Push(KeyUpdate{Key: curPtk})
	}
	if curGtk != prevGtk {
		sink.Push(KeyUpdate{Key: curGtk})
	}
	return nil
}

// routeKeyFrame dispatches a verified frame to the sub-association it
// belongs to.
func (s *EssSa) routeKeyFrame(sink *UpdateSink, verified *VerifiedKeyFrame) error {
	frame := verified.KeyFrame()

	// Before the PMKSA exists all traffic belongs to authentication.
	if init, ok := s.pmksa.State().(PmksaInitialized); ok {
		return init.Method.OnEapolKeyFrame(sink, frame)
	}

	if frame.Info.IsSet(eapol.KeyInfoTypePairwise) {
		switch st := s.ptksa.State().(type) {
		case PtksaInitialized:
			return st.Method.OnEapolKeyFrame(sink, s.keyReplayCounter, verified)
		case PtksaEstablished:
			return st.Method.OnEapolKeyFrame(sink, s.keyReplayCounter, verified)
		default:
			return errPtksaNotInitialized
		}
	}

	switch st := s.gtksa.State().(type) {
	case GtksaInitialized:
		if st.Method == nil {
			s.log.Infof("ignoring group key frame: no rekey exchange configured")
			return nil
		}
		return st.Method.OnEapolKeyFrame(sink, s.keyReplayCounter, verified)
	case GtksaEstablished:
		if st.Method == nil {
			s.log.Infof("ignoring group key frame: no rekey exchange configured")
			return nil
		}
		return st.Method.OnEapolKeyFrame(sink, s.keyReplayCounter, verified)
	default:
		s.log.Infof("ignoring group key frame: GTKSA not initialized")
		return nil
	}
}

// pushUpdates forwards exchange effects to the caller's sink. Key
// confirmations are folded back into the association instead of being
// passed through; transmitted frames drive the Authenticator's replay
// counter.
func (s *EssSa) pushUpdates(sink *UpdateSink, updates UpdateSink) error {
	for _, update := range updates {
		switch update := update.(type) {
		case KeyUpdate:
			if err := s.onKeyConfirmed(sink, update.Key); err != nil {
				return err
			}
		case TxEapolKeyFrame:
			sink.Push(update)
			if s.role == RoleAuthenticator {
				counter := update.Frame.ReplayCounter
				if counter <= s.keyReplayCounter {
					s.log.Errorf("transmitted key frame does not advance the replay counter: %d, last %d", counter, s.keyReplayCounter)
				}
				s.keyReplayCounter = counter
			}
		default:
			sink.Push(update)
		}
	}
	return nil
}

// onKeyConfirmed advances the sub-associations when an exchange
// confirms a key.
func (s *EssSa) onKeyConfirmed(sink *UpdateSink, key Key) error {
	switch key := key.(type) {
	case Pmk:
		s.pmksa.ReplaceState(func(st PmksaState) PmksaState {
			switch st := st.(type) {
			case PmksaInitialized:
				s.log.Debugf("PMKSA established")
				return st.establish(key)
			default:
				s.log.Errorf("PMK confirmed while PMKSA is already established")
				return st
			}
		})
		if err := s.ptksa.ReplaceStateE(func(st PtksaState) (PtksaState, error) {
			return initializePtksa(st, key)
		}); err != nil {
			return fmt.Errorf("rsn: initializing PTKSA: %w", err)
		}

		init, ok := s.ptksa.State().(PtksaInitialized)
		if !ok {
			return errPtksaNotInitialized
		}
		var updates UpdateSink
		if err := init.Method.Initiate(&updates, s.keyReplayCounter); err != nil {
			return fmt.Errorf("rsn: initiating PTK exchange: %w", err)
		}
		return s.pushUpdates(sink, updates)

	case *Ptk:
		// The group rekey method is keyed with the KCK and KEK of the
		// current PTK. A new PTK invalidates it.
		s.gtksa.ReplaceState(resetGtksa)
		if err := s.gtksa.ReplaceStateE(func(st GtksaState) (GtksaState, error) {
			return initializeGtksa(st, key.KCK, key.KEK)
		}); err != nil {
			return fmt.Errorf("rsn: initializing GTKSA: %w", err)
		}

		s.ptksa.ReplaceState(func(st PtksaState) PtksaState {
			switch st := st.(type) {
			case PtksaInitialized:
				s.log.Debugf("PTKSA established")
				return PtksaEstablished{Method: st.Method, Ptk: key}
			case PtksaEstablished:
				// A second handshake completing against an already
				// established PTKSA is accepted; it usually follows a
				// failed credential check on the peer.
				s.log.Warnf("PTK overwritten while PTKSA is established, credentials may be wrong")
				return PtksaEstablished{Method: st.Method, Ptk: key}
			default:
				s.log.Errorf("PTK confirmed while PTKSA is uninitialized")
				return st
			}
		})
		return nil

	case *Gtk:
		s.gtksa.ReplaceState(func(st GtksaState) GtksaState {
			switch st := st.(type) {
			case GtksaInitialized:
				s.log.Debugf("GTKSA established")
				return GtksaEstablished{Method: st.Method, Gtk: key}
			case GtksaEstablished:
				return GtksaEstablished{Method: st.Method, Gtk: key}
			default:
				s.log.Errorf("GTK confirmed while GTKSA is uninitialized")
				return st
			}
		})
		return nil

	default:
		s.log.Errorf("unexpected key confirmation: %s", key.keyName())
		return nil
	}
}

func (s *EssSa) currentKeys() (*Ptk, *Gtk) {
	var ptk *Ptk
	if st, ok := s.ptksa.State().(PtksaEstablished); ok {
		ptk = st.Ptk
	}
	var gtk *Gtk
	if st, ok := s.gtksa.State().(GtksaEstablished); ok {
		gtk = st.Gtk
	}
	return ptk, gtk
}
