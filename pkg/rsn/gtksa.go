package rsn

// GtksaState is the state of the group temporal key security
// association.
type GtksaState interface {
	gtksaState()
}

// GtksaUninitialized waits for a PTK. Cfg may be nil when the station
// does not participate in group rekeying.
type GtksaUninitialized struct {
	Cfg GtkExchangeConfig
}

// GtksaInitialized waits for the first GTK. Method is nil when no
// rekey exchange is configured; the GTK then arrives solely through
// the 4-Way Handshake.
type GtksaInitialized struct {
	Method GtkMethod
}

// GtksaEstablished holds the current GTK.
type GtksaEstablished struct {
	Method GtkMethod
	Gtk    *Gtk
}

func (GtksaUninitialized) gtksaState() {}
func (GtksaInitialized) gtksaState()   {}
func (GtksaEstablished) gtksaState()   {}

// initializeGtksa binds a fresh rekey method to the given PTK keys.
// On failure the state is unchanged and the configuration preserved.
func initializeGtksa(s GtksaState, kck, kek []byte) (GtksaState, error) {
	u, ok := s.(GtksaUninitialized)
	if !ok {
		return s, errAlreadyInitialized("GTKSA")
	}
	if u.Cfg == nil {
		return GtksaInitialized{}, nil
	}
	method, err := u.Cfg.NewGtkMethod(kck, kek)
	if err != nil {
		return u, err
	}
	return GtksaInitialized{Method: method}, nil
}

// resetGtksa tears down any rekey method and recovers its
// configuration. A method bound to a superseded PTK must never be
// reused.
func resetGtksa(s GtksaState) GtksaState {
	switch s := s.(type) {
	case GtksaInitialized:
		if s.Method == nil {
			return GtksaUninitialized{}
		}
		return GtksaUninitialized{Cfg: s.Method.Destroy()}
	case GtksaEstablished:
		if s.Method == nil {
			return GtksaUninitialized{}
		}
		return GtksaUninitialized{Cfg: s.Method.Destroy()}
	default:
		return s
	}
}
