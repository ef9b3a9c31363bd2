package rsn

// PtksaState is the state of the pairwise transient key security
// association.
type PtksaState interface {
	ptksaState()
}

// PtksaUninitialized waits for a PMK. The exchange configuration is
// kept so the association can start, or restart, its key exchange.
type PtksaUninitialized struct {
	Cfg PtkExchangeConfig
}

// PtksaInitialized runs a key exchange that has not confirmed a PTK
// yet.
type PtksaInitialized struct {
	Method PtkMethod
}

// PtksaEstablished holds the confirmed PTK. The method stays alive to
// serve rekeys.
type PtksaEstablished struct {
	Method PtkMethod
	Ptk    *Ptk
}

func (PtksaUninitialized) ptksaState() {}
func (PtksaInitialized) ptksaState()   {}
func (PtksaEstablished) ptksaState()   {}

// initializePtksa builds the exchange method from the stored
// configuration. On failure the state is unchanged and the
// configuration preserved.
func initializePtksa(s PtksaState, pmk Pmk) (PtksaState, error) {
	u, ok := s.(PtksaUninitialized)
	if !ok {
		return s, errAlreadyInitialized("PTKSA")
	}
	method, err := u.Cfg.NewPtkMethod(pmk)
	if err != nil {
		return u, err
	}
	return PtksaInitialized{Method: method}, nil
}

// resetPtksa tears down any exchange in flight and recovers its
// configuration.
func resetPtksa(s PtksaState) PtksaState {
	switch s := s.(type) {
	case PtksaInitialized:
		return PtksaUninitialized{Cfg: s.Method.Destroy()}
	case PtksaEstablished:
		return PtksaUninitialized{Cfg: s.Method.Destroy()}
	default:
		return s
	}
}
