package rsn

// PmksaState is the state of the pairwise master key security
// association.
type PmksaState interface {
	pmksaState()
}

// PmksaInitialized holds the authentication method that will produce
// the PMK.
type PmksaInitialized struct {
	Method AuthMethod
}

// PmksaEstablished holds the confirmed PMK. The method is retained so
// resetting the association can restart authentication.
type PmksaEstablished struct {
	Method AuthMethod
	Pmk    Pmk
}

func (PmksaInitialized) pmksaState() {}
func (PmksaEstablished) pmksaState() {}

func (s PmksaInitialized) establish(pmk Pmk) PmksaEstablished {
	return PmksaEstablished{Method: s.Method, Pmk: pmk}
}

func resetPmksa(s PmksaState) PmksaState {
	switch s := s.(type) {
	case PmksaEstablished:
		return PmksaInitialized{Method: s.Method}
	default:
		return s
	}
}
