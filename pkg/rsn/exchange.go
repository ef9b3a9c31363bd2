package rsn

// PtkMethod is an exchange deriving a pairwise transient key, such as
// the 4-Way Handshake. A method is bound to one PMK for its lifetime.
type PtkMethod interface {
	// Initiate starts the exchange. Only the Authenticator side of
	// the 4-Way Handshake transmits anything here; other sides treat
	// it as a no-op.
	Initiate(sink *UpdateSink, replayCounter uint64) error
	// OnEapolKeyFrame processes a verified key frame addressed to
	// this exchange.
	OnEapolKeyFrame(sink *UpdateSink, replayCounter uint64, frame *VerifiedKeyFrame) error
	// Destroy tears the method down and returns the configuration it
	// was built from, so the exchange can be restarted later.
	Destroy() PtkExchangeConfig
}

// GtkMethod is an exchange renewing the group temporal key, such as
// the Group Key Handshake. A method is bound to the KCK and KEK of one
// PTK for its lifetime.
type GtkMethod interface {
	OnEapolKeyFrame(sink *UpdateSink, replayCounter uint64, frame *VerifiedKeyFrame) error
	Destroy() GtkExchangeConfig
}

// PtkExchangeConfig builds PTK exchange methods. Configurations are
// retained across resets so an association can restart its exchange.
type PtkExchangeConfig interface {
	NewPtkMethod(pmk Pmk) (PtkMethod, error)
}

// GtkExchangeConfig builds GTK exchange methods from the key
// confirmation and key encryption keys of a freshly confirmed PTK.
type GtkExchangeConfig interface {
	NewGtkMethod(kck, kek []byte) (GtkMethod, error)
}
