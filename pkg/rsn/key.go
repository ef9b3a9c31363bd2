package rsn

// Key is a key confirmed by an exchange: a Pmk, *Ptk or *Gtk.
type Key interface {
	keyName() string
}

// Pmk is a pairwise master key.
type Pmk []byte

func (Pmk) keyName() string { return "PMK" }

// Ptk is a pairwise transient key split into its constituent keys:
// the key confirmation key, the key encryption key and the temporal
// key.
type Ptk struct {
	KCK []byte
	KEK []byte
	TK  []byte
}

func (*Ptk) keyName() string { return "PTK" }

// Gtk is a group temporal key together with the key identifier it is
// installed under.
type Gtk struct {
	TK    []byte
	KeyID uint8
}

func (*Gtk) keyName() string { return "GTK" }
