// Package rsn establishes and maintains the security association of
// an IEEE Std 802.11 extended service set: it drives the 4-Way
// Handshake and the Group Key Handshake to derive and install the
// pairwise and group transient keys protecting an association.
package rsn

// Role identifies which side of the security association a station
// takes.
type Role int

const (
	// RoleAuthenticator is the access point side. It initiates key
	// exchanges and distributes the group key.
	RoleAuthenticator Role = iota
	// RoleSupplicant is the client side. It responds to exchanges
	// initiated by the Authenticator.
	RoleSupplicant
)

func (r Role) String() string {
	switch r {
	case RoleAuthenticator:
		return "Authenticator"
	case RoleSupplicant:
		return "Supplicant"
	default:
		return "Unknown Role"
	}
}
