// README: Shared identifier and role types.
package types

// ID is an opaque entity identifier. Foreign references on a trip
// (dispatcher, driver, broker, equipment) are IDs; the store never
// enforces them.
type ID string

func (id ID) IsZero() bool { return id == "" }

// Role is the caller's position in the dispatch workflow. It decides which
// default index serves a listing, which status transitions are legal, and
// which payment fields a record exposes.
type Role string

const (
	RoleDispatcher Role = "dispatcher"
	RoleDriver     Role = "driver"
	RoleOwner      Role = "owner"
	RoleCarrier    Role = "carrier"
)

// ParseRole maps a claim string onto a known Role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleDispatcher, RoleDriver, RoleOwner, RoleCarrier:
		return Role(s), true
	}
	return "", false
}
