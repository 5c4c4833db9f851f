package identity

// Roles known to the platform.
const (
	RoleClient   = "client"
	RoleAttorney = "attorney"
	RoleAdmin    = "admin"
)

// Identity is the authenticated caller, passed explicitly into every
// operation instead of being fished out of the request context.
type Identity struct {
	UserID string
	Role   string
}

// Staff reports whether the caller may act on payments of any client.
func (id Identity) Staff() bool {
	return id.Role == RoleAdmin || id.Role == RoleAttorney
}

// CanAccessClient reports whether the caller may read or mutate payments
// belonging to the given client.
func (id Identity) CanAccessClient(clientID string) bool {
	return id.Staff() || id.UserID == clientID
}
