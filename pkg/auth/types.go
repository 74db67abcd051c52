package auth

// Role names understood by the engine.
const (
	RoleAdmin    = "admin"
	RoleVerifier = "verifier"
	RoleClaimant = "claimant"
)

// Principal is the interface for any entity making a request.
type Principal interface {
	GetID() string
	GetRoles() []string
	// HasRole reports whether the principal carries a specific role.
	// Admins implicitly carry every role.
	HasRole(role string) bool
}

// BasePrincipal is a simple implementation of Principal.
type BasePrincipal struct {
	ID    string
	Roles []string
}

func (b *BasePrincipal) GetID() string {
	return b.ID
}

func (b *BasePrincipal) GetRoles() []string {
	return b.Roles
}

func (b *BasePrincipal) HasRole(role string) bool {
	for _, r := range b.Roles {
		if r == role || r == RoleAdmin {
			return true
		}
	}
	return false
}

// NewPrincipal builds a BasePrincipal with the given id and roles.
func NewPrincipal(id string, roles ...string) *BasePrincipal {
	return &BasePrincipal{ID: id, Roles: roles}
}
