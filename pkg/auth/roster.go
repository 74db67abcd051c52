package auth

import (
	"sync"
	"time"
)

// Grant records an administrative capability grant.
type Grant struct {
	PrincipalID string    `json:"principal_id"`
	Role        string    `json:"role"`
	GrantedBy   string    `json:"granted_by"`
	GrantedAt   time.Time `json:"granted_at"`
}

// Roster tracks capability grants made by administrators. It backs the
// "grant mode" verifier authorization path and the assigned-verifier check
// in the claim ledger.
type Roster struct {
	mu     sync.RWMutex
	grants map[string]map[string]Grant // principal -> role -> grant
	clock  func() time.Time
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{
		grants: make(map[string]map[string]Grant),
		clock:  time.Now,
	}
}

// WithClock overrides the clock for testing.
func (r *Roster) WithClock(clock func() time.Time) *Roster {
	r.clock = clock
	return r
}

// Grant records a role grant for a principal. Re-granting is a no-op.
func (r *Roster) Grant(grantedBy, principalID, role string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byRole, ok := r.grants[principalID]
	if !ok {
		byRole = make(map[string]Grant)
		r.grants[principalID] = byRole
	}
	if _, exists := byRole[role]; exists {
		return
	}
	byRole[role] = Grant{
		PrincipalID: principalID,
		Role:        role,
		GrantedBy:   grantedBy,
		GrantedAt:   r.clock(),
	}
}

// Revoke removes a role grant. Revoking an absent grant is a no-op.
func (r *Roster) Revoke(principalID, role string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if byRole, ok := r.grants[principalID]; ok {
		delete(byRole, role)
		if len(byRole) == 0 {
			delete(r.grants, principalID)
		}
	}
}

// Has reports whether the principal holds the role.
func (r *Roster) Has(principalID, role string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byRole, ok := r.grants[principalID]
	if !ok {
		return false
	}
	_, ok = byRole[role]
	return ok
}
