// Package reputation tracks verifier profiles and their decision counters.
// The trust oracle feeds it through the DecisionSink interface.
package reputation

import (
	"sync"
	"time"

	"github.com/veristake/veristake/pkg/fault"
	"github.com/veristake/veristake/pkg/paging"
)

// MaxVerifiers caps the registry so listings stay bounded.
const MaxVerifiers = 500

// Profile is one verifier's public record.
type Profile struct {
	VerifierID    string    `json:"verifier_id"`
	DisplayName   string    `json:"display_name"`
	Bio           string    `json:"bio,omitempty"`
	ApprovedCount uint64    `json:"approved_count"`
	RejectedCount uint64    `json:"rejected_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Registry owns verifier profiles.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	order    []string
	clock    func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		profiles: make(map[string]*Profile),
		clock:    time.Now,
	}
}

// WithClock overrides the clock for testing.
func (r *Registry) WithClock(clock func() time.Time) *Registry {
	r.clock = clock
	return r
}

// Upsert creates or updates a verifier profile.
func (r *Registry) Upsert(verifierID, displayName, bio string) error {
	if verifierID == "" {
		return fault.Validationf("verifierID must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[verifierID]; ok {
		p.DisplayName = displayName
		p.Bio = bio
		p.UpdatedAt = r.clock()
		return nil
	}
	if len(r.order) >= MaxVerifiers {
		return fault.Capacityf("registry holds %d verifiers", MaxVerifiers)
	}
	now := r.clock()
	r.profiles[verifierID] = &Profile{
		VerifierID:  verifierID,
		DisplayName: displayName,
		Bio:         bio,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.order = append(r.order, verifierID)
	return nil
}

// Get returns a copy of the profile.
func (r *Registry) Get(verifierID string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[verifierID]
	if !ok {
		return Profile{}, fault.NotFoundf("verifier %s", verifierID)
	}
	return *p, nil
}

// Delete removes a profile. Deleting an absent profile is a no-op.
func (r *Registry) Delete(verifierID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[verifierID]; !ok {
		return
	}
	delete(r.profiles, verifierID)
	for i, id := range r.order {
		if id == verifierID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// RecordDecision bumps the verifier's counters, creating a bare profile on
// first sight. Implements the oracle's DecisionSink.
func (r *Registry) RecordDecision(verifierID string, approved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[verifierID]
	if !ok {
		if len(r.order) >= MaxVerifiers {
			return
		}
		now := r.clock()
		p = &Profile{VerifierID: verifierID, CreatedAt: now, UpdatedAt: now}
		r.profiles[verifierID] = p
		r.order = append(r.order, verifierID)
	}
	if approved {
		p.ApprovedCount++
	} else {
		p.RejectedCount++
	}
	p.UpdatedAt = r.clock()
}

// List returns one page of profiles in registration order.
func (r *Registry) List(offset, limit int) paging.Page[Profile] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Profile, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.profiles[id])
	}
	return paging.GetPage(out, offset, limit)
}
