// Package profile is the skill registry consumed by the claim ledger's
// approval callback. Skills live in per-principal capped slices so every
// listing and filter stays bounded.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/veristake/veristake/pkg/paging"
)

// MaxSkillsPerProfile caps one principal's skill list.
const MaxSkillsPerProfile = 100

var (
	ErrCapacity   = errors.New("skill capacity reached")
	ErrNotFound   = errors.New("skill not found")
	ErrBadName    = errors.New("skill name must be 1..200 characters")
	ErrOutOfRange = errors.New("skill index out of range")
)

// Skill is one entry in a principal's profile.
type Skill struct {
	Name       string    `json:"name"`
	Level      string    `json:"level"`
	Verified   bool      `json:"verified"`
	AddedAt    time.Time `json:"added_at"`
	VerifiedAt time.Time `json:"verified_at,omitempty"`
}

// Registry owns per-principal skill lists and verified counters.
type Registry struct {
	mu            sync.RWMutex
	skills        map[string][]Skill // principal -> capped slice
	verifiedCount map[string]int
	clock         func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		skills:        make(map[string][]Skill),
		verifiedCount: make(map[string]int),
		clock:         time.Now,
	}
}

// WithClock overrides the clock for testing.
func (r *Registry) WithClock(clock func() time.Time) *Registry {
	r.clock = clock
	return r
}

// AddSkill appends a skill to the principal's profile. Returns the index of
// the new skill, or ErrCapacity once the profile holds MaxSkillsPerProfile.
func (r *Registry) AddSkill(principal, name, level string) (int, error) {
	if len(name) == 0 || len(name) > 200 {
		return 0, ErrBadName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.skills[principal]
	if len(list) >= MaxSkillsPerProfile {
		return 0, fmt.Errorf("%w: %d skills", ErrCapacity, len(list))
	}
	r.skills[principal] = append(list, Skill{
		Name:    name,
		Level:   level,
		AddedAt: r.clock(),
	})
	return len(list), nil
}

// VerifySkill marks the principal's skill at skillIndex as verified.
// This is the callback the claim ledger invokes on approval.
func (r *Registry) VerifySkill(ctx context.Context, principal string, skillIndex int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, ok := r.skills[principal]
	if !ok {
		return fmt.Errorf("%w: principal %s", ErrNotFound, principal)
	}
	if skillIndex < 0 || skillIndex >= len(list) {
		return fmt.Errorf("%w: index %d of %d", ErrOutOfRange, skillIndex, len(list))
	}
	if list[skillIndex].Verified {
		return nil
	}
	list[skillIndex].Verified = true
	list[skillIndex].VerifiedAt = r.clock()
	r.verifiedCount[principal]++
	return nil
}

// Skills returns one page of the principal's skills.
func (r *Registry) Skills(principal string, offset, limit int) paging.Page[Skill] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return paging.GetPage(r.skills[principal], offset, limit)
}

// VerifiedSkills returns one page of the principal's verified skills.
// The scan is bounded by MaxSkillsPerProfile.
func (r *Registry) VerifiedSkills(principal string, offset, limit int) paging.Page[Skill] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return paging.FilterPage(r.skills[principal], func(s Skill) bool { return s.Verified }, offset, limit)
}

// Counts returns (total, verified) skill counts for the principal.
func (r *Registry) Counts(principal string) (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.skills[principal]), r.verifiedCount[principal]
}
