// Package vesting implements cliff plus straight-line release schedules
// over the bonding asset. Vesting math is a pure function of the injected
// clock and the stored schedule.
package vesting

import (
	"context"
	"sync"
	"time"

	"github.com/veristake/veristake/pkg/audit"
	"github.com/veristake/veristake/pkg/fault"
	"github.com/veristake/veristake/pkg/finance"
	"github.com/veristake/veristake/pkg/token"
)

// Schedule locks the Grant amount for Beneficiary, releasing nothing before
// the cliff and then vesting linearly until Start+Duration.
type Schedule struct {
	ID          string        `json:"id"`
	Beneficiary string        `json:"beneficiary"`
	Grant       finance.Money `json:"grant"`
	Start       time.Time     `json:"start"`
	Cliff       time.Duration `json:"cliff"`
	Duration    time.Duration `json:"duration"`
	Released    int64         `json:"released"`
}

// Vested returns how much of the grant has vested at now.
func (s Schedule) Vested(now time.Time) int64 {
	elapsed := now.Sub(s.Start)
	if elapsed < s.Cliff {
		return 0
	}
	if elapsed >= s.Duration {
		return s.Grant.AmountMinor
	}
	// Second granularity keeps the grant-times-elapsed product inside
	// int64 for any realistic schedule; nanoseconds overflow within
	// months.
	den := int64(s.Duration / time.Second)
	if den == 0 {
		return s.Grant.AmountMinor * int64(elapsed) / int64(s.Duration)
	}
	return s.Grant.AmountMinor * int64(elapsed/time.Second) / den
}

// Releasable returns the vested amount not yet withdrawn.
func (s Schedule) Releasable(now time.Time) int64 {
	return s.Vested(now) - s.Released
}

// Manager holds schedules and custody of unvested funds.
type Manager struct {
	mu        sync.Mutex
	schedules map[string]*Schedule
	bank      *token.Ledger
	custody   string
	trail     audit.Logger
	clock     func() time.Time
}

func NewManager(bank *token.Ledger, custodyAccount string, trail audit.Logger) *Manager {
	if trail == nil {
		trail = audit.Nop()
	}
	return &Manager{
		schedules: make(map[string]*Schedule),
		bank:      bank,
		custody:   custodyAccount,
		trail:     trail,
		clock:     time.Now,
	}
}

// WithClock overrides the clock for testing.
func (m *Manager) WithClock(clock func() time.Time) *Manager {
	m.clock = clock
	return m
}

// Create locks funds from funder into a new schedule.
func (m *Manager) Create(ctx context.Context, id, funder string, s Schedule) error {
	if id == "" || s.Beneficiary == "" {
		return fault.Validationf("id and beneficiary must not be empty")
	}
	if s.Grant.AmountMinor <= 0 || s.Grant.Asset == "" {
		return fault.Validationf("grant must be a positive amount of a named asset")
	}
	if s.Duration <= 0 || s.Cliff < 0 || s.Cliff > s.Duration {
		return fault.Validationf("cliff must fit inside a positive duration")
	}

	m.mu.Lock()
	if _, ok := m.schedules[id]; ok {
		m.mu.Unlock()
		return fault.Statef("schedule %s already exists", id)
	}
	if err := m.bank.Transfer(s.Grant.Asset, funder, m.custody, s.Grant.AmountMinor); err != nil {
		m.mu.Unlock()
		return fault.Economicf("vesting funding failed: %v", err)
	}
	s.ID = id
	s.Released = 0
	m.schedules[id] = &s
	m.mu.Unlock()

	_ = m.trail.Record(ctx, audit.EventMutation, "vesting.created", "vesting:"+id, map[string]interface{}{
		"beneficiary": s.Beneficiary,
		"grant":       s.Grant.String(),
	})
	return nil
}

// Release pays out everything currently releasable and returns the amount.
func (m *Manager) Release(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	s, ok := m.schedules[id]
	if !ok {
		m.mu.Unlock()
		return 0, fault.NotFoundf("schedule %s", id)
	}
	amount := s.Releasable(m.clock())
	if amount <= 0 {
		m.mu.Unlock()
		return 0, fault.Economicf("nothing releasable on schedule %s", id)
	}
	if err := m.bank.Transfer(s.Grant.Asset, m.custody, s.Beneficiary, amount); err != nil {
		m.mu.Unlock()
		return 0, fault.Economicf("vesting release failed: %v", err)
	}
	s.Released += amount
	m.mu.Unlock()

	_ = m.trail.Record(ctx, audit.EventMutation, "vesting.released", "vesting:"+id, map[string]interface{}{
		"amount": amount,
	})
	return amount, nil
}

// Get returns a copy of the schedule.
func (m *Manager) Get(id string) (Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return Schedule{}, fault.NotFoundf("schedule %s", id)
	}
	return *s, nil
}
