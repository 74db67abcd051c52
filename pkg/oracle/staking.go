package oracle

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/veristake/veristake/pkg/auth"
	"github.com/veristake/veristake/pkg/fault"
)

// Stake posts collateral and registers the agent's attestation key. Fails
// if the agent is already staked or the amount is below the requirement.
// The funds move from the agent's account into oracle custody.
func (o *Oracle) Stake(ctx context.Context, agentID string, key ed25519.PublicKey, amount int64) error {
	if agentID == "" {
		return fault.Validationf("agentID must not be empty")
	}
	if len(key) != ed25519.PublicKeySize {
		return fault.Validationf("invalid public key size: %d", len(key))
	}
	if amount < o.cfg.StakeRequirement {
		return fault.Economicf("stake %d below requirement %d", amount, o.cfg.StakeRequirement)
	}

	o.mu.Lock()
	if _, ok := o.stakes[agentID]; ok {
		o.mu.Unlock()
		return fault.Statef("agent %s already staked", agentID)
	}
	if err := o.bank.Transfer(o.cfg.Asset, agentID, o.cfg.CustodyAccount, amount); err != nil {
		o.mu.Unlock()
		return fault.Economicf("stake transfer failed: %v", err)
	}
	o.stakes[agentID] = &AgentStake{
		Agent:    agentID,
		Amount:   amount,
		StakedAt: o.clock(),
	}
	if _, registered := o.byID[agentID]; !registered {
		if err := o.registerLocked(agentID, key); err != nil {
			// Roll the transfer back; the stake entry was not committed.
			delete(o.stakes, agentID)
			_ = o.bank.Transfer(o.cfg.Asset, o.cfg.CustodyAccount, agentID, amount)
			o.mu.Unlock()
			return err
		}
	}
	o.mu.Unlock()

	o.record(ctx, "agent.staked", agentID, map[string]interface{}{"amount": amount})
	return nil
}

// RequestUnstake opens the cooldown window and immediately blocks new
// verifications by the agent.
func (o *Oracle) RequestUnstake(ctx context.Context, agentID string) error {
	o.mu.Lock()
	s, ok := o.stakes[agentID]
	if !ok {
		o.mu.Unlock()
		return fault.NotFoundf("agent %s has no stake", agentID)
	}
	if s.UnstakePending() {
		o.mu.Unlock()
		return fault.Statef("agent %s already requested unstake", agentID)
	}
	s.UnstakeRequestedAt = o.clock()
	o.mu.Unlock()

	o.record(ctx, "agent.unstake_requested", agentID, nil)
	return nil
}

// CancelUnstake clears an open unstake request, restoring eligibility.
func (o *Oracle) CancelUnstake(ctx context.Context, agentID string) error {
	o.mu.Lock()
	s, ok := o.stakes[agentID]
	if !ok {
		o.mu.Unlock()
		return fault.NotFoundf("agent %s has no stake", agentID)
	}
	if !s.UnstakePending() {
		o.mu.Unlock()
		return fault.Statef("agent %s has no unstake request", agentID)
	}
	s.UnstakeRequestedAt = time.Time{}
	o.mu.Unlock()

	o.record(ctx, "agent.unstake_cancelled", agentID, nil)
	return nil
}

// Unstake returns the remaining stake after the cooldown has elapsed and
// revokes the agent's registration.
func (o *Oracle) Unstake(ctx context.Context, agentID string) error {
	o.mu.Lock()
	s, ok := o.stakes[agentID]
	if !ok {
		o.mu.Unlock()
		return fault.NotFoundf("agent %s has no stake", agentID)
	}
	if !s.UnstakePending() {
		o.mu.Unlock()
		return fault.Statef("agent %s has no unstake request", agentID)
	}
	if o.clock().Sub(s.UnstakeRequestedAt) < o.cfg.UnstakeCooldown {
		o.mu.Unlock()
		return fault.Economicf("unstake cooldown not elapsed for agent %s", agentID)
	}
	amount := s.Amount
	if amount > 0 {
		if err := o.bank.Transfer(o.cfg.Asset, o.cfg.CustodyAccount, agentID, amount); err != nil {
			o.mu.Unlock()
			return fault.Economicf("unstake transfer failed: %v", err)
		}
	}
	delete(o.stakes, agentID)
	o.unregisterLocked(agentID)
	o.mu.Unlock()

	o.record(ctx, "agent.unstaked", agentID, map[string]interface{}{"amount": amount})
	return nil
}

// Slash forfeits up to amount of the agent's stake to the treasury. Only
// admins may slash; this is the one lever against a misbehaving agent that
// does not need its cooperation. If the remaining stake falls below the
// requirement the agent is no longer eligible to verify.
func (o *Oracle) Slash(ctx context.Context, admin, agentID string, amount int64, reason string) error {
	if o.roster == nil || !o.roster.Has(admin, auth.RoleAdmin) {
		return fault.Authorizationf("%s is not an admin", admin)
	}
	if amount <= 0 {
		return fault.Validationf("slash amount must be positive")
	}
	if reason == "" {
		return fault.Validationf("slash reason must not be empty")
	}

	o.mu.Lock()
	s, ok := o.stakes[agentID]
	if !ok {
		o.mu.Unlock()
		return fault.NotFoundf("agent %s has no stake", agentID)
	}
	if amount > s.Amount {
		amount = s.Amount
	}
	if amount > 0 {
		if err := o.bank.Transfer(o.cfg.Asset, o.cfg.CustodyAccount, o.cfg.TreasuryAccount, amount); err != nil {
			o.mu.Unlock()
			return fault.Economicf("slash transfer failed: %v", err)
		}
		s.Amount -= amount
	}
	remaining := s.Amount
	o.mu.Unlock()

	o.record(ctx, "agent.slashed", agentID, map[string]interface{}{
		"amount":    amount,
		"remaining": remaining,
		"reason":    reason,
	})
	return nil
}

// StakeOf returns a copy of the agent's stake.
func (o *Oracle) StakeOf(agentID string) (AgentStake, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.stakes[agentID]
	if !ok {
		return AgentStake{}, fault.NotFoundf("agent %s has no stake", agentID)
	}
	return *s, nil
}
