package vault

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/veristake/veristake/pkg/audit"
	"github.com/veristake/veristake/pkg/auth"
	"github.com/veristake/veristake/pkg/claims"
	"github.com/veristake/veristake/pkg/exchange"
	"github.com/veristake/veristake/pkg/fault"
	"github.com/veristake/veristake/pkg/finance"
	"github.com/veristake/veristake/pkg/paging"
	"github.com/veristake/veristake/pkg/token"
)

// ClaimSource is the read-only view the vault takes of the claim ledger.
type ClaimSource interface {
	Get(claimID uint64) (claims.Claim, error)
}

// Vault owns pools and payout records and holds custody of pooled funds.
type Vault struct {
	mu      sync.Mutex
	cfg     Config
	pools   map[string]*Pool
	order   []string
	payouts map[string]*PayoutRecord // claimant + "|" + tagHash

	totalFeesSpent int64
	totalDestroyed int64

	source ClaimSource
	roster *auth.Roster
	bank   *token.Ledger
	quoter exchange.Quoter
	trail  audit.Logger
	clock  func() time.Time
	log    *slog.Logger
}

// New creates a vault settling claims read from source against funds held
// in bank.
func New(cfg Config, source ClaimSource, roster *auth.Roster, bank *token.Ledger, trail audit.Logger) *Vault {
	if trail == nil {
		trail = audit.Nop()
	}
	return &Vault{
		cfg:     cfg,
		pools:   make(map[string]*Pool),
		payouts: make(map[string]*PayoutRecord),
		source:  source,
		roster:  roster,
		bank:    bank,
		trail:   trail,
		clock:   time.Now,
		log:     slog.Default().With("component", "vault"),
	}
}

// WithClock overrides the clock for testing.
func (v *Vault) WithClock(clock func() time.Time) *Vault {
	v.clock = clock
	return v
}

// WithQuoter enables the buyback leg's exchange collaborator.
func (v *Vault) WithQuoter(q exchange.Quoter) *Vault {
	v.quoter = q
	return v
}

// DepositToPool funds the pool for tag, creating it on first deposit.
func (v *Vault) DepositToPool(ctx context.Context, payer, tag string, amount int64) error {
	if tag == "" {
		return fault.Validationf("tag must not be empty")
	}
	if amount <= 0 {
		return fault.Validationf("amount must be positive")
	}

	v.mu.Lock()
	p, ok := v.pools[tag]
	if !ok {
		if len(v.order) >= MaxPools {
			v.mu.Unlock()
			return fault.Capacityf("vault holds %d pools", MaxPools)
		}
	}
	if err := v.bank.Transfer(v.cfg.Asset, payer, v.cfg.CustodyAccount, amount); err != nil {
		v.mu.Unlock()
		return fault.Economicf("deposit transfer failed: %v", err)
	}
	created := false
	if !ok {
		p = &Pool{SkillTag: tag, Active: true, CreatedAt: v.clock()}
		v.pools[tag] = p
		v.order = append(v.order, tag)
		created = true
	}
	p.TotalDeposited += amount
	p.AvailableBalance += amount
	v.mu.Unlock()

	if created {
		v.record(ctx, "pool.created", tag, map[string]interface{}{"payer": payer})
	}
	v.record(ctx, "pool.funded", tag, map[string]interface{}{
		"payer":  payer,
		"amount": amount,
	})
	return nil
}

// WithdrawFromPool moves amount out of the pool's available balance to the
// admin.
func (v *Vault) WithdrawFromPool(ctx context.Context, admin, tag string, amount int64) error {
	if !v.roster.Has(admin, auth.RoleAdmin) {
		return fault.Authorizationf("%s is not an admin", admin)
	}
	if amount <= 0 {
		return fault.Validationf("amount must be positive")
	}

	v.mu.Lock()
	p, ok := v.pools[tag]
	if !ok {
		v.mu.Unlock()
		return fault.NotFoundf("pool %q", tag)
	}
	if p.AvailableBalance < amount {
		v.mu.Unlock()
		return fault.Economicf("pool %q has %d available, need %d", tag, p.AvailableBalance, amount)
	}
	if err := v.bank.Transfer(v.cfg.Asset, v.cfg.CustodyAccount, admin, amount); err != nil {
		v.mu.Unlock()
		return fault.Economicf("withdraw transfer failed: %v", err)
	}
	p.AvailableBalance -= amount
	p.Withdrawn += amount
	v.mu.Unlock()

	v.record(ctx, "pool.withdrawn", tag, map[string]interface{}{
		"admin":  admin,
		"amount": amount,
	})
	return nil
}

// DeactivatePool blocks new bounty claims against the pool. Deposits and
// withdrawals keep working. Calling it twice is a safe no-op.
func (v *Vault) DeactivatePool(ctx context.Context, admin, tag string) error {
	if !v.roster.Has(admin, auth.RoleAdmin) {
		return fault.Authorizationf("%s is not an admin", admin)
	}
	v.mu.Lock()
	p, ok := v.pools[tag]
	if !ok {
		v.mu.Unlock()
		return fault.NotFoundf("pool %q", tag)
	}
	if !p.Active {
		v.mu.Unlock()
		return nil
	}
	p.Active = false
	v.mu.Unlock()

	v.record(ctx, "pool.deactivated", tag, map[string]interface{}{"admin": admin})
	return nil
}

// ClaimBounty settles the fixed payout for an approved claim against the
// matching pool. All balance checks and debits happen under the vault lock,
// so concurrent claims can never overdraw a pool.
func (v *Vault) ClaimBounty(ctx context.Context, claimant string, claimID uint64, tag string) (Settlement, error) {
	c, err := v.source.Get(claimID)
	if err != nil {
		return Settlement{}, err
	}
	if c.Claimant != claimant {
		return Settlement{}, fault.Authorizationf("%s is not the claimant of claim %d", claimant, claimID)
	}
	if c.Status != claims.StatusApproved {
		return Settlement{}, fault.Statef("claim %d is %s, not approved", claimID, c.Status)
	}
	if c.SkillName != tag {
		return Settlement{}, fault.Validationf("claim %d is for %q, not %q", claimID, c.SkillName, tag)
	}

	payout := v.cfg.PayoutAmount
	share, fee := payout, int64(0)
	if v.cfg.FeePct > 0 {
		share, fee, err = finance.SplitFee(payout, v.cfg.FeePct)
		if err != nil {
			return Settlement{}, fault.Validationf("fee split: %v", err)
		}
		if v.quoter == nil {
			return Settlement{}, fault.Validationf("buyback enabled but no quoter configured")
		}
	}

	v.mu.Lock()
	p, ok := v.pools[tag]
	if !ok {
		v.mu.Unlock()
		return Settlement{}, fault.NotFoundf("pool %q", tag)
	}
	if !p.Active {
		v.mu.Unlock()
		return Settlement{}, fault.Statef("pool %q is not active", tag)
	}
	if p.AvailableBalance < payout {
		v.mu.Unlock()
		return Settlement{}, fault.Economicf("pool %q has %d available, payout is %d", tag, p.AvailableBalance, payout)
	}

	now := v.clock()
	key := claimant + "|" + TagHash(tag)
	rec, claimed := v.payouts[key]
	if claimed {
		switch v.cfg.Policy {
		case PolicySingleClaim:
			v.mu.Unlock()
			return Settlement{}, fault.Statef("claimant %s already claimed for %q", claimant, tag)
		case PolicyCooldown:
			if now.Sub(rec.LastClaimedAt) < v.cfg.ClaimCooldown {
				v.mu.Unlock()
				return Settlement{}, fault.Economicf("cooldown not elapsed for %s on %q", claimant, tag)
			}
		}
	}

	// Precompute the buyback leg so a failure leaves no partial write.
	var destroyed int64
	if fee > 0 {
		destroyed, err = v.quoter.Quote(fee, v.cfg.Asset, v.cfg.BondAsset)
		if err != nil {
			v.mu.Unlock()
			return Settlement{}, fault.Economicf("buyback quote failed: %v", err)
		}
		if v.bank.BalanceOf(v.cfg.BondAsset, v.cfg.ExchangeAccount) < destroyed {
			v.mu.Unlock()
			return Settlement{}, fault.Economicf("exchange cannot fill %d %s", destroyed, v.cfg.BondAsset)
		}
	}

	if err := v.bank.Transfer(v.cfg.Asset, v.cfg.CustodyAccount, claimant, share); err != nil {
		v.mu.Unlock()
		return Settlement{}, fault.Economicf("payout transfer failed: %v", err)
	}
	var buyback *BuybackRecord
	if fee > 0 {
		// Swap the fee slice for the bonding asset and destroy the
		// proceeds. Balances were prechecked above.
		_ = v.bank.Transfer(v.cfg.Asset, v.cfg.CustodyAccount, v.cfg.ExchangeAccount, fee)
		_ = v.bank.Burn(v.cfg.BondAsset, v.cfg.ExchangeAccount, destroyed)
		v.totalFeesSpent += fee
		v.totalDestroyed += destroyed
		buyback = &BuybackRecord{ClaimID: claimID, FeeSpent: fee, Destroyed: destroyed, Timestamp: now}
	}

	p.AvailableBalance -= payout
	p.TotalClaimed += payout
	if rec == nil {
		rec = &PayoutRecord{Claimant: claimant, SkillTagHash: TagHash(tag)}
		v.payouts[key] = rec
	}
	rec.LastClaimedAt = now
	rec.TimesClaimed++
	v.mu.Unlock()

	s := Settlement{
		ClaimID:       claimID,
		Claimant:      claimant,
		SkillTag:      tag,
		Payout:        payout,
		ClaimantShare: share,
		BuybackShare:  fee,
		Timestamp:     now,
		Buyback:       buyback,
	}
	v.record(ctx, "bounty.claimed", tag, map[string]interface{}{
		"claim_id": claimID,
		"claimant": claimant,
		"payout":   payout,
	})
	if buyback != nil {
		v.record(ctx, "buyback.executed", tag, map[string]interface{}{
			"claim_id":  claimID,
			"fee_spent": buyback.FeeSpent,
			"destroyed": buyback.Destroyed,
		})
	}
	return s, nil
}

// EmergencyWithdraw sweeps the entire custodial balance to recipient. It is
// a last-resort escape hatch and intentionally bypasses per-pool
// accounting; pool counters are left as they were.
func (v *Vault) EmergencyWithdraw(ctx context.Context, admin, recipient string) (int64, error) {
	if !v.roster.Has(admin, auth.RoleAdmin) {
		return 0, fault.Authorizationf("%s is not an admin", admin)
	}
	v.mu.Lock()
	amount := v.bank.BalanceOf(v.cfg.Asset, v.cfg.CustodyAccount)
	if amount > 0 {
		if err := v.bank.Transfer(v.cfg.Asset, v.cfg.CustodyAccount, recipient, amount); err != nil {
			v.mu.Unlock()
			return 0, fault.Economicf("sweep transfer failed: %v", err)
		}
	}
	v.mu.Unlock()

	v.record(ctx, "vault.emergency_withdrawn", "custody", map[string]interface{}{
		"admin":     admin,
		"recipient": recipient,
		"amount":    amount,
	})
	return amount, nil
}

// Pool returns a copy of the pool for tag.
func (v *Vault) Pool(tag string) (Pool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, ok := v.pools[tag]
	if !ok {
		return Pool{}, fault.NotFoundf("pool %q", tag)
	}
	return *p, nil
}

// Pools returns one page of pools in creation order.
func (v *Vault) Pools(offset, limit int) paging.Page[Pool] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return paging.GetPage(v.snapshot(), offset, limit)
}

// ActivePools pages only active pools. The scan is bounded by MaxPools.
func (v *Vault) ActivePools(offset, limit int) paging.Page[Pool] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return paging.FilterPage(v.snapshot(), func(p Pool) bool { return p.Active }, offset, limit)
}

// PayoutRecordFor returns the payout gate state for (claimant, tag).
func (v *Vault) PayoutRecordFor(claimant, tag string) (PayoutRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	rec, ok := v.payouts[claimant+"|"+TagHash(tag)]
	if !ok {
		return PayoutRecord{}, fault.NotFoundf("no payout record for %s on %q", claimant, tag)
	}
	return *rec, nil
}

// BuybackTotals returns the running (feesSpent, destroyed) totals.
func (v *Vault) BuybackTotals() (feesSpent, destroyed int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.totalFeesSpent, v.totalDestroyed
}

// ConservationHolds checks that each pool's counters reconcile and that the
// custodial balance equals the sum of available balances.
func (v *Vault) ConservationHolds() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	var sum int64
	for _, p := range v.pools {
		if p.TotalDeposited-p.TotalClaimed-p.Withdrawn != p.AvailableBalance {
			return false
		}
		if p.AvailableBalance < 0 {
			return false
		}
		sum += p.AvailableBalance
	}
	return sum == v.bank.BalanceOf(v.cfg.Asset, v.cfg.CustodyAccount)
}

func (v *Vault) snapshot() []Pool {
	out := make([]Pool, 0, len(v.order))
	for _, tag := range v.order {
		out = append(out, *v.pools[tag])
	}
	return out
}

func (v *Vault) record(ctx context.Context, action, entity string, payload map[string]interface{}) {
	if err := v.trail.Record(ctx, audit.EventMutation, action, "pool:"+entity, payload); err != nil {
		v.log.Warn("audit record failed", "action", action, "pool", entity, "error", err)
	}
}
