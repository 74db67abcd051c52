// Package vault settles bounties from employer-funded, skill-tagged pools.
// Every pool obeys the conservation invariant
//
//	totalDeposited - totalClaimed - withdrawn == availableBalance
//
// and the vault's custodial balance always equals the sum of available
// balances, except after an emergency sweep.
package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// PayoutPolicy picks one of the two observed repeat-claim behaviors.
type PayoutPolicy string

const (
	// PolicySingleClaim allows one payout ever per (claimant, tag).
	PolicySingleClaim PayoutPolicy = "SINGLE"
	// PolicyCooldown allows repeat payouts once the cooldown elapses.
	PolicyCooldown PayoutPolicy = "COOLDOWN"
)

// MaxPools caps the pool table so listings stay bounded.
const MaxPools = 500

// Config fixes one vault deployment.
type Config struct {
	// Asset is the payout asset pools are funded in.
	Asset string
	// BondAsset is the asset bought and destroyed by the buyback leg.
	BondAsset string
	// PayoutAmount is the fixed bounty per successful claim.
	PayoutAmount int64
	Policy       PayoutPolicy
	// ClaimCooldown applies under PolicyCooldown.
	ClaimCooldown time.Duration
	// FeePct routes that share of each payout through buyback; 0 disables
	// the buyback leg.
	FeePct int

	CustodyAccount  string
	ExchangeAccount string
}

// DefaultConfig returns cooldown-policy defaults.
func DefaultConfig() Config {
	return Config{
		Asset:           "USDV",
		BondAsset:       "VST",
		PayoutAmount:    5_000,
		Policy:          PolicyCooldown,
		ClaimCooldown:   30 * 24 * time.Hour,
		FeePct:          0,
		CustodyAccount:  "vault:custody",
		ExchangeAccount: "vault:exchange",
	}
}

// Pool is one skill-tagged escrow.
type Pool struct {
	SkillTag         string    `json:"skill_tag"`
	TotalDeposited   int64     `json:"total_deposited"`
	AvailableBalance int64     `json:"available_balance"`
	TotalClaimed     int64     `json:"total_claimed"`
	Withdrawn        int64     `json:"withdrawn"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}

// PayoutRecord gates repeat claims per (claimant, tag).
type PayoutRecord struct {
	Claimant      string    `json:"claimant"`
	SkillTagHash  string    `json:"skill_tag_hash"`
	LastClaimedAt time.Time `json:"last_claimed_at"`
	TimesClaimed  int       `json:"times_claimed"`
}

// Settlement reports one successful bounty claim.
type Settlement struct {
	ClaimID       uint64    `json:"claim_id"`
	Claimant      string    `json:"claimant"`
	SkillTag      string    `json:"skill_tag"`
	Payout        int64     `json:"payout"`
	ClaimantShare int64     `json:"claimant_share"`
	BuybackShare  int64     `json:"buyback_share"`
	Timestamp     time.Time `json:"timestamp"`

	// Buyback is set when the fee leg ran; it is reported as a record
	// distinct from the settlement itself.
	Buyback *BuybackRecord `json:"buyback,omitempty"`
}

// BuybackRecord reports one exchange-and-destroy execution.
type BuybackRecord struct {
	ClaimID   uint64    `json:"claim_id"`
	FeeSpent  int64     `json:"fee_spent"`
	Destroyed int64     `json:"destroyed"`
	Timestamp time.Time `json:"timestamp"`
}

// TagHash is the stable key payout records use for a skill tag.
func TagHash(tag string) string {
	sum := sha256.Sum256([]byte(tag))
	return hex.EncodeToString(sum[:])
}
