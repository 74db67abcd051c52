package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy is the deployment-specific economic policy. It is loaded from a
// YAML file so operators can retune payouts and staking without a rebuild.
type Policy struct {
	Oracle OraclePolicy `yaml:"oracle" json:"oracle"`
	Vault  VaultPolicy  `yaml:"vault" json:"vault"`
}

// OraclePolicy configures the verification oracle.
type OraclePolicy struct {
	OracleID            string `yaml:"oracle_id" json:"oracle_id"`
	Mode                string `yaml:"mode" json:"mode"` // "grant" | "stake"
	StakeAsset          string `yaml:"stake_asset" json:"stake_asset"`
	StakeRequirement    int64  `yaml:"stake_requirement" json:"stake_requirement"`
	UnstakeCooldownDays int    `yaml:"unstake_cooldown_days" json:"unstake_cooldown_days"`
	CustodyAccount      string `yaml:"custody_account" json:"custody_account"`
	TreasuryAccount     string `yaml:"treasury_account" json:"treasury_account"`
}

// VaultPolicy configures bounty payouts and the buyback leg.
type VaultPolicy struct {
	PayoutAsset     string `yaml:"payout_asset" json:"payout_asset"`
	BondAsset       string `yaml:"bond_asset" json:"bond_asset"`
	PayoutAmount    int64  `yaml:"payout_amount" json:"payout_amount"`
	PayoutPolicy    string `yaml:"payout_policy" json:"payout_policy"` // "single" | "cooldown"
	CooldownDays    int    `yaml:"cooldown_days" json:"cooldown_days"`
	FeePct          int    `yaml:"fee_pct" json:"fee_pct"`
	CustodyAccount  string `yaml:"custody_account" json:"custody_account"`
	ExchangeAccount string `yaml:"exchange_account" json:"exchange_account"`
}

// DefaultPolicy returns the policy used when no POLICY_PATH is set.
func DefaultPolicy() *Policy {
	return &Policy{
		Oracle: OraclePolicy{
			OracleID:            "oracle-1",
			Mode:                "stake",
			StakeAsset:          "VST",
			StakeRequirement:    10_000,
			UnstakeCooldownDays: 7,
			CustodyAccount:      "oracle:custody",
			TreasuryAccount:     "oracle:treasury",
		},
		Vault: VaultPolicy{
			PayoutAsset:     "USDV",
			BondAsset:       "VST",
			PayoutAmount:    5_000,
			PayoutPolicy:    "cooldown",
			CooldownDays:    30,
			FeePct:          0,
			CustodyAccount:  "vault:custody",
			ExchangeAccount: "vault:exchange",
		},
	}
}

// LoadPolicy reads and validates a policy YAML file. Fields left empty in
// the file fall back to the defaults.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load policy %q: %w", path, err)
	}

	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse policy %q: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("policy %q: %w", path, err)
	}

	return p, nil
}

// Validate rejects policies that would make the engine misbehave.
func (p *Policy) Validate() error {
	switch p.Oracle.Mode {
	case "grant", "stake":
	default:
		return fmt.Errorf("oracle mode must be grant or stake, got %q", p.Oracle.Mode)
	}
	if p.Oracle.StakeRequirement <= 0 {
		return fmt.Errorf("stake requirement must be positive, got %d", p.Oracle.StakeRequirement)
	}
	if p.Oracle.UnstakeCooldownDays < 0 {
		return fmt.Errorf("unstake cooldown must be non-negative, got %d", p.Oracle.UnstakeCooldownDays)
	}

	switch p.Vault.PayoutPolicy {
	case "single", "cooldown":
	default:
		return fmt.Errorf("payout policy must be single or cooldown, got %q", p.Vault.PayoutPolicy)
	}
	if p.Vault.PayoutAmount <= 0 {
		return fmt.Errorf("payout amount must be positive, got %d", p.Vault.PayoutAmount)
	}
	if p.Vault.FeePct < 0 || p.Vault.FeePct > 100 {
		return fmt.Errorf("fee pct must be in [0,100], got %d", p.Vault.FeePct)
	}
	if p.Vault.PayoutPolicy == "cooldown" && p.Vault.CooldownDays <= 0 {
		return fmt.Errorf("cooldown policy requires positive cooldown days, got %d", p.Vault.CooldownDays)
	}
	return nil
}

// UnstakeCooldown returns the oracle unstake cooldown as a duration.
func (p *Policy) UnstakeCooldown() time.Duration {
	return time.Duration(p.Oracle.UnstakeCooldownDays) * 24 * time.Hour
}

// ClaimCooldown returns the per-claimant payout cooldown as a duration.
func (p *Policy) ClaimCooldown() time.Duration {
	return time.Duration(p.Vault.CooldownDays) * 24 * time.Hour
}
