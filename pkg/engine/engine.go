// Package engine assembles the verification subsystems into one runtime:
// the claim ledger, the trust oracle, the bounty vault, and the profile
// and reputation registries, all sharing a roster, a token ledger, and an
// audit trail.
package engine

import (
	"time"

	"github.com/veristake/veristake/pkg/audit"
	"github.com/veristake/veristake/pkg/auth"
	"github.com/veristake/veristake/pkg/claims"
	"github.com/veristake/veristake/pkg/config"
	"github.com/veristake/veristake/pkg/endorse"
	"github.com/veristake/veristake/pkg/exchange"
	"github.com/veristake/veristake/pkg/oracle"
	"github.com/veristake/veristake/pkg/profile"
	"github.com/veristake/veristake/pkg/reputation"
	"github.com/veristake/veristake/pkg/token"
	"github.com/veristake/veristake/pkg/vault"
	"github.com/veristake/veristake/pkg/vesting"
)

// Options configures an Engine. Zero-value fields get working defaults.
type Options struct {
	// NetworkID binds attestation signatures to this deployment.
	NetworkID string
	// Policy supplies the economic knobs. Nil means config.DefaultPolicy.
	Policy *config.Policy
	// Trail receives every mutation. Nil means audit.Nop.
	Trail audit.Logger
	// Quoter prices the buyback leg. Nil leaves the vault without one,
	// which fails payouts closed whenever the fee percent is non-zero.
	Quoter exchange.Quoter
	// Clock overrides time.Now for tests.
	Clock func() time.Time
}

// Engine is the composition root. Fields are exported because handlers and
// the CLI reach the subsystems directly.
type Engine struct {
	Roster       *auth.Roster
	Bank         *token.Ledger
	Claims       *claims.Ledger
	Oracle       *oracle.Oracle
	Vault        *vault.Vault
	Profiles     *profile.Registry
	Reputation   *reputation.Registry
	Endorsements *endorse.Directory
	Vesting      *vesting.Manager

	policy *config.Policy
}

// New wires the subsystems together: the oracle decides agent claims in
// the ledger, approvals flip profile skills to verified, decisions feed
// verifier reputation, and the vault settles bounties against approved
// claims.
func New(opts Options) *Engine {
	policy := opts.Policy
	if policy == nil {
		policy = config.DefaultPolicy()
	}
	trail := opts.Trail
	if trail == nil {
		trail = audit.Nop()
	}
	networkID := opts.NetworkID
	if networkID == "" {
		networkID = "testnet"
	}

	roster := auth.NewRoster()
	bank := token.NewLedger()
	profiles := profile.NewRegistry()
	rep := reputation.NewRegistry()
	endorsements := endorse.NewDirectory()

	orc := oracle.New(oracleConfig(policy, networkID), roster, bank, trail).
		WithDecisionSink(rep)

	ledger := claims.NewLedger(roster, trail).
		WithProfile(profiles).
		WithAgentAuthorizer(orc).
		WithDecisionSink(rep)

	vlt := vault.New(vaultConfig(policy), ledger, roster, bank, trail)
	if opts.Quoter != nil {
		vlt = vlt.WithQuoter(opts.Quoter)
	}

	vest := vesting.NewManager(bank, "vesting:custody", trail)

	e := &Engine{
		Roster:       roster,
		Bank:         bank,
		Claims:       ledger,
		Oracle:       orc,
		Vault:        vlt,
		Profiles:     profiles,
		Reputation:   rep,
		Endorsements: endorsements,
		Vesting:      vest,
		policy:       policy,
	}

	if opts.Clock != nil {
		e.setClock(opts.Clock)
	}
	return e
}

// Policy returns the active economic policy.
func (e *Engine) Policy() *config.Policy {
	return e.policy
}

func (e *Engine) setClock(clock func() time.Time) {
	e.Roster.WithClock(clock)
	e.Claims.WithClock(clock)
	e.Oracle.WithClock(clock)
	e.Vault.WithClock(clock)
	e.Profiles.WithClock(clock)
	e.Reputation.WithClock(clock)
	e.Endorsements.WithClock(clock)
	e.Vesting.WithClock(clock)
}

func oracleConfig(p *config.Policy, networkID string) oracle.Config {
	mode := oracle.ModeStake
	if p.Oracle.Mode == "grant" {
		mode = oracle.ModeGrant
	}
	return oracle.Config{
		OracleID:         p.Oracle.OracleID,
		NetworkID:        networkID,
		Mode:             mode,
		Asset:            p.Oracle.StakeAsset,
		StakeRequirement: p.Oracle.StakeRequirement,
		UnstakeCooldown:  p.UnstakeCooldown(),
		CustodyAccount:   p.Oracle.CustodyAccount,
		TreasuryAccount:  p.Oracle.TreasuryAccount,
	}
}

func vaultConfig(p *config.Policy) vault.Config {
	policy := vault.PolicyCooldown
	if p.Vault.PayoutPolicy == "single" {
		policy = vault.PolicySingleClaim
	}
	return vault.Config{
		Asset:           p.Vault.PayoutAsset,
		BondAsset:       p.Vault.BondAsset,
		PayoutAmount:    p.Vault.PayoutAmount,
		Policy:          policy,
		ClaimCooldown:   p.ClaimCooldown(),
		FeePct:          p.Vault.FeePct,
		CustodyAccount:  p.Vault.CustodyAccount,
		ExchangeAccount: p.Vault.ExchangeAccount,
	}
}
