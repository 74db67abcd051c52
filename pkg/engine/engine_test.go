package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veristake/veristake/pkg/auth"
	"github.com/veristake/veristake/pkg/claims"
	"github.com/veristake/veristake/pkg/config"
	"github.com/veristake/veristake/pkg/crypto"
	"github.com/veristake/veristake/pkg/engine"
	"github.com/veristake/veristake/pkg/exchange"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	return engine.New(engine.Options{
		NetworkID: "testnet",
		Clock:     func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
}

// TestEngine_HumanVerificationFlow runs a claim end to end through a human
// verifier: create, assign, approve, profile flip, bounty settlement.
func TestEngine_HumanVerificationFlow(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	e.Roster.Grant("system", "admin-1", auth.RoleAdmin)
	e.Roster.Grant("admin-1", "verifier-1", auth.RoleVerifier)

	idx, err := e.Profiles.AddSkill("alice", "go", "expert")
	require.NoError(t, err)

	claimID, err := e.Claims.Create(ctx, "alice", "go", "ten years of services work", "ipfs://evidence", idx)
	require.NoError(t, err)

	require.NoError(t, e.Claims.Assign(ctx, "admin-1", claimID, "verifier-1"))
	require.NoError(t, e.Claims.Approve(ctx, "verifier-1", claimID, "checked portfolio"))

	c, err := e.Claims.Get(claimID)
	require.NoError(t, err)
	assert.Equal(t, claims.StatusApproved, c.Status)

	// Approval flipped the profile skill.
	verified := e.Profiles.VerifiedSkills("alice", 0, 10)
	require.Len(t, verified.Items, 1)
	assert.Equal(t, "go", verified.Items[0].Name)

	// Approval fed the verifier's reputation.
	e.Reputation.Upsert("verifier-1", "Verifier One", "")
	prof, err := e.Reputation.Get("verifier-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), prof.ApprovedCount)

	// Fund a pool and settle the bounty.
	pol := e.Policy()
	require.NoError(t, e.Bank.Mint(pol.Vault.PayoutAsset, "acme", 100_000))
	require.NoError(t, e.Vault.DepositToPool(ctx, "acme", "go", 100_000))

	s, err := e.Vault.ClaimBounty(ctx, "alice", claimID, "go")
	require.NoError(t, err)
	assert.Equal(t, pol.Vault.PayoutAmount, s.Payout)
	assert.Equal(t, pol.Vault.PayoutAmount, e.Bank.BalanceOf(pol.Vault.PayoutAsset, "alice"))
}

// TestEngine_AgentVerificationFlow drives the same lifecycle through a
// staked agent's signed attestation.
func TestEngine_AgentVerificationFlow(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	pol := e.Policy()

	e.Roster.Grant("system", "admin-1", auth.RoleAdmin)

	ring, err := crypto.NewKeyring([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	signer, err := ring.DeriveSigner("agent-1")
	require.NoError(t, err)

	require.NoError(t, e.Bank.Mint(pol.Oracle.StakeAsset, "agent-1", pol.Oracle.StakeRequirement))
	require.NoError(t, e.Oracle.Stake(ctx, "agent-1", signer.PublicKey(), pol.Oracle.StakeRequirement))

	idx, err := e.Profiles.AddSkill("bob", "rust", "advanced")
	require.NoError(t, err)
	claimID, err := e.Claims.Create(ctx, "bob", "rust", "systems work", "ipfs://evidence", idx)
	require.NoError(t, err)

	digest := crypto.DecisionDigest(claimID, true, pol.Oracle.OracleID, "testnet")
	sig := signer.Sign(digest[:])

	require.NoError(t, e.Claims.ApproveViaAgent(ctx, claimID, sig, "attested"))

	c, err := e.Claims.Get(claimID)
	require.NoError(t, err)
	assert.Equal(t, claims.StatusApproved, c.Status)

	rec, err := e.Oracle.VerificationOf(claimID)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", rec.Signer)

	// Replaying the consumed signature on a fresh claim fails.
	claimID2, err := e.Claims.Create(ctx, "bob", "rust", "more systems work", "ipfs://evidence2", idx)
	require.NoError(t, err)
	err = e.Claims.ApproveViaAgent(ctx, claimID2, sig, "replay")
	assert.Error(t, err)
}

// TestEngine_BuybackPolicy wires a quoter and a non-zero fee and checks the
// destroyed supply moves.
func TestEngine_BuybackPolicy(t *testing.T) {
	ctx := context.Background()

	pol := config.DefaultPolicy()
	pol.Vault.FeePct = 10

	rate := exchange.NewFixedRate()
	rate.SetRate(pol.Vault.PayoutAsset, pol.Vault.BondAsset, exchange.Rate{Num: 2, Den: 1})

	e := engine.New(engine.Options{
		Policy: pol,
		Quoter: rate,
		Clock:  func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})

	e.Roster.Grant("system", "admin-1", auth.RoleAdmin)
	e.Roster.Grant("admin-1", "verifier-1", auth.RoleVerifier)

	idx, err := e.Profiles.AddSkill("carol", "sql", "advanced")
	require.NoError(t, err)
	claimID, err := e.Claims.Create(ctx, "carol", "sql", "warehouse migrations", "ipfs://ev", idx)
	require.NoError(t, err)
	require.NoError(t, e.Claims.Assign(ctx, "admin-1", claimID, "verifier-1"))
	require.NoError(t, e.Claims.Approve(ctx, "verifier-1", claimID, "ok"))

	require.NoError(t, e.Bank.Mint(pol.Vault.PayoutAsset, "acme", 50_000))
	require.NoError(t, e.Vault.DepositToPool(ctx, "acme", "sql", 50_000))
	// The exchange leg needs bond-asset inventory to destroy.
	require.NoError(t, e.Bank.Mint(pol.Vault.BondAsset, pol.Vault.ExchangeAccount, 10_000))

	burnedBefore := e.Bank.TotalBurned(pol.Vault.BondAsset)
	s, err := e.Vault.ClaimBounty(ctx, "carol", claimID, "sql")
	require.NoError(t, err)

	require.NotNil(t, s.Buyback)
	assert.Equal(t, int64(500), s.BuybackShare)
	assert.Equal(t, int64(4_500), s.ClaimantShare)
	assert.Greater(t, e.Bank.TotalBurned(pol.Vault.BondAsset), burnedBefore)
}

// TestEngine_PolicyPlumbing checks a YAML-shaped policy reaches the
// subsystems it configures.
func TestEngine_PolicyPlumbing(t *testing.T) {
	ctx := context.Background()

	pol := config.DefaultPolicy()
	pol.Vault.PayoutPolicy = "single"
	pol.Vault.PayoutAmount = 1_000
	require.NoError(t, pol.Validate())

	e := engine.New(engine.Options{Policy: pol})

	e.Roster.Grant("system", "admin-1", auth.RoleAdmin)
	e.Roster.Grant("admin-1", "verifier-1", auth.RoleVerifier)

	idx, err := e.Profiles.AddSkill("dave", "ops", "expert")
	require.NoError(t, err)
	claimID, err := e.Claims.Create(ctx, "dave", "ops", "sre rotations", "ipfs://ev", idx)
	require.NoError(t, err)
	require.NoError(t, e.Claims.Assign(ctx, "admin-1", claimID, "verifier-1"))
	require.NoError(t, e.Claims.Approve(ctx, "verifier-1", claimID, "ok"))

	require.NoError(t, e.Bank.Mint(pol.Vault.PayoutAsset, "acme", 10_000))
	require.NoError(t, e.Vault.DepositToPool(ctx, "acme", "ops", 10_000))

	s, err := e.Vault.ClaimBounty(ctx, "dave", claimID, "ops")
	require.NoError(t, err)
	assert.Equal(t, int64(1_000), s.Payout)

	// Single-claim policy refuses a second settlement outright.
	claimID2, err := e.Claims.Create(ctx, "dave", "ops", "more rotations", "ipfs://ev2", idx)
	require.NoError(t, err)
	require.NoError(t, e.Claims.Assign(ctx, "admin-1", claimID2, "verifier-1"))
	require.NoError(t, e.Claims.Approve(ctx, "verifier-1", claimID2, "ok"))

	_, err = e.Vault.ClaimBounty(ctx, "dave", claimID2, "ops")
	assert.Error(t, err)
}
