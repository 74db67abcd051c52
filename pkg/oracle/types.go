// Package oracle turns signed attestations into claim decisions. An agent
// is eligible either through an administrative grant or by posting stake in
// the bonding asset; staked agents can be slashed without their
// cooperation. Consumed signatures double as single-use nonces, so a
// decision can never be replayed.
package oracle

import (
	"crypto/ed25519"
	"time"
)

// Mode selects the authorization model.
type Mode string

const (
	// ModeGrant authorizes agents through roster grants.
	ModeGrant Mode = "GRANT"
	// ModeStake authorizes agents through posted stake.
	ModeStake Mode = "STAKE"
)

// MaxAgents caps the registered agent key set. Signer recovery scans this
// set, so the cap is what keeps recovery cost a design-time constant.
const MaxAgents = 500

// Config fixes one oracle deployment.
type Config struct {
	OracleID  string
	NetworkID string
	Mode      Mode

	// Staking knobs, used in ModeStake.
	Asset            string
	StakeRequirement int64
	UnstakeCooldown  time.Duration
	CustodyAccount   string
	TreasuryAccount  string
}

// DefaultConfig returns staking-mode defaults for a test network.
func DefaultConfig() Config {
	return Config{
		OracleID:         "oracle-1",
		NetworkID:        "testnet",
		Mode:             ModeStake,
		Asset:            "VST",
		StakeRequirement: 10_000,
		UnstakeCooldown:  7 * 24 * time.Hour,
		CustodyAccount:   "oracle:custody",
		TreasuryAccount:  "oracle:treasury",
	}
}

// AgentStake is one agent's posted collateral.
type AgentStake struct {
	Agent              string    `json:"agent"`
	Amount             int64     `json:"amount"`
	StakedAt           time.Time `json:"staked_at"`
	UnstakeRequestedAt time.Time `json:"unstake_requested_at,omitempty"`
}

// UnstakePending reports whether an unstake request is open.
func (s AgentStake) UnstakePending() bool {
	return !s.UnstakeRequestedAt.IsZero()
}

// VerificationRecord is the at-most-one decision record per claim.
type VerificationRecord struct {
	ClaimID             uint64    `json:"claim_id"`
	IsVerified          bool      `json:"is_verified"`
	IsValid             bool      `json:"is_valid"`
	Signer              string    `json:"signer"`
	Timestamp           time.Time `json:"timestamp"`
	ConsumedSignatureID string    `json:"consumed_signature_id"`
}

// DecisionSink receives per-verifier decision counts. Implemented by the
// reputation registry.
type DecisionSink interface {
	RecordDecision(verifierID string, approved bool)
}

// registeredAgent pairs an agent id with its attestation key.
type registeredAgent struct {
	id  string
	key ed25519.PublicKey
}
