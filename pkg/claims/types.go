// Package claims owns the claim lifecycle: creation, assignment, and the
// Pending -> {Approved, Rejected} -> Disputed state machine. Decisions reach
// it through two paths, an assigned human verifier or a signed agent
// attestation resolved by the trust oracle; both converge on one internal
// transition routine.
package claims

import (
	"context"
	"time"
)

// Status is the lifecycle state of a claim.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusDisputed Status = "DISPUTED"
)

// MaxClaimsPerClaimant caps one claimant's open and decided claims.
const MaxClaimsPerClaimant = 200

// Field length limits.
const (
	MaxSkillNameLen   = 500
	MaxDescriptionLen = 500
	MaxEvidenceRefLen = 100
	MaxNotesLen       = 500
)

// Claim is a claimant's assertion of skill proficiency.
type Claim struct {
	ID            uint64    `json:"id"`
	Claimant      string    `json:"claimant"`
	SkillName     string    `json:"skill_name"`
	Description   string    `json:"description"`
	EvidenceRef   string    `json:"evidence_ref"`
	SkillIndex    int       `json:"skill_index"`
	Status        Status    `json:"status"`
	Verifier      string    `json:"verifier,omitempty"`
	VerifierNotes string    `json:"verifier_notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	DecidedAt     time.Time `json:"decided_at,omitempty"`
}

// Decision is the tagged union of the two approval paths.
type Decision struct {
	Approve bool
	Notes   string

	// Human path: the assigned verifier acting directly.
	VerifierID string

	// Agent path: a signed attestation; the oracle resolves the signer.
	Signature []byte
}

// HumanDecision builds the human-verifier arm of the union.
func HumanDecision(verifierID string, approve bool, notes string) Decision {
	return Decision{VerifierID: verifierID, Approve: approve, Notes: notes}
}

// AgentDecision builds the signed-attestation arm of the union.
func AgentDecision(signature []byte, approve bool, notes string) Decision {
	return Decision{Signature: signature, Approve: approve, Notes: notes}
}

// ProfileCallback is the external profile collaborator notified on approval.
// Failures there are logged, never propagated.
type ProfileCallback interface {
	VerifySkill(ctx context.Context, principal string, skillIndex int) error
}

// AgentAuthorizer resolves a signed attestation to an authorized signer and
// consumes the signature. Implemented by the trust oracle.
type AgentAuthorizer interface {
	Authorize(ctx context.Context, claimID uint64, approve bool, signature []byte) (signer string, err error)
}

// DecisionSink receives per-verifier decision counts. Implemented by the
// reputation registry.
type DecisionSink interface {
	RecordDecision(verifierID string, approved bool)
}

// canTransition encodes the legal lifecycle edges. No edge returns to
// Pending.
func canTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved, StatusRejected:
		return to == StatusDisputed
	default:
		return false
	}
}
