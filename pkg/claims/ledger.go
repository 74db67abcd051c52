package claims

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/veristake/veristake/pkg/audit"
	"github.com/veristake/veristake/pkg/auth"
	"github.com/veristake/veristake/pkg/fault"
	"github.com/veristake/veristake/pkg/paging"
)

// Ledger owns every Claim. All transitions run under one mutex so no
// partial write is ever observable and concurrent decisions on the same
// claim serialize; the first success wins.
type Ledger struct {
	mu         sync.Mutex
	claims     map[uint64]*Claim
	byClaimant map[string][]uint64
	nextID     uint64

	approvedCount uint64
	rejectedCount uint64

	roster    *auth.Roster
	profile   ProfileCallback
	agents    AgentAuthorizer
	decisions DecisionSink
	trail     audit.Logger
	clock     func() time.Time
	log       *slog.Logger
}

// NewLedger creates an empty claim ledger. The roster supplies the admin
// and verifier capability checks.
func NewLedger(roster *auth.Roster, trail audit.Logger) *Ledger {
	if trail == nil {
		trail = audit.Nop()
	}
	return &Ledger{
		claims:     make(map[uint64]*Claim),
		byClaimant: make(map[string][]uint64),
		roster:     roster,
		trail:      trail,
		clock:      time.Now,
		log:        slog.Default().With("component", "claims"),
	}
}

// WithClock overrides the clock for testing.
func (l *Ledger) WithClock(clock func() time.Time) *Ledger {
	l.clock = clock
	return l
}

// WithProfile sets the profile collaborator notified on approval.
func (l *Ledger) WithProfile(p ProfileCallback) *Ledger {
	l.profile = p
	return l
}

// WithAgentAuthorizer sets the trust oracle backing the agent path.
func (l *Ledger) WithAgentAuthorizer(a AgentAuthorizer) *Ledger {
	l.agents = a
	return l
}

// WithDecisionSink sets the reputation collaborator notified on human
// decisions. Agent decisions are counted by the oracle instead.
func (l *Ledger) WithDecisionSink(s DecisionSink) *Ledger {
	l.decisions = s
	return l
}

// Create registers a new claim in Pending state and returns its id.
func (l *Ledger) Create(ctx context.Context, claimant, skillName, description, evidenceRef string, skillIndex int) (uint64, error) {
	if claimant == "" {
		return 0, fault.Validationf("claimant must not be empty")
	}
	if len(skillName) == 0 || len(skillName) > MaxSkillNameLen {
		return 0, fault.Validationf("skillName must be 1..%d characters", MaxSkillNameLen)
	}
	if len(description) > MaxDescriptionLen {
		return 0, fault.Validationf("description must be at most %d characters", MaxDescriptionLen)
	}
	if len(evidenceRef) == 0 || len(evidenceRef) > MaxEvidenceRefLen {
		return 0, fault.Validationf("evidenceRef must be 1..%d characters", MaxEvidenceRefLen)
	}
	if skillIndex < 0 {
		return 0, fault.Validationf("skillIndex must not be negative")
	}

	l.mu.Lock()
	if len(l.byClaimant[claimant]) >= MaxClaimsPerClaimant {
		l.mu.Unlock()
		return 0, fault.Capacityf("claimant %s holds %d claims", claimant, MaxClaimsPerClaimant)
	}
	id := l.nextID
	l.nextID++
	c := &Claim{
		ID:          id,
		Claimant:    claimant,
		SkillName:   skillName,
		Description: description,
		EvidenceRef: evidenceRef,
		SkillIndex:  skillIndex,
		Status:      StatusPending,
		CreatedAt:   l.clock(),
	}
	l.claims[id] = c
	l.byClaimant[claimant] = append(l.byClaimant[claimant], id)
	l.mu.Unlock()

	l.record(ctx, "claim.created", c, map[string]interface{}{
		"skill_name": skillName,
		"claimant":   claimant,
	})
	return id, nil
}

// Assign attaches a verifier to a claim. Fails for an unknown claim, an
// already assigned claim, a caller without the admin role, or a verifier
// without the verifier capability.
func (l *Ledger) Assign(ctx context.Context, admin string, claimID uint64, verifier string) error {
	if !l.roster.Has(admin, auth.RoleAdmin) {
		return fault.Authorizationf("%s is not an admin", admin)
	}
	if !l.roster.Has(verifier, auth.RoleVerifier) {
		return fault.Authorizationf("%s lacks the verifier capability", verifier)
	}

	l.mu.Lock()
	c, ok := l.claims[claimID]
	if !ok {
		l.mu.Unlock()
		return fault.NotFoundf("claim %d", claimID)
	}
	if c.Verifier != "" {
		l.mu.Unlock()
		return fault.Statef("claim %d already assigned to %s", claimID, c.Verifier)
	}
	c.Verifier = verifier
	snapshot := *c
	l.mu.Unlock()

	l.record(ctx, "claim.assigned", &snapshot, map[string]interface{}{"verifier": verifier})
	return nil
}

// Approve moves a Pending claim to Approved. Caller must be the assigned
// verifier. On success the profile collaborator is notified best-effort.
func (l *Ledger) Approve(ctx context.Context, verifier string, claimID uint64, notes string) error {
	return l.decide(ctx, claimID, HumanDecision(verifier, true, notes))
}

// Reject moves a Pending claim to Rejected. Caller must be the assigned
// verifier; a non-empty reason is required.
func (l *Ledger) Reject(ctx context.Context, verifier string, claimID uint64, reason string) error {
	return l.decide(ctx, claimID, HumanDecision(verifier, false, reason))
}

// ApproveViaAgent approves a Pending claim on the strength of a signed
// attestation resolved by the trust oracle.
func (l *Ledger) ApproveViaAgent(ctx context.Context, claimID uint64, signature []byte, notes string) error {
	return l.decide(ctx, claimID, AgentDecision(signature, true, notes))
}

// RejectViaAgent rejects a Pending claim on the strength of a signed
// attestation resolved by the trust oracle.
func (l *Ledger) RejectViaAgent(ctx context.Context, claimID uint64, signature []byte, reason string) error {
	return l.decide(ctx, claimID, AgentDecision(signature, false, reason))
}

// decide is the single entry point both approval paths converge on.
func (l *Ledger) decide(ctx context.Context, claimID uint64, d Decision) error {
	if d.Approve {
		if len(d.Notes) > MaxNotesLen {
			return fault.Validationf("notes must be at most %d characters", MaxNotesLen)
		}
	} else {
		if len(d.Notes) == 0 || len(d.Notes) > MaxNotesLen {
			return fault.Validationf("reason must be 1..%d characters", MaxNotesLen)
		}
	}

	target := StatusRejected
	action := "claim.rejected"
	if d.Approve {
		target = StatusApproved
		action = "claim.approved"
	}

	l.mu.Lock()
	c, ok := l.claims[claimID]
	if !ok {
		l.mu.Unlock()
		return fault.NotFoundf("claim %d", claimID)
	}
	if !canTransition(c.Status, target) {
		status := c.Status
		l.mu.Unlock()
		return fault.Statef("claim %d is %s, cannot move to %s", claimID, status, target)
	}

	var verifier string
	switch {
	case d.Signature != nil:
		if l.agents == nil {
			l.mu.Unlock()
			return fault.Authorizationf("no agent authorizer configured")
		}
		// The oracle consumes the signature and records the verification
		// while the ledger lock serializes competing decisions.
		signer, err := l.agents.Authorize(ctx, claimID, d.Approve, d.Signature)
		if err != nil {
			l.mu.Unlock()
			return err
		}
		verifier = signer
	default:
		if c.Verifier == "" {
			l.mu.Unlock()
			return fault.Statef("claim %d has no assigned verifier", claimID)
		}
		if d.VerifierID != c.Verifier {
			l.mu.Unlock()
			return fault.Authorizationf("%s is not the assigned verifier for claim %d", d.VerifierID, claimID)
		}
		verifier = d.VerifierID
	}

	c.Status = target
	c.Verifier = verifier
	c.VerifierNotes = d.Notes
	c.DecidedAt = l.clock()
	if d.Approve {
		l.approvedCount++
	} else {
		l.rejectedCount++
	}
	snapshot := *c
	l.mu.Unlock()

	l.record(ctx, action, &snapshot, map[string]interface{}{
		"verifier": verifier,
		"notes":    d.Notes,
	})

	if d.Signature == nil && l.decisions != nil {
		l.decisions.RecordDecision(verifier, d.Approve)
	}

	if d.Approve && l.profile != nil {
		if err := l.profile.VerifySkill(ctx, snapshot.Claimant, snapshot.SkillIndex); err != nil {
			l.log.Warn("profile callback failed",
				"claim_id", snapshot.ID,
				"claimant", snapshot.Claimant,
				"skill_index", snapshot.SkillIndex,
				"error", err)
		}
	}
	return nil
}

// Dispute moves an Approved or Rejected claim to Disputed. Only the
// claimant may dispute, never from Pending.
func (l *Ledger) Dispute(ctx context.Context, claimant string, claimID uint64, reason string) error {
	if len(reason) == 0 || len(reason) > MaxNotesLen {
		return fault.Validationf("reason must be 1..%d characters", MaxNotesLen)
	}

	l.mu.Lock()
	c, ok := l.claims[claimID]
	if !ok {
		l.mu.Unlock()
		return fault.NotFoundf("claim %d", claimID)
	}
	if c.Claimant != claimant {
		l.mu.Unlock()
		return fault.Authorizationf("%s is not the claimant of claim %d", claimant, claimID)
	}
	if !canTransition(c.Status, StatusDisputed) {
		status := c.Status
		l.mu.Unlock()
		return fault.Statef("claim %d is %s, cannot dispute", claimID, status)
	}
	c.Status = StatusDisputed
	snapshot := *c
	l.mu.Unlock()

	l.record(ctx, "claim.disputed", &snapshot, map[string]interface{}{"reason": reason})
	return nil
}

// UpdateEvidence replaces the evidence reference, allowed only while the
// claim is still Pending and only by the claimant.
func (l *Ledger) UpdateEvidence(ctx context.Context, claimant string, claimID uint64, newRef string) error {
	if len(newRef) == 0 || len(newRef) > MaxEvidenceRefLen {
		return fault.Validationf("evidenceRef must be 1..%d characters", MaxEvidenceRefLen)
	}

	l.mu.Lock()
	c, ok := l.claims[claimID]
	if !ok {
		l.mu.Unlock()
		return fault.NotFoundf("claim %d", claimID)
	}
	if c.Claimant != claimant {
		l.mu.Unlock()
		return fault.Authorizationf("%s is not the claimant of claim %d", claimant, claimID)
	}
	if c.Status != StatusPending {
		status := c.Status
		l.mu.Unlock()
		return fault.Statef("claim %d is %s, evidence is frozen", claimID, status)
	}
	c.EvidenceRef = newRef
	snapshot := *c
	l.mu.Unlock()

	l.record(ctx, "claim.evidence_updated", &snapshot, map[string]interface{}{"evidence_ref": newRef})
	return nil
}

// Get returns a copy of the claim.
func (l *Ledger) Get(claimID uint64) (Claim, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.claims[claimID]
	if !ok {
		return Claim{}, fault.NotFoundf("claim %d", claimID)
	}
	return *c, nil
}

// ByClaimant returns one page of the claimant's claims in creation order.
func (l *Ledger) ByClaimant(claimant string, offset, limit int) paging.Page[Claim] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return paging.GetPage(l.snapshotFor(claimant), offset, limit)
}

// ByClaimantAndStatus pages the claimant's claims filtered by status. The
// scan is bounded by MaxClaimsPerClaimant.
func (l *Ledger) ByClaimantAndStatus(claimant string, status Status, offset, limit int) paging.Page[Claim] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return paging.FilterPage(l.snapshotFor(claimant), func(c Claim) bool { return c.Status == status }, offset, limit)
}

// CountFor returns how many claims the claimant holds.
func (l *Ledger) CountFor(claimant string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byClaimant[claimant])
}

// Counts returns the global (approved, rejected) decision counters.
func (l *Ledger) Counts() (approved, rejected uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.approvedCount, l.rejectedCount
}

// snapshotFor copies the claimant's claims; callers hold l.mu.
func (l *Ledger) snapshotFor(claimant string) []Claim {
	ids := l.byClaimant[claimant]
	out := make([]Claim, 0, len(ids))
	for _, id := range ids {
		out = append(out, *l.claims[id])
	}
	return out
}

func (l *Ledger) record(ctx context.Context, action string, c *Claim, payload map[string]interface{}) {
	payload["status"] = string(c.Status)
	if err := l.trail.Record(ctx, audit.EventMutation, action, entityID(c.ID), payload); err != nil {
		l.log.Warn("audit record failed", "action", action, "claim_id", c.ID, "error", err)
	}
}

func entityID(id uint64) string {
	return "claim:" + strconv.FormatUint(id, 10)
}
