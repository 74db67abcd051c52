package oracle

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/veristake/veristake/pkg/audit"
	"github.com/veristake/veristake/pkg/auth"
	"github.com/veristake/veristake/pkg/crypto"
	"github.com/veristake/veristake/pkg/fault"
	"github.com/veristake/veristake/pkg/paging"
	"github.com/veristake/veristake/pkg/token"
)

// Oracle owns agent stakes and verification records.
type Oracle struct {
	mu     sync.Mutex
	cfg    Config
	agents []registeredAgent
	byID   map[string]int // agent id -> index into agents

	stakes   map[string]*AgentStake
	records  map[uint64]*VerificationRecord
	consumed map[string]uint64 // signature id -> claim id

	verifiedCount uint64
	rejectedCount uint64

	roster *auth.Roster
	bank   *token.Ledger
	sink   DecisionSink
	trail  audit.Logger
	clock  func() time.Time
	log    *slog.Logger
}

// New creates an oracle. In ModeGrant the roster decides eligibility; in
// ModeStake the bank holds stake custody.
func New(cfg Config, roster *auth.Roster, bank *token.Ledger, trail audit.Logger) *Oracle {
	if trail == nil {
		trail = audit.Nop()
	}
	return &Oracle{
		cfg:      cfg,
		byID:     make(map[string]int),
		stakes:   make(map[string]*AgentStake),
		records:  make(map[uint64]*VerificationRecord),
		consumed: make(map[string]uint64),
		roster:   roster,
		bank:     bank,
		trail:    trail,
		clock:    time.Now,
		log:      slog.Default().With("component", "oracle"),
	}
}

// WithClock overrides the clock for testing.
func (o *Oracle) WithClock(clock func() time.Time) *Oracle {
	o.clock = clock
	return o
}

// WithDecisionSink attaches the reputation registry.
func (o *Oracle) WithDecisionSink(s DecisionSink) *Oracle {
	o.sink = s
	return o
}

// RegisterAgent records an agent's attestation key. In ModeGrant this is
// how an admin onboards an agent; in ModeStake Stake calls it.
func (o *Oracle) RegisterAgent(ctx context.Context, agentID string, key ed25519.PublicKey) error {
	if agentID == "" {
		return fault.Validationf("agentID must not be empty")
	}
	if len(key) != ed25519.PublicKeySize {
		return fault.Validationf("invalid public key size: %d", len(key))
	}
	o.mu.Lock()
	err := o.registerLocked(agentID, key)
	o.mu.Unlock()
	if err != nil {
		return err
	}
	o.record(ctx, "agent.registered", agentID, map[string]interface{}{
		"public_key": hex.EncodeToString(key),
	})
	return nil
}

func (o *Oracle) registerLocked(agentID string, key ed25519.PublicKey) error {
	if _, ok := o.byID[agentID]; ok {
		return fault.Statef("agent %s already registered", agentID)
	}
	if len(o.agents) >= MaxAgents {
		return fault.Capacityf("agent registry holds %d keys", MaxAgents)
	}
	o.byID[agentID] = len(o.agents)
	o.agents = append(o.agents, registeredAgent{id: agentID, key: key})
	return nil
}

func (o *Oracle) unregisterLocked(agentID string) {
	idx, ok := o.byID[agentID]
	if !ok {
		return
	}
	o.agents = append(o.agents[:idx], o.agents[idx+1:]...)
	delete(o.byID, agentID)
	for i := idx; i < len(o.agents); i++ {
		o.byID[o.agents[i].id] = i
	}
}

// Authorize resolves a signed decision to its signer, checks eligibility
// and replay guards, and writes the verification record. It implements the
// claim ledger's AgentAuthorizer; the ledger serializes calls per claim.
func (o *Oracle) Authorize(ctx context.Context, claimID uint64, approve bool, signature []byte) (string, error) {
	if len(signature) != ed25519.SignatureSize {
		return "", fault.Validationf("invalid signature size: %d", len(signature))
	}
	digest := crypto.DecisionDigest(claimID, approve, o.cfg.OracleID, o.cfg.NetworkID)
	sigID := signatureID(signature)

	o.mu.Lock()
	// The raw signature bytes are a single-use nonce, checked before
	// anything else so reuse fails the same way for every claim id.
	if prior, used := o.consumed[sigID]; used {
		o.mu.Unlock()
		return "", fault.Replayf("signature already consumed for claim %d", prior)
	}
	signer, ok := o.recoverLocked(digest[:], signature)
	if !ok {
		o.mu.Unlock()
		return "", fault.Authorizationf("signature matches no registered agent")
	}
	if err := o.eligibleLocked(signer); err != nil {
		o.mu.Unlock()
		return "", err
	}
	if _, exists := o.records[claimID]; exists {
		o.mu.Unlock()
		return "", fault.Statef("claim %d already verified", claimID)
	}

	rec := &VerificationRecord{
		ClaimID:             claimID,
		IsVerified:          true,
		IsValid:             approve,
		Signer:              signer,
		Timestamp:           o.clock(),
		ConsumedSignatureID: sigID,
	}
	o.records[claimID] = rec
	o.consumed[sigID] = claimID
	if approve {
		o.verifiedCount++
	} else {
		o.rejectedCount++
	}
	o.mu.Unlock()

	if o.sink != nil {
		o.sink.RecordDecision(signer, approve)
	}
	if err := o.trail.Record(ctx, audit.EventMutation, "claim.verified", claimEntity(claimID), map[string]interface{}{
		"signer":   signer,
		"is_valid": approve,
	}); err != nil {
		o.log.Warn("audit record failed", "action", "claim.verified", "claim_id", claimID, "error", err)
	}
	return signer, nil
}

// recoverLocked finds the registered key that verifies (digest, sig). The
// scan is bounded by MaxAgents.
func (o *Oracle) recoverLocked(digest, sig []byte) (string, bool) {
	for _, a := range o.agents {
		if crypto.Verify(a.key, digest, sig) {
			return a.id, true
		}
	}
	return "", false
}

// eligibleLocked checks the deployment's authorization model for signer.
func (o *Oracle) eligibleLocked(signer string) error {
	switch o.cfg.Mode {
	case ModeGrant:
		if o.roster == nil || !o.roster.Has(signer, auth.RoleVerifier) {
			return fault.Authorizationf("agent %s has no verifier grant", signer)
		}
		return nil
	case ModeStake:
		s, ok := o.stakes[signer]
		if !ok || s.Amount < o.cfg.StakeRequirement {
			return fault.Economicf("agent %s stake below requirement %d", signer, o.cfg.StakeRequirement)
		}
		if s.UnstakePending() {
			return fault.Economicf("agent %s is in unstake cooldown", signer)
		}
		return nil
	default:
		return fault.Authorizationf("unknown oracle mode %q", o.cfg.Mode)
	}
}

// VerificationOf returns the decision record for a claim.
func (o *Oracle) VerificationOf(claimID uint64) (VerificationRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rec, ok := o.records[claimID]
	if !ok {
		return VerificationRecord{}, fault.NotFoundf("no verification for claim %d", claimID)
	}
	return *rec, nil
}

// Counts returns the global (verified, rejected) counters.
func (o *Oracle) Counts() (verified, rejected uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.verifiedCount, o.rejectedCount
}

// Agents returns one page of registered agent ids in registration order.
func (o *Oracle) Agents(offset, limit int) paging.Page[string] {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, len(o.agents))
	for i, a := range o.agents {
		ids[i] = a.id
	}
	return paging.GetPage(ids, offset, limit)
}

func signatureID(sig []byte) string {
	sum := sha256.Sum256(sig)
	return hex.EncodeToString(sum[:])
}

func (o *Oracle) record(ctx context.Context, action, agentID string, payload map[string]interface{}) {
	if err := o.trail.Record(ctx, audit.EventMutation, action, "agent:"+agentID, payload); err != nil {
		o.log.Warn("audit record failed", "action", action, "agent", agentID, "error", err)
	}
}

func claimEntity(id uint64) string {
	return "claim:" + strconv.FormatUint(id, 10)
}
