package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/veristake/veristake/pkg/auth"
	"github.com/veristake/veristake/pkg/claims"
	"github.com/veristake/veristake/pkg/engine"
	"github.com/veristake/veristake/pkg/finance"
	"github.com/veristake/veristake/pkg/paging"
)

// Service binds the engine to the HTTP surface.
type Service struct {
	eng    *engine.Engine
	tokens *auth.TokenManager
}

// NewService creates the HTTP service over an engine.
func NewService(eng *engine.Engine, tokens *auth.TokenManager) *Service {
	return &Service{eng: eng, tokens: tokens}
}

// Routes builds the authenticated router. The health endpoint stays outside
// the auth wrapper so load balancers can reach it.
func (s *Service) Routes(limiter *GlobalRateLimiter) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/claims", s.handleCreateClaim)
	mux.HandleFunc("GET /v1/claims/{id}", s.handleGetClaim)
	mux.HandleFunc("GET /v1/claims", s.handleListClaims)
	mux.HandleFunc("POST /v1/claims/{id}/assign", s.handleAssignClaim)
	mux.HandleFunc("POST /v1/claims/{id}/approve", s.handleApproveClaim)
	mux.HandleFunc("POST /v1/claims/{id}/reject", s.handleRejectClaim)
	mux.HandleFunc("POST /v1/claims/{id}/attest", s.handleAttestClaim)
	mux.HandleFunc("POST /v1/claims/{id}/dispute", s.handleDisputeClaim)
	mux.HandleFunc("PUT /v1/claims/{id}/evidence", s.handleUpdateEvidence)

	mux.HandleFunc("POST /v1/profiles/skills", s.handleAddSkill)
	mux.HandleFunc("GET /v1/profiles/{id}/skills", s.handleListSkills)
	mux.HandleFunc("GET /v1/balances/{asset}/{account}", s.handleGetBalance)

	s.oracleRoutes(mux)
	s.vaultRoutes(mux)
	s.directoryRoutes(mux)

	var h http.Handler = Authenticate(s.tokens, mux)
	if limiter != nil {
		h = limiter.Middleware(h)
	}

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	root.Handle("/", h)
	return RequestID(root)
}

// caller returns the authenticated principal id. Authenticate guarantees
// one is present on every route under the wrapper.
func caller(r *http.Request) string {
	return auth.PrincipalID(r.Context())
}

func pathID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	return id, err == nil
}

// pageParams parses offset/limit query parameters with a default page size.
func pageParams(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	if limit > paging.MaxPageLimit {
		limit = paging.MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// CreateClaimRequest opens a new claim for the caller.
type CreateClaimRequest struct {
	SkillName   string `json:"skill_name"`
	Description string `json:"description"`
	EvidenceRef string `json:"evidence_ref"`
	SkillIndex  int    `json:"skill_index"`
}

func (s *Service) handleCreateClaim(w http.ResponseWriter, r *http.Request) {
	var req CreateClaimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := s.eng.Claims.Create(r.Context(), caller(r), req.SkillName, req.Description, req.EvidenceRef, req.SkillIndex)
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]uint64{"claim_id": id})
}

func (s *Service) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteBadRequest(w, "Invalid claim id")
		return
	}
	c, err := s.eng.Claims.Get(id)
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (s *Service) handleListClaims(w http.ResponseWriter, r *http.Request) {
	claimant := r.URL.Query().Get("claimant")
	if claimant == "" {
		claimant = caller(r)
	}
	offset, limit := pageParams(r)

	var page paging.Page[claims.Claim]
	if status := r.URL.Query().Get("status"); status != "" {
		page = s.eng.Claims.ByClaimantAndStatus(claimant, claims.Status(status), offset, limit)
	} else {
		page = s.eng.Claims.ByClaimant(claimant, offset, limit)
	}
	WriteJSON(w, http.StatusOK, page)
}

// AssignClaimRequest attaches a verifier to a pending claim.
type AssignClaimRequest struct {
	Verifier string `json:"verifier"`
}

func (s *Service) handleAssignClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteBadRequest(w, "Invalid claim id")
		return
	}
	var req AssignClaimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.eng.Claims.Assign(r.Context(), caller(r), id, req.Verifier); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

// DecideClaimRequest carries the verifier's notes or rejection reason.
type DecideClaimRequest struct {
	Notes  string `json:"notes,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (s *Service) handleApproveClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteBadRequest(w, "Invalid claim id")
		return
	}
	var req DecideClaimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.eng.Claims.Approve(r.Context(), caller(r), id, req.Notes); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (s *Service) handleRejectClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteBadRequest(w, "Invalid claim id")
		return
	}
	var req DecideClaimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.eng.Claims.Reject(r.Context(), caller(r), id, req.Reason); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// AttestClaimRequest carries a hex-encoded agent attestation signature.
type AttestClaimRequest struct {
	Approve   bool   `json:"approve"`
	Signature string `json:"signature"`
	Notes     string `json:"notes,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func (s *Service) handleAttestClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteBadRequest(w, "Invalid claim id")
		return
	}
	var req AttestClaimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sig, err := hex.DecodeString(req.Signature)
	if err != nil {
		WriteBadRequest(w, "Signature must be hex encoded")
		return
	}
	if req.Approve {
		err = s.eng.Claims.ApproveViaAgent(r.Context(), id, sig, req.Notes)
	} else {
		err = s.eng.Claims.RejectViaAgent(r.Context(), id, sig, req.Reason)
	}
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "decided"})
}

// DisputeClaimRequest reopens a decided claim for review.
type DisputeClaimRequest struct {
	Reason string `json:"reason"`
}

func (s *Service) handleDisputeClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteBadRequest(w, "Invalid claim id")
		return
	}
	var req DisputeClaimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.eng.Claims.Dispute(r.Context(), caller(r), id, req.Reason); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "disputed"})
}

// UpdateEvidenceRequest swaps the evidence reference on a pending claim.
type UpdateEvidenceRequest struct {
	EvidenceRef string `json:"evidence_ref"`
}

func (s *Service) handleUpdateEvidence(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteBadRequest(w, "Invalid claim id")
		return
	}
	var req UpdateEvidenceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.eng.Claims.UpdateEvidence(r.Context(), caller(r), id, req.EvidenceRef); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// AddSkillRequest declares a skill on the caller's profile.
type AddSkillRequest struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

func (s *Service) handleAddSkill(w http.ResponseWriter, r *http.Request) {
	var req AddSkillRequest
	if !decodeBody(w, r, &req) {
		return
	}
	idx, err := s.eng.Profiles.AddSkill(caller(r), req.Name, req.Level)
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]int{"skill_index": idx})
}

func (s *Service) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	asset := r.PathValue("asset")
	account := r.PathValue("account")
	m := finance.NewMoney(s.eng.Bank.BalanceOf(asset, account), asset)
	WriteJSON(w, http.StatusOK, m)
}

func (s *Service) handleListSkills(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	principal := r.PathValue("id")
	if r.URL.Query().Get("verified") == "true" {
		WriteJSON(w, http.StatusOK, s.eng.Profiles.VerifiedSkills(principal, offset, limit))
		return
	}
	WriteJSON(w, http.StatusOK, s.eng.Profiles.Skills(principal, offset, limit))
}
