package api

import (
	"net/http"

	"github.com/veristake/veristake/pkg/crypto"
)

func (s *Service) oracleRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/oracle/agents", s.handleRegisterAgent)
	mux.HandleFunc("GET /v1/oracle/agents", s.handleListAgents)
	mux.HandleFunc("POST /v1/oracle/stake", s.handleStake)
	mux.HandleFunc("POST /v1/oracle/unstake/request", s.handleRequestUnstake)
	mux.HandleFunc("POST /v1/oracle/unstake/cancel", s.handleCancelUnstake)
	mux.HandleFunc("POST /v1/oracle/unstake", s.handleUnstake)
	mux.HandleFunc("POST /v1/oracle/slash", s.handleSlash)
	mux.HandleFunc("GET /v1/oracle/stakes/{id}", s.handleGetStake)
	mux.HandleFunc("GET /v1/oracle/verifications/{id}", s.handleGetVerification)
}

// RegisterAgentRequest registers the caller's attestation key. Used in
// grant mode; staking registers the key as a side effect.
type RegisterAgentRequest struct {
	PublicKey string `json:"public_key"`
}

func (s *Service) handleRegisterAgent(w http.ResponseWriter, r *http.Request) {
	var req RegisterAgentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	key, err := crypto.ParsePublicKeyHex(req.PublicKey)
	if err != nil {
		WriteBadRequest(w, "Public key must be 32 hex-encoded bytes")
		return
	}
	if err := s.eng.Oracle.RegisterAgent(r.Context(), caller(r), key); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"agent": caller(r)})
}

func (s *Service) handleListAgents(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	WriteJSON(w, http.StatusOK, s.eng.Oracle.Agents(offset, limit))
}

// StakeRequest posts collateral and registers the caller's key.
type StakeRequest struct {
	PublicKey string `json:"public_key"`
	Amount    int64  `json:"amount"`
}

func (s *Service) handleStake(w http.ResponseWriter, r *http.Request) {
	var req StakeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	key, err := crypto.ParsePublicKeyHex(req.PublicKey)
	if err != nil {
		WriteBadRequest(w, "Public key must be 32 hex-encoded bytes")
		return
	}
	if err := s.eng.Oracle.Stake(r.Context(), caller(r), key, req.Amount); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"status": "staked"})
}

func (s *Service) handleRequestUnstake(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.Oracle.RequestUnstake(r.Context(), caller(r)); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "unstake requested"})
}

func (s *Service) handleCancelUnstake(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.Oracle.CancelUnstake(r.Context(), caller(r)); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "unstake cancelled"})
}

func (s *Service) handleUnstake(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.Oracle.Unstake(r.Context(), caller(r)); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "unstaked"})
}

// SlashRequest confiscates part of an agent's stake. Admin only.
type SlashRequest struct {
	Agent  string `json:"agent"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

func (s *Service) handleSlash(w http.ResponseWriter, r *http.Request) {
	var req SlashRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.eng.Oracle.Slash(r.Context(), caller(r), req.Agent, req.Amount, req.Reason); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "slashed"})
}

func (s *Service) handleGetStake(w http.ResponseWriter, r *http.Request) {
	stake, err := s.eng.Oracle.StakeOf(r.PathValue("id"))
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stake)
}

func (s *Service) handleGetVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteBadRequest(w, "Invalid claim id")
		return
	}
	rec, err := s.eng.Oracle.VerificationOf(id)
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}
