package api

import (
	"net/http"
	"strconv"
)

func (s *Service) directoryRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/verifiers", s.handleUpsertVerifier)
	mux.HandleFunc("GET /v1/verifiers", s.handleListVerifiers)
	mux.HandleFunc("GET /v1/verifiers/{id}", s.handleGetVerifier)
	mux.HandleFunc("POST /v1/endorsements", s.handleAddEndorsement)
	mux.HandleFunc("DELETE /v1/endorsements/{id}", s.handleRemoveEndorsement)
	mux.HandleFunc("GET /v1/profiles/{id}/endorsements", s.handleListEndorsements)
}

// UpsertVerifierRequest sets the caller's public verifier profile.
type UpsertVerifierRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio,omitempty"`
}

func (s *Service) handleUpsertVerifier(w http.ResponseWriter, r *http.Request) {
	var req UpsertVerifierRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.eng.Reputation.Upsert(caller(r), req.DisplayName, req.Bio); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Service) handleListVerifiers(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	WriteJSON(w, http.StatusOK, s.eng.Reputation.List(offset, limit))
}

func (s *Service) handleGetVerifier(w http.ResponseWriter, r *http.Request) {
	p, err := s.eng.Reputation.Get(r.PathValue("id"))
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// AddEndorsementRequest vouches for someone else's skill.
type AddEndorsementRequest struct {
	Subject   string `json:"subject"`
	SkillName string `json:"skill_name"`
	Text      string `json:"text,omitempty"`
}

func (s *Service) handleAddEndorsement(w http.ResponseWriter, r *http.Request) {
	var req AddEndorsementRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := s.eng.Endorsements.Add(req.Subject, caller(r), req.SkillName, req.Text)
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]uint64{"endorsement_id": id})
}

func (s *Service) handleRemoveEndorsement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid endorsement id")
		return
	}
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		WriteBadRequest(w, "Missing required query parameter: subject")
		return
	}
	if err := s.eng.Endorsements.Remove(caller(r), subject, id); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Service) handleListEndorsements(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	subject := r.PathValue("id")
	if skill := r.URL.Query().Get("skill"); skill != "" {
		WriteJSON(w, http.StatusOK, s.eng.Endorsements.ForSkill(subject, skill, offset, limit))
		return
	}
	WriteJSON(w, http.StatusOK, s.eng.Endorsements.For(subject, offset, limit))
}
