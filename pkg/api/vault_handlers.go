package api

import (
	"net/http"
)

func (s *Service) vaultRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/pools", s.handleListPools)
	mux.HandleFunc("GET /v1/pools/{tag}", s.handleGetPool)
	mux.HandleFunc("POST /v1/pools/{tag}/deposits", s.handleDeposit)
	mux.HandleFunc("POST /v1/pools/{tag}/withdrawals", s.handleWithdraw)
	mux.HandleFunc("POST /v1/pools/{tag}/deactivate", s.handleDeactivatePool)
	mux.HandleFunc("POST /v1/pools/{tag}/claims", s.handleClaimBounty)
	mux.HandleFunc("GET /v1/buyback", s.handleBuybackTotals)
}

func (s *Service) handleListPools(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	if r.URL.Query().Get("active") == "true" {
		WriteJSON(w, http.StatusOK, s.eng.Vault.ActivePools(offset, limit))
		return
	}
	WriteJSON(w, http.StatusOK, s.eng.Vault.Pools(offset, limit))
}

func (s *Service) handleGetPool(w http.ResponseWriter, r *http.Request) {
	p, err := s.eng.Vault.Pool(r.PathValue("tag"))
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// AmountRequest carries a single minor-unit amount.
type AmountRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Service) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.eng.Vault.DepositToPool(r.Context(), caller(r), r.PathValue("tag"), req.Amount); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"status": "deposited"})
}

func (s *Service) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.eng.Vault.WithdrawFromPool(r.Context(), caller(r), r.PathValue("tag"), req.Amount); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

func (s *Service) handleDeactivatePool(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.Vault.DeactivatePool(r.Context(), caller(r), r.PathValue("tag")); err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// ClaimBountyRequest names the approved claim to settle against the pool.
type ClaimBountyRequest struct {
	ClaimID uint64 `json:"claim_id"`
}

func (s *Service) handleClaimBounty(w http.ResponseWriter, r *http.Request) {
	var req ClaimBountyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	settlement, err := s.eng.Vault.ClaimBounty(r.Context(), caller(r), req.ClaimID, r.PathValue("tag"))
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, settlement)
}

func (s *Service) handleBuybackTotals(w http.ResponseWriter, r *http.Request) {
	fees, destroyed := s.eng.Vault.BuybackTotals()
	WriteJSON(w, http.StatusOK, map[string]int64{
		"fees_spent": fees,
		"destroyed":  destroyed,
	})
}
