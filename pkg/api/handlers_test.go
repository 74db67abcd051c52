package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veristake/veristake/pkg/api"
	"github.com/veristake/veristake/pkg/auth"
	"github.com/veristake/veristake/pkg/engine"
	"github.com/veristake/veristake/pkg/finance"
)

type fixture struct {
	eng    *engine.Engine
	tokens *auth.TokenManager
	h      http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	eng := engine.New(engine.Options{
		Clock: func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	eng.Roster.Grant("system", "admin-1", auth.RoleAdmin)
	eng.Roster.Grant("admin-1", "verifier-1", auth.RoleVerifier)

	tokens := auth.NewTokenManager([]byte("test-secret"), "veristake")
	svc := api.NewService(eng, tokens)
	return &fixture{eng: eng, tokens: tokens, h: svc.Routes(nil)}
}

func (f *fixture) do(t *testing.T, method, path, as string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if as != "" {
		token, err := f.tokens.Generate(auth.NewPrincipal(as), time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz_NoAuth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_RequireAuth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/claims", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClaimLifecycle_OverHTTP(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/profiles/skills", "alice",
		api.AddSkillRequest{Name: "go", Level: "expert"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var skill map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&skill))

	rec = f.do(t, http.MethodPost, "/v1/claims", "alice", api.CreateClaimRequest{
		SkillName:   "go",
		Description: "services work",
		EvidenceRef: "ipfs://evidence",
		SkillIndex:  skill["skill_index"],
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]uint64
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	id := created["claim_id"]

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/v1/claims/%d/assign", id), "admin-1",
		api.AssignClaimRequest{Verifier: "verifier-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	// A non-assigned caller cannot decide.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/v1/claims/%d/approve", id), "mallory",
		api.DecideClaimRequest{Notes: "lgtm"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/v1/claims/%d/approve", id), "verifier-1",
		api.DecideClaimRequest{Notes: "checked"})
	require.Equal(t, http.StatusOK, rec.Code)

	// Deciding twice conflicts.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/v1/claims/%d/reject", id), "verifier-1",
		api.DecideClaimRequest{Reason: "changed my mind"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/v1/claims/%d", id), "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var claim map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&claim))
	assert.Equal(t, "APPROVED", claim["status"])
}

func TestBountySettlement_OverHTTP(t *testing.T) {
	f := newFixture(t)
	pol := f.eng.Policy()

	rec := f.do(t, http.MethodPost, "/v1/profiles/skills", "alice",
		api.AddSkillRequest{Name: "go", Level: "expert"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/claims", "alice", api.CreateClaimRequest{
		SkillName: "go", Description: "d", EvidenceRef: "ref", SkillIndex: 0,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]uint64
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	id := created["claim_id"]

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/v1/claims/%d/assign", id), "admin-1",
		api.AssignClaimRequest{Verifier: "verifier-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/v1/claims/%d/approve", id), "verifier-1",
		api.DecideClaimRequest{Notes: "ok"})
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, f.eng.Bank.Mint(pol.Vault.PayoutAsset, "acme", 100_000))
	rec = f.do(t, http.MethodPost, "/v1/pools/go/deposits", "acme", api.AmountRequest{Amount: 100_000})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/pools/go/claims", "alice",
		api.ClaimBountyRequest{ClaimID: id})
	require.Equal(t, http.StatusOK, rec.Code)
	var settlement map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&settlement))
	assert.EqualValues(t, pol.Vault.PayoutAmount, settlement["payout"])

	// Settling again inside the cooldown is an economic refusal.
	rec = f.do(t, http.MethodPost, "/v1/pools/go/claims", "alice",
		api.ClaimBountyRequest{ClaimID: id})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/pools/go", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pool map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pool))
	assert.EqualValues(t, 100_000-pol.Vault.PayoutAmount, pool["available_balance"])
}

func TestGetBalance(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.eng.Bank.Mint("VST", "alice", 2_500))

	rec := f.do(t, http.MethodGet, "/v1/balances/VST/alice", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var m finance.Money
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&m))
	assert.Equal(t, finance.NewMoney(2_500, "VST"), m)

	// Unknown accounts read as zero, not as an error.
	rec = f.do(t, http.MethodGet, "/v1/balances/VST/nobody", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&m))
	assert.True(t, m.IsZero())
}

func TestGetClaim_NotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/claims/999", "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListClaims_Paged(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/v1/profiles/skills", "bob",
		api.AddSkillRequest{Name: "go", Level: "junior"})
	for i := 0; i < 5; i++ {
		rec := f.do(t, http.MethodPost, "/v1/claims", "bob", api.CreateClaimRequest{
			SkillName: "go", Description: "d", EvidenceRef: fmt.Sprintf("ref-%d", i), SkillIndex: 0,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/v1/claims?offset=2&limit=2", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items  []map[string]any `json:"items"`
		Total  int              `json:"total"`
		Offset int              `json:"offset"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Offset)
}
