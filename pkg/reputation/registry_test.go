package reputation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veristake/veristake/pkg/fault"
)

func TestUpsertGetDelete(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Upsert("v1", "Verifier One", "reviews distributed systems claims"))

	p, err := r.Get("v1")
	require.NoError(t, err)
	assert.Equal(t, "Verifier One", p.DisplayName)

	require.NoError(t, r.Upsert("v1", "Verifier 1", ""))
	p, err = r.Get("v1")
	require.NoError(t, err)
	assert.Equal(t, "Verifier 1", p.DisplayName)

	r.Delete("v1")
	_, err = r.Get("v1")
	assert.ErrorIs(t, err, fault.ErrNotFound)

	r.Delete("v1") // no-op
}

func TestRecordDecisionCreatesProfile(t *testing.T) {
	r := NewRegistry()
	r.RecordDecision("v2", true)
	r.RecordDecision("v2", true)
	r.RecordDecision("v2", false)

	p, err := r.Get("v2")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), p.ApprovedCount)
	assert.Equal(t, uint64(1), p.RejectedCount)
}

func TestRegistryCapAndListing(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < MaxVerifiers; i++ {
		require.NoError(t, r.Upsert(fmt.Sprintf("v-%03d", i), "n", ""))
	}
	err := r.Upsert("overflow", "n", "")
	assert.ErrorIs(t, err, fault.ErrCapacity)

	page := r.List(0, 10)
	assert.Equal(t, MaxVerifiers, page.Total)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, "v-000", page.Items[0].VerifierID)
}
