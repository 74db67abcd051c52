package profile

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndVerifySkill(t *testing.T) {
	r := NewRegistry()
	idx, err := r.AddSkill("alice", "Distributed Systems Engineering", "senior")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	require.NoError(t, r.VerifySkill(context.Background(), "alice", 0))
	total, verified := r.Counts("alice")
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, verified)

	// Verifying twice does not double count.
	require.NoError(t, r.VerifySkill(context.Background(), "alice", 0))
	_, verified = r.Counts("alice")
	assert.Equal(t, 1, verified)
}

func TestVerifySkillErrors(t *testing.T) {
	r := NewRegistry()
	err := r.VerifySkill(context.Background(), "ghost", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.AddSkill("bob", "Go", "mid")
	require.NoError(t, err)
	assert.ErrorIs(t, r.VerifySkill(context.Background(), "bob", 5), ErrOutOfRange)
	assert.ErrorIs(t, r.VerifySkill(context.Background(), "bob", -1), ErrOutOfRange)
}

func TestSkillCapAndPaging(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < MaxSkillsPerProfile; i++ {
		_, err := r.AddSkill("carol", fmt.Sprintf("skill-%03d", i), "mid")
		require.NoError(t, err)
	}

	_, err := r.AddSkill("carol", "one too many", "mid")
	assert.ErrorIs(t, err, ErrCapacity)

	page := r.Skills("carol", 0, 100)
	assert.Len(t, page.Items, 100)
	assert.Equal(t, 100, page.Total)

	page = r.Skills("carol", 100, 20)
	assert.Empty(t, page.Items)
	assert.Equal(t, 100, page.Total)
}

func TestVerifiedSkillsFilter(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		_, err := r.AddSkill("dan", fmt.Sprintf("skill-%d", i), "mid")
		require.NoError(t, err)
	}
	require.NoError(t, r.VerifySkill(ctx, "dan", 1))
	require.NoError(t, r.VerifySkill(ctx, "dan", 4))

	page := r.VerifiedSkills("dan", 0, 10)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, "skill-1", page.Items[0].Name)
	assert.Equal(t, "skill-4", page.Items[1].Name)
}

func TestBadSkillName(t *testing.T) {
	r := NewRegistry()
	_, err := r.AddSkill("eve", "", "mid")
	assert.ErrorIs(t, err, ErrBadName)
}
