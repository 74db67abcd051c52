package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyAddSub(t *testing.T) {
	a := NewMoney(5000, "VST")
	b := NewMoney(2500, "VST")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(7500), sum.AmountMinor)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), diff.AmountMinor)

	_, err = a.Add(NewMoney(1, "USD"))
	assert.Error(t, err)
}

func TestSplitFee(t *testing.T) {
	share, fee, err := SplitFee(5000, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4500), share)
	assert.Equal(t, int64(500), fee)

	// Exactness under rounding: remainder goes to the fee.
	share, fee, err = SplitFee(101, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(101), share+fee)
	assert.Equal(t, int64(97), share)

	share, fee, err = SplitFee(5000, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), share)
	assert.Zero(t, fee)

	_, _, err = SplitFee(5000, 101)
	assert.ErrorIs(t, err, ErrBadPercent)
	_, _, err = SplitFee(5000, -1)
	assert.ErrorIs(t, err, ErrBadPercent)
}
