package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedRateQuote(t *testing.T) {
	q := NewFixedRate()
	require.NoError(t, q.SetRate("USDV", "VST", Rate{Num: 2, Den: 1}))

	out, err := q.Quote(500, "USDV", "VST")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), out)

	// Fractional rate floors.
	require.NoError(t, q.SetRate("USDV", "VST", Rate{Num: 1, Den: 3}))
	out, err = q.Quote(100, "USDV", "VST")
	require.NoError(t, err)
	assert.Equal(t, int64(33), out)
}

func TestQuoteErrors(t *testing.T) {
	q := NewFixedRate()
	_, err := q.Quote(100, "USDV", "VST")
	assert.Error(t, err)

	require.NoError(t, q.SetRate("USDV", "VST", Rate{Num: 1, Den: 1}))
	_, err = q.Quote(0, "USDV", "VST")
	assert.Error(t, err)

	assert.Error(t, q.SetRate("USDV", "VST", Rate{Num: 0, Den: 1}))
}
