package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestGetPageBasic(t *testing.T) {
	p := GetPage(seq(10), 0, 4)
	require.Equal(t, 10, p.Total)
	assert.Equal(t, []int{0, 1, 2, 3}, p.Items)

	p = GetPage(seq(10), 8, 4)
	assert.Equal(t, []int{8, 9}, p.Items)
	assert.Equal(t, 10, p.Total)
}

func TestGetPageOffsetBeyondTotal(t *testing.T) {
	p := GetPage(seq(5), 5, 3)
	assert.Empty(t, p.Items)
	assert.Equal(t, 5, p.Total)

	p = GetPage(seq(5), 100, 3)
	assert.Empty(t, p.Items)
	assert.Equal(t, 5, p.Total)
}

func TestGetPageEmptyCollection(t *testing.T) {
	p := GetPage([]int{}, 0, 10)
	assert.Empty(t, p.Items)
	assert.Equal(t, 0, p.Total)
}

func TestGetPageZeroAndNegativeInputs(t *testing.T) {
	assert.Empty(t, GetPage(seq(5), 0, 0).Items)
	assert.Empty(t, GetPage(seq(5), -1, 3).Items)
}

func TestGetPageClampsLimit(t *testing.T) {
	p := GetPage(seq(MaxPageLimit+50), 0, MaxPageLimit+50)
	assert.Len(t, p.Items, MaxPageLimit)
	assert.Equal(t, MaxPageLimit+50, p.Total)
}

func TestGetPageCopiesItems(t *testing.T) {
	src := seq(3)
	p := GetPage(src, 0, 3)
	p.Items[0] = 99
	assert.Equal(t, 0, src[0])
}

func TestFilterPage(t *testing.T) {
	even := func(v int) bool { return v%2 == 0 }
	p := FilterPage(seq(10), even, 0, 3)
	require.Equal(t, 5, p.Total)
	assert.Equal(t, []int{0, 2, 4}, p.Items)

	p = FilterPage(seq(10), even, 4, 3)
	assert.Equal(t, []int{8}, p.Items)
}
