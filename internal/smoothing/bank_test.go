package smoothing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/distance.report/internal/config"
	"github.com/banshee-data/distance.report/internal/detection"
)

func TestFilterBankIsolatesKeys(t *testing.T) {
	bank, err := NewFilterBank(3, 3)
	require.NoError(t, err)

	a1 := detection.BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 20}
	a2 := detection.BoundingBox{X1: 10, Y1: 0, X2: 20, Y2: 20}
	far := detection.BoundingBox{X1: 500, Y1: 500, X2: 600, Y2: 700}

	_, err = bank.Smooth("alice", a1)
	require.NoError(t, err)

	// A different key must not mix into alice's history.
	got, err := bank.Smooth("bob", far)
	require.NoError(t, err)
	assert.Equal(t, far, got.Box)
	assert.Equal(t, 100.0, got.Width)
	assert.Equal(t, 200.0, got.Height)

	got, err = bank.Smooth("alice", a2)
	require.NoError(t, err)
	assert.Equal(t, detection.BoundingBox{X1: 5, Y1: 0, X2: 15, Y2: 20}, got.Box)
	assert.Equal(t, 10.0, got.Width)
	assert.Equal(t, 20.0, got.Height)

	assert.Equal(t, 2, bank.Len())
	assert.Equal(t, []string{"alice", "bob"}, bank.Keys())
}

func TestFilterBankSeparateWindows(t *testing.T) {
	bank, err := NewFilterBank(1, 2)
	require.NoError(t, err)

	_, err = bank.Smooth("k", detection.BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10})
	require.NoError(t, err)
	got, err := bank.Smooth("k", detection.BoundingBox{X1: 0, Y1: 0, X2: 30, Y2: 50})
	require.NoError(t, err)

	// Box window of 1 follows the latest box; size window of 2 averages.
	assert.Equal(t, detection.BoundingBox{X1: 0, Y1: 0, X2: 30, Y2: 50}, got.Box)
	assert.Equal(t, 20.0, got.Width)
	assert.Equal(t, 30.0, got.Height)
}

func TestFilterBankForget(t *testing.T) {
	bank, err := NewFilterBank(5, 5)
	require.NoError(t, err)

	_, err = bank.Smooth("k", detection.BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10})
	require.NoError(t, err)
	bank.Forget("k")
	assert.Equal(t, 0, bank.Len())

	fresh := detection.BoundingBox{X1: 100, Y1: 100, X2: 120, Y2: 140}
	got, err := bank.Smooth("k", fresh)
	require.NoError(t, err)
	assert.Equal(t, fresh, got.Box)

	bank.Forget("missing") // no-op
	assert.Equal(t, 1, bank.Len())
}

func TestNewFilterBankRejectsBadWindows(t *testing.T) {
	_, err := NewFilterBank(0, 5)
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
	_, err = NewFilterBank(5, 0)
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
}
