package smoothing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/distance.report/internal/config"
)

func TestNewSlidingWindowFilterRejectsBadWindow(t *testing.T) {
	for _, w := range []int{0, -1} {
		f, err := NewSlidingWindowFilter(w)
		assert.Nil(t, f)
		assert.True(t, errors.Is(err, config.ErrInvalidConfiguration), "window %d: %v", w, err)
	}
}

func TestSlidingWindowFilterFirstUpdateIsIdentity(t *testing.T) {
	f, err := NewSlidingWindowFilter(5)
	require.NoError(t, err)

	sample := []float64{12.5, -3, 7.25, 1e6}
	got, err := f.Update(sample)
	require.NoError(t, err)
	assert.Equal(t, sample, got)
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, 4, f.Arity())

	// Returned mean must not alias the caller's slice.
	sample[0] = 0
	assert.Equal(t, 12.5, f.Mean()[0])
}

func TestSlidingWindowFilterEvictsOldest(t *testing.T) {
	f, err := NewSlidingWindowFilter(3)
	require.NoError(t, err)

	inputs := [][]float64{{0, 0}, {2, 0}, {4, 0}, {6, 0}}
	want := [][]float64{{0, 0}, {1, 0}, {2, 0}, {4, 0}}

	for i, in := range inputs {
		got, err := f.Update(in)
		require.NoError(t, err)
		assert.InDeltaSlice(t, want[i], got, 1e-12, "update %d", i)
	}
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, 3, f.WindowSize())
}

func TestSlidingWindowFilterMeanOfLastW(t *testing.T) {
	const w = 4
	f, err := NewSlidingWindowFilter(w)
	require.NoError(t, err)

	var history []float64
	for i := 0; i < 25; i++ {
		v := float64(i*i%17) - 3.5
		history = append(history, v)
		got, err := f.Update([]float64{v, -v})
		require.NoError(t, err)

		start := len(history) - w
		if start < 0 {
			start = 0
		}
		sum := 0.0
		for _, h := range history[start:] {
			sum += h
		}
		mean := sum / float64(len(history)-start)
		assert.InDelta(t, mean, got[0], 1e-9, "step %d", i)
		assert.InDelta(t, -mean, got[1], 1e-9, "step %d", i)
	}
}

func TestSlidingWindowFilterWindowOfOne(t *testing.T) {
	f, err := NewSlidingWindowFilter(1)
	require.NoError(t, err)

	for _, v := range []float64{3, 9, -1} {
		got, err := f.Update([]float64{v})
		require.NoError(t, err)
		assert.Equal(t, []float64{v}, got)
	}
}

func TestSlidingWindowFilterArityMismatch(t *testing.T) {
	f, err := NewSlidingWindowFilter(3)
	require.NoError(t, err)

	_, err = f.Update([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	_, err = f.Update([]float64{5, 6, 7, 8})
	require.NoError(t, err)
	before := f.Mean()

	got, err := f.Update([]float64{1, 2})
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrArityMismatch)

	// No state mutated by the rejected sample.
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 4, f.Arity())
	assert.Equal(t, before, f.Mean())
}

func TestSlidingWindowFilterEmptySample(t *testing.T) {
	f, err := NewSlidingWindowFilter(2)
	require.NoError(t, err)

	_, err = f.Update(nil)
	assert.ErrorIs(t, err, ErrArityMismatch)
	assert.Equal(t, 0, f.Arity())
	assert.Nil(t, f.Mean())
}
