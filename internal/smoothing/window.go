package smoothing

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/distance.report/internal/config"
)

// ErrArityMismatch is returned when a sample's component count differs from
// the samples already held by a filter.
var ErrArityMismatch = errors.New("sample arity mismatch")

// SlidingWindowFilter keeps the most recent windowSize samples of a fixed
// arity and yields their component-wise arithmetic mean.
//
// History lives in a flat ring of windowSize*arity values with a write
// cursor; the oldest sample is overwritten once the ring is full.
type SlidingWindowFilter struct {
	windowSize int
	arity      int       // 0 until the first sample fixes it
	ring       []float64 // len = windowSize*arity once allocated
	next       int       // slot the next sample is written to
	count      int       // samples held, at most windowSize
}

// NewSlidingWindowFilter creates an empty filter. windowSize must be at least 1.
func NewSlidingWindowFilter(windowSize int) (*SlidingWindowFilter, error) {
	if windowSize < 1 {
		return nil, fmt.Errorf("%w: window size must be at least 1, got %d", config.ErrInvalidConfiguration, windowSize)
	}
	return &SlidingWindowFilter{windowSize: windowSize}, nil
}

// WindowSize returns the configured history capacity.
func (f *SlidingWindowFilter) WindowSize() int { return f.windowSize }

// Arity returns the tuple arity fixed by the first sample, or 0 if no sample
// has been seen.
func (f *SlidingWindowFilter) Arity() int { return f.arity }

// Len returns the number of samples currently held.
func (f *SlidingWindowFilter) Len() int { return f.count }

// Update appends sample, evicting the oldest entry when the window is full,
// and returns the mean of the samples now held. A sample of the wrong arity
// returns ErrArityMismatch and leaves the filter unchanged.
func (f *SlidingWindowFilter) Update(sample []float64) ([]float64, error) {
	if len(sample) == 0 {
		return nil, fmt.Errorf("%w: empty sample", ErrArityMismatch)
	}
	if f.arity == 0 {
		f.arity = len(sample)
		f.ring = make([]float64, f.windowSize*f.arity)
	} else if len(sample) != f.arity {
		return nil, fmt.Errorf("%w: got %d components, filter holds %d", ErrArityMismatch, len(sample), f.arity)
	}

	copy(f.slot(f.next), sample)
	f.next = (f.next + 1) % f.windowSize
	if f.count < f.windowSize {
		f.count++
	}
	return f.Mean(), nil
}

// Mean returns the component-wise mean of the held samples without
// inserting anything. It returns nil for an empty filter.
func (f *SlidingWindowFilter) Mean() []float64 {
	if f.count == 0 {
		return nil
	}
	mean := make([]float64, f.arity)
	// Held samples occupy slots [0, count) until the ring first wraps, and
	// every slot afterwards, so order does not matter for the sum.
	for i := 0; i < f.count; i++ {
		floats.Add(mean, f.slot(i))
	}
	n := float64(f.count)
	for k := range mean {
		mean[k] /= n
	}
	return mean
}

func (f *SlidingWindowFilter) slot(i int) []float64 {
	return f.ring[i*f.arity : (i+1)*f.arity]
}
