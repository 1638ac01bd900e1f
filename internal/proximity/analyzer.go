package proximity

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/distance.report/internal/config"
)

// ErrInvalidInput is returned when a centroid has a non-finite component.
// Callers should skip analysis for that frame rather than stop the stream.
var ErrInvalidInput = errors.New("invalid centroid input")

// ComputeViolations returns the indices of every centroid lying closer than
// threshold to at least one other centroid. Fewer than two centroids yield
// an empty set without computing any distance.
func ComputeViolations(centroids []r3.Vec, threshold float64) (ViolationSet, error) {
	pairs, err := ViolatingPairs(centroids, threshold)
	if err != nil {
		return nil, err
	}
	return setFromPairs(pairs), nil
}

// ViolatingPairs returns every pair (i, j), i < j, whose distance is strictly
// below threshold, ordered by i then j.
func ViolatingPairs(centroids []r3.Vec, threshold float64) ([]Pair, error) {
	if !(threshold > 0) || math.IsInf(threshold, 1) {
		return nil, fmt.Errorf("%w: proximity threshold must be positive and finite, got %f", config.ErrInvalidConfiguration, threshold)
	}
	if len(centroids) < 2 {
		return nil, nil
	}
	for i, c := range centroids {
		if !finite(c) {
			return nil, fmt.Errorf("%w: centroid %d is %v", ErrInvalidInput, i, c)
		}
	}

	var pairs []Pair
	for i := 0; i < len(centroids)-1; i++ {
		for j := i + 1; j < len(centroids); j++ {
			d := r3.Norm(r3.Sub(centroids[i], centroids[j]))
			if d < threshold {
				pairs = append(pairs, Pair{I: i, J: j, Distance: d})
			}
		}
	}
	return pairs, nil
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Analyzer applies a fixed, validated threshold to successive frames.
// It holds no per-frame state and may be shared between streams.
type Analyzer struct {
	threshold float64
}

// NewAnalyzer validates threshold eagerly.
func NewAnalyzer(threshold float64) (*Analyzer, error) {
	if !(threshold > 0) || math.IsInf(threshold, 1) {
		return nil, fmt.Errorf("%w: proximity threshold must be positive and finite, got %f", config.ErrInvalidConfiguration, threshold)
	}
	return &Analyzer{threshold: threshold}, nil
}

// Threshold returns the configured distance threshold.
func (a *Analyzer) Threshold() float64 { return a.threshold }

// Analyze returns the violation set and violating pairs for one frame.
func (a *Analyzer) Analyze(centroids []r3.Vec) (ViolationSet, []Pair, error) {
	pairs, err := ViolatingPairs(centroids, a.threshold)
	if err != nil {
		return nil, nil, err
	}
	return setFromPairs(pairs), pairs, nil
}
