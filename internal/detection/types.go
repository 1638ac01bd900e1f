package detection

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidDetection is wrapped by Validate for detections that break the
// box or confidence invariants.
var ErrInvalidDetection = errors.New("invalid detection")

// BoundingBox is an axis-aligned box in pixel coordinates with X1<X2, Y1<Y2.
type BoundingBox struct {
	X1, Y1, X2, Y2 float64
}

// Width returns X2-X1.
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height returns Y2-Y1.
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// Validate reports whether the corners are finite and correctly ordered.
func (b BoundingBox) Validate() error {
	for _, v := range [4]float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite box corner %v", ErrInvalidDetection, b)
		}
	}
	if b.X1 >= b.X2 || b.Y1 >= b.Y2 {
		return fmt.Errorf("%w: box corners out of order %v", ErrInvalidDetection, b)
	}
	return nil
}

// Detection is one person found in a frame. The centroid holds two
// image-plane coordinates and an estimated depth in Z. Key is the
// caller-supplied entity identity used to pick a smoothing filter; an empty
// Key means the detection has no stable identity.
type Detection struct {
	Confidence float64
	Box        BoundingBox
	Centroid   r3.Vec
	Key        string
}

// Depth returns the estimated distance to the camera.
func (d Detection) Depth() float64 { return d.Centroid.Z }

// Validate checks confidence range and box ordering. Centroid finiteness is
// checked by the proximity analysis, which owns that failure policy.
func (d Detection) Validate() error {
	if d.Confidence < 0 || d.Confidence > 1 || math.IsNaN(d.Confidence) {
		return fmt.Errorf("%w: confidence %f outside [0,1]", ErrInvalidDetection, d.Confidence)
	}
	return d.Box.Validate()
}

// Frame is the detector output for a single video frame.
type Frame struct {
	Index      int
	Timestamp  time.Time
	Detections []Detection
}

// FilterByConfidence returns the detections whose confidence is at least
// minConfidence, preserving order. The input slice is not modified.
func FilterByConfidence(dets []Detection, minConfidence float64) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence >= minConfidence {
			out = append(out, d)
		}
	}
	return out
}

// Centroids extracts the centroid of every detection in order.
func Centroids(dets []Detection) []r3.Vec {
	out := make([]r3.Vec, len(dets))
	for i, d := range dets {
		out[i] = d.Centroid
	}
	return out
}
