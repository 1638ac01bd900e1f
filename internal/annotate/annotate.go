// Package annotate maps a frame's violation set onto per-detection display
// attributes. It draws nothing; the renderer consumes the Annotations.
package annotate

import (
	"fmt"
	"image/color"
	"math"

	"github.com/banshee-data/distance.report/internal/detection"
	"github.com/banshee-data/distance.report/internal/proximity"
	"github.com/banshee-data/distance.report/internal/units"
)

// State is the discrete display state of one detection.
type State int

const (
	Normal State = iota
	Violating
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case Violating:
		return "violating"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name so JSON output stays readable.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	NormalColor    = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	ViolatingColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// StateFor returns Violating iff index is in set.
func StateFor(index int, set proximity.ViolationSet) State {
	if set.Contains(index) {
		return Violating
	}
	return Normal
}

// Color returns the overlay colour for a state.
func Color(s State) color.RGBA {
	if s == Violating {
		return ViolatingColor
	}
	return NormalColor
}

// Label formats the detection's depth, given in centimetres, for display in
// the requested unit.
func Label(d detection.Detection, unit string) string {
	if !units.IsValid(unit) {
		unit = units.CM
	}
	v := units.ConvertDistance(d.Depth(), unit)
	switch unit {
	case units.M, units.FT:
		return fmt.Sprintf("Depth: %.2f %s", v, unit)
	default:
		return fmt.Sprintf("Depth: %d %s", int64(math.Round(v)), unit)
	}
}

// Summary is the frame-level overlay text.
func Summary(set proximity.ViolationSet) string {
	return fmt.Sprintf("Social Distancing Violations: %d", set.Len())
}

// Annotation is everything the renderer needs for one detection.
type Annotation struct {
	Index int                   `json:"index"`
	State State                 `json:"state"`
	Color color.RGBA            `json:"-"`
	Label string                `json:"label"`
	Box   detection.BoundingBox `json:"-"`
}

// Annotate pairs each detection with its state, colour and label. boxes, if
// non-nil, overrides the raw detection boxes (for example with smoothed
// ones) and must have the same length as dets.
func Annotate(dets []detection.Detection, boxes []detection.BoundingBox, set proximity.ViolationSet, unit string) ([]Annotation, error) {
	if boxes != nil && len(boxes) != len(dets) {
		return nil, fmt.Errorf("annotate: %d boxes for %d detections", len(boxes), len(dets))
	}
	out := make([]Annotation, len(dets))
	for i, d := range dets {
		st := StateFor(i, set)
		box := d.Box
		if boxes != nil {
			box = boxes[i]
		}
		out[i] = Annotation{
			Index: i,
			State: st,
			Color: Color(st),
			Label: Label(d, unit),
			Box:   box,
		}
	}
	return out, nil
}
