package smoothing

import "github.com/banshee-data/distance.report/internal/detection"

// BoundingBoxSmoother averages box corners (x1, y1, x2, y2) over a sliding
// window, trading a few frames of positional lag for stability.
type BoundingBoxSmoother struct {
	filter *SlidingWindowFilter
}

// NewBoundingBoxSmoother creates a smoother holding windowSize boxes.
func NewBoundingBoxSmoother(windowSize int) (*BoundingBoxSmoother, error) {
	f, err := NewSlidingWindowFilter(windowSize)
	if err != nil {
		return nil, err
	}
	return &BoundingBoxSmoother{filter: f}, nil
}

// Update records box and returns the smoothed box for the current frame.
func (s *BoundingBoxSmoother) Update(box detection.BoundingBox) (detection.BoundingBox, error) {
	mean, err := s.filter.Update([]float64{box.X1, box.Y1, box.X2, box.Y2})
	if err != nil {
		return detection.BoundingBox{}, err
	}
	return detection.BoundingBox{X1: mean[0], Y1: mean[1], X2: mean[2], Y2: mean[3]}, nil
}

// Len returns the number of boxes currently averaged.
func (s *BoundingBoxSmoother) Len() int { return s.filter.Len() }

// SizeAverageFilter averages box (width, height) independently of position,
// for scale-dependent downstream logic.
type SizeAverageFilter struct {
	filter *SlidingWindowFilter
}

// NewSizeAverageFilter creates a filter holding windowSize sizes.
func NewSizeAverageFilter(windowSize int) (*SizeAverageFilter, error) {
	f, err := NewSlidingWindowFilter(windowSize)
	if err != nil {
		return nil, err
	}
	return &SizeAverageFilter{filter: f}, nil
}

// Update records one size sample and returns the averaged width and height.
func (s *SizeAverageFilter) Update(width, height float64) (float64, float64, error) {
	mean, err := s.filter.Update([]float64{width, height})
	if err != nil {
		return 0, 0, err
	}
	return mean[0], mean[1], nil
}

// Len returns the number of sizes currently averaged.
func (s *SizeAverageFilter) Len() int { return s.filter.Len() }
