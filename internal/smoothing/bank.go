package smoothing

import (
	"fmt"
	"sort"

	"github.com/banshee-data/distance.report/internal/config"
	"github.com/banshee-data/distance.report/internal/detection"
)

// Smoothed is the filtered view of one detection's box.
type Smoothed struct {
	Box    detection.BoundingBox
	Width  float64
	Height float64
}

type entityFilters struct {
	box  *BoundingBoxSmoother
	size *SizeAverageFilter
}

// FilterBank owns one box smoother and one size filter per entity key.
// The key is supplied by the caller; the bank makes no attempt to decide
// which detections belong to the same person.
type FilterBank struct {
	boxWindow  int
	sizeWindow int
	entities   map[string]*entityFilters
}

// NewFilterBank creates an empty bank. Both window sizes must be at least 1.
func NewFilterBank(boxWindow, sizeWindow int) (*FilterBank, error) {
	if boxWindow < 1 || sizeWindow < 1 {
		return nil, fmt.Errorf("%w: window sizes must be at least 1, got box=%d size=%d",
			config.ErrInvalidConfiguration, boxWindow, sizeWindow)
	}
	return &FilterBank{
		boxWindow:  boxWindow,
		sizeWindow: sizeWindow,
		entities:   make(map[string]*entityFilters),
	}, nil
}

// Smooth feeds box into the filters for key, creating them on first use,
// and returns the smoothed box and size.
func (b *FilterBank) Smooth(key string, box detection.BoundingBox) (Smoothed, error) {
	e, ok := b.entities[key]
	if !ok {
		bs, err := NewBoundingBoxSmoother(b.boxWindow)
		if err != nil {
			return Smoothed{}, err
		}
		sf, err := NewSizeAverageFilter(b.sizeWindow)
		if err != nil {
			return Smoothed{}, err
		}
		e = &entityFilters{box: bs, size: sf}
		b.entities[key] = e
	}

	sb, err := e.box.Update(box)
	if err != nil {
		return Smoothed{}, fmt.Errorf("smooth box for %q: %w", key, err)
	}
	w, h, err := e.size.Update(box.Width(), box.Height())
	if err != nil {
		return Smoothed{}, fmt.Errorf("smooth size for %q: %w", key, err)
	}
	return Smoothed{Box: sb, Width: w, Height: h}, nil
}

// Forget drops the filters for key. The next Smooth for key starts fresh.
func (b *FilterBank) Forget(key string) {
	delete(b.entities, key)
}

// Len returns the number of keys with live filters.
func (b *FilterBank) Len() int { return len(b.entities) }

// Keys returns the live keys in sorted order.
func (b *FilterBank) Keys() []string {
	keys := make([]string, 0, len(b.entities))
	for k := range b.entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
