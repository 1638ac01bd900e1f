package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/distance.report/internal/annotate"
	"github.com/banshee-data/distance.report/internal/config"
	"github.com/banshee-data/distance.report/internal/detection"
	"github.com/banshee-data/distance.report/internal/monitoring"
	"github.com/banshee-data/distance.report/internal/proximity"
	"github.com/banshee-data/distance.report/internal/smoothing"
	"github.com/banshee-data/distance.report/internal/timeutil"
)

// Options configures a Processor.
type Options struct {
	BoxWindow       int     // bounding-box history length
	SizeWindow      int     // box-size history length
	Smoothing       bool    // smooth keyed detections
	Threshold       float64 // proximity threshold in centroid units
	MinConfidence   float64 // detections below this are dropped
	DistanceUnit    string  // unit for depth labels
	MaxMissedFrames int     // frames a key may be absent before its filters are dropped; 0 keeps them forever

	Clock timeutil.Clock // defaults to RealClock
}

// OptionsFromConfig builds Options from a loaded MonitorConfig.
func OptionsFromConfig(cfg *config.MonitorConfig) Options {
	return Options{
		BoxWindow:       cfg.GetWindowSize(),
		SizeWindow:      cfg.GetSizeWindowSize(),
		Smoothing:       cfg.GetSmoothingEnabled(),
		Threshold:       cfg.GetProximityThreshold(),
		MinConfidence:   cfg.GetMinConfidence(),
		DistanceUnit:    cfg.GetDistanceUnit(),
		MaxMissedFrames: cfg.GetMaxMissedFrames(),
	}
}

// FrameResult is the annotated view of one processed frame.
type FrameResult struct {
	Index       int
	Timestamp   time.Time
	ProcessedAt time.Time
	Latency     time.Duration

	// Detections that passed the confidence gate; every index below refers
	// to this slice.
	Detections []detection.Detection
	// Boxes are the boxes to display: smoothed for keyed detections when
	// smoothing is enabled, raw otherwise.
	Boxes       []detection.BoundingBox
	Sizes       [][2]float64
	Violations  proximity.ViolationSet
	Pairs       []proximity.Pair
	Annotations []annotate.Annotation
	Summary     string

	// Warning is set when proximity analysis was skipped for this frame.
	Warning string
}

// Processor carries the smoothing state of a single stream.
type Processor struct {
	opts     Options
	analyzer *proximity.Analyzer
	bank     *smoothing.FilterBank
	clock    timeutil.Clock

	frames   int            // frames processed
	lastSeen map[string]int // key -> frame counter when last smoothed
}

// NewProcessor validates opts eagerly and returns a ready Processor.
func NewProcessor(opts Options) (*Processor, error) {
	if opts.MinConfidence < 0 || opts.MinConfidence > 1 {
		return nil, fmt.Errorf("%w: min confidence must be between 0 and 1, got %f", config.ErrInvalidConfiguration, opts.MinConfidence)
	}
	if opts.MaxMissedFrames < 0 {
		return nil, fmt.Errorf("%w: max missed frames must be non-negative, got %d", config.ErrInvalidConfiguration, opts.MaxMissedFrames)
	}
	analyzer, err := proximity.NewAnalyzer(opts.Threshold)
	if err != nil {
		return nil, err
	}
	bank, err := smoothing.NewFilterBank(opts.BoxWindow, opts.SizeWindow)
	if err != nil {
		return nil, err
	}
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Processor{
		opts:     opts,
		analyzer: analyzer,
		bank:     bank,
		clock:    clock,
		lastSeen: make(map[string]int),
	}, nil
}

// TrackedKeys returns the keys that currently hold smoothing history.
func (p *Processor) TrackedKeys() []string { return p.bank.Keys() }

// Process runs one frame through the pipeline. Invalid centroids do not
// fail the frame: analysis is skipped, a warning is logged and recorded on
// the result, and the violation set is empty. Smoothing errors are
// integration faults and are returned.
func (p *Processor) Process(frame detection.Frame) (FrameResult, error) {
	start := p.clock.Now()
	p.frames++

	dets := detection.FilterByConfidence(frame.Detections, p.opts.MinConfidence)
	res := FrameResult{
		Index:      frame.Index,
		Timestamp:  frame.Timestamp,
		Detections: dets,
		Boxes:      make([]detection.BoundingBox, len(dets)),
		Sizes:      make([][2]float64, len(dets)),
	}

	seen := make(map[string]bool, len(dets))
	for i, d := range dets {
		res.Boxes[i] = d.Box
		res.Sizes[i] = [2]float64{d.Box.Width(), d.Box.Height()}
		if !p.opts.Smoothing || d.Key == "" {
			continue
		}
		if seen[d.Key] {
			monitoring.Warnf("frame %d: duplicate key %q at detection %d, not smoothed", frame.Index, d.Key, i)
			continue
		}
		seen[d.Key] = true

		s, err := p.bank.Smooth(d.Key, d.Box)
		if err != nil {
			return FrameResult{}, fmt.Errorf("frame %d: %w", frame.Index, err)
		}
		res.Boxes[i] = s.Box
		res.Sizes[i] = [2]float64{s.Width, s.Height}
		p.lastSeen[d.Key] = p.frames
	}
	p.expireKeys()

	set, pairs, err := p.analyzer.Analyze(detection.Centroids(dets))
	switch {
	case errors.Is(err, proximity.ErrInvalidInput):
		res.Warning = err.Error()
		monitoring.Warnf("frame %d: skipping proximity analysis: %v", frame.Index, err)
		set, pairs = proximity.NewViolationSet(), nil
	case err != nil:
		return FrameResult{}, fmt.Errorf("frame %d: %w", frame.Index, err)
	}
	res.Violations = set
	res.Pairs = pairs

	anns, err := annotate.Annotate(dets, res.Boxes, set, p.opts.DistanceUnit)
	if err != nil {
		return FrameResult{}, fmt.Errorf("frame %d: %w", frame.Index, err)
	}
	res.Annotations = anns
	res.Summary = annotate.Summary(set)

	res.ProcessedAt = p.clock.Now()
	res.Latency = res.ProcessedAt.Sub(start)
	return res, nil
}

// expireKeys drops filters for keys not seen within MaxMissedFrames.
func (p *Processor) expireKeys() {
	if p.opts.MaxMissedFrames == 0 {
		return
	}
	for key, last := range p.lastSeen {
		if p.frames-last > p.opts.MaxMissedFrames {
			p.bank.Forget(key)
			delete(p.lastSeen, key)
		}
	}
}
