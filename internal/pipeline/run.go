package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/distance.report/internal/annotate"
	"github.com/banshee-data/distance.report/internal/detection"
	"github.com/banshee-data/distance.report/internal/monitoring"
)

// Sink receives every processed frame in order.
type Sink interface {
	Write(res FrameResult) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(res FrameResult) error

// Write calls f(res).
func (f SinkFunc) Write(res FrameResult) error { return f(res) }

// MultiSink fans each result out to every sink, stopping at the first error.
type MultiSink []Sink

// Write forwards res to each sink in order.
func (m MultiSink) Write(res FrameResult) error {
	for _, s := range m {
		if err := s.Write(res); err != nil {
			return err
		}
	}
	return nil
}

// Stats summarises a Run.
type Stats struct {
	Frames               int
	FramesWithViolations int
	PeakViolations       int
	Warnings             int
}

// Run drives frames from src through p into sink until src is exhausted or
// ctx is cancelled. Cancellation is only observed between frames. A frame
// whose proximity analysis was skipped counts as a warning and does not stop
// the loop; source, processing and sink errors do.
func Run(ctx context.Context, p *Processor, src detection.FrameSource, sink Sink) (Stats, error) {
	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			monitoring.Logf("stream finished: %d frames, %d with violations, %d warnings",
				stats.Frames, stats.FramesWithViolations, stats.Warnings)
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("next frame: %w", err)
		}

		res, err := p.Process(frame)
		if err != nil {
			return stats, err
		}

		stats.Frames++
		if n := res.Violations.Len(); n > 0 {
			stats.FramesWithViolations++
			if n > stats.PeakViolations {
				stats.PeakViolations = n
			}
		}
		if res.Warning != "" {
			stats.Warnings++
		}

		if err := sink.Write(res); err != nil {
			return stats, fmt.Errorf("write frame %d: %w", res.Index, err)
		}
	}
}

// wireAnnotation is the JSON shape of one annotated detection.
type wireAnnotation struct {
	Index      int            `json:"index"`
	State      annotate.State `json:"state"`
	Label      string         `json:"label"`
	Color      string         `json:"color"`
	Box        [4]float64     `json:"box"`
	Size       [2]float64     `json:"size"`
	Confidence float64        `json:"confidence"`
	Key        string         `json:"key,omitempty"`
}

// wireResult is the JSON shape of one frame result.
type wireResult struct {
	Frame       int              `json:"frame"`
	Timestamp   *time.Time       `json:"ts,omitempty"`
	Violations  []int            `json:"violations"`
	Pairs       [][3]float64     `json:"pairs,omitempty"` // i, j, distance
	Annotations []wireAnnotation `json:"annotations"`
	Summary     string           `json:"summary"`
	LatencyUS   int64            `json:"latency_us"`
	Warning     string           `json:"warning,omitempty"`
}

// JSONLSink writes one JSON object per frame.
type JSONLSink struct {
	enc *json.Encoder
}

// NewJSONLSink writes results to w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

// Write encodes res as a single line.
func (s *JSONLSink) Write(res FrameResult) error {
	out := wireResult{
		Frame:       res.Index,
		Violations:  res.Violations.Sorted(),
		Annotations: make([]wireAnnotation, len(res.Annotations)),
		Summary:     res.Summary,
		LatencyUS:   res.Latency.Microseconds(),
		Warning:     res.Warning,
	}
	if !res.Timestamp.IsZero() {
		ts := res.Timestamp
		out.Timestamp = &ts
	}
	for _, p := range res.Pairs {
		out.Pairs = append(out.Pairs, [3]float64{float64(p.I), float64(p.J), p.Distance})
	}
	for i, a := range res.Annotations {
		d := res.Detections[a.Index]
		out.Annotations[i] = wireAnnotation{
			Index:      a.Index,
			State:      a.State,
			Label:      a.Label,
			Color:      fmt.Sprintf("#%02x%02x%02x", a.Color.R, a.Color.G, a.Color.B),
			Box:        [4]float64{a.Box.X1, a.Box.Y1, a.Box.X2, a.Box.Y2},
			Size:       res.Sizes[a.Index],
			Confidence: d.Confidence,
			Key:        d.Key,
		}
	}
	return s.enc.Encode(out)
}
