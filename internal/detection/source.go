package detection

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Detector is the external object detector. Given a frame image it returns
// the people found in it, in a stable order for that frame.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

// FrameSource yields frames of detections. Next returns io.EOF once the
// stream is exhausted.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}

// wireDetection is the JSON shape of one recorded detection.
type wireDetection struct {
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"box"`
	Centroid   [3]float64 `json:"centroid"`
	Key        string     `json:"key,omitempty"`
}

// wireFrame is the JSON shape of one recorded frame (one line of JSONL).
type wireFrame struct {
	Frame      *int            `json:"frame,omitempty"`
	Timestamp  *time.Time      `json:"ts,omitempty"`
	Detections []wireDetection `json:"detections"`
}

func (w wireDetection) toDetection() Detection {
	return Detection{
		Confidence: w.Confidence,
		Box:        BoundingBox{X1: w.Box[0], Y1: w.Box[1], X2: w.Box[2], Y2: w.Box[3]},
		Centroid:   r3.Vec{X: w.Centroid[0], Y: w.Centroid[1], Z: w.Centroid[2]},
		Key:        w.Key,
	}
}

// JSONLSource replays recorded detector output, one JSON frame per line.
// Blank lines are skipped. Frames without an explicit index are numbered
// sequentially from the previous frame.
type JSONLSource struct {
	scanner *bufio.Scanner
	line    int
	next    int
}

// NewJSONLSource reads frames from r.
func NewJSONLSource(r io.Reader) *JSONLSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &JSONLSource{scanner: scanner}
}

// Next decodes the next frame. Malformed lines and invalid detections are
// reported with their line number.
func (s *JSONLSource) Next(ctx context.Context) (Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return Frame{}, fmt.Errorf("read detections: %w", err)
			}
			return Frame{}, io.EOF
		}
		s.line++

		text := strings.TrimSpace(s.scanner.Text())
		if text == "" {
			continue
		}

		var wf wireFrame
		if err := json.Unmarshal([]byte(text), &wf); err != nil {
			return Frame{}, fmt.Errorf("line %d: failed to parse frame JSON: %w", s.line, err)
		}

		frame := Frame{Index: s.next, Detections: make([]Detection, 0, len(wf.Detections))}
		if wf.Frame != nil {
			frame.Index = *wf.Frame
		}
		if wf.Timestamp != nil {
			frame.Timestamp = *wf.Timestamp
		}
		for i, wd := range wf.Detections {
			d := wd.toDetection()
			if err := d.Validate(); err != nil {
				return Frame{}, fmt.Errorf("line %d detection %d: %w", s.line, i, err)
			}
			frame.Detections = append(frame.Detections, d)
		}
		s.next = frame.Index + 1
		return frame, nil
	}
}

// EncodeFrame writes frame as a single JSONL record readable by JSONLSource.
func EncodeFrame(w io.Writer, frame Frame) error {
	idx := frame.Index
	wf := wireFrame{Frame: &idx, Detections: make([]wireDetection, len(frame.Detections))}
	if !frame.Timestamp.IsZero() {
		ts := frame.Timestamp
		wf.Timestamp = &ts
	}
	for i, d := range frame.Detections {
		wf.Detections[i] = wireDetection{
			Confidence: d.Confidence,
			Box:        [4]float64{d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2},
			Centroid:   [3]float64{d.Centroid.X, d.Centroid.Y, d.Centroid.Z},
			Key:        d.Key,
		}
	}
	return json.NewEncoder(w).Encode(wf)
}

// ImageReader supplies raw frames to a DetectorSource. It returns io.EOF at
// end of stream.
type ImageReader func(ctx context.Context) (image.Image, error)

// DetectorSource runs a Detector over frames pulled from an ImageReader.
type DetectorSource struct {
	read     ImageReader
	detector Detector
	now      func() time.Time
	next     int
}

// NewDetectorSource pairs an image reader with a detector.
func NewDetectorSource(read ImageReader, detector Detector) *DetectorSource {
	return &DetectorSource{read: read, detector: detector, now: time.Now}
}

// Next reads one image and returns its detections.
func (s *DetectorSource) Next(ctx context.Context) (Frame, error) {
	img, err := s.read(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("read frame %d: %w", s.next, err)
	}
	dets, err := s.detector.Detect(ctx, img)
	if err != nil {
		return Frame{}, fmt.Errorf("detect frame %d: %w", s.next, err)
	}
	frame := Frame{Index: s.next, Timestamp: s.now(), Detections: dets}
	s.next++
	return frame, nil
}

// MockDetector returns canned detections, one slice per call, for tests and
// dev mode. Once exhausted it returns no detections.
type MockDetector struct {
	frames [][]Detection
	calls  int
}

// NewMockDetector creates a MockDetector that replays frames in order.
func NewMockDetector(frames [][]Detection) *MockDetector {
	return &MockDetector{frames: frames}
}

// Detect ignores img and returns the next canned frame.
func (m *MockDetector) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.calls >= len(m.frames) {
		return nil, nil
	}
	out := m.frames[m.calls]
	m.calls++
	return out, nil
}

// Calls returns how many canned frames have been handed out.
func (m *MockDetector) Calls() int { return m.calls }
