package pipeline

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/distance.report/internal/annotate"
	"github.com/banshee-data/distance.report/internal/config"
	"github.com/banshee-data/distance.report/internal/detection"
	"github.com/banshee-data/distance.report/internal/testutil"
	"github.com/banshee-data/distance.report/internal/timeutil"
	"github.com/banshee-data/distance.report/internal/units"
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	opts := OptionsFromConfig(config.DefaultMonitorConfig())
	opts.Clock = timeutil.NewSteppingMockClock(testEpoch, time.Millisecond)
	return opts
}

func newTestProcessor(t *testing.T, mutate func(*Options)) *Processor {
	t.Helper()
	opts := testOptions()
	if mutate != nil {
		mutate(&opts)
	}
	p, err := NewProcessor(opts)
	require.NoError(t, err)
	return p
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.EmptyMonitorConfig())
	assert.Equal(t, Options{
		BoxWindow:       5,
		SizeWindow:      5,
		Smoothing:       true,
		Threshold:       200,
		MinConfidence:   0.3,
		DistanceUnit:    units.CM,
		MaxMissedFrames: 30,
	}, opts)
}

func TestNewProcessorRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero threshold", func(o *Options) { o.Threshold = 0 }},
		{"zero box window", func(o *Options) { o.BoxWindow = 0 }},
		{"negative size window", func(o *Options) { o.SizeWindow = -1 }},
		{"confidence above one", func(o *Options) { o.MinConfidence = 1.1 }},
		{"negative missed frames", func(o *Options) { o.MaxMissedFrames = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mutate(&opts)
			_, err := NewProcessor(opts)
			assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
		})
	}
}

func TestProcessFlagsCloseIndividuals(t *testing.T) {
	p := newTestProcessor(t, nil)

	res, err := p.Process(detection.Frame{
		Index:     4,
		Timestamp: testEpoch,
		Detections: []detection.Detection{
			testutil.Person("a", 100, 200, 300),
			testutil.Person("b", 180, 200, 300),
			testutil.Person("c", 600, 200, 300),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Index)
	assert.Equal(t, []int{0, 1}, res.Violations.Sorted())
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, 80.0, res.Pairs[0].Distance)
	assert.Equal(t, "Social Distancing Violations: 2", res.Summary)
	require.Len(t, res.Annotations, 3)
	assert.Equal(t, annotate.Violating, res.Annotations[0].State)
	assert.Equal(t, annotate.Violating, res.Annotations[1].State)
	assert.Equal(t, annotate.Normal, res.Annotations[2].State)
	assert.Equal(t, "Depth: 300 cm", res.Annotations[2].Label)
	assert.Empty(t, res.Warning)
	assert.Equal(t, time.Millisecond, res.Latency)
}

func TestProcessConfidenceGateBeforeIndexing(t *testing.T) {
	p := newTestProcessor(t, nil)

	weak := testutil.Person("weak", 110, 200, 300)
	weak.Confidence = 0.1

	res, err := p.Process(detection.Frame{Detections: []detection.Detection{
		testutil.Person("a", 100, 200, 300),
		weak,
		testutil.Person("b", 900, 200, 300),
	}})
	require.NoError(t, err)

	// The weak detection is dropped, so its near-neighbour is not flagged
	// and the remaining indices are renumbered.
	require.Len(t, res.Detections, 2)
	assert.Equal(t, "b", res.Detections[1].Key)
	assert.Equal(t, 0, res.Violations.Len())
}

func TestProcessSmoothsKeyedDetections(t *testing.T) {
	p := newTestProcessor(t, func(o *Options) { o.BoxWindow = 2; o.SizeWindow = 2 })

	_, err := p.Process(detection.Frame{Detections: []detection.Detection{testutil.Person("a", 100, 200, 300)}})
	require.NoError(t, err)

	res, err := p.Process(detection.Frame{Detections: []detection.Detection{
		testutil.Person("a", 120, 200, 300),
		testutil.Person("", 400, 200, 300),
	}})
	require.NoError(t, err)

	// Keyed: averaged with the previous frame's box.
	assert.Equal(t, detection.BoundingBox{X1: 90, Y1: 150, X2: 130, Y2: 250}, res.Boxes[0])
	assert.Equal(t, res.Boxes[0], res.Annotations[0].Box)
	assert.Equal(t, [2]float64{40, 100}, res.Sizes[0])
	// Unkeyed: raw box.
	assert.Equal(t, res.Detections[1].Box, res.Boxes[1])
	assert.Equal(t, []string{"a"}, p.TrackedKeys())
}

func TestProcessSmoothingDisabled(t *testing.T) {
	p := newTestProcessor(t, func(o *Options) { o.Smoothing = false })

	for _, x := range []float64{100, 140} {
		res, err := p.Process(detection.Frame{Detections: []detection.Detection{testutil.Person("a", x, 200, 300)}})
		require.NoError(t, err)
		assert.Equal(t, res.Detections[0].Box, res.Boxes[0])
	}
	assert.Empty(t, p.TrackedKeys())
}

func TestProcessDuplicateKeyNotSmoothedTwice(t *testing.T) {
	logs := testutil.CaptureLogs(t)
	p := newTestProcessor(t, nil)

	res, err := p.Process(detection.Frame{Index: 9, Detections: []detection.Detection{
		testutil.Person("a", 100, 200, 300),
		testutil.Person("a", 700, 200, 300),
	}})
	require.NoError(t, err)
	assert.Equal(t, res.Detections[1].Box, res.Boxes[1])

	lines := logs.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `duplicate key "a"`)
}

func TestProcessInvalidCentroidSkipsAnalysis(t *testing.T) {
	logs := testutil.CaptureLogs(t)
	p := newTestProcessor(t, nil)

	bad := testutil.Person("b", 100, 200, 300)
	bad.Centroid = r3.Vec{X: 100, Y: 200, Z: math.NaN()}

	res, err := p.Process(detection.Frame{Index: 2, Detections: []detection.Detection{
		testutil.Person("a", 100, 200, 300),
		bad,
	}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Violations.Len())
	assert.NotEmpty(t, res.Warning)
	require.Len(t, res.Annotations, 2)
	assert.Equal(t, annotate.Normal, res.Annotations[0].State)

	lines := logs.Lines()
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "warning: frame 2"), lines[0])

	// The next frame is analysed normally.
	res, err = p.Process(detection.Frame{Index: 3, Detections: []detection.Detection{
		testutil.Person("a", 100, 200, 300),
		testutil.Person("b", 150, 200, 300),
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Violations.Len())
	assert.Empty(t, res.Warning)
}

func TestProcessExpiresMissingKeys(t *testing.T) {
	p := newTestProcessor(t, func(o *Options) { o.MaxMissedFrames = 2 })

	frame := func(keys ...string) detection.Frame {
		var dets []detection.Detection
		for i, k := range keys {
			dets = append(dets, testutil.Person(k, float64(100+i*500), 200, 300))
		}
		return detection.Frame{Detections: dets}
	}

	for _, f := range []detection.Frame{frame("a", "b"), frame("a"), frame("a")} {
		_, err := p.Process(f)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b"}, p.TrackedKeys())

	_, err := p.Process(frame("a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, p.TrackedKeys())
}

func TestProcessKeepsKeysWhenExpiryDisabled(t *testing.T) {
	p := newTestProcessor(t, func(o *Options) { o.MaxMissedFrames = 0 })

	_, err := p.Process(detection.Frame{Detections: []detection.Detection{testutil.Person("a", 100, 200, 300)}})
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		_, err := p.Process(detection.Frame{})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a"}, p.TrackedKeys())
}

func TestProcessEmptyFrame(t *testing.T) {
	p := newTestProcessor(t, nil)

	res, err := p.Process(detection.Frame{Index: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Violations.Len())
	assert.Empty(t, res.Annotations)
	assert.Equal(t, "Social Distancing Violations: 0", res.Summary)
}
