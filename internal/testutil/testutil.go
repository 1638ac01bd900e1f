// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"fmt"
	"sync"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/distance.report/internal/detection"
	"github.com/banshee-data/distance.report/internal/monitoring"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Person builds a confident detection centred on (x, y) at the given depth
// with a 40x100 pixel box.
func Person(key string, x, y, depth float64) detection.Detection {
	return detection.Detection{
		Confidence: 0.9,
		Box:        detection.BoundingBox{X1: x - 20, Y1: y - 50, X2: x + 20, Y2: y + 50},
		Centroid:   r3.Vec{X: x, Y: y, Z: depth},
		Key:        key,
	}
}

// LogCapture collects formatted monitoring output.
type LogCapture struct {
	mu    sync.Mutex
	lines []string
}

// Lines returns a copy of the captured lines.
func (c *LogCapture) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// CaptureLogs redirects monitoring.Logf for the duration of the test.
func CaptureLogs(t *testing.T) *LogCapture {
	t.Helper()
	c := &LogCapture{}
	orig := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.lines = append(c.lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.Logf = orig })
	return c
}
