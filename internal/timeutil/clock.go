// Package timeutil provides a testable abstraction over wall-clock reads.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides an abstraction over time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration since t.
	Since(t time.Time) time.Duration
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// MockClock is a manually controlled clock for testing.
// Each call to Now may advance the clock by a fixed step so that
// consecutive reads inside one frame yield a measurable latency.
type MockClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewMockClock creates a new MockClock set to the given time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// NewSteppingMockClock creates a MockClock that advances by step after every Now.
func NewSteppingMockClock(t time.Time, step time.Duration) *MockClock {
	return &MockClock{now: t, step: step}
}

// Now returns the mocked current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Set sets the mock clock to a specific time.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the mock clock forward by the given duration.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Since returns the duration between t and the current mocked time
// without stepping the clock.
func (c *MockClock) Since(t time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Sub(t)
}
