// Package pipeline runs the per-frame distancing flow for one video stream:
// confidence gate, optional keyed smoothing, proximity analysis and
// annotation.
//
// A Processor owns its smoothing history and must be driven by a single
// goroutine. StreamRegistry hands out one independent Processor per stream.
package pipeline
