// Package smoothing reduces frame-to-frame jitter in detector output by
// averaging each tracked quantity over a short sliding window.
//
// Responsibilities: the fixed-capacity SlidingWindowFilter, its box and size
// specialisations, and FilterBank, which associates caller-supplied entity
// keys with independent filters.
// Key types: SlidingWindowFilter, BoundingBoxSmoother, SizeAverageFilter.
//
// Filters are owned by a single stream and are not safe for concurrent use.
package smoothing
