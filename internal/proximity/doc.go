// Package proximity finds pairs of people standing closer than the
// configured distance threshold in a single frame.
//
// Distances are 3-D Euclidean over (x, y, depth) centroids. Every pair is
// compared, which is fine for the handful of people in one frame; no spatial
// index is used. Nothing is carried between frames.
package proximity
