// Package detection defines the per-frame person detections consumed by the
// distancing pipeline and the sources that produce them.
//
// The object detector itself is an external collaborator reached through the
// Detector interface. JSONLSource replays recorded detector output so the
// pipeline can run without a model or camera.
// Key types: Detection, BoundingBox, Frame.
package detection
