package pipeline

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// StreamRegistry hands out one independent Processor per video stream.
// The registry itself is safe for concurrent use; each Processor is not and
// must stay with the goroutine that reads its stream.
type StreamRegistry struct {
	mu      sync.Mutex
	opts    Options
	streams map[uuid.UUID]*Processor
}

// NewStreamRegistry validates opts once by building a probe Processor.
func NewStreamRegistry(opts Options) (*StreamRegistry, error) {
	if _, err := NewProcessor(opts); err != nil {
		return nil, err
	}
	return &StreamRegistry{opts: opts, streams: make(map[uuid.UUID]*Processor)}, nil
}

// Open creates a fresh Processor with its own smoothing history.
func (r *StreamRegistry) Open() (uuid.UUID, *Processor, error) {
	p, err := NewProcessor(r.opts)
	if err != nil {
		return uuid.Nil, nil, err
	}
	id := uuid.New()

	r.mu.Lock()
	r.streams[id] = p
	r.mu.Unlock()
	return id, p, nil
}

// Get returns the Processor for id.
func (r *StreamRegistry) Get(id uuid.UUID) (*Processor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.streams[id]
	return p, ok
}

// Close discards the stream and its history.
func (r *StreamRegistry) Close(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.streams[id]; !ok {
		return fmt.Errorf("stream %s not open", id)
	}
	delete(r.streams, id)
	return nil
}

// Len returns the number of open streams.
func (r *StreamRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}
