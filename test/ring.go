package test

import "fmt"

// RingWriter is an io.Writer that keeps only the most recently written N
// bytes, discarding the oldest bytes once full. Used by tests that want to
// assert on a tail of output without bounding the writer's lifetime.
type RingWriter struct {
	buf   []byte
	limit int
}

// NewRingWriter creates a RingWriter with the given byte capacity.
func NewRingWriter(limit int) (*RingWriter, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("ring writer: limit must be greater than zero")
	}
	return &RingWriter{limit: limit}, nil
}

// Write implements io.Writer.
func (r *RingWriter) Write(p []byte) (int, error) {
	r.buf = append(r.buf, p...)
	if len(r.buf) > r.limit {
		r.buf = r.buf[len(r.buf)-r.limit:]
	}
	return len(p), nil
}

// String returns the current contents of the ring.
func (r *RingWriter) String() string {
	return string(r.buf)
}

// Reset empties the ring.
func (r *RingWriter) Reset() {
	r.buf = r.buf[:0]
}
