package monitor

import (
	"sync"

	"github.com/rileyhilliard/dbmon/internal/api"
)

// DefaultHistorySize is the number of status samples kept per gauge.
// At the 30s status cadence that is one hour.
const DefaultHistorySize = 120

// Gauge names a status metric with a sparkline history.
type Gauge int

const (
	GaugeCPU Gauge = iota
	GaugeMemory
	GaugeDisk
	GaugeResponseTime
	gaugeCount
)

// String returns the card label for the gauge.
func (g Gauge) String() string {
	switch g {
	case GaugeCPU:
		return "CPU"
	case GaugeMemory:
		return "Memory"
	case GaugeDisk:
		return "Disk"
	case GaugeResponseTime:
		return "Response"
	default:
		return "unknown"
	}
}

// value reads the gauge from a status snapshot.
func (g Gauge) value(s api.StatusSnapshot) float64 {
	switch g {
	case GaugeCPU:
		return s.CPU
	case GaugeMemory:
		return s.Memory
	case GaugeDisk:
		return s.DiskSpace
	case GaugeResponseTime:
		return s.ResponseTime
	default:
		return 0
	}
}

// History keeps recent status samples in ring buffers so the status card
// can draw a trend next to each gauge. It is safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	size    int
	buffers [gaugeCount]*ringBuffer
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

// NewHistory creates a history holding size samples per gauge.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	h := &History{size: size}
	for i := range h.buffers {
		h.buffers[i] = newRingBuffer(size)
	}
	return h
}

// Push records one status snapshot.
func (h *History) Push(s api.StatusSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for g := Gauge(0); g < gaugeCount; g++ {
		h.buffers[g].push(g.value(s))
	}
}

// Get returns up to count samples of g, oldest first.
func (h *History) Get(g Gauge, count int) []float64 {
	if g < 0 || g >= gaugeCount {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.buffers[g].getLast(count)
}

// Count returns the number of samples recorded (capped at the history size).
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.buffers[GaugeCPU].count
}

// Clear drops every sample. Called when a new session starts.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.buffers {
		h.buffers[i] = newRingBuffer(h.size)
	}
}

// newRingBuffer creates a new ring buffer with the specified capacity.
func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]float64, size),
		size: size,
	}
}

// push adds a value to the ring buffer.
func (r *ringBuffer) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// getLast returns the last count values in chronological order (oldest first).
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}
	if count > r.count {
		count = r.count
	}

	// head is the next write position, so the newest value sits at head-1.
	result := make([]float64, count)
	start := (r.head - count + r.size) % r.size
	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}
	return result
}
