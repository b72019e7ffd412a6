package dedup

import "sync"

// Watermarks records the last observed createdAt per dialog. It is a
// last-write marker, not a running maximum: a late-arriving message with an
// older timestamp moves the watermark backwards. Used only for out-of-order
// detection, never for ordering enforcement.
type Watermarks struct {
	mu   sync.Mutex
	last map[string]int64
}

// NewWatermarks creates an empty watermark map.
func NewWatermarks() *Watermarks {
	return &Watermarks{last: make(map[string]int64)}
}

// Get returns the dialog's watermark, or 0 if none was recorded.
func (w *Watermarks) Get(dialogID string) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last[dialogID]
}

// Set overwrites the dialog's watermark unconditionally.
func (w *Watermarks) Set(dialogID string, createdAt int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last[dialogID] = createdAt
}
