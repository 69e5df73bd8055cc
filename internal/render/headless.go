package render

import (
	"fmt"
	"sync"
)

// Headless is a presentation surface without a window: it records the most
// recently presented buffer. Used for headless operation and in tests.
type Headless struct {
	mu       sync.Mutex
	width    int
	height   int
	last     []byte
	presents uint64
	closed   bool
}

// NewHeadless creates a headless renderer with the given surface size.
func NewHeadless(width, height int) *Headless {
	return &Headless{width: width, height: height}
}

// Resize reconfigures the surface dimensions.
func (h *Headless) Resize(width, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if width > 0 && height > 0 {
		h.width = width
		h.height = height
	}
}

// UpdateTexture stages the next buffer to present.
func (h *Headless) UpdateTexture(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = append(h.last[:0], data...)
}

// Present commits the staged buffer.
func (h *Headless) Present() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("present on closed renderer: %w", ErrSurfaceLost)
	}
	h.presents++
	return nil
}

// CurrentSize returns the surface dimensions.
func (h *Headless) CurrentSize() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

// TestPattern returns the synthetic pattern at the current surface size.
func (h *Headless) TestPattern() []byte {
	w, hh := h.CurrentSize()
	return TestPattern(w, hh)
}

// Close releases the surface.
func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// LastPresented returns a copy of the most recently staged buffer and the
// number of successful presents.
func (h *Headless) LastPresented() ([]byte, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]byte, len(h.last))
	copy(out, h.last)
	return out, h.presents
}
