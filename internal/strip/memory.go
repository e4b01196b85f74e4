package strip

import (
	"fmt"
	"sync"
)

// MemoryDriver keeps pixels in memory. It backs dry runs and tests.
type MemoryDriver struct {
	mu      sync.Mutex
	pending []Color
	shown   []Color
	flushes int
}

// NewMemoryDriver creates a driver for n pixels, all dark.
func NewMemoryDriver(n int) *MemoryDriver {
	return &MemoryDriver{
		pending: make([]Color, n),
		shown:   make([]Color, n),
	}
}

func (d *MemoryDriver) Len() int {
	return len(d.pending)
}

func (d *MemoryDriver) SetPixel(i int, c Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.pending) {
		return fmt.Errorf("pixel index %d out of range [0,%d)", i, len(d.pending))
	}
	d.pending[i] = c
	return nil
}

func (d *MemoryDriver) Fill(c Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.pending {
		d.pending[i] = c
	}
	return nil
}

func (d *MemoryDriver) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.shown, d.pending)
	d.flushes++
	return nil
}

// Shown returns a copy of the last flushed frame.
func (d *MemoryDriver) Shown() []Color {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Color, len(d.shown))
	copy(out, d.shown)
	return out
}

// Flushes returns how many times Flush was called.
func (d *MemoryDriver) Flushes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushes
}
