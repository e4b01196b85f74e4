package strip

import (
	"fmt"
	"io"
	"strings"
)

// Order is the byte order in which a chip expects the three channels.
type Order int

const (
	GRB Order = iota
	BRG
	BGR
	GBR
	RGB
	RBG
)

var stringOrders = map[string]Order{
	"GRB": GRB,
	"BRG": BRG,
	"BGR": BGR,
	"GBR": GBR,
	"RGB": RGB,
	"RBG": RBG,
}

// offsets[order] gives the byte position of R, G and B within a pixel
var offsets = map[Order][3]int{
	GRB: {1, 0, 2},
	BRG: {1, 2, 0},
	BGR: {2, 1, 0},
	GBR: {2, 0, 1},
	RGB: {0, 1, 2},
	RBG: {0, 2, 1},
}

// ParseOrder maps a name like "GRB" to its Order.
func ParseOrder(s string) (Order, bool) {
	o, ok := stringOrders[strings.ToUpper(s)]
	return o, ok
}

// FrameDriver writes the whole strip as one raw byte frame on every Flush.
type FrameDriver struct {
	w      io.Writer
	order  [3]int
	pixels []Color
	frame  []byte
}

// NewFrameDriver creates a driver for n pixels that writes frames to w.
func NewFrameDriver(w io.Writer, n int, order Order) *FrameDriver {
	return &FrameDriver{
		w:      w,
		order:  offsets[order],
		pixels: make([]Color, n),
		frame:  make([]byte, n*3),
	}
}

func (d *FrameDriver) Len() int {
	return len(d.pixels)
}

func (d *FrameDriver) SetPixel(i int, c Color) error {
	if i < 0 || i >= len(d.pixels) {
		return fmt.Errorf("pixel index %d out of range [0,%d)", i, len(d.pixels))
	}
	d.pixels[i] = c
	return nil
}

func (d *FrameDriver) Fill(c Color) error {
	for i := range d.pixels {
		d.pixels[i] = c
	}
	return nil
}

func (d *FrameDriver) Flush() error {
	for i, p := range d.pixels {
		base := i * 3
		d.frame[base+d.order[0]] = p.R
		d.frame[base+d.order[1]] = p.G
		d.frame[base+d.order[2]] = p.B
	}
	if _, err := d.w.Write(d.frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}
