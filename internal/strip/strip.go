// Package strip defines the LED strip driving capability and its implementations.
package strip

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Color is a single RGB pixel value.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Black is the unlit pixel.
var Black = Color{}

func (c Color) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.R, c.G, c.B)
}

// Driver is the primitive that pushes pixels to a physical strip.
// SetPixel and Fill only touch the pending buffer; Flush makes it visible.
type Driver interface {
	SetPixel(i int, c Color) error
	Fill(c Color) error
	Flush() error
	Len() int
}

// Driver kinds accepted by Open
const (
	KindMemory = "memory"
	KindFrame  = "frame"
)

// Options selects and configures a driver
type Options struct {
	Kind    string
	NumLEDs int
	Device  string
	Order   string
}

// Open creates the driver described by opts. The returned closer releases
// the underlying device and is never nil.
func Open(opts Options) (Driver, io.Closer, error) {
	switch strings.ToLower(opts.Kind) {
	case "", KindMemory:
		return NewMemoryDriver(opts.NumLEDs), nopCloser{}, nil
	case KindFrame:
		order, ok := ParseOrder(opts.Order)
		if !ok {
			return nil, nil, fmt.Errorf("unknown channel order %q", opts.Order)
		}
		dev, err := os.OpenFile(opts.Device, os.O_WRONLY, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open strip device: %w", err)
		}
		return NewFrameDriver(dev, opts.NumLEDs, order), dev, nil
	default:
		return nil, nil, fmt.Errorf("unknown strip driver %q", opts.Kind)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
