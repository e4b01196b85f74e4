// Package state holds the desired strip state and turns it into pixels.
package state

import (
	"fmt"

	"github.com/dokzlo13/stripd/internal/strip"
)

// Presets applied by TurnOn
var (
	DefaultOnColor      = strip.Color{R: 250, G: 110, B: 40}
	DefaultOnBrightness = 130
)

// Snapshot is an immutable copy of the state, safe to hand to other goroutines.
type Snapshot struct {
	Base       strip.Color `json:"base"`
	Brightness int         `json:"brightness"`
	Scaled     strip.Color `json:"scaled"`
}

// ColorState owns the base color and brightness of the strip. Every mutation
// rebuilds the full pixel buffer and flushes it to the driver.
//
// ColorState is not safe for concurrent use; it has exactly one owner.
type ColorState struct {
	driver     strip.Driver
	step       int
	base       strip.Color
	brightness int
}

// NewColorState creates a dark state for the given driver. Every step-th pixel,
// starting at 0, is lit.
func NewColorState(driver strip.Driver, step int) *ColorState {
	if step < 1 {
		step = 1
	}
	return &ColorState{driver: driver, step: step}
}

// SetColor replaces the base color, keeping brightness.
func (s *ColorState) SetColor(r, g, b int) error {
	s.base = strip.Color{R: clamp(r), G: clamp(g), B: clamp(b)}
	return s.Recompute()
}

// SetBrightness replaces the brightness, keeping the base color.
func (s *ColorState) SetBrightness(v int) error {
	s.brightness = int(clamp(v))
	return s.Recompute()
}

// TurnOn applies the warm default color at the default brightness.
func (s *ColorState) TurnOn() error {
	s.base = DefaultOnColor
	s.brightness = DefaultOnBrightness
	return s.Recompute()
}

// TurnOff zeroes both color and brightness.
func (s *ColorState) TurnOff() error {
	s.base = strip.Black
	s.brightness = 0
	return s.Recompute()
}

// Recompute clears the strip, lights every step-th pixel with the scaled
// color and flushes.
func (s *ColorState) Recompute() error {
	scaled := s.ScaledColor()
	if err := s.driver.Fill(strip.Black); err != nil {
		return fmt.Errorf("failed to clear strip: %w", err)
	}
	n := s.driver.Len()
	for i := 0; i < n; i += s.step {
		if err := s.driver.SetPixel(i, scaled); err != nil {
			return fmt.Errorf("failed to set pixel %d: %w", i, err)
		}
	}
	if err := s.driver.Flush(); err != nil {
		return fmt.Errorf("failed to flush strip: %w", err)
	}
	return nil
}

// BaseColor returns the unscaled color.
func (s *ColorState) BaseColor() strip.Color {
	return s.base
}

// Brightness returns the brightness in [0,255].
func (s *ColorState) Brightness() int {
	return s.brightness
}

// ScaledColor returns the base color with brightness applied, truncated per channel.
func (s *ColorState) ScaledColor() strip.Color {
	return strip.Color{
		R: scale(s.base.R, s.brightness),
		G: scale(s.base.G, s.brightness),
		B: scale(s.base.B, s.brightness),
	}
}

// Buffer returns the pixel buffer the current state maps to.
func (s *ColorState) Buffer() []strip.Color {
	buf := make([]strip.Color, s.driver.Len())
	scaled := s.ScaledColor()
	for i := 0; i < len(buf); i += s.step {
		buf[i] = scaled
	}
	return buf
}

// Snapshot copies the current state.
func (s *ColorState) Snapshot() Snapshot {
	return Snapshot{
		Base:       s.base,
		Brightness: s.brightness,
		Scaled:     s.ScaledColor(),
	}
}

func scale(c uint8, brightness int) uint8 {
	return uint8(float64(c) * (float64(brightness) / 255.0))
}

func clamp(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
