package state

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dokzlo13/stripd/internal/strip"
)

func newTestState(n, step int) (*ColorState, *strip.MemoryDriver) {
	d := strip.NewMemoryDriver(n)
	return NewColorState(d, step), d
}

func TestSetColor_Clamps(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b int
		want    strip.Color
	}{
		{"in_range", 10, 20, 30, strip.Color{R: 10, G: 20, B: 30}},
		{"mixed", 300, -10, 128, strip.Color{R: 255, G: 0, B: 128}},
		{"all_high", 1000, 256, 255, strip.Color{R: 255, G: 255, B: 255}},
		{"all_low", -1, -255, 0, strip.Color{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestState(4, 1)
			if err := s.SetBrightness(77); err != nil {
				t.Fatalf("SetBrightness() error = %v", err)
			}
			if err := s.SetColor(tt.r, tt.g, tt.b); err != nil {
				t.Fatalf("SetColor() error = %v", err)
			}
			if got := s.BaseColor(); got != tt.want {
				t.Errorf("BaseColor() = %v, want %v", got, tt.want)
			}
			if s.Brightness() != 77 {
				t.Errorf("Brightness() = %d, want 77 (preserved)", s.Brightness())
			}
		})
	}
}

func TestSetBrightness_Clamps(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{128, 128},
		{255, 255},
		{999, 255},
	}
	for _, tt := range tests {
		s, _ := newTestState(2, 1)
		_ = s.SetColor(1, 2, 3)
		if err := s.SetBrightness(tt.in); err != nil {
			t.Fatalf("SetBrightness(%d) error = %v", tt.in, err)
		}
		if s.Brightness() != tt.want {
			t.Errorf("SetBrightness(%d) stored %d, want %d", tt.in, s.Brightness(), tt.want)
		}
		if s.BaseColor() != (strip.Color{R: 1, G: 2, B: 3}) {
			t.Errorf("SetBrightness(%d) changed base color to %v", tt.in, s.BaseColor())
		}
	}
}

func TestTurnOn_ScaledDefault(t *testing.T) {
	s, _ := newTestState(1, 1)
	if err := s.TurnOn(); err != nil {
		t.Fatalf("TurnOn() error = %v", err)
	}
	if s.BaseColor() != DefaultOnColor || s.Brightness() != DefaultOnBrightness {
		t.Errorf("TurnOn() state = %v/%d", s.BaseColor(), s.Brightness())
	}
	want := strip.Color{R: 127, G: 56, B: 20}
	if got := s.ScaledColor(); got != want {
		t.Errorf("ScaledColor() = %v, want %v", got, want)
	}
}

func TestBuffer_StepPattern(t *testing.T) {
	s, d := newTestState(10, 3)
	_ = s.SetColor(200, 100, 50)
	if err := s.SetBrightness(255); err != nil {
		t.Fatal(err)
	}
	scaled := s.ScaledColor()
	buf := s.Buffer()
	if len(buf) != 10 {
		t.Fatalf("len(Buffer()) = %d, want 10", len(buf))
	}
	for i, c := range buf {
		want := strip.Black
		if i%3 == 0 {
			want = scaled
		}
		if c != want {
			t.Errorf("buffer[%d] = %v, want %v", i, c, want)
		}
	}
	if !reflect.DeepEqual(d.Shown(), buf) {
		t.Errorf("flushed frame %v differs from buffer %v", d.Shown(), buf)
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	s, d := newTestState(7, 2)
	_ = s.SetColor(10, 20, 30)
	_ = s.SetBrightness(200)

	if err := s.Recompute(); err != nil {
		t.Fatal(err)
	}
	first := d.Shown()
	if err := s.Recompute(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, d.Shown()) {
		t.Errorf("Recompute not idempotent: %v then %v", first, d.Shown())
	}
}

func TestRecompute_ClearsStalePixels(t *testing.T) {
	d := strip.NewMemoryDriver(4)
	for i := 0; i < 4; i++ {
		_ = d.SetPixel(i, strip.Color{R: 255, G: 255, B: 255})
	}
	s := NewColorState(d, 2)
	_ = s.SetColor(255, 0, 0)
	_ = s.SetBrightness(255)
	shown := d.Shown()
	if shown[1] != strip.Black || shown[3] != strip.Black {
		t.Errorf("off-step pixels not cleared: %v", shown)
	}
}

func TestTurnOff_AllDark(t *testing.T) {
	s, d := newTestState(6, 2)
	_ = s.TurnOn()
	if err := s.TurnOff(); err != nil {
		t.Fatal(err)
	}
	_ = s.Recompute()
	for i, c := range d.Shown() {
		if c != strip.Black {
			t.Errorf("pixel %d = %v after TurnOff", i, c)
		}
	}
	if s.BaseColor() != strip.Black || s.Brightness() != 0 {
		t.Errorf("TurnOff() state = %v/%d", s.BaseColor(), s.Brightness())
	}
}

func TestScaledColor_PureFunctionOfState(t *testing.T) {
	a, _ := newTestState(1, 1)
	_ = a.SetBrightness(10)
	_ = a.SetColor(255, 255, 255)
	_ = a.SetBrightness(90)

	b, _ := newTestState(1, 1)
	_ = b.SetColor(255, 255, 255)
	_ = b.SetBrightness(90)

	if a.ScaledColor() != b.ScaledColor() {
		t.Errorf("scaled color depends on history: %v vs %v", a.ScaledColor(), b.ScaledColor())
	}
}

type brokenDriver struct{ *strip.MemoryDriver }

func (brokenDriver) Flush() error { return errors.New("bus error") }

func TestRecompute_DriverErrorKeepsState(t *testing.T) {
	s := NewColorState(brokenDriver{strip.NewMemoryDriver(2)}, 1)
	if err := s.SetColor(1, 2, 3); err == nil {
		t.Fatal("expected flush error")
	}
	if s.BaseColor() != (strip.Color{R: 1, G: 2, B: 3}) {
		t.Errorf("BaseColor() = %v after failed flush", s.BaseColor())
	}
}
