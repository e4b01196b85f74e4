package command

import (
	"errors"
	"testing"

	"github.com/dokzlo13/stripd/internal/request"
	"github.com/dokzlo13/stripd/internal/state"
	"github.com/dokzlo13/stripd/internal/strip"
)

func newDispatcher() (*Dispatcher, *state.ColorState) {
	s := state.NewColorState(strip.NewMemoryDriver(4), 2)
	return NewDispatcher(s), s
}

func dispatch(d *Dispatcher, raw string) (string, Result) {
	return d.Dispatch(request.Parse([]byte(raw)))
}

func TestDispatch_Routes(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantRoute string
		wantBody  string
	}{
		{"on", "POST /on HTTP/1.1\r\n\r\n", RouteOn, `{"status":"ok"}`},
		{"off", "POST /off HTTP/1.1\r\n\r\n", RouteOff, `{"status":"ok"}`},
		{"color", "POST /color?v=255.100.0 HTTP/1.1\r\n\r\n", RouteColor, `{"status":"ok"}`},
		{"brightness", "POST /brightness?v=150 HTTP/1.1\r\n\r\n", RouteBrightness, `{"status":"ok"}`},
		{"color_missing", "POST /color HTTP/1.1\r\n\r\n", RouteColor,
			`{"status":"error","message":"Missing color value. Use ?v=R.G.B"}`},
		{"color_empty", "POST /color?v= HTTP/1.1\r\n\r\n", RouteColor,
			`{"status":"error","message":"Missing color value. Use ?v=R.G.B"}`},
		{"color_garbage", "POST /color?v=abc HTTP/1.1\r\n\r\n", RouteColor,
			`{"status":"error","message":"Invalid color format. Use ?v=R.G.B"}`},
		{"color_two_parts", "POST /color?v=1.2 HTTP/1.1\r\n\r\n", RouteColor,
			`{"status":"error","message":"Invalid color format. Use ?v=R.G.B"}`},
		{"color_four_parts", "POST /color?v=1.2.3.4 HTTP/1.1\r\n\r\n", RouteColor,
			`{"status":"error","message":"Invalid color format. Use ?v=R.G.B"}`},
		{"brightness_missing", "POST /brightness HTTP/1.1\r\n\r\n", RouteBrightness,
			`{"status":"error","message":"Missing brightness. Use ?v=NNN"}`},
		{"brightness_garbage", "POST /brightness?v=bright HTTP/1.1\r\n\r\n", RouteBrightness,
			`{"status":"error","message":"Invalid brightness. Use ?v=NNN"}`},
		{"unknown", "GET /unknown HTTP/1.1\r\n\r\n", RouteNone,
			`{"status":"not_found","message":"Endpoint not found"}`},
		{"get_on", "GET /on HTTP/1.1\r\n\r\n", RouteNone,
			`{"status":"not_found","message":"Endpoint not found"}`},
		{"empty", "", RouteNone, `{"status":"not_found","message":"Endpoint not found"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newDispatcher()
			route, res := dispatch(d, tt.raw)
			if route != tt.wantRoute {
				t.Errorf("route = %q, want %q", route, tt.wantRoute)
			}
			if got := string(res.JSON()); got != tt.wantBody {
				t.Errorf("payload = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

func TestDispatch_ColorMutatesState(t *testing.T) {
	d, s := newDispatcher()
	_ = s.SetBrightness(42)

	_, res := dispatch(d, "POST /color?v=255.100.0 HTTP/1.1")
	if res.Status != StatusOK {
		t.Fatalf("status = %s", res.Status)
	}
	if got := s.BaseColor(); got != (strip.Color{R: 255, G: 100, B: 0}) {
		t.Errorf("BaseColor() = %v", got)
	}
	if s.Brightness() != 42 {
		t.Errorf("Brightness() = %d, want 42", s.Brightness())
	}
}

func TestDispatch_LeadingEmptyLinesIgnored(t *testing.T) {
	d, s := newDispatcher()

	route, res := dispatch(d, "\r\nPOST /on HTTP/1.1\r\n\r\n")
	if route != RouteOn || res.Status != StatusOK {
		t.Fatalf("route = %q, payload = %s", route, res.JSON())
	}
	if s.Brightness() != state.DefaultOnBrightness {
		t.Errorf("Brightness() = %d, want %d", s.Brightness(), state.DefaultOnBrightness)
	}
}

func TestDispatch_ColorClampsOutOfRange(t *testing.T) {
	d, s := newDispatcher()
	_, res := dispatch(d, "POST /color?v=300.-10.128 HTTP/1.1")
	if res.Status != StatusOK {
		t.Fatalf("status = %s", res.Status)
	}
	if got := s.BaseColor(); got != (strip.Color{R: 255, G: 0, B: 128}) {
		t.Errorf("BaseColor() = %v, want (255,0,128)", got)
	}
}

func TestDispatch_HugeIntegersSaturate(t *testing.T) {
	d, s := newDispatcher()
	_, res := dispatch(d, "POST /brightness?v=99999999999999999999999 HTTP/1.1")
	if res.Status != StatusOK {
		t.Fatalf("status = %s", res.Status)
	}
	if s.Brightness() != 255 {
		t.Errorf("Brightness() = %d, want 255", s.Brightness())
	}
}

func TestDispatch_OnOff(t *testing.T) {
	d, s := newDispatcher()
	dispatch(d, "POST /on HTTP/1.1")
	if s.BaseColor() != state.DefaultOnColor || s.Brightness() != state.DefaultOnBrightness {
		t.Errorf("after on: %v/%d", s.BaseColor(), s.Brightness())
	}
	dispatch(d, "POST /off HTTP/1.1")
	if s.BaseColor() != strip.Black || s.Brightness() != 0 {
		t.Errorf("after off: %v/%d", s.BaseColor(), s.Brightness())
	}
}

func TestDispatch_FailedCommandLeavesState(t *testing.T) {
	d, s := newDispatcher()
	_ = s.SetColor(1, 2, 3)
	dispatch(d, "POST /color?v=9.9 HTTP/1.1")
	if s.BaseColor() != (strip.Color{R: 1, G: 2, B: 3}) {
		t.Errorf("malformed command changed state: %v", s.BaseColor())
	}
}

func TestParseColor_Errors(t *testing.T) {
	tests := []struct {
		raw  string
		want error
	}{
		{"POST /color HTTP/1.1", ErrParamMissing},
		{"POST /color?v= HTTP/1.1", ErrParamMissing},
		{"POST /color?v=a.b.c HTTP/1.1", ErrParamMalformed},
		{"POST /color?v=1..3 HTTP/1.1", ErrParamMalformed},
	}
	for _, tt := range tests {
		_, _, _, err := ParseColor(request.Parse([]byte(tt.raw)))
		if !errors.Is(err, tt.want) {
			t.Errorf("ParseColor(%q) error = %v, want %v", tt.raw, err, tt.want)
		}
	}
}

type failingDriver struct{ *strip.MemoryDriver }

func (failingDriver) Flush() error { return errors.New("spi write failed") }

func TestDispatch_DriverFailure(t *testing.T) {
	s := state.NewColorState(failingDriver{strip.NewMemoryDriver(2)}, 1)
	d := NewDispatcher(s)
	_, res := dispatch(d, "POST /on HTTP/1.1")
	if res.Status != StatusError || res.Message != MsgStripFailed {
		t.Errorf("result = %+v, want strip failure", res)
	}
}
