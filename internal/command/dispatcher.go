// Package command maps parsed requests onto color state mutations.
package command

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/stripd/internal/request"
	"github.com/dokzlo13/stripd/internal/state"
)

// Failures recovered inside the dispatcher. They surface only as payloads.
var (
	ErrParamMissing   = errors.New("parameter missing")
	ErrParamMalformed = errors.New("parameter malformed")
	ErrUnknownRoute   = errors.New("unknown route")
)

// Payload messages
const (
	MsgMissingColor      = "Missing color value. Use ?v=R.G.B"
	MsgInvalidColor      = "Invalid color format. Use ?v=R.G.B"
	MsgMissingBrightness = "Missing brightness. Use ?v=NNN"
	MsgInvalidBrightness = "Invalid brightness. Use ?v=NNN"
	MsgStripFailed       = "Strip update failed"
)

// ValueParam is the query parameter carrying command arguments.
const ValueParam = "v"

// Route names, also used in logs and the command ledger
const (
	RouteOn         = "on"
	RouteOff        = "off"
	RouteColor      = "color"
	RouteBrightness = "brightness"
	RouteNone       = "none"
)

type route struct {
	prefix string
	name   string
	handle func(d *Dispatcher, req request.Request) Result
}

// Matched in order against "METHOD target"
var routes = []route{
	{"POST /on", RouteOn, (*Dispatcher).on},
	{"POST /off", RouteOff, (*Dispatcher).off},
	{"POST /color", RouteColor, (*Dispatcher).color},
	{"POST /brightness", RouteBrightness, (*Dispatcher).brightness},
}

// Dispatcher applies commands to the color state it was given.
// It must only be used from the goroutine that owns the state.
type Dispatcher struct {
	state *state.ColorState
}

// NewDispatcher creates a dispatcher mutating s.
func NewDispatcher(s *state.ColorState) *Dispatcher {
	return &Dispatcher{state: s}
}

// Dispatch runs the command named by req and returns its outcome together
// with the matched route name.
func (d *Dispatcher) Dispatch(req request.Request) (string, Result) {
	key := req.Method + " " + req.Target
	for _, r := range routes {
		if strings.HasPrefix(key, r.prefix) {
			return r.name, r.handle(d, req)
		}
	}
	log.Debug().Str("request", req.Line).Err(ErrUnknownRoute).Msg("No route matched")
	return RouteNone, NotFound()
}

func (d *Dispatcher) on(request.Request) Result {
	log.Info().Msg("LED on")
	return d.apply(d.state.TurnOn())
}

func (d *Dispatcher) off(request.Request) Result {
	log.Info().Msg("LED off")
	return d.apply(d.state.TurnOff())
}

func (d *Dispatcher) color(req request.Request) Result {
	r, g, b, err := ParseColor(req)
	if err != nil {
		log.Warn().Err(err).Msg("Invalid color request")
		if errors.Is(err, ErrParamMissing) {
			return Error(MsgMissingColor)
		}
		return Error(MsgInvalidColor)
	}
	log.Info().Int("r", r).Int("g", g).Int("b", b).Msg("Set color")
	return d.apply(d.state.SetColor(r, g, b))
}

func (d *Dispatcher) brightness(req request.Request) Result {
	v, err := ParseBrightness(req)
	if err != nil {
		log.Warn().Err(err).Msg("Invalid brightness request")
		if errors.Is(err, ErrParamMissing) {
			return Error(MsgMissingBrightness)
		}
		return Error(MsgInvalidBrightness)
	}
	log.Info().Int("brightness", v).Msg("Set brightness")
	return d.apply(d.state.SetBrightness(v))
}

func (d *Dispatcher) apply(err error) Result {
	if err != nil {
		log.Error().Err(err).Msg("Failed to update strip")
		return Error(MsgStripFailed)
	}
	return Ok()
}

// ParseColor reads an "R.G.B" value from the request. Channels are returned
// unclamped.
func ParseColor(req request.Request) (r, g, b int, err error) {
	v, err := value(req)
	if err != nil {
		return 0, 0, 0, err
	}
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: want R.G.B, got %d parts in %q", ErrParamMalformed, len(parts), v)
	}
	var ch [3]int
	for i, p := range parts {
		if ch[i], err = parseInt(p); err != nil {
			return 0, 0, 0, err
		}
	}
	return ch[0], ch[1], ch[2], nil
}

// ParseBrightness reads a single integer value from the request.
func ParseBrightness(req request.Request) (int, error) {
	v, err := value(req)
	if err != nil {
		return 0, err
	}
	return parseInt(v)
}

// value returns the non-empty command argument
func value(req request.Request) (string, error) {
	v, ok := req.Param(ValueParam)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrParamMissing, ValueParam)
	}
	return v, nil
}

// parseInt saturates out-of-range integers; they are clamped later anyway.
func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(s, "-") {
			return math.MinInt, nil
		}
		return math.MaxInt, nil
	}
	return 0, fmt.Errorf("%w: %q is not an integer", ErrParamMalformed, s)
}
