// Package discovery advertises the controller on the local network via mDNS.
package discovery

import (
	"fmt"
	"strconv"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog/log"
)

const (
	// ServiceType is the mDNS service type the controller advertises.
	// Clients speak a plain HTTP-shaped protocol, so _http._tcp fits.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."
)

// Info is published in the TXT record
type Info struct {
	NumLEDs int
	Step    int
	Pin     int
}

// TXT renders the TXT record entries.
func (i Info) TXT() []string {
	return []string{
		"leds=" + strconv.Itoa(i.NumLEDs),
		"step=" + strconv.Itoa(i.Step),
		"pin=" + strconv.Itoa(i.Pin),
		"path=/",
	}
}

// Advertiser keeps an mDNS registration alive until Shutdown.
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers instance on port on all interfaces.
func Advertise(instance string, port int, info Info) (*Advertiser, error) {
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, info.TXT(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	log.Info().
		Str("instance", instance).
		Str("service", ServiceType).
		Int("port", port).
		Msg("Advertising over mDNS")
	return &Advertiser{server: server}, nil
}

// Shutdown withdraws the registration
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
}
