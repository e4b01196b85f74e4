package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/stripd/internal/config"
	"github.com/dokzlo13/stripd/internal/discovery"
)

// DiscoveryService advertises the command server over mDNS when enabled.
type DiscoveryService struct {
	cfg        *config.Config
	advertiser *discovery.Advertiser
}

// NewDiscoveryService creates a new DiscoveryService.
func NewDiscoveryService(cfg *config.Config) *DiscoveryService {
	return &DiscoveryService{cfg: cfg}
}

// Start registers the service for the given port. Failure is not fatal;
// clients can still connect by address.
func (s *DiscoveryService) Start(port int) {
	if !s.cfg.Discovery.Enabled {
		log.Debug().Msg("mDNS discovery disabled")
		return
	}

	adv, err := discovery.Advertise(s.cfg.Discovery.Instance, port, discovery.Info{
		NumLEDs: s.cfg.Strip.NumLEDs,
		Step:    s.cfg.Strip.Step,
		Pin:     s.cfg.Strip.Pin,
	})
	if err != nil {
		log.Warn().Err(err).Msg("mDNS advertisement failed")
		return
	}
	s.advertiser = adv
}

// Close withdraws the advertisement.
func (s *DiscoveryService) Close() {
	s.advertiser.Shutdown()
}
