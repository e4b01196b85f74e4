package app

import (
	"context"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/stripd/internal/command"
	"github.com/dokzlo13/stripd/internal/config"
	"github.com/dokzlo13/stripd/internal/db"
	"github.com/dokzlo13/stripd/internal/eventbus"
	"github.com/dokzlo13/stripd/internal/state"
	"github.com/dokzlo13/stripd/internal/strip"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Strip and the state that owns it
	Driver      strip.Driver
	driverClose io.Closer
	State       *state.ColorState
	Dispatcher  *command.Dispatcher

	// Core infrastructure
	Bus *eventbus.Bus
	DB  *db.DB

	// High-level services
	Server    *ServerService
	Ledger    *LedgerService
	Health    *HealthService
	Discovery *DiscoveryService
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	driver, closer, err := strip.Open(strip.Options{
		Kind:    cfg.Strip.Driver,
		NumLEDs: cfg.Strip.NumLEDs,
		Device:  cfg.Strip.Device,
		Order:   cfg.Strip.Order,
	})
	if err != nil {
		return nil, err
	}
	s.Driver = driver
	s.driverClose = closer
	log.Info().
		Str("driver", cfg.Strip.Driver).
		Int("pin", cfg.Strip.Pin).
		Int("leds", cfg.Strip.NumLEDs).
		Int("step", cfg.Strip.Step).
		Msg("Strip configured")

	s.State = state.NewColorState(driver, cfg.Strip.Step)
	s.Dispatcher = command.NewDispatcher(s.State)

	s.Bus = eventbus.NewWithConfig(cfg.EventBus.Workers, cfg.EventBus.QueueSize)

	// The ledger is the only consumer of the database
	if cfg.Ledger.Enabled {
		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.DB = database
		s.Ledger = NewLedgerService(cfg, database.DB, s.Bus)
	}

	s.Server = NewServerService(cfg, s.Dispatcher, s.Bus)
	s.Health = NewHealthService(cfg, s.Server.Listening)
	s.Discovery = NewDiscoveryService(cfg)

	return s, nil
}

// Start starts all services in the correct order.
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	// Blank the strip before taking commands
	if err := s.State.TurnOff(); err != nil {
		log.Warn().Err(err).Msg("Failed to blank strip at startup")
	}

	if s.Ledger != nil {
		s.Ledger.Start(ctx)
	}

	// Bind failure is fatal
	if err := s.Server.Start(ctx, onFatalError); err != nil {
		return err
	}

	s.Health.Start(ctx)
	s.Discovery.Start(s.Server.Port())

	return nil
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	s.Close()
	return nil
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Discovery != nil {
		s.Discovery.Close()
	}
	// The server goroutine owns the strip; wait for it before closing the device
	if s.Server != nil {
		s.Server.Wait(s.cfg.ShutdownTimeout.Duration())
	}
	if s.Bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
		s.Bus.Close(ctx)
		cancel()
	}
	if s.DB != nil {
		s.DB.Close()
	}
	if s.driverClose != nil {
		if err := s.driverClose.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close strip device")
		}
	}
}
