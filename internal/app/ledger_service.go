package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/stripd/internal/command"
	"github.com/dokzlo13/stripd/internal/config"
	"github.com/dokzlo13/stripd/internal/eventbus"
	"github.com/dokzlo13/stripd/internal/ledger"
)

// LedgerService records command events and prunes old entries.
type LedgerService struct {
	cfg    *config.Config
	Ledger *ledger.Ledger
	bus    *eventbus.Bus
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(cfg *config.Config, db *sql.DB, bus *eventbus.Bus) *LedgerService {
	return &LedgerService{
		cfg:    cfg,
		Ledger: ledger.New(db),
		bus:    bus,
	}
}

// Start subscribes to command events and starts the retention loop.
func (s *LedgerService) Start(ctx context.Context) {
	s.bus.Subscribe(eventbus.EventTypeCommand, s.record)
	go s.runCleanup(ctx)
}

func (s *LedgerService) record(event eventbus.Event) {
	ev, ok := event.Data.(command.Event)
	if !ok {
		log.Warn().Str("event_type", string(event.Type)).Msg("Unexpected command event payload")
		return
	}
	err := s.Ledger.Append(ledger.Entry{
		RequestID:  ev.RequestID,
		Timestamp:  ev.Time,
		Route:      ev.Route,
		Status:     string(ev.Result.Status),
		Message:    ev.Result.Message,
		Remote:     ev.Remote,
		Red:        int(ev.State.Base.R),
		Green:      int(ev.State.Base.G),
		Blue:       int(ev.State.Base.B),
		Brightness: ev.State.Brightness,
	})
	if err != nil {
		log.Error().Err(err).Str("request_id", ev.RequestID).Msg("Failed to record command")
	}
}

// runCleanup periodically cleans up old ledger entries.
func (s *LedgerService) runCleanup(ctx context.Context) {
	retention := s.cfg.Ledger.Retention()
	interval := s.cfg.Ledger.CleanupInterval.Duration()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.Ledger.DeleteOlderThan(retention)
			if err != nil {
				log.Error().Err(err).Msg("Failed to cleanup old ledger entries")
			} else if deleted > 0 {
				log.Info().Int64("deleted", deleted).Dur("retention", retention).Msg("Cleaned up old ledger entries")
			}
		}
	}
}
