package command

import (
	"time"

	"github.com/dokzlo13/stripd/internal/state"
)

// Event describes one dispatched command. It is published on the event bus
// after dispatch and holds only copies, never the live state.
type Event struct {
	RequestID string
	Remote    string
	Route     string
	Result    Result
	State     state.Snapshot
	Time      time.Time
}

// Snapshot copies the state the dispatcher owns.
func (d *Dispatcher) Snapshot() state.Snapshot {
	return d.state.Snapshot()
}
