// Package ledger provides an append-only history of dispatched commands.
// It is an audit trail; nothing in it is used to restore strip state.
package ledger

import (
	"database/sql"
	"time"
)

// Entry represents a single command in the ledger
type Entry struct {
	ID         int64
	RequestID  string
	Timestamp  time.Time
	Route      string
	Status     string
	Message    string
	Remote     string
	Red        int
	Green      int
	Blue       int
	Brightness int
}

// Ledger provides append-only command logging
type Ledger struct {
	db *sql.DB
}

// New creates a new Ledger using the provided database connection
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Append adds a command to the ledger. A zero Timestamp means now.
func (l *Ledger) Append(e Entry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := l.db.Exec(`
		INSERT INTO command_ledger (request_id, timestamp, route, status, message, remote, red, green, blue, brightness)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.RequestID, ts.UTC().Unix(), e.Route, e.Status, e.Message, e.Remote, e.Red, e.Green, e.Blue, e.Brightness)

	return err
}

// Recent returns the newest entries first
func (l *Ledger) Recent(limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, request_id, timestamp, route, status, message, remote, red, green, blue, brightness
		FROM command_ledger
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return l.scanEntries(rows)
}

// CountByStatus returns how many commands ended with each status
func (l *Ledger) CountByStatus() (map[string]int, error) {
	rows, err := l.db.Query(`SELECT status, COUNT(*) FROM command_ledger GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// DeleteOlderThan removes entries older than the specified duration (retention policy)
func (l *Ledger) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	result, err := l.db.Exec(`
		DELETE FROM command_ledger WHERE timestamp < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (l *Ledger) scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var message, remote sql.NullString
		var timestamp int64

		err := rows.Scan(
			&entry.ID, &entry.RequestID, &timestamp, &entry.Route, &entry.Status, &message, &remote,
			&entry.Red, &entry.Green, &entry.Blue, &entry.Brightness,
		)
		if err != nil {
			return nil, err
		}

		entry.Timestamp = time.Unix(timestamp, 0).UTC()
		if message.Valid {
			entry.Message = message.String
		}
		if remote.Valid {
			entry.Remote = remote.String
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
