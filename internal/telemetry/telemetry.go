// Package telemetry is an optional collaborator that persists a run's
// event stream to SQLite for later inspection, following the shape of
// the teacher engine's internal/persistence package (sqlx.Open against
// modernc.org/sqlite, an inline CREATE TABLE IF NOT EXISTS migration, a
// batched Exec inside a transaction). The core never imports this
// package; cmd/vmtrun wires a Sink to a running Scheduler by subscribing
// to its event channel.
package telemetry

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	strftime "github.com/ncruces/go-strftime"
	_ "modernc.org/sqlite"

	"github.com/vmtsim/vmt/internal/vmtcore/sim"
)

// Sink batches a run's events into a SQLite database, one run per
// RunID so multiple runs can share a single database file.
type Sink struct {
	conn  *sqlx.DB
	runID string
}

// Open opens or creates a SQLite database at path and stamps a new
// run_id for this session. If path is empty, the file is named from
// the current time via a strftime pattern (teacher-style default
// naming, since the caller otherwise has to invent one itself).
func Open(path string) (*Sink, error) {
	if path == "" {
		var err error
		path, err = strftime.Format("vmtrun-%Y%m%d-%H%M%S.db", time.Now())
		if err != nil {
			return nil, fmt.Errorf("telemetry: format default db path: %w", err)
		}
	}

	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}

	s := &Sink{conn: conn, runID: uuid.NewString()}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("telemetry: migrate: %w", err)
	}
	return s, nil
}

// RunID returns the UUID stamped on every event this sink persists.
func (s *Sink) RunID() string { return s.runID }

// Close closes the underlying database connection.
func (s *Sink) Close() error { return s.conn.Close() }

func (s *Sink) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		agent_a INTEGER NOT NULL,
		agent_b INTEGER NOT NULL,
		delta_x INTEGER NOT NULL DEFAULT 0,
		delta_y INTEGER NOT NULL DEFAULT 0,
		price REAL NOT NULL DEFAULT 0,
		reason TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	`
	if _, err := s.conn.Exec(schema); err != nil {
		return err
	}
	_, err := s.conn.Exec(
		"INSERT INTO runs (run_id, started_at) VALUES (?, ?)",
		s.runID, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Drain reads events off ch until it is closed, flushing them to SQLite
// in fixed-size batches inside a transaction (same batching shape as
// the teacher's SaveEvents). Intended to run in its own goroutine for
// the lifetime of a Scheduler.Subscribe() channel. Stops and returns the
// error as soon as a flush fails; otherwise returns once ch closes and the
// final partial batch is flushed.
func (s *Sink) Drain(ch <-chan sim.Event) error {
	const batchSize = 256
	batch := make([]sim.Event, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		tx, err := s.conn.Beginx()
		if err != nil {
			return err
		}
		defer tx.Rollback()
		for _, e := range batch {
			if _, err := tx.Exec(
				"INSERT INTO events (run_id, tick, category, description, agent_a, agent_b, delta_x, delta_y, price, reason) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
				s.runID, e.Tick, e.Category, e.Description, e.AgentA, e.AgentB, e.DeltaX, e.DeltaY, e.Price, e.Reason,
			); err != nil {
				return err
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for e := range ch {
		batch = append(batch, e)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
