package telemetry

import (
	"path/filepath"
	"testing"

	"github.com/vmtsim/vmt/internal/vmtcore/sim"
)

func TestOpenStampsRunIDAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if s.RunID() == "" {
		t.Fatal("expected a non-empty run id")
	}
}

func TestDrainFlushesOnChannelClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	ch := make(chan sim.Event, 4)
	ch <- sim.Event{Tick: 0, Category: "tick_started", Description: "forage"}
	ch <- sim.Event{Tick: 0, Category: "trade", Description: "A_for_B", AgentA: 1, AgentB: 2}
	close(ch)

	if err := s.Drain(ch); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	var count int
	if err := s.conn.Get(&count, "SELECT COUNT(*) FROM events WHERE run_id = ?", s.RunID()); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 2 {
		t.Errorf("events persisted = %d, want 2", count)
	}
}
