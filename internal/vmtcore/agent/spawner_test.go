package agent

import (
	"math/rand"
	"testing"

	"github.com/vmtsim/vmt/internal/vmtcore/grid"
	"github.com/vmtsim/vmt/internal/vmtcore/inventory"
	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
)

func testConfig(t *testing.T) *scenario.Config {
	t.Helper()
	params := scenario.DefaultParams()
	cfg, err := scenario.New(1, "test", 20, 6,
		scenario.InitialInventories{A: []int{5}, B: []int{5}},
		[]scenario.UtilityMixEntry{
			{Params: scenario.UtilityParams{Kind: scenario.UtilityLinear, VA: 1, VB: 1}, Weight: 0.5},
			{Params: scenario.UtilityParams{Kind: scenario.UtilityCES, Rho: -0.5, WA: 0.5, WB: 0.5}, Weight: 0.5},
		},
		params, scenario.ResourceSeed{Density: 0.1, Amount: 3}, scenario.ModeSchedule{})
	if err != nil {
		t.Fatalf("scenario.New: %v", err)
	}
	return cfg
}

func TestSpawnAllAssignsStableAscendingIDs(t *testing.T) {
	cfg := testConfig(t)
	g := grid.NewGrid(cfg.N)
	sp := NewSpawner(cfg, rand.New(rand.NewSource(42)))
	agents := sp.SpawnAll(g)

	if len(agents) != cfg.Agents {
		t.Fatalf("got %d agents, want %d", len(agents), cfg.Agents)
	}
	for i, a := range agents {
		if a.ID != uint64(i) {
			t.Errorf("agent at index %d has ID %d, want %d", i, a.ID, i)
		}
		if a.PairState != Unpaired {
			t.Errorf("agent %d: want Unpaired at spawn, got %v", a.ID, a.PairState)
		}
		if !a.Inv.Valid() {
			t.Errorf("agent %d: invalid inventory %+v", a.ID, a.Inv)
		}
	}
}

func TestSpawnAllDeterministicAcrossRuns(t *testing.T) {
	cfg := testConfig(t)

	run := func(seed int64) []Agent {
		g := grid.NewGrid(cfg.N)
		sp := NewSpawner(cfg, rand.New(rand.NewSource(seed)))
		agents := sp.SpawnAll(g)
		out := make([]Agent, len(agents))
		for i, a := range agents {
			out[i] = *a
		}
		return out
	}

	a := run(7)
	b := run(7)
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Pos != b[i].Pos {
			t.Errorf("agent %d: position mismatch across identical-seed runs: %+v vs %+v", i, a[i].Pos, b[i].Pos)
		}
		if a[i].Utility.P.Kind != b[i].Utility.P.Kind {
			t.Errorf("agent %d: utility kind mismatch across identical-seed runs", i)
		}
	}
}

func TestApplyInventoryDeltaMarksDirty(t *testing.T) {
	a := &Agent{Inv: inventory.Inventory{A: 5, B: 5}}
	a.ResetDirtyFlags()
	a.ApplyInventoryDelta(-1, 1, 0)
	if !a.InventoryChanged {
		t.Error("expected InventoryChanged after ApplyInventoryDelta")
	}
	if a.Inv.A != 4 || a.Inv.B != 6 {
		t.Errorf("unexpected inventory after delta: %+v", a.Inv)
	}
}
