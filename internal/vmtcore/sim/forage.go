package sim

import (
	"sort"

	"github.com/vmtsim/vmt/internal/vmtcore/agent"
	"github.com/vmtsim/vmt/internal/vmtcore/grid"
	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
)

// decideForageTargets assigns a resource-cell target to every unpaired,
// untargeted agent, in ascending ID order. A per-tick claim ledger
// (spec.md §4.7) prevents two agents targeting the same cell in the same
// pass when resource claiming is enabled; it is discarded at the end of
// Decision and never persists across ticks.
func decideForageTargets(agents []*agent.Agent, g *grid.Grid, p scenario.Params) {
	claimed := make(map[grid.Position]bool)

	for _, a := range agents {
		if a.PairState != agent.Unpaired || a.Target != nil {
			continue
		}
		cell := nearestUnclaimedResource(a.Pos, g, p, claimed)
		if cell == nil {
			continue
		}
		pos := cell.Pos
		a.Target = &pos
		if p.EnableResourceClaiming {
			claimed[pos] = true
		}
	}
}

func nearestUnclaimedResource(from grid.Position, g *grid.Grid, p scenario.Params, claimed map[grid.Position]bool) *grid.ResourceCell {
	var best *grid.ResourceCell
	bestDist := p.VisionRadius + 1
	for _, c := range g.CellsWithin(from, p.VisionRadius) {
		if c.Amount <= 0 || c.Depleted {
			continue
		}
		if claimed[c.Pos] {
			continue
		}
		d := grid.Distance(from, c.Pos)
		if d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// harvest applies the Forage phase (spec.md §4.7): every agent standing
// on a non-empty resource cell harvests, but when EnforceSingleHarvester
// is set, only the lowest-ID agent present on a given cell harvests that
// tick.
func harvest(agents []*agent.Agent, g *grid.Grid, p scenario.Params, tick uint64, bus *eventBus) (unitsHarvested uint64) {
	occupants := make(map[grid.Position][]*agent.Agent)
	for _, a := range agents {
		if a.PairState != agent.Unpaired {
			continue
		}
		occupants[a.Pos] = append(occupants[a.Pos], a)
	}

	positions := make([]grid.Position, 0, len(occupants))
	for pos := range occupants {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(a, b int) bool {
		if positions[a].X != positions[b].X {
			return positions[a].X < positions[b].X
		}
		return positions[a].Y < positions[b].Y
	})

	for _, pos := range positions {
		here := occupants[pos]
		cell := g.At(pos)
		if cell == nil || cell.Amount <= 0 {
			continue
		}

		harvesters := here
		if p.EnforceSingleHarvester {
			lowest := here[0]
			for _, a := range here[1:] {
				if a.ID < lowest.ID {
					lowest = a
				}
			}
			harvesters = []*agent.Agent{lowest}
		}

		for _, a := range harvesters {
			if cell.Amount <= 0 {
				break
			}
			qty := p.ForageRate
			if qty > cell.Amount {
				qty = cell.Amount
			}
			switch cell.Kind {
			case grid.GoodA:
				a.ApplyInventoryDelta(qty, 0, 0)
			case grid.GoodB:
				a.ApplyInventoryDelta(0, qty, 0)
			}
			cell.Amount -= qty
			unitsHarvested += uint64(qty)
			a.Target = nil
			if cell.Amount <= 0 {
				cell.Depleted = true
				cell.DepletedAtTick = tick
			}
			if bus != nil {
				bus.emit(Event{Tick: tick, Category: "forage", Description: "harvest", AgentA: a.ID})
			}
		}
	}
	return unitsHarvested
}

// regenerate grows depleted/partial resource cells (spec.md §4.7): a
// fully depleted cell waits resource_regen_cooldown ticks before
// regrowth resumes; a partially-harvested cell grows every tick. Emits a
// Regen event per cell that actually grows (spec.md §6.3), iterating
// cells in ascending (x, y) order — g.Cells is a map, so this mirrors the
// same determinism fix harvest applies rather than ranging over it
// directly.
func regenerate(g *grid.Grid, p scenario.Params, tick uint64, bus *eventBus) {
	if p.ResourceGrowthRate <= 0 {
		return
	}
	positions := make([]grid.Position, 0, len(g.Cells))
	for pos := range g.Cells {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(a, b int) bool {
		if positions[a].X != positions[b].X {
			return positions[a].X < positions[b].X
		}
		return positions[a].Y < positions[b].Y
	})

	for _, pos := range positions {
		c := g.Cells[pos]
		if c.Amount >= p.ResourceMaxAmount {
			continue
		}
		if c.Depleted {
			if tick < c.DepletedAtTick+uint64(p.ResourceRegenCooldown) {
				continue
			}
			c.Depleted = false
		}
		before := c.Amount
		c.Amount += p.ResourceGrowthRate
		if c.Amount > p.ResourceMaxAmount {
			c.Amount = p.ResourceMaxAmount
		}
		delta := c.Amount - before
		if delta > 0 && bus != nil {
			bus.emit(Event{Tick: tick, Category: "regen", Description: "resource regrowth", DeltaX: delta})
		}
	}
}
