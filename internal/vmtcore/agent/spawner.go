package agent

import (
	"math/rand"

	"github.com/vmtsim/vmt/internal/vmtcore/grid"
	"github.com/vmtsim/vmt/internal/vmtcore/inventory"
	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
	"github.com/vmtsim/vmt/internal/vmtcore/utilityfn"
)

// Spawner creates the initial population from a validated scenario,
// consuming the root RNG stream in a fixed order: for each agent ID
// from 0 to Agents-1, one draw picks its utility-mix entry, then two
// draws (x, then y, via grid.RandomPosition) place it on the grid. Mirroring
// mini-world's agents.Spawner, the draw order is the sole source of
// cross-run determinism, so callers must never reorder these calls.
type Spawner struct {
	rng *rand.Rand
	cfg *scenario.Config
}

// NewSpawner builds a spawner over the root stream.
func NewSpawner(cfg *scenario.Config, rootRand *rand.Rand) *Spawner {
	return &Spawner{rng: rootRand, cfg: cfg}
}

// SpawnAll creates the full population in ascending ID order.
func (s *Spawner) SpawnAll(g *grid.Grid) []*Agent {
	agents := make([]*Agent, s.cfg.Agents)
	for i := 0; i < s.cfg.Agents; i++ {
		agents[i] = s.spawnOne(uint64(i), g)
	}
	return agents
}

func (s *Spawner) spawnOne(id uint64, g *grid.Grid) *Agent {
	params := s.pickUtilityParams()

	a := scenario.At(s.cfg.Initial.A, int(id))
	b := scenario.At(s.cfg.Initial.B, int(id))

	ag := &Agent{
		ID:        id,
		Pos:       grid.RandomPosition(s.rng, g.N),
		Inv:       inventory.Inventory{A: a, B: b},
		Utility:   utilityfn.New(params),
		MoneyForm: s.cfg.Params.MoneyUtilityForm,
		HasMoney:  s.cfg.Initial.HasMoney,
		PairState: Unpaired,

		InventoryChanged: true, // force a quote computation before tick 1
		LambdaChanged:    true,
	}

	if ag.HasMoney {
		ag.Inv.M = scenario.At(s.cfg.Initial.M, int(id))
		ag.LambdaMoney = scenario.AtFloat(s.cfg.Initial.LambdaMoney, int(id), s.cfg.Params.LambdaMoney)
	} else {
		ag.LambdaMoney = s.cfg.Params.LambdaMoney
	}

	return ag
}

// pickUtilityParams draws one weighted entry from the scenario's utility
// mix. Weights were validated to sum to 1.0 +/- 1e-6 at config time, so a
// single uniform draw against the cumulative distribution always lands;
// the final entry is returned as a fallback against floating-point drift.
func (s *Spawner) pickUtilityParams() scenario.UtilityParams {
	r := s.rng.Float64()
	cum := 0.0
	for _, entry := range s.cfg.Mix {
		cum += entry.Weight
		if r < cum {
			return entry.Params
		}
	}
	return s.cfg.Mix[len(s.cfg.Mix)-1].Params
}
