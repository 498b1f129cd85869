// Package sim orchestrates the seven ordered per-tick phases (spec.md
// §2, §4): Perception, Decision, Movement, Trade, Forage, Regeneration,
// Housekeeping. The Scheduler owns agent and grid state and is the
// single place that advances the tick counter, following the shape of
// the teacher engine's Simulation (agent slice + index, event bus,
// running stats) generalized to this domain's phase pipeline instead of
// its minute/hour/day/week cadence.
package sim

import (
	"log/slog"

	"github.com/vmtsim/vmt/internal/vmtcore/agent"
	"github.com/vmtsim/vmt/internal/vmtcore/grid"
	"github.com/vmtsim/vmt/internal/vmtcore/matching"
	"github.com/vmtsim/vmt/internal/vmtcore/quote"
	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
	"github.com/vmtsim/vmt/internal/vmtcore/vmterr"
)

// Scheduler holds complete run state and advances it one tick at a time.
type Scheduler struct {
	Cfg   *scenario.Config
	Grid  *grid.Grid
	Agents []*agent.Agent
	byID  map[uint64]*agent.Agent

	Tick     uint64
	lastMode Mode

	bus   *eventBus
	Stats RunStats

	// Conserved totals captured at spawn time and raised by whatever
	// Regeneration adds to the cells (spec.md §3, §8): Σagents.A + Σcells.A
	// must equal initA at every tick boundary, and likewise for B; money
	// has no grid-side term since cells never hold M.
	initA, initB, initM int
}

// NewScheduler assembles a scheduler from an already-spawned population
// and grid. The caller (cmd/vmtrun or a test) is responsible for
// building these via grid.Generate and agent.Spawner so the RNG root
// stream's fixed consumption order is preserved.
func NewScheduler(cfg *scenario.Config, g *grid.Grid, agents []*agent.Agent) *Scheduler {
	byID := make(map[uint64]*agent.Agent, len(agents))
	for _, a := range agents {
		byID[a.ID] = a
	}
	s := &Scheduler{
		Cfg: cfg, Grid: g, Agents: agents, byID: byID,
		bus:      newEventBus(),
		lastMode: currentMode(cfg.ModeSchedule, 0),
	}
	for _, a := range agents {
		s.initA += a.Inv.A
		s.initB += a.Inv.B
		s.initM += a.Inv.M
	}
	s.initA += g.TotalAmount(grid.GoodA)
	s.initB += g.TotalAmount(grid.GoodB)
	s.refreshQuotes() // every agent starts dirty (spec.md §6.2 initial quote computation)
	return s
}

// Subscribe returns a subscriber ID and an event channel (see eventBus).
func (s *Scheduler) Subscribe() (int, <-chan Event) { return s.bus.Subscribe() }

// Unsubscribe releases a subscriber's channel.
func (s *Scheduler) Unsubscribe(id int) { s.bus.Unsubscribe(id) }

// Step runs exactly one tick through all seven phases in order and
// advances Tick. A non-nil error is always a *vmterr.InvariantError: the
// run must abort and the caller must not call Step again (spec.md §4.1,
// §7 — "no silent recovery").
func (s *Scheduler) Step() error {
	tick := s.Tick
	mode := currentMode(s.Cfg.ModeSchedule, tick)

	s.bus.emit(Event{Tick: tick, Category: "tick_started", Description: mode.String()})

	if s.lastMode.tradeActive() && !mode.tradeActive() {
		s.unpairAllForModeSwitch(tick)
	}
	s.lastMode = mode

	s.perception()
	s.decision(mode, tick)
	s.movement()
	if mode.tradeActive() {
		s.trade(tick)
	}
	if mode.forageActive() {
		s.Stats.UnitsHarvested += harvest(s.Agents, s.Grid, s.Cfg.Params, tick, s.bus)
	}
	cellA, cellB := s.Grid.TotalAmount(grid.GoodA), s.Grid.TotalAmount(grid.GoodB)
	regenerate(s.Grid, s.Cfg.Params, tick, s.bus)
	// Regrowth brings new units into the world, so it moves the conserved
	// totals instead of counting as drift.
	s.initA += s.Grid.TotalAmount(grid.GoodA) - cellA
	s.initB += s.Grid.TotalAmount(grid.GoodB) - cellB
	s.housekeeping(tick)

	if err := s.checkInvariants(tick); err != nil {
		slog.Error("invariant violated", "tick", tick, "err", err)
		return err
	}

	s.bus.emit(Event{Tick: tick, Category: "tick_finished", Description: ""})
	s.Tick++
	return nil
}

// Run advances the scheduler maxTicks times (or forever if maxTicks < 0),
// stopping immediately on the first invariant violation.
func (s *Scheduler) Run(maxTicks int64) error {
	for maxTicks < 0 || int64(s.Tick) < maxTicks {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// checkInvariants verifies the universal invariants of spec.md §8 at a
// tick boundary: conservation of A, B, and M; non-negative inventories;
// no agent double-paired; Stone-Geary subsistence. It is the only place
// the core raises an *vmterr.InvariantError.
func (s *Scheduler) checkInvariants(tick uint64) error {
	var totalA, totalB, totalM int
	paired := make(map[uint64]bool, len(s.Agents))

	for _, a := range s.Agents {
		if !a.Inv.Valid() {
			return vmterr.NewInvariantError(tick, "housekeeping", "non_negative_inventory", a.Inv.String())
		}
		totalA += a.Inv.A
		totalB += a.Inv.B
		totalM += a.Inv.M

		if a.PairState != agent.Unpaired && a.PartnerID != nil {
			if paired[*a.PartnerID] {
				return vmterr.NewInvariantError(tick, "trade", "no_double_pairing", "agent named as partner by more than one agent")
			}
			paired[*a.PartnerID] = true
		}

		if sg, ok := a.Utility.StoneGearyGammas(); ok {
			if float64(a.Inv.A) <= sg.GammaA || float64(a.Inv.B) <= sg.GammaB {
				return vmterr.NewInvariantError(tick, "trade", "stone_geary_subsistence", "inventory at or below gamma")
			}
		}
	}
	totalA += s.Grid.TotalAmount(grid.GoodA)
	totalB += s.Grid.TotalAmount(grid.GoodB)

	if totalA != s.initA {
		return vmterr.NewInvariantError(tick, "housekeeping", "conservation_A", "total A drifted from initial value")
	}
	if totalB != s.initB {
		return vmterr.NewInvariantError(tick, "housekeeping", "conservation_B", "total B drifted from initial value")
	}
	if totalM != s.initM {
		return vmterr.NewInvariantError(tick, "housekeeping", "conservation_M", "total M drifted from initial value")
	}
	return nil
}

// perception is currently a no-op: every phase that needs neighbor
// information (pairing, foraging) queries the grid/agent slice directly
// rather than building a cached perception snapshot, since the bounded
// grid and small interaction/vision radii make repeated scans cheap.
// Reserved as its own phase so a future cached-visibility optimization
// has a natural home without renumbering the pipeline.
func (s *Scheduler) perception() {}

func (s *Scheduler) decision(mode Mode, tick uint64) {
	if mode.tradeActive() {
		before := make(map[uint64]bool, len(s.Agents))
		for _, a := range s.Agents {
			if a.PairState != agent.Unpaired {
				before[a.ID] = true
			}
		}
		matching.ProposePairs(s.Agents, s.Cfg.Params, tick)
		for _, a := range s.Agents {
			if a.PairState == agent.Unpaired || before[a.ID] {
				continue
			}
			// Each new pair flips two agents from Unpaired; count and
			// emit once per pair using the lower ID as the canonical side.
			if a.ID < *a.PartnerID {
				s.Stats.PairsFormed++
				s.bus.emit(Event{Tick: tick, Category: "pairing", Description: "paired", AgentA: a.ID, AgentB: *a.PartnerID})
			}
		}
	}
	if mode.forageActive() {
		decideForageTargets(s.Agents, s.Grid, s.Cfg.Params)
	}
}

func (s *Scheduler) movement() {
	budget := s.Cfg.Params.MoveBudgetPerTick
	for _, a := range s.Agents {
		switch a.PairState {
		case agent.Targeting, agent.Adjacent:
			partner := s.byID[*a.PartnerID]
			a.Pos = grid.MoveToward(a.Pos, partner.Pos, budget)
			if grid.Distance(a.Pos, partner.Pos) <= s.Cfg.Params.InteractionRadius {
				a.PairState = agent.Adjacent
			}
		default:
			if a.Target != nil {
				a.Pos = grid.MoveToward(a.Pos, *a.Target, budget)
				if a.Pos == *a.Target {
					a.Target = nil
				}
			}
		}
	}
}

func (s *Scheduler) trade(tick uint64) {
	blocks, resolutions := matching.ExecuteTrades(s.Agents, s.byID, s.Cfg.Params, tick)
	s.Stats.TradesSettled += uint64(len(blocks))
	for _, b := range blocks {
		s.bus.emit(Event{
			Tick: tick, Category: "trade", Description: b.Key.String(),
			AgentA: b.SellerID, AgentB: b.BuyerID,
			DeltaX: b.DeltaX, DeltaY: b.DeltaY, Price: b.Price,
		})
	}
	for _, r := range resolutions {
		if r.Reason == "trade_failed" {
			s.Stats.PairsFailed++
			s.bus.emit(Event{Tick: tick, Category: "trade_attempt", Description: "no improving block found", AgentA: r.AID, AgentB: r.BID, Reason: r.Reason})
		}
		s.bus.emit(Event{Tick: tick, Category: "unpairing", Description: "pairing released", AgentA: r.AID, AgentB: r.BID, Reason: r.Reason})
	}
}

// unpairAllForModeSwitch releases every trade pairing when the temporal
// schedule moves out of a trade-active mode (spec.md §4.9). This is a
// forced environmental change, not a negotiation failure, so no
// trade_cooldown_ticks penalty is applied (agent.ClearPairing, not
// agent.Unpair).
func (s *Scheduler) unpairAllForModeSwitch(tick uint64) {
	for _, a := range s.Agents {
		if a.PairState == agent.Unpaired {
			continue
		}
		a.ClearPairing()
		s.bus.emit(Event{Tick: tick, Category: "unpairing", Description: "pairing released", AgentA: a.ID, Reason: "mode_switch"})
	}
}

func (s *Scheduler) housekeeping(tick uint64) {
	s.refreshQuotes()
	for _, a := range s.Agents {
		a.ResetDirtyFlags()
	}
	s.Stats.Ticks = tick + 1
	s.Stats.ConservedA = s.initA
	s.Stats.ConservedB = s.initB
	s.Stats.ConservedM = s.initM
	slog.Info("tick finished", "tick", tick, "trades", s.Stats.TradesSettled,
		"pairs_formed", s.Stats.PairsFormed, "pairs_failed", s.Stats.PairsFailed,
		"units_harvested", s.Stats.UnitsHarvested)
}

// refreshQuotes recomputes Quotes for every agent whose inventory or
// lambda changed since the last refresh (spec.md §4.3 refresh policy).
func (s *Scheduler) refreshQuotes() {
	params := s.Cfg.Params
	for _, a := range s.Agents {
		if !a.NeedsQuoteRefresh() {
			continue
		}
		a.Quotes = quote.Compute(quote.Inputs{
			A: a.Inv.A, B: a.Inv.B, M: a.Inv.M,
			Lambda: a.LambdaMoney, Utility: a.Utility,
			MoneyForm: params.MoneyUtilityForm, M0: params.M0,
			Spread: params.Spread, Epsilon: params.Epsilon,
			HasMoney: a.HasMoney,
		})
	}
}
