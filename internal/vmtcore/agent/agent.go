// Package agent holds per-agent simulation state and the deterministic
// spawner that creates the initial population (spec.md §3, §6.2),
// mirroring the shape of mini-world's agents package: a stable integer
// ID assigned at spawn time, a single struct carrying everything a
// phase needs to read or mutate, and a seeded spawner consumed in a
// fixed order.
package agent

import (
	"github.com/vmtsim/vmt/internal/vmtcore/grid"
	"github.com/vmtsim/vmt/internal/vmtcore/inventory"
	"github.com/vmtsim/vmt/internal/vmtcore/quote"
	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
	"github.com/vmtsim/vmt/internal/vmtcore/utilityfn"
)

// PairState is the bargaining state machine of spec.md §4.6.
type PairState uint8

const (
	Unpaired PairState = iota
	Targeting
	Adjacent
	Negotiating
)

func (s PairState) String() string {
	switch s {
	case Unpaired:
		return "unpaired"
	case Targeting:
		return "targeting"
	case Adjacent:
		return "adjacent"
	case Negotiating:
		return "negotiating"
	default:
		return "unknown"
	}
}

// Agent is one economic actor: position, inventory, utility function,
// money preference, current quotes, and bargaining/foraging state.
// Ascending ID order is the tie-break used throughout the scheduler
// (spec.md §2), so ID is never reassigned once spawned.
type Agent struct {
	ID  uint64
	Pos grid.Position

	Inv         inventory.Inventory
	Utility     utilityfn.Utility
	MoneyForm   scenario.MoneyUtilityForm
	HasMoney    bool
	LambdaMoney float64

	Quotes quote.Quotes

	// Bargaining state (spec.md §4.6).
	PairState PairState
	PartnerID *uint64
	PairTick  uint64 // tick the current pairing began

	// Cooldowns maps a specific partner agent ID to the tick at which this
	// agent may re-select that same partner, per spec.md §3's per-agent
	// `cooldowns: Map<AgentId, int>` field. A failed negotiation only
	// suppresses re-pairing with that one partner, not with everyone.
	Cooldowns map[uint64]uint64

	// Movement target. For an unpaired agent this is a resource cell set
	// by the forage decision; for a paired agent, Movement recomputes the
	// live partner position directly rather than trusting a stale target.
	Target *grid.Position

	// Dirty flags driving the quote refresh-on-change policy (spec.md §4.3):
	// quotes are only recomputed when inventory or lambda changed since the
	// last refresh.
	InventoryChanged bool
	LambdaChanged    bool
}

// ResetDirtyFlags clears the change flags after Housekeeping has refreshed
// quotes for the tick.
func (a *Agent) ResetDirtyFlags() {
	a.InventoryChanged = false
	a.LambdaChanged = false
}

// NeedsQuoteRefresh reports whether this agent's quotes are stale.
func (a *Agent) NeedsQuoteRefresh() bool {
	return a.InventoryChanged || a.LambdaChanged
}

// Unpair clears bargaining state after a failed negotiation and places
// partnerID on cooldown against re-selection for cooldownTicks (spec.md
// §4.5, §4.6: the `Failed` exit only). Forced mode-switch unpairing and a
// successful `Traded_Terminal` exit must not apply this penalty, so both
// use ClearPairing instead.
func (a *Agent) Unpair(now uint64, partnerID uint64, cooldownTicks int) {
	a.ClearPairing()
	if a.Cooldowns == nil {
		a.Cooldowns = make(map[uint64]uint64)
	}
	a.Cooldowns[partnerID] = now + uint64(cooldownTicks)
}

// ClearPairing releases bargaining state without touching cooldowns, for
// exits that are not a negotiation failure: a mode-switch forced unpair
// (spec.md §4.9) or a `Traded_Terminal` exit where surplus was simply
// exhausted rather than never found (spec.md §4.6).
func (a *Agent) ClearPairing() {
	a.PairState = Unpaired
	a.PartnerID = nil
	a.Target = nil
}

// CooldownWith reports whether this agent may not yet re-select
// partnerID as a trading partner at the given tick.
func (a *Agent) CooldownWith(partnerID uint64, now uint64) bool {
	return now < a.Cooldowns[partnerID]
}

// ApplyInventoryDelta mutates goods/money and marks the agent's quotes
// stale. All trade and forage settlement must go through this so the
// refresh-on-change policy never drifts out of sync with actual state.
func (a *Agent) ApplyInventoryDelta(dA, dB, dM int) {
	a.Inv.A += dA
	a.Inv.B += dB
	a.Inv.M += dM
	a.InventoryChanged = true
}

// SetLambda updates the agent's marginal utility of money and marks
// quotes stale.
func (a *Agent) SetLambda(lambda float64) {
	a.LambdaMoney = lambda
	a.LambdaChanged = true
}
