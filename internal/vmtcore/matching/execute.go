package matching

import (
	"github.com/vmtsim/vmt/internal/vmtcore/agent"
	"github.com/vmtsim/vmt/internal/vmtcore/grid"
	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
)

// Resolution records how one pair's negotiation ended this tick, so the
// scheduler can emit the Unpairing/TradeAttempt events spec.md §6.3
// requires alongside the per-block Trade events already carried by the
// returned Block slice.
type Resolution struct {
	AID, BID uint64
	// Reason is "trade_terminal" when at least one block settled before
	// surplus was exhausted, or "trade_failed" when no block was ever
	// found (spec.md §4.6 pair state machine's Traded_Terminal vs Failed
	// exits). Only "trade_failed" carries a cooldown.
	Reason string
}

// ExecuteTrades runs the Trade-phase settlement of spec.md §4.6 for every
// mutually-targeting pair that has become adjacent: it repeatedly finds
// and applies the best compensating block until none remains profitable
// for both sides (multi-block continuation within the tick), then
// releases the pair. A cooldown against re-selecting the same partner is
// applied only when the pair never found a single block (the `Failed`
// exit); a `Traded_Terminal` exit — surplus simply ran out, not an
// outright failure — leaves both agents free to re-pair once new surplus
// appears (e.g. after foraging). Agents still Targeting (not yet
// adjacent) are left for Movement to keep closing the distance.
func ExecuteTrades(agents []*agent.Agent, byID map[uint64]*agent.Agent, p scenario.Params, tick uint64) (executed []Block, resolutions []Resolution) {
	settled := make(map[uint64]bool, len(agents))

	for _, i := range agents {
		if settled[i.ID] {
			continue
		}
		if i.PairState != agent.Targeting && i.PairState != agent.Adjacent && i.PairState != agent.Negotiating {
			continue
		}
		if i.PartnerID == nil {
			continue
		}
		j, ok := byID[*i.PartnerID]
		if !ok || j.PartnerID == nil || *j.PartnerID != i.ID {
			continue
		}
		if settled[j.ID] {
			continue
		}
		if grid.Distance(i.Pos, j.Pos) > p.InteractionRadius {
			continue // not yet adjacent; Movement will close the gap
		}

		i.PairState, j.PairState = agent.Negotiating, agent.Negotiating
		allowed := allowedPairTypes(i, j, p)

		blocksForPair := 0
		for {
			best := bestAcrossPairTypes(i, j, allowed, p)
			if best == nil {
				break
			}
			applyBlock(i, j, *best)
			executed = append(executed, *best)
			blocksForPair++
		}

		if blocksForPair == 0 {
			i.Unpair(tick, j.ID, p.TradeCooldownTicks)
			j.Unpair(tick, i.ID, p.TradeCooldownTicks)
			resolutions = append(resolutions, Resolution{AID: i.ID, BID: j.ID, Reason: "trade_failed"})
		} else {
			i.ClearPairing()
			j.ClearPairing()
			resolutions = append(resolutions, Resolution{AID: i.ID, BID: j.ID, Reason: "trade_terminal"})
		}
		settled[i.ID] = true
		settled[j.ID] = true
	}

	return executed, resolutions
}

// applyBlock settles one accepted trade, mutating both agents'
// inventories and marking them dirty for the next quote refresh.
func applyBlock(i, j *agent.Agent, b Block) {
	var seller, buyer *agent.Agent
	if b.SellerID == i.ID {
		seller, buyer = i, j
	} else {
		seller, buyer = j, i
	}
	applyGoodDelta(seller, b.XGood, -b.DeltaX)
	applyGoodDelta(seller, b.YGood, b.DeltaY)
	applyGoodDelta(buyer, b.XGood, b.DeltaX)
	applyGoodDelta(buyer, b.YGood, -b.DeltaY)
}

func applyGoodDelta(a *agent.Agent, good byte, amount int) {
	switch good {
	case 'A':
		a.ApplyInventoryDelta(amount, 0, 0)
	case 'B':
		a.ApplyInventoryDelta(0, amount, 0)
	case 'M':
		a.ApplyInventoryDelta(0, 0, amount)
	}
}
