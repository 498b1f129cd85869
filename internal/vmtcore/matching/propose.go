package matching

import (
	"github.com/vmtsim/vmt/internal/vmtcore/agent"
	"github.com/vmtsim/vmt/internal/vmtcore/grid"
	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
)

// ProposePairs runs the Decision-phase partner search (spec.md §4.5): for
// every unpaired agent in ascending ID order, estimate the maximum
// mutually-beneficial surplus against every visible, off-cooldown
// candidate across all regime-allowed exchange pairs, and mutually
// target the highest-surplus candidate. Agents matched earlier in this
// same pass are unavailable to agents considered later, so iteration
// order (ascending ID) is itself part of the determinism contract.
func ProposePairs(agents []*agent.Agent, p scenario.Params, tick uint64) {
	for _, i := range agents {
		if i.PairState != agent.Unpaired {
			continue
		}
		partner := findBestPartner(i, agents, p, tick)
		if partner == nil {
			continue
		}
		target := partner.Pos
		partnerID := partner.ID
		i.PairState = agent.Targeting
		i.PartnerID = &partnerID
		i.Target = &target
		i.PairTick = tick

		selfID := i.ID
		selfPos := i.Pos
		partner.PairState = agent.Targeting
		partner.PartnerID = &selfID
		partner.Target = &selfPos
		partner.PairTick = tick
	}
}

// findBestPartner selects the visible, unpaired, not-on-cooldown-with-i
// candidate with the highest estimated surplus (spec.md §4.5), tie-broken
// by (money-pair-priority-rank, min(id), max(id)) as spec.md §4.5
// prescribes.
func findBestPartner(i *agent.Agent, agents []*agent.Agent, p scenario.Params, tick uint64) *agent.Agent {
	var best *agent.Agent
	var bestSurplus float64
	var bestRank PairKey

	for _, j := range agents {
		if j.ID == i.ID {
			continue
		}
		if j.PairState != agent.Unpaired {
			continue
		}
		if i.CooldownWith(j.ID, tick) || j.CooldownWith(i.ID, tick) {
			continue
		}
		d := grid.Distance(i.Pos, j.Pos)
		if d > p.VisionRadius {
			continue
		}
		surplus, rank, ok := EstimateSurplus(i, j, p)
		if !ok {
			continue
		}
		if best == nil || better(surplus, rank, j.ID, bestSurplus, bestRank, best.ID, i.ID) {
			best = j
			bestSurplus = surplus
			bestRank = rank
		}
	}
	return best
}

// better implements the partner tie-break of spec.md §4.5: highest
// surplus; then lower money-pair-priority-rank; then (min(id), max(id))
// of the candidate pair.
func better(surplus float64, rank PairKey, candID uint64, bestSurplus float64, bestRank PairKey, bestID, selfID uint64) bool {
	if surplus != bestSurplus {
		return surplus > bestSurplus
	}
	if rank != bestRank {
		return rank < bestRank
	}
	minC, maxC := minMax(selfID, candID)
	minB, maxB := minMax(selfID, bestID)
	if minC != minB {
		return minC < minB
	}
	return maxC < maxB
}

func minMax(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}
