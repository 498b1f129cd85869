package matching

import (
	"math"

	"github.com/vmtsim/vmt/internal/vmtcore/agent"
	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
)

// Block is one accepted compensating-block trade: DeltaX units of xGood
// move from Seller to Buyer, DeltaY units of yGood move the other way.
type Block struct {
	Key         PairKey
	SellerID    uint64
	BuyerID     uint64
	XGood, YGood byte
	DeltaX, DeltaY int
	Price       float64
	priceRank   int // 0=ask, 1=midpoint, 2=bid; tie-break only
}

// candidate is a fully-evaluated (dx, price) trial within one pair type.
type candidate struct {
	block   Block
	surplus float64
}

// searchPairType runs the compensating-block search of spec.md §4.6 for
// one PairKey between an ordered agent pair (i, j): probe ΔX from 1 to
// dA_max, at three candidate prices (ask, midpoint, bid), and keep the
// feasible, mutually-improving trial with the largest combined surplus
// (ties broken by smaller ΔX, then by price index — ask before midpoint
// before bid).
func searchPairType(i, j *agent.Agent, s spec, p scenario.Params) *candidate {
	return searchPairTypePrices(i, j, s, p, allPriceRanks)
}

// allPriceRanks probes ask, midpoint, and bid, per spec.md §4.6 step 2.
var allPriceRanks = [3]bool{true, true, true}

// midpointOnly probes only the midpoint price, used by the Decision-phase
// partner-surplus estimate (spec.md §4.5, §9 open question: "derive the
// estimate from the same find_compensating_block-style search at the
// midpoint price to ensure consistency between Decision and Matching").
var midpointOnly = [3]bool{false, true, false}

func searchPairTypePrices(i, j *agent.Agent, s spec, p scenario.Params, probe [3]bool) *candidate {
	var seller, buyer *agent.Agent
	if s.sellerIsI {
		seller, buyer = i, j
	} else {
		seller, buyer = j, i
	}

	askPtr := s.askOf(seller.Quotes)
	bidPtr := s.bidOf(buyer.Quotes)
	if askPtr == nil || bidPtr == nil {
		return nil
	}
	ask, bid := *askPtr, *bidPtr
	if ask > bid {
		return nil // seller's floor exceeds buyer's ceiling: no overlap
	}

	prices := [3]float64{ask, (ask + bid) / 2, bid}

	var best *candidate
	for dx := 1; dx <= p.DAMax; dx++ {
		if goodAmount(seller.Inv, s.xGood) < dx {
			break // larger dx only less feasible
		}
		for priceRank, price := range prices {
			if !probe[priceRank] {
				continue
			}
			dy := roundHalfUp(price * float64(dx))
			if dy < 1 {
				continue
			}
			if goodAmount(buyer.Inv, s.yGood) < dy {
				continue
			}

			sellerBefore := totalUtility(seller, seller.Inv, p.M0)
			sellerAfter := totalUtility(seller, withDelta(withDelta(seller.Inv, s.xGood, -dx), s.yGood, dy), p.M0)
			dUSeller := sellerAfter - sellerBefore
			// A Stone-Geary party whose block would cross a gamma floor
			// evaluates u_goods as log of a non-positive number: NaN, which
			// fails every ordinary comparison including "<= epsilon". Reject
			// non-finite utility explicitly rather than relying on the
			// price-overlap check upstream to have already ruled it out.
			if math.IsNaN(dUSeller) || math.IsInf(dUSeller, 0) || dUSeller <= p.Epsilon {
				continue
			}

			buyerBefore := totalUtility(buyer, buyer.Inv, p.M0)
			buyerAfter := totalUtility(buyer, withDelta(withDelta(buyer.Inv, s.xGood, dx), s.yGood, -dy), p.M0)
			dUBuyer := buyerAfter - buyerBefore
			if math.IsNaN(dUBuyer) || math.IsInf(dUBuyer, 0) || dUBuyer <= p.Epsilon {
				continue
			}

			c := candidate{
				block: Block{
					Key: s.key, SellerID: seller.ID, BuyerID: buyer.ID,
					XGood: s.xGood, YGood: s.yGood,
					DeltaX: dx, DeltaY: dy, Price: price, priceRank: priceRank,
				},
				surplus: dUSeller + dUBuyer,
			}
			if best == nil || betterCandidate(c, *best) {
				best = &c
			}
		}
	}
	return best
}

// betterCandidate implements the candidate-selection tie-break of
// spec.md §4.6: larger combined surplus wins; ties go to the smaller
// ΔX (the more conservative trade); remaining ties go to the
// lower-indexed probe price (ask, then midpoint, then bid).
func betterCandidate(a, b candidate) bool {
	if a.surplus != b.surplus {
		return a.surplus > b.surplus
	}
	if a.block.DeltaX != b.block.DeltaX {
		return a.block.DeltaX < b.block.DeltaX
	}
	return a.block.priceRank < b.block.priceRank
}

// bestAcrossPairTypes runs searchPairType for every allowed PairKey and
// returns the single best candidate across all of them, using the
// money-first PairKey order (specs' declaration order) as the final
// tie-break once surplus, ΔX, and price index are all equal.
func bestAcrossPairTypes(i, j *agent.Agent, allowed []PairKey, p scenario.Params) *Block {
	allowedSet := make(map[PairKey]bool, len(allowed))
	for _, k := range allowed {
		allowedSet[k] = true
	}

	var best *candidate
	for _, s := range specs {
		if !allowedSet[s.key] {
			continue
		}
		c := searchPairType(i, j, s, p)
		if c == nil {
			continue
		}
		if best == nil || betterCandidate(*c, *best) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	return &best.block
}

// EstimateSurplus computes the Decision-phase partner-surplus estimate
// (spec.md §4.5) between candidate agents i and j: the best combined ΔU
// across every exchange pair type the regime allows between them, probed
// at the midpoint price only. Sharing searchPairTypePrices with
// Matching's full search (rather than a separately-maintained estimator)
// is the fix for the mismatch spec.md §9 documents as a prior P0 bug.
// Returns ok=false when no pair type clears both feasibility and the ΔU
// guard at the midpoint.
func EstimateSurplus(i, j *agent.Agent, p scenario.Params) (surplus float64, rank PairKey, ok bool) {
	allowed := allowedPairTypes(i, j, p)
	allowedSet := make(map[PairKey]bool, len(allowed))
	for _, k := range allowed {
		allowedSet[k] = true
	}

	var best *candidate
	for _, s := range specs {
		if !allowedSet[s.key] {
			continue
		}
		c := searchPairTypePrices(i, j, s, p, midpointOnly)
		if c == nil {
			continue
		}
		if best == nil || betterCandidate(*c, *best) {
			best = c
		}
	}
	if best == nil {
		return 0, 0, false
	}
	return best.surplus, best.block.Key, true
}
