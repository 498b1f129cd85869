// Package matching implements pairing and bilateral bargaining between
// agents (spec.md §4.6): candidate discovery, compensating-block price
// search, and settlement of accepted trades. It is the largest single
// subsystem in the core, so it is split across this file (pair-type
// vocabulary), allowed.go (regime gating), economics.go (rounding and
// utility helpers), propose.go (Decision-phase pairing), search.go
// (compensating-block search), and execute.go (Trade-phase settlement).
package matching

import "github.com/vmtsim/vmt/internal/vmtcore/quote"

// PairKey identifies one directional exchange: "agent_i sells X, receives
// Y". The declaration order here IS the money-first tie-break priority
// used whenever two pair types are otherwise equally good (spec.md §4.6):
// A->M, then B->M, then M->A, then M->B, and only after all four monetary
// pair types the two barter pair types A->B and B->A.
type PairKey int

const (
	PairAtoM PairKey = iota // i sells A, receives M
	PairBtoM                // i sells B, receives M
	PairMtoA                // i sells M, receives A (buys A)
	PairMtoB                // i sells M, receives B (buys B)
	PairAtoB                // i sells A, receives B
	PairBtoA                // i sells B, receives A (buys A with B)
)

func (k PairKey) String() string {
	switch k {
	case PairAtoM:
		return "A->M"
	case PairBtoM:
		return "B->M"
	case PairMtoA:
		return "M->A"
	case PairMtoB:
		return "M->B"
	case PairAtoB:
		return "A->B"
	case PairBtoA:
		return "B->A"
	default:
		return "unknown"
	}
}

// spec describes how to resolve one PairKey for an ordered agent pair
// (i, j): which good moves from seller to buyer (x) and which moves back
// (y), whether i or j is the seller, and which Quotes field supplies
// each side's price. Every PairKey reduces to one of three underlying
// price families (A-in-B, A-in-M, B-in-M); the two PairKeys per family
// just swap which agent is offered as the seller.
type spec struct {
	key       PairKey
	sellerIsI bool
	xGood     byte // good flowing seller -> buyer, quantified by DeltaX
	yGood     byte // good flowing buyer -> seller, computed from price
	askOf     func(q quote.Quotes) *float64
	bidOf     func(q quote.Quotes) *float64
}

// specs is ordered by PairKey (== money-first priority).
var specs = [...]spec{
	{key: PairAtoM, sellerIsI: true, xGood: 'A', yGood: 'M',
		askOf: func(q quote.Quotes) *float64 { return q.AtoM },
		bidOf: func(q quote.Quotes) *float64 { return q.MtoA }},
	{key: PairBtoM, sellerIsI: true, xGood: 'B', yGood: 'M',
		askOf: func(q quote.Quotes) *float64 { return q.BtoM },
		bidOf: func(q quote.Quotes) *float64 { return q.MtoB }},
	{key: PairMtoA, sellerIsI: false, xGood: 'A', yGood: 'M',
		askOf: func(q quote.Quotes) *float64 { return q.AtoM },
		bidOf: func(q quote.Quotes) *float64 { return q.MtoA }},
	{key: PairMtoB, sellerIsI: false, xGood: 'B', yGood: 'M',
		askOf: func(q quote.Quotes) *float64 { return q.BtoM },
		bidOf: func(q quote.Quotes) *float64 { return q.MtoB }},
	{key: PairAtoB, sellerIsI: true, xGood: 'A', yGood: 'B',
		askOf: func(q quote.Quotes) *float64 { return q.AtoB },
		bidOf: func(q quote.Quotes) *float64 { return q.BtoA }},
	{key: PairBtoA, sellerIsI: false, xGood: 'A', yGood: 'B',
		askOf: func(q quote.Quotes) *float64 { return q.AtoB },
		bidOf: func(q quote.Quotes) *float64 { return q.BtoA }},
}

func isMonetary(k PairKey) bool {
	return k == PairAtoM || k == PairBtoM || k == PairMtoA || k == PairMtoB
}
