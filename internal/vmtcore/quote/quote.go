// Package quote derives bid/ask prices for every active exchange pair
// from an agent's reservation bounds (spec.md §4.3). A Quotes value is a
// per-agent snapshot; the scheduler's Housekeeping phase is the only
// phase that ever recomputes one, so every phase within a tick sees a
// consistent map (spec.md §4.3 refresh policy).
package quote

import (
	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
	"github.com/vmtsim/vmt/internal/vmtcore/utilityfn"
)

// Quotes holds one scalar price per active exchange pair, following the
// strongly-typed struct the design notes call for (spec.md §9) in place
// of a dict[str, float]: a nil field means that pair is inactive (e.g. any
// pair before the first Compute, or the four goods-money pairs when the
// agent has no money or λ·f'(M) is not positive). Compute always sets the
// two goods-goods fields, whatever the agent's holdings.
type Quotes struct {
	AtoB *float64 // ask, A priced in B: min price this agent sells A at
	BtoA *float64 // bid, A priced in B: max price this agent pays for A in B
	AtoM *float64 // ask, A priced in M
	MtoA *float64 // bid, A priced in M
	BtoM *float64 // ask, B priced in M
	MtoB *float64 // bid, B priced in M
}

// MonetaryQuoteCount returns the number of distinct monetary pair types
// (of the four A-M/B-M pairs) for which this agent currently holds an
// active quote. This resolves spec.md §9's "distinct monetary quotes"
// open question as a count of distinct pair *types* held by the agent
// itself, documented in scenario.LiquidityGate.
func (q Quotes) MonetaryQuoteCount() int {
	n := 0
	if q.AtoM != nil {
		n++
	}
	if q.MtoA != nil {
		n++
	}
	if q.BtoM != nil {
		n++
	}
	if q.MtoB != nil {
		n++
	}
	return n
}

// Inputs bundles what Compute needs about one agent to derive its quotes.
type Inputs struct {
	A, B, M    int
	Lambda     float64
	Utility    utilityfn.Utility
	MoneyForm  scenario.MoneyUtilityForm
	M0         float64
	Spread     float64
	Epsilon    float64
	HasMoney   bool
}

func ptr(v float64) *float64 { return &v }

// Compute derives the full Quotes snapshot for one agent, per spec.md
// §4.3: goods-goods ask/bid come from reservation_bounds_A_in_B; goods-
// money ask/bid come from MU_good / (lambda * f'(M)).
func Compute(in Inputs) Quotes {
	pMin, pMax := in.Utility.ReservationBoundsAInB(in.A, in.B, in.Epsilon)
	q := Quotes{
		AtoB: ptr(pMin * (1 + in.Spread)),
		BtoA: ptr(pMax * (1 - in.Spread)),
	}

	if !in.HasMoney {
		return q
	}

	fPrimeM := utilityfn.MoneyMarginalUtility(in.MoneyForm, in.M, in.M0)
	denom := in.Lambda * fPrimeM
	if denom <= 0 {
		return q
	}

	pAInM := in.Utility.MUA(in.A, in.B) / denom
	pBInM := in.Utility.MUB(in.A, in.B) / denom

	q.AtoM = ptr(pAInM * (1 + in.Spread))
	q.MtoA = ptr(pAInM * (1 - in.Spread))
	q.BtoM = ptr(pBInM * (1 + in.Spread))
	q.MtoB = ptr(pBInM * (1 - in.Spread))

	return q
}
