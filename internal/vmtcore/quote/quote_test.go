package quote

import (
	"math"
	"testing"

	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
	"github.com/vmtsim/vmt/internal/vmtcore/utilityfn"
)

func TestComputeBarterOnlyHasNoMonetaryQuotes(t *testing.T) {
	u := utilityfn.New(scenario.UtilityParams{Kind: scenario.UtilityLinear, VA: 1, VB: 1})
	q := Compute(Inputs{
		A: 5, B: 5, M: 0,
		Utility: u, Spread: 0.1, Epsilon: 1e-9,
		HasMoney: false,
	})
	if q.AtoM != nil || q.MtoA != nil || q.BtoM != nil || q.MtoB != nil {
		t.Fatalf("expected no monetary quotes when HasMoney is false, got %+v", q)
	}
	if q.AtoB == nil || q.BtoA == nil {
		t.Fatalf("expected goods-goods quotes to be active, got %+v", q)
	}
}

func TestComputeSpreadWidensAskAboveBid(t *testing.T) {
	u := utilityfn.New(scenario.UtilityParams{Kind: scenario.UtilityLinear, VA: 2, VB: 2})
	q := Compute(Inputs{A: 5, B: 5, Utility: u, Spread: 0.2, Epsilon: 1e-9})
	if *q.AtoB <= *q.BtoA {
		t.Errorf("with spread > 0, ask (%v) should exceed bid (%v)", *q.AtoB, *q.BtoA)
	}
}

func TestComputeZeroSpreadAskEqualsBid(t *testing.T) {
	u := utilityfn.New(scenario.UtilityParams{Kind: scenario.UtilityCES, Rho: -0.5, WA: 0.5, WB: 0.5})
	q := Compute(Inputs{A: 5, B: 5, Utility: u, Spread: 0, Epsilon: 1e-9})
	if math.Abs(*q.AtoB-*q.BtoA) > 1e-9 {
		t.Errorf("at spread 0, ask (%v) should equal bid (%v)", *q.AtoB, *q.BtoA)
	}
}

func TestComputeMonetaryQuotesActiveWithMoney(t *testing.T) {
	u := utilityfn.New(scenario.UtilityParams{Kind: scenario.UtilityLinear, VA: 2, VB: 3})
	q := Compute(Inputs{
		A: 5, B: 5, M: 20, Lambda: 1, MoneyForm: scenario.MoneyFormLinear,
		Utility: u, Spread: 0.05, Epsilon: 1e-9, HasMoney: true,
	})
	if q.AtoM == nil || q.MtoA == nil || q.BtoM == nil || q.MtoB == nil {
		t.Fatalf("expected all monetary quotes active, got %+v", q)
	}
	if *q.AtoM <= *q.MtoA {
		t.Errorf("ask_A_in_M (%v) should exceed bid_A_in_M (%v)", *q.AtoM, *q.MtoA)
	}
	if got, want := q.MonetaryQuoteCount(), 4; got != want {
		t.Errorf("MonetaryQuoteCount() = %d, want %d", got, want)
	}
}

func TestMonetaryQuoteCountPartial(t *testing.T) {
	v := 1.0
	q := Quotes{AtoM: &v, BtoM: &v}
	if got := q.MonetaryQuoteCount(); got != 2 {
		t.Errorf("MonetaryQuoteCount() = %d, want 2", got)
	}
}
