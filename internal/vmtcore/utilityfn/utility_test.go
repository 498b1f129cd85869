package utilityfn

import (
	"math"
	"testing"

	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
)

func approxEqual(t *testing.T, got, want, tol float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %v, want %v (tol %v)", msg, got, want, tol)
	}
}

func TestLinearConstantMRS(t *testing.T) {
	u := New(scenario.UtilityParams{Kind: scenario.UtilityLinear, VA: 2, VB: 4})
	pMin, pMax := u.ReservationBoundsAInB(10, 10, 1e-12)
	approxEqual(t, pMin, 0.5, 1e-9, "pMin")
	approxEqual(t, pMax, 0.5, 1e-9, "pMax")

	pMin2, pMax2 := u.ReservationBoundsAInB(1, 1000, 1e-12)
	approxEqual(t, pMin2, pMin, 1e-9, "pMin invariant to inventory")
	approxEqual(t, pMax2, pMax, 1e-9, "pMax invariant to inventory")
}

func TestReservationBoundsAlwaysCoincide(t *testing.T) {
	forms := []scenario.UtilityParams{
		{Kind: scenario.UtilityCES, Rho: -0.5, WA: 0.6, WB: 0.4},
		{Kind: scenario.UtilityTranslog, Alpha0: 0, AlphaA: 0.5, AlphaB: 0.5, BetaAA: 0.01, BetaBB: 0.01, BetaAB: -0.005},
		{Kind: scenario.UtilityStoneGeary, SGAlphaA: 0.5, SGAlphaB: 0.5, SGGammaA: 1, SGGammaB: 1},
	}
	for _, p := range forms {
		u := New(p)
		pMin, pMax := u.ReservationBoundsAInB(5, 5, 1e-12)
		if pMin != pMax {
			t.Errorf("kind %v: pMin %v != pMax %v", p.Kind, pMin, pMax)
		}
	}
}

func TestZeroInventoryStabilization(t *testing.T) {
	u := New(scenario.UtilityParams{Kind: scenario.UtilityCES, Rho: -0.5, WA: 0.5, WB: 0.5})
	// Should not panic/NaN/Inf when B == 0.
	pMin, pMax := u.ReservationBoundsAInB(5, 0, 1e-9)
	if math.IsNaN(pMin) || math.IsInf(pMin, 0) {
		t.Errorf("pMin not finite at B=0: %v", pMin)
	}
	if pMin != pMax {
		t.Errorf("pMin != pMax at boundary: %v vs %v", pMin, pMax)
	}
}

func TestMoneyUtilityForms(t *testing.T) {
	if got := MoneyMarginalUtility(scenario.MoneyFormLinear, 50, 0); got != 1 {
		t.Errorf("linear f'(M) = %v, want 1", got)
	}
	fprime := MoneyMarginalUtility(scenario.MoneyFormLog, 10, 1)
	approxEqual(t, fprime, 1.0/11.0, 1e-9, "log f'(M)")
}

func TestTotalUtilityQuasilinear(t *testing.T) {
	u := New(scenario.UtilityParams{Kind: scenario.UtilityLinear, VA: 1, VB: 1})
	got := Total(u, 3, 4, 10, 2.0, scenario.MoneyFormLinear, 0)
	want := (3.0 + 4.0) + 2.0*10.0
	approxEqual(t, got, want, 1e-9, "Total")
}

func TestStoneGearySubsistenceSingularity(t *testing.T) {
	u := New(scenario.UtilityParams{Kind: scenario.UtilityStoneGeary, SGAlphaA: 0.5, SGAlphaB: 0.5, SGGammaA: 2, SGGammaB: 2})
	mu := u.MUA(3, 10)
	if mu <= 0 {
		t.Errorf("MUA above subsistence should be positive, got %v", mu)
	}
}
