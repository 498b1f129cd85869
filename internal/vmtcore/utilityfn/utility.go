// Package utilityfn implements the five utility functional forms of
// spec.md §4.2 as a single tagged variant with inlined arithmetic — per
// the design note in spec.md §9, the capability set is fixed and small,
// so dynamic dispatch buys nothing a switch doesn't.
package utilityfn

import (
	"math"

	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
)

// Utility wraps a validated scenario.UtilityParams with the four
// capabilities spec.md §4.2 requires: u_goods, mu_A, mu_B, and
// reservation bounds.
type Utility struct {
	P scenario.UtilityParams
}

// New wraps validated parameters. Validation itself happens in
// scenario.New at config time; by the time a Utility exists the
// parameters are known-good (rho != 1, positive weights, etc).
func New(p scenario.UtilityParams) Utility { return Utility{P: p} }

// shiftedArgs applies the zero-inventory stabilization of spec.md §4.2:
// MRS is computed on (A+eps, B+eps) only when A == 0 or B == 0; interior
// points use raw values so boundary handling never biases interior
// behavior.
func shiftedArgs(a, b, eps float64) (float64, float64) {
	if a == 0 || b == 0 {
		return a + eps, b + eps
	}
	return a, b
}

// UGoods returns u(A, B) for the underlying functional form.
func (u Utility) UGoods(a, b int) float64 {
	fa, fb := float64(a), float64(b)
	p := u.P
	switch p.Kind {
	case scenario.UtilityCES:
		return math.Pow(p.WA*math.Pow(fa, p.Rho)+p.WB*math.Pow(fb, p.Rho), 1/p.Rho)
	case scenario.UtilityLinear:
		return p.VA*fa + p.VB*fb
	case scenario.UtilityQuadratic:
		da, db := fa-p.AStar, fb-p.BStar
		return -p.SigA*da*da - p.SigB*db*db - p.Gamma*da*db
	case scenario.UtilityTranslog:
		la, lb := math.Log(fa), math.Log(fb)
		ln := p.Alpha0 + p.AlphaA*la + p.AlphaB*lb +
			0.5*p.BetaAA*la*la + 0.5*p.BetaBB*lb*lb + p.BetaAB*la*lb
		return math.Exp(ln)
	case scenario.UtilityStoneGeary:
		return p.SGAlphaA*math.Log(fa-p.SGGammaA) + p.SGAlphaB*math.Log(fb-p.SGGammaB)
	}
	return 0
}

// MUA returns the marginal utility of A at (A, B).
func (u Utility) MUA(a, b int) float64 {
	fa, fb := float64(a), float64(b)
	p := u.P
	switch p.Kind {
	case scenario.UtilityCES:
		total := p.WA*math.Pow(fa, p.Rho) + p.WB*math.Pow(fb, p.Rho)
		return p.WA * math.Pow(fa, p.Rho-1) * math.Pow(total, 1/p.Rho-1)
	case scenario.UtilityLinear:
		return p.VA
	case scenario.UtilityQuadratic:
		return -2*p.SigA*(fa-p.AStar) - p.Gamma*(fb-p.BStar)
	case scenario.UtilityTranslog:
		la, lb := math.Log(fa), math.Log(fb)
		dlnU := (p.AlphaA + p.BetaAA*la + p.BetaAB*lb) / fa
		return dlnU * u.UGoods(a, b)
	case scenario.UtilityStoneGeary:
		return p.SGAlphaA / (fa - p.SGGammaA)
	}
	return 0
}

// MUB returns the marginal utility of B at (A, B).
func (u Utility) MUB(a, b int) float64 {
	fa, fb := float64(a), float64(b)
	p := u.P
	switch p.Kind {
	case scenario.UtilityCES:
		total := p.WA*math.Pow(fa, p.Rho) + p.WB*math.Pow(fb, p.Rho)
		return p.WB * math.Pow(fb, p.Rho-1) * math.Pow(total, 1/p.Rho-1)
	case scenario.UtilityLinear:
		return p.VB
	case scenario.UtilityQuadratic:
		return -2*p.SigB*(fb-p.BStar) - p.Gamma*(fa-p.AStar)
	case scenario.UtilityTranslog:
		la, lb := math.Log(fa), math.Log(fb)
		dlnU := (p.AlphaB + p.BetaBB*lb + p.BetaAB*la) / fb
		return dlnU * u.UGoods(a, b)
	case scenario.UtilityStoneGeary:
		return p.SGAlphaB / (fb - p.SGGammaB)
	}
	return 0
}

// mrsAt returns MU_A / MU_B (B per unit A) at the given (possibly shifted)
// continuous arguments, recomputed directly rather than by calling
// MUA/MUB (which take integer inventories) so the zero-inventory shift
// can use fractional epsilon offsets.
func (u Utility) mrsAt(fa, fb float64) float64 {
	p := u.P
	switch p.Kind {
	case scenario.UtilityCES:
		return (p.WA / p.WB) * math.Pow(fa/fb, p.Rho-1)
	case scenario.UtilityLinear:
		return p.VA / p.VB
	case scenario.UtilityQuadratic:
		muA := -2*p.SigA*(fa-p.AStar) - p.Gamma*(fb-p.BStar)
		muB := -2*p.SigB*(fb-p.BStar) - p.Gamma*(fa-p.AStar)
		return muA / muB
	case scenario.UtilityTranslog:
		la, lb := math.Log(fa), math.Log(fb)
		muA := (p.AlphaA + p.BetaAA*la + p.BetaAB*lb) / fa
		muB := (p.AlphaB + p.BetaBB*lb + p.BetaAB*la) / fb
		return muA / muB
	case scenario.UtilityStoneGeary:
		return (p.SGAlphaA / (fa - p.SGGammaA)) / (p.SGAlphaB / (fb - p.SGGammaB))
	}
	return 0
}

// ReservationBoundsAInB returns (p_min, p_max), the price interval (in B
// per unit A) at which this agent will sell (p_min) and buy (p_max) a
// marginal unit of A, given inventory (A, B) (spec.md §4.2). For constant-
// MRS forms (Linear) p_min == p_max == MRS exactly. Zero-inventory
// stabilization shifts the evaluation point only at the A=0 or B=0
// boundary.
func (u Utility) ReservationBoundsAInB(a, b int, eps float64) (pMin, pMax float64) {
	fa, fb := shiftedArgs(float64(a), float64(b), eps)
	mrs := u.mrsAt(fa, fb)
	// Every form uses a single reservation price at a given (A, B), the
	// MRS at that point (constant only for Linear); Quadratic's MRS can flip
	// sign past bliss, in which case the agent's willingness to sell
	// collapses to the same point as its willingness to buy (it refuses
	// any goods-for-goods trade that moves it further from bliss) —
	// reflected here by returning the same MRS for both bounds. A
	// dedicated two-sided bid/ask spread is applied downstream by the
	// quote system (spec.md §4.3), not here.
	return mrs, mrs
}

// StoneGearyGammas returns the subsistence floors (γA, γB) when this
// utility is a Stone-Geary form, and ok=false otherwise. Used by the
// scheduler's invariant check (spec.md §3: "every agent's A > γA and
// B > γB at all times post-init").
func (u Utility) StoneGearyGammas() (gammas struct{ GammaA, GammaB float64 }, ok bool) {
	if u.P.Kind != scenario.UtilityStoneGeary {
		return gammas, false
	}
	gammas.GammaA = u.P.SGGammaA
	gammas.GammaB = u.P.SGGammaB
	return gammas, true
}

// MoneyMarginalUtility returns f'(M) for the given money utility form.
func MoneyMarginalUtility(form scenario.MoneyUtilityForm, m int, m0 float64) float64 {
	switch form {
	case scenario.MoneyFormLog:
		return 1 / (float64(m) + m0)
	default: // linear
		return 1
	}
}

// MoneyUtility returns f(M) for the given money utility form.
func MoneyUtility(form scenario.MoneyUtilityForm, m int, m0 float64) float64 {
	switch form {
	case scenario.MoneyFormLog:
		return math.Log(float64(m) + m0)
	default:
		return float64(m)
	}
}

// Total returns U_total(A, B, M) = u_goods(A, B) + lambda * f(M), the
// quasilinear-money total utility of spec.md §3.
func Total(u Utility, a, b, m int, lambda float64, form scenario.MoneyUtilityForm, m0 float64) float64 {
	return u.UGoods(a, b) + lambda*MoneyUtility(form, m, m0)
}
