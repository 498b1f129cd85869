package matching

import (
	"testing"

	"github.com/vmtsim/vmt/internal/vmtcore/agent"
	"github.com/vmtsim/vmt/internal/vmtcore/grid"
	"github.com/vmtsim/vmt/internal/vmtcore/inventory"
	"github.com/vmtsim/vmt/internal/vmtcore/quote"
	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
	"github.com/vmtsim/vmt/internal/vmtcore/utilityfn"
)

func TestRoundHalfUp(t *testing.T) {
	cases := map[float64]int{
		0.5:  1,
		1.5:  2,
		2.4:  2,
		2.5:  3,
		-0.5: -1,
		0.0:  0,
	}
	for in, want := range cases {
		if got := roundHalfUp(in); got != want {
			t.Errorf("roundHalfUp(%v) = %d, want %d", in, got, want)
		}
	}
}

func ptr(v float64) *float64 { return &v }

// Two agents with mirrored CES preferences and mirrored endowments
// (one A-rich, one B-rich) should find a mutually improving barter
// trade and settle it.
func TestExecuteTradesBarterGainFromTrade(t *testing.T) {
	params := scenario.DefaultParams()
	params.ExchangeRegime = scenario.RegimeBarterOnly
	params.DAMax = 3

	uA := utilityfn.New(scenario.UtilityParams{Kind: scenario.UtilityCES, Rho: -0.5, WA: 0.7, WB: 0.3})
	uB := utilityfn.New(scenario.UtilityParams{Kind: scenario.UtilityCES, Rho: -0.5, WA: 0.3, WB: 0.7})

	i := &agent.Agent{ID: 0, Pos: grid.Position{X: 0, Y: 0}, Inv: inventory.Inventory{A: 10, B: 1}, Utility: uA, PairState: agent.Negotiating}
	j := &agent.Agent{ID: 1, Pos: grid.Position{X: 0, Y: 0}, Inv: inventory.Inventory{A: 1, B: 10}, Utility: uB, PairState: agent.Negotiating}

	pMinI, pMaxI := uA.ReservationBoundsAInB(i.Inv.A, i.Inv.B, params.Epsilon)
	pMinJ, pMaxJ := uB.ReservationBoundsAInB(j.Inv.A, j.Inv.B, params.Epsilon)
	i.Quotes = quote.Quotes{AtoB: ptr(pMinI), BtoA: ptr(pMaxI)}
	j.Quotes = quote.Quotes{AtoB: ptr(pMinJ), BtoA: ptr(pMaxJ)}

	iID, jID := i.ID, j.ID
	i.PartnerID, j.PartnerID = &jID, &iID

	agents := []*agent.Agent{i, j}
	byID := map[uint64]*agent.Agent{0: i, 1: j}

	blocks, resolutions := ExecuteTrades(agents, byID, params, 0)
	if len(blocks) == 0 {
		t.Fatal("expected at least one settled block between complementary agents")
	}

	if !i.Inv.Valid() || !j.Inv.Valid() {
		t.Fatalf("negative inventory after trade: i=%+v j=%+v", i.Inv, j.Inv)
	}
	if i.PairState != agent.Unpaired || j.PairState != agent.Unpaired {
		t.Errorf("expected both agents unpaired after settlement, got %v / %v", i.PairState, j.PairState)
	}
	if len(resolutions) != 1 || resolutions[0].Reason != "trade_terminal" {
		t.Errorf("expected a single trade_terminal resolution, got %+v", resolutions)
	}
	// A Traded_Terminal exit (surplus exhausted, not a negotiation
	// failure) must not apply a cooldown: the pair should be free to
	// re-engage immediately once new surplus appears.
	if i.CooldownWith(j.ID, 0) || j.CooldownWith(i.ID, 0) {
		t.Error("successful settlement should not apply a trade cooldown")
	}

	totalA := i.Inv.A + j.Inv.A
	totalB := i.Inv.B + j.Inv.B
	if totalA != 11 || totalB != 11 {
		t.Errorf("conservation violated: totalA=%d totalB=%d, want 11/11", totalA, totalB)
	}
}

func TestAllowedPairTypesBarterOnlyExcludesMoney(t *testing.T) {
	params := scenario.DefaultParams()
	params.ExchangeRegime = scenario.RegimeBarterOnly
	i := &agent.Agent{ID: 0, HasMoney: true}
	j := &agent.Agent{ID: 1, HasMoney: true}
	for _, k := range allowedPairTypes(i, j, params) {
		if isMonetary(k) {
			t.Errorf("barter_only regime allowed monetary pair type %v", k)
		}
	}
}

func TestAllowedPairTypesMoneyOnlyRequiresBothHaveMoney(t *testing.T) {
	params := scenario.DefaultParams()
	params.ExchangeRegime = scenario.RegimeMoneyOnly
	i := &agent.Agent{ID: 0, HasMoney: true}
	j := &agent.Agent{ID: 1, HasMoney: false}
	if got := allowedPairTypes(i, j, params); len(got) != 0 {
		t.Errorf("expected no allowed pair types when one agent lacks money, got %v", got)
	}
}

func TestAllowedPairTypesLiquidityGateFallsBackToBarter(t *testing.T) {
	params := scenario.DefaultParams()
	params.ExchangeRegime = scenario.RegimeMixedLiquidityGated
	params.LiquidityGate.MinQuotes = 2

	i := &agent.Agent{ID: 0, HasMoney: true} // zero monetary quotes: under gate
	j := &agent.Agent{ID: 1, HasMoney: true}

	got := allowedPairTypes(i, j, params)
	foundBarter := false
	for _, k := range got {
		if k == PairAtoB || k == PairBtoA {
			foundBarter = true
		}
	}
	if !foundBarter {
		t.Errorf("expected barter fallback under liquidity gate with no monetary quotes, got %v", got)
	}
}
