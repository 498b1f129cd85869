package matching

import (
	"github.com/vmtsim/vmt/internal/vmtcore/agent"
	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
)

// allowedPairTypes returns the PairKeys permitted between i and j under
// the scenario's exchange regime, in money-first priority order
// (spec.md §4.6):
//
//   - barter_only: goods-goods only.
//   - money_only: goods-money only, and only if both agents carry money.
//   - mixed: all six, goods-money gated on both agents carrying money.
//   - mixed_liquidity_gated: goods-money always available (subject to
//     money); goods-goods only once both agents already hold fewer
//     monetary quotes than params.liquidity_gate.min_quotes — i.e. barter
//     is a fallback for agents that haven't yet found monetary partners.
func allowedPairTypes(i, j *agent.Agent, p scenario.Params) []PairKey {
	var out []PairKey
	bothHaveMoney := i.HasMoney && j.HasMoney

	barterOK := false
	switch p.ExchangeRegime {
	case scenario.RegimeBarterOnly:
		barterOK = true
	case scenario.RegimeMoneyOnly:
		barterOK = false
	case scenario.RegimeMixed:
		barterOK = true
	case scenario.RegimeMixedLiquidityGated:
		barterOK = i.Quotes.MonetaryQuoteCount() < p.LiquidityGate.MinQuotes &&
			j.Quotes.MonetaryQuoteCount() < p.LiquidityGate.MinQuotes
	}

	monetaryOK := bothHaveMoney && p.ExchangeRegime != scenario.RegimeBarterOnly

	for _, s := range specs {
		if isMonetary(s.key) {
			if monetaryOK {
				out = append(out, s.key)
			}
			continue
		}
		if barterOK {
			out = append(out, s.key)
		}
	}
	return out
}
