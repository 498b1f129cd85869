package matching

import (
	"math"

	"github.com/vmtsim/vmt/internal/vmtcore/agent"
	"github.com/vmtsim/vmt/internal/vmtcore/inventory"
	"github.com/vmtsim/vmt/internal/vmtcore/utilityfn"
)

// roundHalfUp implements spec.md §4.6's rounding rule for converting a
// continuous price into an integer settlement quantity: halves round
// away from zero rather than to even, matching the teacher's plain
// arithmetic style over importing a decimal/rounding library for a
// single-line rule.
func roundHalfUp(v float64) int {
	if v >= 0 {
		return int(math.Floor(v + 0.5))
	}
	return -int(math.Floor(-v + 0.5))
}

func goodAmount(inv inventory.Inventory, good byte) int {
	switch good {
	case 'A':
		return inv.A
	case 'B':
		return inv.B
	case 'M':
		return inv.M
	}
	return 0
}

func withDelta(inv inventory.Inventory, good byte, delta int) inventory.Inventory {
	switch good {
	case 'A':
		inv.A += delta
	case 'B':
		inv.B += delta
	case 'M':
		inv.M += delta
	}
	return inv
}

// totalUtility evaluates U_total for an agent's utility/lambda/money-form
// at a hypothetical inventory, without mutating the agent (spec.md §3).
func totalUtility(a *agent.Agent, inv inventory.Inventory, m0 float64) float64 {
	return utilityfn.Total(a.Utility, inv.A, inv.B, inv.M, a.LambdaMoney, a.MoneyForm, m0)
}
