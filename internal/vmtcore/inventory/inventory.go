// Package inventory holds the non-negative integer (A, B, M) goods/money
// tuple per agent (spec.md §3) and the non-negativity check the
// scheduler's invariant pass uses (conservation itself is checked in sim).
package inventory

import "fmt"

// Inventory is a non-negative integer goods/money tuple. M is denominated
// in minor units; money_scale (held by the scenario, not here) interprets
// it for display only.
type Inventory struct {
	A, B, M int
}

// Has reports whether the inventory holds at least qty of good.
func (inv Inventory) Has(good byte, qty int) bool {
	switch good {
	case 'A':
		return inv.A >= qty
	case 'B':
		return inv.B >= qty
	case 'M':
		return inv.M >= qty
	}
	return false
}

// Valid reports whether all components are non-negative (spec.md §3, §8).
func (inv Inventory) Valid() bool {
	return inv.A >= 0 && inv.B >= 0 && inv.M >= 0
}

func (inv Inventory) String() string {
	return fmt.Sprintf("A=%d B=%d M=%d", inv.A, inv.B, inv.M)
}
