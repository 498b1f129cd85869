// Package grid provides the spatial substrate: an N×N toroidally-bounded
// (edges are walls, no wrap) integer grid, Manhattan distance, and
// resource cells with harvest/regrowth state (spec.md §3, §4.7).
package grid

// Position is an integer grid coordinate.
type Position struct {
	X, Y int
}

// Distance returns the Manhattan distance between two positions — the
// sole distance metric in this world (spec.md §3).
func Distance(a, b Position) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// GoodKind is the resource kind a cell yields.
type GoodKind uint8

const (
	GoodA GoodKind = iota
	GoodB
)

// ResourceCell is a permanent grid cell whose harvestable amount
// fluctuates under harvest and regrowth (spec.md §3). DepletedAtTick is
// only meaningful when Depleted is true.
type ResourceCell struct {
	Pos            Position
	Kind           GoodKind
	Amount         int
	Depleted       bool
	DepletedAtTick uint64
}

// Grid holds the N×N bounded world and the resource cells on it.
type Grid struct {
	N     int
	Cells map[Position]*ResourceCell
}

// NewGrid creates an empty N×N grid.
func NewGrid(n int) *Grid {
	return &Grid{N: n, Cells: make(map[Position]*ResourceCell)}
}

// InBounds reports whether pos lies within the grid's walls.
func (g *Grid) InBounds(pos Position) bool {
	return pos.X >= 0 && pos.X < g.N && pos.Y >= 0 && pos.Y < g.N
}

// At returns the resource cell at pos, or nil if there isn't one.
func (g *Grid) At(pos Position) *ResourceCell {
	return g.Cells[pos]
}

// Set installs a resource cell.
func (g *Grid) Set(c *ResourceCell) {
	g.Cells[c.Pos] = c
}

// CellsWithin returns all resource cells within Manhattan radius r of pos,
// in ascending (x, y) order for deterministic iteration.
func (g *Grid) CellsWithin(pos Position, r int) []*ResourceCell {
	var out []*ResourceCell
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			if absInt(dx)+absInt(dy) > r {
				continue
			}
			p := Position{X: pos.X + dx, Y: pos.Y + dy}
			if !g.InBounds(p) {
				continue
			}
			if c, ok := g.Cells[p]; ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// TotalAmount sums the amount held across every cell of the given kind —
// used to check the global conservation invariant (spec.md §3, §8).
func (g *Grid) TotalAmount(kind GoodKind) int {
	total := 0
	for _, c := range g.Cells {
		if c.Kind == kind {
			total += c.Amount
		}
	}
	return total
}

// Step moves one Manhattan step from cur toward target, reducing the
// larger axis-delta first and breaking remaining ties by preferring x
// before y, and negative direction when the delta is ambiguous
// (spec.md §4.8).
func Step(cur, target Position) Position {
	dx := target.X - cur.X
	dy := target.Y - cur.Y
	if dx == 0 && dy == 0 {
		return cur
	}

	adx, ady := absInt(dx), absInt(dy)

	moveX := func() Position {
		if dx > 0 {
			return Position{X: cur.X + 1, Y: cur.Y}
		}
		return Position{X: cur.X - 1, Y: cur.Y}
	}
	moveY := func() Position {
		if dy > 0 {
			return Position{X: cur.X, Y: cur.Y + 1}
		}
		return Position{X: cur.X, Y: cur.Y - 1}
	}

	if adx > ady {
		return moveX()
	}
	if ady > adx {
		return moveY()
	}
	// Equal magnitude: reduce x before y.
	if adx > 0 {
		return moveX()
	}
	return cur
}

// MoveToward advances up to budget Manhattan steps from cur toward
// target, applying Step repeatedly (spec.md §4.8).
func MoveToward(cur, target Position, budget int) Position {
	pos := cur
	for i := 0; i < budget; i++ {
		next := Step(pos, target)
		if next == pos {
			break
		}
		pos = next
	}
	return pos
}
