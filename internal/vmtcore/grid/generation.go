// Resource placement for a freshly created grid, following the layered
// noise-field approach mini-world's internal/world/generation.go uses for
// terrain: an opensimplex field is sampled per cell and thresholded
// against resource_seed.density, so clusters of the same good kind form
// organically instead of independent per-cell coin flips, while the
// result is still fully deterministic from the seed.
package grid

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig controls initial resource placement (spec.md §6.1 resource_seed).
type GenConfig struct {
	N       int
	Seed    int64
	Density float64 // fraction of cells that receive a resource
	Amount  int     // starting amount per seeded cell
}

// Generate builds a Grid and seeds resource cells from two noise layers,
// each normalized to [0, 1): a density field, thresholded by Density,
// decides whether a cell holds a resource, and a second field seeded with
// Seed+1 and thresholded at 0.5 picks its kind (A below, B at or above)
// rather than a coin flip, so that A and B form separate clusters instead
// of a uniform speckle.
func Generate(cfg GenConfig) *Grid {
	g := NewGrid(cfg.N)

	densityNoise := opensimplex.NewNormalized(cfg.Seed)
	kindNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	const scale = 0.15 // spatial frequency of the noise field

	for x := 0; x < cfg.N; x++ {
		for y := 0; y < cfg.N; y++ {
			v := densityNoise.Eval2(float64(x)*scale, float64(y)*scale)
			if v >= cfg.Density {
				continue
			}
			kind := GoodA
			if kindNoise.Eval2(float64(x)*scale, float64(y)*scale) >= 0.5 {
				kind = GoodB
			}
			g.Set(&ResourceCell{
				Pos:    Position{X: x, Y: y},
				Kind:   kind,
				Amount: cfg.Amount,
			})
		}
	}

	return g
}

// RandomPosition picks a uniform position on an N×N grid from the root
// stream — used at agent-spawn time, consumed in agent-ID order so the
// draw sequence is deterministic (spec.md §6.2).
func RandomPosition(r *rand.Rand, n int) Position {
	return Position{X: r.Intn(n), Y: r.Intn(n)}
}
