package sim

// RunStats tracks coarse aggregate counters across a run, mirroring the
// teacher engine's SimStats/updateStats shape (population/wealth/mood
// aggregated every tick) at a scale that fits this domain: trades,
// harvested units, and formed and failed pairings are counted
// incrementally by the phases that produce them (Decision, Trade, Forage)
// rather than by re-scanning history; Housekeeping sets Ticks and the
// conserved totals.
type RunStats struct {
	Ticks          uint64
	TradesSettled  uint64
	UnitsHarvested uint64
	PairsFormed    uint64
	PairsFailed    uint64
	ConservedA     int
	ConservedB     int
	ConservedM     int
}
