package sim

import "github.com/vmtsim/vmt/internal/vmtcore/scenario"

// Mode is the temporal forage/trade cycle of spec.md §4.9, orthogonal to
// the exchange_regime gating applied within Trade.
type Mode uint8

const (
	ModeForage Mode = iota
	ModeTrade
	ModeBoth
)

// currentMode derives the active temporal mode for a tick from the
// scenario's mode_schedule. A disabled schedule runs both forage and
// trade every tick (the exchange_regime alone gates which pair types
// Trade considers).
func currentMode(ms scenario.ModeSchedule, tick uint64) Mode {
	if !ms.Enabled {
		return ModeBoth
	}
	cycle := uint64(ms.ForageTicks + ms.TradeTicks)
	if cycle == 0 {
		return ModeBoth
	}
	pos := tick % cycle
	firstIsForage := ms.StartMode == scenario.StartModeForage
	if firstIsForage {
		if pos < uint64(ms.ForageTicks) {
			return ModeForage
		}
		return ModeTrade
	}
	if pos < uint64(ms.TradeTicks) {
		return ModeTrade
	}
	return ModeForage
}

func (m Mode) tradeActive() bool  { return m == ModeTrade || m == ModeBoth }
func (m Mode) forageActive() bool { return m == ModeForage || m == ModeBoth }

func (m Mode) String() string {
	switch m {
	case ModeForage:
		return "forage"
	case ModeTrade:
		return "trade"
	default:
		return "both"
	}
}
