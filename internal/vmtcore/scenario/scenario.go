// Package scenario defines the immutable configuration the core consumes
// (spec.md §6.1) and validates it at construction time. Parsing a
// scenario out of YAML or CLI flags is a collaborator's job (see
// internal/loader); this package only knows about the validated shape.
package scenario

import (
	"math"

	"github.com/vmtsim/vmt/internal/vmtcore/vmterr"
)

// ExchangeRegime controls which exchange pair types Trade considers.
type ExchangeRegime uint8

const (
	RegimeBarterOnly ExchangeRegime = iota
	RegimeMoneyOnly
	RegimeMixed
	RegimeMixedLiquidityGated
)

// MoneyMode selects how the marginal utility of money is maintained.
// Only Quasilinear is implemented; KKTLambda is reserved (spec.md §9 open
// question) and rejected at validation time.
type MoneyMode uint8

const (
	MoneyModeQuasilinear MoneyMode = iota
	MoneyModeKKTLambda
)

// MoneyUtilityForm selects f(M) in U_total = u_goods(A,B) + λ·f(M).
type MoneyUtilityForm uint8

const (
	MoneyFormLinear MoneyUtilityForm = iota
	MoneyFormLog
)

// StartMode is the temporal mode a mode_schedule begins in.
type StartMode uint8

const (
	StartModeForage StartMode = iota
	StartModeTrade
)

// UtilityKind enumerates the supported functional forms (spec.md §4.2).
type UtilityKind uint8

const (
	UtilityCES UtilityKind = iota
	UtilityLinear
	UtilityQuadratic
	UtilityTranslog
	UtilityStoneGeary
)

// UtilityParams holds the union of parameters for all utility kinds; only
// the fields relevant to Kind are meaningful.
type UtilityParams struct {
	Kind UtilityKind

	// CES
	Rho float64
	WA  float64
	WB  float64

	// Linear
	VA float64
	VB float64

	// Quadratic
	AStar float64
	BStar float64
	SigA  float64
	SigB  float64
	Gamma float64

	// Translog
	Alpha0 float64
	AlphaA float64
	AlphaB float64
	BetaAA float64
	BetaBB float64
	BetaAB float64

	// Stone-Geary
	SGAlphaA float64
	SGAlphaB float64
	SGGammaA float64
	SGGammaB float64
}

// UtilityMixEntry is one weighted utility-type choice in the population mix.
type UtilityMixEntry struct {
	Params UtilityParams
	Weight float64
}

// LiquidityGate configures mixed_liquidity_gated semantics (spec.md §4.6,
// §9 open question). "Distinct monetary quotes" is resolved here as: the
// count of distinct *pair types* (of the four monetary pair types) for
// which the agent currently holds an active quote — not distinct neighbor
// identities. This is testable directly off an agent's own Quotes value
// without needing to inspect who else is visible, and it's the reading
// consistent with quotes being a per-agent, not per-neighbor, concept
// everywhere else in §4.3.
type LiquidityGate struct {
	MinQuotes int
}

// LambdaBounds bounds adaptive-λ updates (reserved for kkt_lambda mode).
type LambdaBounds struct {
	Min float64
	Max float64
}

// ModeSchedule is the optional global forage/trade temporal cycle
// (spec.md §4.9).
type ModeSchedule struct {
	Enabled    bool
	ForageTicks int
	TradeTicks  int
	StartMode   StartMode
}

// ResourceSeed controls initial resource placement (spec.md §6.1).
type ResourceSeed struct {
	Density float64
	Amount  int
}

// Params bundles the enumerated recognized options of spec.md §6.1.
type Params struct {
	Spread float64

	VisionRadius      int
	InteractionRadius int
	MoveBudgetPerTick int

	DAMax             int
	TradeCooldownTicks int

	ForageRate            int
	ResourceGrowthRate    int
	ResourceMaxAmount     int
	ResourceRegenCooldown int

	EnableResourceClaiming  bool
	EnforceSingleHarvester  bool

	Epsilon float64
	Beta    float64

	ExchangeRegime ExchangeRegime

	MoneyMode        MoneyMode
	MoneyUtilityForm MoneyUtilityForm
	M0               float64

	MoneyScale  int
	LambdaMoney float64

	LambdaUpdateRate float64
	LambdaBounds     LambdaBounds

	LiquidityGate LiquidityGate
}

// DefaultParams returns the defaults listed in spec.md §6.1.
func DefaultParams() Params {
	return Params{
		Spread:                 0.0,
		VisionRadius:           5,
		InteractionRadius:      1,
		MoveBudgetPerTick:      1,
		DAMax:                  5,
		TradeCooldownTicks:     5,
		ForageRate:             1,
		ResourceGrowthRate:     0,
		ResourceMaxAmount:      5,
		ResourceRegenCooldown:  5,
		EnableResourceClaiming: true,
		EnforceSingleHarvester: true,
		Epsilon:                1e-12,
		Beta:                   0.95,
		ExchangeRegime:         RegimeBarterOnly,
		MoneyMode:              MoneyModeQuasilinear,
		MoneyUtilityForm:       MoneyFormLinear,
		M0:                     0.0,
		MoneyScale:             1,
		LambdaMoney:            1.0,
		LambdaUpdateRate:       0.2,
		LambdaBounds:           LambdaBounds{Min: 1e-6, Max: 1e6},
		LiquidityGate:          LiquidityGate{MinQuotes: 3},
	}
}

// InitialInventories gives the starting (A, B, M) and λ per agent. Each
// slice is either length 1 (broadcast to every agent) or length == Agents.
type InitialInventories struct {
	A           []int
	B           []int
	M           []int
	HasMoney    bool
	LambdaMoney []float64
}

// Config is the validated, immutable scenario the core runs against.
type Config struct {
	SchemaVersion int
	Name          string
	N             int
	Agents        int

	Initial InitialInventories
	Mix     []UtilityMixEntry

	Params Params

	ResourceSeed ResourceSeed
	ModeSchedule ModeSchedule
}

// New validates raw fields and returns an immutable Config, or a
// *vmterr.ConfigError identifying the first violated constraint.
func New(schemaVersion int, name string, n, agentCount int, initial InitialInventories,
	mix []UtilityMixEntry, params Params, resourceSeed ResourceSeed, modeSchedule ModeSchedule) (*Config, error) {

	if schemaVersion != 1 {
		return nil, vmterr.NewConfigError("schema_version", "must equal 1")
	}
	if n <= 0 {
		return nil, vmterr.NewConfigError("N", "must be > 0")
	}
	if agentCount <= 0 {
		return nil, vmterr.NewConfigError("agents", "must be > 0")
	}

	if err := validateBroadcast("initial_inventories.A", initial.A, agentCount); err != nil {
		return nil, err
	}
	if err := validateBroadcast("initial_inventories.B", initial.B, agentCount); err != nil {
		return nil, err
	}
	if initial.HasMoney {
		if err := validateBroadcast("initial_inventories.M", initial.M, agentCount); err != nil {
			return nil, err
		}
	}
	if len(initial.LambdaMoney) > 0 {
		if err := validateBroadcastFloat("lambda_money", initial.LambdaMoney, agentCount); err != nil {
			return nil, err
		}
	}

	if len(mix) == 0 {
		return nil, vmterr.NewConfigError("utilities.mix", "must have at least one entry")
	}
	weightSum := 0.0
	for i, m := range mix {
		weightSum += m.Weight
		if err := validateUtilityParams(i, m.Params); err != nil {
			return nil, err
		}
	}
	if math.Abs(weightSum-1.0) > 1e-6 {
		return nil, vmterr.NewConfigError("utilities.mix", "weights must sum to 1.0 ± 1e-6")
	}

	if params.Spread < 0 {
		return nil, vmterr.NewConfigError("params.spread", "must be >= 0")
	}
	if params.VisionRadius < 0 {
		return nil, vmterr.NewConfigError("params.vision_radius", "must be >= 0")
	}
	if params.InteractionRadius < 0 {
		return nil, vmterr.NewConfigError("params.interaction_radius", "must be >= 0")
	}
	if params.MoveBudgetPerTick < 1 {
		return nil, vmterr.NewConfigError("params.move_budget_per_tick", "must be >= 1")
	}
	if params.DAMax < 1 {
		return nil, vmterr.NewConfigError("params.dA_max", "must be >= 1")
	}
	if params.TradeCooldownTicks < 0 {
		return nil, vmterr.NewConfigError("params.trade_cooldown_ticks", "must be >= 0")
	}
	if params.ForageRate < 1 {
		return nil, vmterr.NewConfigError("params.forage_rate", "must be >= 1")
	}
	if params.ResourceGrowthRate < 0 {
		return nil, vmterr.NewConfigError("params.resource_growth_rate", "must be >= 0")
	}
	if params.ResourceMaxAmount < 1 {
		return nil, vmterr.NewConfigError("params.resource_max_amount", "must be >= 1")
	}
	if params.ResourceRegenCooldown < 0 {
		return nil, vmterr.NewConfigError("params.resource_regen_cooldown", "must be >= 0")
	}
	if params.Epsilon <= 0 {
		return nil, vmterr.NewConfigError("params.epsilon", "must be > 0")
	}
	if params.Beta <= 0 || params.Beta > 1 {
		return nil, vmterr.NewConfigError("params.beta", "must be in (0, 1]")
	}
	if params.MoneyMode == MoneyModeKKTLambda {
		return nil, vmterr.NewConfigError("params.money_mode", "kkt_lambda is not implemented in this core")
	}
	if params.M0 < 0 {
		return nil, vmterr.NewConfigError("params.M_0", "must be >= 0")
	}
	if params.MoneyScale < 1 {
		return nil, vmterr.NewConfigError("params.money_scale", "must be >= 1")
	}
	if params.LambdaMoney <= 0 {
		return nil, vmterr.NewConfigError("params.lambda_money", "must be > 0")
	}
	if params.LambdaUpdateRate < 0 || params.LambdaUpdateRate > 1 {
		return nil, vmterr.NewConfigError("params.lambda_update_rate", "must be in [0, 1]")
	}
	if !(params.LambdaBounds.Min > 0 && params.LambdaBounds.Min < params.LambdaBounds.Max) {
		return nil, vmterr.NewConfigError("params.lambda_bounds", "must satisfy 0 < min < max")
	}
	if params.LiquidityGate.MinQuotes < 0 {
		return nil, vmterr.NewConfigError("params.liquidity_gate.min_quotes", "must be >= 0")
	}

	needsMoney := params.ExchangeRegime == RegimeMoneyOnly ||
		params.ExchangeRegime == RegimeMixed ||
		params.ExchangeRegime == RegimeMixedLiquidityGated
	if needsMoney && !initial.HasMoney {
		return nil, vmterr.NewConfigError("initial_inventories.M", "required when exchange_regime uses monetary pairs")
	}

	if resourceSeed.Density < 0 || resourceSeed.Density > 1 {
		return nil, vmterr.NewConfigError("resource_seed.density", "must be in [0, 1]")
	}
	if resourceSeed.Amount < 0 {
		return nil, vmterr.NewConfigError("resource_seed.amount", "must be >= 0")
	}

	if modeSchedule.Enabled {
		if modeSchedule.ForageTicks <= 0 {
			return nil, vmterr.NewConfigError("mode_schedule.forage_ticks", "must be > 0")
		}
		if modeSchedule.TradeTicks <= 0 {
			return nil, vmterr.NewConfigError("mode_schedule.trade_ticks", "must be > 0")
		}
	}

	// Stone-Geary subsistence: every agent whose mix includes a
	// Stone-Geary entry must start strictly above γA, γB. Since utility
	// assignment per agent happens at spawn time (driven by the mix
	// weights and the seed), the conservative, checkable-at-config-time
	// rule is that every possible initial (A, B) value in the broadcast
	// or per-agent list exceeds every Stone-Geary entry's γ — otherwise
	// some seed could assign a Stone-Geary agent a non-viable endowment.
	for i, m := range mix {
		if m.Params.Kind != UtilityStoneGeary {
			continue
		}
		for j, a := range initial.A {
			if float64(a) <= m.Params.SGGammaA {
				return nil, vmterr.NewConfigError("initial_inventories.A",
					"must exceed γA for every Stone-Geary mix entry")
			}
			_ = j
			_ = i
		}
		for _, b := range initial.B {
			if float64(b) <= m.Params.SGGammaB {
				return nil, vmterr.NewConfigError("initial_inventories.B",
					"must exceed γB for every Stone-Geary mix entry")
			}
		}
	}

	return &Config{
		SchemaVersion: schemaVersion,
		Name:          name,
		N:             n,
		Agents:        agentCount,
		Initial:       initial,
		Mix:           mix,
		Params:        params,
		ResourceSeed:  resourceSeed,
		ModeSchedule:  modeSchedule,
	}, nil
}

func validateUtilityParams(idx int, p UtilityParams) error {
	field := "utilities.mix"
	switch p.Kind {
	case UtilityCES:
		if p.Rho == 1 {
			return vmterr.NewConfigError(field, "CES requires rho != 1")
		}
		if p.WA <= 0 || p.WB <= 0 {
			return vmterr.NewConfigError(field, "CES requires wA, wB > 0")
		}
	case UtilityLinear:
		if p.VA <= 0 || p.VB <= 0 {
			return vmterr.NewConfigError(field, "Linear requires vA, vB > 0")
		}
	case UtilityQuadratic:
		if p.Gamma < 0 {
			return vmterr.NewConfigError(field, "Quadratic requires gamma >= 0")
		}
	case UtilityTranslog:
		if p.AlphaA <= 0 || p.AlphaB <= 0 {
			return vmterr.NewConfigError(field, "Translog requires alphaA, alphaB > 0")
		}
	case UtilityStoneGeary:
		if p.SGAlphaA <= 0 || p.SGAlphaB <= 0 {
			return vmterr.NewConfigError(field, "Stone-Geary requires alphaA, alphaB > 0")
		}
		if p.SGGammaA < 0 || p.SGGammaB < 0 {
			return vmterr.NewConfigError(field, "Stone-Geary requires gammaA, gammaB >= 0")
		}
	default:
		return vmterr.NewConfigError(field, "unrecognized utility kind")
	}
	return nil
}

func validateBroadcast(field string, vals []int, agentCount int) error {
	if len(vals) == 0 {
		return vmterr.NewConfigError(field, "must not be empty")
	}
	if len(vals) != 1 && len(vals) != agentCount {
		return vmterr.NewConfigError(field, "length must be 1 (broadcast) or equal to agents")
	}
	for _, v := range vals {
		if v < 0 {
			return vmterr.NewConfigError(field, "must be >= 0")
		}
	}
	return nil
}

func validateBroadcastFloat(field string, vals []float64, agentCount int) error {
	if len(vals) != 1 && len(vals) != agentCount {
		return vmterr.NewConfigError(field, "length must be 1 (broadcast) or equal to agents")
	}
	for _, v := range vals {
		if v <= 0 {
			return vmterr.NewConfigError(field, "must be > 0")
		}
	}
	return nil
}

// At returns the broadcast-aware value at agent index i.
func At(vals []int, i int) int {
	if len(vals) == 1 {
		return vals[0]
	}
	return vals[i]
}

// AtFloat returns the broadcast-aware value at agent index i.
func AtFloat(vals []float64, i int, fallback float64) float64 {
	if len(vals) == 0 {
		return fallback
	}
	if len(vals) == 1 {
		return vals[0]
	}
	return vals[i]
}
