// Package loader decodes a scenario file from YAML into the validated
// in-core scenario.Config. It is a narrow collaborator, not part of the
// core: the core never imports gopkg.in/yaml.v3 itself (spec.md §1), it
// only ever sees the already-validated Config this package produces.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
)

// File is the on-disk YAML shape, mirroring scenario.Config field for
// field in the tagged-struct style tommy-ca-opensqt_market_maker's
// live_server/config.go and ChoSanghyuk-blackholedex use for their own
// YAML configs.
type File struct {
	SchemaVersion int    `yaml:"schema_version"`
	Name          string `yaml:"name"`
	N             int    `yaml:"n"`
	Agents        int    `yaml:"agents"`

	Initial struct {
		A           []int     `yaml:"a"`
		B           []int     `yaml:"b"`
		M           []int     `yaml:"m"`
		HasMoney    bool      `yaml:"has_money"`
		LambdaMoney []float64 `yaml:"lambda_money"`
	} `yaml:"initial_inventories"`

	Mix []struct {
		Weight float64        `yaml:"weight"`
		Kind   string         `yaml:"kind"`
		Params map[string]any `yaml:"params"`
	} `yaml:"utilities_mix"`

	Params struct {
		Spread                 float64 `yaml:"spread"`
		VisionRadius           int     `yaml:"vision_radius"`
		InteractionRadius      int     `yaml:"interaction_radius"`
		MoveBudgetPerTick      int     `yaml:"move_budget_per_tick"`
		DAMax                  int     `yaml:"dA_max"`
		TradeCooldownTicks     int     `yaml:"trade_cooldown_ticks"`
		ForageRate             int     `yaml:"forage_rate"`
		ResourceGrowthRate     int     `yaml:"resource_growth_rate"`
		ResourceMaxAmount      int     `yaml:"resource_max_amount"`
		ResourceRegenCooldown  int     `yaml:"resource_regen_cooldown"`
		EnableResourceClaiming bool    `yaml:"enable_resource_claiming"`
		EnforceSingleHarvester bool    `yaml:"enforce_single_harvester"`
		Epsilon                float64 `yaml:"epsilon"`
		Beta                   float64 `yaml:"beta"`
		ExchangeRegime         string  `yaml:"exchange_regime"`
		MoneyMode              string  `yaml:"money_mode"`
		MoneyUtilityForm       string  `yaml:"money_utility_form"`
		M0                     float64 `yaml:"M_0"`
		MoneyScale             int     `yaml:"money_scale"`
		LambdaMoney            float64 `yaml:"lambda_money"`
		LambdaUpdateRate       float64 `yaml:"lambda_update_rate"`
		LambdaBounds           struct {
			Min float64 `yaml:"min"`
			Max float64 `yaml:"max"`
		} `yaml:"lambda_bounds"`
		LiquidityGate struct {
			MinQuotes int `yaml:"min_quotes"`
		} `yaml:"liquidity_gate"`
	} `yaml:"params"`

	ResourceSeed struct {
		Density float64 `yaml:"density"`
		Amount  int      `yaml:"amount"`
	} `yaml:"resource_seed"`

	ModeSchedule struct {
		Enabled     bool   `yaml:"enabled"`
		ForageTicks int    `yaml:"forage_ticks"`
		TradeTicks  int    `yaml:"trade_ticks"`
		StartMode   string `yaml:"start_mode"`
	} `yaml:"mode_schedule"`

	Seed int64 `yaml:"seed"`
}

// Load reads and decodes a scenario YAML file and builds a validated
// scenario.Config plus the run seed, or returns the first decode or
// validation error encountered.
func Load(path string) (*scenario.Config, int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("loader: read %s: %w", path, err)
	}

	// Pre-fill params with their defaults: yaml.Unmarshal only overwrites
	// keys present in the file, so absent keys keep the default value.
	var f File
	d, fp := scenario.DefaultParams(), &f.Params
	fp.VisionRadius, fp.InteractionRadius, fp.MoveBudgetPerTick = d.VisionRadius, d.InteractionRadius, d.MoveBudgetPerTick
	fp.DAMax, fp.TradeCooldownTicks, fp.ForageRate = d.DAMax, d.TradeCooldownTicks, d.ForageRate
	fp.ResourceMaxAmount, fp.ResourceRegenCooldown = d.ResourceMaxAmount, d.ResourceRegenCooldown
	fp.EnableResourceClaiming, fp.EnforceSingleHarvester = d.EnableResourceClaiming, d.EnforceSingleHarvester
	fp.Epsilon, fp.Beta, fp.MoneyScale, fp.LambdaMoney = d.Epsilon, d.Beta, d.MoneyScale, d.LambdaMoney
	fp.LambdaUpdateRate, fp.LiquidityGate.MinQuotes = d.LambdaUpdateRate, d.LiquidityGate.MinQuotes
	fp.LambdaBounds.Min, fp.LambdaBounds.Max = d.LambdaBounds.Min, d.LambdaBounds.Max
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, 0, fmt.Errorf("loader: parse %s: %w", path, err)
	}

	mix := make([]scenario.UtilityMixEntry, len(f.Mix))
	for i, m := range f.Mix {
		params, err := decodeUtilityParams(m.Kind, m.Params)
		if err != nil {
			return nil, 0, fmt.Errorf("loader: utilities_mix[%d]: %w", i, err)
		}
		mix[i] = scenario.UtilityMixEntry{Params: params, Weight: m.Weight}
	}

	regime, err := decodeExchangeRegime(f.Params.ExchangeRegime)
	if err != nil {
		return nil, 0, fmt.Errorf("loader: params.exchange_regime: %w", err)
	}
	moneyMode, err := decodeMoneyMode(f.Params.MoneyMode)
	if err != nil {
		return nil, 0, fmt.Errorf("loader: params.money_mode: %w", err)
	}
	moneyForm, err := decodeMoneyForm(f.Params.MoneyUtilityForm)
	if err != nil {
		return nil, 0, fmt.Errorf("loader: params.money_utility_form: %w", err)
	}
	startMode, err := decodeStartMode(f.ModeSchedule.StartMode)
	if err != nil {
		return nil, 0, fmt.Errorf("loader: mode_schedule.start_mode: %w", err)
	}

	params := scenario.DefaultParams()
	params.Spread = f.Params.Spread
	params.VisionRadius = f.Params.VisionRadius
	params.InteractionRadius = f.Params.InteractionRadius
	params.MoveBudgetPerTick = f.Params.MoveBudgetPerTick
	params.DAMax = f.Params.DAMax
	params.TradeCooldownTicks = f.Params.TradeCooldownTicks
	params.ForageRate = f.Params.ForageRate
	params.ResourceGrowthRate = f.Params.ResourceGrowthRate
	params.ResourceMaxAmount = f.Params.ResourceMaxAmount
	params.ResourceRegenCooldown = f.Params.ResourceRegenCooldown
	params.EnableResourceClaiming = f.Params.EnableResourceClaiming
	params.EnforceSingleHarvester = f.Params.EnforceSingleHarvester
	params.Epsilon = f.Params.Epsilon
	params.Beta = f.Params.Beta
	params.ExchangeRegime = regime
	params.MoneyMode = moneyMode
	params.MoneyUtilityForm = moneyForm
	params.M0 = f.Params.M0
	params.MoneyScale = f.Params.MoneyScale
	params.LambdaMoney = f.Params.LambdaMoney
	params.LambdaUpdateRate = f.Params.LambdaUpdateRate
	params.LambdaBounds = scenario.LambdaBounds{Min: f.Params.LambdaBounds.Min, Max: f.Params.LambdaBounds.Max}
	params.LiquidityGate = scenario.LiquidityGate{MinQuotes: f.Params.LiquidityGate.MinQuotes}

	cfg, err := scenario.New(
		f.SchemaVersion, f.Name, f.N, f.Agents,
		scenario.InitialInventories{
			A: f.Initial.A, B: f.Initial.B, M: f.Initial.M,
			HasMoney: f.Initial.HasMoney, LambdaMoney: f.Initial.LambdaMoney,
		},
		mix, params,
		scenario.ResourceSeed{Density: f.ResourceSeed.Density, Amount: f.ResourceSeed.Amount},
		scenario.ModeSchedule{
			Enabled: f.ModeSchedule.Enabled, ForageTicks: f.ModeSchedule.ForageTicks,
			TradeTicks: f.ModeSchedule.TradeTicks, StartMode: startMode,
		},
	)
	if err != nil {
		return nil, 0, err
	}
	return cfg, f.Seed, nil
}

func decodeExchangeRegime(s string) (scenario.ExchangeRegime, error) {
	switch s {
	case "", "barter_only":
		return scenario.RegimeBarterOnly, nil
	case "money_only":
		return scenario.RegimeMoneyOnly, nil
	case "mixed":
		return scenario.RegimeMixed, nil
	case "mixed_liquidity_gated":
		return scenario.RegimeMixedLiquidityGated, nil
	default:
		return 0, fmt.Errorf("unrecognized exchange_regime %q", s)
	}
}

func decodeMoneyMode(s string) (scenario.MoneyMode, error) {
	switch s {
	case "", "quasilinear":
		return scenario.MoneyModeQuasilinear, nil
	case "kkt_lambda":
		return scenario.MoneyModeKKTLambda, nil
	default:
		return 0, fmt.Errorf("unrecognized money_mode %q", s)
	}
}

func decodeMoneyForm(s string) (scenario.MoneyUtilityForm, error) {
	switch s {
	case "", "linear":
		return scenario.MoneyFormLinear, nil
	case "log":
		return scenario.MoneyFormLog, nil
	default:
		return 0, fmt.Errorf("unrecognized money_utility_form %q", s)
	}
}

func decodeStartMode(s string) (scenario.StartMode, error) {
	switch s {
	case "", "forage":
		return scenario.StartModeForage, nil
	case "trade":
		return scenario.StartModeTrade, nil
	default:
		return 0, fmt.Errorf("unrecognized start_mode %q", s)
	}
}

func decodeUtilityParams(kind string, raw map[string]any) (scenario.UtilityParams, error) {
	p := scenario.UtilityParams{}
	switch kind {
	case "ces":
		p.Kind = scenario.UtilityCES
		p.Rho = floatField(raw, "rho")
		p.WA = floatField(raw, "wA")
		p.WB = floatField(raw, "wB")
	case "linear":
		p.Kind = scenario.UtilityLinear
		p.VA = floatField(raw, "vA")
		p.VB = floatField(raw, "vB")
	case "quadratic":
		p.Kind = scenario.UtilityQuadratic
		p.AStar = floatField(raw, "aStar")
		p.BStar = floatField(raw, "bStar")
		p.SigA = floatField(raw, "sigA")
		p.SigB = floatField(raw, "sigB")
		p.Gamma = floatField(raw, "gamma")
	case "translog":
		p.Kind = scenario.UtilityTranslog
		p.Alpha0 = floatField(raw, "alpha0")
		p.AlphaA = floatField(raw, "alphaA")
		p.AlphaB = floatField(raw, "alphaB")
		p.BetaAA = floatField(raw, "betaAA")
		p.BetaBB = floatField(raw, "betaBB")
		p.BetaAB = floatField(raw, "betaAB")
	case "stone_geary":
		p.Kind = scenario.UtilityStoneGeary
		p.SGAlphaA = floatField(raw, "alphaA")
		p.SGAlphaB = floatField(raw, "alphaB")
		p.SGGammaA = floatField(raw, "gammaA")
		p.SGGammaB = floatField(raw, "gammaB")
	default:
		return p, fmt.Errorf("unrecognized utility kind %q", kind)
	}
	return p, nil
}

func floatField(raw map[string]any, key string) float64 {
	switch v := raw[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
