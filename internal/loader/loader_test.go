package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vmtsim/vmt/internal/vmtcore/scenario"
)

const minimalScenario = `
schema_version: 1
name: test-scenario
n: 10
agents: 4
seed: 7
initial_inventories:
  a: [10]
  b: [10]
  has_money: false
utilities_mix:
  - weight: 1.0
    kind: linear
    params:
      vA: 1.0
      vB: 1.0
params:
  exchange_regime: barter_only
  dA_max: 3
resource_seed:
  density: 0.1
  amount: 5
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp scenario: %v", err)
	}
	return path
}

func TestLoadValidScenario(t *testing.T) {
	path := writeTemp(t, minimalScenario)
	cfg, seed, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if seed != 7 {
		t.Errorf("seed = %d, want 7", seed)
	}
	if cfg.Agents != 4 || cfg.N != 10 {
		t.Errorf("cfg = %+v, want agents=4 n=10", cfg)
	}
	if len(cfg.Mix) != 1 || cfg.Mix[0].Params.Kind != scenario.UtilityLinear {
		t.Errorf("expected one linear mix entry, got %+v", cfg.Mix)
	}
	if cfg.Params.ExchangeRegime != scenario.RegimeBarterOnly {
		t.Errorf("expected barter_only regime, got %v", cfg.Params.ExchangeRegime)
	}
}

func TestLoadRejectsUnrecognizedUtilityKind(t *testing.T) {
	bad := `
schema_version: 1
name: bad
n: 10
agents: 1
initial_inventories:
  a: [10]
  b: [10]
utilities_mix:
  - weight: 1.0
    kind: not_a_real_kind
resource_seed:
  density: 0.0
  amount: 0
`
	path := writeTemp(t, bad)
	if _, _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unrecognized utility kind")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing scenario file")
	}
}

func TestLoadPropagatesConfigValidationErrors(t *testing.T) {
	// agents <= 0 must fail scenario.New's validation, not just decode.
	bad := `
schema_version: 1
name: bad
n: 10
agents: 0
initial_inventories:
  a: [10]
  b: [10]
utilities_mix:
  - weight: 1.0
    kind: linear
    params: {vA: 1.0, vB: 1.0}
resource_seed:
  density: 0.0
  amount: 0
`
	path := writeTemp(t, bad)
	if _, _, err := Load(path); err == nil {
		t.Fatal("expected scenario.New validation error to propagate")
	}
}
