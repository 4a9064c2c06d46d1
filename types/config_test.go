package types

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zeu5/keygrid-rl/grid"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(cfg.Grid); err != nil {
		t.Fatalf("default config invalid: %s", err)
	}
}

func TestConfigValidate(t *testing.T) {
	size := grid.Size{Width: 5, Height: 5}
	cases := map[string]func(*Config){
		"alpha":      func(c *Config) { c.Alpha = 1.5 },
		"gamma":      func(c *Config) { c.Gamma = -0.1 },
		"decay":      func(c *Config) { c.EpsilonDecay = 0 },
		"mode":       func(c *Config) { c.RewardMode = "Dense" },
		"max steps":  func(c *Config) { c.MaxSteps = 0 },
		"key bounds": func(c *Config) { c.Key = grid.Coordinate{X: 5, Y: 2} },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		err := cfg.Validate(size)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected invalid config, got %v", name, err)
		}
	}

	cfg := DefaultConfig()
	cfg.Goal = grid.Coordinate{X: 0, Y: -1}
	if err := cfg.Validate(size); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected out of bounds, got %v", err)
	}
	if err := DefaultConfig().Validate(grid.Size{}); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("expected invalid grid, got %v", err)
	}
}

func TestParseRewardMode(t *testing.T) {
	m, err := ParseRewardMode("distancebased")
	if err != nil || m != DistanceBased {
		t.Errorf("expected DistanceBased, got %s %v", m, err)
	}
	if _, err := ParseRewardMode("dense"); err == nil {
		t.Errorf("expected an error for an unknown mode")
	}
	if Sparse.Shaped() || !Decaying.Shaped() {
		t.Errorf("unexpected shaped modes")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
reward_mode: Decaying
lambda: 200
episodes: 300
grid:
  width: 7
  height: 6
goal:
  x: 6
  y: 5
penalties:
  loop: false
step_delay: 20ms
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %s", err)
	}
	if cfg.RewardMode != Decaying || cfg.Lambda != 200 || cfg.Episodes != 300 {
		t.Errorf("unexpected values %+v", cfg)
	}
	if cfg.Grid.Width != 7 || cfg.Goal.X != 6 || cfg.Goal.Y != 5 {
		t.Errorf("unexpected geometry %+v", cfg)
	}
	if cfg.Penalties.Loop || !cfg.Penalties.Backtrack || cfg.Penalties.LoopWindow != 4 {
		t.Errorf("penalties should overlay the defaults: %+v", cfg.Penalties)
	}
	if cfg.StepDelay != 20*time.Millisecond {
		t.Errorf("expected 20ms step delay, got %s", cfg.StepDelay)
	}
	if cfg.Alpha != 0.1 || cfg.MaxSteps != 100 {
		t.Errorf("unset fields should keep their defaults")
	}
}
