package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/samber/oops"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Prefabs    PrefabsConfig    `toml:"prefabs"`
	Logging    LoggingConfig    `toml:"logging"`
}

type SimulationConfig struct {
	TickRate int     `toml:"tick_rate"` // fixed steps per second
	Gravity  float64 `toml:"gravity"`   // px/s², positive is down
	MaxSteps int     `toml:"max_steps"` // catch-up steps per frame before dropping time
	Floor    float64 `toml:"floor"`
	Left     float64 `toml:"left"`
	Right    float64 `toml:"right"`
}

type PrefabsConfig struct {
	Dir       string `toml:"dir"`
	HotReload bool   `toml:"hot_reload"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Step returns the fixed step length in seconds.
func (s SimulationConfig) Step() float64 {
	return 1 / float64(s.TickRate)
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").In("config").With("path", path).Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TickRate: 60,
			Gravity:  900,
			MaxSteps: 5,
			Floor:    200,
			Left:     0,
			Right:    320,
		},
		Prefabs: PrefabsConfig{
			Dir:       "prefabs",
			HotReload: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Simulation.TickRate <= 0:
		return invalid("simulation.tick_rate must be positive, got %d", c.Simulation.TickRate)
	case c.Simulation.MaxSteps <= 0:
		return invalid("simulation.max_steps must be positive, got %d", c.Simulation.MaxSteps)
	case c.Simulation.Gravity < 0:
		return invalid("simulation.gravity must not be negative, got %v", c.Simulation.Gravity)
	case c.Simulation.Right != 0 && c.Simulation.Right <= c.Simulation.Left:
		return invalid("simulation.right (%v) must be greater than simulation.left (%v)", c.Simulation.Right, c.Simulation.Left)
	case c.Logging.Format != "console" && c.Logging.Format != "json":
		return invalid("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").In("config").Wrapf(ErrInvalid, format, args...)
}
