package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Run     RunConfig     `toml:"run"`
	World   WorldConfig   `toml:"world"`
	Logging LoggingConfig `toml:"logging"`
	Profile ProfileConfig `toml:"profile"`
}

type RunConfig struct {
	Duration       time.Duration `toml:"duration"`
	TickInterval   time.Duration `toml:"tick_interval"` // 0 runs frames back to back
	GCPauseMetrics bool          `toml:"gc_pause_metrics"`
	CompactEvery   int           `toml:"compact_every"` // frames between Compact calls, 0 disables
}

type WorldConfig struct {
	Entities      int     `toml:"entities"`
	SpawnPerFrame int     `toml:"spawn_per_frame"`
	MinLifetime   float64 `toml:"min_lifetime"` // seconds
	MaxLifetime   float64 `toml:"max_lifetime"` // seconds
	ArenaSize     float64 `toml:"arena_size"`
	Seed          int64   `toml:"seed"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ProfileConfig struct {
	Mode string `toml:"mode"` // "", "cpu" or "mem"
	Path string `toml:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Run: RunConfig{
			Duration:     10 * time.Second,
			CompactEvery: 600,
		},
		World: WorldConfig{
			Entities:      10000,
			SpawnPerFrame: 20,
			MinLifetime:   0.5,
			MaxLifetime:   5,
			ArenaSize:     1000,
			Seed:          1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			Path: ".",
		},
	}
}

func (c *Config) validate() error {
	if c.Run.Duration <= 0 {
		return fmt.Errorf("run.duration must be positive, got %s", c.Run.Duration)
	}
	if c.World.Entities < 0 || c.World.SpawnPerFrame < 0 {
		return fmt.Errorf("world entity counts must not be negative")
	}
	if c.World.MinLifetime <= 0 || c.World.MaxLifetime < c.World.MinLifetime {
		return fmt.Errorf("invalid lifetime range [%g, %g]", c.World.MinLifetime, c.World.MaxLifetime)
	}
	if c.World.ArenaSize <= 0 {
		return fmt.Errorf("world.arena_size must be positive")
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("unknown profile mode %q", c.Profile.Mode)
	}
	return nil
}
