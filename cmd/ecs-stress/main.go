package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/craftworld/ecs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "", "Optional TOML file with run settings.")
	duration := flag.Duration("duration", 0, "The total duration the test should run for.")
	entityCount := flag.Int("entities", -1, "The initial number of entities to create.")
	spawnPerFrame := flag.Int("spawn", -1, "Entities created by the spawner system every frame.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	profileMode := flag.String("profile", "", "Write a cpu or mem profile.")
	flag.Parse()

	cfg := defaults()
	if *configPath != "" {
		loaded, err := Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *duration > 0 {
		cfg.Run.Duration = *duration
	}
	if *entityCount >= 0 {
		cfg.World.Entities = *entityCount
	}
	if *spawnPerFrame >= 0 {
		cfg.World.SpawnPerFrame = *spawnPerFrame
	}
	if *gcPauseMetrics {
		cfg.Run.GCPauseMetrics = true
	}
	if *profileMode != "" {
		cfg.Profile.Mode = *profileMode
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	switch cfg.Profile.Mode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.Profile.Path), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath(cfg.Profile.Path), profile.NoShutdownHook).Stop()
	}

	report, err := run(context.Background(), cfg, log)
	if err != nil {
		log.Error("stress test failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Error("failed to generate report", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println("--- End of Report ---")
}

func run(ctx context.Context, cfg *Config, log *zap.Logger) (*Report, error) {
	log.Info("starting ECS stress test",
		zap.Duration("duration", cfg.Run.Duration),
		zap.Int("entities", cfg.World.Entities),
		zap.Int("spawn_per_frame", cfg.World.SpawnPerFrame))

	m := ecs.NewManager(ecs.WithRegistry(newRegistry()), ecs.WithLogger(log.Named("ecs")))
	w := &world{cfg: cfg.World, rng: rand.New(rand.NewSource(cfg.World.Seed))}

	var added, removed int64
	unsubAdded := ecs.Subscribe(m, func(ecs.EntityAdded) { added++ })
	unsubRemoved := ecs.Subscribe(m, func(ecs.EntityRemoved) { removed++ })
	defer unsubAdded()
	defer unsubRemoved()

	for i := 0; i < cfg.World.Entities; i++ {
		if err := w.spawn(m); err != nil {
			return nil, fmt.Errorf("populate: %w", err)
		}
	}
	m.Flush()
	log.Info("population complete", zap.Int("live", m.EntityCount()))

	lifetimes := &lifetimeSystem{}
	spawner := &spawnerSystem{world: w, perTick: cfg.World.SpawnPerFrame}
	for _, sys := range []ecs.System{
		spawner,
		&movementSystem{arena: cfg.World.ArenaSize},
		&collisionSystem{cell: 10},
		lifetimes,
	} {
		if err := m.AddSystem(sys); err != nil {
			return nil, fmt.Errorf("add system: %w", err)
		}
	}

	report := &Report{
		Config:     cfg,
		UpdateTime: Timings{Samples: make([]time.Duration, 0, 1024)},
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, cancel := context.WithTimeout(ctx, cfg.Run.Duration)
	defer cancel()

	var ticker *time.Ticker
	if cfg.Run.TickInterval > 0 {
		ticker = time.NewTicker(cfg.Run.TickInterval)
		defer ticker.Stop()
	}

	startTime := time.Now()
	lastFrameTime := startTime
	var totalUpdates int64

Loop:
	for {
		if ticker != nil {
			select {
			case <-ctx.Done():
				break Loop
			case <-ticker.C:
			}
		} else {
			select {
			case <-ctx.Done():
				break Loop
			default:
			}
		}

		deltaTime := time.Since(lastFrameTime)
		lastFrameTime = time.Now()

		updateStart := time.Now()
		m.Update(deltaTime.Seconds())
		report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
		totalUpdates++

		if cfg.Run.CompactEvery > 0 && totalUpdates%int64(cfg.Run.CompactEvery) == 0 {
			m.Compact()
			log.Debug("compacted component arenas", zap.Int64("frame", totalUpdates))
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = totalUpdates
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	report.Manager = m.CollectStats()
	report.EntitiesAdded = added
	report.EntitiesRemoved = removed
	report.Spawned = spawner.spawned
	report.SpawnFailures = spawner.failed
	report.Expired = lifetimes.expired
	if tally := ecs.NewSingleton[Collisions](m).Get(); tally != nil {
		report.Collisions = tally.Total
	}

	log.Info("simulation finished",
		zap.Int64("frames", totalUpdates),
		zap.Int("live", m.EntityCount()),
		zap.Duration("avg_frame", report.UpdateTime.Avg))
	return report, nil
}

func newLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
