// Command worldsim runs the caravan trading world.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/caravans/internal/api"
	"github.com/talgya/caravans/internal/economy"
	"github.com/talgya/caravans/internal/engine"
	"github.com/talgya/caravans/internal/pathfind"
	"github.com/talgya/caravans/internal/persistence"
	"github.com/talgya/caravans/internal/production"
	"github.com/talgya/caravans/internal/world"
)

func main() {
	cfg, err := LoadConfig(os.Getenv)
	setupLogging(cfg.LogFormat)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("worldsim failed", "error", err)
		os.Exit(1)
	}
}

// setupLogging logs text to a terminal and JSON otherwise.
func setupLogging(format string) {
	if format == "" {
		format = "json"
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			format = "text"
		}
	}
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg Config) error {
	slog.Info("Caravans trading world simulation", "seed", cfg.Seed)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// A saved world keeps the seed it was generated with, so the map
	// regenerates under its towns.
	if saved, err := db.GetMeta(persistence.MetaSeed); err == nil {
		if seed, err := strconv.ParseInt(saved, 10, 64); err == nil && seed != cfg.Seed {
			slog.Warn("using seed of saved world", "configured", cfg.Seed, "saved", seed)
			cfg.Seed = seed
		}
	}

	// ── Catalogs ──────────────────────────────────────────────────────
	goods := economy.DefaultCatalog()
	recipes, err := production.NewCatalog(goods)
	if err != nil {
		return fmt.Errorf("build recipes: %w", err)
	}

	// ── World Map (always regenerated, deterministic from seed) ───────
	slog.Info("generating world map...", "width", cfg.MapWidth, "height", cfg.MapHeight)
	worldMap := world.Generate(cfg.GenConfig())
	for t, n := range worldMap.TerrainCounts() {
		slog.Debug("terrain", "type", t, "count", n)
	}
	if err := pathfind.CheckAdmissible(worldMap, worldMap.Width, worldMap.Height); err != nil {
		slog.Warn("route heuristic may overestimate", "error", err)
	}

	// ── Load or Generate World State ─────────────────────────────────
	simCfg := cfg.SimConfig()
	sim, err := db.LoadWorldState(worldMap, recipes, simCfg)
	switch {
	case errors.Is(err, persistence.ErrNoWorld):
		slog.Info("no saved state found, generating new world...")
		sim = engine.Genesis(worldMap, recipes, simCfg)
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	case err != nil:
		return fmt.Errorf("load world: %w", err)
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Tick = sim.LastTick
	eng.Interval = cfg.TickInterval
	eng.EconomyDayTicks = cfg.EconomyDayTicks
	eng.CalendarDayTicks = cfg.CalendarDayTicks

	eng.OnTick = sim.TickMinute
	eng.OnEconomyDay = sim.TickEconomyDay
	eng.OnCalendarDay = func(tick uint64) {
		sim.TickCalendarDay(tick)
		// Auto-save daily.
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("daily save failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("WORLDSIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Sim:       sim,
		Eng:       eng,
		DB:        db,
		Port:      cfg.Port,
		AdminKey:  cfg.AdminKey,
		PathLimit: cfg.PathRateLimit,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	sim.Lock()
	fmt.Printf("\n%d caravans trade between %d towns of %s people.\n",
		len(sim.Caravans), len(sim.Towns), humanize.Comma(int64(sim.Stats.TotalPopulation)))
	sim.Unlock()
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)
	if eng.Tick > 0 {
		fmt.Printf("Resuming from tick %d (%s)\n", eng.Tick, engine.SimTime(eng.Tick, eng.CalendarDayTicks))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveWorldState(sim); err != nil {
		return fmt.Errorf("final save: %w", err)
	}

	fmt.Println("Simulation stopped. World state saved.")
	return nil
}
