package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/talgya/caravans/internal/engine"
	"github.com/talgya/caravans/internal/world"
)

// Config holds the process settings, read from WORLDSIM_* environment
// variables.
type Config struct {
	Seed     int64
	DBPath   string
	Port     int
	AdminKey string

	MapWidth  int
	MapHeight int

	Towns      int
	Caravans   int
	WarmupDays int

	MinPopulation int
	MaxPopulation int

	TickInterval     time.Duration
	EconomyDayTicks  uint64
	CalendarDayTicks uint64
	PathTimeLimit    time.Duration
	PathRateLimit    int // Route queries per IP per minute

	LogFormat string // "text", "json" or "" to pick by terminal
}

// DefaultConfig returns the settings used when no variable is set.
func DefaultConfig() Config {
	sim := engine.DefaultConfig()
	gen := world.DefaultGenConfig()
	return Config{
		Seed:             42,
		DBPath:           "data/caravans.db",
		Port:             8080,
		MapWidth:         gen.Width,
		MapHeight:        gen.Height,
		Towns:            sim.Towns,
		Caravans:         sim.Caravans,
		WarmupDays:       sim.WarmupDays,
		MinPopulation:    sim.MinPopulation,
		MaxPopulation:    sim.MaxPopulation,
		TickInterval:     time.Second,
		EconomyDayTicks:  engine.DefaultEconomyDayTicks,
		CalendarDayTicks: engine.DefaultCalendarDayTicks,
		PathTimeLimit:    sim.PathTimeLimit,
		PathRateLimit:    30,
	}
}

// LoadConfig overlays the environment onto the defaults. Malformed values
// are collected and reported together.
func LoadConfig(getenv func(string) string) (Config, error) {
	c := DefaultConfig()
	el := errors.NewErrorList()

	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				el.Add(fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	ticks := func(key string, dst *uint64) {
		if v := getenv(key); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				el.Add(fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				el.Add(fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	if v := getenv("WORLDSIM_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			el.Add(fmt.Errorf("WORLDSIM_SEED: %w", err))
		} else {
			c.Seed = n
		}
	}
	str("WORLDSIM_DB_PATH", &c.DBPath)
	num("WORLDSIM_PORT", &c.Port)
	str("WORLDSIM_ADMIN_KEY", &c.AdminKey)
	num("WORLDSIM_MAP_WIDTH", &c.MapWidth)
	num("WORLDSIM_MAP_HEIGHT", &c.MapHeight)
	num("WORLDSIM_TOWNS", &c.Towns)
	num("WORLDSIM_CARAVANS", &c.Caravans)
	num("WORLDSIM_WARMUP_DAYS", &c.WarmupDays)
	num("WORLDSIM_MIN_POPULATION", &c.MinPopulation)
	num("WORLDSIM_MAX_POPULATION", &c.MaxPopulation)
	dur("WORLDSIM_TICK_INTERVAL", &c.TickInterval)
	ticks("WORLDSIM_ECONOMY_DAY_TICKS", &c.EconomyDayTicks)
	ticks("WORLDSIM_CALENDAR_DAY_TICKS", &c.CalendarDayTicks)
	dur("WORLDSIM_PATH_TIME_LIMIT", &c.PathTimeLimit)
	num("WORLDSIM_PATH_RATE_LIMIT", &c.PathRateLimit)
	str("WORLDSIM_LOG_FORMAT", &c.LogFormat)

	if err := el.Err(); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Validate reports every setting out of range.
func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.Seed == 0 {
		el.Add(fmt.Errorf("seed must be non-zero"))
	}
	if c.DBPath == "" {
		el.Add(fmt.Errorf("db path is required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		el.Add(fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MapWidth < 8 || c.MapHeight < 8 {
		el.Add(fmt.Errorf("map must be at least 8x8, got %dx%d", c.MapWidth, c.MapHeight))
	}
	if c.Towns < 2 {
		el.Add(fmt.Errorf("at least 2 towns are required, got %d", c.Towns))
	}
	if c.Caravans < 0 {
		el.Add(fmt.Errorf("caravans must not be negative"))
	}
	if c.WarmupDays < 0 {
		el.Add(fmt.Errorf("warm-up days must not be negative"))
	}
	if c.MinPopulation < 1 || c.MaxPopulation < c.MinPopulation {
		el.Add(fmt.Errorf("population bounds %d..%d invalid", c.MinPopulation, c.MaxPopulation))
	}
	if c.TickInterval < time.Millisecond {
		el.Add(fmt.Errorf("tick interval must be at least 1ms"))
	}
	if c.EconomyDayTicks == 0 || c.CalendarDayTicks == 0 {
		el.Add(fmt.Errorf("day lengths must be positive"))
	}
	if c.PathTimeLimit <= 0 {
		el.Add(fmt.Errorf("path time limit must be positive"))
	}
	if c.PathRateLimit < 1 {
		el.Add(fmt.Errorf("path rate limit must be positive"))
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		el.Add(fmt.Errorf("log format %q must be text or json", c.LogFormat))
	}

	return el.Err()
}

// SimConfig returns the simulation parameters.
func (c *Config) SimConfig() engine.Config {
	sim := engine.DefaultConfig()
	sim.Seed = c.Seed
	sim.Towns = c.Towns
	sim.Caravans = c.Caravans
	sim.WarmupDays = c.WarmupDays
	sim.MinPopulation = c.MinPopulation
	sim.MaxPopulation = c.MaxPopulation
	sim.PathTimeLimit = c.PathTimeLimit
	return sim
}

// GenConfig returns the map generation parameters.
func (c *Config) GenConfig() world.GenConfig {
	return world.GenConfig{Width: c.MapWidth, Height: c.MapHeight, Seed: c.Seed}
}
