package main

import (
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoadConfig(t *testing.T) {
	tests := map[string]struct {
		env    map[string]string
		check  func(t *testing.T, c Config)
		expErr string
	}{
		"defaults": {
			env: map[string]string{},
			check: func(t *testing.T, c Config) {
				testutil.AssertEqual(t, "seed", c.Seed, int64(42))
				testutil.AssertEqual(t, "port", c.Port, 8080)
				testutil.AssertEqual(t, "db", c.DBPath, "data/caravans.db")
				testutil.AssertEqual(t, "economy day", c.EconomyDayTicks, uint64(30))
				testutil.AssertEqual(t, "calendar day", c.CalendarDayTicks, uint64(1440))
			},
		},
		"overrides": {
			env: map[string]string{
				"WORLDSIM_SEED":              "-7",
				"WORLDSIM_PORT":              "9000",
				"WORLDSIM_ADMIN_KEY":         "secret",
				"WORLDSIM_TOWNS":             "6",
				"WORLDSIM_TICK_INTERVAL":     "250ms",
				"WORLDSIM_ECONOMY_DAY_TICKS": "10",
				"WORLDSIM_LOG_FORMAT":        "json",
			},
			check: func(t *testing.T, c Config) {
				testutil.AssertEqual(t, "seed", c.Seed, int64(-7))
				testutil.AssertEqual(t, "port", c.Port, 9000)
				testutil.AssertEqual(t, "admin key", c.AdminKey, "secret")
				testutil.AssertEqual(t, "towns", c.Towns, 6)
				testutil.AssertEqual(t, "interval", c.TickInterval, 250*time.Millisecond)
				testutil.AssertEqual(t, "economy day", c.EconomyDayTicks, uint64(10))
				testutil.AssertEqual(t, "sim towns", c.SimConfig().Towns, 6)
				testutil.AssertEqual(t, "gen seed", c.GenConfig().Seed, int64(-7))
			},
		},
		"malformed number": {
			env:    map[string]string{"WORLDSIM_PORT": "eighty"},
			expErr: "WORLDSIM_PORT",
		},
		"malformed duration": {
			env:    map[string]string{"WORLDSIM_PATH_TIME_LIMIT": "soon"},
			expErr: "WORLDSIM_PATH_TIME_LIMIT",
		},
		"out of range": {
			env:    map[string]string{"WORLDSIM_TOWNS": "1"},
			expErr: "at least 2 towns",
		},
		"zero seed": {
			env:    map[string]string{"WORLDSIM_SEED": "0"},
			expErr: "seed must be non-zero",
		},
		"unknown log format": {
			env:    map[string]string{"WORLDSIM_LOG_FORMAT": "xml"},
			expErr: "log format",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c, err := LoadConfig(envOf(tt.env))
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, c)
		})
	}
}

func TestConfig_ValidateCollectsAll(t *testing.T) {
	c := DefaultConfig()
	c.Port = 0
	c.MaxPopulation = 0
	c.EconomyDayTicks = 0

	err := c.Validate()
	testutil.AssertErrorContains(t, err, "port 0 out of range")
	testutil.AssertErrorContains(t, err, "population bounds")
	testutil.AssertErrorContains(t, err, "day lengths")
}
