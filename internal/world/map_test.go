package world

import (
	"math/rand"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestMap_Accessibility(t *testing.T) {
	m := NewMap(3, 2)
	m.At(1, 0).Terrain = TerrainGrass
	m.At(2, 1).Terrain = TerrainRock

	tests := map[string]struct {
		x, y      int
		expAccess bool
		expSpeed  float64
	}{
		"water":        {x: 0, y: 0, expAccess: false, expSpeed: 0},
		"grass":        {x: 1, y: 0, expAccess: true, expSpeed: 1},
		"rock":         {x: 2, y: 1, expAccess: true, expSpeed: 0.35},
		"out of map":   {x: 3, y: 0, expAccess: false, expSpeed: 0},
		"negative":     {x: -1, y: 1, expAccess: false, expSpeed: 0},
		"row overflow": {x: 0, y: 2, expAccess: false, expSpeed: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "accessible", m.IsAccessible(tt.x, tt.y), tt.expAccess)
			testutil.AssertEqual(t, "speed", m.MovementSpeedMultiplier(tt.x, tt.y), tt.expSpeed)
		})
	}
}

func TestMap_EnvironmentAt(t *testing.T) {
	m := NewMap(7, 7)
	for i := range m.Tiles {
		m.Tiles[i] = Tile{Terrain: TerrainGrass, Altitude: 1, Temperature: 12, Precipitation: 0.2}
	}
	m.At(3, 3).Pasture = 0.3
	m.At(4, 3).Pasture = 0.9 // within reach
	m.At(4, 4).Forest = 0.8  // diagonal, outside manhattan reach
	m.At(3, 2).Precipitation = 0.5
	m.At(2, 3).Coal = 0.6

	env := m.EnvironmentAt(3, 3)
	testutil.AssertEqual(t, "field space", env.FieldSpace, 0.9)
	testutil.AssertEqual(t, "wood", env.WoodAbundance, 0.0)
	testutil.AssertEqual(t, "coal", env.CoalOccurrence, 0.6)
	testutil.AssertEqual(t, "temperature", env.Temperature, 12.0)
	testutil.AssertEqual(t, "precipitation", env.Precipitation, 0.2)
	testutil.AssertEqual(t, "fresh water", env.HasFreshWater, true)
	testutil.AssertEqual(t, "salt water", env.HasSaltWater, false)

	m.At(5, 5).Altitude = -0.2
	env = m.EnvironmentAt(3, 3)
	testutil.AssertEqual(t, "salt water nearby", env.HasSaltWater, true)
}

func TestGenerate(t *testing.T) {
	cfg := SmallTestConfig()
	m := Generate(cfg)

	testutil.AssertEqual(t, "tiles", len(m.Tiles), cfg.Width*cfg.Height)
	testutil.AssertEqual(t, "corner is sea", m.At(0, 0).Terrain, TerrainWater)
	if !m.IsAccessible(cfg.Width/2, cfg.Height/2) {
		t.Error("expected land at the center of the continent")
	}

	for i := range m.Tiles {
		tile := &m.Tiles[i]
		for name, v := range map[string]float64{
			"precipitation": tile.Precipitation,
			"forest":        tile.Forest,
			"pasture":       tile.Pasture,
			"metal":         tile.Metal,
			"jewel":         tile.Jewel,
		} {
			if v < 0 || v > 1 {
				t.Fatalf("tile %d: %s %v out of [0,1]", i, name, v)
			}
		}
		if (tile.Altitude <= 0) != (tile.Terrain == TerrainWater) {
			t.Fatalf("tile %d: altitude %v with terrain %v", i, tile.Altitude, tile.Terrain)
		}
	}

	again := Generate(cfg)
	for i := range m.Tiles {
		if m.Tiles[i] != again.Tiles[i] {
			t.Fatalf("tile %d differs between runs with the same seed", i)
		}
	}
}

func TestPlaceTowns(t *testing.T) {
	m := Generate(SmallTestConfig())
	cfg := DefaultPlacementConfig(m)
	cfg.Count = 6

	var callbacks int
	score := func(env *Environment) float64 {
		return env.FieldSpace + env.WoodAbundance
	}
	seeds := PlaceTowns(m, cfg, rand.New(rand.NewSource(3)), score, func(TownSeed) { callbacks++ })

	testutil.AssertEqual(t, "towns", len(seeds), 6)
	testutil.AssertEqual(t, "callbacks", callbacks, 6)

	names := make(map[string]bool)
	positions := make(map[Coord]bool)
	for _, s := range seeds {
		testutil.AssertEqual(t, "terrain", m.TileAt(s.Position).Terrain, TerrainTown)
		if !m.IsAccessible(s.Position.X(), s.Position.Y()) {
			t.Errorf("town %s placed on inaccessible tile %v", s.Name, s.Position)
		}
		if s.Population < 10 || s.Population >= 100 {
			t.Errorf("town %s population %d out of range", s.Name, s.Population)
		}
		if names[s.Name] {
			t.Errorf("duplicate town name %s", s.Name)
		}
		if positions[s.Position] {
			t.Errorf("two towns at %v", s.Position)
		}
		names[s.Name] = true
		positions[s.Position] = true
	}
}
