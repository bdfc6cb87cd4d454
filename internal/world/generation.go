// World generation using layered simplex noise.
// Generates altitude, temperature, precipitation, vegetation and mineral
// layers, then derives terrain from them.

package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width  int
	Height int
	Seed   int64 // Must be non-zero for reproducible worlds
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:  160,
		Height: 120,
		Seed:   1,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:  48,
		Height: 36,
		Seed:   42,
	}
}

// Terrain thresholds.
const (
	rockAltitude = 3.0  // km
	rockSlope    = 0.35 // km per tile
	forestLine   = 0.5
	pastureLine  = 0.5
)

// mineral describes how common a deposit is and how large its fields are.
type mineral struct {
	rarity    float64 // (0, 1), share of the world that has it
	fieldSize float64 // tiles
	set       func(t *Tile, v float64)
}

var minerals = []mineral{
	{0.35, 30, func(t *Tile, v float64) { t.RareMetal = v }},
	{0.55, 40, func(t *Tile, v float64) { t.Metal = v }},
	{0.40, 50, func(t *Tile, v float64) { t.Coal = v }},
	{0.25, 20, func(t *Tile, v float64) { t.Jewel = v }},
	{0.70, 50, func(t *Tile, v float64) { t.Stone = v }},
	{0.50, 40, func(t *Tile, v float64) { t.Limestone = v }},
}

// Generate creates a complete world map with terrain, climate and minerals.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	m := NewMap(cfg.Width, cfg.Height)

	elevNoise := opensimplex.NewNormalized(seed)
	detailNoise := opensimplex.NewNormalized(seed + 1)
	tempNoise := opensimplex.NewNormalized(seed + 2)
	rainNoise := opensimplex.NewNormalized(seed + 3)
	forestNoise := opensimplex.NewNormalized(seed + 4)
	pastureNoise := opensimplex.NewNormalized(seed + 5)

	cx := float64(cfg.Width-1) / 2
	cy := float64(cfg.Height-1) / 2
	radius := math.Max(math.Min(cx, cy), 1)

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			fx, fy := float64(x), float64(y)
			t := m.At(x, y)

			// A continent: a broad dome with noise on top, falling into the sea at the edges.
			dx, dy := (fx-cx)/radius, (fy-cy)/radius
			dist := math.Sqrt(dx*dx + dy*dy)
			dome := 1 - math.Pow(math.Min(dist, 1.2), 2)
			elev := octaveNoise(elevNoise, fx, fy, 4, 1.0/60, 0.5)
			detail := octaveNoise(detailNoise, fx, fy, 2, 1.0/12, 0.5)
			alt := (dome*0.6 + elev*0.5 + detail*0.15 - 0.55) * 8
			if alt > 0 {
				// Flatten lowlands, keep peaks.
				a := alt / 8
				alt = a * a * 8 * 2
			}
			t.Altitude = alt

			// Temperature in degrees Celsius, dropping 3C per km of height.
			temp := octaveNoise(tempNoise, fx, fy, 3, 1.0/80, 0.5)
			t.Temperature = -3 + temp*40 - math.Max(alt, 0)*3

			t.Precipitation = clamp01(octaveNoise(rainNoise, fx, fy, 3, 1.0/100, 0.5)*1.4 - 0.2)

			// Forest and pasture like rain and mild temperature.
			mild := clamp01(1 - (t.Temperature-18.25)/16.75)
			if t.Temperature < 1.5 {
				mild *= clamp01((t.Temperature + 12) / 13.5)
			}
			growth := clamp01(math.Sqrt(t.Precipitation) * math.Sqrt(mild))
			growth *= growth

			forest := growth * clamp01(alt/0.01)
			treeLine := clamp01((t.Temperature+12)/57) * 4
			if alt > treeLine {
				forest = 0
			}
			forest += (octaveNoise(forestNoise, fx, fy, 3, 1.0/25, 0.5) - 0.5) * 1.2
			t.Forest = smooth(clamp01(forest))

			pasture := growth + 0.2 + (octaveNoise(pastureNoise, fx, fy, 2, 1.0/15, 0.5)-0.5)*0.8
			t.Pasture = smooth(clamp01(pasture))

			if alt <= 0 {
				t.Fish = 1
			}
		}
	}

	for i, mn := range minerals {
		noise := opensimplex.NewNormalized(seed + 10 + int64(i))
		for y := 0; y < cfg.Height; y++ {
			for x := 0; x < cfg.Width; x++ {
				n := octaveNoise(noise, float64(x), float64(y), 2, 1/mn.fieldSize, 0.5)
				v := clamp01((n*2-1)+(mn.rarity*2-1)) * 2
				mn.set(m.At(x, y), smooth(clamp01(v)))
			}
		}
	}

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			t := m.At(x, y)
			t.Terrain = deriveTerrain(t, slope(m, x, y))
		}
	}

	return m
}

// deriveTerrain determines terrain type from the tile's layers.
func deriveTerrain(t *Tile, slope float64) Terrain {
	switch {
	case t.Altitude <= 0:
		return TerrainWater
	case slope > rockSlope || t.Altitude > rockAltitude:
		return TerrainRock
	case t.Forest > forestLine:
		return TerrainForest
	case t.Pasture > pastureLine:
		return TerrainGrass
	default:
		return TerrainDesert
	}
}

// slope returns the largest altitude difference to a grid neighbour.
func slope(m *Map, x, y int) float64 {
	t := m.At(x, y)
	s := 0.0
	for _, d := range Directions {
		n := m.At(x+d.X(), y+d.Y())
		if n == nil {
			continue
		}
		s = math.Max(s, math.Abs(math.Max(n.Altitude, 0)-math.Max(t.Altitude, 0)))
	}
	return s
}

// octaveNoise generates fractal noise by layering multiple frequencies.
// The result is in [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

// smooth is the smoothstep curve on [0, 1].
func smooth(v float64) float64 {
	return v * v * (3 - 2*v)
}

// LandTiles returns the coordinates of every walkable tile.
func LandTiles(m *Map) []Coord {
	var out []Coord
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.IsAccessible(x, y) {
				out = append(out, MakeCoord(x, y))
			}
		}
	}
	return out
}
