// Town placement: scores land tiles for economic viability and seeds the
// initial towns.

package world

import (
	"math"
	"math/rand"
	"strings"
)

// TownSeed holds the parameters for an initial town placement.
type TownSeed struct {
	Position    Coord
	Name        string
	Population  int
	Money       int
	Environment Environment
	Score       float64 // Desirability when placed
}

// PlacementConfig controls town placement.
type PlacementConfig struct {
	Count        int     // Towns to place
	Spacing      int     // Manhattan radius of the desirability dent around a town
	RescoreEvery int     // Re-evaluate site scores after this many towns
	Jitter       float64 // Amplitude of random site preference
}

// DefaultPlacementConfig returns the standard placement parameters for a map.
func DefaultPlacementConfig(m *Map) PlacementConfig {
	return PlacementConfig{
		Count:        24,
		Spacing:      max(min(m.Width, m.Height)/4, 4),
		RescoreEvery: 4,
		Jitter:       0.1,
	}
}

// SiteScorer rates how well a town would do at a site. Scores are relative;
// they are normalized across the map.
type SiteScorer func(env *Environment) float64

// PlaceTowns picks town sites one at a time, each at the best remaining
// tile. Sites near already placed towns are penalized. score is re-evaluated
// every RescoreEvery towns, and placed is invoked after each town so the
// caller can create it and let prices settle before the next rescore.
func PlaceTowns(m *Map, cfg PlacementConfig, rng *rand.Rand, score SiteScorer, placed func(TownSeed)) []TownSeed {
	n := len(m.Tiles)
	siteScore := make([]float64, n)
	penalty := make([]float64, n)
	for i := range penalty {
		penalty[i] = (rng.Float64() - 0.5) * cfg.Jitter
	}

	rescore := max(cfg.RescoreEvery, 1)
	var seeds []TownSeed
	used := make(map[string]bool)

	for len(seeds) < cfg.Count {
		if len(seeds)%rescore == 0 {
			scoreSites(m, siteScore, score)
		}

		best := -1
		bestScore := math.Inf(-1)
		for i := range siteScore {
			if math.IsInf(siteScore[i], -1) {
				continue
			}
			if s := siteScore[i] + penalty[i]; s > bestScore {
				best, bestScore = i, s
			}
		}
		if best < 0 {
			break // No land left
		}

		x, y := best%m.Width, best/m.Width
		m.At(x, y).Terrain = TerrainTown
		siteScore[best] = math.Inf(-1)
		dent(m, siteScore, x, y, cfg.Spacing, 3)
		dent(m, penalty, x, y, cfg.Spacing, 3)

		population := 10 + rng.Intn(90)
		seed := TownSeed{
			Position:    MakeCoord(x, y),
			Name:        generateName(rng, used),
			Population:  population,
			Money:       population*10 + rng.Intn(50),
			Environment: m.EnvironmentAt(x, y),
			Score:       bestScore,
		}
		seeds = append(seeds, seed)
		if placed != nil {
			placed(seed)
		}
	}

	return seeds
}

// scoreSites fills out with normalized site scores; water and towns get -Inf.
func scoreSites(m *Map, out []float64, score SiteScorer) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range out {
		t := &m.Tiles[i]
		if t.Altitude <= 0 || t.Terrain == TerrainTown || t.Terrain == TerrainWater {
			out[i] = math.Inf(-1)
			continue
		}
		env := m.EnvironmentAt(i%m.Width, i/m.Width)
		out[i] = score(&env)
		lo = math.Min(lo, out[i])
		hi = math.Max(hi, out[i])
	}
	span := hi - lo
	for i := range out {
		if math.IsInf(out[i], -1) {
			continue
		}
		if span > 0 {
			out[i] = (out[i] - lo) / span
		} else {
			out[i] = 0
		}
	}
}

// dent lowers values within a manhattan radius of (x, y), most at the center.
func dent(m *Map, values []float64, x, y, radius int, depth float64) {
	if radius <= 0 {
		return
	}
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d := abs(dx) + abs(dy)
			if d > radius || !m.InBounds(x+dx, y+dy) {
				continue
			}
			i := (x + dx) + (y+dy)*m.Width
			values[i] -= depth * (1 - float64(d)/float64(radius+1))
		}
	}
}

const (
	vowels     = "euioay"
	consonants = "qwrtzpsdfghjklxcvbnmrtzpsdfghjklcvbnm"
)

// generateName produces a pronounceable town name not yet in used.
func generateName(rng *rand.Rand, used map[string]bool) string {
	for {
		var sb strings.Builder
		vowel := rng.Intn(10) == 0
		length := 3 + rng.Intn(5)
		for i := 0; i < length; i++ {
			from := consonants
			if vowel {
				from = vowels
			}
			c := from[rng.Intn(len(from))]
			if i == 0 {
				c -= 'a' - 'A'
			}
			sb.WriteByte(c)
			if i > 0 && i+1 != length && rng.Intn(41) == 0 {
				sb.WriteByte('-')
			}
			vowel = !vowel
		}
		name := sb.String()
		if !used[name] {
			used[name] = true
			return name
		}
	}
}
