package world

import "fmt"

// Terrain types for grid tiles.
type Terrain uint8

const (
	TerrainWater  Terrain = iota // Sea and lakes, impassable
	TerrainRock                  // Steep or high ground
	TerrainForest                // Timber and game
	TerrainGrass                 // Pasture and farmland
	TerrainDesert                // Dry open land
	TerrainTown                  // Town square
)

// String returns a human-readable terrain name.
func (t Terrain) String() string {
	switch t {
	case TerrainWater:
		return "Water"
	case TerrainRock:
		return "Rock"
	case TerrainForest:
		return "Forest"
	case TerrainGrass:
		return "Grass"
	case TerrainDesert:
		return "Desert"
	case TerrainTown:
		return "Town"
	default:
		return "Unknown"
	}
}

// Speed returns the movement speed multiplier of the terrain, in (0, 1]
// for walkable terrain and 0 for water.
func (t Terrain) Speed() float64 {
	switch t {
	case TerrainWater:
		return 0
	case TerrainRock:
		return 0.35
	case TerrainForest:
		return 0.6
	case TerrainDesert:
		return 0.8
	default:
		return 1
	}
}

// Tile is one cell of the world grid.
type Tile struct {
	Terrain Terrain `json:"terrain"`

	Altitude      float64 `json:"altitude"`      // km above sea level, <= 0 is sea
	Temperature   float64 `json:"temperature"`   // degrees Celsius
	Precipitation float64 `json:"precipitation"` // 0 (no rain) to 1 (raining almost always)
	Forest        float64 `json:"forest"`        // 0–1, forest above 0.5
	Pasture       float64 `json:"pasture"`       // 0–1, grassland above 0.5
	Fish          float64 `json:"fish"`

	RareMetal float64 `json:"rare_metal"`
	Metal     float64 `json:"metal"`
	Coal      float64 `json:"coal"`
	Jewel     float64 `json:"jewel"`
	Stone     float64 `json:"stone"`
	Limestone float64 `json:"limestone"`
}

// Map holds the complete tile grid.
type Map struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Tiles  []Tile `json:"-"` // Row-major, index x + y*Width
}

// NewMap creates a map of the given size filled with water.
func NewMap(width, height int) *Map {
	return &Map{
		Width:  width,
		Height: height,
		Tiles:  make([]Tile, width*height),
	}
}

// InBounds returns true if (x, y) is on the map.
func (m *Map) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// At returns the tile at (x, y), or nil if out of bounds.
func (m *Map) At(x, y int) *Tile {
	if !m.InBounds(x, y) {
		return nil
	}
	return &m.Tiles[x+y*m.Width]
}

// TileAt returns the tile at c, or nil if out of bounds.
func (m *Map) TileAt(c Coord) *Tile {
	return m.At(c.X(), c.Y())
}

// IsAccessible reports whether caravans may enter (x, y).
func (m *Map) IsAccessible(x, y int) bool {
	t := m.At(x, y)
	return t != nil && t.Terrain.Speed() > 0
}

// MovementSpeedMultiplier returns how fast caravans move through (x, y).
// Walkable tiles return a value in (0, 1].
func (m *Map) MovementSpeedMultiplier(x, y int) float64 {
	t := m.At(x, y)
	if t == nil {
		return 0
	}
	return t.Terrain.Speed()
}

// reach is the manhattan radius a town draws land resources from.
const reach = 1

// saltReach is the half-size of the square searched for sea access.
const saltReach = 2

// freshWaterRain is the precipitation above which a town has its own water.
const freshWaterRain = 0.4

// EnvironmentAt derives the economic environment of a town standing at (x, y)
// from the tiles around it.
func (m *Map) EnvironmentAt(x, y int) Environment {
	var env Environment
	center := m.At(x, y)
	if center == nil {
		return env
	}
	env.Temperature = center.Temperature
	env.Precipitation = center.Precipitation

	rain := 0.0
	for dy := -reach; dy <= reach; dy++ {
		for dx := -reach; dx <= reach; dx++ {
			if abs(dx)+abs(dy) > reach {
				continue
			}
			t := m.At(x+dx, y+dy)
			if t == nil {
				continue
			}
			rain = max(rain, t.Precipitation)
			env.WoodAbundance = max(env.WoodAbundance, t.Forest)
			env.FieldSpace = max(env.FieldSpace, t.Pasture)
			env.FishAbundance = max(env.FishAbundance, t.Fish)
			env.RareMetalOccurrence = max(env.RareMetalOccurrence, t.RareMetal)
			env.MetalOccurrence = max(env.MetalOccurrence, t.Metal)
			env.CoalOccurrence = max(env.CoalOccurrence, t.Coal)
			env.JewelOccurrence = max(env.JewelOccurrence, t.Jewel)
			env.StoneOccurrence = max(env.StoneOccurrence, t.Stone)
			env.LimestoneOccurrence = max(env.LimestoneOccurrence, t.Limestone)
		}
	}
	env.HasFreshWater = rain >= freshWaterRain

	for dy := -saltReach; dy <= saltReach && !env.HasSaltWater; dy++ {
		for dx := -saltReach; dx <= saltReach; dx++ {
			if t := m.At(x+dx, y+dy); t != nil && t.Altitude <= 0 {
				env.HasSaltWater = true
				break
			}
		}
	}
	return env
}

// TerrainCounts returns a summary of terrain type distribution.
func (m *Map) TerrainCounts() map[Terrain]int {
	counts := make(map[Terrain]int)
	for i := range m.Tiles {
		counts[m.Tiles[i].Terrain]++
	}
	return counts
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(%dx%d)", m.Width, m.Height)
}
