package world

import "fmt"

// Temperature bands in degrees Celsius.
const (
	ColdBelow = 10.0 // Sub 10C is cold
	HotAbove  = 25.0 // Mostly above 25C is hot
)

// Environment is the terrain and climate around a town. It is written once
// at world generation and read by production recipes every day.
type Environment struct {
	HasFreshWater bool `json:"has_fresh_water"` // Own water source for consumption
	HasSaltWater  bool `json:"has_salt_water"`  // Sea access, for fishing and salt

	FieldSpace    float64 `json:"field_space"`    // 0–1, pasture and farmland
	WoodAbundance float64 `json:"wood_abundance"` // 0–1, how easy wood is to get
	FishAbundance float64 `json:"fish_abundance"` // 0–1
	Precipitation float64 `json:"precipitation"`  // 0 (desert) to 1 (rainforest)
	Temperature   float64 `json:"temperature"`    // Average, degrees Celsius

	// Mining ease per material, 0 = impossible, 1 = very easy.
	RareMetalOccurrence float64 `json:"rare_metal_occurrence"`
	MetalOccurrence     float64 `json:"metal_occurrence"`
	CoalOccurrence      float64 `json:"coal_occurrence"`
	JewelOccurrence     float64 `json:"jewel_occurrence"`
	StoneOccurrence     float64 `json:"stone_occurrence"`
	LimestoneOccurrence float64 `json:"limestone_occurrence"`
}

// IsCold reports whether the average temperature is in the cold band.
func (e *Environment) IsCold() bool {
	return e.Temperature < ColdBelow
}

// IsHot reports whether the average temperature is in the hot band.
func (e *Environment) IsHot() bool {
	return e.Temperature >= HotAbove
}

// String returns a short climate summary.
func (e *Environment) String() string {
	return fmt.Sprintf("Environment(%.1fC, rain=%.2f, fields=%.2f, wood=%.2f)",
		e.Temperature, e.Precipitation, e.FieldSpace, e.WoodAbundance)
}
