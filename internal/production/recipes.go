package production

import (
	"github.com/talgya/caravans/internal/world"
)

// A crew of 10 eats 1 unit of food per day. A crew of 10 farming makes
// 0.1 food on 0% conditions, 1 on 25% and 3 on 100%.

func extract(name, output string, fn func(env *world.Environment) float64) Def {
	return Def{Name: name, Output: output, Extract: fn}
}

func convert(name, output string, units float64, inputs ...InputDef) Def {
	return Def{Name: name, Output: output, Units: units, Inputs: inputs}
}

func in(key string, units float64) InputDef {
	return InputDef{Key: key, Units: units}
}

// Crop temperature preferences in degrees Celsius.
func grainWarmth(t float64) float64     { return Peak(t, 5, 20, 35) }
func vegetableWarmth(t float64) float64 { return Peak(t, 0, 18, 32) }
func fruitWarmth(t float64) float64     { return Peak(t, 10, 25, 40) }
func spiceWarmth(t float64) float64     { return Peak(t, 10, 30, 45) }

var fuels = []struct{ name, key string }{
	{"wood", "wood_fuel"},
	{"coal", "coal"},
}

// DefaultDefs returns the standard recipe table.
func DefaultDefs() []Def {
	defs := []Def{
		extract("Wool and hide production", "raw_animal_fiber", func(e *world.Environment) float64 {
			return Map(0.05, 0.5, 2, e.FieldSpace)
		}),
		extract("Plant fiber farming", "raw_plant_fiber", func(e *world.Environment) float64 {
			return Map(0.1, 1, 2.5, Mix(e.FieldSpace, e.Precipitation))
		}),
		convert("Weaving (plant fiber)", "cloth", 4.9, in("raw_plant_fiber", 5)),
		convert("Weaving (animal fiber)", "cloth", 4.8, in("raw_animal_fiber", 5)),
		convert("Luxury weaving", "cloth_luxury", 4.5, in("raw_animal_fiber", 3), in("raw_plant_fiber", 3)),
		convert("Clothing tailoring", "clothing", 6, in("cloth", 7)),
		convert("Luxury clothing tailoring", "clothing_luxury", 5.5, in("cloth", 3), in("cloth_luxury", 4)),

		extract("Livestock farming", "meat_fresh", func(e *world.Environment) float64 {
			// Quadratic through (0, 0.1), (0.25, 1) and (1, 3).
			p := clamp01(e.FieldSpace)
			return -0.933333*p*p + 3.83333*p + 0.1
		}),
		extract("Fishing", "meat_fresh", func(e *world.Environment) float64 {
			units := 0.0
			if e.HasSaltWater {
				units += 1.5
			}
			if e.HasFreshWater {
				units += 0.7
			}
			return units * Map(0.2, 0.7, 1.3, e.FishAbundance)
		}),
		convert("Meat salting", "meat_preserved", 40, in("meat_fresh", 40), in("salt", 10)),
		convert("Meat smoking", "meat_preserved", 40, in("meat_fresh", 40), in("wood_fuel", 30)),
		convert("Sausage making", "meat_luxury", 40, in("meat_preserved", 40), in("salt", 7), in("spices", 4)),

		extract("Grain farming", "grain", func(e *world.Environment) float64 {
			return Map(0.1, 2, 6, Mix(e.FieldSpace, e.Precipitation, grainWarmth(e.Temperature)))
		}),
	}

	for _, fuel := range fuels {
		defs = append(defs, convert("Baking ("+fuel.name+")", "baked_goods", 50,
			in("grain", 50), in("water_fresh", 20), in(fuel.key, 10), in("salt", 3)))
		for _, sweetener := range []string{"honey", "sugar"} {
			defs = append(defs, convert("Luxury baking ("+fuel.name+", "+sweetener+")", "baked_goods_luxury", 50,
				in("grain", 50), in("water_fresh", 20), in(fuel.key, 10), in("salt", 3),
				in("spices", 3), in(sweetener, 6)))
		}
	}

	defs = append(defs,
		extract("Beekeeping", "honey", func(e *world.Environment) float64 {
			return Mix(e.FieldSpace, e.WoodAbundance) * 5
		}),
		extract("Sugar cane farming", "sugar", func(e *world.Environment) float64 {
			if !e.IsHot() || e.Precipitation < 0.7 {
				return 0
			}
			return Map(0, 1, 5, Mix(e.FieldSpace, e.Precipitation))
		}),

		convert("Beer brewing", "beer", 20, in("grain", 15), in("water_fresh", 20)),
		convert("Wine making", "wine", 10, in("fruit_fresh", 15), in("water_fresh", 10)),
		convert("Liquor making (vegetable)", "liquor", 10, in("vegetables_fresh", 15), in("water_fresh", 20)),
		convert("Liquor making (grain)", "liquor", 10, in("grain", 15), in("water_fresh", 20)),
		convert("Liquor making (fruit)", "liquor", 10, in("fruit_fresh", 15), in("water_fresh", 20)),
		convert("Mead making", "mead", 15, in("honey", 15), in("water_fresh", 15)),

		extract("Water gathering", "water_fresh", func(e *world.Environment) float64 {
			if e.HasFreshWater {
				return 50
			}
			desalination := 0.0
			if e.HasSaltWater {
				desalination = 5
			}
			return max(desalination, clamp01(e.Precipitation)*10)
		}),

		extract("Fruit growing", "fruit_fresh", func(e *world.Environment) float64 {
			return Map(0.1, 1, 4, Mix(e.FieldSpace, e.Precipitation, fruitWarmth(e.Temperature)))
		}),
		extract("Vegetable growing", "vegetables_fresh", func(e *world.Environment) float64 {
			return Map(0.1, 2, 4, Mix(e.FieldSpace, e.Precipitation, vegetableWarmth(e.Temperature)))
		}),
		Def{
			Name:   "Fruit drying",
			Output: "fruit_dried",
			Units:  30,
			Inputs: []InputDef{in("fruit_fresh", 50)},
			When: func(e *world.Environment) bool {
				return e.IsHot() && e.Precipitation < 0.9
			},
		},
		convert("Fruit jam production (sugar)", "fruit_jam", 50, in("fruit_fresh", 50), in("sugar", 20)),
		convert("Fruit jam production (honey)", "fruit_jam", 50, in("fruit_fresh", 50), in("honey", 20)),
		convert("Vegetable pickling (vinegar)", "vegetables_pickled", 50, in("vegetables_fresh", 50), in("wine", 10)),
		convert("Vegetable pickling (brine)", "vegetables_pickled", 50, in("vegetables_fresh", 50), in("salt", 10)),

		extract("Spice farming", "spices", func(e *world.Environment) float64 {
			return Map(0, 0.2, 2, Mix(spiceWarmth(e.Temperature), Peak(e.Precipitation, 0.3, 0.7, 1)))
		}),
		extract("Salt extraction", "salt", func(e *world.Environment) float64 {
			if !e.HasSaltWater || e.Precipitation > 0.3 {
				return 0
			}
			switch {
			case e.IsHot():
				return 40
			case e.IsCold():
				return 10
			default:
				return 20
			}
		}),

		convert("Book writing", "book", 0.1, in("raw_animal_fiber", 1)),
		convert("Perfume making", "perfume", 2,
			in("fruit_fresh", 1), in("wood_fuel", 2), in("spices", 3), in("liquor", 2)),

		extract("Rare metal mining", "metal_rare_ore", func(e *world.Environment) float64 {
			return Map(0, 1, 8, e.RareMetalOccurrence)
		}),
		extract("Metal mining", "metal_ore", func(e *world.Environment) float64 {
			return Map(0, 2, 9, e.MetalOccurrence)
		}),
		extract("Coal mining", "coal", func(e *world.Environment) float64 {
			return Map(0, 3, 10, e.CoalOccurrence)
		}),
		extract("Jewel mining", "jewels", func(e *world.Environment) float64 {
			return Map(0, 1, 2, e.JewelOccurrence)
		}),
	)

	for _, fuel := range fuels {
		defs = append(defs,
			convert("Rare metal smelting ("+fuel.name+")", "metal_rare_ingot", 10, in("metal_rare_ore", 20), in(fuel.key, 40)),
			convert("Metal smelting ("+fuel.name+")", "metal_ingot", 15, in("metal_ore", 20), in(fuel.key, 40)),
			convert("Jewelry crafting ("+fuel.name+")", "jewelry", 5,
				in("metal_rare_ingot", 8), in("jewels", 5), in(fuel.key, 3)),
			convert("Armor and weapon smithing ("+fuel.name+")", "armor_and_weapons", 9,
				in("metal_ingot", 10), in(fuel.key, 15)),
			convert("Tool smithing ("+fuel.name+")", "tools", 15,
				in("metal_ingot", 10), in("wood_lumber", 10), in(fuel.key, 15)),
		)
	}

	defs = append(defs,
		extract("Forestry", "wood_log", func(e *world.Environment) float64 {
			return Map(0.1, 5, 20, e.WoodAbundance)
		}),
		convert("Wood processing to lumber", "wood_lumber", 7, in("wood_log", 10)),
		convert("Wood processing to fuel (logs)", "wood_fuel", 20, in("wood_log", 20)),
		convert("Wood processing to fuel (lumber)", "wood_fuel", 30, in("wood_lumber", 30)),
	)

	return defs
}
