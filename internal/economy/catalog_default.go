package economy

// Default goods. Order is the persisted order of the newest catalog version.
var defaultGoods = []GoodDef{
	{"raw_plant_fiber", "Raw plant fiber", "plant fiber", CategoryTextile, true},
	{"raw_animal_fiber", "Raw animal fiber", "wool", CategoryTextile, true},
	{"cloth", "Cloth", "cloth", CategoryTextile, true},
	{"cloth_luxury", "Luxury cloth", "silk", CategoryTextile, true},
	{"clothing", "Clothing", "clothing", CategoryTextile, true},
	{"clothing_luxury", "Luxury clothing", "fine clothing", CategoryTextile, true},
	{"meat_fresh", "Fresh meat", "meat", CategoryFood, true},
	{"meat_preserved", "Preserved meat", "preserved meat", CategoryFood, true},
	{"meat_luxury", "Luxury meat", "sausage", CategoryFood, true},
	{"grain", "Grain", "grain", CategoryFood, true},
	{"baked_goods", "Baked goods", "bread", CategoryFood, true},
	{"baked_goods_luxury", "Luxury baked goods", "pastry", CategoryFood, true},
	{"honey", "Honey", "honey", CategoryFood, true},
	{"sugar", "Sugar", "sugar", CategoryFood, true},
	{"beer", "Beer", "beer", CategoryAlcohol, true},
	{"wine", "Wine", "wine", CategoryAlcohol, true},
	{"liquor", "Liquor", "liquor", CategoryAlcohol, true},
	{"mead", "Mead", "mead", CategoryAlcohol, true},
	{"water_fresh", "Fresh water", "water", CategoryFood, false},
	{"fruit_fresh", "Fresh fruit", "fruit", CategoryFruitAndVegetables, true},
	{"fruit_dried", "Dried fruit", "dried fruit", CategoryFruitAndVegetables, true},
	{"fruit_jam", "Fruit jam", "jam", CategoryFruitAndVegetables, true},
	{"vegetables_fresh", "Fresh vegetables", "vegetable", CategoryFruitAndVegetables, true},
	{"vegetables_pickled", "Pickled vegetables", "pickles", CategoryFruitAndVegetables, true},
	{"spices", "Spices", "spice", CategoryFood, true},
	{"salt", "Salt", "salt", CategoryFood, true},
	{"book", "Books", "book", CategoryOther, true},
	{"perfume", "Perfume", "perfume", CategoryOther, true},
	{"metal_rare_ore", "Rare metal ore", "rare ore", CategoryMining, true},
	{"metal_rare_ingot", "Rare metal ingots", "gold", CategoryMining, true},
	{"metal_ore", "Metal ore", "ore", CategoryMining, true},
	{"metal_ingot", "Metal ingots", "iron", CategoryMining, true},
	{"coal", "Coal", "coal", CategoryMining, true},
	{"jewels", "Jewels", "jewel", CategoryMining, true},
	{"jewelry", "Jewelry", "jewelry", CategoryOther, true},
	{"armor_and_weapons", "Armor and weapons", "arms", CategoryOther, true},
	{"tools", "Tools", "tool", CategoryOther, true},
	{"wood_log", "Wood logs", "log", CategoryWood, true},
	{"wood_fuel", "Fuel wood", "wood", CategoryWood, true},
	{"wood_lumber", "Lumber", "lumber", CategoryWood, true},
}

// Version 0 carried masonry stone and had no perfume.
var defaultHistoryV0 = []string{
	"raw_plant_fiber", "raw_animal_fiber", "cloth", "cloth_luxury", "clothing", "clothing_luxury",
	"meat_fresh", "meat_preserved", "meat_luxury", "grain", "baked_goods", "baked_goods_luxury",
	"honey", "sugar", "beer", "wine", "liquor", "mead", "water_fresh",
	"fruit_fresh", "fruit_dried", "fruit_jam", "vegetables_fresh", "vegetables_pickled",
	"spices", "salt", "book",
	"metal_rare_ore", "metal_rare_ingot", "metal_ore", "metal_ingot", "coal", "jewels",
	"jewelry", "armor_and_weapons", "tools", "wood_log", "wood_fuel", "wood_lumber",
	"stone",
}

// DefaultSpec returns the standard goods catalog definition.
func DefaultSpec() CatalogSpec {
	current := make([]string, len(defaultGoods))
	for i, g := range defaultGoods {
		current[i] = g.Key
	}
	return CatalogSpec{
		Goods:   defaultGoods,
		History: [][]string{defaultHistoryV0, current},
		Food: []string{
			"meat_fresh", "meat_preserved", "meat_luxury",
			"baked_goods", "baked_goods_luxury",
			"fruit_fresh", "fruit_dried", "fruit_jam",
			"vegetables_fresh", "vegetables_pickled",
			"salt",
		},
		FreshWater:        []string{"water_fresh"},
		CommonGoods:       []string{"clothing", "tools"},
		LuxuryGoods:       []string{"clothing_luxury", "book", "perfume", "jewelry"},
		BuildingMaterials: []string{"tools", "wood_log", "wood_lumber"},
	}
}

// DefaultCatalog builds the standard goods catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultSpec())
	if err != nil {
		// The default tables are static; a failure here is a programming error.
		panic("economy: default catalog: " + err.Error())
	}
	return c
}
