// Package economy provides the goods catalog, inventories, and per-town price ledgers.
package economy

import "fmt"

// GoodID indexes a good in its catalog. IDs are dense, starting at 0.
type GoodID uint16

// Category groups goods for display and bulk consumption.
type Category uint8

const (
	CategoryTextile Category = iota
	CategoryFood
	CategoryFruitAndVegetables
	CategoryAlcohol
	CategoryMining
	CategoryWood
	CategoryOther
)

// String returns a human-readable category name.
func (c Category) String() string {
	switch c {
	case CategoryTextile:
		return "Textile"
	case CategoryFood:
		return "Food"
	case CategoryFruitAndVegetables:
		return "Fruit and vegetables"
	case CategoryAlcohol:
		return "Alcohol"
	case CategoryMining:
		return "Mining"
	case CategoryWood:
		return "Wood"
	case CategoryOther:
		return "Other"
	default:
		return "Unknown"
	}
}

// Good is an immutable catalog entry.
type Good struct {
	ID        GoodID   `json:"id"`
	Key       string   `json:"key"`      // Stable identifier, survives catalog reordering
	Name      string   `json:"name"`     // Display name
	Material  string   `json:"material"` // Lowercase noun used in recipe names
	Tradeable bool     `json:"tradeable"`
	Category  Category `json:"category"`
}

// GoodDef describes one good when building a catalog.
type GoodDef struct {
	Key       string
	Name      string
	Material  string
	Category  Category
	Tradeable bool
}

// CatalogSpec is the full definition of a catalog: its goods, its version
// history and the need groups towns consume from.
type CatalogSpec struct {
	Goods []GoodDef

	// History lists the good keys of every catalog version, oldest first.
	// The last entry must match Goods in order. Empty means a single version.
	History [][]string

	Food              []string
	FreshWater        []string
	CommonGoods       []string
	LuxuryGoods       []string
	BuildingMaterials []string
}

// Catalog is the registry of tradeable goods. It is built once and then
// shared read-only by every town, caravan and recipe.
type Catalog struct {
	goods   []Good
	byKey   map[string]GoodID
	history [][]string
	codec   *Codec

	Food              []GoodID // Basic food, cheapest is bought first
	FreshWater        []GoodID // Needed only by towns without their own source
	CommonGoods       []GoodID // Bought every day regardless of price
	LuxuryGoods       []GoodID // Bought as budget allows
	BuildingMaterials []GoodID
}

// NewCatalog builds a catalog from a spec.
func NewCatalog(spec CatalogSpec) (*Catalog, error) {
	if len(spec.Goods) == 0 {
		return nil, fmt.Errorf("catalog has no goods")
	}

	c := &Catalog{
		goods: make([]Good, 0, len(spec.Goods)),
		byKey: make(map[string]GoodID, len(spec.Goods)),
	}
	for i, def := range spec.Goods {
		if def.Key == "" {
			return nil, fmt.Errorf("good %d: key is required", i)
		}
		if _, dup := c.byKey[def.Key]; dup {
			return nil, fmt.Errorf("good %q: duplicate key", def.Key)
		}
		id := GoodID(i)
		c.byKey[def.Key] = id
		c.goods = append(c.goods, Good{
			ID:        id,
			Key:       def.Key,
			Name:      def.Name,
			Material:  def.Material,
			Tradeable: def.Tradeable,
			Category:  def.Category,
		})
	}

	current := make([]string, len(c.goods))
	for i, g := range c.goods {
		current[i] = g.Key
	}
	c.history = spec.History
	if len(c.history) == 0 {
		c.history = [][]string{current}
	}
	last := c.history[len(c.history)-1]
	if len(last) != len(current) {
		return nil, fmt.Errorf("newest catalog version has %d goods, want %d", len(last), len(current))
	}
	for i := range last {
		if last[i] != current[i] {
			return nil, fmt.Errorf("newest catalog version: position %d is %q, want %q", i, last[i], current[i])
		}
	}

	var err error
	groups := []struct {
		name string
		keys []string
		dst  *[]GoodID
	}{
		{"food", spec.Food, &c.Food},
		{"fresh water", spec.FreshWater, &c.FreshWater},
		{"common goods", spec.CommonGoods, &c.CommonGoods},
		{"luxury goods", spec.LuxuryGoods, &c.LuxuryGoods},
		{"building materials", spec.BuildingMaterials, &c.BuildingMaterials},
	}
	for _, g := range groups {
		if *g.dst, err = c.lookupAll(g.keys); err != nil {
			return nil, fmt.Errorf("%s: %w", g.name, err)
		}
	}

	c.codec = newCodec(c)
	return c, nil
}

func (c *Catalog) lookupAll(keys []string) ([]GoodID, error) {
	ids := make([]GoodID, 0, len(keys))
	for _, k := range keys {
		id, ok := c.byKey[k]
		if !ok {
			return nil, fmt.Errorf("unknown good %q", k)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Len returns the number of goods in the catalog.
func (c *Catalog) Len() int {
	return len(c.goods)
}

// Good returns the catalog entry for id.
func (c *Catalog) Good(id GoodID) Good {
	return c.goods[id]
}

// Goods returns all goods in catalog order.
func (c *Catalog) Goods() []Good {
	out := make([]Good, len(c.goods))
	copy(out, c.goods)
	return out
}

// Lookup finds a good by its stable key.
func (c *Catalog) Lookup(key string) (GoodID, bool) {
	id, ok := c.byKey[key]
	return id, ok
}

// Version returns the newest catalog version number.
func (c *Catalog) Version() int {
	return len(c.history) - 1
}

// Codec returns the versioned counter codec for this catalog.
func (c *Catalog) Codec() *Codec {
	return c.codec
}

// NewInventory returns an empty inventory sized for this catalog.
func (c *Catalog) NewInventory() Inventory {
	return NewInventory(len(c.goods))
}

// NewBasket returns an empty basket sized for this catalog.
func (c *Catalog) NewBasket() Basket {
	return NewBasket(len(c.goods))
}

// NewLedger returns an empty price ledger sized for this catalog.
func (c *Catalog) NewLedger() *Ledger {
	return NewLedger(len(c.goods))
}
