// Package social provides towns and the trade surface caravans use.
package social

import (
	"fmt"
	"sort"

	"github.com/talgya/caravans/internal/economy"
	"github.com/talgya/caravans/internal/production"
	"github.com/talgya/caravans/internal/world"
)

// TownID is a unique identifier for a town.
type TownID = uint64

// Population bounds.
const (
	DefaultMinPopulation = 10
	DefaultMaxPopulation = 10000
)

// Town is a stationary economic agent.
type Town struct {
	ID       TownID      `json:"id"`
	Name     string      `json:"name"`
	Position world.Coord `json:"position"`

	// Demographics
	Population int     `json:"population"`
	Money      int     `json:"money"`
	Wealth     float64 `json:"wealth"` // -1 (destitute) to 1 (prosperous)

	Environment world.Environment `json:"environment"`

	// Economy
	Prices    *economy.Ledger             `json:"-"`
	Output    economy.Inventory           `json:"-"` // Units produced on the last economy day
	Workforce map[production.RecipeID]int `json:"-"` // Active recipes only, never zero

	TradeBuyCount  int `json:"trade_buy_count"`  // Units caravans bought here
	TradeSellCount int `json:"trade_sell_count"` // Units caravans sold here

	goods *economy.Catalog
}

// NewTown creates an empty town for the goods catalog.
func NewTown(id TownID, name string, pos world.Coord, goods *economy.Catalog) *Town {
	return &Town{
		ID:        id,
		Name:      name,
		Position:  pos,
		Prices:    goods.NewLedger(),
		Output:    goods.NewInventory(),
		Workforce: make(map[production.RecipeID]int),
		goods:     goods,
	}
}

// Goods returns the catalog the town trades in.
func (t *Town) Goods() *economy.Catalog {
	return t.goods
}

// Employed returns the number of inhabitants assigned to a recipe.
func (t *Town) Employed() int {
	n := 0
	for _, w := range t.Workforce {
		n += w
	}
	return n
}

// Unemployed returns the inhabitants not assigned to any recipe.
func (t *Town) Unemployed() int {
	return max(t.Population-t.Employed(), 0)
}

// Assignment is one entry of a town's workforce.
type Assignment struct {
	Recipe  production.RecipeID `json:"recipe"`
	Workers int                 `json:"workers"`
}

// Assignments returns the workforce sorted by recipe.
func (t *Town) Assignments() []Assignment {
	out := make([]Assignment, 0, len(t.Workforce))
	for r, w := range t.Workforce {
		out = append(out, Assignment{Recipe: r, Workers: w})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Recipe < out[j].Recipe
	})
	return out
}

// String returns a one-line summary of the town.
func (t *Town) String() string {
	return fmt.Sprintf("Town(%d %s at %v, pop=%d, money=%d, wealth=%.2f)",
		t.ID, t.Name, t.Position, t.Population, t.Money, t.Wealth)
}
