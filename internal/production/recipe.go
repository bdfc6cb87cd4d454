// Package production defines the recipes towns employ their population in.
// Every recipe assumes a crew of 10 workers; callers scale the result.
package production

import (
	"fmt"

	"github.com/talgya/caravans/internal/economy"
	"github.com/talgya/caravans/internal/world"
)

// CrewSize is the number of workers a recipe's quantities are defined for.
const CrewSize = 10

// RecipeID indexes a recipe in its catalog.
type RecipeID uint16

// Input is one good a conversion recipe consumes per crew-day.
type Input struct {
	Good  economy.GoodID
	Units float64
}

// Recipe is an immutable production process with one output good.
type Recipe struct {
	ID     RecipeID
	Name   string
	Output economy.GoodID

	extract func(env *world.Environment) float64
	when    func(env *world.Environment) bool
	inputs  []Input
	units   float64
}

// Produce returns the units a crew of CrewSize makes per day in env and adds
// the required inputs to inputs. It only writes to inputs and may be called
// concurrently for different baskets.
func (r *Recipe) Produce(env *world.Environment, inputs *economy.Basket) float64 {
	if r.extract != nil {
		return max(r.extract(env), 0)
	}
	if r.when != nil && !r.when(env) {
		return 0
	}
	for _, in := range r.inputs {
		inputs.Add(in.Good, in.Units)
	}
	return r.units
}

// Inputs returns the fixed inputs of a conversion recipe.
func (r *Recipe) Inputs() []Input {
	out := make([]Input, len(r.inputs))
	copy(out, r.inputs)
	return out
}

// IsConversion reports whether the recipe turns goods into other goods.
func (r *Recipe) IsConversion() bool {
	return r.extract == nil
}

func (r *Recipe) String() string {
	return r.Name
}

// InputDef names an input by good key.
type InputDef struct {
	Key   string
	Units float64
}

// Def declares a recipe. Either Extract is set (a resource-extraction recipe)
// or Units and Inputs are (a conversion recipe, optionally gated by When).
type Def struct {
	Name    string
	Output  string
	Extract func(env *world.Environment) float64
	When    func(env *world.Environment) bool
	Inputs  []InputDef
	Units   float64
}

// Catalog is the registry of recipes, bound to one goods catalog.
type Catalog struct {
	goods   *economy.Catalog
	recipes []*Recipe
	byName  map[string]*Recipe
}

// NewCatalog builds the standard recipe catalog over goods.
func NewCatalog(goods *economy.Catalog) (*Catalog, error) {
	return NewCatalogFrom(goods, DefaultDefs())
}

// NewCatalogFrom builds a catalog from defs. It fails when a recipe names a
// good that goods does not contain.
func NewCatalogFrom(goods *economy.Catalog, defs []Def) (*Catalog, error) {
	c := &Catalog{
		goods:   goods,
		recipes: make([]*Recipe, 0, len(defs)),
		byName:  make(map[string]*Recipe, len(defs)),
	}
	for _, d := range defs {
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("recipe %q: duplicate name", d.Name)
		}
		out, ok := goods.Lookup(d.Output)
		if !ok {
			return nil, fmt.Errorf("recipe %q: unknown output good %q", d.Name, d.Output)
		}
		r := &Recipe{
			ID:      RecipeID(len(c.recipes)),
			Name:    d.Name,
			Output:  out,
			extract: d.Extract,
			when:    d.When,
			units:   d.Units,
		}
		if d.Extract != nil && len(d.Inputs) > 0 {
			return nil, fmt.Errorf("recipe %q: extraction recipes take no inputs", d.Name)
		}
		for _, in := range d.Inputs {
			g, ok := goods.Lookup(in.Key)
			if !ok {
				return nil, fmt.Errorf("recipe %q: unknown input good %q", d.Name, in.Key)
			}
			r.inputs = append(r.inputs, Input{Good: g, Units: in.Units})
		}
		c.recipes = append(c.recipes, r)
		c.byName[r.Name] = r
	}
	return c, nil
}

// Evaluate runs r in env, writing its inputs to inputs.
func (c *Catalog) Evaluate(r *Recipe, env *world.Environment, inputs *economy.Basket) float64 {
	return r.Produce(env, inputs)
}

// Goods returns the goods catalog recipes refer to.
func (c *Catalog) Goods() *economy.Catalog {
	return c.goods
}

// Len returns the number of recipes.
func (c *Catalog) Len() int {
	return len(c.recipes)
}

// Recipe returns the recipe with the given ID.
func (c *Catalog) Recipe(id RecipeID) *Recipe {
	return c.recipes[id]
}

// Recipes returns all recipes in registration order.
func (c *Catalog) Recipes() []*Recipe {
	return c.recipes
}

// Lookup finds a recipe by name.
func (c *Catalog) Lookup(name string) (*Recipe, bool) {
	r, ok := c.byName[name]
	return r, ok
}
