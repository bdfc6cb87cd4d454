package engine

import (
	"math"
	"slices"

	"github.com/talgya/caravans/internal/economy"
	"github.com/talgya/caravans/internal/entropy"
	"github.com/talgya/caravans/internal/production"
	"github.com/talgya/caravans/internal/social"
)

// Consumption rates, in units per inhabitant per economy day.
const (
	foodPerCapita      = 1.0 / 10
	waterPerCapita     = 1.0 / 8
	commonPerCapita    = 1.0 / 50
	luxuryPerCapita    = 1.0 / 5
	materialsPerGrowth = 5

	satiation      = 1.2 // Effective price multiplier after each basic-need purchase
	luxuryShare    = 0.5 // Share of leftover money a town is willing to spend on luxuries
	materialsSlack = 300 // Extra budget for building materials when the town grows
)

// DayReport summarizes one economy day of one town.
type DayReport struct {
	Town             social.TownID `json:"town"`
	Produced         int           `json:"produced"` // Units of output sold into the ledger
	Consumed         int           `json:"consumed"` // Units bought by the population and by recipes
	Spent            float64       `json:"spent"`    // Value of everything but luxuries
	LuxuryBudget     float64       `json:"luxury_budget"`
	Employed         int           `json:"employed"`
	Unemployed       int           `json:"unemployed"`
	PopulationChange int           `json:"population_change"`
}

// Economy runs the daily production and consumption cycle of towns.
// It keeps scratch buffers and is not safe for concurrent use.
type Economy struct {
	recipes *production.Catalog
	rng     *entropy.Source

	MinPopulation int
	MaxPopulation int

	profits  []float64
	scratch  economy.Basket
	consumed economy.Basket
	produced economy.Inventory
	luxury   []economy.GoodID
}

// NewEconomy creates the town economic tick for a recipe catalog.
func NewEconomy(recipes *production.Catalog, rng *entropy.Source) *Economy {
	goods := recipes.Goods()
	return &Economy{
		recipes:       recipes,
		rng:           rng,
		MinPopulation: social.DefaultMinPopulation,
		MaxPopulation: social.DefaultMaxPopulation,
		profits:       make([]float64, recipes.Len()),
		scratch:       goods.NewBasket(),
		consumed:      goods.NewBasket(),
		produced:      goods.NewInventory(),
		luxury:        slices.Clone(goods.LuxuryGoods),
	}
}

// Recipes returns the recipe catalog.
func (e *Economy) Recipes() *production.Catalog {
	return e.recipes
}

// Profit returns what a crew of ten working r for one day earns at the
// town's current prices: output at the sell price minus inputs at the buy
// price.
func (e *Economy) Profit(t *social.Town, r *production.Recipe) float64 {
	e.scratch.Reset()
	out := r.Produce(&t.Environment, &e.scratch)
	gained := out * float64(t.Prices.SellPrice(r.Output))
	lost := 0.0
	for i := 0; i < e.scratch.Len(); i++ {
		g := economy.GoodID(i)
		if units := e.scratch.Get(g); units != 0 {
			lost += units * float64(t.Prices.BuyPrice(g))
		}
	}
	return gained - lost
}

// SimulateDay runs one economy day for t: workforce reallocation, production,
// consumption and price decay, in that order.
func (e *Economy) SimulateDay(t *social.Town) DayReport {
	report := DayReport{Town: t.ID}
	report.PopulationChange = e.reallocate(t)
	e.produce(t, &report)
	e.consume(t, &report)
	t.Prices.Decay()

	report.Employed = t.Employed()
	report.Unemployed = t.Unemployed()
	return report
}

// reallocate trims unprofitable recipes, drifts the population with wealth
// and assigns the unemployed to the most profitable recipes. It returns the
// population change.
func (e *Economy) reallocate(t *social.Town) int {
	best := math.Inf(-1)
	for i, r := range e.recipes.Recipes() {
		e.profits[i] = e.Profit(t, r)
		best = max(best, e.profits[i])
	}
	veryLow := best / 10
	low := best / 2

	for _, a := range t.Assignments() {
		id, workers := a.Recipe, a.Workers
		profit := e.profits[id]
		switch {
		case profit <= veryLow:
			workers /= 2
		case profit <= low:
			workers -= e.rng.Intn(min(3, workers))
		default:
			workers -= max(e.rng.Intn(min(6, workers))-3, 0)
		}
		if workers <= 0 {
			delete(t.Workforce, id)
			continue
		}
		t.Workforce[id] = workers
	}

	growth := 0
	unemployed := t.Population - t.Employed()
	switch {
	case unemployed > 0 && t.Wealth <= -1 && t.Population > e.MinPopulation:
		t.Population--
		growth = -1
	case t.Wealth >= 1 && t.Population < e.MaxPopulation:
		t.Population++
		growth = 1
	}
	e.fireExcess(t)

	unemployed = t.Unemployed()
	for unemployed > 0 {
		first, second := top2(e.profits)
		if first < 0 || e.profits[first] <= 0 {
			break
		}
		bestProfit := e.profits[first]
		e.profits[first] = math.Inf(-1)

		next := 0.0
		if second >= 0 {
			next = max(e.profits[second], 0)
		}
		portion := bestProfit / (bestProfit + next)
		give := clampInt(e.rng.Round(float64(unemployed)*portion), 1, unemployed)
		t.Workforce[production.RecipeID(first)] += give
		unemployed -= give
	}
	return growth
}

// fireExcess removes workers from the least profitable recipes until the
// workforce fits in the population.
func (e *Economy) fireExcess(t *social.Town) {
	excess := t.Employed() - t.Population
	if excess <= 0 {
		return
	}
	active := make([]production.RecipeID, 0, len(t.Workforce))
	for id := range t.Workforce {
		active = append(active, id)
	}
	slices.SortFunc(active, func(a, b production.RecipeID) int {
		if c := compareFloat(e.profits[a], e.profits[b]); c != 0 {
			return c
		}
		return int(a) - int(b)
	})
	for _, id := range active {
		if excess <= 0 {
			break
		}
		cut := min(t.Workforce[id], excess)
		excess -= cut
		t.Workforce[id] -= cut
		if t.Workforce[id] == 0 {
			delete(t.Workforce, id)
		}
	}
}

// produce runs every active recipe scaled by its crew and registers the
// produced and consumed units on the ledger.
func (e *Economy) produce(t *social.Town, report *DayReport) {
	e.produced.Clear()
	e.consumed.Reset()

	for _, a := range t.Assignments() {
		r := e.recipes.Recipe(a.Recipe)
		scale := float64(a.Workers) / production.CrewSize

		e.scratch.Reset()
		created := r.Produce(&t.Environment, &e.scratch)
		e.produced.AddFraction(r.Output, created*scale, e.rng)
		e.consumed.AddScaled(&e.scratch, scale)
	}

	for i := 0; i < e.produced.Len(); i++ {
		g := economy.GoodID(i)
		if n := e.produced.Get(g); n > 0 {
			t.Prices.SellUnits(g, n)
			report.Produced += n
		}
		if v := e.consumed.Get(g); v > 0 {
			n := e.rng.Round(v)
			t.Prices.BuyUnits(g, n)
			report.Consumed += n
		}
	}
	t.Output.CopyFrom(&e.produced)
}

// consume buys what the population needs and updates the town's wealth.
func (e *Economy) consume(t *social.Town, report *DayReport) {
	goods := t.Goods()
	pop := float64(t.Population)

	spent := e.basicNeed(t, goods.Food, e.rng.Round(pop*foodPerCapita), math.Inf(1), report)
	if !t.Environment.HasFreshWater {
		spent += e.basicNeed(t, goods.FreshWater, e.rng.Round(pop*waterPerCapita), math.Inf(1), report)
	}
	for _, g := range goods.CommonGoods {
		n := e.rng.Round(pop * commonPerCapita)
		spent += float64(n) * t.Prices.BasePrice(g)
		t.Prices.BuyUnits(g, n)
		report.Consumed += n
	}
	if report.PopulationChange > 0 {
		budget := float64(t.Money) - spent + materialsSlack
		spent += e.basicNeed(t, goods.BuildingMaterials, report.PopulationChange*materialsPerGrowth, budget, report)
	}
	report.Spent = spent

	budget := (float64(t.Money) - spent) * luxuryShare
	report.LuxuryBudget = budget
	t.Wealth = clampFloat(t.Wealth+math.Tanh(budget*0.1)*0.1, -1, 1)
	e.luxuryNeed(t, e.rng.Round(pop*luxuryPerCapita), budget, report)
}

// basicNeed buys amount units from candidates, always the one with the
// lowest effective price. Each purchase makes that good less attractive.
// It returns the value spent.
func (e *Economy) basicNeed(t *social.Town, candidates []economy.GoodID, amount int, budget float64, report *DayReport) float64 {
	if len(candidates) == 0 || amount <= 0 {
		return 0
	}
	effective := make([]float64, len(candidates))
	for i, g := range candidates {
		effective[i] = t.Prices.BasePrice(g)
	}

	spent := 0.0
	for range amount {
		cheapest := 0
		for i := range effective {
			if effective[i] < effective[cheapest] {
				cheapest = i
			}
		}
		g := candidates[cheapest]
		price := t.Prices.BasePrice(g)
		if spent+price > budget {
			break
		}
		spent += price
		t.Prices.BuyUnit(g)
		report.Consumed++
		effective[cheapest] = max(effective[cheapest]*satiation, t.Prices.BasePrice(g))
	}
	return spent
}

// luxuryNeed buys luxury goods one of each in shuffled rounds until target
// units are bought or the budget runs out.
func (e *Economy) luxuryNeed(t *social.Town, target int, budget float64, report *DayReport) {
	if len(e.luxury) == 0 {
		return
	}
	bought := 0
	for bought < target && budget >= 0 {
		e.rng.Shuffle(len(e.luxury), func(i, j int) {
			e.luxury[i], e.luxury[j] = e.luxury[j], e.luxury[i]
		})
		for _, g := range e.luxury {
			if bought >= target || budget < 0 {
				break
			}
			budget -= t.Prices.BasePrice(g)
			t.Prices.BuyUnit(g)
			bought++
		}
	}
	report.Consumed += bought
}

// top2 returns the indices of the largest and second largest finite values,
// or -1 where there is none.
func top2(values []float64) (int, int) {
	first, second := -1, -1
	for i, v := range values {
		if math.IsInf(v, -1) {
			continue
		}
		switch {
		case first < 0 || v > values[first]:
			first, second = i, first
		case second < 0 || v > values[second]:
			second = i
		}
	}
	return first, second
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
