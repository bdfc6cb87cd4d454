// World genesis: town placement against live prices, price warm-up with
// arbitrage between neighbouring towns, and the initial caravans.
package engine

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/talgya/caravans/internal/economy"
	"github.com/talgya/caravans/internal/entropy"
	"github.com/talgya/caravans/internal/production"
	"github.com/talgya/caravans/internal/social"
	"github.com/talgya/caravans/internal/world"
)

// Genesis tuning.
const (
	initialPriceVolume  = 10   // Supply and demand of every good in a new town
	placementSettleDays = 3    // Economy days all towns run after each placement
	transportCost       = 0.05 // Per unit and tile, paid out of arbitrage margins
	arbitragePerGood    = 10   // Units moved per good and town pair on a warm-up day
)

// Genesis builds a fresh world on m: it places cfg.Towns towns where the
// recipes are most profitable at the prices of the towns placed so far,
// lets prices settle over cfg.WarmupDays economy days and spawns caravans.
func Genesis(m *world.Map, recipes *production.Catalog, cfg Config) *Simulation {
	goods := recipes.Goods()
	econ := NewEconomy(recipes, entropy.New(cfg.Seed+450))
	econ.MinPopulation = cfg.MinPopulation
	econ.MaxPopulation = cfg.MaxPopulation

	// The probe town stands in for a candidate site. Its ledger is the sum
	// of every placed town's ledger.
	probe := social.NewTown(0, "probe", world.NullCoord, goods)
	probe.Prices.Initialize(initialPriceVolume, initialPriceVolume)
	score := func(env *world.Environment) float64 {
		probe.Environment = *env
		total := 0.0
		for _, r := range recipes.Recipes() {
			total += math.Max(econ.Profit(probe, r), 0)
		}
		return total
	}

	var towns []*social.Town
	placed := func(seed world.TownSeed) {
		t := social.NewTown(social.TownID(len(towns)+1), seed.Name, seed.Position, goods)
		t.Population = seed.Population
		t.Money = seed.Money
		t.Environment = seed.Environment
		t.Prices.Initialize(initialPriceVolume, initialPriceVolume)
		towns = append(towns, t)

		for range placementSettleDays {
			for _, o := range towns {
				econ.SimulateDay(o)
			}
		}
		probe.Prices.Clear()
		for _, o := range towns {
			probe.Prices.Add(o.Prices)
		}
		slog.Debug("town placed", "name", t.Name, "position", t.Position, "score", seed.Score)
	}

	pcfg := world.DefaultPlacementConfig(m)
	pcfg.Count = cfg.Towns
	world.PlaceTowns(m, pcfg, rand.New(rand.NewSource(cfg.Seed+400)), score, placed)

	s := NewSimulation(m, recipes, cfg, towns, nil)
	s.WarmUp(cfg.WarmupDays)

	for i := 0; i < cfg.Caravans && len(s.Towns) > 0; i++ {
		home := s.Towns[i%len(s.Towns)]
		s.Caravans = append(s.Caravans, s.Spawner.Spawn(home.Position))
	}
	s.updateStats()

	slog.Info("world generated",
		"towns", len(s.Towns),
		"caravans", len(s.Caravans),
		"population", s.Stats.TotalPopulation,
		"warmup_days", cfg.WarmupDays,
	)
	return s
}

// WarmUp runs economy days before the simulation starts so prices settle.
// Neighbouring towns trade directly, and during the first half money flows
// from rich towns to poor ones. The economy day counter does not advance.
func (s *Simulation) WarmUp(days int) {
	s.Lock()
	defer s.Unlock()

	for d := 0; d < days; d++ {
		for _, t := range s.Towns {
			s.Economy.SimulateDay(t)
		}
		moved := s.arbitrage()
		if d < days/2 {
			equalizeMoney(s.Towns)
		}
		slog.Debug("warm-up day", "day", d+1, "arbitrage_units", moved)
	}

	for _, t := range s.Towns {
		t.TradeBuyCount = 0
		t.TradeSellCount = 0
	}
}

// arbitrage moves goods from every town to its neighbours while the
// neighbour pays more than the buy price plus the transport cost. It
// returns the units moved.
func (s *Simulation) arbitrage() int {
	moved := 0
	b := newBroker(s.Goods)
	for _, from := range s.Towns {
		for _, id := range s.Neighbors[from.ID] {
			to := s.TownIndex[id]
			cost := float64(from.Position.Manhattan(to.Position)) * transportCost
			for i := 0; i < s.Goods.Len(); i++ {
				g := economy.GoodID(i)
				if !s.Goods.Good(g).Tradeable {
					continue
				}
				for n := 0; n < arbitragePerGood; n++ {
					margin := float64(min(to.Prices.SellPrice(g), to.Money) - from.Prices.BuyPrice(g))
					if margin <= cost || !b.relay(from, to, g) {
						break
					}
					moved++
				}
			}
		}
	}
	return moved
}

// equalizeMoney moves every town halfway to the mean purse. The total is
// preserved.
func equalizeMoney(towns []*social.Town) {
	if len(towns) == 0 {
		return
	}
	total := 0
	for _, t := range towns {
		total += t.Money
	}
	mean := total / len(towns)

	after := 0
	for _, t := range towns {
		t.Money += (mean - t.Money) / 2
		after += t.Money
	}
	towns[0].Money += total - after
}

// broker is the stand-in trader of the warm-up. It carries one unit at a
// time and splits the margin between both towns, so no money is created.
type broker struct {
	money int
	cargo economy.Inventory
}

func newBroker(goods *economy.Catalog) *broker {
	return &broker{money: math.MaxInt32, cargo: goods.NewInventory()}
}

var _ social.Trader = (*broker)(nil)

func (b *broker) Balance() int              { return b.money }
func (b *broker) Pay(amount int)            { b.money -= amount }
func (b *broker) Receive(amount int)        { b.money += amount }
func (b *broker) Cargo() *economy.Inventory { return &b.cargo }
func (b *broker) CargoSpace() int           { return 1 - b.cargo.Total() }

// relay buys one unit of g in from and sells it in to. When the sale is
// refused the purchase is undone, leaving from as it was.
func (b *broker) relay(from, to *social.Town, g economy.GoodID) bool {
	before := b.money
	demand, buys := from.Prices.Demand(g), from.TradeBuyCount
	if !from.Buy(b, g) {
		return false
	}
	if !to.Sell(b, g) {
		b.cargo.Remove(g, 1)
		from.Money -= before - b.money
		from.Prices.SetCounters(g, from.Prices.Supply(g), demand)
		from.TradeBuyCount = buys
		b.money = before
		return false
	}
	margin := b.money - before
	half := margin / 2
	from.Money += half
	to.Money += margin - half
	b.money = before
	return true
}
