// Caravan trade: caravans sell their cargo, pick the good with the best
// remembered margin, and walk to the town that pays for it.
package engine

import (
	"fmt"

	"github.com/talgya/caravans/internal/agents"
	"github.com/talgya/caravans/internal/economy"
	"github.com/talgya/caravans/internal/social"
)

// minDealProfit is the smallest expected profit worth a trip.
const minDealProfit = 5

// deal is a planned purchase: buy units of good here, sell them at dest.
type deal struct {
	good   economy.GoodID
	units  int
	profit int
	dest   social.TownID
}

// moveCaravans advances every travelling caravan one tick.
func (s *Simulation) moveCaravans(tick uint64) {
	for _, c := range s.Caravans {
		if !c.Advance(s.Map) {
			continue
		}
		town, ok := s.TownIndex[c.TargetTown]
		if !ok || town.Position != c.Position {
			town = s.TownAt(c.Position)
		}
		if town == nil {
			c.Activity = agents.ActivityIdle
			c.TargetTown = 0
			continue
		}
		s.visit(c, town, tick)
	}
}

// dispatchIdleCaravans gives every caravan without a route something to do.
// Caravans stranded between towns head for the nearest one.
func (s *Simulation) dispatchIdleCaravans(tick uint64) {
	for _, c := range s.Caravans {
		if c.Traveling() {
			continue
		}
		if town := s.TownAt(c.Position); town != nil {
			s.visit(c, town, tick)
			continue
		}
		if town := s.NearestTown(c.Position, 0); town != nil {
			s.travel(c, town, agents.ActivitySeeking)
		}
	}
}

// visit runs a caravan's stop in town: sell, buy, remember prices, leave.
func (s *Simulation) visit(c *agents.Caravan, town *social.Town, tick uint64) {
	c.Position = town.Position
	s.sellCargo(c, town, tick)

	if d, ok := s.bestDeal(c, town); ok {
		bought := s.buyCargo(c, town, d)
		if bought > 0 {
			s.addEvent(tick, "trade", fmt.Sprintf("%s buys %d %s in %s",
				c.Name, bought, s.Goods.Good(d.good).Name, town.Name))
			c.Memory.Remember(s.EconomyDay, town)
			c.PreviousTown = town.ID
			c.TradedGood = d.good
			s.travel(c, s.TownIndex[d.dest], agents.ActivityTrading)
			return
		}
	}

	c.Memory.Remember(s.EconomyDay, town)
	next, activity := s.explore(c, town)
	c.PreviousTown = town.ID
	if next == nil {
		c.Activity = agents.ActivityIdle
		c.TargetTown = 0
		return
	}
	s.travel(c, next, activity)
}

// sellCargo sells every unit the town pays more for than the caravan paid.
func (s *Simulation) sellCargo(c *agents.Caravan, town *social.Town, tick uint64) {
	for i := 0; i < c.Goods.Len(); i++ {
		g := economy.GoodID(i)
		sold := 0
		for c.Goods.Get(g) > 0 && min(town.Prices.SellPrice(g), town.Money) > c.PaidPrice(g) {
			if !c.SellTo(town, g) {
				break
			}
			sold++
		}
		if sold > 0 {
			s.Stats.TradedUnits += sold
			s.addEvent(tick, "trade", fmt.Sprintf("%s sells %d %s in %s",
				c.Name, sold, s.Goods.Good(g).Name, town.Name))
		}
	}
}

// bestDeal finds the good whose local buy price is furthest below what a
// recently visited town would pay for it.
func (s *Simulation) bestDeal(c *agents.Caravan, town *social.Town) (deal, bool) {
	var since uint64
	if s.EconomyDay > s.cfg.MemoryDays {
		since = s.EconomyDay - s.cfg.MemoryDays
	}

	best := deal{profit: minDealProfit}
	found := false
	space := c.CargoSpace()
	for _, r := range c.Memory.Fresh(since, town.ID) {
		if _, ok := s.TownIndex[r.Town]; !ok {
			continue
		}
		for i := 0; i < s.Goods.Len(); i++ {
			g := economy.GoodID(i)
			if !s.Goods.Good(g).Tradeable || i >= len(r.Sell) {
				continue
			}
			buy := town.Prices.BuyPrice(g)
			units := min(c.Money/max(buy, 1), agents.MaxPurchasePerStop, space)
			if units <= 0 {
				continue
			}
			if profit := units * (r.Sell[g] - buy); profit > best.profit {
				best = deal{good: g, units: units, profit: profit, dest: r.Town}
				found = true
			}
		}
	}
	return best, found
}

// buyCargo buys up to d.units while the price stays below the remembered
// sell price at the destination.
func (s *Simulation) buyCargo(c *agents.Caravan, town *social.Town, d deal) int {
	r, _ := c.Memory.Recall(d.dest)
	bought := 0
	for bought < d.units && town.Prices.BuyPrice(d.good) < r.Sell[d.good] {
		if !c.BuyFrom(town, d.good) {
			break
		}
		bought++
	}
	s.Stats.TradedUnits += bought
	return bought
}

// explore picks a neighbouring town to visit, preferring ones the caravan
// has no prices for. The town it just came from is a last resort.
func (s *Simulation) explore(c *agents.Caravan, town *social.Town) (*social.Town, agents.Activity) {
	var unknown, known []*social.Town
	for _, id := range s.Neighbors[town.ID] {
		n, ok := s.TownIndex[id]
		if !ok || id == c.PreviousTown {
			continue
		}
		if _, seen := c.Memory.Recall(id); seen {
			known = append(known, n)
		} else {
			unknown = append(unknown, n)
		}
	}

	switch {
	case len(unknown) > 0:
		return unknown[s.rng.Intn(len(unknown))], agents.ActivityExploring
	case len(known) > 0:
		return known[s.rng.Intn(len(known))], agents.ActivitySeeking
	}
	if prev, ok := s.TownIndex[c.PreviousTown]; ok && prev.ID != town.ID {
		return prev, agents.ActivitySeeking
	}
	return nil, agents.ActivityIdle
}

// travel plans a route to dest. Without one the caravan idles and tries
// again on the next economy day.
func (s *Simulation) travel(c *agents.Caravan, dest *social.Town, activity agents.Activity) {
	if dest == nil {
		c.Activity = agents.ActivityIdle
		c.TargetTown = 0
		return
	}
	path, ok := s.Finder.FindPathInTimeLimit(c.Position, dest.Position, nil, s.cfg.PathTimeLimit)
	if !ok || len(path) == 0 {
		c.Activity = agents.ActivityIdle
		c.TargetTown = 0
		return
	}
	c.Activity = activity
	c.TargetTown = dest.ID
	c.SetRoute(path)
}
