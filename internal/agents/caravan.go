// Package agents provides the caravans that carry goods between towns.
package agents

import (
	"fmt"

	"github.com/talgya/caravans/internal/economy"
	"github.com/talgya/caravans/internal/social"
	"github.com/talgya/caravans/internal/world"
)

// Caravan defaults.
const (
	DefaultCapacity    = 40
	DefaultSpeed       = 0.5 // Tiles per tick on open ground
	DefaultMemory      = 8   // Towns a caravan remembers prices of
	DefaultStartMoney  = 200
	MaxPurchasePerStop = 10
)

// Activity is what a caravan is currently doing.
type Activity uint8

const (
	ActivityIdle      Activity = iota
	ActivityTrading            // Carrying one good to a town known to pay more
	ActivityExploring          // Heading to a town it has no prices for
	ActivitySeeking            // Heading to a known town hoping for a deal
)

func (a Activity) String() string {
	switch a {
	case ActivityIdle:
		return "idle"
	case ActivityTrading:
		return "trading"
	case ActivityExploring:
		return "exploring"
	case ActivitySeeking:
		return "seeking"
	default:
		return "unknown"
	}
}

// MarshalText encodes the activity by name.
func (a Activity) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an activity name.
func (a *Activity) UnmarshalText(text []byte) error {
	for v := ActivityIdle; v <= ActivitySeeking; v++ {
		if v.String() == string(text) {
			*a = v
			return nil
		}
	}
	return fmt.Errorf("unknown activity %q", text)
}

// Terrain is the part of the world a travelling caravan needs.
type Terrain interface {
	MovementSpeedMultiplier(x, y int) float64
}

// Caravan is a mobile trader. It implements social.Trader.
type Caravan struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Position world.Coord `json:"position"`
	Money    int         `json:"money"`
	Capacity int         `json:"capacity"` // Units of cargo it can carry
	Speed    float64     `json:"speed"`

	Activity     Activity       `json:"activity"`
	TradedGood   economy.GoodID `json:"traded_good"`
	TargetTown   social.TownID  `json:"target_town"`   // 0 when it has no destination
	PreviousTown social.TownID  `json:"previous_town"` // Last town it traded in

	Route    []world.Coord `json:"route,omitempty"` // Remaining steps, next first
	progress float64

	Goods  economy.Inventory `json:"-"`
	paid   []int             // Average purchase price of held units, per good
	Memory *PriceMemory      `json:"-"`
}

// NewCaravan creates an empty caravan at pos.
func NewCaravan(id, name string, pos world.Coord, money int, goods *economy.Catalog) *Caravan {
	return &Caravan{
		ID:       id,
		Name:     name,
		Position: pos,
		Money:    money,
		Capacity: DefaultCapacity,
		Speed:    DefaultSpeed,
		Goods:    goods.NewInventory(),
		paid:     make([]int, goods.Len()),
		Memory:   NewPriceMemory(DefaultMemory),
	}
}

var _ social.Trader = (*Caravan)(nil)

func (c *Caravan) Balance() int              { return c.Money }
func (c *Caravan) Pay(amount int)            { c.Money -= amount }
func (c *Caravan) Receive(amount int)        { c.Money += amount }
func (c *Caravan) Cargo() *economy.Inventory { return &c.Goods }

// CargoSpace returns how many more units fit in the caravan.
func (c *Caravan) CargoSpace() int {
	return max(c.Capacity-c.Goods.Total(), 0)
}

// BuyFrom buys one unit of g from t and records what it cost.
func (c *Caravan) BuyFrom(t *social.Town, g economy.GoodID) bool {
	price := t.Prices.BuyPrice(g)
	held := c.Goods.Get(g)
	if !t.Buy(c, g) {
		return false
	}
	c.paid[g] = (c.paid[g]*held + price) / (held + 1)
	return true
}

// SellTo sells one unit of g to t.
func (c *Caravan) SellTo(t *social.Town, g economy.GoodID) bool {
	if !t.Sell(c, g) {
		return false
	}
	if c.Goods.Get(g) == 0 {
		c.paid[g] = 0
	}
	return true
}

// PaidPrice returns the average price paid for the held units of g.
func (c *Caravan) PaidPrice(g economy.GoodID) int {
	return c.paid[g]
}

// SetPaidPrice overwrites the recorded purchase price of g.
func (c *Caravan) SetPaidPrice(g economy.GoodID, price int) {
	c.paid[g] = price
}

// Traveling reports whether the caravan has steps left on its route.
func (c *Caravan) Traveling() bool {
	return len(c.Route) > 0
}

// SetRoute replaces the route. The caravan starts from rest.
func (c *Caravan) SetRoute(route []world.Coord) {
	c.Route = route
	c.progress = 0
}

// Advance moves the caravan along its route for one tick, at its speed
// scaled by the tile it is on. It returns true when the caravan reaches the
// end of its route.
func (c *Caravan) Advance(t Terrain) bool {
	if len(c.Route) == 0 {
		return false
	}
	c.progress += c.Speed * t.MovementSpeedMultiplier(c.Position.X(), c.Position.Y())
	for c.progress >= 1 && len(c.Route) > 0 {
		c.progress--
		c.Position = c.Route[0]
		c.Route = c.Route[1:]
	}
	if len(c.Route) == 0 {
		c.Route = nil
		c.progress = 0
		return true
	}
	return false
}

func (c *Caravan) String() string {
	return fmt.Sprintf("Caravan(%s %s at %v, money=%d, cargo=%d/%d, %s)",
		c.ID, c.Name, c.Position, c.Money, c.Goods.Total(), c.Capacity, c.Activity)
}
