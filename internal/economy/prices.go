package economy

import (
	"fmt"
	"math"
)

// Price bounds and shape.
const (
	PriceScale     = 10.0 // Base price at equilibrium
	PriceGrowth    = 1.02 // Per-unit of excess demand
	MinBasePrice   = 0.1
	MaxBasePrice   = 500.0
	MaxCounter     = math.MaxUint16
	decayDivisor   = 3
	spreadBase     = 0.5
	spreadDampener = 0.2
)

// Ledger tracks supply and demand counters for each good at one town.
// Prices are derived from the counters on every query.
type Ledger struct {
	supply []uint16
	demand []uint16
}

// NewLedger returns a ledger with zeroed counters for n goods.
func NewLedger(n int) *Ledger {
	return &Ledger{
		supply: make([]uint16, n),
		demand: make([]uint16, n),
	}
}

// Len returns the number of goods tracked.
func (l *Ledger) Len() int {
	return len(l.supply)
}

// Supply returns the supply counter of g.
func (l *Ledger) Supply(g GoodID) int {
	return int(l.supply[g])
}

// Demand returns the demand counter of g.
func (l *Ledger) Demand(g GoodID) int {
	return int(l.demand[g])
}

// BasePrice returns the midpoint price of g.
func (l *Ledger) BasePrice(g GoodID) float64 {
	excess := float64(l.demand[g]) - float64(l.supply[g])
	return clamp(PriceScale*math.Pow(PriceGrowth, excess), MinBasePrice, MaxBasePrice)
}

// variability is the relative bid/ask spread. It narrows as volume grows.
func (l *Ledger) variability(g GoodID) float64 {
	volume := float64(l.demand[g]) + float64(l.supply[g])
	return spreadBase / (spreadDampener*volume + 1)
}

// BuyPrice is what a buyer pays the town for one unit of g.
func (l *Ledger) BuyPrice(g GoodID) int {
	return int(math.Ceil(l.BasePrice(g) * (1 + l.variability(g))))
}

// SellPrice is what a seller receives from the town for one unit of g.
func (l *Ledger) SellPrice(g GoodID) int {
	return int(math.Floor(l.BasePrice(g) * (1 - l.variability(g))))
}

// BuyUnit records one unit of demand for g.
func (l *Ledger) BuyUnit(g GoodID) {
	l.BuyUnits(g, 1)
}

// SellUnit records one unit of supply for g.
func (l *Ledger) SellUnit(g GoodID) {
	l.SellUnits(g, 1)
}

// BuyUnits records n units of demand for g, saturating at MaxCounter.
func (l *Ledger) BuyUnits(g GoodID, n int) {
	if n <= 0 {
		return
	}
	l.demand[g] = saturatingAdd(l.demand[g], n)
}

// SellUnits records n units of supply for g, saturating at MaxCounter.
func (l *Ledger) SellUnits(g GoodID, n int) {
	if n <= 0 {
		return
	}
	l.supply[g] = saturatingAdd(l.supply[g], n)
}

func saturatingAdd(c uint16, n int) uint16 {
	return uint16(min(int(c)+n, MaxCounter))
}

// Decay lets the market forget matched volume: min(supply, demand)/3 is
// removed from both counters of every good, preserving their difference.
func (l *Ledger) Decay() {
	for i := range l.supply {
		d := min(l.supply[i], l.demand[i]) / decayDivisor
		l.supply[i] -= d
		l.demand[i] -= d
	}
}

// SetCounters sets the supply and demand counters of g, clamped to
// [0, MaxCounter].
func (l *Ledger) SetCounters(g GoodID, supply, demand int) {
	l.supply[g] = uint16(clamp(supply, 0, MaxCounter))
	l.demand[g] = uint16(clamp(demand, 0, MaxCounter))
}

// Initialize sets both counters of every good to the given values.
func (l *Ledger) Initialize(supply, demand int) {
	s := uint16(clamp(supply, 0, MaxCounter))
	d := uint16(clamp(demand, 0, MaxCounter))
	for i := range l.supply {
		l.supply[i] = s
		l.demand[i] = d
	}
}

// Clear zeroes every counter.
func (l *Ledger) Clear() {
	clear(l.supply)
	clear(l.demand)
}

// Add accumulates the counters of other into l.
func (l *Ledger) Add(other *Ledger) {
	for i := range l.supply {
		l.supply[i] = saturatingAdd(l.supply[i], int(other.supply[i]))
		l.demand[i] = saturatingAdd(l.demand[i], int(other.demand[i]))
	}
}

// CopyFrom replaces all counters with those of other.
func (l *Ledger) CopyFrom(other *Ledger) {
	copy(l.supply, other.supply)
	copy(l.demand, other.demand)
}

// Encode serializes the supply and demand arrays, each with a version header.
func (l *Ledger) Encode(c *Codec) []byte {
	buf := c.Append(nil, l.supply)
	return c.Append(buf, l.demand)
}

// Decode restores the ledger from data produced by Encode. On error the
// ledger is left unchanged.
func (l *Ledger) Decode(c *Codec, data []byte) error {
	supply := make([]uint16, len(l.supply))
	demand := make([]uint16, len(l.demand))

	r := c.NewReader(data)
	if err := r.Read(supply); err != nil {
		return fmt.Errorf("supply: %w", err)
	}
	if err := r.Read(demand); err != nil {
		return fmt.Errorf("demand: %w", err)
	}
	if err := r.Done(); err != nil {
		return err
	}
	copy(l.supply, supply)
	copy(l.demand, demand)
	return nil
}
