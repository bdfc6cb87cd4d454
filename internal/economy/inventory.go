package economy

import "math"

// MaxQuantity is the largest amount of a single good an inventory holds.
const MaxQuantity = math.MaxInt16

// Rounder converts fractional quantities to whole units.
type Rounder interface {
	Round(v float64) int
}

// Inventory is a dense per-good quantity ledger owned by one town or caravan.
// Quantities are clamped to [0, MaxQuantity].
type Inventory struct {
	amount []uint16
}

// NewInventory returns an empty inventory for a catalog of n goods.
func NewInventory(n int) Inventory {
	return Inventory{amount: make([]uint16, n)}
}

// Len returns the number of goods tracked.
func (inv *Inventory) Len() int {
	return len(inv.amount)
}

// Get returns the quantity held of g.
func (inv *Inventory) Get(g GoodID) int {
	return int(inv.amount[g])
}

// Set overwrites the quantity of g, clamped to the valid range.
func (inv *Inventory) Set(g GoodID, n int) {
	assert(n >= 0, "inventory: set %d to negative amount %d", g, n)
	inv.amount[g] = uint16(clamp(n, 0, MaxQuantity))
}

// Add changes the quantity of g by n (which may be negative), clamping the result.
func (inv *Inventory) Add(g GoodID, n int) {
	a := int(inv.amount[g]) + n
	assert(a >= 0, "inventory: good %d would go negative (%d)", g, a)
	inv.amount[g] = uint16(clamp(a, 0, MaxQuantity))
}

// AddFraction adds a fractional quantity using r to pick whole units.
func (inv *Inventory) AddFraction(g GoodID, v float64, r Rounder) {
	inv.Add(g, r.Round(v))
}

// AddBasket adds every quantity of b scaled by scale, rounding each with r.
func (inv *Inventory) AddBasket(b *Basket, scale float64, r Rounder) {
	for i, v := range b.amount {
		if v == 0 {
			continue
		}
		inv.Add(GoodID(i), r.Round(v*scale))
	}
}

// Remove takes n units of g. It fails, leaving the inventory untouched,
// when fewer than n units are held.
func (inv *Inventory) Remove(g GoodID, n int) bool {
	assert(n >= 0, "inventory: remove negative amount %d", n)
	have := int(inv.amount[g])
	if have < n {
		return false
	}
	inv.amount[g] = uint16(have - n)
	return true
}

// CopyFrom replaces all quantities with those of other.
func (inv *Inventory) CopyFrom(other *Inventory) {
	copy(inv.amount, other.amount)
}

// Clear empties the inventory.
func (inv *Inventory) Clear() {
	clear(inv.amount)
}

// Total returns the number of units held across all goods.
func (inv *Inventory) Total() int {
	total := 0
	for _, a := range inv.amount {
		total += int(a)
	}
	return total
}

// Counters returns a copy of the raw counters in catalog order.
func (inv *Inventory) Counters() []uint16 {
	out := make([]uint16, len(inv.amount))
	copy(out, inv.amount)
	return out
}

// Encode serializes the inventory with a catalog version header.
func (inv *Inventory) Encode(c *Codec) []byte {
	return c.Append(nil, inv.amount)
}

// Decode restores the inventory from data produced by Encode, possibly by an
// older catalog version.
func (inv *Inventory) Decode(c *Codec, data []byte) error {
	amount := make([]uint16, len(inv.amount))
	r := c.NewReader(data)
	if err := r.Read(amount); err != nil {
		return err
	}
	if err := r.Done(); err != nil {
		return err
	}
	for i, a := range amount {
		inv.amount[i] = min(a, MaxQuantity)
	}
	return nil
}
