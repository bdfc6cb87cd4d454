package economy

// Basket accumulates fractional per-good quantities, such as the inputs a
// recipe needs for one day of work.
type Basket struct {
	amount []float64
}

// NewBasket returns an empty basket for a catalog of n goods.
func NewBasket(n int) Basket {
	return Basket{amount: make([]float64, n)}
}

// Add increases the quantity of g by n.
func (b *Basket) Add(g GoodID, n float64) {
	b.amount[g] += n
}

// Get returns the quantity of g.
func (b *Basket) Get(g GoodID) float64 {
	return b.amount[g]
}

// Len returns the number of goods tracked.
func (b *Basket) Len() int {
	return len(b.amount)
}

// AddScaled adds every quantity of other multiplied by scale.
func (b *Basket) AddScaled(other *Basket, scale float64) {
	for i, v := range other.amount {
		b.amount[i] += v * scale
	}
}

// Reset zeroes every quantity.
func (b *Basket) Reset() {
	clear(b.amount)
}

// Empty reports whether every quantity is zero.
func (b *Basket) Empty() bool {
	for _, v := range b.amount {
		if v != 0 {
			return false
		}
	}
	return true
}
