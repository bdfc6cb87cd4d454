package social

import "github.com/talgya/caravans/internal/economy"

// Trader is anything that buys from and sells to towns.
type Trader interface {
	Balance() int
	Pay(amount int)
	Receive(amount int)
	Cargo() *economy.Inventory
	// CargoSpace returns how many more units the trader can carry.
	CargoSpace() int
}

// Buy sells one unit of g to tr at the town's buy price. It fails when the
// good is not tradeable, tr cannot afford it, or tr has no room for it.
func (t *Town) Buy(tr Trader, g economy.GoodID) bool {
	if !t.goods.Good(g).Tradeable {
		return false
	}
	price := t.Prices.BuyPrice(g)
	if tr.Balance() < price {
		return false
	}
	cargo := tr.Cargo()
	if tr.CargoSpace() <= 0 || cargo.Get(g) >= economy.MaxQuantity {
		return false
	}

	tr.Pay(price)
	t.Money += price
	cargo.Add(g, 1)
	t.Prices.BuyUnit(g)
	t.TradeBuyCount++
	return true
}

// Sell buys one unit of g from tr. The town pays its sell price, or all it
// has when that is less. It fails when the good is not tradeable or tr
// holds none of it.
func (t *Town) Sell(tr Trader, g economy.GoodID) bool {
	if !t.goods.Good(g).Tradeable {
		return false
	}
	if !tr.Cargo().Remove(g, 1) {
		return false
	}

	price := max(min(t.Prices.SellPrice(g), t.Money), 0)
	tr.Receive(price)
	t.Money -= price
	t.Prices.SellUnit(g)
	t.TradeSellCount++
	return true
}
