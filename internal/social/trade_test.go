package social

import (
	"testing"

	"github.com/pixil98/go-testutil"

	"github.com/talgya/caravans/internal/economy"
	"github.com/talgya/caravans/internal/production"
	"github.com/talgya/caravans/internal/world"
)

type mockTrader struct {
	money    int
	cargo    economy.Inventory
	capacity int
}

func (m *mockTrader) Balance() int              { return m.money }
func (m *mockTrader) Pay(n int)                 { m.money -= n }
func (m *mockTrader) Receive(n int)             { m.money += n }
func (m *mockTrader) Cargo() *economy.Inventory { return &m.cargo }
func (m *mockTrader) CargoSpace() int           { return m.capacity - m.cargo.Total() }

func newTestTown(t *testing.T) (*Town, *economy.Catalog) {
	t.Helper()
	goods := economy.DefaultCatalog()
	town := NewTown(1, "Testford", world.MakeCoord(3, 4), goods)
	town.Population = 50
	town.Money = 100
	return town, goods
}

func key(t *testing.T, goods *economy.Catalog, k string) economy.GoodID {
	t.Helper()
	id, ok := goods.Lookup(k)
	if !ok {
		t.Fatalf("good %q not found", k)
	}
	return id
}

func TestTown_Buy(t *testing.T) {
	tests := map[string]struct {
		good      string
		money     int
		capacity  int
		expOK     bool
		expMoney  int
		expTown   int
		expCargo  int
		expDemand int
	}{
		"success": {
			good:      "grain",
			money:     20,
			capacity:  10,
			expOK:     true,
			expMoney:  5,
			expTown:   115,
			expCargo:  1,
			expDemand: 1,
		},
		"cannot afford": {
			good:     "grain",
			money:    14,
			capacity: 10,
			expMoney: 14,
			expTown:  100,
		},
		"cargo full": {
			good:     "grain",
			money:    20,
			capacity: 0,
			expMoney: 20,
			expTown:  100,
		},
		"not tradeable": {
			good:     "water_fresh",
			money:    20,
			capacity: 10,
			expMoney: 20,
			expTown:  100,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			town, goods := newTestTown(t)
			g := key(t, goods, tt.good)
			tr := &mockTrader{money: tt.money, cargo: goods.NewInventory(), capacity: tt.capacity}

			testutil.AssertEqual(t, "ok", town.Buy(tr, g), tt.expOK)
			testutil.AssertEqual(t, "trader money", tr.money, tt.expMoney)
			testutil.AssertEqual(t, "town money", town.Money, tt.expTown)
			testutil.AssertEqual(t, "cargo", tr.cargo.Get(g), tt.expCargo)
			testutil.AssertEqual(t, "demand", town.Prices.Demand(g), tt.expDemand)
			testutil.AssertEqual(t, "buy count", town.TradeBuyCount, tt.expCargo)
		})
	}
}

func TestTown_Sell(t *testing.T) {
	tests := map[string]struct {
		good      string
		held      int
		townMoney int
		expOK     bool
		expMoney  int
		expTown   int
		expSupply int
	}{
		"success": {
			good:      "cloth",
			held:      2,
			townMoney: 100,
			expOK:     true,
			expMoney:  5,
			expTown:   95,
			expSupply: 1,
		},
		"town short of money": {
			good:      "cloth",
			held:      1,
			townMoney: 3,
			expOK:     true,
			expMoney:  3,
			expTown:   0,
			expSupply: 1,
		},
		"nothing held": {
			good:      "cloth",
			townMoney: 100,
			expTown:   100,
		},
		"not tradeable": {
			good:      "water_fresh",
			held:      1,
			townMoney: 100,
			expTown:   100,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			town, goods := newTestTown(t)
			town.Money = tt.townMoney
			g := key(t, goods, tt.good)
			tr := &mockTrader{cargo: goods.NewInventory(), capacity: 10}
			tr.cargo.Set(g, tt.held)

			testutil.AssertEqual(t, "ok", town.Sell(tr, g), tt.expOK)
			testutil.AssertEqual(t, "trader money", tr.money, tt.expMoney)
			testutil.AssertEqual(t, "town money", town.Money, tt.expTown)
			testutil.AssertEqual(t, "supply", town.Prices.Supply(g), tt.expSupply)
			if tt.expOK {
				testutil.AssertEqual(t, "cargo", tr.cargo.Get(g), tt.held-1)
				testutil.AssertEqual(t, "sell count", town.TradeSellCount, 1)
			} else {
				testutil.AssertEqual(t, "cargo", tr.cargo.Get(g), tt.held)
			}
		})
	}
}

func TestTown_PricesMoveWithTrade(t *testing.T) {
	town, goods := newTestTown(t)
	g := key(t, goods, "tools")
	tr := &mockTrader{money: 1000, cargo: goods.NewInventory(), capacity: 100}

	before := town.Prices.BuyPrice(g)
	for i := 0; i < 20; i++ {
		town.Buy(tr, g)
	}
	if town.Prices.BuyPrice(g) <= before {
		t.Errorf("buy price did not rise: %d -> %d", before, town.Prices.BuyPrice(g))
	}
}

func TestTown_Workforce(t *testing.T) {
	town, _ := newTestTown(t)
	town.Workforce[production.RecipeID(3)] = 12
	town.Workforce[production.RecipeID(1)] = 8

	testutil.AssertEqual(t, "employed", town.Employed(), 20)
	testutil.AssertEqual(t, "unemployed", town.Unemployed(), 30)

	a := town.Assignments()
	testutil.AssertEqual(t, "assignments", len(a), 2)
	testutil.AssertEqual(t, "first recipe", a[0].Recipe, production.RecipeID(1))

	town.Population = 5
	testutil.AssertEqual(t, "never negative", town.Unemployed(), 0)
}
