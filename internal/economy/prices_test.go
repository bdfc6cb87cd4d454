package economy

import (
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestLedger_Prices(t *testing.T) {
	tests := map[string]struct {
		supply  int
		demand  int
		expBuy  int
		expSell int
	}{
		"empty market": {
			expBuy:  15,
			expSell: 5,
		},
		"one unit of demand": {
			demand:  1,
			expBuy:  15,
			expSell: 5,
		},
		"balanced high volume": {
			supply:  100,
			demand:  100,
			expBuy:  11,
			expSell: 9,
		},
		"flooded market": {
			supply:  1000,
			expBuy:  1,
			expSell: 0,
		},
		"starved market": {
			demand:  1000,
			expBuy:  502,
			expSell: 498,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			l := NewLedger(1)
			l.SellUnits(0, tt.supply)
			l.BuyUnits(0, tt.demand)

			testutil.AssertEqual(t, "buy price", l.BuyPrice(0), tt.expBuy)
			testutil.AssertEqual(t, "sell price", l.SellPrice(0), tt.expSell)
		})
	}
}

func TestLedger_PriceBounds(t *testing.T) {
	l := NewLedger(1)
	for s := 0; s <= 2000; s += 37 {
		for d := 0; d <= 2000; d += 41 {
			l.Clear()
			l.SellUnits(0, s)
			l.BuyUnits(0, d)

			base := l.BasePrice(0)
			if base < MinBasePrice || base > MaxBasePrice {
				t.Fatalf("supply %d demand %d: base price %f out of bounds", s, d, base)
			}
			if l.BuyPrice(0) < l.SellPrice(0) {
				t.Fatalf("supply %d demand %d: buy %d below sell %d", s, d, l.BuyPrice(0), l.SellPrice(0))
			}
		}
	}
}

func TestLedger_PriceMonotonic(t *testing.T) {
	l := NewLedger(1)
	last := l.BasePrice(0)
	for i := 0; i < 50; i++ {
		l.BuyUnit(0)
		p := l.BasePrice(0)
		if p < last {
			t.Fatalf("base price fell after demand %d: %f < %f", i+1, p, last)
		}
		last = p
	}

	l.Clear()
	last = l.BasePrice(0)
	for i := 0; i < 50; i++ {
		l.SellUnit(0)
		p := l.BasePrice(0)
		if p > last {
			t.Fatalf("base price rose after supply %d: %f > %f", i+1, p, last)
		}
		last = p
	}
}

func TestLedger_Saturation(t *testing.T) {
	l := NewLedger(1)
	l.BuyUnits(0, MaxCounter-1)
	l.BuyUnit(0)
	l.BuyUnit(0)
	l.BuyUnits(0, 10)

	testutil.AssertEqual(t, "demand", l.Demand(0), MaxCounter)

	l.SellUnits(0, 70000)
	testutil.AssertEqual(t, "supply", l.Supply(0), MaxCounter)
}

func TestLedger_Decay(t *testing.T) {
	tests := map[string]struct {
		supply    int
		demand    int
		expSupply int
		expDemand int
	}{
		"matched volume": {
			supply:    9,
			demand:    9,
			expSupply: 6,
			expDemand: 6,
		},
		"small volume is kept": {
			supply:    2,
			demand:    5,
			expSupply: 2,
			expDemand: 5,
		},
		"difference preserved": {
			supply:    30,
			demand:    100,
			expSupply: 20,
			expDemand: 90,
		},
		"one sided": {
			demand:    40,
			expDemand: 40,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			l := NewLedger(1)
			l.SellUnits(0, tt.supply)
			l.BuyUnits(0, tt.demand)
			l.Decay()

			testutil.AssertEqual(t, "supply", l.Supply(0), tt.expSupply)
			testutil.AssertEqual(t, "demand", l.Demand(0), tt.expDemand)
		})
	}
}

func TestLedger_DecayConverges(t *testing.T) {
	l := NewLedger(1)
	l.SellUnits(0, 500)
	l.BuyUnits(0, 520)
	for i := 0; i < 100; i++ {
		l.Decay()
	}
	testutil.AssertEqual(t, "difference", l.Demand(0)-l.Supply(0), 20)
	if l.Supply(0) > 2 {
		t.Errorf("supply did not converge: %d", l.Supply(0))
	}
}

func TestLedger_Add(t *testing.T) {
	a := NewLedger(2)
	b := NewLedger(2)
	a.Initialize(3, 4)
	b.SellUnits(1, 10)
	b.BuyUnits(0, 7)

	a.Add(b)

	testutil.AssertEqual(t, "supply 0", a.Supply(0), 3)
	testutil.AssertEqual(t, "demand 0", a.Demand(0), 11)
	testutil.AssertEqual(t, "supply 1", a.Supply(1), 13)
	testutil.AssertEqual(t, "demand 1", a.Demand(1), 4)
}

func TestLedger_SetCounters(t *testing.T) {
	l := NewLedger(2)
	l.Initialize(5, 5)

	l.SetCounters(1, -4, MaxCounter+10)

	testutil.AssertEqual(t, "supply", l.Supply(1), 0)
	testutil.AssertEqual(t, "demand", l.Demand(1), MaxCounter)
	testutil.AssertEqual(t, "other good", l.Supply(0), 5)
}
