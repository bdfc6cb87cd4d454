package economy

import (
	"math"
	"testing"

	"github.com/pixil98/go-testutil"
)

type floorRounder struct{}

func (floorRounder) Round(v float64) int { return int(math.Floor(v)) }

func TestInventory_AddAndRemove(t *testing.T) {
	tests := map[string]struct {
		start     int
		add       int
		remove    int
		expRemove bool
		expAmount int
	}{
		"simple": {
			start:     5,
			add:       3,
			remove:    2,
			expRemove: true,
			expAmount: 6,
		},
		"remove too many": {
			start:     1,
			remove:    2,
			expRemove: false,
			expAmount: 1,
		},
		"remove everything": {
			start:     4,
			remove:    4,
			expRemove: true,
			expAmount: 0,
		},
		"saturates at max": {
			start:     MaxQuantity - 1,
			add:       10,
			expRemove: true,
			expAmount: MaxQuantity,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			inv := NewInventory(3)
			inv.Set(1, tt.start)
			inv.Add(1, tt.add)

			testutil.AssertEqual(t, "remove", inv.Remove(1, tt.remove), tt.expRemove)
			testutil.AssertEqual(t, "amount", inv.Get(1), tt.expAmount)
			testutil.AssertEqual(t, "other goods", inv.Get(0)+inv.Get(2), 0)
		})
	}
}

func TestInventory_AddBasket(t *testing.T) {
	b := NewBasket(3)
	b.Add(0, 1.5)
	b.Add(2, 0.4)

	inv := NewInventory(3)
	inv.AddBasket(&b, 2, floorRounder{})

	testutil.AssertEqual(t, "good 0", inv.Get(0), 3)
	testutil.AssertEqual(t, "good 1", inv.Get(1), 0)
	testutil.AssertEqual(t, "good 2", inv.Get(2), 0)
	testutil.AssertEqual(t, "total", inv.Total(), 3)
}

func TestInventory_CopyAndClear(t *testing.T) {
	a := NewInventory(2)
	a.Set(0, 4)
	a.Set(1, 9)

	b := NewInventory(2)
	b.CopyFrom(&a)
	a.Clear()

	testutil.AssertEqual(t, "copied total", b.Total(), 13)
	testutil.AssertEqual(t, "cleared total", a.Total(), 0)
}

func TestBasket(t *testing.T) {
	b := NewBasket(2)
	testutil.AssertEqual(t, "empty", b.Empty(), true)

	o := NewBasket(2)
	o.Add(1, 0.25)
	b.AddScaled(&o, 4)
	testutil.AssertEqual(t, "scaled", b.Get(1), 1.0)
	testutil.AssertEqual(t, "not empty", b.Empty(), false)

	b.Reset()
	testutil.AssertEqual(t, "reset", b.Empty(), true)
}

func TestNewCatalog(t *testing.T) {
	tests := map[string]struct {
		spec   CatalogSpec
		expErr string
	}{
		"no goods": {
			expErr: "no goods",
		},
		"duplicate key": {
			spec: CatalogSpec{Goods: []GoodDef{
				{Key: "grain"},
				{Key: "grain"},
			}},
			expErr: "duplicate key",
		},
		"history mismatch": {
			spec: CatalogSpec{
				Goods:   []GoodDef{{Key: "grain"}, {Key: "salt"}},
				History: [][]string{{"salt", "grain"}},
			},
			expErr: "position 0",
		},
		"unknown need good": {
			spec: CatalogSpec{
				Goods: []GoodDef{{Key: "grain"}},
				Food:  []string{"bread"},
			},
			expErr: "unknown good",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewCatalog(tt.spec)
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	water, ok := c.Lookup("water_fresh")
	testutil.AssertEqual(t, "water found", ok, true)
	testutil.AssertEqual(t, "water tradeable", c.Good(water).Tradeable, false)

	for i, g := range c.Goods() {
		testutil.AssertEqual(t, "dense id", int(g.ID), i)
	}
	testutil.AssertEqual(t, "fresh water group", len(c.FreshWater), 1)
	if len(c.Food) == 0 || len(c.LuxuryGoods) == 0 || len(c.CommonGoods) == 0 {
		t.Error("expected every need group to be populated")
	}
}
