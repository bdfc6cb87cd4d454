package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/caravans/internal/agents"
	"github.com/talgya/caravans/internal/economy"
	"github.com/talgya/caravans/internal/social"
)

// Intervention errors.
var (
	ErrUnknownTown    = errors.New("unknown town")
	ErrUnknownGood    = errors.New("unknown good")
	ErrUnknownCaravan = errors.New("unknown caravan")
	ErrNotInTown      = errors.New("caravan is not in a town")
	ErrBadQuantity    = errors.New("quantity must be positive")
)

// TradeAction is the direction of an ordered trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"  // The caravan buys from the town
	ActionSell TradeAction = "sell" // The caravan sells to the town
)

// TradeResult reports an ordered trade.
type TradeResult struct {
	Caravan  string `json:"caravan"`
	Town     string `json:"town"`
	Good     string `json:"good"`
	Action   string `json:"action"`
	Traded   int    `json:"traded"` // Units that changed hands, at most the quantity ordered
	Money    int    `json:"money"`  // Caravan money afterwards
	Cargo    int    `json:"cargo"`  // Units of the good held afterwards
	Price    int    `json:"price"`  // Town price for the next unit in the same direction
	Complete bool   `json:"complete"`
}

func (s *Simulation) lookupGood(key string) (economy.GoodID, error) {
	g, ok := s.Goods.Lookup(key)
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownGood, key)
	}
	return g, nil
}

func (s *Simulation) lookupTown(id social.TownID) (*social.Town, error) {
	t, ok := s.TownIndex[id]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrUnknownTown, id)
	}
	return t, nil
}

// FindCaravan returns the caravan with the given ID. The caller must hold
// the lock.
func (s *Simulation) FindCaravan(id string) *agents.Caravan {
	for _, c := range s.Caravans {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// OrderTrade makes a caravan buy or sell up to quantity units of a good in
// the town it stands in, one unit at a time through the town's trade
// commands. It stops at the first refused unit.
func (s *Simulation) OrderTrade(caravanID, goodKey string, action TradeAction, quantity int) (TradeResult, error) {
	s.Lock()
	defer s.Unlock()

	if quantity <= 0 {
		return TradeResult{}, ErrBadQuantity
	}
	c := s.FindCaravan(caravanID)
	if c == nil {
		return TradeResult{}, fmt.Errorf("%w %q", ErrUnknownCaravan, caravanID)
	}
	g, err := s.lookupGood(goodKey)
	if err != nil {
		return TradeResult{}, err
	}
	town := s.TownAt(c.Position)
	if town == nil || c.Traveling() {
		return TradeResult{}, ErrNotInTown
	}

	var step func() bool
	var price func() int
	switch action {
	case ActionBuy:
		step = func() bool { return c.BuyFrom(town, g) }
		price = func() int { return town.Prices.BuyPrice(g) }
	case ActionSell:
		step = func() bool { return c.SellTo(town, g) }
		price = func() int { return min(town.Prices.SellPrice(g), town.Money) }
	default:
		return TradeResult{}, fmt.Errorf("unknown action %q", action)
	}

	traded := 0
	for traded < quantity && step() {
		traded++
	}
	s.Stats.TradedUnits += traded
	if traded > 0 {
		s.addEvent(s.LastTick, "trade", fmt.Sprintf("%s is ordered to %s %d %s in %s",
			c.Name, action, traded, s.Goods.Good(g).Name, town.Name))
	}
	slog.Info("ordered trade", "caravan", c.Name, "town", town.Name, "good", goodKey,
		"action", action, "ordered", quantity, "traded", traded)

	return TradeResult{
		Caravan:  c.ID,
		Town:     town.Name,
		Good:     goodKey,
		Action:   string(action),
		Traded:   traded,
		Money:    c.Money,
		Cargo:    c.Goods.Get(g),
		Price:    price(),
		Complete: traded == quantity,
	}, nil
}

// ProvisionTown adds quantity units of supply to a town's market, as if
// traders had sold them there, lowering the price.
func (s *Simulation) ProvisionTown(id social.TownID, goodKey string, quantity int) (string, error) {
	return s.shock(id, goodKey, quantity, true)
}

// RequisitionTown adds quantity units of demand to a town's market, raising
// the price.
func (s *Simulation) RequisitionTown(id social.TownID, goodKey string, quantity int) (string, error) {
	return s.shock(id, goodKey, quantity, false)
}

func (s *Simulation) shock(id social.TownID, goodKey string, quantity int, supply bool) (string, error) {
	s.Lock()
	defer s.Unlock()

	if quantity <= 0 {
		return "", ErrBadQuantity
	}
	t, err := s.lookupTown(id)
	if err != nil {
		return "", err
	}
	g, err := s.lookupGood(goodKey)
	if err != nil {
		return "", err
	}

	var desc string
	if supply {
		t.Prices.SellUnits(g, quantity)
		desc = fmt.Sprintf("%d %s flood the market of %s", quantity, s.Goods.Good(g).Name, t.Name)
	} else {
		t.Prices.BuyUnits(g, quantity)
		desc = fmt.Sprintf("%s sends for %d %s", t.Name, quantity, s.Goods.Good(g).Name)
	}
	s.addEvent(s.LastTick, "intervention", desc)
	slog.Info("market intervention", "town", t.Name, "good", goodKey, "quantity", quantity, "supply", supply)
	return desc, nil
}

// GrantMoney adds amount to a town's money. A negative amount takes money
// away, down to zero.
func (s *Simulation) GrantMoney(id social.TownID, amount int) (string, error) {
	s.Lock()
	defer s.Unlock()

	t, err := s.lookupTown(id)
	if err != nil {
		return "", err
	}
	t.Money = max(t.Money+amount, 0)
	desc := fmt.Sprintf("The treasury of %s changes by %d to %d", t.Name, amount, t.Money)
	s.addEvent(s.LastTick, "intervention", desc)
	slog.Info("money intervention", "town", t.Name, "amount", amount, "money", t.Money)
	return desc, nil
}

// SpawnCaravan creates a new caravan in a town.
func (s *Simulation) SpawnCaravan(id social.TownID) (*agents.Caravan, error) {
	s.Lock()
	defer s.Unlock()

	t, err := s.lookupTown(id)
	if err != nil {
		return nil, err
	}
	c := s.Spawner.Spawn(t.Position)
	s.Caravans = append(s.Caravans, c)
	s.addEvent(s.LastTick, "intervention", fmt.Sprintf("%s sets out from %s", c.Name, t.Name))
	slog.Info("caravan spawned", "caravan", c.Name, "town", t.Name)
	return c, nil
}
