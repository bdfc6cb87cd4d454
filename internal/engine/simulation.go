// Simulation ties together the towns, caravans and the world map and runs
// them each tick.
package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/caravans/internal/agents"
	"github.com/talgya/caravans/internal/economy"
	"github.com/talgya/caravans/internal/entropy"
	"github.com/talgya/caravans/internal/pathfind"
	"github.com/talgya/caravans/internal/production"
	"github.com/talgya/caravans/internal/social"
	"github.com/talgya/caravans/internal/world"
)

// Config holds the simulation parameters.
type Config struct {
	Seed          int64
	Towns         int
	Caravans      int
	WarmupDays    int // Economy days simulated before the start, so prices settle
	MinPopulation int
	MaxPopulation int
	PathTimeLimit time.Duration // Route planning budget per caravan decision
	MemoryDays    uint64        // Economy days a caravan trusts remembered prices
}

// DefaultConfig returns the standard simulation parameters.
func DefaultConfig() Config {
	return Config{
		Seed:          1,
		Towns:         24,
		Caravans:      16,
		WarmupDays:    50,
		MinPopulation: social.DefaultMinPopulation,
		MaxPopulation: social.DefaultMaxPopulation,
		PathTimeLimit: 50 * time.Millisecond,
		MemoryDays:    7,
	}
}

// Event log bounds. The in-memory log keeps the newest MaxEvents; events
// not yet persisted are held separately, up to maxUnsavedEvents.
const (
	MaxEvents        = 1000
	maxUnsavedEvents = 50 * MaxEvents
)

// Simulation holds the complete world state and wires systems together.
// Callers outside the tick callbacks must hold the lock while reading it.
type Simulation struct {
	sync.Mutex

	Map       *world.Map
	Goods     *economy.Catalog
	Economy   *Economy
	Finder    *pathfind.Finder
	Towns     []*social.Town
	TownIndex map[social.TownID]*social.Town
	Caravans  []*agents.Caravan
	Spawner   *agents.Spawner

	// Neighbors lists, per town, the towns close enough to trade with,
	// nearest first.
	Neighbors map[social.TownID][]social.TownID

	LastTick   uint64  // Most recent tick processed
	EconomyDay uint64  // Economy days simulated since the start
	Events     []Event // Newest last, at most MaxEvents
	EventSeq   uint64  // Sequence number of the latest event
	Stats      SimStats

	unsaved []Event

	cfg Config
	rng *entropy.Source
}

// Event is a notable occurrence in the world.
type Event struct {
	Seq         uint64 `json:"seq"` // Unique, increasing across restarts
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "population", "trade", "intervention"
}

// SimStats tracks aggregate world statistics.
type SimStats struct {
	TotalPopulation int     `json:"total_population"`
	Employed        int     `json:"employed"`
	TownMoney       int     `json:"town_money"`
	CaravanMoney    int     `json:"caravan_money"`
	AvgWealth       float64 `json:"avg_wealth"`
	Produced        int     `json:"produced"`     // Units since the last report
	Consumed        int     `json:"consumed"`     // Units since the last report
	TradedUnits     int     `json:"traded_units"` // Caravan purchases and sales since the last report
	Traveling       int     `json:"traveling"`
}

// NewSimulation creates a Simulation from existing towns and caravans.
func NewSimulation(m *world.Map, recipes *production.Catalog, cfg Config, towns []*social.Town, caravans []*agents.Caravan) *Simulation {
	rng := entropy.New(cfg.Seed + 500)
	econ := NewEconomy(recipes, rng)
	econ.MinPopulation = cfg.MinPopulation
	econ.MaxPopulation = cfg.MaxPopulation

	index := make(map[social.TownID]*social.Town, len(towns))
	for _, t := range towns {
		index[t.ID] = t
	}

	spawner := agents.NewSpawner(cfg.Seed, recipes.Goods())
	for _, c := range caravans {
		spawner.Reserve(c.Name)
	}

	s := &Simulation{
		Map:       m,
		Goods:     recipes.Goods(),
		Economy:   econ,
		Finder:    pathfind.NewFinder(m.Width, m.Height, m),
		Towns:     towns,
		TownIndex: index,
		Caravans:  caravans,
		Spawner:   spawner,
		cfg:       cfg,
		rng:       rng,
	}
	s.Neighbors = findNeighbors(towns)
	s.updateStats()
	return s
}

// Config returns the parameters the simulation was created with.
func (s *Simulation) Config() Config {
	return s.cfg
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	return s.LastTick
}

// TickMinute runs every tick: caravans move.
func (s *Simulation) TickMinute(tick uint64) {
	s.Lock()
	defer s.Unlock()

	s.LastTick = tick
	s.moveCaravans(tick)
}

// TickEconomyDay runs every economy day: every town produces and consumes,
// then idle caravans look for work.
func (s *Simulation) TickEconomyDay(tick uint64) {
	s.Lock()
	defer s.Unlock()

	s.LastTick = tick
	s.EconomyDay++
	s.simulateTowns(tick)
	s.dispatchIdleCaravans(tick)
}

// TickCalendarDay runs every calendar day: statistics, daily report.
func (s *Simulation) TickCalendarDay(tick uint64) {
	s.Lock()
	defer s.Unlock()

	s.updateStats()

	eventCounts := make(map[string]int)
	for _, e := range s.Events {
		eventCounts[e.Category]++
	}

	slog.Info("daily report",
		"tick", tick,
		"economy_day", s.EconomyDay,
		"towns", len(s.Towns),
		"population", s.Stats.TotalPopulation,
		"employed", s.Stats.Employed,
		"avg_wealth", fmt.Sprintf("%.3f", s.Stats.AvgWealth),
		"town_money", humanize.Comma(int64(s.Stats.TownMoney)),
		"caravan_money", humanize.Comma(int64(s.Stats.CaravanMoney)),
		"produced", humanize.Comma(int64(s.Stats.Produced)),
		"consumed", humanize.Comma(int64(s.Stats.Consumed)),
		"traded", s.Stats.TradedUnits,
		"traveling", s.Stats.Traveling,
		"events_population", eventCounts["population"],
		"events_trade", eventCounts["trade"],
	)

	s.Stats.Produced = 0
	s.Stats.Consumed = 0
	s.Stats.TradedUnits = 0
}

// simulateTowns runs the economic tick for every town.
func (s *Simulation) simulateTowns(tick uint64) {
	for _, t := range s.Towns {
		report := s.Economy.SimulateDay(t)
		s.Stats.Produced += report.Produced
		s.Stats.Consumed += report.Consumed

		switch {
		case report.PopulationChange > 0:
			s.addEvent(tick, "population", fmt.Sprintf("%s grows to %d", t.Name, t.Population))
		case report.PopulationChange < 0:
			s.addEvent(tick, "population", fmt.Sprintf("%s shrinks to %d", t.Name, t.Population))
		}
	}
}

func (s *Simulation) addEvent(tick uint64, category, description string) {
	s.EventSeq++
	e := Event{Seq: s.EventSeq, Tick: tick, Category: category, Description: description}

	s.Events = append(s.Events, e)
	if len(s.Events) > MaxEvents {
		s.Events = slices.Delete(s.Events, 0, len(s.Events)-MaxEvents)
	}

	s.unsaved = append(s.unsaved, e)
	if n := len(s.unsaved) - maxUnsavedEvents; n > 0 {
		slog.Warn("dropping unsaved events", "count", n, "oldest_seq", s.unsaved[0].Seq)
		s.unsaved = slices.Delete(s.unsaved, 0, n)
	}
}

// AddEvent records an event at the current tick.
func (s *Simulation) AddEvent(category, description string) {
	s.Lock()
	defer s.Unlock()
	s.addEvent(s.LastTick, category, description)
}

// UnsavedEvents returns the events recorded since the last MarkEventsSaved,
// oldest first. The caller must hold the lock.
func (s *Simulation) UnsavedEvents() []Event {
	return slices.Clone(s.unsaved)
}

// MarkEventsSaved forgets unsaved events up to and including seq. The caller
// must hold the lock.
func (s *Simulation) MarkEventsSaved(seq uint64) {
	i := 0
	for i < len(s.unsaved) && s.unsaved[i].Seq <= seq {
		i++
	}
	s.unsaved = slices.Delete(s.unsaved, 0, i)
}

// RestoreEvents replaces the in-memory log with already persisted events,
// oldest first, and continues numbering after lastSeq.
func (s *Simulation) RestoreEvents(events []Event, lastSeq uint64) {
	if len(events) > MaxEvents {
		events = events[len(events)-MaxEvents:]
	}
	s.Events = slices.Clone(events)
	s.EventSeq = lastSeq
	s.unsaved = nil
}

// TownAt returns the town at or next to c, if any.
func (s *Simulation) TownAt(c world.Coord) *social.Town {
	var best *social.Town
	for _, t := range s.Towns {
		if d := t.Position.Manhattan(c); d <= 1 && (best == nil || d < best.Position.Manhattan(c)) {
			best = t
		}
	}
	return best
}

// NearestTown returns the town closest to c other than excluding, or nil.
func (s *Simulation) NearestTown(c world.Coord, excluding social.TownID) *social.Town {
	var best *social.Town
	for _, t := range s.Towns {
		if t.ID == excluding {
			continue
		}
		if best == nil || t.Position.Manhattan(c) < best.Position.Manhattan(c) {
			best = t
		}
	}
	return best
}

// SortedTowns returns the towns ordered by ID.
func (s *Simulation) SortedTowns() []*social.Town {
	out := make([]*social.Town, len(s.Towns))
	copy(out, s.Towns)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Simulation) updateStats() {
	pop, employed, money := 0, 0, 0
	wealth := 0.0
	for _, t := range s.Towns {
		pop += t.Population
		employed += t.Employed()
		money += t.Money
		wealth += t.Wealth
	}

	caravanMoney, traveling := 0, 0
	for _, c := range s.Caravans {
		caravanMoney += c.Money
		if c.Traveling() {
			traveling++
		}
	}

	s.Stats.TotalPopulation = pop
	s.Stats.Employed = employed
	s.Stats.TownMoney = money
	s.Stats.CaravanMoney = caravanMoney
	s.Stats.Traveling = traveling
	if len(s.Towns) > 0 {
		s.Stats.AvgWealth = wealth / float64(len(s.Towns))
	}
}

// findNeighbors pairs every town with the towns at most 2.5 times as far as
// its nearest one, and at least three.
func findNeighbors(towns []*social.Town) map[social.TownID][]social.TownID {
	out := make(map[social.TownID][]social.TownID, len(towns))
	for _, t := range towns {
		others := make([]*social.Town, 0, len(towns)-1)
		for _, o := range towns {
			if o.ID != t.ID {
				others = append(others, o)
			}
		}
		if len(others) == 0 {
			continue
		}
		sort.SliceStable(others, func(i, j int) bool {
			return others[i].Position.Manhattan(t.Position) < others[j].Position.Manhattan(t.Position)
		})

		limit := float64(others[0].Position.Manhattan(t.Position)) * 2.5
		n := 1
		for n < len(others) && float64(others[n].Position.Manhattan(t.Position)) <= limit {
			n++
		}
		n = min(max(n, 3), len(others))

		ids := make([]social.TownID, n)
		for i := range ids {
			ids[i] = others[i].ID
		}
		out[t.ID] = ids
	}
	return out
}
