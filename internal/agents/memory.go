// Price memory: what a caravan remembers about the towns it visited, used to
// pick the good to carry and where to take it.
package agents

import (
	"sort"

	"github.com/talgya/caravans/internal/economy"
	"github.com/talgya/caravans/internal/social"
	"github.com/talgya/caravans/internal/world"
)

// PriceRecord is a snapshot of one town's prices.
type PriceRecord struct {
	Town     social.TownID `json:"town"`
	Position world.Coord   `json:"position"`
	Day      uint64        `json:"day"`
	Buy      []int         `json:"buy"`  // What the town charged per good
	Sell     []int         `json:"sell"` // What the town would have paid, capped by its money
}

// PriceMemory holds a bounded number of price records, one per town.
type PriceMemory struct {
	capacity int
	records  []PriceRecord
}

// NewPriceMemory creates a memory for at most capacity towns.
func NewPriceMemory(capacity int) *PriceMemory {
	return &PriceMemory{capacity: max(capacity, 1)}
}

// Len returns the number of remembered towns.
func (m *PriceMemory) Len() int {
	return len(m.records)
}

// Remember records the current prices of t. An older record of the same
// town is replaced; when full, the oldest record makes room.
func (m *PriceMemory) Remember(day uint64, t *social.Town) {
	n := t.Prices.Len()
	r := PriceRecord{
		Town:     t.ID,
		Position: t.Position,
		Day:      day,
		Buy:      make([]int, n),
		Sell:     make([]int, n),
	}
	for i := 0; i < n; i++ {
		r.Buy[i] = t.Prices.BuyPrice(economy.GoodID(i))
		r.Sell[i] = min(t.Prices.SellPrice(economy.GoodID(i)), t.Money)
	}
	m.Store(r)
}

// Store adds r, replacing the record of the same town or the oldest one.
func (m *PriceMemory) Store(r PriceRecord) {
	for i := range m.records {
		if m.records[i].Town == r.Town {
			m.records[i] = r
			return
		}
	}
	if len(m.records) < m.capacity {
		m.records = append(m.records, r)
		return
	}

	oldest := 0
	for i := 1; i < len(m.records); i++ {
		if m.records[i].Day < m.records[oldest].Day {
			oldest = i
		}
	}
	if r.Day >= m.records[oldest].Day {
		m.records[oldest] = r
	}
}

// Recall returns the record of town, if any.
func (m *PriceMemory) Recall(town social.TownID) (PriceRecord, bool) {
	for _, r := range m.records {
		if r.Town == town {
			return r, true
		}
	}
	return PriceRecord{}, false
}

// Fresh returns the records made on or after since, excluding the given town,
// newest first.
func (m *PriceMemory) Fresh(since uint64, excluding social.TownID) []PriceRecord {
	var out []PriceRecord
	for _, r := range m.records {
		if r.Day >= since && r.Town != excluding {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Day > out[j].Day
	})
	return out
}

// Records returns a copy of every record.
func (m *PriceMemory) Records() []PriceRecord {
	out := make([]PriceRecord, len(m.records))
	copy(out, m.records)
	return out
}
