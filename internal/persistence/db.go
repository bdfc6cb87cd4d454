// Package persistence provides SQLite-based world state storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/caravans/internal/agents"
	"github.com/talgya/caravans/internal/economy"
	"github.com/talgya/caravans/internal/engine"
	"github.com/talgya/caravans/internal/production"
	"github.com/talgya/caravans/internal/social"
	"github.com/talgya/caravans/internal/world"
)

// Metadata keys.
const (
	MetaLastTick   = "last_tick"
	MetaEconomyDay = "economy_day"
	MetaSeed       = "seed"
)

// ErrNoWorld is returned when loading from a database without saved state.
var ErrNoWorld = errors.New("no saved world")

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS towns (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		population INTEGER NOT NULL,
		money INTEGER NOT NULL,
		wealth REAL NOT NULL,
		trade_buy_count INTEGER NOT NULL,
		trade_sell_count INTEGER NOT NULL,
		environment_json TEXT NOT NULL,
		workforce_json TEXT NOT NULL,
		prices BLOB NOT NULL,
		output BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS caravans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		money INTEGER NOT NULL,
		capacity INTEGER NOT NULL,
		speed REAL NOT NULL,
		activity INTEGER NOT NULL,
		traded_good TEXT NOT NULL,
		target_town INTEGER NOT NULL,
		previous_town INTEGER NOT NULL,
		route_json TEXT NOT NULL,
		paid_json TEXT NOT NULL,
		memory_json TEXT NOT NULL,
		cargo BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type townRow struct {
	ID             uint64  `db:"id"`
	Name           string  `db:"name"`
	X              int     `db:"x"`
	Y              int     `db:"y"`
	Population     int     `db:"population"`
	Money          int     `db:"money"`
	Wealth         float64 `db:"wealth"`
	TradeBuyCount  int     `db:"trade_buy_count"`
	TradeSellCount int     `db:"trade_sell_count"`
	Environment    string  `db:"environment_json"`
	Workforce      string  `db:"workforce_json"`
	Prices         []byte  `db:"prices"`
	Output         []byte  `db:"output"`
}

type caravanRow struct {
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	X            int     `db:"x"`
	Y            int     `db:"y"`
	Money        int     `db:"money"`
	Capacity     int     `db:"capacity"`
	Speed        float64 `db:"speed"`
	Activity     uint8   `db:"activity"`
	TradedGood   string  `db:"traded_good"`
	TargetTown   uint64  `db:"target_town"`
	PreviousTown uint64  `db:"previous_town"`
	Route        string  `db:"route_json"`
	Paid         string  `db:"paid_json"`
	Memory       string  `db:"memory_json"`
	Cargo        []byte  `db:"cargo"`
}

// storedRecord is a price record keyed by good key, so it survives catalog
// changes.
type storedRecord struct {
	Town     social.TownID  `json:"town"`
	Position world.Coord    `json:"position"`
	Day      uint64         `json:"day"`
	Buy      map[string]int `json:"buy"`
	Sell     map[string]int `json:"sell"`
}

// SaveTowns writes all towns to the database (full replace).
func (db *DB) SaveTowns(towns []*social.Town, recipes *production.Catalog) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM towns"); err != nil {
		return err
	}

	codec := recipes.Goods().Codec()
	for _, t := range towns {
		envJSON, err := json.Marshal(t.Environment)
		if err != nil {
			return fmt.Errorf("town %d environment: %w", t.ID, err)
		}
		workforce := make(map[string]int, len(t.Workforce))
		for id, w := range t.Workforce {
			workforce[recipes.Recipe(id).Name] = w
		}
		workJSON, err := json.Marshal(workforce)
		if err != nil {
			return fmt.Errorf("town %d workforce: %w", t.ID, err)
		}

		_, err = tx.NamedExec(`INSERT INTO towns
			(id, name, x, y, population, money, wealth, trade_buy_count, trade_sell_count,
			 environment_json, workforce_json, prices, output)
			VALUES (:id, :name, :x, :y, :population, :money, :wealth, :trade_buy_count,
			 :trade_sell_count, :environment_json, :workforce_json, :prices, :output)`,
			townRow{
				ID:             t.ID,
				Name:           t.Name,
				X:              t.Position.X(),
				Y:              t.Position.Y(),
				Population:     t.Population,
				Money:          t.Money,
				Wealth:         t.Wealth,
				TradeBuyCount:  t.TradeBuyCount,
				TradeSellCount: t.TradeSellCount,
				Environment:    string(envJSON),
				Workforce:      string(workJSON),
				Prices:         t.Prices.Encode(codec),
				Output:         t.Output.Encode(codec),
			})
		if err != nil {
			return fmt.Errorf("insert town %d: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// LoadTowns reads every town. Recipes no longer in the catalog lose their
// workers.
func (db *DB) LoadTowns(recipes *production.Catalog) ([]*social.Town, error) {
	var rows []townRow
	if err := db.conn.Select(&rows, "SELECT * FROM towns ORDER BY id"); err != nil {
		return nil, fmt.Errorf("select towns: %w", err)
	}

	goods := recipes.Goods()
	codec := goods.Codec()
	towns := make([]*social.Town, 0, len(rows))
	for _, r := range rows {
		t := social.NewTown(r.ID, r.Name, world.MakeCoord(r.X, r.Y), goods)
		t.Population = r.Population
		t.Money = r.Money
		t.Wealth = r.Wealth
		t.TradeBuyCount = r.TradeBuyCount
		t.TradeSellCount = r.TradeSellCount

		if err := json.Unmarshal([]byte(r.Environment), &t.Environment); err != nil {
			return nil, fmt.Errorf("town %d environment: %w", r.ID, err)
		}
		var workforce map[string]int
		if err := json.Unmarshal([]byte(r.Workforce), &workforce); err != nil {
			return nil, fmt.Errorf("town %d workforce: %w", r.ID, err)
		}
		for name, w := range workforce {
			recipe, ok := recipes.Lookup(name)
			if !ok || w <= 0 {
				slog.Warn("dropping workers of unknown recipe", "town", r.Name, "recipe", name, "workers", w)
				continue
			}
			t.Workforce[recipe.ID] = w
		}

		if err := t.Prices.Decode(codec, r.Prices); err != nil {
			return nil, fmt.Errorf("town %d prices: %w", r.ID, err)
		}
		if err := t.Output.Decode(codec, r.Output); err != nil {
			return nil, fmt.Errorf("town %d output: %w", r.ID, err)
		}
		towns = append(towns, t)
	}
	return towns, nil
}

// SaveCaravans writes all caravans to the database (full replace).
func (db *DB) SaveCaravans(caravans []*agents.Caravan, goods *economy.Catalog) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM caravans"); err != nil {
		return err
	}

	stmt, err := tx.PrepareNamed(`INSERT INTO caravans
		(id, name, x, y, money, capacity, speed, activity, traded_good, target_town,
		 previous_town, route_json, paid_json, memory_json, cargo)
		VALUES (:id, :name, :x, :y, :money, :capacity, :speed, :activity, :traded_good,
		 :target_town, :previous_town, :route_json, :paid_json, :memory_json, :cargo)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	codec := goods.Codec()
	for _, c := range caravans {
		row, err := caravanToRow(c, goods)
		if err != nil {
			return fmt.Errorf("caravan %s: %w", c.ID, err)
		}
		row.Cargo = c.Goods.Encode(codec)
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("insert caravan %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

func caravanToRow(c *agents.Caravan, goods *economy.Catalog) (caravanRow, error) {
	route := c.Route
	if route == nil {
		route = []world.Coord{}
	}
	routeJSON, err := json.Marshal(route)
	if err != nil {
		return caravanRow{}, fmt.Errorf("route: %w", err)
	}

	paid := make(map[string]int)
	for _, g := range goods.Goods() {
		if p := c.PaidPrice(g.ID); p != 0 {
			paid[g.Key] = p
		}
	}
	paidJSON, err := json.Marshal(paid)
	if err != nil {
		return caravanRow{}, fmt.Errorf("paid prices: %w", err)
	}

	var records []storedRecord
	for _, r := range c.Memory.Records() {
		s := storedRecord{
			Town:     r.Town,
			Position: r.Position,
			Day:      r.Day,
			Buy:      make(map[string]int, len(r.Buy)),
			Sell:     make(map[string]int, len(r.Sell)),
		}
		for _, g := range goods.Goods() {
			s.Buy[g.Key] = r.Buy[g.ID]
			s.Sell[g.Key] = r.Sell[g.ID]
		}
		records = append(records, s)
	}
	memJSON, err := json.Marshal(records)
	if err != nil {
		return caravanRow{}, fmt.Errorf("memory: %w", err)
	}

	return caravanRow{
		ID:           c.ID,
		Name:         c.Name,
		X:            c.Position.X(),
		Y:            c.Position.Y(),
		Money:        c.Money,
		Capacity:     c.Capacity,
		Speed:        c.Speed,
		Activity:     uint8(c.Activity),
		TradedGood:   goods.Good(c.TradedGood).Key,
		TargetTown:   c.TargetTown,
		PreviousTown: c.PreviousTown,
		Route:        string(routeJSON),
		Paid:         string(paidJSON),
		Memory:       string(memJSON),
	}, nil
}

// LoadCaravans reads every caravan. Goods no longer in the catalog are
// dropped from cargo and memory.
func (db *DB) LoadCaravans(goods *economy.Catalog) ([]*agents.Caravan, error) {
	var rows []caravanRow
	if err := db.conn.Select(&rows, "SELECT * FROM caravans ORDER BY id"); err != nil {
		return nil, fmt.Errorf("select caravans: %w", err)
	}

	codec := goods.Codec()
	caravans := make([]*agents.Caravan, 0, len(rows))
	for _, r := range rows {
		c := agents.NewCaravan(r.ID, r.Name, world.MakeCoord(r.X, r.Y), r.Money, goods)
		c.Capacity = r.Capacity
		c.Speed = r.Speed
		c.Activity = agents.Activity(r.Activity)
		c.TargetTown = r.TargetTown
		c.PreviousTown = r.PreviousTown
		if g, ok := goods.Lookup(r.TradedGood); ok {
			c.TradedGood = g
		}

		if err := c.Goods.Decode(codec, r.Cargo); err != nil {
			return nil, fmt.Errorf("caravan %s cargo: %w", r.ID, err)
		}

		var route []world.Coord
		if err := json.Unmarshal([]byte(r.Route), &route); err != nil {
			return nil, fmt.Errorf("caravan %s route: %w", r.ID, err)
		}
		if len(route) > 0 {
			c.SetRoute(route)
		}

		var paid map[string]int
		if err := json.Unmarshal([]byte(r.Paid), &paid); err != nil {
			return nil, fmt.Errorf("caravan %s paid prices: %w", r.ID, err)
		}
		for key, p := range paid {
			if g, ok := goods.Lookup(key); ok {
				c.SetPaidPrice(g, p)
			}
		}

		var records []storedRecord
		if err := json.Unmarshal([]byte(r.Memory), &records); err != nil {
			return nil, fmt.Errorf("caravan %s memory: %w", r.ID, err)
		}
		for _, s := range records {
			rec := agents.PriceRecord{
				Town:     s.Town,
				Position: s.Position,
				Day:      s.Day,
				Buy:      make([]int, goods.Len()),
				Sell:     make([]int, goods.Len()),
			}
			for _, g := range goods.Goods() {
				rec.Buy[g.ID] = s.Buy[g.Key]
				rec.Sell[g.ID] = s.Sell[g.Key]
			}
			c.Memory.Store(rec)
		}

		caravans = append(caravans, c)
	}
	return caravans, nil
}

// SaveEvents appends events. Events already stored, by sequence number,
// are skipped.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT OR IGNORE INTO events (seq, tick, description, category) VALUES (?, ?, ?, ?)",
			e.Seq, e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT seq, tick, description, category FROM events ORDER BY seq DESC LIMIT ?",
		limit,
	)
	return events, err
}

// LastEventSeq returns the highest stored event sequence number, or 0.
func (db *DB) LastEventSeq() (uint64, error) {
	var seq sql.NullInt64
	if err := db.conn.Get(&seq, "SELECT MAX(seq) FROM events"); err != nil {
		return 0, err
	}
	return uint64(seq.Int64), nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// GetMetaUint retrieves a numeric metadata value, or def when it is missing
// or malformed.
func (db *DB) GetMetaUint(key string, def uint64) uint64 {
	s, err := db.GetMeta(key)
	if err != nil {
		return def
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return def
	}
	return v
}

// HasWorldState reports whether a world has been saved.
func (db *DB) HasWorldState() bool {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM towns"); err != nil {
		return false
	}
	return n > 0
}

// SaveWorldState performs a full save of all world state.
func (db *DB) SaveWorldState(sim *engine.Simulation) error {
	sim.Lock()
	defer sim.Unlock()

	slog.Info("saving world state", "towns", len(sim.Towns), "caravans", len(sim.Caravans))

	if err := db.SaveTowns(sim.Towns, sim.Economy.Recipes()); err != nil {
		return fmt.Errorf("save towns: %w", err)
	}
	if err := db.SaveCaravans(sim.Caravans, sim.Goods); err != nil {
		return fmt.Errorf("save caravans: %w", err)
	}
	if events := sim.UnsavedEvents(); len(events) > 0 {
		if err := db.SaveEvents(events); err != nil {
			return fmt.Errorf("save events: %w", err)
		}
		sim.MarkEventsSaved(events[len(events)-1].Seq)
	}
	meta := map[string]string{
		MetaLastTick:   strconv.FormatUint(sim.CurrentTick(), 10),
		MetaEconomyDay: strconv.FormatUint(sim.EconomyDay, 10),
		MetaSeed:       strconv.FormatInt(sim.Config().Seed, 10),
	}
	for k, v := range meta {
		if err := db.SaveMeta(k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	slog.Info("world state saved")
	return nil
}

// LoadWorldState restores a simulation saved by SaveWorldState onto m.
func (db *DB) LoadWorldState(m *world.Map, recipes *production.Catalog, cfg engine.Config) (*engine.Simulation, error) {
	if !db.HasWorldState() {
		return nil, ErrNoWorld
	}
	towns, err := db.LoadTowns(recipes)
	if err != nil {
		return nil, err
	}
	caravans, err := db.LoadCaravans(recipes.Goods())
	if err != nil {
		return nil, err
	}
	for _, t := range towns {
		if tile := m.TileAt(t.Position); tile != nil {
			tile.Terrain = world.TerrainTown
		}
	}

	recent, err := db.RecentEvents(engine.MaxEvents)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	lastSeq, err := db.LastEventSeq()
	if err != nil {
		return nil, fmt.Errorf("load event sequence: %w", err)
	}
	slices.Reverse(recent)

	sim := engine.NewSimulation(m, recipes, cfg, towns, caravans)
	sim.LastTick = db.GetMetaUint(MetaLastTick, 0)
	sim.EconomyDay = db.GetMetaUint(MetaEconomyDay, 0)
	sim.RestoreEvents(recent, lastSeq)

	slog.Info("world state restored",
		"towns", len(towns),
		"caravans", len(caravans),
		"tick", sim.LastTick,
		"economy_day", sim.EconomyDay,
	)
	return sim, nil
}
