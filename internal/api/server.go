// Package api provides the HTTP API for querying world state.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/caravans/internal/agents"
	"github.com/talgya/caravans/internal/engine"
	"github.com/talgya/caravans/internal/persistence"
	"github.com/talgya/caravans/internal/social"
	"github.com/talgya/caravans/internal/world"
)

// Server serves the world state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional, enables snapshots
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// PathLimit bounds route searches per IP per minute. Zero means 30.
	PathLimit int
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Handler returns the routed API with CORS applied.
func (s *Server) Handler() http.Handler {
	limit := s.PathLimit
	if limit <= 0 {
		limit = 30
	}
	pathLimiter := NewRateLimiter(limit, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", getOnly(s.handleStatus))
	mux.HandleFunc("/api/v1/towns", getOnly(s.handleTowns))
	mux.HandleFunc("/api/v1/town/", getOnly(s.handleTownDetail))
	mux.HandleFunc("/api/v1/caravans", getOnly(s.handleCaravans))
	mux.HandleFunc("/api/v1/caravan/", getOnly(s.handleCaravanDetail))
	mux.HandleFunc("/api/v1/goods", getOnly(s.handleGoods))
	mux.HandleFunc("/api/v1/events", getOnly(s.handleEvents))
	mux.HandleFunc("/api/v1/stats", getOnly(s.handleStats))
	mux.HandleFunc("/api/v1/path", getOnly(RateLimitMiddleware(pathLimiter, s.handlePath)))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/trade", s.adminOnly(postOnly(s.handleTrade)))
	mux.HandleFunc("/api/v1/intervention", s.adminOnly(postOnly(s.handleIntervention)))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(postOnly(s.handleSnapshot)))

	return corsMiddleware(mux)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no WORLDSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.Sim.Lock()
	defer s.Sim.Unlock()

	tick := s.Sim.CurrentTick()
	status := map[string]any{
		"name":        "Caravans",
		"tick":        tick,
		"sim_time":    engine.SimTime(tick, s.Eng.CalendarDayTicks),
		"economy_day": s.Sim.EconomyDay,
		"speed":       s.Eng.Speed(),
		"running":     s.Eng.Running(),
		"towns":       len(s.Sim.Towns),
		"caravans":    len(s.Sim.Caravans),
		"population":  s.Sim.Stats.TotalPopulation,
		"employed":    s.Sim.Stats.Employed,
		"town_money":  s.Sim.Stats.TownMoney,
		"avg_wealth":  s.Sim.Stats.AvgWealth,
	}
	writeJSON(w, status)
}

type townSummary struct {
	ID         social.TownID `json:"id"`
	Name       string        `json:"name"`
	Position   world.Coord   `json:"position"`
	Population int           `json:"population"`
	Employed   int           `json:"employed"`
	Money      int           `json:"money"`
	Wealth     float64       `json:"wealth"`
}

func summarizeTown(t *social.Town) townSummary {
	return townSummary{
		ID:         t.ID,
		Name:       t.Name,
		Position:   t.Position,
		Population: t.Population,
		Employed:   t.Employed(),
		Money:      t.Money,
		Wealth:     t.Wealth,
	}
}

func (s *Server) handleTowns(w http.ResponseWriter, r *http.Request) {
	s.Sim.Lock()
	defer s.Sim.Unlock()

	result := make([]townSummary, 0, len(s.Sim.Towns))
	for _, t := range s.Sim.SortedTowns() {
		result = append(result, summarizeTown(t))
	}
	writeJSON(w, result)
}

type marketEntry struct {
	Good   string `json:"good"`
	Name   string `json:"name"`
	Buy    int    `json:"buy"`
	Sell   int    `json:"sell"`
	Supply int    `json:"supply"`
	Demand int    `json:"demand"`
	Output int    `json:"output,omitempty"`
}

func (s *Server) handleTownDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(strings.TrimPrefix(r.URL.Path, "/api/v1/town/"), 10, 64)
	if err != nil {
		http.Error(w, "invalid town id", http.StatusBadRequest)
		return
	}

	s.Sim.Lock()
	defer s.Sim.Unlock()

	t, ok := s.Sim.TownIndex[id]
	if !ok {
		http.Error(w, "town not found", http.StatusNotFound)
		return
	}

	market := make([]marketEntry, 0, s.Sim.Goods.Len())
	for _, g := range s.Sim.Goods.Goods() {
		market = append(market, marketEntry{
			Good:   g.Key,
			Name:   g.Name,
			Buy:    t.Prices.BuyPrice(g.ID),
			Sell:   t.Prices.SellPrice(g.ID),
			Supply: t.Prices.Supply(g.ID),
			Demand: t.Prices.Demand(g.ID),
			Output: t.Output.Get(g.ID),
		})
	}

	recipes := s.Sim.Economy.Recipes()
	type job struct {
		Recipe  string  `json:"recipe"`
		Workers int     `json:"workers"`
		Profit  float64 `json:"profit"`
	}
	workforce := make([]job, 0, len(t.Workforce))
	for _, a := range t.Assignments() {
		rec := recipes.Recipe(a.Recipe)
		workforce = append(workforce, job{
			Recipe:  rec.Name,
			Workers: a.Workers,
			Profit:  s.Sim.Economy.Profit(t, rec),
		})
	}

	neighbors := make([]townSummary, 0, len(s.Sim.Neighbors[t.ID]))
	for _, nid := range s.Sim.Neighbors[t.ID] {
		if n, ok := s.Sim.TownIndex[nid]; ok {
			neighbors = append(neighbors, summarizeTown(n))
		}
	}

	writeJSON(w, map[string]any{
		"town":             summarizeTown(t),
		"unemployed":       t.Unemployed(),
		"environment":      t.Environment,
		"trade_buy_count":  t.TradeBuyCount,
		"trade_sell_count": t.TradeSellCount,
		"market":           market,
		"workforce":        workforce,
		"neighbors":        neighbors,
	})
}

type cargoEntry struct {
	Good  string `json:"good"`
	Units int    `json:"units"`
	Paid  int    `json:"paid"`
}

type caravanSummary struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Position   world.Coord     `json:"position"`
	Money      int             `json:"money"`
	Activity   agents.Activity `json:"activity"`
	TradedGood string          `json:"traded_good,omitempty"`
	Target     string          `json:"target,omitempty"`
	Route      []world.Coord   `json:"route,omitempty"`
	Cargo      []cargoEntry    `json:"cargo"`
}

func (s *Server) summarizeCaravan(c *agents.Caravan) caravanSummary {
	sum := caravanSummary{
		ID:       c.ID,
		Name:     c.Name,
		Position: c.Position,
		Money:    c.Money,
		Activity: c.Activity,
		Cargo:    []cargoEntry{},
	}
	if c.Activity == agents.ActivityTrading {
		sum.TradedGood = s.Sim.Goods.Good(c.TradedGood).Key
	}
	if t, ok := s.Sim.TownIndex[c.TargetTown]; ok {
		sum.Target = t.Name
	}
	for _, g := range s.Sim.Goods.Goods() {
		if n := c.Goods.Get(g.ID); n > 0 {
			sum.Cargo = append(sum.Cargo, cargoEntry{Good: g.Key, Units: n, Paid: c.PaidPrice(g.ID)})
		}
	}
	return sum
}

func (s *Server) handleCaravans(w http.ResponseWriter, r *http.Request) {
	s.Sim.Lock()
	defer s.Sim.Unlock()

	activity := r.URL.Query().Get("activity")
	result := make([]caravanSummary, 0, len(s.Sim.Caravans))
	for _, c := range s.Sim.Caravans {
		if activity != "" && c.Activity.String() != activity {
			continue
		}
		result = append(result, s.summarizeCaravan(c))
	}
	writeJSON(w, result)
}

func (s *Server) handleCaravanDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/caravan/")

	s.Sim.Lock()
	defer s.Sim.Unlock()

	c := s.Sim.FindCaravan(id)
	if c == nil {
		http.Error(w, "caravan not found", http.StatusNotFound)
		return
	}

	type memoryEntry struct {
		Town string `json:"town"`
		Day  uint64 `json:"day"`
	}
	memory := make([]memoryEntry, 0, c.Memory.Len())
	for _, rec := range c.Memory.Records() {
		name := fmt.Sprintf("town %d", rec.Town)
		if t, ok := s.Sim.TownIndex[rec.Town]; ok {
			name = t.Name
		}
		memory = append(memory, memoryEntry{Town: name, Day: rec.Day})
	}

	sum := s.summarizeCaravan(c)
	sum.Route = c.Route // Routes only in detail
	writeJSON(w, map[string]any{
		"caravan": sum,
		"memory":  memory,
	})
}

func (s *Server) handleGoods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Goods.Goods())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	s.Sim.Lock()
	defer s.Sim.Unlock()

	events := s.Sim.Events

	// Optional town filter: only events mentioning this town.
	if town := r.URL.Query().Get("town"); town != "" {
		var filtered []engine.Event
		for _, e := range events {
			if strings.Contains(e.Description, town) {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := max(len(events)-limit, 0)
	out := make([]engine.Event, len(events)-start)
	copy(out, events[start:])
	writeJSON(w, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.Sim.Lock()
	defer s.Sim.Unlock()
	writeJSON(w, s.Sim.Stats)
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	from, err := world.ParseCoord(r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "invalid from", http.StatusBadRequest)
		return
	}
	to, err := world.ParseCoord(r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "invalid to", http.StatusBadRequest)
		return
	}

	s.Sim.Lock()
	defer s.Sim.Unlock()

	m := s.Sim.Map
	if !m.InBounds(from.X(), from.Y()) || !m.InBounds(to.X(), to.Y()) {
		http.Error(w, "coordinates off the map", http.StatusBadRequest)
		return
	}

	start := time.Now()
	path, found := s.Sim.Finder.FindPathInTimeLimit(from, to, nil, s.Sim.Config().PathTimeLimit)
	if path == nil {
		path = []world.Coord{}
	}
	writeJSON(w, map[string]any{
		"found":      found,
		"length":     path.Len(),
		"path":       path,
		"elapsed_ms": float64(time.Since(start).Microseconds()) / 1000,
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caravan  string `json:"caravan"`
		Good     string `json:"good"`
		Action   string `json:"action"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	res, err := s.Sim.OrderTrade(req.Caravan, req.Good, engine.TradeAction(req.Action), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleIntervention(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type     string        `json:"type"`
		Town     social.TownID `json:"town"`
		Good     string        `json:"good,omitempty"`
		Quantity int           `json:"quantity,omitempty"`
		Amount   int           `json:"amount,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var (
		desc string
		err  error
	)
	switch req.Type {
	case "provision":
		desc, err = s.Sim.ProvisionTown(req.Town, req.Good, req.Quantity)
	case "requisition":
		desc, err = s.Sim.RequisitionTown(req.Town, req.Good, req.Quantity)
	case "money":
		desc, err = s.Sim.GrantMoney(req.Town, req.Amount)
	case "caravan":
		var c *agents.Caravan
		c, err = s.Sim.SpawnCaravan(req.Town)
		if err == nil {
			desc = fmt.Sprintf("%s (%s) spawned", c.Name, c.ID)
		}
	default:
		http.Error(w, fmt.Sprintf("unknown intervention type %q", req.Type), http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{
		"type":        req.Type,
		"description": desc,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	if err := s.DB.SaveWorldState(s.Sim); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	s.Sim.Lock()
	tick := s.Sim.CurrentTick()
	s.Sim.Unlock()

	writeJSON(w, map[string]any{
		"tick":    tick,
		"message": "snapshot saved",
	})
}

// writeError maps simulation errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, engine.ErrUnknownTown), errors.Is(err, engine.ErrUnknownCaravan):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrNotInTown):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
