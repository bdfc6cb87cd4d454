package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"

	"github.com/talgya/caravans/internal/agents"
	"github.com/talgya/caravans/internal/economy"
	"github.com/talgya/caravans/internal/engine"
	"github.com/talgya/caravans/internal/production"
	"github.com/talgya/caravans/internal/social"
	"github.com/talgya/caravans/internal/world"
)

const testKey = "letmein"

// testServer serves a one-row road with a town at each end and a caravan
// waiting in the west town.
func testServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	goods := economy.DefaultCatalog()
	recipes, err := production.NewCatalog(goods)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := world.NewMap(10, 1)
	for i := range m.Tiles {
		m.Tiles[i].Terrain = world.TerrainGrass
	}
	west := social.NewTown(1, "Westford", world.MakeCoord(0, 0), goods)
	east := social.NewTown(2, "Eastmarch", world.MakeCoord(9, 0), goods)
	for _, town := range []*social.Town{west, east} {
		town.Population = 50
		town.Money = 1000
		town.Prices.Initialize(10, 10)
	}
	c := agents.NewCaravan("c1", "Aldric Voss", west.Position, 200, goods)

	sim := engine.NewSimulation(m, recipes, engine.DefaultConfig(), []*social.Town{west, east}, []*agents.Caravan{c})
	s := &Server{Sim: sim, Eng: engine.NewEngine(), AdminKey: testKey, PathLimit: 2}
	return s, s.Handler()
}

func do(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestServer_Status(t *testing.T) {
	_, h := testServer(t)

	rec := do(h, http.MethodGet, "/api/v1/status", "", "")
	testutil.AssertEqual(t, "status", rec.Code, http.StatusOK)

	var got struct {
		Towns      int `json:"towns"`
		Caravans   int `json:"caravans"`
		Population int `json:"population"`
	}
	decode(t, rec, &got)
	testutil.AssertEqual(t, "towns", got.Towns, 2)
	testutil.AssertEqual(t, "caravans", got.Caravans, 1)
	testutil.AssertEqual(t, "population", got.Population, 100)
}

func TestServer_Towns(t *testing.T) {
	_, h := testServer(t)

	rec := do(h, http.MethodGet, "/api/v1/towns", "", "")
	testutil.AssertEqual(t, "status", rec.Code, http.StatusOK)
	var towns []townSummary
	decode(t, rec, &towns)
	testutil.AssertEqual(t, "count", len(towns), 2)
	testutil.AssertEqual(t, "first", towns[0].Name, "Westford")
}

func TestServer_TownDetail(t *testing.T) {
	tests := map[string]struct {
		path    string
		expCode int
	}{
		"found":     {path: "/api/v1/town/2", expCode: http.StatusOK},
		"missing":   {path: "/api/v1/town/9", expCode: http.StatusNotFound},
		"malformed": {path: "/api/v1/town/east", expCode: http.StatusBadRequest},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, h := testServer(t)
			rec := do(h, http.MethodGet, tt.path, "", "")
			testutil.AssertEqual(t, "status", rec.Code, tt.expCode)
		})
	}

	s, h := testServer(t)
	var got struct {
		Town      townSummary   `json:"town"`
		Market    []marketEntry `json:"market"`
		Neighbors []townSummary `json:"neighbors"`
	}
	decode(t, do(h, http.MethodGet, "/api/v1/town/2", "", ""), &got)
	east := s.Sim.TownIndex[2]
	testutil.AssertEqual(t, "name", got.Town.Name, "Eastmarch")
	testutil.AssertEqual(t, "market", len(got.Market), s.Sim.Goods.Len())
	testutil.AssertEqual(t, "buy", got.Market[0].Buy, east.Prices.BuyPrice(0))
	testutil.AssertEqual(t, "sell", got.Market[0].Sell, east.Prices.SellPrice(0))
	if got.Market[0].Buy <= got.Market[0].Sell {
		t.Errorf("buy %d not above sell %d", got.Market[0].Buy, got.Market[0].Sell)
	}
	testutil.AssertEqual(t, "neighbors", len(got.Neighbors), 1)
}

func TestServer_Caravans(t *testing.T) {
	_, h := testServer(t)

	var list []caravanSummary
	decode(t, do(h, http.MethodGet, "/api/v1/caravans", "", ""), &list)
	testutil.AssertEqual(t, "count", len(list), 1)
	testutil.AssertEqual(t, "name", list[0].Name, "Aldric Voss")

	decode(t, do(h, http.MethodGet, "/api/v1/caravans?activity=trading", "", ""), &list)
	testutil.AssertEqual(t, "filtered", len(list), 0)

	rec := do(h, http.MethodGet, "/api/v1/caravan/c1", "", "")
	testutil.AssertEqual(t, "detail", rec.Code, http.StatusOK)
	rec = do(h, http.MethodGet, "/api/v1/caravan/nobody", "", "")
	testutil.AssertEqual(t, "missing", rec.Code, http.StatusNotFound)
}

func TestServer_Path(t *testing.T) {
	_, h := testServer(t)

	var got struct {
		Found  bool `json:"found"`
		Length int  `json:"length"`
	}
	rec := do(h, http.MethodGet, "/api/v1/path?from=0,0&to=9,0", "", "")
	testutil.AssertEqual(t, "status", rec.Code, http.StatusOK)
	decode(t, rec, &got)
	testutil.AssertEqual(t, "found", got.Found, true)
	testutil.AssertEqual(t, "length", got.Length, 9)

	rec = do(h, http.MethodGet, "/api/v1/path?from=0,0&to=50,0", "", "")
	testutil.AssertEqual(t, "off map", rec.Code, http.StatusBadRequest)

	// PathLimit is 2 per minute.
	rec = do(h, http.MethodGet, "/api/v1/path?from=0,0&to=1,0", "", "")
	testutil.AssertEqual(t, "limited", rec.Code, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Errorf("missing Retry-After header")
	}
}

func TestServer_AdminAuth(t *testing.T) {
	tests := map[string]struct {
		key     string
		token   string
		expCode int
	}{
		"disabled":    {key: "", token: "anything", expCode: http.StatusForbidden},
		"no token":    {key: testKey, token: "", expCode: http.StatusUnauthorized},
		"wrong token": {key: testKey, token: "guess", expCode: http.StatusUnauthorized},
		"valid":       {key: testKey, token: testKey, expCode: http.StatusOK},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, _ := testServer(t)
			s.AdminKey = tt.key
			rec := do(s.Handler(), http.MethodPost, "/api/v1/speed", tt.token, `{"speed": 5}`)
			testutil.AssertEqual(t, "status", rec.Code, tt.expCode)
		})
	}
}

func TestServer_Speed(t *testing.T) {
	s, h := testServer(t)

	rec := do(h, http.MethodPost, "/api/v1/speed", testKey, `{"speed": 12.5}`)
	testutil.AssertEqual(t, "status", rec.Code, http.StatusOK)
	testutil.AssertEqual(t, "speed", s.Eng.Speed(), 12.5)

	rec = do(h, http.MethodPost, "/api/v1/speed", testKey, `{"speed": 5000}`)
	testutil.AssertEqual(t, "too fast", rec.Code, http.StatusBadRequest)

	rec = do(h, http.MethodGet, "/api/v1/speed", "", "")
	testutil.AssertEqual(t, "read", rec.Code, http.StatusOK)
}

func TestServer_Trade(t *testing.T) {
	tests := map[string]struct {
		body    string
		expCode int
		expBuy  int
	}{
		"buy":           {body: `{"caravan":"c1","good":"tools","action":"buy","quantity":3}`, expCode: http.StatusOK, expBuy: 3},
		"unknown good":  {body: `{"caravan":"c1","good":"mithril","action":"buy"}`, expCode: http.StatusBadRequest},
		"unknown agent": {body: `{"caravan":"c9","good":"tools","action":"buy"}`, expCode: http.StatusNotFound},
		"bad action":    {body: `{"caravan":"c1","good":"tools","action":"steal"}`, expCode: http.StatusBadRequest},
		"bad json":      {body: `{`, expCode: http.StatusBadRequest},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, h := testServer(t)
			rec := do(h, http.MethodPost, "/api/v1/trade", testKey, tt.body)
			testutil.AssertEqual(t, "status", rec.Code, tt.expCode)
			if tt.expCode != http.StatusOK {
				return
			}
			var res engine.TradeResult
			decode(t, rec, &res)
			testutil.AssertEqual(t, "traded", res.Traded, tt.expBuy)
			testutil.AssertEqual(t, "complete", res.Complete, true)
			testutil.AssertEqual(t, "town", s.Sim.TownIndex[1].TradeBuyCount, tt.expBuy)
		})
	}
}

func TestServer_TradeWhileTraveling(t *testing.T) {
	s, h := testServer(t)
	c := s.Sim.Caravans[0]
	c.Position = world.MakeCoord(4, 0)

	rec := do(h, http.MethodPost, "/api/v1/trade", testKey, `{"caravan":"c1","good":"tools","action":"sell"}`)
	testutil.AssertEqual(t, "status", rec.Code, http.StatusConflict)
}

func TestServer_Intervention(t *testing.T) {
	tests := map[string]struct {
		body    string
		expCode int
		check   func(t *testing.T, s *Server)
	}{
		"provision": {
			body:    `{"type":"provision","town":2,"good":"tools","quantity":30}`,
			expCode: http.StatusOK,
			check: func(t *testing.T, s *Server) {
				tools, _ := s.Sim.Goods.Lookup("tools")
				testutil.AssertEqual(t, "supply", s.Sim.TownIndex[2].Prices.Supply(tools), 40)
			},
		},
		"requisition": {
			body:    `{"type":"requisition","town":1,"good":"tools","quantity":5}`,
			expCode: http.StatusOK,
			check: func(t *testing.T, s *Server) {
				tools, _ := s.Sim.Goods.Lookup("tools")
				testutil.AssertEqual(t, "demand", s.Sim.TownIndex[1].Prices.Demand(tools), 15)
			},
		},
		"money": {
			body:    `{"type":"money","town":1,"amount":-5000}`,
			expCode: http.StatusOK,
			check: func(t *testing.T, s *Server) {
				testutil.AssertEqual(t, "money", s.Sim.TownIndex[1].Money, 0)
			},
		},
		"caravan": {
			body:    `{"type":"caravan","town":2}`,
			expCode: http.StatusOK,
			check: func(t *testing.T, s *Server) {
				testutil.AssertEqual(t, "caravans", len(s.Sim.Caravans), 2)
				testutil.AssertEqual(t, "position", s.Sim.Caravans[1].Position, world.MakeCoord(9, 0))
			},
		},
		"unknown town": {
			body:    `{"type":"money","town":7,"amount":10}`,
			expCode: http.StatusNotFound,
		},
		"bad quantity": {
			body:    `{"type":"provision","town":1,"good":"tools"}`,
			expCode: http.StatusBadRequest,
		},
		"unknown type": {
			body:    `{"type":"plague","town":1}`,
			expCode: http.StatusBadRequest,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, h := testServer(t)
			rec := do(h, http.MethodPost, "/api/v1/intervention", testKey, tt.body)
			testutil.AssertEqual(t, "status", rec.Code, tt.expCode)
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestServer_Events(t *testing.T) {
	s, h := testServer(t)
	for i := range 5 {
		s.Sim.Events = append(s.Sim.Events, engine.Event{Tick: uint64(i), Category: "trade", Description: "Westford trade"})
	}
	s.Sim.Events = append(s.Sim.Events, engine.Event{Tick: 9, Category: "trade", Description: "Eastmarch trade"})

	var events []engine.Event
	decode(t, do(h, http.MethodGet, "/api/v1/events?limit=2", "", ""), &events)
	testutil.AssertEqual(t, "limit", len(events), 2)
	testutil.AssertEqual(t, "newest last", events[1].Tick, uint64(9))

	decode(t, do(h, http.MethodGet, "/api/v1/events?town=Westford", "", ""), &events)
	testutil.AssertEqual(t, "filtered", len(events), 5)
}

func TestServer_Methods(t *testing.T) {
	_, h := testServer(t)

	rec := do(h, http.MethodPost, "/api/v1/towns", testKey, "")
	testutil.AssertEqual(t, "post to get", rec.Code, http.StatusMethodNotAllowed)

	rec = do(h, http.MethodGet, "/api/v1/trade", "", "")
	testutil.AssertEqual(t, "get to post", rec.Code, http.StatusMethodNotAllowed)

	rec = do(h, http.MethodPost, "/api/v1/snapshot", testKey, "")
	testutil.AssertEqual(t, "no database", rec.Code, http.StatusServiceUnavailable)
}
