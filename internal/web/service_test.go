package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/justinabrahms/padchess/internal/chess"
	"github.com/justinabrahms/padchess/internal/config"
	"github.com/justinabrahms/padchess/internal/table"
)

const startPlacement = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"

var errUnexpected = errors.New("unexpected failure")

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
	}
}

// stubTable answers every request with a fixed error
type stubTable struct {
	err   error
	calls int
}

func (s *stubTable) Input(ctx context.Context, in chess.Input) (table.Update, error) {
	s.calls++
	return table.Update{}, s.err
}

func (s *stubTable) Promote(ctx context.Context, kind chess.Kind) (table.Update, error) {
	s.calls++
	return table.Update{}, s.err
}

func (s *stubTable) Undo(ctx context.Context) (table.Update, error) {
	s.calls++
	return table.Update{}, s.err
}

func (s *stubTable) NewGame(ctx context.Context) (table.Update, error) {
	s.calls++
	return table.Update{}, s.err
}

func (s *stubTable) Snapshot(ctx context.Context) (chess.Snapshot, error) {
	s.calls++
	return chess.Snapshot{}, s.err
}

func (s *stubTable) State(ctx context.Context) (table.Update, error) {
	s.calls++
	return table.Update{}, s.err
}

// decodedUpdate mirrors GameUpdate with raw event payloads
type decodedUpdate struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Seq     uint64 `json:"seq"`
	Request string `json:"request"`
	Events  []struct {
		Type chess.EventType `json:"type"`
		Data json.RawMessage `json:"data"`
	} `json:"events"`
	Snapshot *chess.Snapshot `json:"snapshot"`
}

func (u decodedUpdate) has(t chess.EventType) bool {
	for _, ev := range u.Events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

type testServer struct {
	*httptest.Server
	table *table.Table
	hub   *Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	tbl := table.New(chess.NewEngine())
	go tbl.Run(ctx)

	hub := NewHub()
	go hub.Run(ctx)

	updates, unsubscribe := tbl.Subscribe(16)
	go hub.Forward(ctx, updates)

	server := httptest.NewServer(NewRouter(NewService(tbl, testConfig()), hub))
	t.Cleanup(func() {
		unsubscribe()
		cancel()
		server.Close()
	})
	return &testServer{Server: server, table: tbl, hub: hub}
}

func (s *testServer) post(t *testing.T, path string, body interface{}) (*http.Response, decodedUpdate) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	resp, err := http.Post(s.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	var update decodedUpdate
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&update); err != nil {
			t.Fatalf("Failed to decode %s response: %v", path, err)
		}
	}
	return resp, update
}

func cell(label string) map[string]interface{} {
	c := chess.MustCoord(label)
	return map[string]interface{}{"rank": c.Rank, "file": c.File}
}

func TestHealthHandler(t *testing.T) {
	service := NewService(&stubTable{}, testConfig())

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	service.HealthHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", body["status"])
	}
	if body["addr"] != "localhost:8080" {
		t.Errorf("Expected addr localhost:8080, got %q", body["addr"])
	}
}

func TestBoardHandlerReturnsSnapshot(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/board")
	if err != nil {
		t.Fatalf("GET /api/board failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var snap chess.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if snap.Placement != startPlacement {
		t.Errorf("Expected start placement, got %s", snap.Placement)
	}
	if snap.Phase != chess.PhaseIdle {
		t.Errorf("Expected idle phase, got %s", snap.Phase)
	}
	if snap.Cells[0][4].Piece.Kind != chess.King {
		t.Errorf("Expected a king on e1, got %s", snap.Cells[0][4].Piece)
	}
}

func TestInputHandlerPlaysAMove(t *testing.T) {
	server := newTestServer(t)

	resp, update := server.post(t, "/api/input", cell("e2"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if !update.has(chess.EventPieceSelected) {
		t.Errorf("Expected a piece_selected event, got %+v", update.Events)
	}
	if update.Snapshot == nil || update.Snapshot.Phase != chess.PhaseSelected {
		t.Fatalf("Expected selected phase, got %+v", update.Snapshot)
	}
	if len(update.Snapshot.Candidates) != 2 {
		t.Errorf("Expected 2 candidates for e2, got %v", update.Snapshot.Candidates)
	}

	resp, update = server.post(t, "/api/input", cell("e4"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if !update.has(chess.EventMovePlayed) || !update.has(chess.EventTurnChanged) {
		t.Errorf("Expected move_played and turn_changed, got %+v", update.Events)
	}
	if update.Snapshot.Active != chess.PlayerTwo {
		t.Errorf("Expected player1 to move, got %s", update.Snapshot.Active)
	}
	if update.Snapshot.Placement != "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR" {
		t.Errorf("Unexpected placement %s", update.Snapshot.Placement)
	}
}

func TestInputHandlerIgnoresPresses(t *testing.T) {
	server := newTestServer(t)

	body := cell("e2")
	body["pressed"] = true
	resp, update := server.post(t, "/api/input", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if len(update.Events) != 0 {
		t.Errorf("Expected no events for a press, got %+v", update.Events)
	}
	if update.Snapshot.Phase != chess.PhaseIdle {
		t.Errorf("Expected idle phase, got %s", update.Snapshot.Phase)
	}
}

func TestInputHandlerRejectsBadRequests(t *testing.T) {
	server := newTestServer(t)

	testCases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"rank":`},
		{"missing rank", `{"file":3}`},
		{"missing file", `{"rank":3}`},
		{"rank off the board", `{"rank":8,"file":0}`},
		{"negative file", `{"rank":0,"file":-1}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/api/input", "application/json", bytes.NewBufferString(tc.body))
			if err != nil {
				t.Fatalf("POST failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestPromoteHandler(t *testing.T) {
	server := newTestServer(t)

	resp, _ := server.post(t, "/api/promote", PromoteRequest{Choice: "wizard"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400 for an unknown kind, got %d", resp.StatusCode)
	}

	// nothing pending: the request is absorbed
	resp, update := server.post(t, "/api/promote", PromoteRequest{Choice: "queen"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if len(update.Events) != 0 {
		t.Errorf("Expected no events, got %+v", update.Events)
	}
}

func TestUndoAndNewGameHandlers(t *testing.T) {
	server := newTestServer(t)

	server.post(t, "/api/input", cell("g1"))
	_, update := server.post(t, "/api/input", cell("f3"))
	if update.Snapshot.HistoryDepth != 1 {
		t.Fatalf("Expected history depth 1, got %d", update.Snapshot.HistoryDepth)
	}

	resp, update := server.post(t, "/api/undo", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if update.Snapshot.Placement != startPlacement {
		t.Errorf("Expected undo to restore the start placement, got %s", update.Snapshot.Placement)
	}
	if update.Snapshot.Active != chess.PlayerOne {
		t.Errorf("Expected player0 to move after undo, got %s", update.Snapshot.Active)
	}

	resp, update = server.post(t, "/api/new-game", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if len(update.Events) != chess.Size*chess.Size+1 {
		t.Errorf("Expected a full repaint plus turn change, got %d events", len(update.Events))
	}
	if update.Request != "new_game" {
		t.Errorf("Expected request new_game, got %q", update.Request)
	}
}

func TestTableUnavailable(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		code int
	}{
		{"closed", table.ErrClosed, http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"other", errUnexpected, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := NewRouter(NewService(&stubTable{err: tc.err}, testConfig()), NewHub())

			for _, path := range []string{"/api/undo", "/api/new-game"} {
				req := httptest.NewRequest("POST", path, nil)
				w := httptest.NewRecorder()
				router.ServeHTTP(w, req)
				if w.Code != tc.code {
					t.Errorf("%s: expected status %d, got %d", path, tc.code, w.Code)
				}
			}

			req := httptest.NewRequest("GET", "/api/board", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.code {
				t.Errorf("/api/board: expected status %d, got %d", tc.code, w.Code)
			}
		})
	}
}

func TestRequestsAfterTableStops(t *testing.T) {
	tbl := table.New(chess.NewEngine())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = tbl.Run(ctx)
		close(stopped)
	}()
	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("table did not stop")
	}

	router := NewRouter(NewService(tbl, testConfig()), NewHub())
	req := httptest.NewRequest("POST", "/api/input", bytes.NewBufferString(`{"rank":1,"file":4}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}
