package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pythagorasdungeon/server/internal/domain/game"
	"github.com/pythagorasdungeon/server/internal/domain/question"
	"github.com/pythagorasdungeon/server/internal/engine"
	"github.com/pythagorasdungeon/server/internal/events"
	"github.com/pythagorasdungeon/server/internal/infra/storage"
	"github.com/pythagorasdungeon/server/internal/platform/config"
	"github.com/pythagorasdungeon/server/internal/platform/logger"
)

// heldScheduler never fires; a kill leaves the run in its pause.
type heldScheduler struct{}

func (heldScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return func() bool { return true }
}

func newTestEngine(t *testing.T, el *events.EventLog) *engine.Engine {
	t.Helper()
	eng := engine.NewEngine(nil, el, logger.NewDiscardLogger(), engine.WithScheduler(heldScheduler{}))
	t.Cleanup(eng.Close)
	return eng
}

func startHub(t *testing.T, eng GameEngine, poll bool) (*Hub, string) {
	t.Helper()
	cfg := config.LowResourceConfig()
	cfg.PollInterval = 5 * time.Millisecond

	hub := NewHub(eng, cfg, logger.NewDiscardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	if poll {
		hub.StartStatePoller(ctx)
	}

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

// roundTrip sends cmd and returns its result and the state that follows it.
func roundTrip(t *testing.T, conn *websocket.Conn, cmd interface{}) (CommandResult, engine.Snapshot) {
	t.Helper()
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	res := readMessage(t, conn)
	if res.Type != "result" || res.Result == nil {
		t.Fatalf("expected a result frame, got %+v", res)
	}
	state := readMessage(t, conn)
	if state.Type != "state" || state.State == nil {
		t.Fatalf("expected a state frame, got %+v", state)
	}
	return *res.Result, *state.State
}

func TestWebSocketCommandRoundTrip(t *testing.T) {
	eng := newTestEngine(t, nil)
	_, url := startHub(t, eng, false)
	conn := dial(t, url)

	first := readMessage(t, conn)
	if first.Type != "state" || first.State.GameState.GameStatus != game.StatusMenu {
		t.Fatalf("expected initial menu state, got %+v", first)
	}

	res, _ := roundTrip(t, conn, Command{Type: CommandSetName, Name: "Pythia"})
	if !res.OK {
		t.Errorf("set_name failed: %+v", res)
	}

	res, snap := roundTrip(t, conn, Command{Type: CommandStart})
	if !res.OK || snap.GameState.GameStatus != game.StatusCombat {
		t.Fatalf("start did not enter combat: %+v %+v", res, snap.GameState.GameStatus)
	}
	if snap.GameState.Player.Name != "Pythia" {
		t.Errorf("name lost, got %q", snap.GameState.Player.Name)
	}

	if snap.GameState.CurrentQuestion.Answer != 0 {
		t.Fatalf("state frame leaked the answer to %q", snap.GameState.CurrentQuestion.Question)
	}
	answer, err := question.Solve(snap.GameState.CurrentQuestion.Question)
	if err != nil {
		t.Fatalf("cannot solve %q: %v", snap.GameState.CurrentQuestion.Question, err)
	}
	res, snap = roundTrip(t, conn, Command{Type: CommandAnswer, Value: &answer})
	if res.Correct == nil || !*res.Correct {
		t.Errorf("expected a correct answer, got %+v", res)
	}

	res, _ = roundTrip(t, conn, Command{Type: CommandBuy, ItemID: "boots"})
	if res.OK {
		t.Errorf("buying without gold should fail")
	}

	res, _ = roundTrip(t, conn, Command{Type: CommandAnswer})
	if res.OK || res.Error != "missing value" {
		t.Errorf("expected missing value error, got %+v", res)
	}

	res, _ = roundTrip(t, conn, Command{Type: "dance"})
	if res.OK || res.Error != "unknown command" {
		t.Errorf("expected unknown command error, got %+v", res)
	}

	res, snap = roundTrip(t, conn, Command{Type: CommandReset})
	if !res.OK || snap.GameState.GameStatus != game.StatusMenu {
		t.Errorf("reset did not return to menu: %+v", snap.GameState.GameStatus)
	}
}

func TestMalformedCommandIsReported(t *testing.T) {
	eng := newTestEngine(t, nil)
	_, url := startHub(t, eng, false)
	conn := dial(t, url)
	readMessage(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	msg := readMessage(t, conn)
	if msg.Type != "result" || msg.Result.OK || msg.Result.Error != "malformed command" {
		t.Errorf("expected malformed command result, got %+v", msg)
	}
}

func TestPollerBroadcastsEngineChanges(t *testing.T) {
	eng := newTestEngine(t, nil)
	hub, url := startHub(t, eng, true)
	conn := dial(t, url)

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	eng.SetPlayerName("Archimedes")

	for time.Now().Before(deadline) {
		msg := readMessage(t, conn)
		if msg.Type == "state" && msg.State.GameState.Player.Name == "Archimedes" {
			return
		}
	}
	t.Fatal("engine change was never broadcast")
}

func TestStateHandler(t *testing.T) {
	eng := newTestEngine(t, nil)
	h := StateHandler(eng, logger.NewDiscardLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if snap.GameState.GameStatus != game.StatusMenu || snap.GameState.SessionID != eng.SessionID() {
		t.Errorf("unexpected snapshot %+v", snap.GameState)
	}

	eng.StartGame()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	if strings.Contains(rec.Body.String(), `"answer"`) {
		t.Errorf("state endpoint leaked the answer: %s", rec.Body.String())
	}
	if eng.GameState().CurrentQuestion.Answer == 0 {
		t.Errorf("redaction must not touch the engine's own question")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/state", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

type fixedSession string

func (s fixedSession) SessionID() string { return string(s) }

func TestHistoryEndpoints(t *testing.T) {
	el := events.NewEventLog(nil)
	el.Append(events.GameEvent{SessionID: "S1", Type: events.EventTypeGameStarted, ActorID: "PLAYER"})
	defeated := el.Append(events.GameEvent{SessionID: "S1", Type: events.EventTypeEnemyDefeated, ActorID: "skeleton",
		Payload: map[string]interface{}{"gold": 5}})
	el.Append(events.GameEvent{SessionID: "S2", Type: events.EventTypeGameLost, ActorID: "PLAYER",
		Payload: map[string]interface{}{"score": 0}})

	hh := NewHistoryHandler(el, storage.NewRecapper(storage.NewMemoryEventRepository()), fixedSession("S1"), logger.NewDiscardLogger())
	mux := http.NewServeMux()
	hh.RegisterRoutes(mux)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	var list HistoryResponse
	if err := json.Unmarshal(get("/api/history").Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.SessionID != "S1" || list.TotalEvents != 2 {
		t.Errorf("default session listing wrong: %+v", list)
	}

	json.Unmarshal(get("/api/history?session=S1&type=ENEMY_DEFEATED").Body.Bytes(), &list)
	if list.TotalEvents != 1 || list.Events[0].Impact != "POSITIVE" || list.FilteredBy != "ENEMY_DEFEATED" {
		t.Errorf("type filter wrong: %+v", list)
	}
	if !strings.Contains(list.Events[0].Summary, "5 gold") {
		t.Errorf("unexpected summary %q", list.Events[0].Summary)
	}

	if rec := get("/api/history?limit=-1"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", rec.Code)
	}

	var detail HistoryEvent
	json.Unmarshal(get("/api/history/event?id="+defeated.ID).Body.Bytes(), &detail)
	if detail.ID != defeated.ID || detail.Details["gold"] != float64(5) {
		t.Errorf("unexpected detail %+v", detail)
	}
	if rec := get("/api/history/event?id=nope"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	var stats struct {
		Stats map[string]int `json:"stats"`
	}
	json.Unmarshal(get("/api/history/stats").Body.Bytes(), &stats)
	if stats.Stats["total_events"] != 3 || stats.Stats["defeats"] != 1 || stats.Stats["enemies_defeated"] != 1 {
		t.Errorf("unexpected stats %+v", stats.Stats)
	}
}

func TestRecapEndpoint(t *testing.T) {
	repo := storage.NewMemoryEventRepository()
	ctx := context.Background()
	repo.Append(ctx, storage.GameEvent{ID: "1", SessionID: "S9", EventType: "ENEMY_DEFEATED", ActorID: "skeleton",
		Payload: map[string]interface{}{"gold": float64(5)}})
	repo.Append(ctx, storage.GameEvent{ID: "2", SessionID: "S9", EventType: "GAME_LOST",
		Payload: map[string]interface{}{"score": float64(850)}})

	hh := NewHistoryHandler(events.NewEventLog(nil), storage.NewRecapper(repo), fixedSession("other"), logger.NewDiscardLogger())

	rec := httptest.NewRecorder()
	hh.HandleRecap(rec, httptest.NewRequest(http.MethodGet, "/api/recap?session=S9", nil))

	var recap storage.Recap
	if err := json.Unmarshal(rec.Body.Bytes(), &recap); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if recap.Outcome != "defeat" || recap.FinalScore != 850 || recap.GoldEarned != 5 {
		t.Errorf("unexpected recap %+v", recap)
	}
}

// slowRepoWriter persists into a repository after a delay, like a busy disk.
type slowRepoWriter struct {
	repo  *storage.MemoryEventRepository
	delay time.Duration
}

func (w slowRepoWriter) Append(e events.GameEvent) error {
	time.Sleep(w.delay)
	return w.repo.Append(context.Background(), storage.GameEvent{
		ID: e.ID, SessionID: e.SessionID, Timestamp: e.Timestamp,
		EventType: string(e.Type), ActorID: e.ActorID, TargetID: e.TargetID, Payload: e.Payload,
	})
}

func TestRecapSeesEventsStillBeingWritten(t *testing.T) {
	repo := storage.NewMemoryEventRepository()
	el := events.NewEventLog(slowRepoWriter{repo: repo, delay: 20 * time.Millisecond})
	defer el.Close()

	el.Append(events.GameEvent{SessionID: "S3", Type: events.EventTypeEnemyDefeated, ActorID: "skeleton",
		Payload: map[string]interface{}{"gold": 5}})
	el.Append(events.GameEvent{SessionID: "S3", Type: events.EventTypeGameLost, ActorID: "PLAYER",
		Payload: map[string]interface{}{"score": 300}})

	hh := NewHistoryHandler(el, storage.NewRecapper(repo), fixedSession("S3"), logger.NewDiscardLogger())
	rec := httptest.NewRecorder()
	hh.HandleRecap(rec, httptest.NewRequest(http.MethodGet, "/api/recap", nil))

	var recap storage.Recap
	if err := json.Unmarshal(rec.Body.Bytes(), &recap); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if recap.Outcome != "defeat" || recap.FinalScore != 300 || len(recap.EnemiesDefeated) != 1 {
		t.Errorf("recap raced the writer: %+v", recap)
	}
}
