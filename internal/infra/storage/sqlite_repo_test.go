package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) (*SQLiteSaveStore, *SQLiteEventRepository) {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "data", "dungeon.db"))
	if err != nil {
		t.Fatalf("InitSQLite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteSaveStore(db), NewSQLiteEventRepository(db)
}

func TestSQLiteSaveStore(t *testing.T) {
	store, _ := openTestDB(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, DefaultSaveKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Put(ctx, DefaultSaveKey, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, DefaultSaveKey, []byte(`{"v":2}`)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	got, err := store.Get(ctx, DefaultSaveKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Errorf("expected latest value, got %s", got)
	}

	if err := store.Delete(ctx, DefaultSaveKey); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, DefaultSaveKey); err != nil {
		t.Errorf("deleting a missing key should succeed, got %v", err)
	}
	if _, err := store.Get(ctx, DefaultSaveKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSQLiteEventRepository(t *testing.T) {
	_, repo := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	seed := []GameEvent{
		{ID: "e1", SessionID: "S1", Timestamp: base, EventType: "GAME_STARTED", ActorID: "PLAYER", TargetID: "DUNGEON"},
		{ID: "e2", SessionID: "S1", Timestamp: base.Add(time.Second), EventType: "ENEMY_DEFEATED", ActorID: "skeleton", TargetID: "PLAYER",
			Payload: map[string]interface{}{"gold": 5}},
		{ID: "e3", SessionID: "S2", Timestamp: base.Add(2 * time.Second), EventType: "ENEMY_DEFEATED", ActorID: "goblin", TargetID: "PLAYER",
			Payload: map[string]interface{}{"gold": 10}},
	}
	for _, e := range seed {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append %s failed: %v", e.ID, err)
		}
	}

	if err := repo.Append(ctx, seed[0]); err == nil {
		t.Error("appending a duplicate id should fail")
	}

	s1, err := repo.GetBySession(ctx, "S1")
	if err != nil {
		t.Fatalf("GetBySession failed: %v", err)
	}
	if len(s1) != 2 || s1[0].ID != "e1" || s1[1].ID != "e2" {
		t.Fatalf("unexpected session events %+v", s1)
	}
	if s1[1].Payload["gold"] != float64(5) {
		t.Errorf("payload lost, got %+v", s1[1].Payload)
	}

	kills, err := repo.GetByEventType(ctx, "ENEMY_DEFEATED")
	if err != nil {
		t.Fatalf("GetByEventType failed: %v", err)
	}
	if len(kills) != 2 || kills[0].ActorID != "skeleton" || kills[1].ActorID != "goblin" {
		t.Errorf("unexpected kills %+v", kills)
	}

	none, err := repo.GetBySession(ctx, "missing")
	if err != nil || len(none) != 0 {
		t.Errorf("expected no events, got %v %v", none, err)
	}
}
