package mode

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreEmptyLoad(t *testing.T) {
	store := openTestStore(t)
	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if state != nil {
		t.Errorf("Expected nil state from fresh store, got %+v", state)
	}
}

func TestSQLiteStoreRoundtrip(t *testing.T) {
	store := openTestStore(t)

	activated := time.Date(2026, 9, 14, 8, 30, 0, 0, time.UTC)
	if err := store.Save(PersistedState{CurrentMode: Travel, ActivatedAt: &activated}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if state == nil {
		t.Fatal("Expected persisted state")
	}
	if state.CurrentMode != Travel {
		t.Errorf("Expected travel, got %s", state.CurrentMode)
	}
	if state.ActivatedAt == nil || !state.ActivatedAt.Equal(activated) {
		t.Errorf("Expected activated_at %v, got %v", activated, state.ActivatedAt)
	}
}

func TestSQLiteStoreUpsert(t *testing.T) {
	store := openTestStore(t)

	now := time.Now()
	store.Save(PersistedState{CurrentMode: Sick, ActivatedAt: &now})
	if err := store.Save(PersistedState{CurrentMode: Normal}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if state.CurrentMode != Normal {
		t.Errorf("Expected normal after upsert, got %s", state.CurrentMode)
	}
	if state.ActivatedAt != nil {
		t.Errorf("Expected nil activated_at after upsert, got %v", state.ActivatedAt)
	}
}

func TestSQLiteStoreRecordTransition(t *testing.T) {
	store := openTestStore(t)

	tr := Transition{
		From:      Normal,
		To:        DeepWork,
		Timestamp: time.Now(),
		Metadata:  map[string]any{"trigger": "calendar_auto_activation"},
	}
	if err := store.RecordTransition(tr); err != nil {
		t.Fatalf("RecordTransition failed: %v", err)
	}

	var count int
	row := store.db.QueryRow(`SELECT COUNT(*) FROM mode_transitions`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 transition row, got %d", count)
	}
}

func TestSQLiteStoreReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSQLiteStore(dir)
	if err != nil {
		t.Fatalf("OpenSQLiteStore failed: %v", err)
	}
	store.Save(PersistedState{CurrentMode: Detox})
	store.Close()

	store2, err := OpenSQLiteStore(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store2.Close()

	state, err := store2.Load()
	if err != nil {
		t.Fatalf("Load after reopen failed: %v", err)
	}
	if state == nil || state.CurrentMode != Detox {
		t.Errorf("Expected detox to survive reopen, got %+v", state)
	}
}
