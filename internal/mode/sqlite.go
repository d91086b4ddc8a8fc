package mode

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists mode state in a small SQLite database. The state
// itself is a single row; transitions are appended for diagnosis.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the mode database under statePath
func OpenSQLiteStore(statePath string) (*SQLiteStore, error) {
	dbPath := filepath.Join(statePath, "system", "mode.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open mode db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mode db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS mode_state (
		id           INTEGER PRIMARY KEY CHECK (id = 1),
		current_mode TEXT NOT NULL,
		activated_at TEXT
	);
	CREATE TABLE IF NOT EXISTS mode_transitions (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		from_mode TEXT NOT NULL,
		to_mode   TEXT NOT NULL,
		at        TEXT NOT NULL,
		metadata  TEXT
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load returns the persisted state, or nil if none was ever saved
func (s *SQLiteStore) Load() (*PersistedState, error) {
	row := s.db.QueryRow(`SELECT current_mode, activated_at FROM mode_state WHERE id = 1`)

	var current string
	var activatedAt sql.NullString
	if err := row.Scan(&current, &activatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load mode state: %w", err)
	}

	state := &PersistedState{CurrentMode: ID(current)}
	if activatedAt.Valid && activatedAt.String != "" {
		t, err := time.Parse(time.RFC3339Nano, activatedAt.String)
		if err == nil {
			state.ActivatedAt = &t
		}
		// An unparseable timestamp degrades to a nil ActivatedAt: the mode
		// survives, the duration clock does not.
	}
	return state, nil
}

// Save upserts the single state row
func (s *SQLiteStore) Save(state PersistedState) error {
	var activatedAt any
	if state.ActivatedAt != nil {
		activatedAt = state.ActivatedAt.Format(time.RFC3339Nano)
	}
	_, err := s.db.Exec(`
		INSERT INTO mode_state (id, current_mode, activated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET current_mode = excluded.current_mode, activated_at = excluded.activated_at`,
		string(state.CurrentMode), activatedAt)
	if err != nil {
		return fmt.Errorf("save mode state: %w", err)
	}
	return nil
}

// RecordTransition appends a transition row (best-effort diagnosis data)
func (s *SQLiteStore) RecordTransition(t Transition) error {
	var metadata any
	if len(t.Metadata) > 0 {
		data, err := json.Marshal(t.Metadata)
		if err == nil {
			metadata = string(data)
		}
	}
	_, err := s.db.Exec(`INSERT INTO mode_transitions (from_mode, to_mode, at, metadata) VALUES (?, ?, ?, ?)`,
		string(t.From), string(t.To), t.Timestamp.Format(time.RFC3339Nano), metadata)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
