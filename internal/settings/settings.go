// Package settings holds the per-user preferences that gate automatic
// behavior. Anything missing or unreadable degrades to the conservative
// default: do not auto-activate.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mahlerhutter/extensiovitae/internal/logging"
)

const storeFilename = "settings.json"

// Settings are the user's adaptation preferences. The zero value is the
// conservative default: no auto-activation, no busy-week alerts.
type Settings struct {
	AutoActivateTravel   bool `json:"auto_activate_travel"`
	AutoActivateDeepWork bool `json:"auto_activate_deep_work"`
	AutoActivateSick     bool `json:"auto_activate_sick"`
	AlertBusyWeeks       bool `json:"alert_busy_weeks"`
	SyncFrequencyHours   int  `json:"sync_frequency_hours"`

	// DiscordChannelID, when set, routes notifications to Discord
	DiscordChannelID string `json:"discord_channel_id,omitempty"`
}

// Normalize clamps out-of-range values
func (s *Settings) Normalize() {
	if s.SyncFrequencyHours < 1 {
		s.SyncFrequencyHours = 1
	}
}

// Store manages the settings file
type Store struct {
	path     string
	mu       sync.RWMutex
	settings Settings
}

// NewStore creates a settings store rooted at statePath
func NewStore(statePath string) *Store {
	return &Store{path: filepath.Join(statePath, storeFilename)}
}

// Load reads settings from disk. A missing or corrupt file yields defaults:
// settings failures must never block a sync cycle.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.settings = Settings{SyncFrequencyHours: 1}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		logging.Warn("settings", "corrupt settings file, using defaults: %v", err)
		s.settings = Settings{SyncFrequencyHours: 1}
		return nil
	}
	loaded.Normalize()
	s.settings = loaded
	return nil
}

// Save writes settings to disk
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.Normalize()
	data, err := json.MarshalIndent(s.settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Get returns a copy of the current settings
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update mutates settings under the store lock and persists the result
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	fn(&s.settings)
	s.settings.Normalize()
	s.mu.Unlock()
	return s.Save()
}
