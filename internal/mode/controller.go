package mode

import (
	"sync"
	"time"

	"github.com/mahlerhutter/extensiovitae/internal/logging"
)

// maxHistory bounds the in-memory transition history
const maxHistory = 10

// Transition records one mode change
type Transition struct {
	From      ID             `json:"from"`
	To        ID             `json:"to"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// PersistedState is the durable slice of controller state
type PersistedState struct {
	CurrentMode ID         `json:"current_mode"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
}

// Store is the persistence port for mode state. Save is best-effort: the
// controller never blocks or rolls back on a failed write.
type Store interface {
	Load() (*PersistedState, error)
	Save(PersistedState) error
}

// TransitionRecorder is an optional extension a Store may implement to
// keep transition history for diagnosis.
type TransitionRecorder interface {
	RecordTransition(Transition) error
}

// Duration is elapsed time in the current mode, floored to whole minutes
type Duration struct {
	Hours        int `json:"hours"`
	Minutes      int `json:"minutes"`
	TotalMinutes int `json:"totalMinutes"`
}

// Snapshot is the presentation-layer view of controller state
type Snapshot struct {
	CurrentMode ID           `json:"current_mode"`
	Config      *Config      `json:"config"`
	Duration    *Duration    `json:"duration,omitempty"`
	History     []Transition `json:"history"`
}

// Controller owns the single active mode. Exactly one mode is active at any
// instant; transitions form a fully connected graph including self-loops
// (re-activating the current mode restarts its clock).
type Controller struct {
	mu       sync.Mutex
	registry *Registry
	store    Store

	current     ID
	activatedAt *time.Time
	history     []Transition

	now func() time.Time
}

// NewController creates a controller, restoring persisted state if present.
// A load failure is logged and the controller starts from Normal; mode
// state is advisory, not worth refusing to boot over.
func NewController(registry *Registry, store Store) *Controller {
	c := &Controller{
		registry: registry,
		store:    store,
		current:  Normal,
		now:      time.Now,
	}

	if store == nil {
		return c
	}
	state, err := store.Load()
	if err != nil {
		logging.Warn("mode", "failed to restore mode state, starting normal: %v", err)
		return c
	}
	if state == nil {
		return c
	}
	if id, ok := ParseID(string(state.CurrentMode)); ok {
		c.current = id
		c.activatedAt = state.ActivatedAt
		logging.Info("mode", "restored mode %s (activated_at=%v)", id, state.ActivatedAt)
	} else {
		logging.Warn("mode", "persisted mode %q is unknown, starting normal", state.CurrentMode)
	}
	return c
}

// Activate switches to the given mode. Self-transitions are valid and reset
// the activation clock. The durable write happens off the caller's path; a
// failure is logged and the in-memory state stays authoritative.
//
// An id outside the closed mode set is rejected (logged, no transition) so
// the controller's current mode always resolves in the registry.
func (c *Controller) Activate(id ID, metadata map[string]any) {
	id, ok := ParseID(string(id))
	if !ok {
		logging.Warn("mode", "refusing to activate unknown mode %q", id)
		return
	}

	c.mu.Lock()
	now := c.now()
	t := Transition{From: c.current, To: id, Timestamp: now, Metadata: metadata}
	c.current = id
	c.activatedAt = &now
	c.history = append(c.history, t)
	if len(c.history) > maxHistory {
		c.history = c.history[len(c.history)-maxHistory:]
	}
	state := PersistedState{CurrentMode: c.current, ActivatedAt: c.activatedAt}
	store := c.store
	c.mu.Unlock()

	logging.Info("mode", "activated %s (from %s)", id, t.From)

	if store == nil {
		return
	}
	go func() {
		if err := store.Save(state); err != nil {
			logging.Warn("mode", "failed to persist mode state: %v", err)
		}
		if rec, ok := store.(TransitionRecorder); ok {
			if err := rec.RecordTransition(t); err != nil {
				logging.Debug("mode", "failed to record transition: %v", err)
			}
		}
	}()
}

// Deactivate returns to Normal
func (c *Controller) Deactivate() {
	c.Activate(Normal, map[string]any{"trigger": "manual_deactivation"})
}

// Current returns the active mode id
func (c *Controller) Current() ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// CurrentConfig resolves the active mode's configuration
func (c *Controller) CurrentConfig() *Config {
	return c.registry.Config(c.Current())
}

// EmergencyActive reports whether a non-normal mode is active
func (c *Controller) EmergencyActive() bool {
	return c.Current() != Normal
}

// Duration returns elapsed time in the current mode, or nil if no
// activation timestamp is known (including state restored from old
// persistence that lost its timestamp).
func (c *Controller) Duration() *Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activatedAt == nil {
		return nil
	}
	total := int(c.now().Sub(*c.activatedAt).Minutes())
	if total < 0 {
		total = 0
	}
	return &Duration{Hours: total / 60, Minutes: total % 60, TotalMinutes: total}
}

// History returns a copy of the bounded transition history, oldest first
func (c *Controller) History() []Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Transition, len(c.history))
	copy(out, c.history)
	return out
}

// Snapshot assembles the full presentation view in one lock acquisition
// per field group.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		CurrentMode: c.Current(),
		Config:      c.CurrentConfig(),
		Duration:    c.Duration(),
		History:     c.History(),
	}
}
