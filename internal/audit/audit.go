// Package audit keeps an append-only JSONL trail of everything the
// adaptation engine decided and why: detections, auto-activations, manual
// mode changes, alerts, and swallowed errors.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Type identifies what kind of audit entry this is
type Type string

const (
	TypeDetection      Type = "detection"
	TypeAutoActivation Type = "auto_activation"
	TypeModeChange     Type = "mode_change"
	TypeAlert          Type = "alert"
	TypeError          Type = "error"
)

// Entry is a single audit record
type Entry struct {
	Timestamp time.Time      `json:"ts"`
	Type      Type           `json:"type"`
	Summary   string         `json:"summary"`
	Mode      string         `json:"mode,omitempty"`      // mode involved, if any
	Detection string         `json:"detection,omitempty"` // detection id, if any
	Data      map[string]any `json:"data,omitempty"`
}

// Log is the audit logger
type Log struct {
	path string
	mu   sync.Mutex
}

// New creates an audit logger under statePath
func New(statePath string) *Log {
	return &Log{path: filepath.Join(statePath, "system", "audit.jsonl")}
}

// Write appends an entry. Audit failures are returned but callers treat
// them as advisory; the trail is diagnosis data, not ground truth.
func (l *Log) Write(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// Detection records that a detector fired
func (l *Log) Detection(detectionID, detectionType, summary string, confidence float64) error {
	return l.Write(Entry{
		Type:      TypeDetection,
		Summary:   summary,
		Detection: detectionID,
		Data:      map[string]any{"detection_type": detectionType, "confidence": confidence},
	})
}

// AutoActivation records that the bridge switched modes from a detection
func (l *Log) AutoActivation(detectionID, modeID string, confidence float64) error {
	return l.Write(Entry{
		Type:      TypeAutoActivation,
		Summary:   "calendar auto-activation",
		Mode:      modeID,
		Detection: detectionID,
		Data:      map[string]any{"confidence": confidence},
	})
}

// ModeChange records a manual transition
func (l *Log) ModeChange(from, to, trigger string) error {
	return l.Write(Entry{
		Type:    TypeModeChange,
		Summary: "mode change",
		Mode:    to,
		Data:    map[string]any{"from": from, "trigger": trigger},
	})
}

// Alert records that an alert-only detection was surfaced to the user
func (l *Log) Alert(detectionID, title string) error {
	return l.Write(Entry{
		Type:      TypeAlert,
		Summary:   title,
		Detection: detectionID,
	})
}

// Error records a swallowed failure
func (l *Log) Error(where string, err error) error {
	return l.Write(Entry{
		Type:    TypeError,
		Summary: where,
		Data:    map[string]any{"error": err.Error()},
	})
}
