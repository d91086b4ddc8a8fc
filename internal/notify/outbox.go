// Package notify queues user-facing notifications for delivery. The core
// only enqueues; delivery is an effector concern (Discord when configured,
// the log otherwise).
package notify

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mahlerhutter/extensiovitae/internal/logging"
)

// Notification is one user-facing notice
type Notification struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	Status     string    `json:"status"` // pending, sent, failed
	Timestamp  time.Time `json:"timestamp"`
}

// Outbox manages pending notifications, journaled to a JSONL file so
// nothing is lost across restarts.
type Outbox struct {
	mu            sync.RWMutex
	notifications map[string]*Notification
	path          string
}

// NewOutbox creates an outbox journaling under statePath
func NewOutbox(statePath string) *Outbox {
	return &Outbox{
		notifications: make(map[string]*Notification),
		path:          filepath.Join(statePath, "system", "notifications.jsonl"),
	}
}

// Add enqueues a notification, assigning id/status/timestamp
func (o *Outbox) Add(n *Notification) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.Status = "pending"
	n.Timestamp = time.Now()
	o.notifications[n.ID] = n
	o.append(n)
}

// Pending returns all pending notifications, oldest first
func (o *Outbox) Pending() []*Notification {
	o.mu.RLock()
	defer o.mu.RUnlock()

	result := make([]*Notification, 0)
	for _, n := range o.notifications {
		if n.Status == "pending" {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.Before(result[j].Timestamp) })
	return result
}

// MarkSent marks a notification delivered
func (o *Outbox) MarkSent(id string) {
	o.setStatus(id, "sent")
}

// MarkFailed marks a notification undeliverable
func (o *Outbox) MarkFailed(id string) {
	o.setStatus(id, "failed")
}

func (o *Outbox) setStatus(id, status string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	n, ok := o.notifications[id]
	if !ok {
		return
	}
	n.Status = status
	o.append(n)
}

// Load replays the journal; the last line per id wins
func (o *Outbox) Load() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	f, err := os.Open(o.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open outbox journal: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var n Notification
		if err := json.Unmarshal(scanner.Bytes(), &n); err != nil {
			logging.Debug("notify", "skipping corrupt journal line: %v", err)
			continue
		}
		stored := n
		o.notifications[n.ID] = &stored
	}
	return scanner.Err()
}

// Cleanup drops delivered notifications older than maxAge from memory
func (o *Outbox) Cleanup(maxAge time.Duration) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0
	for id, n := range o.notifications {
		if n.Status != "pending" && n.Timestamp.Before(cutoff) {
			delete(o.notifications, id)
			cleaned++
		}
	}
	return cleaned
}

// append journals the current state of n; the caller holds the lock.
// Journal failures are logged, not raised: losing a notification record
// is preferable to losing the notification.
func (o *Outbox) append(n *Notification) {
	if err := os.MkdirAll(filepath.Dir(o.path), 0o755); err != nil {
		logging.Warn("notify", "journal dir create failed: %v", err)
		return
	}
	f, err := os.OpenFile(o.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logging.Warn("notify", "journal open failed: %v", err)
		return
	}
	defer f.Close()

	data, err := json.Marshal(n)
	if err != nil {
		logging.Warn("notify", "journal marshal failed: %v", err)
		return
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		logging.Warn("notify", "journal write failed: %v", err)
	}
}
