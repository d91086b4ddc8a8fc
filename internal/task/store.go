package task

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const storeFilename = "protocol_tasks.json"

// Store manages the user's protocol task list with thread-safe operations
type Store struct {
	path  string
	tasks []Task
	mu    sync.RWMutex
}

// NewStore creates a task store rooted at statePath
func NewStore(statePath string) *Store {
	return &Store{
		path:  filepath.Join(statePath, storeFilename),
		tasks: []Task{},
	}
}

// Load reads tasks from disk. A missing file seeds the default protocol.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.tasks = defaultProtocol()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read task store: %w", err)
	}

	if err := json.Unmarshal(data, &s.tasks); err != nil {
		return fmt.Errorf("parse task store: %w", err)
	}
	if s.tasks == nil {
		s.tasks = []Task{}
	}
	return nil
}

// Save writes tasks to disk
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write task store: %w", err)
	}
	return nil
}

var idCounter int64

func generateID() string {
	count := atomic.AddInt64(&idCounter, 1)
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), count)
}

// Add appends a task, assigning an id and default status if unset
func (s *Store) Add(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = generateID()
	}
	if t.Status == "" {
		t.Status = "open"
	}
	s.tasks = append(s.tasks, *t)
}

// Get returns a task by id, or nil
func (s *Store) Get(id string) *Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			t := s.tasks[i]
			return &t
		}
	}
	return nil
}

// All returns a copy of every task ordered by Order
func (s *Store) All() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Open returns the open tasks ordered by Order
func (s *Store) Open() []Task {
	all := s.All()
	out := all[:0]
	for _, t := range all {
		if t.Status == "open" {
			out = append(out, t)
		}
	}
	return out
}

// Complete marks a task completed
func (s *Store) Complete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			now := time.Now()
			s.tasks[i].Status = "completed"
			s.tasks[i].CompletedAt = &now
			return nil
		}
	}
	return fmt.Errorf("task not found: %s", id)
}

// defaultProtocol seeds a first-run task list covering every pillar
func defaultProtocol() []Task {
	seed := []Task{
		{Title: "Lights out by 22:30", Pillar: "sleep", Tags: []string{"routine", "rest"}, Order: 1},
		{Title: "Morning sunlight within 30 minutes of waking", Pillar: "sleep", Tags: []string{"routine", "jetlag"}, Order: 2},
		{Title: "Strength session", Pillar: "movement", Tags: []string{"gym", "workout", "intensity"}, Order: 3},
		{Title: "10k steps", Pillar: "movement", Tags: []string{"mobility", "outdoor"}, Order: 4},
		{Title: "Prep tomorrow's meals", Pillar: "nutrition", Tags: []string{"meal-prep", "routine"}, Order: 5},
		{Title: "2L of water", Pillar: "nutrition", Tags: []string{"hydration"}, Order: 6},
		{Title: "10-minute breathing practice", Pillar: "stress", Tags: []string{"focus", "recovery"}, Order: 7},
		{Title: "Call a friend or family member", Pillar: "connection", Tags: []string{"social"}, Order: 8},
		{Title: "30 minutes offline before bed", Pillar: "environment", Tags: []string{"screen", "offline", "digital"}, Order: 9},
	}
	for i := range seed {
		seed[i].ID = generateID()
		seed[i].Status = "open"
	}
	return seed
}
