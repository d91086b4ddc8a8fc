package task

import "time"

// Task is one entry in the daily wellness protocol
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes,omitempty"`
	Pillar      string     `json:"pillar"`         // sleep, movement, nutrition, stress, connection, environment
	Tags        []string   `json:"tags,omitempty"` // free-form labels modes match against
	Status      string     `json:"status"`         // open, completed
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Order       float64    `json:"order"`
}

// View is a task annotated with the active mode's visibility decisions,
// ready for a renderer. Suppress visually dominating emphasize is a
// presentation convention, not enforced here.
type View struct {
	Task       Task `json:"task"`
	Show       bool `json:"show"`
	Emphasized bool `json:"emphasized"`
	Suppressed bool `json:"suppressed"`
}
