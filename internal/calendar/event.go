package calendar

import (
	"fmt"
	"time"
)

// Attendee is a participant on a calendar event
type Attendee struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Self        bool   `json:"self,omitempty"`
}

// Event is a normalized calendar event as consumed by the classifier.
// Events are read-only once produced by the sync layer.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Attendees   []Attendee `json:"attendees,omitempty"`
	AllDay      bool       `json:"all_day,omitempty"`
	Status      string     `json:"status,omitempty"` // confirmed, tentative, cancelled
}

// Duration returns the event length
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Day returns the calendar day (YYYY-MM-DD) the event starts on,
// in the event's own timezone.
func (e Event) Day() string {
	return e.Start.Format("2006-01-02")
}

// Summary returns a short one-line description for logs
func (e Event) Summary() string {
	return fmt.Sprintf("%s (%s, %d attendees)", e.Title, e.Start.Format(time.RFC3339), len(e.Attendees))
}
