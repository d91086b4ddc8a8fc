package classify

import (
	"fmt"
	"sort"
	"time"

	"github.com/mahlerhutter/extensiovitae/internal/calendar"
)

const (
	busyMeetingsPerDay = 3
	busyDaysPerWeek    = 3
)

// DetectBusyWeek scans a week of events for meeting overload. Only events
// carrying at least one attendee count as meetings; long solo blocks are
// deliberately excluded from the busy count. A day qualifies with three or
// more meetings; three or more qualifying days produce an alert-only
// detection with fixed confidence 0.85.
func DetectBusyWeek(events []calendar.Event, weekStart time.Time) *Detection {
	meetingsByDay := map[string]int{}
	totalMeetings := 0
	for _, ev := range events {
		if len(ev.Attendees) == 0 {
			continue
		}
		meetingsByDay[ev.Day()]++
		totalMeetings++
	}

	busyDays := make([]string, 0)
	for day, count := range meetingsByDay {
		if count >= busyMeetingsPerDay {
			busyDays = append(busyDays, day)
		}
	}
	if len(busyDays) < busyDaysPerWeek {
		return nil
	}
	sort.Strings(busyDays)

	breakdown := map[string]int{}
	for _, day := range busyDays {
		breakdown[day] = meetingsByDay[day]
	}

	d := newDetection(TypeBusyWeek, 0.85)
	d.Metadata["week_start"] = weekStart.Format("2006-01-02")
	d.Metadata["busy_days_count"] = len(busyDays)
	d.Metadata["total_meetings"] = totalMeetings
	d.Metadata["busy_days"] = breakdown
	d.Alert = &Alert{
		Title: "Busy week ahead",
		Message: fmt.Sprintf("%d days this week have %d+ meetings (%d meetings total).",
			len(busyDays), busyMeetingsPerDay, totalMeetings),
		Suggestion: "Consider protecting recovery: shorter workouts, earlier nights, and a hard stop each evening.",
	}
	return d
}
