package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/mahlerhutter/extensiovitae/internal/logging"
)

// maxOccurrencesPerEvent caps recurrence expansion so a pathological RRULE
// cannot blow up a sync cycle.
const maxOccurrencesPerEvent = 366

// ExpandWindow turns raw parsed events into concrete Events within
// [rangeStart, rangeEnd). Non-recurring events pass through if they overlap
// the window; RRULE events are expanded with EXDATEs removed.
func ExpandWindow(raw []parsedEvent, rangeStart, rangeEnd time.Time) []Event {
	out := make([]Event, 0, len(raw))

	for _, pe := range raw {
		if pe.RawRRule == "" {
			if pe.End.After(rangeStart) && pe.Start.Before(rangeEnd) {
				out = append(out, pe.toEvent(pe.Start, pe.End, ""))
			}
			continue
		}

		r, err := rrule.StrToRRule(pe.RawRRule)
		if err != nil {
			logging.Warn("calendar", "bad RRULE on %s, keeping master only: %v", pe.UID, err)
			if pe.End.After(rangeStart) && pe.Start.Before(rangeEnd) {
				out = append(out, pe.toEvent(pe.Start, pe.End, ""))
			}
			continue
		}
		r.DTStart(pe.Start)

		excluded := make(map[int64]bool, len(pe.ExDates))
		for _, ex := range pe.ExDates {
			excluded[ex.Unix()] = true
		}

		duration := pe.End.Sub(pe.Start)
		occurrences := r.Between(rangeStart.Add(-duration), rangeEnd, true)
		if len(occurrences) > maxOccurrencesPerEvent {
			logging.Warn("calendar", "truncating expansion of %s at %d occurrences", pe.UID, maxOccurrencesPerEvent)
			occurrences = occurrences[:maxOccurrencesPerEvent]
		}

		for _, start := range occurrences {
			if excluded[start.Unix()] {
				continue
			}
			end := start.Add(duration)
			if !end.After(rangeStart) || !start.Before(rangeEnd) {
				continue
			}
			out = append(out, pe.toEvent(start, end, start.Format("20060102T150405")))
		}
	}

	return out
}

func (pe parsedEvent) toEvent(start, end time.Time, instance string) Event {
	id := pe.UID
	if instance != "" {
		id = fmt.Sprintf("%s/%s", pe.UID, instance)
	}
	if pe.Source.ID != "" {
		id = pe.Source.ID + ":" + id
	}
	return Event{
		ID:          id,
		Title:       pe.Summary,
		Description: pe.Description,
		Location:    pe.Location,
		Start:       start,
		End:         end,
		Attendees:   pe.Attendees,
		AllDay:      pe.AllDay,
		Status:      pe.Status,
	}
}
