// Package classify turns raw calendar events into confidence-scored
// detections. Every detector is a total function: nil on a non-match,
// never an error, never a panic. That contract lets the sync layer run
// them unconditionally over any event stream.
package classify

import (
	"fmt"
	"strings"
	"time"

	"github.com/mahlerhutter/extensiovitae/internal/calendar"
	"github.com/mahlerhutter/extensiovitae/internal/mode"
)

const (
	focusMinDuration  = 4 * time.Hour
	focusLongDuration = 6 * time.Hour
	flightLeadTime    = 24 * time.Hour
)

// DetectFlight checks a single event for flight signals. Confidence ladder:
// keyword + airport code 0.95, keyword only 0.75, two or more codes without
// a keyword 0.70. Positive matches suggest travel mode with a trigger 24
// hours before departure so the protocol can adapt a day ahead.
func DetectFlight(ev calendar.Event) *Detection {
	raw := ev.Title + " " + ev.Location + " " + ev.Description
	text := strings.ToLower(raw)

	keywords := matchKeywords(text, flightKeywords)
	codes := findAirportCodes(raw)

	var confidence float64
	switch {
	case len(keywords) > 0 && len(codes) > 0:
		confidence = 0.95
	case len(keywords) > 0:
		confidence = 0.75
	case len(codes) >= 2:
		confidence = 0.70
	default:
		return nil
	}

	d := newDetection(TypeFlight, confidence)
	d.EventID = ev.ID
	d.SuggestedMode = mode.Travel
	trigger := ev.Start.Add(-flightLeadTime)
	d.TriggerTime = &trigger
	d.Metadata["matched_keywords"] = keywords
	d.Metadata["airport_codes"] = codes
	d.Metadata["departure"] = ev.Start
	return d
}

// DetectFocusBlock checks a single event for a long focused-work block.
// Events shorter than four hours never match. Confidence: keyword with no
// attendees 0.90, keyword with attendees 0.70, no keyword but six-plus
// hours solo 0.60.
func DetectFocusBlock(ev calendar.Event) *Detection {
	duration := ev.Duration()
	if duration < focusMinDuration {
		return nil
	}

	text := strings.ToLower(ev.Title + " " + ev.Location + " " + ev.Description)
	keywords := matchKeywords(text, focusKeywords)
	solo := len(ev.Attendees) == 0

	var confidence float64
	switch {
	case len(keywords) > 0 && solo:
		confidence = 0.90
	case len(keywords) > 0:
		confidence = 0.70
	case solo && duration >= focusLongDuration:
		confidence = 0.60
	default:
		return nil
	}

	d := newDetection(TypeFocusBlock, confidence)
	d.EventID = ev.ID
	d.SuggestedMode = mode.DeepWork
	trigger := ev.Start
	d.TriggerTime = &trigger
	d.Metadata["matched_keywords"] = keywords
	d.Metadata["duration_hours"] = duration.Hours()
	d.Metadata["attendee_count"] = len(ev.Attendees)
	return d
}

// DetectDoctorAppointment checks a single event for health/medical signals.
// Always alert-only: it never suggests a mode, regardless of settings.
func DetectDoctorAppointment(ev calendar.Event) *Detection {
	text := strings.ToLower(ev.Title + " " + ev.Location + " " + ev.Description)
	keywords := matchKeywords(text, doctorKeywords)
	if len(keywords) == 0 {
		return nil
	}

	d := newDetection(TypeDoctorAppointment, 0.80)
	d.EventID = ev.ID
	d.Metadata["matched_keywords"] = keywords
	d.Metadata["appointment_time"] = ev.Start
	d.Alert = &Alert{
		Title:      "Health appointment coming up",
		Message:    fmt.Sprintf("%s on %s", ev.Title, ev.Start.Format("Mon Jan 2, 15:04")),
		Suggestion: "Keep the evening light and prioritize sleep the night before.",
	}
	return d
}

// DetectAll runs the per-event detectors (flight, focus block, doctor
// appointment, in that order) and returns the non-nil results. Busy-week
// detection runs separately via DetectBusyWeek since it aggregates across
// events.
func DetectAll(ev calendar.Event) []*Detection {
	var out []*Detection
	if d := DetectFlight(ev); d != nil {
		out = append(out, d)
	}
	if d := DetectFocusBlock(ev); d != nil {
		out = append(out, d)
	}
	if d := DetectDoctorAppointment(ev); d != nil {
		out = append(out, d)
	}
	return out
}
