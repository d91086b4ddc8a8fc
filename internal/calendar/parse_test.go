package calendar

import (
	"strings"
	"testing"
	"time"
)

const sampleICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//EN
BEGIN:VEVENT
UID:flight-1@example.com
DTSTART:20260916T061500Z
DTEND:20260916T151000Z
SUMMARY:Flight LH 401 FRA to JFK
LOCATION:Frankfurt Airport
STATUS:CONFIRMED
END:VEVENT
BEGIN:VEVENT
UID:standup@example.com
DTSTART:20260914T090000Z
DTEND:20260914T091500Z
SUMMARY:Daily standup
RRULE:FREQ=DAILY;COUNT=10
EXDATE:20260916T090000Z
ATTENDEE;CN=Jordan Lee:mailto:jordan@example.com
ATTENDEE:mailto:sam@example.com
END:VEVENT
BEGIN:VEVENT
UID:holiday@example.com
DTSTART;VALUE=DATE:20260918
DTEND;VALUE=DATE:20260919
SUMMARY:Public holiday
END:VEVENT
END:VCALENDAR
`

func testSource() Source {
	return Source{ID: "personal", Name: "Personal", URL: "https://example.com/cal.ics"}
}

func TestParseICS(t *testing.T) {
	events, err := ParseICS(testSource(), []byte(sampleICS))
	if err != nil {
		t.Fatalf("ParseICS failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}

	flight := events[0]
	if flight.UID != "flight-1@example.com" {
		t.Errorf("Unexpected UID %s", flight.UID)
	}
	if flight.Summary != "Flight LH 401 FRA to JFK" {
		t.Errorf("Unexpected summary %q", flight.Summary)
	}
	if flight.Location != "Frankfurt Airport" {
		t.Errorf("Unexpected location %q", flight.Location)
	}
	if flight.Status != "confirmed" {
		t.Errorf("Expected lowercased status, got %q", flight.Status)
	}
	want := time.Date(2026, 9, 16, 6, 15, 0, 0, time.UTC)
	if !flight.Start.Equal(want) {
		t.Errorf("Expected start %v, got %v", want, flight.Start)
	}
	if flight.AllDay {
		t.Error("Timed event marked all-day")
	}

	standup := events[1]
	if standup.RawRRule != "FREQ=DAILY;COUNT=10" {
		t.Errorf("Unexpected RRULE %q", standup.RawRRule)
	}
	if len(standup.ExDates) != 1 {
		t.Fatalf("Expected 1 EXDATE, got %d", len(standup.ExDates))
	}
	if len(standup.Attendees) != 2 {
		t.Fatalf("Expected 2 attendees, got %d", len(standup.Attendees))
	}
	if standup.Attendees[0].DisplayName != "Jordan Lee" || standup.Attendees[0].Email != "jordan@example.com" {
		t.Errorf("Unexpected attendee %+v", standup.Attendees[0])
	}
	if standup.Attendees[1].Email != "sam@example.com" {
		t.Errorf("Unexpected attendee %+v", standup.Attendees[1])
	}

	holiday := events[2]
	if !holiday.AllDay {
		t.Error("VALUE=DATE event not marked all-day")
	}
}

func TestParseICSEmptyBody(t *testing.T) {
	if _, err := ParseICS(testSource(), nil); err == nil {
		t.Error("Expected error for empty body")
	}
}

func TestParseICSSkipsEventWithoutUID(t *testing.T) {
	ics := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//EN
BEGIN:VEVENT
DTSTART:20260916T061500Z
DTEND:20260916T070000Z
SUMMARY:No UID here
END:VEVENT
BEGIN:VEVENT
UID:good@example.com
DTSTART:20260916T080000Z
DTEND:20260916T090000Z
SUMMARY:Valid
END:VEVENT
END:VCALENDAR
`
	events, err := ParseICS(testSource(), []byte(ics))
	if err != nil {
		t.Fatalf("ParseICS failed: %v", err)
	}
	if len(events) != 1 || events[0].UID != "good@example.com" {
		t.Errorf("Expected only the valid event, got %+v", events)
	}
}

func TestParseICSTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"20260916T061500Z", time.Date(2026, 9, 16, 6, 15, 0, 0, time.UTC)},
		{"20260916T061500", time.Date(2026, 9, 16, 6, 15, 0, 0, time.Local)},
		{"20260916", time.Date(2026, 9, 16, 0, 0, 0, 0, time.Local)},
	}
	for _, tt := range tests {
		got, err := parseICSTime(tt.in)
		if err != nil {
			t.Errorf("parseICSTime(%q) errored: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseICSTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := parseICSTime(""); err == nil {
		t.Error("Expected error for empty value")
	}
}

func TestEventHelpers(t *testing.T) {
	start := time.Date(2026, 9, 16, 9, 0, 0, 0, time.UTC)
	ev := Event{
		ID:    "e1",
		Title: "Review",
		Start: start,
		End:   start.Add(90 * time.Minute),
	}
	if ev.Duration() != 90*time.Minute {
		t.Errorf("Expected 90m duration, got %v", ev.Duration())
	}
	if ev.Day() != "2026-09-16" {
		t.Errorf("Expected day 2026-09-16, got %s", ev.Day())
	}
	if !strings.Contains(ev.Summary(), "Review") {
		t.Errorf("Summary should mention the title, got %q", ev.Summary())
	}
}
