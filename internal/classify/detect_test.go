package classify

import (
	"testing"
	"time"

	"github.com/mahlerhutter/extensiovitae/internal/calendar"
	"github.com/mahlerhutter/extensiovitae/internal/mode"
)

func event(title, location string, duration time.Duration, attendees int) calendar.Event {
	ev := calendar.Event{
		ID:       "ev-1",
		Title:    title,
		Location: location,
		Start:    time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC),
	}
	ev.End = ev.Start.Add(duration)
	for i := 0; i < attendees; i++ {
		ev.Attendees = append(ev.Attendees, calendar.Attendee{Email: "someone@example.com"})
	}
	return ev
}

// TestDetectFlightKeywordAndCode tests the highest-confidence rung:
// a flight keyword plus airport codes
func TestDetectFlightKeywordAndCode(t *testing.T) {
	d := DetectFlight(event("LH 401 FRA → JFK", "Frankfurt Airport", time.Hour, 0))
	if d == nil {
		t.Fatal("Expected a flight detection")
	}
	if d.Confidence != 0.95 {
		t.Errorf("Expected confidence 0.95, got %v", d.Confidence)
	}
	if d.SuggestedMode != mode.Travel {
		t.Errorf("Expected suggested mode travel, got %s", d.SuggestedMode)
	}
	if d.TriggerTime == nil {
		t.Fatal("Expected a trigger time")
	}
	want := time.Date(2026, 9, 13, 9, 0, 0, 0, time.UTC)
	if !d.TriggerTime.Equal(want) {
		t.Errorf("Expected trigger 24h before departure (%v), got %v", want, d.TriggerTime)
	}
	codes, _ := d.Metadata["airport_codes"].([]string)
	if len(codes) != 2 {
		t.Errorf("Expected 2 airport codes, got %v", codes)
	}
}

func TestDetectFlightKeywordOnly(t *testing.T) {
	d := DetectFlight(event("Flight to see mom", "", time.Hour, 0))
	if d == nil {
		t.Fatal("Expected a flight detection")
	}
	if d.Confidence != 0.75 {
		t.Errorf("Expected confidence 0.75, got %v", d.Confidence)
	}
}

func TestDetectFlightCodesOnly(t *testing.T) {
	// Two airport codes, no keyword
	d := DetectFlight(event("SFO-NRT", "", time.Hour, 0))
	if d == nil {
		t.Fatal("Expected a flight detection")
	}
	if d.Confidence != 0.70 {
		t.Errorf("Expected confidence 0.70, got %v", d.Confidence)
	}

	// A single code alone is not enough
	if d := DetectFlight(event("Meet at LAX office", "", time.Hour, 0)); d != nil {
		t.Errorf("Expected nil for a single code without keyword, got %v", d.Confidence)
	}
}

func TestDetectFlightIgnoresCommonAcronyms(t *testing.T) {
	if d := DetectFlight(event("OOO ALL day FYI", "", time.Hour, 0)); d != nil {
		t.Errorf("Expected nil for acronym-only title, got %v", d.Metadata["airport_codes"])
	}
}

// TestDetectFocusBlockDurationGate tests the strict 4-hour minimum
func TestDetectFocusBlockDurationGate(t *testing.T) {
	if d := DetectFocusBlock(event("Deep work", "", 3*time.Hour+59*time.Minute, 0)); d != nil {
		t.Error("Expected nil for a 3h59m event")
	}
	if d := DetectFocusBlock(event("Deep work", "", 4*time.Hour, 0)); d == nil {
		t.Error("Expected detection for a 4h00m keyworded event")
	}
}

func TestDetectFocusBlockConfidenceLadder(t *testing.T) {
	cases := []struct {
		name      string
		title     string
		duration  time.Duration
		attendees int
		want      float64 // 0 = expect nil
	}{
		{"keyword solo", "Deep work block", 4 * time.Hour, 0, 0.90},
		{"keyword with attendees", "Writing session", 4 * time.Hour, 2, 0.70},
		{"long solo no keyword", "Blocked", 6 * time.Hour, 0, 0.60},
		{"4h no keyword no attendees", "Blocked", 4 * time.Hour, 0, 0},
		{"long but has attendees, no keyword", "Offsite", 6 * time.Hour, 3, 0},
	}

	for _, tc := range cases {
		d := DetectFocusBlock(event(tc.title, "", tc.duration, tc.attendees))
		if tc.want == 0 {
			if d != nil {
				t.Errorf("%s: expected nil, got %v", tc.name, d.Confidence)
			}
			continue
		}
		if d == nil {
			t.Errorf("%s: expected detection", tc.name)
			continue
		}
		if d.Confidence != tc.want {
			t.Errorf("%s: expected confidence %v, got %v", tc.name, tc.want, d.Confidence)
		}
		if d.SuggestedMode != mode.DeepWork {
			t.Errorf("%s: expected deep_work suggestion, got %s", tc.name, d.SuggestedMode)
		}
	}
}

func TestDetectFocusBlockTriggerAtStart(t *testing.T) {
	ev := event("Deep work", "", 4*time.Hour, 0)
	d := DetectFocusBlock(ev)
	if d == nil || d.TriggerTime == nil {
		t.Fatal("Expected detection with trigger time")
	}
	if !d.TriggerTime.Equal(ev.Start) {
		t.Errorf("Expected trigger at event start, got %v", d.TriggerTime)
	}
}

// TestDetectDoctorAlertOnly verifies health detections never suggest a mode
func TestDetectDoctorAlertOnly(t *testing.T) {
	d := DetectDoctorAppointment(event("Dentist", "City Clinic", time.Hour, 0))
	if d == nil {
		t.Fatal("Expected a doctor detection")
	}
	if d.Confidence != 0.80 {
		t.Errorf("Expected confidence 0.80, got %v", d.Confidence)
	}
	if d.SuggestedMode != "" {
		t.Errorf("Doctor detections must never suggest a mode, got %s", d.SuggestedMode)
	}
	if d.Alert == nil {
		t.Error("Expected an alert payload")
	}
}

func TestDetectDoctorMultilingual(t *testing.T) {
	for _, title := range []string{"Termin beim Arzt", "Cita médica", "Rendez-vous docteur"} {
		if d := DetectDoctorAppointment(event(title, "", time.Hour, 0)); d == nil {
			t.Errorf("Expected detection for %q", title)
		}
	}
}

// TestDetectAllEmpty checks the classifier stays quiet on a boring event
func TestDetectAllEmpty(t *testing.T) {
	ds := DetectAll(event("1:1 with Sam", "Office", 30*time.Minute, 1))
	if len(ds) != 0 {
		t.Errorf("Expected no detections, got %d", len(ds))
	}
}

func TestDetectAllOrder(t *testing.T) {
	// An event matching flight and doctor keywords at once: order is
	// flight, focus, doctor
	ev := event("Flight FRA JFK then hospital checkup", "", 5*time.Hour, 0)
	ds := DetectAll(ev)
	if len(ds) != 2 {
		t.Fatalf("Expected 2 detections, got %d", len(ds))
	}
	if ds[0].Type != TypeFlight || ds[1].Type != TypeDoctorAppointment {
		t.Errorf("Expected [flight, doctor_appointment], got [%s, %s]", ds[0].Type, ds[1].Type)
	}
}

// TestDetectorsAreTotal runs every detector over degenerate events; none
// may panic or error, per the classifier contract
func TestDetectorsAreTotal(t *testing.T) {
	degenerate := []calendar.Event{
		{},
		{Title: "", Start: time.Time{}, End: time.Time{}},
		{Title: "x", Start: time.Now(), End: time.Now().Add(-time.Hour)}, // end before start
	}
	for _, ev := range degenerate {
		DetectAll(ev)
		DetectBusyWeek([]calendar.Event{ev}, time.Now())
	}
}

func TestConfidenceAlwaysInRange(t *testing.T) {
	events := []calendar.Event{
		event("LH 401 FRA → JFK", "Frankfurt Airport", time.Hour, 0),
		event("Flight home", "", time.Hour, 0),
		event("Deep work", "", 8*time.Hour, 0),
		event("Dentist", "", time.Hour, 0),
	}
	for _, ev := range events {
		for _, d := range DetectAll(ev) {
			if d.Confidence < 0 || d.Confidence > 1 {
				t.Errorf("Confidence %v out of [0,1] for %s", d.Confidence, d.Type)
			}
		}
	}
}
