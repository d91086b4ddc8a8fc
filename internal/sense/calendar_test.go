package sense

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mahlerhutter/extensiovitae/internal/bridge"
	"github.com/mahlerhutter/extensiovitae/internal/calendar"
	"github.com/mahlerhutter/extensiovitae/internal/classify"
	"github.com/mahlerhutter/extensiovitae/internal/mode"
	"github.com/mahlerhutter/extensiovitae/internal/settings"
)

type staticSource struct {
	mu       sync.Mutex
	events   []calendar.Event
	calls    int
	blocked  chan struct{} // when set, Events blocks until closed
	started  chan struct{}
	startSig sync.Once
}

func (s *staticSource) Events(ctx context.Context, from, to time.Time) ([]calendar.Event, error) {
	s.mu.Lock()
	s.calls++
	blocked := s.blocked
	s.mu.Unlock()

	if s.started != nil {
		s.startSig.Do(func() { close(s.started) })
	}
	if blocked != nil {
		<-blocked
	}
	return s.events, nil
}

func newTestSense(t *testing.T, src EventSource, prep func(*settings.Settings)) (*CalendarSense, *mode.Controller) {
	t.Helper()
	dir := t.TempDir()

	registry, err := mode.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	controller := mode.NewController(registry, nil)

	settingsStore := settings.NewStore(dir)
	if err := settingsStore.Load(); err != nil {
		t.Fatalf("settings Load failed: %v", err)
	}
	if prep != nil {
		if err := settingsStore.Update(prep); err != nil {
			t.Fatalf("settings Update failed: %v", err)
		}
	}

	b := bridge.New(controller, registry, settingsStore, nil, nil)
	return New(src, b), controller
}

func flightEvent(id string, start time.Time) calendar.Event {
	return calendar.Event{
		ID:    id,
		Title: "Flight LH 401 FRA to JFK",
		Start: start,
		End:   start.Add(9 * time.Hour),
	}
}

func TestRunCycleActivatesFromFlight(t *testing.T) {
	src := &staticSource{events: []calendar.Event{flightEvent("evt-1", time.Now().Add(48 * time.Hour))}}
	sense, controller := newTestSense(t, src, func(s *settings.Settings) {
		s.AutoActivateTravel = true
	})

	detections, err := sense.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("Expected 1 detection, got %d", len(detections))
	}
	if detections[0].Type != classify.TypeFlight {
		t.Errorf("Expected flight detection, got %s", detections[0].Type)
	}
	if controller.Current() != mode.Travel {
		t.Errorf("Expected travel active after cycle, got %s", controller.Current())
	}
}

// TestRunCycleDedupsAcrossCycles verifies the same event does not re-trigger
// on every hourly cycle
func TestRunCycleDedupsAcrossCycles(t *testing.T) {
	src := &staticSource{events: []calendar.Event{flightEvent("evt-1", time.Now().Add(48 * time.Hour))}}
	sense, _ := newTestSense(t, src, nil)

	first, err := sense.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("first cycle failed: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("Expected 1 detection in first cycle, got %d", len(first))
	}

	second, err := sense.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("second cycle failed: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("Expected duplicate detection suppressed, got %d", len(second))
	}
}

func TestRunCycleSkipsCancelledEvents(t *testing.T) {
	ev := flightEvent("evt-1", time.Now().Add(48*time.Hour))
	ev.Status = "cancelled"
	src := &staticSource{events: []calendar.Event{ev}}
	sense, _ := newTestSense(t, src, nil)

	detections, err := sense.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if len(detections) != 0 {
		t.Errorf("Expected cancelled event ignored, got %d detections", len(detections))
	}
}

// TestRunCycleSingleFlight verifies an overlapping cycle is a no-op rather
// than a queued second pass
func TestRunCycleSingleFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	src := &staticSource{blocked: release, started: started}
	sense, _ := newTestSense(t, src, nil)

	done := make(chan struct{})
	go func() {
		sense.RunCycle(context.Background())
		close(done)
	}()

	<-started
	detections, err := sense.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("overlapping RunCycle errored: %v", err)
	}
	if detections != nil {
		t.Error("Expected overlapping cycle to be a no-op")
	}

	src.mu.Lock()
	calls := src.calls
	src.mu.Unlock()
	if calls != 1 {
		t.Errorf("Expected 1 source call during overlap, got %d", calls)
	}

	close(release)
	<-done
}

func TestRunCycleBusyWeekOncePerWeek(t *testing.T) {
	// Three weekdays with three attendee-bearing meetings each, inside the
	// current week so the aggregation window catches them
	var events []calendar.Event
	base := startOfWeek(time.Now())
	for day := 0; day < 3; day++ {
		for m := 0; m < 3; m++ {
			start := base.AddDate(0, 0, day).Add(time.Duration(9+m) * time.Hour)
			events = append(events, calendar.Event{
				ID:    string(rune('a'+day)) + string(rune('0'+m)),
				Title: "Team sync",
				Start: start,
				End:   start.Add(30 * time.Minute),
				Attendees: []calendar.Attendee{
					{Email: "me@example.com", Self: true},
					{Email: "peer@example.com"},
				},
			})
		}
	}

	src := &staticSource{events: events}
	sense, controller := newTestSense(t, src, func(s *settings.Settings) {
		s.AlertBusyWeeks = true
	})

	first, err := sense.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("first cycle failed: %v", err)
	}
	var busy *classify.Detection
	for _, d := range first {
		if d.Type == classify.TypeBusyWeek {
			busy = d
		}
	}
	if busy == nil {
		t.Fatal("Expected a busy-week detection")
	}
	if controller.Current() != mode.Normal {
		t.Errorf("Busy week must stay alert-only, got mode %s", controller.Current())
	}

	second, err := sense.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("second cycle failed: %v", err)
	}
	for _, d := range second {
		if d.Type == classify.TypeBusyWeek {
			t.Error("Expected at most one busy-week alert per week")
		}
	}
}
