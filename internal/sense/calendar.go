// Package sense drives the periodic sync cycle: fetch calendar events,
// classify them, and hand detections to the bridge.
package sense

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mahlerhutter/extensiovitae/internal/bridge"
	"github.com/mahlerhutter/extensiovitae/internal/calendar"
	"github.com/mahlerhutter/extensiovitae/internal/classify"
	"github.com/mahlerhutter/extensiovitae/internal/logging"
)

// DefaultHorizon is how far ahead a sync cycle looks for events
const DefaultHorizon = 7 * 24 * time.Hour

// EventSource supplies the events for one cycle. The ICS fetcher is the
// production implementation; tests inject a static list.
type EventSource interface {
	Events(ctx context.Context, from, to time.Time) ([]calendar.Event, error)
}

// ICSSource adapts the calendar fetcher/parser/expander into an EventSource
type ICSSource struct {
	fetcher *calendar.Fetcher
	sources []calendar.Source
}

// NewICSSource creates an ICS-backed event source
func NewICSSource(fetcher *calendar.Fetcher, sources []calendar.Source) *ICSSource {
	return &ICSSource{fetcher: fetcher, sources: sources}
}

// Events fetches and expands all subscribed feeds into the window
func (s *ICSSource) Events(ctx context.Context, from, to time.Time) ([]calendar.Event, error) {
	results := s.fetcher.FetchAll(ctx, s.sources)

	var all []calendar.Event
	for _, res := range results {
		raw, err := calendar.ParseICS(res.Source, res.Body)
		if err != nil {
			logging.Warn("sense", "parse %s failed: %v", res.Source.ID, err)
			continue
		}
		all = append(all, calendar.ExpandWindow(raw, from, to)...)
	}
	return all, nil
}

// CalendarSense runs classification cycles over the event source. A
// single-flight guard ensures two overlapping cycles (timer tick plus a
// manual run) cannot double-process the same real-world trigger.
type CalendarSense struct {
	source  EventSource
	bridge  *bridge.Bridge
	horizon time.Duration

	mu         sync.Mutex
	inFlight   bool
	lastCycle  time.Time
	seen       map[string]time.Time // detection dedup key -> first seen
	lastBusyWk string               // week (YYYY-MM-DD of Monday) we last alerted busy
}

// New creates a calendar sense
func New(source EventSource, b *bridge.Bridge) *CalendarSense {
	return &CalendarSense{
		source:  source,
		bridge:  b,
		horizon: DefaultHorizon,
		seen:    make(map[string]time.Time),
	}
}

// RunCycle executes one sync cycle: fetch, classify, bridge. Returns the
// detections that were handed to the bridge (after dedup). A cycle already
// in flight makes this call a no-op.
func (s *CalendarSense) RunCycle(ctx context.Context) ([]*classify.Detection, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		logging.Debug("sense", "cycle already in flight, skipping")
		return nil, nil
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.lastCycle = time.Now()
		s.mu.Unlock()
	}()

	now := time.Now()
	events, err := s.source.Events(ctx, now, now.Add(s.horizon))
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	logging.Debug("sense", "cycle sees %d events", len(events))

	detections := s.classify(events, now)
	if len(detections) == 0 {
		return nil, nil
	}

	s.bridge.Apply(detections)
	return detections, nil
}

// classify runs all detectors and filters out detections already surfaced
// in the last 24 hours.
func (s *CalendarSense) classify(events []calendar.Event, now time.Time) []*classify.Detection {
	var out []*classify.Detection

	for _, ev := range events {
		if ev.Status == "cancelled" {
			continue
		}
		for _, d := range classify.DetectAll(ev) {
			key := fmt.Sprintf("%s/%s", d.Type, ev.ID)
			if s.alreadySeen(key, now) {
				continue
			}
			out = append(out, d)
		}
	}

	// Busy-week aggregation runs once per cycle over the whole window,
	// and alerts at most once per calendar week.
	weekStart := startOfWeek(now)
	if d := classify.DetectBusyWeek(events, weekStart); d != nil {
		week := weekStart.Format("2006-01-02")
		s.mu.Lock()
		fresh := s.lastBusyWk != week
		if fresh {
			s.lastBusyWk = week
		}
		s.mu.Unlock()
		if fresh {
			out = append(out, d)
		}
	}

	s.cleanupSeen(now)
	return out
}

func (s *CalendarSense) alreadySeen(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return true
	}
	s.seen[key] = now
	return false
}

func (s *CalendarSense) cleanupSeen(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-24 * time.Hour)
	for key, at := range s.seen {
		if at.Before(cutoff) {
			delete(s.seen, key)
		}
	}
}

// LastCycle returns when the last cycle finished
func (s *CalendarSense) LastCycle() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCycle
}

// startOfWeek returns midnight on the Monday of now's week
func startOfWeek(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return day.AddDate(0, 0, -(weekday - 1))
}
