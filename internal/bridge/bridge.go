// Package bridge connects classifier output to the mode controller. It is
// the only place automatic mode changes originate, and every one of them
// passes through the user's settings gate and leaves an audit record.
package bridge

import (
	"fmt"

	"github.com/mahlerhutter/extensiovitae/internal/audit"
	"github.com/mahlerhutter/extensiovitae/internal/classify"
	"github.com/mahlerhutter/extensiovitae/internal/logging"
	"github.com/mahlerhutter/extensiovitae/internal/mode"
	"github.com/mahlerhutter/extensiovitae/internal/notify"
	"github.com/mahlerhutter/extensiovitae/internal/settings"
)

// ShouldAutoActivate reports whether the user allows this detection type to
// switch modes automatically. Busy weeks and doctor appointments are
// alert-only by design: they return false no matter what the settings say.
func ShouldAutoActivate(detectionType classify.Type, s settings.Settings) bool {
	switch detectionType {
	case classify.TypeFlight:
		return s.AutoActivateTravel
	case classify.TypeFocusBlock:
		return s.AutoActivateDeepWork
	default:
		return false
	}
}

// Bridge applies detections to the controller and the notification outbox
type Bridge struct {
	controller *mode.Controller
	registry   *mode.Registry
	settings   *settings.Store
	outbox     *notify.Outbox
	audit      *audit.Log
}

// New creates a bridge. outbox and auditLog may be nil in tests.
func New(controller *mode.Controller, registry *mode.Registry, settingsStore *settings.Store, outbox *notify.Outbox, auditLog *audit.Log) *Bridge {
	return &Bridge{
		controller: controller,
		registry:   registry,
		settings:   settingsStore,
		outbox:     outbox,
		audit:      auditLog,
	}
}

// Apply processes a batch of detections from one classification pass.
// Mode-suggesting detections that pass the settings gate activate their
// mode; alert-only detections surface their alert. Returns how many
// activations happened.
func (b *Bridge) Apply(detections []*classify.Detection) int {
	s := b.settings.Get()
	activated := 0

	for _, d := range detections {
		b.auditWrite(func() error {
			return b.audit.Detection(d.ID, string(d.Type), fmt.Sprintf("%s detected", d.Type), d.Confidence)
		})

		switch {
		case d.SuggestedMode != "" && ShouldAutoActivate(d.Type, s):
			b.activate(d)
			activated++

		case d.Alert != nil && b.alertEnabled(d.Type, s):
			b.notifyAlert(d)

		default:
			logging.Debug("bridge", "detection %s (%s) not actionable under current settings", d.ID, d.Type)
		}
	}
	return activated
}

func (b *Bridge) activate(d *classify.Detection) {
	b.controller.Activate(d.SuggestedMode, map[string]any{
		"trigger":        "calendar_auto_activation",
		"detection_type": string(d.Type),
		"confidence":     d.Confidence,
	})

	b.auditWrite(func() error {
		return b.audit.AutoActivation(d.ID, string(d.SuggestedMode), d.Confidence)
	})

	if b.outbox != nil {
		cfg := b.registry.Config(d.SuggestedMode)
		b.outbox.Add(&notify.Notification{
			Title:   fmt.Sprintf("%s %s mode engaged", cfg.Icon, cfg.Name),
			Message: fmt.Sprintf("Your calendar suggests %s (confidence %.0f%%). Your protocol has been adapted.", d.Type, d.Confidence*100),
		})
	}

	logging.Info("bridge", "auto-activated %s from %s detection (%.2f)", d.SuggestedMode, d.Type, d.Confidence)
}

func (b *Bridge) notifyAlert(d *classify.Detection) {
	if b.outbox != nil {
		b.outbox.Add(&notify.Notification{
			Title:      d.Alert.Title,
			Message:    d.Alert.Message,
			Suggestion: d.Alert.Suggestion,
		})
	}
	b.auditWrite(func() error {
		return b.audit.Alert(d.ID, d.Alert.Title)
	})
	logging.Info("bridge", "alert surfaced: %s", d.Alert.Title)
}

// alertEnabled gates alert-only detections. Doctor appointments always
// alert; busy weeks honor the alert_busy_weeks setting.
func (b *Bridge) alertEnabled(detectionType classify.Type, s settings.Settings) bool {
	if detectionType == classify.TypeBusyWeek {
		return s.AlertBusyWeeks
	}
	return true
}

func (b *Bridge) auditWrite(fn func() error) {
	if b.audit == nil {
		return
	}
	if err := fn(); err != nil {
		logging.Debug("bridge", "audit write failed: %v", err)
	}
}
