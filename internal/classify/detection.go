package classify

import (
	"time"

	"github.com/google/uuid"

	"github.com/mahlerhutter/extensiovitae/internal/mode"
)

// Type identifies which detector produced a detection
type Type string

const (
	TypeFlight            Type = "flight"
	TypeFocusBlock        Type = "focus_block"
	TypeBusyWeek          Type = "busy_week"
	TypeDoctorAppointment Type = "doctor_appointment"
)

// Alert is the user-facing notice attached to alert-only detections
type Alert struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Detection is a confidence-scored hypothesis derived from calendar events.
// Detections are plain values: computed fresh each classification pass,
// never persisted by this core.
type Detection struct {
	ID         string  `json:"id"`
	Type       Type    `json:"type"`
	Confidence float64 `json:"confidence"` // always in [0,1]

	// TriggerTime marks when a mode should begin; nil for alert-only types
	TriggerTime *time.Time `json:"trigger_time,omitempty"`

	// SuggestedMode is empty for alert-only detections (busy_week,
	// doctor_appointment never suggest a mode)
	SuggestedMode mode.ID `json:"suggested_mode,omitempty"`

	// EventID links back to the event(s) that produced this detection
	EventID string `json:"event_id,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
	Alert    *Alert         `json:"alert,omitempty"`
}

func newDetection(typ Type, confidence float64) *Detection {
	return &Detection{
		ID:         uuid.NewString(),
		Type:       typ,
		Confidence: confidence,
		Metadata:   map[string]any{},
	}
}
