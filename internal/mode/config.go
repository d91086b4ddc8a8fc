package mode

import (
	"fmt"
	"strings"
)

// ID identifies an operating mode. The set of modes is closed; anything
// outside it resolves to Normal at lookup time.
type ID string

const (
	Normal   ID = "normal"
	Travel   ID = "travel"
	Sick     ID = "sick"
	Detox    ID = "detox"
	DeepWork ID = "deep_work"
)

// AllIDs returns every mode id in display order
func AllIDs() []ID {
	return []ID{Normal, Travel, Sick, Detox, DeepWork}
}

// Valid reports whether id names a known mode
func (id ID) Valid() bool {
	switch id {
	case Normal, Travel, Sick, Detox, DeepWork:
		return true
	}
	return false
}

// ParseID normalizes a raw string into a mode ID. ok is false for
// anything outside the closed set.
func ParseID(s string) (ID, bool) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	return id, id.Valid()
}

// Pillars are the lifestyle categories tasks belong to
var Pillars = []string{"sleep", "movement", "nutrition", "stress", "connection", "environment"}

// KnownPillar reports whether name is a recognized pillar (case-insensitive)
func KnownPillar(name string) bool {
	name = strings.ToLower(name)
	for _, p := range Pillars {
		if p == name {
			return true
		}
	}
	return false
}

// PillarAdjustment describes how a mode reshapes one pillar
type PillarAdjustment struct {
	Priority    string   `yaml:"priority" json:"priority"` // high, medium, low
	Adjustments []string `yaml:"adjustments" json:"adjustments"`
}

// TaskModifications are the filter/emphasize/suppress rules a mode applies
// to the daily task list. A nil Filter means no pillar restriction.
type TaskModifications struct {
	Filter    []string `yaml:"filter" json:"filter,omitempty"`
	Emphasize []string `yaml:"emphasize" json:"emphasize,omitempty"`
	Suppress  []string `yaml:"suppress" json:"suppress,omitempty"`
}

// NotificationPolicy controls notification suppression while a mode is active
type NotificationPolicy struct {
	Suppress      bool     `yaml:"suppress" json:"suppress"`
	DurationHours *int     `yaml:"duration_hours" json:"duration_hours,omitempty"`
	Exceptions    []string `yaml:"exceptions" json:"exceptions,omitempty"`
}

// Config is the full static configuration of one mode. Configs are built
// (or overlaid) once at startup and never mutated afterwards.
type Config struct {
	ID          ID     `yaml:"-" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Icon        string `yaml:"icon" json:"icon"`
	Color       string `yaml:"color" json:"color"`
	Description string `yaml:"description" json:"description"`
	Focus       string `yaml:"focus" json:"focus"`

	Pillars       map[string]PillarAdjustment `yaml:"pillars" json:"pillars,omitempty"`
	TaskMods      TaskModifications           `yaml:"task_modifications" json:"task_modifications"`
	Notifications *NotificationPolicy         `yaml:"notifications" json:"notifications,omitempty"`
}

func (c *Config) validate() error {
	if !c.ID.Valid() {
		return fmt.Errorf("unknown mode id %q", c.ID)
	}
	if c.Name == "" {
		return fmt.Errorf("mode %s: name is required", c.ID)
	}
	for pillar := range c.Pillars {
		if !KnownPillar(pillar) {
			return fmt.Errorf("mode %s: unknown pillar %q", c.ID, pillar)
		}
	}
	for _, pillar := range c.TaskMods.Filter {
		if !KnownPillar(pillar) {
			return fmt.Errorf("mode %s: filter references unknown pillar %q", c.ID, pillar)
		}
	}
	if n := c.Notifications; n != nil && n.DurationHours != nil && *n.DurationHours <= 0 {
		return fmt.Errorf("mode %s: notification duration must be positive", c.ID)
	}
	return nil
}

func hours(h int) *int { return &h }

// builtins returns the compiled-in mode catalog
func builtins() map[ID]*Config {
	return map[ID]*Config{
		Normal: {
			ID:          Normal,
			Name:        "Normal",
			Icon:        "🌿",
			Color:       "#4caf50",
			Description: "Your standard daily protocol",
			Focus:       "Steady habits across all pillars",
		},
		Travel: {
			ID:          Travel,
			Name:        "Travel",
			Icon:        "✈️",
			Color:       "#2196f3",
			Description: "Adapted protocol for days in transit and away from home",
			Focus:       "Protect sleep and hydration across time zones",
			Pillars: map[string]PillarAdjustment{
				"sleep": {Priority: "high", Adjustments: []string{
					"Shift your sleep window toward the destination timezone",
					"Get bright light exposure on arrival morning",
				}},
				"movement": {Priority: "medium", Adjustments: []string{
					"Walk the terminal instead of sitting at the gate",
					"Stand and stretch every two hours in transit",
				}},
				"nutrition": {Priority: "medium", Adjustments: []string{
					"Hydrate aggressively before and during the flight",
					"Skip alcohol in the air",
				}},
				"stress": {Priority: "medium", Adjustments: []string{
					"Two-minute breathing exercise before boarding",
				}},
			},
			TaskMods: TaskModifications{
				Filter:    []string{"sleep", "movement", "nutrition", "stress"},
				Emphasize: []string{"hydration", "mobility", "jetlag"},
				Suppress:  []string{"gym", "meal-prep", "routine"},
			},
			Notifications: &NotificationPolicy{Suppress: true, DurationHours: hours(24), Exceptions: []string{"medication", "critical"}},
		},
		Sick: {
			ID:          Sick,
			Name:        "Sick",
			Icon:        "🤒",
			Color:       "#ff9800",
			Description: "Recovery protocol while you are ill",
			Focus:       "Rest and recover; everything else can wait",
			Pillars: map[string]PillarAdjustment{
				"sleep": {Priority: "high", Adjustments: []string{
					"Sleep as much as your body asks for",
					"No alarms unless unavoidable",
				}},
				"nutrition": {Priority: "high", Adjustments: []string{
					"Warm fluids through the day",
					"Eat light, eat easy",
				}},
				"movement": {Priority: "low", Adjustments: []string{
					"Gentle walking only if you feel up to it",
				}},
			},
			TaskMods: TaskModifications{
				Filter:    []string{"sleep", "nutrition"},
				Emphasize: []string{"rest", "hydration", "recovery"},
				Suppress:  []string{"workout", "intensity", "social"},
			},
			Notifications: &NotificationPolicy{Suppress: true, DurationHours: hours(48), Exceptions: []string{"medication"}},
		},
		Detox: {
			ID:          Detox,
			Name:        "Digital Detox",
			Icon:        "🔌",
			Color:       "#9c27b0",
			Description: "Reduced-screen protocol for disconnecting",
			Focus:       "Swap screen time for the physical world",
			Pillars: map[string]PillarAdjustment{
				"environment": {Priority: "high", Adjustments: []string{
					"Phone stays outside the bedroom",
					"Grayscale the screen you cannot avoid",
				}},
				"connection": {Priority: "high", Adjustments: []string{
					"Replace one scroll session with a call or a walk with someone",
				}},
				"stress": {Priority: "medium", Adjustments: []string{
					"Notice the urge to check; let it pass once per day",
				}},
			},
			TaskMods: TaskModifications{
				Emphasize: []string{"offline", "nature", "connection"},
				Suppress:  []string{"screen", "digital"},
			},
			Notifications: &NotificationPolicy{Suppress: true, Exceptions: []string{"critical"}},
		},
		DeepWork: {
			ID:          DeepWork,
			Name:        "Deep Work",
			Icon:        "🎯",
			Color:       "#3f51b5",
			Description: "Protocol tuned for long focused work blocks",
			Focus:       "Protect attention; support energy",
			Pillars: map[string]PillarAdjustment{
				"stress": {Priority: "high", Adjustments: []string{
					"Single-task; park distractions on paper",
					"Short walk between focus blocks",
				}},
				"nutrition": {Priority: "medium", Adjustments: []string{
					"Protein-forward lunch, no heavy carbs before the afternoon block",
					"Cut caffeine after 14:00",
				}},
				"movement": {Priority: "medium", Adjustments: []string{
					"Five minutes of movement every 90 minutes",
				}},
			},
			TaskMods: TaskModifications{
				Emphasize: []string{"focus", "energy", "break"},
				Suppress:  []string{"social", "errand", "chore"},
			},
			Notifications: &NotificationPolicy{Suppress: true, DurationHours: hours(8), Exceptions: []string{"movement"}},
		},
	}
}
