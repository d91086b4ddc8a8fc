package mode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mahlerhutter/extensiovitae/internal/logging"
)

// Registry is the static mode catalog. It is immutable after construction
// and safe for concurrent readers.
type Registry struct {
	configs map[ID]*Config
}

// NewRegistry builds the registry from the compiled-in catalog.
// A malformed built-in config is a programming error and fails startup.
func NewRegistry() (*Registry, error) {
	configs := builtins()
	for id, cfg := range configs {
		if cfg.ID != id {
			return nil, fmt.Errorf("mode catalog: key %s holds config for %s", id, cfg.ID)
		}
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("mode catalog: %w", err)
		}
	}
	return &Registry{configs: configs}, nil
}

// NewRegistryWithOverlays builds the registry and applies any YAML overlay
// files found in dir (one <id>.yaml per mode). A missing dir is fine; a
// malformed overlay is an error so a broken edit is caught at startup.
func NewRegistryWithOverlays(dir string) (*Registry, error) {
	r, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return r, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob overlays: %w", err)
	}
	for _, file := range files {
		base := strings.TrimSuffix(filepath.Base(file), ".yaml")
		id, ok := ParseID(base)
		if !ok {
			logging.Warn("mode", "ignoring overlay %s: not a known mode", file)
			continue
		}
		if err := r.applyOverlay(id, file); err != nil {
			return nil, err
		}
		logging.Info("mode", "applied overlay for %s from %s", id, file)
	}
	return r, nil
}

// overlay is the subset of Config a user may override from YAML
type overlay struct {
	Name          string                      `yaml:"name"`
	Icon          string                      `yaml:"icon"`
	Color         string                      `yaml:"color"`
	Description   string                      `yaml:"description"`
	Focus         string                      `yaml:"focus"`
	Pillars       map[string]PillarAdjustment `yaml:"pillars"`
	TaskMods      *TaskModifications          `yaml:"task_modifications"`
	Notifications *NotificationPolicy         `yaml:"notifications"`
}

func (r *Registry) applyOverlay(id ID, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read overlay %s: %w", file, err)
	}
	var ov overlay
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("parse overlay %s: %w", file, err)
	}

	// Copy-on-write so a failed validation leaves the built-in untouched
	cfg := *r.configs[id]
	if ov.Name != "" {
		cfg.Name = ov.Name
	}
	if ov.Icon != "" {
		cfg.Icon = ov.Icon
	}
	if ov.Color != "" {
		cfg.Color = ov.Color
	}
	if ov.Description != "" {
		cfg.Description = ov.Description
	}
	if ov.Focus != "" {
		cfg.Focus = ov.Focus
	}
	if ov.Pillars != nil {
		cfg.Pillars = ov.Pillars
	}
	if ov.TaskMods != nil {
		cfg.TaskMods = *ov.TaskMods
	}
	if ov.Notifications != nil {
		cfg.Notifications = ov.Notifications
	}

	if err := cfg.validate(); err != nil {
		return fmt.Errorf("overlay %s: %w", file, err)
	}
	r.configs[id] = &cfg
	return nil
}

// Config returns the configuration for id. It never fails: an unknown id
// logs a warning and resolves to the Normal config so callers can render
// something sane no matter what they were handed.
func (r *Registry) Config(id ID) *Config {
	if cfg, ok := r.configs[id]; ok {
		return cfg
	}
	logging.Warn("mode", "unknown mode %q, resolving to normal", id)
	return r.configs[Normal]
}

// Available lists the activatable modes, excluding Normal
func (r *Registry) Available() []ID {
	out := make([]ID, 0, len(r.configs)-1)
	for _, id := range AllIDs() {
		if id != Normal {
			out = append(out, id)
		}
	}
	return out
}
