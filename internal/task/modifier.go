package task

import (
	"strings"

	"github.com/mahlerhutter/extensiovitae/internal/mode"
)

// The three predicates below are independent: any combination can hold for
// the same task. All matching is case-insensitive.

// ShouldShow reports whether the task survives the mode's pillar filter.
// A nil filter means no restriction.
func ShouldShow(mods mode.TaskModifications, t Task) bool {
	if mods.Filter == nil {
		return true
	}
	pillar := strings.ToLower(t.Pillar)
	for _, p := range mods.Filter {
		if strings.ToLower(p) == pillar {
			return true
		}
	}
	return false
}

// ShouldEmphasize reports whether any emphasize tag intersects the task's tags
func ShouldEmphasize(mods mode.TaskModifications, t Task) bool {
	return tagsIntersect(mods.Emphasize, t.Tags)
}

// ShouldSuppress reports whether any suppress tag intersects the task's tags
func ShouldSuppress(mods mode.TaskModifications, t Task) bool {
	return tagsIntersect(mods.Suppress, t.Tags)
}

func tagsIntersect(modeTags, taskTags []string) bool {
	if len(modeTags) == 0 || len(taskTags) == 0 {
		return false
	}
	set := make(map[string]bool, len(modeTags))
	for _, tag := range modeTags {
		set[strings.ToLower(tag)] = true
	}
	for _, tag := range taskTags {
		if set[strings.ToLower(tag)] {
			return true
		}
	}
	return false
}

// Apply annotates every task with the mode's visibility decisions
func Apply(mods mode.TaskModifications, tasks []Task) []View {
	views := make([]View, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, View{
			Task:       t,
			Show:       ShouldShow(mods, t),
			Emphasized: ShouldEmphasize(mods, t),
			Suppressed: ShouldSuppress(mods, t),
		})
	}
	return views
}
