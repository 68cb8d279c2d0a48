// Package sector holds the static access rules mapping a staff sector to
// the journey actions it may perform and the stage kinds it may see. The
// table is deliberately a pure lookup with no persistence and no knowledge
// of the journey model; callers intersect their own data with it.
package sector

import "strings"

type Action string

const (
	ActionView Action = "view"
	ActionEdit Action = "edit"
	ActionNote Action = "note"
)

type rule struct {
	actions map[Action]bool
	// stageKeywords restricts visibility to stages whose name contains one
	// of the keywords. Empty means every stage is visible.
	stageKeywords []string
}

var rules = map[string]rule{
	"admin": {
		actions: map[Action]bool{ActionView: true, ActionEdit: true, ActionNote: true},
	},
	"medical": {
		actions: map[Action]bool{ActionView: true, ActionEdit: true, ActionNote: true},
	},
	"surgery": {
		actions:       map[Action]bool{ActionView: true, ActionEdit: true, ActionNote: true},
		stageKeywords: []string{"surgery", "pre-op", "post-op", "anesthesia"},
	},
	"nursing": {
		actions:       map[Action]bool{ActionView: true, ActionNote: true},
		stageKeywords: []string{"post-op", "dressing", "follow-up", "medication"},
	},
	"reception": {
		actions:       map[Action]bool{ActionView: true, ActionEdit: true},
		stageKeywords: []string{"consultation", "scheduling", "return", "budget"},
	},
	"finance": {
		actions:       map[Action]bool{ActionView: true},
		stageKeywords: []string{"budget", "payment", "invoice"},
	},
}

// Known reports whether the sector appears in the rule table.
func Known(sector string) bool {
	_, ok := rules[normalize(sector)]
	return ok
}

// Allowed reports whether the sector may perform the action. Unknown
// sectors are denied everything.
func Allowed(sector string, action Action) bool {
	r, ok := rules[normalize(sector)]
	return ok && r.actions[action]
}

// VisibleStage reports whether a stage with the given name is visible to
// the sector.
func VisibleStage(sector, stageName string) bool {
	r, ok := rules[normalize(sector)]
	if !ok {
		return false
	}
	if len(r.stageKeywords) == 0 {
		return true
	}
	name := strings.ToLower(stageName)
	for _, kw := range r.stageKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// VisibleJourney reports whether a journey with the given stage names
// should appear on the sector's worklist. A journey with no stages yet is
// visible to any sector that can view at all.
func VisibleJourney(sector string, stageNames []string) bool {
	if !Allowed(sector, ActionView) {
		return false
	}
	if len(stageNames) == 0 {
		return true
	}
	for _, name := range stageNames {
		if VisibleStage(sector, name) {
			return true
		}
	}
	return false
}

func normalize(sector string) string {
	return strings.ToLower(strings.TrimSpace(sector))
}
