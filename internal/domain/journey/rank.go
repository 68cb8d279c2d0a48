package journey

import (
	"sort"
	"time"
)

const (
	baseScore          = 1000.0
	delayedStageWeight = 500.0
	pendingStageBonus  = 100.0
)

// PriorityScore computes a journey's urgency. Completed journeys score 0 and
// never compete for attention. Active journeys start at a base score, gain a
// fixed weight per delayed stage and a bonus when any stage is still pending,
// and are then adjusted by the fractional days until the nearest non-completed
// due date — overdue work pushes the score up, far-future deadlines pull it
// down. The due-date term is deliberately unclamped, so a journey whose only
// deadline is far away can score below zero; it still sorts below anything
// more pressing.
func PriorityScore(j *Journey, now time.Time) float64 {
	if DerivedStatus(j) == JourneyCompleted {
		return 0
	}

	score := baseScore

	var nextDue *time.Time
	hasPending := false
	for _, s := range j.Stages {
		if IsDelayed(s, now) {
			score += delayedStageWeight
		}
		if s.Status == StagePending {
			hasPending = true
		}
		if s.Status != StageCompleted && s.DueDate != nil {
			if nextDue == nil || s.DueDate.Before(*nextDue) {
				nextDue = s.DueDate
			}
		}
	}

	if hasPending {
		score += pendingStageBonus
	}
	if nextDue != nil {
		daysUntilDue := nextDue.Sub(now).Hours() / 24
		score -= daysUntilDue
	}

	return score
}

// Rank returns the journeys stable-sorted descending by PriorityScore.
// Journeys with equal scores keep their input order. The input slice is not
// modified; the returned slice shares the journey pointers.
func Rank(journeys []*Journey, now time.Time) []*Journey {
	type scored struct {
		j     *Journey
		score float64
	}

	items := make([]scored, len(journeys))
	for i, j := range journeys {
		items[i] = scored{j: j, score: PriorityScore(j, now)}
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].score > items[b].score
	})

	ranked := make([]*Journey, len(items))
	for i, it := range items {
		ranked[i] = it.j
	}
	return ranked
}

// NextSuggestedAction returns the stage a caregiver should act on next: the
// first pending stage in creation order, then the first in-progress stage,
// and nil when nothing is outstanding.
func NextSuggestedAction(j *Journey) *Stage {
	stages := SortedStages(j)
	for _, s := range stages {
		if s.Status == StagePending {
			return s
		}
	}
	for _, s := range stages {
		if s.Status == StageInProgress {
			return s
		}
	}
	return nil
}
