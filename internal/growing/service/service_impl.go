package service

import (
	"github.com/subsurfio/wellstore/internal/growing/domain"
	"github.com/subsurfio/wellstore/internal/merge"
)

type tracker struct{}

func New() domain.Tracker {
	return &tracker{}
}

// Evaluate applies the growing-state transition rules to one change summary.
//
// Structural growth (children appended or the max structural index
// advanced) marks the object growing and counts as append activity. A
// header-only edit never flips the flag by itself: on a non-growing object
// it stays a discrete closed mutation, on a growing object it is folded
// into the open audit entry. A delete that removes repeating children is a
// structural change that does not extend the index range, so it closes the
// growing state. Demotion from pure inactivity belongs to the sweeper
// alone.
func (t *tracker) Evaluate(currentlyGrowing bool, sum merge.Summary) domain.Decision {
	if sum.ExtendedIndex {
		return domain.Decision{
			IsGrowing:       true,
			Transitioned:    !currentlyGrowing,
			RefreshActivity: true,
		}
	}

	if sum.ChangeType == merge.ChangeDelete && removedChildren(sum) {
		return domain.Decision{
			IsGrowing:    false,
			Transitioned: currentlyGrowing,
		}
	}

	return domain.Decision{IsGrowing: currentlyGrowing}
}

func removedChildren(sum merge.Summary) bool {
	for _, gc := range sum.Groups {
		if len(gc.Removed) > 0 {
			return true
		}
	}
	return false
}
