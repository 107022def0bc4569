package merge

// ChangeType labels the request that produced a summary.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// GroupChange lists the uids a request touched within one repeating group.
type GroupChange struct {
	Added    []string
	Removed  []string
	Modified []string
}

// Summary is the structural-change record handed to the growing-state
// tracker and the change log after a successful merge.
type Summary struct {
	ChangeType    ChangeType
	UpdatedHeader bool
	Groups        map[string]*GroupChange

	// StartIndex/EndIndex bound the structural indexes touched by this
	// request. Nil when no indexed children were involved.
	StartIndex *float64
	EndIndex   *float64

	// ExtendedIndex is true when children were appended or the group's
	// maximum structural index advanced past the stored maximum. This is
	// the growth signal.
	ExtendedIndex bool
}

func newSummary(ct ChangeType) Summary {
	return Summary{ChangeType: ct, Groups: map[string]*GroupChange{}}
}

func (s *Summary) group(name string) *GroupChange {
	gc, ok := s.Groups[name]
	if !ok {
		gc = &GroupChange{}
		s.Groups[name] = gc
	}
	return gc
}

// touchIndex widens the summary's index range to include idx.
func (s *Summary) touchIndex(idx *float64) {
	if idx == nil {
		return
	}
	if s.StartIndex == nil || *idx < *s.StartIndex {
		v := *idx
		s.StartIndex = &v
	}
	if s.EndIndex == nil || *idx > *s.EndIndex {
		v := *idx
		s.EndIndex = &v
	}
}

// HasIndexRange reports whether the request touched indexed children.
func (s *Summary) HasIndexRange() bool {
	return s.StartIndex != nil && s.EndIndex != nil
}

// Touched reports whether the summary records any structural or header change.
func (s *Summary) Touched() bool {
	if s.UpdatedHeader {
		return true
	}
	for _, gc := range s.Groups {
		if len(gc.Added)+len(gc.Removed)+len(gc.Modified) > 0 {
			return true
		}
	}
	return false
}
