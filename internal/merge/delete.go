package merge

import (
	"github.com/subsurfio/wellstore/internal/document"
	"github.com/subsurfio/wellstore/internal/storeerr"
)

// GroupDelete selects members of one repeating group for removal. An empty
// member list means the whole group, or the structural range when the spec
// carries one.
type GroupDelete struct {
	Name string
	UIDs []string
}

// DeleteSpec is the decoded deletion request: header fields to clear,
// group members to remove, and an optional structural index range. The
// range applies to each indexed group listed with an empty member list, or
// to every indexed group when no groups are listed.
type DeleteSpec struct {
	Identity    document.Identity
	ClearFields []string
	MinIndex    *float64
	MaxIndex    *float64
	Groups      []GroupDelete
}

var identityFieldNames = map[string]struct{}{
	"uid":         {},
	"wellUid":     {},
	"wellboreUid": {},
	"objectType":  {},
}

// ApplyDelete applies a deletion specification as a single atomic
// transformation and returns the new snapshot plus one summary covering
// every field and uid affected. Any structural violation aborts the whole
// request before the stored snapshot is touched.
func (e *Engine) ApplyDelete(stored *document.Document, spec DeleteSpec, opts Options) (*document.Document, Summary, error) {
	objectID := spec.Identity.String()
	if !spec.Identity.Valid() {
		return nil, Summary{}, storeerr.E(storeerr.KindIdentityMissing, objectID, "delete requires a concrete object identity")
	}
	for _, name := range spec.ClearFields {
		if _, isIdentity := identityFieldNames[name]; isIdentity {
			return nil, Summary{}, storeerr.E(storeerr.KindIdentityMissing, objectID, "identity field %s cannot be deleted", name)
		}
	}
	if spec.MinIndex != nil && spec.MaxIndex != nil && *spec.MinIndex > *spec.MaxIndex {
		return nil, Summary{}, storeerr.E(storeerr.KindInvalidStructuralRange, objectID,
			"min %v exceeds max %v", *spec.MinIndex, *spec.MaxIndex)
	}
	if err := validateDeleteGroups(stored, spec); err != nil {
		return nil, Summary{}, err
	}

	// Resolve removals against the stored snapshot before mutating, so the
	// node limit can reject the whole request up front.
	removals := map[string][]string{}
	total := len(spec.ClearFields)
	hasRange := spec.MinIndex != nil || spec.MaxIndex != nil

	targets := spec.Groups
	if len(targets) == 0 && hasRange {
		for _, g := range stored.Groups {
			if g.Indexed {
				targets = append(targets, GroupDelete{Name: g.Name})
			}
		}
	}

	for _, gd := range targets {
		g, ok := stored.Group(gd.Name)
		if !ok {
			continue
		}
		var uids []string
		switch {
		case len(gd.UIDs) > 0:
			for _, uid := range gd.UIDs {
				if _, found := g.Child(uid); found {
					uids = append(uids, uid)
				}
			}
		case hasRange:
			for _, c := range g.Children {
				if c.Index == nil {
					continue
				}
				if spec.MinIndex != nil && *c.Index < *spec.MinIndex {
					continue
				}
				if spec.MaxIndex != nil && *c.Index > *spec.MaxIndex {
					continue
				}
				uids = append(uids, c.UID)
			}
		default:
			for _, c := range g.Children {
				uids = append(uids, c.UID)
			}
		}
		if len(uids) > 0 {
			removals[gd.Name] = append(removals[gd.Name], uids...)
			total += len(uids)
		}
	}

	if limit := e.limitFor(ChangeDelete, opts); limit > 0 && total > limit {
		return nil, Summary{}, storeerr.E(storeerr.KindMaxDataExceeded, objectID,
			"request removes %d nodes, limit %d", total, limit)
	}

	result := stored.Clone()
	sum := newSummary(ChangeDelete)

	for _, name := range spec.ClearFields {
		if _, ok := result.Field(name); ok {
			result.RemoveField(name)
			sum.UpdatedHeader = true
		}
	}

	for name, uids := range removals {
		g, ok := result.Group(name)
		if !ok {
			continue
		}
		gc := sum.group(name)
		drop := make(map[string]struct{}, len(uids))
		for _, uid := range uids {
			drop[uid] = struct{}{}
		}
		kept := g.Children[:0]
		for _, c := range g.Children {
			if _, gone := drop[c.UID]; gone {
				gc.Removed = append(gc.Removed, c.UID)
				sum.touchIndex(c.Index)
				continue
			}
			kept = append(kept, c)
		}
		g.Children = kept
	}

	return result, sum, nil
}

func validateDeleteGroups(stored *document.Document, spec DeleteSpec) error {
	objectID := spec.Identity.String()
	hasRange := spec.MinIndex != nil || spec.MaxIndex != nil
	for _, gd := range spec.Groups {
		seen := make(map[string]struct{}, len(gd.UIDs))
		for _, uid := range gd.UIDs {
			if uid == "" {
				return storeerr.E(storeerr.KindMissingElementUid, objectID,
					"delete member of %s carries an empty uid", gd.Name)
			}
			if _, dup := seen[uid]; dup {
				return storeerr.E(storeerr.KindChildUidNotUnique, objectID,
					"uid %s appears twice in %s", uid, gd.Name)
			}
			seen[uid] = struct{}{}
		}
		if hasRange && len(gd.UIDs) == 0 {
			if g, ok := stored.Group(gd.Name); ok && !g.Indexed {
				return storeerr.E(storeerr.KindInvalidStructuralRange, objectID,
					"group %s carries no structural index", gd.Name)
			}
		}
	}
	return nil
}
