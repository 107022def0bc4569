// Package merge applies partial updates and deletion specifications to a
// stored document snapshot. It is pure in-memory computation: validation
// happens before anything is touched, and a failed request leaves the
// stored snapshot untouched.
package merge

import (
	"github.com/subsurfio/wellstore/internal/document"
	"github.com/subsurfio/wellstore/internal/storeerr"
)

// Limits caps the node count a single operation may touch, per function.
type Limits struct {
	MaxNodesAdd    int
	MaxNodesUpdate int
	MaxNodesDelete int
}

// Options carries per-request overrides from the caller's capabilities.
type Options struct {
	// MaxNodes overrides the server-configured limit when > 0.
	MaxNodes int
}

type Engine struct {
	limits Limits
}

func NewEngine(limits Limits) *Engine {
	return &Engine{limits: limits}
}

func (e *Engine) limitFor(ct ChangeType, opts Options) int {
	if opts.MaxNodes > 0 {
		return opts.MaxNodes
	}
	switch ct {
	case ChangeAdd:
		return e.limits.MaxNodesAdd
	case ChangeDelete:
		return e.limits.MaxNodesDelete
	default:
		return e.limits.MaxNodesUpdate
	}
}

// ValidateAdd checks a full document for first-time creation and returns
// the add summary. Defaults are injected by the caller before persisting.
func (e *Engine) ValidateAdd(doc *document.Document, opts Options) (Summary, error) {
	if !doc.Identity.Valid() {
		return Summary{}, storeerr.E(storeerr.KindIdentityMissing, doc.Identity.String(), "object identity incomplete")
	}
	if err := validateGroups(doc); err != nil {
		return Summary{}, err
	}
	if limit := e.limitFor(ChangeAdd, opts); limit > 0 && doc.NodeCount() > limit {
		return Summary{}, storeerr.E(storeerr.KindMaxDataExceeded, doc.Identity.String(),
			"request carries %d nodes, limit %d", doc.NodeCount(), limit)
	}

	sum := newSummary(ChangeAdd)
	sum.UpdatedHeader = len(doc.Fields) > 0
	for _, g := range doc.Groups {
		if len(g.Children) == 0 {
			continue
		}
		gc := sum.group(g.Name)
		for _, c := range g.Children {
			gc.Added = append(gc.Added, c.UID)
			sum.touchIndex(c.Index)
			// Only index-ordered appends count as growth. A child without a
			// structural index is plain document content.
			if c.Index != nil {
				sum.ExtendedIndex = true
			}
		}
	}
	return sum, nil
}

// ApplyUpdate merges a partial document into the stored snapshot and
// returns a new snapshot plus the change summary. Incoming non-nil fields
// overwrite, nil-marked fields clear, repeating children are matched by
// uid, merged recursively and appended when unmatched.
func (e *Engine) ApplyUpdate(stored, incoming *document.Document, opts Options) (*document.Document, Summary, error) {
	if !incoming.Identity.Valid() {
		return nil, Summary{}, storeerr.E(storeerr.KindIdentityMissing, incoming.Identity.String(), "object identity incomplete")
	}
	if err := validateGroups(incoming); err != nil {
		return nil, Summary{}, err
	}
	if limit := e.limitFor(ChangeUpdate, opts); limit > 0 && incoming.NodeCount() > limit {
		return nil, Summary{}, storeerr.E(storeerr.KindMaxDataExceeded, incoming.Identity.String(),
			"request carries %d nodes, limit %d", incoming.NodeCount(), limit)
	}

	result := stored.Clone()
	sum := newSummary(ChangeUpdate)

	for _, f := range incoming.Fields {
		if f.Nil {
			if _, ok := result.Field(f.Name); ok {
				result.RemoveField(f.Name)
				sum.UpdatedHeader = true
			}
			continue
		}
		result.SetField(copyField(f))
		sum.UpdatedHeader = true
	}

	for _, ig := range incoming.Groups {
		if len(ig.Children) == 0 {
			continue
		}
		target := result.EnsureGroup(ig.Name, ig.Indexed)
		_, prevMax := target.IndexRange()
		gc := sum.group(ig.Name)

		for _, ic := range ig.Children {
			existing, ok := target.Child(ic.UID)
			if !ok {
				target.Children = append(target.Children, *cloneChild(ic))
				gc.Added = append(gc.Added, ic.UID)
				sum.touchIndex(ic.Index)
				if ic.Index != nil {
					sum.ExtendedIndex = true
				}
				continue
			}
			mergeChild(existing, ic)
			gc.Modified = append(gc.Modified, ic.UID)
			sum.touchIndex(existing.Index)
			if ic.Index != nil && (prevMax == nil || *ic.Index > *prevMax) {
				sum.ExtendedIndex = true
			}
		}
	}

	return result, sum, nil
}

// mergeChild header-merges an incoming child into the stored one using the
// same overwrite/clear rule as top-level fields.
func mergeChild(existing *document.Child, incoming document.Child) {
	if incoming.Index != nil {
		idx := *incoming.Index
		existing.Index = &idx
	}
	for _, f := range incoming.Fields {
		if f.Nil {
			for i := range existing.Fields {
				if existing.Fields[i].Name == f.Name {
					existing.Fields = append(existing.Fields[:i], existing.Fields[i+1:]...)
					break
				}
			}
			continue
		}
		replaced := false
		for i := range existing.Fields {
			if existing.Fields[i].Name == f.Name {
				existing.Fields[i] = copyField(f)
				replaced = true
				break
			}
		}
		if !replaced {
			existing.Fields = append(existing.Fields, copyField(f))
		}
	}
}

func cloneChild(c document.Child) *document.Child {
	nc := document.Child{UID: c.UID}
	if c.Index != nil {
		idx := *c.Index
		nc.Index = &idx
	}
	if len(c.Fields) > 0 {
		nc.Fields = make([]document.Field, len(c.Fields))
		for i, f := range c.Fields {
			nc.Fields[i] = copyField(f)
		}
	}
	return &nc
}

// copyField detaches the field from the request document so the snapshot
// never shares pointers with caller-owned data.
func copyField(f document.Field) document.Field {
	if f.Measure != nil {
		m := *f.Measure
		f.Measure = &m
	}
	return f
}

// validateGroups enforces uid presence and uniqueness across every
// repeating group referenced in one request.
func validateGroups(doc *document.Document) error {
	for _, g := range doc.Groups {
		seen := make(map[string]struct{}, len(g.Children))
		for _, c := range g.Children {
			if c.UID == "" {
				return storeerr.E(storeerr.KindMissingElementUid, doc.Identity.String(),
					"member of %s has no uid", g.Name)
			}
			if _, dup := seen[c.UID]; dup {
				return storeerr.E(storeerr.KindChildUidNotUnique, doc.Identity.String(),
					"uid %s appears twice in %s", c.UID, g.Name)
			}
			seen[c.UID] = struct{}{}
		}
	}
	return nil
}
