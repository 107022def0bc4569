// Package document holds the in-memory tree representation of one stored
// data object: an identity, ordered header fields and named repeating
// groups whose children are keyed by uid and optionally carry a monotonic
// structural index (depth or time).
package document

// Identity uniquely names a stored object. Immutable once created.
type Identity struct {
	ObjectType  string `json:"objectType"`
	WellUID     string `json:"wellUid"`
	WellboreUID string `json:"wellboreUid"`
	UID         string `json:"uid"`
}

func (id Identity) Valid() bool {
	return id.ObjectType != "" && id.WellUID != "" && id.WellboreUID != "" && id.UID != ""
}

func (id Identity) String() string {
	return id.ObjectType + "/" + id.WellUID + "/" + id.WellboreUID + "/" + id.UID
}

// FieldKind is resolved when the field is defined, never by runtime inspection.
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindInt     FieldKind = "int"
	KindFloat   FieldKind = "float"
	KindMeasure FieldKind = "measure"
)

// Measure is a scalar value paired with its unit of measure.
type Measure struct {
	Value float64 `json:"value"`
	UOM   string  `json:"uom"`
}

// Field is one header attribute. In a partial update Nil marks an explicit
// clear of the stored field.
type Field struct {
	Name    string    `json:"name"`
	Kind    FieldKind `json:"kind"`
	Str     string    `json:"str,omitempty"`
	Int     int64     `json:"int,omitempty"`
	Float   float64   `json:"float,omitempty"`
	Measure *Measure  `json:"measure,omitempty"`
	Nil     bool      `json:"nil,omitempty"`
}

// Child is one member of a repeating group, unique by UID within the group.
type Child struct {
	UID    string   `json:"uid"`
	Index  *float64 `json:"index,omitempty"`
	Fields []Field  `json:"fields,omitempty"`
}

// Group is a named repeating collection. Indexed groups order children by a
// structural index used for range selection.
type Group struct {
	Name     string  `json:"name"`
	Indexed  bool    `json:"indexed,omitempty"`
	Children []Child `json:"children,omitempty"`
}

// Document is one immutable snapshot of a stored object. Mutations go
// through Clone; a snapshot handed to a caller is never written again.
type Document struct {
	Identity
	Fields []Field `json:"fields,omitempty"`
	Groups []Group `json:"groups,omitempty"`
}

func New(id Identity) *Document {
	return &Document{Identity: id}
}

// Clone returns a deep copy. Merge operates on the clone so the stored
// snapshot stays untouched if the request aborts.
func (d *Document) Clone() *Document {
	out := &Document{Identity: d.Identity}
	if len(d.Fields) > 0 {
		out.Fields = make([]Field, len(d.Fields))
		copy(out.Fields, d.Fields)
		for i := range out.Fields {
			if m := out.Fields[i].Measure; m != nil {
				mc := *m
				out.Fields[i].Measure = &mc
			}
		}
	}
	if len(d.Groups) > 0 {
		out.Groups = make([]Group, len(d.Groups))
		for gi, g := range d.Groups {
			ng := Group{Name: g.Name, Indexed: g.Indexed}
			if len(g.Children) > 0 {
				ng.Children = make([]Child, len(g.Children))
				for ci, c := range g.Children {
					nc := Child{UID: c.UID}
					if c.Index != nil {
						idx := *c.Index
						nc.Index = &idx
					}
					if len(c.Fields) > 0 {
						nc.Fields = make([]Field, len(c.Fields))
						copy(nc.Fields, c.Fields)
						for i := range nc.Fields {
							if m := nc.Fields[i].Measure; m != nil {
								mc := *m
								nc.Fields[i].Measure = &mc
							}
						}
					}
					ng.Children[ci] = nc
				}
			}
			out.Groups[gi] = ng
		}
	}
	return out
}

// Field returns the header field with the given name.
func (d *Document) Field(name string) (*Field, bool) {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i], true
		}
	}
	return nil, false
}

// SetField overwrites the named field in place or appends it, preserving
// the original field order.
func (d *Document) SetField(f Field) {
	for i := range d.Fields {
		if d.Fields[i].Name == f.Name {
			d.Fields[i] = f
			return
		}
	}
	d.Fields = append(d.Fields, f)
}

// RemoveField clears a header field. Removing an absent field is a no-op.
func (d *Document) RemoveField(name string) {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			d.Fields = append(d.Fields[:i], d.Fields[i+1:]...)
			return
		}
	}
}

// Group returns the named repeating group.
func (d *Document) Group(name string) (*Group, bool) {
	for i := range d.Groups {
		if d.Groups[i].Name == name {
			return &d.Groups[i], true
		}
	}
	return nil, false
}

// EnsureGroup returns the named group, creating it when absent.
func (d *Document) EnsureGroup(name string, indexed bool) *Group {
	if g, ok := d.Group(name); ok {
		return g
	}
	d.Groups = append(d.Groups, Group{Name: name, Indexed: indexed})
	return &d.Groups[len(d.Groups)-1]
}

// NodeCount counts the document root, every header field, and every
// repeating child with its fields. Used for per-operation limits.
func (d *Document) NodeCount() int {
	n := 1 + len(d.Fields)
	for _, g := range d.Groups {
		n++
		for _, c := range g.Children {
			n += 1 + len(c.Fields)
		}
	}
	return n
}

// Child returns the member of g with the given uid.
func (g *Group) Child(uid string) (*Child, bool) {
	for i := range g.Children {
		if g.Children[i].UID == uid {
			return &g.Children[i], true
		}
	}
	return nil, false
}

// IndexRange returns the min and max structural index over the children,
// or nils when no child carries an index.
func (g *Group) IndexRange() (min, max *float64) {
	for i := range g.Children {
		idx := g.Children[i].Index
		if idx == nil {
			continue
		}
		if min == nil || *idx < *min {
			v := *idx
			min = &v
		}
		if max == nil || *idx > *max {
			v := *idx
			max = &v
		}
	}
	return min, max
}
