package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subsurfio/wellstore/internal/document"
	"github.com/subsurfio/wellstore/internal/storeerr"
)

func testIdentity() document.Identity {
	return document.Identity{
		ObjectType:  "log",
		WellUID:     "w-1",
		WellboreUID: "wb-1",
		UID:         "log-1",
	}
}

func idx(v float64) *float64 {
	return &v
}

func storedLog() *document.Document {
	doc := document.New(testIdentity())
	doc.SetField(document.Field{Name: "name", Kind: document.KindString, Str: "GR run 4"})
	doc.SetField(document.Field{Name: "serviceCompany", Kind: document.KindString, Str: "Acme"})
	g := doc.EnsureGroup("logData", true)
	g.Children = append(g.Children,
		document.Child{UID: "r-1", Index: idx(100)},
		document.Child{UID: "r-2", Index: idx(101)},
	)
	return doc
}

func TestApplyUpdateOverwritesAndClearsHeader(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedLog()

	incoming := document.New(testIdentity())
	incoming.SetField(document.Field{Name: "name", Kind: document.KindString, Str: "GR run 5"})
	incoming.SetField(document.Field{Name: "serviceCompany", Kind: document.KindString, Nil: true})

	merged, sum, err := engine.ApplyUpdate(stored, incoming, Options{})
	require.NoError(t, err)

	f, ok := merged.Field("name")
	require.True(t, ok)
	assert.Equal(t, "GR run 5", f.Str)

	_, ok = merged.Field("serviceCompany")
	assert.False(t, ok)

	assert.True(t, sum.UpdatedHeader)
	assert.False(t, sum.ExtendedIndex)

	// Stored snapshot untouched (copy-on-write).
	f, ok = stored.Field("serviceCompany")
	require.True(t, ok)
	assert.Equal(t, "Acme", f.Str)
}

func TestApplyUpdateClearAbsentFieldIsIdempotent(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedLog()

	incoming := document.New(testIdentity())
	incoming.SetField(document.Field{Name: "runNumber", Kind: document.KindString, Nil: true})

	merged, sum, err := engine.ApplyUpdate(stored, incoming, Options{})
	require.NoError(t, err)
	assert.False(t, sum.UpdatedHeader)
	assert.Equal(t, len(stored.Fields), len(merged.Fields))
}

func TestApplyUpdateAppendsAndMergesChildren(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedLog()

	incoming := document.New(testIdentity())
	g := incoming.EnsureGroup("logData", true)
	g.Children = append(g.Children,
		document.Child{UID: "r-2", Index: idx(101), Fields: []document.Field{
			{Name: "value", Kind: document.KindFloat, Float: 42.5},
		}},
		document.Child{UID: "r-3", Index: idx(102)},
	)

	merged, sum, err := engine.ApplyUpdate(stored, incoming, Options{})
	require.NoError(t, err)

	group, ok := merged.Group("logData")
	require.True(t, ok)
	assert.Len(t, group.Children, 3)

	child, ok := group.Child("r-2")
	require.True(t, ok)
	require.Len(t, child.Fields, 1)
	assert.Equal(t, 42.5, child.Fields[0].Float)

	gc := sum.Groups["logData"]
	require.NotNil(t, gc)
	assert.Equal(t, []string{"r-3"}, gc.Added)
	assert.Equal(t, []string{"r-2"}, gc.Modified)

	assert.True(t, sum.ExtendedIndex)
	require.True(t, sum.HasIndexRange())
	assert.Equal(t, 101.0, *sum.StartIndex)
	assert.Equal(t, 102.0, *sum.EndIndex)
}

func TestApplyUpdateModifyWithinRangeDoesNotExtend(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedLog()

	incoming := document.New(testIdentity())
	g := incoming.EnsureGroup("logData", true)
	g.Children = append(g.Children, document.Child{UID: "r-1", Index: idx(100), Fields: []document.Field{
		{Name: "value", Kind: document.KindFloat, Float: 7},
	}})

	_, sum, err := engine.ApplyUpdate(stored, incoming, Options{})
	require.NoError(t, err)
	assert.False(t, sum.ExtendedIndex)
}

func TestApplyUpdateMissingChildUid(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedLog()

	incoming := document.New(testIdentity())
	g := incoming.EnsureGroup("logData", true)
	g.Children = append(g.Children, document.Child{Index: idx(103)})

	_, _, err := engine.ApplyUpdate(stored, incoming, Options{})
	require.Error(t, err)
	assert.Equal(t, storeerr.KindMissingElementUid, storeerr.KindOf(err))
}

func TestApplyUpdateDuplicateChildUid(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedLog()

	incoming := document.New(testIdentity())
	g := incoming.EnsureGroup("logData", true)
	g.Children = append(g.Children,
		document.Child{UID: "r-9", Index: idx(103)},
		document.Child{UID: "r-9", Index: idx(104)},
	)

	merged, _, err := engine.ApplyUpdate(stored, incoming, Options{})
	require.Error(t, err)
	assert.Equal(t, storeerr.KindChildUidNotUnique, storeerr.KindOf(err))
	assert.Nil(t, merged)
}

func TestApplyUpdateMaxNodesExceeded(t *testing.T) {
	engine := NewEngine(Limits{MaxNodesUpdate: 3})
	stored := storedLog()

	incoming := document.New(testIdentity())
	g := incoming.EnsureGroup("logData", true)
	for _, uid := range []string{"a", "b", "c", "d"} {
		g.Children = append(g.Children, document.Child{UID: uid, Index: idx(200)})
	}

	_, _, err := engine.ApplyUpdate(stored, incoming, Options{})
	require.Error(t, err)
	assert.Equal(t, storeerr.KindMaxDataExceeded, storeerr.KindOf(err))
}

func TestApplyUpdateCallerLimitOverride(t *testing.T) {
	engine := NewEngine(Limits{MaxNodesUpdate: 2})
	stored := storedLog()

	incoming := document.New(testIdentity())
	g := incoming.EnsureGroup("logData", true)
	g.Children = append(g.Children, document.Child{UID: "r-9", Index: idx(200)})

	_, _, err := engine.ApplyUpdate(stored, incoming, Options{MaxNodes: 100})
	require.NoError(t, err)
}

func TestApplyUpdateNonIndexedAppendIsNotGrowth(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedLog()

	incoming := document.New(testIdentity())
	g := incoming.EnsureGroup("logCurveInfo", false)
	g.Children = append(g.Children, document.Child{UID: "curve-gr", Fields: []document.Field{
		{Name: "mnemonic", Kind: document.KindString, Str: "GR"},
	}})

	merged, sum, err := engine.ApplyUpdate(stored, incoming, Options{})
	require.NoError(t, err)

	group, ok := merged.Group("logCurveInfo")
	require.True(t, ok)
	assert.Len(t, group.Children, 1)
	assert.Equal(t, []string{"curve-gr"}, sum.Groups["logCurveInfo"].Added)

	assert.False(t, sum.ExtendedIndex)
	assert.False(t, sum.HasIndexRange())
}

func TestApplyUpdateDetachesMeasuresFromRequest(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedLog()

	incoming := document.New(testIdentity())
	incoming.SetField(document.Field{Name: "mdMax", Kind: document.KindMeasure, Measure: &document.Measure{Value: 120, UOM: "m"}})
	g := incoming.EnsureGroup("logData", true)
	g.Children = append(g.Children,
		document.Child{UID: "r-2", Index: idx(101), Fields: []document.Field{
			{Name: "tension", Kind: document.KindMeasure, Measure: &document.Measure{Value: 9.5, UOM: "kN"}},
		}},
		document.Child{UID: "r-3", Index: idx(102), Fields: []document.Field{
			{Name: "tension", Kind: document.KindMeasure, Measure: &document.Measure{Value: 9.8, UOM: "kN"}},
		}},
	)

	merged, _, err := engine.ApplyUpdate(stored, incoming, Options{})
	require.NoError(t, err)

	// Mutating the request afterwards must not leak into the snapshot.
	incoming.Fields[0].Measure.Value = -1
	g.Children[0].Fields[0].Measure.Value = -1
	g.Children[1].Fields[0].Measure.Value = -1

	f, ok := merged.Field("mdMax")
	require.True(t, ok)
	assert.Equal(t, 120.0, f.Measure.Value)

	group, _ := merged.Group("logData")
	mergedChild, ok := group.Child("r-2")
	require.True(t, ok)
	assert.Equal(t, 9.5, mergedChild.Fields[0].Measure.Value)
	appended, ok := group.Child("r-3")
	require.True(t, ok)
	assert.Equal(t, 9.8, appended.Fields[0].Measure.Value)
}

func TestValidateAddRequiresIdentity(t *testing.T) {
	engine := NewEngine(Limits{})
	doc := document.New(document.Identity{ObjectType: "log", WellUID: "w-1"})

	_, err := engine.ValidateAdd(doc, Options{})
	require.Error(t, err)
	assert.Equal(t, storeerr.KindIdentityMissing, storeerr.KindOf(err))
}

func TestValidateAddWithChildrenSignalsGrowth(t *testing.T) {
	engine := NewEngine(Limits{})
	doc := storedLog()

	sum, err := engine.ValidateAdd(doc, Options{})
	require.NoError(t, err)
	assert.Equal(t, ChangeAdd, sum.ChangeType)
	assert.True(t, sum.ExtendedIndex)
	require.True(t, sum.HasIndexRange())
	assert.Equal(t, 100.0, *sum.StartIndex)
	assert.Equal(t, 101.0, *sum.EndIndex)
}

func TestValidateAddNonIndexedChildrenAreNotGrowth(t *testing.T) {
	engine := NewEngine(Limits{})

	doc := document.New(document.Identity{
		ObjectType:  "well",
		WellUID:     "w-1",
		WellboreUID: "wb-1",
		UID:         "w-1",
	})
	doc.SetField(document.Field{Name: "name", Kind: document.KindString, Str: "34/10-A-12"})
	g := doc.EnsureGroup("wellDatum", false)
	g.Children = append(g.Children, document.Child{UID: "KB"}, document.Child{UID: "SL"})

	sum, err := engine.ValidateAdd(doc, Options{})
	require.NoError(t, err)
	assert.Len(t, sum.Groups["wellDatum"].Added, 2)
	assert.False(t, sum.ExtendedIndex)
	assert.False(t, sum.HasIndexRange())
}
