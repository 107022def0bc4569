package merge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subsurfio/wellstore/internal/document"
	"github.com/subsurfio/wellstore/internal/storeerr"
)

// storedTrajectory has ten stations at structural indexes 0..9, inserted
// out of order.
func storedTrajectory() *document.Document {
	doc := document.New(document.Identity{
		ObjectType:  "trajectory",
		WellUID:     "w-1",
		WellboreUID: "wb-1",
		UID:         "traj-1",
	})
	doc.SetField(document.Field{Name: "name", Kind: document.KindString, Str: "main bore"})
	doc.SetField(document.Field{Name: "mdMax", Kind: document.KindMeasure, Measure: &document.Measure{Value: 9, UOM: "m"}})
	g := doc.EnsureGroup("trajectoryStation", true)
	for _, v := range []float64{5, 0, 9, 3, 7, 1, 8, 2, 6, 4} {
		g.Children = append(g.Children, document.Child{UID: fmt.Sprintf("st-%.0f", v), Index: idx(v)})
	}
	return doc
}

func trajectorySpec() DeleteSpec {
	return DeleteSpec{Identity: document.Identity{
		ObjectType:  "trajectory",
		WellUID:     "w-1",
		WellboreUID: "wb-1",
		UID:         "traj-1",
	}}
}

func TestApplyDeleteByStructuralRange(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedTrajectory()

	spec := trajectorySpec()
	spec.MinIndex = idx(5)
	spec.MaxIndex = idx(8)
	spec.Groups = []GroupDelete{{Name: "trajectoryStation"}}

	merged, sum, err := engine.ApplyDelete(stored, spec, Options{})
	require.NoError(t, err)

	g, ok := merged.Group("trajectoryStation")
	require.True(t, ok)
	require.Len(t, g.Children, 6)
	for _, c := range g.Children {
		assert.True(t, *c.Index < 5 || *c.Index > 8, "index %v should have survived", *c.Index)
	}

	gc := sum.Groups["trajectoryStation"]
	require.NotNil(t, gc)
	assert.Len(t, gc.Removed, 4)
	assert.Equal(t, 5.0, *sum.StartIndex)
	assert.Equal(t, 8.0, *sum.EndIndex)

	// Original snapshot keeps all ten stations.
	og, _ := stored.Group("trajectoryStation")
	assert.Len(t, og.Children, 10)
}

func TestApplyDeleteRangeWithoutGroupsHitsEveryIndexedGroup(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedTrajectory()

	spec := trajectorySpec()
	spec.MinIndex = idx(0)
	spec.MaxIndex = idx(9)

	merged, _, err := engine.ApplyDelete(stored, spec, Options{})
	require.NoError(t, err)

	g, _ := merged.Group("trajectoryStation")
	assert.Empty(t, g.Children)
}

func TestApplyDeleteWholeGroup(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedTrajectory()

	spec := trajectorySpec()
	spec.Groups = []GroupDelete{{Name: "trajectoryStation"}}

	merged, sum, err := engine.ApplyDelete(stored, spec, Options{})
	require.NoError(t, err)

	g, _ := merged.Group("trajectoryStation")
	assert.Empty(t, g.Children)
	assert.Len(t, sum.Groups["trajectoryStation"].Removed, 10)
}

func TestApplyDeleteByUid(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedTrajectory()

	spec := trajectorySpec()
	spec.Groups = []GroupDelete{{Name: "trajectoryStation", UIDs: []string{"st-3", "st-7", "no-such-uid"}}}

	merged, sum, err := engine.ApplyDelete(stored, spec, Options{})
	require.NoError(t, err)

	g, _ := merged.Group("trajectoryStation")
	assert.Len(t, g.Children, 8)
	assert.ElementsMatch(t, []string{"st-3", "st-7"}, sum.Groups["trajectoryStation"].Removed)
}

func TestApplyDeleteEmptyUidFails(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedTrajectory()

	spec := trajectorySpec()
	spec.Groups = []GroupDelete{{Name: "trajectoryStation", UIDs: []string{"st-3", ""}}}

	_, _, err := engine.ApplyDelete(stored, spec, Options{})
	require.Error(t, err)
	assert.Equal(t, storeerr.KindMissingElementUid, storeerr.KindOf(err))
}

func TestApplyDeleteDuplicateUidFails(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedTrajectory()

	spec := trajectorySpec()
	spec.Groups = []GroupDelete{{Name: "trajectoryStation", UIDs: []string{"st-3", "st-3"}}}

	_, _, err := engine.ApplyDelete(stored, spec, Options{})
	require.Error(t, err)
	assert.Equal(t, storeerr.KindChildUidNotUnique, storeerr.KindOf(err))
}

func TestApplyDeleteInvertedRangeFails(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedTrajectory()

	spec := trajectorySpec()
	spec.MinIndex = idx(8)
	spec.MaxIndex = idx(5)

	_, _, err := engine.ApplyDelete(stored, spec, Options{})
	require.Error(t, err)
	assert.Equal(t, storeerr.KindInvalidStructuralRange, storeerr.KindOf(err))
}

func TestApplyDeleteRangeOnNonIndexedGroupFails(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedTrajectory()
	g := stored.EnsureGroup("comments", false)
	g.Children = append(g.Children, document.Child{UID: "c-1"})

	spec := trajectorySpec()
	spec.MinIndex = idx(0)
	spec.MaxIndex = idx(9)
	spec.Groups = []GroupDelete{{Name: "comments"}}

	_, _, err := engine.ApplyDelete(stored, spec, Options{})
	require.Error(t, err)
	assert.Equal(t, storeerr.KindInvalidStructuralRange, storeerr.KindOf(err))
}

func TestApplyDeleteHeaderFieldClear(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedTrajectory()

	spec := trajectorySpec()
	spec.ClearFields = []string{"mdMax", "notThere"}

	merged, sum, err := engine.ApplyDelete(stored, spec, Options{})
	require.NoError(t, err)

	_, ok := merged.Field("mdMax")
	assert.False(t, ok)
	_, ok = merged.Field("name")
	assert.True(t, ok)
	assert.True(t, sum.UpdatedHeader)
}

func TestApplyDeleteIdentityFieldRejected(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedTrajectory()

	spec := trajectorySpec()
	spec.ClearFields = []string{"uid"}

	_, _, err := engine.ApplyDelete(stored, spec, Options{})
	require.Error(t, err)
	assert.Equal(t, storeerr.KindIdentityMissing, storeerr.KindOf(err))
}

func TestApplyDeleteMaxNodesLeavesStoredUntouched(t *testing.T) {
	engine := NewEngine(Limits{MaxNodesDelete: 3})
	stored := storedTrajectory()

	spec := trajectorySpec()
	spec.Groups = []GroupDelete{{Name: "trajectoryStation"}}

	merged, _, err := engine.ApplyDelete(stored, spec, Options{})
	require.Error(t, err)
	assert.Equal(t, storeerr.KindMaxDataExceeded, storeerr.KindOf(err))
	assert.Nil(t, merged)

	g, _ := stored.Group("trajectoryStation")
	assert.Len(t, g.Children, 10)
}

func TestApplyDeleteCombinedModes(t *testing.T) {
	engine := NewEngine(Limits{})
	stored := storedTrajectory()

	spec := trajectorySpec()
	spec.ClearFields = []string{"mdMax"}
	spec.MinIndex = idx(0)
	spec.MaxIndex = idx(2)
	spec.Groups = []GroupDelete{{Name: "trajectoryStation"}}

	merged, sum, err := engine.ApplyDelete(stored, spec, Options{})
	require.NoError(t, err)

	g, _ := merged.Group("trajectoryStation")
	assert.Len(t, g.Children, 7)
	_, ok := merged.Field("mdMax")
	assert.False(t, ok)
	assert.True(t, sum.UpdatedHeader)
	assert.Len(t, sum.Groups["trajectoryStation"].Removed, 3)
}
