package domain

import (
	"context"
	"time"

	"github.com/subsurfio/wellstore/internal/document"
	"github.com/subsurfio/wellstore/internal/merge"
	"gorm.io/gorm"
)

// GrowingState tracks whether one object is actively receiving
// index-ordered appends. Exactly one row exists per growable object.
type GrowingState struct {
	ObjectType     string    `gorm:"primaryKey;column:object_type" json:"object_type"`
	WellUID        string    `gorm:"primaryKey;column:well_uid" json:"well_uid"`
	WellboreUID    string    `gorm:"primaryKey;column:wellbore_uid" json:"wellbore_uid"`
	UID            string    `gorm:"primaryKey;column:uid" json:"uid"`
	IsGrowing      bool      `gorm:"not null;index" json:"is_growing"`
	LastActivityAt time.Time `gorm:"not null" json:"last_activity_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (GrowingState) TableName() string {
	return "growing_states"
}

func (s GrowingState) Identity() document.Identity {
	return document.Identity{
		ObjectType:  s.ObjectType,
		WellUID:     s.WellUID,
		WellboreUID: s.WellboreUID,
		UID:         s.UID,
	}
}

// OwnerWellboreUID names the wellbore whose aggregate growing flag depends
// on this object.
func (s GrowingState) OwnerWellboreUID() string {
	return s.WellboreUID
}

type Repository interface {
	Get(ctx context.Context, db *gorm.DB, id document.Identity) (*GrowingState, error)
	Upsert(ctx context.Context, db *gorm.DB, state *GrowingState) error
	Delete(ctx context.Context, db *gorm.DB, id document.Identity) error
	// ScanGrowing lists every object of one type currently flagged growing.
	ScanGrowing(ctx context.Context, db *gorm.DB, objectType string) ([]*GrowingState, error)
	// AnyGrowingChildren reports whether any non-wellbore object owned by
	// the wellbore is still growing.
	AnyGrowingChildren(ctx context.Context, db *gorm.DB, wellUID, wellboreUID string) (bool, error)
}

// Decision is the tracker's verdict for one committed mutation.
type Decision struct {
	IsGrowing bool
	// Transitioned is true when the growing flag flipped in either direction.
	Transitioned bool
	// RefreshActivity is true when the mutation counts as append activity.
	RefreshActivity bool
}

// Tracker decides growing-state transitions from a change summary.
type Tracker interface {
	Evaluate(currentlyGrowing bool, sum merge.Summary) Decision
}
