package domain

import (
	"context"
	"time"

	"github.com/subsurfio/wellstore/internal/document"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Record is one persisted document snapshot, keyed by the full object
// identity. Doc holds the JSON-encoded document tree.
type Record struct {
	ObjectType  string         `gorm:"primaryKey;column:object_type" json:"object_type"`
	WellUID     string         `gorm:"primaryKey;column:well_uid" json:"well_uid"`
	WellboreUID string         `gorm:"primaryKey;column:wellbore_uid" json:"wellbore_uid"`
	UID         string         `gorm:"primaryKey;column:uid" json:"uid"`
	Doc         datatypes.JSON `gorm:"not null" json:"doc"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Record) TableName() string {
	return "well_objects"
}

type Repository interface {
	// Load returns the stored snapshot, nil when the object does not exist.
	Load(ctx context.Context, db *gorm.DB, id document.Identity) (*document.Document, error)
	// Insert creates the first snapshot and fails on a duplicate identity.
	Insert(ctx context.Context, db *gorm.DB, doc *document.Document, at time.Time) error
	// Save upserts the snapshot for the document's identity.
	Save(ctx context.Context, db *gorm.DB, doc *document.Document, at time.Time) error
	Delete(ctx context.Context, db *gorm.DB, id document.Identity) error
}
