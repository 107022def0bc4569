package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/subsurfio/wellstore/internal/document"
	"github.com/subsurfio/wellstore/internal/merge"
	"github.com/subsurfio/wellstore/pkg/db/pagination"
	"gorm.io/gorm"
)

// Entry is one audited mutation of a stored object. SequenceNumber is
// strictly increasing per object; an open entry may be widened in place
// while the object keeps growing, instead of a new row being appended.
type Entry struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	ObjectType     string       `gorm:"not null;index:idx_changelog_object,priority:1" json:"object_type"`
	WellUID        string       `gorm:"not null;index:idx_changelog_object,priority:2" json:"well_uid"`
	WellboreUID    string       `gorm:"not null;index:idx_changelog_object,priority:3" json:"wellbore_uid"`
	UID            string       `gorm:"not null;index:idx_changelog_object,priority:4" json:"uid"`
	SequenceNumber int64        `gorm:"not null" json:"sequence_number"`
	ChangeType     string       `gorm:"not null" json:"change_type"`
	UpdatedHeader  bool         `gorm:"not null" json:"updated_header"`
	ObjectGrowing  bool         `gorm:"not null" json:"object_growing"`
	StartIndex     *float64     `json:"start_index,omitempty"`
	EndIndex       *float64     `json:"end_index,omitempty"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updated_at"`
}

func (Entry) TableName() string {
	return "change_log_entries"
}

func (e Entry) Identity() document.Identity {
	return document.Identity{
		ObjectType:  e.ObjectType,
		WellUID:     e.WellUID,
		WellboreUID: e.WellboreUID,
		UID:         e.UID,
	}
}

type ListRequest struct {
	pagination.Pagination
	ID document.Identity
}

type ListResponse struct {
	pagination.PageInfo
	Entries []Entry `json:"entries"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	// FindLatest returns the most recent entry for the object, nil when
	// the object has no history yet.
	FindLatest(ctx context.Context, db *gorm.DB, id document.Identity) (*Entry, error)
	// Update rewrites a widened entry in place.
	Update(ctx context.Context, db *gorm.DB, entry *Entry) error
	List(ctx context.Context, db *gorm.DB, id document.Identity, cursor *Cursor, limit int) ([]*Entry, error)
	DeleteAll(ctx context.Context, db *gorm.DB, id document.Identity) error
}

type Cursor struct {
	Sequence int64
}

// Service records mutations against the audit trail, coalescing
// consecutive growing-state appends into one open entry.
type Service interface {
	// Record appends a new entry or widens the open one inside the
	// caller's transaction, per the coalescing rule.
	Record(ctx context.Context, tx *gorm.DB, id document.Identity, sum merge.Summary, growingBefore, growingAfter bool, at time.Time) (*Entry, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	// Purge drops the whole history. Only whole-object deletion uses it.
	Purge(ctx context.Context, tx *gorm.DB, id document.Identity) error
}

var (
	ErrInvalidIdentity  = errors.New("invalid_identity")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
