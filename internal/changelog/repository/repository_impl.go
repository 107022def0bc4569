package repository

import (
	"context"

	"github.com/subsurfio/wellstore/internal/changelog/domain"
	"github.com/subsurfio/wellstore/internal/document"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO change_log_entries (
			id, object_type, well_uid, wellbore_uid, uid, sequence_number,
			change_type, updated_header, object_growing, start_index, end_index,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ObjectType,
		entry.WellUID,
		entry.WellboreUID,
		entry.UID,
		entry.SequenceNumber,
		entry.ChangeType,
		entry.UpdatedHeader,
		entry.ObjectGrowing,
		entry.StartIndex,
		entry.EndIndex,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Error
}

func (r *repo) FindLatest(ctx context.Context, db *gorm.DB, id document.Identity) (*domain.Entry, error) {
	var entry domain.Entry
	err := db.WithContext(ctx).Raw(
		`SELECT id, object_type, well_uid, wellbore_uid, uid, sequence_number,
		        change_type, updated_header, object_growing, start_index, end_index,
		        created_at, updated_at
		 FROM change_log_entries
		 WHERE object_type = ? AND well_uid = ? AND wellbore_uid = ? AND uid = ?
		 ORDER BY sequence_number DESC
		 LIMIT 1`,
		id.ObjectType,
		id.WellUID,
		id.WellboreUID,
		id.UID,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	return db.WithContext(ctx).Exec(
		`UPDATE change_log_entries
		 SET start_index = ?, end_index = ?, updated_header = ?, object_growing = ?, updated_at = ?
		 WHERE id = ?`,
		entry.StartIndex,
		entry.EndIndex,
		entry.UpdatedHeader,
		entry.ObjectGrowing,
		entry.UpdatedAt,
		entry.ID,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, id document.Identity, cursor *domain.Cursor, limit int) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	stmt := db.WithContext(ctx).Model(&domain.Entry{}).
		Where("object_type = ? AND well_uid = ? AND wellbore_uid = ? AND uid = ?",
			id.ObjectType, id.WellUID, id.WellboreUID, id.UID)

	if cursor != nil {
		stmt = stmt.Where("sequence_number < ?", cursor.Sequence)
	}

	stmt = stmt.Order("sequence_number desc")
	if limit > 0 {
		stmt = stmt.Limit(limit + 1)
	}

	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) DeleteAll(ctx context.Context, db *gorm.DB, id document.Identity) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM change_log_entries
		 WHERE object_type = ? AND well_uid = ? AND wellbore_uid = ? AND uid = ?`,
		id.ObjectType,
		id.WellUID,
		id.WellboreUID,
		id.UID,
	).Error
}
