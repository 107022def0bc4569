package repository

import (
	"context"

	"github.com/subsurfio/wellstore/internal/document"
	"github.com/subsurfio/wellstore/internal/growing/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, db *gorm.DB, id document.Identity) (*domain.GrowingState, error) {
	var state domain.GrowingState
	err := db.WithContext(ctx).Raw(
		`SELECT object_type, well_uid, wellbore_uid, uid, is_growing, last_activity_at, updated_at
		 FROM growing_states
		 WHERE object_type = ? AND well_uid = ? AND wellbore_uid = ? AND uid = ?`,
		id.ObjectType,
		id.WellUID,
		id.WellboreUID,
		id.UID,
	).Scan(&state).Error
	if err != nil {
		return nil, err
	}
	if state.UID == "" {
		return nil, nil
	}
	return &state, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, state *domain.GrowingState) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "object_type"},
			{Name: "well_uid"},
			{Name: "wellbore_uid"},
			{Name: "uid"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"is_growing", "last_activity_at", "updated_at"}),
	}).Create(state).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id document.Identity) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM growing_states
		 WHERE object_type = ? AND well_uid = ? AND wellbore_uid = ? AND uid = ?`,
		id.ObjectType,
		id.WellUID,
		id.WellboreUID,
		id.UID,
	).Error
}

func (r *repo) ScanGrowing(ctx context.Context, db *gorm.DB, objectType string) ([]*domain.GrowingState, error) {
	var states []*domain.GrowingState
	err := db.WithContext(ctx).
		Model(&domain.GrowingState{}).
		Where("object_type = ? AND is_growing = ?", objectType, true).
		Order("last_activity_at asc").
		Find(&states).Error
	if err != nil {
		return nil, err
	}
	return states, nil
}

func (r *repo) AnyGrowingChildren(ctx context.Context, db *gorm.DB, wellUID, wellboreUID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.GrowingState{}).
		Where("well_uid = ? AND wellbore_uid = ? AND is_growing = ? AND object_type <> ?",
			wellUID, wellboreUID, true, "wellbore").
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
