package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/subsurfio/wellstore/internal/document"
	"github.com/subsurfio/wellstore/internal/wellobject/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Load(ctx context.Context, db *gorm.DB, id document.Identity) (*document.Document, error) {
	var record domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT object_type, well_uid, wellbore_uid, uid, doc, created_at, updated_at
		 FROM well_objects
		 WHERE object_type = ? AND well_uid = ? AND wellbore_uid = ? AND uid = ?`,
		id.ObjectType,
		id.WellUID,
		id.WellboreUID,
		id.UID,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.UID == "" {
		return nil, nil
	}

	var doc document.Document
	if err := json.Unmarshal(record.Doc, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, doc *document.Document, at time.Time) error {
	record, err := newRecord(doc, at)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Create(&record).Error
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, doc *document.Document, at time.Time) error {
	record, err := newRecord(doc, at)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "object_type"},
			{Name: "well_uid"},
			{Name: "wellbore_uid"},
			{Name: "uid"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"doc", "updated_at"}),
	}).Create(&record).Error
}

func newRecord(doc *document.Document, at time.Time) (domain.Record, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return domain.Record{}, err
	}
	return domain.Record{
		ObjectType:  doc.ObjectType,
		WellUID:     doc.WellUID,
		WellboreUID: doc.WellboreUID,
		UID:         doc.UID,
		Doc:         payload,
		CreatedAt:   at,
		UpdatedAt:   at,
	}, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id document.Identity) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM well_objects
		 WHERE object_type = ? AND well_uid = ? AND wellbore_uid = ? AND uid = ?`,
		id.ObjectType,
		id.WellUID,
		id.WellboreUID,
		id.UID,
	).Error
}
