package service

import (
	"context"
	"time"

	changelogdomain "github.com/subsurfio/wellstore/internal/changelog/domain"
	"github.com/subsurfio/wellstore/internal/clock"
	"github.com/subsurfio/wellstore/internal/document"
	growingdomain "github.com/subsurfio/wellstore/internal/growing/domain"
	"github.com/subsurfio/wellstore/internal/merge"
	"github.com/subsurfio/wellstore/internal/store/domain"
	"github.com/subsurfio/wellstore/internal/storeerr"
	wellobjectdomain "github.com/subsurfio/wellstore/internal/wellobject/domain"
	"github.com/subsurfio/wellstore/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Engine    *merge.Engine
	ObjRepo   wellobjectdomain.Repository
	GrowRepo  growingdomain.Repository
	Tracker   growingdomain.Tracker
	ChangeSvc changelogdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	engine    *merge.Engine
	objRepo   wellobjectdomain.Repository
	growRepo  growingdomain.Repository
	tracker   growingdomain.Tracker
	changeSvc changelogdomain.Service
	locks     *objectLocks
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("store.service"),
		clock:     p.Clock,
		engine:    p.Engine,
		objRepo:   p.ObjRepo,
		growRepo:  p.GrowRepo,
		tracker:   p.Tracker,
		changeSvc: p.ChangeSvc,
		locks:     newObjectLocks(),
	}
}

func (s *Service) Add(ctx context.Context, req domain.AddRequest) (domain.Result, error) {
	doc := req.Doc
	if doc == nil || !doc.Identity.Valid() {
		return domain.Result{}, storeerr.E(storeerr.KindIdentityMissing, "", "add requires a complete object identity")
	}
	id := doc.Identity
	release := s.locks.acquire(id.String())
	defer release()

	stored, err := s.objRepo.Load(ctx, s.db, id)
	if err != nil {
		return domain.Result{}, storeerr.Wrap(storeerr.KindPersistenceFailure, id.String(), err)
	}
	if stored != nil {
		return domain.Result{}, domain.ErrAlreadyExists
	}

	sum, err := s.engine.ValidateAdd(doc, req.Options)
	if err != nil {
		return domain.Result{}, err
	}

	created := doc.Clone()
	document.ApplyDefaults(created)

	decision := s.tracker.Evaluate(false, sum)
	now := s.clock.Now()

	result := domain.Result{Summary: sum, Growing: decision.IsGrowing}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.objRepo.Insert(ctx, tx, created, now); err != nil {
			return err
		}
		if err := s.growRepo.Upsert(ctx, tx, &growingdomain.GrowingState{
			ObjectType:     id.ObjectType,
			WellUID:        id.WellUID,
			WellboreUID:    id.WellboreUID,
			UID:            id.UID,
			IsGrowing:      decision.IsGrowing,
			LastActivityAt: now,
			UpdatedAt:      now,
		}); err != nil {
			return err
		}
		entry, err := s.changeSvc.Record(ctx, tx, id, sum, false, decision.IsGrowing, now)
		if err != nil {
			return err
		}
		result.Entry = entry
		if decision.Transitioned {
			return s.refreshWellbore(ctx, tx, id.WellUID, id.WellboreUID, now)
		}
		return nil
	})
	if err != nil {
		// Another process may have created the object between the existence
		// check and the insert.
		if db.IsDuplicateKeyErr(err) {
			return domain.Result{}, domain.ErrAlreadyExists
		}
		return domain.Result{}, storeerr.Wrap(storeerr.KindPersistenceFailure, id.String(), err)
	}
	return result, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (domain.Result, error) {
	doc := req.Doc
	if doc == nil || !doc.Identity.Valid() {
		return domain.Result{}, storeerr.E(storeerr.KindIdentityMissing, "", "update requires a complete object identity")
	}
	id := doc.Identity
	release := s.locks.acquire(id.String())
	defer release()

	stored, err := s.objRepo.Load(ctx, s.db, id)
	if err != nil {
		return domain.Result{}, storeerr.Wrap(storeerr.KindPersistenceFailure, id.String(), err)
	}
	if stored == nil {
		return domain.Result{}, storeerr.E(storeerr.KindNotFound, id.String(), "object does not exist")
	}

	merged, sum, err := s.engine.ApplyUpdate(stored, doc, req.Options)
	if err != nil {
		return domain.Result{}, err
	}

	return s.commitMutation(ctx, id, merged, sum)
}

func (s *Service) Delete(ctx context.Context, req domain.DeleteRequest) (domain.Result, error) {
	id := req.Spec.Identity
	if !id.Valid() {
		return domain.Result{}, storeerr.E(storeerr.KindIdentityMissing, id.String(), "delete requires a concrete object identity")
	}
	release := s.locks.acquire(id.String())
	defer release()

	stored, err := s.objRepo.Load(ctx, s.db, id)
	if err != nil {
		return domain.Result{}, storeerr.Wrap(storeerr.KindPersistenceFailure, id.String(), err)
	}
	if stored == nil {
		return domain.Result{}, storeerr.E(storeerr.KindNotFound, id.String(), "object does not exist")
	}

	if wholeObjectDelete(req.Spec) {
		return s.deleteObject(ctx, id)
	}

	result, sum, err := s.engine.ApplyDelete(stored, req.Spec, req.Options)
	if err != nil {
		return domain.Result{}, err
	}

	return s.commitMutation(ctx, id, result, sum)
}

// commitMutation runs one unit of work: document snapshot, growing state
// and audit entry are made durable together or not at all.
func (s *Service) commitMutation(ctx context.Context, id document.Identity, merged *document.Document, sum merge.Summary) (domain.Result, error) {
	prev, err := s.growRepo.Get(ctx, s.db, id)
	if err != nil {
		return domain.Result{}, storeerr.Wrap(storeerr.KindPersistenceFailure, id.String(), err)
	}
	wasGrowing := prev != nil && prev.IsGrowing

	decision := s.tracker.Evaluate(wasGrowing, sum)
	now := s.clock.Now()

	lastActivity := now
	if !decision.RefreshActivity && prev != nil {
		lastActivity = prev.LastActivityAt
	}

	result := domain.Result{Summary: sum, Growing: decision.IsGrowing}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.objRepo.Save(ctx, tx, merged, now); err != nil {
			return err
		}
		if err := s.growRepo.Upsert(ctx, tx, &growingdomain.GrowingState{
			ObjectType:     id.ObjectType,
			WellUID:        id.WellUID,
			WellboreUID:    id.WellboreUID,
			UID:            id.UID,
			IsGrowing:      decision.IsGrowing,
			LastActivityAt: lastActivity,
			UpdatedAt:      now,
		}); err != nil {
			return err
		}
		entry, err := s.changeSvc.Record(ctx, tx, id, sum, wasGrowing, decision.IsGrowing, now)
		if err != nil {
			return err
		}
		result.Entry = entry
		if decision.Transitioned {
			return s.refreshWellbore(ctx, tx, id.WellUID, id.WellboreUID, now)
		}
		return nil
	})
	if err != nil {
		return domain.Result{}, storeerr.Wrap(storeerr.KindPersistenceFailure, id.String(), err)
	}
	return result, nil
}

func (s *Service) deleteObject(ctx context.Context, id document.Identity) (domain.Result, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.objRepo.Delete(ctx, tx, id); err != nil {
			return err
		}
		if err := s.growRepo.Delete(ctx, tx, id); err != nil {
			return err
		}
		now := s.clock.Now()
		if err := s.changeSvc.Purge(ctx, tx, id); err != nil {
			return err
		}
		return s.refreshWellbore(ctx, tx, id.WellUID, id.WellboreUID, now)
	})
	if err != nil {
		return domain.Result{}, storeerr.Wrap(storeerr.KindPersistenceFailure, id.String(), err)
	}
	sum := merge.Summary{ChangeType: merge.ChangeDelete}
	return domain.Result{Summary: sum}, nil
}

func (s *Service) GetChangeLog(ctx context.Context, req changelogdomain.ListRequest) (changelogdomain.ListResponse, error) {
	return s.changeSvc.List(ctx, req)
}

func (s *Service) IsGrowing(ctx context.Context, id document.Identity) (bool, error) {
	state, err := s.growRepo.Get(ctx, s.db, id)
	if err != nil {
		return false, storeerr.Wrap(storeerr.KindPersistenceFailure, id.String(), err)
	}
	return state != nil && state.IsGrowing, nil
}

func (s *Service) ExpireGrowing(ctx context.Context, id document.Identity, cutoff time.Time) (bool, error) {
	release := s.locks.acquire(id.String())
	defer release()

	state, err := s.growRepo.Get(ctx, s.db, id)
	if err != nil {
		return false, storeerr.Wrap(storeerr.KindPersistenceFailure, id.String(), err)
	}
	// Re-check under the object lock: an append may have landed between
	// the sweeper's scan and this call.
	if state == nil || !state.IsGrowing || state.LastActivityAt.After(cutoff) {
		return false, nil
	}

	now := s.clock.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		state.IsGrowing = false
		state.UpdatedAt = now
		if err := s.growRepo.Upsert(ctx, tx, state); err != nil {
			return err
		}
		closing := merge.Summary{ChangeType: merge.ChangeUpdate}
		_, err := s.changeSvc.Record(ctx, tx, id, closing, true, false, now)
		return err
	})
	if err != nil {
		return false, storeerr.Wrap(storeerr.KindPersistenceFailure, id.String(), err)
	}
	return true, nil
}

func (s *Service) RecomputeWellboreGrowing(ctx context.Context, wellUID, wellboreUID string) error {
	wellboreID := wellboreIdentity(wellUID, wellboreUID)
	release := s.locks.acquire(wellboreID.String())
	defer release()

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.refreshWellbore(ctx, tx, wellUID, wellboreUID, s.clock.Now())
	})
}

// refreshWellbore materializes the wellbore's aggregate growing flag: true
// iff any owned child object is still growing.
func (s *Service) refreshWellbore(ctx context.Context, tx *gorm.DB, wellUID, wellboreUID string, now time.Time) error {
	anyGrowing, err := s.growRepo.AnyGrowingChildren(ctx, tx, wellUID, wellboreUID)
	if err != nil {
		return err
	}
	id := wellboreIdentity(wellUID, wellboreUID)
	return s.growRepo.Upsert(ctx, tx, &growingdomain.GrowingState{
		ObjectType:     id.ObjectType,
		WellUID:        id.WellUID,
		WellboreUID:    id.WellboreUID,
		UID:            id.UID,
		IsGrowing:      anyGrowing,
		LastActivityAt: now,
		UpdatedAt:      now,
	})
}

func wellboreIdentity(wellUID, wellboreUID string) document.Identity {
	return document.Identity{
		ObjectType:  "wellbore",
		WellUID:     wellUID,
		WellboreUID: wellboreUID,
		UID:         wellboreUID,
	}
}

func wholeObjectDelete(spec merge.DeleteSpec) bool {
	return len(spec.ClearFields) == 0 &&
		len(spec.Groups) == 0 &&
		spec.MinIndex == nil &&
		spec.MaxIndex == nil
}
