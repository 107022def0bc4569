package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/subsurfio/wellstore/internal/changelog/domain"
	"github.com/subsurfio/wellstore/internal/document"
	"github.com/subsurfio/wellstore/internal/merge"
	"github.com/subsurfio/wellstore/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("changelog.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Record implements the coalescing rule. While the object stays growing,
// the open entry is widened in place: its index range becomes the union of
// the old and new ranges, a header edit folds into it as updated_header,
// and no new sequence number is allocated. Every other case appends a
// fresh entry.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, id document.Identity, sum merge.Summary, growingBefore, growingAfter bool, at time.Time) (*domain.Entry, error) {
	latest, err := s.repo.FindLatest(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if growingBefore && growingAfter && latest != nil && latest.ObjectGrowing {
		widenRange(latest, sum.StartIndex, sum.EndIndex)
		latest.UpdatedHeader = latest.UpdatedHeader || sum.UpdatedHeader
		latest.UpdatedAt = at
		if err := s.repo.Update(ctx, tx, latest); err != nil {
			return nil, err
		}
		return latest, nil
	}

	var seq int64 = 1
	if latest != nil {
		seq = latest.SequenceNumber + 1
	}

	entry := &domain.Entry{
		ID:             s.genID.Generate(),
		ObjectType:     id.ObjectType,
		WellUID:        id.WellUID,
		WellboreUID:    id.WellboreUID,
		UID:            id.UID,
		SequenceNumber: seq,
		ChangeType:     string(sum.ChangeType),
		UpdatedHeader:  sum.UpdatedHeader,
		ObjectGrowing:  growingAfter,
		StartIndex:     copyIndex(sum.StartIndex),
		EndIndex:       copyIndex(sum.EndIndex),
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	if err := s.repo.Insert(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	if !req.ID.Valid() {
		return domain.ListResponse{}, domain.ErrInvalidIdentity
	}

	var cursor *domain.Cursor
	if req.PageToken != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.Cursor{Sequence: decoded.Sequence}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, req.ID, cursor, pageSize)
	if err != nil {
		return domain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(entry *domain.Entry) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:       strconv.FormatInt(int64(entry.ID), 10),
			Sequence: entry.SequenceNumber,
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	entries := make([]domain.Entry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
	}

	resp := domain.ListResponse{Entries: entries}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Purge(ctx context.Context, tx *gorm.DB, id document.Identity) error {
	if !id.Valid() {
		return domain.ErrInvalidIdentity
	}
	return s.repo.DeleteAll(ctx, tx, id)
}

func widenRange(entry *domain.Entry, start, end *float64) {
	if start != nil && (entry.StartIndex == nil || *start < *entry.StartIndex) {
		entry.StartIndex = copyIndex(start)
	}
	if end != nil && (entry.EndIndex == nil || *end > *entry.EndIndex) {
		entry.EndIndex = copyIndex(end)
	}
}

func copyIndex(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
