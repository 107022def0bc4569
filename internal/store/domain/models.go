package domain

import (
	"context"
	"errors"
	"time"

	changelogdomain "github.com/subsurfio/wellstore/internal/changelog/domain"
	"github.com/subsurfio/wellstore/internal/document"
	"github.com/subsurfio/wellstore/internal/merge"
)

type AddRequest struct {
	Doc     *document.Document
	Options merge.Options
}

type UpdateRequest struct {
	Doc     *document.Document
	Options merge.Options
}

// DeleteRequest removes parts of an object, or the whole object when the
// spec carries nothing beyond the identity.
type DeleteRequest struct {
	Spec    merge.DeleteSpec
	Options merge.Options
}

// Result reports one committed mutation back to the transport layer.
type Result struct {
	Summary merge.Summary
	Growing bool
	Entry   *changelogdomain.Entry
}

// Service is the store facade: one unit of work per object, combining the
// merge engine, the growing-state tracker and the change log.
type Service interface {
	Add(ctx context.Context, req AddRequest) (Result, error)
	Update(ctx context.Context, req UpdateRequest) (Result, error)
	Delete(ctx context.Context, req DeleteRequest) (Result, error)

	GetChangeLog(ctx context.Context, req changelogdomain.ListRequest) (changelogdomain.ListResponse, error)
	IsGrowing(ctx context.Context, id document.Identity) (bool, error)

	// ExpireGrowing demotes the object when it is still growing and idle
	// since before cutoff. Reports whether a demotion happened. Sweeper-only.
	ExpireGrowing(ctx context.Context, id document.Identity, cutoff time.Time) (bool, error)
	// RecomputeWellboreGrowing refreshes the wellbore's aggregate growing
	// flag from its children.
	RecomputeWellboreGrowing(ctx context.Context, wellUID, wellboreUID string) error
}

var ErrAlreadyExists = errors.New("already_exists")
