// Package sweeper demotes growing objects that went idle past their
// per-object-type timeout, and cascades the demotion to the owning
// wellbore's aggregate growing flag.
package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/subsurfio/wellstore/internal/clock"
	"github.com/subsurfio/wellstore/internal/config"
	growingdomain "github.com/subsurfio/wellstore/internal/growing/domain"
	obsmetrics "github.com/subsurfio/wellstore/internal/observability/metrics"
	storedomain "github.com/subsurfio/wellstore/internal/store/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("sweeper: invalid configuration")

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Store    storedomain.Service
	GrowRepo growingdomain.Repository
	Config   Config                    `optional:"true"`
	Policy   *config.SweepPolicyHolder `optional:"true"`
}

type Sweeper struct {
	db       *gorm.DB
	log      *zap.Logger
	cfg      Config
	clock    clock.Clock
	store    storedomain.Service
	growRepo growingdomain.Repository
	policy   *config.SweepPolicyHolder

	// running guards against overlapping sweeps. An invocation that finds
	// it set skips the cycle instead of queueing.
	running atomic.Bool
}

func New(p Params) (*Sweeper, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Store == nil || p.GrowRepo == nil {
		return nil, ErrInvalidConfig
	}
	return &Sweeper{
		db:       p.DB,
		log:      p.Log.Named("sweeper").With(zap.String("component", "sweeper")),
		cfg:      p.Config.withDefaults(),
		clock:    p.Clock,
		store:    p.Store,
		growRepo: p.GrowRepo,
		policy:   p.Policy,
	}, nil
}

// RunForever sweeps on the configured period until ctx is cancelled.
func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

type wellboreKey struct {
	wellUID     string
	wellboreUID string
}

// RunOnce executes one sweep. At most one sweep runs at a time: an
// invocation overlapping a still-running sweep is skipped with a warning,
// not queued. The guard is released even when a sweep fails.
func (s *Sweeper) RunOnce(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("sweep already running, skipping this cycle")
		obsmetrics.Sweeper().IncSkipped()
		return
	}
	defer s.running.Store(false)

	start := s.clock.Now()
	wellbores := map[wellboreKey]struct{}{}

	for _, objectType := range s.cfg.ObjectTypes {
		if err := s.sweepType(ctx, objectType, wellbores); err != nil {
			obsmetrics.Sweeper().IncError(objectType)
			s.log.Error("sweep failed for object type",
				zap.String("object_type", objectType),
				zap.Error(err),
			)
		}
	}

	// One aggregate recomputation per distinct wellbore, no matter how
	// many of its children expired this cycle.
	for key := range wellbores {
		if err := s.store.RecomputeWellboreGrowing(ctx, key.wellUID, key.wellboreUID); err != nil {
			s.log.Error("wellbore growing recompute failed",
				zap.String("well_uid", key.wellUID),
				zap.String("wellbore_uid", key.wellboreUID),
				zap.Error(err),
			)
			continue
		}
		obsmetrics.Sweeper().IncWellboreRecompute()
	}

	obsmetrics.Sweeper().IncRun()
	obsmetrics.Sweeper().ObserveDuration(time.Since(start))
	s.log.Info("sweep finished",
		zap.Int("wellbores_touched", len(wellbores)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// idleTimeoutFor prefers the hot-reloadable policy over the static config.
func (s *Sweeper) idleTimeoutFor(objectType string) time.Duration {
	if s.policy != nil {
		if d := s.policy.IdleTimeoutFor(objectType); d > 0 {
			return d
		}
	}
	return s.cfg.idleTimeoutFor(objectType)
}

func (s *Sweeper) sweepType(parent context.Context, objectType string, wellbores map[wellboreKey]struct{}) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	states, err := s.growRepo.ScanGrowing(ctx, s.db, objectType)
	if err != nil {
		return err
	}

	cutoff := s.clock.Now().Add(-s.idleTimeoutFor(objectType))
	for _, state := range states {
		if state.LastActivityAt.After(cutoff) {
			continue
		}
		demoted, err := s.store.ExpireGrowing(ctx, state.Identity(), cutoff)
		if err != nil {
			// One stuck object must not block the rest of the scan.
			obsmetrics.Sweeper().IncError(objectType)
			s.log.Error("failed to expire growing object",
				zap.String("object_id", state.Identity().String()),
				zap.Error(err),
			)
			continue
		}
		if demoted {
			obsmetrics.Sweeper().IncExpired(objectType)
			wellbores[wellboreKey{state.WellUID, state.OwnerWellboreUID()}] = struct{}{}
		}
	}
	return nil
}
