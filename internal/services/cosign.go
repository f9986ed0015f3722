package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/curiofm/curio-backend/internal/data/repos"
	"github.com/curiofm/curio-backend/internal/data/repos/dberr"
	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/observability"
	"github.com/curiofm/curio-backend/internal/platform/dbctx"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

type CosignResult struct {
	Count int64 `json:"count"`
}

type CosignCheck struct {
	Cosigned bool  `json:"cosigned"`
	Count    int64 `json:"count"`
}

type CosignService interface {
	// Cosign rejects self-endorsement and repeats; the returned count is a
	// fresh row count.
	Cosign(ctx context.Context, recommendationID uuid.UUID, fid int64) (*CosignResult, error)
	Check(ctx context.Context, recommendationID uuid.UUID, fid int64) (*CosignCheck, error)
	Count(ctx context.Context, recommendationID uuid.UUID) (int64, error)
	ListCosigners(ctx context.Context, recommendationID uuid.UUID, limit, offset int) (Page[repos.Cosigner], error)
}

type cosignService struct {
	db         *gorm.DB
	log        *logger.Logger
	recRepo    repos.RecommendationRepo
	cosignRepo repos.CoSignRepo
	scores     ScoreKeeper
	feed       FeedNotifier
	metrics    *observability.Metrics
}

func NewCosignService(
	db *gorm.DB,
	baseLog *logger.Logger,
	recRepo repos.RecommendationRepo,
	cosignRepo repos.CoSignRepo,
	scores ScoreKeeper,
	feed FeedNotifier,
	metrics *observability.Metrics,
) CosignService {
	return &cosignService{
		db:         db,
		log:        baseLog.With("service", "CosignService"),
		recRepo:    recRepo,
		cosignRepo: cosignRepo,
		scores:     scores,
		feed:       feed,
		metrics:    metrics,
	}
}

func (s *cosignService) Cosign(ctx context.Context, recommendationID uuid.UUID, fid int64) (*CosignResult, error) {
	if fid <= 0 {
		return nil, invalid("fid is required")
	}

	var (
		count int64
		owner int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		rec, err := s.recRepo.GetByID(dbc, recommendationID)
		if err != nil {
			return notFoundOr("track_not_found", err)
		}
		owner = rec.CuratorFID
		if owner == fid {
			return domainReject("self_cosign", types.ErrSelfCosign)
		}

		exists, err := s.cosignRepo.Exists(dbc, rec.ID, fid)
		if err != nil {
			return err
		}
		if exists {
			return domainReject("already_cosigned", types.ErrAlreadyCosigned)
		}
		if _, err := s.cosignRepo.Create(dbc, &types.CoSign{RecommendationID: rec.ID, CuratorFID: fid}); err != nil {
			// Lost a race with a concurrent co-sign from the same identity.
			if dberr.IsUniqueViolation(err) {
				return domainReject("already_cosigned", types.ErrAlreadyCosigned)
			}
			return fmt.Errorf("create cosign: %w", err)
		}

		count, err = s.cosignRepo.CountByRecommendation(dbc, rec.ID)
		if err != nil {
			return err
		}
		if _, err := s.scores.Recompute(dbc, owner); err != nil {
			return fmt.Errorf("recompute curator scores: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDomainEvent("cosign", 1)
	s.log.Info("cosign added", "recommendation_id", recommendationID, "fid", fid, "owner_fid", owner, "count", count)
	s.feed.CosignAdded(ctx, owner, CosignEvent{
		RecommendationID: recommendationID.String(),
		CuratorFID:       fid,
		Count:            count,
	})
	return &CosignResult{Count: count}, nil
}

func (s *cosignService) Check(ctx context.Context, recommendationID uuid.UUID, fid int64) (*CosignCheck, error) {
	dbc := dbctx.Context{Ctx: ctx}
	count, err := s.Count(ctx, recommendationID)
	if err != nil {
		return nil, err
	}
	out := &CosignCheck{Count: count}
	if fid <= 0 {
		return out, nil
	}
	out.Cosigned, err = s.cosignRepo.Exists(dbc, recommendationID, fid)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *cosignService) Count(ctx context.Context, recommendationID uuid.UUID) (int64, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.recRepo.GetByID(dbc, recommendationID); err != nil {
		return 0, notFoundOr("track_not_found", err)
	}
	return s.cosignRepo.CountByRecommendation(dbc, recommendationID)
}

func (s *cosignService) ListCosigners(ctx context.Context, recommendationID uuid.UUID, limit, offset int) (Page[repos.Cosigner], error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.recRepo.GetByID(dbc, recommendationID); err != nil {
		return Page[repos.Cosigner]{}, notFoundOr("track_not_found", err)
	}
	limit, offset = clampPage(limit, offset)
	rows, total, err := s.cosignRepo.ListCosigners(dbc, recommendationID, limit, offset)
	if err != nil {
		return Page[repos.Cosigner]{}, err
	}
	return newPage(rows, total, limit, offset), nil
}
