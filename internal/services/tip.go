package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/curiofm/curio-backend/internal/clients/notify"
	"github.com/curiofm/curio-backend/internal/data/repos"
	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/observability"
	"github.com/curiofm/curio-backend/internal/platform/dbctx"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

type TipInput struct {
	TxHash          string  `json:"txHash" validate:"required,max=200"`
	FromFID         int64   `json:"fromFid" validate:"gt=0"`
	ToFID           int64   `json:"toFid" validate:"gte=0"`
	RequestedAmount float64 `json:"requestedAmount" validate:"gt=0,lte=10000"`
	TipperUsername  string  `json:"tipperUsername" validate:"max=64"`
}

type TipResult struct {
	TipCount  int64   `json:"tipCount"`
	TotalTips float64 `json:"totalTips"`
}

type TipService interface {
	Record(ctx context.Context, recommendationID uuid.UUID, in TipInput) (*TipResult, error)
	// LegacyTip bumps the tip counter without an amount or ledger row.
	LegacyTip(ctx context.Context, recommendationID uuid.UUID) (*TipResult, error)
	ListTippers(ctx context.Context, recommendationID uuid.UUID, limit, offset int) (Page[repos.Tipper], error)
}

type tipService struct {
	db       *gorm.DB
	log      *logger.Logger
	cfg      EngagementConfig
	recRepo  repos.RecommendationRepo
	tipRepo  repos.TipRepo
	scores   ScoreKeeper
	notifier NotificationDispatcher
	feed     FeedNotifier
	metrics  *observability.Metrics
}

func NewTipService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg EngagementConfig,
	recRepo repos.RecommendationRepo,
	tipRepo repos.TipRepo,
	scores ScoreKeeper,
	notifier NotificationDispatcher,
	feed FeedNotifier,
	metrics *observability.Metrics,
) TipService {
	return &tipService{
		db:       db,
		log:      baseLog.With("service", "TipService"),
		cfg:      cfg,
		recRepo:  recRepo,
		tipRepo:  tipRepo,
		scores:   scores,
		notifier: notifier,
		feed:     feed,
		metrics:  metrics,
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *tipService) Record(ctx context.Context, recommendationID uuid.UUID, in TipInput) (*TipResult, error) {
	in.TxHash = strings.TrimSpace(in.TxHash)
	in.TipperUsername = strings.TrimSpace(in.TipperUsername)
	if err := invalidStruct(&in); err != nil {
		return nil, err
	}
	amount := roundCents(in.RequestedAmount)
	if amount <= 0 {
		return nil, invalid("requestedAmount must be at least 0.01")
	}

	var (
		out   TipResult
		owner int64
		tip   *types.Tip
		title string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		rec, err := s.recRepo.GetByID(dbc, recommendationID)
		if err != nil {
			return notFoundOr("track_not_found", err)
		}
		owner = rec.CuratorFID
		title = trackViewOf(rec).Title
		if in.ToFID != 0 && in.ToFID != owner {
			return domainReject("recipient_mismatch", types.ErrRecipientMismatch)
		}
		if !s.cfg.AllowSelfTip && in.FromFID == owner {
			return domainReject("self_tip", types.ErrSelfTip)
		}

		count, total, err := s.recRepo.IncrementTips(dbc, rec.ID, amount)
		if err != nil {
			return fmt.Errorf("increment tips: %w", err)
		}
		out = TipResult{TipCount: count, TotalTips: roundCents(total)}

		tip = &types.Tip{
			RecommendationID: rec.ID,
			TipperFID:        in.FromFID,
			TipperUsername:   in.TipperUsername,
			RecipientFID:     owner,
			AmountUSD:        amount,
			TransactionHash:  in.TxHash,
		}
		if _, err := s.tipRepo.Create(dbc, tip); err != nil {
			return fmt.Errorf("record tip: %w", err)
		}

		if _, err := s.scores.Recompute(dbc, owner); err != nil {
			return fmt.Errorf("recompute curator scores: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDomainEvent("tip", 1)
	s.log.Info("tip recorded",
		"recommendation_id", recommendationID,
		"tipper_fid", in.FromFID,
		"recipient_fid", owner,
		"amount_usd", amount,
		"tx_hash", in.TxHash,
	)

	s.notifier.Dispatch(tipNotification(tip, title))
	s.feed.TipRecorded(ctx, owner, TipEvent{
		RecommendationID: recommendationID.String(),
		TipperFID:        in.FromFID,
		AmountUSD:        amount,
		TipCount:         out.TipCount,
		TotalTipsUSD:     out.TotalTips,
	})
	return &out, nil
}

func tipNotification(tip *types.Tip, title string) notify.Notification {
	who := "Someone"
	if tip.TipperUsername != "" {
		who = "@" + tip.TipperUsername
	}
	body := fmt.Sprintf("%s tipped you $%.2f", who, tip.AmountUSD)
	if title != "" {
		body += " for " + title
	}
	return notify.Notification{
		NotificationID: "tip-" + tip.ID.String(),
		Title:          "You received a tip",
		Body:           body,
		TargetFIDs:     []int64{tip.RecipientFID},
	}
}

func (s *tipService) LegacyTip(ctx context.Context, recommendationID uuid.UUID) (*TipResult, error) {
	var out TipResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		n, err := s.recRepo.IncrementTipCount(dbc, recommendationID)
		if err != nil {
			return notFoundOr("track_not_found", err)
		}
		rec, err := s.recRepo.GetByID(dbc, recommendationID)
		if err != nil {
			return err
		}
		out = TipResult{TipCount: n, TotalTips: roundCents(rec.TotalTipsUSD)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *tipService) ListTippers(ctx context.Context, recommendationID uuid.UUID, limit, offset int) (Page[repos.Tipper], error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.recRepo.GetByID(dbc, recommendationID); err != nil {
		return Page[repos.Tipper]{}, notFoundOr("track_not_found", err)
	}
	limit, offset = clampPage(limit, offset)
	rows, total, err := s.tipRepo.ListTippers(dbc, recommendationID, limit, offset)
	if err != nil {
		return Page[repos.Tipper]{}, err
	}
	return newPage(rows, total, limit, offset), nil
}
