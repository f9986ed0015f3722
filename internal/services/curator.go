package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/curiofm/curio-backend/internal/clients/farcaster"
	"github.com/curiofm/curio-backend/internal/data/repos"
	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/domain/curator"
	"github.com/curiofm/curio-backend/internal/platform/apierr"
	"github.com/curiofm/curio-backend/internal/platform/dbctx"
	"github.com/curiofm/curio-backend/internal/platform/httpx"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

const batchSize = 200

type CuratorStats struct {
	FID                 int64   `json:"fid"`
	Username            string  `json:"username"`
	PfpURL              string  `json:"pfpUrl,omitempty"`
	WalletAddress       string  `json:"walletAddress,omitempty"`
	Bio                 string  `json:"bio,omitempty"`
	CuratorScore        int64   `json:"curatorScore"`
	XP                  int64   `json:"xp"`
	RecommendationCount int64   `json:"recommendationCount"`
	CosignCount         int64   `json:"cosignCount"`
	TipCount            int64   `json:"tipCount"`
	TotalTipsUSD        float64 `json:"totalTipsUsd"`
	SuccessRate         int64   `json:"successRate"`
	TasteOverlapCount   int64   `json:"tasteOverlapCount"`
}

type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	FID          int64  `json:"fid"`
	Username     string `json:"username"`
	PfpURL       string `json:"pfpUrl,omitempty"`
	CuratorScore int64  `json:"curatorScore"`
	XP           int64  `json:"xp"`
}

type TopCurator struct {
	LeaderboardEntry
	RecommendationCount int64   `json:"recommendationCount"`
	TipCount            int64   `json:"tipCount"`
	TotalTipsUSD        float64 `json:"totalTipsUsd"`
}

type ReconcileReport struct {
	Profiles int `json:"profiles"`
	Changed  int `json:"changed"`
	Failed   int `json:"failed"`
}

type WalletBackfillReport struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Missing int `json:"missing"`
	Failed  int `json:"failed"`
}

type CuratorService interface {
	Stats(ctx context.Context, username string) (*CuratorStats, error)
	Tracks(ctx context.Context, username string, limit, offset int) (Page[RecommendationView], error)
	UpdateBio(ctx context.Context, username string, fid int64, bio string) (*types.CuratorProfile, error)
	Leaderboard(ctx context.Context, sort string, limit int) ([]LeaderboardEntry, error)
	TopCurators(ctx context.Context, limit int) ([]TopCurator, error)
	// Reconcile rewrites every profile's cached score and XP from the ledgers.
	Reconcile(ctx context.Context) (ReconcileReport, error)
	VerifiedAddresses(ctx context.Context, fid int64) ([]string, error)
	BackfillWallets(ctx context.Context, limit int) (WalletBackfillReport, error)
}

type curatorService struct {
	db           *gorm.DB
	log          *logger.Logger
	cfg          EngagementConfig
	profileRepo  repos.ProfileRepo
	recRepo      repos.RecommendationRepo
	cosignRepo   repos.CoSignRepo
	activityRepo repos.ActivityRepo
	scores       ScoreKeeper
	hub          farcaster.Hub
}

func NewCuratorService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg EngagementConfig,
	profileRepo repos.ProfileRepo,
	recRepo repos.RecommendationRepo,
	cosignRepo repos.CoSignRepo,
	activityRepo repos.ActivityRepo,
	scores ScoreKeeper,
	hub farcaster.Hub,
) CuratorService {
	return &curatorService{
		db:           db,
		log:          baseLog.With("service", "CuratorService"),
		cfg:          cfg,
		profileRepo:  profileRepo,
		recRepo:      recRepo,
		cosignRepo:   cosignRepo,
		activityRepo: activityRepo,
		scores:       scores,
		hub:          hub,
	}
}

func (s *curatorService) profileByUsername(ctx context.Context, username string) (*types.CuratorProfile, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, invalid("username is required")
	}
	p, err := s.profileRepo.GetByUsername(dbctx.Context{Ctx: ctx}, username)
	if err != nil {
		return nil, notFoundOr("curator_not_found", err)
	}
	return p, nil
}

func (s *curatorService) Stats(ctx context.Context, username string) (*CuratorStats, error) {
	p, err := s.profileByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	var (
		totals   repos.CuratorTotals
		cosigns  int64
		overlaps int64
	)
	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.Context{Ctx: gctx}
	g.Go(func() error {
		var err error
		totals, err = s.recRepo.CuratorTotals(dbc, p.FID, s.cfg.SuccessTipThresholdUSD)
		return err
	})
	g.Go(func() error {
		var err error
		cosigns, err = s.cosignRepo.CountReceivedByCurator(dbc, p.FID)
		return err
	})
	g.Go(func() error {
		var err error
		overlaps, err = s.activityRepo.CountByType(dbc, p.FID, types.ActivityTasteOverlap)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("curator stats: %w", err)
	}

	return &CuratorStats{
		FID:                 p.FID,
		Username:            p.Username,
		PfpURL:              p.PfpURL,
		WalletAddress:       p.WalletAddress,
		Bio:                 p.Bio,
		CuratorScore:        curator.Score(cosigns, totals.TotalTipsUSD),
		XP:                  p.XP,
		RecommendationCount: totals.RecommendationCount,
		CosignCount:         cosigns,
		TipCount:            totals.TipCount,
		TotalTipsUSD:        roundCents(totals.TotalTipsUSD),
		SuccessRate:         curator.SuccessRate(totals.SuccessfulCount, totals.RecommendationCount),
		TasteOverlapCount:   overlaps,
	}, nil
}

func (s *curatorService) Tracks(ctx context.Context, username string, limit, offset int) (Page[RecommendationView], error) {
	p, err := s.profileByUsername(ctx, username)
	if err != nil {
		return Page[RecommendationView]{}, err
	}
	limit, offset = clampPage(limit, offset)
	dbc := dbctx.Context{Ctx: ctx}
	recs, total, err := s.recRepo.ListByCurator(dbc, p.FID, limit, offset)
	if err != nil {
		return Page[RecommendationView]{}, err
	}
	for _, r := range recs {
		r.Curator = p
	}
	views, err := buildViews(dbc, s.cosignRepo, recs)
	if err != nil {
		return Page[RecommendationView]{}, err
	}
	return newPage(views, total, limit, offset), nil
}

func (s *curatorService) UpdateBio(ctx context.Context, username string, fid int64, bio string) (*types.CuratorProfile, error) {
	bio = strings.TrimSpace(bio)
	if fid <= 0 {
		return nil, invalid("fid is required")
	}
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return nil, invalid("bio must be at most %d characters", MaxBioLength)
	}
	p, err := s.profileByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if p.FID != fid {
		return nil, apierr.New(http.StatusForbidden, "forbidden", types.ErrForbidden)
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.profileRepo.UpdateBio(dbc, p.FID, bio); err != nil {
		return nil, notFoundOr("curator_not_found", err)
	}
	return s.profileRepo.GetByFID(dbc, p.FID)
}

func (s *curatorService) Leaderboard(ctx context.Context, sort string, limit int) ([]LeaderboardEntry, error) {
	sort = strings.ToLower(strings.TrimSpace(sort))
	if sort == "" {
		sort = "score"
	}
	if sort != "score" && sort != "xp" {
		return nil, invalid("sort must be one of [score xp]")
	}
	limit, _ = clampPage(limit, 0)
	profiles, err := s.profileRepo.Leaderboard(dbctx.Context{Ctx: ctx}, sort, limit)
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, 0, len(profiles))
	for i, p := range profiles {
		out = append(out, leaderboardEntry(i+1, p))
	}
	return out, nil
}

func leaderboardEntry(rank int, p *types.CuratorProfile) LeaderboardEntry {
	return LeaderboardEntry{
		Rank:         rank,
		FID:          p.FID,
		Username:     p.Username,
		PfpURL:       p.PfpURL,
		CuratorScore: p.CuratorScore,
		XP:           p.XP,
	}
}

func (s *curatorService) TopCurators(ctx context.Context, limit int) ([]TopCurator, error) {
	limit, _ = clampPage(limit, 0)
	dbc := dbctx.Context{Ctx: ctx}
	profiles, err := s.profileRepo.Leaderboard(dbc, "score", limit)
	if err != nil {
		return nil, err
	}
	fids := make([]int64, 0, len(profiles))
	for _, p := range profiles {
		fids = append(fids, p.FID)
	}
	totals, err := s.recRepo.TotalsForCurators(dbc, fids, s.cfg.SuccessTipThresholdUSD)
	if err != nil {
		return nil, err
	}
	out := make([]TopCurator, 0, len(profiles))
	for i, p := range profiles {
		t := totals[p.FID]
		out = append(out, TopCurator{
			LeaderboardEntry:    leaderboardEntry(i+1, p),
			RecommendationCount: t.RecommendationCount,
			TipCount:            t.TipCount,
			TotalTipsUSD:        roundCents(t.TotalTipsUSD),
		})
	}
	return out, nil
}

func (s *curatorService) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var (
		report ReconcileReport
		after  int64
	)
	for {
		page, err := s.profileRepo.ListAfter(dbctx.Context{Ctx: ctx}, after, batchSize)
		if err != nil {
			return report, err
		}
		if len(page) == 0 {
			break
		}
		for _, p := range page {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Profiles++
			var scores CuratorScores
			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var err error
				scores, err = s.scores.Recompute(dbctx.Context{Ctx: ctx, Tx: tx}, p.FID)
				return err
			})
			if err != nil {
				report.Failed++
				s.log.Warn("reconcile failed", "fid", p.FID, "error", err)
				continue
			}
			if scores.Score != p.CuratorScore || scores.XP != p.XP {
				report.Changed++
				s.log.Info("reconciled curator caches",
					"fid", p.FID,
					"score_before", p.CuratorScore, "score_after", scores.Score,
					"xp_before", p.XP, "xp_after", scores.XP,
				)
			}
		}
		after = page[len(page)-1].FID
	}
	return report, nil
}

func (s *curatorService) VerifiedAddresses(ctx context.Context, fid int64) ([]string, error) {
	if fid <= 0 {
		return nil, invalid("fid must be a positive integer")
	}
	if s.hub == nil {
		return nil, apierr.Upstream("hub_unavailable", http.StatusServiceUnavailable, fmt.Errorf("farcaster hub not configured"))
	}
	addrs, err := s.hub.VerifiedAddresses(ctx, fid)
	if err != nil {
		return nil, apierr.Upstream("hub_error", httpx.StatusOf(err), err)
	}
	return addrs, nil
}

func (s *curatorService) BackfillWallets(ctx context.Context, limit int) (WalletBackfillReport, error) {
	var (
		report WalletBackfillReport
		after  int64
	)
	if s.hub == nil {
		return report, fmt.Errorf("farcaster hub not configured")
	}
	dbc := dbctx.Context{Ctx: ctx}
	for limit <= 0 || report.Scanned < limit {
		size := batchSize
		if limit > 0 && limit-report.Scanned < size {
			size = limit - report.Scanned
		}
		page, err := s.profileRepo.ListMissingWallet(dbc, after, size)
		if err != nil {
			return report, err
		}
		if len(page) == 0 {
			break
		}
		for _, p := range page {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Scanned++
			addrs, err := s.hub.VerifiedAddresses(ctx, p.FID)
			if err != nil {
				report.Failed++
				s.log.Warn("hub lookup failed; skipping curator", "fid", p.FID, "error", err)
				continue
			}
			if len(addrs) == 0 {
				report.Missing++
				continue
			}
			if err := s.profileRepo.UpdateWallet(dbc, p.FID, addrs[0]); err != nil {
				report.Failed++
				s.log.Warn("wallet update failed", "fid", p.FID, "error", err)
				continue
			}
			report.Updated++
		}
		after = page[len(page)-1].FID
	}
	s.log.Info("wallet backfill finished",
		"scanned", report.Scanned,
		"updated", report.Updated,
		"missing", report.Missing,
		"failed", report.Failed,
	)
	return report, nil
}
