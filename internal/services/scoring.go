package services

import (
	"github.com/curiofm/curio-backend/internal/data/repos"
	"github.com/curiofm/curio-backend/internal/data/repos/dberr"
	"github.com/curiofm/curio-backend/internal/domain/curator"
	"github.com/curiofm/curio-backend/internal/platform/dbctx"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

type CuratorScores struct {
	Score   int64               `json:"curatorScore"`
	XP      int64               `json:"xp"`
	Totals  repos.CuratorTotals `json:"-"`
	Cosigns int64               `json:"-"`
}

// ScoreKeeper derives curator score and XP from the ledgers. Recompute
// overwrites the profile cache and must run in the same transaction as the
// write that changed the ledgers.
type ScoreKeeper interface {
	Live(dbc dbctx.Context, fid int64) (CuratorScores, error)
	Recompute(dbc dbctx.Context, fid int64) (CuratorScores, error)
}

type scoreKeeper struct {
	log          *logger.Logger
	cfg          EngagementConfig
	recRepo      repos.RecommendationRepo
	cosignRepo   repos.CoSignRepo
	activityRepo repos.ActivityRepo
	profileRepo  repos.ProfileRepo
}

func NewScoreKeeper(
	log *logger.Logger,
	cfg EngagementConfig,
	recRepo repos.RecommendationRepo,
	cosignRepo repos.CoSignRepo,
	activityRepo repos.ActivityRepo,
	profileRepo repos.ProfileRepo,
) ScoreKeeper {
	return &scoreKeeper{
		log:          log.With("service", "ScoreKeeper"),
		cfg:          cfg,
		recRepo:      recRepo,
		cosignRepo:   cosignRepo,
		activityRepo: activityRepo,
		profileRepo:  profileRepo,
	}
}

func (s *scoreKeeper) Live(dbc dbctx.Context, fid int64) (CuratorScores, error) {
	totals, err := s.recRepo.CuratorTotals(dbc, fid, s.cfg.SuccessTipThresholdUSD)
	if err != nil {
		return CuratorScores{}, err
	}
	cosigns, err := s.cosignRepo.CountReceivedByCurator(dbc, fid)
	if err != nil {
		return CuratorScores{}, err
	}
	xp, err := s.activityRepo.SumXP(dbc, fid)
	if err != nil {
		return CuratorScores{}, err
	}
	return CuratorScores{
		Score:   curator.Score(cosigns, totals.TotalTipsUSD),
		XP:      xp,
		Totals:  totals,
		Cosigns: cosigns,
	}, nil
}

func (s *scoreKeeper) Recompute(dbc dbctx.Context, fid int64) (CuratorScores, error) {
	scores, err := s.Live(dbc, fid)
	if err != nil {
		return CuratorScores{}, err
	}
	if err := s.profileRepo.UpdateCaches(dbc, fid, scores.Score, scores.XP); err != nil {
		// Legacy recommendations may belong to curators without a profile row.
		if dberr.IsNotFound(err) {
			s.log.Debug("no profile to cache scores on", "fid", fid)
			return scores, nil
		}
		return CuratorScores{}, err
	}
	return scores, nil
}
