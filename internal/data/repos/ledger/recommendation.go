package ledger

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/platform/dbctx"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

const (
	SortRecent     = "recent"
	SortMostTipped = "most_tipped"
)

// CuratorTotals aggregates a curator's recommendations.
type CuratorTotals struct {
	CuratorFID          int64   `gorm:"column:curator_fid" json:"curatorFid"`
	RecommendationCount int64   `gorm:"column:recommendation_count" json:"recommendationCount"`
	TipCount            int64   `gorm:"column:tip_count" json:"tipCount"`
	TotalTipsUSD        float64 `gorm:"column:total_tips_usd" json:"totalTipsUsd"`
	SuccessfulCount     int64   `gorm:"column:successful_count" json:"successfulCount"`
}

type FeedQuery struct {
	Sort   string
	Genre  string
	Limit  int
	Offset int
}

type RecommendationRepo interface {
	Create(dbc dbctx.Context, rec *types.Recommendation) (*types.Recommendation, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Recommendation, error)
	// ListPriorOnTrack returns recommendations of trackID owned by anyone but
	// excludeFID, oldest first.
	ListPriorOnTrack(dbc dbctx.Context, trackID uuid.UUID, excludeFID int64, limit int) ([]*types.Recommendation, error)
	Feed(dbc dbctx.Context, q FeedQuery) ([]*types.Recommendation, int64, error)
	ListByCurator(dbc dbctx.Context, fid int64, limit, offset int) ([]*types.Recommendation, int64, error)
	IncrementTips(dbc dbctx.Context, id uuid.UUID, amountUSD float64) (int64, float64, error)
	IncrementTipCount(dbc dbctx.Context, id uuid.UUID) (int64, error)
	ListMissingTrack(dbc dbctx.Context, limit int) ([]*types.Recommendation, error)
	LinkTrack(dbc dbctx.Context, id uuid.UUID, trackID uuid.UUID) error
	CuratorTotals(dbc dbctx.Context, fid int64, successThresholdUSD float64) (CuratorTotals, error)
	TotalsForCurators(dbc dbctx.Context, fids []int64, successThresholdUSD float64) (map[int64]CuratorTotals, error)
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return &recommendationRepo{db: db, log: baseLog.With("repo", "RecommendationRepo")}
}

func (r *recommendationRepo) Create(dbc dbctx.Context, rec *types.Recommendation) (*types.Recommendation, error) {
	if rec == nil {
		return nil, fmt.Errorf("nil recommendation")
	}
	// Associations are written by their own repos.
	if err := dbc.DB(r.db).Omit("Track", "Curator").Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *recommendationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Recommendation, error) {
	var rec types.Recommendation
	err := dbc.DB(r.db).
		Preload("Track").
		Preload("Curator").
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recommendationRepo) ListPriorOnTrack(dbc dbctx.Context, trackID uuid.UUID, excludeFID int64, limit int) ([]*types.Recommendation, error) {
	var out []*types.Recommendation
	q := dbc.DB(r.db).
		Where("track_id = ? AND curator_fid <> ?", trackID, excludeFID).
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recommendationRepo) Feed(dbc dbctx.Context, q FeedQuery) ([]*types.Recommendation, int64, error) {
	base := dbc.DB(r.db).Model(&types.Recommendation{})
	if g := strings.TrimSpace(q.Genre); g != "" {
		base = base.Where("LOWER(genre) = ?", strings.ToLower(g))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	list := base.Session(&gorm.Session{}).Preload("Track").Preload("Curator")
	switch q.Sort {
	case SortMostTipped:
		list = list.Order("total_tips_usd DESC").Order("tip_count DESC").Order("created_at DESC")
	default:
		list = list.Order("created_at DESC")
	}
	var out []*types.Recommendation
	if err := list.Order("id DESC").Limit(q.Limit).Offset(q.Offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *recommendationRepo) ListByCurator(dbc dbctx.Context, fid int64, limit, offset int) ([]*types.Recommendation, int64, error) {
	base := dbc.DB(r.db).Model(&types.Recommendation{}).Where("curator_fid = ?", fid)
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*types.Recommendation
	err := base.Session(&gorm.Session{}).
		Preload("Track").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// IncrementTips bumps both tip counters in one statement and returns the new
// values as seen by the same connection.
func (r *recommendationRepo) IncrementTips(dbc dbctx.Context, id uuid.UUID, amountUSD float64) (int64, float64, error) {
	transaction := dbc.DB(r.db)
	res := transaction.Model(&types.Recommendation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"tip_count":      gorm.Expr("tip_count + 1"),
			"total_tips_usd": gorm.Expr("total_tips_usd + ?", amountUSD),
		})
	if res.Error != nil {
		return 0, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, 0, gorm.ErrRecordNotFound
	}
	var row struct {
		TipCount     int64   `gorm:"column:tip_count"`
		TotalTipsUSD float64 `gorm:"column:total_tips_usd"`
	}
	if err := transaction.Model(&types.Recommendation{}).
		Select("tip_count, total_tips_usd").
		Where("id = ?", id).
		Take(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.TipCount, row.TotalTipsUSD, nil
}

func (r *recommendationRepo) IncrementTipCount(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	transaction := dbc.DB(r.db)
	res := transaction.Model(&types.Recommendation{}).
		Where("id = ?", id).
		UpdateColumn("tip_count", gorm.Expr("tip_count + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var n int64
	if err := transaction.Model(&types.Recommendation{}).
		Select("tip_count").
		Where("id = ?", id).
		Scan(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *recommendationRepo) ListMissingTrack(dbc dbctx.Context, limit int) ([]*types.Recommendation, error) {
	var out []*types.Recommendation
	q := dbc.DB(r.db).
		Where("track_id IS NULL").
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recommendationRepo) LinkTrack(dbc dbctx.Context, id uuid.UUID, trackID uuid.UUID) error {
	res := dbc.DB(r.db).Model(&types.Recommendation{}).
		Where("id = ? AND track_id IS NULL", id).
		UpdateColumn("track_id", trackID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		r.log.Debug("recommendation already linked", "recommendation_id", id)
	}
	return nil
}

const totalsSelect = `curator_fid,
	COUNT(*) AS recommendation_count,
	COALESCE(SUM(tip_count), 0) AS tip_count,
	COALESCE(SUM(total_tips_usd), 0) AS total_tips_usd,
	COALESCE(SUM(CASE WHEN total_tips_usd >= ? THEN 1 ELSE 0 END), 0) AS successful_count`

func (r *recommendationRepo) CuratorTotals(dbc dbctx.Context, fid int64, successThresholdUSD float64) (CuratorTotals, error) {
	out, err := r.TotalsForCurators(dbc, []int64{fid}, successThresholdUSD)
	if err != nil {
		return CuratorTotals{}, err
	}
	t, ok := out[fid]
	if !ok {
		return CuratorTotals{CuratorFID: fid}, nil
	}
	return t, nil
}

func (r *recommendationRepo) TotalsForCurators(dbc dbctx.Context, fids []int64, successThresholdUSD float64) (map[int64]CuratorTotals, error) {
	out := make(map[int64]CuratorTotals, len(fids))
	if len(fids) == 0 {
		return out, nil
	}
	var rows []CuratorTotals
	err := dbc.DB(r.db).Model(&types.Recommendation{}).
		Select(totalsSelect, successThresholdUSD).
		Where("curator_fid IN ?", fids).
		Group("curator_fid").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CuratorFID] = row
	}
	return out, nil
}
