package engagement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/platform/dbctx"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

// Cosigner is a co-signing curator joined with whatever profile data exists.
type Cosigner struct {
	FID       int64     `gorm:"column:fid" json:"fid"`
	Username  string    `gorm:"column:username" json:"username,omitempty"`
	PfpURL    string    `gorm:"column:pfp_url" json:"pfpUrl,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

type CoSignRepo interface {
	Create(dbc dbctx.Context, c *types.CoSign) (*types.CoSign, error)
	Exists(dbc dbctx.Context, recommendationID uuid.UUID, fid int64) (bool, error)
	CountByRecommendation(dbc dbctx.Context, recommendationID uuid.UUID) (int64, error)
	CountByRecommendations(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error)
	// CountReceivedByCurator counts co-signs across every recommendation owned by fid.
	CountReceivedByCurator(dbc dbctx.Context, fid int64) (int64, error)
	ListCosigners(dbc dbctx.Context, recommendationID uuid.UUID, limit, offset int) ([]Cosigner, int64, error)
}

type coSignRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCoSignRepo(db *gorm.DB, baseLog *logger.Logger) CoSignRepo {
	return &coSignRepo{db: db, log: baseLog.With("repo", "CoSignRepo")}
}

func (r *coSignRepo) Create(dbc dbctx.Context, c *types.CoSign) (*types.CoSign, error) {
	if c == nil {
		return nil, fmt.Errorf("nil cosign")
	}
	if err := dbc.DB(r.db).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *coSignRepo) Exists(dbc dbctx.Context, recommendationID uuid.UUID, fid int64) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.CoSign{}).
		Where("recommendation_id = ? AND curator_fid = ?", recommendationID, fid).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *coSignRepo) CountByRecommendation(dbc dbctx.Context, recommendationID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.CoSign{}).
		Where("recommendation_id = ?", recommendationID).
		Count(&n).Error
	return n, err
}

func (r *coSignRepo) CountByRecommendations(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		RecommendationID uuid.UUID `gorm:"column:recommendation_id"`
		N                int64     `gorm:"column:n"`
	}
	err := dbc.DB(r.db).Model(&types.CoSign{}).
		Select("recommendation_id, COUNT(*) AS n").
		Where("recommendation_id IN ?", ids).
		Group("recommendation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.RecommendationID] = row.N
	}
	return out, nil
}

func (r *coSignRepo) CountReceivedByCurator(dbc dbctx.Context, fid int64) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Table("cosigns AS c").
		Joins("JOIN recommendations AS r ON r.id = c.recommendation_id").
		Where("r.curator_fid = ?", fid).
		Count(&n).Error
	return n, err
}

func (r *coSignRepo) ListCosigners(dbc dbctx.Context, recommendationID uuid.UUID, limit, offset int) ([]Cosigner, int64, error) {
	transaction := dbc.DB(r.db)

	total, err := r.CountByRecommendation(dbc, recommendationID)
	if err != nil {
		return nil, 0, err
	}

	var out []Cosigner
	err = transaction.Table("cosigns AS c").
		Select("c.curator_fid AS fid, COALESCE(p.username, '') AS username, COALESCE(p.pfp_url, '') AS pfp_url, c.created_at AS created_at").
		Joins("LEFT JOIN curator_profiles AS p ON p.fid = c.curator_fid").
		Where("c.recommendation_id = ?", recommendationID).
		Order("c.created_at DESC").
		Order("c.curator_fid ASC").
		Limit(limit).
		Offset(offset).
		Scan(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
