package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/platform/dbctx"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

// Tipper is one distinct tipper's aggregate on a recommendation.
type Tipper struct {
	FID      int64   `gorm:"column:fid" json:"fid"`
	Username string  `gorm:"column:username" json:"username"`
	PfpURL   string  `gorm:"column:pfp_url" json:"pfpUrl,omitempty"`
	TipCount int64   `gorm:"column:tip_count" json:"tipCount"`
	TotalUSD float64 `gorm:"column:total_usd" json:"totalUsd"`
}

type TipRepo interface {
	Create(dbc dbctx.Context, tip *types.Tip) (*types.Tip, error)
	ListTippers(dbc dbctx.Context, recommendationID uuid.UUID, limit, offset int) ([]Tipper, int64, error)
}

type tipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTipRepo(db *gorm.DB, baseLog *logger.Logger) TipRepo {
	return &tipRepo{db: db, log: baseLog.With("repo", "TipRepo")}
}

func (r *tipRepo) Create(dbc dbctx.Context, tip *types.Tip) (*types.Tip, error) {
	if tip == nil {
		return nil, fmt.Errorf("nil tip")
	}
	if err := dbc.DB(r.db).Create(tip).Error; err != nil {
		return nil, err
	}
	return tip, nil
}

func (r *tipRepo) ListTippers(dbc dbctx.Context, recommendationID uuid.UUID, limit, offset int) ([]Tipper, int64, error) {
	transaction := dbc.DB(r.db)

	var total int64
	if err := transaction.Model(&types.Tip{}).
		Where("recommendation_id = ?", recommendationID).
		Distinct("tipper_fid").
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []Tipper
	err := transaction.Table("tips AS t").
		Select(`t.tipper_fid AS fid,
			COALESCE(MAX(p.username), MAX(t.tipper_username), '') AS username,
			COALESCE(MAX(p.pfp_url), '') AS pfp_url,
			COUNT(*) AS tip_count,
			COALESCE(SUM(t.amount_usd), 0) AS total_usd`).
		Joins("LEFT JOIN curator_profiles AS p ON p.fid = t.tipper_fid").
		Where("t.recommendation_id = ?", recommendationID).
		Group("t.tipper_fid").
		Order("total_usd DESC").
		Order("t.tipper_fid ASC").
		Limit(limit).
		Offset(offset).
		Scan(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
