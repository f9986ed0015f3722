package curators

import (
	"gorm.io/gorm"

	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/platform/dbctx"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

type ActivityRepo interface {
	Create(dbc dbctx.Context, rows []*types.CuratorActivity) ([]*types.CuratorActivity, error)
	SumXP(dbc dbctx.Context, fid int64) (int64, error)
	CountByType(dbc dbctx.Context, fid int64, activityType string) (int64, error)
	ListByCurator(dbc dbctx.Context, fid int64, limit int) ([]*types.CuratorActivity, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: baseLog.With("repo", "ActivityRepo")}
}

func (r *activityRepo) Create(dbc dbctx.Context, rows []*types.CuratorActivity) ([]*types.CuratorActivity, error) {
	if len(rows) == 0 {
		return []*types.CuratorActivity{}, nil
	}
	if err := dbc.DB(r.db).CreateInBatches(&rows, 100).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *activityRepo) SumXP(dbc dbctx.Context, fid int64) (int64, error) {
	var total int64
	err := dbc.DB(r.db).Model(&types.CuratorActivity{}).
		Select("COALESCE(SUM(xp_earned), 0)").
		Where("curator_fid = ?", fid).
		Scan(&total).Error
	return total, err
}

func (r *activityRepo) CountByType(dbc dbctx.Context, fid int64, activityType string) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.CuratorActivity{}).
		Where("curator_fid = ? AND activity_type = ?", fid, activityType).
		Count(&n).Error
	return n, err
}

func (r *activityRepo) ListByCurator(dbc dbctx.Context, fid int64, limit int) ([]*types.CuratorActivity, error) {
	var out []*types.CuratorActivity
	q := dbc.DB(r.db).
		Where("curator_fid = ?", fid).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
