package curators

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/platform/dbctx"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

const (
	RankByScore = "score"
	RankByXP    = "xp"
)

type ProfileRepo interface {
	// Upsert creates the profile or refreshes username and pfp when they are
	// non-empty. Wallet, bio and cached aggregates are never touched.
	Upsert(dbc dbctx.Context, p *types.CuratorProfile) (*types.CuratorProfile, error)
	GetByFID(dbc dbctx.Context, fid int64) (*types.CuratorProfile, error)
	GetByUsername(dbc dbctx.Context, username string) (*types.CuratorProfile, error)
	UpdateBio(dbc dbctx.Context, fid int64, bio string) error
	UpdateCaches(dbc dbctx.Context, fid int64, score, xp int64) error
	UpdateWallet(dbc dbctx.Context, fid int64, address string) error
	Leaderboard(dbc dbctx.Context, rankBy string, limit int) ([]*types.CuratorProfile, error)
	// ListAfter pages profiles by fid for batch jobs.
	ListAfter(dbc dbctx.Context, afterFID int64, limit int) ([]*types.CuratorProfile, error)
	ListMissingWallet(dbc dbctx.Context, afterFID int64, limit int) ([]*types.CuratorProfile, error)
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

func (r *profileRepo) Upsert(dbc dbctx.Context, p *types.CuratorProfile) (*types.CuratorProfile, error) {
	if p == nil || p.FID <= 0 {
		return nil, fmt.Errorf("fid required")
	}
	transaction := dbc.DB(r.db)

	row := &types.CuratorProfile{
		FID:      p.FID,
		Username: p.Username,
		PfpURL:   p.PfpURL,
	}
	err := transaction.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "fid"}},
			DoUpdates: clause.Assignments(map[string]any{
				"username":   gorm.Expr("CASE WHEN excluded.username <> '' THEN excluded.username ELSE curator_profiles.username END"),
				"pfp_url":    gorm.Expr("CASE WHEN excluded.pfp_url <> '' THEN excluded.pfp_url ELSE curator_profiles.pfp_url END"),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.GetByFID(dbc, p.FID)
}

func (r *profileRepo) GetByFID(dbc dbctx.Context, fid int64) (*types.CuratorProfile, error) {
	var p types.CuratorProfile
	if err := dbc.DB(r.db).Where("fid = ?", fid).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) GetByUsername(dbc dbctx.Context, username string) (*types.CuratorProfile, error) {
	var p types.CuratorProfile
	err := dbc.DB(r.db).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		Order("updated_at DESC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) updateColumns(dbc dbctx.Context, fid int64, cols map[string]any) error {
	cols["updated_at"] = time.Now().UTC()
	res := dbc.DB(r.db).Model(&types.CuratorProfile{}).Where("fid = ?", fid).UpdateColumns(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *profileRepo) UpdateBio(dbc dbctx.Context, fid int64, bio string) error {
	return r.updateColumns(dbc, fid, map[string]any{"bio": bio})
}

func (r *profileRepo) UpdateCaches(dbc dbctx.Context, fid int64, score, xp int64) error {
	return r.updateColumns(dbc, fid, map[string]any{"curator_score": score, "xp": xp})
}

func (r *profileRepo) UpdateWallet(dbc dbctx.Context, fid int64, address string) error {
	return r.updateColumns(dbc, fid, map[string]any{"wallet_address": address})
}

func (r *profileRepo) Leaderboard(dbc dbctx.Context, rankBy string, limit int) ([]*types.CuratorProfile, error) {
	col := "curator_score"
	if rankBy == RankByXP {
		col = "xp"
	}
	var out []*types.CuratorProfile
	err := dbc.DB(r.db).
		Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: true}).
		Order("fid ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *profileRepo) ListAfter(dbc dbctx.Context, afterFID int64, limit int) ([]*types.CuratorProfile, error) {
	var out []*types.CuratorProfile
	err := dbc.DB(r.db).
		Where("fid > ?", afterFID).
		Order("fid ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *profileRepo) ListMissingWallet(dbc dbctx.Context, afterFID int64, limit int) ([]*types.CuratorProfile, error) {
	var out []*types.CuratorProfile
	err := dbc.DB(r.db).
		Where("fid > ?", afterFID).
		Where("wallet_address IS NULL OR wallet_address = ''").
		Order("fid ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
