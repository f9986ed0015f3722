package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/platform/dbctx"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

type TrackRepo interface {
	// FindOrCreate inserts t unless a track with the same canonical id exists,
	// and returns the stored row. Existing metadata is never overwritten.
	FindOrCreate(dbc dbctx.Context, t *types.Track) (*types.Track, bool, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Track, error)
	GetByCanonicalID(dbc dbctx.Context, canonicalID string) (*types.Track, error)
	Count(dbc dbctx.Context) (int64, error)
}

type trackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrackRepo(db *gorm.DB, baseLog *logger.Logger) TrackRepo {
	return &trackRepo{db: db, log: baseLog.With("repo", "TrackRepo")}
}

func (r *trackRepo) FindOrCreate(dbc dbctx.Context, t *types.Track) (*types.Track, bool, error) {
	if t == nil || t.CanonicalID == "" {
		return nil, false, fmt.Errorf("canonical id required")
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	transaction := dbc.DB(r.db)

	res := transaction.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "canonical_id"}},
			DoNothing: true,
		}).
		Create(t)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected > 0

	var stored types.Track
	if err := transaction.Where("canonical_id = ?", t.CanonicalID).First(&stored).Error; err != nil {
		return nil, false, err
	}
	if created {
		r.log.Debug("catalog track created", "canonical_id", stored.CanonicalID, "track_id", stored.ID)
	}
	return &stored, created, nil
}

func (r *trackRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Track, error) {
	var t types.Track
	if err := dbc.DB(r.db).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *trackRepo) GetByCanonicalID(dbc dbctx.Context, canonicalID string) (*types.Track, error) {
	var t types.Track
	if err := dbc.DB(r.db).Where("canonical_id = ?", canonicalID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *trackRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Track{}).Count(&n).Error
	return n, err
}
