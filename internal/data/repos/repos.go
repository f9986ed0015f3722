package repos

import (
	"gorm.io/gorm"

	"github.com/curiofm/curio-backend/internal/data/repos/catalog"
	"github.com/curiofm/curio-backend/internal/data/repos/curators"
	"github.com/curiofm/curio-backend/internal/data/repos/engagement"
	"github.com/curiofm/curio-backend/internal/data/repos/ledger"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

type TrackRepo = catalog.TrackRepo

type RecommendationRepo = ledger.RecommendationRepo
type TipRepo = ledger.TipRepo
type FeedQuery = ledger.FeedQuery
type CuratorTotals = ledger.CuratorTotals
type Tipper = ledger.Tipper

type CoSignRepo = engagement.CoSignRepo
type Cosigner = engagement.Cosigner

type ProfileRepo = curators.ProfileRepo
type ActivityRepo = curators.ActivityRepo

func NewTrackRepo(db *gorm.DB, baseLog *logger.Logger) TrackRepo {
	return catalog.NewTrackRepo(db, baseLog)
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return ledger.NewRecommendationRepo(db, baseLog)
}
func NewTipRepo(db *gorm.DB, baseLog *logger.Logger) TipRepo {
	return ledger.NewTipRepo(db, baseLog)
}

func NewCoSignRepo(db *gorm.DB, baseLog *logger.Logger) CoSignRepo {
	return engagement.NewCoSignRepo(db, baseLog)
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return curators.NewProfileRepo(db, baseLog)
}
func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return curators.NewActivityRepo(db, baseLog)
}
