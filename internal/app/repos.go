package app

import (
	"gorm.io/gorm"

	"github.com/curiofm/curio-backend/internal/data/repos"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

type Repos struct {
	Track          repos.TrackRepo
	Recommendation repos.RecommendationRepo
	Tip            repos.TipRepo
	CoSign         repos.CoSignRepo
	Profile        repos.ProfileRepo
	Activity       repos.ActivityRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Track:          repos.NewTrackRepo(db, log),
		Recommendation: repos.NewRecommendationRepo(db, log),
		Tip:            repos.NewTipRepo(db, log),
		CoSign:         repos.NewCoSignRepo(db, log),
		Profile:        repos.NewProfileRepo(db, log),
		Activity:       repos.NewActivityRepo(db, log),
	}
}
