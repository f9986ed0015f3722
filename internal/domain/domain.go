package domain

import (
	"github.com/curiofm/curio-backend/internal/domain/curator"
	"github.com/curiofm/curio-backend/internal/domain/engagement"
	"github.com/curiofm/curio-backend/internal/domain/music"
)

type (
	Track           = music.Track
	PlatformURLs    = music.PlatformURLs
	Recommendation  = engagement.Recommendation
	CoSign          = engagement.CoSign
	Tip             = engagement.Tip
	CuratorProfile  = curator.Profile
	CuratorActivity = curator.Activity
)

const (
	ActivityShare        = curator.ActivityShare
	ActivityTasteOverlap = curator.ActivityTasteOverlap
	DefaultGenre         = engagement.DefaultGenre
)

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&CuratorProfile{},
		&Track{},
		&Recommendation{},
		&CoSign{},
		&Tip{},
		&CuratorActivity{},
	}
}
