package engagement

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/curiofm/curio-backend/internal/domain/curator"
	"github.com/curiofm/curio-backend/internal/domain/music"
)

const DefaultGenre = "general"

// Recommendation is one curator's share of one track. TrackID is nil only for
// legacy rows that predate the catalog; those rows rely on the denormalized
// Title/Artist/Platform/ArtworkURL columns until backfilled.
type Recommendation struct {
	ID           uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	TrackID      *uuid.UUID                  `gorm:"type:uuid;column:track_id;index" json:"trackId,omitempty"`
	Track        *music.Track                `gorm:"foreignKey:TrackID;references:ID" json:"track,omitempty"`
	CuratorFID   int64                       `gorm:"column:curator_fid;not null;index" json:"curatorFid"`
	Curator      *curator.Profile            `gorm:"foreignKey:CuratorFID;references:FID" json:"curator,omitempty"`
	OriginalURL  string                      `gorm:"column:original_url;type:text;not null" json:"originalUrl"`
	Title        string                      `gorm:"column:title;type:text" json:"title,omitempty"`
	Artist       string                      `gorm:"column:artist;type:text" json:"artist,omitempty"`
	Platform     string                      `gorm:"column:platform;type:text" json:"platform,omitempty"`
	ArtworkURL   string                      `gorm:"column:artwork_url;type:text" json:"artworkUrl,omitempty"`
	ReviewText   string                      `gorm:"column:review_text;type:text" json:"reviewText,omitempty"`
	Genre        string                      `gorm:"column:genre;type:text;not null;index" json:"genre"`
	Moods        datatypes.JSONSlice[string] `gorm:"column:moods" json:"moods"`
	TipCount     int64                       `gorm:"column:tip_count;not null;default:0" json:"tipCount"`
	TotalTipsUSD float64                     `gorm:"column:total_tips_usd;type:numeric(12,2);not null;default:0;index" json:"totalTipsUsd"`
	CreatedAt    time.Time                   `gorm:"not null;autoCreateTime;index" json:"createdAt"`
}

func (Recommendation) TableName() string { return "recommendations" }

func (r *Recommendation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Genre == "" {
		r.Genre = DefaultGenre
	}
	return nil
}
