package music

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Platform keys used in Track.PlatformURLs and Recommendation.Platform.
const (
	PlatformSpotify      = "spotify"
	PlatformAppleMusic   = "appleMusic"
	PlatformYouTube      = "youtube"
	PlatformYouTubeMusic = "youtubeMusic"
	PlatformSoundCloud   = "soundcloud"
	PlatformTidal        = "tidal"
	PlatformOther        = "other"
)

// Platforms lists every platform the catalog keeps links for.
var Platforms = []string{
	PlatformSpotify,
	PlatformAppleMusic,
	PlatformYouTube,
	PlatformSoundCloud,
	PlatformYouTubeMusic,
	PlatformTidal,
}

// FallbackPrefix marks canonical ids synthesized from the pasted url when the
// normalizer could not resolve it.
const FallbackPrefix = "FALLBACK::"

func FallbackCanonicalID(originalURL string) string {
	return FallbackPrefix + strings.TrimSpace(originalURL)
}

func IsFallbackCanonicalID(id string) bool {
	return strings.HasPrefix(id, FallbackPrefix)
}

type PlatformURLs map[string]string

// Track is one distinct song in the catalog, keyed by the normalizer's canonical id.
type Track struct {
	ID           uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"id"`
	CanonicalID  string                           `gorm:"column:canonical_id;type:text;not null;uniqueIndex" json:"canonicalId"`
	Title        string                           `gorm:"column:title;type:text;not null" json:"title"`
	Artist       string                           `gorm:"column:artist;type:text;not null" json:"artist"`
	ArtworkURL   string                           `gorm:"column:artwork_url;type:text" json:"artworkUrl,omitempty"`
	PageURL      string                           `gorm:"column:page_url;type:text" json:"pageUrl,omitempty"`
	PlatformURLs datatypes.JSONType[PlatformURLs] `gorm:"column:platform_urls" json:"platformUrls"`
	CreatedAt    time.Time                        `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time                        `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (Track) TableName() string { return "tracks" }

func (t *Track) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Links returns the platform map, never nil.
func (t *Track) Links() PlatformURLs {
	if t == nil {
		return PlatformURLs{}
	}
	links := t.PlatformURLs.Data()
	if links == nil {
		return PlatformURLs{}
	}
	return links
}
