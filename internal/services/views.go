package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/curiofm/curio-backend/internal/clients/songlink"
	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/domain/music"
)

const (
	TrackSourceCatalog = "catalog"
	TrackSourceLegacy  = "legacy"
)

type CuratorRef struct {
	FID      int64  `json:"fid"`
	Username string `json:"username,omitempty"`
	PfpURL   string `json:"pfpUrl,omitempty"`
}

// TrackView is the track as presented. Source "catalog" means it came from
// the normalized catalog; "legacy" means the recommendation predates the
// catalog and only its own denormalized columns are available. Fallback marks
// catalog rows keyed by the pasted url because normalization failed.
type TrackView struct {
	Source       string             `json:"source"`
	Fallback     bool               `json:"fallback,omitempty"`
	ID           *uuid.UUID         `json:"id,omitempty"`
	CanonicalID  string             `json:"canonicalId,omitempty"`
	Title        string             `json:"title"`
	Artist       string             `json:"artist"`
	ArtworkURL   string             `json:"artworkUrl,omitempty"`
	PageURL      string             `json:"pageUrl,omitempty"`
	Platform     string             `json:"platform"`
	PlatformURLs types.PlatformURLs `json:"platformUrls"`
}

type RecommendationView struct {
	ID           uuid.UUID  `json:"id"`
	OriginalURL  string     `json:"originalUrl"`
	Review       string     `json:"review,omitempty"`
	Genre        string     `json:"genre"`
	Moods        []string   `json:"moods"`
	TipCount     int64      `json:"tipCount"`
	TotalTipsUSD float64    `json:"totalTipsUsd"`
	CosignCount  int64      `json:"cosignCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	Curator      CuratorRef `json:"curator"`
	Track        TrackView  `json:"track"`
}

func trackViewOf(rec *types.Recommendation) TrackView {
	platform := rec.Platform
	if platform == "" {
		platform = songlink.DetectPlatform(rec.OriginalURL)
	}
	if rec.Track != nil {
		t := rec.Track
		id := t.ID
		return TrackView{
			Source:       TrackSourceCatalog,
			Fallback:     music.IsFallbackCanonicalID(t.CanonicalID),
			ID:           &id,
			CanonicalID:  t.CanonicalID,
			Title:        t.Title,
			Artist:       t.Artist,
			ArtworkURL:   t.ArtworkURL,
			PageURL:      t.PageURL,
			Platform:     platform,
			PlatformURLs: t.Links(),
		}
	}
	links := types.PlatformURLs{}
	if rec.OriginalURL != "" {
		links[platform] = rec.OriginalURL
	}
	return TrackView{
		Source:       TrackSourceLegacy,
		Title:        rec.Title,
		Artist:       rec.Artist,
		ArtworkURL:   rec.ArtworkURL,
		Platform:     platform,
		PlatformURLs: links,
	}
}

func recommendationViewOf(rec *types.Recommendation, cosigns int64) RecommendationView {
	moods := []string(rec.Moods)
	if moods == nil {
		moods = []string{}
	}
	cur := CuratorRef{FID: rec.CuratorFID}
	if rec.Curator != nil {
		cur.Username = rec.Curator.Username
		cur.PfpURL = rec.Curator.PfpURL
	}
	return RecommendationView{
		ID:           rec.ID,
		OriginalURL:  rec.OriginalURL,
		Review:       rec.ReviewText,
		Genre:        rec.Genre,
		Moods:        moods,
		TipCount:     rec.TipCount,
		TotalTipsUSD: rec.TotalTipsUSD,
		CosignCount:  cosigns,
		CreatedAt:    rec.CreatedAt,
		Curator:      cur,
		Track:        trackViewOf(rec),
	}
}
