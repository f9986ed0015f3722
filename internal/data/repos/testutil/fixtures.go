package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/curiofm/curio-backend/internal/domain"
)

func SeedCurator(tb testing.TB, ctx context.Context, tx *gorm.DB, fid int64, username string) *types.CuratorProfile {
	tb.Helper()
	p := &types.CuratorProfile{FID: fid, Username: username}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed curator: %v", err)
	}
	return p
}

func SeedTrack(tb testing.TB, ctx context.Context, tx *gorm.DB, canonicalID string) *types.Track {
	tb.Helper()
	t := &types.Track{
		ID:           uuid.New(),
		CanonicalID:  canonicalID,
		Title:        "Song " + canonicalID,
		Artist:       "Artist",
		PlatformURLs: datatypes.NewJSONType(types.PlatformURLs{"spotify": "https://open.spotify.com/track/" + canonicalID}),
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed track: %v", err)
	}
	return t
}

func SeedRecommendation(tb testing.TB, ctx context.Context, tx *gorm.DB, fid int64, track *types.Track) *types.Recommendation {
	tb.Helper()
	r := &types.Recommendation{
		ID:          uuid.New(),
		CuratorFID:  fid,
		OriginalURL: "https://open.spotify.com/track/x",
		Genre:       types.DefaultGenre,
		Moods:       datatypes.JSONSlice[string]{},
	}
	if track != nil {
		id := track.ID
		r.TrackID = &id
		r.OriginalURL = track.Links()["spotify"]
		r.Title = track.Title
		r.Artist = track.Artist
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed recommendation: %v", err)
	}
	return r
}
