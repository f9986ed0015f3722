package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/curiofm/curio-backend/internal/clients/songlink"
	"github.com/curiofm/curio-backend/internal/data/repos"
	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/domain/music"
	"github.com/curiofm/curio-backend/internal/observability"
	"github.com/curiofm/curio-backend/internal/platform/dbctx"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

const (
	unknownTitle  = "Unknown Title"
	unknownArtist = "Unknown Artist"
)

type SubmitInput struct {
	URL        string   `json:"url" validate:"required,max=2048"`
	FID        int64    `json:"fid" validate:"gt=0"`
	Username   string   `json:"username" validate:"max=64"`
	PfpURL     string   `json:"pfpUrl" validate:"omitempty,http_url,max=2048"`
	Review     string   `json:"review"`
	Genre      string   `json:"genre" validate:"max=64"`
	Moods      []string `json:"moods" validate:"max=5,dive,max=32"`
	Title      string   `json:"title" validate:"max=300"`
	Artist     string   `json:"artist" validate:"max=300"`
	ArtworkURL string   `json:"artworkUrl" validate:"omitempty,http_url,max=2048"`
	Platform   string   `json:"platform" validate:"max=32"`
}

type SubmitResult struct {
	Recommendation RecommendationView `json:"recommendation"`
	TrackCreated   bool               `json:"trackCreated"`
	Normalized     bool               `json:"normalized"`
	XPEarned       int64              `json:"xpEarned"`
	TasteOverlaps  int                `json:"tasteOverlaps"`
	CuratorScore   int64              `json:"curatorScore"`
	CuratorXP      int64              `json:"curatorXp"`
}

type FeedParams struct {
	Sort   string
	Genre  string
	Limit  int
	Offset int
}

type BackfillOptions struct {
	Limit  int
	DryRun bool
}

type BackfillReport struct {
	Scanned       int `json:"scanned"`
	Linked        int `json:"linked"`
	TracksCreated int `json:"tracksCreated"`
	Fallbacks     int `json:"fallbacks"`
	Failed        int `json:"failed"`
}

type TrackService interface {
	Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error)
	Get(ctx context.Context, id uuid.UUID) (*RecommendationView, error)
	Feed(ctx context.Context, p FeedParams) (Page[RecommendationView], error)
	// BackfillTracks links legacy recommendations to catalog tracks. It is
	// safe to run repeatedly.
	BackfillTracks(ctx context.Context, opts BackfillOptions) (BackfillReport, error)
}

type trackService struct {
	db           *gorm.DB
	log          *logger.Logger
	cfg          EngagementConfig
	normalizer   songlink.Normalizer
	trackRepo    repos.TrackRepo
	recRepo      repos.RecommendationRepo
	cosignRepo   repos.CoSignRepo
	profileRepo  repos.ProfileRepo
	activityRepo repos.ActivityRepo
	scores       ScoreKeeper
	feed         FeedNotifier
	metrics      *observability.Metrics
}

func NewTrackService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg EngagementConfig,
	normalizer songlink.Normalizer,
	trackRepo repos.TrackRepo,
	recRepo repos.RecommendationRepo,
	cosignRepo repos.CoSignRepo,
	profileRepo repos.ProfileRepo,
	activityRepo repos.ActivityRepo,
	scores ScoreKeeper,
	feed FeedNotifier,
	metrics *observability.Metrics,
) TrackService {
	return &trackService{
		db:           db,
		log:          baseLog.With("service", "TrackService"),
		cfg:          cfg,
		normalizer:   normalizer,
		trackRepo:    trackRepo,
		recRepo:      recRepo,
		cosignRepo:   cosignRepo,
		profileRepo:  profileRepo,
		activityRepo: activityRepo,
		scores:       scores,
		feed:         feed,
		metrics:      metrics,
	}
}

func (s *trackService) cleanSubmit(in *SubmitInput) error {
	in.URL = strings.TrimSpace(in.URL)
	in.Username = strings.TrimSpace(in.Username)
	in.PfpURL = strings.TrimSpace(in.PfpURL)
	in.Review = strings.TrimSpace(in.Review)
	in.Genre = strings.ToLower(strings.TrimSpace(in.Genre))
	in.Moods = normalizeMoods(in.Moods)
	in.Title = strings.TrimSpace(in.Title)
	in.Artist = strings.TrimSpace(in.Artist)
	in.ArtworkURL = strings.TrimSpace(in.ArtworkURL)
	in.Platform = strings.TrimSpace(in.Platform)

	if err := invalidStruct(in); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Review) > MaxReviewLength {
		return invalid("review must be at most %d characters", MaxReviewLength)
	}
	if _, err := songlink.ParseMusicURL(in.URL); err != nil {
		return invalid("%s", err.Error())
	}
	if in.Genre == "" {
		in.Genre = types.DefaultGenre
	}
	if in.Platform == "" {
		in.Platform = songlink.DetectPlatform(in.URL)
	}
	return nil
}

// resolveTrack asks the normalizer for a canonical identity and falls back to
// a url-keyed track built from curator metadata.
func (s *trackService) resolveTrack(ctx context.Context, rawURL, title, artist, artwork, platform string) (*types.Track, bool) {
	var nt *songlink.NormalizedTrack
	if s.normalizer != nil {
		var err error
		nt, err = s.normalizer.Normalize(ctx, rawURL)
		if err != nil {
			s.log.Warn("normalization failed; using fallback track", "url", rawURL, "error", err)
			nt = nil
		}
	}
	if nt != nil {
		links := nt.PlatformURLs
		if links == nil {
			links = music.PlatformURLs{}
		}
		return &types.Track{
			CanonicalID:  nt.CanonicalID,
			Title:        firstNonEmpty(nt.Title, title, unknownTitle),
			Artist:       firstNonEmpty(nt.Artist, artist, unknownArtist),
			ArtworkURL:   firstNonEmpty(nt.ArtworkURL, artwork),
			PageURL:      nt.PageURL,
			PlatformURLs: datatypes.NewJSONType(links),
		}, true
	}
	return &types.Track{
		CanonicalID:  music.FallbackCanonicalID(rawURL),
		Title:        firstNonEmpty(title, unknownTitle),
		Artist:       firstNonEmpty(artist, unknownArtist),
		ArtworkURL:   artwork,
		PlatformURLs: datatypes.NewJSONType(music.PlatformURLs{platform: rawURL}),
	}, false
}

func (s *trackService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if err := s.cleanSubmit(&in); err != nil {
		return nil, err
	}

	candidate, normalized := s.resolveTrack(ctx, in.URL, in.Title, in.Artist, in.ArtworkURL, in.Platform)

	var (
		out      SubmitResult
		rec      *types.Recommendation
		overlaps int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		if _, err := s.profileRepo.Upsert(dbc, &types.CuratorProfile{FID: in.FID, Username: in.Username, PfpURL: in.PfpURL}); err != nil {
			return fmt.Errorf("upsert curator: %w", err)
		}

		track, created, err := s.trackRepo.FindOrCreate(dbc, candidate)
		if err != nil {
			return fmt.Errorf("find or create track: %w", err)
		}
		out.TrackCreated = created

		// Collected before the insert so only earlier recommendations count.
		prior, err := s.recRepo.ListPriorOnTrack(dbc, track.ID, in.FID, s.cfg.OverlapScanLimit)
		if err != nil {
			return fmt.Errorf("scan prior recommendations: %w", err)
		}

		trackID := track.ID
		rec = &types.Recommendation{
			TrackID:     &trackID,
			CuratorFID:  in.FID,
			OriginalURL: in.URL,
			Title:       track.Title,
			Artist:      track.Artist,
			Platform:    in.Platform,
			ArtworkURL:  track.ArtworkURL,
			ReviewText:  in.Review,
			Genre:       in.Genre,
			Moods:       datatypes.JSONSlice[string](in.Moods),
		}
		if _, err := s.recRepo.Create(dbc, rec); err != nil {
			return fmt.Errorf("create recommendation: %w", err)
		}

		recID := rec.ID
		activities := make([]*types.CuratorActivity, 0, len(prior)+1)
		activities = append(activities, &types.CuratorActivity{
			CuratorFID:       in.FID,
			ActivityType:     types.ActivityShare,
			XPEarned:         s.cfg.ShareXP,
			RecommendationID: &recID,
			TrackID:          &trackID,
		})
		for _, p := range prior {
			activities = append(activities, &types.CuratorActivity{
				CuratorFID:       in.FID,
				ActivityType:     types.ActivityTasteOverlap,
				XPEarned:         s.cfg.TasteOverlapXP,
				RecommendationID: &recID,
				TrackID:          &trackID,
				Metadata: datatypes.JSONMap{
					"overlapRecommendationId": p.ID.String(),
					"overlapCuratorFid":       p.CuratorFID,
				},
			})
		}
		if _, err := s.activityRepo.Create(dbc, activities); err != nil {
			return fmt.Errorf("record activity: %w", err)
		}
		overlaps = len(prior)
		out.XPEarned = s.cfg.ShareXP + int64(overlaps)*s.cfg.TasteOverlapXP

		scores, err := s.scores.Recompute(dbc, in.FID)
		if err != nil {
			return fmt.Errorf("recompute curator scores: %w", err)
		}
		out.CuratorScore = scores.Score
		out.CuratorXP = scores.XP

		full, err := s.recRepo.GetByID(dbc, rec.ID)
		if err != nil {
			return err
		}
		rec = full
		return nil
	})
	if err != nil {
		s.log.Error("submit failed", "fid", in.FID, "url", in.URL, "error", err)
		return nil, err
	}

	out.Normalized = normalized
	out.TasteOverlaps = overlaps
	out.Recommendation = recommendationViewOf(rec, 0)

	s.metrics.IncDomainEvent("share", 1)
	s.metrics.IncDomainEvent("taste_overlap", overlaps)
	if out.TrackCreated {
		s.metrics.IncDomainEvent("track_created", 1)
	}
	s.feed.TrackShared(ctx, out.Recommendation, overlaps)

	s.log.Info("track shared",
		"fid", in.FID,
		"recommendation_id", rec.ID,
		"canonical_id", candidate.CanonicalID,
		"track_created", out.TrackCreated,
		"taste_overlaps", overlaps,
	)
	return &out, nil
}

func (s *trackService) Get(ctx context.Context, id uuid.UUID) (*RecommendationView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rec, err := s.recRepo.GetByID(dbc, id)
	if err != nil {
		return nil, notFoundOr("track_not_found", err)
	}
	n, err := s.cosignRepo.CountByRecommendation(dbc, id)
	if err != nil {
		return nil, err
	}
	v := recommendationViewOf(rec, n)
	return &v, nil
}

func (s *trackService) Feed(ctx context.Context, p FeedParams) (Page[RecommendationView], error) {
	sort := strings.TrimSpace(p.Sort)
	switch sort {
	case "":
		sort = "recent"
	case "recent", "most_tipped":
	default:
		return Page[RecommendationView]{}, invalid("sort must be one of [recent most_tipped]")
	}
	limit, offset := clampPage(p.Limit, p.Offset)

	dbc := dbctx.Context{Ctx: ctx}
	recs, total, err := s.recRepo.Feed(dbc, repos.FeedQuery{
		Sort:   sort,
		Genre:  p.Genre,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return Page[RecommendationView]{}, err
	}
	views, err := s.viewsOf(dbc, recs)
	if err != nil {
		return Page[RecommendationView]{}, err
	}
	return newPage(views, total, limit, offset), nil
}

func (s *trackService) viewsOf(dbc dbctx.Context, recs []*types.Recommendation) ([]RecommendationView, error) {
	return buildViews(dbc, s.cosignRepo, recs)
}

func buildViews(dbc dbctx.Context, cosignRepo repos.CoSignRepo, recs []*types.Recommendation) ([]RecommendationView, error) {
	ids := make([]uuid.UUID, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	counts, err := cosignRepo.CountByRecommendations(dbc, ids)
	if err != nil {
		return nil, err
	}
	out := make([]RecommendationView, 0, len(recs))
	for _, r := range recs {
		out = append(out, recommendationViewOf(r, counts[r.ID]))
	}
	return out, nil
}

func (s *trackService) BackfillTracks(ctx context.Context, opts BackfillOptions) (BackfillReport, error) {
	var report BackfillReport
	pending, err := s.recRepo.ListMissingTrack(dbctx.Context{Ctx: ctx}, opts.Limit)
	if err != nil {
		return report, err
	}
	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++
		platform := firstNonEmpty(rec.Platform, songlink.DetectPlatform(rec.OriginalURL))
		candidate, normalized := s.resolveTrack(ctx, rec.OriginalURL, rec.Title, rec.Artist, rec.ArtworkURL, platform)
		if !normalized {
			report.Fallbacks++
		}
		if opts.DryRun {
			s.log.Info("backfill (dry run)", "recommendation_id", rec.ID, "canonical_id", candidate.CanonicalID)
			continue
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			dbc := dbctx.Context{Ctx: ctx, Tx: tx}
			track, created, err := s.trackRepo.FindOrCreate(dbc, candidate)
			if err != nil {
				return err
			}
			if created {
				report.TracksCreated++
			}
			return s.recRepo.LinkTrack(dbc, rec.ID, track.ID)
		})
		if err != nil {
			report.Failed++
			s.log.Warn("backfill link failed", "recommendation_id", rec.ID, "error", err)
			continue
		}
		report.Linked++
	}
	s.log.Info("track backfill finished",
		"scanned", report.Scanned,
		"linked", report.Linked,
		"tracks_created", report.TracksCreated,
		"fallbacks", report.Fallbacks,
		"failed", report.Failed,
	)
	return report, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
