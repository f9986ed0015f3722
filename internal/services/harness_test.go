package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/curiofm/curio-backend/internal/clients/notify"
	"github.com/curiofm/curio-backend/internal/clients/songlink"
	"github.com/curiofm/curio-backend/internal/data/repos"
	"github.com/curiofm/curio-backend/internal/data/repos/testutil"
	"github.com/curiofm/curio-backend/internal/domain/music"
	"github.com/curiofm/curio-backend/internal/platform/apierr"
	"github.com/curiofm/curio-backend/internal/realtime"
)

type fakeNormalizer struct {
	mu     sync.Mutex
	tracks map[string]*songlink.NormalizedTrack
	err    error
	calls  int
}

func (f *fakeNormalizer) Normalize(ctx context.Context, rawURL string) (*songlink.NormalizedTrack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	nt, ok := f.tracks[rawURL]
	if !ok {
		return nil, songlink.ErrNoEntity
	}
	return nt, nil
}

func (f *fakeNormalizer) add(canonicalID, title string, urls ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	links := music.PlatformURLs{}
	for _, u := range urls {
		links[songlink.DetectPlatform(u)] = u
	}
	for _, u := range urls {
		f.tracks[u] = &songlink.NormalizedTrack{
			CanonicalID:  canonicalID,
			Title:        title,
			Artist:       "Normalized Artist",
			PlatformURLs: links,
		}
	}
}

type fakeNotify struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (f *fakeNotify) Enabled() bool { return true }

func (f *fakeNotify) Send(ctx context.Context, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

func (f *fakeNotify) Sent() []notify.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Notification(nil), f.sent...)
}

type fakeHub struct {
	addrs map[int64][]string
	fail  map[int64]error
}

func (f *fakeHub) VerifiedAddresses(ctx context.Context, fid int64) ([]string, error) {
	if err := f.fail[fid]; err != nil {
		return nil, err
	}
	return f.addrs[fid], nil
}

type harness struct {
	ctx        context.Context
	db         *gorm.DB
	cfg        EngagementConfig
	normalizer *fakeNormalizer
	pusher     *fakeNotify
	farcaster  *fakeHub
	hub        *realtime.Hub
	dispatcher NotificationDispatcher

	recRepo     repos.RecommendationRepo
	profileRepo repos.ProfileRepo
	trackRepo   repos.TrackRepo

	tracks   TrackService
	tips     TipService
	cosigns  CosignService
	curators CuratorService
}

func newHarness(t *testing.T, mutate ...func(*EngagementConfig)) *harness {
	t.Helper()
	cfg := DefaultEngagementConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	log := testutil.Logger(t)
	db := testutil.DB(t)

	h := &harness{
		ctx:        context.Background(),
		db:         db,
		cfg:        cfg,
		normalizer: &fakeNormalizer{tracks: map[string]*songlink.NormalizedTrack{}},
		pusher:     &fakeNotify{},
		farcaster:  &fakeHub{addrs: map[int64][]string{}, fail: map[int64]error{}},
		hub:        realtime.NewHub(log),
	}

	h.trackRepo = repos.NewTrackRepo(db, log)
	h.recRepo = repos.NewRecommendationRepo(db, log)
	h.profileRepo = repos.NewProfileRepo(db, log)
	tipRepo := repos.NewTipRepo(db, log)
	cosignRepo := repos.NewCoSignRepo(db, log)
	activityRepo := repos.NewActivityRepo(db, log)

	scores := NewScoreKeeper(log, cfg, h.recRepo, cosignRepo, activityRepo, h.profileRepo)
	feed := NewFeedNotifier(&HubEmitter{Hub: h.hub})
	h.dispatcher = NewNotificationDispatcher(log, h.pusher, time.Second, nil)

	h.tracks = NewTrackService(db, log, cfg, h.normalizer, h.trackRepo, h.recRepo, cosignRepo, h.profileRepo, activityRepo, scores, feed, nil)
	h.tips = NewTipService(db, log, cfg, h.recRepo, tipRepo, scores, h.dispatcher, feed, nil)
	h.cosigns = NewCosignService(db, log, h.recRepo, cosignRepo, scores, feed, nil)
	h.curators = NewCuratorService(db, log, cfg, h.profileRepo, h.recRepo, cosignRepo, activityRepo, scores, h.farcaster)
	return h
}

func (h *harness) share(t *testing.T, fid int64, username, url string) *SubmitResult {
	t.Helper()
	res, err := h.tracks.Submit(h.ctx, SubmitInput{URL: url, FID: fid, Username: username})
	require.NoError(t, err)
	return res
}

func requireAPIError(t *testing.T, err error, status int, code string, sentinel error) {
	t.Helper()
	require.Error(t, err)
	var ae *apierr.Error
	require.True(t, errors.As(err, &ae), "expected api error, got %T: %v", err, err)
	require.Equal(t, status, ae.Status)
	require.Equal(t, code, ae.Code)
	if sentinel != nil {
		require.ErrorIs(t, err, sentinel)
	}
}
