package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/curiofm/curio-backend/internal/clients/notify"
	"github.com/curiofm/curio-backend/internal/data/repos"
	"github.com/curiofm/curio-backend/internal/data/repos/testutil"
	httpH "github.com/curiofm/curio-backend/internal/http/handlers"
	"github.com/curiofm/curio-backend/internal/observability"
	"github.com/curiofm/curio-backend/internal/platform/httpx"
	"github.com/curiofm/curio-backend/internal/realtime"
	"github.com/curiofm/curio-backend/internal/services"
)

type stubHub struct{}

func (stubHub) VerifiedAddresses(ctx context.Context, fid int64) ([]string, error) {
	if fid == 404 {
		return nil, &httpx.HTTPError{Service: "farcaster-hub", StatusCode: 404}
	}
	return []string{"0xabc"}, nil
}

type testServer struct {
	engine *gin.Engine
	hub    *realtime.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)
	db := testutil.DB(t)
	cfg := services.DefaultEngagementConfig()
	metrics := observability.NewMetrics()

	trackRepo := repos.NewTrackRepo(db, log)
	recRepo := repos.NewRecommendationRepo(db, log)
	tipRepo := repos.NewTipRepo(db, log)
	cosignRepo := repos.NewCoSignRepo(db, log)
	profileRepo := repos.NewProfileRepo(db, log)
	activityRepo := repos.NewActivityRepo(db, log)

	hub := realtime.NewHub(log)
	feed := services.NewFeedNotifier(&services.HubEmitter{Hub: hub})
	scores := services.NewScoreKeeper(log, cfg, recRepo, cosignRepo, activityRepo, profileRepo)
	pusher, err := notify.New(log, notify.Config{})
	require.NoError(t, err)
	dispatcher := services.NewNotificationDispatcher(log, pusher, time.Second, metrics)

	tracks := services.NewTrackService(db, log, cfg, nil, trackRepo, recRepo, cosignRepo, profileRepo, activityRepo, scores, feed, metrics)
	tips := services.NewTipService(db, log, cfg, recRepo, tipRepo, scores, dispatcher, feed, metrics)
	cosigns := services.NewCosignService(db, log, recRepo, cosignRepo, scores, feed, metrics)
	curators := services.NewCuratorService(db, log, cfg, profileRepo, recRepo, cosignRepo, activityRepo, scores, stubHub{})

	engine := NewRouter(RouterConfig{
		Log:                log,
		Metrics:            metrics,
		TrackHandler:       httpH.NewTrackHandler(log, tracks, tips),
		EngagementHandler:  httpH.NewEngagementHandler(log, tips, cosigns),
		UserHandler:        httpH.NewUserHandler(log, curators),
		LeaderboardHandler: httpH.NewLeaderboardHandler(log, curators),
		HubHandler:         httpH.NewHubHandler(log, curators),
		RealtimeHandler:    httpH.NewRealtimeHandler(log, hub),
		HealthHandler:      httpH.NewHealthHandler(db),
	})
	return &testServer{engine: engine, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	out := map[string]any{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func errorCode(body map[string]any) string {
	env, _ := body["error"].(map[string]any)
	code, _ := env["code"].(string)
	return code
}

func (s *testServer) submit(t *testing.T, fid int64, username, url string) string {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/api/tracks", map[string]any{"url": url, "fid": fid, "username": username})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	r := body["recommendation"].(map[string]any)
	return r["id"].(string)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/healthcheck", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec, _ = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "curio_http_requests_total")
}

func TestSubmitAndReadFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.submit(t, 1, "alice", "https://open.spotify.com/track/abc")

	rec, body := s.do(t, http.MethodGet, "/api/tracks/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	track := body["track"].(map[string]any)
	require.Equal(t, "spotify", track["platform"])
	require.Equal(t, "catalog", track["source"])

	rec, body = s.do(t, http.MethodGet, "/api/tracks?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, body["total"])
	require.EqualValues(t, 5, body["limit"])

	rec, body = s.do(t, http.MethodGet, "/api/tracks?limit=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", errorCode(body))

	rec, body = s.do(t, http.MethodGet, "/api/tracks/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_id", errorCode(body))

	rec, body = s.do(t, http.MethodGet, "/api/tracks/00000000-0000-0000-0000-000000000001", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "track_not_found", errorCode(body))

	rec, body = s.do(t, http.MethodPost, "/api/tracks", map[string]any{"url": "not a url", "fid": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", errorCode(body))
}

func TestTipAndCosignRoutes(t *testing.T) {
	s := newTestServer(t)
	id := s.submit(t, 1, "alice", "https://open.spotify.com/track/abc")

	rec, body := s.do(t, http.MethodPost, "/api/tracks/"+id+"/tip", map[string]any{
		"txHash": "0x1", "fromFid": 2, "toFid": 1, "requestedAmount": 2.5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.EqualValues(t, 1, body["tipCount"])
	require.EqualValues(t, 2.5, body["totalTips"])

	rec, body = s.do(t, http.MethodPost, "/api/tracks/"+id+"/tip", map[string]any{
		"txHash": "0x2", "fromFid": 2, "toFid": 9, "requestedAmount": 1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "recipient_mismatch", errorCode(body))

	rec, body = s.do(t, http.MethodPost, "/api/tracks/"+id, map[string]any{"action": "tip"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, body["tipCount"])

	rec, body = s.do(t, http.MethodPost, "/api/tracks/"+id, map[string]any{"action": "boost"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "unsupported_action", errorCode(body))

	rec, body = s.do(t, http.MethodPost, "/api/tracks/"+id+"/cosign", map[string]any{"fid": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, body["count"])

	rec, body = s.do(t, http.MethodPost, "/api/tracks/"+id+"/cosign", map[string]any{"fid": 2})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "already_cosigned", errorCode(body))

	rec, body = s.do(t, http.MethodPost, "/api/tracks/"+id+"/cosign", map[string]any{"fid": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "self_cosign", errorCode(body))

	rec, body = s.do(t, http.MethodGet, "/api/tracks/"+id+"/cosign/check?fid=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["cosigned"])

	rec, body = s.do(t, http.MethodGet, "/api/tracks/"+id+"/cosign", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, body["count"])

	rec, body = s.do(t, http.MethodGet, "/api/tracks/"+id+"/cosigners", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, body["total"])

	rec, body = s.do(t, http.MethodGet, "/api/tracks/"+id+"/tippers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, body["total"])
}

func TestUserAndLeaderboardRoutes(t *testing.T) {
	s := newTestServer(t)
	s.submit(t, 1, "alice", "https://open.spotify.com/track/abc")
	s.submit(t, 2, "bob", "https://open.spotify.com/track/abc")

	rec, body := s.do(t, http.MethodGet, "/api/users/alice/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, body["recommendationCount"])
	require.EqualValues(t, 10, body["xp"])

	rec, body = s.do(t, http.MethodGet, "/api/users/nobody/stats", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "curator_not_found", errorCode(body))

	rec, body = s.do(t, http.MethodGet, "/api/users/bob/tracks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, body["total"])

	rec, body = s.do(t, http.MethodPost, "/api/users/alice/bio", map[string]any{"fid": 2, "bio": "hi"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden", errorCode(body))

	rec, body = s.do(t, http.MethodPost, "/api/users/alice/bio", map[string]any{"fid": 1, "bio": "hi"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hi", body["bio"])

	rec, body = s.do(t, http.MethodGet, "/api/leaderboard?sort=xp", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	first := body["curators"].([]any)[0].(map[string]any)
	require.Equal(t, "bob", first["username"])
	require.EqualValues(t, 1, first["rank"])

	rec, _ = s.do(t, http.MethodGet, "/api/curators/top?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHubVerificationsRoute(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/hub/verifications/7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []any{"0xabc"}, body["addresses"])

	rec, body = s.do(t, http.MethodGet, "/api/hub/verifications/404", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "hub_error", errorCode(body))
	require.Equal(t, "farcaster hub request failed", body["error"].(map[string]any)["message"])

	rec, _ = s.do(t, http.MethodGet, "/api/hub/verifications/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventStreamDeliversFeedEvents(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool {
		return s.hub.Subscribers(realtime.FeedChannel) == 1
	}, time.Second, 10*time.Millisecond)

	s.submit(t, 1, "alice", "https://open.spotify.com/track/abc")

	buf := make([]byte, 4096)
	var got strings.Builder
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(got.String(), "event: track.shared") {
		n, err := resp.Body.Read(buf)
		got.Write(buf[:n])
		if err != nil {
			break
		}
	}
	require.Contains(t, got.String(), "event: track.shared")
}
