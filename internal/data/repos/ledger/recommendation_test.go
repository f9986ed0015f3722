package ledger

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/curiofm/curio-backend/internal/data/repos/testutil"
	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/platform/dbctx"
)

func TestRecommendationRepoIncrementTipsAccumulates(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewRecommendationRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	testutil.SeedCurator(t, ctx, tx, 1, "alice")
	rec := testutil.SeedRecommendation(t, ctx, tx, 1, testutil.SeedTrack(t, ctx, tx, "SPOTIFY_SONG::a"))

	amounts := []float64{1.25, 0.5, 3}
	var (
		count int64
		total float64
		err   error
	)
	for _, a := range amounts {
		count, total, err = repo.IncrementTips(dbc, rec.ID, a)
		if err != nil {
			t.Fatalf("IncrementTips: %v", err)
		}
	}
	if count != 3 {
		t.Fatalf("tip_count: want 3 got %d", count)
	}
	if math.Abs(total-4.75) > 1e-9 {
		t.Fatalf("total_tips_usd: want 4.75 got %v", total)
	}

	if _, _, err := repo.IncrementTips(dbc, uuid.New(), 1); err == nil {
		t.Fatalf("IncrementTips on missing row: expected error")
	}

	n, err := repo.IncrementTipCount(dbc, rec.ID)
	if err != nil {
		t.Fatalf("IncrementTipCount: %v", err)
	}
	if n != 4 {
		t.Fatalf("IncrementTipCount: want 4 got %d", n)
	}
}

func TestRecommendationRepoIncrementTipsConcurrentPostgres(t *testing.T) {
	db := testutil.PostgresDB(t)
	ctx := context.Background()
	repo := NewRecommendationRepo(db, testutil.Logger(t))

	track := testutil.SeedTrack(t, ctx, db, "TEST_SONG::"+uuid.NewString())
	rec := testutil.SeedRecommendation(t, ctx, db, int64(uuid.New().ID()), track)
	t.Cleanup(func() {
		db.Where("id = ?", rec.ID).Delete(&types.Recommendation{})
		db.Where("id = ?", track.ID).Delete(&types.Track{})
	})

	const workers = 16
	var (
		wg   sync.WaitGroup
		want float64
	)
	for i := 0; i < workers; i++ {
		amount := 0.25 * float64(i+1)
		want += amount
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := repo.IncrementTips(dbctx.Context{Ctx: ctx}, rec.ID, amount); err != nil {
				t.Errorf("IncrementTips: %v", err)
			}
		}()
	}
	wg.Wait()

	var got types.Recommendation
	if err := db.Where("id = ?", rec.ID).Take(&got).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.TipCount != workers {
		t.Fatalf("tip_count: want %d got %d", workers, got.TipCount)
	}
	if math.Abs(got.TotalTipsUSD-want) > 1e-6 {
		t.Fatalf("total_tips_usd: want %v got %v", want, got.TotalTipsUSD)
	}
}

func TestRecommendationRepoListPriorOnTrackExcludesOwner(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewRecommendationRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	track := testutil.SeedTrack(t, ctx, tx, "SPOTIFY_SONG::shared")
	other := testutil.SeedTrack(t, ctx, tx, "SPOTIFY_SONG::other")
	testutil.SeedRecommendation(t, ctx, tx, 1, track)
	testutil.SeedRecommendation(t, ctx, tx, 2, track)
	testutil.SeedRecommendation(t, ctx, tx, 3, track)
	testutil.SeedRecommendation(t, ctx, tx, 2, other)

	prior, err := repo.ListPriorOnTrack(dbc, track.ID, 3, 0)
	if err != nil {
		t.Fatalf("ListPriorOnTrack: %v", err)
	}
	if len(prior) != 2 {
		t.Fatalf("ListPriorOnTrack: want 2 got %d", len(prior))
	}
	for _, p := range prior {
		if p.CuratorFID == 3 {
			t.Fatalf("ListPriorOnTrack: owner not excluded")
		}
	}

	capped, err := repo.ListPriorOnTrack(dbc, track.ID, 3, 1)
	if err != nil {
		t.Fatalf("ListPriorOnTrack (capped): %v", err)
	}
	if len(capped) != 1 {
		t.Fatalf("ListPriorOnTrack (capped): want 1 got %d", len(capped))
	}
}

func TestRecommendationRepoFeedAndTotals(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewRecommendationRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	testutil.SeedCurator(t, ctx, tx, 1, "alice")
	a := testutil.SeedRecommendation(t, ctx, tx, 1, testutil.SeedTrack(t, ctx, tx, "SPOTIFY_SONG::a"))
	b := testutil.SeedRecommendation(t, ctx, tx, 1, testutil.SeedTrack(t, ctx, tx, "SPOTIFY_SONG::b"))
	if err := tx.Model(&types.Recommendation{}).Where("id = ?", b.ID).Update("genre", "electronic").Error; err != nil {
		t.Fatalf("update genre: %v", err)
	}
	if _, _, err := repo.IncrementTips(dbc, a.ID, 5); err != nil {
		t.Fatalf("IncrementTips: %v", err)
	}

	items, total, err := repo.Feed(dbc, FeedQuery{Sort: SortMostTipped, Limit: 10})
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("Feed: want 2 items got total=%d len=%d", total, len(items))
	}
	if items[0].ID != a.ID {
		t.Fatalf("Feed most_tipped: expected tipped recommendation first")
	}
	if items[0].Track == nil || items[0].Curator == nil {
		t.Fatalf("Feed: expected track and curator preloaded")
	}

	items, total, err = repo.Feed(dbc, FeedQuery{Sort: SortRecent, Genre: "Electronic", Limit: 10})
	if err != nil {
		t.Fatalf("Feed (genre): %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != b.ID {
		t.Fatalf("Feed (genre): unexpected result total=%d len=%d", total, len(items))
	}

	totals, err := repo.CuratorTotals(dbc, 1, 5)
	if err != nil {
		t.Fatalf("CuratorTotals: %v", err)
	}
	if totals.RecommendationCount != 2 || totals.SuccessfulCount != 1 || totals.TipCount != 1 {
		t.Fatalf("CuratorTotals: unexpected %+v", totals)
	}
	if math.Abs(totals.TotalTipsUSD-5) > 1e-9 {
		t.Fatalf("CuratorTotals: total tips want 5 got %v", totals.TotalTipsUSD)
	}

	empty, err := repo.CuratorTotals(dbc, 99, 5)
	if err != nil {
		t.Fatalf("CuratorTotals (empty): %v", err)
	}
	if empty.RecommendationCount != 0 {
		t.Fatalf("CuratorTotals (empty): unexpected %+v", empty)
	}
}

func TestRecommendationRepoBackfillLinking(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewRecommendationRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	legacy := testutil.SeedRecommendation(t, ctx, tx, 1, nil)
	missing, err := repo.ListMissingTrack(dbc, 10)
	if err != nil {
		t.Fatalf("ListMissingTrack: %v", err)
	}
	if len(missing) != 1 || missing[0].ID != legacy.ID {
		t.Fatalf("ListMissingTrack: unexpected %d rows", len(missing))
	}

	track := testutil.SeedTrack(t, ctx, tx, "SPOTIFY_SONG::linked")
	if err := repo.LinkTrack(dbc, legacy.ID, track.ID); err != nil {
		t.Fatalf("LinkTrack: %v", err)
	}
	missing, err = repo.ListMissingTrack(dbc, 10)
	if err != nil {
		t.Fatalf("ListMissingTrack (after): %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("ListMissingTrack (after): want 0 got %d", len(missing))
	}
}
