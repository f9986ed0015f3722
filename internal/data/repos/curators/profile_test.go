package curators

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/curiofm/curio-backend/internal/data/repos/testutil"
	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/platform/dbctx"
)

func TestProfileRepoUpsertKeepsWalletAndBio(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewProfileRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	p, err := repo.Upsert(dbc, &types.CuratorProfile{FID: 7, Username: "old", PfpURL: "https://pfp/1"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if p.Username != "old" {
		t.Fatalf("Upsert: unexpected username %q", p.Username)
	}
	if err := repo.UpdateWallet(dbc, 7, "0xabc"); err != nil {
		t.Fatalf("UpdateWallet: %v", err)
	}
	if err := repo.UpdateBio(dbc, 7, "hello"); err != nil {
		t.Fatalf("UpdateBio: %v", err)
	}
	if err := repo.UpdateCaches(dbc, 7, 14, 60); err != nil {
		t.Fatalf("UpdateCaches: %v", err)
	}

	p, err = repo.Upsert(dbc, &types.CuratorProfile{FID: 7, Username: "new"})
	if err != nil {
		t.Fatalf("Upsert (again): %v", err)
	}
	if p.Username != "new" {
		t.Fatalf("Upsert: username not refreshed, got %q", p.Username)
	}
	if p.PfpURL != "https://pfp/1" {
		t.Fatalf("Upsert: empty pfp clobbered existing, got %q", p.PfpURL)
	}
	if p.WalletAddress != "0xabc" || p.Bio != "hello" {
		t.Fatalf("Upsert: wallet/bio clobbered: %+v", p)
	}
	if p.CuratorScore != 14 || p.XP != 60 {
		t.Fatalf("Upsert: caches clobbered: %+v", p)
	}

	byName, err := repo.GetByUsername(dbc, "NEW")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if byName.FID != 7 {
		t.Fatalf("GetByUsername: want fid 7 got %d", byName.FID)
	}
	if err := repo.UpdateBio(dbc, 404, "x"); err == nil {
		t.Fatalf("UpdateBio on missing profile: expected error")
	}
}

func TestProfileRepoLeaderboardAndBatches(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewProfileRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	testutil.SeedCurator(t, ctx, tx, 1, "a")
	testutil.SeedCurator(t, ctx, tx, 2, "b")
	testutil.SeedCurator(t, ctx, tx, 3, "c")
	_ = repo.UpdateCaches(dbc, 1, 5, 100)
	_ = repo.UpdateCaches(dbc, 2, 20, 10)
	_ = repo.UpdateWallet(dbc, 3, "0x3")

	byScore, err := repo.Leaderboard(dbc, RankByScore, 2)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(byScore) != 2 || byScore[0].FID != 2 || byScore[1].FID != 1 {
		t.Fatalf("Leaderboard(score): unexpected order")
	}
	byXP, err := repo.Leaderboard(dbc, RankByXP, 10)
	if err != nil {
		t.Fatalf("Leaderboard(xp): %v", err)
	}
	if byXP[0].FID != 1 {
		t.Fatalf("Leaderboard(xp): want fid 1 first got %d", byXP[0].FID)
	}

	page, err := repo.ListAfter(dbc, 1, 10)
	if err != nil {
		t.Fatalf("ListAfter: %v", err)
	}
	if len(page) != 2 || page[0].FID != 2 {
		t.Fatalf("ListAfter: unexpected page")
	}

	missing, err := repo.ListMissingWallet(dbc, 0, 10)
	if err != nil {
		t.Fatalf("ListMissingWallet: %v", err)
	}
	if len(missing) != 2 {
		t.Fatalf("ListMissingWallet: want 2 got %d", len(missing))
	}
}

func TestActivityRepoSumsXP(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewActivityRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	recID := uuid.New()
	_, err := repo.Create(dbc, []*types.CuratorActivity{
		{CuratorFID: 2, ActivityType: types.ActivityShare, XPEarned: 10, RecommendationID: &recID},
		{CuratorFID: 2, ActivityType: types.ActivityTasteOverlap, XPEarned: 50, RecommendationID: &recID,
			Metadata: datatypes.JSONMap{"overlapCuratorFid": 1}},
		{CuratorFID: 1, ActivityType: types.ActivityShare, XPEarned: 10},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	xp, err := repo.SumXP(dbc, 2)
	if err != nil {
		t.Fatalf("SumXP: %v", err)
	}
	if xp != 60 {
		t.Fatalf("SumXP: want 60 got %d", xp)
	}
	none, err := repo.SumXP(dbc, 99)
	if err != nil || none != 0 {
		t.Fatalf("SumXP (none): want 0 got %d (%v)", none, err)
	}
	n, err := repo.CountByType(dbc, 2, types.ActivityTasteOverlap)
	if err != nil || n != 1 {
		t.Fatalf("CountByType: want 1 got %d (%v)", n, err)
	}
	list, err := repo.ListByCurator(dbc, 2, 0)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByCurator: want 2 got %d (%v)", len(list), err)
	}
}
