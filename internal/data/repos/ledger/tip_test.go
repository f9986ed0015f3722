package ledger

import (
	"context"
	"math"
	"testing"

	"github.com/curiofm/curio-backend/internal/data/repos/testutil"
	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/platform/dbctx"
)

func TestTipRepoListTippersAggregates(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewTipRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	testutil.SeedCurator(t, ctx, tx, 2, "bob")
	rec := testutil.SeedRecommendation(t, ctx, tx, 1, testutil.SeedTrack(t, ctx, tx, "SPOTIFY_SONG::tipped"))

	tips := []*types.Tip{
		{RecommendationID: rec.ID, TipperFID: 2, RecipientFID: 1, AmountUSD: 1, TransactionHash: "0x1"},
		{RecommendationID: rec.ID, TipperFID: 2, RecipientFID: 1, AmountUSD: 2, TransactionHash: "0x2"},
		{RecommendationID: rec.ID, TipperFID: 3, TipperUsername: "carol", RecipientFID: 1, AmountUSD: 0.5, TransactionHash: "0x3"},
	}
	for _, tip := range tips {
		if _, err := repo.Create(dbc, tip); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, total, err := repo.ListTippers(dbc, rec.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListTippers: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("ListTippers: want 2 tippers got total=%d len=%d", total, len(got))
	}
	if got[0].FID != 2 || got[0].Username != "bob" || got[0].TipCount != 2 {
		t.Fatalf("ListTippers: unexpected first row %+v", got[0])
	}
	if math.Abs(got[0].TotalUSD-3) > 1e-9 {
		t.Fatalf("ListTippers: want total 3 got %v", got[0].TotalUSD)
	}
	if got[1].Username != "carol" {
		t.Fatalf("ListTippers: expected username fallback from tip row, got %q", got[1].Username)
	}

	var rows int64
	if err := tx.Model(&types.Tip{}).Where("recommendation_id = ?", rec.ID).Count(&rows).Error; err != nil {
		t.Fatalf("count tips: %v", err)
	}
	if rows != 3 {
		t.Fatalf("tip ledger: want 3 rows got %d", rows)
	}
}
