package dberr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("boom"), false},
		{&pgconn.PgError{Code: "23505"}, true},
		{fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), false},
		{errors.New("UNIQUE constraint failed: cosigns.recommendation_id, cosigns.curator_fid"), true},
		{fmt.Errorf("wrap: %w", gorm.ErrDuplicatedKey), true},
	}
	for i, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("case %d (%v): want=%v got=%v", i, tc.err, tc.want, got)
		}
	}
}

func TestPage(t *testing.T) {
	if l, o := Page(0, -5, 20, 100); l != 20 || o != 0 {
		t.Fatalf("defaults: got %d/%d", l, o)
	}
	if l, o := Page(500, 40, 20, 100); l != 100 || o != 40 {
		t.Fatalf("clamp: got %d/%d", l, o)
	}
}
