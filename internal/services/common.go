package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/curiofm/curio-backend/internal/data/repos/dberr"
	types "github.com/curiofm/curio-backend/internal/domain"
	"github.com/curiofm/curio-backend/internal/platform/apierr"
	"github.com/curiofm/curio-backend/internal/platform/validate"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	MaxTipUSD        = 10000
	MaxReviewLength  = 1000
	MaxBioLength     = 280
	MaxMoods         = 5
)

// EngagementConfig holds the tunable rules for XP, scoring and tips.
type EngagementConfig struct {
	ShareXP                int64
	TasteOverlapXP         int64
	OverlapScanLimit       int
	SuccessTipThresholdUSD float64
	AllowSelfTip           bool
}

func DefaultEngagementConfig() EngagementConfig {
	return EngagementConfig{
		ShareXP:                10,
		TasteOverlapXP:         50,
		OverlapScanLimit:       500,
		SuccessTipThresholdUSD: 5,
		AllowSelfTip:           true,
	}
}

type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func newPage[T any](items []T, total int64, limit, offset int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Limit: limit, Offset: offset}
}

func invalid(format string, args ...any) error {
	return apierr.BadRequest("validation_error", fmt.Errorf("%w: %s", types.ErrValidation, fmt.Sprintf(format, args...)))
}

// invalidStruct runs struct validation and maps failures to a 400.
func invalidStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	return apierr.BadRequest("validation_error", fmt.Errorf("%w: %s", types.ErrValidation, err.Error()))
}

// notFoundOr turns a missing row into a 404 and passes anything else through.
func notFoundOr(code string, err error) error {
	if err == nil {
		return nil
	}
	if dberr.IsNotFound(err) || errors.Is(err, types.ErrNotFound) {
		return apierr.NotFound(code, types.ErrNotFound)
	}
	return err
}

// domainReject maps a rule violation to a 400 carrying the sentinel.
func domainReject(code string, sentinel error) error {
	return apierr.BadRequest(code, sentinel)
}

func clampPage(limit, offset int) (int, int) {
	return dberr.Page(limit, offset, DefaultPageLimit, MaxPageLimit)
}

func normalizeMoods(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, m := range in {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
