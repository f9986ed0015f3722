package curator

import "math"

const (
	PointsPerCosign = 1
	PointsPerUSDC   = 5
)

// Score derives the curator score from aggregate co-signs and tip dollars.
func Score(cosigns int64, totalTipsUSD float64) int64 {
	return cosigns*PointsPerCosign + int64(math.Round(totalTipsUSD*PointsPerUSDC))
}

// SuccessRate is the rounded percentage of recommendations that reached the
// tip threshold, 0 when there are none.
func SuccessRate(successful, total int64) int64 {
	if total <= 0 {
		return 0
	}
	return int64(math.Round(100 * float64(successful) / float64(total)))
}
