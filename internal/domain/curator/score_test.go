package curator

import "testing"

func TestScore(t *testing.T) {
	cases := []struct {
		name    string
		cosigns int64
		tips    float64
		want    int64
	}{
		{"empty", 0, 0, 0},
		{"cosigns only", 4, 0, 4},
		{"three cosigns and 2.20", 3, 2.20, 14},
		{"rounds half up", 0, 0.5, 3},
		{"rounds down", 0, 0.29, 1},
	}
	for _, tc := range cases {
		if got := Score(tc.cosigns, tc.tips); got != tc.want {
			t.Fatalf("%s: Score(%d, %v) = %d, want %d", tc.name, tc.cosigns, tc.tips, got, tc.want)
		}
	}
}

func TestSuccessRate(t *testing.T) {
	if got := SuccessRate(0, 0); got != 0 {
		t.Fatalf("no recommendations: got %d", got)
	}
	if got := SuccessRate(1, 2); got != 50 {
		t.Fatalf("1 of 2: got %d", got)
	}
	if got := SuccessRate(2, 3); got != 67 {
		t.Fatalf("2 of 3: got %d", got)
	}
}
