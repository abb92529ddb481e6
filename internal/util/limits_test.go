package util

import "testing"

func intPtr(n int) *int { return &n }

func TestClampListLimit(t *testing.T) {
	cases := []struct {
		name      string
		requested *int
		max, want int
	}{
		{"absent defaults", nil, 100, DefaultListLimit},
		{"explicit zero clamps to one", intPtr(0), 100, 1},
		{"explicit negative clamps to one", intPtr(-5), 100, 1},
		{"within range passes through", intPtr(10), 100, 10},
		{"over max caps to max", intPtr(1000), 100, 100},
		{"equal to max passes through", intPtr(100), 100, 100},
	}
	for _, c := range cases {
		if got := ClampListLimit(c.requested, c.max); got != c.want {
			t.Fatalf("%s: ClampListLimit(%v, %d) = %d, want %d", c.name, c.requested, c.max, got, c.want)
		}
	}
}
