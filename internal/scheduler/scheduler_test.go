package scheduler

import (
	"testing"
	"time"
)

func TestPreviousMonth(t *testing.T) {
	cases := []struct {
		now  string
		want string
	}{
		{"2026-08-15", "2026-07"},
		{"2026-03-31", "2026-02"},
		{"2026-01-01", "2025-12"},
		{"2024-03-30", "2024-02"},
	}
	for _, c := range cases {
		now, err := time.Parse("2006-01-02", c.now)
		if err != nil {
			t.Fatalf("parse %s: %v", c.now, err)
		}
		if got := previousMonth(now); got != c.want {
			t.Errorf("previousMonth(%s) = %s, want %s", c.now, got, c.want)
		}
	}
}
