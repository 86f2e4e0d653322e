package syncx

import (
	"testing"
	"time"
)

func TestEntryLowerBound(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{
			name: "mid-month",
			now:  time.Date(2026, 1, 22, 15, 4, 5, 0, time.UTC),
			want: "2026-01-15",
		},
		{
			name: "crosses month boundary",
			now:  time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
			want: "2026-02-24",
		},
		{
			name: "crosses year boundary",
			now:  time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC),
			want: "2025-12-26",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EntryLowerBound(tt.now); got != tt.want {
				t.Errorf("EntryLowerBound() = %q, want %q", got, tt.want)
			}
		})
	}
}
