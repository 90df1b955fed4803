package loads

import (
	"testing"
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/enums"
)

func TestClassifyOnTime(t *testing.T) {
	scheduled := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	cases := []struct {
		name   string
		actual time.Time
		want   enums.OnTimeStatus
	}{
		{"exactly on schedule", scheduled, enums.OnTimeStatusOnTime},
		{"inside window late", scheduled.Add(4 * time.Minute), enums.OnTimeStatusOnTime},
		{"inside window early", scheduled.Add(-4 * time.Minute), enums.OnTimeStatusOnTime},
		{"at window boundary late", scheduled.Add(5 * time.Minute), enums.OnTimeStatusDelayed},
		{"at window boundary early", scheduled.Add(-5 * time.Minute), enums.OnTimeStatusEarly},
		{"well past window", scheduled.Add(90 * time.Minute), enums.OnTimeStatusDelayed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyOnTime(scheduled, tc.actual, window); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestOvertimeMinutes(t *testing.T) {
	expected := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)

	if got := OvertimeMinutes(expected, expected.Add(-10*time.Minute)); got != 0 {
		t.Fatalf("early arrival should accrue no overtime, got %d", got)
	}
	if got := OvertimeMinutes(expected, expected); got != 0 {
		t.Fatalf("on-the-dot arrival should accrue no overtime, got %d", got)
	}
	if got := OvertimeMinutes(expected, expected.Add(90*time.Second)); got != 1 {
		t.Fatalf("expected whole minutes only, got %d", got)
	}
	if got := OvertimeMinutes(expected, expected.Add(45*time.Minute)); got != 45 {
		t.Fatalf("expected 45 minutes, got %d", got)
	}
}

func TestCombineDateAndClock(t *testing.T) {
	date := time.Date(2024, 5, 1, 9, 15, 0, 0, time.UTC)

	combined, err := CombineDateAndClock(date, "14:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	if !combined.Equal(want) {
		t.Fatalf("expected %s, got %s", want, combined)
	}

	for _, bad := range []string{"", "14", "25:00", "14:61", "aa:bb"} {
		if _, err := CombineDateAndClock(date, bad); err == nil {
			t.Fatalf("expected error for clock %q", bad)
		}
	}
}
