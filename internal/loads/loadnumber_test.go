package loads

import (
	"testing"
	"time"

	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
)

func TestDayPrefix(t *testing.T) {
	date := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	if got := DayPrefix("BV", date); got != "BV240501" {
		t.Fatalf("expected BV240501, got %s", got)
	}
	if got := DayPrefix(" bv ", date); got != "BV240501" {
		t.Fatalf("expected trimmed uppercase prefix, got %s", got)
	}
}

func TestNextLoadNumber(t *testing.T) {
	cases := []struct {
		name string
		last string
		want string
	}{
		{"first of the day", "", "BV240501"},
		{"second of the day", "BV240501", "BV240501A"},
		{"third of the day", "BV240501A", "BV240501B"},
		{"before the cap", "BV240501Y", "BV240501Z"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextLoadNumber("BV240501", tc.last)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNextLoadNumberExhausted(t *testing.T) {
	_, err := NextLoadNumber("BV240501", "BV240501Z")
	if err == nil {
		t.Fatal("expected sequence exhaustion error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict code, got %v", err)
	}
}

func TestNextLoadNumberRejectsMismatchedPrefix(t *testing.T) {
	if _, err := NextLoadNumber("BV240501", "CD240501A"); err == nil {
		t.Fatal("expected prefix mismatch error")
	}
	if _, err := NextLoadNumber("", ""); err == nil {
		t.Fatal("expected error for empty prefix")
	}
}
