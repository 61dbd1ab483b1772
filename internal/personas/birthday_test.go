package personas

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEsCumpleanosHoy(t *testing.T) {
	hoy, err := EsCumpleanosHoy("1990-03-15", day(2024, time.March, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hoy {
		t.Fatal("expected birthday today")
	}

	hoy, err = EsCumpleanosHoy("1990-03-15T00:00:00Z", day(2024, time.March, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hoy {
		t.Fatal("timestamp suffix must not shift the day")
	}

	hoy, err = EsCumpleanosHoy("1990-03-15", day(2024, time.March, 14))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hoy {
		t.Fatal("expected no birthday on the 14th")
	}
}

func TestDiasParaCumpleanos(t *testing.T) {
	cases := []struct {
		name  string
		fecha string
		today time.Time
		want  int
	}{
		{"today", "1990-03-15", day(2024, time.March, 15), 0},
		{"five days ahead", "1990-03-15", day(2024, time.March, 10), 5},
		{"wraps to next year", "1990-01-02", day(2024, time.December, 31), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DiasParaCumpleanos(tc.fecha, tc.today)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d days, got %d", tc.want, got)
			}
		})
	}
}

func TestEdad(t *testing.T) {
	got, err := Edad("1990-03-15", day(2024, time.March, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 34 {
		t.Fatalf("expected 34, got %d", got)
	}

	got, err = Edad("1990-03-15", day(2024, time.March, 14))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 33 {
		t.Fatalf("birthday not reached yet: expected 33, got %d", got)
	}
}

func TestParseBirthDateRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "1990/03/15", "1990-13-01", "1990-03"} {
		if _, err := parseBirthDate(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
