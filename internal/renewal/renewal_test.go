package renewal

import (
	"testing"
	"time"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		period    string
		reference string
		want      string
		wantOK    bool
	}{
		{"empty period", "", "2024-03-15", "", false},
		{"never", "never", "2024-03-15", "", false},
		{"calendar year", "calendar year", "2024-03-15", "2025-01-01", true},
		{"calendar years plural", "calendar years", "2023-12-31", "2024-01-01", true},
		{"30 days", "30", "2024-01-01", "2024-01-31", true},
		{"90 days from completion", "90", "2024-01-01", "2024-03-31", true},
		{"365 days", "365", "2024-06-01", "2025-06-01", true},
		{"not a number", "not-a-number", "2024-01-01", "", false},
		{"decimal rejected", "30.5", "2024-01-01", "", false},
		{"whitespace day count", " 60 ", "2024-01-01", "2024-03-01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Compute(tt.period, date(tt.reference))
			if ok != tt.wantOK {
				t.Fatalf("Compute(%q, %s) ok = %v, want %v", tt.period, tt.reference, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("Compute(%q, %s) = %s, want %s", tt.period, tt.reference, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestComputeDiscardsTimeOfDay(t *testing.T) {
	ref := time.Date(2024, 3, 15, 23, 45, 12, 0, time.UTC)
	got, ok := Compute("10", ref)
	if !ok {
		t.Fatal("expected ok")
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("expected midnight result, got %v", got)
	}
	if got.Format("2006-01-02") != "2024-03-25" {
		t.Errorf("got %s, want 2024-03-25", got.Format("2006-01-02"))
	}
}
