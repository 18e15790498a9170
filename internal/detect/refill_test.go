package detect

import (
	"testing"
	"time"

	"medassist/internal/models"
)

func drugWithRefill(refill time.Time) models.PatientDrug {
	return models.PatientDrug{UserID: "u1", DrugID: "d1", DrugName: "Metformin", RefillDate: &refill}
}

func TestDaysRemaining(t *testing.T) {
	today := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		refill time.Time
		want   int
	}{
		{time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC), 5},
		{time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), 8},
		{time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2024, 5, 29, 0, 0, 0, 0, time.UTC), -3},
	}
	for _, tt := range tests {
		if got := DaysRemaining(tt.refill, today); got != tt.want {
			t.Errorf("DaysRemaining(%s) = %d, want %d", tt.refill.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestRefillDueWindow(t *testing.T) {
	today := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		offset  int
		wantDue bool
	}{
		{"due today", 0, true},
		{"five days out", 5, true},
		{"window edge", 7, true},
		{"outside window", 8, false},
		{"overdue", -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := drugWithRefill(today.AddDate(0, 0, tt.offset))
			e, due := RefillDue(d, today)
			if due != tt.wantDue {
				t.Fatalf("due = %v, want %v", due, tt.wantDue)
			}
			if due && e.DaysRemaining != tt.offset {
				t.Errorf("days remaining = %d, want %d", e.DaysRemaining, tt.offset)
			}
		})
	}
}

func TestRefillDueNoDate(t *testing.T) {
	d := models.PatientDrug{UserID: "u1", DrugID: "d1"}
	if _, due := RefillDue(d, time.Now()); due {
		t.Fatal("drug without refill date must not alert")
	}
}

func TestRefillDueMessages(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	e, _ := RefillDue(drugWithRefill(today), today)
	if e.Message != "Your refill is due today!" {
		t.Errorf("today message = %q", e.Message)
	}
	e, _ = RefillDue(drugWithRefill(today.AddDate(0, 0, 1)), today)
	if e.Message != "Your refill is due tomorrow!" {
		t.Errorf("tomorrow message = %q", e.Message)
	}
	e, _ = RefillDue(drugWithRefill(today.AddDate(0, 0, 4)), today)
	if e.Message != "Your refill is due in 4 days" {
		t.Errorf("plural message = %q", e.Message)
	}
}

func TestDedupKey(t *testing.T) {
	refill := models.NotificationEvent{
		Type:       models.EventRefillApproaching,
		DrugID:     "d1",
		RefillDate: time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC),
	}
	ns, key := DedupKey(refill)
	if ns != "refill" || key != "d1|2024-06-06" {
		t.Errorf("refill key = %s/%s", ns, key)
	}

	// A new refill date makes a new key, restoring alert eligibility.
	refill.RefillDate = refill.RefillDate.AddDate(0, 0, RefillAdvanceDays)
	_, key2 := DedupKey(refill)
	if key2 == key {
		t.Error("advancing the refill date must change the dedup key")
	}

	prog := models.NotificationEvent{Type: models.EventProgramOpen, ProgramID: "p1"}
	ns, key = DedupKey(prog)
	if ns != "program" || key != "p1" {
		t.Errorf("program key = %s/%s", ns, key)
	}
}
