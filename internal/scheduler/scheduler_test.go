package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"medassist/internal/db"
	"medassist/internal/models"
)

type fakeRefillSource struct {
	refills []db.UpcomingRefill
	err     error
	from    time.Time
	to      time.Time
}

func (f *fakeRefillSource) UpcomingRefills(ctx context.Context, from, to time.Time) ([]db.UpcomingRefill, error) {
	f.from, f.to = from, to
	return f.refills, f.err
}

type fakeChecker struct {
	calls int
	err   error
}

func (f *fakeChecker) CheckAndNotifyReEnrollments(ctx context.Context) error {
	f.calls++
	return f.err
}

type fakePusher struct {
	mu       sync.Mutex
	payloads map[string][]models.PushPayload
}

func (f *fakePusher) Deliver(ctx context.Context, userID string, payload models.PushPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.payloads == nil {
		f.payloads = make(map[string][]models.PushPayload)
	}
	f.payloads[userID] = append(f.payloads[userID], payload)
}

func testScheduler(t *testing.T, refills *fakeRefillSource, checker *fakeChecker, pusher *fakePusher) *Scheduler {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s, err := New(Config{RefillScanSpec: "0 9 * * *", ReEnrollmentSpec: "0 8 * * *"}, refills, checker, pusher, logger)
	if err != nil {
		t.Fatalf("scheduler setup failed: %v", err)
	}
	s.now = func() time.Time {
		return time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	}
	return s
}

func TestRefillScanWindowAndPayload(t *testing.T) {
	refills := &fakeRefillSource{refills: []db.UpcomingRefill{
		{UserID: "user-1", DrugID: "drug-1", DrugName: "Metformin", RefillDate: time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC)},
		{UserID: "user-2", DrugID: "drug-2", DrugName: "Lisinopril", RefillDate: time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)},
	}}
	pusher := &fakePusher{}
	s := testScheduler(t, refills, &fakeChecker{}, pusher)

	s.runRefillScan()

	wantFrom := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)
	if !refills.from.Equal(wantFrom) || !refills.to.Equal(wantTo) {
		t.Errorf("scan window = [%s, %s], want [%s, %s]",
			refills.from.Format("2006-01-02"), refills.to.Format("2006-01-02"),
			wantFrom.Format("2006-01-02"), wantTo.Format("2006-01-02"))
	}

	got := pusher.payloads["user-1"]
	if len(got) != 1 {
		t.Fatalf("expected 1 push for user-1, got %d", len(got))
	}
	if got[0].Title != "Refill Date Approaching" {
		t.Errorf("unexpected title %q", got[0].Title)
	}
	if got[0].Body != "Your refill for Metformin is due in 3 days" {
		t.Errorf("unexpected body %q", got[0].Body)
	}
	if got[0].Tag != "refill_user-1_2024-06-13" {
		t.Errorf("unexpected tag %q", got[0].Tag)
	}

	got = pusher.payloads["user-2"]
	if len(got) != 1 || got[0].Body != "Your refill for Lisinopril is due in 1 day" {
		t.Errorf("unexpected push for user-2: %+v", got)
	}
}

func TestRefillScanSourceFailure(t *testing.T) {
	refills := &fakeRefillSource{err: errors.New("db down")}
	pusher := &fakePusher{}
	s := testScheduler(t, refills, &fakeChecker{}, pusher)

	s.runRefillScan()

	if len(pusher.payloads) != 0 {
		t.Errorf("expected no pushes on scan failure, got %v", pusher.payloads)
	}
}

func TestReEnrollmentCheckRuns(t *testing.T) {
	checker := &fakeChecker{}
	s := testScheduler(t, &fakeRefillSource{}, checker, &fakePusher{})

	s.runReEnrollmentCheck()
	if checker.calls != 1 {
		t.Errorf("expected 1 checker call, got %d", checker.calls)
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	_, err := New(Config{RefillScanSpec: "not a schedule", ReEnrollmentSpec: "0 8 * * *"},
		&fakeRefillSource{}, &fakeChecker{}, &fakePusher{}, logger)
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
