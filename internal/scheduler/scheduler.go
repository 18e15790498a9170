// Package scheduler runs the daily background jobs: the push-only refill
// scan across all users and the server-side re-enrollment check. Both are
// cron jobs; neither touches the in-app dispatch queue, which only serves
// connected users.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"medassist/internal/db"
	"medassist/internal/detect"
	"medassist/internal/models"
	"medassist/internal/renewal"
)

type Config struct {
	RefillScanSpec   string
	ReEnrollmentSpec string
}

// RefillSource lists upcoming refills across all users.
type RefillSource interface {
	UpcomingRefills(ctx context.Context, from, to time.Time) ([]db.UpcomingRefill, error)
}

// ReEnrollmentChecker triggers the server-side re-enrollment scan.
type ReEnrollmentChecker interface {
	CheckAndNotifyReEnrollments(ctx context.Context) error
}

// PushSender delivers the scan results as push notifications.
type PushSender interface {
	Deliver(ctx context.Context, userID string, payload models.PushPayload)
}

type Scheduler struct {
	cron    *cron.Cron
	refills RefillSource
	checker ReEnrollmentChecker
	pusher  PushSender
	logger  *logrus.Logger
	now     func() time.Time
}

func New(cfg Config, refills RefillSource, checker ReEnrollmentChecker, pusher PushSender, logger *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		refills: refills,
		checker: checker,
		pusher:  pusher,
		logger:  logger,
		now:     time.Now,
	}

	if _, err := s.cron.AddFunc(cfg.RefillScanSpec, s.runRefillScan); err != nil {
		return nil, fmt.Errorf("invalid refill scan schedule %q: %w", cfg.RefillScanSpec, err)
	}
	if _, err := s.cron.AddFunc(cfg.ReEnrollmentSpec, s.runReEnrollmentCheck); err != nil {
		return nil, fmt.Errorf("invalid re-enrollment schedule %q: %w", cfg.ReEnrollmentSpec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// runRefillScan pushes a reminder for every tracked drug whose refill date
// falls within the alert window. Push tags make repeat sends for the same
// (user, date) collapse on the device.
func (s *Scheduler) runRefillScan() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	today := renewal.Date(s.now())
	to := today.AddDate(0, 0, detect.RefillAlertWindowDays)

	refills, err := s.refills.UpcomingRefills(ctx, today, to)
	if err != nil {
		s.logger.Errorf("Refill scan failed: %v", err)
		return
	}
	s.logger.Infof("Refill scan found %d upcoming refills", len(refills))

	for _, r := range refills {
		days := detect.DaysRemaining(r.RefillDate, today)
		s.pusher.Deliver(ctx, r.UserID, models.PushPayload{
			Title: "Refill Date Approaching",
			Body:  refillScanBody(r.DrugName, days),
			Tag:   fmt.Sprintf("refill_%s_%s", r.UserID, r.RefillDate.Format("2006-01-02")),
			URL:   "/",
		})
	}
}

func refillScanBody(drugName string, days int) string {
	name := drugName
	if name == "" {
		name = "your medication"
	}
	if days == 1 {
		return fmt.Sprintf("Your refill for %s is due in 1 day", name)
	}
	return fmt.Sprintf("Your refill for %s is due in %d days", name, days)
}

func (s *Scheduler) runReEnrollmentCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.checker.CheckAndNotifyReEnrollments(ctx); err != nil {
		s.logger.Errorf("Re-enrollment check failed: %v", err)
		return
	}
	s.logger.Info("Re-enrollment check completed")
}
