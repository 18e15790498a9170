// Package enrollment implements the program enrollment lifecycle: enroll,
// progress through ongoing/completed, or reject. A (user, program) pair has
// exactly one enrollment row; rejection is terminal.
package enrollment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"medassist/internal/db"
	"medassist/internal/models"
	"medassist/internal/renewal"
)

// ErrRejected is returned when a write targets an enrollment that was
// rejected. Rejected never transitions to any other state.
var ErrRejected = errors.New("enrollment is rejected")

// ErrNotEnrolled is returned when a status change targets a pair with no
// enrollment row.
var ErrNotEnrolled = errors.New("not enrolled in program")

const (
	// ActionReauthenticate tells the client to force a fresh login so the
	// external enrollment portal session resyncs.
	ActionReauthenticate = "reauthenticate"
	// ActionRefresh tells the client a plain data refresh is enough.
	ActionRefresh = "refresh"
)

// Store is the data-layer slice the enrollment flows need.
type Store interface {
	GetProgram(ctx context.Context, id string) (models.Program, error)
	GetEnrollment(ctx context.Context, userID, programID string) (models.Enrollment, error)
	UpsertEnrollment(ctx context.Context, e models.Enrollment) error
}

type Service struct {
	store  Store
	logger *logrus.Logger
	now    func() time.Time
}

func NewService(store Store, logger *logrus.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// EnrollNow enrolls a user in a program, computing the re-enrollment date
// from the program's renewal policy. First-time enrollment returns
// ActionReauthenticate; re-enrolling an existing pair returns ActionRefresh.
func (s *Service) EnrollNow(ctx context.Context, userID, programID string) (string, models.Enrollment, error) {
	program, err := s.store.GetProgram(ctx, programID)
	if err != nil {
		return "", models.Enrollment{}, err
	}

	now := s.now()
	e := models.Enrollment{
		ID:         uuid.NewString(),
		UserID:     userID,
		ProgramID:  programID,
		Status:     models.EnrollmentEnrolled,
		EnrolledAt: now,
		UpdatedAt:  now,
	}

	action := ActionReauthenticate
	existing, err := s.store.GetEnrollment(ctx, userID, programID)
	switch {
	case err == nil:
		if existing.Status == models.EnrollmentRejected {
			return "", models.Enrollment{}, ErrRejected
		}
		e.ID = existing.ID
		action = ActionRefresh
	case errors.Is(err, db.ErrEnrollmentNotFound):
		// First enrollment for this pair.
	default:
		return "", models.Enrollment{}, err
	}

	if reDate, ok := renewal.Compute(program.RenewalPeriod, now); ok {
		e.ReEnrollmentDate = &reDate
	}

	if err := s.store.UpsertEnrollment(ctx, e); err != nil {
		return "", models.Enrollment{}, err
	}
	s.logger.Infof("User %s enrolled in program %s (action=%s)", userID, programID, action)
	return action, e, nil
}

// SetStatus moves an existing enrollment to ongoing, completed or rejected.
// Completed recomputes the re-enrollment date from the completion date.
func (s *Service) SetStatus(ctx context.Context, userID, programID string, status models.EnrollmentStatus, completionDate *time.Time) (models.Enrollment, error) {
	e, err := s.store.GetEnrollment(ctx, userID, programID)
	if err != nil {
		if errors.Is(err, db.ErrEnrollmentNotFound) {
			return models.Enrollment{}, ErrNotEnrolled
		}
		return models.Enrollment{}, err
	}
	if e.Status == models.EnrollmentRejected {
		return models.Enrollment{}, ErrRejected
	}

	now := s.now()
	e.Status = status
	e.UpdatedAt = now

	switch status {
	case models.EnrollmentCompleted:
		done := now
		if completionDate != nil {
			done = *completionDate
		}
		e.CompletionDate = &done
		e.ReEnrollmentDate = nil
		program, err := s.store.GetProgram(ctx, programID)
		if err != nil {
			return models.Enrollment{}, err
		}
		if reDate, ok := renewal.Compute(program.RenewalPeriod, done); ok {
			e.ReEnrollmentDate = &reDate
		}
	case models.EnrollmentRejected:
		e.CompletionDate = nil
		e.ReEnrollmentDate = nil
	}

	if err := s.store.UpsertEnrollment(ctx, e); err != nil {
		return models.Enrollment{}, err
	}
	s.logger.Infof("User %s program %s enrollment set to %s", userID, programID, status)
	return e, nil
}
