package detect

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"medassist/internal/models"
	"medassist/internal/renewal"
)

const (
	// RefillAlertWindowDays is how far ahead of a refill date the due-soon
	// alert fires.
	RefillAlertWindowDays = 7

	// RefillAdvanceDays is how far a refill date moves forward when the
	// patient marks the refill completed.
	RefillAdvanceDays = 30

	// OverdueRealerts: an overdue refill (negative days remaining) is
	// flagged for urgent display but does not re-emit alerts on every pass.
	// Product decision recorded in DESIGN.md.
	OverdueRealerts = false
)

// DaysRemaining is the whole-day difference between a refill date and today,
// both normalized to calendar dates. Negative values mean the refill is
// overdue.
func DaysRemaining(refillDate, today time.Time) int {
	return int(renewal.Date(refillDate).Sub(renewal.Date(today)) / (24 * time.Hour))
}

// RefillDue reports whether a tracked drug's refill falls inside the alert
// window and, if so, returns the due-soon event. Drugs without a refill date
// never alert.
func RefillDue(d models.PatientDrug, today time.Time) (models.NotificationEvent, bool) {
	if d.RefillDate == nil {
		return models.NotificationEvent{}, false
	}
	days := DaysRemaining(*d.RefillDate, today)
	if days < 0 || days > RefillAlertWindowDays {
		return models.NotificationEvent{}, false
	}
	return models.NotificationEvent{
		ID:            uuid.NewString(),
		Type:          models.EventRefillApproaching,
		UserID:        d.UserID,
		Title:         "Refill Reminder",
		Message:       refillMessage(days),
		DrugID:        d.DrugID,
		DrugName:      d.DrugName,
		RefillDate:    renewal.Date(*d.RefillDate),
		DaysRemaining: days,
		CreatedAt:     today,
	}, true
}

// DedupKey maps an event to its dedup namespace and key. Program events key
// on the program alone within one snapshot baseline; refill events key on
// drug plus refill date, so advancing the date restores alert eligibility.
func DedupKey(e models.NotificationEvent) (namespace, key string) {
	if e.Type == models.EventRefillApproaching {
		return "refill", fmt.Sprintf("%s|%s", e.DrugID, e.RefillDate.Format("2006-01-02"))
	}
	return "program", e.ProgramID
}

func refillMessage(days int) string {
	switch days {
	case 0:
		return "Your refill is due today!"
	case 1:
		return "Your refill is due tomorrow!"
	default:
		return fmt.Sprintf("Your refill is due in %d days", days)
	}
}
