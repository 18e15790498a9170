// Package reconcile orchestrates notification reconciliation passes:
// trigger the server-side checks, fetch unread notification rows, run the
// client-side detectors against the stored baseline, dedup, and fan the
// surviving events out to the in-app presentation and push delivery.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"medassist/internal/detect"
	"medassist/internal/models"
	"medassist/internal/renewal"
)

// DataStore is the slice of the data layer a reconciliation pass touches.
type DataStore interface {
	CheckAndNotifyReEnrollments(ctx context.Context) error
	CheckAndNotifyRefills(ctx context.Context) error
	UnreadProgramNotifications(ctx context.Context, userID string) ([]models.ProgramNotification, error)
	UnreadRefillNotifications(ctx context.Context, userID string) ([]models.RefillNotification, error)
	ProgramsForUser(ctx context.Context, userID string) ([]models.Program, error)
	PatientDrugs(ctx context.Context, userID string) ([]models.PatientDrug, error)
	MarkProgramNotificationsRead(ctx context.Context, ids []string) error
	MarkRefillNotificationsRead(ctx context.Context, ids []string) error
	MarkRefillNotificationsReadByDrug(ctx context.Context, userID string, drugIDs []string) error
	AdvanceRefillDates(ctx context.Context, userID string, drugIDs []string, newDate time.Time) error
}

// SnapshotStore persists the per-user program-status baseline.
type SnapshotStore interface {
	Get(ctx context.Context, userID string) (map[string]models.ProgramStatus, error)
	Put(ctx context.Context, userID string, snapshot map[string]models.ProgramStatus) error
}

// DedupStore suppresses repeat presentation of an already-shown key.
type DedupStore interface {
	ShouldShow(ctx context.Context, userID, namespace, key string) (bool, error)
	MarkShown(ctx context.Context, userID, namespace, key string) error
	Clear(ctx context.Context, userID, namespace, key string) error
}

// Presenter is the in-app channel surviving events are shown on.
type Presenter interface {
	SendToUser(userID string, v interface{})
}

// PushSender is the external push-delivery collaborator.
type PushSender interface {
	Deliver(ctx context.Context, userID string, payload models.PushPayload)
}

// Coordinator merges detector output with server-created notification rows,
// applies dedup, and is the sole consumer of the dispatch queue, the one
// place where presentation ordering is decided. Both reconciliation passes
// and the realtime insert feed publish into the same queue.
type Coordinator struct {
	store     DataStore
	snapshots SnapshotStore
	dedup     DedupStore
	presenter Presenter
	pusher    PushSender
	logger    *logrus.Logger
	events    chan models.NotificationEvent
	ctx       context.Context
	cancel    context.CancelFunc
	wg        *sync.WaitGroup
	now       func() time.Time
}

func New(store DataStore, snapshots SnapshotStore, dedup DedupStore, presenter Presenter, pusher PushSender, logger *logrus.Logger, queueSize int) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		store:     store,
		snapshots: snapshots,
		dedup:     dedup,
		presenter: presenter,
		pusher:    pusher,
		logger:    logger,
		events:    make(chan models.NotificationEvent, queueSize),
		ctx:       ctx,
		cancel:    cancel,
		now:       time.Now,
	}
}

// Start launches the dispatch worker. A single worker keeps the queue's
// order in presentation.
func (c *Coordinator) Start(wg *sync.WaitGroup) {
	c.wg = wg
	c.wg.Add(1)
	go c.worker()
}

// Stop cancels the worker; pending queue entries are dropped.
func (c *Coordinator) Stop() {
	c.cancel()
}

func (c *Coordinator) worker() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("Dispatch worker stopped")
			return
		case e := <-c.events:
			c.present(e)
		}
	}
}

func (c *Coordinator) present(e models.NotificationEvent) {
	c.presenter.SendToUser(e.UserID, e)
	// Push delivery is fire-and-forget and must not block the queue.
	go c.pusher.Deliver(context.Background(), e.UserID, pushPayload(e))
}

func pushPayload(e models.NotificationEvent) models.PushPayload {
	url := "/"
	if e.EnrollmentLink != "" {
		url = e.EnrollmentLink
	}
	ns, key := detect.DedupKey(e)
	return models.PushPayload{
		Title: e.Title,
		Body:  e.Message,
		Tag:   fmt.Sprintf("%s_%s_%s", ns, e.UserID, key),
		URL:   url,
	}
}

// Publish routes one event through dedup into the dispatch queue. It
// returns true when the event survived and was queued. Dedup read errors
// degrade open: an alert shown twice beats an alert lost.
func (c *Coordinator) Publish(ctx context.Context, e models.NotificationEvent) bool {
	ns, key := detect.DedupKey(e)
	show, err := c.dedup.ShouldShow(ctx, e.UserID, ns, key)
	if err != nil {
		c.logger.Errorf("Dedup check failed for user %s (%s/%s): %v", e.UserID, ns, key, err)
		show = true
	}
	if !show {
		return false
	}
	if err := c.dedup.MarkShown(ctx, e.UserID, ns, key); err != nil {
		c.logger.Errorf("Dedup mark failed for user %s (%s/%s): %v", e.UserID, ns, key, err)
	}

	select {
	case c.events <- e:
		return true
	default:
		c.logger.Errorf("Dispatch queue full, dropping event %s for user %s", e.ID, e.UserID)
		return false
	}
}

// Run executes one reconciliation pass for a user and returns the events it
// surfaced. Every data-layer failure inside the pass is logged and degrades
// to "no new notifications"; a broken check never blocks the screen that
// triggered it.
func (c *Coordinator) Run(ctx context.Context, userID string) []models.NotificationEvent {
	now := c.now()

	// Server-side recomputation first, so the unread fetch below sees any
	// rows the procedures insert. Failures only cost this pass freshness.
	var procWG sync.WaitGroup
	procWG.Add(2)
	go func() {
		defer procWG.Done()
		if err := c.store.CheckAndNotifyReEnrollments(ctx); err != nil {
			c.logger.Errorf("Re-enrollment check failed: %v", err)
		}
	}()
	go func() {
		defer procWG.Done()
		if err := c.store.CheckAndNotifyRefills(ctx); err != nil {
			c.logger.Errorf("Refill check failed: %v", err)
		}
	}()
	procWG.Wait()

	// Fan-out fetch of disjoint state.
	var (
		fetchWG     sync.WaitGroup
		programRows []models.ProgramNotification
		refillRows  []models.RefillNotification
		programs    []models.Program
		drugs       []models.PatientDrug
	)
	programsOK := true
	fetch := func(name string, fn func() error) {
		fetchWG.Add(1)
		go func() {
			defer fetchWG.Done()
			if err := fn(); err != nil {
				c.logger.Errorf("Reconciliation fetch %s failed for user %s: %v", name, userID, err)
				if name == "programs" {
					programsOK = false
				}
			}
		}()
	}
	fetch("program notifications", func() (err error) {
		programRows, err = c.store.UnreadProgramNotifications(ctx, userID)
		return
	})
	fetch("refill notifications", func() (err error) {
		refillRows, err = c.store.UnreadRefillNotifications(ctx, userID)
		return
	})
	fetch("programs", func() (err error) {
		programs, err = c.store.ProgramsForUser(ctx, userID)
		return
	})
	fetch("patient drugs", func() (err error) {
		drugs, err = c.store.PatientDrugs(ctx, userID)
		return
	})
	fetchWG.Wait()

	if ctx.Err() != nil {
		// The caller navigated away; discard the pass.
		return nil
	}

	snapshot, err := c.snapshots.Get(ctx, userID)
	if err != nil {
		c.logger.Errorf("Snapshot read failed for user %s: %v", userID, err)
		snapshot = map[string]models.ProgramStatus{}
	}

	var surfaced []models.NotificationEvent
	publish := func(e models.NotificationEvent) {
		if c.Publish(ctx, e) {
			surfaced = append(surfaced, e)
		}
	}

	// Server-created rows first: they carry the rendered message and the
	// authoritative row id for the later mark-read.
	seenPrograms := make(map[string]bool)
	for _, row := range programRows {
		seenPrograms[row.ProgramID] = true
		publish(ProgramRowEvent(row))
	}
	seenRefills := make(map[string]bool)
	for _, row := range refillRows {
		e := RefillRowEvent(row, now)
		seenRefills[fmt.Sprintf("%s|%s", e.DrugID, e.RefillDate.Format("2006-01-02"))] = true
		publish(e)
	}

	// Client-side detection fills in what the server has not represented.
	for _, e := range detect.ProgramReopenings(snapshot, programs, now) {
		if seenPrograms[e.ProgramID] {
			continue
		}
		e.UserID = userID
		publish(e)
	}
	for _, d := range drugs {
		e, due := detect.RefillDue(d, now)
		if !due {
			continue
		}
		if seenRefills[fmt.Sprintf("%s|%s", e.DrugID, e.RefillDate.Format("2006-01-02"))] {
			continue
		}
		e.UserID = userID
		publish(e)
	}

	// Overwrite the baseline with this pass's state so the next pass
	// compares against it. A failed programs fetch keeps the old baseline
	// rather than recording a false "everything vanished". Programs that
	// left the open state get their dedup key cleared so the next
	// re-opening alerts again.
	if programsOK {
		if err := c.snapshots.Put(ctx, userID, detect.Snapshot(programs)); err != nil {
			c.logger.Errorf("Snapshot write failed for user %s: %v", userID, err)
		}
		for _, p := range programs {
			if p.Status == models.ProgramOpen {
				continue
			}
			if err := c.dedup.Clear(ctx, userID, "program", p.ID); err != nil {
				c.logger.Errorf("Dedup reset failed for user %s program %s: %v", userID, p.ID, err)
			}
		}
	}

	return surfaced
}

// MarkProgramRead marks program notification rows read in one batched
// update. is_read only ever moves false to true.
func (c *Coordinator) MarkProgramRead(ctx context.Context, ids []string) error {
	if err := c.store.MarkProgramNotificationsRead(ctx, ids); err != nil {
		c.logger.Errorf("Mark program notifications read failed: %v", err)
		return err
	}
	return nil
}

// MarkRefillRead marks refill notification rows read.
func (c *Coordinator) MarkRefillRead(ctx context.Context, ids []string) error {
	if err := c.store.MarkRefillNotificationsRead(ctx, ids); err != nil {
		c.logger.Errorf("Mark refill notifications read failed: %v", err)
		return err
	}
	return nil
}

// MarkRefillsCompleted advances each drug's refill date to today plus the
// standard interval and clears any pending due-soon state for those drugs.
// This is the only place a refill date mutates outside direct user edit.
func (c *Coordinator) MarkRefillsCompleted(ctx context.Context, userID string, drugIDs []string) (time.Time, error) {
	newDate := renewal.Date(c.now()).AddDate(0, 0, detect.RefillAdvanceDays)
	if err := c.store.AdvanceRefillDates(ctx, userID, drugIDs, newDate); err != nil {
		return time.Time{}, err
	}
	if err := c.store.MarkRefillNotificationsReadByDrug(ctx, userID, drugIDs); err != nil {
		// The dates moved; a stale unread row is tolerable and will clear
		// on the next pass.
		c.logger.Errorf("Clearing refill notifications failed for user %s: %v", userID, err)
	}
	return newDate, nil
}

func ProgramRowEvent(row models.ProgramNotification) models.NotificationEvent {
	return models.NotificationEvent{
		ID:             row.ID,
		Type:           models.EventProgramOpen,
		UserID:         row.UserID,
		Title:          "Program Update",
		Message:        row.Message,
		ProgramID:      row.ProgramID,
		EnrollmentLink: row.EnrollmentLink,
		CreatedAt:      row.CreatedAt,
	}
}

func RefillRowEvent(row models.RefillNotification, now time.Time) models.NotificationEvent {
	// days_remaining is recomputed from the stored refill date, not trusted
	// as stale row state.
	days := detect.DaysRemaining(row.RefillDate, now)
	e := models.NotificationEvent{
		ID:            row.ID,
		Type:          models.EventRefillApproaching,
		UserID:        row.UserID,
		Title:         "Refill Reminder",
		DrugID:        row.DrugID,
		DrugName:      row.DrugName,
		RefillDate:    renewal.Date(row.RefillDate),
		DaysRemaining: days,
		Overdue:       days < 0,
		CreatedAt:     row.CreatedAt,
	}
	if days < 0 {
		e.Message = "Your refill date has passed"
	} else {
		e.Message = refillRowMessage(days)
	}
	return e
}

func refillRowMessage(days int) string {
	switch days {
	case 0:
		return "Your refill is due today!"
	case 1:
		return "Your refill is due tomorrow!"
	default:
		return fmt.Sprintf("Your refill is due in %d days", days)
	}
}
