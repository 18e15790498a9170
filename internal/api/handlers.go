package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"medassist/internal/db"
	"medassist/internal/detect"
	"medassist/internal/enrollment"
	"medassist/internal/models"
	"medassist/internal/reconcile"
	"medassist/internal/ws"
)

type Handler struct {
	db          *db.DB
	coordinator *reconcile.Coordinator
	enrollments *enrollment.Service
	registry    *ws.Manager
	logger      *logrus.Logger
	upgrader    websocket.Upgrader
}

func NewHandler(database *db.DB, coordinator *reconcile.Coordinator, enrollments *enrollment.Service, registry *ws.Manager, logger *logrus.Logger) *Handler {
	return &Handler{
		db:          database,
		coordinator: coordinator,
		enrollments: enrollments,
		registry:    registry,
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Reconcile runs a reconciliation pass for the user. The pass swallows its
// own failures, so this endpoint never reports one: the response is whatever
// the pass surfaced, possibly nothing.
func (h *Handler) Reconcile(c *gin.Context) {
	userID := c.Param("user_id")
	events := h.coordinator.Run(c.Request.Context(), userID)
	if events == nil {
		events = []models.NotificationEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": events})
}

func (h *Handler) GetProgramNotifications(c *gin.Context) {
	userID := c.Param("user_id")
	rows, err := h.db.UnreadProgramNotifications(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorf("Failed to get program notifications for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notifications"})
		return
	}
	if rows == nil {
		rows = []models.ProgramNotification{}
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) GetRefillNotifications(c *gin.Context) {
	userID := c.Param("user_id")
	rows, err := h.db.UnreadRefillNotifications(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorf("Failed to get refill notifications for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notifications"})
		return
	}
	// Days remaining is always recomputed at read time.
	now := time.Now()
	for i := range rows {
		rows[i].DaysRemaining = detect.DaysRemaining(rows[i].RefillDate, now)
	}
	if rows == nil {
		rows = []models.RefillNotification{}
	}
	c.JSON(http.StatusOK, rows)
}

type markReadRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// MarkProgramNotificationsRead dismisses program notifications. Dismissal is
// optimistic: a failed durable write is logged but still reported as success
// so the user is never trapped behind a modal.
func (h *Handler) MarkProgramNotificationsRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid mark-read request body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	_ = h.coordinator.MarkProgramRead(c.Request.Context(), req.IDs)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) MarkRefillNotificationsRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid mark-read request body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	_ = h.coordinator.MarkRefillRead(c.Request.Context(), req.IDs)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type enrollRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	ProgramID string `json:"program_id" binding:"required"`
}

func (h *Handler) Enroll(c *gin.Context) {
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid enroll request body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	action, e, err := h.enrollments.EnrollNow(c.Request.Context(), req.UserID, req.ProgramID)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrProgramNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Program not found"})
		case errors.Is(err, enrollment.ErrRejected):
			c.JSON(http.StatusConflict, gin.H{"error": "Enrollment was rejected"})
		default:
			h.logger.Errorf("Enroll failed for user %s program %s: %v", req.UserID, req.ProgramID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enroll"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": action, "enrollment": e})
}

type enrollmentStatusRequest struct {
	UserID         string     `json:"user_id" binding:"required"`
	ProgramID      string     `json:"program_id" binding:"required"`
	Status         string     `json:"status" binding:"required"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
}

func (h *Handler) SetEnrollmentStatus(c *gin.Context) {
	var req enrollmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid enrollment status request body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	status := models.EnrollmentStatus(req.Status)
	if !status.Valid() || status == models.EnrollmentEnrolled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	e, err := h.enrollments.SetStatus(c.Request.Context(), req.UserID, req.ProgramID, status, req.CompletionDate)
	if err != nil {
		switch {
		case errors.Is(err, enrollment.ErrNotEnrolled):
			c.JSON(http.StatusNotFound, gin.H{"error": "Not enrolled in program"})
		case errors.Is(err, enrollment.ErrRejected):
			c.JSON(http.StatusConflict, gin.H{"error": "Enrollment was rejected"})
		default:
			h.logger.Errorf("Enrollment status change failed for user %s program %s: %v", req.UserID, req.ProgramID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update enrollment"})
		}
		return
	}
	c.JSON(http.StatusOK, e)
}

type completeRefillsRequest struct {
	UserID  string   `json:"user_id" binding:"required"`
	DrugIDs []string `json:"drug_ids" binding:"required"`
}

func (h *Handler) CompleteRefills(c *gin.Context) {
	var req completeRefillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid complete-refills request body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	newDate, err := h.coordinator.MarkRefillsCompleted(c.Request.Context(), req.UserID, req.DrugIDs)
	if err != nil {
		h.logger.Errorf("Complete refills failed for user %s: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete refills"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"new_refill_date": newDate.Format("2006-01-02")})
}

func (h *Handler) RegisterPushSubscription(c *gin.Context) {
	var sub models.PushSubscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		h.logger.Errorf("Invalid push subscription body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if sub.UserID == "" || sub.Endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and endpoint are required"})
		return
	}

	if err := h.db.UpsertPushSubscription(c.Request.Context(), sub); err != nil {
		h.logger.Errorf("Failed to register push subscription for user %s: %v", sub.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register subscription"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "registered"})
}

func (h *Handler) DeletePushSubscriptions(c *gin.Context) {
	userID := c.Param("user_id")
	if err := h.db.DeletePushSubscriptions(c.Request.Context(), userID); err != nil {
		h.logger.Errorf("Failed to delete push subscriptions for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete subscriptions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// WebSocket upgrades the request and parks the connection in the per-user
// registry. The read loop only exists to notice the close.
func (h *Handler) WebSocket(c *gin.Context) {
	userID := c.Param("user_id")
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed for user %s: %v", userID, err)
		return
	}

	h.registry.Add(userID, conn)
	go func() {
		defer func() {
			h.registry.Remove(userID, conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
