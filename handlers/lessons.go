package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lessonbook/models"
	"lessonbook/notify"
	"lessonbook/store"
)

func (h *Handler) CreateLesson(c *gin.Context) {
	var req struct {
		Title           string    `json:"title"`
		Start           time.Time `json:"start"`
		DurationMinutes int       `json:"duration_minutes"`
		OwnerEmail      string    `json:"owner_email"`
		OwnerName       string    `json:"owner_name"`
		Timezone        string    `json:"timezone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if req.OwnerEmail == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_email is required"})
		return
	}
	if req.Start.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start is required"})
		return
	}
	if !models.ValidDuration(req.DurationMinutes) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration_minutes must be one of 45, 60, 90"})
		return
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown timezone"})
			return
		}
	}
	if err := notify.CheckBookable(req.Start, h.zone); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	end, err := notify.ComputeEnd(req.Start, req.DurationMinutes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Title == "" {
		req.Title = "Lesson"
	}
	if req.OwnerName == "" {
		req.OwnerName = req.OwnerEmail
	}

	ctx := c.Request.Context()
	if err := h.store.EnsureUser(ctx, req.OwnerEmail); err != nil {
		h.log.Error("ensure user failed", zap.String("owner", req.OwnerEmail), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	lesson, err := h.store.CreateLesson(ctx, models.Lesson{
		Title:           req.Title,
		OwnerEmail:      req.OwnerEmail,
		OwnerName:       req.OwnerName,
		Start:           req.Start.UTC(),
		End:             end.UTC(),
		DurationMinutes: req.DurationMinutes,
		Timezone:        req.Timezone,
	})
	if errors.Is(err, store.ErrSlotTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "Slot already booked"})
		return
	}
	if err != nil {
		h.log.Error("create lesson failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create lesson"})
		return
	}

	// Let the admin hear about the booking right away; the periodic sweep is
	// the safety net if this race is lost or skipped.
	if h.notifyOnBooking {
		go func() {
			_, ran, err := h.TriggerAdminSweep(context.Background())
			if err != nil {
				h.log.Error("post-booking admin sweep failed", zap.Error(err))
			} else if !ran {
				h.log.Warn("post-booking admin sweep skipped, previous run still in flight",
					zap.String("lesson_id", lesson.ID))
			}
		}()
	}

	c.JSON(http.StatusCreated, lesson)
}

func (h *Handler) ListLessons(c *gin.Context) {
	lessons, err := h.store.ListLessons(c.Request.Context(), store.LessonFilter{
		OwnerEmail:   c.Query("owner"),
		OrderByStart: true,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	c.JSON(http.StatusOK, gin.H{"lessons": lessons})
}

func (h *Handler) GetLesson(c *gin.Context) {
	lesson, err := h.store.LessonByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, lesson)
}

func (h *Handler) DeleteLesson(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	lesson, err := h.store.LessonByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !lesson.Start.After(time.Now()) {
		c.JSON(http.StatusConflict, gin.H{"error": "Cannot delete a lesson that has already started"})
		return
	}

	if err := h.store.DeleteLesson(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lesson deleted"})
}

func (h *Handler) SetPaid(c *gin.Context) {
	var req struct {
		Paid *bool `json:"paid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Paid == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paid is required"})
		return
	}

	err := h.store.SetPaid(c.Request.Context(), c.Param("id"), *req.Paid)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated"})
}

// ResetNotifications is the one administrative way to rewind notified flags,
// e.g. to re-announce a rescheduled lesson. The sweeps themselves never do
// this.
func (h *Handler) ResetNotifications(c *gin.Context) {
	err := h.store.ResetNotified(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification flags reset"})
}

func (h *Handler) GetBalance(c *gin.Context) {
	email := c.Param("email")

	lessons, err := h.store.ListLessons(c.Request.Context(), store.LessonFilter{OwnerEmail: email})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	now := time.Now().UTC()
	upcoming := notify.Upcoming(lessons, email, now)
	if upcoming == nil {
		upcoming = []models.Lesson{}
	}

	c.JSON(http.StatusOK, gin.H{
		"email":    email,
		"paid":     notify.PaidCount(lessons, email, now),
		"pending":  notify.PendingCount(lessons, email),
		"upcoming": upcoming,
	})
}
