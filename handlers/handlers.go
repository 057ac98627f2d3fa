package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lessonbook/middleware"
	"lessonbook/notify"
	"lessonbook/store"
)

type Handler struct {
	store    store.Store
	notifier *notify.Notifier
	log      *zap.Logger

	zone            *time.Location // operating reference zone for booking checks
	triggerKey      string
	notifyOnBooking bool

	adminSweep      sweepGuard
	studentSweep    sweepGuard
	lowBalanceSweep sweepGuard
}

type Options struct {
	OperatingZone   *time.Location
	TriggerKey      string
	NotifyOnBooking bool
}

func New(st store.Store, n *notify.Notifier, log *zap.Logger, opts Options) *Handler {
	zone := opts.OperatingZone
	if zone == nil {
		zone = time.UTC
	}
	return &Handler{
		store:           st,
		notifier:        n,
		log:             log,
		zone:            zone,
		triggerKey:      opts.TriggerKey,
		notifyOnBooking: opts.NotifyOnBooking,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/lessons", h.CreateLesson)
	api.GET("/lessons", h.ListLessons)
	api.GET("/lessons/:id", h.GetLesson)
	api.DELETE("/lessons/:id", h.DeleteLesson)
	api.POST("/lessons/:id/paid", h.SetPaid)
	api.GET("/balance/:email", h.GetBalance)

	protected := api.Group("", middleware.TriggerAuth(h.triggerKey))
	protected.POST("/lessons/:id/notifications/reset", h.ResetNotifications)
	protected.POST("/sweeps/admin", h.RunAdminSweep)
	protected.POST("/sweeps/student", h.RunStudentReminderSweep)
	protected.POST("/sweeps/low-balance", h.RunLowBalanceSweep)
}
