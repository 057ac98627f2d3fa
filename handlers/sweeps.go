package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lessonbook/notify"
)

// sweepGuard keeps at most one sweep of a kind in flight. The exclusion lives
// here at the trigger layer, not in the notifier: every invocation path (HTTP
// trigger, boot-time ticker, post-booking hook) funnels through the same
// guard.
type sweepGuard struct {
	mu sync.Mutex
}

func (g *sweepGuard) run(fn func()) bool {
	if !g.mu.TryLock() {
		return false
	}
	defer g.mu.Unlock()
	fn()
	return true
}

// TriggerAdminSweep runs an admin sweep unless one is already in flight. The
// second return value reports whether the sweep actually ran.
func (h *Handler) TriggerAdminSweep(ctx context.Context) (notify.SweepResult, bool, error) {
	var res notify.SweepResult
	var err error
	ran := h.adminSweep.run(func() { res, err = h.notifier.AdminSweep(ctx) })
	return res, ran, err
}

func (h *Handler) TriggerStudentReminderSweep(ctx context.Context) (notify.SweepResult, bool, error) {
	var res notify.SweepResult
	var err error
	ran := h.studentSweep.run(func() { res, err = h.notifier.StudentReminderSweep(ctx) })
	return res, ran, err
}

func (h *Handler) TriggerLowBalanceSweep(ctx context.Context) (notify.SweepResult, bool, error) {
	var res notify.SweepResult
	var err error
	ran := h.lowBalanceSweep.run(func() { res, err = h.notifier.LowBalanceSweep(ctx) })
	return res, ran, err
}

func (h *Handler) RunAdminSweep(c *gin.Context) {
	h.runSweep(c, "admin", h.TriggerAdminSweep)
}

func (h *Handler) RunStudentReminderSweep(c *gin.Context) {
	h.runSweep(c, "student", h.TriggerStudentReminderSweep)
}

func (h *Handler) RunLowBalanceSweep(c *gin.Context) {
	h.runSweep(c, "low-balance", h.TriggerLowBalanceSweep)
}

func (h *Handler) runSweep(c *gin.Context, kind string, trigger func(context.Context) (notify.SweepResult, bool, error)) {
	res, ran, err := trigger(c.Request.Context())
	if !ran {
		c.JSON(http.StatusConflict, gin.H{"error": kind + " sweep already running"})
		return
	}
	if err != nil {
		h.log.Error("sweep failed", zap.String("kind", kind), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sweep failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"processed": res.Processed,
		"notified":  res.Notified,
		"failed":    res.Failed,
	})
}
