package systemhandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dayflow/internal/domain/attendance"
	"dayflow/internal/domain/auth"
	"dayflow/internal/platform/jobs"
	"dayflow/internal/platform/metrics"
	"dayflow/internal/transport/http/api"
	"dayflow/internal/transport/http/middleware"
	"dayflow/internal/transport/http/shared"
)

// Handler exposes operational endpoints for admins: the request metrics
// snapshot and a manual trigger for the absence sweep.
type Handler struct {
	Metrics    *metrics.Collector
	Jobs       *jobs.Service
	Attendance *attendance.Service
	Perms      middleware.PermissionStore
	Audit      shared.Auditor
}

func NewHandler(collector *metrics.Collector, jobsSvc *jobs.Service, attendanceSvc *attendance.Service, perms middleware.PermissionStore, auditSvc shared.Auditor) *Handler {
	return &Handler{Metrics: collector, Jobs: jobsSvc, Attendance: attendanceSvc, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/metrics", h.handleMetrics)
	r.With(middleware.RequirePermission(auth.PermAttendanceManage, h.Perms)).Post("/jobs/absence-sweep", h.handleAbsenceSweep)
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
}

// handleAbsenceSweep runs the sweep now. ?date=YYYY-MM-DD picks the day;
// the default is yesterday, same as the scheduled run.
func (h *Handler) handleAbsenceSweep(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	date := v.OptionalDate("date", r.URL.Query().Get("date"))
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	run := func(ctx context.Context) (any, error) {
		if date == nil {
			return h.Attendance.SweepAbsences(ctx)
		}
		return h.Attendance.SweepAbsencesFor(ctx, *date)
	}
	result, err := h.Jobs.RunNow(r.Context(), jobs.JobAbsenceSweep, run)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.Audit(r, h.Audit, user.UserID, "attendance.sweep", "job", jobs.JobAbsenceSweep, nil, result)
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

// SweepJob adapts the attendance sweep to the scheduler.
func SweepJob(svc *attendance.Service) jobs.RunFunc {
	return func(ctx context.Context) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		return svc.SweepAbsences(ctx)
	}
}
