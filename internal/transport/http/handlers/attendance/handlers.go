package attendancehandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dayflow/internal/domain/attendance"
	"dayflow/internal/domain/auth"
	"dayflow/internal/transport/http/api"
	"dayflow/internal/transport/http/middleware"
	"dayflow/internal/transport/http/shared"
)

type Handler struct {
	Service *attendance.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
}

func NewHandler(service *attendance.Service, perms middleware.PermissionStore, auditSvc shared.Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/today", h.handleToday)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Post("/toggle", h.handleToggle)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/users/{userID}", h.handleHistory)
		r.With(middleware.RequirePermission(auth.PermAttendanceManage, h.Perms)).Get("/daily", h.handleDaily)
		r.With(middleware.RequirePermission(auth.PermAttendanceManage, h.Perms)).Patch("/{recordID}", h.handleCorrect)
		r.With(middleware.RequirePermission(auth.PermAttendanceManage, h.Perms)).Get("/{recordID}/corrections", h.handleCorrections)
	})
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	rec, err := h.Service.Today(r.Context(), user)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	result, err := h.Service.Toggle(r.Context(), user)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	if result.Status == attendance.ToggleCheckedIn {
		api.Created(w, result, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	userID, ok := shared.PathID(w, r, "userID")
	if !ok {
		return
	}

	v := shared.NewValidator()
	from := v.OptionalDate("from", r.URL.Query().Get("from"))
	to := v.OptionalDate("to", r.URL.Query().Get("to"))
	if from != nil && to != nil {
		v.DateOrder("from", *from, "to", *to)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	records, err := h.Service.History(r.Context(), user, userID, from, to)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDaily(w http.ResponseWriter, r *http.Request) {
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

	entries, err := h.Service.Daily(r.Context(), user, date)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCorrect(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	recordID, ok := shared.PathID(w, r, "recordID")
	if !ok {
		return
	}
	var payload attendance.CorrectionPatch
	if !shared.DecodeBody(w, r, &payload) {
		return
	}

	before, rec, err := h.Service.Correct(r.Context(), user, recordID, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.Audit(r, h.Audit, user.UserID, "attendance.correct", "attendance_record", rec.ID, before, rec)
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCorrections(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	recordID, ok := shared.PathID(w, r, "recordID")
	if !ok {
		return
	}
	out, err := h.Service.Corrections(r.Context(), user, recordID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}
