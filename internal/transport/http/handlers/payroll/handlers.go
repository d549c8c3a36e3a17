package payrollhandler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dayflow/internal/domain/auth"
	"dayflow/internal/domain/payroll"
	"dayflow/internal/transport/http/api"
	"dayflow/internal/transport/http/middleware"
	"dayflow/internal/transport/http/shared"
)

type Handler struct {
	Service     *payroll.Service
	Perms       middleware.PermissionStore
	Audit       shared.Auditor
	Idempotency middleware.IdempotencyStore
}

func NewHandler(service *payroll.Service, perms middleware.PermissionStore, auditSvc shared.Auditor, idem middleware.IdempotencyStore) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Idempotency: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms), middleware.Idempotent(h.Idempotency)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/{payrollID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/{payrollID}/payslip", h.handlePayslip)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	filter := payroll.ListFilter{UserID: strings.TrimSpace(r.URL.Query().Get("userId"))}
	if filter.UserID != "" {
		if _, err := uuid.Parse(filter.UserID); err != nil {
			v.Add("userId", "must be a valid id")
		}
	}
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < 2000 || year > 2100 {
			v.Add("year", "must be a year between 2000 and 2100")
		}
		filter.Year = year
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	items, total, err := h.Service.List(r.Context(), user, filter, page.Limit, page.Offset)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload payroll.CreateInput
	if !shared.DecodeBody(w, r, &payload) {
		return
	}

	rec, err := h.Service.Create(r.Context(), user, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.Audit(r, h.Audit, user.UserID, "payroll.create", "payroll", rec.ID, nil, rec)
	api.Created(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id, ok := shared.PathID(w, r, "payrollID")
	if !ok {
		return
	}

	rec, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id, ok := shared.PathID(w, r, "payrollID")
	if !ok {
		return
	}

	rec, pdf, err := h.Service.Payslip(r.Context(), user, id)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	filename := fmt.Sprintf("payslip-%d-%02d.pdf", rec.Year, rec.Month)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		slog.Warn("payslip write failed", "payrollId", rec.ID, "err", err)
	}
}
