package employeeshandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dayflow/internal/domain/auth"
	"dayflow/internal/domain/employees"
	"dayflow/internal/transport/http/api"
	"dayflow/internal/transport/http/middleware"
	"dayflow/internal/transport/http/shared"
)

type Handler struct {
	Service *employees.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
}

func NewHandler(service *employees.Service, perms middleware.PermissionStore, auditSvc shared.Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

// RegisterRoutes uses flat paths so the documents handler can share the
// /employees/{employeeID} prefix.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/employees", h.handleList)
	r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/employees", h.handleCreate)
	r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/employees/{employeeID}", h.handleGet)
	r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Patch("/employees/{employeeID}", h.handleUpdate)
	r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/employees/{employeeID}/status", h.handleSetStatus)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	q := r.URL.Query()
	filter := employees.ListFilter{
		Search:     q.Get("search"),
		Department: q.Get("department"),
		Status:     q.Get("status"),
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
	var payload employees.CreateInput
	if !shared.DecodeBody(w, r, &payload) {
		return
	}

	emp, err := h.Service.Create(r.Context(), user, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.Audit(r, h.Audit, user.UserID, "employee.create", "user", emp.ID, nil, emp)
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id, ok := shared.PathID(w, r, "employeeID")
	if !ok {
		return
	}

	emp, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id, ok := shared.PathID(w, r, "employeeID")
	if !ok {
		return
	}
	var payload employees.UpdateInput
	if !shared.DecodeBody(w, r, &payload) {
		return
	}

	before, after, err := h.Service.Update(r.Context(), user, id, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	before.Redact()
	redacted := after
	redacted.Redact()
	shared.Audit(r, h.Audit, user.UserID, "employee.update", "user", id, before, redacted)
	api.Success(w, after, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id, ok := shared.PathID(w, r, "employeeID")
	if !ok {
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if !shared.DecodeBody(w, r, &payload) {
		return
	}

	emp, err := h.Service.SetStatus(r.Context(), user, id, payload.Status)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.Audit(r, h.Audit, user.UserID, "employee.status", "user", id, nil, map[string]string{"status": emp.Status})
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}
