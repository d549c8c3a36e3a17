package leavehandler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dayflow/internal/domain/auth"
	"dayflow/internal/domain/leave"
	"dayflow/internal/transport/http/api"
	"dayflow/internal/transport/http/middleware"
	"dayflow/internal/transport/http/shared"
)

type Handler struct {
	Service     *leave.Service
	Perms       middleware.PermissionStore
	Audit       shared.Auditor
	Idempotency middleware.IdempotencyStore
}

func NewHandler(service *leave.Service, perms middleware.PermissionStore, auditSvc shared.Auditor, idem middleware.IdempotencyStore) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Idempotency: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leaves", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms), middleware.Idempotent(h.Idempotency)).Post("/", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/{requestID}", h.handleGetRequest)
		// Employees reach the workflow and are refused there, whatever the
		// request's state.
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Patch("/{requestID}", h.handleDecideRequest)
	})
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	filter := leave.ListFilter{
		UserID: strings.TrimSpace(r.URL.Query().Get("userId")),
		Status: r.URL.Query().Get("status"),
	}
	if filter.UserID != "" {
		if _, err := uuid.Parse(filter.UserID); err != nil {
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "userId", Reason: "must be a valid id"}})
			return
		}
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

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	requestID, ok := shared.PathID(w, r, "requestID")
	if !ok {
		return
	}

	rec, err := h.Service.Get(r.Context(), user, requestID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload leave.SubmitInput
	if !shared.DecodeBody(w, r, &payload) {
		return
	}

	rec, err := h.Service.Submit(r.Context(), user, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.Audit(r, h.Audit, user.UserID, "leave.submit", "leave_request", rec.ID, nil, rec)
	api.Created(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDecideRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	requestID, ok := shared.PathID(w, r, "requestID")
	if !ok {
		return
	}
	var payload leave.DecideInput
	if !shared.DecodeBody(w, r, &payload) {
		return
	}

	rec, err := h.Service.Decide(r.Context(), user, requestID, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.Audit(r, h.Audit, user.UserID, "leave."+strings.ToLower(rec.Status), "leave_request", rec.ID, map[string]string{"status": leave.StatusPending}, rec)
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}
