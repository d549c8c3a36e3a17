package documentshandler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dayflow/internal/domain/auth"
	"dayflow/internal/domain/documents"
	"dayflow/internal/transport/http/api"
	"dayflow/internal/transport/http/middleware"
	"dayflow/internal/transport/http/shared"
)

// base64 inflates by 4/3; leave room for the JSON around it.
const maxUploadBody = documents.MaxFileSize*4/3 + 64*1024

type Handler struct {
	Service *documents.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
}

func NewHandler(service *documents.Service, perms middleware.PermissionStore, auditSvc shared.Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermDocumentsRead, h.Perms)).Get("/employees/{employeeID}/documents", h.handleList)
	r.With(middleware.RequirePermission(auth.PermDocumentsWrite, h.Perms), middleware.BodyLimit(maxUploadBody)).Post("/employees/{employeeID}/documents", h.handleUpload)
	r.With(middleware.RequirePermission(auth.PermDocumentsRead, h.Perms)).Get("/documents/{documentID}", h.handleDownload)
	r.With(middleware.RequirePermission(auth.PermDocumentsWrite, h.Perms)).Delete("/documents/{documentID}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	ownerID, ok := shared.PathID(w, r, "employeeID")
	if !ok {
		return
	}

	docs, err := h.Service.List(r.Context(), user, ownerID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, docs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	ownerID, ok := shared.PathID(w, r, "employeeID")
	if !ok {
		return
	}
	var payload documents.UploadInput
	if !shared.DecodeBody(w, r, &payload) {
		return
	}

	doc, err := h.Service.Upload(r.Context(), user, ownerID, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.Audit(r, h.Audit, user.UserID, "document.upload", "document", doc.ID, nil, doc)
	api.Created(w, doc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id, ok := shared.PathID(w, r, "documentID")
	if !ok {
		return
	}

	doc, content, err := h.Service.Download(r.Context(), user, id)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		slog.Warn("document download write failed", "documentId", doc.ID, "err", err)
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id, ok := shared.PathID(w, r, "documentID")
	if !ok {
		return
	}

	doc, err := h.Service.Delete(r.Context(), user, id)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.Audit(r, h.Audit, user.UserID, "document.delete", "document", doc.ID, doc, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}
