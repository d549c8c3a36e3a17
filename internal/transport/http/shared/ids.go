package shared

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dayflow/internal/platform/requestctx"
	"dayflow/internal/transport/http/api"
)

// PathID reads a UUID path parameter. Malformed ids can never match a row,
// so they are answered with 404 directly.
func PathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestctx.GetRequestID(r.Context()))
		return "", false
	}
	return id.String(), true
}
