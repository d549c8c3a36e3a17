package shared

import (
	"context"
	"log/slog"
	"net/http"

	"dayflow/internal/platform/requestctx"
)

type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

// Audit records a privileged action. Failures are logged, never returned.
func Audit(r *http.Request, auditor Auditor, actorID, action, entityType, entityID string, before, after any) {
	if auditor == nil {
		return
	}
	ctx := context.WithoutCancel(r.Context())
	if err := auditor.Record(ctx, actorID, action, entityType, entityID, requestctx.GetRequestID(ctx), ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}
