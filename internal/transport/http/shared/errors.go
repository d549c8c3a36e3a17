package shared

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"dayflow/internal/domain/attendance"
	"dayflow/internal/domain/auth"
	"dayflow/internal/domain/documents"
	"dayflow/internal/domain/employees"
	"dayflow/internal/domain/leave"
	"dayflow/internal/domain/notifications"
	"dayflow/internal/domain/payroll"
	"dayflow/internal/platform/requestctx"
	"dayflow/internal/platform/validate"
	"dayflow/internal/transport/http/api"
)

type mapping struct {
	target  error
	status  int
	code    string
	message string
}

var mappings = []mapping{
	{attendance.ErrWorkdayAlreadyFinalized, http.StatusBadRequest, "workday_already_finalized", "attendance for today is already complete"},
	{leave.ErrInvalidTransition, http.StatusConflict, "invalid_transition", "leave request has already been decided"},
	{leave.ErrUnauthorized, http.StatusForbidden, "forbidden", "admin role required"},
	{documents.ErrProtected, http.StatusForbidden, "document_protected", "this document can only be deleted by an admin"},
	{employees.ErrSignupClosed, http.StatusForbidden, "signup_disabled", "self signup is disabled"},
	{auth.ErrAccountTerminated, http.StatusForbidden, "account_terminated", "account is terminated"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "invalid email or password"},
	{auth.ErrMFARequired, http.StatusUnauthorized, "mfa_required", "mfa code required"},
	{auth.ErrMFAInvalid, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code"},
	{auth.ErrMFANotSetUp, http.StatusBadRequest, "mfa_not_setup", "run mfa setup first"},
	{auth.ErrMFAUnavailable, http.StatusServiceUnavailable, "mfa_unavailable", "mfa is not available on this server"},
	{employees.ErrConflict, http.StatusConflict, "conflict", "email or employee id already registered"},
	{payroll.ErrDuplicate, http.StatusConflict, "conflict", "payroll record already exists for this month"},
	{attendance.ErrForbidden, http.StatusForbidden, "forbidden", "not allowed"},
	{leave.ErrForbidden, http.StatusForbidden, "forbidden", "not allowed"},
	{employees.ErrForbidden, http.StatusForbidden, "forbidden", "not allowed"},
	{payroll.ErrForbidden, http.StatusForbidden, "forbidden", "not allowed"},
	{documents.ErrForbidden, http.StatusForbidden, "forbidden", "not allowed"},
	{attendance.ErrNotFound, http.StatusNotFound, "not_found", "attendance record not found"},
	{leave.ErrNotFound, http.StatusNotFound, "not_found", "leave request not found"},
	{employees.ErrNotFound, http.StatusNotFound, "not_found", "employee not found"},
	{payroll.ErrNotFound, http.StatusNotFound, "not_found", "payroll record not found"},
	{payroll.ErrNoSalary, http.StatusNotFound, "not_found", "employee not found"},
	{documents.ErrNotFound, http.StatusNotFound, "not_found", "document not found"},
	{notifications.ErrNotFound, http.StatusNotFound, "not_found", "notification not found"},
}

// WriteError maps a service error onto the response envelope. Anything
// not recognised is a persistence failure: logged, reported as 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestctx.GetRequestID(r.Context())

	if verr, ok := validate.As(err); ok {
		FailValidation(w, requestID, verr.Issues)
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
		return
	}
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			api.Fail(w, m.status, m.code, m.message, requestID)
			return
		}
	}

	slog.Error("request failed", "path", r.URL.Path, "requestId", requestID, "err", err)
	api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error, please retry", requestID)
}

// DecodeBody decodes the JSON body into dst and writes the failure
// response itself. It returns false when the handler should stop.
func DecodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := api.DecodeJSON(r, dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		WriteError(w, r, err)
		return false
	}
	message := "invalid request payload"
	if errors.Is(err, api.ErrEmptyBody) {
		message = "request body is required"
	}
	api.Fail(w, http.StatusBadRequest, "invalid_payload", message, requestctx.GetRequestID(r.Context()))
	return false
}

func ClientIP(r *http.Request) string {
	if ip := requestctx.GetClientIP(r.Context()); ip != "" {
		return ip
	}
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
