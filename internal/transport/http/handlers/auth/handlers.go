package authhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dayflow/internal/domain/auth"
	"dayflow/internal/domain/employees"
	"dayflow/internal/transport/http/api"
	"dayflow/internal/transport/http/middleware"
	"dayflow/internal/transport/http/shared"
)

type Handler struct {
	Service   *auth.Service
	Employees *employees.Service
	Audit     shared.Auditor
}

func NewHandler(service *auth.Service, employeesSvc *employees.Service, auditSvc shared.Auditor) *Handler {
	return &Handler{Service: service, Employees: employeesSvc, Audit: auditSvc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

// RegisterPublicRoutes mounts the endpoints reachable without a token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/signup", h.HandleSignup)
	r.Post("/auth/login", h.HandleLogin)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/me", h.HandleMe)
		r.Post("/mfa/setup", h.HandleMFASetup)
		r.Post("/mfa/enable", h.HandleMFAEnable)
		r.Post("/mfa/disable", h.HandleMFADisable)
	})
}

func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var payload employees.SignupInput
	if !shared.DecodeBody(w, r, &payload) {
		return
	}

	emp, err := h.Employees.Signup(r.Context(), payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	emp.Redact()
	shared.Audit(r, h.Audit, emp.ID, "auth.signup", "user", emp.ID, nil, emp)
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !shared.DecodeBody(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	if payload.Email == "" {
		v.Add("email", "is required")
	}
	if payload.Password == "" {
		v.Add("password", "is required")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	session, err := h.Service.Login(r.Context(), payload.Email, payload.Password, payload.MFACode)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.Audit(r, h.Audit, session.User.UserID, "auth.login", "user", session.User.UserID, nil, nil)
	api.Success(w, session, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	emp, err := h.Employees.Get(r.Context(), user, user.UserID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	emp, err := h.Employees.Lookup(r.Context(), user.UserID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}

	secret, url, err := h.Service.SetupMFA(r.Context(), user.UserID, emp.Email)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"secret": secret, "otpauthUrl": url}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.confirmMFA(w, r, true)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.confirmMFA(w, r, false)
}

func (h *Handler) confirmMFA(w http.ResponseWriter, r *http.Request, enable bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload mfaCodeRequest
	if !shared.DecodeBody(w, r, &payload) {
		return
	}
	if payload.Code == "" {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "code", Reason: "is required"}})
		return
	}

	action, status := "auth.mfa.enable", "enabled"
	var err error
	if enable {
		err = h.Service.EnableMFA(r.Context(), user.UserID, payload.Code)
	} else {
		action, status = "auth.mfa.disable", "disabled"
		err = h.Service.DisableMFA(r.Context(), user.UserID, payload.Code)
	}
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.Audit(r, h.Audit, user.UserID, action, "user", user.UserID, nil, nil)
	api.Success(w, map[string]string{"status": status}, middleware.GetRequestID(r.Context()))
}
