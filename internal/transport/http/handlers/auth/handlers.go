package authhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"manpower/internal/domain/auth"
	"manpower/internal/transport/http/api"
	"manpower/internal/transport/http/middleware"
	"manpower/internal/transport/http/shared"
)

type SessionService interface {
	Login(ctx context.Context, email, password string) (auth.Session, error)
	Refresh(userID, tenantID, role string) (auth.Session, error)
}

type Handler struct {
	Service SessionService
}

func NewHandler(service SessionService) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.With(middleware.RequireAuth).Post("/auth/refresh", h.HandleRefresh)
	r.With(middleware.RequireAuth).Get("/auth/me", h.HandleMe)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, reqID) {
		return
	}

	session, err := h.Service.Login(r.Context(), strings.ToLower(payload.Email), payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}
	if err != nil {
		slog.Error("login failed", "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "login_failed", "login failed", reqID)
		return
	}
	api.Success(w, session, reqID)
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	session, err := h.Service.Refresh(user.UserID, user.TenantID, user.Role)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "cannot refresh session", reqID)
		return
	}
	api.Success(w, session, reqID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	api.Success(w, map[string]string{
		"userId":   user.UserID,
		"tenantId": user.TenantID,
		"role":     user.Role,
	}, middleware.GetRequestID(r.Context()))
}
