package identity

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/server"
)

// Handler exposes the identity service over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler wires the HTTP handler for the auth service.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// PublicRoutes mounts the endpoints that work without a bearer token.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
	r.Post("/auth/refresh", h.refresh)
	r.Get("/auth/verify", h.verify)
}

// ProtectedRoutes mounts the endpoints that require a caller identity.
func (h *Handler) ProtectedRoutes(r chi.Router) {
	r.Post("/auth/logout", h.logout)
	r.Get("/auth/me", h.me)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := server.DecodeValid(r, &in); err != nil {
		server.WriteError(w, r, err)
		return
	}

	result, err := h.svc.Register(r.Context(), in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := server.DecodeValid(r, &in); err != nil {
		server.WriteError(w, r, err)
		return
	}

	result, err := h.svc.Login(r.Context(), in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var in RefreshInput
	if err := server.DecodeValid(r, &in); err != nil {
		server.WriteError(w, r, err)
		return
	}

	result, err := h.svc.Refresh(r.Context(), in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, result)
}

// verifyResponse flattens the access claims for the verify endpoint.
type verifyResponse struct {
	UserID    string    `json:"user_id"`
	CompanyID string    `json:"company_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	JTI       string    `json:"jti"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		// Fall back to the Authorization header so the gateway and
		// internal callers can reuse the endpoint.
		if bearer, ok := auth.BearerToken(r); ok {
			token = bearer
		}
	}
	if token == "" {
		server.WriteError(w, r, apperror.Unauthenticated("identity.verify", "missing token", nil))
		return
	}

	claims, err := h.svc.Verify(token)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	resp := verifyResponse{
		UserID:    claims.UserID(),
		CompanyID: claims.CompanyID,
		Email:     claims.Email,
		FullName:  claims.FullName,
		JTI:       claims.ID,
	}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	server.WriteJSON(w, http.StatusOK, resp)
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in logoutRequest
	// The body is optional; absent means revoke everything.
	_ = server.DecodeJSON(r, &in)

	if err := h.svc.Logout(r.Context(), identity.UserID, in.RefreshToken); err != nil {
		server.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	user, err := h.svc.Me(r.Context(), identity.UserID)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, user)
}
