package coa

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/server"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// Handler exposes the chart of accounts over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler wires the HTTP handler for the accounts service.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the account endpoints. Callers wrap them in the auth
// middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Post("/template", h.installTemplate)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in AccountInput
	if err := server.DecodeValid(r, &in); err != nil {
		server.WriteError(w, r, err)
		return
	}

	account, err := h.svc.Create(r.Context(), identity, in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, account)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	filter := storage.AccountFilter{Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("type"); v != "" {
		t := storage.AccountType(v)
		filter.Type = &t
	}
	if v := r.URL.Query().Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err == nil {
			filter.Active = &active
		}
	}
	if filter.Limit, err = server.QueryInt(r, "limit", 0); err != nil {
		server.WriteError(w, r, err)
		return
	}
	if filter.Offset, err = server.QueryInt(r, "offset", 0); err != nil {
		server.WriteError(w, r, err)
		return
	}

	accounts, err := h.svc.List(r.Context(), identity.CompanyID, filter)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	account, err := h.svc.Get(r.Context(), identity.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in UpdateInput
	if err := server.DecodeJSON(r, &in); err != nil {
		server.WriteError(w, r, err)
		return
	}

	account, err := h.svc.Update(r.Context(), identity, chi.URLParam(r, "id"), in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		server.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) installTemplate(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	accounts, err := h.svc.InstallTemplate(r.Context(), identity)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, map[string]interface{}{"accounts": accounts})
}
