package ledger

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/server"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// Handler exposes the ledger service over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler wires the HTTP handler for the ledger service.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the ledger endpoints. Callers wrap them in the auth
// middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/journal-entries", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.updateDraft)
		r.Delete("/{id}", h.delete)
		r.Put("/{id}/status", h.updateStatus)
		r.Post("/{id}/reverse", h.reverse)
	})
	r.Get("/trial-balance", h.trialBalance)
	r.Get("/account-activity", h.accountActivity)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in EntryInput
	if err := server.DecodeValid(r, &in); err != nil {
		server.WriteError(w, r, err)
		return
	}

	entry, err := h.svc.Create(r.Context(), identity, in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	filter := storage.EntryFilter{}
	if v := r.URL.Query().Get("status"); v != "" {
		status := storage.EntryStatus(strings.ToUpper(v))
		if !status.Valid() {
			server.WriteError(w, r, apperror.Validationf("ledger.list", "unknown status %q", v).WithField("status"))
			return
		}
		filter.Status = &status
	}
	if v := r.URL.Query().Get("date_from"); v != "" {
		d, err := server.ParseDate("date_from", v)
		if err != nil {
			server.WriteError(w, r, err)
			return
		}
		filter.DateFrom = &d
	}
	if v := r.URL.Query().Get("date_to"); v != "" {
		d, err := server.ParseDate("date_to", v)
		if err != nil {
			server.WriteError(w, r, err)
			return
		}
		filter.DateTo = &d
	}
	if filter.Limit, err = server.QueryInt(r, "limit", 0); err != nil {
		server.WriteError(w, r, err)
		return
	}
	if filter.Offset, err = server.QueryInt(r, "offset", 0); err != nil {
		server.WriteError(w, r, err)
		return
	}

	entries, err := h.svc.List(r.Context(), identity.CompanyID, filter)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]interface{}{"journal_entries": entries})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	entry, err := h.svc.Get(r.Context(), identity.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in EntryInput
	if err := server.DecodeValid(r, &in); err != nil {
		server.WriteError(w, r, err)
		return
	}

	entry, err := h.svc.UpdateDraft(r.Context(), identity, chi.URLParam(r, "id"), in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, entry)
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

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	raw := r.URL.Query().Get("status")
	if raw == "" {
		server.WriteError(w, r, apperror.Validation("ledger.update_status", "status query parameter is required").WithField("status"))
		return
	}

	entry, err := h.svc.UpdateStatus(r.Context(), identity, chi.URLParam(r, "id"), storage.EntryStatus(strings.ToUpper(raw)))
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in ReverseInput
	// The body is optional.
	_ = server.DecodeJSON(r, &in)

	entry, err := h.svc.Reverse(r.Context(), identity, chi.URLParam(r, "id"), in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	asOf, err := server.QueryDate(r, "as_of_date", h.svc.now().UTC())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	includeZero := r.URL.Query().Get("include_zero") == "true"

	report, err := h.svc.TrialBalance(r.Context(), identity.CompanyID, asOf, includeZero)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) accountActivity(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	from, err := server.QueryDate(r, "date_from", time.Time{})
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	to, err := server.QueryDate(r, "date_to", time.Time{})
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	activity, err := h.svc.Activity(r.Context(), identity.CompanyID, from, to)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]interface{}{"activity": activity})
}
