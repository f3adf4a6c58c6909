package tax

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/server"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// Handler exposes the tax service over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler wires the HTTP handler for the tax service.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the tax endpoints on the router. Callers wrap them in
// the auth middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/tax-configurations", func(r chi.Router) {
		r.Get("/", h.listConfigurations)
		r.Post("/", h.createConfiguration)
		r.Put("/{id}", h.updateConfiguration)
		r.Delete("/{id}", h.deleteConfiguration)
	})
	r.Post("/tax-calculations", h.calculate)
	r.Route("/tax-transactions", func(r chi.Router) {
		r.Get("/", h.listTransactions)
		r.Post("/", h.recordTransaction)
	})
	r.Get("/tax-report", h.report)
}

func (h *Handler) createConfiguration(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in ConfigurationInput
	if err := server.DecodeValid(r, &in); err != nil {
		server.WriteError(w, r, err)
		return
	}

	cfg, err := h.svc.CreateConfiguration(r.Context(), identity, in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, cfg)
}

func (h *Handler) listConfigurations(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	configs, err := h.svc.ListConfigurations(r.Context(), identity.CompanyID)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]interface{}{"tax_configurations": configs})
}

func (h *Handler) updateConfiguration(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in ConfigurationInput
	if err := server.DecodeValid(r, &in); err != nil {
		server.WriteError(w, r, err)
		return
	}

	cfg, err := h.svc.UpdateConfiguration(r.Context(), identity, chi.URLParam(r, "id"), in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) deleteConfiguration(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	if err := h.svc.DeleteConfiguration(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		server.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var req CalculationRequest
	if err := server.DecodeValid(r, &req); err != nil {
		server.WriteError(w, r, err)
		return
	}

	result, err := h.svc.Calculate(r.Context(), identity.CompanyID, req)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) recordTransaction(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in TransactionInput
	if err := server.DecodeValid(r, &in); err != nil {
		server.WriteError(w, r, err)
		return
	}

	txn, err := h.svc.RecordTransaction(r.Context(), identity, in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, txn)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	filter := storage.TaxTransactionFilter{}
	if v := r.URL.Query().Get("tax_type"); v != "" {
		t := storage.TaxType(v)
		filter.TaxType = &t
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

	txns, err := h.svc.ListTransactions(r.Context(), identity.CompanyID, filter)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]interface{}{"tax_transactions": txns})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	start, err := server.QueryDate(r, "period_start", time.Time{})
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	end, err := server.QueryDate(r, "period_end", time.Time{})
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	if start.IsZero() || end.IsZero() {
		server.WriteError(w, r, apperror.Validation("tax.report", "period_start and period_end are required").WithField("period_start"))
		return
	}

	report, err := h.svc.BuildReport(r.Context(), identity.CompanyID, r.URL.Query().Get("tax_type"), start, end)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, report)
}
