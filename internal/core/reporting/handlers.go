package reporting

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/server"
)

// Handler exposes the reporting service over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler wires the HTTP handler for the reporting service.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the report endpoints. Callers wrap them in the auth
// middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/trial-balance", h.trialBalance)
		r.Get("/balance-sheet", h.balanceSheet)
		r.Get("/income-statement", h.incomeStatement)
		r.Get("/cash-flow", h.cashFlow)
		r.Get("/comparative", h.comparative)
		r.Get("/summary", h.summary)
	})
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

	report, err := h.svc.TrialBalance(r.Context(), identity, asOf, includeZero)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
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

	sheet, err := h.svc.BalanceSheet(r.Context(), identity, asOf)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, sheet)
}

// window parses the required period_start/period_end query pair.
func window(r *http.Request, startName, endName string) (time.Time, time.Time, error) {
	const op = "reporting.window"

	start, err := server.QueryDate(r, startName, time.Time{})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := server.QueryDate(r, endName, time.Time{})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, apperror.Validationf(op, "%s and %s are required", startName, endName).WithField(startName)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperror.Validationf(op, "%s must not be before %s", endName, startName).WithField(endName)
	}
	return start, end, nil
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	start, end, err := window(r, "period_start", "period_end")
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	stmt, err := h.svc.IncomeStatement(r.Context(), identity, start, end)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, stmt)
}

func (h *Handler) cashFlow(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	start, end, err := window(r, "period_start", "period_end")
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	flow, err := h.svc.CashFlow(r.Context(), identity, start, end)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, flow)
}

func (h *Handler) comparative(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	currStart, currEnd, err := window(r, "period_start", "period_end")
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	priorStart, priorEnd, err := window(r, "prior_start", "prior_end")
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	report, err := h.svc.Comparative(r.Context(), identity, currStart, currEnd, priorStart, priorEnd)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
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

	server.WriteJSON(w, http.StatusOK, h.svc.Summary(r.Context(), identity, asOf))
}
