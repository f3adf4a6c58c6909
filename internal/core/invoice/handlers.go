package invoice

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/server"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// Handler exposes one side of the AP/AR engine over HTTP. The route
// prefixes follow the service kind: /vendors and /vendor-invoices for
// payables, /customers and /customer-invoices for receivables.
type Handler struct {
	svc *Service
}

// NewHandler wires the HTTP handler for the payables or receivables
// service.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the party and invoice endpoints. Callers wrap them in
// the auth middleware.
func (h *Handler) Routes(r chi.Router) {
	parties, invoices := "/vendors", "/vendor-invoices"
	if h.svc.kind == storage.KindCustomer {
		parties, invoices = "/customers", "/customer-invoices"
	}

	r.Route(parties, func(r chi.Router) {
		r.Get("/", h.listParties)
		r.Post("/", h.createParty)
		r.Get("/{id}", h.getParty)
		r.Put("/{id}", h.updateParty)
	})

	r.Route(invoices, func(r chi.Router) {
		r.Get("/", h.listInvoices)
		r.Post("/", h.createInvoice)
		r.Get("/aging", h.aging)
		r.Get("/{id}", h.getInvoice)
		r.Put("/{id}/approve", h.approve)
		r.Put("/{id}/pay", h.pay)
		r.Put("/{id}/cancel", h.cancel)
		r.Post("/{id}/reverse-payment", h.reversePayment)
		r.Get("/{id}/payments", h.listPayments)
	})

	r.Get("/aging-report", h.aging)
}

func (h *Handler) createParty(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in PartyInput
	if err := server.DecodeValid(r, &in); err != nil {
		server.WriteError(w, r, err)
		return
	}

	party, err := h.svc.CreateParty(r.Context(), identity, in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, party)
}

func (h *Handler) getParty(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	party, err := h.svc.GetParty(r.Context(), identity.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, party)
}

func (h *Handler) listParties(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	filter := storage.PartyFilter{Search: r.URL.Query().Get("search")}
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

	parties, err := h.svc.ListParties(r.Context(), identity.CompanyID, filter)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]interface{}{h.svc.noun() + "s": parties})
}

func (h *Handler) updateParty(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in PartyUpdateInput
	if err := server.DecodeValid(r, &in); err != nil {
		server.WriteError(w, r, err)
		return
	}

	party, err := h.svc.UpdateParty(r.Context(), identity, chi.URLParam(r, "id"), in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, party)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in InvoiceInput
	if err := server.DecodeValid(r, &in); err != nil {
		server.WriteError(w, r, err)
		return
	}

	inv, err := h.svc.CreateInvoice(r.Context(), identity, in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, inv)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	inv, err := h.svc.GetInvoice(r.Context(), identity.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, inv)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	filter := storage.InvoiceFilter{PartyID: r.URL.Query().Get("party_id")}
	if v := r.URL.Query().Get("status"); v != "" {
		status := storage.InvoiceStatus(v)
		filter.Status = &status
	}
	if filter.Limit, err = server.QueryInt(r, "limit", 0); err != nil {
		server.WriteError(w, r, err)
		return
	}
	if filter.Offset, err = server.QueryInt(r, "offset", 0); err != nil {
		server.WriteError(w, r, err)
		return
	}

	invoices, err := h.svc.ListInvoices(r.Context(), identity.CompanyID, filter)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]interface{}{"invoices": invoices})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in ApproveInput
	if r.ContentLength > 0 {
		if err := server.DecodeJSON(r, &in); err != nil {
			server.WriteError(w, r, err)
			return
		}
	}

	inv, err := h.svc.Approve(r.Context(), identity, chi.URLParam(r, "id"), in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, inv)
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in PaymentInput
	if err := server.DecodeValid(r, &in); err != nil {
		server.WriteError(w, r, err)
		return
	}

	inv, err := h.svc.Pay(r.Context(), identity, chi.URLParam(r, "id"), in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, inv)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	inv, err := h.svc.Cancel(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, inv)
}

func (h *Handler) reversePayment(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	var in ReversePaymentInput
	if r.ContentLength > 0 {
		if err := server.DecodeJSON(r, &in); err != nil {
			server.WriteError(w, r, err)
			return
		}
	}

	inv, err := h.svc.ReversePayment(r.Context(), identity, chi.URLParam(r, "id"), in)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, inv)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.MustIdentity(r.Context())
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	payments, err := h.svc.ListPayments(r.Context(), identity.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
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

	report, err := h.svc.Aging(r.Context(), identity, asOf)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, report)
}
