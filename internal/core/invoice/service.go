// Package invoice implements the accounts payable and receivable
// engine. One Service instance handles one side of the ledger: the
// payables service runs it with KindVendor, the receivables service
// with KindCustomer.
package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/money"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// StatusOverdue is the derived display status for customer invoices
// past their due date. It is never stored.
const StatusOverdue storage.InvoiceStatus = "OVERDUE"

// Service implements party management, the invoice lifecycle, payments
// and the aging report for one invoice kind.
type Service struct {
	store    storage.Manager
	kind     storage.InvoiceKind
	journals Journals
	log      zerolog.Logger

	now func() time.Time
}

// NewService wires the AP/AR engine. journals may be nil, which
// disables automatic journal entries.
func NewService(store storage.Manager, kind storage.InvoiceKind, journals Journals, log zerolog.Logger) *Service {
	return &Service{store: store, kind: kind, journals: journals, log: log, now: time.Now}
}

// noun names the party side for errors, audit records and logs.
func (s *Service) noun() string {
	if s.kind == storage.KindCustomer {
		return "customer"
	}
	return "vendor"
}

// PartyInput creates a vendor or customer.
type PartyInput struct {
	Code        string           `json:"code" validate:"required,max=20"`
	Name        string           `json:"name" validate:"required,max=255"`
	NPWP        string           `json:"npwp,omitempty"`
	Email       string           `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string           `json:"phone,omitempty"`
	Address     string           `json:"address,omitempty"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
}

// CreateParty registers a new vendor or customer. Codes are unique per
// company.
func (s *Service) CreateParty(ctx context.Context, identity auth.Identity, in PartyInput) (*storage.Party, error) {
	op := s.noun() + ".create"

	party := &storage.Party{
		ID:        uuid.NewString(),
		CompanyID: identity.CompanyID,
		Code:      in.Code,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
		Active:    true,
		CreatedAt: s.now().UTC(),
	}

	if in.NPWP != "" {
		normalized := money.NormalizeNPWP(in.NPWP)
		if !money.ValidNPWP(normalized) {
			return nil, apperror.Validation(op, "npwp must be 15 digits").WithField("npwp")
		}
		party.NPWP = normalized
	}
	if in.Phone != "" && !money.ValidPhone(in.Phone) {
		return nil, apperror.Validation(op, "phone is not a valid Indonesian number").WithField("phone")
	}
	if in.CreditLimit != nil {
		if s.kind != storage.KindCustomer {
			return nil, apperror.Validation(op, "credit_limit applies to customers only").WithField("credit_limit")
		}
		if in.CreditLimit.Sign() < 0 {
			return nil, apperror.Validation(op, "credit_limit must not be negative").WithField("credit_limit")
		}
		party.CreditLimit = decimal.NewNullDecimal(*in.CreditLimit)
	}

	err := s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Invoices().CreateParty(ctx, s.kind, party); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, s.noun()+".create", s.noun(), party.ID,
			fmt.Sprintf("%s %s created", party.Code, party.Name)))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company_id", party.CompanyID).Str("code", party.Code).Msgf("%s created", s.noun())
	return party, nil
}

// GetParty loads one vendor or customer.
func (s *Service) GetParty(ctx context.Context, companyID, id string) (*storage.Party, error) {
	return s.store.Invoices().GetParty(ctx, s.kind, companyID, id)
}

// ListParties lists the company's vendors or customers.
func (s *Service) ListParties(ctx context.Context, companyID string, filter storage.PartyFilter) ([]*storage.Party, error) {
	return s.store.Invoices().ListParties(ctx, s.kind, companyID, filter)
}

// PartyUpdateInput carries the mutable party fields. Code is fixed at
// creation.
type PartyUpdateInput struct {
	Name        *string          `json:"name,omitempty"`
	Email       *string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string          `json:"phone,omitempty"`
	Address     *string          `json:"address,omitempty"`
	Active      *bool            `json:"active,omitempty"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
}

// UpdateParty changes the mutable fields of a vendor or customer.
func (s *Service) UpdateParty(ctx context.Context, identity auth.Identity, id string, in PartyUpdateInput) (*storage.Party, error) {
	op := s.noun() + ".update"

	party, err := s.store.Invoices().GetParty(ctx, s.kind, identity.CompanyID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperror.Validation(op, "name must not be empty").WithField("name")
		}
		party.Name = *in.Name
	}
	if in.Email != nil {
		party.Email = *in.Email
	}
	if in.Phone != nil {
		if *in.Phone != "" && !money.ValidPhone(*in.Phone) {
			return nil, apperror.Validation(op, "phone is not a valid Indonesian number").WithField("phone")
		}
		party.Phone = *in.Phone
	}
	if in.Address != nil {
		party.Address = *in.Address
	}
	if in.Active != nil {
		party.Active = *in.Active
	}
	if in.CreditLimit != nil {
		if s.kind != storage.KindCustomer {
			return nil, apperror.Validation(op, "credit_limit applies to customers only").WithField("credit_limit")
		}
		party.CreditLimit = decimal.NewNullDecimal(*in.CreditLimit)
	}

	if err := s.store.Invoices().UpdateParty(ctx, s.kind, party); err != nil {
		return nil, err
	}
	return party, nil
}

// InvoiceInput creates an invoice.
type InvoiceInput struct {
	PartyID       string          `json:"party_id" validate:"required"`
	InvoiceNumber string          `json:"invoice_number" validate:"required,max=50"`
	InvoiceDate   string          `json:"invoice_date" validate:"required"`
	DueDate       string          `json:"due_date" validate:"required"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Description   string          `json:"description,omitempty"`
}

// View is an invoice enriched with its derived fields. Customer
// invoices past due show the OVERDUE display status.
type View struct {
	storage.Invoice
	OutstandingAmount decimal.Decimal       `json:"outstanding_amount"`
	DisplayStatus     storage.InvoiceStatus `json:"display_status"`
}

func (s *Service) view(inv *storage.Invoice) *View {
	v := &View{Invoice: *inv, OutstandingAmount: inv.Outstanding(), DisplayStatus: inv.Status}
	if s.kind == storage.KindCustomer &&
		inv.Status != storage.InvoicePaid && inv.Status != storage.InvoiceCancelled &&
		inv.DueDate.Before(dateOf(s.now().UTC())) {
		v.DisplayStatus = StatusOverdue
	}
	return v
}

// CreateInvoice records a new invoice in DRAFT. Invoice numbers are
// unique per (company, party).
func (s *Service) CreateInvoice(ctx context.Context, identity auth.Identity, in InvoiceInput) (*View, error) {
	op := s.noun() + "_invoice.create"

	invoiceDate, err := parseDate(op, "invoice_date", in.InvoiceDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseDate(op, "due_date", in.DueDate)
	if err != nil {
		return nil, err
	}
	if dueDate.Before(invoiceDate) {
		return nil, apperror.Validation(op, "due_date must not be before invoice_date").WithField("due_date")
	}
	if in.Subtotal.Sign() < 0 {
		return nil, apperror.Validation(op, "subtotal must not be negative").WithField("subtotal")
	}
	if in.TaxAmount.Sign() < 0 {
		return nil, apperror.Validation(op, "tax_amount must not be negative").WithField("tax_amount")
	}

	party, err := s.store.Invoices().GetParty(ctx, s.kind, identity.CompanyID, in.PartyID)
	if err != nil {
		return nil, err
	}
	if !party.Active {
		return nil, apperror.Validationf(op, "%s %s is inactive", s.noun(), party.Code).WithField("party_id")
	}

	subtotal := money.Round2(in.Subtotal)
	tax := money.Round2(in.TaxAmount)
	inv := &storage.Invoice{
		ID:            uuid.NewString(),
		CompanyID:     identity.CompanyID,
		PartyID:       party.ID,
		InvoiceNumber: in.InvoiceNumber,
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
		Subtotal:      subtotal,
		TaxAmount:     tax,
		TotalAmount:   subtotal.Add(tax),
		PaidAmount:    decimal.Zero,
		Status:        storage.InvoiceDraft,
		Description:   in.Description,
		CreatedAt:     s.now().UTC(),
		UpdatedAt:     s.now().UTC(),
	}

	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Invoices().CreateInvoice(ctx, s.kind, inv); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, s.noun()+"_invoice.create", s.noun()+"_invoice", inv.ID,
			fmt.Sprintf("%s for %s, total %s", inv.InvoiceNumber, party.Code, money.FormatIDR(inv.TotalAmount))))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company_id", inv.CompanyID).Str("invoice_number", inv.InvoiceNumber).
		Str("total", inv.TotalAmount.String()).Msgf("%s invoice created", s.noun())
	return s.view(inv), nil
}

// GetInvoice loads one invoice.
func (s *Service) GetInvoice(ctx context.Context, companyID, id string) (*View, error) {
	inv, err := s.store.Invoices().GetInvoice(ctx, s.kind, companyID, id, false)
	if err != nil {
		return nil, err
	}
	return s.view(inv), nil
}

// ListInvoices lists the company's invoices.
func (s *Service) ListInvoices(ctx context.Context, companyID string, filter storage.InvoiceFilter) ([]*View, error) {
	invoices, err := s.store.Invoices().ListInvoices(ctx, s.kind, companyID, filter)
	if err != nil {
		return nil, err
	}
	views := make([]*View, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, s.view(inv))
	}
	return views, nil
}

// ApproveInput controls invoice approval.
type ApproveInput struct {
	// CreateJournalEntry asks for a linked draft journal entry in the
	// general ledger.
	CreateJournalEntry bool `json:"create_journal_entry"`
	// ContraAccountCode overrides the expense (payables) or revenue
	// (receivables) account of the automatic entry.
	ContraAccountCode string `json:"contra_account_code,omitempty"`
}

// Approve moves a DRAFT invoice to APPROVED, optionally creating the
// linked journal entry.
func (s *Service) Approve(ctx context.Context, identity auth.Identity, id string, in ApproveInput) (*View, error) {
	op := s.noun() + "_invoice.approve"

	inv, err := s.store.Invoices().GetInvoice(ctx, s.kind, identity.CompanyID, id, false)
	if err != nil {
		return nil, err
	}
	if inv.Status != storage.InvoiceDraft {
		return nil, apperror.Conflictf(op, "invalid status transition %s -> %s", inv.Status, storage.InvoiceApproved)
	}

	if in.CreateJournalEntry {
		if s.journals == nil {
			return nil, apperror.Dependency(op, "ledger", nil)
		}
		entryID, err := s.journals.CreateEntry(ctx, identity, s.approvalEntry(inv, in.ContraAccountCode))
		if err != nil {
			return nil, err
		}
		inv.JournalEntryID = &entryID
	}

	inv.Status = storage.InvoiceApproved
	inv.UpdatedAt = s.now().UTC()

	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Invoices().UpdateInvoice(ctx, s.kind, inv); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, s.noun()+"_invoice.approve", s.noun()+"_invoice", inv.ID,
			fmt.Sprintf("%s approved", inv.InvoiceNumber)))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company_id", inv.CompanyID).Str("invoice_number", inv.InvoiceNumber).
		Msgf("%s invoice approved", s.noun())
	return s.view(inv), nil
}

// approvalEntry builds the journal entry request for an approved
// invoice. Payables: debit expense and input VAT, credit accounts
// payable. Receivables: debit accounts receivable, credit revenue and
// output VAT.
func (s *Service) approvalEntry(inv *storage.Invoice, contraCode string) EntryRequest {
	date := inv.InvoiceDate.Format("2006-01-02")
	description := fmt.Sprintf("%s invoice %s", s.noun(), inv.InvoiceNumber)

	if s.kind == storage.KindVendor {
		if contraCode == "" {
			contraCode = codeOtherExpense
		}
		lines := []EntryLine{
			{AccountCode: contraCode, DebitAmount: inv.Subtotal},
		}
		if inv.TaxAmount.Sign() > 0 {
			lines = append(lines, EntryLine{AccountCode: codeVATIn, DebitAmount: inv.TaxAmount})
		}
		lines = append(lines, EntryLine{AccountCode: codeAccountsPayable, CreditAmount: inv.TotalAmount})
		return EntryRequest{EntryDate: date, Description: description, Reference: inv.InvoiceNumber, Lines: lines}
	}

	if contraCode == "" {
		contraCode = codeSalesRevenue
	}
	lines := []EntryLine{
		{AccountCode: codeAccountsReceivable, DebitAmount: inv.TotalAmount},
		{AccountCode: contraCode, CreditAmount: inv.Subtotal},
	}
	if inv.TaxAmount.Sign() > 0 {
		lines = append(lines, EntryLine{AccountCode: codeVATOut, CreditAmount: inv.TaxAmount})
	}
	return EntryRequest{EntryDate: date, Description: description, Reference: inv.InvoiceNumber, Lines: lines}
}

// Cancel voids a DRAFT or APPROVED invoice.
func (s *Service) Cancel(ctx context.Context, identity auth.Identity, id string) (*View, error) {
	op := s.noun() + "_invoice.cancel"

	inv, err := s.store.Invoices().GetInvoice(ctx, s.kind, identity.CompanyID, id, false)
	if err != nil {
		return nil, err
	}
	if inv.Status != storage.InvoiceDraft && inv.Status != storage.InvoiceApproved {
		return nil, apperror.Conflictf(op, "invalid status transition %s -> %s", inv.Status, storage.InvoiceCancelled)
	}

	inv.Status = storage.InvoiceCancelled
	inv.UpdatedAt = s.now().UTC()

	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Invoices().UpdateInvoice(ctx, s.kind, inv); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, s.noun()+"_invoice.cancel", s.noun()+"_invoice", inv.ID,
			fmt.Sprintf("%s cancelled", inv.InvoiceNumber)))
	})
	if err != nil {
		return nil, err
	}
	return s.view(inv), nil
}

// PaymentInput applies money against an invoice.
type PaymentInput struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date" validate:"required"`
	Method      string          `json:"method" validate:"required,max=50"`
	Reference   string          `json:"reference,omitempty"`
	// CreateJournalEntry asks for a draft cash-movement entry in the
	// general ledger.
	CreateJournalEntry bool `json:"create_journal_entry"`
}

// Pay applies a payment. The invoice row is locked for the transaction
// so concurrent payments serialize; overpayment is a conflict.
func (s *Service) Pay(ctx context.Context, identity auth.Identity, id string, in PaymentInput) (*View, error) {
	op := s.noun() + "_invoice.pay"

	if in.Amount.Sign() <= 0 {
		return nil, apperror.Validation(op, "amount must be positive").WithField("amount")
	}
	paymentDate, err := parseDate(op, "payment_date", in.PaymentDate)
	if err != nil {
		return nil, err
	}

	amount := money.Round2(in.Amount)
	var inv *storage.Invoice
	payment := &storage.Payment{
		ID:          uuid.NewString(),
		InvoiceKind: s.kind,
		InvoiceID:   id,
		Amount:      amount,
		PaymentDate: paymentDate,
		Method:      in.Method,
		Reference:   in.Reference,
		CreatedBy:   identity.UserID,
		CreatedAt:   s.now().UTC(),
	}

	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		inv, err = tx.Invoices().GetInvoice(ctx, s.kind, identity.CompanyID, id, true)
		if err != nil {
			return err
		}
		switch inv.Status {
		case storage.InvoiceApproved, storage.InvoicePartiallyPaid:
		default:
			return apperror.Conflictf(op, "invoice in status %s cannot receive payments", inv.Status)
		}
		if amount.GreaterThan(inv.Outstanding()) {
			return apperror.Conflictf(op, "payment %s exceeds outstanding amount %s", amount, inv.Outstanding())
		}

		if err := tx.Invoices().InsertPayment(ctx, payment); err != nil {
			return err
		}
		inv.PaidAmount = inv.PaidAmount.Add(amount)
		if inv.PaidAmount.Equal(inv.TotalAmount) {
			inv.Status = storage.InvoicePaid
		} else {
			inv.Status = storage.InvoicePartiallyPaid
		}
		inv.UpdatedAt = s.now().UTC()
		if err := tx.Invoices().UpdateInvoice(ctx, s.kind, inv); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, s.noun()+"_invoice.pay", s.noun()+"_invoice", inv.ID,
			fmt.Sprintf("payment %s against %s, paid %s of %s", money.FormatIDR(amount), inv.InvoiceNumber,
				inv.PaidAmount, inv.TotalAmount)))
	})
	if err != nil {
		return nil, err
	}

	if in.CreateJournalEntry && s.journals != nil {
		// The payment is already committed; a ledger failure here is
		// logged and the entry is left to be made manually.
		if _, err := s.journals.CreateEntry(ctx, identity, s.paymentEntry(inv, payment)); err != nil {
			s.log.Error().Err(err).Str("invoice_id", inv.ID).Str("payment_id", payment.ID).
				Msg("payment journal entry failed")
		}
	}

	s.log.Info().Str("company_id", inv.CompanyID).Str("invoice_number", inv.InvoiceNumber).
		Str("amount", amount.String()).Str("status", string(inv.Status)).Msg("payment applied")
	return s.view(inv), nil
}

// paymentEntry builds the cash-movement entry. Payables: debit accounts
// payable, credit cash. Receivables: debit cash, credit accounts
// receivable.
func (s *Service) paymentEntry(inv *storage.Invoice, p *storage.Payment) EntryRequest {
	description := fmt.Sprintf("payment for %s invoice %s", s.noun(), inv.InvoiceNumber)
	lines := []EntryLine{
		{AccountCode: codeAccountsPayable, DebitAmount: p.Amount},
		{AccountCode: codeCash, CreditAmount: p.Amount},
	}
	if s.kind == storage.KindCustomer {
		lines = []EntryLine{
			{AccountCode: codeCash, DebitAmount: p.Amount},
			{AccountCode: codeAccountsReceivable, CreditAmount: p.Amount},
		}
	}
	return EntryRequest{
		EntryDate:   p.PaymentDate.Format("2006-01-02"),
		Description: description,
		Reference:   p.Reference,
		Lines:       lines,
	}
}

// ReversePaymentInput selects the payment to reverse. When PaymentID is
// empty the most recent payment is assumed.
type ReversePaymentInput struct {
	PaymentID string `json:"payment_id,omitempty"`
}

// ReversePayment undoes the most recent non-reversed payment of an
// invoice and reverts the invoice status accordingly.
func (s *Service) ReversePayment(ctx context.Context, identity auth.Identity, id string, in ReversePaymentInput) (*View, error) {
	op := s.noun() + "_invoice.reverse_payment"

	var inv *storage.Invoice
	err := s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		var err error
		inv, err = tx.Invoices().GetInvoice(ctx, s.kind, identity.CompanyID, id, true)
		if err != nil {
			return err
		}

		latest, err := tx.Invoices().LatestActivePayment(ctx, inv.ID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.Conflict(op, "invoice has no payments to reverse")
			}
			return err
		}
		if in.PaymentID != "" && in.PaymentID != latest.ID {
			return apperror.Conflict(op, "only the most recent payment can be reversed")
		}

		if err := tx.Invoices().MarkPaymentReversed(ctx, latest.ID); err != nil {
			return err
		}
		inv.PaidAmount = inv.PaidAmount.Sub(latest.Amount)
		switch {
		case inv.PaidAmount.Sign() == 0:
			inv.Status = storage.InvoiceApproved
		case inv.PaidAmount.LessThan(inv.TotalAmount):
			inv.Status = storage.InvoicePartiallyPaid
		default:
			inv.Status = storage.InvoicePaid
		}
		inv.UpdatedAt = s.now().UTC()
		if err := tx.Invoices().UpdateInvoice(ctx, s.kind, inv); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, s.noun()+"_invoice.reverse_payment", s.noun()+"_invoice", inv.ID,
			fmt.Sprintf("payment %s of %s reversed", latest.ID, money.FormatIDR(latest.Amount))))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company_id", inv.CompanyID).Str("invoice_number", inv.InvoiceNumber).
		Str("status", string(inv.Status)).Msg("payment reversed")
	return s.view(inv), nil
}

// ListPayments returns all payments of an invoice, reversed ones
// included.
func (s *Service) ListPayments(ctx context.Context, companyID, id string) ([]*storage.Payment, error) {
	// Ownership check before listing.
	if _, err := s.store.Invoices().GetInvoice(ctx, s.kind, companyID, id, false); err != nil {
		return nil, err
	}
	return s.store.Invoices().ListPayments(ctx, id)
}

func (s *Service) auditRecord(identity auth.Identity, action, entityType, entityID, details string) *storage.AuditRecord {
	return &storage.AuditRecord{
		ID:         uuid.NewString(),
		CompanyID:  identity.CompanyID,
		UserID:     identity.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  s.now().UTC(),
	}
}

func parseDate(op, field, value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, apperror.Validationf(op, "%s must be YYYY-MM-DD", field).WithField(field)
	}
	return t, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
