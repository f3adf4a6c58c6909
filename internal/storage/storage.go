// Package storage defines the persistent entities and repository
// interfaces shared by the services. Implementations live in the postgres
// subpackage; an in-memory implementation for tests lives in memory.
package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the chart-of-accounts taxonomy.
type AccountType string

const (
	AccountAsset     AccountType = "ASSET"
	AccountLiability AccountType = "LIABILITY"
	AccountEquity    AccountType = "EQUITY"
	AccountRevenue   AccountType = "REVENUE"
	AccountExpense   AccountType = "EXPENSE"
)

// Valid reports whether the type belongs to the allowed set.
func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountRevenue, AccountExpense:
		return true
	}
	return false
}

// BalanceSide is the side a balance naturally sits on.
type BalanceSide string

const (
	SideDebit  BalanceSide = "DEBIT"
	SideCredit BalanceSide = "CREDIT"
)

// NormalSide returns the normal-balance side for the account type:
// assets and expenses grow by debit, the rest by credit.
func (t AccountType) NormalSide() BalanceSide {
	switch t {
	case AccountAsset, AccountExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// EntryStatus is the journal-entry lifecycle state.
type EntryStatus string

const (
	EntryDraft           EntryStatus = "DRAFT"
	EntryPendingApproval EntryStatus = "PENDING_APPROVAL"
	EntryApproved        EntryStatus = "APPROVED"
	EntryPosted          EntryStatus = "POSTED"
	EntryCancelled       EntryStatus = "CANCELLED"
)

// Valid reports whether the status is a known lifecycle state.
func (s EntryStatus) Valid() bool {
	switch s {
	case EntryDraft, EntryPendingApproval, EntryApproved, EntryPosted, EntryCancelled:
		return true
	}
	return false
}

// InvoiceKind distinguishes the payable and receivable sides of the
// engine. Vendor invoices live in vendor_invoices, customer invoices in
// customer_invoices; payments share one table tagged by kind.
type InvoiceKind string

const (
	KindVendor   InvoiceKind = "VENDOR"
	KindCustomer InvoiceKind = "CUSTOMER"
)

// InvoiceStatus is the invoice lifecycle state.
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "DRAFT"
	InvoiceApproved      InvoiceStatus = "APPROVED"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
	InvoiceCancelled     InvoiceStatus = "CANCELLED"
)

// TaxType enumerates the Indonesian tax categories the platform handles.
type TaxType string

const (
	TaxPPN   TaxType = "PPN"
	TaxPPh21 TaxType = "PPH21"
	TaxPPh22 TaxType = "PPH22"
	TaxPPh23 TaxType = "PPH23"
	TaxPPh25 TaxType = "PPH25"
	TaxPPh29 TaxType = "PPH29"
	TaxPBB   TaxType = "PBB"
)

// Valid reports whether the tax type is known.
func (t TaxType) Valid() bool {
	switch t {
	case TaxPPN, TaxPPh21, TaxPPh22, TaxPPh23, TaxPPh25, TaxPPh29, TaxPBB:
		return true
	}
	return false
}

// Company is a tenant.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NPWP      string    `json:"npwp,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an authenticated principal belonging to a company.
type User struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// RefreshToken is the server-side record pairing a refresh jti with the
// access jti it was issued alongside. Rotation revokes the record.
type RefreshToken struct {
	JTI       string    `json:"jti"`
	UserID    string    `json:"user_id"`
	AccessJTI string    `json:"access_jti"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// Account is one row of a company's chart of accounts.
type Account struct {
	ID        string      `json:"id"`
	CompanyID string      `json:"company_id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
}

// JournalEntry is a double-entry accounting record header.
type JournalEntry struct {
	ID          string          `json:"id"`
	CompanyID   string          `json:"company_id"`
	EntryNumber int64           `json:"entry_number"`
	EntryDate   time.Time       `json:"entry_date"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Status      EntryStatus     `json:"status"`
	IsPosted    bool            `json:"is_posted"`
	PostedAt    *time.Time      `json:"posted_at,omitempty"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// JournalLine is one leg of a journal entry. Exactly one of DebitAmount
// and CreditAmount is non-zero.
type JournalLine struct {
	ID             string          `json:"id"`
	JournalEntryID string          `json:"journal_entry_id"`
	AccountID      string          `json:"account_id"`
	Description    string          `json:"description"`
	DebitAmount    decimal.Decimal `json:"debit_amount"`
	CreditAmount   decimal.Decimal `json:"credit_amount"`
	LineNumber     int             `json:"line_number"`
}

// AccountBalance accumulates posted debits and credits per account and
// YYYY-MM period.
type AccountBalance struct {
	CompanyID   string          `json:"company_id"`
	AccountID   string          `json:"account_id"`
	Period      string          `json:"period"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
}

// AccountActivity is an aggregation row: total posted debits and credits
// of one account over some date window.
type AccountActivity struct {
	AccountID   string          `json:"account_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Type        AccountType     `json:"type"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
}

// Party is a vendor or customer, depending on the invoice kind it is
// stored under. CreditLimit applies to customers only.
type Party struct {
	ID          string              `json:"id"`
	CompanyID   string              `json:"company_id"`
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	NPWP        string              `json:"npwp,omitempty"`
	Email       string              `json:"email,omitempty"`
	Phone       string              `json:"phone,omitempty"`
	Address     string              `json:"address,omitempty"`
	CreditLimit decimal.NullDecimal `json:"credit_limit,omitempty"`
	Active      bool                `json:"active"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Invoice is a vendor or customer invoice.
type Invoice struct {
	ID             string          `json:"id"`
	CompanyID      string          `json:"company_id"`
	PartyID        string          `json:"party_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	InvoiceDate    time.Time       `json:"invoice_date"`
	DueDate        time.Time       `json:"due_date"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Status         InvoiceStatus   `json:"status"`
	Description    string          `json:"description"`
	JournalEntryID *string         `json:"journal_entry_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Outstanding returns the unpaid remainder of the invoice.
func (inv *Invoice) Outstanding() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.PaidAmount)
}

// Payment is one application of money against an invoice.
type Payment struct {
	ID          string          `json:"id"`
	InvoiceKind InvoiceKind     `json:"invoice_kind"`
	InvoiceID   string          `json:"invoice_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
	Method      string          `json:"method"`
	Reference   string          `json:"reference,omitempty"`
	CreatedBy   string          `json:"created_by"`
	Reversed    bool            `json:"reversed"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OutstandingInvoice is an invoice row joined with its party, used by the
// aging report.
type OutstandingInvoice struct {
	Invoice
	PartyName string `json:"party_name"`
	PartyCode string `json:"party_code"`
}

// TaxConfiguration is a company's configured rate for one tax type.
type TaxConfiguration struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	TaxType       TaxType         `json:"tax_type"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate time.Time       `json:"effective_date"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TaxTransaction is a recorded taxable event feeding the tax report.
type TaxTransaction struct {
	ID              string          `json:"id"`
	CompanyID       string          `json:"company_id"`
	TaxType         TaxType         `json:"tax_type"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	TransactionDate time.Time       `json:"transaction_date"`
	Reference       string          `json:"reference,omitempty"`
	Description     string          `json:"description,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// AuditRecord is one line of the append-only audit trail.
type AuditRecord struct {
	ID         string    `json:"id"`
	CompanyID  string    `json:"company_id"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AccountFilter narrows ListAccounts.
type AccountFilter struct {
	Type   *AccountType
	Active *bool
	Search string
	Limit  int
	Offset int
}

// EntryFilter narrows ListEntries.
type EntryFilter struct {
	Status   *EntryStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// PartyFilter narrows ListParties.
type PartyFilter struct {
	Active *bool
	Search string
	Limit  int
	Offset int
}

// InvoiceFilter narrows ListInvoices.
type InvoiceFilter struct {
	Status  *InvoiceStatus
	PartyID string
	Limit   int
	Offset  int
}

// TaxTransactionFilter narrows ListTaxTransactions.
type TaxTransactionFilter struct {
	TaxType  *TaxType
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// Period formats a time as the YYYY-MM balance period key.
func Period(t time.Time) string {
	return t.Format("2006-01")
}
