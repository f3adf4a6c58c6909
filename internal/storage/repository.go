package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// IdentityRepository handles company, user and refresh-token database
// operations.
type IdentityRepository interface {
	CreateCompany(ctx context.Context, company *Company) error
	GetCompany(ctx context.Context, id string) (*Company, error)
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshToken(ctx context.Context, jti string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, jti string) error
	RevokeRefreshTokensForUser(ctx context.Context, userID string) error
	DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

// AccountRepository handles chart-of-accounts database operations.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *Account) error
	CreateAccounts(ctx context.Context, accounts []*Account) error
	GetAccount(ctx context.Context, companyID, id string) (*Account, error)
	GetAccountByCode(ctx context.Context, companyID, code string) (*Account, error)
	GetAccountsByIDs(ctx context.Context, companyID string, ids []string) (map[string]*Account, error)
	ListAccounts(ctx context.Context, companyID string, filter AccountFilter) ([]*Account, error)
	CountAccounts(ctx context.Context, companyID string) (int64, error)
	UpdateAccount(ctx context.Context, account *Account) error
	DeleteAccount(ctx context.Context, companyID, id string) error
	// AccountReferenced reports whether any journal line points at the
	// account. Accounts and ledger tables share a database.
	AccountReferenced(ctx context.Context, accountID string) (bool, error)
}

// JournalRepository handles journal entry, balance and aggregation
// database operations.
type JournalRepository interface {
	// NextEntryNumber increments and returns the per-company counter.
	// The row stays locked until the surrounding transaction ends, so
	// concurrent allocations for one company serialize.
	NextEntryNumber(ctx context.Context, companyID string) (int64, error)
	InsertEntry(ctx context.Context, entry *JournalEntry) error
	InsertLines(ctx context.Context, lines []*JournalLine) error
	GetEntry(ctx context.Context, companyID, id string) (*JournalEntry, error)
	GetLines(ctx context.Context, entryID string) ([]*JournalLine, error)
	ListEntries(ctx context.Context, companyID string, filter EntryFilter) ([]*JournalEntry, error)
	UpdateEntryHeader(ctx context.Context, entry *JournalEntry) error
	UpdateEntryStatus(ctx context.Context, companyID, id string, status EntryStatus, isPosted bool, postedAt *time.Time) error
	DeleteEntry(ctx context.Context, companyID, id string) error
	// ApplyBalance upserts the (company, account, period) accumulator,
	// adding the given debit and credit to the running totals.
	ApplyBalance(ctx context.Context, companyID, accountID, period string, debit, credit decimal.Decimal) error
	GetBalances(ctx context.Context, companyID, period string) ([]*AccountBalance, error)
	// PostedActivity aggregates posted debits and credits per account
	// over [from, to]. Zero time bounds are open-ended.
	PostedActivity(ctx context.Context, companyID string, from, to time.Time) ([]*AccountActivity, error)
}

// InvoiceRepository handles vendor/customer, invoice and payment
// database operations. The kind argument selects the payable or
// receivable tables.
type InvoiceRepository interface {
	CreateParty(ctx context.Context, kind InvoiceKind, party *Party) error
	GetParty(ctx context.Context, kind InvoiceKind, companyID, id string) (*Party, error)
	ListParties(ctx context.Context, kind InvoiceKind, companyID string, filter PartyFilter) ([]*Party, error)
	UpdateParty(ctx context.Context, kind InvoiceKind, party *Party) error
	CreateInvoice(ctx context.Context, kind InvoiceKind, invoice *Invoice) error
	// GetInvoice loads one invoice; forUpdate locks the row for the
	// rest of the transaction so concurrent payments serialize.
	GetInvoice(ctx context.Context, kind InvoiceKind, companyID, id string, forUpdate bool) (*Invoice, error)
	ListInvoices(ctx context.Context, kind InvoiceKind, companyID string, filter InvoiceFilter) ([]*Invoice, error)
	UpdateInvoice(ctx context.Context, kind InvoiceKind, invoice *Invoice) error
	InsertPayment(ctx context.Context, payment *Payment) error
	ListPayments(ctx context.Context, invoiceID string) ([]*Payment, error)
	// LatestActivePayment returns the most recent non-reversed payment,
	// or a NOT_FOUND error when none remains.
	LatestActivePayment(ctx context.Context, invoiceID string) (*Payment, error)
	MarkPaymentReversed(ctx context.Context, paymentID string) error
	// OutstandingInvoices lists non-cancelled invoices with an unpaid
	// remainder, joined with their party, for the aging report.
	OutstandingInvoices(ctx context.Context, kind InvoiceKind, companyID string) ([]*OutstandingInvoice, error)
}

// TaxRepository handles tax configuration and transaction database
// operations.
type TaxRepository interface {
	CreateTaxConfiguration(ctx context.Context, cfg *TaxConfiguration) error
	GetTaxConfiguration(ctx context.Context, companyID, id string) (*TaxConfiguration, error)
	ListTaxConfigurations(ctx context.Context, companyID string) ([]*TaxConfiguration, error)
	UpdateTaxConfiguration(ctx context.Context, cfg *TaxConfiguration) error
	DeleteTaxConfiguration(ctx context.Context, companyID, id string) error
	// ActiveRate resolves the configuration effective on the given date
	// for the tax type, or a NOT_FOUND error.
	ActiveRate(ctx context.Context, companyID string, taxType TaxType, on time.Time) (*TaxConfiguration, error)
	CreateTaxTransaction(ctx context.Context, txn *TaxTransaction) error
	ListTaxTransactions(ctx context.Context, companyID string, filter TaxTransactionFilter) ([]*TaxTransaction, error)
}

// AuditRepository handles audit-trail database operations.
type AuditRepository interface {
	InsertAuditRecord(ctx context.Context, record *AuditRecord) error
	ListAuditRecords(ctx context.Context, companyID, entityType, entityID string) ([]*AuditRecord, error)
}

// TransactionContext gives repository access bound to one database
// transaction. Writes issued through it commit or roll back together.
type TransactionContext interface {
	Identity() IdentityRepository
	Accounts() AccountRepository
	Journal() JournalRepository
	Invoices() InvoiceRepository
	Tax() TaxRepository
	Audit() AuditRepository
}

// Manager provides access to all repositories and transaction
// management. Outside WithTransaction every call auto-commits.
type Manager interface {
	TransactionContext

	// WithTransaction runs fn inside a single database transaction,
	// committing when fn returns nil and rolling back otherwise.
	WithTransaction(ctx context.Context, fn func(TransactionContext) error) error

	Ping(ctx context.Context) error
	Close()
}
