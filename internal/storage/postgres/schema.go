package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema group names services pass through Config.SchemaGroups. The
// accounts and ledger groups share a database: trial balance joins
// journal lines with accounts, and account deletion checks for
// referencing lines.
const (
	SchemaIdentity    = "identity"
	SchemaAccounts    = "accounts"
	SchemaLedger      = "ledger"
	SchemaPayables    = "payables"
	SchemaReceivables = "receivables"
	SchemaTax         = "tax"
	SchemaAudit       = "audit"
)

const paymentsDDL = `CREATE TABLE IF NOT EXISTS payments (
	id TEXT PRIMARY KEY,
	invoice_kind TEXT NOT NULL CHECK (invoice_kind IN ('VENDOR','CUSTOMER')),
	invoice_id TEXT NOT NULL,
	amount NUMERIC(20,2) NOT NULL CHECK (amount > 0),
	payment_date DATE NOT NULL,
	method TEXT NOT NULL DEFAULT '',
	reference TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL,
	reversed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const paymentsIndexDDL = `CREATE INDEX IF NOT EXISTS idx_payments_invoice ON payments(invoice_id, created_at)`

var schemaGroups = map[string][]string{
	SchemaIdentity: {
		`CREATE TABLE IF NOT EXISTS companies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			npwp TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL REFERENCES companies(id),
			email TEXT NOT NULL UNIQUE,
			full_name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			jti TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			access_jti TEXT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			revoked BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_company ON users(company_id)`,
	},
	SchemaAccounts: {
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('ASSET','LIABILITY','EQUITY','REVENUE','EXPENSE')),
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (company_id, code)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_company ON accounts(company_id, code)`,
	},
	SchemaLedger: {
		`CREATE TABLE IF NOT EXISTS journal_entries (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			entry_number BIGINT NOT NULL,
			entry_date DATE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			reference TEXT NOT NULL DEFAULT '',
			total_debit NUMERIC(20,2) NOT NULL DEFAULT 0,
			total_credit NUMERIC(20,2) NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'DRAFT'
				CHECK (status IN ('DRAFT','PENDING_APPROVAL','APPROVED','POSTED','CANCELLED')),
			is_posted BOOLEAN NOT NULL DEFAULT FALSE,
			posted_at TIMESTAMPTZ,
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (company_id, entry_number)
		)`,
		`CREATE TABLE IF NOT EXISTS journal_entry_lines (
			id TEXT PRIMARY KEY,
			journal_entry_id TEXT NOT NULL REFERENCES journal_entries(id) ON DELETE CASCADE,
			account_id TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			debit_amount NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (debit_amount >= 0),
			credit_amount NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (credit_amount >= 0),
			line_number INTEGER NOT NULL,
			CHECK (debit_amount = 0 OR credit_amount = 0)
		)`,
		`CREATE TABLE IF NOT EXISTS journal_counters (
			company_id TEXT PRIMARY KEY,
			last_number BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS account_balances (
			company_id TEXT NOT NULL,
			account_id TEXT NOT NULL,
			period TEXT NOT NULL,
			debit_total NUMERIC(20,2) NOT NULL DEFAULT 0,
			credit_total NUMERIC(20,2) NOT NULL DEFAULT 0,
			PRIMARY KEY (company_id, account_id, period)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_company ON journal_entries(company_id, entry_date)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entry_lines_entry ON journal_entry_lines(journal_entry_id)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entry_lines_account ON journal_entry_lines(account_id)`,
	},
	SchemaPayables: {
		`CREATE TABLE IF NOT EXISTS vendors (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			npwp TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (company_id, code)
		)`,
		`CREATE TABLE IF NOT EXISTS vendor_invoices (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			vendor_id TEXT NOT NULL REFERENCES vendors(id),
			invoice_number TEXT NOT NULL,
			invoice_date DATE NOT NULL,
			due_date DATE NOT NULL,
			subtotal NUMERIC(20,2) NOT NULL,
			tax_amount NUMERIC(20,2) NOT NULL DEFAULT 0,
			total_amount NUMERIC(20,2) NOT NULL,
			paid_amount NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (paid_amount >= 0),
			status TEXT NOT NULL DEFAULT 'DRAFT'
				CHECK (status IN ('DRAFT','APPROVED','PARTIALLY_PAID','PAID','CANCELLED')),
			description TEXT NOT NULL DEFAULT '',
			journal_entry_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (company_id, vendor_id, invoice_number),
			CHECK (due_date >= invoice_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vendor_invoices_company ON vendor_invoices(company_id, status)`,
		paymentsDDL,
		paymentsIndexDDL,
	},
	SchemaReceivables: {
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			npwp TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			credit_limit NUMERIC(20,2),
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (company_id, code)
		)`,
		`CREATE TABLE IF NOT EXISTS customer_invoices (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			customer_id TEXT NOT NULL REFERENCES customers(id),
			invoice_number TEXT NOT NULL,
			invoice_date DATE NOT NULL,
			due_date DATE NOT NULL,
			subtotal NUMERIC(20,2) NOT NULL,
			tax_amount NUMERIC(20,2) NOT NULL DEFAULT 0,
			total_amount NUMERIC(20,2) NOT NULL,
			paid_amount NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (paid_amount >= 0),
			status TEXT NOT NULL DEFAULT 'DRAFT'
				CHECK (status IN ('DRAFT','APPROVED','PARTIALLY_PAID','PAID','CANCELLED')),
			description TEXT NOT NULL DEFAULT '',
			journal_entry_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (company_id, customer_id, invoice_number),
			CHECK (due_date >= invoice_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_customer_invoices_company ON customer_invoices(company_id, status)`,
		paymentsDDL,
		paymentsIndexDDL,
	},
	SchemaTax: {
		`CREATE TABLE IF NOT EXISTS tax_configurations (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			tax_type TEXT NOT NULL,
			rate NUMERIC(10,4) NOT NULL CHECK (rate >= 0),
			effective_date DATE NOT NULL,
			end_date DATE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS tax_transactions (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			tax_type TEXT NOT NULL,
			base_amount NUMERIC(20,2) NOT NULL,
			tax_amount NUMERIC(20,2) NOT NULL,
			transaction_date DATE NOT NULL,
			reference TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tax_transactions_company ON tax_transactions(company_id, tax_type, transaction_date)`,
	},
	SchemaAudit: {
		`CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_entity ON audit_log(company_id, entity_type, entity_id)`,
	},
}

// allSchemaGroups returns every group in a stable order.
func allSchemaGroups() []string {
	return []string{
		SchemaIdentity, SchemaAccounts, SchemaLedger,
		SchemaPayables, SchemaReceivables, SchemaTax, SchemaAudit,
	}
}

// ensureSchema creates the tables for the requested groups. Statements
// are idempotent so repeated startups are safe.
func ensureSchema(ctx context.Context, pool *pgxpool.Pool, groups []string) error {
	if len(groups) == 0 {
		groups = allSchemaGroups()
	}
	for _, group := range groups {
		statements, ok := schemaGroups[group]
		if !ok {
			return fmt.Errorf("unknown schema group %q", group)
		}
		for _, stmt := range statements {
			if _, err := pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("ensure schema group %s: %w", group, err)
			}
		}
	}
	return nil
}
