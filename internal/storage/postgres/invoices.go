package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// InvoiceRepository implements storage.InvoiceRepository on PostgreSQL.
// The payable and receivable sides share its code; the kind argument
// picks the table set.
type InvoiceRepository struct {
	q querier
}

var _ storage.InvoiceRepository = (*InvoiceRepository)(nil)

// tableSet names the tables backing one invoice kind.
type tableSet struct {
	invoices string
	parties  string
	partyCol string
}

func tablesFor(kind storage.InvoiceKind) tableSet {
	if kind == storage.KindCustomer {
		return tableSet{invoices: "customer_invoices", parties: "customers", partyCol: "customer_id"}
	}
	return tableSet{invoices: "vendor_invoices", parties: "vendors", partyCol: "vendor_id"}
}

func (r *InvoiceRepository) CreateParty(ctx context.Context, kind storage.InvoiceKind, party *storage.Party) error {
	t := tablesFor(kind)
	if kind == storage.KindCustomer {
		_, err := r.q.Exec(ctx,
			`INSERT INTO customers
			 (id, company_id, code, name, npwp, email, phone, address, credit_limit, active, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			party.ID, party.CompanyID, party.Code, party.Name, party.NPWP,
			party.Email, party.Phone, party.Address, party.CreditLimit,
			party.Active, party.CreatedAt)
		return wrapError("create_party", err)
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO `+t.parties+`
		 (id, company_id, code, name, npwp, email, phone, address, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		party.ID, party.CompanyID, party.Code, party.Name, party.NPWP,
		party.Email, party.Phone, party.Address, party.Active, party.CreatedAt)
	return wrapError("create_party", err)
}

func partyColumns(kind storage.InvoiceKind) string {
	if kind == storage.KindCustomer {
		return `id, company_id, code, name, npwp, email, phone, address, credit_limit, active, created_at`
	}
	return `id, company_id, code, name, npwp, email, phone, address, active, created_at`
}

func scanParty(op string, kind storage.InvoiceKind, row pgx.Row) (*storage.Party, error) {
	var p storage.Party
	dest := []any{&p.ID, &p.CompanyID, &p.Code, &p.Name, &p.NPWP, &p.Email, &p.Phone, &p.Address}
	if kind == storage.KindCustomer {
		dest = append(dest, &p.CreditLimit)
	}
	dest = append(dest, &p.Active, &p.CreatedAt)
	if err := scanOne(op, partyEntity(kind), row, dest...); err != nil {
		return nil, err
	}
	return &p, nil
}

func partyEntity(kind storage.InvoiceKind) string {
	if kind == storage.KindCustomer {
		return "customer"
	}
	return "vendor"
}

func (r *InvoiceRepository) GetParty(ctx context.Context, kind storage.InvoiceKind, companyID, id string) (*storage.Party, error) {
	t := tablesFor(kind)
	row := r.q.QueryRow(ctx,
		`SELECT `+partyColumns(kind)+` FROM `+t.parties+` WHERE company_id = $1 AND id = $2`,
		companyID, id)
	return scanParty("get_party", kind, row)
}

func (r *InvoiceRepository) ListParties(ctx context.Context, kind storage.InvoiceKind, companyID string, filter storage.PartyFilter) ([]*storage.Party, error) {
	t := tablesFor(kind)
	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT %s FROM %s WHERE company_id = $1`, partyColumns(kind), t.parties)
	args := []any{companyID}

	if filter.Active != nil {
		args = append(args, *filter.Active)
		fmt.Fprintf(&sb, " AND active = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		fmt.Fprintf(&sb, " AND (code ILIKE $%d OR name ILIKE $%d)", len(args), len(args))
	}
	sb.WriteString(" ORDER BY code")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, wrapError("list_parties", err)
	}
	defer rows.Close()

	var out []*storage.Party
	for rows.Next() {
		var p storage.Party
		dest := []any{&p.ID, &p.CompanyID, &p.Code, &p.Name, &p.NPWP, &p.Email, &p.Phone, &p.Address}
		if kind == storage.KindCustomer {
			dest = append(dest, &p.CreditLimit)
		}
		dest = append(dest, &p.Active, &p.CreatedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, wrapError("list_parties", err)
		}
		out = append(out, &p)
	}
	return out, wrapError("list_parties", rows.Err())
}

func (r *InvoiceRepository) UpdateParty(ctx context.Context, kind storage.InvoiceKind, party *storage.Party) error {
	t := tablesFor(kind)
	var tag pgconn.CommandTag
	var err error
	if kind == storage.KindCustomer {
		tag, err = r.q.Exec(ctx,
			`UPDATE customers
			 SET code = $3, name = $4, npwp = $5, email = $6, phone = $7,
			     address = $8, credit_limit = $9, active = $10
			 WHERE company_id = $1 AND id = $2`,
			party.CompanyID, party.ID, party.Code, party.Name, party.NPWP,
			party.Email, party.Phone, party.Address, party.CreditLimit, party.Active)
	} else {
		tag, err = r.q.Exec(ctx,
			`UPDATE `+t.parties+`
			 SET code = $3, name = $4, npwp = $5, email = $6, phone = $7,
			     address = $8, active = $9
			 WHERE company_id = $1 AND id = $2`,
			party.CompanyID, party.ID, party.Code, party.Name, party.NPWP,
			party.Email, party.Phone, party.Address, party.Active)
	}
	if err != nil {
		return wrapError("update_party", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("update_party", partyEntity(kind))
	}
	return nil
}

func invoiceColumns(t tableSet) string {
	return fmt.Sprintf(`id, company_id, %s, invoice_number, invoice_date, due_date,
		subtotal, tax_amount, total_amount, paid_amount, status, description,
		journal_entry_id, created_at, updated_at`, t.partyCol)
}

func (r *InvoiceRepository) CreateInvoice(ctx context.Context, kind storage.InvoiceKind, invoice *storage.Invoice) error {
	t := tablesFor(kind)
	_, err := r.q.Exec(ctx,
		`INSERT INTO `+t.invoices+` (`+invoiceColumns(t)+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		invoice.ID, invoice.CompanyID, invoice.PartyID, invoice.InvoiceNumber,
		invoice.InvoiceDate, invoice.DueDate, invoice.Subtotal, invoice.TaxAmount,
		invoice.TotalAmount, invoice.PaidAmount, invoice.Status, invoice.Description,
		invoice.JournalEntryID, invoice.CreatedAt, invoice.UpdatedAt)
	return wrapError("create_invoice", err)
}

func (r *InvoiceRepository) GetInvoice(ctx context.Context, kind storage.InvoiceKind, companyID, id string, forUpdate bool) (*storage.Invoice, error) {
	t := tablesFor(kind)
	query := `SELECT ` + invoiceColumns(t) + ` FROM ` + t.invoices + ` WHERE company_id = $1 AND id = $2`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var inv storage.Invoice
	row := r.q.QueryRow(ctx, query, companyID, id)
	if err := scanOne("get_invoice", "invoice", row,
		&inv.ID, &inv.CompanyID, &inv.PartyID, &inv.InvoiceNumber,
		&inv.InvoiceDate, &inv.DueDate, &inv.Subtotal, &inv.TaxAmount,
		&inv.TotalAmount, &inv.PaidAmount, &inv.Status, &inv.Description,
		&inv.JournalEntryID, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepository) ListInvoices(ctx context.Context, kind storage.InvoiceKind, companyID string, filter storage.InvoiceFilter) ([]*storage.Invoice, error) {
	t := tablesFor(kind)
	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT %s FROM %s WHERE company_id = $1`, invoiceColumns(t), t.invoices)
	args := []any{companyID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		fmt.Fprintf(&sb, " AND status = $%d", len(args))
	}
	if filter.PartyID != "" {
		args = append(args, filter.PartyID)
		fmt.Fprintf(&sb, " AND %s = $%d", t.partyCol, len(args))
	}
	sb.WriteString(" ORDER BY invoice_date DESC, invoice_number DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, wrapError("list_invoices", err)
	}
	defer rows.Close()

	var out []*storage.Invoice
	for rows.Next() {
		var inv storage.Invoice
		if err := rows.Scan(&inv.ID, &inv.CompanyID, &inv.PartyID, &inv.InvoiceNumber,
			&inv.InvoiceDate, &inv.DueDate, &inv.Subtotal, &inv.TaxAmount,
			&inv.TotalAmount, &inv.PaidAmount, &inv.Status, &inv.Description,
			&inv.JournalEntryID, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, wrapError("list_invoices", err)
		}
		out = append(out, &inv)
	}
	return out, wrapError("list_invoices", rows.Err())
}

func (r *InvoiceRepository) UpdateInvoice(ctx context.Context, kind storage.InvoiceKind, invoice *storage.Invoice) error {
	t := tablesFor(kind)
	tag, err := r.q.Exec(ctx,
		`UPDATE `+t.invoices+`
		 SET paid_amount = $3, status = $4, journal_entry_id = $5,
		     description = $6, updated_at = $7
		 WHERE company_id = $1 AND id = $2`,
		invoice.CompanyID, invoice.ID, invoice.PaidAmount, invoice.Status,
		invoice.JournalEntryID, invoice.Description, invoice.UpdatedAt)
	if err != nil {
		return wrapError("update_invoice", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("update_invoice", "invoice")
	}
	return nil
}

func (r *InvoiceRepository) InsertPayment(ctx context.Context, payment *storage.Payment) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO payments
		 (id, invoice_kind, invoice_id, amount, payment_date, method, reference, created_by, reversed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		payment.ID, payment.InvoiceKind, payment.InvoiceID, payment.Amount,
		payment.PaymentDate, payment.Method, payment.Reference,
		payment.CreatedBy, payment.Reversed, payment.CreatedAt)
	return wrapError("insert_payment", err)
}

const paymentColumns = `id, invoice_kind, invoice_id, amount, payment_date, method, reference, created_by, reversed, created_at`

func (r *InvoiceRepository) ListPayments(ctx context.Context, invoiceID string) ([]*storage.Payment, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE invoice_id = $1 ORDER BY created_at`,
		invoiceID)
	if err != nil {
		return nil, wrapError("list_payments", err)
	}
	defer rows.Close()

	var out []*storage.Payment
	for rows.Next() {
		var p storage.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceKind, &p.InvoiceID, &p.Amount,
			&p.PaymentDate, &p.Method, &p.Reference, &p.CreatedBy,
			&p.Reversed, &p.CreatedAt); err != nil {
			return nil, wrapError("list_payments", err)
		}
		out = append(out, &p)
	}
	return out, wrapError("list_payments", rows.Err())
}

func (r *InvoiceRepository) LatestActivePayment(ctx context.Context, invoiceID string) (*storage.Payment, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE invoice_id = $1 AND NOT reversed
		 ORDER BY created_at DESC LIMIT 1`,
		invoiceID)

	var p storage.Payment
	if err := scanOne("latest_active_payment", "payment", row,
		&p.ID, &p.InvoiceKind, &p.InvoiceID, &p.Amount, &p.PaymentDate,
		&p.Method, &p.Reference, &p.CreatedBy, &p.Reversed, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *InvoiceRepository) MarkPaymentReversed(ctx context.Context, paymentID string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE payments SET reversed = TRUE WHERE id = $1 AND NOT reversed`, paymentID)
	if err != nil {
		return wrapError("mark_payment_reversed", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("mark_payment_reversed", "payment")
	}
	return nil
}

// OutstandingInvoices returns the non-terminal invoices that still owe
// money, joined with their party, ordered for the aging report.
func (r *InvoiceRepository) OutstandingInvoices(ctx context.Context, kind storage.InvoiceKind, companyID string) ([]*storage.OutstandingInvoice, error) {
	t := tablesFor(kind)
	query := fmt.Sprintf(
		`SELECT i.id, i.company_id, i.%s, i.invoice_number, i.invoice_date, i.due_date,
		        i.subtotal, i.tax_amount, i.total_amount, i.paid_amount, i.status,
		        i.description, i.journal_entry_id, i.created_at, i.updated_at,
		        p.name, p.code
		 FROM %s i
		 JOIN %s p ON p.id = i.%s
		 WHERE i.company_id = $1
		   AND i.status NOT IN ('PAID', 'CANCELLED')
		   AND i.total_amount > i.paid_amount
		 ORDER BY p.name, i.due_date`,
		t.partyCol, t.invoices, t.parties, t.partyCol)

	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, wrapError("outstanding_invoices", err)
	}
	defer rows.Close()

	var out []*storage.OutstandingInvoice
	for rows.Next() {
		var oi storage.OutstandingInvoice
		if err := rows.Scan(&oi.ID, &oi.CompanyID, &oi.PartyID, &oi.InvoiceNumber,
			&oi.InvoiceDate, &oi.DueDate, &oi.Subtotal, &oi.TaxAmount,
			&oi.TotalAmount, &oi.PaidAmount, &oi.Status, &oi.Description,
			&oi.JournalEntryID, &oi.CreatedAt, &oi.UpdatedAt,
			&oi.PartyName, &oi.PartyCode); err != nil {
			return nil, wrapError("outstanding_invoices", err)
		}
		out = append(out, &oi)
	}
	return out, wrapError("outstanding_invoices", rows.Err())
}
