package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// JournalRepository implements storage.JournalRepository on PostgreSQL.
type JournalRepository struct {
	q querier
}

var _ storage.JournalRepository = (*JournalRepository)(nil)

// NextEntryNumber bumps the per-company counter and returns the new
// value. The upsert takes a row lock, so two transactions allocating for
// the same company serialize and numbers never repeat.
func (r *JournalRepository) NextEntryNumber(ctx context.Context, companyID string) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx,
		`INSERT INTO journal_counters (company_id, last_number) VALUES ($1, 1)
		 ON CONFLICT (company_id)
		 DO UPDATE SET last_number = journal_counters.last_number + 1
		 RETURNING last_number`,
		companyID).Scan(&n)
	if err != nil {
		return 0, wrapError("next_entry_number", err)
	}
	return n, nil
}

const entryColumns = `id, company_id, entry_number, entry_date, description, reference,
	total_debit, total_credit, status, is_posted, posted_at, created_by, created_at`

func (r *JournalRepository) InsertEntry(ctx context.Context, entry *storage.JournalEntry) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO journal_entries (`+entryColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		entry.ID, entry.CompanyID, entry.EntryNumber, entry.EntryDate,
		entry.Description, entry.Reference, entry.TotalDebit, entry.TotalCredit,
		entry.Status, entry.IsPosted, entry.PostedAt, entry.CreatedBy, entry.CreatedAt)
	return wrapError("insert_entry", err)
}

func (r *JournalRepository) InsertLines(ctx context.Context, lines []*storage.JournalLine) error {
	if len(lines) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(
			`INSERT INTO journal_entry_lines
			 (id, journal_entry_id, account_id, description, debit_amount, credit_amount, line_number)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, l.JournalEntryID, l.AccountID, l.Description,
			l.DebitAmount, l.CreditAmount, l.LineNumber)
	}

	results := r.q.SendBatch(ctx, batch)
	defer results.Close()
	for range lines {
		if _, err := results.Exec(); err != nil {
			return wrapError("insert_lines", err)
		}
	}
	return nil
}

func (r *JournalRepository) GetEntry(ctx context.Context, companyID, id string) (*storage.JournalEntry, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE company_id = $1 AND id = $2`,
		companyID, id)

	var e storage.JournalEntry
	if err := scanOne("get_entry", "journal entry", row,
		&e.ID, &e.CompanyID, &e.EntryNumber, &e.EntryDate, &e.Description,
		&e.Reference, &e.TotalDebit, &e.TotalCredit, &e.Status, &e.IsPosted,
		&e.PostedAt, &e.CreatedBy, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *JournalRepository) GetLines(ctx context.Context, entryID string) ([]*storage.JournalLine, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, journal_entry_id, account_id, description, debit_amount, credit_amount, line_number
		 FROM journal_entry_lines WHERE journal_entry_id = $1 ORDER BY line_number`,
		entryID)
	if err != nil {
		return nil, wrapError("get_lines", err)
	}
	defer rows.Close()

	var out []*storage.JournalLine
	for rows.Next() {
		var l storage.JournalLine
		if err := rows.Scan(&l.ID, &l.JournalEntryID, &l.AccountID, &l.Description,
			&l.DebitAmount, &l.CreditAmount, &l.LineNumber); err != nil {
			return nil, wrapError("get_lines", err)
		}
		out = append(out, &l)
	}
	return out, wrapError("get_lines", rows.Err())
}

func (r *JournalRepository) ListEntries(ctx context.Context, companyID string, filter storage.EntryFilter) ([]*storage.JournalEntry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + entryColumns + ` FROM journal_entries WHERE company_id = $1`)
	args := []any{companyID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		fmt.Fprintf(&sb, " AND status = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		fmt.Fprintf(&sb, " AND entry_date >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		fmt.Fprintf(&sb, " AND entry_date <= $%d", len(args))
	}
	sb.WriteString(" ORDER BY entry_number DESC")
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
		return nil, wrapError("list_entries", err)
	}
	defer rows.Close()

	var out []*storage.JournalEntry
	for rows.Next() {
		var e storage.JournalEntry
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.EntryNumber, &e.EntryDate,
			&e.Description, &e.Reference, &e.TotalDebit, &e.TotalCredit,
			&e.Status, &e.IsPosted, &e.PostedAt, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, wrapError("list_entries", err)
		}
		out = append(out, &e)
	}
	return out, wrapError("list_entries", rows.Err())
}

// UpdateEntryHeader rewrites the mutable header fields of a draft.
func (r *JournalRepository) UpdateEntryHeader(ctx context.Context, entry *storage.JournalEntry) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE journal_entries
		 SET entry_date = $3, description = $4, reference = $5,
		     total_debit = $6, total_credit = $7
		 WHERE company_id = $1 AND id = $2`,
		entry.CompanyID, entry.ID, entry.EntryDate, entry.Description,
		entry.Reference, entry.TotalDebit, entry.TotalCredit)
	if err != nil {
		return wrapError("update_entry_header", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("update_entry_header", "journal entry")
	}
	return nil
}

func (r *JournalRepository) UpdateEntryStatus(ctx context.Context, companyID, id string, status storage.EntryStatus, isPosted bool, postedAt *time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE journal_entries SET status = $3, is_posted = $4, posted_at = $5
		 WHERE company_id = $1 AND id = $2`,
		companyID, id, status, isPosted, postedAt)
	if err != nil {
		return wrapError("update_entry_status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("update_entry_status", "journal entry")
	}
	return nil
}

// DeleteEntry removes the header; lines cascade.
func (r *JournalRepository) DeleteEntry(ctx context.Context, companyID, id string) error {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM journal_entries WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return wrapError("delete_entry", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("delete_entry", "journal entry")
	}
	return nil
}

func (r *JournalRepository) ApplyBalance(ctx context.Context, companyID, accountID, period string, debit, credit decimal.Decimal) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO account_balances (company_id, account_id, period, debit_total, credit_total)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (company_id, account_id, period)
		 DO UPDATE SET debit_total = account_balances.debit_total + EXCLUDED.debit_total,
		               credit_total = account_balances.credit_total + EXCLUDED.credit_total`,
		companyID, accountID, period, debit, credit)
	return wrapError("apply_balance", err)
}

func (r *JournalRepository) GetBalances(ctx context.Context, companyID, period string) ([]*storage.AccountBalance, error) {
	rows, err := r.q.Query(ctx,
		`SELECT company_id, account_id, period, debit_total, credit_total
		 FROM account_balances WHERE company_id = $1 AND period = $2
		 ORDER BY account_id`,
		companyID, period)
	if err != nil {
		return nil, wrapError("get_balances", err)
	}
	defer rows.Close()

	var out []*storage.AccountBalance
	for rows.Next() {
		var b storage.AccountBalance
		if err := rows.Scan(&b.CompanyID, &b.AccountID, &b.Period,
			&b.DebitTotal, &b.CreditTotal); err != nil {
			return nil, wrapError("get_balances", err)
		}
		out = append(out, &b)
	}
	return out, wrapError("get_balances", rows.Err())
}

// PostedActivity sums posted line amounts per account over the window.
// Accounts without posted activity do not appear; callers merge in the
// full chart when they need zero rows.
func (r *JournalRepository) PostedActivity(ctx context.Context, companyID string, from, to time.Time) ([]*storage.AccountActivity, error) {
	var sb strings.Builder
	sb.WriteString(
		`SELECT a.id, a.code, a.name, a.type,
		        COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
		 FROM journal_entry_lines l
		 JOIN journal_entries e ON e.id = l.journal_entry_id
		 JOIN accounts a ON a.id = l.account_id
		 WHERE e.company_id = $1 AND e.is_posted`)
	args := []any{companyID}

	if !from.IsZero() {
		args = append(args, from)
		fmt.Fprintf(&sb, " AND e.entry_date >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		fmt.Fprintf(&sb, " AND e.entry_date <= $%d", len(args))
	}
	sb.WriteString(" GROUP BY a.id, a.code, a.name, a.type ORDER BY a.code")

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, wrapError("posted_activity", err)
	}
	defer rows.Close()

	var out []*storage.AccountActivity
	for rows.Next() {
		var act storage.AccountActivity
		if err := rows.Scan(&act.AccountID, &act.Code, &act.Name, &act.Type,
			&act.DebitTotal, &act.CreditTotal); err != nil {
			return nil, wrapError("posted_activity", err)
		}
		out = append(out, &act)
	}
	return out, wrapError("posted_activity", rows.Err())
}
