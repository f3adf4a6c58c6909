package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// AccountRepository implements storage.AccountRepository on PostgreSQL.
type AccountRepository struct {
	q querier
}

var _ storage.AccountRepository = (*AccountRepository)(nil)

const accountColumns = `id, company_id, code, name, type, active, created_at`

const insertAccountSQL = `INSERT INTO accounts (id, company_id, code, name, type, active, created_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (r *AccountRepository) CreateAccount(ctx context.Context, account *storage.Account) error {
	_, err := r.q.Exec(ctx, insertAccountSQL,
		account.ID, account.CompanyID, account.Code, account.Name,
		account.Type, account.Active, account.CreatedAt)
	return wrapError("create_account", err)
}

// CreateAccounts inserts accounts in one round trip. Used by the chart
// template installer.
func (r *AccountRepository) CreateAccounts(ctx context.Context, accounts []*storage.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, a := range accounts {
		batch.Queue(insertAccountSQL,
			a.ID, a.CompanyID, a.Code, a.Name, a.Type, a.Active, a.CreatedAt)
	}

	results := r.q.SendBatch(ctx, batch)
	defer results.Close()
	for range accounts {
		if _, err := results.Exec(); err != nil {
			return wrapError("create_accounts", err)
		}
	}
	return nil
}

func (r *AccountRepository) GetAccount(ctx context.Context, companyID, id string) (*storage.Account, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE company_id = $1 AND id = $2`,
		companyID, id)
	return scanAccount("get_account", row)
}

func (r *AccountRepository) GetAccountByCode(ctx context.Context, companyID, code string) (*storage.Account, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE company_id = $1 AND code = $2`,
		companyID, code)
	return scanAccount("get_account_by_code", row)
}

func (r *AccountRepository) GetAccountsByIDs(ctx context.Context, companyID string, ids []string) (map[string]*storage.Account, error) {
	if len(ids) == 0 {
		return map[string]*storage.Account{}, nil
	}

	rows, err := r.q.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE company_id = $1 AND id = ANY($2)`,
		companyID, ids)
	if err != nil {
		return nil, wrapError("get_accounts_by_ids", err)
	}
	defer rows.Close()

	out := make(map[string]*storage.Account, len(ids))
	for rows.Next() {
		a, err := collectAccount(rows)
		if err != nil {
			return nil, wrapError("get_accounts_by_ids", err)
		}
		out[a.ID] = a
	}
	return out, wrapError("get_accounts_by_ids", rows.Err())
}

func (r *AccountRepository) ListAccounts(ctx context.Context, companyID string, filter storage.AccountFilter) ([]*storage.Account, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + accountColumns + ` FROM accounts WHERE company_id = $1`)
	args := []any{companyID}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		fmt.Fprintf(&sb, " AND type = $%d", len(args))
	}
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
		return nil, wrapError("list_accounts", err)
	}
	defer rows.Close()

	var out []*storage.Account
	for rows.Next() {
		a, err := collectAccount(rows)
		if err != nil {
			return nil, wrapError("list_accounts", err)
		}
		out = append(out, a)
	}
	return out, wrapError("list_accounts", rows.Err())
}

func (r *AccountRepository) CountAccounts(ctx context.Context, companyID string) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM accounts WHERE company_id = $1`, companyID).Scan(&n)
	if err != nil {
		return 0, wrapError("count_accounts", err)
	}
	return n, nil
}

func (r *AccountRepository) UpdateAccount(ctx context.Context, account *storage.Account) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE accounts SET code = $3, name = $4, type = $5, active = $6
		 WHERE company_id = $1 AND id = $2`,
		account.CompanyID, account.ID, account.Code, account.Name,
		account.Type, account.Active)
	if err != nil {
		return wrapError("update_account", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("update_account", "account")
	}
	return nil
}

func (r *AccountRepository) DeleteAccount(ctx context.Context, companyID, id string) error {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM accounts WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return wrapError("delete_account", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("delete_account", "account")
	}
	return nil
}

func (r *AccountRepository) AccountReferenced(ctx context.Context, accountID string) (bool, error) {
	var referenced bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM journal_entry_lines WHERE account_id = $1)`,
		accountID).Scan(&referenced)
	if err != nil {
		return false, wrapError("account_referenced", err)
	}
	return referenced, nil
}

func scanAccount(op string, row pgx.Row) (*storage.Account, error) {
	var a storage.Account
	if err := scanOne(op, "account", row,
		&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.Active, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAccount(rows pgx.Rows) (*storage.Account, error) {
	var a storage.Account
	if err := rows.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.Active, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
