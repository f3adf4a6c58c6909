package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// TaxRepository implements storage.TaxRepository on PostgreSQL.
type TaxRepository struct {
	q querier
}

var _ storage.TaxRepository = (*TaxRepository)(nil)

const taxConfigColumns = `id, company_id, tax_type, rate, effective_date, end_date, active, created_at`

func (r *TaxRepository) CreateTaxConfiguration(ctx context.Context, cfg *storage.TaxConfiguration) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO tax_configurations (`+taxConfigColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		cfg.ID, cfg.CompanyID, cfg.TaxType, cfg.Rate,
		cfg.EffectiveDate, cfg.EndDate, cfg.Active, cfg.CreatedAt)
	return wrapError("create_tax_configuration", err)
}

func (r *TaxRepository) GetTaxConfiguration(ctx context.Context, companyID, id string) (*storage.TaxConfiguration, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+taxConfigColumns+` FROM tax_configurations
		 WHERE company_id = $1 AND id = $2`,
		companyID, id)

	var cfg storage.TaxConfiguration
	if err := scanOne("get_tax_configuration", "tax configuration", row,
		&cfg.ID, &cfg.CompanyID, &cfg.TaxType, &cfg.Rate,
		&cfg.EffectiveDate, &cfg.EndDate, &cfg.Active, &cfg.CreatedAt); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *TaxRepository) ListTaxConfigurations(ctx context.Context, companyID string) ([]*storage.TaxConfiguration, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+taxConfigColumns+` FROM tax_configurations
		 WHERE company_id = $1 ORDER BY tax_type, effective_date DESC`,
		companyID)
	if err != nil {
		return nil, wrapError("list_tax_configurations", err)
	}
	defer rows.Close()

	var out []*storage.TaxConfiguration
	for rows.Next() {
		var cfg storage.TaxConfiguration
		if err := rows.Scan(&cfg.ID, &cfg.CompanyID, &cfg.TaxType, &cfg.Rate,
			&cfg.EffectiveDate, &cfg.EndDate, &cfg.Active, &cfg.CreatedAt); err != nil {
			return nil, wrapError("list_tax_configurations", err)
		}
		out = append(out, &cfg)
	}
	return out, wrapError("list_tax_configurations", rows.Err())
}

func (r *TaxRepository) UpdateTaxConfiguration(ctx context.Context, cfg *storage.TaxConfiguration) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE tax_configurations
		 SET rate = $3, effective_date = $4, end_date = $5, active = $6
		 WHERE company_id = $1 AND id = $2`,
		cfg.CompanyID, cfg.ID, cfg.Rate, cfg.EffectiveDate, cfg.EndDate, cfg.Active)
	if err != nil {
		return wrapError("update_tax_configuration", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("update_tax_configuration", "tax configuration")
	}
	return nil
}

func (r *TaxRepository) DeleteTaxConfiguration(ctx context.Context, companyID, id string) error {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM tax_configurations WHERE company_id = $1 AND id = $2`,
		companyID, id)
	if err != nil {
		return wrapError("delete_tax_configuration", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("delete_tax_configuration", "tax configuration")
	}
	return nil
}

// ActiveRate picks the newest active configuration whose effective
// window covers the date.
func (r *TaxRepository) ActiveRate(ctx context.Context, companyID string, taxType storage.TaxType, on time.Time) (*storage.TaxConfiguration, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+taxConfigColumns+` FROM tax_configurations
		 WHERE company_id = $1 AND tax_type = $2 AND active
		   AND effective_date <= $3
		   AND (end_date IS NULL OR end_date >= $3)
		 ORDER BY effective_date DESC LIMIT 1`,
		companyID, taxType, on)

	var cfg storage.TaxConfiguration
	if err := scanOne("active_rate", "tax configuration", row,
		&cfg.ID, &cfg.CompanyID, &cfg.TaxType, &cfg.Rate,
		&cfg.EffectiveDate, &cfg.EndDate, &cfg.Active, &cfg.CreatedAt); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *TaxRepository) CreateTaxTransaction(ctx context.Context, txn *storage.TaxTransaction) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO tax_transactions
		 (id, company_id, tax_type, base_amount, tax_amount, transaction_date, reference, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		txn.ID, txn.CompanyID, txn.TaxType, txn.BaseAmount, txn.TaxAmount,
		txn.TransactionDate, txn.Reference, txn.Description, txn.CreatedAt)
	return wrapError("create_tax_transaction", err)
}

func (r *TaxRepository) ListTaxTransactions(ctx context.Context, companyID string, filter storage.TaxTransactionFilter) ([]*storage.TaxTransaction, error) {
	var sb strings.Builder
	sb.WriteString(
		`SELECT id, company_id, tax_type, base_amount, tax_amount, transaction_date, reference, description, created_at
		 FROM tax_transactions WHERE company_id = $1`)
	args := []any{companyID}

	if filter.TaxType != nil {
		args = append(args, *filter.TaxType)
		fmt.Fprintf(&sb, " AND tax_type = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		fmt.Fprintf(&sb, " AND transaction_date >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		fmt.Fprintf(&sb, " AND transaction_date <= $%d", len(args))
	}
	sb.WriteString(" ORDER BY transaction_date, created_at")
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
		return nil, wrapError("list_tax_transactions", err)
	}
	defer rows.Close()

	var out []*storage.TaxTransaction
	for rows.Next() {
		var txn storage.TaxTransaction
		if err := rows.Scan(&txn.ID, &txn.CompanyID, &txn.TaxType,
			&txn.BaseAmount, &txn.TaxAmount, &txn.TransactionDate,
			&txn.Reference, &txn.Description, &txn.CreatedAt); err != nil {
			return nil, wrapError("list_tax_transactions", err)
		}
		out = append(out, &txn)
	}
	return out, wrapError("list_tax_transactions", rows.Err())
}
