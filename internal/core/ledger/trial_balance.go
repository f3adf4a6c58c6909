package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saldo-labs/akuntansid/internal/storage"
)

// TrialBalanceRow is one account's netted balance, placed on its normal
// side.
type TrialBalanceRow struct {
	AccountID     string              `json:"account_id"`
	Code          string              `json:"code"`
	Name          string              `json:"name"`
	Type          storage.AccountType `json:"type"`
	DebitBalance  decimal.Decimal     `json:"debit_balance"`
	CreditBalance decimal.Decimal     `json:"credit_balance"`
}

// TrialBalanceReport lists every account balance as of a date.
type TrialBalanceReport struct {
	CompanyID   string            `json:"company_id"`
	AsOfDate    string            `json:"as_of_date"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	IsBalanced  bool              `json:"is_balanced"`
}

// TrialBalance sums all POSTED activity up to asOf and nets each account
// onto one side. The side is chosen by the sign of net = debits −
// credits: a positive net sits on the debit column, a negative net on
// the credit column, regardless of the account's normal side, so an
// overdrawn account is visible as such. Zero-net accounts are omitted
// unless includeZero is set.
func (s *Service) TrialBalance(ctx context.Context, companyID string, asOf time.Time, includeZero bool) (*TrialBalanceReport, error) {
	activity, err := s.store.Journal().PostedActivity(ctx, companyID, time.Time{}, asOf)
	if err != nil {
		return nil, err
	}

	report := &TrialBalanceReport{
		CompanyID:   companyID,
		AsOfDate:    asOf.Format("2006-01-02"),
		Rows:        make([]TrialBalanceRow, 0, len(activity)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}

	for _, act := range activity {
		net := act.DebitTotal.Sub(act.CreditTotal)
		if net.IsZero() && !includeZero {
			continue
		}

		row := TrialBalanceRow{
			AccountID:     act.AccountID,
			Code:          act.Code,
			Name:          act.Name,
			Type:          act.Type,
			DebitBalance:  decimal.Zero,
			CreditBalance: decimal.Zero,
		}
		switch {
		case net.Sign() > 0:
			row.DebitBalance = net
		case net.Sign() < 0:
			row.CreditBalance = net.Neg()
		}

		report.TotalDebit = report.TotalDebit.Add(row.DebitBalance)
		report.TotalCredit = report.TotalCredit.Add(row.CreditBalance)
		report.Rows = append(report.Rows, row)
	}

	report.IsBalanced = report.TotalDebit.Equal(report.TotalCredit)
	return report, nil
}

// Activity returns posted per-account debit and credit totals over
// [from, to]. Zero bounds are open-ended. The reporting service builds
// income statements and cash flow reports from this.
func (s *Service) Activity(ctx context.Context, companyID string, from, to time.Time) ([]*storage.AccountActivity, error) {
	return s.store.Journal().PostedActivity(ctx, companyID, from, to)
}
