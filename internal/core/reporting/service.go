package reporting

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/core/ledger"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// Code range boundaries for the standard Indonesian chart. Assets below
// 1700 are current (cash, receivables, inventory, prepaids), 1700 and
// up are fixed. Liabilities below 2100 are current, 2100 and up are
// long term. Cost of sales occupies the 5xxx block.
const (
	codeNonCurrentAssetFrom = "1700"
	codeLongTermLiabFrom    = "2100"
	codeCostOfSalesFrom     = "5000"
	codeCostOfSalesTo       = "6000"
	codeCashTo              = "1200" // 1000..11xx: Kas, Kas Kecil, Bank
)

// Service composes reports from ledger data.
type Service struct {
	ledger LedgerAPI
	log    zerolog.Logger

	now func() time.Time
}

// NewService wires the reporting composer.
func NewService(ledgerAPI LedgerAPI, log zerolog.Logger) *Service {
	return &Service{ledger: ledgerAPI, log: log, now: time.Now}
}

// Line is one account row in a report section.
type Line struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Section groups report lines with their total.
type Section struct {
	Lines []Line          `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func newSection() Section {
	return Section{Lines: []Line{}, Total: decimal.Zero}
}

func (s *Section) add(code, name string, amount decimal.Decimal) {
	s.Lines = append(s.Lines, Line{Code: code, Name: name, Amount: amount})
	s.Total = s.Total.Add(amount)
}

// TrialBalance fetches the ledger's trial balance as of a date.
func (s *Service) TrialBalance(ctx context.Context, identity auth.Identity, asOf time.Time, includeZero bool) (*ledger.TrialBalanceReport, error) {
	return s.ledger.TrialBalance(ctx, identity, asOf, includeZero)
}

// BalanceSheet partitions the trial balance into the classic statement
// of financial position. Accumulated revenue and expense roll up into
// the current earnings equity line, so a balanced trial balance yields
// a balanced sheet.
type BalanceSheet struct {
	AsOfDate            string          `json:"as_of_date"`
	CurrentAssets       Section         `json:"current_assets"`
	NonCurrentAssets    Section         `json:"non_current_assets"`
	TotalAssets         decimal.Decimal `json:"total_assets"`
	CurrentLiabilities  Section         `json:"current_liabilities"`
	LongTermLiabilities Section         `json:"long_term_liabilities"`
	TotalLiabilities    decimal.Decimal `json:"total_liabilities"`
	Equity              Section         `json:"equity"`
	CurrentEarnings     decimal.Decimal `json:"current_earnings"`
	TotalEquity         decimal.Decimal `json:"total_equity"`
	IsBalanced          bool            `json:"is_balanced"`
}

// BalanceSheet builds the report as of a date. An unbalanced ledger is
// reported, not hidden: the sheet is returned with is_balanced false.
func (s *Service) BalanceSheet(ctx context.Context, identity auth.Identity, asOf time.Time) (*BalanceSheet, error) {
	tb, err := s.ledger.TrialBalance(ctx, identity, asOf, false)
	if err != nil {
		return nil, err
	}

	sheet := &BalanceSheet{
		AsOfDate:            tb.AsOfDate,
		CurrentAssets:       newSection(),
		NonCurrentAssets:    newSection(),
		CurrentLiabilities:  newSection(),
		LongTermLiabilities: newSection(),
		Equity:              newSection(),
		CurrentEarnings:     decimal.Zero,
	}

	for _, row := range tb.Rows {
		debitNet := row.DebitBalance.Sub(row.CreditBalance)
		creditNet := debitNet.Neg()

		switch row.Type {
		case storage.AccountAsset:
			if row.Code < codeNonCurrentAssetFrom {
				sheet.CurrentAssets.add(row.Code, row.Name, debitNet)
			} else {
				sheet.NonCurrentAssets.add(row.Code, row.Name, debitNet)
			}
		case storage.AccountLiability:
			if row.Code < codeLongTermLiabFrom {
				sheet.CurrentLiabilities.add(row.Code, row.Name, creditNet)
			} else {
				sheet.LongTermLiabilities.add(row.Code, row.Name, creditNet)
			}
		case storage.AccountEquity:
			sheet.Equity.add(row.Code, row.Name, creditNet)
		case storage.AccountRevenue:
			sheet.CurrentEarnings = sheet.CurrentEarnings.Add(creditNet)
		case storage.AccountExpense:
			sheet.CurrentEarnings = sheet.CurrentEarnings.Sub(debitNet)
		}
	}

	sheet.TotalAssets = sheet.CurrentAssets.Total.Add(sheet.NonCurrentAssets.Total)
	sheet.TotalLiabilities = sheet.CurrentLiabilities.Total.Add(sheet.LongTermLiabilities.Total)
	sheet.TotalEquity = sheet.Equity.Total.Add(sheet.CurrentEarnings)
	sheet.IsBalanced = sheet.TotalAssets.Equal(sheet.TotalLiabilities.Add(sheet.TotalEquity))
	if !sheet.IsBalanced {
		s.log.Warn().Str("company_id", identity.CompanyID).Str("as_of", sheet.AsOfDate).
			Msg("balance sheet does not balance")
	}
	return sheet, nil
}

// IncomeStatement reports revenue and expense activity over a window.
type IncomeStatement struct {
	PeriodStart       string          `json:"period_start"`
	PeriodEnd         string          `json:"period_end"`
	Revenue           Section         `json:"revenue"`
	CostOfSales       Section         `json:"cost_of_sales"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	OperatingExpenses Section         `json:"operating_expenses"`
	NetIncome         decimal.Decimal `json:"net_income"`
}

// IncomeStatement builds the report for [from, to].
func (s *Service) IncomeStatement(ctx context.Context, identity auth.Identity, from, to time.Time) (*IncomeStatement, error) {
	activity, err := s.ledger.Activity(ctx, identity, from, to)
	if err != nil {
		return nil, err
	}
	return buildIncomeStatement(from, to, activity), nil
}

func buildIncomeStatement(from, to time.Time, activity []*storage.AccountActivity) *IncomeStatement {
	stmt := &IncomeStatement{
		PeriodStart:       from.Format("2006-01-02"),
		PeriodEnd:         to.Format("2006-01-02"),
		Revenue:           newSection(),
		CostOfSales:       newSection(),
		OperatingExpenses: newSection(),
	}

	for _, act := range activity {
		switch act.Type {
		case storage.AccountRevenue:
			stmt.Revenue.add(act.Code, act.Name, act.CreditTotal.Sub(act.DebitTotal))
		case storage.AccountExpense:
			amount := act.DebitTotal.Sub(act.CreditTotal)
			if act.Code >= codeCostOfSalesFrom && act.Code < codeCostOfSalesTo {
				stmt.CostOfSales.add(act.Code, act.Name, amount)
			} else {
				stmt.OperatingExpenses.add(act.Code, act.Name, amount)
			}
		}
	}

	stmt.GrossProfit = stmt.Revenue.Total.Sub(stmt.CostOfSales.Total)
	stmt.NetIncome = stmt.GrossProfit.Sub(stmt.OperatingExpenses.Total)
	return stmt
}

// CashFlow summarizes the indirect-method cash flow statement: net
// income adjusted by working capital movements, investing from fixed
// asset movements, financing from long-term debt and equity movements.
type CashFlow struct {
	PeriodStart   string          `json:"period_start"`
	PeriodEnd     string          `json:"period_end"`
	Operating     decimal.Decimal `json:"operating"`
	Investing     decimal.Decimal `json:"investing"`
	Financing     decimal.Decimal `json:"financing"`
	NetCashChange decimal.Decimal `json:"net_cash_change"`
}

// CashFlow builds the report for [from, to].
func (s *Service) CashFlow(ctx context.Context, identity auth.Identity, from, to time.Time) (*CashFlow, error) {
	activity, err := s.ledger.Activity(ctx, identity, from, to)
	if err != nil {
		return nil, err
	}

	netIncome := decimal.Zero
	nonCashCurrentAssets := decimal.Zero
	currentLiabilities := decimal.Zero
	investing := decimal.Zero
	financing := decimal.Zero

	for _, act := range activity {
		debitNet := act.DebitTotal.Sub(act.CreditTotal)
		creditNet := debitNet.Neg()

		switch act.Type {
		case storage.AccountRevenue:
			netIncome = netIncome.Add(creditNet)
		case storage.AccountExpense:
			netIncome = netIncome.Sub(debitNet)
		case storage.AccountAsset:
			switch {
			case act.Code < codeCashTo:
				// Cash movements are the result, not an adjustment.
			case act.Code < codeNonCurrentAssetFrom:
				nonCashCurrentAssets = nonCashCurrentAssets.Add(debitNet)
			default:
				investing = investing.Sub(debitNet)
			}
		case storage.AccountLiability:
			if act.Code < codeLongTermLiabFrom {
				currentLiabilities = currentLiabilities.Add(creditNet)
			} else {
				financing = financing.Add(creditNet)
			}
		case storage.AccountEquity:
			financing = financing.Add(creditNet)
		}
	}

	operating := netIncome.Sub(nonCashCurrentAssets).Add(currentLiabilities)
	return &CashFlow{
		PeriodStart:   from.Format("2006-01-02"),
		PeriodEnd:     to.Format("2006-01-02"),
		Operating:     operating,
		Investing:     investing,
		Financing:     financing,
		NetCashChange: operating.Add(investing).Add(financing),
	}, nil
}

// ComparativeLine compares one account across two periods. A nil
// ChangePercent means the prior amount was zero.
type ComparativeLine struct {
	Code          string           `json:"code"`
	Name          string           `json:"name"`
	Current       decimal.Decimal  `json:"current"`
	Prior         decimal.Decimal  `json:"prior"`
	Change        decimal.Decimal  `json:"change"`
	ChangePercent *decimal.Decimal `json:"change_percent"`
}

// ComparativeReport sets two income statements side by side.
type ComparativeReport struct {
	Current          *IncomeStatement  `json:"current"`
	Prior            *IncomeStatement  `json:"prior"`
	Lines            []ComparativeLine `json:"lines"`
	NetIncomeChange  decimal.Decimal   `json:"net_income_change"`
	NetIncomePercent *decimal.Decimal  `json:"net_income_change_percent"`
}

// Comparative fans out both period fetches concurrently and joins the
// statements per account.
func (s *Service) Comparative(ctx context.Context, identity auth.Identity, currFrom, currTo, priorFrom, priorTo time.Time) (*ComparativeReport, error) {
	var current, prior *IncomeStatement

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stmt, err := s.IncomeStatement(gctx, identity, currFrom, currTo)
		if err != nil {
			return err
		}
		current = stmt
		return nil
	})
	g.Go(func() error {
		stmt, err := s.IncomeStatement(gctx, identity, priorFrom, priorTo)
		if err != nil {
			return err
		}
		prior = stmt
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &ComparativeReport{
		Current: current,
		Prior:   prior,
		Lines:   []ComparativeLine{},
	}

	type pair struct {
		name    string
		current decimal.Decimal
		prior   decimal.Decimal
	}
	byCode := map[string]*pair{}
	var order []string

	collect := func(stmt *IncomeStatement, isCurrent bool) {
		for _, section := range []Section{stmt.Revenue, stmt.CostOfSales, stmt.OperatingExpenses} {
			for _, line := range section.Lines {
				p, ok := byCode[line.Code]
				if !ok {
					p = &pair{name: line.Name, current: decimal.Zero, prior: decimal.Zero}
					byCode[line.Code] = p
					order = append(order, line.Code)
				}
				if isCurrent {
					p.current = line.Amount
				} else {
					p.prior = line.Amount
				}
			}
		}
	}
	collect(current, true)
	collect(prior, false)

	for _, code := range order {
		p := byCode[code]
		report.Lines = append(report.Lines, ComparativeLine{
			Code:          code,
			Name:          p.name,
			Current:       p.current,
			Prior:         p.prior,
			Change:        p.current.Sub(p.prior),
			ChangePercent: percentChange(p.current, p.prior),
		})
	}

	report.NetIncomeChange = current.NetIncome.Sub(prior.NetIncome)
	report.NetIncomePercent = percentChange(current.NetIncome, prior.NetIncome)
	return report, nil
}

// percentChange returns ((current − prior) / |prior|) × 100, or nil
// when prior is zero. A nil percent is serialized as null, never as an
// infinity.
func percentChange(current, prior decimal.Decimal) *decimal.Decimal {
	if prior.IsZero() {
		return nil
	}
	pct := current.Sub(prior).Div(prior.Abs()).Mul(decimal.NewFromInt(100)).Round(2)
	return &pct
}

// Summary fans out the main reports concurrently. A failed section is
// reported as {"error": "<service>"} instead of failing the whole
// response.
func (s *Service) Summary(ctx context.Context, identity auth.Identity, asOf time.Time) map[string]interface{} {
	periodStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := make(map[string]interface{}, 3)
	results := make([]interface{}, 3)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	run := func(i int, fetch func() (interface{}, error)) {
		g.Go(func() error {
			v, err := fetch()
			if err != nil {
				s.log.Error().Err(err).Msg("summary section failed")
				v = map[string]string{"error": "ledger"}
			}
			results[i] = v
			return nil
		})
	}
	run(0, func() (interface{}, error) { return s.TrialBalance(gctx, identity, asOf, false) })
	run(1, func() (interface{}, error) { return s.BalanceSheet(gctx, identity, asOf) })
	run(2, func() (interface{}, error) { return s.IncomeStatement(gctx, identity, periodStart, asOf) })
	_ = g.Wait()

	out["trial_balance"] = results[0]
	out["balance_sheet"] = results[1]
	out["income_statement"] = results[2]
	out["as_of_date"] = asOf.Format("2006-01-02")
	return out
}
