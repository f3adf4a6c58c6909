package tax

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/money"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// Service exposes tax configuration, calculation, transaction recording
// and reporting for the tax process.
type Service struct {
	store storage.Manager
	log   zerolog.Logger
	now   func() time.Time
}

// NewService wires a tax service over the given store.
func NewService(store storage.Manager, log zerolog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// ConfigurationInput carries a create/update request for a tax rate.
type ConfigurationInput struct {
	TaxType       string          `json:"tax_type" validate:"required"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate string          `json:"effective_date" validate:"required"`
	EndDate       string          `json:"end_date,omitempty"`
	Active        *bool           `json:"active,omitempty"`
}

func (s *Service) buildConfiguration(companyID string, in ConfigurationInput) (*storage.TaxConfiguration, error) {
	const op = "tax.build_configuration"

	taxType := storage.TaxType(strings.ToUpper(in.TaxType))
	if !taxType.Valid() {
		return nil, apperror.Validationf(op, "unknown tax_type %q", in.TaxType).WithField("tax_type")
	}
	if in.Rate.Sign() < 0 {
		return nil, apperror.Validation(op, "rate must not be negative").WithField("rate")
	}
	effective, err := time.Parse("2006-01-02", in.EffectiveDate)
	if err != nil {
		return nil, apperror.Validation(op, "effective_date must be YYYY-MM-DD").WithField("effective_date")
	}

	cfg := &storage.TaxConfiguration{
		ID:            uuid.NewString(),
		CompanyID:     companyID,
		TaxType:       taxType,
		Rate:          in.Rate,
		EffectiveDate: effective,
		Active:        true,
		CreatedAt:     s.now().UTC(),
	}
	if in.Active != nil {
		cfg.Active = *in.Active
	}
	if in.EndDate != "" {
		end, err := time.Parse("2006-01-02", in.EndDate)
		if err != nil {
			return nil, apperror.Validation(op, "end_date must be YYYY-MM-DD").WithField("end_date")
		}
		if end.Before(effective) {
			return nil, apperror.Validation(op, "end_date must not precede effective_date").WithField("end_date")
		}
		cfg.EndDate = &end
	}
	return cfg, nil
}

// CreateConfiguration stores a new rate configuration.
func (s *Service) CreateConfiguration(ctx context.Context, identity auth.Identity, in ConfigurationInput) (*storage.TaxConfiguration, error) {
	cfg, err := s.buildConfiguration(identity.CompanyID, in)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Tax().CreateTaxConfiguration(ctx, cfg); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, "tax_configuration.create", cfg.ID,
			fmt.Sprintf("%s rate %s%%", cfg.TaxType, cfg.Rate)))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company_id", cfg.CompanyID).Str("tax_type", string(cfg.TaxType)).
		Str("rate", cfg.Rate.String()).Msg("tax configuration created")
	return cfg, nil
}

// ListConfigurations returns every configuration of the company.
func (s *Service) ListConfigurations(ctx context.Context, companyID string) ([]*storage.TaxConfiguration, error) {
	return s.store.Tax().ListTaxConfigurations(ctx, companyID)
}

// UpdateConfiguration replaces the mutable fields of a configuration.
func (s *Service) UpdateConfiguration(ctx context.Context, identity auth.Identity, id string, in ConfigurationInput) (*storage.TaxConfiguration, error) {
	existing, err := s.store.Tax().GetTaxConfiguration(ctx, identity.CompanyID, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.buildConfiguration(identity.CompanyID, in)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	if updated.TaxType != existing.TaxType {
		return nil, apperror.Validation("tax.update_configuration", "tax_type of a configuration cannot change").WithField("tax_type")
	}

	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Tax().UpdateTaxConfiguration(ctx, updated); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, "tax_configuration.update", updated.ID,
			fmt.Sprintf("%s rate %s%%", updated.TaxType, updated.Rate)))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteConfiguration removes a configuration.
func (s *Service) DeleteConfiguration(ctx context.Context, identity auth.Identity, id string) error {
	return s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Tax().DeleteTaxConfiguration(ctx, identity.CompanyID, id); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, "tax_configuration.delete", id, ""))
	})
}

// CalculationRequest is the type-dispatched input of POST /tax-calculations.
type CalculationRequest struct {
	TaxType string `json:"tax_type" validate:"required"`
	// Amount is the base for PPN and the withholding variants, and the
	// unpaid tax for PENALTY.
	Amount decimal.Decimal `json:"amount"`
	// Rate overrides the configured rate when non-nil.
	Rate *decimal.Decimal `json:"rate,omitempty"`
	// Date selects which configured rate applies; defaults to today.
	Date string `json:"date,omitempty"`

	// PPh 21 / PPh 29 inputs.
	GrossAnnual   decimal.Decimal `json:"gross_annual"`
	MaritalStatus string          `json:"marital_status,omitempty"`
	Dependents    int             `json:"dependents,omitempty"`
	// Prepaid is the PPh 25 already paid, credited by PPh 29.
	Prepaid decimal.Decimal `json:"prepaid"`

	// DaysLate drives the PENALTY calculation.
	DaysLate int `json:"days_late,omitempty"`
}

// CalculationResult reports one computed tax amount plus the
// intermediate figures relevant to the type.
type CalculationResult struct {
	TaxType    string           `json:"tax_type"`
	BaseAmount decimal.Decimal  `json:"base_amount"`
	Rate       *decimal.Decimal `json:"rate,omitempty"`
	PTKP       *decimal.Decimal `json:"ptkp,omitempty"`
	Taxable    *decimal.Decimal `json:"taxable_income,omitempty"`
	Prepaid    *decimal.Decimal `json:"prepaid,omitempty"`
	DaysLate   int              `json:"days_late,omitempty"`
	TaxAmount  decimal.Decimal  `json:"tax_amount"`
}

// CalculationTypePenalty is accepted by Calculate in addition to the
// persistable tax types.
const CalculationTypePenalty = "PENALTY"

// Calculate dispatches on tax type and returns the rounded result. It
// performs no writes.
func (s *Service) Calculate(ctx context.Context, companyID string, req CalculationRequest) (*CalculationResult, error) {
	const op = "tax.calculate"

	taxType := strings.ToUpper(req.TaxType)
	if req.Amount.Sign() < 0 {
		return nil, apperror.Validation(op, "amount must not be negative").WithField("amount")
	}
	if req.GrossAnnual.Sign() < 0 {
		return nil, apperror.Validation(op, "gross_annual must not be negative").WithField("gross_annual")
	}

	switch taxType {
	case string(storage.TaxPPN):
		rate, err := s.resolveRate(ctx, companyID, storage.TaxPPN, req, &DefaultPPNRate)
		if err != nil {
			return nil, err
		}
		return rateResult(taxType, req.Amount, rate, PPN(req.Amount, rate)), nil

	case string(storage.TaxPPh22), string(storage.TaxPPh23), string(storage.TaxPPh25):
		rate, err := s.resolveRate(ctx, companyID, storage.TaxType(taxType), req, nil)
		if err != nil {
			return nil, err
		}
		return rateResult(taxType, req.Amount, rate, Withholding(req.Amount, rate)), nil

	case string(storage.TaxPPh21):
		ptkp := PTKP(req.MaritalStatus, req.Dependents)
		taxable := req.GrossAnnual.Sub(ptkp)
		if taxable.Sign() < 0 {
			taxable = decimal.Zero
		}
		tax := Progressive(taxable)
		return &CalculationResult{
			TaxType:    taxType,
			BaseAmount: req.GrossAnnual,
			PTKP:       &ptkp,
			Taxable:    &taxable,
			TaxAmount:  money.Round2(tax),
		}, nil

	case string(storage.TaxPPh29):
		if req.Prepaid.Sign() < 0 {
			return nil, apperror.Validation(op, "prepaid must not be negative").WithField("prepaid")
		}
		ptkp := PTKP(req.MaritalStatus, req.Dependents)
		taxable := req.GrossAnnual.Sub(ptkp)
		if taxable.Sign() < 0 {
			taxable = decimal.Zero
		}
		due := PPh29(Progressive(taxable), req.Prepaid)
		return &CalculationResult{
			TaxType:    taxType,
			BaseAmount: req.GrossAnnual,
			PTKP:       &ptkp,
			Taxable:    &taxable,
			Prepaid:    &req.Prepaid,
			TaxAmount:  money.Round2(due),
		}, nil

	case CalculationTypePenalty:
		if req.DaysLate < 0 {
			return nil, apperror.Validation(op, "days_late must not be negative").WithField("days_late")
		}
		return &CalculationResult{
			TaxType:    taxType,
			BaseAmount: req.Amount,
			DaysLate:   req.DaysLate,
			TaxAmount:  money.Round2(LatePenalty(req.Amount, req.DaysLate)),
		}, nil

	default:
		return nil, apperror.Validationf(op, "unknown tax_type %q", req.TaxType).WithField("tax_type")
	}
}

// resolveRate picks the request override, then the configured rate for
// the date, then the fallback. A nil fallback makes the rate mandatory.
func (s *Service) resolveRate(ctx context.Context, companyID string, taxType storage.TaxType, req CalculationRequest, fallback *decimal.Decimal) (decimal.Decimal, error) {
	const op = "tax.resolve_rate"

	if req.Rate != nil {
		if req.Rate.Sign() < 0 {
			return decimal.Zero, apperror.Validation(op, "rate must not be negative").WithField("rate")
		}
		return *req.Rate, nil
	}

	on := s.now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return decimal.Zero, apperror.Validation(op, "date must be YYYY-MM-DD").WithField("date")
		}
		on = parsed
	}

	cfg, err := s.store.Tax().ActiveRate(ctx, companyID, taxType, on)
	switch {
	case err == nil:
		return cfg.Rate, nil
	case apperror.IsNotFound(err) && fallback != nil:
		return *fallback, nil
	case apperror.IsNotFound(err):
		return decimal.Zero, apperror.Validationf(op, "no active rate configured for %s; supply rate", taxType).WithField("rate")
	default:
		return decimal.Zero, err
	}
}

func rateResult(taxType string, base, rate, tax decimal.Decimal) *CalculationResult {
	return &CalculationResult{
		TaxType:    taxType,
		BaseAmount: base,
		Rate:       &rate,
		TaxAmount:  money.Round2(tax),
	}
}

// TransactionInput records one taxable event.
type TransactionInput struct {
	TaxType         string          `json:"tax_type" validate:"required"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	TransactionDate string          `json:"transaction_date" validate:"required"`
	Reference       string          `json:"reference,omitempty"`
	Description     string          `json:"description,omitempty"`
}

// RecordTransaction validates and persists a taxable event for the
// periodic report.
func (s *Service) RecordTransaction(ctx context.Context, identity auth.Identity, in TransactionInput) (*storage.TaxTransaction, error) {
	const op = "tax.record_transaction"

	taxType := storage.TaxType(strings.ToUpper(in.TaxType))
	if !taxType.Valid() {
		return nil, apperror.Validationf(op, "unknown tax_type %q", in.TaxType).WithField("tax_type")
	}
	if in.BaseAmount.Sign() < 0 {
		return nil, apperror.Validation(op, "base_amount must not be negative").WithField("base_amount")
	}
	if in.TaxAmount.Sign() < 0 {
		return nil, apperror.Validation(op, "tax_amount must not be negative").WithField("tax_amount")
	}
	txDate, err := time.Parse("2006-01-02", in.TransactionDate)
	if err != nil {
		return nil, apperror.Validation(op, "transaction_date must be YYYY-MM-DD").WithField("transaction_date")
	}

	txn := &storage.TaxTransaction{
		ID:              uuid.NewString(),
		CompanyID:       identity.CompanyID,
		TaxType:         taxType,
		BaseAmount:      money.Round2(in.BaseAmount),
		TaxAmount:       money.Round2(in.TaxAmount),
		TransactionDate: txDate,
		Reference:       in.Reference,
		Description:     in.Description,
		CreatedAt:       s.now().UTC(),
	}

	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Tax().CreateTaxTransaction(ctx, txn); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, "tax_transaction.create", txn.ID,
			fmt.Sprintf("%s tax %s on base %s", txn.TaxType, txn.TaxAmount, txn.BaseAmount)))
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// ListTransactions returns recorded taxable events, optionally filtered.
func (s *Service) ListTransactions(ctx context.Context, companyID string, filter storage.TaxTransactionFilter) ([]*storage.TaxTransaction, error) {
	return s.store.Tax().ListTaxTransactions(ctx, companyID, filter)
}

// ReportLine aggregates one tax type over the report period.
type ReportLine struct {
	TaxType          storage.TaxType `json:"tax_type"`
	TransactionCount int             `json:"transaction_count"`
	TotalBase        decimal.Decimal `json:"total_base"`
	TotalTax         decimal.Decimal `json:"total_tax"`
}

// Report is the periodic tax summary.
type Report struct {
	CompanyID   string          `json:"company_id"`
	PeriodStart string          `json:"period_start"`
	PeriodEnd   string          `json:"period_end"`
	Lines       []ReportLine    `json:"lines"`
	TotalTax    decimal.Decimal `json:"total_tax"`
}

// BuildReport sums recorded transactions per tax type over the period.
// taxType empty means all types.
func (s *Service) BuildReport(ctx context.Context, companyID, taxType string, periodStart, periodEnd time.Time) (*Report, error) {
	const op = "tax.build_report"

	filter := storage.TaxTransactionFilter{DateFrom: &periodStart, DateTo: &periodEnd}
	if taxType != "" {
		t := storage.TaxType(strings.ToUpper(taxType))
		if !t.Valid() {
			return nil, apperror.Validationf(op, "unknown tax_type %q", taxType).WithField("tax_type")
		}
		filter.TaxType = &t
	}

	txns, err := s.store.Tax().ListTaxTransactions(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}

	byType := map[storage.TaxType]*ReportLine{}
	var order []storage.TaxType
	total := decimal.Zero
	for _, txn := range txns {
		line, ok := byType[txn.TaxType]
		if !ok {
			line = &ReportLine{TaxType: txn.TaxType, TotalBase: decimal.Zero, TotalTax: decimal.Zero}
			byType[txn.TaxType] = line
			order = append(order, txn.TaxType)
		}
		line.TransactionCount++
		line.TotalBase = line.TotalBase.Add(txn.BaseAmount)
		line.TotalTax = line.TotalTax.Add(txn.TaxAmount)
		total = total.Add(txn.TaxAmount)
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	report := &Report{
		CompanyID:   companyID,
		PeriodStart: periodStart.Format("2006-01-02"),
		PeriodEnd:   periodEnd.Format("2006-01-02"),
		Lines:       make([]ReportLine, 0, len(order)),
		TotalTax:    total,
	}
	for _, t := range order {
		report.Lines = append(report.Lines, *byType[t])
	}
	return report, nil
}

func (s *Service) auditRecord(identity auth.Identity, action, entityID, details string) *storage.AuditRecord {
	return &storage.AuditRecord{
		ID:         uuid.NewString(),
		CompanyID:  identity.CompanyID,
		UserID:     identity.UserID,
		Action:     action,
		EntityType: "tax",
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  s.now().UTC(),
	}
}
