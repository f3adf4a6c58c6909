package tax

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/storage"
	"github.com/saldo-labs/akuntansid/internal/storage/memory"
)

var testIdentity = auth.Identity{UserID: "user-1", CompanyID: "co-1", Email: "akun@saldo.id"}

func newTestService(t *testing.T) (*Service, *memory.Manager) {
	t.Helper()
	store := memory.NewManager()
	svc := NewService(store, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestCreateConfigurationValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateConfiguration(ctx, testIdentity, ConfigurationInput{
		TaxType: "VAT", Rate: d("11"), EffectiveDate: "2024-01-01",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.CreateConfiguration(ctx, testIdentity, ConfigurationInput{
		TaxType: "PPN", Rate: d("-1"), EffectiveDate: "2024-01-01",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.CreateConfiguration(ctx, testIdentity, ConfigurationInput{
		TaxType: "PPN", Rate: d("11"), EffectiveDate: "2024-06-01", EndDate: "2024-01-01",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCalculateUsesConfiguredRate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateConfiguration(ctx, testIdentity, ConfigurationInput{
		TaxType: "PPN", Rate: d("12"), EffectiveDate: "2024-01-01",
	})
	require.NoError(t, err)

	result, err := svc.Calculate(ctx, testIdentity.CompanyID, CalculationRequest{
		TaxType: "PPN", Amount: d("1000000"),
	})
	require.NoError(t, err)
	assert.True(t, result.TaxAmount.Equal(d("120000")), "got %s", result.TaxAmount)
	require.NotNil(t, result.Rate)
	assert.True(t, result.Rate.Equal(d("12")))
}

func TestCalculateRateOverrideWins(t *testing.T) {
	svc, _ := newTestService(t)
	override := d("10")

	result, err := svc.Calculate(context.Background(), testIdentity.CompanyID, CalculationRequest{
		TaxType: "PPN", Amount: d("2000000"), Rate: &override,
	})
	require.NoError(t, err)
	assert.True(t, result.TaxAmount.Equal(d("200000")), "got %s", result.TaxAmount)
}

func TestCalculatePPNFallsBackToDefaultRate(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Calculate(context.Background(), testIdentity.CompanyID, CalculationRequest{
		TaxType: "ppn", Amount: d("1000000"),
	})
	require.NoError(t, err)
	assert.True(t, result.TaxAmount.Equal(d("110000")), "got %s", result.TaxAmount)
}

func TestCalculateWithholdingRequiresRate(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Calculate(context.Background(), testIdentity.CompanyID, CalculationRequest{
		TaxType: "PPH23", Amount: d("1000000"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCalculatePPh21(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Calculate(context.Background(), testIdentity.CompanyID, CalculationRequest{
		TaxType: "PPH21", GrossAnnual: d("120000000"), MaritalStatus: "single",
	})
	require.NoError(t, err)
	assert.True(t, result.TaxAmount.Equal(d("3900000")), "got %s", result.TaxAmount)
	require.NotNil(t, result.PTKP)
	assert.True(t, result.PTKP.Equal(d("54000000")))
	require.NotNil(t, result.Taxable)
	assert.True(t, result.Taxable.Equal(d("66000000")))
}

func TestCalculatePPh29(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Calculate(context.Background(), testIdentity.CompanyID, CalculationRequest{
		TaxType: "PPH29", GrossAnnual: d("120000000"), MaritalStatus: "single",
		Prepaid: d("4000000"),
	})
	require.NoError(t, err)
	// Annual due 3,900,000 minus 4,000,000 prepaid clamps at zero.
	assert.True(t, result.TaxAmount.IsZero(), "got %s", result.TaxAmount)
}

func TestCalculatePenalty(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Calculate(context.Background(), testIdentity.CompanyID, CalculationRequest{
		TaxType: "PENALTY", Amount: d("10000000"), DaysLate: 45,
	})
	require.NoError(t, err)
	assert.True(t, result.TaxAmount.Equal(d("400000")), "got %s", result.TaxAmount)
}

func TestCalculateRejectsUnknownType(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Calculate(context.Background(), testIdentity.CompanyID, CalculationRequest{
		TaxType: "PPH26", Amount: d("100"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestRecordTransactionAndReport(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordTransaction(ctx, testIdentity, TransactionInput{
		TaxType: "PPN", BaseAmount: d("1000000"), TaxAmount: d("110000"),
		TransactionDate: "2024-05-10", Reference: "INV-001",
	})
	require.NoError(t, err)

	_, err = svc.RecordTransaction(ctx, testIdentity, TransactionInput{
		TaxType: "PPN", BaseAmount: d("2000000"), TaxAmount: d("220000"),
		TransactionDate: "2024-05-20",
	})
	require.NoError(t, err)

	txn, err := svc.RecordTransaction(ctx, testIdentity, TransactionInput{
		TaxType: "PPH23", BaseAmount: d("5000000"), TaxAmount: d("100000"),
		TransactionDate: "2024-05-15",
	})
	require.NoError(t, err)

	// Outside the report window.
	_, err = svc.RecordTransaction(ctx, testIdentity, TransactionInput{
		TaxType: "PPN", BaseAmount: d("9000000"), TaxAmount: d("990000"),
		TransactionDate: "2024-07-01",
	})
	require.NoError(t, err)

	report, err := svc.BuildReport(ctx, testIdentity.CompanyID, "",
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, report.Lines, 2)
	assert.Equal(t, storage.TaxPPh23, report.Lines[0].TaxType)
	assert.Equal(t, storage.TaxPPN, report.Lines[1].TaxType)
	assert.Equal(t, 2, report.Lines[1].TransactionCount)
	assert.True(t, report.Lines[1].TotalTax.Equal(d("330000")), "got %s", report.Lines[1].TotalTax)
	assert.True(t, report.TotalTax.Equal(d("430000")), "got %s", report.TotalTax)

	records, err := store.Audit().ListAuditRecords(ctx, testIdentity.CompanyID, "tax", txn.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "tax_transaction.create", records[0].Action)
}

func TestRecordTransactionValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordTransaction(ctx, testIdentity, TransactionInput{
		TaxType: "PPN", BaseAmount: d("-1"), TaxAmount: d("0"), TransactionDate: "2024-05-10",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.RecordTransaction(ctx, testIdentity, TransactionInput{
		TaxType: "PPN", BaseAmount: d("1"), TaxAmount: d("0"), TransactionDate: "05/10/2024",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestUpdateConfigurationKeepsType(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cfg, err := svc.CreateConfiguration(ctx, testIdentity, ConfigurationInput{
		TaxType: "PPH23", Rate: d("2"), EffectiveDate: "2024-01-01",
	})
	require.NoError(t, err)

	_, err = svc.UpdateConfiguration(ctx, testIdentity, cfg.ID, ConfigurationInput{
		TaxType: "PPN", Rate: d("11"), EffectiveDate: "2024-01-01",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	updated, err := svc.UpdateConfiguration(ctx, testIdentity, cfg.ID, ConfigurationInput{
		TaxType: "PPH23", Rate: d("4"), EffectiveDate: "2024-03-01",
	})
	require.NoError(t, err)
	assert.True(t, updated.Rate.Equal(d("4")))
}

func TestDeleteConfiguration(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cfg, err := svc.CreateConfiguration(ctx, testIdentity, ConfigurationInput{
		TaxType: "PPN", Rate: d("11"), EffectiveDate: "2024-01-01",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteConfiguration(ctx, testIdentity, cfg.ID))

	err = svc.DeleteConfiguration(ctx, testIdentity, cfg.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
