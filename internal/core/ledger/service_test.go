package ledger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/storage"
	"github.com/saldo-labs/akuntansid/internal/storage/memory"
)

var testIdentity = auth.Identity{UserID: "user-1", CompanyID: "co-1", Email: "akun@saldo.id"}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestService(t *testing.T) (*Service, *memory.Manager) {
	t.Helper()
	store := memory.NewManager()
	svc := NewService(store, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC) }
	return svc, store
}

// seedAccount creates an account directly in the store and returns its id.
func seedAccount(t *testing.T, store *memory.Manager, code, name string, accountType storage.AccountType) string {
	t.Helper()
	account := &storage.Account{
		ID:        uuid.NewString(),
		CompanyID: testIdentity.CompanyID,
		Code:      code,
		Name:      name,
		Type:      accountType,
		Active:    true,
	}
	require.NoError(t, store.Accounts().CreateAccount(context.Background(), account))
	return account.ID
}

func balancedInput(cashID, revenueID, amount string) EntryInput {
	return EntryInput{
		EntryDate:   "2024-03-15",
		Description: "Penjualan tunai",
		Lines: []LineInput{
			{AccountID: cashID, DebitAmount: d(amount)},
			{AccountID: revenueID, CreditAmount: d(amount)},
		},
	}
}

func TestCreateBalancedEntry(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	cash := seedAccount(t, store, "1000", "Kas", storage.AccountAsset)
	revenue := seedAccount(t, store, "4000", "Pendapatan", storage.AccountRevenue)

	entry, err := svc.Create(ctx, testIdentity, balancedInput(cash, revenue, "1000000"))
	require.NoError(t, err)
	assert.Equal(t, storage.EntryDraft, entry.Status)
	assert.False(t, entry.IsPosted)
	assert.Equal(t, int64(1), entry.EntryNumber)
	assert.True(t, entry.TotalDebit.Equal(d("1000000")))
	assert.True(t, entry.TotalCredit.Equal(d("1000000")))
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, 1, entry.Lines[0].LineNumber)

	// Round trip: fetch equals submitted up to server-assigned fields.
	got, err := svc.Get(ctx, testIdentity.CompanyID, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, entry.EntryNumber, got.EntryNumber)
	assert.Equal(t, "Penjualan tunai", got.Description)
	require.Len(t, got.Lines, 2)
	assert.True(t, got.Lines[0].DebitAmount.Equal(d("1000000")))

	// Numbers are monotone per company.
	second, err := svc.Create(ctx, testIdentity, balancedInput(cash, revenue, "50000"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.EntryNumber)
}

func TestCreateUnbalancedRejectedWithDelta(t *testing.T) {
	svc, store := newTestService(t)
	cash := seedAccount(t, store, "1000", "Kas", storage.AccountAsset)
	revenue := seedAccount(t, store, "4000", "Pendapatan", storage.AccountRevenue)

	_, err := svc.Create(context.Background(), testIdentity, EntryInput{
		EntryDate: "2024-03-15",
		Lines: []LineInput{
			{AccountID: cash, DebitAmount: d("1000000")},
			{AccountID: revenue, CreditAmount: d("999999")},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "differ by 1")
}

func TestCreateLineShapeRules(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	cash := seedAccount(t, store, "1000", "Kas", storage.AccountAsset)
	revenue := seedAccount(t, store, "4000", "Pendapatan", storage.AccountRevenue)

	// Fewer than two lines.
	_, err := svc.Create(ctx, testIdentity, EntryInput{
		EntryDate: "2024-03-15",
		Lines:     []LineInput{{AccountID: cash, DebitAmount: d("100")}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	// Both sides set on one line.
	_, err = svc.Create(ctx, testIdentity, EntryInput{
		EntryDate: "2024-03-15",
		Lines: []LineInput{
			{AccountID: cash, DebitAmount: d("100"), CreditAmount: d("100")},
			{AccountID: revenue, CreditAmount: d("100")},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	// Negative amount.
	_, err = svc.Create(ctx, testIdentity, EntryInput{
		EntryDate: "2024-03-15",
		Lines: []LineInput{
			{AccountID: cash, DebitAmount: d("-100")},
			{AccountID: revenue, CreditAmount: d("-100")},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	// Unknown account.
	_, err = svc.Create(ctx, testIdentity, EntryInput{
		EntryDate: "2024-03-15",
		Lines: []LineInput{
			{AccountID: "missing", DebitAmount: d("100")},
			{AccountID: revenue, CreditAmount: d("100")},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateRejectsInactiveAccount(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	cash := seedAccount(t, store, "1000", "Kas", storage.AccountAsset)
	revenue := seedAccount(t, store, "4000", "Pendapatan", storage.AccountRevenue)

	account, err := store.Accounts().GetAccount(ctx, testIdentity.CompanyID, revenue)
	require.NoError(t, err)
	account.Active = false
	require.NoError(t, store.Accounts().UpdateAccount(ctx, account))

	_, err = svc.Create(ctx, testIdentity, balancedInput(cash, revenue, "100"))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "inactive")
}

func TestLifecycleToPosting(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	cash := seedAccount(t, store, "1000", "Kas", storage.AccountAsset)
	revenue := seedAccount(t, store, "4000", "Pendapatan", storage.AccountRevenue)

	entry, err := svc.Create(ctx, testIdentity, balancedInput(cash, revenue, "1000000"))
	require.NoError(t, err)

	for _, target := range []storage.EntryStatus{
		storage.EntryPendingApproval, storage.EntryApproved, storage.EntryPosted,
	} {
		updated, err := svc.UpdateStatus(ctx, testIdentity, entry.ID, target)
		require.NoError(t, err, "transition to %s", target)
		assert.Equal(t, target, updated.Status)
	}

	posted, err := svc.Get(ctx, testIdentity.CompanyID, entry.ID)
	require.NoError(t, err)
	assert.True(t, posted.IsPosted)
	require.NotNil(t, posted.PostedAt)

	// Balances accumulated under the entry-date period.
	balances, err := store.Journal().GetBalances(ctx, testIdentity.CompanyID, "2024-03")
	require.NoError(t, err)
	require.Len(t, balances, 2)

	report, err := svc.TrialBalance(ctx, testIdentity.CompanyID, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "1000", report.Rows[0].Code)
	assert.True(t, report.Rows[0].DebitBalance.Equal(d("1000000")))
	assert.True(t, report.Rows[0].CreditBalance.IsZero())
	assert.Equal(t, "4000", report.Rows[1].Code)
	assert.True(t, report.Rows[1].CreditBalance.Equal(d("1000000")))
	assert.True(t, report.IsBalanced)
}

func TestForbiddenTransitions(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	cash := seedAccount(t, store, "1000", "Kas", storage.AccountAsset)
	revenue := seedAccount(t, store, "4000", "Pendapatan", storage.AccountRevenue)

	entry, err := svc.Create(ctx, testIdentity, balancedInput(cash, revenue, "1000"))
	require.NoError(t, err)

	// DRAFT cannot jump straight to POSTED.
	_, err = svc.UpdateStatus(ctx, testIdentity, entry.ID, storage.EntryPosted)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Contains(t, err.Error(), "invalid status transition")

	// Terminal states accept nothing.
	_, err = svc.UpdateStatus(ctx, testIdentity, entry.ID, storage.EntryCancelled)
	require.NoError(t, err)
	for _, target := range []storage.EntryStatus{
		storage.EntryDraft, storage.EntryPendingApproval, storage.EntryApproved, storage.EntryPosted,
	} {
		_, err = svc.UpdateStatus(ctx, testIdentity, entry.ID, target)
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err), "CANCELLED -> %s must be rejected", target)
	}
}

// TestTransitionTableClosure walks every (from, to) pair and checks the
// service agrees with the lifecycle table.
func TestTransitionTableClosure(t *testing.T) {
	statuses := []storage.EntryStatus{
		storage.EntryDraft, storage.EntryPendingApproval, storage.EntryApproved,
		storage.EntryPosted, storage.EntryCancelled,
	}
	allowed := map[string]bool{
		"DRAFT>PENDING_APPROVAL":     true,
		"DRAFT>CANCELLED":            true,
		"PENDING_APPROVAL>DRAFT":     true,
		"PENDING_APPROVAL>APPROVED":  true,
		"PENDING_APPROVAL>CANCELLED": true,
		"APPROVED>POSTED":            true,
		"APPROVED>CANCELLED":         true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			key := string(from) + ">" + string(to)
			assert.Equal(t, allowed[key], CanTransition(from, to), key)
		}
	}
}

func TestUnsubmitReturnsToDraft(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	cash := seedAccount(t, store, "1000", "Kas", storage.AccountAsset)
	revenue := seedAccount(t, store, "4000", "Pendapatan", storage.AccountRevenue)

	entry, err := svc.Create(ctx, testIdentity, balancedInput(cash, revenue, "1000"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, testIdentity, entry.ID, storage.EntryPendingApproval)
	require.NoError(t, err)
	back, err := svc.UpdateStatus(ctx, testIdentity, entry.ID, storage.EntryDraft)
	require.NoError(t, err)
	assert.Equal(t, storage.EntryDraft, back.Status)
}

func TestUpdateDraftReplacesLines(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	cash := seedAccount(t, store, "1000", "Kas", storage.AccountAsset)
	revenue := seedAccount(t, store, "4000", "Pendapatan", storage.AccountRevenue)

	entry, err := svc.Create(ctx, testIdentity, balancedInput(cash, revenue, "1000"))
	require.NoError(t, err)

	updated, err := svc.UpdateDraft(ctx, testIdentity, entry.ID, balancedInput(cash, revenue, "2500"))
	require.NoError(t, err)
	assert.Equal(t, entry.EntryNumber, updated.EntryNumber)
	assert.True(t, updated.TotalDebit.Equal(d("2500")))
	require.Len(t, updated.Lines, 2)

	// Posted entries are immutable.
	for _, target := range []storage.EntryStatus{
		storage.EntryPendingApproval, storage.EntryApproved, storage.EntryPosted,
	} {
		_, err = svc.UpdateStatus(ctx, testIdentity, entry.ID, target)
		require.NoError(t, err)
	}
	_, err = svc.UpdateDraft(ctx, testIdentity, entry.ID, balancedInput(cash, revenue, "9000"))
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestDeleteOnlyDraft(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	cash := seedAccount(t, store, "1000", "Kas", storage.AccountAsset)
	revenue := seedAccount(t, store, "4000", "Pendapatan", storage.AccountRevenue)

	entry, err := svc.Create(ctx, testIdentity, balancedInput(cash, revenue, "1000"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, testIdentity, entry.ID))

	_, err = svc.Get(ctx, testIdentity.CompanyID, entry.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	second, err := svc.Create(ctx, testIdentity, balancedInput(cash, revenue, "1000"))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, testIdentity, second.ID, storage.EntryPendingApproval)
	require.NoError(t, err)

	err = svc.Delete(ctx, testIdentity, second.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestReversePostedEntry(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	cash := seedAccount(t, store, "1000", "Kas", storage.AccountAsset)
	revenue := seedAccount(t, store, "4000", "Pendapatan", storage.AccountRevenue)

	entry, err := svc.Create(ctx, testIdentity, balancedInput(cash, revenue, "750000"))
	require.NoError(t, err)

	// Only POSTED entries can be reversed.
	_, err = svc.Reverse(ctx, testIdentity, entry.ID, ReverseInput{})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	for _, target := range []storage.EntryStatus{
		storage.EntryPendingApproval, storage.EntryApproved, storage.EntryPosted,
	} {
		_, err = svc.UpdateStatus(ctx, testIdentity, entry.ID, target)
		require.NoError(t, err)
	}

	reversal, err := svc.Reverse(ctx, testIdentity, entry.ID, ReverseInput{EntryDate: "2024-03-15"})
	require.NoError(t, err)
	assert.Equal(t, storage.EntryPosted, reversal.Status)
	assert.True(t, strings.HasPrefix(reversal.Reference, "REV-"))
	require.Len(t, reversal.Lines, 2)
	// Sides are swapped.
	assert.True(t, reversal.Lines[0].CreditAmount.Equal(d("750000")))
	assert.True(t, reversal.Lines[1].DebitAmount.Equal(d("750000")))

	// Net effect on the trial balance is zero; rows drop out entirely
	// without include_zero.
	report, err := svc.TrialBalance(ctx, testIdentity.CompanyID, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	assert.Empty(t, report.Rows)
	assert.True(t, report.IsBalanced)

	withZero, err := svc.TrialBalance(ctx, testIdentity.CompanyID, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), true)
	require.NoError(t, err)
	require.Len(t, withZero.Rows, 2)
	assert.True(t, withZero.Rows[0].DebitBalance.IsZero())
	assert.True(t, withZero.Rows[0].CreditBalance.IsZero())
}

func TestTrialBalanceAsOfCutoff(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	cash := seedAccount(t, store, "1000", "Kas", storage.AccountAsset)
	revenue := seedAccount(t, store, "4000", "Pendapatan", storage.AccountRevenue)

	post := func(in EntryInput) {
		entry, err := svc.Create(ctx, testIdentity, in)
		require.NoError(t, err)
		for _, target := range []storage.EntryStatus{
			storage.EntryPendingApproval, storage.EntryApproved, storage.EntryPosted,
		} {
			_, err = svc.UpdateStatus(ctx, testIdentity, entry.ID, target)
			require.NoError(t, err)
		}
	}

	march := balancedInput(cash, revenue, "100000")
	post(march)
	april := balancedInput(cash, revenue, "200000")
	april.EntryDate = "2024-04-10"
	post(april)

	report, err := svc.TrialBalance(ctx, testIdentity.CompanyID, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.True(t, report.Rows[0].DebitBalance.Equal(d("100000")), "april activity must be excluded")

	full, err := svc.TrialBalance(ctx, testIdentity.CompanyID, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	assert.True(t, full.Rows[0].DebitBalance.Equal(d("300000")))
	assert.True(t, full.IsBalanced)
}

func TestCompanyIsolation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	cash := seedAccount(t, store, "1000", "Kas", storage.AccountAsset)
	revenue := seedAccount(t, store, "4000", "Pendapatan", storage.AccountRevenue)

	entry, err := svc.Create(ctx, testIdentity, balancedInput(cash, revenue, "1000"))
	require.NoError(t, err)

	other := auth.Identity{UserID: "user-9", CompanyID: "co-9"}
	_, err = svc.Get(ctx, other.CompanyID, entry.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	// Accounts of another company cannot be referenced.
	_, err = svc.Create(ctx, other, balancedInput(cash, revenue, "1000"))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateResolvesAccountCodes(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	cash := seedAccount(t, store, "1000", "Kas", storage.AccountAsset)
	revenue := seedAccount(t, store, "4000", "Pendapatan", storage.AccountRevenue)

	// Callers that know only the standard chart codes, like the invoice
	// services, submit lines without account ids.
	entry, err := svc.Create(ctx, testIdentity, EntryInput{
		EntryDate:   "2024-03-15",
		Description: "Penjualan tunai",
		Lines: []LineInput{
			{AccountCode: "1000", DebitAmount: d("500000")},
			{AccountCode: "4000", CreditAmount: d("500000")},
		},
	})
	require.NoError(t, err)
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, cash, entry.Lines[0].AccountID)
	assert.Equal(t, revenue, entry.Lines[1].AccountID)

	_, err = svc.Create(ctx, testIdentity, EntryInput{
		EntryDate: "2024-03-15",
		Lines: []LineInput{
			{AccountCode: "9999", DebitAmount: d("1")},
			{AccountCode: "4000", CreditAmount: d("1")},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "9999")

	_, err = svc.Create(ctx, testIdentity, EntryInput{
		EntryDate: "2024-03-15",
		Lines: []LineInput{
			{DebitAmount: d("1")},
			{AccountCode: "4000", CreditAmount: d("1")},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}
