package coa

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

func TestCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, testIdentity, AccountInput{Code: "1000", Name: "Kas", Type: "asset"})
	require.NoError(t, err)
	assert.Equal(t, storage.AccountAsset, account.Type)
	assert.True(t, account.Active)

	got, err := svc.Get(ctx, testIdentity.CompanyID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kas", got.Name)

	// Another company cannot see it.
	_, err = svc.Get(ctx, "co-2", account.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, testIdentity, AccountInput{Code: "1000", Name: "Kas", Type: "CASH"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Create(ctx, testIdentity, AccountInput{Code: "  ", Name: "Kas", Type: "ASSET"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateDuplicateCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, testIdentity, AccountInput{Code: "1000", Name: "Kas", Type: "ASSET"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, testIdentity, AccountInput{Code: "1000", Name: "Kas Lagi", Type: "ASSET"})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	// Same code in another company is fine.
	other := auth.Identity{UserID: "user-2", CompanyID: "co-2"}
	_, err = svc.Create(ctx, other, AccountInput{Code: "1000", Name: "Kas", Type: "ASSET"})
	require.NoError(t, err)
}

func TestListFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, testIdentity, AccountInput{Code: "1000", Name: "Kas", Type: "ASSET"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, testIdentity, AccountInput{Code: "4000", Name: "Pendapatan Penjualan", Type: "REVENUE"})
	require.NoError(t, err)
	bank, err := svc.Create(ctx, testIdentity, AccountInput{Code: "1100", Name: "Bank", Type: "ASSET"})
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, testIdentity, bank.ID, UpdateInput{Active: &inactive})
	require.NoError(t, err)

	asset := storage.AccountAsset
	accounts, err := svc.List(ctx, testIdentity.CompanyID, storage.AccountFilter{Type: &asset})
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	active := true
	accounts, err = svc.List(ctx, testIdentity.CompanyID, storage.AccountFilter{Type: &asset, Active: &active})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "1000", accounts[0].Code)

	accounts, err = svc.List(ctx, testIdentity.CompanyID, storage.AccountFilter{Search: "penjualan"})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "4000", accounts[0].Code)
}

func TestUpdateMutableFieldsOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, testIdentity, AccountInput{Code: "1000", Name: "Kas", Type: "ASSET"})
	require.NoError(t, err)

	name := "Kas Utama"
	updated, err := svc.Update(ctx, testIdentity, account.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Kas Utama", updated.Name)
	assert.Equal(t, "1000", updated.Code)

	blank := "   "
	_, err = svc.Update(ctx, testIdentity, account.ID, UpdateInput{Name: &blank})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestDeleteGuardedByReferences(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, testIdentity, AccountInput{Code: "1000", Name: "Kas", Type: "ASSET"})
	require.NoError(t, err)

	// Reference the account from a journal line.
	require.NoError(t, store.Journal().InsertEntry(ctx, &storage.JournalEntry{
		ID: "je-1", CompanyID: testIdentity.CompanyID, EntryNumber: 1,
		Status: storage.EntryDraft,
	}))
	require.NoError(t, store.Journal().InsertLines(ctx, []*storage.JournalLine{
		{ID: "l-1", JournalEntryID: "je-1", AccountID: account.ID, LineNumber: 1},
	}))

	err = svc.Delete(ctx, testIdentity, account.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	free, err := svc.Create(ctx, testIdentity, AccountInput{Code: "1100", Name: "Bank", Type: "ASSET"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, testIdentity, free.ID))

	_, err = svc.Get(ctx, testIdentity.CompanyID, free.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestInstallTemplate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	accounts, err := svc.InstallTemplate(ctx, testIdentity)
	require.NoError(t, err)
	assert.Len(t, accounts, len(indonesianTemplate))

	// No duplicate codes and only known types in the template itself.
	seen := map[string]bool{}
	for _, a := range accounts {
		assert.False(t, seen[a.Code], "duplicate template code %s", a.Code)
		seen[a.Code] = true
		assert.True(t, a.Type.Valid())
	}

	// A second install is rejected.
	_, err = svc.InstallTemplate(ctx, testIdentity)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}
