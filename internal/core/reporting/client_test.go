package reporting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
)

func TestLedgerClientForwardsIdentity(t *testing.T) {
	var gotPath, gotUser, gotCompany, gotAsOf string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser = r.Header.Get(auth.HeaderUserID)
		gotCompany = r.Header.Get(auth.HeaderCompanyID)
		gotAsOf = r.URL.Query().Get("as_of_date")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"company_id":"co-1","as_of_date":"2024-06-30","rows":[],"total_debit":"0","total_credit":"0","is_balanced":true}`))
	}))
	defer srv.Close()

	client := NewLedgerClient(srv.URL)
	report, err := client.TrialBalance(context.Background(), testIdentity,
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)

	assert.Equal(t, "/api/trial-balance", gotPath)
	assert.Equal(t, "user-1", gotUser)
	assert.Equal(t, "co-1", gotCompany)
	assert.Equal(t, "2024-06-30", gotAsOf)
	assert.True(t, report.IsBalanced)
}

func TestLedgerClientMapsUpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewLedgerClient(srv.URL)
	_, err := client.TrialBalance(context.Background(), testIdentity, time.Now(), false)
	require.Error(t, err)
	assert.True(t, apperror.IsDependency(err))
}

func TestLedgerClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // no listener left

	client := NewLedgerClient(srv.URL)
	_, err := client.Activity(context.Background(), testIdentity, time.Time{}, time.Time{})
	require.Error(t, err)
	assert.True(t, apperror.IsDependency(err))
}
