// Package reporting composes financial reports from data owned by the
// ledger service. It holds no tables of its own: every figure is
// fetched over HTTP with the caller's identity forwarded.
package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/core/ledger"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// callTimeout caps every upstream call. The effective deadline is the
// minimum of this and the incoming request deadline.
const callTimeout = 30 * time.Second

// LedgerAPI is the slice of the ledger service the composer needs.
type LedgerAPI interface {
	TrialBalance(ctx context.Context, identity auth.Identity, asOf time.Time, includeZero bool) (*ledger.TrialBalanceReport, error)
	Activity(ctx context.Context, identity auth.Identity, from, to time.Time) ([]*storage.AccountActivity, error)
}

// LedgerClient implements LedgerAPI against the ledger service HTTP
// API.
type LedgerClient struct {
	base   string
	client *http.Client
}

// NewLedgerClient returns a client for the ledger service at baseURL.
func NewLedgerClient(baseURL string) *LedgerClient {
	return &LedgerClient{
		base:   baseURL,
		client: &http.Client{Timeout: callTimeout},
	}
}

func (c *LedgerClient) TrialBalance(ctx context.Context, identity auth.Identity, asOf time.Time, includeZero bool) (*ledger.TrialBalanceReport, error) {
	query := url.Values{"as_of_date": {asOf.Format("2006-01-02")}}
	if includeZero {
		query.Set("include_zero", "true")
	}
	var report ledger.TrialBalanceReport
	if err := c.get(ctx, identity, "/api/trial-balance", query, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *LedgerClient) Activity(ctx context.Context, identity auth.Identity, from, to time.Time) ([]*storage.AccountActivity, error) {
	query := url.Values{}
	if !from.IsZero() {
		query.Set("date_from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		query.Set("date_to", to.Format("2006-01-02"))
	}
	var payload struct {
		Activity []*storage.AccountActivity `json:"activity"`
	}
	if err := c.get(ctx, identity, "/api/account-activity", query, &payload); err != nil {
		return nil, err
	}
	return payload.Activity, nil
}

func (c *LedgerClient) get(ctx context.Context, identity auth.Identity, path string, query url.Values, out interface{}) error {
	const op = "reporting.ledger_client"

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return apperror.Internal(op, err)
	}
	req.Header.Set(auth.HeaderUserID, identity.UserID)
	req.Header.Set(auth.HeaderCompanyID, identity.CompanyID)

	resp, err := c.client.Do(req)
	if err != nil {
		return apperror.Dependency(op, "ledger", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperror.Dependency(op, "ledger", fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.Dependency(op, "ledger", err)
	}
	return nil
}
