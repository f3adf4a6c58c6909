package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
)

// Account codes from the standard Indonesian chart. The automatic
// journal entries address accounts by code so the invoice services do
// not need the ledger's account ids.
const (
	codeCash               = "1000" // Kas
	codeAccountsReceivable = "1200" // Piutang Usaha
	codeVATIn              = "1400" // PPN Masukan
	codeAccountsPayable    = "2000" // Hutang Usaha
	codeVATOut             = "2200" // PPN Keluaran
	codeSalesRevenue       = "4000" // Pendapatan Penjualan
	codeOtherExpense       = "6900" // Beban Operasional Lainnya
)

// EntryLine is one line of a journal entry request sent to the ledger
// service.
type EntryLine struct {
	AccountCode  string          `json:"account_code"`
	Description  string          `json:"description,omitempty"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
}

// EntryRequest is a journal entry request sent to the ledger service.
type EntryRequest struct {
	EntryDate   string      `json:"entry_date"`
	Description string      `json:"description"`
	Reference   string      `json:"reference,omitempty"`
	Lines       []EntryLine `json:"lines"`
}

// Journals creates journal entries linked to invoices and payments. A
// nil Journals disables automatic entries.
type Journals interface {
	CreateEntry(ctx context.Context, identity auth.Identity, in EntryRequest) (string, error)
}

// LedgerClient implements Journals against the ledger service HTTP API.
// Entries are created in DRAFT; the accounting team reviews and posts
// them through the normal approval flow.
type LedgerClient struct {
	base   string
	client *http.Client
}

// NewLedgerClient returns a client for the ledger service at baseURL.
func NewLedgerClient(baseURL string) *LedgerClient {
	return &LedgerClient{
		base:   baseURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *LedgerClient) CreateEntry(ctx context.Context, identity auth.Identity, in EntryRequest) (string, error) {
	const op = "invoice.ledger_client"

	payload, err := json.Marshal(in)
	if err != nil {
		return "", apperror.Internal(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/journal-entries", bytes.NewReader(payload))
	if err != nil {
		return "", apperror.Internal(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.HeaderUserID, identity.UserID)
	req.Header.Set(auth.HeaderCompanyID, identity.CompanyID)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperror.Dependency(op, "ledger", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", apperror.Dependency(op, "ledger", fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", apperror.Dependency(op, "ledger", err)
	}
	return created.ID, nil
}
