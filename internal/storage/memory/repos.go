package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

type identityRepo struct{ repoBase }

func (r *identityRepo) CreateCompany(ctx context.Context, company *storage.Company) error {
	defer r.lk()()
	s := r.state()
	if _, ok := s.companies[company.ID]; ok {
		return apperror.Conflict("create_company", "duplicate value for companies_pkey")
	}
	s.companies[company.ID] = *company
	return nil
}

func (r *identityRepo) GetCompany(ctx context.Context, id string) (*storage.Company, error) {
	defer r.lk()()
	c, ok := r.state().companies[id]
	if !ok {
		return nil, apperror.NotFound("get_company", "company")
	}
	return &c, nil
}

func (r *identityRepo) CreateUser(ctx context.Context, user *storage.User) error {
	defer r.lk()()
	s := r.state()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperror.Conflict("create_user", "duplicate value for users_email_key")
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (r *identityRepo) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	defer r.lk()()
	for _, u := range r.state().users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, apperror.NotFound("get_user_by_email", "user")
}

func (r *identityRepo) GetUserByID(ctx context.Context, id string) (*storage.User, error) {
	defer r.lk()()
	u, ok := r.state().users[id]
	if !ok {
		return nil, apperror.NotFound("get_user_by_id", "user")
	}
	return &u, nil
}

func (r *identityRepo) SaveRefreshToken(ctx context.Context, token *storage.RefreshToken) error {
	defer r.lk()()
	s := r.state()
	if _, ok := s.refreshTokens[token.JTI]; ok {
		return apperror.Conflict("save_refresh_token", "duplicate value for refresh_tokens_pkey")
	}
	s.refreshTokens[token.JTI] = *token
	return nil
}

func (r *identityRepo) GetRefreshToken(ctx context.Context, jti string) (*storage.RefreshToken, error) {
	defer r.lk()()
	t, ok := r.state().refreshTokens[jti]
	if !ok {
		return nil, apperror.NotFound("get_refresh_token", "refresh token")
	}
	return &t, nil
}

func (r *identityRepo) RevokeRefreshToken(ctx context.Context, jti string) error {
	defer r.lk()()
	s := r.state()
	if t, ok := s.refreshTokens[jti]; ok {
		t.Revoked = true
		s.refreshTokens[jti] = t
	}
	return nil
}

func (r *identityRepo) RevokeRefreshTokensForUser(ctx context.Context, userID string) error {
	defer r.lk()()
	s := r.state()
	for jti, t := range s.refreshTokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			s.refreshTokens[jti] = t
		}
	}
	return nil
}

func (r *identityRepo) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	defer r.lk()()
	s := r.state()
	var n int64
	for jti, t := range s.refreshTokens {
		if t.ExpiresAt.Before(before) {
			delete(s.refreshTokens, jti)
			n++
		}
	}
	return n, nil
}

type accountRepo struct{ repoBase }

func (r *accountRepo) CreateAccount(ctx context.Context, account *storage.Account) error {
	defer r.lk()()
	return r.insert(account)
}

func (r *accountRepo) CreateAccounts(ctx context.Context, accounts []*storage.Account) error {
	defer r.lk()()
	for _, a := range accounts {
		if err := r.insert(a); err != nil {
			return err
		}
	}
	return nil
}

func (r *accountRepo) insert(account *storage.Account) error {
	s := r.state()
	for _, a := range s.accounts {
		if a.CompanyID == account.CompanyID && a.Code == account.Code {
			return apperror.Conflict("create_account", "duplicate value for accounts_company_id_code_key")
		}
	}
	s.accounts[account.ID] = *account
	return nil
}

func (r *accountRepo) GetAccount(ctx context.Context, companyID, id string) (*storage.Account, error) {
	defer r.lk()()
	a, ok := r.state().accounts[id]
	if !ok || a.CompanyID != companyID {
		return nil, apperror.NotFound("get_account", "account")
	}
	return &a, nil
}

func (r *accountRepo) GetAccountByCode(ctx context.Context, companyID, code string) (*storage.Account, error) {
	defer r.lk()()
	for _, a := range r.state().accounts {
		if a.CompanyID == companyID && a.Code == code {
			a := a
			return &a, nil
		}
	}
	return nil, apperror.NotFound("get_account_by_code", "account")
}

func (r *accountRepo) GetAccountsByIDs(ctx context.Context, companyID string, ids []string) (map[string]*storage.Account, error) {
	defer r.lk()()
	out := make(map[string]*storage.Account, len(ids))
	for _, id := range ids {
		if a, ok := r.state().accounts[id]; ok && a.CompanyID == companyID {
			a := a
			out[id] = &a
		}
	}
	return out, nil
}

func (r *accountRepo) ListAccounts(ctx context.Context, companyID string, filter storage.AccountFilter) ([]*storage.Account, error) {
	defer r.lk()()
	var out []*storage.Account
	for _, a := range r.state().accounts {
		if a.CompanyID != companyID {
			continue
		}
		if filter.Type != nil && a.Type != *filter.Type {
			continue
		}
		if filter.Active != nil && a.Active != *filter.Active {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(a.Code), needle) &&
				!strings.Contains(strings.ToLower(a.Name), needle) {
				continue
			}
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *accountRepo) CountAccounts(ctx context.Context, companyID string) (int64, error) {
	defer r.lk()()
	var n int64
	for _, a := range r.state().accounts {
		if a.CompanyID == companyID {
			n++
		}
	}
	return n, nil
}

func (r *accountRepo) UpdateAccount(ctx context.Context, account *storage.Account) error {
	defer r.lk()()
	s := r.state()
	existing, ok := s.accounts[account.ID]
	if !ok || existing.CompanyID != account.CompanyID {
		return apperror.NotFound("update_account", "account")
	}
	for id, a := range s.accounts {
		if id != account.ID && a.CompanyID == account.CompanyID && a.Code == account.Code {
			return apperror.Conflict("update_account", "duplicate value for accounts_company_id_code_key")
		}
	}
	s.accounts[account.ID] = *account
	return nil
}

func (r *accountRepo) DeleteAccount(ctx context.Context, companyID, id string) error {
	defer r.lk()()
	s := r.state()
	a, ok := s.accounts[id]
	if !ok || a.CompanyID != companyID {
		return apperror.NotFound("delete_account", "account")
	}
	delete(s.accounts, id)
	return nil
}

func (r *accountRepo) AccountReferenced(ctx context.Context, accountID string) (bool, error) {
	defer r.lk()()
	for _, lines := range r.state().lines {
		for _, l := range lines {
			if l.AccountID == accountID {
				return true, nil
			}
		}
	}
	return false, nil
}

type journalRepo struct{ repoBase }

func (r *journalRepo) NextEntryNumber(ctx context.Context, companyID string) (int64, error) {
	defer r.lk()()
	s := r.state()
	s.counters[companyID]++
	return s.counters[companyID], nil
}

func (r *journalRepo) InsertEntry(ctx context.Context, entry *storage.JournalEntry) error {
	defer r.lk()()
	s := r.state()
	for _, e := range s.entries {
		if e.CompanyID == entry.CompanyID && e.EntryNumber == entry.EntryNumber {
			return apperror.Conflict("insert_entry", "duplicate value for journal_entries_company_id_entry_number_key")
		}
	}
	s.entries[entry.ID] = *entry
	return nil
}

func (r *journalRepo) InsertLines(ctx context.Context, lines []*storage.JournalLine) error {
	defer r.lk()()
	s := r.state()
	for _, l := range lines {
		s.lines[l.JournalEntryID] = append(s.lines[l.JournalEntryID], *l)
	}
	return nil
}

func (r *journalRepo) GetEntry(ctx context.Context, companyID, id string) (*storage.JournalEntry, error) {
	defer r.lk()()
	e, ok := r.state().entries[id]
	if !ok || e.CompanyID != companyID {
		return nil, apperror.NotFound("get_entry", "journal entry")
	}
	return &e, nil
}

func (r *journalRepo) GetLines(ctx context.Context, entryID string) ([]*storage.JournalLine, error) {
	defer r.lk()()
	stored := r.state().lines[entryID]
	out := make([]*storage.JournalLine, 0, len(stored))
	for _, l := range stored {
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNumber < out[j].LineNumber })
	return out, nil
}

func (r *journalRepo) ListEntries(ctx context.Context, companyID string, filter storage.EntryFilter) ([]*storage.JournalEntry, error) {
	defer r.lk()()
	var out []*storage.JournalEntry
	for _, e := range r.state().entries {
		if e.CompanyID != companyID {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.DateFrom != nil && e.EntryDate.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && e.EntryDate.After(*filter.DateTo) {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryNumber > out[j].EntryNumber })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *journalRepo) UpdateEntryHeader(ctx context.Context, entry *storage.JournalEntry) error {
	defer r.lk()()
	s := r.state()
	existing, ok := s.entries[entry.ID]
	if !ok || existing.CompanyID != entry.CompanyID {
		return apperror.NotFound("update_entry_header", "journal entry")
	}
	existing.EntryDate = entry.EntryDate
	existing.Description = entry.Description
	existing.Reference = entry.Reference
	existing.TotalDebit = entry.TotalDebit
	existing.TotalCredit = entry.TotalCredit
	s.entries[entry.ID] = existing
	return nil
}

func (r *journalRepo) UpdateEntryStatus(ctx context.Context, companyID, id string, status storage.EntryStatus, isPosted bool, postedAt *time.Time) error {
	defer r.lk()()
	s := r.state()
	e, ok := s.entries[id]
	if !ok || e.CompanyID != companyID {
		return apperror.NotFound("update_entry_status", "journal entry")
	}
	e.Status = status
	e.IsPosted = isPosted
	e.PostedAt = postedAt
	s.entries[id] = e
	return nil
}

func (r *journalRepo) DeleteEntry(ctx context.Context, companyID, id string) error {
	defer r.lk()()
	s := r.state()
	e, ok := s.entries[id]
	if !ok || e.CompanyID != companyID {
		return apperror.NotFound("delete_entry", "journal entry")
	}
	delete(s.entries, id)
	delete(s.lines, id)
	return nil
}

func balanceKey(companyID, accountID, period string) string {
	return companyID + "|" + accountID + "|" + period
}

func (r *journalRepo) ApplyBalance(ctx context.Context, companyID, accountID, period string, debit, credit decimal.Decimal) error {
	defer r.lk()()
	s := r.state()
	key := balanceKey(companyID, accountID, period)
	b, ok := s.balances[key]
	if !ok {
		b = storage.AccountBalance{
			CompanyID: companyID, AccountID: accountID, Period: period,
			DebitTotal: decimal.Zero, CreditTotal: decimal.Zero,
		}
	}
	b.DebitTotal = b.DebitTotal.Add(debit)
	b.CreditTotal = b.CreditTotal.Add(credit)
	s.balances[key] = b
	return nil
}

func (r *journalRepo) GetBalances(ctx context.Context, companyID, period string) ([]*storage.AccountBalance, error) {
	defer r.lk()()
	var out []*storage.AccountBalance
	for _, b := range r.state().balances {
		if b.CompanyID == companyID && b.Period == period {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

func (r *journalRepo) PostedActivity(ctx context.Context, companyID string, from, to time.Time) ([]*storage.AccountActivity, error) {
	defer r.lk()()
	s := r.state()
	byAccount := map[string]*storage.AccountActivity{}
	for _, e := range s.entries {
		if e.CompanyID != companyID || !e.IsPosted {
			continue
		}
		if !from.IsZero() && e.EntryDate.Before(from) {
			continue
		}
		if !to.IsZero() && e.EntryDate.After(to) {
			continue
		}
		for _, l := range s.lines[e.ID] {
			acct, ok := s.accounts[l.AccountID]
			if !ok {
				continue
			}
			act, ok := byAccount[l.AccountID]
			if !ok {
				act = &storage.AccountActivity{
					AccountID: acct.ID, Code: acct.Code, Name: acct.Name, Type: acct.Type,
					DebitTotal: decimal.Zero, CreditTotal: decimal.Zero,
				}
				byAccount[l.AccountID] = act
			}
			act.DebitTotal = act.DebitTotal.Add(l.DebitAmount)
			act.CreditTotal = act.CreditTotal.Add(l.CreditAmount)
		}
	}

	out := make([]*storage.AccountActivity, 0, len(byAccount))
	for _, act := range byAccount {
		out = append(out, act)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type invoiceRepo struct{ repoBase }

func (r *invoiceRepo) CreateParty(ctx context.Context, kind storage.InvoiceKind, party *storage.Party) error {
	defer r.lk()()
	s := r.state()
	for _, p := range s.parties[kind] {
		if p.CompanyID == party.CompanyID && p.Code == party.Code {
			return apperror.Conflict("create_party", "duplicate value for party code")
		}
	}
	s.parties[kind][party.ID] = *party
	return nil
}

func (r *invoiceRepo) GetParty(ctx context.Context, kind storage.InvoiceKind, companyID, id string) (*storage.Party, error) {
	defer r.lk()()
	p, ok := r.state().parties[kind][id]
	if !ok || p.CompanyID != companyID {
		return nil, apperror.NotFound("get_party", "party")
	}
	return &p, nil
}

func (r *invoiceRepo) ListParties(ctx context.Context, kind storage.InvoiceKind, companyID string, filter storage.PartyFilter) ([]*storage.Party, error) {
	defer r.lk()()
	var out []*storage.Party
	for _, p := range r.state().parties[kind] {
		if p.CompanyID != companyID {
			continue
		}
		if filter.Active != nil && p.Active != *filter.Active {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.Code), needle) &&
				!strings.Contains(strings.ToLower(p.Name), needle) {
				continue
			}
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *invoiceRepo) UpdateParty(ctx context.Context, kind storage.InvoiceKind, party *storage.Party) error {
	defer r.lk()()
	s := r.state()
	existing, ok := s.parties[kind][party.ID]
	if !ok || existing.CompanyID != party.CompanyID {
		return apperror.NotFound("update_party", "party")
	}
	s.parties[kind][party.ID] = *party
	return nil
}

func (r *invoiceRepo) CreateInvoice(ctx context.Context, kind storage.InvoiceKind, invoice *storage.Invoice) error {
	defer r.lk()()
	s := r.state()
	for _, inv := range s.invoices[kind] {
		if inv.CompanyID == invoice.CompanyID && inv.PartyID == invoice.PartyID &&
			inv.InvoiceNumber == invoice.InvoiceNumber {
			return apperror.Conflict("create_invoice", "duplicate value for invoice number")
		}
	}
	s.invoices[kind][invoice.ID] = *invoice
	return nil
}

func (r *invoiceRepo) GetInvoice(ctx context.Context, kind storage.InvoiceKind, companyID, id string, forUpdate bool) (*storage.Invoice, error) {
	defer r.lk()()
	inv, ok := r.state().invoices[kind][id]
	if !ok || inv.CompanyID != companyID {
		return nil, apperror.NotFound("get_invoice", "invoice")
	}
	return &inv, nil
}

func (r *invoiceRepo) ListInvoices(ctx context.Context, kind storage.InvoiceKind, companyID string, filter storage.InvoiceFilter) ([]*storage.Invoice, error) {
	defer r.lk()()
	var out []*storage.Invoice
	for _, inv := range r.state().invoices[kind] {
		if inv.CompanyID != companyID {
			continue
		}
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		if filter.PartyID != "" && inv.PartyID != filter.PartyID {
			continue
		}
		inv := inv
		out = append(out, &inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].InvoiceDate.Equal(out[j].InvoiceDate) {
			return out[i].InvoiceDate.After(out[j].InvoiceDate)
		}
		return out[i].InvoiceNumber > out[j].InvoiceNumber
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *invoiceRepo) UpdateInvoice(ctx context.Context, kind storage.InvoiceKind, invoice *storage.Invoice) error {
	defer r.lk()()
	s := r.state()
	existing, ok := s.invoices[kind][invoice.ID]
	if !ok || existing.CompanyID != invoice.CompanyID {
		return apperror.NotFound("update_invoice", "invoice")
	}
	existing.PaidAmount = invoice.PaidAmount
	existing.Status = invoice.Status
	existing.JournalEntryID = invoice.JournalEntryID
	existing.Description = invoice.Description
	existing.UpdatedAt = invoice.UpdatedAt
	s.invoices[kind][invoice.ID] = existing
	return nil
}

func (r *invoiceRepo) InsertPayment(ctx context.Context, payment *storage.Payment) error {
	defer r.lk()()
	s := r.state()
	s.payments[payment.ID] = *payment
	s.paymentOrder = append(s.paymentOrder, payment.ID)
	return nil
}

func (r *invoiceRepo) ListPayments(ctx context.Context, invoiceID string) ([]*storage.Payment, error) {
	defer r.lk()()
	s := r.state()
	var out []*storage.Payment
	for _, id := range s.paymentOrder {
		p, ok := s.payments[id]
		if !ok || p.InvoiceID != invoiceID {
			continue
		}
		out = append(out, &p)
	}
	return out, nil
}

func (r *invoiceRepo) LatestActivePayment(ctx context.Context, invoiceID string) (*storage.Payment, error) {
	defer r.lk()()
	s := r.state()
	for i := len(s.paymentOrder) - 1; i >= 0; i-- {
		p, ok := s.payments[s.paymentOrder[i]]
		if ok && p.InvoiceID == invoiceID && !p.Reversed {
			return &p, nil
		}
	}
	return nil, apperror.NotFound("latest_active_payment", "payment")
}

func (r *invoiceRepo) MarkPaymentReversed(ctx context.Context, paymentID string) error {
	defer r.lk()()
	s := r.state()
	p, ok := s.payments[paymentID]
	if !ok || p.Reversed {
		return apperror.NotFound("mark_payment_reversed", "payment")
	}
	p.Reversed = true
	s.payments[paymentID] = p
	return nil
}

func (r *invoiceRepo) OutstandingInvoices(ctx context.Context, kind storage.InvoiceKind, companyID string) ([]*storage.OutstandingInvoice, error) {
	defer r.lk()()
	s := r.state()
	var out []*storage.OutstandingInvoice
	for _, inv := range s.invoices[kind] {
		if inv.CompanyID != companyID {
			continue
		}
		if inv.Status == storage.InvoicePaid || inv.Status == storage.InvoiceCancelled {
			continue
		}
		if !inv.TotalAmount.GreaterThan(inv.PaidAmount) {
			continue
		}
		oi := storage.OutstandingInvoice{Invoice: inv}
		if p, ok := s.parties[kind][inv.PartyID]; ok {
			oi.PartyName = p.Name
			oi.PartyCode = p.Code
		}
		out = append(out, &oi)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PartyName != out[j].PartyName {
			return out[i].PartyName < out[j].PartyName
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out, nil
}

type taxRepo struct{ repoBase }

func (r *taxRepo) CreateTaxConfiguration(ctx context.Context, cfg *storage.TaxConfiguration) error {
	defer r.lk()()
	r.state().taxConfigs[cfg.ID] = *cfg
	return nil
}

func (r *taxRepo) GetTaxConfiguration(ctx context.Context, companyID, id string) (*storage.TaxConfiguration, error) {
	defer r.lk()()
	cfg, ok := r.state().taxConfigs[id]
	if !ok || cfg.CompanyID != companyID {
		return nil, apperror.NotFound("get_tax_configuration", "tax configuration")
	}
	return &cfg, nil
}

func (r *taxRepo) ListTaxConfigurations(ctx context.Context, companyID string) ([]*storage.TaxConfiguration, error) {
	defer r.lk()()
	var out []*storage.TaxConfiguration
	for _, cfg := range r.state().taxConfigs {
		if cfg.CompanyID == companyID {
			cfg := cfg
			out = append(out, &cfg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaxType != out[j].TaxType {
			return out[i].TaxType < out[j].TaxType
		}
		return out[i].EffectiveDate.After(out[j].EffectiveDate)
	})
	return out, nil
}

func (r *taxRepo) UpdateTaxConfiguration(ctx context.Context, cfg *storage.TaxConfiguration) error {
	defer r.lk()()
	s := r.state()
	existing, ok := s.taxConfigs[cfg.ID]
	if !ok || existing.CompanyID != cfg.CompanyID {
		return apperror.NotFound("update_tax_configuration", "tax configuration")
	}
	existing.Rate = cfg.Rate
	existing.EffectiveDate = cfg.EffectiveDate
	existing.EndDate = cfg.EndDate
	existing.Active = cfg.Active
	s.taxConfigs[cfg.ID] = existing
	return nil
}

func (r *taxRepo) DeleteTaxConfiguration(ctx context.Context, companyID, id string) error {
	defer r.lk()()
	s := r.state()
	cfg, ok := s.taxConfigs[id]
	if !ok || cfg.CompanyID != companyID {
		return apperror.NotFound("delete_tax_configuration", "tax configuration")
	}
	delete(s.taxConfigs, id)
	return nil
}

func (r *taxRepo) ActiveRate(ctx context.Context, companyID string, taxType storage.TaxType, on time.Time) (*storage.TaxConfiguration, error) {
	defer r.lk()()
	var best *storage.TaxConfiguration
	for _, cfg := range r.state().taxConfigs {
		if cfg.CompanyID != companyID || cfg.TaxType != taxType || !cfg.Active {
			continue
		}
		if cfg.EffectiveDate.After(on) {
			continue
		}
		if cfg.EndDate != nil && cfg.EndDate.Before(on) {
			continue
		}
		if best == nil || cfg.EffectiveDate.After(best.EffectiveDate) {
			cfg := cfg
			best = &cfg
		}
	}
	if best == nil {
		return nil, apperror.NotFound("active_rate", "tax configuration")
	}
	return best, nil
}

func (r *taxRepo) CreateTaxTransaction(ctx context.Context, txn *storage.TaxTransaction) error {
	defer r.lk()()
	s := r.state()
	s.taxTxns = append(s.taxTxns, *txn)
	return nil
}

func (r *taxRepo) ListTaxTransactions(ctx context.Context, companyID string, filter storage.TaxTransactionFilter) ([]*storage.TaxTransaction, error) {
	defer r.lk()()
	var out []*storage.TaxTransaction
	for _, txn := range r.state().taxTxns {
		if txn.CompanyID != companyID {
			continue
		}
		if filter.TaxType != nil && txn.TaxType != *filter.TaxType {
			continue
		}
		if filter.DateFrom != nil && txn.TransactionDate.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && txn.TransactionDate.After(*filter.DateTo) {
			continue
		}
		txn := txn
		out = append(out, &txn)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TransactionDate.Before(out[j].TransactionDate)
	})
	return page(out, filter.Limit, filter.Offset), nil
}

type auditRepo struct{ repoBase }

func (r *auditRepo) InsertAuditRecord(ctx context.Context, record *storage.AuditRecord) error {
	defer r.lk()()
	s := r.state()
	s.audits = append(s.audits, *record)
	return nil
}

func (r *auditRepo) ListAuditRecords(ctx context.Context, companyID, entityType, entityID string) ([]*storage.AuditRecord, error) {
	defer r.lk()()
	var out []*storage.AuditRecord
	for _, rec := range r.state().audits {
		if rec.CompanyID == companyID && rec.EntityType == entityType && rec.EntityID == entityID {
			rec := rec
			out = append(out, &rec)
		}
	}
	return out, nil
}

// page applies LIMIT/OFFSET semantics to a sorted result.
func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
