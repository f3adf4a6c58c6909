// Package ledger implements the general-ledger engine: journal entries
// with double-entry invariants, the entry lifecycle state machine,
// posting to period account balances, reversing entries and the trial
// balance.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/money"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// transitions is the lifecycle table. A missing target means the step is
// forbidden. PENDING_APPROVAL may step back to DRAFT (unsubmit).
var transitions = map[storage.EntryStatus][]storage.EntryStatus{
	storage.EntryDraft:           {storage.EntryPendingApproval, storage.EntryCancelled},
	storage.EntryPendingApproval: {storage.EntryDraft, storage.EntryApproved, storage.EntryCancelled},
	storage.EntryApproved:        {storage.EntryPosted, storage.EntryCancelled},
	storage.EntryPosted:          {},
	storage.EntryCancelled:       {},
}

// CanTransition reports whether the lifecycle allows from → to.
func CanTransition(from, to storage.EntryStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Service owns journal-entry operations for the ledger process.
type Service struct {
	store    storage.Manager
	accounts *accountCache
	log      zerolog.Logger
	now      func() time.Time
}

// NewService wires a ledger service over the given store.
func NewService(store storage.Manager, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		accounts: newAccountCache(store, defaultCacheSize, defaultCacheTTL),
		log:      log,
		now:      time.Now,
	}
}

// LineInput is one requested journal line. The account is named either
// by id or by chart code; sibling services use codes because they do not
// know the company's account ids.
type LineInput struct {
	AccountID    string          `json:"account_id,omitempty"`
	AccountCode  string          `json:"account_code,omitempty"`
	Description  string          `json:"description,omitempty"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
}

// EntryInput carries a create or draft-update request.
type EntryInput struct {
	EntryDate   string      `json:"entry_date" validate:"required"`
	Description string      `json:"description,omitempty"`
	Reference   string      `json:"reference,omitempty"`
	Lines       []LineInput `json:"lines" validate:"required"`
}

// EntryWithLines is a journal entry together with its lines.
type EntryWithLines struct {
	storage.JournalEntry
	Lines []*storage.JournalLine `json:"lines"`
}

// validateLines enforces the double-entry shape rules and returns the
// debit and credit totals.
func (s *Service) validateLines(ctx context.Context, companyID string, lines []LineInput) (totalDebit, totalCredit decimal.Decimal, err error) {
	const op = "ledger.validate_lines"

	if len(lines) < 2 {
		return decimal.Zero, decimal.Zero, apperror.Validation(op, "a journal entry needs at least 2 lines").WithField("lines")
	}

	totalDebit, totalCredit = decimal.Zero, decimal.Zero
	for i, line := range lines {
		if line.DebitAmount.Sign() < 0 || line.CreditAmount.Sign() < 0 {
			return decimal.Zero, decimal.Zero, apperror.Validationf(op, "line %d: amounts must not be negative", i+1).WithField("lines")
		}
		debit := line.DebitAmount.Sign() > 0
		credit := line.CreditAmount.Sign() > 0
		if debit == credit {
			return decimal.Zero, decimal.Zero, apperror.Validationf(op,
				"line %d: exactly one of debit_amount and credit_amount must be positive", i+1).WithField("lines")
		}
		totalDebit = totalDebit.Add(line.DebitAmount)
		totalCredit = totalCredit.Add(line.CreditAmount)
	}

	for i := range lines {
		line := &lines[i]
		if line.AccountID == "" {
			if line.AccountCode == "" {
				return decimal.Zero, decimal.Zero, apperror.Validationf(op, "line %d: account_id or account_code is required", i+1).WithField("lines")
			}
			byCode, err := s.store.Accounts().GetAccountByCode(ctx, companyID, line.AccountCode)
			if err != nil {
				if apperror.IsNotFound(err) {
					return decimal.Zero, decimal.Zero, apperror.Validationf(op, "line %d: account code %s does not exist", i+1, line.AccountCode).WithField("lines")
				}
				return decimal.Zero, decimal.Zero, err
			}
			line.AccountID = byCode.ID
		}
		account, err := s.accounts.get(ctx, companyID, line.AccountID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return decimal.Zero, decimal.Zero, apperror.Validationf(op, "line %d: account %s does not exist", i+1, line.AccountID).WithField("lines")
			}
			return decimal.Zero, decimal.Zero, err
		}
		if !account.Active {
			return decimal.Zero, decimal.Zero, apperror.Validationf(op, "line %d: account %s is inactive", i+1, account.Code).WithField("lines")
		}
	}

	if !totalDebit.Equal(totalCredit) {
		delta := totalDebit.Sub(totalCredit).Abs()
		return decimal.Zero, decimal.Zero, apperror.Validationf(op,
			"entry is not balanced: debits and credits differ by %s", delta).WithField("lines")
	}
	return totalDebit, totalCredit, nil
}

// Create validates and atomically stores a new DRAFT entry with its
// lines. The entry number comes from the per-company counter inside the
// same transaction, so numbering is monotone even under concurrency.
func (s *Service) Create(ctx context.Context, identity auth.Identity, in EntryInput) (*EntryWithLines, error) {
	const op = "ledger.create"

	entryDate, err := time.Parse("2006-01-02", in.EntryDate)
	if err != nil {
		return nil, apperror.Validation(op, "entry_date must be YYYY-MM-DD").WithField("entry_date")
	}

	totalDebit, totalCredit, err := s.validateLines(ctx, identity.CompanyID, in.Lines)
	if err != nil {
		return nil, err
	}

	entry := &storage.JournalEntry{
		ID:          uuid.NewString(),
		CompanyID:   identity.CompanyID,
		EntryDate:   entryDate,
		Description: in.Description,
		Reference:   in.Reference,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Status:      storage.EntryDraft,
		CreatedBy:   identity.UserID,
		CreatedAt:   s.now().UTC(),
	}

	lines := buildLines(entry.ID, in.Lines)
	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		number, err := tx.Journal().NextEntryNumber(ctx, identity.CompanyID)
		if err != nil {
			return err
		}
		entry.EntryNumber = number

		if err := tx.Journal().InsertEntry(ctx, entry); err != nil {
			return err
		}
		if err := tx.Journal().InsertLines(ctx, lines); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, "journal_entry.create", entry.ID,
			fmt.Sprintf("entry %d, %d lines, total %s", entry.EntryNumber, len(lines), entry.TotalDebit)))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company_id", entry.CompanyID).Int64("entry_number", entry.EntryNumber).
		Str("total", entry.TotalDebit.String()).Msg("journal entry created")
	return &EntryWithLines{JournalEntry: *entry, Lines: lines}, nil
}

func buildLines(entryID string, in []LineInput) []*storage.JournalLine {
	lines := make([]*storage.JournalLine, 0, len(in))
	for i, l := range in {
		lines = append(lines, &storage.JournalLine{
			ID:             uuid.NewString(),
			JournalEntryID: entryID,
			AccountID:      l.AccountID,
			Description:    l.Description,
			DebitAmount:    money.Round2(l.DebitAmount),
			CreditAmount:   money.Round2(l.CreditAmount),
			LineNumber:     i + 1,
		})
	}
	return lines
}

// Get fetches one entry with its lines.
func (s *Service) Get(ctx context.Context, companyID, id string) (*EntryWithLines, error) {
	entry, err := s.store.Journal().GetEntry(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.Journal().GetLines(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	return &EntryWithLines{JournalEntry: *entry, Lines: lines}, nil
}

// List returns entries matching the filter, newest first.
func (s *Service) List(ctx context.Context, companyID string, filter storage.EntryFilter) ([]*storage.JournalEntry, error) {
	return s.store.Journal().ListEntries(ctx, companyID, filter)
}

// UpdateDraft replaces the header and lines of a DRAFT entry. The entry
// keeps its id and number. Entries past DRAFT are immutable through this
// path.
func (s *Service) UpdateDraft(ctx context.Context, identity auth.Identity, id string, in EntryInput) (*EntryWithLines, error) {
	const op = "ledger.update_draft"

	existing, err := s.store.Journal().GetEntry(ctx, identity.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != storage.EntryDraft {
		return nil, apperror.Conflictf(op, "only DRAFT entries can be edited, entry is %s", existing.Status)
	}

	entryDate, err := time.Parse("2006-01-02", in.EntryDate)
	if err != nil {
		return nil, apperror.Validation(op, "entry_date must be YYYY-MM-DD").WithField("entry_date")
	}
	totalDebit, totalCredit, err := s.validateLines(ctx, identity.CompanyID, in.Lines)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.EntryDate = entryDate
	updated.Description = in.Description
	updated.Reference = in.Reference
	updated.TotalDebit = totalDebit
	updated.TotalCredit = totalCredit

	lines := buildLines(updated.ID, in.Lines)
	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		// Replace wholesale: drop the old entry and lines, reinsert
		// under the same id and number.
		if err := tx.Journal().DeleteEntry(ctx, identity.CompanyID, id); err != nil {
			return err
		}
		if err := tx.Journal().InsertEntry(ctx, &updated); err != nil {
			return err
		}
		if err := tx.Journal().InsertLines(ctx, lines); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, "journal_entry.update", id,
			fmt.Sprintf("entry %d edited", updated.EntryNumber)))
	})
	if err != nil {
		return nil, err
	}
	return &EntryWithLines{JournalEntry: updated, Lines: lines}, nil
}

// UpdateStatus applies one lifecycle transition. Posting runs the full
// posting transaction; any move outside the table is a CONFLICT.
func (s *Service) UpdateStatus(ctx context.Context, identity auth.Identity, id string, target storage.EntryStatus) (*storage.JournalEntry, error) {
	const op = "ledger.update_status"

	if !target.Valid() {
		return nil, apperror.Validationf(op, "unknown status %q", target).WithField("status")
	}

	entry, err := s.store.Journal().GetEntry(ctx, identity.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(entry.Status, target) {
		return nil, apperror.Conflictf(op, "invalid status transition %s -> %s", entry.Status, target)
	}

	if target == storage.EntryPosted {
		return s.post(ctx, identity, entry)
	}

	// Balance is re-checked on the way into APPROVED.
	if target == storage.EntryApproved && !entry.TotalDebit.Equal(entry.TotalCredit) {
		return nil, apperror.Validationf(op, "entry is not balanced: debits and credits differ by %s",
			entry.TotalDebit.Sub(entry.TotalCredit).Abs())
	}

	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Journal().UpdateEntryStatus(ctx, identity.CompanyID, id, target, false, nil); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, "journal_entry.status", id,
			fmt.Sprintf("%s -> %s", entry.Status, target)))
	})
	if err != nil {
		return nil, err
	}

	entry.Status = target
	return entry, nil
}

// post executes APPROVED → POSTED in one transaction: re-verify the
// balance invariant, add every line to the period account balances, mark
// the entry posted, and write the audit record.
func (s *Service) post(ctx context.Context, identity auth.Identity, entry *storage.JournalEntry) (*storage.JournalEntry, error) {
	const op = "ledger.post"

	postedAt := s.now().UTC()
	period := storage.Period(entry.EntryDate)

	err := s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		lines, err := tx.Journal().GetLines(ctx, entry.ID)
		if err != nil {
			return err
		}

		totalDebit, totalCredit := decimal.Zero, decimal.Zero
		for _, l := range lines {
			totalDebit = totalDebit.Add(l.DebitAmount)
			totalCredit = totalCredit.Add(l.CreditAmount)
		}
		if !totalDebit.Equal(totalCredit) {
			return apperror.Validationf(op, "entry is not balanced: debits and credits differ by %s",
				totalDebit.Sub(totalCredit).Abs())
		}

		for _, l := range lines {
			if err := tx.Journal().ApplyBalance(ctx, entry.CompanyID, l.AccountID, period, l.DebitAmount, l.CreditAmount); err != nil {
				return err
			}
		}

		if err := tx.Journal().UpdateEntryStatus(ctx, entry.CompanyID, entry.ID, storage.EntryPosted, true, &postedAt); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, "journal_entry.post", entry.ID,
			fmt.Sprintf("entry %d posted to period %s", entry.EntryNumber, period)))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company_id", entry.CompanyID).Int64("entry_number", entry.EntryNumber).
		Str("period", period).Msg("journal entry posted")

	entry.Status = storage.EntryPosted
	entry.IsPosted = true
	entry.PostedAt = &postedAt
	return entry, nil
}

// Delete removes a DRAFT entry. Anything further along the lifecycle is
// corrected by a reversing entry instead.
func (s *Service) Delete(ctx context.Context, identity auth.Identity, id string) error {
	const op = "ledger.delete"

	entry, err := s.store.Journal().GetEntry(ctx, identity.CompanyID, id)
	if err != nil {
		return err
	}
	if entry.Status != storage.EntryDraft {
		return apperror.Conflictf(op, "only DRAFT entries can be deleted, entry is %s", entry.Status)
	}

	return s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Journal().DeleteEntry(ctx, identity.CompanyID, id); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, "journal_entry.delete", id,
			fmt.Sprintf("entry %d deleted", entry.EntryNumber)))
	})
}

// ReverseInput controls the reversing entry.
type ReverseInput struct {
	EntryDate   string `json:"entry_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// Reverse corrects a POSTED entry by creating and posting a mirror entry
// with debits and credits swapped, linked back through its reference.
func (s *Service) Reverse(ctx context.Context, identity auth.Identity, id string, in ReverseInput) (*EntryWithLines, error) {
	const op = "ledger.reverse"

	original, err := s.store.Journal().GetEntry(ctx, identity.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if original.Status != storage.EntryPosted {
		return nil, apperror.Conflictf(op, "only POSTED entries can be reversed, entry is %s", original.Status)
	}

	entryDate := s.now().UTC()
	if in.EntryDate != "" {
		parsed, err := time.Parse("2006-01-02", in.EntryDate)
		if err != nil {
			return nil, apperror.Validation(op, "entry_date must be YYYY-MM-DD").WithField("entry_date")
		}
		entryDate = parsed
	}
	description := in.Description
	if description == "" {
		description = fmt.Sprintf("Reversal of entry %d", original.EntryNumber)
	}

	originalLines, err := s.store.Journal().GetLines(ctx, original.ID)
	if err != nil {
		return nil, err
	}

	postedAt := s.now().UTC()
	reversal := &storage.JournalEntry{
		ID:          uuid.NewString(),
		CompanyID:   identity.CompanyID,
		EntryDate:   entryDate,
		Description: description,
		Reference:   fmt.Sprintf("REV-%d", original.EntryNumber),
		TotalDebit:  original.TotalCredit,
		TotalCredit: original.TotalDebit,
		Status:      storage.EntryPosted,
		IsPosted:    true,
		PostedAt:    &postedAt,
		CreatedBy:   identity.UserID,
		CreatedAt:   postedAt,
	}

	lines := make([]*storage.JournalLine, 0, len(originalLines))
	for i, l := range originalLines {
		lines = append(lines, &storage.JournalLine{
			ID:             uuid.NewString(),
			JournalEntryID: reversal.ID,
			AccountID:      l.AccountID,
			Description:    l.Description,
			DebitAmount:    l.CreditAmount,
			CreditAmount:   l.DebitAmount,
			LineNumber:     i + 1,
		})
	}

	period := storage.Period(entryDate)
	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		number, err := tx.Journal().NextEntryNumber(ctx, identity.CompanyID)
		if err != nil {
			return err
		}
		reversal.EntryNumber = number

		if err := tx.Journal().InsertEntry(ctx, reversal); err != nil {
			return err
		}
		if err := tx.Journal().InsertLines(ctx, lines); err != nil {
			return err
		}
		for _, l := range lines {
			if err := tx.Journal().ApplyBalance(ctx, identity.CompanyID, l.AccountID, period, l.DebitAmount, l.CreditAmount); err != nil {
				return err
			}
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, "journal_entry.reverse", original.ID,
			fmt.Sprintf("entry %d reversed by entry %d", original.EntryNumber, reversal.EntryNumber)))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company_id", identity.CompanyID).Int64("original", original.EntryNumber).
		Int64("reversal", reversal.EntryNumber).Msg("journal entry reversed")
	return &EntryWithLines{JournalEntry: *reversal, Lines: lines}, nil
}

func (s *Service) auditRecord(identity auth.Identity, action, entityID, details string) *storage.AuditRecord {
	return &storage.AuditRecord{
		ID:         uuid.NewString(),
		CompanyID:  identity.CompanyID,
		UserID:     identity.UserID,
		Action:     action,
		EntityType: "journal_entry",
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  s.now().UTC(),
	}
}
