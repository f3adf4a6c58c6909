// Package coa implements the chart-of-accounts service: account CRUD
// with structural validation, deletion guarded by ledger references,
// and installation of the standard Indonesian account template.
package coa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// Service owns chart-of-accounts operations.
type Service struct {
	store storage.Manager
	log   zerolog.Logger
	now   func() time.Time
}

// NewService wires an accounts service over the given store.
func NewService(store storage.Manager, log zerolog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// AccountInput carries a create request.
type AccountInput struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required"`
}

// UpdateInput carries the mutable account fields.
type UpdateInput struct {
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// Create validates and stores a new account. Duplicate codes surface as
// CONFLICT from the unique constraint.
func (s *Service) Create(ctx context.Context, identity auth.Identity, in AccountInput) (*storage.Account, error) {
	const op = "coa.create"

	accountType := storage.AccountType(strings.ToUpper(in.Type))
	if !accountType.Valid() {
		return nil, apperror.Validationf(op, "unknown account type %q", in.Type).WithField("type")
	}
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, apperror.Validation(op, "code must not be blank").WithField("code")
	}

	account := &storage.Account{
		ID:        uuid.NewString(),
		CompanyID: identity.CompanyID,
		Code:      code,
		Name:      strings.TrimSpace(in.Name),
		Type:      accountType,
		Active:    true,
		CreatedAt: s.now().UTC(),
	}

	err := s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Accounts().CreateAccount(ctx, account); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, "account.create", account.ID,
			fmt.Sprintf("%s %s (%s)", account.Code, account.Name, account.Type)))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company_id", account.CompanyID).Str("code", account.Code).
		Str("type", string(account.Type)).Msg("account created")
	return account, nil
}

// Get fetches one account by id.
func (s *Service) Get(ctx context.Context, companyID, id string) (*storage.Account, error) {
	return s.store.Accounts().GetAccount(ctx, companyID, id)
}

// List returns accounts matching the filter.
func (s *Service) List(ctx context.Context, companyID string, filter storage.AccountFilter) ([]*storage.Account, error) {
	return s.store.Accounts().ListAccounts(ctx, companyID, filter)
}

// Update changes the mutable fields (name, active). Code and type are
// fixed after creation.
func (s *Service) Update(ctx context.Context, identity auth.Identity, id string, in UpdateInput) (*storage.Account, error) {
	const op = "coa.update"

	account, err := s.store.Accounts().GetAccount(ctx, identity.CompanyID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.Validation(op, "name must not be blank").WithField("name")
		}
		account.Name = name
	}
	if in.Active != nil {
		account.Active = *in.Active
	}

	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Accounts().UpdateAccount(ctx, account); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, "account.update", account.ID,
			fmt.Sprintf("%s %s active=%t", account.Code, account.Name, account.Active)))
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Delete removes an account unless any journal line references it.
func (s *Service) Delete(ctx context.Context, identity auth.Identity, id string) error {
	const op = "coa.delete"

	account, err := s.store.Accounts().GetAccount(ctx, identity.CompanyID, id)
	if err != nil {
		return err
	}

	referenced, err := s.store.Accounts().AccountReferenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return apperror.Conflictf(op, "account %s is referenced by journal entries", account.Code)
	}

	return s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Accounts().DeleteAccount(ctx, identity.CompanyID, id); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, "account.delete", id, account.Code))
	})
}

// InstallTemplate preloads the standard Indonesian chart for a company
// that has no accounts yet.
func (s *Service) InstallTemplate(ctx context.Context, identity auth.Identity) ([]*storage.Account, error) {
	const op = "coa.install_template"

	existing, err := s.store.Accounts().CountAccounts(ctx, identity.CompanyID)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, apperror.Conflict(op, "company already has a chart of accounts")
	}

	now := s.now().UTC()
	accounts := make([]*storage.Account, 0, len(indonesianTemplate))
	for _, tpl := range indonesianTemplate {
		accounts = append(accounts, &storage.Account{
			ID:        uuid.NewString(),
			CompanyID: identity.CompanyID,
			Code:      tpl.code,
			Name:      tpl.name,
			Type:      tpl.accountType,
			Active:    true,
			CreatedAt: now,
		})
	}

	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Accounts().CreateAccounts(ctx, accounts); err != nil {
			return err
		}
		return tx.Audit().InsertAuditRecord(ctx, s.auditRecord(identity, "account.install_template", identity.CompanyID,
			fmt.Sprintf("%d accounts", len(accounts))))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company_id", identity.CompanyID).Int("accounts", len(accounts)).
		Msg("chart of accounts template installed")
	return accounts, nil
}

func (s *Service) auditRecord(identity auth.Identity, action, entityID, details string) *storage.AuditRecord {
	return &storage.AuditRecord{
		ID:         uuid.NewString(),
		CompanyID:  identity.CompanyID,
		UserID:     identity.UserID,
		Action:     action,
		EntityType: "account",
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  s.now().UTC(),
	}
}
