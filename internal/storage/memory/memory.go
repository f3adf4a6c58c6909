// Package memory implements storage.Manager on in-process maps. It
// exists for tests: service logic runs against it without a database,
// including transaction rollback, which restores a pre-transaction
// snapshot. Stored structs are treated as immutable; every read hands
// out a copy.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/saldo-labs/akuntansid/internal/storage"
)

type state struct {
	companies     map[string]storage.Company
	users         map[string]storage.User
	refreshTokens map[string]storage.RefreshToken

	accounts map[string]storage.Account

	entries  map[string]storage.JournalEntry
	lines    map[string][]storage.JournalLine
	counters map[string]int64
	balances map[string]storage.AccountBalance

	parties  map[storage.InvoiceKind]map[string]storage.Party
	invoices map[storage.InvoiceKind]map[string]storage.Invoice
	payments map[string]storage.Payment
	// payment insertion order, newest last
	paymentOrder []string

	taxConfigs map[string]storage.TaxConfiguration
	taxTxns    []storage.TaxTransaction

	audits []storage.AuditRecord
}

func newState() *state {
	return &state{
		companies:     map[string]storage.Company{},
		users:         map[string]storage.User{},
		refreshTokens: map[string]storage.RefreshToken{},
		accounts:      map[string]storage.Account{},
		entries:       map[string]storage.JournalEntry{},
		lines:         map[string][]storage.JournalLine{},
		counters:      map[string]int64{},
		balances:      map[string]storage.AccountBalance{},
		parties: map[storage.InvoiceKind]map[string]storage.Party{
			storage.KindVendor:   {},
			storage.KindCustomer: {},
		},
		invoices: map[storage.InvoiceKind]map[string]storage.Invoice{
			storage.KindVendor:   {},
			storage.KindCustomer: {},
		},
		payments:   map[string]storage.Payment{},
		taxConfigs: map[string]storage.TaxConfiguration{},
	}
}

// clone snapshots the state. Values are structs copied by the map
// clone; repositories never mutate stored values in place, so a shallow
// clone is a faithful snapshot.
func (s *state) clone() *state {
	c := &state{
		companies:     maps.Clone(s.companies),
		users:         maps.Clone(s.users),
		refreshTokens: maps.Clone(s.refreshTokens),
		accounts:      maps.Clone(s.accounts),
		entries:       maps.Clone(s.entries),
		lines:         maps.Clone(s.lines),
		counters:      maps.Clone(s.counters),
		balances:      maps.Clone(s.balances),
		payments:      maps.Clone(s.payments),
		taxConfigs:    maps.Clone(s.taxConfigs),
		parties:       map[storage.InvoiceKind]map[string]storage.Party{},
		invoices:      map[storage.InvoiceKind]map[string]storage.Invoice{},
	}
	for kind, m := range s.parties {
		c.parties[kind] = maps.Clone(m)
	}
	for kind, m := range s.invoices {
		c.invoices[kind] = maps.Clone(m)
	}
	c.paymentOrder = append([]string(nil), s.paymentOrder...)
	c.taxTxns = append([]storage.TaxTransaction(nil), s.taxTxns...)
	c.audits = append([]storage.AuditRecord(nil), s.audits...)
	return c
}

// Manager implements storage.Manager over in-process state.
type Manager struct {
	mu sync.Mutex
	st *state
}

var _ storage.Manager = (*Manager)(nil)

// NewManager returns an empty in-memory manager.
func NewManager() *Manager {
	return &Manager{st: newState()}
}

// repoBase gives repositories shared access and optional locking. Repos
// handed out by the manager lock per call; repos inside WithTransaction
// run with the manager lock already held.
type repoBase struct {
	m      *Manager
	noLock bool
}

func (b repoBase) lk() func() {
	if b.noLock {
		return func() {}
	}
	b.m.mu.Lock()
	return b.m.mu.Unlock
}

func (b repoBase) state() *state { return b.m.st }

func (m *Manager) Identity() storage.IdentityRepository { return &identityRepo{repoBase{m: m}} }
func (m *Manager) Accounts() storage.AccountRepository  { return &accountRepo{repoBase{m: m}} }
func (m *Manager) Journal() storage.JournalRepository   { return &journalRepo{repoBase{m: m}} }
func (m *Manager) Invoices() storage.InvoiceRepository  { return &invoiceRepo{repoBase{m: m}} }
func (m *Manager) Tax() storage.TaxRepository           { return &taxRepo{repoBase{m: m}} }
func (m *Manager) Audit() storage.AuditRepository       { return &auditRepo{repoBase{m: m}} }

func (m *Manager) Ping(ctx context.Context) error { return nil }

func (m *Manager) Close() {}

type txContext struct{ m *Manager }

func (tc txContext) Identity() storage.IdentityRepository {
	return &identityRepo{repoBase{m: tc.m, noLock: true}}
}
func (tc txContext) Accounts() storage.AccountRepository {
	return &accountRepo{repoBase{m: tc.m, noLock: true}}
}
func (tc txContext) Journal() storage.JournalRepository {
	return &journalRepo{repoBase{m: tc.m, noLock: true}}
}
func (tc txContext) Invoices() storage.InvoiceRepository {
	return &invoiceRepo{repoBase{m: tc.m, noLock: true}}
}
func (tc txContext) Tax() storage.TaxRepository {
	return &taxRepo{repoBase{m: tc.m, noLock: true}}
}
func (tc txContext) Audit() storage.AuditRepository {
	return &auditRepo{repoBase{m: tc.m, noLock: true}}
}

// WithTransaction serializes against every other call and restores the
// pre-transaction snapshot when fn fails or panics.
func (m *Manager) WithTransaction(ctx context.Context, fn func(storage.TransactionContext) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.clone()
	committed := false
	defer func() {
		if !committed {
			m.st = snapshot
		}
	}()

	if err := fn(txContext{m: m}); err != nil {
		return err
	}
	committed = true
	return nil
}
