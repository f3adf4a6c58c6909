// Package postgres implements the storage repositories on PostgreSQL
// via pgx connection pools. NUMERIC columns scan directly into
// shopspring decimals through the pgx-shopspring-decimal codec.
package postgres

import (
	"context"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saldo-labs/akuntansid/internal/storage"
)

// Config carries what the manager needs to open a pool.
type Config struct {
	// URL is a postgres:// connection string.
	URL string
	// MaxConns / MinConns bound the pool size.
	MaxConns int32
	MinConns int32
	// SchemaGroups names the table groups EnsureSchema creates. Empty
	// means every group.
	SchemaGroups []string
	// PingTimeout bounds the connectivity probe during Open. Zero means
	// 5 seconds.
	PingTimeout time.Duration
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting one
// repository implementation serve pooled and transactional calls.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Manager implements storage.Manager for PostgreSQL.
type Manager struct {
	pool *pgxpool.Pool

	identity *IdentityRepository
	accounts *AccountRepository
	journal  *JournalRepository
	invoices *InvoiceRepository
	tax      *TaxRepository
	audit    *AuditRepository
}

var _ storage.Manager = (*Manager)(nil)

// Open connects a pool, verifies connectivity, ensures the schema and
// returns a ready manager.
func Open(ctx context.Context, cfg Config) (*Manager, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}

	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := ensureSchema(ctx, pool, cfg.SchemaGroups); err != nil {
		pool.Close()
		return nil, err
	}

	m := &Manager{pool: pool}
	m.identity = &IdentityRepository{q: pool}
	m.accounts = &AccountRepository{q: pool}
	m.journal = &JournalRepository{q: pool}
	m.invoices = &InvoiceRepository{q: pool}
	m.tax = &TaxRepository{q: pool}
	m.audit = &AuditRepository{q: pool}
	return m, nil
}

func (m *Manager) Identity() storage.IdentityRepository { return m.identity }
func (m *Manager) Accounts() storage.AccountRepository  { return m.accounts }
func (m *Manager) Journal() storage.JournalRepository   { return m.journal }
func (m *Manager) Invoices() storage.InvoiceRepository  { return m.invoices }
func (m *Manager) Tax() storage.TaxRepository           { return m.tax }
func (m *Manager) Audit() storage.AuditRepository       { return m.audit }

// Ping reports pool connectivity.
func (m *Manager) Ping(ctx context.Context) error {
	return m.pool.Ping(ctx)
}

// Close releases the pool.
func (m *Manager) Close() {
	m.pool.Close()
}

// WithTransaction runs fn inside one database transaction. A nil return
// commits, any error rolls back, and panics roll back before
// propagating.
func (m *Manager) WithTransaction(ctx context.Context, fn func(storage.TransactionContext) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return wrapError("begin", err)
	}

	done := false
	defer func() {
		if !done {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(newTxContext(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapError("commit", err)
	}
	done = true
	return nil
}

// txContext binds every repository to one pgx transaction.
type txContext struct {
	identity *IdentityRepository
	accounts *AccountRepository
	journal  *JournalRepository
	invoices *InvoiceRepository
	tax      *TaxRepository
	audit    *AuditRepository
}

func newTxContext(tx pgx.Tx) *txContext {
	return &txContext{
		identity: &IdentityRepository{q: tx},
		accounts: &AccountRepository{q: tx},
		journal:  &JournalRepository{q: tx},
		invoices: &InvoiceRepository{q: tx},
		tax:      &TaxRepository{q: tx},
		audit:    &AuditRepository{q: tx},
	}
}

func (tc *txContext) Identity() storage.IdentityRepository { return tc.identity }
func (tc *txContext) Accounts() storage.AccountRepository  { return tc.accounts }
func (tc *txContext) Journal() storage.JournalRepository   { return tc.journal }
func (tc *txContext) Invoices() storage.InvoiceRepository  { return tc.invoices }
func (tc *txContext) Tax() storage.TaxRepository           { return tc.tax }
func (tc *txContext) Audit() storage.AuditRepository       { return tc.audit }
