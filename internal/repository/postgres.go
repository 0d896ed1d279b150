// Package repository implements the domain persistence contracts on
// PostgreSQL via pgx.
package repository

import (
	"context"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-api/db"
	"github.com/xenking/storefront-api/internal/domain/order"
)

// DB is the subset of pgx behaviour the repositories need. Both
// *pgxpool.Pool and pgx.Tx implement it, so the same repository code runs
// standalone or inside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

var _ order.TxManager = (*TxManager)(nil)

// TxManager implements the order workflow's transaction boundary: one pgx
// transaction per InTx call, committed when fn returns nil and rolled back
// otherwise.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager returns a TxManager over the given pool.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// InTx begins a transaction, hands fn repositories bound to it, and commits
// only when fn succeeds. fn's error is returned unchanged so domain error
// types survive the boundary.
func (m *TxManager) InTx(ctx context.Context, fn func(tx order.Stores) error) error {
	t, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	// Rollback after a successful commit is a no-op.
	defer func() { _ = t.Rollback(ctx) }()

	if err := fn(&txStores{tx: t}); err != nil {
		return err
	}

	if err := t.Commit(ctx); err != nil {
		return fmt.Errorf("committing tx: %w", err)
	}
	return nil
}

// txStores exposes transaction-bound repositories to the workflow.
type txStores struct {
	tx pgx.Tx
}

func (s *txStores) Carts() order.CartStore   { return NewCartRepository(s.tx) }
func (s *txStores) Orders() order.Repository { return NewOrderRepository(s.tx) }
