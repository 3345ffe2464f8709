// Package repository provides PostgreSQL access for the ledger store ports.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/database"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store"
)

// repos binds every repository to one database handle.
type repos struct {
	db database.PGXDB
}

func (r repos) Trips() store.TripStore          { return NewTripRepository(r.db) }
func (r repos) Users() store.UserStore          { return NewUserRepository(r.db) }
func (r repos) Currencies() store.CurrencyStore { return NewCurrencyRepository(r.db) }
func (r repos) Categories() store.CategoryStore { return NewCategoryRepository(r.db) }
func (r repos) Expenses() store.ExpenseStore    { return NewExpenseRepository(r.db) }
func (r repos) Budgets() store.BudgetStore      { return NewBudgetRepository(r.db) }

// Store is the PostgreSQL-backed ledger store.
type Store struct {
	repos
	beginner database.TxBeginner
}

// Compile-time check that Store satisfies the ledger port.
var _ store.Store = (*Store)(nil)

// NewStore creates a Store over a pool, or over a transaction in tests.
func NewStore(db database.DB) *Store {
	return &Store{repos: repos{db: db}, beginner: db}
}

// WithinTx runs fn in a database transaction, committing only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	tx, err := s.beginner.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, repos{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapNoRows turns pgx.ErrNoRows into store.ErrNotFound.
func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
