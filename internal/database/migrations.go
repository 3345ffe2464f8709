package database

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS trips (
			trip_id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			home_currency TEXT NOT NULL,
			target_currency TEXT NOT NULL,
			exchange_rate NUMERIC NOT NULL,
			home_balance NUMERIC NOT NULL DEFAULT 0,
			target_balance NUMERIC NOT NULL DEFAULT 0,
			budget_limit NUMERIC NOT NULL DEFAULT 0 CHECK (budget_limit >= 0),
			notification_threshold NUMERIC NOT NULL DEFAULT 0 CHECK (notification_threshold >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trips_user_id ON trips(user_id)`,

		`CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			active_trip_id BIGINT REFERENCES trips(trip_id) ON DELETE SET NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS trip_currencies (
			currency_id BIGSERIAL PRIMARY KEY,
			trip_id BIGINT NOT NULL REFERENCES trips(trip_id),
			currency_code TEXT NOT NULL,
			balance NUMERIC NOT NULL DEFAULT 0,
			exchange_rate_to_home NUMERIC NOT NULL CHECK (exchange_rate_to_home > 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (trip_id, currency_code)
		)`,

		`CREATE TABLE IF NOT EXISTS expense_categories (
			category_id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			expense_id BIGSERIAL PRIMARY KEY,
			trip_id BIGINT NOT NULL REFERENCES trips(trip_id),
			amount_target NUMERIC NOT NULL,
			amount_home NUMERIC NOT NULL,
			currency_target TEXT NOT NULL,
			currency_home TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_trip_id ON expenses(trip_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_created_at ON expenses(created_at)`,

		// The category reference was added after the first release; older rows
		// are assigned the fallback category by BackfillUncategorized.
		`ALTER TABLE expenses ADD COLUMN IF NOT EXISTS category_id INTEGER REFERENCES expense_categories(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_category_id ON expenses(category_id)`,

		`CREATE TABLE IF NOT EXISTS category_budgets (
			budget_id BIGSERIAL PRIMARY KEY,
			trip_id BIGINT NOT NULL REFERENCES trips(trip_id),
			category_id INTEGER NOT NULL REFERENCES expense_categories(category_id),
			planned_amount NUMERIC NOT NULL DEFAULT 0,
			spent_amount NUMERIC NOT NULL DEFAULT 0,
			currency_code TEXT NOT NULL DEFAULT '',
			UNIQUE (trip_id, category_id)
		)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// SeedCategories inserts the fixed expense category catalog.
func SeedCategories(ctx context.Context, db PGXDB) error {
	for _, cat := range models.DefaultCategories {
		_, err := db.Exec(ctx,
			`INSERT INTO expense_categories (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			cat.Name, cat.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", cat.Name, err)
		}
	}

	return nil
}

// BackfillUncategorized assigns the fallback category to expenses recorded
// before categories existed. Returns the number of updated rows.
func BackfillUncategorized(ctx context.Context, db PGXDB) (int64, error) {
	tag, err := db.Exec(ctx, `
		UPDATE expenses
		SET category_id = (SELECT category_id FROM expense_categories WHERE name = $1)
		WHERE category_id IS NULL OR category_id = 0
	`, models.FallbackCategoryName)
	if err != nil {
		return 0, fmt.Errorf("failed to backfill uncategorized expenses: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Initialize runs migrations, seeds the category catalog and backfills legacy rows.
func Initialize(ctx context.Context, db PGXDB) error {
	if err := RunMigrations(ctx, db); err != nil {
		return err
	}
	if err := SeedCategories(ctx, db); err != nil {
		return err
	}
	if _, err := BackfillUncategorized(ctx, db); err != nil {
		return err
	}
	return nil
}
