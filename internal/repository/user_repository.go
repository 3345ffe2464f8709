package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/trip-ledger-bot/internal/database"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/store"
)

// UserRepository handles user database operations.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

// SetActiveTrip creates or updates the user's active trip pointer.
func (r *UserRepository) SetActiveTrip(ctx context.Context, userID, tripID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (user_id, active_trip_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			active_trip_id = EXCLUDED.active_trip_id,
			updated_at = NOW()
	`, userID, tripID)
	if err != nil {
		return fmt.Errorf("failed to set active trip: %w", err)
	}
	return nil
}

// GetActiveTripID returns the user's active trip, or store.ErrNotFound.
func (r *UserRepository) GetActiveTripID(ctx context.Context, userID int64) (int64, error) {
	var tripID *int64
	err := r.db.QueryRow(ctx, `SELECT active_trip_id FROM users WHERE user_id = $1`, userID).Scan(&tripID)
	if err != nil {
		return 0, fmt.Errorf("failed to get active trip: %w", mapNoRows(err))
	}
	if tripID == nil {
		return 0, fmt.Errorf("failed to get active trip: %w", store.ErrNotFound)
	}
	return *tripID, nil
}

// ClearActiveTrip unsets the active trip for every user pointing at tripID.
func (r *UserRepository) ClearActiveTrip(ctx context.Context, tripID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET active_trip_id = NULL, updated_at = NOW() WHERE active_trip_id = $1
	`, tripID)
	if err != nil {
		return fmt.Errorf("failed to clear active trip: %w", err)
	}
	return nil
}

// ListWithActiveTrip retrieves every user that currently has an active trip.
func (r *UserRepository) ListWithActiveTrip(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, active_trip_id, updated_at FROM users
		WHERE active_trip_id IS NOT NULL
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.ActiveTripID, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
