package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/trip-ledger-bot/internal/database"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/models"
)

// CategoryRepository reads the expense category catalog.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetAll retrieves all categories in catalog order.
func (r *CategoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT category_id, name, description FROM expense_categories ORDER BY category_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		SELECT category_id, name, description FROM expense_categories WHERE category_id = $1
	`, id).Scan(&cat.ID, &cat.Name, &cat.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", mapNoRows(err))
	}
	return &cat, nil
}
