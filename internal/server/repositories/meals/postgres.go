package meals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mealbook/mealbook/internal/common"
	"github.com/mealbook/mealbook/internal/dbx"
	"github.com/mealbook/mealbook/internal/server/models"
)

// PostgresRepository stores meals over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, meal *models.Meal) error {
	query :=
		`INSERT INTO meals (id, user_id, title)
		 VALUES ($1, $2, $3)
		 `

	_, err := r.db.ExecContext(ctx, query, meal.ID, meal.UserID, meal.Title)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Meal, error) {
	query :=
		`SELECT id, user_id, title, created_at FROM meals
		 WHERE id = $1
		 `

	meal := &models.Meal{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&meal.ID, &meal.UserID, &meal.Title, &meal.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return meal, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Meal, error) {
	query :=
		`SELECT id, user_id, title, created_at FROM meals
		 WHERE user_id = $1
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Meal
	for rows.Next() {
		var item models.Meal
		if err := rows.Scan(&item.ID, &item.UserID, &item.Title, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
