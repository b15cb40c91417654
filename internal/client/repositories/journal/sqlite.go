package journal

import (
	"context"
	"fmt"

	"github.com/mealbook/mealbook/internal/client/models"
	"github.com/mealbook/mealbook/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Add upserts a pending upload by id.
func (r *SQLiteRepository) Add(ctx context.Context, u *models.PendingUpload) error {
	query := `INSERT INTO pending_uploads (id, meal_id, path)
			values (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET meal_id = excluded.meal_id, path = excluded.path
	`
	_, err := r.db.ExecContext(ctx, query, u.ID, u.MealID, u.Path)
	if err != nil {
		return fmt.Errorf("failed to upsert pending upload: %w", err)
	}
	return nil
}

// ListByMeal lists the meal's pending uploads, oldest first.
func (r *SQLiteRepository) ListByMeal(ctx context.Context, mealID string) ([]models.PendingUpload, error) {
	query := `select id, meal_id, path, created_at from pending_uploads where meal_id=? order by created_at, id`
	rows, err := r.db.QueryContext(ctx, query, mealID)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending uploads: %w", err)
	}
	defer rows.Close()

	var result []models.PendingUpload
	for rows.Next() {
		var item models.PendingUpload
		if err := rows.Scan(&item.ID, &item.MealID, &item.Path, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Remove deletes a journal row. Removing an absent id is not an error.
func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	query := `delete from pending_uploads where id=?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to remove pending upload: %w", err)
	}
	return nil
}
