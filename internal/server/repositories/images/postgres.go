package images

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mealbook/mealbook/internal/common"
	"github.com/mealbook/mealbook/internal/dbx"
	"github.com/mealbook/mealbook/internal/server/models"
)

// PostgresRepository stores album images over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, img *models.Image) error {
	query :=
		`INSERT INTO images (id, meal_id, filename, storage_key, thumb_key, width, height, sort_index, is_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err := r.db.ExecContext(ctx, query,
		img.ID, img.MealID, img.Filename, img.StorageKey, img.ThumbKey,
		img.Width, img.Height, img.SortIndex, img.IsKey)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Image, error) {
	query :=
		`SELECT id, meal_id, filename, storage_key, thumb_key, width, height, sort_index, is_key, deleted, created_at
		 FROM images
		 WHERE id = $1
		 `

	img := &models.Image{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&img.ID, &img.MealID, &img.Filename, &img.StorageKey, &img.ThumbKey,
		&img.Width, &img.Height, &img.SortIndex, &img.IsKey, &img.Deleted, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return img, nil
}

// ListByMeal returns the meal's live images in visual order.
func (r *PostgresRepository) ListByMeal(ctx context.Context, mealID string) ([]*models.Image, error) {
	query :=
		`SELECT id, meal_id, filename, storage_key, thumb_key, width, height, sort_index, is_key, deleted, created_at
		 FROM images
		 WHERE meal_id = $1 AND NOT deleted
		 ORDER BY sort_index, created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, mealID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Image
	for rows.Next() {
		var item models.Image
		if err := rows.Scan(
			&item.ID, &item.MealID, &item.Filename, &item.StorageKey, &item.ThumbKey,
			&item.Width, &item.Height, &item.SortIndex, &item.IsKey, &item.Deleted, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetKey clears the meal's key flag and sets it on id, if given. Run inside
// a transaction so the one-key invariant holds at every observation point.
func (r *PostgresRepository) SetKey(ctx context.Context, mealID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE images SET is_key = FALSE WHERE meal_id = $1 AND is_key`, mealID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if id == "" {
		return nil
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE images SET is_key = TRUE WHERE id = $1 AND meal_id = $2 AND NOT deleted`, id, mealID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SetSortIndex(ctx context.Context, id string, index int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE images SET sort_index = $1 WHERE id = $2 AND NOT deleted`, index, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkDeleted(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE images SET deleted = TRUE, is_key = FALSE WHERE id = $1 AND NOT deleted`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return common.ErrorNotFound
	}
	return nil
}

// NextSortIndex returns one past the highest sort index in the meal, so a
// fresh upload lands at the end of the album.
func (r *PostgresRepository) NextSortIndex(ctx context.Context, mealID string) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_index) + 1, 0) FROM images WHERE meal_id = $1 AND NOT deleted`,
		mealID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return next, nil
}
