package images

import (
	"context"

	"github.com/mealbook/mealbook/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, img *models.Image) error
	GetByID(ctx context.Context, id string) (*models.Image, error)
	ListByMeal(ctx context.Context, mealID string) ([]*models.Image, error)
	// SetKey moves the key designation to id within its meal; an empty id
	// clears the designation for mealID entirely.
	SetKey(ctx context.Context, mealID, id string) error
	// SetSortIndex pins one image's position in the album's visual order.
	SetSortIndex(ctx context.Context, id string, index int) error
	MarkDeleted(ctx context.Context, id string) error
	NextSortIndex(ctx context.Context, mealID string) (int, error)
}
