package meals

import (
	"context"

	"github.com/mealbook/mealbook/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, meal *models.Meal) error
	GetByID(ctx context.Context, id string) (*models.Meal, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Meal, error)
}
