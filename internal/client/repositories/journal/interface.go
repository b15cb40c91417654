// Package journal persists the client's pending-upload journal so
// interrupted sessions can re-offer unfinished uploads.
package journal

import (
	"context"

	"github.com/mealbook/mealbook/internal/client/models"
)

// Repository stores pending uploads keyed by their local journal id.
type Repository interface {
	Add(ctx context.Context, u *models.PendingUpload) error
	ListByMeal(ctx context.Context, mealID string) ([]models.PendingUpload, error)
	Remove(ctx context.Context, id string) error
}
