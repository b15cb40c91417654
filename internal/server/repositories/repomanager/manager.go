package repomanager

import (
	"context"
	"database/sql"

	"github.com/mealbook/mealbook/internal/dbx"
	"github.com/mealbook/mealbook/internal/server/repositories/images"
	"github.com/mealbook/mealbook/internal/server/repositories/meals"
	"github.com/mealbook/mealbook/internal/server/repositories/refreshtokens"
	"github.com/mealbook/mealbook/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Meals(db dbx.DBTX) meals.Repository
	Images(db dbx.DBTX) images.Repository
}
