package cli

import (
	"bufio"
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/mealbook/mealbook/internal/client/client"
	"github.com/mealbook/mealbook/internal/client/config"
	"github.com/mealbook/mealbook/internal/client/services"
	"github.com/mealbook/mealbook/internal/logging"

	_ "modernc.org/sqlite"
)

// App holds the CLI's long-lived state: the API client, the local journal
// database, and the currently open album session, if any.
type App struct {
	config   *config.Config
	api      client.Client
	repos    *client.Repositories
	log      logging.Logger
	reader   *bufio.Reader
	userName string

	// meals caches the last listing so "open <n>" can refer by number.
	meals []client.Meal

	session  *services.AlbumSession
	mealName string
}

// NewApp initializes the local database and the API client.
func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	repos, err := client.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	return &App{
		config: c,
		api:    client.NewHTTPClient(c.ServerEndpointAddr, c.RequestTimeout),
		repos:  repos,
		log:    logger,
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the REPL and releases the app's resources when it returns.
func (a *App) Run(ctx context.Context) {
	defer a.api.Close()
	defer a.repos.DB.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) hasAlbum() bool {
	return a.session != nil
}
