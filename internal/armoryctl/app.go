// Package armoryctl implements the operator CLI. Its single job is creating
// accounts straight against the database, for bootstrapping an environment
// before the API is reachable.
package armoryctl

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/armoryhq/armory/internal/common"
	"github.com/armoryhq/armory/internal/server/config"
	"github.com/armoryhq/armory/internal/server/repositories/repomanager"
	"github.com/armoryhq/armory/internal/server/services"
)

type App struct {
	config *config.Config
	users  *services.UserService
	db     *sql.DB
}

func NewApp(cfg *config.Config) (*App, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m, err := repomanager.NewPostgresRepositoryManager()
	if err != nil {
		return nil, fmt.Errorf("repository init error: %w", err)
	}

	if err := m.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &App{
		config: cfg,
		users:  services.NewUserService(db, m, cfg),
		db:     db,
	}, nil
}

func (app *App) Close() error {
	return app.db.Close()
}

// CreateUser walks the operator through an interactive account creation.
func (app *App) CreateUser(ctx context.Context, in *bufio.Reader, out io.Writer) error {
	email, err := getSimpleText(in, "Enter email", out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(in, "Enter username", out)
	if err != nil {
		return err
	}
	password, err := getPassword(out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := app.users.Register(ctx, email, string(password), username)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(out, "Created user %d (%s)\n", user.ID, user.Email)
	return nil
}

// Run executes the interactive session against stdin/stdout.
func (app *App) Run(ctx context.Context) error {
	defer app.Close()
	return app.CreateUser(ctx, bufio.NewReader(os.Stdin), os.Stdout)
}
