package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/armoryhq/armory/internal/dbx"
	"github.com/armoryhq/armory/internal/server/migrations"
	"github.com/armoryhq/armory/internal/server/repositories/mapper"
	"github.com/armoryhq/armory/internal/server/repositories/users"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories and data
// mappers, one mapper per table, configured with that table's writable
// columns.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() (RepositoryManager, error) {
	return &PostgresRepositoryManager{}, nil
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Loadouts returns the data mapper for the loadout table.
func (m *PostgresRepositoryManager) Loadouts(db dbx.DBTX) *mapper.Mapper {
	return mapper.New(db, mapper.Config{
		Table:    "loadout",
		Writable: []string{"user_id", "name", "description", "weapon"},
		JSON:     []string{"weapon"},
	})
}

// Weapons returns the data mapper for the weapon table.
func (m *PostgresRepositoryManager) Weapons(db dbx.DBTX) *mapper.Mapper {
	return mapper.New(db, mapper.Config{
		Table:    "weapon",
		Writable: []string{"name", "description", "category", "damage"},
	})
}

// Armors returns the data mapper for the armor table.
func (m *PostgresRepositoryManager) Armors(db dbx.DBTX) *mapper.Mapper {
	return mapper.New(db, mapper.Config{
		Table:    "armor",
		Writable: []string{"name", "description", "defense", "skill_id"},
	})
}

// Skills returns the data mapper for the skill table.
func (m *PostgresRepositoryManager) Skills(db dbx.DBTX) *mapper.Mapper {
	return mapper.New(db, mapper.Config{
		Table:    "skill",
		Writable: []string{"name", "description"},
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
