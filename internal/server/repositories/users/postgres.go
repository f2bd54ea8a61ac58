package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/armoryhq/armory/internal/common"
	"github.com/armoryhq/armory/internal/dbx"
	"github.com/armoryhq/armory/internal/server/models"
	"github.com/armoryhq/armory/internal/server/repositories/mapper"
)

const userColumns = `id, email, username, password, created_at, updated_at`

// PostgresRepository stores users in the "user" table. Typed lookups use
// direct SQL; the partial-update path delegates to the generic mapper so the
// writable-column policy lives in one place.
type PostgresRepository struct {
	db dbx.DBTX
	m  *mapper.Mapper
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		m: mapper.New(db, mapper.Config{
			Table:    "user",
			Writable: []string{"email", "username", "password"},
		}),
	}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO "user" (email, password, username)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Password, user.Username).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getWhere(ctx, "id = $1", id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getWhere(ctx, "email = $1", email)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getWhere(ctx, "username = $1", username)
}

func (r *PostgresRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) (map[string]any, error) {
	rec, err := r.m.Update(ctx, id, fields)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, common.ErrorConflict
		}
		return nil, err
	}
	// The hash never leaves the repository on this path.
	delete(rec, "password")
	return rec, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.m.Delete(ctx, id)
}

func (r *PostgresRepository) getWhere(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM "user" WHERE ` + where

	user := &models.User{}
	var updated sql.NullTime
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Username, &user.Password, &user.CreatedAt, &updated)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if updated.Valid {
		user.UpdatedAt = &updated.Time
	}

	return user, nil
}
