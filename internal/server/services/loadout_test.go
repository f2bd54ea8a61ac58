package services

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/armoryhq/armory/internal/common"
	"github.com/armoryhq/armory/internal/server/repositories/repomanager"
)

func newLoadoutService(t *testing.T) (*LoadoutService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m, err := repomanager.NewPostgresRepositoryManager()
	require.NoError(t, err)

	return NewLoadoutService(db, m), mock
}

func loadoutRow(id, userID int64, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "name", "description", "weapon"}).
		AddRow(id, userID, []byte(name), []byte("desc"), []byte(`{"kind":"rifle"}`))
}

func expectFindLoadout(mock sqlmock.Sqlmock, id, ownerID int64) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "loadout" WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(loadoutRow(id, ownerID, "Sharpshooter"))
}

func TestLoadoutList_PassesLimit(t *testing.T) {
	s, mock := newLoadoutService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "loadout" ORDER BY id LIMIT $1`)).
		WithArgs(2).
		WillReturnRows(loadoutRow(1, 1, "A"))

	recs, err := s.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadoutGet_NotFound(t *testing.T) {
	s, mock := newLoadoutService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "loadout" WHERE id = $1`)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.Get(context.Background(), 42)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLoadoutCreate_InjectsOwner(t *testing.T) {
	s, mock := newLoadoutService(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`INSERT INTO "loadout" ("description", "name", "user_id", "weapon") VALUES ($1, $2, $3, $4) RETURNING *`)).
		WithArgs("desc", "Sharpshooter", int64(9), []byte(`{"kind":"rifle"}`)).
		WillReturnRows(loadoutRow(1, 9, "Sharpshooter"))

	rec, err := s.Create(context.Background(), 9, map[string]any{
		"name":        "Sharpshooter",
		"description": "desc",
		"weapon":      map[string]any{"kind": "rifle"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(9), rec["user_id"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadoutCreate_RejectsOwnerInBody(t *testing.T) {
	s, _ := newLoadoutService(t)

	_, err := s.Create(context.Background(), 9, map[string]any{
		"name":        "x",
		"description": "y",
		"weapon":      map[string]any{"kind": "bow"},
		"user_id":     1,
	})
	require.ErrorIs(t, err, common.ErrorForbiddenField)
}

func TestLoadoutCreate_MissingRequiredField(t *testing.T) {
	s, _ := newLoadoutService(t)

	_, err := s.Create(context.Background(), 9, map[string]any{
		"name":        "x",
		"description": "y",
	})
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestLoadoutUpdate_OwnerMismatch(t *testing.T) {
	s, mock := newLoadoutService(t)
	expectFindLoadout(mock, 5, 2)

	_, err := s.Update(context.Background(), 1, 5, map[string]any{"name": "renamed"})
	require.ErrorIs(t, err, common.ErrorForbidden)
	require.NoError(t, mock.ExpectationsWereMet(), "no update must be issued past the guard")
}

func TestLoadoutUpdate_Owner(t *testing.T) {
	s, mock := newLoadoutService(t)
	expectFindLoadout(mock, 5, 1)

	mock.ExpectQuery(regexp.QuoteMeta(
		`UPDATE "loadout" SET "name" = $1, updated_at = now() WHERE id = $2 RETURNING *`)).
		WithArgs("renamed", int64(5)).
		WillReturnRows(loadoutRow(5, 1, "renamed"))

	rec, err := s.Update(context.Background(), 1, 5, map[string]any{"name": "renamed"})
	require.NoError(t, err)
	require.Equal(t, "renamed", rec["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadoutUpdate_StructuralFieldsRejected(t *testing.T) {
	s, mock := newLoadoutService(t)
	expectFindLoadout(mock, 5, 1)

	_, err := s.Update(context.Background(), 1, 5, map[string]any{"user_id": 99})
	require.ErrorIs(t, err, common.ErrorForbiddenField)
}

func TestLoadoutUpdate_NotFound(t *testing.T) {
	s, mock := newLoadoutService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "loadout" WHERE id = $1`)).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.Update(context.Background(), 1, 404, map[string]any{"name": "x"})
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLoadoutDelete_Owner(t *testing.T) {
	s, mock := newLoadoutService(t)
	expectFindLoadout(mock, 5, 1)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "loadout" WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Delete(context.Background(), 1, 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadoutDelete_OwnerMismatch(t *testing.T) {
	s, mock := newLoadoutService(t)
	expectFindLoadout(mock, 5, 3)

	err := s.Delete(context.Background(), 1, 5)
	require.ErrorIs(t, err, common.ErrorForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadoutList_DBErrorIsInternal(t *testing.T) {
	s, mock := newLoadoutService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "loadout" ORDER BY id`)).
		WillReturnError(errors.New("boom"))

	_, err := s.List(context.Background(), 0)
	require.ErrorIs(t, err, common.ErrorInternal)
}
