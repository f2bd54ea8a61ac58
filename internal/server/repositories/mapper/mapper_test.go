package mapper

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/armoryhq/armory/internal/common"
)

func newLoadoutMapper(t *testing.T) (*Mapper, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := New(db, Config{
		Table:    "loadout",
		Writable: []string{"user_id", "name", "description", "weapon"},
		JSON:     []string{"weapon"},
	})
	return m, mock
}

func TestFindByPk_Found(t *testing.T) {
	m, mock := newLoadoutMapper(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "weapon"}).
		AddRow(int64(7), int64(1), []byte("Sharpshooter"), []byte(`{"kind":"rifle"}`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "loadout" WHERE id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	rec, err := m.FindByPk(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, int64(7), rec["id"])
	require.Equal(t, "Sharpshooter", rec["name"])
	require.IsType(t, json.RawMessage(nil), rec["weapon"], "jsonb column must stay raw JSON")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByPk_NotFound(t *testing.T) {
	m, mock := newLoadoutMapper(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "loadout" WHERE id = $1`)).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := m.FindByPk(context.Background(), 404)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindAll_WithLimit(t *testing.T) {
	m, mock := newLoadoutMapper(t)

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(int64(1), []byte("a")).
		AddRow(int64(2), []byte("b"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "loadout" ORDER BY id LIMIT $1`)).
		WithArgs(2).
		WillReturnRows(rows)

	recs, err := m.FindAll(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_BuildsDeterministicInsert(t *testing.T) {
	m, mock := newLoadoutMapper(t)

	// Columns appear sorted, values as placeholders, composite values as JSON.
	mock.ExpectQuery(regexp.QuoteMeta(
		`INSERT INTO "loadout" ("description", "name", "user_id", "weapon") VALUES ($1, $2, $3, $4) RETURNING *`)).
		WithArgs("agile", "Scout", int64(3), []byte(`{"kind":"smg"}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(10), []byte("Scout")))

	rec, err := m.Create(context.Background(), map[string]any{
		"name":        "Scout",
		"description": "agile",
		"user_id":     int64(3),
		"weapon":      map[string]any{"kind": "smg"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), rec["id"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RejectsUnknownColumn(t *testing.T) {
	m, _ := newLoadoutMapper(t)

	_, err := m.Create(context.Background(), map[string]any{"owner": "mallory"})
	require.ErrorIs(t, err, common.ErrorForbiddenField)
}

func TestUpdate_StampsUpdatedAt(t *testing.T) {
	m, mock := newLoadoutMapper(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`UPDATE "loadout" SET "name" = $1, updated_at = now() WHERE id = $2 RETURNING *`)).
		WithArgs("Renamed", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(7), []byte("Renamed")))

	rec, err := m.Update(context.Background(), 7, map[string]any{"name": "Renamed"})
	require.NoError(t, err)
	require.Equal(t, "Renamed", rec["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_EmptyFieldsIsValidationError(t *testing.T) {
	m, _ := newLoadoutMapper(t)

	_, err := m.Update(context.Background(), 7, map[string]any{})
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestDelete_ReportsRowCount(t *testing.T) {
	m, mock := newLoadoutMapper(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "loadout" WHERE id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "loadout" WHERE id = $1`)).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := m.Delete(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Delete(context.Background(), 8)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFindBy_Found(t *testing.T) {
	m, mock := newLoadoutMapper(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "name"}).
		AddRow(int64(4), int64(2), []byte("Scout"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "loadout" WHERE "name" = $1 LIMIT 1`)).
		WithArgs("Scout").
		WillReturnRows(rows)

	rec, err := m.FindBy(context.Background(), "name", "Scout")
	require.NoError(t, err)
	require.Equal(t, int64(4), rec["id"])
	require.Equal(t, "Scout", rec["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBy_NotFound(t *testing.T) {
	m, mock := newLoadoutMapper(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "loadout" WHERE "name" = $1 LIMIT 1`)).
		WithArgs("Ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := m.FindBy(context.Background(), "name", "Ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindBy_UnknownColumnIsError(t *testing.T) {
	m, _ := newLoadoutMapper(t)

	_, err := m.FindBy(context.Background(), "password; DROP TABLE loadout", "x")
	require.Error(t, err)
	require.False(t, errors.Is(err, common.ErrorNotFound))
}
