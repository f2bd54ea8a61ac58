// Package mapper implements a generic, table-parameterized data mapper over
// a relational client. One Mapper instance serves one table; there is no
// per-entity subclassing, only configuration (table name, writable columns).
//
// Identifiers are never taken from request input: the table name and every
// column are checked against the configuration before they reach the SQL
// text, and all values travel as placeholders.
package mapper

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/armoryhq/armory/internal/common"
	"github.com/armoryhq/armory/internal/dbx"
)

// Config parameterizes a Mapper.
type Config struct {
	// Table is the quoted-on-use table name.
	Table string
	// Writable lists the columns Create/Update may set. Structural columns
	// (id, timestamps) are managed by the database and never writable.
	Writable []string
	// JSON lists columns stored as jsonb; their values are marshalled on
	// write and returned as json.RawMessage on read.
	JSON []string
}

type Mapper struct {
	db       dbx.DBTX
	table    string
	writable map[string]bool
	jsonCols map[string]bool
}

func New(db dbx.DBTX, cfg Config) *Mapper {
	m := &Mapper{
		db:       db,
		table:    cfg.Table,
		writable: make(map[string]bool, len(cfg.Writable)),
		jsonCols: make(map[string]bool, len(cfg.JSON)),
	}
	for _, c := range cfg.Writable {
		m.writable[c] = true
	}
	for _, c := range cfg.JSON {
		m.jsonCols[c] = true
	}
	return m
}

// Table returns the configured table name.
func (m *Mapper) Table() string { return m.table }

// FindByPk returns the record with the given id, or common.ErrorNotFound.
func (m *Mapper) FindByPk(ctx context.Context, id int64) (map[string]any, error) {
	query := fmt.Sprintf(`SELECT * FROM %q WHERE id = $1`, m.table)
	return m.queryOne(ctx, query, id)
}

// FindAll returns up to limit records, or every record when limit <= 0.
func (m *Mapper) FindAll(ctx context.Context, limit int) ([]map[string]any, error) {
	query := fmt.Sprintf(`SELECT * FROM %q ORDER BY id`, m.table)
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	records := []map[string]any{}
	for rows.Next() {
		rec, err := m.scanRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return records, nil
}

// FindBy returns the first record whose column equals value, or
// common.ErrorNotFound. The column must be one the Mapper was configured
// with.
func (m *Mapper) FindBy(ctx context.Context, column string, value any) (map[string]any, error) {
	if !m.writable[column] {
		return nil, fmt.Errorf("mapper: unknown column %q on %q", column, m.table)
	}
	query := fmt.Sprintf(`SELECT * FROM %q WHERE %q = $1 LIMIT 1`, m.table, column)
	return m.queryOne(ctx, query, value)
}

// Create inserts fields as a new record and returns it as stored.
func (m *Mapper) Create(ctx context.Context, fields map[string]any) (map[string]any, error) {
	cols, vals, err := m.collect(fields)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("mapper: create on %q with no fields: %w", m.table, common.ErrorValidation)
	}

	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf("%q", c)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s) RETURNING *`,
		m.table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	return m.queryOne(ctx, query, vals...)
}

// Update applies fields to the record with the given id, stamps updated_at,
// and returns the record as stored. Missing record is common.ErrorNotFound.
func (m *Mapper) Update(ctx context.Context, id int64, fields map[string]any) (map[string]any, error) {
	cols, vals, err := m.collect(fields)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("mapper: update on %q with no fields: %w", m.table, common.ErrorValidation)
	}

	assignments := make([]string, 0, len(cols)+1)
	for i, c := range cols {
		assignments = append(assignments, fmt.Sprintf("%q = $%d", c, i+1))
	}
	assignments = append(assignments, "updated_at = now()")

	query := fmt.Sprintf(`UPDATE %q SET %s WHERE id = $%d RETURNING *`,
		m.table, strings.Join(assignments, ", "), len(cols)+1)
	return m.queryOne(ctx, query, append(vals, id)...)
}

// Delete removes the record with the given id and reports whether a record
// was actually removed.
func (m *Mapper) Delete(ctx context.Context, id int64) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %q WHERE id = $1`, m.table)
	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n != 0, nil
}

// collect validates fields against the writable set and returns columns in
// deterministic order with their normalized values.
func (m *Mapper) collect(fields map[string]any) ([]string, []any, error) {
	cols := make([]string, 0, len(fields))
	for c := range fields {
		if !m.writable[c] {
			return nil, nil, fmt.Errorf("mapper: column %q not writable on %q: %w", c, m.table, common.ErrorForbiddenField)
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)

	vals := make([]any, 0, len(cols))
	for _, c := range cols {
		v, err := normalize(fields[c])
		if err != nil {
			return nil, nil, err
		}
		vals = append(vals, v)
	}
	return cols, vals, nil
}

// normalize converts composite JSON values into driver-friendly bytes.
func normalize(v any) (any, error) {
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("mapper: marshal value: %w", err)
		}
		return b, nil
	default:
		return v, nil
	}
}

func (m *Mapper) queryOne(ctx context.Context, query string, args ...any) (map[string]any, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		return nil, common.ErrorNotFound
	}
	return m.scanRow(rows)
}

func (m *Mapper) scanRow(rows *sql.Rows) (map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	rec := make(map[string]any, len(cols))
	for i, c := range cols {
		v := vals[i]
		if b, ok := v.([]byte); ok {
			if m.jsonCols[c] {
				v = json.RawMessage(b)
			} else {
				v = string(b)
			}
		}
		rec[c] = v
	}
	return rec, nil
}
