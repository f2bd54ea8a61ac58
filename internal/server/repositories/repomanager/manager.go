// Package repomanager wires repository constructors to a database handle and
// exposes the schema migration hook.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/armoryhq/armory/internal/dbx"
	"github.com/armoryhq/armory/internal/server/repositories/mapper"
	"github.com/armoryhq/armory/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX. Passing a
// transactional handle yields repositories that participate in that
// transaction.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Loadouts(db dbx.DBTX) *mapper.Mapper
	Weapons(db dbx.DBTX) *mapper.Mapper
	Armors(db dbx.DBTX) *mapper.Mapper
	Skills(db dbx.DBTX) *mapper.Mapper

	RunMigrations(ctx context.Context, db *sql.DB) error
}
