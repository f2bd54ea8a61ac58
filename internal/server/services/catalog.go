package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/armoryhq/armory/internal/common"
	"github.com/armoryhq/armory/internal/server/repositories/mapper"
	"github.com/armoryhq/armory/internal/server/repositories/repomanager"
)

// CatalogService serves the read-only reference tables: weapons, armors and
// skills. The catalog is seeded out of band; the API never writes to it.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager) *CatalogService {
	return &CatalogService{db: db, repomanager: m}
}

func (s *CatalogService) resource(name string) (*mapper.Mapper, error) {
	switch name {
	case "weapon":
		return s.repomanager.Weapons(s.db), nil
	case "armor":
		return s.repomanager.Armors(s.db), nil
	case "skill":
		return s.repomanager.Skills(s.db), nil
	default:
		return nil, fmt.Errorf("catalog: unknown resource %q: %w", name, common.ErrorNotFound)
	}
}

// List returns up to limit records of the named resource (all when limit <= 0).
func (s *CatalogService) List(ctx context.Context, resource string, limit int) ([]map[string]any, error) {
	m, err := s.resource(resource)
	if err != nil {
		return nil, err
	}
	recs, err := m.FindAll(ctx, limit)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return recs, nil
}

// Get returns one record of the named resource by id.
func (s *CatalogService) Get(ctx context.Context, resource string, id int64) (map[string]any, error) {
	m, err := s.resource(resource)
	if err != nil {
		return nil, err
	}
	rec, err := m.FindByPk(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return rec, nil
}
