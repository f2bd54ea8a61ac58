package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/armoryhq/armory/internal/common"
	"github.com/armoryhq/armory/internal/server/repositories/repomanager"
)

// requiredLoadoutFields must be present when a loadout is created.
var requiredLoadoutFields = []string{"name", "description", "weapon"}

// LoadoutService manages user-owned loadouts. Reads are public; every
// mutation runs behind the ownership guard, which compares the authenticated
// identity to the loadout's stored user_id after the record is fetched and
// before the store is touched.
type LoadoutService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewLoadoutService(db *sql.DB, m repomanager.RepositoryManager) *LoadoutService {
	return &LoadoutService{db: db, repomanager: m}
}

// List returns up to limit loadouts (all of them when limit <= 0).
func (s *LoadoutService) List(ctx context.Context, limit int) ([]map[string]any, error) {
	recs, err := s.repomanager.Loadouts(s.db).FindAll(ctx, limit)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return recs, nil
}

// Get returns the loadout with the given id.
func (s *LoadoutService) Get(ctx context.Context, id int64) (map[string]any, error) {
	rec, err := s.repomanager.Loadouts(s.db).FindByPk(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return rec, nil
}

// Create stores a new loadout owned by ownerID. The owner comes from the
// authenticated identity only; a user_id in the payload is rejected.
func (s *LoadoutService) Create(ctx context.Context, ownerID int64, fields map[string]any) (map[string]any, error) {
	if err := rejectStructural(fields); err != nil {
		return nil, err
	}
	for _, f := range requiredLoadoutFields {
		if v, ok := fields[f]; !ok || v == nil || v == "" {
			return nil, common.ErrorValidation
		}
	}
	fields["user_id"] = ownerID

	rec, err := s.repomanager.Loadouts(s.db).Create(ctx, fields)
	if err != nil {
		if errors.Is(err, common.ErrorForbiddenField) {
			return nil, common.ErrorForbiddenField
		}
		return nil, common.ErrorInternal
	}
	return rec, nil
}

// Update modifies the loadout with the given id on behalf of actorID.
func (s *LoadoutService) Update(ctx context.Context, actorID, id int64, fields map[string]any) (map[string]any, error) {
	m := s.repomanager.Loadouts(s.db)

	rec, err := m.FindByPk(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	if err := s.guardOwner(rec, actorID); err != nil {
		return nil, err
	}
	if err := rejectStructural(fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, common.ErrorValidation
	}

	updated, err := m.Update(ctx, id, fields)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound),
			errors.Is(err, common.ErrorForbiddenField),
			errors.Is(err, common.ErrorValidation):
			return nil, err
		default:
			return nil, common.ErrorInternal
		}
	}
	return updated, nil
}

// Delete removes the loadout with the given id on behalf of actorID.
func (s *LoadoutService) Delete(ctx context.Context, actorID, id int64) error {
	m := s.repomanager.Loadouts(s.db)

	rec, err := m.FindByPk(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	if err := s.guardOwner(rec, actorID); err != nil {
		return err
	}

	if _, err := m.Delete(ctx, id); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// guardOwner compares the record's user_id to the authenticated identity.
func (s *LoadoutService) guardOwner(rec map[string]any, actorID int64) error {
	owner, err := recordInt64(rec, "user_id")
	if err != nil {
		return common.ErrorInternal
	}
	if owner != actorID {
		return common.ErrorForbidden
	}
	return nil
}

// recordInt64 extracts an integer column from a scanned record.
func recordInt64(rec map[string]any, column string) (int64, error) {
	switch v := rec[column].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("record column %q is %T, not an integer", column, rec[column])
	}
}
