// Package services contains server-side business logic. This file implements
// UserService: the registration/login pipeline plus self-service account
// updates guarded by the authenticated identity.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/armoryhq/armory/internal/common"
	"github.com/armoryhq/armory/internal/dbx"
	"github.com/armoryhq/armory/internal/server/auth"
	"github.com/armoryhq/armory/internal/server/config"
	"github.com/armoryhq/armory/internal/server/models"
	"github.com/armoryhq/armory/internal/server/repositories/repomanager"
)

// structuralFields may never be set through a request body: the primary key
// and the ownership column are managed by the server.
var structuralFields = []string{"id", "user_id"}

func rejectStructural(fields map[string]any) error {
	for _, f := range structuralFields {
		if _, ok := fields[f]; ok {
			return common.ErrorForbiddenField
		}
	}
	return nil
}

// UserService provides authentication-related operations:
//   - Register: uniqueness gate, hash, create
//   - Login: credential verification and token issuance
//   - Get/Update/Delete: account reads and self-service mutations
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.Hasher
	jwtSecret   []byte
	jwtDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      auth.NewHasher(cfg.BcryptCost),
		jwtSecret:   []byte(cfg.JWTSecret),
		jwtDuration: cfg.JWTDuration,
	}
}

// Register creates a new user. The email is lower-cased before the
// uniqueness check so "A@x.com" and "a@x.com" collide. The uniqueness gate
// and the insert share one transaction; the UNIQUE constraints on the table
// close the cross-connection race.
func (s *UserService) Register(ctx context.Context, email, password, username string) (*models.User, error) {
	if email == "" || password == "" || username == "" {
		return nil, common.ErrorValidation
	}
	email = strings.ToLower(email)

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if _, err := repo.GetByEmail(ctx, email); err == nil {
			return common.ErrorConflict
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		if _, err := repo.GetByUsername(ctx, username); err == nil {
			return common.ErrorConflict
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		u, err := repo.Create(ctx, &models.User{Email: email, Username: username, Password: hash})
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// Login verifies the credentials and, on success, returns the user and a
// freshly issued identity token. Unknown email and wrong password yield the
// same common.ErrorUnauthorized; the hash comparison runs either way so the
// two cases take comparable time.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", common.ErrorValidation
	}
	email = strings.ToLower(email)

	repo := s.repomanager.Users(s.db)

	targetHash := auth.DummyHash
	var user *models.User

	u, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		user = u
		targetHash = u.Password
	case errors.Is(err, common.ErrorNotFound):
		// keep going against the dummy hash
	default:
		return nil, "", common.ErrorInternal
	}

	ok, err := s.hasher.Verify(password, targetHash)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	if user == nil || !ok {
		return nil, "", common.ErrorUnauthorized
	}

	token, err := auth.IssueToken(user, s.jwtSecret, s.jwtDuration)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	return user, token, nil
}

// Get returns the user with the given id.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// Update applies a partial update to the account with the given id. Only the
// account owner may update it. A new email is lower-cased and re-checked for
// uniqueness inside the same transaction as the write; a new password is
// hashed before it goes anywhere near the store.
func (s *UserService) Update(ctx context.Context, actorID, id int64, fields map[string]any) (map[string]any, error) {
	if actorID != id {
		return nil, common.ErrorForbidden
	}
	if err := rejectStructural(fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, common.ErrorValidation
	}

	if v, ok := fields["email"]; ok {
		email, ok := v.(string)
		if !ok || email == "" {
			return nil, common.ErrorValidation
		}
		fields["email"] = strings.ToLower(email)
	}
	if v, ok := fields["username"]; ok {
		if username, ok := v.(string); !ok || username == "" {
			return nil, common.ErrorValidation
		}
	}
	if v, ok := fields["password"]; ok {
		password, ok := v.(string)
		if !ok || password == "" {
			return nil, common.ErrorValidation
		}
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return nil, common.ErrorInternal
		}
		fields["password"] = hash
	}

	var rec map[string]any
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if email, ok := fields["email"].(string); ok {
			if existing, err := repo.GetByEmail(ctx, email); err == nil && existing.ID != id {
				return common.ErrorConflict
			} else if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return err
			}
		}
		if username, ok := fields["username"].(string); ok {
			if existing, err := repo.GetByUsername(ctx, username); err == nil && existing.ID != id {
				return common.ErrorConflict
			} else if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return err
			}
		}

		r, err := repo.UpdateFields(ctx, id, fields)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound),
			errors.Is(err, common.ErrorConflict),
			errors.Is(err, common.ErrorForbiddenField),
			errors.Is(err, common.ErrorValidation):
			return nil, err
		default:
			return nil, common.ErrorInternal
		}
	}
	return rec, nil
}

// Delete removes the account with the given id. Only the account owner may
// delete it.
func (s *UserService) Delete(ctx context.Context, actorID, id int64) error {
	if actorID != id {
		return common.ErrorForbidden
	}
	ok, err := s.repomanager.Users(s.db).Delete(ctx, id)
	if err != nil {
		return common.ErrorInternal
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}
