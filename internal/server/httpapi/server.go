// Package httpapi exposes the armory over REST: the register/login/logout
// pipeline, account self-service, user-owned loadouts and the read-only
// equipment catalog.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/armoryhq/armory/internal/logging"
	"github.com/armoryhq/armory/internal/server/auth"
	"github.com/armoryhq/armory/internal/server/config"
	"github.com/armoryhq/armory/internal/server/models"
)

// UserService is the account surface the transport depends on.
type UserService interface {
	Register(ctx context.Context, email, password, username string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, actorID, id int64, fields map[string]any) (map[string]any, error)
	Delete(ctx context.Context, actorID, id int64) error
}

// LoadoutService is the loadout surface the transport depends on.
type LoadoutService interface {
	List(ctx context.Context, limit int) ([]map[string]any, error)
	Get(ctx context.Context, id int64) (map[string]any, error)
	Create(ctx context.Context, ownerID int64, fields map[string]any) (map[string]any, error)
	Update(ctx context.Context, actorID, id int64, fields map[string]any) (map[string]any, error)
	Delete(ctx context.Context, actorID, id int64) error
}

// CatalogService is the read-only reference-table surface.
type CatalogService interface {
	List(ctx context.Context, resource string, limit int) ([]map[string]any, error)
	Get(ctx context.Context, resource string, id int64) (map[string]any, error)
}

// Pinger reports storage liveness; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	address    string
	corsOrigin string
	jwtSecret  []byte

	logger   logging.Logger
	users    UserService
	loadouts LoadoutService
	catalog  CatalogService
	sessions auth.SessionStore
	pinger   Pinger
}

func NewServer(cfg *config.Config, l logging.Logger,
	users UserService, loadouts LoadoutService, catalog CatalogService,
	sessions auth.SessionStore, pinger Pinger) *Server {
	return &Server{
		address:    cfg.Address,
		corsOrigin: cfg.CORSOrigin,
		jwtSecret:  []byte(cfg.JWTSecret),
		logger:     l.With("module", "http_server"),
		users:      users,
		loadouts:   loadouts,
		catalog:    catalog,
		sessions:   sessions,
		pinger:     pinger,
	}
}

// Handler builds the full route tree. Reads on users, loadouts and the
// catalog are public; everything that mutates, plus the identity endpoint,
// sits behind the session middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(s.corsOrigin, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Get("/logout", s.handleLogout)

	r.Route("/users", func(r chi.Router) {
		r.With(s.authenticate).Get("/", s.handleIdentity)
		r.Get("/{id}", s.handleGetUser)
		r.With(s.authenticate).Put("/{id}", s.handleUpdateUser)
		r.With(s.authenticate).Delete("/{id}", s.handleDeleteUser)
	})

	r.Route("/loadouts", func(r chi.Router) {
		r.Get("/", s.handleListLoadouts)
		r.With(s.authenticate).Post("/", s.handleCreateLoadout)
		r.Get("/{id}", s.handleGetLoadout)
		r.With(s.authenticate).Put("/{id}", s.handleUpdateLoadout)
		r.With(s.authenticate).Delete("/{id}", s.handleDeleteLoadout)
	})

	for path, resource := range map[string]string{
		"/weapons": "weapon",
		"/armors":  "armor",
		"/skills":  "skill",
	} {
		r.Get(path, s.handleCatalogList(resource))
		r.Get(path+"/{id}", s.handleCatalogGet(resource))
	}

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
