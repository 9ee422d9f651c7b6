package refservice

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/realworldapp/api-contract-tests/servicedef"
)

const (
	defaultSeedUsers  = 5
	defaultSeedValue  = 20200101
	sessionCookieName = "rwa.sid"
	sessionUserIDKey  = "userId"
)

// Config holds the reference service settings. The zero value is usable: an in-memory
// database, the default seed password, and a fixed session secret.
type Config struct {
	// DBPath is a sqlite file path, or MemoryDatabase.
	DBPath string

	// DefaultPassword is the password of every seeded user.
	DefaultPassword string

	// SeedUsers is the number of users created by a seed.
	SeedUsers int

	// SeedValue drives the fake data generator; the same value always gives the same users.
	SeedValue int64

	// SessionSecret signs the session cookie.
	SessionSecret []byte

	// BcryptCost is the cost of password hashes. Tests lower it to bcrypt.MinCost.
	BcryptCost int

	Logger logrus.FieldLogger
}

func (c Config) withDefaults() Config {
	if c.DBPath == "" {
		c.DBPath = MemoryDatabase
	}
	if c.DefaultPassword == "" {
		c.DefaultPassword = servicedef.DefaultSeedPassword
	}
	if c.SeedUsers <= 0 {
		c.SeedUsers = defaultSeedUsers
	}
	if c.SeedValue == 0 {
		c.SeedValue = defaultSeedValue
	}
	if len(c.SessionSecret) == 0 {
		c.SessionSecret = []byte("refservice-session-secret")
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	if c.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.Logger = l
	}
	return c
}

// Service is the reference backend. It implements http.Handler.
type Service struct {
	cfg      Config
	db       *sql.DB
	users    *userStore
	sessions *sessions.CookieStore
	seedHash string
	router   *mux.Router
	log      logrus.FieldLogger
}

// New opens the datastore, seeds it, and builds the HTTP routes.
func New(ctx context.Context, cfg Config) (*Service, error) {
	cfg = cfg.withDefaults()

	db, err := openDatabase(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	users := newUserStore(db)
	if err := users.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.DefaultPassword), cfg.BcryptCost)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	store := sessions.NewCookieStore(cfg.SessionSecret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	s := &Service{
		cfg:      cfg,
		db:       db,
		users:    users,
		sessions: store,
		seedHash: string(hash),
		log:      cfg.Logger,
	}
	if err := s.Seed(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

// Seed resets the datastore to the seed users.
func (s *Service) Seed(ctx context.Context) error {
	seeded := generateSeedUsers(s.cfg.SeedValue, s.cfg.SeedUsers, s.seedHash)
	if err := s.users.Reset(ctx, seeded); err != nil {
		return fmt.Errorf("seed datastore: %w", err)
	}
	s.log.WithField("users", len(seeded)).Debug("Datastore seeded")
	return nil
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Service) Close() error {
	return s.db.Close()
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
