package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/lehmann314159/flashcards/internal/api"
	"github.com/lehmann314159/flashcards/internal/config"
	"github.com/lehmann314159/flashcards/internal/repository"
	"github.com/lehmann314159/flashcards/internal/services"
)

// ErrNoDatabase is returned when a SQL connection is requested for the memory driver
var ErrNoDatabase = errors.New("memory driver has no database")

// App holds the stores and services built for one process
type App struct {
	Store      *repository.Store
	Vocabulary *services.VocabularyService
	Study      *services.StudyService
	Router     http.Handler

	db *sqlx.DB
}

// New opens the configured store and builds the services and router on top of it
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, opts ...services.StudyOption) (*App, error) {
	store, db, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	vocabulary := services.NewVocabularyService(store.Words, services.NewDictionaryService(), log)
	study := services.NewStudyService(store, log, opts...)
	handler := api.NewHandler(vocabulary, study, log, cfg.Server.MaxUploadBytes)

	log.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
		"env":    cfg.Env,
	}).Info("store ready")

	return &App{
		Store:      store,
		Vocabulary: vocabulary,
		Study:      study,
		Router:     api.NewRouter(handler, cfg.Server.APIToken, log),
		db:         db,
	}, nil
}

// Close releases the database connection, if any
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// OpenStore builds the store for the configured driver. The returned db is nil for the memory driver.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (*repository.Store, *sqlx.DB, error) {
	if cfg.Driver == config.DriverMemory {
		return repository.NewMemoryStore(), nil, nil
	}

	driverName, err := sqlDriver(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}

	db, err := repository.Open(ctx, driverName, cfg.DSN, cfg.MaxOpenConns)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewSQLStore(db), db, nil
}

// Connect opens the configured SQL database without migrating it
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.Driver == config.DriverMemory {
		return nil, ErrNoDatabase
	}

	driverName, err := sqlDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	return repository.Connect(ctx, driverName, cfg.DSN, cfg.MaxOpenConns)
}

func sqlDriver(driver string) (string, error) {
	switch driver {
	case config.DriverSQLite:
		return repository.DriverSQLite, nil
	case config.DriverPostgres:
		return repository.DriverPgx, nil
	default:
		return "", fmt.Errorf("%w: %q", config.ErrUnknownDriver, driver)
	}
}
