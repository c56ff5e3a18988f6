// Package wire provides dependency injection for the bto application.
// It builds the service graph once per process from the loaded configuration.
package wire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	cliadapter "github.com/example/bto/internal/adapters/cli"
	"github.com/example/bto/internal/adapters/sqlite"
	"github.com/example/bto/internal/app"
	"github.com/example/bto/internal/config"
	"github.com/example/bto/internal/db"
	"github.com/example/bto/internal/logging"
)

// AppName tags every log line.
const AppName = "bto"

// App is the assembled service graph for one process.
type App struct {
	Config  *config.Config
	Log     *logrus.Logger
	DB      *sql.DB
	Service *app.AllocationServiceImpl
}

// New opens the database named by cfg, builds the repositories and loads the
// allocation engine from them. Logs go to logOut.
func New(ctx context.Context, cfg *config.Config, logOut io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log := logging.New(AppName, cfg.LogLevel, logOut)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	// Create repository adapters (secondary ports) with the injected DB
	repos := sqlite.NewRepositories(database)

	svc, err := app.Load(ctx, repos,
		app.WithLogger(log),
		app.WithStrict(cfg.Strict),
	)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	log.WithField("db_path", cfg.DBPath).Debug("state loaded")

	return &App{Config: cfg, Log: log, DB: database, Service: svc}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

// AllocationAdapter returns a new AllocationAdapter writing to out.
// Each call creates a new adapter (adapters are stateless translators).
func (a *App) AllocationAdapter(out io.Writer) *cliadapter.AllocationAdapter {
	return cliadapter.NewAllocationAdapter(a.Service, out)
}

// IdentityAdapter returns a new IdentityAdapter writing to out.
func (a *App) IdentityAdapter(out io.Writer) *cliadapter.IdentityAdapter {
	return cliadapter.NewIdentityAdapter(a.Service, out)
}

var (
	configured *config.Config
	current    *App
	initErr    error
	once       sync.Once
)

// Configure sets the configuration the process singleton is built from.
// It must be called before Current.
func Configure(cfg *config.Config) {
	configured = cfg
}

// Current returns the process singleton, building it on first use.
func Current() (*App, error) {
	once.Do(func() {
		if configured == nil {
			initErr = errors.New("wire: not configured")
			return
		}
		current, initErr = New(context.Background(), configured, os.Stderr)
	})
	return current, initErr
}

// Shutdown closes the singleton if it was built.
func Shutdown() error {
	if current == nil {
		return nil
	}
	return current.Close()
}
