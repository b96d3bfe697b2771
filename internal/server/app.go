// Package server wires the CMCS service together: configuration, logging,
// the database, the encrypted document store, the optional S3 archive, and
// the HTTP, gRPC and janitor loops with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/cmcs/internal/cryptox"
	"github.com/dmitrijs2005/cmcs/internal/docstore"
	"github.com/dmitrijs2005/cmcs/internal/logging"
	"github.com/dmitrijs2005/cmcs/internal/server/archive"
	"github.com/dmitrijs2005/cmcs/internal/server/config"
	"github.com/dmitrijs2005/cmcs/internal/server/httpapi"
	"github.com/dmitrijs2005/cmcs/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cmcs/internal/server/services"
	"github.com/dmitrijs2005/cmcs/internal/shared"

	gs "github.com/dmitrijs2005/cmcs/internal/server/grpc"
)

// Seams for tests.
var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepositoryManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
	newArchive = func(ctx context.Context, opts archive.Options) (services.Archive, error) {
		return archive.NewS3Archive(ctx, opts)
	}
	logOutput io.Writer = os.Stdout
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	userService     *services.UserService
	claimService    *services.ClaimService
	documentService *services.DocumentService
	janitor         *services.Janitor
}

// NewApp validates c and builds every component. It fails fast when the
// document encryption key is missing or malformed, before touching the
// database.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSON(logOutput, level)

	key, err := cryptox.DecodeKey(c.CryptoKey)
	if err != nil {
		return nil, fmt.Errorf("document encryption key: %w", err)
	}
	store, err := docstore.New(key, c.UploadsDir)
	shared.WipeByteArray(key)
	if err != nil {
		return nil, fmt.Errorf("document store init error: %w", err)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := newRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	// a nil *S3Archive must not end up inside the interface
	var arch services.Archive
	if c.ArchiveEnabled {
		a, err := newArchive(ctx, archive.Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		arch = a
	}

	return &App{
		config:          c,
		logger:          logger,
		db:              db,
		userService:     services.NewUserService(db, m, c.SecretKey, c.TokenValidityDuration),
		claimService:    services.NewClaimService(db, m, store, arch, logger.With("module", "claims")),
		documentService: services.NewDocumentService(db, m, store, arch, logger.With("module", "documents")),
		janitor:         services.NewJanitor(db, m, store, c.JanitorInterval, c.JanitorGracePeriod, logger.With("module", "janitor")),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	h := httpapi.NewHandler(app.userService, app.claimService, app.documentService, app.db,
		app.config.SecretKey, app.logger.With("module", "http_api"))
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, h.Router(), app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.config.SecretKey,
		app.claimService, app.documentService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run blocks until ctx is cancelled, a termination signal arrives, or one
// of the servers fails. It returns the first server error.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	record := func(err error) {
		if err != nil {
			once.Do(func() { firstErr = err })
		}
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		record(app.startHTTPServer(ctx, cancelFunc))
	}()
	go func() {
		defer wg.Done()
		record(app.startGRPCServer(ctx, cancelFunc))
	}()
	go func() {
		defer wg.Done()
		app.janitor.Run(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")

	return firstErr
}
