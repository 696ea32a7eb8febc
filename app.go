package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/99designs/keyring"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pagesmith/internal/api"
	"pagesmith/internal/assets"
	"pagesmith/internal/config"
	"pagesmith/internal/database"
	"pagesmith/internal/events"
	"pagesmith/internal/logging"
	"pagesmith/internal/repositories"
	"pagesmith/internal/services"
	"pagesmith/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// App owns the process-wide resources and the services built on them.
type App struct {
	cfg    *config.Config
	logger zerolog.Logger

	db      *gorm.DB
	dbClose func() error
	ring    keyring.Keyring

	Keys       *services.KeyringService
	Catalog    services.ModelConfigService
	Settings   services.SettingsService
	Router     *services.ModelRouter
	Generation *services.GenerationService
	Chats      services.ChatService
	Files      services.FileService
	Sink       storage.Sink
	Broker     *events.Broker
}

func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// startup opens the database and keyring and wires every service.
func (a *App) startup(ctx context.Context) error {
	dbLevel := gormlogger.Warn
	if a.logger.GetLevel() <= zerolog.DebugLevel {
		dbLevel = gormlogger.Info
	}
	db, err := database.Init(database.Config{
		Path:     a.cfg.Database.Path,
		LogLevel: dbLevel,
		Logger:   a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	if sqlDB, err := db.DB(); err == nil {
		a.dbClose = sqlDB.Close
	}

	ring, err := services.OpenKeyring(a.cfg.Keyring)
	if err != nil {
		return err
	}
	a.ring = ring
	a.Keys = services.NewKeyringService(ring)

	a.Catalog = services.NewModelConfigService(repositories.NewModelSettingRepository(db), assets.ModelsData)
	if err := a.Catalog.Startup(ctx); err != nil {
		return err
	}
	a.Settings = services.NewSettingsService(repositories.NewSettingsRepository(db), a.Catalog, a.cfg.LLM.DefaultProvider)

	sink, err := a.openSink()
	if err != nil {
		return err
	}
	a.Sink = sink

	a.Broker = events.NewBroker()
	events.SetCustomEmitter(events.Fanout(events.LogEmitter(a.logger.With().Str("component", "events").Logger()), a.Broker.Emit))

	a.Router = services.NewModelRouter(
		a.Settings,
		a.Catalog,
		a.Keys,
		services.NewAdapterCache(),
		services.NewClientFactory(a.cfg.LLM.MaxTokens, a.cfg.LLM.Timeout, a.logger.With().Str("component", "provider").Logger()),
		a.logger,
	)

	sessions := repositories.NewChatSessionRepository(db)
	files := repositories.NewGeneratedFileRepository(db)
	a.Generation = services.NewGenerationService(
		a.Router,
		repositories.NewProjectRepository(db),
		sessions,
		files,
		sink,
		a.logger.With().Str("component", "generation").Logger(),
		services.GenerationOptions{InterFileDelay: a.cfg.LLM.InterFileDelay},
	)
	a.Chats = services.NewChatService(sessions)
	a.Files = services.NewFileService(files, sink)

	a.logger.Info().
		Str("db", a.cfg.Database.Path).
		Str("storage", a.cfg.Storage.Backend).
		Bool("git_journal", a.cfg.Storage.GitJournal).
		Msg("services ready")
	return nil
}

func (a *App) openSink() (storage.Sink, error) {
	st := a.cfg.Storage
	switch st.Backend {
	case config.StorageS3:
		return storage.NewS3Sink(storage.S3Config{
			Endpoint:      st.S3Endpoint,
			Region:        st.S3Region,
			AccessKey:     st.S3AccessKey,
			SecretKey:     st.S3SecretKey,
			Bucket:        st.S3Bucket,
			UseSSL:        st.S3UseSSL,
			PublicBaseURL: st.S3PublicURL,
		})
	default:
		disk, err := storage.NewDiskSink(st.GeneratedDir, a.cfg.Server.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		if st.GitJournal {
			return storage.NewGitJournal(disk, st.GeneratedDir, a.logger.With().Str("component", "journal").Logger()), nil
		}
		return disk, nil
	}
}

func (a *App) handler() http.Handler {
	deps := api.Deps{
		Stages:        a.Generation,
		Chats:         a.Chats,
		Files:         a.Files,
		Settings:      a.Settings,
		Catalog:       a.Catalog,
		Broker:        a.Broker,
		DefaultUserID: a.cfg.Server.DefaultUserID,
	}
	if a.cfg.Storage.Backend == config.StorageDisk {
		deps.GeneratedDir = a.cfg.Storage.GeneratedDir
	}
	return api.NewRouter(api.NewHandler(deps, a.logger.With().Str("component", "http").Logger()))
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests.
func (a *App) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

// shutdown releases what startup opened.
func (a *App) shutdown(ctx context.Context) {
	events.SetCustomEmitter(nil)
	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			a.logger.Error().Err(err).Msg("failed to close database")
		} else {
			a.logger.Debug().Msg("database closed")
		}
		a.dbClose = nil
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	l := logging.New(cfg.Log.Level, cfg.Log.Pretty, nil)
	logging.SetGlobal(l)
	return l
}
