// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v75/github"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	blogapp "github.com/dfryer1193/goblog/blog/application"
	"github.com/dfryer1193/goblog/blog/domain"
	"github.com/dfryer1193/goblog/blog/markdown"
	"github.com/dfryer1193/goblog/blog/persistence"
	"github.com/dfryer1193/goblog/internal/middleware"
	"github.com/dfryer1193/goblog/internal/rest"
	"github.com/dfryer1193/goblog/shared/db/sqlite"
	"github.com/dfryer1193/goblog/shared/filesystem"
	gh "github.com/dfryer1193/goblog/shared/github"
)

const shutdownTimeout = 5 * time.Second

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	setupLogging(&cfg.App)

	log.Info().
		Str("mode", cfg.App.Mode).
		Str("http_address", cfg.App.HTTP.Address()).
		Str("source_kind", cfg.Source.Kind).
		Str("sqlite_path", cfg.SQLite.Path).
		Msg("Configuration loaded")

	sourceRepo := app.source
	if sourceRepo == nil {
		var err error
		sourceRepo, err = newSourceRepository(&cfg.Source)
		if err != nil {
			return fmt.Errorf("init source: %w", err)
		}
	}

	database := sqlite.NewSQLiteDB(sqlite.NewSQLiteConfig(cfg.SQLite.Path))
	if err := database.Connect(); err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	var engineOpts []markdown.Option
	if cfg.App.SiteURL != "" {
		engineOpts = append(engineOpts, markdown.WithSiteURL(cfg.App.SiteURL))
	}
	engine := markdown.New(engineOpts...)
	highlighter := blogapp.NewChromaHighlighter(cfg.Highlight.Style)
	rewriter := blogapp.NewRewriter(engine, highlighter, blogapp.NewKaTeXMarkupRenderer())
	cache := persistence.NewRenderCache(persistence.WithDevelopmentMode(cfg.App.Development()))
	postRepo := persistence.NewPostRepository(database.DB())

	postService := blogapp.NewPostService(sourceRepo, engine, rewriter, cache, postRepo)

	var images domain.ImageRepository
	if repo, ok := sourceRepo.(domain.ImageRepository); ok {
		images = repo
	}

	router := newRouter(&cfg.App)
	rest.NewApi(router, rest.NewHandler(postService, highlighter, images))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: router,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("address", cfg.App.HTTP.Address()).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		case <-gCtx.Done():
			log.Info().Msg("Context cancelled, initiating shutdown")
		}

		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Application error")
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}

func setupLogging(cfg *ApplicationConfig) {
	zerolog.SetGlobalLevel(cfg.Level())
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Development() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func newRouter(cfg *ApplicationConfig) *gin.Engine {
	if cfg.Development() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))
	if cfg.HTTP.RateLimit > 0 {
		router.Use(middleware.RateLimitMiddleware(rate.NewLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.Burst)))
	}
	return router
}

func newSourceRepository(cfg *SourceConfig) (domain.SourceRepository, error) {
	switch cfg.Kind {
	case SourceKindGithub:
		client := github.NewClient(nil)
		if cfg.Github.Token != "" {
			client = client.WithAuthToken(cfg.Github.Token)
		}
		repo := gh.NewGithubSourceRepository(client, cfg.Github.Owner, cfg.Github.Repo, cfg.Github.Ref)
		log.Info().Str("repo", repo.GetRepoFullName()).Str("ref", cfg.Github.Ref).Msg("Reading posts from GitHub")
		return repo, nil
	case SourceKindFilesystem:
		return filesystem.NewSourceRepository(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
