package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lprior-repo/sitekit/internal/assert"
	"github.com/lprior-repo/sitekit/internal/contact"
	"github.com/lprior-repo/sitekit/internal/handlers"
	"github.com/lprior-repo/sitekit/internal/pages"
	"github.com/lprior-repo/sitekit/internal/platform/config"
	"github.com/lprior-repo/sitekit/internal/platform/jobs"
	"github.com/lprior-repo/sitekit/internal/platform/observability"
	"github.com/lprior-repo/sitekit/internal/platform/requestctx"
	"github.com/lprior-repo/sitekit/public"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var addr, templatesDir, contentDir string
	flag.StringVar(&addr, "addr", "", "listen address, overrides SITE_SERVER_PORT")
	flag.StringVar(&templatesDir, "templates", "", "read templates from this directory instead of the embedded copy")
	flag.StringVar(&contentDir, "content", "", "read markdown pages from this directory instead of the embedded copy")
	flag.Parse()

	startedAt := time.Now().UTC()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(observability.LoggerOptions{
		Level:       cfg.Observability.LogLevel,
		Development: cfg.Site.DevMode,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("site")

	assert.SetEnabled(cfg.Features.Assertions)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	templates, err := templateSource(templatesDir)
	if err != nil {
		logger.Fatal("failed to open templates", zap.Error(err))
	}
	renderer, err := handlers.NewRenderer(templates, cfg.Site.DevMode)
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	store, err := newPageStore(contentDir, cfg.Site.DevMode)
	if err != nil {
		logger.Fatal("failed to initialise page store", zap.Error(err))
	}

	healthOpts := []handlers.HealthOption{
		handlers.WithHealthBuildInfo(buildInfoFromEnv(startedAt)),
		handlers.WithReadinessCheck("templates", func(context.Context) error { return renderer.Check() }),
		handlers.WithReadinessCheck("pages", func(context.Context) error {
			_, err := store.Slugs()
			return err
		}),
	}

	sender, closeSender, senderCheck, err := newSender(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise contact sender", zap.String("sender", cfg.Contact.Sender), zap.Error(err))
	}
	defer closeSender()
	if senderCheck != nil {
		healthOpts = append(healthOpts, handlers.WithReadinessCheck("pubsub", senderCheck))
	}

	submitter, err := contact.NewSubmitter(contact.SubmitterDeps{
		Sender: sender,
		Logger: logger.Named("contact"),
		OnTransition: func(ctx context.Context, from, to contact.State) {
			requestctx.Logger(ctx).Debug("contact submission transition",
				zap.String("from", string(from)),
				zap.String("to", string(to)),
			)
		},
	})
	if err != nil {
		logger.Fatal("failed to initialise contact submitter", zap.Error(err))
	}

	throttle := handlers.NewContactThrottle(cfg.Contact.RatePerMinute, time.Minute, nil)
	builder := cfg.Site.SEOBuilder()

	site, err := handlers.NewSiteHandlers(handlers.SiteDeps{
		Renderer:  renderer,
		Pages:     store,
		SEO:       builder,
		Submitter: submitter,
		Throttle:  throttle,
	})
	if err != nil {
		logger.Fatal("failed to initialise site handlers", zap.Error(err))
	}
	api, err := handlers.NewAPIHandlers(handlers.APIDeps{
		Submitter: submitter,
		SEO:       builder,
		Throttle:  throttle,
	})
	if err != nil {
		logger.Fatal("failed to initialise api handlers", zap.Error(err))
	}

	static, err := public.StaticFS()
	if err != nil {
		logger.Fatal("failed to open static assets", zap.Error(err))
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger),
		observability.ClientIPMiddleware,
		observability.TraceMiddleware(cfg.Observability.ProjectID),
		observability.RequestLoggerMiddleware,
		observability.RecoveryMiddleware(logger, site.ServerError),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(healthOpts...)),
		handlers.WithStatic(handlers.StaticHandler(static, cfg.Site.AssetMaxAge)),
		handlers.WithAPIRoutes(api.Routes),
		handlers.WithSiteRoutes(site.Routes),
		handlers.WithNotFound(site.NotFound),
	)

	if addr == "" {
		addr = cfg.Server.Addr()
	}
	serverLogger := logger.Named("http").With(zap.String("addr", addr))
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     observability.StdLogger(serverLogger, zapcore.ErrorLevel),
	}

	go func() {
		serverLogger.Info("site listening",
			zap.Bool("dev_mode", cfg.Site.DevMode),
			zap.String("contact_sender", cfg.Contact.Sender),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func templateSource(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	return public.TemplatesFS()
}

func newPageStore(dir string, devMode bool) (*pages.Store, error) {
	var opts []pages.Option
	if devMode {
		opts = append(opts, pages.WithCacheTTL(0))
	}
	if dir != "" {
		return pages.NewStore(os.DirFS(dir), append(opts, pages.WithDir("."))...)
	}
	return pages.NewStore(public.ContentFS(), opts...)
}

// newSender returns the configured contact sender, a cleanup func and, for
// remote senders, a readiness check.
func newSender(ctx context.Context, cfg config.Config, logger *zap.Logger) (contact.Sender, func(), handlers.ReadinessCheck, error) {
	switch cfg.Contact.Sender {
	case config.SenderPubSub:
		client, err := jobs.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, nil, nil, err
		}
		topic := client.Topic(cfg.PubSub.Topic)
		publisher, err := jobs.NewPubSubContactPublisher(topic)
		if err != nil {
			_ = client.Close()
			return nil, nil, nil, err
		}
		cleanup := func() {
			topic.Stop()
			if err := client.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}
		return publisher, cleanup, jobs.TopicCheck(topic), nil
	default:
		return contact.NewSimulatedSender(cfg.Contact.Delay), func() {}, nil, nil
	}
}

func buildInfoFromEnv(started time.Time) handlers.BuildInfo {
	version := strings.TrimSpace(os.Getenv("SITE_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(os.Getenv("SITE_BUILD_COMMIT_SHA"))
	if commit == "" {
		commit = "unknown"
	}
	return handlers.BuildInfo{
		Version:   version,
		CommitSHA: commit,
		StartedAt: started,
	}
}
