package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tellsiddh/collections/internal/assetcache"
	"github.com/tellsiddh/collections/internal/collection"
	"github.com/tellsiddh/collections/internal/config"
	"github.com/tellsiddh/collections/internal/domain"
	"github.com/tellsiddh/collections/internal/httpserver"
	"github.com/tellsiddh/collections/internal/httpserver/deps"
	"github.com/tellsiddh/collections/internal/logger"
	"github.com/tellsiddh/collections/internal/scheduler"
	"github.com/tellsiddh/collections/internal/utils"
	"github.com/tellsiddh/collections/internal/version"
	"github.com/tellsiddh/collections/internal/web"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	backend     collection.Backend
	redisClient *goredis.Client
	worker      *assetcache.Worker
	reloader    *scheduler.TitleRulesReloader
	gc          *scheduler.GarbageCollector
}

// New wires every component described by cfg. Nothing is started yet.
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	// Initialize Redis early - fail fast if unavailable
	redisClient, err := connectRedis(cfg, log)
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(cfg, log, redisClient)
	if err != nil {
		closeRedis(redisClient, log)
		return nil, err
	}
	store := collection.NewStore(backend, log)

	cacheStorage, err := openCacheStorage(cfg, redisClient)
	if err != nil {
		releaseStorage(cfg, backend, redisClient, log)
		return nil, err
	}

	shell, err := web.NewShell()
	if err != nil {
		releaseStorage(cfg, backend, redisClient, log)
		return nil, fmt.Errorf("failed to load app shell: %w", err)
	}

	var fetcher assetcache.Fetcher = assetcache.NewHandlerFetcher(shell)
	if cfg.AssetOrigin != "" {
		if fetcher, err = assetcache.NewHTTPFetcher(cfg.AssetOrigin, cfg.AssetFetchTimeout); err != nil {
			releaseStorage(cfg, backend, redisClient, log)
			return nil, err
		}
		log.Info("app shell served from remote origin", logger.String("origin", cfg.AssetOrigin))
	}

	worker := assetcache.NewWorker(cacheStorage, fetcher, assetcache.Options{
		CacheName: cfg.CacheName,
		Manifest:  cfg.AssetManifest,
	}, log.Named("assetcache"))

	classifier := domain.NewTitleClassifier(nil)

	// Title rules reloader (if a rules file is configured)
	var reloader *scheduler.TitleRulesReloader
	var reloadTrigger chan struct{}
	if cfg.TitleRulesFile != "" {
		log.Info("title rules file configured, initializing reloader",
			logger.String("file", cfg.TitleRulesFile))
		reloadTrigger = make(chan struct{}, 1)
		reloader = scheduler.NewTitleRulesReloader(
			cfg.TitleRulesFile,
			classifier,
			log,
			cfg.ReloadInterval,
			reloadTrigger,
		)
	} else {
		log.Info("title rules file not configured, using built-in rules")
	}

	// Value log GC only makes sense for badger
	var gc *scheduler.GarbageCollector
	if target, ok := backend.(scheduler.Collectable); ok && cfg.StorageBackend == config.BackendBadger {
		gc = scheduler.NewGarbageCollector(target, log, cfg.GCInterval)
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:         log,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		Store:          store,
		Classifier:     classifier,
		Worker:         worker,
		Notifier:       assetcache.NewNotifier(nil, nil, log),
		Messenger:      assetcache.NewMessenger(log, nil),
		ShellPaths:     worker.Manifest(),
		StorageBackend: cfg.StorageBackend,
		CacheBackend:   cfg.CacheBackend,
		RedisClient:    redisClient,
		MaxImportBytes: cfg.MaxImportBytes,
		TitleRulesFile: cfg.TitleRulesFile,
		ReloadTrigger:  reloadTrigger,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
	}

	return &App{
		cfg:         cfg,
		logger:      log,
		server:      httpserver.New(cfg, log, d),
		backend:     backend,
		redisClient: redisClient,
		worker:      worker,
		reloader:    reloader,
		gc:          gc,
	}, nil
}

// Run installs the app shell, starts the background jobs and serves until
// ctx is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting collections %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("collections %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)
	defer a.closeStorage()

	// Install failures are not fatal; activation still evicts stale generations.
	if err := a.worker.Install(ctx); err != nil {
		a.logger.Error("asset cache install failed", logger.Error(err))
	}
	if _, err := a.worker.Activate(ctx); err != nil {
		a.logger.Error("asset cache activation failed", logger.Error(err))
	}

	// Start title rules reloader (if enabled)
	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start title rules reloader: %w", err)
		}
		defer a.reloader.Stop()
		a.logger.Info("title rules reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	// Start garbage collector (badger only)
	if a.gc != nil {
		if err := a.gc.Start(ctx); err != nil {
			return fmt.Errorf("failed to start garbage collector: %w", err)
		}
		defer a.gc.Stop()
		a.logger.Info("garbage collector started",
			logger.Duration("interval", a.cfg.GCInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ collections stopped cleanly")
	return nil
}

func (a *App) closeStorage() {
	releaseStorage(a.cfg, a.backend, a.redisClient, a.logger)
}

// releaseStorage closes the backend, then the redis client unless the
// backend already owns it.
func releaseStorage(cfg *config.Config, backend collection.Backend, client *goredis.Client, log logger.Logger) {
	utils.CloseLogged(backend, "storage "+cfg.StorageBackend, log)

	if cfg.StorageBackend != config.BackendRedis {
		closeRedis(client, log)
	}
}

func closeRedis(client *goredis.Client, log logger.Logger) {
	if client == nil {
		return
	}
	utils.CloseLogged(client, "redis", log)
}
