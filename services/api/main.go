package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/miamiwave/internal/config"
	"github.com/miamiwave/internal/handler"
	"github.com/miamiwave/internal/logger"
	"github.com/miamiwave/internal/push"
	"github.com/miamiwave/internal/record"
	"github.com/miamiwave/internal/record/cache"
	"github.com/miamiwave/internal/record/httpstore"
	"github.com/miamiwave/internal/record/memory"
	"github.com/miamiwave/internal/record/pgstore"
	"github.com/miamiwave/internal/service"
	"github.com/miamiwave/internal/startup"
	"github.com/miamiwave/internal/storage"
	memcache "github.com/miamiwave/internal/storage/memory"
	"github.com/miamiwave/internal/view"
	"github.com/miamiwave/internal/ws"
)

func main() {
	logger.SetPrefix("api")
	migrate := flag.Bool("migrate", false, "apply postgres migrations and exit")
	dev := flag.Bool("dev", false, "start with embedded PostgreSQL (no external DB required)")
	inMemory := flag.Bool("memory", false, "keep records in process memory")
	flag.Parse()

	logger.Info("starting API service")
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch {
	case *inMemory:
		cfg.StoreDriver = config.DriverMemory
	case *dev:
		embedded, err := startup.StartEmbeddedPostgres(0)
		if err != nil {
			logger.Errorf("embedded postgres: %v", err)
			os.Exit(1)
		}
		defer embedded.Stop()
		cfg.StoreDriver = config.DriverPostgres
		cfg.Database.URL = embedded.URL
	}

	gw, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Errorf("record store: %v", err)
		os.Exit(1)
	}
	defer closeStore()
	if *migrate {
		return
	}

	gw, closeCache := withCache(ctx, cfg, gw)
	defer closeCache()

	keys, err := push.ResolveVAPIDKeys(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.VAPIDKeysFile)
	if err != nil {
		logger.Warnf("push disabled: %v", err)
	}
	sender := push.NewSender(gw, keys, cfg.Push.Subscriber)

	hub := ws.NewHub(cfg.MaxWSConnections)
	svc := service.New(gw, service.WithBroadcaster(hub), service.WithPusher(sender))
	hub.Bind(svc.Chats, svc.Messages, svc.Users)

	hubCtx, hubCancel := context.WithCancel(ctx)
	var hubWg sync.WaitGroup
	hubWg.Add(1)
	go func() {
		defer hubWg.Done()
		hub.Run(hubCtx)
	}()

	r := handler.NewRouter(handler.Deps{
		Config:   cfg,
		Services: svc,
		Loader:   view.NewLoader(svc),
		Hub:      hub,
		Push:     sender,
	})

	webDist := "./web/dist"
	if info, err := os.Stat(webDist); err == nil && info.IsDir() {
		r.Get("/*", spaHandler(webDist))
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	var srvWg sync.WaitGroup
	errCh := make(chan error, 1)
	srvWg.Add(1)
	go func() {
		defer srvWg.Done()
		logger.Infof("server listening on %s (store=%s)", cfg.ServerAddr, cfg.StoreDriver)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	logger.Info("server stopped accepting connections")
	hubCancel()
	hubWg.Wait()
	logger.Info("hub stopped")
	srvWg.Wait()
	logger.Info("server goroutine exited")
}

// openStore выбирает реализацию шлюза записей по STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (record.Gateway, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		poolCfg.MaxConns = int32(cfg.DBMaxConnections())
		poolCfg.MinConns = 2
		pool, err := startup.ConnectDBWithRetry(ctx, poolCfg, 60*time.Second)
		if err != nil {
			return nil, nil, err
		}
		migrateCtx, migrateCancel := context.WithTimeout(ctx, 30*time.Second)
		defer migrateCancel()
		if err := pgstore.Migrate(migrateCtx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("database connected, migrations applied")
		return pgstore.New(pool), pool.Close, nil
	case config.DriverMemory:
		store := memory.New()
		if err := startup.SeedFromFile(store, cfg.SeedFile); err != nil {
			return nil, nil, err
		}
		logger.Info("using in-memory record store")
		return store, func() {}, nil
	default:
		logger.Infof("using remote record store %s", cfg.Backend.URL)
		return httpstore.New(cfg.Backend.URL, cfg.Backend.ProjectID, cfg.Backend.PublicKey, cfg.Backend.Timeout, nil), func() {}, nil
	}
}

// withCache оборачивает шлюз кешем GetByID: Redis, если задан REDIS_URL, иначе память процесса.
func withCache(ctx context.Context, cfg *config.Config, gw record.Gateway) (record.Gateway, func()) {
	if !cfg.Cache.Enabled {
		return gw, func() {}
	}
	var store storage.Cache = memcache.New()
	if cfg.Cache.RedisURL != "" {
		client, err := startup.ConnectRedisWithRetry(ctx, cfg.Cache.RedisURL, 30*time.Second)
		if err != nil {
			logger.Warnf("redis unavailable, falling back to in-process cache: %v", err)
		} else {
			store = client
		}
	}
	logger.Infof("record cache enabled, ttl %v", cfg.Cache.TTL())
	return cache.New(gw, store, cfg.Cache.TTL()), func() {
		if err := store.Close(); err != nil {
			logger.Errorf("cache close: %v", err)
		}
	}
}

func spaHandler(dir string) http.HandlerFunc {
	fs := http.Dir(dir)
	fileServer := http.FileServer(fs)
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(filepath.Clean(r.URL.Path), "/")
		if path == "" {
			path = "index.html"
		}
		if f, err := fs.Open(path); err != nil {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
		} else {
			f.Close()
			fileServer.ServeHTTP(w, r)
		}
	}
}
