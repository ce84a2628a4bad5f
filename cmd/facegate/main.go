package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facegate/facegate/internal/blob"
	"github.com/facegate/facegate/internal/core"
	"github.com/facegate/facegate/internal/crypto"
	"github.com/facegate/facegate/internal/face"
	"github.com/facegate/facegate/internal/provider"
	"github.com/facegate/facegate/internal/registry"
	"github.com/facegate/facegate/internal/session"
	"github.com/facegate/facegate/internal/store"
	"github.com/facegate/facegate/pkg/models"
)

const (
	envDev  = "dev"
	envProd = "production"
)

func main() {
	cfg := core.MustLoad()
	log := setupLogger(cfg.Env)

	log.Info("starting facegate", "env", cfg.Env, "address", cfg.HTTP.Address)

	st, err := openStore(cfg)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	keySet, err := crypto.NewKeySet()
	if err != nil {
		log.Error("failed to generate signing keys", "error", err)
		os.Exit(1)
	}
	jwtSvc := crypto.NewJWTService(keySet)

	sessionBackend, err := openSessionBackend(cfg)
	if err != nil {
		log.Error("failed to open session backend", "error", err)
		os.Exit(1)
	}
	sessions := session.NewManager(sessionBackend, cfg.Session.TTL, cfg.HTTP.SecureCookies)

	blobs, fsDir, err := openBlobStore(cfg)
	if err != nil {
		log.Error("failed to open blob store", "error", err)
		os.Exit(1)
	}

	reg := registry.New(st)
	seedClients(log, reg, cfg.Clients)

	p := provider.New(
		log, st, reg, keySet, jwtSvc,
		face.NewMatcher(cfg.Face.Threshold),
		face.NewHTTPExtractor(cfg.Face.ExtractorURL, cfg.Face.ExtractorTimeout),
		sessions, blobs,
		provider.Options{
			CodeTTL:    cfg.Tokens.CodeTTL,
			AccessTTL:  cfg.Tokens.AccessTTL,
			RefreshTTL: cfg.Tokens.RefreshTTL,
		},
	)

	router := core.NewRouter(log, cfg, p)
	if fsDir != "" {
		core.MountBlobDir(router, fsDir)
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runJanitor(sweepCtx, log, st, cfg.Storage.SweepInterval)

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error("server failed", "error", err)
		stopSweep()
		os.Exit(1)
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("stopped")
}

func setupLogger(env string) *slog.Logger {
	var handler slog.Handler
	switch env {
	case envDev:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	case envProd:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler)
}

func openStore(cfg *core.Config) (store.Store, error) {
	if cfg.Storage.Backend == "memory" {
		return store.NewMemory(), nil
	}
	return store.NewSQLite(cfg.Storage.DataDir)
}

func openSessionBackend(cfg *core.Config) (session.Backend, error) {
	if cfg.Session.Backend == "redis" {
		return session.NewRedisBackend(cfg.Session.RedisAddr, cfg.Session.RedisPassword, cfg.Session.RedisDB)
	}
	return session.NewMemoryBackend(), nil
}

// openBlobStore returns the archive backend plus, for the filesystem
// backend, the local directory to serve images from.
func openBlobStore(cfg *core.Config) (blob.Store, string, error) {
	switch cfg.Blob.Backend {
	case "s3":
		s, err := blob.NewS3Store(context.Background(), cfg.Blob.S3Bucket, cfg.Blob.S3Region)
		return s, "", err
	case "none":
		return nil, "", nil
	default:
		s, err := blob.NewFSStore(cfg.Blob.Dir, cfg.Blob.BaseURL)
		if err != nil {
			return nil, "", err
		}
		return s, s.Dir(), nil
	}
}

func seedClients(log *slog.Logger, reg *registry.Registry, clients []core.SeedClient) {
	for _, c := range clients {
		err := reg.Seed(context.Background(), &models.OAuthClient{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Name:         c.Name,
			RedirectURIs: c.RedirectURIs,
			GrantTypes:   []string{"authorization_code", "refresh_token"},
			Scopes:       c.Scopes,
		})
		if err != nil {
			log.Error("failed to seed client", "client_id", c.ClientID, "error", err)
		}
	}
}

// runJanitor sweeps expired codes and tokens on a fixed interval. Reads
// already treat expired rows as absent, so this only reclaims space.
func runJanitor(ctx context.Context, log *slog.Logger, st store.Store, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := st.Sweep(ctx, now); err != nil {
				log.Error("sweep failed", "error", err)
			}
		}
	}
}
