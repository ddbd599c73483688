package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/clipbridge/internal/auth"
	"github.com/danmuck/clipbridge/internal/bridge"
	"github.com/danmuck/clipbridge/internal/clipboard"
	"github.com/danmuck/clipbridge/internal/config"
	"github.com/danmuck/clipbridge/internal/favorites"
	"github.com/danmuck/clipbridge/internal/host"
	"github.com/danmuck/clipbridge/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "cmd/clipbridged/config.toml", "host config path")
	flag.Parse()

	logging.ConfigureRuntime("clipbridged")
	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "clipbridged: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	sessCfg, err := cfg.Session()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clip, err := clipboard.Open(cfg.ClipboardOptions())
	if err != nil {
		return err
	}
	store, err := favorites.Open(ctx, cfg.Favorites)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := bridge.NewRegistry()
	if _, err := host.Install(registry, host.Deps{Clipboard: clip, Favorites: store}); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		log.Warn().Msg("no auth_token configured, accepting every caller")
	}
	dispatcher := bridge.NewDispatcher(registry, auth.FromConfig(cfg.AuthToken))

	if cfg.Network == "unix" {
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	ln, err := bridge.Listen(cfg.Network, cfg.Address)
	if err != nil {
		return err
	}
	if cfg.Network == "unix" {
		defer os.Remove(cfg.Address)
	}
	log.Info().
		Str("name", cfg.Name).
		Str("network", cfg.Network).
		Str("addr", ln.Addr().String()).
		Str("clipboard", cfg.Clipboard).
		Str("favorites", store.Path()).
		Strs("commands", registry.Names()).
		Msg("clipbridged started")

	httpErr := make(chan error, 1)
	if addr := strings.TrimSpace(cfg.HTTPAddr); addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           bridge.NewHTTPHandler(cfg.Name, dispatcher, cfg.CorsOrigins),
			ReadHeaderTimeout: sessCfg.ReadTimeout,
		}
		go func() {
			log.Info().Str("addr", addr).Msg("http transport listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				httpErr <- err
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	server := bridge.NewServer(dispatcher, sessCfg)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ctx, ln)
	}()
	select {
	case <-ctx.Done():
		log.Info().Int64("active_clients", server.ActiveClients()).Msg("clipbridged shutting down")
		return <-serveErr
	case err := <-serveErr:
		return err
	case err := <-httpErr:
		stop()
		<-serveErr
		return err
	}
}

func loadConfig(path string) (config.HostConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", path).Msg("config not found, using defaults")
		cfg := config.WithHostDefaults(config.HostConfig{})
		return cfg, config.ValidateHostConfig(cfg)
	}
	cfg, err := config.LoadHostConfig(path)
	if err != nil {
		return config.HostConfig{}, err
	}
	log.Info().Str("path", path).Msg("loaded host config")
	return cfg, nil
}
