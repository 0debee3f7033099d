// Package main provides the entry point for kestrel-server, an
// embeddable HTTP/1.1 and HTTP/2 ingress server with TLS termination,
// connection/IP admission control, per-IP rate limiting, and a
// Prometheus-backed admin surface.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kestrelhq/kestrel/internal/infra/buildinfo"
	"github.com/kestrelhq/kestrel/internal/infra/confloader"
	"github.com/kestrelhq/kestrel/internal/ingress"
	"github.com/kestrelhq/kestrel/internal/ingress/admin"
	"github.com/kestrelhq/kestrel/internal/server/config"
	"github.com/kestrelhq/kestrel/internal/telemetry/logger"
	"github.com/kestrelhq/kestrel/internal/telemetry/metric"
)

func main() {
	app := &cli.App{
		Name:    "kestrel-server",
		Usage:   "embeddable HTTP/1.1 and HTTP/2 ingress server",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{"KESTREL_CONFIG"},
			},
		},
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting kestrel-server", "version", info.Version, "commit", info.Commit, "config", config.Sanitize(cfg))

	reg := metric.NewRegistry()

	srv, err := ingress.NewServer(cfg, log, reg)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	if err := reg.Underlying().Register(metric.NewCollector(srv.ActiveConnections, srv.QueueDepth)); err != nil {
		log.Warn("failed to register sampled collector", "error", err)
	}

	registerDemoRoutes(srv)
	admin.Mount(srv, cfg.Admin)

	if path := c.String("config"); path != "" {
		cfgWatcher, werr := watchLogLevel(path)
		if werr != nil {
			log.Warn("config watcher disabled", "error", werr)
		} else {
			defer cfgWatcher.Stop()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := srv.ShutdownHandler().Wait(); err != nil {
			log.Error("shutdown wait error", "error", err)
		}
		cancel()
	}()

	log.Info("server started; send SIGINT/SIGTERM or hit /killkillkill to stop")
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from defaults, an optional YAML
// file, and the environment, in that priority order, then validates
// the merged result.
func loadConfig(path string) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// watchLogLevel re-reads path's log.level on every write and applies
// it to the running process via logger.SetLevel, the one setting this
// binary can change without a restart; every other field requires a
// fresh process since ingress.Server's route table and listener are
// fixed at ListenAndServe.
func watchLogLevel(path string) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		return nil, err
	}
	w.OnChange(func(string) {
		cfg := config.Default()
		if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
			logger.Default().Warn("config reload failed", "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		logger.Default().Info("log level reloaded", "level", cfg.Log.Level)
	})
	w.StartAsync()
	return w, nil
}

func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	return logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
}

// registerDemoRoutes wires a couple of example application routes so
// the binary is runnable out of the box; embedding applications
// replace these with their own calls to srv.Handle.
func registerDemoRoutes(srv *ingress.Server) {
	srv.Handle(http.MethodGet, "/echo/{word}", func(ctx ingress.Context) {
		word, _ := ctx.Param("word")
		ctx.ResponseHeader().Set("Content-Type", "text/plain; charset=utf-8")
		ctx.WriteHeader(http.StatusOK)
		_, _ = ctx.Write([]byte(word))
	})
}
