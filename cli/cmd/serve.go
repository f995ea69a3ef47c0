package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/strandhq/strand/cli/config"
	"github.com/strandhq/strand/engine"
	"github.com/strandhq/strand/iox"
	"github.com/strandhq/strand/log"
	"github.com/strandhq/strand/metrics"
	"github.com/strandhq/strand/store"
	"github.com/strandhq/strand/types"
)

// ServeCommand returns the serve command: a long-running process hosting
// the store, the task engine, and an optional metrics listener.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the store and configured tasks until interrupted",
		Flags: append(StoreFlags(),
			&cli.IntFlag{
				Name:  "pool-size",
				Usage: "Worker pool capacity shared by all tasks",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Prometheus listen address (e.g. :9464); empty disables",
			},
		),
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	root, err := resolveRoot(c, cfg)
	if err != nil {
		return err
	}

	logger := serveLogger(root, cfg)
	collector := metrics.NewCollector()

	s, err := store.Open(root, store.Options{
		SyncWrites: c.Bool("sync") || cfg.SyncWrites,
		Logger:     logger,
		Metrics:    collector,
	})
	if err != nil {
		return fmt.Errorf("cannot open store at %s: %w", root, err)
	}
	defer iox.DiscardClose(s)

	poolSize := cfg.PoolSize
	if c.IsSet("pool-size") {
		poolSize = c.Int("pool-size")
	}
	eng := engine.New(s, engine.Config{
		PoolSize: poolSize,
		Logger:   logger,
		Metrics:  collector,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, tc := range cfg.Tasks {
		opts := types.ReadOptions{Follow: tc.Follow, Tail: tc.Tail}
		if _, err := eng.Spawn(ctx, tc.Name, opts, engine.LogBody(logger)); err != nil {
			return fmt.Errorf("cannot spawn task %q: %w", tc.Name, err)
		}
	}

	metricsAddr := cfg.MetricsAddr
	if c.IsSet("metrics-addr") {
		metricsAddr = c.String("metrics-addr")
	}
	var metricsSrv *http.Server
	if metricsAddr != "" {
		metricsSrv, err = startMetrics(metricsAddr, collector, logger)
		if err != nil {
			return err
		}
	}

	logger.Info("serving", map[string]any{
		"root":  root,
		"tasks": len(cfg.Tasks),
		"pool":  poolSize,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", map[string]any{"signal": sig.String()})

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	eng.StopAll()
	cancel()
	return nil
}

// serveLogger builds the serve logger: rotated file output when the config
// names a log file, stderr only otherwise.
func serveLogger(root string, cfg *config.Config) *log.Logger {
	if cfg.Log.File == "" {
		return log.NewLogger(root)
	}
	return log.NewFileLogger(root, log.FileConfig{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
}

func startMetrics(addr string, collector *metrics.Collector, logger *log.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("cannot listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Handler: mux}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", map[string]any{"error": err.Error()})
		}
	}()

	logger.Info("metrics listening", map[string]any{"addr": ln.Addr().String()})
	return srv, nil
}
