package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhomen368/overseerr-mcp/internal/api"
	"github.com/jhomen368/overseerr-mcp/internal/config"
	"github.com/jhomen368/overseerr-mcp/internal/health"
	"github.com/jhomen368/overseerr-mcp/internal/logger"
	"github.com/jhomen368/overseerr-mcp/internal/scheduler"
	"github.com/jhomen368/overseerr-mcp/internal/scheduler/tasks"
	"github.com/jhomen368/overseerr-mcp/internal/startup"
	"github.com/jhomen368/overseerr-mcp/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context(), ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides config)")

	return cmd
}

func runServe(parent context.Context, cmdCtx *commandContext, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stream := logger.NewStream(0)
	svc, err := cmdCtx.ensureServices(stream)
	if err != nil {
		return err
	}
	defer cmdCtx.close()
	log := svc.log

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Str("overseerr", cfg.Overseerr.URL).
		Bool("cache", cfg.Cache.Enabled).
		Msg("starting seerrcheck")

	hub := websocket.NewHub(log.Logger)
	go hub.Run(ctx)

	// Enable log streaming via WebSocket now that hub is available
	stream.SetHub(hub)
	svc.dedupe.SetBroadcaster(hub)

	healthSvc := health.NewService(log.WithComponent("health"))
	healthSvc.SetBroadcaster(hub)

	probe := func(ctx context.Context) error {
		if svc.upstream == nil {
			return nil
		}
		_, err := svc.upstream.Status(ctx)
		return err
	}

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		return err
	}
	if err := tasks.RegisterCacheTasks(sched, svc.cache, cfg.Scheduler, log.WithComponent("cache")); err != nil {
		return err
	}
	if err := tasks.RegisterHealthTask(sched, healthSvc, cfg.Scheduler, probe); err != nil {
		return err
	}

	if err := startup.WaitFor(ctx, "overseerr", startup.DefaultWaitConfig(), probe, log.Logger); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		healthSvc.SetError(tasks.UpstreamHealthID, err.Error())
		log.Warn().Err(err).Msg("Overseerr is unreachable, requests will fail until it recovers")
	}

	sched.Start(ctx)

	server := api.NewServer(api.Deps{
		Config:      cfg,
		Dedupe:      svc.dedupe,
		Requests:    svc.requests,
		Details:     svc.details,
		Cache:       svc.cache,
		Health:      healthSvc,
		Scheduler:   sched,
		Hub:         hub,
		Logs:        stream,
		LogFilePath: log.FilePath(),
		Logger:      log.Logger,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := cfg.Server.Address()
		log.Info().Str("address", addr).Msg("HTTP server listening")
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
			_ = sched.Stop()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}

	log.Info().Msg("server stopped")
	return nil
}
