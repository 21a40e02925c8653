package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"autodraft.app/assistant/internal/gate"
	"autodraft.app/assistant/internal/http/handler"
	"autodraft.app/assistant/internal/http/middleware"
	httprouter "autodraft.app/assistant/internal/http/router"
	"autodraft.app/assistant/internal/scheduler"
	"autodraft.app/assistant/internal/status"
)

func daemonCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Check for new meeting notes on an interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", banner)
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.WithoutCancel(ctx))
			return runDaemon(ctx, a, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log the drafts instead of creating them; never marks messages")

	return cmd
}

func runDaemon(ctx context.Context, a *app, dryRun bool) error {
	tracker := status.NewTracker()
	sched := scheduler.New(a.gate, scheduler.Config{
		Interval: a.cfg.Polling,
		Options:  gate.RunOptions{DryRun: dryRun},
	}).WithObserver(tracker)
	if a.lock != nil {
		sched.WithLock(a.lock)
	}

	var server *http.Server
	if a.cfg.HTTPPort != "" {
		server = &http.Server{
			Addr:              ":" + a.cfg.HTTPPort,
			Handler:           setupRouter(a, tracker),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			slog.InfoContext(ctx, "status server starting", "port", a.cfg.HTTPPort)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.ErrorContext(ctx, "status server error", "error", err)
			}
		}()
	}

	slog.InfoContext(ctx, "daemon starting", "env", a.cfg.Env, "interval", a.cfg.Polling, "dry_run", dryRun)
	err := sched.Run(ctx)

	slog.InfoContext(ctx, "shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "status server shutdown error", "error", err)
		}
	}
	slog.InfoContext(shutdownCtx, "shutdown complete")
	return err
}

func setupRouter(a *app, tracker *status.Tracker) *gin.Engine {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if a.cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(a.cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	var history handler.History
	if a.runlog != nil {
		history = a.runlog
	}
	httprouter.SetupRoutes(router, handler.NewStatusHandler(tracker, history))
	return router
}

const banner = `
  __ _ _   _| |_ ___   __| |_ __ __ _ / _| |_
 / _' | | | | __/ _ \ / _' | '__/ _' | |_| __|
| (_| | |_| | || (_) | (_| | | | (_| |  _| |_
 \__,_|\__,_|\__\___/ \__,_|_|  \__,_|_|  \__|
`
