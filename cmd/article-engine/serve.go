// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

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
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/article-engine/internal/api"
	"github.com/pdiddy/article-engine/internal/progress"
)

const shutdownTimeout = 10 * time.Second

// --- serve ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the article API over HTTP",
	Long: `Serve starts an HTTP server that accepts article jobs and reports their
progress:

  POST /api/articles   start a job
  GET  /api/jobs/:id   job status and result
  GET  /api/jobs       all jobs
  GET  /api/articles   saved article history`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	e, err := newEngine(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer e.Close()

	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := api.NewServer(e.orchestrator, e.store, logger.Named("api"))
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		fmt.Fprintf(os.Stderr, "Listening on %s\n", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// --- schedule ---

var scheduleCmd = &cobra.Command{
	Use:   "schedule [topic]",
	Short: "Generate an article on a cron schedule",
	Long: `Schedule runs the pipeline for the same request every time the cron
expression fires, until interrupted. The expression uses the standard five
fields, or descriptors such as @daily.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchedule,
}

func runSchedule(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd, args)
	if err != nil {
		return err
	}
	spec, _ := cmd.Flags().GetString("cron")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := newEngine(ctx, loadConfig(), true)
	if err != nil {
		return err
	}
	defer e.Close()

	log := logger.Named("schedule")
	c := cron.New()
	_, err = c.AddFunc(spec, func() {
		r := req
		r.Observer = progress.Join(progress.Log(log), e.runObserver(newRunID(), r.Topic))
		res, err := e.orchestrator.Run(ctx, r)
		if err != nil {
			log.Error("scheduled run failed", zap.String("topic", r.Topic), zap.Error(err))
			return
		}
		log.Info("scheduled run complete",
			zap.String("title", res.Metadata.Title),
			zap.String("path", res.Saved.ContentPath))
		fmt.Fprintf(os.Stdout, "Saved %s\n", res.Saved.ContentPath)
	})
	if err != nil {
		return fmt.Errorf("parsing cron expression %q: %w", spec, err)
	}

	c.Start()
	fmt.Fprintf(os.Stderr, "Scheduled %q with %q; press Ctrl-C to stop\n", req.Topic, spec)
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")

	addRequestFlags(scheduleCmd)
	scheduleCmd.Flags().String("cron", "@daily", "cron expression")

	rootCmd.AddCommand(serveCmd, scheduleCmd)
}
