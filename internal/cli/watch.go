package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ogulcanaydogan/stockwatch/internal/config"
	"github.com/ogulcanaydogan/stockwatch/internal/server"
	"github.com/ogulcanaydogan/stockwatch/pkg/notify"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the inventory and serve the alert API until interrupted",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("listen", "l", "", "Listen address (default from config)")
	watchCmd.Flags().Bool("console", false, "Also print notifications to stdout")
	watchCmd.Flags().String("file", "", "Read snapshots from a local YAML/JSON file instead of the inventory service")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	listen, _ := cmd.Flags().GetString("listen")
	if listen != "" {
		cfg.Server.Listen = listen
	}
	console, _ := cmd.Flags().GetBool("console")
	file, _ := cmd.Flags().GetString("file")

	logger := newLogger(cfg)
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, db, err := initStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	source, err := initSource(cfg, file, logger)
	if err != nil {
		return err
	}

	board := notify.NewBoard()
	surfaces := []notify.Surface{board}
	if console {
		surfaces = append(surfaces, notify.NewConsole(os.Stdout))
	}

	sched, manager, err := initEngine(cfg, source, store, surfaces, logger)
	if err != nil {
		return err
	}
	defer manager.Close()

	apiServer := server.NewServer(server.Deps{
		Settings:  store,
		Engine:    sched,
		Board:     board,
		Dismisser: manager,
	}, server.Options{AllowedOrigins: cfg.Server.AllowedOrigins}, logger)

	readTimeout, err := config.Duration(cfg.Server.ReadTimeout, 15*time.Second)
	if err != nil {
		return fmt.Errorf("server.read_timeout: %w", err)
	}
	writeTimeout, err := config.Duration(cfg.Server.WriteTimeout, 15*time.Second)
	if err != nil {
		return fmt.Errorf("server.write_timeout: %w", err)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      apiServer.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api started", "listen", cfg.Server.Listen)
		fmt.Fprintf(os.Stderr, "stockwatch listening on %s\n", cfg.Server.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	sched.Stop()
	logger.Info("watcher stopped")
	return nil
}
