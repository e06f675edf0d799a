package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/meur/primedex/internal/api"
	"github.com/meur/primedex/internal/config"
	"github.com/meur/primedex/internal/logging"
	"github.com/meur/primedex/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	configPath string
	port       string
	dbPath     string
	staticDir  string
	verbose    bool
	force      bool
)

var rootCmd = &cobra.Command{
	Use:          "primedex-server",
	Short:        "Serve the primedex collection API",
	SilenceUsage: true,
	RunE:         runServer,
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write the default configuration to --config",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := writeDefaultConfig(configPath, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "primedex.yaml", "Config file path")
	rootCmd.Flags().StringVar(&port, "port", "", "Server port (overrides config and PORT)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config and DB_PATH)")
	rootCmd.Flags().StringVar(&staticDir, "static", "", "Serve a web build from this directory")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	initConfigCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	rootCmd.AddCommand(initConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port != "" {
		cfg.Server.Port = port
	}
	if dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}
	if staticDir != "" {
		cfg.Server.StaticDir = staticDir
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.JSON)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := storage.New(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()

	srv := api.New(store, storage.NewPrimeSource(store, cfg.Starters), api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger.Named("api"),
		SessionTTL:     cfg.GetSessionTTL(),
	})
	if cfg.Server.StaticDir != "" {
		srv.ServeStatic(cfg.Server.StaticDir)
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("primedex API starting",
			zap.String("addr", "http://localhost:"+cfg.Server.Port),
			zap.String("database", cfg.Storage.DatabasePath))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		logger.Info("Shutting down", zap.Duration("timeout", cfg.GetShutdownTimeout()))
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", zap.Error(err))
		return err
	}
	return nil
}

// writeDefaultConfig saves DefaultConfig to path, refusing to replace an
// existing file unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	return config.DefaultConfig().Save(path)
}
