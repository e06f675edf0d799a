package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meur/primedex/internal/collection"
	"github.com/meur/primedex/internal/config"
	"github.com/meur/primedex/internal/logging"
	"github.com/meur/primedex/internal/models"
	"github.com/meur/primedex/internal/storage"
	"github.com/meur/primedex/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	dbPath     string
	playerID   string
	logPath    string
	create     bool
)

var rootCmd = &cobra.Command{
	Use:          "primedex-browse",
	Short:        "Browse a player's prime collection in the terminal",
	SilenceUsage: true,
	RunE:         runBrowse,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "primedex.yaml", "Config file path")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config and DB_PATH)")
	rootCmd.Flags().StringVarP(&playerID, "player", "p", "", "Player whose collection to browse")
	rootCmd.Flags().StringVar(&logPath, "log", filepath.Join(os.TempDir(), "primedex-browse.log"), "Log file (the terminal is taken by the UI)")
	rootCmd.Flags().BoolVar(&create, "create", false, "Create the player if it does not exist yet")
	_ = rootCmd.MarkFlagRequired("player")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}

	logger, err := logging.ToFile(cfg.Logging.Level, logPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := storage.New(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if err := ensurePlayer(ctx, store, logger, playerID, create); err != nil {
		return err
	}

	browser := collection.NewBrowser(
		storage.NewPrimeSource(store, cfg.Starters),
		models.PlayerContext{PlayerID: playerID},
		collection.WithLogger(logger.Named("browser")),
	)
	logger.Info("Opening browser", zap.String("player_id", playerID))
	return tui.Run(ctx, browser)
}

// ensurePlayer checks the player exists. With create set, an unknown player
// is added so a fresh database opens straight onto the starter set.
func ensurePlayer(ctx context.Context, store *storage.Store, logger *zap.Logger, id string, create bool) error {
	p, err := store.GetPlayer(ctx, id)
	if err != nil {
		return err
	}
	if p != nil {
		return nil
	}
	if !create {
		return fmt.Errorf("player %q not found (pass --create to add it)", id)
	}
	if _, err := store.CreatePlayer(ctx, &models.PlayerCreate{ID: id, Name: id}); err != nil {
		return err
	}
	logger.Info("Created player", zap.String("player_id", id))
	return nil
}
