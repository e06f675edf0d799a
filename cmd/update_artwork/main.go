package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/meur/primedex/internal/config"
	"github.com/meur/primedex/internal/logging"
	"github.com/meur/primedex/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Artwork is one entry of the artwork manifest, keyed by species name
type Artwork struct {
	Image string `json:"image"`
}

var (
	configPath   string
	dbPath       string
	manifestPath string
)

var rootCmd = &cobra.Command{
	Use:          "primedex-update-artwork",
	Short:        "Attach artwork images to primes by species name",
	SilenceUsage: true,
	RunE:         runUpdate,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "primedex.yaml", "Config file path")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config and DB_PATH)")
	rootCmd.Flags().StringVar(&manifestPath, "manifest", "data/artwork.json", "Artwork manifest JSON path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.JSON)
	if err != nil {
		return err
	}
	defer logger.Sync()

	manifest, err := readManifest(manifestPath)
	if err != nil {
		return err
	}
	logger.Info("Loaded artwork manifest", zap.Int("species", len(manifest)))

	store, err := storage.New(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	updated, notFound := applyManifest(cmd.Context(), store, logger, manifest)
	logger.Info("Artwork updated", zap.Int64("primes", updated), zap.Strings("not_found", notFound))
	return nil
}

func readManifest(path string) (map[string]Artwork, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest map[string]Artwork
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return manifest, nil
}

// applyManifest returns the number of primes touched and the species names
// no prime carries, sorted.
func applyManifest(ctx context.Context, store *storage.Store, logger *zap.Logger, manifest map[string]Artwork) (int64, []string) {
	var updated int64
	notFound := []string{}
	for name, art := range manifest {
		n, err := store.SetSpeciesImage(ctx, name, art.Image)
		if err != nil {
			logger.Warn("Failed to update species", zap.String("species", name), zap.Error(err))
			continue
		}
		if n == 0 {
			notFound = append(notFound, name)
		}
		updated += n
	}
	sort.Strings(notFound)
	return updated, notFound
}
