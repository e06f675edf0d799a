package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/meur/primedex/internal/config"
	"github.com/meur/primedex/internal/logging"
	"github.com/meur/primedex/internal/models"
	"github.com/meur/primedex/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// seedFile is the on-disk layout of a seed file
type seedFile struct {
	Players []seedPlayer `json:"players"`
}

type seedPlayer struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Primes []models.Prime `json:"primes"`
}

var (
	configPath string
	dbPath     string
	seedsDir   string
)

var rootCmd = &cobra.Command{
	Use:          "primedex-seed [files...]",
	Short:        "Seed players and their primes from JSON files",
	Long:         "Seed players and their primes from JSON files. With no arguments every *.json file in --seeds is loaded.",
	SilenceUsage: true,
	RunE:         runSeed,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "primedex.yaml", "Config file path")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config and DB_PATH)")
	rootCmd.Flags().StringVar(&seedsDir, "seeds", "./seeds", "Seeds directory")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	store, err := storage.New(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	files := args
	if len(files) == 0 {
		files, err = filepath.Glob(filepath.Join(seedsDir, "*.json"))
		if err != nil {
			return err
		}
	}

	seeded := seedAll(cmd.Context(), store, logger, files)
	logger.Info("Seeding complete", zap.Int("files", seeded), zap.Int("failed", len(files)-seeded))
	return nil
}

// seedAll loads every file, logging failures without stopping, and returns
// how many files were applied.
func seedAll(ctx context.Context, store *storage.Store, logger *zap.Logger, files []string) int {
	seeded := 0
	for _, path := range files {
		n, err := seedFromFile(ctx, store, path)
		if err != nil {
			logger.Warn("Failed to seed file", zap.String("file", path), zap.Error(err))
			continue
		}
		logger.Info("Seeded file", zap.String("file", path), zap.Int("primes", n))
		seeded++
	}
	return seeded
}

// stableID derives a prime ID from its seed position so reseeding keeps IDs
func stableID(playerID string, index int, name string) string {
	input := fmt.Sprintf("%s:%d:%s", playerID, index, name)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(input)).String()
}

func seedFromFile(ctx context.Context, store *storage.Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var sf seedFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return 0, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	total := 0
	for _, p := range sf.Players {
		if p.ID == "" {
			return total, fmt.Errorf("player %q has no id", p.Name)
		}
		if err := store.UpsertPlayer(ctx, &models.Player{ID: p.ID, Name: p.Name}); err != nil {
			return total, fmt.Errorf("upsert player %s: %w", p.ID, err)
		}
		for i := range p.Primes {
			if p.Primes[i].ID == "" {
				p.Primes[i].ID = stableID(p.ID, i, p.Primes[i].Name)
			}
		}
		if err := store.ReplacePrimes(ctx, p.ID, p.Primes); err != nil {
			return total, fmt.Errorf("replace primes for %s: %w", p.ID, err)
		}
		total += len(p.Primes)
	}
	return total, nil
}
