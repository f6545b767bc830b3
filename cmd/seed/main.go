package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meur/pokedex/internal/catalog"
	"github.com/meur/pokedex/internal/config"
	"github.com/meur/pokedex/internal/logging"
	"github.com/meur/pokedex/internal/seed"
	"github.com/meur/pokedex/internal/storage"
)

var (
	cfgFile  string
	seedFile string
)

var rootCmd = &cobra.Command{
	Use:          "pokedex-seed",
	Short:        "Seed demo trainers and their Pokédex entries",
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.Flags().StringVar(&seedFile, "file", "./seeds/pokedex.json", "seed document")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(cfg.Logging, os.Stderr)

	f, err := seed.Load(seedFile)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	cat, err := catalog.New(catalog.Config{
		BaseURL:   cfg.Catalog.BaseURL,
		Timeout:   cfg.Catalog.Timeout,
		UserAgent: cfg.Catalog.UserAgent,
	}, logger)
	if err != nil {
		return err
	}

	res, err := seed.Run(cmd.Context(), store, cat, f, logger)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	logger.Info().
		Int("users", res.Users).
		Int("skipped", res.Skipped).
		Int("entries", res.Entries).
		Str("file", seedFile).
		Msg("Seeding complete")
	return nil
}
