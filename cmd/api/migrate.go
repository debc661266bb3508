package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sudeengin/DnDbug-sub002/internal/config"
	"github.com/sudeengin/DnDbug-sub002/internal/store"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := cmd.Context()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	applied, err := store.ApplyMigrations(ctx, db, os.DirFS(cfg.MigrationsDir))
	if err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	if len(applied) == 0 {
		logger.Info("database is up to date")
		return nil
	}
	for _, version := range applied {
		fmt.Fprintln(cmd.OutOrStdout(), "applied", version)
	}
	logger.Info("migrations applied", "count", len(applied))
	return nil
}
