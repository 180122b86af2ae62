// Command migrate runs the schema migrations without starting the server.
//
//	migrate [up|down|status|version|redo|reset]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lalith-99/questboard/internal/config"
	"github.com/lalith-99/questboard/internal/db"
	"github.com/lalith-99/questboard/internal/observ"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	command := "up"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.StorageDriver != config.StorageDriverPostgres {
		return fmt.Errorf("storage driver %q has no schema to migrate", cfg.StorageDriver)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	database, err := db.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	return database.RunMigrations(ctx, command, args...)
}
