// Command migrate applies the database schema without starting a service.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/diagnosis/luxsuv-rentals/pkg/config"
	"github.com/diagnosis/luxsuv-rentals/pkg/database"
	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
)

func main() {
	cfg := config.Load()

	dir := flag.String("dir", cfg.Migrations.Path, "directory of SQL migrations, empty uses the embedded set")
	flag.Parse()

	pool, err := database.Connect(context.Background(), cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", logger.Err(err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(pool, *dir); err != nil {
		logger.Error("Migration failed", logger.Err(err))
		os.Exit(1)
	}
	logger.Info("Migrations applied", "dir", *dir)
}
