package main

// Run database migrations:
//   go run ./cmd/migrate          (up)
//   go run ./cmd/migrate down     (roll back one)
//   go run ./cmd/migrate version

import (
	"context"
	"os"

	"careermap-backend/internal/shared/config"
	"careermap-backend/internal/shared/storage/db"
	"careermap-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Configure(os.Stderr, cfg.LogLevel)
	defer telemetry.Sync()
	ctx := context.Background()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	opts := db.OptionsFromEnv(db.DefaultCLIOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	switch cmd {
	case "up":
		err = db.RunMigrations(ctx, sqlDB)
	case "down":
		err = db.RollbackOne(ctx, sqlDB)
	case "version":
		var v int64
		if v, err = db.Version(ctx, sqlDB); err == nil {
			telemetry.Info("migrate.version", map[string]any{"version": v})
		}
	default:
		telemetry.Error("migrate.unknown_command", map[string]any{"command": cmd})
		os.Exit(2)
	}
	if err != nil {
		telemetry.Error("migrate.failed", map[string]any{"command": cmd, "error": err.Error()})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"command": cmd})
}
