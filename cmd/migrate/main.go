// Command migrate provisions the flow engine's Postgres schema. There is
// no migration history to preserve yet (see pg.EnsureSchema), so this is
// a thin CLI around that one idempotent step rather than a full up/down
// migration runner.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/flowengine/engine/internal/storage/pg"
)

var databaseURL string

func init() {
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL database URL (overrides FLOWENGINE_DATABASE_URL env var)")
}

func main() {
	flag.Parse()
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	dbURL := databaseURL
	if dbURL == "" {
		dbURL = os.Getenv("FLOWENGINE_DATABASE_URL")
	}
	if dbURL == "" {
		slog.Error("FLOWENGINE_DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := pg.NewDB(pg.Config{
		DSN:             dbURL,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		Debug:           os.Getenv("DEBUG") == "true",
	})
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pg.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := pg.EnsureSchema(ctx, db); err != nil {
		slog.Error("schema provisioning failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println("schema is up to date")
}
