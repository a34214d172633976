package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cmlabs-hris/contribution-backend-go/internal/config"
	"github.com/cmlabs-hris/contribution-backend-go/internal/repository/postgresql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate [up|down|status]")
		flag.PrintDefaults()
	}
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	if err := run(context.Background(), command); err != nil {
		slog.Error("Migration failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	switch command {
	case "up":
		return postgresql.Migrate(ctx, db)
	case "down":
		provider, err := postgresql.NewMigrationProvider(db)
		if err != nil {
			return err
		}
		result, err := provider.Down(ctx)
		if err != nil {
			return fmt.Errorf("roll back: %w", err)
		}
		slog.Info("Rolled back migration", "version", result.Source.Version, "duration", result.Duration)
		return nil
	case "status":
		provider, err := postgresql.NewMigrationProvider(db)
		if err != nil {
			return err
		}
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("read status: %w", err)
		}
		for _, s := range statuses {
			slog.Info("Migration", "version", s.Source.Version, "path", s.Source.Path, "state", s.State, "applied_at", s.AppliedAt)
		}
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
