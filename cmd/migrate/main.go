package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/mlmshop/backend/internal/infrastructure/config"
	"github.com/mlmshop/backend/internal/infrastructure/logger"
	"github.com/mlmshop/backend/internal/infrastructure/migration"
	"github.com/mlmshop/backend/migrations"
	"go.uber.org/zap"
)

const defaultCreateDir = "migrations"

func main() {
	var (
		dir      string
		logLevel string
		confirm  bool
	)
	flag.StringVar(&dir, "dir", "", "Read migrations from this directory instead of the embedded schema")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&confirm, "confirm", false, "Confirm a destructive command (down, drop)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// create and list work on files only
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		target := dir
		if target == "" {
			target = defaultCreateDir
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(target, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return

	case "list":
		var entries []migration.Entry
		if dir != "" {
			entries, err = migration.ListMigrations(dir)
		} else {
			entries, err = migration.ListMigrationsFS(migrations.FS)
		}
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		log.Info("Available migrations", zap.Int("count", len(entries)))
		for _, e := range entries {
			fmt.Printf("  %s (down: %t)\n", e.BaseName(), e.HasDown)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	var m *migration.Migrator
	if dir != "" {
		m, err = migration.NewFromDir(db, dir, log)
	} else {
		m, err = migration.New(db, migrations.FS, log)
	}
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	if err := run(m, command, args[1:], confirm, log); err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

func run(m *migration.Migrator, command string, args []string, confirm bool, log *zap.Logger) error {
	switch command {
	case "up":
		return m.Up()

	case "down":
		if !confirm {
			return fmt.Errorf("down rolls back every migration; rerun with -confirm")
		}
		return m.Down()

	case "step":
		if len(args) < 1 {
			return fmt.Errorf("usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return m.Steps(n)

	case "goto":
		if len(args) < 1 {
			return fmt.Errorf("usage: migrate goto <version>")
		}
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.GoTo(uint(version))

	case "status", "version":
		status, err := m.Status()
		if err != nil {
			return err
		}
		if !status.Applied {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current schema version",
			zap.Uint("version", status.Version),
			zap.Bool("dirty", status.Dirty),
		)
		return nil

	case "force":
		if len(args) < 1 {
			return fmt.Errorf("usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.Force(version)

	case "drop":
		if !confirm {
			return fmt.Errorf("drop destroys all data; rerun with -confirm")
		}
		return m.Drop()

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage() {
	fmt.Println(`MLM Shop Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations (requires -confirm)
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  status                Show the current schema version
  force <version>       Mark a version as applied and clean
  drop                  Drop all database objects (requires -confirm)
  create <name> [desc]  Create a new numbered migration pair
  list                  List available migrations

Flags:
  -dir string           Use migrations from a directory instead of the embedded schema
  -log-level string     Log level: debug, info, warn, error (default: info)
  -confirm              Confirm down or drop

Environment Variables:
  MLM_DATABASE_HOST, MLM_DATABASE_PORT, MLM_DATABASE_USER,
  MLM_DATABASE_PASSWORD, MLM_DATABASE_DBNAME, MLM_DATABASE_SSLMODE`)
}
