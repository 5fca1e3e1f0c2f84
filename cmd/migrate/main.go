package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kouden/backend/internal/infrastructure/config"
	"github.com/kouden/backend/internal/infrastructure/logger"
	"github.com/kouden/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

var errUsage = errors.New("invalid usage")

// migrator is the subset of *migration.Migrator the commands drive
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	GoTo(version uint) error
	Version() (uint, bool, error)
	Force(version int) error
}

type command struct {
	usage string
	// offline commands run without a database connection
	offline func(log *zap.Logger, path string, args []string) error
	online  func(log *zap.Logger, m migrator, args []string) error
}

var commands = map[string]command{
	"up": {
		usage:  "up                    Apply all pending migrations",
		online: func(_ *zap.Logger, m migrator, _ []string) error { return m.Up() },
	},
	"down": {
		usage:  "down                  Roll back all migrations",
		online: func(_ *zap.Logger, m migrator, _ []string) error { return m.Down() },
	},
	"step": {
		usage: "step <n>              Apply n migrations (positive=up, negative=down)",
		online: func(_ *zap.Logger, m migrator, args []string) error {
			n, err := intArg(args, "step count")
			if err != nil {
				return err
			}
			return m.Steps(n)
		},
	},
	"goto": {
		usage: "goto <version>        Migrate to a specific version",
		online: func(_ *zap.Logger, m migrator, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: version required", errUsage)
			}
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("%w: invalid version %q", errUsage, args[0])
			}
			return m.GoTo(uint(v))
		},
	},
	"version": {
		usage: "version               Show current migration version",
		online: func(log *zap.Logger, m migrator, _ []string) error {
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if v == 0 {
				log.Info("No migrations applied")
				return nil
			}
			log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
			return nil
		},
	},
	"force": {
		usage: "force <version>       Force set migration version (use with caution)",
		online: func(log *zap.Logger, m migrator, args []string) error {
			v, err := intArg(args, "version")
			if err != nil {
				return err
			}
			log.Warn("Forcing migration version", zap.Int("version", v))
			return m.Force(v)
		},
	},
	"create": {
		usage: "create <name> [desc]  Create a new migration file pair",
		offline: func(log *zap.Logger, path string, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: migration name required", errUsage)
			}
			desc := ""
			if len(args) > 1 {
				desc = args[1]
			}
			mf, err := migration.CreateMigration(path, args[0], desc)
			if err != nil {
				return err
			}
			log.Info("Migration created",
				zap.String("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	},
	"list": {
		usage: "list                  List available migrations",
		offline: func(log *zap.Logger, path string, _ []string) error {
			names, err := migration.ListMigrations(path)
			if err != nil {
				return err
			}
			log.Info("Available migrations", zap.Int("count", len(names)))
			for _, n := range names {
				fmt.Println("  -", n)
			}
			return nil
		},
	},
}

// commandOrder fixes the usage listing
var commandOrder = []string{"up", "down", "step", "goto", "version", "force", "create", "list"}

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		printUsage()
		os.Exit(1)
	}

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
		_ = log.Sync()
	}()

	path, err := resolveMigrationsPath(migrationsPath)
	if err != nil {
		log.Fatal("Failed to resolve migrations path", zap.Error(err))
	}
	log.Info("Migration CLI started", zap.String("command", args[0]), zap.String("migrations_path", path))

	if err := execute(log, cmd, path, args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			printUsage()
			os.Exit(2)
		}
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func execute(log *zap.Logger, cmd command, path string, args []string) error {
	if cmd.offline != nil {
		return cmd.offline(log, path, args)
	}

	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		log.Warn("Failed to read .env files", zap.Error(err))
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, path, log)
	if err != nil {
		return err
	}
	defer m.Close()

	return cmd.online(log, m, args)
}

// resolveMigrationsPath prefers the flag, then ./migrations, then the
// directory two levels above the executable.
func resolveMigrationsPath(flagValue string) (string, error) {
	path := flagValue
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	return filepath.Abs(path)
}

func intArg(args []string, name string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: %s required", errUsage, name)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errUsage, name, args[0])
	}
	return n, nil
}

func printUsage() {
	fmt.Println("Kouden Database Migration Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate [flags] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	for _, name := range commandOrder {
		fmt.Println("  " + commands[name].usage)
	}
	fmt.Print(`
Flags:
  -path string          Path to migrations directory (default: ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  KOUDEN_DATABASE_HOST, KOUDEN_DATABASE_PORT, KOUDEN_DATABASE_USER,
  KOUDEN_DATABASE_PASSWORD, KOUDEN_DATABASE_DBNAME, KOUDEN_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate create add_return_method_index "Index return records by method"
`)
}
