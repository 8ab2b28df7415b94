package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/safar/cafe-pos/internal/config"
	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/logger"
	"github.com/safar/cafe-pos/internal/store"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding NNN_name.{up,down}.sql files")
	seed := flag.Bool("seed", false, "install the default menu after migrating up")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: go run scripts/run_migrations.go [-dir migrations] [-seed] up|down")
		flag.PrintDefaults()
	}
	flag.Parse()

	direction := flag.Arg(0)
	if direction != "up" && direction != "down" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logg := logger.New(cfg.Log)

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logg.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	files, err := migrationFiles(*dir, direction)
	if err != nil {
		logg.Error("list migrations", "error", err)
		os.Exit(1)
	}

	for _, path := range files {
		logg.Info("running migration", "file", filepath.Base(path))
		if err := applyFile(ctx, db, path); err != nil {
			logg.Error("migration failed", "file", filepath.Base(path), "error", err)
			os.Exit(1)
		}
	}
	logg.Info("migrations complete", "count", len(files), "direction", direction)

	if *seed && direction == "up" {
		n, err := store.SeedMenu(ctx, db)
		if err != nil {
			logg.Error("seed menu", "error", err)
			os.Exit(1)
		}
		logg.Info("menu seeded", "inserted", n)
	}
}

// migrationFiles lists the files for direction in apply order: ascending
// for up, descending for down.
func migrationFiles(dir, direction string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migration directory: %w", err)
	}

	suffix := "." + direction + ".sql"
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(files)
	if direction == "down" {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}

	return files, nil
}

func applyFile(ctx context.Context, db *sql.DB, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}

	return database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
		return nil
	})
}
