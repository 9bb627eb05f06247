// Command migrate applies the SQL files in a migrations directory to the
// customer database, each in its own transaction.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"

	"github.com/ignite/loyalty-crm/internal/pkg/logger"
)

func main() {
	listOnly := flag.Bool("list", false, "list customer tables and exit")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	dir := "migrations"
	if flag.NArg() > 0 {
		dir = flag.Arg(0)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Error("connect", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("ping", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	if *listOnly {
		tables, err := listTables(db)
		if err != nil {
			logger.Error("list tables", "error", err)
			os.Exit(1)
		}
		for _, t := range tables {
			fmt.Println(" ", t)
		}
		fmt.Printf("Total: %d tables\n", len(tables))
		return
	}

	ok, failed, err := apply(db, dir)
	if err != nil {
		logger.Error("migrate", "dir", dir, "error", err)
		os.Exit(1)
	}
	logger.Info("migrations complete", "ok", ok, "errors", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func listTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT tablename FROM pg_tables WHERE schemaname='public' AND tablename LIKE 'customer%' ORDER BY tablename")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tables []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// apply runs every *.sql file in dir in name order. A failing file is rolled
// back and counted; the remaining files still run.
func apply(db *sql.DB, dir string) (ok, failed int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		path := filepath.Join(dir, f)
		data, err := os.ReadFile(path)
		if err != nil {
			return ok, failed, fmt.Errorf("read %s: %w", path, err)
		}
		content := string(data)
		if strings.TrimSpace(content) == "" {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			logger.Error("begin", "file", f, "error", err)
			failed++
			continue
		}
		if _, err := tx.Exec(content); err != nil {
			_ = tx.Rollback()
			logger.Error("migration failed", "file", f, "error", err)
			failed++
			continue
		}
		if err := tx.Commit(); err != nil {
			logger.Error("commit", "file", f, "error", err)
			failed++
			continue
		}
		logger.Info("migration applied", "file", f)
		ok++
	}
	return ok, failed, nil
}
