// Package db keeps the community status of trees in DuckDB.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/joeblew999/plat-trees/internal/community"
)

// FlagsTable holds one row per tree with community activity.
const FlagsTable = "community_flags"

// Config holds database configuration. An empty DataDir opens an
// in-memory database.
type Config struct {
	DataDir string
	DBName  string
}

// Store reads community snapshots from DuckDB.
type Store struct {
	db *sql.DB
}

// Open opens the database at <DataDir>/duckdb/<DBName>.duckdb.
func Open(cfg Config) (*Store, error) {
	dsn := ""
	if cfg.DataDir != "" {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
		dsn = filepath.Join(duckdbDir, cfg.DBName+".duckdb")
	}
	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	return &Store{db: conn}, nil
}

// DB returns the underlying connection.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tables lists the tables in the database.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (s *Store) hasFlagsTable(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM information_schema.tables WHERE table_name = ?", FlagsTable,
	).Scan(&n)
	return n > 0, err
}

// Snapshot reads the community status of every tree. A missing table is
// an empty snapshot.
func (s *Store) Snapshot(ctx context.Context) (community.Snapshot, error) {
	ok, err := s.hasFlagsTable(ctx)
	if err != nil {
		return community.Snapshot{}, fmt.Errorf("checking %s: %w", FlagsTable, err)
	}
	if !ok {
		return community.NewSnapshot(nil), nil
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT CAST(tree_id AS VARCHAR), coalesce(watered, false), coalesce(adopted, false) FROM %s", FlagsTable))
	if err != nil {
		return community.Snapshot{}, fmt.Errorf("querying %s: %w", FlagsTable, err)
	}
	defer rows.Close()

	flags := map[string]community.Status{}
	for rows.Next() {
		var id string
		var st community.Status
		if err := rows.Scan(&id, &st.Watered, &st.Adopted); err != nil {
			return community.Snapshot{}, fmt.Errorf("scanning %s: %w", FlagsTable, err)
		}
		prev := flags[id]
		flags[id] = community.Status{Watered: prev.Watered || st.Watered, Adopted: prev.Adopted || st.Adopted}
	}
	if err := rows.Err(); err != nil {
		return community.Snapshot{}, err
	}
	return community.NewSnapshot(flags), nil
}

// ImportCSV replaces the flags table with the rows of a CSV export holding
// tree_id, watered and adopted columns.
func (s *Store) ImportCSV(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS
		SELECT CAST(tree_id AS VARCHAR) AS tree_id,
		       CAST(watered AS BOOLEAN) AS watered,
		       CAST(adopted AS BOOLEAN) AS adopted
		FROM read_csv_auto(%s, header = true)`, FlagsTable, quoted))
	if err != nil {
		return fmt.Errorf("importing %s: %w", filepath.Base(path), err)
	}
	return nil
}
