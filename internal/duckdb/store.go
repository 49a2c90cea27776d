// Package duckdb stores partitioned gene sets in a DuckDB database so they
// can be queried across species and comparisons after a run.
package duckdb

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/meiosis-lab/dgecmp/internal/table"
)

// schema is applied in order on every open.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS de_genes (
		species VARCHAR,
		comparison VARCHAR,
		regulation VARCHAR,
		id_gene VARCHAR,
		log_fc DOUBLE,
		fdr DOUBLE,
		biotype VARCHAR,
		max_fdr DOUBLE,
		PRIMARY KEY (species, comparison, id_gene)
	)`,
	`CREATE TABLE IF NOT EXISTS sources (
		path VARCHAR PRIMARY KEY,
		size BIGINT,
		mod_time_ns BIGINT
	)`,
}

// Store holds the gene results of past runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the database at path, creating it and its directory when
// missing. An empty path opens an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		if err := table.EnsureDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %s: %w", path, err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path is the database file, "" when in memory.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema: %w", err)
	}
	for _, stmt := range schema {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return tx.Commit()
}
