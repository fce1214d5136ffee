package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("run not found")

// Store keeps the history of completed runs in a SQLite file.
//
// The connection pool is capped at one connection: SQLite allows a single
// writer, and a run is written in one transaction anyway.
type Store struct {
	db *sql.DB
}

// connPragma is a per-connection setting. want lists the values PRAGMA may
// read back once the setting is in effect.
type connPragma struct {
	name  string
	value string
	want  []string
}

var pragmas = []connPragma{
	// In-memory databases keep journal_mode=memory; WAL needs a file.
	{name: "journal_mode", value: "WAL", want: []string{"wal", "memory"}},
	{name: "synchronous", value: "NORMAL", want: []string{"1"}},
	{name: "busy_timeout", value: "5000", want: []string{"5000"}},
	{name: "foreign_keys", value: "ON", want: []string{"1"}},
}

// migration upgrades a database from version-1 to version.
type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations run in order on databases whose user_version is below theirs.
// Version 0 is schema.sql as first shipped.
var migrations = []migration{
	{
		version: 1,
		name:    "index runs by start time",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at_ns)`,
		},
	},
}

// currentSchemaVersion is the user_version of a fully migrated database.
var currentSchemaVersion = migrations[len(migrations)-1].version

// Open creates or opens the history database at path.
// Opening an existing database is safe and upgrades its schema if needed.
// ":memory:" opens a private in-memory database that lives until Close.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, p := range pragmas {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("set pragma %s: %w", p.name, err)
		}
		if err := s.verifyPragma(p.name, p.want...); err != nil {
			return err
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return s.migrate()
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := s.apply(m); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

// apply runs one migration and bumps user_version in the same transaction.
func (s *Store) apply(m migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// verifyPragma checks that pragma name reads back as one of want.
func (s *Store) verifyPragma(name string, want ...string) error {
	var got string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&got); err != nil {
		return fmt.Errorf("read pragma %s: %w", name, err)
	}

	quoted := make([]string, len(want))
	for i, w := range want {
		if strings.EqualFold(got, w) {
			return nil
		}
		quoted[i] = fmt.Sprintf("%q", w)
	}
	return fmt.Errorf("pragma %s = %q, want %s", name, got, strings.Join(quoted, " or "))
}
