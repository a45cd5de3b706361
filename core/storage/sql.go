package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3" // SQLite driver.
)

type dialect struct {
	schema string
	upsert string
	query  string
	stamp  func(time.Time) any
}

var sqliteDialect = dialect{
	schema: `CREATE TABLE IF NOT EXISTS kv_store (
    store_key  TEXT PRIMARY KEY,
    payload    TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`,
	upsert: `INSERT INTO kv_store (store_key, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(store_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
	query: `SELECT payload FROM kv_store WHERE store_key = ?`,
	stamp: func(t time.Time) any { return t.UTC().Format(time.RFC3339Nano) },
}

var mysqlDialect = dialect{
	schema: `CREATE TABLE IF NOT EXISTS kv_store (
    store_key  VARCHAR(191) PRIMARY KEY,
    payload    LONGTEXT NOT NULL,
    updated_at DATETIME(6) NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	upsert: `INSERT INTO kv_store (store_key, payload, updated_at) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)`,
	query: `SELECT payload FROM kv_store WHERE store_key = ?`,
	stamp: func(t time.Time) any { return t.UTC() },
}

// SQLStore keeps documents in a single two-column table.
type SQLStore struct {
	db *sql.DB
	d  dialect
}

// NewSQLiteStore opens (and creates if needed) a SQLite database file.
func NewSQLiteStore(ctx context.Context, path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pool connections.
	db.SetMaxOpenConns(1)
	return newSQLStore(ctx, db, sqliteDialect)
}

// NewMySQLStore connects with a go-sql-driver DSN (user:pass@tcp(host:3306)/db).
func NewMySQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	cfg.ParseTime = true
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(10 * time.Minute)
	return newSQLStore(ctx, db, mysqlDialect)
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database not reachable: %w", err)
	}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLStore{db: db, d: d}, nil
}

func (s *SQLStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, s.d.query, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(payload), true, nil
}

func (s *SQLStore) Write(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, s.d.upsert, key, string(data), s.d.stamp(time.Now()))
	return err
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
