// Package storage mirrors the article catalog into MySQL for consumers that
// query articles rather than read the JSON file.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"

	"feedsync/internal/catalog"
	"feedsync/internal/config"
)

// Store persists catalog entries to MySQL.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewMySQLStore creates the database (if needed), ensures schema, and returns a ready store.
func NewMySQLStore(ctx context.Context, cfg config.MySQL, logger *slog.Logger) (*Store, error) {
	rootDB, err := sql.Open("mysql", dsn(cfg, false))
	if err != nil {
		return nil, fmt.Errorf("open root mysql connection: %w", err)
	}
	if err := rootDB.PingContext(ctx); err != nil {
		_ = rootDB.Close()
		return nil, fmt.Errorf("ping root mysql: %w", err)
	}
	createDB := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` DEFAULT CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", cfg.Database)
	if _, err := rootDB.ExecContext(ctx, createDB); err != nil {
		_ = rootDB.Close()
		return nil, fmt.Errorf("create database: %w", err)
	}
	_ = rootDB.Close()

	db, err := sql.Open("mysql", dsn(cfg, true))
	if err != nil {
		return nil, fmt.Errorf("open mysql with db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql with db: %w", err)
	}

	store := &Store{db: db, logger: logger}
	if err := store.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// dsn builds the driver DSN, with or without the target database selected.
func dsn(cfg config.MySQL, withDB bool) string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	c.ParseTime = true
	c.Params = map[string]string{"charset": "utf8mb4"}
	if withDB {
		c.DBName = cfg.Database
	}
	return c.FormatDSN()
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const createTable = `
CREATE TABLE IF NOT EXISTS articles (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	external_url VARCHAR(768) NOT NULL UNIQUE,
	slug VARCHAR(255) NOT NULL,
	published_at DATE NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`
	_, err := s.db.ExecContext(ctx, createTable)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SyncCatalog upserts every entry keyed by external URL in one transaction.
// Rows are never deleted, matching the catalog file.
func (s *Store) SyncCatalog(ctx context.Context, entries []catalog.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sync: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO articles (external_url, slug, published_at)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
	slug=VALUES(slug),
	published_at=VALUES(published_at),
	updated_at=CURRENT_TIMESTAMP
`)
	if err != nil {
		return fmt.Errorf("prepare sync: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ExternalURL, e.ID, publishedAt(e)); err != nil {
			return fmt.Errorf("upsert %s: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sync: %w", err)
	}

	s.logger.Info("catalog mirrored to mysql", slog.Int("entries", len(entries)))
	return nil
}

func publishedAt(e catalog.Entry) sql.NullString {
	return sql.NullString{String: e.PublishedAt, Valid: e.Dated()}
}
