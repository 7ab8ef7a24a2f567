// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ikarpovich/study-sync/internal/config"
	"github.com/ikarpovich/study-sync/internal/logger"
)

// ClientDB wraps the client-side SQLite handle.
type ClientDB struct {
	*sql.DB

	logger *logger.Logger
}

// NewConnectSQLite opens (creating if necessary) the client SQLite database at
// cfg.DSN and applies the client schema. The schema statements are idempotent,
// so reconnecting to an existing database is safe.
func NewConnectSQLite(ctx context.Context, cfg config.ClientDB, log *logger.Logger) (*ClientDB, error) {
	if err := createLocalDBFileIfNotExists(cfg.DSN); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error creating database file")
		return nil, fmt.Errorf("error creating database file: %w", err)
	}

	conn, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database")
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}

	// SQLite serialises writers; a single connection avoids SQLITE_BUSY under
	// concurrent workers.
	conn.SetMaxOpenConns(1)

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database (ping)")
		return nil, err
	}

	db := &ClientDB{DB: conn, logger: log}
	if err = db.initSchema(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error applying client schema")
		return nil, err
	}
	log.Debug().Str("func", "NewConnectSQLite").Msg("connected to local database successfully")

	return db, nil
}

func (db *ClientDB) initSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, clientSchema); err != nil {
		return fmt.Errorf("apply client schema: %w", err)
	}
	return nil
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if strings.Contains(dbFile, ":memory:") {
		return nil
	}

	if dir := filepath.Dir(dbFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("error creating DB directory: %w", err)
		}
	}

	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}

	return nil
}
