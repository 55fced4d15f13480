// Package store implements the persistence layer over a sqlite database.
// All mutations run inside transactions and uniqueness conflicts are
// translated to the sentinel errors in errors.go at this boundary, so raw
// driver errors never leak to handlers.
package store

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"journal/migrations"
)

type Store struct {
	db *sql.DB
}

// Open connects to the sqlite database at path, enables foreign keys and
// runs pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer; one pooled connection also keeps
	// :memory: databases from being silently duplicated per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrations.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
