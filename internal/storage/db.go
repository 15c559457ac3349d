package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/nearline-social/nearline/internal/apperr"
)

// pragmaDSN appends the WAL/foreign-key/busy-timeout pragma string every
// database in this package is opened with, grounded on the DSN style in
// other_examples' sqlite core (journal_mode WAL, synchronous NORMAL,
// foreign_keys ON, a 5 second busy timeout).
func pragmaDSN(path string) string {
	return fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
}

func openSQLite(ctx context.Context, path, schema string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", pragmaDSN(path))
	if err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.Open", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is a single-connection-per-writer driver under WAL
	if err := db.PingContext(ctx); err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.Open", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.Migrate", err)
	}
	return db, nil
}

// Store holds the two logical databases: Current is live, queryable
// state; History is an append-only record of state transitions used for
// moderation audit and support investigations.
type Store struct {
	Current *sql.DB
	History *sql.DB
}

// Open opens (creating if absent) the current and history databases at
// currentPath and historyPath, applying their schemas.
func Open(ctx context.Context, currentPath, historyPath string) (*Store, error) {
	current, err := openSQLite(ctx, currentPath, currentSchema)
	if err != nil {
		return nil, err
	}
	history, err := openSQLite(ctx, historyPath, historySchema)
	if err != nil {
		current.Close()
		return nil, err
	}
	return &Store{Current: current, History: history}, nil
}

// Close releases both underlying databases.
func (s *Store) Close() error {
	err1 := s.Current.Close()
	err2 := s.History.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Transaction runs fn inside a transaction against db, committing on
// return and rolling back on error or panic.
func Transaction(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) (err error) {
	tx, txErr := db.BeginTx(ctx, nil)
	if txErr != nil {
		return apperr.New(apperr.KindIo, "storage.Transaction", txErr)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}
