// Package sqlite implements chain storage in a SQL table with one row per
// block. It is written against database/sql and registers the pure Go
// SQLite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/xlerion/ivachain/foundation/blockchain/ledger"

	_ "modernc.org/sqlite"
)

// SQLite stores the chain in the blocks table. This implements the
// ledger.Storage interface.
type SQLite struct {
	db *sql.DB
}

// Open opens the SQLite database file at path and prepares the schema.
func Open(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	s, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// OpenReadOnly opens an existing database file without creating it or
// touching the schema. Write fails on the returned storage.
func OpenReadOnly(ctx context.Context, path string) (*SQLite, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	dsn := (&url.URL{Scheme: "file", Opaque: path, RawQuery: "mode=ro"}).String()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	return &SQLite{db: db}, nil
}

// New constructs a SQLite storage over an existing connection and runs the
// migration.
func New(ctx context.Context, db *sql.DB) (*SQLite, error) {
	s := SQLite{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	const q = `
	CREATE TABLE IF NOT EXISTS blocks (
		block_index   INTEGER PRIMARY KEY,
		timestamp     TEXT NOT NULL,
		payload       TEXT NOT NULL,
		previous_hash TEXT NOT NULL,
		hash          TEXT NOT NULL,
		trace         TEXT NOT NULL
	);`

	_, err := s.db.ExecContext(ctx, q)
	return err
}

// Write replaces the contents of the table with the chain inside a single
// transaction.
func (s *SQLite) Write(ctx context.Context, blocks []ledger.Block) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM blocks`); err != nil {
		return fmt.Errorf("clear blocks: %w", err)
	}

	const q = `
	INSERT INTO blocks (block_index, timestamp, payload, previous_hash, hash, trace)
	VALUES (?, ?, ?, ?, ?, ?)`

	for _, b := range blocks {
		trace, err := json.Marshal(b.Trace)
		if err != nil {
			return fmt.Errorf("block %d: marshal trace: %w", b.Index, err)
		}

		if _, err := tx.ExecContext(ctx, q, int64(b.Index), b.Timestamp, string(b.Payload), b.PreviousHash, b.Hash, string(trace)); err != nil {
			return fmt.Errorf("block %d: insert: %w", b.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Read returns the rows ordered by index. It returns ledger.ErrNoChain when
// the table is empty.
func (s *SQLite) Read(ctx context.Context) ([]ledger.Block, error) {
	const q = `
	SELECT block_index, timestamp, payload, previous_hash, hash, trace
	FROM blocks
	ORDER BY block_index`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	var blocks []ledger.Block
	for rows.Next() {
		var (
			index   int64
			payload string
			trace   string
			b       ledger.Block
		)

		if err := rows.Scan(&index, &b.Timestamp, &payload, &b.PreviousHash, &b.Hash, &trace); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}

		b.Index = uint64(index)
		b.Payload = json.RawMessage(payload)

		if err := json.Unmarshal([]byte(trace), &b.Trace); err != nil {
			return nil, fmt.Errorf("%w: block %d: unmarshal trace: %w", ledger.ErrChainCorrupted, b.Index, err)
		}
		if b.Trace == nil {
			b.Trace = []ledger.TraceEvent{}
		}

		blocks = append(blocks, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(blocks) == 0 {
		return nil, ledger.ErrNoChain
	}

	return blocks, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
