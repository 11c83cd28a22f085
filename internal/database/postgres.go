package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"
)

const (
	defaultTxRetries   = 3
	defaultLockTimeout = 5 * time.Second
	retryBackoff       = 20 * time.Millisecond
)

// querier is satisfied by both *sql.DB and *sql.Tx so that single-row reads
// can share the statement code used inside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PgRepository struct {
	conn        *sql.DB
	log         *log.Logger
	txRetries   int
	lockTimeout time.Duration
}

type Option func(*PgRepository)

func WithTxRetries(n int) Option {
	return func(r *PgRepository) { r.txRetries = n }
}

func WithLockTimeout(d time.Duration) Option {
	return func(r *PgRepository) { r.lockTimeout = d }
}

func NewPgRepository(dsn string, logger *log.Logger, opts ...Option) (*PgRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return newPgRepository(db, logger, opts...), nil
}

func newPgRepository(db *sql.DB, logger *log.Logger, opts ...Option) *PgRepository {
	r := &PgRepository{
		conn:        db,
		log:         logger,
		txRetries:   defaultTxRetries,
		lockTimeout: defaultLockTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (db *PgRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

func (db *PgRepository) WithTx(ctx context.Context, fn func(q Queries) error) error {
	var err error
	for attempt := 0; attempt <= db.txRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return classify(ctx.Err())
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}

		err = db.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return classify(err)
		}
		db.log.Printf("transaction attempt %d failed, retrying: %v", attempt+1, err)
	}

	return classify(err)
}

func (db *PgRepository) runTx(ctx context.Context, fn func(q Queries) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if db.lockTimeout > 0 {
		// SET does not accept bind parameters
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", db.lockTimeout.Milliseconds())
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if err = fn(&pgQueries{q: tx}); err != nil {
		return err
	}

	return tx.Commit()
}
