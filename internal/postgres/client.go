package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/drawcard/drawcard/internal/config"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/lib/pq"
)

type txKey struct{}

// Client wraps *sql.DB and threads transactions through contexts so that
// repositories compose inside one logical unit of work.
type Client struct {
	db  *sql.DB
	log *logger.Logger
}

// NewClient opens a connection pool from configuration.
func NewClient(cfg *config.Configuration, log *logger.Logger) (*Client, error) {
	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpen)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdle)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &Client{db: db, log: log}, nil
}

// DB exposes the raw pool for health checks.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close shuts down the pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// TxFromContext returns the transaction bound to ctx, or nil.
func (c *Client) TxFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Conn returns the transaction bound to ctx when present, else the pool.
func (c *Client) Conn(ctx context.Context) Querier {
	if tx := c.TxFromContext(ctx); tx != nil {
		return tx
	}
	return c.db
}

// WithTx runs fn inside a transaction. Nested calls reuse the outer
// transaction instead of opening a second one.
func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := c.TxFromContext(ctx); tx != nil {
		return fn(ctx)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.log.Errorw("failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	return tx.Commit()
}

// IsUniqueViolation reports whether err is a postgres unique-constraint
// violation. The event ledger relies on this as its sole admission signal.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
