package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/senyabanana/bid-award/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	DB DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// awardTxOptions keeps read committed: the conditional UPDATEs re-check their
// predicates after waiting on a row lock, which is what serializes awards.
var awardTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// WithinAwardTx runs fn inside one transaction.
func (s *PostgresStore) WithinAwardTx(ctx context.Context, fn func(ctx context.Context, tx AwardTx) error) error {
	tx, err := s.DB.BeginTx(ctx, awardTxOptions)
	if err != nil {
		return fmt.Errorf("begin award tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(ctx, &postgresAwardTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			utils.Warn("award tx rollback failed", map[string]any{"error": rbErr.Error()})
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit award tx: %w", err)
	}
	return nil
}

// notFoundOnBadID maps "no rows" and malformed uuid input to ErrNotFound.
func notFoundOnBadID(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
		return ErrNotFound
	}
	return err
}
