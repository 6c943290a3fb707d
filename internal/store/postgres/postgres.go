// Package postgres implements core.Store on PostgreSQL via pgx. Every unit of
// work is a READ COMMITTED transaction; rows that gate a state change are read
// with SELECT ... FOR UPDATE so concurrent requests serialize on them.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"phone-store/internal/core"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx core.Tx) error) error {
	pgTx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer pgTx.Rollback(ctx)

	if err := fn(ctx, &tx{tx: pgTx}); err != nil {
		return err
	}
	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type tx struct {
	tx pgx.Tx
}

var _ core.Tx = (*tx)(nil)

// uniqueMessages translates unique-constraint names into readable conflicts.
var uniqueMessages = map[string]string{
	"product_identities_imei_key":       "a unit with this IMEI already exists",
	"order_details_live_unit_key":       "unit is already bound to an order",
	"product_returns_active_unit_key":   "unit already has an active return request",
	"return_tickets_open_unit_key":      "unit already has an open return ticket",
	"warranty_requests_active_unit_key": "unit already has an active warranty request",
	"warranties_open_unit_key":          "unit is already under warranty service",
}

// mapErr turns pgx failures into domain errors where the meaning is known.
func mapErr(err error, what, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return core.NotFoundf("%s %s not found", what, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if msg, ok := uniqueMessages[pgErr.ConstraintName]; ok {
			return core.Conflictf("%s: %s", msg, id)
		}
		return core.Conflictf("%s %s already exists", what, id)
	}
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return core.Conflictf("%s %s is still referenced", what, id)
	}
	return fmt.Errorf("%s %s: %w", what, id, err)
}

// execOne runs a statement that must touch exactly one row.
func (t *tx) execOne(ctx context.Context, what, id, sql string, args ...any) error {
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return mapErr(err, what, id)
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundf("%s %s not found", what, id)
	}
	return nil
}

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
