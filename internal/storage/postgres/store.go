// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository and writer interfaces used by the services.
//
// Migrations that create the expected schema live under db/migrations. Every
// write runs in one transaction holding a per-company advisory lock, so the
// checks a writer performs and the rows it changes form a single unit. Reads
// that span tables use a read-only repeatable read transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
)

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// JournalVersion returns the company's current version, zero before any write.
func (s *Store) JournalVersion(ctx context.Context, companyID uuid.UUID) (int64, error) {
	return journalVersion(ctx, s.pool, companyID)
}

// CompanyIDs lists every company that has written anything.
func (s *Store) CompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `select company_id from journal_versions order by company_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// write runs fn in a read committed transaction that holds the company's
// advisory lock, and bumps the company's journal version before committing
// when fn reports a change.
func (s *Store) write(ctx context.Context, companyID uuid.UUID, fn func(pgx.Tx) (changed bool, err error)) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `select pg_advisory_xact_lock(hashtext($1::text))`, companyID); err != nil {
		return fmt.Errorf("postgres: lock company: %w", err)
	}
	changed, err := fn(tx)
	if err != nil {
		return err
	}
	if changed {
		if _, err := tx.Exec(ctx, `
			insert into journal_versions (company_id, version) values ($1, 1)
			on conflict (company_id) do update set version = journal_versions.version + 1
		`, companyID); err != nil {
			return fmt.Errorf("postgres: bump version: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit tx: %w", err)
	}
	return nil
}

// read runs fn in a read-only repeatable read transaction so that every
// statement sees the same snapshot.
func (s *Store) read(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func journalVersion(ctx context.Context, q querier, companyID uuid.UUID) (int64, error) {
	var v int64
	err := q.QueryRow(ctx, `select version from journal_versions where company_id = $1`, companyID).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return v, err
}

// checkVolume fails with errs.VolumeExceeded when adding add to the company's
// journal volume would pass ledger.MaxJournalVolume. Run it inside write.
func checkVolume(ctx context.Context, q querier, companyID uuid.UUID, add decimal.Decimal, field string) error {
	if !add.IsPos() {
		return nil
	}
	var raw string
	if err := q.QueryRow(ctx, `
		select (
			(select coalesce(sum(opening_balance), 0) from ledgers where company_id = $1) +
			(select coalesce(sum(e.amount), 0) from voucher_entries e join vouchers v on v.id = e.voucher_id where v.company_id = $1)
		)::text
	`, companyID).Scan(&raw); err != nil {
		return err
	}
	volume, err := numeric(raw)
	if err != nil {
		return errs.VolumeExceeded(field)
	}
	if !ledger.FitsVolume(volume, add) {
		return errs.VolumeExceeded(field)
	}
	return nil
}

// numeric parses a numeric column selected as text.
func numeric(s string) (decimal.Decimal, error) {
	d, err := decimal.Parse(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("postgres: parse numeric %q: %w", s, err)
	}
	return d, nil
}

func pgCode(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)
