package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const createSeenTable = `CREATE TABLE IF NOT EXISTS seen_listings (
	listing_id    TEXT PRIMARY KEY,
	first_seen_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertSeen = `INSERT INTO seen_listings (listing_id)
	SELECT unnest($1::text[])
	ON CONFLICT (listing_id) DO NOTHING`

type SeenPostgres struct {
	pool *pgxpool.Pool
}

func NewSeenPostgres(ctx context.Context, dsn string) (*SeenPostgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parse postgres dsn")
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}

	if _, err := pool.Exec(ctx, createSeenTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create seen_listings table: %w", err)
	}
	return &SeenPostgres{pool: pool}, nil
}

func (s *SeenPostgres) Load(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT listing_id FROM seen_listings ORDER BY listing_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *SeenPostgres) Save(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, insertSeen, ids)
	return err
}

func (s *SeenPostgres) Close() error {
	s.pool.Close()
	return nil
}
