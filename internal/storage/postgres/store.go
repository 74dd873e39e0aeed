package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"twapScope/internal/model"
)

// Store provides Postgres persistence for quote history.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutQuoteBatch inserts a batch of quote records.
func (s *Store) PutQuoteBatch(quotes []model.QuoteRecord) error {
	return s.InsertQuotes(context.Background(), quotes)
}

// InsertQuotes inserts quote records, skipping rows already recorded for the
// same pool, window, and block.
func (s *Store) InsertQuotes(ctx context.Context, quotes []model.QuoteRecord) error {
	if len(quotes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, q := range quotes {
		batch.Queue(`
			INSERT INTO twap_quotes (
				chain_id, pool_address, base_token, quote_token, fee, window_seconds,
				mean_tick, base_amount, quote_amount, block_number, block_ts, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
			ON CONFLICT (chain_id, pool_address, window_seconds, block_number) DO NOTHING
		`,
			int64(q.ChainID),
			q.PoolAddress,
			q.BaseToken,
			q.QuoteToken,
			int64(q.Fee),
			int64(q.WindowSecs),
			q.MeanTick,
			q.BaseAmount,
			q.QuoteAmount,
			int64(q.BlockNumber),
			int64(q.Timestamp),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range quotes {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the last consulted block for a watcher name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block uint64
	row := s.pool.QueryRow(ctx, `SELECT last_consulted_block FROM watcher_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return block, true, nil
}

// SaveState upserts the last consulted block for a watcher name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO watcher_state (name, last_consulted_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_consulted_block = EXCLUDED.last_consulted_block, updated_at = now()
	`, name, block)
	return err
}
