package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fundCore/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS fund_events (
	tx_hash      TEXT    NOT NULL,
	log_index    BIGINT  NOT NULL,
	block_number BIGINT  NOT NULL,
	emitter      TEXT    NOT NULL,
	name         TEXT    NOT NULL,
	topics       TEXT[]  NOT NULL,
	data         TEXT    NOT NULL,
	block_ts     BIGINT  NOT NULL,
	origin       TEXT    NOT NULL,
	label        TEXT    NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (tx_hash, log_index)
);
CREATE INDEX IF NOT EXISTS fund_events_emitter_name ON fund_events (emitter, name);
CREATE TABLE IF NOT EXISTS fund_snapshots (
	vault              TEXT    NOT NULL,
	block_number       BIGINT  NOT NULL,
	controller         TEXT    NOT NULL,
	release            TEXT    NOT NULL,
	block_ts           BIGINT  NOT NULL,
	denomination_asset TEXT    NOT NULL,
	gav                NUMERIC NOT NULL,
	total_supply       NUMERIC NOT NULL,
	gross_share_value  NUMERIC NOT NULL,
	gav_valid          BOOLEAN NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (vault, block_number)
);
CREATE TABLE IF NOT EXISTS engine_state (
	name       TEXT PRIMARY KEY,
	last_block BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for engine events and fund snapshots.
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

// Migrate creates the tables the store writes to.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// PutEventBatch inserts event records, ignoring ones already stored.
func (s *Store) PutEventBatch(ctx context.Context, records []model.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO fund_events (
				tx_hash, log_index, block_number, emitter, name, topics, data, block_ts, origin, label
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (tx_hash, log_index) DO NOTHING
		`,
			rec.TxHash,
			int64(rec.LogIndex),
			int64(rec.BlockNumber),
			rec.Emitter,
			rec.Name,
			rec.Topics,
			rec.Data,
			int64(rec.Timestamp),
			rec.Origin,
			rec.Label,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutSnapshots inserts or updates fund snapshots.
func (s *Store) PutSnapshots(ctx context.Context, snapshots []model.FundSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(`
			INSERT INTO fund_snapshots (
				vault, block_number, controller, release, block_ts, denomination_asset,
				gav, total_supply, gross_share_value, gav_valid, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now(),now())
			ON CONFLICT (vault, block_number)
			DO UPDATE SET
				controller = EXCLUDED.controller,
				release = EXCLUDED.release,
				block_ts = EXCLUDED.block_ts,
				gav = EXCLUDED.gav,
				total_supply = EXCLUDED.total_supply,
				gross_share_value = EXCLUDED.gross_share_value,
				gav_valid = EXCLUDED.gav_valid,
				updated_at = now()
		`,
			snap.Vault,
			int64(snap.BlockNumber),
			snap.Controller,
			snap.Release,
			int64(snap.Timestamp),
			snap.DenominationAsset,
			snap.Gav,
			snap.TotalSupply,
			snap.GrossShareValue,
			snap.GavValid,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the last block recorded under name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block int64
	row := s.pool.QueryRow(ctx, `SELECT last_block FROM engine_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

// SaveState upserts the last block recorded under name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO engine_state (name, last_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_block = EXCLUDED.last_block, updated_at = now()
	`, name, int64(block))
	return err
}
