package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"solverDriver/internal/tokens"
)

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
	chain_id   BIGINT   NOT NULL,
	address    TEXT     NOT NULL,
	decimals   SMALLINT,
	symbol     TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, address)
)`

// Store provides Postgres persistence for token metadata.
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

// Migrate creates the tokens table if needed.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create tokens table: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// LoadTokens returns the stored metadata of the given addresses.
func (s *Store) LoadTokens(ctx context.Context, chainID uint64, addresses []common.Address) (map[common.Address]tokens.Metadata, error) {
	out := make(map[common.Address]tokens.Metadata, len(addresses))
	if len(addresses) == 0 {
		return out, nil
	}
	keys := make([]string, 0, len(addresses))
	for _, address := range addresses {
		keys = append(keys, addressKey(address))
	}

	rows, err := s.pool.Query(ctx, `
		SELECT address, decimals, symbol FROM tokens
		WHERE chain_id = $1 AND address = ANY($2)
	`, int64(chainID), keys)
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			address  string
			decimals *int16
			symbol   *string
		)
		if err := rows.Scan(&address, &decimals, &symbol); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		meta := tokens.Metadata{Symbol: symbol}
		if decimals != nil {
			d := uint8(*decimals)
			meta.Decimals = &d
		}
		out[common.HexToAddress(address)] = meta
	}
	return out, rows.Err()
}

// UpsertTokens inserts or updates token metadata.
func (s *Store) UpsertTokens(ctx context.Context, chainID uint64, metas map[common.Address]tokens.Metadata) error {
	if len(metas) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for address, meta := range metas {
		var decimals *int16
		if meta.Decimals != nil {
			d := int16(*meta.Decimals)
			decimals = &d
		}
		batch.Queue(`
			INSERT INTO tokens (chain_id, address, decimals, symbol, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
			ON CONFLICT (chain_id, address)
			DO UPDATE SET
				decimals = COALESCE(EXCLUDED.decimals, tokens.decimals),
				symbol = COALESCE(EXCLUDED.symbol, tokens.symbol),
				updated_at = now()
		`,
			int64(chainID),
			addressKey(address),
			decimals,
			meta.Symbol,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metas {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// addressKey is the lower-case hex form used as the primary key.
func addressKey(address common.Address) string {
	return "0x" + common.Bytes2Hex(address.Bytes())
}
