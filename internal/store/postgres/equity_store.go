package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// EquityStore implements domain.EquityStore using PostgreSQL.
type EquityStore struct {
	pool *pgxpool.Pool
}

var _ domain.EquityStore = (*EquityStore)(nil)

// NewEquityStore creates an EquityStore backed by the given connection pool.
func NewEquityStore(pool *pgxpool.Pool) *EquityStore {
	return &EquityStore{pool: pool}
}

// Insert mirrors one equity sample.
func (s *EquityStore) Insert(ctx context.Context, instance int, asset string, sample domain.EquitySample) error {
	spotTrade, err := json.Marshal(sample.SpotLastTrade)
	if err != nil {
		return fmt.Errorf("postgres: marshal spot trade: %w", err)
	}
	hedgeTrade, err := json.Marshal(sample.HedgeLastTrade)
	if err != nil {
		return fmt.Errorf("postgres: marshal hedge trade: %w", err)
	}

	const query = `
		INSERT INTO equity_samples (
			id, instance, asset, ts, total_equity, liquidity,
			pnl_this_trade, pnl_overall, spot_last_trade, hedge_last_trade
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`

	_, err = s.pool.Exec(ctx, query,
		sample.ID, instance, asset, sample.Timestamp,
		sample.TotalEquity, sample.Liquidity,
		sample.PnlThisTrade, sample.PnlOverall,
		spotTrade, hedgeTrade,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert equity sample %s: %w", sample.ID, err)
	}
	return nil
}

// ListRecent returns up to limit samples for the stream, newest first.
func (s *EquityStore) ListRecent(ctx context.Context, instance int, asset string, limit int) ([]domain.EquitySample, error) {
	if limit <= 0 {
		limit = 100
	}

	const query = `
		SELECT id, ts, total_equity, liquidity,
		       pnl_this_trade, pnl_overall, spot_last_trade, hedge_last_trade
		FROM equity_samples
		WHERE instance = $1 AND asset = $2
		ORDER BY ts DESC
		LIMIT $3`

	rows, err := s.pool.Query(ctx, query, instance, asset, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list equity samples: %w", err)
	}
	defer rows.Close()

	var out []domain.EquitySample
	for rows.Next() {
		var (
			sample     domain.EquitySample
			spotTrade  []byte
			hedgeTrade []byte
		)
		if err := rows.Scan(
			&sample.ID, &sample.Timestamp, &sample.TotalEquity, &sample.Liquidity,
			&sample.PnlThisTrade, &sample.PnlOverall, &spotTrade, &hedgeTrade,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan equity sample: %w", err)
		}
		if err := json.Unmarshal(spotTrade, &sample.SpotLastTrade); err != nil {
			return nil, fmt.Errorf("postgres: decode spot trade: %w", err)
		}
		if err := json.Unmarshal(hedgeTrade, &sample.HedgeLastTrade); err != nil {
			return nil, fmt.Errorf("postgres: decode hedge trade: %w", err)
		}
		out = append(out, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate equity samples: %w", err)
	}
	return out, nil
}
