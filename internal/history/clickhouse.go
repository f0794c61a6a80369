package history

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onesol-trade/internal/models"
)

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

type ClickHouseStore struct {
	conn driver.Conn
}

const createTradesTable = `
	CREATE TABLE IF NOT EXISTS trades (
		signature  String,
		timestamp  DateTime64(3),
		wallet     String,
		pair       String,
		mint_in    String,
		mint_out   String,
		amount_in  UInt64,
		amount_out UInt64,
		min_out    UInt64,
		providers  Array(String),
		pool       String,
		market     String
	) ENGINE = MergeTree()
	ORDER BY (wallet, timestamp)
`

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	if err := conn.Exec(ctx, createTradesTable); err != nil {
		return nil, fmt.Errorf("failed to create trades table: %w", err)
	}

	cfg.Logger.WithField("addr", cfg.Addr).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn}, nil
}

func (c *ClickHouseStore) InsertTrade(ctx context.Context, trade *models.Trade) error {
	query := `
		INSERT INTO trades (
			signature, timestamp, wallet, pair, mint_in, mint_out,
			amount_in, amount_out, min_out, providers, pool, market
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		trade.Signature,
		trade.Timestamp,
		trade.Wallet,
		trade.Pair,
		trade.MintIn,
		trade.MintOut,
		trade.AmountIn,
		trade.AmountOut,
		trade.MinOut,
		trade.Providers,
		trade.Pool,
		trade.Market,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

// Recent returns the newest trades first. An empty wallet matches all trades.
func (c *ClickHouseStore) Recent(ctx context.Context, wallet string, limit int) ([]*models.Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT signature, timestamp, wallet, pair, mint_in, mint_out,
			amount_in, amount_out, min_out, providers, pool, market
		FROM trades
		WHERE (? = '' OR wallet = ?)
		ORDER BY timestamp DESC
		LIMIT ?
	`
	rows, err := c.conn.Query(ctx, query, wallet, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	out := []*models.Trade{}
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(
			&t.Signature, &t.Timestamp, &t.Wallet, &t.Pair, &t.MintIn, &t.MintOut,
			&t.AmountIn, &t.AmountOut, &t.MinOut, &t.Providers, &t.Pool, &t.Market,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
