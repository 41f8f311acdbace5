package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// MarketIndexBar mirrors the market_index_daily table row.
type MarketIndexBar struct {
	IndexCode string
	TradeDate time.Time
	Open      float64
	Close     float64
	High      float64
	Low       float64
	Volume    float64
	Amount    float64
	ChangePct float64
}

const marketIndexColumns = `index_code, trade_date, open, close, high, low, volume, amount, change_pct`

// MarketIndexRepository handles the market_index_daily table, used by C7
// for market-regime detection.
type MarketIndexRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func (r *MarketIndexRepository) UpsertBatch(bars []MarketIndexBar) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO market_index_daily (` + marketIndexColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(index_code, trade_date) DO UPDATE SET
			open = excluded.open, close = excluded.close, high = excluded.high, low = excluded.low,
			volume = excluded.volume, amount = excluded.amount, change_pct = excluded.change_pct
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.Exec(b.IndexCode, dateStr(b.TradeDate), b.Open, b.Close, b.High, b.Low, b.Volume, b.Amount, b.ChangePct)
		if err != nil {
			return fmt.Errorf("exec index %s date %s: %w", b.IndexCode, dateStr(b.TradeDate), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecentBars returns the most recent limit rows for indexCode, ordered
// ascending by trade_date.
func (r *MarketIndexRepository) RecentBars(indexCode string, limit int) ([]MarketIndexBar, error) {
	const query = `
		SELECT ` + marketIndexColumns + ` FROM (
			SELECT ` + marketIndexColumns + ` FROM market_index_daily
			WHERE index_code = ?
			ORDER BY trade_date DESC
			LIMIT ?
		) ORDER BY trade_date ASC
	`
	rows, err := r.db.Query(query, indexCode, limit)
	if err != nil {
		return nil, fmt.Errorf("recent index bars for %s: %w", indexCode, err)
	}
	defer rows.Close()

	var out []MarketIndexBar
	for rows.Next() {
		var b MarketIndexBar
		var tradeDate string
		if err := rows.Scan(&b.IndexCode, &tradeDate, &b.Open, &b.Close, &b.High, &b.Low, &b.Volume, &b.Amount, &b.ChangePct); err != nil {
			return nil, fmt.Errorf("scan index bar row: %w", err)
		}
		parsed, err := time.Parse("2006-01-02", tradeDate)
		if err != nil {
			return nil, fmt.Errorf("parse trade_date %q: %w", tradeDate, err)
		}
		b.TradeDate = parsed
		out = append(out, b)
	}
	return out, rows.Err()
}
