package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DailyBar mirrors the daily_bars table row, including the derived
// columns C4 fills in.
type DailyBar struct {
	TickerCode     string
	TradeDate      time.Time
	Open           float64
	Close          float64
	High           float64
	Low            float64
	Volume         float64
	TurnoverAmount float64
	TurnoverRate   float64
	ChangePct      float64
	MA5            sql.NullFloat64
	MA10           sql.NullFloat64
	MA20           sql.NullFloat64
	MA30           sql.NullFloat64
	MA60           sql.NullFloat64
	RPS250         sql.NullFloat64
	VCPFactor      sql.NullFloat64
	VolMA5         sql.NullFloat64
}

const dailyBarColumns = `ticker_code, trade_date, open, close, high, low, volume,
	turnover_amount, turnover_rate, change_pct,
	ma5, ma10, ma20, ma30, ma60, rps_250, vcp_factor, vol_ma_5`

// DailyBarRepository handles the daily_bars table.
type DailyBarRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// UpsertBatch writes bars in batches of DailyBarBatchSize rows, each batch
// inside its own transaction so a mid-way failure preserves everything
// already committed. Insert-or-replace-on-conflict(pk) semantics make the
// same batch safe to run twice.
func (r *DailyBarRepository) UpsertBatch(bars []DailyBar) error {
	for start := 0; start < len(bars); start += DailyBarBatchSize {
		end := start + DailyBarBatchSize
		if end > len(bars) {
			end = len(bars)
		}
		if err := r.upsertChunk(bars[start:end]); err != nil {
			return fmt.Errorf("daily bar batch [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

func (r *DailyBarRepository) upsertChunk(chunk []DailyBar) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_bars (` + dailyBarColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker_code, trade_date) DO UPDATE SET
			open = excluded.open, close = excluded.close, high = excluded.high, low = excluded.low,
			volume = excluded.volume, turnover_amount = excluded.turnover_amount,
			turnover_rate = excluded.turnover_rate, change_pct = excluded.change_pct
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range chunk {
		if b.Low > b.Open || b.Low > b.Close || b.Open > b.High || b.Close > b.High {
			r.log.Warn().Str("ticker", b.TickerCode).Str("date", dateStr(b.TradeDate)).Msg("low/high invariant violated, writing as-is")
		}
		if b.Volume < 0 {
			r.log.Warn().Str("ticker", b.TickerCode).Str("date", dateStr(b.TradeDate)).Msg("negative volume, clamping to 0")
			b.Volume = 0
		}
		_, err := stmt.Exec(
			b.TickerCode, dateStr(b.TradeDate), b.Open, b.Close, b.High, b.Low, b.Volume,
			b.TurnoverAmount, b.TurnoverRate, b.ChangePct,
			b.MA5, b.MA10, b.MA20, b.MA30, b.MA60, b.RPS250, b.VCPFactor, b.VolMA5,
		)
		if err != nil {
			return fmt.Errorf("exec ticker %s date %s: %w", b.TickerCode, dateStr(b.TradeDate), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// UpdateDerivedColumns rewrites only the derived columns (moving
// averages, rps_250, vcp_factor, vol_ma_5) for one row, used by C4.
func (r *DailyBarRepository) UpdateDerivedColumns(tickerCode string, tradeDate time.Time, ma5, ma10, ma20, ma30, ma60, rps250, vcp, volMA5 sql.NullFloat64) error {
	const query = `
		UPDATE daily_bars SET ma5 = ?, ma10 = ?, ma20 = ?, ma30 = ?, ma60 = ?,
			rps_250 = ?, vcp_factor = ?, vol_ma_5 = ?
		WHERE ticker_code = ? AND trade_date = ?
	`
	_, err := r.db.Exec(query, ma5, ma10, ma20, ma30, ma60, rps250, vcp, volMA5, tickerCode, dateStr(tradeDate))
	if err != nil {
		return fmt.Errorf("update derived columns for %s %s: %w", tickerCode, dateStr(tradeDate), err)
	}
	return nil
}

// RecentBars returns the most recent limit rows for tickerCode, ordered
// ascending by trade_date (internal DESC LIMIT + outer ASC). Downstream
// derived-metric and chart code depends on this ordering.
func (r *DailyBarRepository) RecentBars(tickerCode string, limit int) ([]DailyBar, error) {
	const query = `
		SELECT ` + dailyBarColumns + ` FROM (
			SELECT ` + dailyBarColumns + ` FROM daily_bars
			WHERE ticker_code = ?
			ORDER BY trade_date DESC
			LIMIT ?
		) ORDER BY trade_date ASC
	`
	rows, err := r.db.Query(query, tickerCode, limit)
	if err != nil {
		return nil, fmt.Errorf("recent bars for %s: %w", tickerCode, err)
	}
	defer rows.Close()
	return scanDailyBarRows(rows)
}

func scanDailyBarRows(rows *sql.Rows) ([]DailyBar, error) {
	var out []DailyBar
	for rows.Next() {
		var b DailyBar
		var tradeDate string
		if err := rows.Scan(&b.TickerCode, &tradeDate, &b.Open, &b.Close, &b.High, &b.Low, &b.Volume,
			&b.TurnoverAmount, &b.TurnoverRate, &b.ChangePct,
			&b.MA5, &b.MA10, &b.MA20, &b.MA30, &b.MA60, &b.RPS250, &b.VCPFactor, &b.VolMA5); err != nil {
			return nil, fmt.Errorf("scan daily bar row: %w", err)
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

// CountForDate returns how many tickers have a daily_bars row for
// tradeDate, used by the gap-report CLI to spot under-quorum days.
func (r *DailyBarRepository) CountForDate(tradeDate time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM daily_bars WHERE trade_date = ?`, dateStr(tradeDate)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count daily_bars for %s: %w", dateStr(tradeDate), err)
	}
	return n, nil
}

// CleanupOldData removes daily_bars rows with trade_date < today - nDays,
// returning the number of rows removed.
func (r *DailyBarRepository) CleanupOldData(today time.Time, nDays int) (int64, error) {
	cutoff := dateStr(today.AddDate(0, 0, -nDays))
	res, err := r.db.Exec(`DELETE FROM daily_bars WHERE trade_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup daily_bars: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup daily_bars rows affected: %w", err)
	}
	return n, nil
}
