package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// MoneyFlow mirrors the money_flows table row.
type MoneyFlow struct {
	TickerCode    string
	TradeDate     time.Time
	MainNet       float64
	SuperLargeNet float64
	LargeNet      float64
	MediumNet     float64
	SmallNet      float64
}

const moneyFlowColumns = `ticker_code, trade_date, main_net, super_large_net, large_net, medium_net, small_net`

// MoneyFlowRepository handles the money_flows table.
type MoneyFlowRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// UpsertBatch writes flows in batches of MoneyFlowBatchSize rows.
func (r *MoneyFlowRepository) UpsertBatch(flows []MoneyFlow) error {
	for start := 0; start < len(flows); start += MoneyFlowBatchSize {
		end := start + MoneyFlowBatchSize
		if end > len(flows) {
			end = len(flows)
		}
		if err := r.upsertChunk(flows[start:end]); err != nil {
			return fmt.Errorf("money flow batch [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

func (r *MoneyFlowRepository) upsertChunk(chunk []MoneyFlow) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO money_flows (` + moneyFlowColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker_code, trade_date) DO UPDATE SET
			main_net = excluded.main_net, super_large_net = excluded.super_large_net,
			large_net = excluded.large_net, medium_net = excluded.medium_net, small_net = excluded.small_net
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range chunk {
		_, err := stmt.Exec(f.TickerCode, dateStr(f.TradeDate), f.MainNet, f.SuperLargeNet, f.LargeNet, f.MediumNet, f.SmallNet)
		if err != nil {
			return fmt.Errorf("exec ticker %s date %s: %w", f.TickerCode, dateStr(f.TradeDate), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecentFlows returns the most recent limit rows for tickerCode, ordered
// ascending by trade_date.
func (r *MoneyFlowRepository) RecentFlows(tickerCode string, limit int) ([]MoneyFlow, error) {
	const query = `
		SELECT ` + moneyFlowColumns + ` FROM (
			SELECT ` + moneyFlowColumns + ` FROM money_flows
			WHERE ticker_code = ?
			ORDER BY trade_date DESC
			LIMIT ?
		) ORDER BY trade_date ASC
	`
	rows, err := r.db.Query(query, tickerCode, limit)
	if err != nil {
		return nil, fmt.Errorf("recent flows for %s: %w", tickerCode, err)
	}
	defer rows.Close()

	var out []MoneyFlow
	for rows.Next() {
		var f MoneyFlow
		var tradeDate string
		if err := rows.Scan(&f.TickerCode, &tradeDate, &f.MainNet, &f.SuperLargeNet, &f.LargeNet, &f.MediumNet, &f.SmallNet); err != nil {
			return nil, fmt.Errorf("scan money flow row: %w", err)
		}
		parsed, err := time.Parse("2006-01-02", tradeDate)
		if err != nil {
			return nil, fmt.Errorf("parse trade_date %q: %w", tradeDate, err)
		}
		f.TradeDate = parsed
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountForDate returns how many tickers have a money_flows row for
// tradeDate, used by the gap-report CLI.
func (r *MoneyFlowRepository) CountForDate(tradeDate time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM money_flows WHERE trade_date = ?`, dateStr(tradeDate)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count money_flows for %s: %w", dateStr(tradeDate), err)
	}
	return n, nil
}

// CleanupOldData removes money_flows rows with trade_date < today - nDays.
func (r *MoneyFlowRepository) CleanupOldData(today time.Time, nDays int) (int64, error) {
	cutoff := dateStr(today.AddDate(0, 0, -nDays))
	res, err := r.db.Exec(`DELETE FROM money_flows WHERE trade_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup money_flows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup money_flows rows affected: %w", err)
	}
	return n, nil
}
