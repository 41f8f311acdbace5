package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HotRankEntry mirrors the hot_rank_entries table row.
type HotRankEntry struct {
	TickerCode string
	Source     string
	TradeDate  time.Time
	Rank       int
	HotScore   float64
	Volume     float64
}

const hotRankColumns = `ticker_code, source, trade_date, rank, hot_score, volume`

// HotRankRepository handles the hot_rank_entries table in cache.db.
type HotRankRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// ReplaceForSourceAndDate atomically replaces the day's rows for source:
// deletes the existing rows for (source, tradeDate) and inserts entries,
// inside a single transaction, matching the "every 10 minutes the day's
// rows for that source are replaced atomically" lifecycle.
func (r *HotRankRepository) ReplaceForSourceAndDate(source string, tradeDate time.Time, entries []HotRankEntry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM hot_rank_entries WHERE source = ? AND trade_date = ?`, source, dateStr(tradeDate)); err != nil {
		return fmt.Errorf("clear hot rank for %s %s: %w", source, dateStr(tradeDate), err)
	}

	stmt, err := tx.Prepare(`INSERT INTO hot_rank_entries (` + hotRankColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.TickerCode, source, dateStr(tradeDate), e.Rank, e.HotScore, e.Volume); err != nil {
			return fmt.Errorf("insert hot rank %s/%s: %w", e.TickerCode, source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Latest returns the most recent trade_date's rows for source, ordered by
// rank ascending.
func (r *HotRankRepository) Latest(source string) ([]HotRankEntry, error) {
	const query = `
		SELECT ` + hotRankColumns + ` FROM hot_rank_entries
		WHERE source = ? AND trade_date = (
			SELECT MAX(trade_date) FROM hot_rank_entries WHERE source = ?
		)
		ORDER BY rank ASC
	`
	rows, err := r.db.Query(query, source, source)
	if err != nil {
		return nil, fmt.Errorf("latest hot rank for %s: %w", source, err)
	}
	defer rows.Close()

	var out []HotRankEntry
	for rows.Next() {
		var e HotRankEntry
		var tradeDate string
		if err := rows.Scan(&e.TickerCode, &e.Source, &tradeDate, &e.Rank, &e.HotScore, &e.Volume); err != nil {
			return nil, fmt.Errorf("scan hot rank row: %w", err)
		}
		parsed, err := time.Parse("2006-01-02", tradeDate)
		if err != nil {
			return nil, fmt.Errorf("parse trade_date %q: %w", tradeDate, err)
		}
		e.TradeDate = parsed
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountForDate returns how many rows exist for (source, tradeDate), used
// by the gap-report CLI.
func (r *HotRankRepository) CountForDate(source string, tradeDate time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM hot_rank_entries WHERE source = ? AND trade_date = ?`, source, dateStr(tradeDate)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count hot_rank_entries for %s %s: %w", source, dateStr(tradeDate), err)
	}
	return n, nil
}

// CleanupOldData removes hot_rank_entries rows with trade_date < today -
// nDays (retention N4, ~30 days).
func (r *HotRankRepository) CleanupOldData(today time.Time, nDays int) (int64, error) {
	cutoff := dateStr(today.AddDate(0, 0, -nDays))
	res, err := r.db.Exec(`DELETE FROM hot_rank_entries WHERE trade_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup hot_rank_entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup hot_rank_entries rows affected: %w", err)
	}
	return n, nil
}
