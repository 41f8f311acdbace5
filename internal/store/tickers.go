package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/marketpulse/alpha-backend/internal/pinyin"
	"github.com/rs/zerolog"
)

// Ticker is the feature-store representation of the Ticker entity.
type Ticker struct {
	TickerCode     string
	DisplayName    string
	ListingMarket  string
	IndustryLabel  string
	ListDate       string
	ActiveFlag     bool
}

const tickerColumns = `ticker_code, display_name, listing_market, industry_label, list_date, active_flag`

// TickerRepository handles the tickers table.
type TickerRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// Upsert inserts a ticker on first appearance, or replaces its row if it
// already exists. active_flag is intentionally NOT part of the conflict
// update: it is mutated only via admin, per the entity's lifecycle.
func (r *TickerRepository) Upsert(t Ticker) error {
	const query = `
		INSERT INTO tickers (` + tickerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker_code) DO UPDATE SET
			display_name = excluded.display_name,
			listing_market = excluded.listing_market,
			industry_label = excluded.industry_label,
			list_date = excluded.list_date
	`
	_, err := r.db.Exec(query, t.TickerCode, t.DisplayName, t.ListingMarket, t.IndustryLabel, t.ListDate, t.ActiveFlag)
	if err != nil {
		return fmt.Errorf("upsert ticker %s: %w", t.TickerCode, err)
	}
	return nil
}

// GetByCode returns a single ticker, or nil if it doesn't exist.
func (r *TickerRepository) GetByCode(code string) (*Ticker, error) {
	const query = `SELECT ` + tickerColumns + ` FROM tickers WHERE ticker_code = ?`
	row := r.db.QueryRow(query, code)
	t, err := scanTicker(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ticker %s: %w", code, err)
	}
	return t, nil
}

// ListActive returns every ticker with active_flag = 1.
func (r *TickerRepository) ListActive() ([]Ticker, error) {
	const query = `SELECT ` + tickerColumns + ` FROM tickers WHERE active_flag = 1`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list active tickers: %w", err)
	}
	defer rows.Close()

	var out []Ticker
	for rows.Next() {
		var t Ticker
		if err := rows.Scan(&t.TickerCode, &t.DisplayName, &t.ListingMarket, &t.IndustryLabel, &t.ListDate, &t.ActiveFlag); err != nil {
			return nil, fmt.Errorf("scan ticker row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTicker(row rowScanner) (*Ticker, error) {
	var t Ticker
	if err := row.Scan(&t.TickerCode, &t.DisplayName, &t.ListingMarket, &t.IndustryLabel, &t.ListDate, &t.ActiveFlag); err != nil {
		return nil, err
	}
	return &t, nil
}

// SearchTickers implements the three-shape ticker search: a 6-digit code
// prefix, a Chinese display-name substring, or a pinyin-initials
// substring. A non-numeric query that matches no display name falls back
// to in-memory pinyin matching over active tickers; no hot-rank lookup
// is made.
func (r *TickerRepository) SearchTickers(query string, limit int) ([]Ticker, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	if isDigitPrefix(query) {
		const q = `SELECT ` + tickerColumns + ` FROM tickers WHERE ticker_code LIKE ? ORDER BY ticker_code LIMIT ?`
		rows, err := r.db.Query(q, query+"%", limit)
		if err != nil {
			return nil, fmt.Errorf("search tickers by code: %w", err)
		}
		defer rows.Close()
		return scanTickerRows(rows)
	}

	const byName = `SELECT ` + tickerColumns + ` FROM tickers WHERE display_name LIKE ? ORDER BY ticker_code LIMIT ?`
	rows, err := r.db.Query(byName, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search tickers by name: %w", err)
	}
	matched, err := scanTickerRows(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(matched) > 0 {
		return matched, nil
	}

	// HotRankEntry carries no display name of its own, so the "Ticker ->
	// HotRank -> pinyin" fallback chain collapses to "Ticker -> pinyin"
	// for name queries: there is nothing a hot-rank join could match
	// that the tickers table search above didn't already cover.

	// Fall back to in-memory pinyin-initials matching over the active
	// universe: there is no SQL-level initials index.
	active, err := r.ListActive()
	if err != nil {
		return nil, fmt.Errorf("search tickers pinyin fallback: %w", err)
	}
	var out []Ticker
	for _, t := range active {
		if pinyin.MatchesInitials(t.DisplayName, query) {
			out = append(out, t)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func scanTickerRows(rows *sql.Rows) ([]Ticker, error) {
	var out []Ticker
	for rows.Next() {
		var t Ticker
		if err := rows.Scan(&t.TickerCode, &t.DisplayName, &t.ListingMarket, &t.IndustryLabel, &t.ListDate, &t.ActiveFlag); err != nil {
			return nil, fmt.Errorf("scan ticker row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func isDigitPrefix(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
