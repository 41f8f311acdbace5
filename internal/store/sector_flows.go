package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SectorFlow mirrors the sector_flows table row, including the derived
// columns C4 fills in.
type SectorFlow struct {
	SectorName      string
	TradeDate       time.Time
	MainNet         float64
	SuperLargeNet   float64
	LargeNet        float64
	MediumNet       float64
	SmallNet        float64
	ChangePct       float64
	AvgTurnover     float64
	LimitUpCount    int
	SectorRPS20     sql.NullFloat64
	SectorRPS50     sql.NullFloat64
	SectorMAStatus  int // -1, 0, +1
	TopWeightStocks []string
}

const sectorFlowColumns = `sector_name, trade_date, main_net, super_large_net, large_net, medium_net, small_net,
	change_pct, avg_turnover, limit_up_count, sector_rps_20, sector_rps_50, sector_ma_status, top_weight_stocks`

// SectorFlowRepository handles the sector_flows table.
type SectorFlowRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// UpsertBatch writes rows in batches of SectorFlowBatchSize rows.
func (r *SectorFlowRepository) UpsertBatch(flows []SectorFlow) error {
	for start := 0; start < len(flows); start += SectorFlowBatchSize {
		end := start + SectorFlowBatchSize
		if end > len(flows) {
			end = len(flows)
		}
		if err := r.upsertChunk(flows[start:end]); err != nil {
			return fmt.Errorf("sector flow batch [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

func (r *SectorFlowRepository) upsertChunk(chunk []SectorFlow) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO sector_flows (` + sectorFlowColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sector_name, trade_date) DO UPDATE SET
			main_net = excluded.main_net, super_large_net = excluded.super_large_net,
			large_net = excluded.large_net, medium_net = excluded.medium_net, small_net = excluded.small_net,
			change_pct = excluded.change_pct, avg_turnover = excluded.avg_turnover,
			limit_up_count = excluded.limit_up_count, top_weight_stocks = excluded.top_weight_stocks
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range chunk {
		topStocks := f.TopWeightStocks
		if len(topStocks) > 5 {
			topStocks = topStocks[:5]
		}
		payload, err := json.Marshal(topStocks)
		if err != nil {
			return fmt.Errorf("marshal top_weight_stocks for %s: %w", f.SectorName, err)
		}
		_, err = stmt.Exec(
			f.SectorName, dateStr(f.TradeDate), f.MainNet, f.SuperLargeNet, f.LargeNet, f.MediumNet, f.SmallNet,
			f.ChangePct, f.AvgTurnover, f.LimitUpCount, f.SectorRPS20, f.SectorRPS50, f.SectorMAStatus, string(payload),
		)
		if err != nil {
			return fmt.Errorf("exec sector %s date %s: %w", f.SectorName, dateStr(f.TradeDate), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// UpdateDerivedColumns rewrites sector_rps_20/50 and sector_ma_status,
// recomputed by C4.
func (r *SectorFlowRepository) UpdateDerivedColumns(sectorName string, tradeDate time.Time, rps20, rps50 sql.NullFloat64, maStatus int) error {
	const query = `UPDATE sector_flows SET sector_rps_20 = ?, sector_rps_50 = ?, sector_ma_status = ? WHERE sector_name = ? AND trade_date = ?`
	_, err := r.db.Exec(query, rps20, rps50, maStatus, sectorName, dateStr(tradeDate))
	if err != nil {
		return fmt.Errorf("update derived columns for %s %s: %w", sectorName, dateStr(tradeDate), err)
	}
	return nil
}

// RecentSectorFlows returns the most recent limit rows for sectorName,
// ordered ascending by trade_date.
func (r *SectorFlowRepository) RecentSectorFlows(sectorName string, limit int) ([]SectorFlow, error) {
	const query = `
		SELECT ` + sectorFlowColumns + ` FROM (
			SELECT ` + sectorFlowColumns + ` FROM sector_flows
			WHERE sector_name = ?
			ORDER BY trade_date DESC
			LIMIT ?
		) ORDER BY trade_date ASC
	`
	rows, err := r.db.Query(query, sectorName, limit)
	if err != nil {
		return nil, fmt.Errorf("recent sector flows for %s: %w", sectorName, err)
	}
	defer rows.Close()
	return scanSectorFlowRows(rows)
}

func scanSectorFlowRows(rows *sql.Rows) ([]SectorFlow, error) {
	var out []SectorFlow
	for rows.Next() {
		var f SectorFlow
		var tradeDate, topStocksJSON string
		if err := rows.Scan(&f.SectorName, &tradeDate, &f.MainNet, &f.SuperLargeNet, &f.LargeNet, &f.MediumNet, &f.SmallNet,
			&f.ChangePct, &f.AvgTurnover, &f.LimitUpCount, &f.SectorRPS20, &f.SectorRPS50, &f.SectorMAStatus, &topStocksJSON); err != nil {
			return nil, fmt.Errorf("scan sector flow row: %w", err)
		}
		parsed, err := time.Parse("2006-01-02", tradeDate)
		if err != nil {
			return nil, fmt.Errorf("parse trade_date %q: %w", tradeDate, err)
		}
		f.TradeDate = parsed
		if topStocksJSON != "" {
			if err := json.Unmarshal([]byte(topStocksJSON), &f.TopWeightStocks); err != nil {
				return nil, fmt.Errorf("unmarshal top_weight_stocks: %w", err)
			}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SectorNamesAsOf returns every distinct sector_name with a row on
// tradeDate, used by C4 to enumerate the universe for the cross-sector
// percentile rank.
func (r *SectorFlowRepository) SectorNamesAsOf(tradeDate time.Time) ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT sector_name FROM sector_flows WHERE trade_date = ?`, dateStr(tradeDate))
	if err != nil {
		return nil, fmt.Errorf("sector names as of %s: %w", dateStr(tradeDate), err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan sector name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// CleanupOldData removes sector_flows rows with trade_date < today - nDays.
func (r *SectorFlowRepository) CleanupOldData(today time.Time, nDays int) (int64, error) {
	cutoff := dateStr(today.AddDate(0, 0, -nDays))
	res, err := r.db.Exec(`DELETE FROM sector_flows WHERE trade_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup sector_flows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup sector_flows rows affected: %w", err)
	}
	return n, nil
}
