// Package recommend persists one row per ticker returned from a
// user-attached alpha-pipeline call, and auto-verifies those rows once
// five trading days have passed. Grounded on the teacher's
// RecommendationRepository (CreateOrUpdate/UUID-stamped rows against a
// ledger-profile database), generalized from portfolio BUY/SELL steps
// to alpha-pipeline picks and from manual execution tracking to
// automatic outcome scoring.
package recommend

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Status values for verification_status.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// successReturnThresholdPct is the final_return_5d cutoff above which a
// verified row is scored success rather than fail.
const successReturnThresholdPct = 5.0

// Recommendation mirrors one strategy_recommendations row.
type Recommendation struct {
	UserID             string
	RunDate            time.Time
	TickerCode         string
	RunID              string
	ParamsSnapshot     string // JSON
	StrategyVersion    string
	EntryPrice         float64
	StopLossPrice      float64
	AIScore            float64
	WinProbability     float64
	ReasonTags         []string
	VerificationStatus string
	MaxReturn5D        sql.NullFloat64
	FinalReturn5D      sql.NullFloat64
	CreatedAt          time.Time
}

const recColumns = `user_id, run_date, ticker_code, run_id, params_snapshot, strategy_version,
	entry_price, stop_loss_price, ai_score, win_probability, reason_tags,
	verification_status, max_return_5d, final_return_5d, created_at`

// Repository handles the strategy_recommendations table in recommendations.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// New builds a Repository.
func New(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{db: db, log: log.With().Str("repo", "recommendations").Logger()}
}

// Record persists one row per ticker. runID is shared by every row
// written from the same pipeline call, per the spec's per-call
// provenance requirement; a fresh UUID per call is the caller's
// responsibility.
func (r *Repository) Record(userID string, runDate time.Time, runID string, paramsSnapshot interface{}, strategyVersion string, picks []Pick) error {
	snapshot, err := json.Marshal(paramsSnapshot)
	if err != nil {
		return fmt.Errorf("marshal params snapshot: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO strategy_recommendations (` + recColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, run_date, ticker_code) DO UPDATE SET
			run_id = excluded.run_id, params_snapshot = excluded.params_snapshot,
			strategy_version = excluded.strategy_version, entry_price = excluded.entry_price,
			stop_loss_price = excluded.stop_loss_price, ai_score = excluded.ai_score,
			win_probability = excluded.win_probability, reason_tags = excluded.reason_tags
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range picks {
		tags, err := json.Marshal(p.ReasonTags)
		if err != nil {
			return fmt.Errorf("marshal reason tags for %s: %w", p.TickerCode, err)
		}
		_, err = stmt.Exec(
			userID, dateStr(runDate), p.TickerCode, runID, string(snapshot), strategyVersion,
			p.EntryPrice, p.StopLossPrice, p.AIScore, p.WinProbability, string(tags),
			StatusPending, nil, nil, now,
		)
		if err != nil {
			return fmt.Errorf("insert recommendation %s: %w", p.TickerCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Pick is the per-ticker payload Record persists; it intentionally
// avoids importing internal/alpha so the recommendation ledger doesn't
// depend on the pipeline's internal scoring types.
type Pick struct {
	TickerCode     string
	EntryPrice     float64
	StopLossPrice  float64
	AIScore        float64
	WinProbability float64
	ReasonTags     []string
}

// PendingForVerification returns rows whose run_date is on or before
// cutoff and whose verification is still pending. The caller turns
// "trading days ago" into the concrete cutoff date since this package
// has no calendar dependency of its own.
func (r *Repository) PendingForVerification(cutoff time.Time) ([]Recommendation, error) {
	const query = `
		SELECT ` + recColumns + ` FROM strategy_recommendations
		WHERE verification_status = 'pending' AND run_date <= ?
	`
	rows, err := r.db.Query(query, dateStr(cutoff))
	if err != nil {
		return nil, fmt.Errorf("pending for verification: %w", err)
	}
	defer rows.Close()
	return scanRecommendations(rows)
}

// Verify sets the verification outcome for one row.
func (r *Repository) Verify(userID string, runDate time.Time, tickerCode string, maxReturn, finalReturn float64) error {
	status := StatusFail
	if finalReturn > successReturnThresholdPct {
		status = StatusSuccess
	}
	_, err := r.db.Exec(`
		UPDATE strategy_recommendations
		SET verification_status = ?, max_return_5d = ?, final_return_5d = ?
		WHERE user_id = ? AND run_date = ? AND ticker_code = ?
	`, status, maxReturn, finalReturn, userID, dateStr(runDate), tickerCode)
	if err != nil {
		return fmt.Errorf("verify %s/%s/%s: %w", userID, dateStr(runDate), tickerCode, err)
	}
	return nil
}

func scanRecommendations(rows *sql.Rows) ([]Recommendation, error) {
	var out []Recommendation
	for rows.Next() {
		var rec Recommendation
		var runDateStr, createdAtStr, reasonTagsJSON string
		if err := rows.Scan(
			&rec.UserID, &runDateStr, &rec.TickerCode, &rec.RunID, &rec.ParamsSnapshot, &rec.StrategyVersion,
			&rec.EntryPrice, &rec.StopLossPrice, &rec.AIScore, &rec.WinProbability, &reasonTagsJSON,
			&rec.VerificationStatus, &rec.MaxReturn5D, &rec.FinalReturn5D, &createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("scan recommendation row: %w", err)
		}
		runDate, err := time.Parse("2006-01-02", runDateStr)
		if err != nil {
			return nil, fmt.Errorf("parse run_date %q: %w", runDateStr, err)
		}
		rec.RunDate = runDate
		if err := json.Unmarshal([]byte(reasonTagsJSON), &rec.ReasonTags); err != nil {
			rec.ReasonTags = nil
		}
		if createdAt, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
			rec.CreatedAt = createdAt
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func dateStr(t time.Time) string { return t.Format("2006-01-02") }

// NewRunID generates a fresh run identifier shared by every row written
// from the same pipeline call.
func NewRunID() string { return uuid.New().String() }
