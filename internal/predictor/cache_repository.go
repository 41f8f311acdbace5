package predictor

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// CacheRepository handles the next_day_prediction_cache table in
// cache.db: one row per target date, overwritten on regeneration.
// Mirrors the store package's repository shape (explicit columns,
// parameterised statements) even though it lives outside internal/store,
// since the prediction payload is opaque JSON rather than a fixed
// per-column entity.
type CacheRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCacheRepository builds a CacheRepository against cache.db.
func NewCacheRepository(db *sql.DB, log zerolog.Logger) *CacheRepository {
	return &CacheRepository{db: db, log: log.With().Str("repo", "next_day_prediction_cache").Logger()}
}

// Get returns the cached payload for targetDate and the time it was
// written, or ok=false if no row exists yet.
func (r *CacheRepository) Get(targetDate time.Time) (payload Payload, writtenAt time.Time, ok bool, err error) {
	const query = `SELECT prediction_payload, created_at FROM next_day_prediction_cache WHERE target_date = ?`
	var raw, createdAt string
	err = r.db.QueryRow(query, dateStr(targetDate)).Scan(&raw, &createdAt)
	if err == sql.ErrNoRows {
		return Payload{}, time.Time{}, false, nil
	}
	if err != nil {
		return Payload{}, time.Time{}, false, fmt.Errorf("get prediction cache for %s: %w", dateStr(targetDate), err)
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Payload{}, time.Time{}, false, fmt.Errorf("unmarshal prediction payload for %s: %w", dateStr(targetDate), err)
	}
	writtenAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Payload{}, time.Time{}, false, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return payload, writtenAt, true, nil
}

// Put overwrites the row for targetDate with payload.
func (r *CacheRepository) Put(targetDate time.Time, payload Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal prediction payload for %s: %w", dateStr(targetDate), err)
	}
	_, err = r.db.Exec(`
		INSERT INTO next_day_prediction_cache (target_date, prediction_payload, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(target_date) DO UPDATE SET
			prediction_payload = excluded.prediction_payload, created_at = excluded.created_at
	`, dateStr(targetDate), string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put prediction cache for %s: %w", dateStr(targetDate), err)
	}
	return nil
}

func dateStr(t time.Time) string { return t.Format("2006-01-02") }
