// Package store is the feature-store data-access layer: one repository
// struct per entity, wrapping a *sql.DB, with explicit column lists
// (never SELECT *), batched upserts inside a single transaction, and
// parameterised reads. Mirrors the teacher's security_repository.go shape.
package store

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog"
)

// Batch sizes per the ingestion contract: daily bars and money flow
// commit every 2000 rows, sector-level rows every 500.
const (
	DailyBarBatchSize  = 2000
	MoneyFlowBatchSize = 2000
	SectorFlowBatchSize = 500
)

// Store bundles the repositories that operate over features.db, plus the
// cache.db connection used by the HotRank repository (HotRankEntry is
// physically stored in cache.db but belongs to the feature-store contract
// described in the data model).
type Store struct {
	Tickers     *TickerRepository
	DailyBars   *DailyBarRepository
	MoneyFlows  *MoneyFlowRepository
	SectorFlows *SectorFlowRepository
	Concepts    *ConceptRepository
	MarketIndex *MarketIndexRepository
	HotRank     *HotRankRepository
}

// New builds a Store. featuresDB backs Ticker/DailyBar/MoneyFlow/
// SectorFlow/Concept/MarketIndex; cacheDB backs HotRank.
func New(featuresDB, cacheDB *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		Tickers:     &TickerRepository{db: featuresDB, log: log.With().Str("repo", "tickers").Logger()},
		DailyBars:   &DailyBarRepository{db: featuresDB, log: log.With().Str("repo", "daily_bars").Logger()},
		MoneyFlows:  &MoneyFlowRepository{db: featuresDB, log: log.With().Str("repo", "money_flows").Logger()},
		SectorFlows: &SectorFlowRepository{db: featuresDB, log: log.With().Str("repo", "sector_flows").Logger()},
		Concepts:    &ConceptRepository{db: featuresDB, log: log.With().Str("repo", "concepts").Logger()},
		MarketIndex: &MarketIndexRepository{db: featuresDB, log: log.With().Str("repo", "market_index").Logger()},
		HotRank:     &HotRankRepository{db: cacheDB, log: log.With().Str("repo", "hot_rank").Logger()},
	}
}

func dateStr(t time.Time) string {
	return t.Format("2006-01-02")
}
