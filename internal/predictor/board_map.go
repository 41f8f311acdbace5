package predictor

import (
	"github.com/marketpulse/alpha-backend/internal/diskcache"
	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/rs/zerolog"
)

const boardMapCacheKey = "virtual_board_map"

// BoardMap is the process-wide, read-mostly concept -> virtual-board
// projection C8 shares with C5. It reads through to features.db on every
// call (the mapping table changes rarely and the query is a handful of
// rows) but write-through persists a copy to disk, so a cold restart
// during an outage has a last-known map to fall back on instead of
// projecting zero boards.
type BoardMap struct {
	concepts *store.ConceptRepository
	disk     *diskcache.Cache
	log      zerolog.Logger
}

// NewBoardMap builds a BoardMap.
func NewBoardMap(concepts *store.ConceptRepository, disk *diskcache.Cache, log zerolog.Logger) *BoardMap {
	return &BoardMap{concepts: concepts, disk: disk, log: log.With().Str("component", "board_map").Logger()}
}

// Mappings returns every active virtual-board mapping, preferring the
// live table and falling back to the last disk-persisted snapshot if the
// feature store is unreachable.
func (b *BoardMap) Mappings() ([]store.VirtualBoardMapping, error) {
	live, err := b.concepts.VirtualBoardMappings()
	if err == nil {
		if setErr := b.disk.Set(boardMapCacheKey, live); setErr != nil {
			b.log.Warn().Err(setErr).Msg("failed to persist virtual board map snapshot")
		}
		return live, nil
	}

	var cached []store.VirtualBoardMapping
	if _, getErr := b.disk.Get(boardMapCacheKey, &cached); getErr != nil {
		return nil, err // neither the live query nor the fallback succeeded; surface the live error
	}
	b.log.Warn().Err(err).Int("cached_rows", len(cached)).Msg("serving virtual board map from disk fallback")
	return cached, nil
}
