// Package predictor implements the next-day projection (C8): it
// combines recent sector money flow, hot-rank/concept heat, and ticker
// technical strength into a ranked set of virtual boards and the
// tickers most likely to lead them the following trading day. Grounded
// on the teacher's read-mostly-cache-with-explicit-invalidation pattern
// (§5), extended here with disk persistence for the concept->board map
// so a restart during an outage degrades to a stale map rather than an
// empty one.
package predictor

import (
	"context"
	"sort"
	"time"

	"github.com/marketpulse/alpha-backend/internal/calendar"
	"github.com/marketpulse/alpha-backend/internal/cluster"
	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/marketpulse/alpha-backend/pkg/factors"
	"github.com/rs/zerolog"
)

const (
	freshnessWindow      = 30 * time.Minute
	cutoffHour           = 15
	cutoffMinute         = 30
	sectorFlowWindowDays = 3
	topBoards            = 5
	candidatesPerBoard   = 5
	topCandidates        = 10
	requestTimeout       = 20 * time.Second
)

// EngineConfig holds Engine's dependencies.
type EngineConfig struct {
	Log      zerolog.Logger
	Calendar *calendar.Calendar
	Store    *store.Store
	Cache    *CacheRepository
	Boards   *BoardMap
	Sources  []string // hot-rank source tags to combine, e.g. {"xueqiu", "dongcai"}
}

// Engine computes and caches next-day predictions.
type Engine struct {
	log     zerolog.Logger
	cal     *calendar.Calendar
	store   *store.Store
	cache   *CacheRepository
	boards  *BoardMap
	sources []string
}

// New builds an Engine.
func New(cfg EngineConfig) *Engine {
	return &Engine{
		log:     cfg.Log.With().Str("component", "predictor").Logger(),
		cal:     cfg.Calendar,
		store:   cfg.Store,
		cache:   cfg.Cache,
		boards:  cfg.Boards,
		sources: cfg.Sources,
	}
}

// Predict returns the next-day prediction, regenerating it only when the
// caching policy requires it: force bypasses the cache outright; absent
// that, a cached row is served as-is whenever today isn't a trading day,
// it's after the 15:30 cutoff, or the cached row is under 30 minutes
// old — any one of the three is sufficient.
func (e *Engine) Predict(ctx context.Context, force bool) (Payload, error) {
	now := time.Now()
	target := e.cal.NextTradingDay(ctx, now)

	if !force {
		if cached, writtenAt, ok, err := e.cache.Get(target); err == nil && ok {
			if !e.cal.IsTradingDay(ctx, now) || isPastCutoff(now) || time.Since(writtenAt) < freshnessWindow {
				return cached, nil
			}
		}
	}

	payload, err := e.generate(ctx, now, target)
	if err != nil {
		return Payload{}, err
	}
	if err := e.cache.Put(target, payload); err != nil {
		e.log.Warn().Err(err).Msg("failed to persist generated prediction")
	}
	return payload, nil
}

func isPastCutoff(t time.Time) bool {
	return t.Hour() > cutoffHour || (t.Hour() == cutoffHour && t.Minute() >= cutoffMinute)
}

func (e *Engine) generate(ctx context.Context, now, target time.Time) (Payload, error) {
	genCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	dataDate := e.cal.LastTradingDay(genCtx, now)

	sectorStats, err := e.loadSectorStats(dataDate)
	if err != nil {
		return Payload{}, err
	}

	conceptHot, conceptEntries, err := e.loadConceptHotStats(genCtx)
	if err != nil {
		return Payload{}, err
	}

	mappings, err := e.boards.Mappings()
	if err != nil {
		return Payload{}, err
	}

	boardAgg := aggregateBoards(mappings, sectorStats, conceptHot, conceptEntries)
	boards := scoreBoards(boardAgg)
	boards = clusterBoards(boards, boardAgg)

	sort.Slice(boards, func(i, j int) bool { return boards[i].CompositeScore > boards[j].CompositeScore })
	if len(boards) > topBoards {
		boards = boards[:topBoards]
	}

	candidates, err := e.selectCandidates(boards, boardAgg)
	if err != nil {
		return Payload{}, err
	}

	return Payload{
		TargetDate:  target,
		DataDate:    dataDate,
		GeneratedAt: now,
		Boards:      boards,
		Candidates:  candidates,
	}, nil
}

func (e *Engine) loadSectorStats(dataDate time.Time) (map[string]sectorFlowStats, error) {
	names, err := e.store.SectorFlows.SectorNamesAsOf(dataDate)
	if err != nil {
		return nil, err
	}
	out := make(map[string]sectorFlowStats, len(names))
	for _, name := range names {
		flows, err := e.store.SectorFlows.RecentSectorFlows(name, sectorFlowWindowDays)
		if err != nil {
			return nil, err
		}
		out[name] = analyzeSectorFlow(flows)
	}
	return out, nil
}

func (e *Engine) loadConceptHotStats(ctx context.Context) (map[string]conceptHotStats, map[string][]store.HotRankEntry, error) {
	var allEntries []store.HotRankEntry
	for _, src := range e.sources {
		entries, err := e.store.HotRank.Latest(src)
		if err != nil {
			e.log.Warn().Err(err).Str("source", src).Msg("hot rank fetch failed, skipping source")
			continue
		}
		allEntries = append(allEntries, entries...)
	}

	concepts, err := e.store.Concepts.ListActiveConcepts()
	if err != nil {
		return nil, nil, err
	}

	hotByConcept := make(map[string]conceptHotStats, len(concepts))
	entriesByConcept := make(map[string][]store.HotRankEntry, len(concepts))
	for _, c := range concepts {
		tickers, err := e.store.Concepts.MembershipsByConceptName(c.ConceptName)
		if err != nil {
			return nil, nil, err
		}
		members := make(map[string]struct{}, len(tickers))
		for _, t := range tickers {
			members[t] = struct{}{}
		}

		var matched []store.HotRankEntry
		for _, entry := range allEntries {
			if _, ok := members[entry.TickerCode]; ok {
				matched = append(matched, entry)
			}
		}
		hotByConcept[c.ConceptName] = aggregateConceptHot(matched)
		entriesByConcept[c.ConceptName] = matched
	}
	return hotByConcept, entriesByConcept, nil
}

// boardAggregate is the raw, pre-normalisation accumulation for one
// virtual board, folding every source concept mapped into it.
type boardAggregate struct {
	name            string
	moneyRaw        float64
	resonanceRaw    float64
	hotRaw          float64
	constituentTags []string
	hotEntries      []store.HotRankEntry
}

func aggregateBoards(
	mappings []store.VirtualBoardMapping,
	sectorStats map[string]sectorFlowStats,
	conceptHot map[string]conceptHotStats,
	conceptEntries map[string][]store.HotRankEntry,
) map[string]*boardAggregate {
	out := make(map[string]*boardAggregate)
	for _, m := range mappings {
		agg, ok := out[m.VirtualBoardName]
		if !ok {
			agg = &boardAggregate{name: m.VirtualBoardName}
			out[m.VirtualBoardName] = agg
		}
		agg.constituentTags = append(agg.constituentTags, m.SourceConceptName)

		if s, ok := sectorStats[m.SourceConceptName]; ok {
			agg.moneyRaw += m.Weight * s.moneyRaw()
			agg.resonanceRaw += m.Weight * s.resonanceRaw()
		}
		if h, ok := conceptHot[m.SourceConceptName]; ok {
			agg.hotRaw += m.Weight * h.hotScore()
			agg.hotEntries = append(agg.hotEntries, conceptEntries[m.SourceConceptName]...)
		}
	}
	return out
}

// scoreBoards normalises each raw component to a 0-100 percentile score
// across the board set (the raw units differ by orders of magnitude
// across money/hot/resonance, so absolute comparison is meaningless),
// then applies the composite formula verbatim, including momentum as a
// direct function of hot rather than an independently scored component.
func scoreBoards(agg map[string]*boardAggregate) []BoardResult {
	names := make([]string, 0, len(agg))
	money := make([]float64, 0, len(agg))
	hot := make([]float64, 0, len(agg))
	resonance := make([]float64, 0, len(agg))
	for name, a := range agg {
		names = append(names, name)
		money = append(money, a.moneyRaw)
		hot = append(hot, a.hotRaw)
		resonance = append(resonance, a.resonanceRaw)
	}

	out := make([]BoardResult, 0, len(names))
	for i, name := range names {
		moneyScore := factors.RankPercentile(money, money[i]) * 100
		hotScore := factors.RankPercentile(hot, hot[i]) * 100
		resonanceScore := factors.RankPercentile(resonance, resonance[i]) * 100
		momentumScore := 0.8 * hotScore

		composite := 0.35*moneyScore + 0.25*hotScore + 0.20*momentumScore + 0.20*resonanceScore
		out = append(out, BoardResult{
			Name:            name,
			MoneyScore:      moneyScore,
			HotScore:        hotScore,
			MomentumScore:   momentumScore,
			ResonanceScore:  resonanceScore,
			CompositeScore:  composite,
			ConstituentTags: agg[name].constituentTags,
		})
	}
	return out
}

// clusterBoards runs C5's Jaccard clusterer over the scored boards before
// candidate selection, collapsing virtual boards that, despite distinct
// labels, share most of their currently-hot constituent tickers (the
// same CPO-vs-optical-communications problem C5 solves for sector
// lists). Absorbed boards are dropped; survivors keep their own name but
// gain the absorbed labels in ConstituentTags so a caller can still see
// what was folded in.
func clusterBoards(boards []BoardResult, agg map[string]*boardAggregate) []BoardResult {
	candidates := make([]cluster.Candidate, 0, len(boards))
	byName := make(map[string]BoardResult, len(boards))
	for _, b := range boards {
		byName[b.Name] = b
		entries := dedupeByTickerBestRank(agg[b.Name].hotEntries)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })

		full := make([]string, 0, len(entries))
		for _, e := range entries {
			full = append(full, e.TickerCode)
		}
		top := full
		if len(top) > 5 {
			top = top[:5]
		}

		candidates = append(candidates, cluster.Candidate{
			Name: b.Name, Score: b.CompositeScore,
			TopWeightStocks: top, FullMembers: full,
		})
	}

	clustered := cluster.Cluster(candidates)
	out := make([]BoardResult, 0, len(clustered))
	for _, c := range clustered {
		b := byName[c.Name]
		b.ConstituentTags = append(append([]string{}, b.ConstituentTags...), c.AggregatedSectors...)
		out = append(out, b)
	}
	return out
}

func (e *Engine) selectCandidates(boards []BoardResult, agg map[string]*boardAggregate) ([]Candidate, error) {
	seen := make(map[string]bool)
	var pool []Candidate

	for _, b := range boards {
		entries := dedupeByTickerBestRank(agg[b.Name].hotEntries)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })
		if len(entries) > candidatesPerBoard {
			entries = entries[:candidatesPerBoard]
		}

		for _, entry := range entries {
			technical, err := e.technicalScore(entry.TickerCode)
			if err != nil {
				e.log.Warn().Err(err).Str("ticker", entry.TickerCode).Msg("technical score lookup failed")
				continue
			}
			rScore := rankScore(entry.Rank)
			final := b.CompositeScore*0.4 + rScore*0.2 + technical
			pool = append(pool, Candidate{
				TickerCode:     entry.TickerCode,
				BoardName:      b.Name,
				HotRank:        entry.Rank,
				SectorScore:    b.CompositeScore,
				RankScore:      rScore,
				TechnicalScore: technical,
				FinalScore:     final,
			})
		}
	}

	sort.Slice(pool, func(i, j int) bool { return pool[i].FinalScore > pool[j].FinalScore })

	var out []Candidate
	for _, c := range pool {
		if seen[c.TickerCode] {
			continue
		}
		seen[c.TickerCode] = true
		out = append(out, c)
		if len(out) == topCandidates {
			break
		}
	}
	return out, nil
}

func dedupeByTickerBestRank(entries []store.HotRankEntry) []store.HotRankEntry {
	best := make(map[string]store.HotRankEntry, len(entries))
	for _, e := range entries {
		existing, ok := best[e.TickerCode]
		if !ok || e.Rank < existing.Rank {
			best[e.TickerCode] = e
		}
	}
	out := make([]store.HotRankEntry, 0, len(best))
	for _, e := range best {
		out = append(out, e)
	}
	return out
}

// technicalScore derives a 0-100 strength proxy from the ticker's latest
// RPS250 percentile rank, falling back to a neutral midpoint when no
// derived metric has been computed yet for that ticker.
func (e *Engine) technicalScore(tickerCode string) (float64, error) {
	bars, err := e.store.DailyBars.RecentBars(tickerCode, 1)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 || !bars[0].RPS250.Valid {
		return 50, nil
	}
	return bars[0].RPS250.Float64, nil
}
