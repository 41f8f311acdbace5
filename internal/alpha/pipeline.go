package alpha

import (
	"fmt"
	"time"

	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/rs/zerolog"
)

// Pipeline runs the four-level funnel against a Store. One Pipeline is
// shared by every model generation; Params.Model selects which optional
// levels (sector resonance, regime adapter) engage.
type Pipeline struct {
	store *store.Store
	log   zerolog.Logger
}

// New builds a Pipeline over s.
func New(s *store.Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{store: s, log: log.With().Str("component", "alpha_pipeline").Logger()}
}

// Run executes one pipeline call for tradeDate, returning the top_n
// ranked tickers (0 or negative means "no limit").
func (p *Pipeline) Run(tradeDate time.Time, params Params, topN int) (Result, error) {
	params = params.withDefaults()

	tickers, err := p.store.Tickers.ListActive()
	if err != nil {
		return Result{}, fmt.Errorf("list active tickers: %w", err)
	}

	features, err := ExtractFeatures(p.store, tickers, tradeDate)
	if err != nil {
		return Result{}, err
	}
	diag := Diagnostics{Level1Count: len(features)}

	regime := RegimeBalance
	var regimeZ float64
	if params.Model != ModelT4 {
		ApplySectorResonance(features)

		indexBars, err := p.store.MarketIndex.RecentBars(params.RSRSIndexCode, rsrsWindow+rsrsMaxWindows)
		if err != nil {
			return Result{}, fmt.Errorf("recent index bars: %w", err)
		}
		regime, regimeZ = DetectRegime(indexBars)
	}

	survivors, ruleCounts, err := FilterHardConstraints(features, params, regime)
	if err != nil {
		return Result{}, err
	}
	diag.Level2RuleCounts = ruleCounts
	diag.Level2Survivors = len(survivors)

	scored := Score(survivors, params, regime)
	refined, filteredOut := Refine(scored, params)
	diag.Level4Filtered = filteredOut

	if topN > 0 && len(refined) > topN {
		refined = refined[:topN]
	}

	return Result{
		Ranked:      refined,
		Diagnostics: diag,
		Metadata: Metadata{
			TradeDate: tradeDate,
			Model:     params.Model,
			Regime:    regimeForMetadata(params.Model, regime),
			RegimeZ:   regimeZ,
		},
	}, nil
}

func regimeForMetadata(model Model, regime Regime) Regime {
	if model == ModelT4 {
		return ""
	}
	return regime
}
