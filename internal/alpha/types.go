// Package alpha implements the four-level recommendation funnel (C7)
// shared by three generations of ranking model (T4, T6, T7): feature
// extraction, hard-constraint filtering, composite scoring, and
// probabilistic refinement, plus the market-regime detector and
// walk-forward backtest engine that sit alongside it. Grounded on the
// teacher's planner/scoring pipelines in trader-go, adapted from a
// portfolio-allocation funnel to a daily stock-picking funnel.
package alpha

import (
	"errors"
	"time"
)

// ErrInsufficientHistory is returned by Level 1 when the join against the
// feature store yields zero tickers with enough trailing history.
var ErrInsufficientHistory = errors.New("insufficient_history")

// ErrEmptyAfterFilter is returned by Level 2 when every ticker is
// eliminated by the hard-constraint filter.
var ErrEmptyAfterFilter = errors.New("empty_after_level2")

// Model selects which generation of the funnel runs.
type Model string

const (
	ModelT4 Model = "T4"
	ModelT6 Model = "T6"
	ModelT7 Model = "T7"
)

// Regime is the market-regime classification produced by RSRS detection.
type Regime string

const (
	RegimeAttack   Regime = "attack"
	RegimeDefense  Regime = "defense"
	RegimeBalance  Regime = "balance"
)

// Params configures one pipeline run. Zero-value fields fall back to the
// documented defaults in Params.withDefaults.
type Params struct {
	Model Model

	MinChangePct         float64
	VolRatioMA20Threshold float64
	MaxUpperShadowRatio  float64
	SupportMA            string // "MA20" or "MA60"

	VolThreshold float64 // explosion-score threshold on vol_ratio_ma20
	RPSThreshold float64 // structure-score threshold on rps_250

	WeightTech  float64
	WeightTrend float64
	WeightHot   float64

	SectorBoostEnabled bool
	GemStarWeightBoost float64 // T4 multiplicative boost

	AIFilter bool // Level 4 win-probability gate

	RSRSIndexCode string // broad-market index used for regime detection (T6/T7)
}

func (p Params) withDefaults() Params {
	if p.MinChangePct == 0 {
		p.MinChangePct = 7.0
	}
	if p.VolRatioMA20Threshold == 0 {
		p.VolRatioMA20Threshold = 2.5
	}
	if p.MaxUpperShadowRatio == 0 {
		p.MaxUpperShadowRatio = 0.10
	}
	if p.SupportMA == "" {
		p.SupportMA = "MA20"
	}
	if p.VolThreshold == 0 {
		p.VolThreshold = 2.5
	}
	if p.RPSThreshold == 0 {
		p.RPSThreshold = 85
	}
	if p.WeightTech == 0 && p.WeightTrend == 0 && p.WeightHot == 0 {
		p.WeightTech, p.WeightTrend, p.WeightHot = 0.4, 0.4, 0.2
	}
	if p.GemStarWeightBoost == 0 {
		p.GemStarWeightBoost = 1.15
	}
	return p
}

// TickerFeature is one ticker's Level 1 output: raw latest-row fields
// plus the derived on-the-fly technical features.
type TickerFeature struct {
	TickerCode    string
	DisplayName   string
	IndustryLabel string
	TradeDate     time.Time

	Close      float64
	High       float64
	Low        float64
	Volume     float64
	Amount     float64 // turnover_amount
	ChangePct  float64
	TurnoverRate float64

	MA20   float64 // 0 when unavailable
	MA60   float64
	RPS250 float64 // 0 when absent (caller excludes rather than defaults elsewhere, but this in-memory struct needs a zero-value sentinel)
	HasRPS250 bool

	VolMA5        float64
	VolMA20       float64
	VCPFactor     float64
	VolRatioMA20  float64
	UpperShadowRatio float64
	VWAP          float64
	ATR           float64
	Bias20        float64
	IsStarMarket  bool
	IsGem         bool
	RSI6          float64 // 6-period RSI of the close series, for the Defense-regime filter

	SectorResonanceScore float64 // T6/T7 only
}

// ScoredTicker is a TickerFeature after Level 3/4 scoring.
type ScoredTicker struct {
	TickerFeature
	ExplosionScore float64
	StructureScore float64
	SectorScore    float64
	Total          float64
	WinProbability float64
}

// Diagnostics reports per-rule pass/fail counts through the funnel, so
// callers can explain why a run produced few or no candidates.
type Diagnostics struct {
	Level1Count      int
	Level2RuleCounts map[string]int // rule name -> number of tickers that passed it
	Level2Survivors  int
	Level4Filtered   int
}

// Metadata carries run-level context back to the caller, including the
// detected regime for T6/T7 runs.
type Metadata struct {
	TradeDate time.Time
	Model     Model
	Regime    Regime // empty for T4
	RegimeZ   float64
}

// Result is the full output of one pipeline run.
type Result struct {
	Ranked      []ScoredTicker
	Diagnostics Diagnostics
	Metadata    Metadata
}
