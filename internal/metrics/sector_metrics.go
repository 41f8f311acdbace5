package metrics

import (
	"sort"

	"github.com/marketpulse/alpha-backend/pkg/factors"
)

// SectorReturn pairs a sector name with its cumulative compounded return
// over a trailing window, in percent.
type SectorReturn struct {
	SectorName string
	ReturnPct  float64
}

// CumulativeReturn computes the compounded return (product of
// (1+changePct/100) over the series, minus 1, in percent) for the last
// `window` entries of changePcts (ascending by trade_date).
func CumulativeReturn(changePcts []float64, window int) float64 {
	start := len(changePcts) - window
	if start < 0 {
		start = 0
	}
	product := 1.0
	for _, c := range changePcts[start:] {
		product *= 1 + c/100
	}
	return (product - 1) * 100
}

// ComputeSectorRPS ranks sector returns as a percentile in [0,100]. When
// fewer than two sectors are present the result is 0.0 for all of them,
// matching the numeric-default (never NULL) convention used throughout
// this engine.
func ComputeSectorRPS(returns []SectorReturn) map[string]float64 {
	out := make(map[string]float64, len(returns))
	if len(returns) < 2 {
		for _, r := range returns {
			out[r.SectorName] = 0.0
		}
		return out
	}

	values := make([]float64, len(returns))
	for i, r := range returns {
		values[i] = r.ReturnPct
	}
	for _, r := range returns {
		out[r.SectorName] = factors.RankPercentile(values, r.ReturnPct) * 100
	}
	return out
}

// SectorMAStatus reconstructs a pseudo-price series from changePcts
// (seeded at 100, ascending by trade_date) and compares MA5/MA10/MA20 of
// that series: +1 when MA5 > MA10 > MA20 (bullish), -1 when the reverse
// (bearish), 0 otherwise or when insufficient history.
func SectorMAStatus(changePcts []float64) int {
	if len(changePcts) < 20 {
		return 0
	}

	prices := make([]float64, len(changePcts)+1)
	prices[0] = 100
	for i, c := range changePcts {
		prices[i+1] = prices[i] * (1 + c/100)
	}

	last := len(prices) - 1
	ma5 := factors.TrailingMeanPartial(prices, last, 5)
	ma10 := factors.TrailingMeanPartial(prices, last, 10)
	ma20 := factors.TrailingMeanPartial(prices, last, 20)

	switch {
	case ma5 > ma10 && ma10 > ma20:
		return 1
	case ma5 < ma10 && ma10 < ma20:
		return -1
	default:
		return 0
	}
}

// TopWeightStocks returns up to 5 ticker codes ordered by descending
// turnover amount.
func TopWeightStocks(turnoverByTicker map[string]float64) []string {
	type pair struct {
		ticker   string
		turnover float64
	}
	pairs := make([]pair, 0, len(turnoverByTicker))
	for t, v := range turnoverByTicker {
		pairs = append(pairs, pair{t, v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].turnover > pairs[j].turnover })

	limit := 5
	if len(pairs) < limit {
		limit = len(pairs)
	}
	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = pairs[i].ticker
	}
	return out
}
