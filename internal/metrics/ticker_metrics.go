// Package metrics is the derived-metric engine (C4): it recomputes
// per-ticker moving averages/rps_250 and per-sector rps/ma-status fields
// over a target trading day, after raw ingestion completes. The pure
// computation functions here take already-loaded, ascending-by-date
// slices and return derived values; Engine (engine.go) does the store
// reads/writes around them.
package metrics

import (
	"database/sql"
	"math"

	"github.com/marketpulse/alpha-backend/pkg/factors"
)

// TickerDerived holds the derived columns for one daily_bars row.
type TickerDerived struct {
	MA5, MA10, MA20, MA30, MA60 sql.NullFloat64
	VolMA5                      sql.NullFloat64
	VCPFactor                   sql.NullFloat64
}

// closeSeries/volSeries/highSeries/lowSeries are parallel, ascending by
// trade_date. ComputeTickerDerivedAt returns the derived columns for row
// index i (the "target day" in that series).
func ComputeTickerDerivedAt(closeSeries, volSeries, highSeries, lowSeries []float64, i int) TickerDerived {
	var d TickerDerived

	d.MA5 = toNullFloat(factors.TrailingMeanPartial(closeSeries, i, 5))
	d.MA10 = toNullFloat(factors.TrailingMeanPartial(closeSeries, i, 10))
	d.MA20 = toNullFloat(factors.TrailingMeanPartial(closeSeries, i, 20))
	d.MA30 = toNullFloat(factors.TrailingMeanPartial(closeSeries, i, 30))
	d.MA60 = toNullFloat(factors.TrailingMeanPartial(closeSeries, i, 60))
	d.VolMA5 = toNullFloat(factors.TrailingMeanPartial(volSeries, i, 5))
	d.VCPFactor = toNullFloat(VCPFactorAt(closeSeries, highSeries, lowSeries, i))

	return d
}

// VCPFactorAt is (high_max - low_min) / close_mean over a trailing 20-row
// window, falling back to 1.0 when fewer than 20 rows are available. The
// alpha pipeline's Level 1 reuses this exact formula on-the-fly so the two
// call sites cannot drift.
func VCPFactorAt(closeSeries, highSeries, lowSeries []float64, i int) float64 {
	const window = 20
	start := i - window + 1
	if start < 0 {
		return 1.0
	}

	highMax := highSeries[start]
	lowMin := lowSeries[start]
	closeSum := 0.0
	for j := start; j <= i; j++ {
		if highSeries[j] > highMax {
			highMax = highSeries[j]
		}
		if lowSeries[j] < lowMin {
			lowMin = lowSeries[j]
		}
		closeSum += closeSeries[j]
	}
	closeMean := closeSum / float64(window)
	if closeMean == 0 {
		return 1.0
	}
	return (highMax - lowMin) / closeMean
}

func toNullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
