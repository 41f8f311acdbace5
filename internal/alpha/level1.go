package alpha

import (
	"database/sql"
	"strings"
	"time"

	"github.com/marketpulse/alpha-backend/internal/metrics"
	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/marketpulse/alpha-backend/pkg/factors"
	talib "github.com/markcheno/go-talib"
)

const level1MinHistory = 90

// ExtractFeatures is Level 1: for every active ticker with at least 90
// trailing daily bars ending at tradeDate, load its history and compute
// the on-the-fly technical features. Returns ErrInsufficientHistory if no
// ticker qualifies.
func ExtractFeatures(s *store.Store, tickers []store.Ticker, tradeDate time.Time) ([]TickerFeature, error) {
	dateKey := tradeDate.Format("2006-01-02")
	var out []TickerFeature

	for _, t := range tickers {
		bars, err := s.DailyBars.RecentBars(t.TickerCode, level1MinHistory)
		if err != nil {
			return nil, err
		}
		if len(bars) < level1MinHistory {
			continue
		}
		last := len(bars) - 1
		if bars[last].TradeDate.Format("2006-01-02") != dateKey {
			continue
		}

		closeSeries := make([]float64, len(bars))
		highSeries := make([]float64, len(bars))
		lowSeries := make([]float64, len(bars))
		volSeries := make([]float64, len(bars))
		for i, b := range bars {
			closeSeries[i] = b.Close
			highSeries[i] = b.High
			lowSeries[i] = b.Low
			volSeries[i] = b.Volume
		}

		latest := bars[last]
		f := TickerFeature{
			TickerCode:    t.TickerCode,
			DisplayName:   t.DisplayName,
			IndustryLabel: nonEmpty(t.IndustryLabel, "unknown"),
			TradeDate:     latest.TradeDate,
			Close:         latest.Close,
			High:          latest.High,
			Low:           latest.Low,
			Volume:        latest.Volume,
			Amount:        latest.TurnoverAmount,
			ChangePct:     latest.ChangePct,
			TurnoverRate:  latest.TurnoverRate,
			IsStarMarket:  strings.HasPrefix(t.TickerCode, "688"),
			IsGem:         strings.HasPrefix(t.TickerCode, "300"),
		}

		f.MA20 = factors.TrailingMeanPartial(closeSeries, last, 20)
		f.MA60 = factors.TrailingMeanPartial(closeSeries, last, 60)
		f.VolMA5 = factors.TrailingMeanPartial(volSeries, last, 5)
		f.VolMA20 = factors.TrailingMeanPartial(volSeries, last, 20)
		f.VCPFactor = metrics.VCPFactorAt(closeSeries, highSeries, lowSeries, last)

		if f.VolMA20 > 0 {
			f.VolRatioMA20 = f.Volume / f.VolMA20
		} else {
			f.VolRatioMA20 = 1.0
		}

		if rng := f.High - f.Low; rng > 0 {
			f.UpperShadowRatio = (f.High - f.Close) / rng
		} else {
			f.UpperShadowRatio = 0
		}

		if f.Volume > 0 {
			f.VWAP = f.Amount / (f.Volume * 100)
		} else {
			f.VWAP = f.Close
		}

		f.ATR = f.High - f.Low

		if f.MA20 > 0 {
			f.Bias20 = (f.Close - f.MA20) / f.MA20 * 100
		}

		if rps := readRPS250(latest.RPS250); rps != nil {
			f.RPS250 = *rps
			f.HasRPS250 = true
		}

		if rsi := talib.Rsi(closeSeries, 6); len(rsi) > 0 {
			f.RSI6 = rsi[len(rsi)-1]
		}

		out = append(out, f)
	}

	if len(out) == 0 {
		return nil, ErrInsufficientHistory
	}
	return out, nil
}

func readRPS250(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	val := v.Float64
	return &val
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
