package metrics

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/rs/zerolog"
)

// rpsHistoryDays is the amount of trailing history RecentBars needs to
// pull to reach a 250-trading-day-ago close, with margin for the other
// windows (ma60, vcp's 20-row window) computed from the same series.
const rpsHistoryDays = 260

// Engine wires the pure computation functions in this package to
// internal/store's repositories, recomputing every derived column for one
// target trading day across the active universe. One Engine call is the
// unit of work the daily_close scheduler job and cmd/ingestctl invoke.
type Engine struct {
	store *store.Store
	log   zerolog.Logger
}

// New builds an Engine over s.
func New(s *store.Store, log zerolog.Logger) *Engine {
	return &Engine{store: s, log: log.With().Str("component", "metrics_engine").Logger()}
}

// RecomputeTickers recomputes ma5..60, vol_ma_5, vcp_factor and rps_250
// for every active ticker on tradeDate. ma/vol_ma/vcp are independent
// per-ticker; rps_250 additionally needs every ticker's 250-day return
// ranked against the rest of the universe, so this runs in two passes:
// one to compute and write the per-ticker columns plus collect returns,
// one to rank and write rps_250.
func (e *Engine) RecomputeTickers(tradeDate time.Time) error {
	tickers, err := e.store.Tickers.ListActive()
	if err != nil {
		return fmt.Errorf("list active tickers: %w", err)
	}

	var returns []TickerReturn
	derivedByTicker := make(map[string]TickerDerived, len(tickers))
	for _, t := range tickers {
		bars, err := e.store.DailyBars.RecentBars(t.TickerCode, rpsHistoryDays)
		if err != nil {
			return fmt.Errorf("recent bars for %s: %w", t.TickerCode, err)
		}
		if len(bars) == 0 {
			continue
		}

		last := len(bars) - 1
		if bars[last].TradeDate.Format("2006-01-02") != tradeDate.Format("2006-01-02") {
			e.log.Debug().Str("ticker", t.TickerCode).Msg("no bar for target date, skipping")
			continue
		}

		closeSeries := make([]float64, len(bars))
		volSeries := make([]float64, len(bars))
		highSeries := make([]float64, len(bars))
		lowSeries := make([]float64, len(bars))
		for i, b := range bars {
			closeSeries[i] = b.Close
			volSeries[i] = b.Volume
			highSeries[i] = b.High
			lowSeries[i] = b.Low
		}

		derivedByTicker[t.TickerCode] = ComputeTickerDerivedAt(closeSeries, volSeries, highSeries, lowSeries, last)

		const rpsLookback = 250
		if base := last - rpsLookback; base >= 0 && closeSeries[base] != 0 {
			ret := (closeSeries[last]/closeSeries[base] - 1) * 100
			returns = append(returns, TickerReturn{TickerCode: t.TickerCode, ReturnPct: ret})
		}
	}

	rps := ComputeRPS250(returns)

	// A single UPDATE per ticker, after both the per-ticker columns and the
	// cross-universe rps_250 rank are known: UpdateDerivedColumns rewrites
	// every derived column at once, so writing it twice per ticker would
	// let the second call's zero-value args clobber the first call's data.
	for code, derived := range derivedByTicker {
		rps250 := sql.NullFloat64{}
		if score, ok := rps[code]; ok {
			rps250 = sql.NullFloat64{Float64: score, Valid: true}
		}
		if err := e.store.DailyBars.UpdateDerivedColumns(code, tradeDate,
			derived.MA5, derived.MA10, derived.MA20, derived.MA30, derived.MA60,
			rps250, derived.VCPFactor, derived.VolMA5); err != nil {
			return fmt.Errorf("write derived columns for %s: %w", code, err)
		}
	}
	return nil
}

// RecomputeSectors recomputes sector_rps_20/50 and sector_ma_status for
// every sector present on tradeDate.
func (e *Engine) RecomputeSectors(tradeDate time.Time) error {
	names, err := e.store.SectorFlows.SectorNamesAsOf(tradeDate)
	if err != nil {
		return fmt.Errorf("sector names as of %s: %w", tradeDate.Format("2006-01-02"), err)
	}
	if len(names) == 0 {
		return nil
	}

	type sectorHistory struct {
		name       string
		changePcts []float64
	}
	histories := make([]sectorHistory, 0, len(names))
	returns20 := make([]SectorReturn, 0, len(names))
	returns50 := make([]SectorReturn, 0, len(names))

	const historyWindow = 50
	for _, name := range names {
		flows, err := e.store.SectorFlows.RecentSectorFlows(name, historyWindow)
		if err != nil {
			return fmt.Errorf("recent sector flows for %s: %w", name, err)
		}
		changePcts := make([]float64, len(flows))
		for i, f := range flows {
			changePcts[i] = f.ChangePct
		}
		histories = append(histories, sectorHistory{name: name, changePcts: changePcts})
		returns20 = append(returns20, SectorReturn{SectorName: name, ReturnPct: CumulativeReturn(changePcts, 20)})
		returns50 = append(returns50, SectorReturn{SectorName: name, ReturnPct: CumulativeReturn(changePcts, 50)})
	}

	rps20 := ComputeSectorRPS(returns20)
	rps50 := ComputeSectorRPS(returns50)

	for _, h := range histories {
		maStatus := SectorMAStatus(h.changePcts)
		r20 := sql.NullFloat64{Float64: rps20[h.name], Valid: true}
		r50 := sql.NullFloat64{Float64: rps50[h.name], Valid: true}
		if err := e.store.SectorFlows.UpdateDerivedColumns(h.name, tradeDate, r20, r50, maStatus); err != nil {
			return fmt.Errorf("write derived columns for sector %s: %w", h.name, err)
		}
	}
	return nil
}

// RecomputeDay runs both passes for tradeDate, tickers first since sector
// rows may be synthesised from ticker-level change_pct in the absence of
// dedicated sector feed data.
func (e *Engine) RecomputeDay(tradeDate time.Time) error {
	if err := e.RecomputeTickers(tradeDate); err != nil {
		return fmt.Errorf("recompute tickers: %w", err)
	}
	if err := e.RecomputeSectors(tradeDate); err != nil {
		return fmt.Errorf("recompute sectors: %w", err)
	}
	return nil
}
