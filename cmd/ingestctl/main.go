// Command ingestctl is the operator-facing field-level ingestion and
// diagnostic tool described by §6's CLI surface.
//
//	ingestctl --mode=cold_start [--days=N]
//	ingestctl --mode=patch --target={sector_rps|sector_change_pct|rps_250|vcp_factor|vol_ma_5|ma} --days=N
//	ingestctl --mode=gap-report [--days=N]
//
// cold_start pulls raw daily bars and money flow for every active ticker
// across the window and triggers one derived-metric recompute pass per
// day, oldest first, so moving averages see their trailing history
// ingested before they're computed. patch re-runs only the derived-metric
// pass named by --target, most-recent day first, per §2's back-fill
// ordering contract; it never re-pulls raw rows, since every --target
// value names a C4 output column. gap-report supplements the distilled
// CLI surface with a read-only quorum sweep over the trailing window,
// modelled on the original project's data-gap checker.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"time"

	"github.com/marketpulse/alpha-backend/internal/apierr"
	"github.com/marketpulse/alpha-backend/internal/config"
	"github.com/marketpulse/alpha-backend/internal/di"
	"github.com/marketpulse/alpha-backend/internal/logging"
	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/marketpulse/alpha-backend/internal/utils"
	"github.com/marketpulse/alpha-backend/internal/vendor"
)

var validPatchTargets = map[string]bool{
	"sector_rps":        true,
	"sector_change_pct": true,
	"rps_250":           true,
	"vcp_factor":        true,
	"vol_ma_5":          true,
	"ma":                true,
}

func main() {
	mode := flag.String("mode", "", "cold_start | patch | gap-report")
	target := flag.String("target", "", "patch target: sector_rps|sector_change_pct|rps_250|vcp_factor|vol_ma_5|ma")
	days := flag.Int("days", 30, "trailing window size in days")
	flag.Parse()

	log := logging.New(logging.Config{Level: "info", Pretty: true})

	if err := validateArgs(*mode, *target); err != nil {
		log.Fatal().Err(err).Msg("invalid arguments")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	cfg.SchedulerEnabled = false // this is a one-shot CLI, not the long-running server

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	container, err := di.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire dependencies")
	}
	defer container.Close()

	switch *mode {
	case "cold_start":
		err = runColdStart(ctx, container, *days)
	case "patch":
		err = runPatch(ctx, container, *target, *days)
	case "gap-report":
		err = runGapReport(ctx, container, *days)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = apierr.DeadlineExceeded("ingestion window exceeded the 30 minute budget, narrow --days and retry", err)
		}
		log.Fatal().Err(err).Str("mode", *mode).Msg("ingestctl failed")
	}
}

// validateArgs classifies bad CLI input as apierr.KindInvalidInput, the
// same kind §7's error-handling design assigns to bad caller input on the
// (unbuilt) HTTP surface.
func validateArgs(mode, target string) error {
	switch mode {
	case "cold_start", "gap-report":
		return nil
	case "patch":
		if !validPatchTargets[target] {
			return apierr.InvalidInput(fmt.Sprintf("--target=%q is not a valid patch target", target), nil)
		}
		return nil
	default:
		return apierr.InvalidInput(fmt.Sprintf("--mode=%q must be one of cold_start, patch, gap-report", mode), nil)
	}
}

// runColdStart pulls raw daily bars and money flow for every active
// ticker over the trailing window, then recomputes derived metrics one
// trading day at a time, oldest first.
func runColdStart(ctx context.Context, c *di.Container, days int) error {
	log := c.Log.With().Str("mode", "cold_start").Logger()
	defer utils.OperationTimer("cold_start", log)()
	now := time.Now()
	from := now.AddDate(0, 0, -days)

	dailyBars := vendor.NewHTTPDailyBarSource(c.Config.VendorBaseURL, c.Config.VendorRateLimitRPS, c.Config.VendorTimeout, log)
	moneyFlow := vendor.NewHTTPMoneyFlowSource(c.Config.VendorBaseURL, c.Config.VendorRateLimitRPS, c.Config.VendorTimeout, log)

	tickers, err := c.Store.Tickers.ListActive()
	if err != nil {
		return fmt.Errorf("list active tickers: %w", err)
	}
	log.Info().Int("tickers", len(tickers)).Int("days", days).Msg("cold start: pulling raw rows")

	for _, t := range tickers {
		bars, err := dailyBars.DailyBars(ctx, t.TickerCode, from, now)
		if err != nil {
			log.Warn().Err(err).Str("ticker", t.TickerCode).Msg("daily bar pull failed, continuing")
		} else if len(bars) > 0 {
			rows := make([]store.DailyBar, 0, len(bars))
			for _, b := range bars {
				rows = append(rows, store.DailyBar{
					TickerCode: b.TickerCode, TradeDate: b.TradeDate,
					Open: b.Open, Close: b.Close, High: b.High, Low: b.Low,
					Volume: b.Volume, TurnoverAmount: b.TurnoverAmount,
					TurnoverRate: b.TurnoverRate, ChangePct: b.ChangePct,
				})
			}
			if err := c.Store.DailyBars.UpsertBatch(rows); err != nil {
				return fmt.Errorf("upsert daily bars for %s: %w", t.TickerCode, err)
			}
		}

		flows, err := moneyFlow.MoneyFlows(ctx, t.TickerCode, from, now)
		if err != nil {
			log.Warn().Err(err).Str("ticker", t.TickerCode).Msg("money flow pull failed, continuing")
			continue
		}
		if len(flows) == 0 {
			continue
		}
		rows := make([]store.MoneyFlow, 0, len(flows))
		for _, f := range flows {
			rows = append(rows, store.MoneyFlow{
				TickerCode: f.TickerCode, TradeDate: f.TradeDate,
				MainNet: f.MainNet, SuperLargeNet: f.SuperLargeNet,
				LargeNet: f.LargeNet, MediumNet: f.MediumNet, SmallNet: f.SmallNet,
			})
		}
		if err := c.Store.MoneyFlows.UpsertBatch(rows); err != nil {
			return fmt.Errorf("upsert money flows for %s: %w", t.TickerCode, err)
		}
	}

	tradingDays := c.Calendar.TradingDaysIn(ctx, from, c.Calendar.LastTradingDay(ctx, now))
	sort.Slice(tradingDays, func(i, j int) bool { return tradingDays[i].Before(tradingDays[j]) })

	log.Info().Int("trading_days", len(tradingDays)).Msg("recomputing derived metrics")
	for _, d := range tradingDays {
		if err := c.Metrics.RecomputeDay(d); err != nil {
			log.Warn().Err(err).Time("date", d).Msg("recompute failed for day, continuing")
		}
	}
	return nil
}

// runPatch re-runs a single derived-metric pass across the window,
// most-recent day first, per the back-fill ordering contract. Ticker-level
// targets trigger RecomputeTickers; sector-level targets trigger
// RecomputeSectors, since those are the only two passes the engine knows
// and every named target is an output column of exactly one of them.
func runPatch(ctx context.Context, c *di.Container, target string, days int) error {
	log := c.Log.With().Str("mode", "patch").Str("target", target).Logger()
	now := time.Now()
	from := now.AddDate(0, 0, -days)

	tradingDays := c.Calendar.TradingDaysIn(ctx, from, c.Calendar.LastTradingDay(ctx, now))
	sort.Slice(tradingDays, func(i, j int) bool { return tradingDays[i].After(tradingDays[j]) })

	sectorTarget := target == "sector_rps" || target == "sector_change_pct"

	log.Info().Int("trading_days", len(tradingDays)).Msg("patching")
	for _, d := range tradingDays {
		var err error
		if sectorTarget {
			err = c.Metrics.RecomputeSectors(d)
		} else {
			err = c.Metrics.RecomputeTickers(d)
		}
		if err != nil {
			return fmt.Errorf("patch %s for %s: %w", target, d.Format("2006-01-02"), err)
		}
	}
	return nil
}

// runGapReport walks the trailing window and reports, per table, how many
// trading days fall under a minimum row-count quorum. Read-only: it never
// writes, unlike cold_start/patch.
func runGapReport(ctx context.Context, c *di.Container, days int) error {
	log := c.Log.With().Str("mode", "gap-report").Logger()
	now := time.Now()
	from := now.AddDate(0, 0, -days)
	tradingDays := c.Calendar.TradingDaysIn(ctx, from, c.Calendar.LastTradingDay(ctx, now))

	tickers, err := c.Store.Tickers.ListActive()
	if err != nil {
		return fmt.Errorf("list active tickers: %w", err)
	}
	quorum := len(tickers) / 2 // half the universe missing a day is worth flagging

	var barGaps, flowGaps, hotRankGaps []time.Time
	for _, d := range tradingDays {
		barCount, err := c.Store.DailyBars.CountForDate(d)
		if err != nil {
			return fmt.Errorf("count daily_bars for %s: %w", d.Format("2006-01-02"), err)
		}
		if barCount < quorum {
			barGaps = append(barGaps, d)
		}

		flowCount, err := c.Store.MoneyFlows.CountForDate(d)
		if err != nil {
			return fmt.Errorf("count money_flows for %s: %w", d.Format("2006-01-02"), err)
		}
		if flowCount < quorum {
			flowGaps = append(flowGaps, d)
		}

		for _, src := range c.Config.HotRankSources {
			n, err := c.Store.HotRank.CountForDate(src, d)
			if err != nil {
				return fmt.Errorf("count hot_rank_entries for %s %s: %w", src, d.Format("2006-01-02"), err)
			}
			if n == 0 {
				hotRankGaps = append(hotRankGaps, d)
				break
			}
		}
	}

	fmt.Println("data integrity report")
	fmt.Printf("  window:            %d trading days (%s .. %s)\n", len(tradingDays), from.Format("2006-01-02"), now.Format("2006-01-02"))
	fmt.Printf("  universe size:     %d active tickers, quorum=%d\n", len(tickers), quorum)
	fmt.Printf("  daily_bars gaps:   %d days under quorum\n", len(barGaps))
	fmt.Printf("  money_flows gaps:  %d days under quorum\n", len(flowGaps))
	fmt.Printf("  hot_rank gaps:     %d days missing any source\n", len(hotRankGaps))

	for _, d := range barGaps {
		count, _ := c.Store.DailyBars.CountForDate(d)
		log.Warn().Time("date", d).Int("count", count).Msg("daily_bars under quorum")
	}
	for _, d := range flowGaps {
		count, _ := c.Store.MoneyFlows.CountForDate(d)
		log.Warn().Time("date", d).Int("count", count).Msg("money_flows under quorum")
	}
	for _, d := range hotRankGaps {
		log.Warn().Time("date", d).Msg("hot_rank missing for at least one source")
	}

	return nil
}
