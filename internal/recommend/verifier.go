package recommend

import (
	"context"
	"time"

	"github.com/marketpulse/alpha-backend/internal/calendar"
	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/rs/zerolog"
)

// minVerificationAgeTradingDays is how many trading days must have
// elapsed since run_date before a pending row is eligible for
// verification (the 5-day forward window it scores).
const minVerificationAgeTradingDays = 5

// Verifier runs the read-triggered auto-verification pass: any caller
// that lists recommendations can trigger VerifyDue first, so stale
// pending rows never accumulate waiting for a dedicated cron firing.
type Verifier struct {
	repo *Repository
	bars *store.DailyBarRepository
	cal  *calendar.Calendar
	log  zerolog.Logger
}

// NewVerifier builds a Verifier.
func NewVerifier(repo *Repository, bars *store.DailyBarRepository, cal *calendar.Calendar, log zerolog.Logger) *Verifier {
	return &Verifier{repo: repo, bars: bars, cal: cal, log: log.With().Str("component", "recommend_verifier").Logger()}
}

// VerifyDue finds every pending row at least minVerificationAgeTradingDays
// trading days old and scores it against the ticker's subsequent bars.
func (v *Verifier) VerifyDue() (int, error) {
	cutoff := v.cutoffDate()
	pending, err := v.repo.PendingForVerification(cutoff)
	if err != nil {
		return 0, err
	}

	verified := 0
	for _, rec := range pending {
		maxReturn, finalReturn, ok := v.scoreAgainstBars(rec)
		if !ok {
			continue
		}
		if err := v.repo.Verify(rec.UserID, rec.RunDate, rec.TickerCode, maxReturn, finalReturn); err != nil {
			v.log.Warn().Err(err).Str("ticker", rec.TickerCode).Msg("verification write failed")
			continue
		}
		verified++
	}
	return verified, nil
}

func (v *Verifier) cutoffDate() time.Time {
	ctx := context.Background()
	d := time.Now()
	for i := 0; i < minVerificationAgeTradingDays; i++ {
		d = v.cal.LastTradingDay(ctx, d.AddDate(0, 0, -1))
	}
	return d
}

// scoreAgainstBars computes max_return_5d/final_return_5d from the five
// trading-day bars following rec.RunDate, returning ok=false if that
// forward window isn't fully present yet.
func (v *Verifier) scoreAgainstBars(rec Recommendation) (maxReturn, finalReturn float64, ok bool) {
	bars, err := v.bars.RecentBars(rec.TickerCode, 400)
	if err != nil {
		return 0, 0, false
	}

	var future []store.DailyBar
	for _, b := range bars {
		if b.TradeDate.After(rec.RunDate) {
			future = append(future, b)
		}
	}
	if len(future) < minVerificationAgeTradingDays {
		return 0, 0, false
	}
	window := future[:minVerificationAgeTradingDays]

	if rec.EntryPrice == 0 {
		return 0, 0, false
	}
	maxHigh := window[0].High
	for _, b := range window {
		if b.High > maxHigh {
			maxHigh = b.High
		}
	}
	finalClose := window[minVerificationAgeTradingDays-1].Close

	maxReturn = (maxHigh - rec.EntryPrice) / rec.EntryPrice * 100
	finalReturn = (finalClose - rec.EntryPrice) / rec.EntryPrice * 100
	return maxReturn, finalReturn, true
}
