// Package calendar answers trading-day and trading-hours questions against
// a vendor-provided calendar, cached once per process-local day.
package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Source loads the authoritative list of trading days from the vendor.
type Source interface {
	TradingDays(ctx context.Context, from, to time.Time) ([]time.Time, error)
}

const (
	morningOpen  = 9*60 + 30
	morningClose = 11*60 + 30
	afternoonOpen  = 13 * 60
	afternoonClose = 15 * 60
)

// Calendar wraps a Source behind a process-local daily cache. Predicates
// never return an error: on load failure they fall back to a weekday-only
// approximation and log a warning, matching the degraded-mode contract.
type Calendar struct {
	source Source
	log    zerolog.Logger

	mu       sync.RWMutex
	lastLoad time.Time
	days     map[string]struct{} // YYYY-MM-DD -> present
	sorted   []time.Time         // ascending, same contents as days
	loadOK   bool
}

// New creates a Calendar backed by source.
func New(source Source, log zerolog.Logger) *Calendar {
	return &Calendar{
		source: source,
		log:    log.With().Str("component", "calendar").Logger(),
		days:   make(map[string]struct{}),
	}
}

// ensureFresh reloads the calendar if it hasn't been loaded today.
func (c *Calendar) ensureFresh(ctx context.Context, now time.Time) {
	c.mu.RLock()
	stale := c.lastLoad.IsZero() || !sameDay(c.lastLoad, now)
	c.mu.RUnlock()
	if !stale {
		return
	}
	c.refresh(ctx, now)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Refresh forces a reload of the trading-day list, spanning roughly two
// years back and one year forward so LastTradingDay/NextTradingDay have
// enough context near the window edges.
func (c *Calendar) Refresh(ctx context.Context) {
	c.refresh(ctx, time.Now())
}

func (c *Calendar) refresh(ctx context.Context, now time.Time) {
	from := now.AddDate(-2, 0, 0)
	to := now.AddDate(1, 0, 0)

	days, err := c.source.TradingDays(ctx, from, to)
	if err != nil || len(days) == 0 {
		c.log.Warn().Err(err).Msg("calendar load failed, falling back to weekday-only detection")
		c.mu.Lock()
		c.loadOK = false
		c.lastLoad = now
		c.mu.Unlock()
		return
	}

	set := make(map[string]struct{}, len(days))
	sorted := make([]time.Time, len(days))
	copy(sorted, days)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	for _, d := range sorted {
		set[d.Format("2006-01-02")] = struct{}{}
	}

	c.mu.Lock()
	c.days = set
	c.sorted = sorted
	c.loadOK = true
	c.lastLoad = now
	c.mu.Unlock()
}

// IsTradingDay reports whether d is a trading day.
func (c *Calendar) IsTradingDay(ctx context.Context, d time.Time) bool {
	c.ensureFresh(ctx, time.Now())

	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.loadOK {
		wd := d.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	_, ok := c.days[d.Format("2006-01-02")]
	return ok
}

// LastTradingDay returns the most recent trading day on or before d. In
// degraded mode it searches back up to 7 calendar days.
func (c *Calendar) LastTradingDay(ctx context.Context, d time.Time) time.Time {
	c.ensureFresh(ctx, time.Now())

	c.mu.RLock()
	loadOK := c.loadOK
	c.mu.RUnlock()

	if !loadOK {
		cur := d
		for i := 0; i < 7; i++ {
			wd := cur.Weekday()
			if wd != time.Saturday && wd != time.Sunday {
				return cur
			}
			cur = cur.AddDate(0, 0, -1)
		}
		return cur
	}

	cur := d
	for i := 0; i < 400; i++ {
		if c.IsTradingDay(ctx, cur) {
			return cur
		}
		cur = cur.AddDate(0, 0, -1)
	}
	return d
}

// NextTradingDay returns the first trading day strictly after d.
func (c *Calendar) NextTradingDay(ctx context.Context, d time.Time) time.Time {
	c.ensureFresh(ctx, time.Now())
	cur := d.AddDate(0, 0, 1)
	for i := 0; i < 400; i++ {
		if c.IsTradingDay(ctx, cur) {
			return cur
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return cur
}

// TradingDaysIn returns all trading days in [from, to], inclusive, ascending.
func (c *Calendar) TradingDaysIn(ctx context.Context, from, to time.Time) []time.Time {
	c.ensureFresh(ctx, time.Now())

	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.loadOK {
		var out []time.Time
		for cur := from; !cur.After(to); cur = cur.AddDate(0, 0, 1) {
			wd := cur.Weekday()
			if wd != time.Saturday && wd != time.Sunday {
				out = append(out, cur)
			}
		}
		return out
	}

	var out []time.Time
	for _, d := range c.sorted {
		if d.Before(from) {
			continue
		}
		if d.After(to) {
			break
		}
		out = append(out, d)
	}
	return out
}

// IsTradingHours reports whether t falls within the continuous trading
// session (09:30-11:30, 13:00-15:00 local) on a trading day.
func (c *Calendar) IsTradingHours(ctx context.Context, t time.Time) bool {
	if !c.IsTradingDay(ctx, t) {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	inMorning := minutes >= morningOpen && minutes <= morningClose
	inAfternoon := minutes >= afternoonOpen && minutes <= afternoonClose
	return inMorning || inAfternoon
}
