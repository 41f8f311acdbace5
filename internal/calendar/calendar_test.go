package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	days []time.Time
	err  error
}

func (f *fakeSource) TradingDays(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.days, nil
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestIsTradingDay_HappyPath(t *testing.T) {
	src := &fakeSource{days: []time.Time{
		mustDate(t, "2026-07-27"),
		mustDate(t, "2026-07-28"),
		mustDate(t, "2026-07-29"),
	}}
	cal := New(src, zerolog.Nop())

	assert.True(t, cal.IsTradingDay(context.Background(), mustDate(t, "2026-07-28")))
	assert.False(t, cal.IsTradingDay(context.Background(), mustDate(t, "2026-07-30")))
}

func TestIsTradingDay_FallsBackToWeekdayOnLoadFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("vendor unreachable")}
	cal := New(src, zerolog.Nop())

	// 2026-07-25 is a Saturday, 2026-07-27 is a Monday.
	assert.False(t, cal.IsTradingDay(context.Background(), mustDate(t, "2026-07-25")))
	assert.True(t, cal.IsTradingDay(context.Background(), mustDate(t, "2026-07-27")))
}

func TestLastTradingDay_FallbackSearchesBackSevenDays(t *testing.T) {
	src := &fakeSource{err: errors.New("vendor unreachable")}
	cal := New(src, zerolog.Nop())

	// Sunday 2026-07-26 should fall back to Friday 2026-07-24.
	got := cal.LastTradingDay(context.Background(), mustDate(t, "2026-07-26"))
	assert.Equal(t, mustDate(t, "2026-07-24"), got)
}

func TestIsTradingHours(t *testing.T) {
	src := &fakeSource{days: []time.Time{mustDate(t, "2026-07-28")}}
	cal := New(src, zerolog.Nop())

	morning := time.Date(2026, 7, 28, 10, 0, 0, 0, time.UTC)
	lunch := time.Date(2026, 7, 28, 12, 0, 0, 0, time.UTC)
	afternoon := time.Date(2026, 7, 28, 14, 30, 0, 0, time.UTC)

	assert.True(t, cal.IsTradingHours(context.Background(), morning))
	assert.False(t, cal.IsTradingHours(context.Background(), lunch))
	assert.True(t, cal.IsTradingHours(context.Background(), afternoon))
}

func TestTradingDaysIn(t *testing.T) {
	src := &fakeSource{days: []time.Time{
		mustDate(t, "2026-07-27"),
		mustDate(t, "2026-07-28"),
		mustDate(t, "2026-07-29"),
		mustDate(t, "2026-07-30"),
	}}
	cal := New(src, zerolog.Nop())

	got := cal.TradingDaysIn(context.Background(), mustDate(t, "2026-07-28"), mustDate(t, "2026-07-29"))
	require.Len(t, got, 2)
	assert.Equal(t, mustDate(t, "2026-07-28"), got[0])
	assert.Equal(t, mustDate(t, "2026-07-29"), got[1])
}
