package alpha

import (
	"testing"
	"time"

	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestDetectRegime_InsufficientHistoryDefaultsToBalance(t *testing.T) {
	regime, z := DetectRegime(nil)
	assert.Equal(t, RegimeBalance, regime)
	assert.Equal(t, 0.0, z)
}

func TestDetectRegime_SteadyMarketIsBalance(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var bars []store.MarketIndexBar
	for i := 0; i < 60; i++ {
		low := 99.5 + float64(i)*0.01
		bars = append(bars, store.MarketIndexBar{
			IndexCode: "000852",
			TradeDate: base.AddDate(0, 0, i),
			High:      low + 1.0,
			Low:       low,
		})
	}
	regime, _ := DetectRegime(bars)
	assert.Equal(t, RegimeBalance, regime)
}
