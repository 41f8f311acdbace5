package alpha

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baselineFeature(code string, changePct float64) TickerFeature {
	return TickerFeature{
		TickerCode:       code,
		DisplayName:      "示例股份",
		ChangePct:        changePct,
		VolRatioMA20:     3.0,
		UpperShadowRatio: 0.05,
		Close:            10,
		MA20:             9,
		VWAP:             9,
	}
}

func TestFilterHardConstraints_BaselinePasses(t *testing.T) {
	features := []TickerFeature{baselineFeature("600000", 8.0)}
	survivors, counts, err := FilterHardConstraints(features, Params{Model: ModelT4}.withDefaults(), RegimeBalance)
	require.NoError(t, err)
	require.Len(t, survivors, 1)
	assert.Equal(t, 1, counts["min_change_pct"])
}

func TestFilterHardConstraints_StarLimitUpExcluded(t *testing.T) {
	// E2E-6: 688001 at change_pct 20.0 (STAR-board limit-up) must be excluded.
	f := baselineFeature("688001", 20.0)
	_, _, err := FilterHardConstraints([]TickerFeature{f}, Params{Model: ModelT4}.withDefaults(), RegimeBalance)
	assert.ErrorIs(t, err, ErrEmptyAfterFilter)
}

func TestFilterHardConstraints_STMarkerExcluded(t *testing.T) {
	f := baselineFeature("600001", 8.0)
	f.DisplayName = "*ST示例"
	_, _, err := FilterHardConstraints([]TickerFeature{f}, Params{Model: ModelT4}.withDefaults(), RegimeBalance)
	assert.ErrorIs(t, err, ErrEmptyAfterFilter)
}

func TestFilterHardConstraints_T6DefenseRegimeRequiresBiasOrRSI(t *testing.T) {
	f := baselineFeature("600000", 3.5)
	f.Bias20 = 0
	f.RSI6 = 50
	f.ATR = 0.1
	_, _, err := FilterHardConstraints([]TickerFeature{f}, Params{Model: ModelT6}.withDefaults(), RegimeDefense)
	assert.ErrorIs(t, err, ErrEmptyAfterFilter)

	f.RSI6 = 20 // now satisfies the rsi_6 < 25 branch
	survivors, _, err := FilterHardConstraints([]TickerFeature{f}, Params{Model: ModelT6}.withDefaults(), RegimeDefense)
	require.NoError(t, err)
	assert.Len(t, survivors, 1)
}
