package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRPS250_EmptyAndSingleton(t *testing.T) {
	assert.Empty(t, ComputeRPS250(nil))

	single := ComputeRPS250([]TickerReturn{{TickerCode: "000001", ReturnPct: 5}})
	assert.Equal(t, 0.0, single["000001"])
}

func TestComputeRPS250_RanksAscendingAndClips(t *testing.T) {
	returns := []TickerReturn{
		{TickerCode: "A", ReturnPct: -10},
		{TickerCode: "B", ReturnPct: 0},
		{TickerCode: "C", ReturnPct: 10},
		{TickerCode: "D", ReturnPct: 20},
	}
	out := ComputeRPS250(returns)
	assert.Equal(t, 0.0, out["A"])
	assert.InDelta(t, 99.9, out["D"], 1e-9)
	assert.Less(t, out["B"], out["C"])
}

func TestComputeRPS250_ExcludedTickersHaveNoEntry(t *testing.T) {
	returns := []TickerReturn{{TickerCode: "A", ReturnPct: 1}, {TickerCode: "B", ReturnPct: 2}}
	out := ComputeRPS250(returns)
	_, ok := out["C"]
	assert.False(t, ok, "tickers lacking 250-day history must be excluded upstream, not scored")
}
