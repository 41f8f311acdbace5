package alpha

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefine_WinProbabilityHeuristic(t *testing.T) {
	strong := ScoredTicker{TickerFeature: TickerFeature{TurnoverRate: 10, VolRatioMA20: 2.0, VCPFactor: 0.2}}
	weak := ScoredTicker{TickerFeature: TickerFeature{TurnoverRate: 50, VolRatioMA20: 0.5, VCPFactor: 1.0}}

	refined, filtered := Refine([]ScoredTicker{strong, weak}, Params{})
	require.Len(t, refined, 2)
	assert.Equal(t, 0, filtered)
	assert.Equal(t, 70.0, refined[0].WinProbability)
	assert.Equal(t, 40.0, refined[1].WinProbability)
}

func TestRefine_AIFilterFallsBackWhenStrictThresholdEmpties(t *testing.T) {
	moderate := ScoredTicker{TickerFeature: TickerFeature{TurnoverRate: 10, VolRatioMA20: 0.5, VCPFactor: 1.0}} // win_prob 40 < 50 and < 60
	refined, filtered := Refine([]ScoredTicker{moderate}, Params{AIFilter: true})
	assert.Empty(t, refined) // even the loose 50 threshold excludes a 40-probability ticker
	assert.Equal(t, 1, filtered)
}

func TestRefine_AIFilterKeepsStrictWhenNonEmpty(t *testing.T) {
	strong := ScoredTicker{TickerFeature: TickerFeature{TurnoverRate: 10, VolRatioMA20: 2.0, VCPFactor: 0.2}}
	refined, filtered := Refine([]ScoredTicker{strong}, Params{AIFilter: true})
	require.Len(t, refined, 1)
	assert.Equal(t, 0, filtered)
}
