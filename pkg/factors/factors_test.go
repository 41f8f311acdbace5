package factors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrailingMean_InsufficientHistoryIsNaN(t *testing.T) {
	series := []float64{1, 2, 3}
	assert.True(t, math.IsNaN(TrailingMean(series, 1, 5)))
}

func TestTrailingMean_Causal(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	// window 3 ending at index 4 (values 3,4,5) -> mean 4
	assert.InDelta(t, 4.0, TrailingMean(series, 4, 3), 1e-9)
}

func TestTrailingMeanPartial_UsesShorterSpanInsteadOfNaN(t *testing.T) {
	series := []float64{1, 2, 3}
	assert.InDelta(t, 1.5, TrailingMeanPartial(series, 1, 5), 1e-9) // only (1,2) available
}

func TestMovingAverages(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	mas := MovingAverages(series, []int{2, 3})
	assert.True(t, math.IsNaN(mas[3][0]))
	assert.InDelta(t, 1.5, mas[2][1], 1e-9)
}

func TestRankPercentile(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 0.8, RankPercentile(series, 5), 1e-9)
	assert.InDelta(t, 0.0, RankPercentile(series, 0), 1e-9)
}

func TestPctChange(t *testing.T) {
	series := []float64{100, 110, 121}
	assert.InDelta(t, 0.1, PctChange(series, 1, 1), 1e-9)
	assert.True(t, math.IsNaN(PctChange(series, 0, 1)))
}
