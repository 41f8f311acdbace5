package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCumulativeReturn_CompoundsAcrossWindow(t *testing.T) {
	// +10% then +10% compounds to 21%, not 20%.
	changePcts := []float64{10, 10}
	assert.InDelta(t, 21.0, CumulativeReturn(changePcts, 20), 1e-9)
}

func TestCumulativeReturn_WindowShorterThanHistory(t *testing.T) {
	changePcts := []float64{100, 10, 10} // only last 2 entries count
	assert.InDelta(t, 21.0, CumulativeReturn(changePcts, 2), 1e-9)
}

func TestComputeSectorRPS_FewerThanTwoSectorsDefaultsToZero(t *testing.T) {
	out := ComputeSectorRPS([]SectorReturn{{SectorName: "Banking", ReturnPct: 5}})
	assert.Equal(t, 0.0, out["Banking"])
}

func TestComputeSectorRPS_RanksAcrossSectors(t *testing.T) {
	out := ComputeSectorRPS([]SectorReturn{
		{SectorName: "A", ReturnPct: 1},
		{SectorName: "B", ReturnPct: 5},
		{SectorName: "C", ReturnPct: 10},
	})
	assert.Less(t, out["A"], out["B"])
	assert.Less(t, out["B"], out["C"])
}

func TestSectorMAStatus_Bullish(t *testing.T) {
	changePcts := make([]float64, 25)
	for i := range changePcts {
		changePcts[i] = 1.0 // steady gains push MA5 > MA10 > MA20
	}
	assert.Equal(t, 1, SectorMAStatus(changePcts))
}

func TestSectorMAStatus_InsufficientHistory(t *testing.T) {
	assert.Equal(t, 0, SectorMAStatus([]float64{1, 2, 3}))
}

func TestTopWeightStocks_OrdersDescendingAndCaps5(t *testing.T) {
	turnover := map[string]float64{
		"000001": 10,
		"000002": 50,
		"000003": 30,
		"000004": 20,
		"000005": 5,
		"000006": 60,
	}
	top := TopWeightStocks(turnover)
	assert.Len(t, top, 5)
	assert.Equal(t, "000006", top[0])
	assert.Equal(t, "000002", top[1])
}
